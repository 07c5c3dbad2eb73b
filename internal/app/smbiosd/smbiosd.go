// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package smbiosd wires the MDR synchronizer, the staging transport and the
// hardware inventory controller into a running service.
package smbiosd

import (
	"context"
	"fmt"

	"github.com/cosi-project/runtime/pkg/controller/runtime"
	"github.com/cosi-project/runtime/pkg/safe"
	"github.com/cosi-project/runtime/pkg/state"
	"github.com/cosi-project/runtime/pkg/state/impl/inmem"
	"github.com/cosi-project/runtime/pkg/state/impl/namespaced"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openbmc/smbios-mdr/internal/pkg/mdr"
	"github.com/openbmc/smbios-mdr/internal/pkg/smbios"
	"github.com/openbmc/smbios-mdr/pkg/logging"
	"github.com/openbmc/smbios-mdr/pkg/resources/hardware"
)

// Config carries the service settings.
type Config struct {
	// BackingStorePath is the MDR backing store file.
	BackingStorePath string

	// LocatorMapPath points to an optional YAML locator map overriding
	// memory module physical positions.
	LocatorMapPath string

	// WatchBackingStore follows the backing store file for out-of-process
	// rewrites.
	WatchBackingStore bool

	OnlyDeviceLocator   bool
	EmbeddedSlots       bool
	ExposeComponentName bool
}

// Service owns the resource state, the synchronizer and the staging buffer.
type Service struct {
	config Config
	logger *zap.Logger

	state        state.State
	store        *mdr.Store
	synchronizer *mdr.Synchronizer
	staging      *StagingBuffer
}

// New builds the service.
func New(config Config, logger *zap.Logger) (*Service, error) {
	decodeOptions := smbios.Options{
		OnlyDeviceLocator:   config.OnlyDeviceLocator,
		EmbeddedSlots:       config.EmbeddedSlots,
		ExposeComponentName: config.ExposeComponentName,
	}

	if config.LocatorMapPath != "" {
		locations, err := smbios.LoadMemoryLocations(config.LocatorMapPath)
		if err != nil {
			return nil, err
		}

		decodeOptions.MemoryLocations = locations
	}

	svc := &Service{
		config: config,
		logger: logger,
		state:  state.WrapCore(namespaced.NewState(inmem.Build)),
		store:  mdr.NewStore(config.BackingStorePath),
	}

	svc.synchronizer = mdr.NewSynchronizer(svc.store, logger.With(logging.Component("mdr")),
		mdr.WithDecodeOptions(decodeOptions),
		mdr.WithSyncHandler(svc.publishTableStatus),
	)

	svc.staging = NewStagingBuffer(svc.store, svc.synchronizer, logger)

	return svc, nil
}

// State returns the resource state the inventory is published to.
func (svc *Service) State() state.State {
	return svc.state
}

// Synchronizer returns the MDR protocol surface.
func (svc *Service) Synchronizer() *mdr.Synchronizer {
	return svc.synchronizer
}

// Staging returns the staging transport.
func (svc *Service) Staging() *StagingBuffer {
	return svc.staging
}

// Run blocks running the controller runtime and the backing store watcher
// until the context is canceled.
func (svc *Service) Run(ctx context.Context) error {
	controllerRuntime, err := runtime.NewRuntime(svc.state, svc.logger.With(logging.Component("controller-runtime")))
	if err != nil {
		return fmt.Errorf("error setting up controller runtime: %w", err)
	}

	if err = controllerRuntime.RegisterController(&InventoryController{
		Snapshot: svc.synchronizer.Snapshot,
	}); err != nil {
		return fmt.Errorf("error registering controller: %w", err)
	}

	defer svc.synchronizer.Stop()

	// pick up a table left over from a previous boot; a missing or invalid
	// backing store is not fatal, the agent will push a fresh one
	if svc.synchronizer.AgentSynchronizeData() {
		svc.logger.Info("restored table from backing store")
	}

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return controllerRuntime.Run(ctx)
	})

	if svc.config.WatchBackingStore {
		eg.Go(func() error {
			return RunWatcher(ctx, svc.store, svc.synchronizer, svc.logger)
		})
	}

	return eg.Wait()
}

func (svc *Service) publishTableStatus(snapshot *mdr.Snapshot) {
	ctx := context.Background()

	var version string

	if snapshot.Inventory != nil {
		version = snapshot.Inventory.Version.String()
	}

	fill := func(res *hardware.TableStatus) {
		spec := res.TypedSpec()

		spec.Generation = snapshot.Generation
		spec.DataVersion = snapshot.DataVersion
		spec.Timestamp = snapshot.Timestamp
		spec.Size = snapshot.Size
		spec.SMBIOSVersion = version
	}

	if _, err := safe.StateUpdateWithConflicts(ctx, svc.state, hardware.NewTableStatus().Metadata(), func(res *hardware.TableStatus) error {
		fill(res)

		return nil
	}); err != nil {
		if state.IsNotFoundError(err) {
			status := hardware.NewTableStatus()
			fill(status)

			if err = svc.state.Create(ctx, status); err != nil {
				svc.logger.Error("failed to publish table status", zap.Error(err))
			}

			return
		}

		svc.logger.Error("failed to publish table status", zap.Error(err))
	}
}
