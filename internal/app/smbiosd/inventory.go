// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smbiosd

import (
	"context"
	"fmt"

	"github.com/cosi-project/runtime/pkg/controller"
	"github.com/cosi-project/runtime/pkg/resource"
	"github.com/cosi-project/runtime/pkg/safe"
	"github.com/cosi-project/runtime/pkg/state"
	"github.com/siderolabs/gen/xslices"
	"go.uber.org/zap"

	"github.com/openbmc/smbios-mdr/internal/pkg/mdr"
	"github.com/openbmc/smbios-mdr/internal/pkg/smbios"
	"github.com/openbmc/smbios-mdr/pkg/resources/hardware"
)

// InventoryController rebuilds the hardware record resources from the
// latest table snapshot whenever the table status changes.
type InventoryController struct {
	// Snapshot returns the latest sync result, nil before the first sync.
	Snapshot func() *mdr.Snapshot
}

// Name implements controller.Controller interface.
func (ctrl *InventoryController) Name() string {
	return "hardware.InventoryController"
}

// Inputs implements controller.Controller interface.
func (ctrl *InventoryController) Inputs() []controller.Input {
	return []controller.Input{
		{
			Namespace: hardware.NamespaceName,
			Type:      hardware.TableStatusType,
			Kind:      controller.InputWeak,
		},
	}
}

// Outputs implements controller.Controller interface.
func (ctrl *InventoryController) Outputs() []controller.Output {
	return xslices.Map(inventoryOutputTypes, func(resourceType resource.Type) controller.Output {
		return controller.Output{
			Type: resourceType,
			Kind: controller.OutputExclusive,
		}
	})
}

var inventoryOutputTypes = []resource.Type{
	hardware.ProcessorType,
	hardware.MemoryModuleType,
	hardware.MemoryArrayType,
	hardware.PCIeSlotType,
	hardware.TPMType,
	hardware.FirmwareComponentType,
	hardware.SystemInformationType,
}

// Run implements controller.Controller interface.
//
//nolint:gocyclo
func (ctrl *InventoryController) Run(ctx context.Context, r controller.Runtime, logger *zap.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.EventCh():
		}

		if _, err := safe.ReaderGetByID[*hardware.TableStatus](ctx, r, hardware.TableStatusID); err != nil {
			if state.IsNotFoundError(err) {
				continue
			}

			return fmt.Errorf("error getting table status: %w", err)
		}

		snapshot := ctrl.Snapshot()
		if snapshot == nil || snapshot.Inventory == nil {
			continue
		}

		touchedIDs := map[string]struct{}{}

		if err := ctrl.updateOutputs(ctx, r, snapshot.Inventory, touchedIDs); err != nil {
			return err
		}

		if err := ctrl.cleanupOutputs(ctx, r, touchedIDs); err != nil {
			return err
		}

		logger.Info("hardware inventory published",
			zap.Uint64("generation", snapshot.Generation),
			zap.Int("resources", len(touchedIDs)),
		)
	}
}

//nolint:gocyclo,cyclop
func (ctrl *InventoryController) updateOutputs(ctx context.Context, r controller.Runtime, inv *smbios.Inventory, touchedIDs map[string]struct{}) error {
	touch := func(resourceType resource.Type, id resource.ID) {
		touchedIDs[resourceType+"/"+id] = struct{}{}
	}

	if err := safe.WriterModify(ctx, r, hardware.NewSystemInformation(), func(res *hardware.SystemInformation) error {
		spec := res.TypedSpec()

		spec.Manufacturer = inv.System.Manufacturer
		spec.ProductName = inv.System.ProductName
		spec.Version = inv.System.Version
		spec.SerialNumber = inv.System.SerialNumber
		spec.UUID = inv.System.UUID
		spec.SKUNumber = inv.System.SKUNumber
		spec.Family = inv.System.Family
		spec.BIOSVendor = inv.BIOS.Vendor
		spec.BIOSVersion = inv.BIOS.Version
		spec.BIOSReleaseDate = inv.BIOS.ReleaseDate

		return nil
	}); err != nil {
		return fmt.Errorf("error updating system information: %w", err)
	}

	touch(hardware.SystemInformationType, hardware.SystemInformationID)

	for i, p := range inv.Processors {
		id := fmt.Sprintf("cpu-%d", i)

		if err := safe.WriterModify(ctx, r, hardware.NewProcessor(id), func(res *hardware.Processor) error {
			spec := res.TypedSpec()

			spec.Socket = p.Socket
			spec.Present = p.Present
			spec.Manufacturer = p.Manufacturer
			spec.Version = p.Version
			spec.SerialNumber = p.SerialNumber
			spec.PartNumber = p.PartNumber
			spec.Family = p.Family
			spec.EffectiveFamily = p.EffectiveFamily
			spec.EffectiveModel = p.EffectiveModel
			spec.Step = p.Step
			spec.ProcessorID = p.ID
			spec.MaxSpeedMHz = p.MaxSpeedMHz
			spec.CoreCount = p.CoreCount
			spec.ThreadCount = p.ThreadCount
			spec.Characteristics = xslices.Map(p.Characteristics, func(c smbios.Capability) string { return string(c) })

			return nil
		}); err != nil {
			return fmt.Errorf("error updating processor %s: %w", id, err)
		}

		touch(hardware.ProcessorType, id)
	}

	for i, m := range inv.MemoryModules {
		id := fmt.Sprintf("dimm-%d", i)

		if err := safe.WriterModify(ctx, r, hardware.NewMemoryModule(id), func(res *hardware.MemoryModule) error {
			spec := res.TypedSpec()

			spec.Present = m.Present
			spec.Functional = m.Functional
			spec.DeviceLocator = m.DeviceLocator
			spec.SizeKB = m.SizeKB
			spec.Type = string(m.Type)
			spec.TypeDetail = m.TypeDetail
			spec.MaxSpeedMHz = m.MaxSpeedMHz
			spec.ConfiguredSpeedMHz = m.ConfiguredSpeedMHz
			spec.Manufacturer = m.Manufacturer
			spec.SerialNumber = m.SerialNumber
			spec.AssetTag = m.AssetTag
			spec.PartNumber = m.PartNumber
			spec.Technology = string(m.Technology)
			spec.ECC = string(m.ECC)
			spec.MemoryController = m.MemoryController
			spec.Socket = m.Socket
			spec.Slot = m.Slot
			spec.Channel = m.Channel
			spec.ArrayHandle = m.ArrayHandle

			return nil
		}); err != nil {
			return fmt.Errorf("error updating memory module %s: %w", id, err)
		}

		touch(hardware.MemoryModuleType, id)
	}

	for i, a := range inv.MemoryArrays {
		id := fmt.Sprintf("memarray-%d", i)

		if err := safe.WriterModify(ctx, r, hardware.NewMemoryArray(id), func(res *hardware.MemoryArray) error {
			spec := res.TypedSpec()

			spec.Handle = a.Handle
			spec.ErrorCorrection = string(a.ErrorCorrection)
			spec.MaximumCapacity = a.MaximumCapacity
			spec.DeviceCount = a.DeviceCount

			return nil
		}); err != nil {
			return fmt.Errorf("error updating memory array %s: %w", id, err)
		}

		touch(hardware.MemoryArrayType, id)
	}

	for i, s := range inv.PCIeSlots {
		id := fmt.Sprintf("slot-%d", i)

		if err := safe.WriterModify(ctx, r, hardware.NewPCIeSlot(id), func(res *hardware.PCIeSlot) error {
			spec := res.TypedSpec()

			spec.Designation = s.Designation
			spec.Generation = string(s.Generation)
			spec.Kind = string(s.Kind)
			spec.Lanes = s.Lanes
			spec.InUse = s.InUse
			spec.HotPluggable = s.HotPluggable

			return nil
		}); err != nil {
			return fmt.Errorf("error updating PCIe slot %s: %w", id, err)
		}

		touch(hardware.PCIeSlotType, id)
	}

	for i, tpm := range inv.TPMs {
		id := fmt.Sprintf("tpm-%d", i)

		if err := safe.WriterModify(ctx, r, hardware.NewTPM(id), func(res *hardware.TPM) error {
			spec := res.TypedSpec()

			spec.Present = tpm.Present
			spec.VendorID = tpm.VendorID
			spec.SpecMajor = tpm.SpecMajor
			spec.FirmwareVersion = tpm.FirmwareVersion
			spec.Description = tpm.Description

			return nil
		}); err != nil {
			return fmt.Errorf("error updating TPM %s: %w", id, err)
		}

		touch(hardware.TPMType, id)
	}

	for _, fw := range inv.Firmware {
		if err := safe.WriterModify(ctx, r, hardware.NewFirmwareComponent(fw.Identifier), func(res *hardware.FirmwareComponent) error {
			spec := res.TypedSpec()

			spec.ComponentName = fw.ComponentName
			spec.Version = fw.Version
			spec.ReleaseDate = fw.ReleaseDate
			spec.Manufacturer = fw.Manufacturer
			spec.ImageSize = fw.ImageSize

			return nil
		}); err != nil {
			return fmt.Errorf("error updating firmware component %s: %w", fw.Identifier, err)
		}

		touch(hardware.FirmwareComponentType, fw.Identifier)
	}

	return nil
}

func (ctrl *InventoryController) cleanupOutputs(ctx context.Context, r controller.Runtime, touchedIDs map[string]struct{}) error {
	for _, resourceType := range inventoryOutputTypes {
		list, err := r.List(ctx, resource.NewMetadata(hardware.NamespaceName, resourceType, "", resource.VersionUndefined))
		if err != nil {
			return fmt.Errorf("error listing resources: %w", err)
		}

		for _, res := range list.Items {
			if res.Metadata().Owner() != ctrl.Name() {
				continue
			}

			if _, ok := touchedIDs[resourceType+"/"+res.Metadata().ID()]; !ok {
				if err = r.Destroy(ctx, res.Metadata()); err != nil {
					return fmt.Errorf("error cleaning up %s: %w", resourceType, err)
				}
			}
		}
	}

	return nil
}
