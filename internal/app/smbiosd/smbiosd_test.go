// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smbiosd_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cosi-project/runtime/pkg/safe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/openbmc/smbios-mdr/internal/app/smbiosd"
	"github.com/openbmc/smbios-mdr/pkg/resources/hardware"
)

func TestServiceStagingToInventory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smbios2")

	svc, err := smbiosd.New(smbiosd.Config{BackingStorePath: path}, zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())

	errCh := make(chan error, 1)

	go func() {
		errCh <- svc.Run(ctx)
	}()

	staging := svc.Staging()
	require.NoError(t, staging.Open())
	require.NoError(t, staging.Write(0, tableBlob()))
	require.NoError(t, staging.Commit())

	assert.Eventually(t, func() bool {
		status, err := safe.StateGet[*hardware.TableStatus](ctx, svc.State(), hardware.NewTableStatus().Metadata())
		if err != nil {
			return false
		}

		return status.TypedSpec().Generation == 1 && status.TypedSpec().SMBIOSVersion == "3.5"
	}, 3*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		info, err := safe.StateGet[*hardware.SystemInformation](ctx, svc.State(), hardware.NewSystemInformation().Metadata())
		if err != nil {
			return false
		}

		return info.TypedSpec().Manufacturer == "Acme"
	}, 3*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("service did not stop")
	}
}

func TestServiceBadLocatorMap(t *testing.T) {
	_, err := smbiosd.New(smbiosd.Config{
		BackingStorePath: filepath.Join(t.TempDir(), "smbios2"),
		LocatorMapPath:   filepath.Join(t.TempDir(), "missing.yaml"),
	}, zaptest.NewLogger(t))

	assert.Error(t, err)
}
