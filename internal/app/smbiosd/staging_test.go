// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smbiosd_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/openbmc/smbios-mdr/internal/app/smbiosd"
	"github.com/openbmc/smbios-mdr/internal/pkg/mdr"
)

// tableBlob builds a minimal valid table image: a system structure followed
// by a 3.0-style entry point for version sniffing.
func tableBlob() []byte {
	var blob []byte

	system := []byte{1, 27, 0x00, 0x01}
	system = append(system, make([]byte, 23)...)
	system[4+0] = 1
	blob = append(blob, system...)
	blob = append(blob, "Acme\x00\x00"...)

	ep := make([]byte, 24)
	copy(ep, "_SM3_")
	ep[7], ep[8] = 3, 5

	return append(blob, ep...)
}

func newStaging(t *testing.T) (*smbiosd.StagingBuffer, *mdr.Synchronizer, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "smbios2")
	store := mdr.NewStore(path)

	synchronizer := mdr.NewSynchronizer(store, zaptest.NewLogger(t))
	t.Cleanup(synchronizer.Stop)

	return smbiosd.NewStagingBuffer(store, synchronizer, zaptest.NewLogger(t)), synchronizer, path
}

func TestStagingSession(t *testing.T) {
	staging, _, _ := newStaging(t)

	assert.ErrorIs(t, staging.Write(0, []byte{1}), smbiosd.ErrNoSession)
	assert.ErrorIs(t, staging.Commit(), smbiosd.ErrNoSession)

	require.NoError(t, staging.Open())
	assert.ErrorIs(t, staging.Open(), smbiosd.ErrSessionOpen)

	staging.Abort()
	assert.ErrorIs(t, staging.Write(0, []byte{1}), smbiosd.ErrNoSession)
}

func TestStagingWriteBounds(t *testing.T) {
	staging, _, _ := newStaging(t)

	require.NoError(t, staging.Open())

	assert.ErrorIs(t, staging.Write(64*1024, []byte{1}), smbiosd.ErrStagingBound)
	assert.NoError(t, staging.Write(64*1024-1, []byte{1}))
	assert.Equal(t, uint32(64*1024), staging.Size())
}

func TestStagingCommit(t *testing.T) {
	staging, synchronizer, path := newStaging(t)

	blob := tableBlob()
	mid := uint32(len(blob) / 2)

	require.NoError(t, staging.Open())
	require.NoError(t, staging.Write(0, blob[:mid]))
	require.NoError(t, staging.Write(mid, blob[mid:]))
	require.NoError(t, staging.Commit())

	snapshot := synchronizer.Snapshot()
	require.NotNil(t, snapshot)

	assert.EqualValues(t, 1, snapshot.Generation)
	assert.Equal(t, "3.5", snapshot.Inventory.Version.String())
	assert.Equal(t, "Acme", snapshot.Inventory.System.Manufacturer)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, contents, mdr.HeaderLength+len(blob))

	// session is closed after commit
	assert.ErrorIs(t, staging.Commit(), smbiosd.ErrNoSession)
}

func TestStagingCommitInvalid(t *testing.T) {
	staging, synchronizer, _ := newStaging(t)

	require.NoError(t, staging.Open())
	require.NoError(t, staging.Write(0, []byte("garbage")))

	assert.Error(t, staging.Commit())
	assert.Nil(t, synchronizer.Snapshot())
}
