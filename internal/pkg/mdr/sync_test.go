// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package mdr_test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/openbmc/smbios-mdr/internal/pkg/mdr"
	"github.com/openbmc/smbios-mdr/internal/pkg/smbios"
)

// tableBlob builds a minimal valid table: a BIOS structure, a system
// structure and a trailing 3.0-style entry point for version sniffing.
func tableBlob(major, minor uint8) []byte {
	var blob []byte

	// type 0, version string position 5.
	bios := []byte{0, 18, 0x00, 0x00}
	bios = append(bios, make([]byte, 14)...)
	bios[4+1] = 1
	blob = append(blob, bios...)
	blob = append(blob, "F31\x00\x00"...)

	system := []byte{1, 27, 0x00, 0x01}
	system = append(system, make([]byte, 23)...)
	system[4+0] = 1
	blob = append(blob, system...)
	blob = append(blob, "Acme\x00\x00"...)

	ep := make([]byte, 24)
	copy(ep, "_SM3_")
	ep[7], ep[8] = major, minor

	return append(blob, ep...)
}

func writeStore(t *testing.T, path string, hdr mdr.Header, blob []byte) {
	t.Helper()

	encoded, err := hdr.MarshalBinary()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, append(encoded, blob...), 0o644))
}

func newSynchronizer(t *testing.T, path string, opts ...mdr.Option) *mdr.Synchronizer {
	t.Helper()

	s := mdr.NewSynchronizer(mdr.NewStore(path), zaptest.NewLogger(t), opts...)

	t.Cleanup(s.Stop)

	return s
}

func TestDirectoryEntryStates(t *testing.T) {
	for _, tt := range []struct {
		name      string
		stage     mdr.Stage
		lock      mdr.Lock
		validity  mdr.Validity
		available bool
	}{
		{name: "init unlocked", stage: mdr.StageInit, lock: mdr.Unlocked, validity: mdr.Invalid, available: true},
		{name: "init locked", stage: mdr.StageInit, lock: mdr.Locked, validity: mdr.Invalid, available: false},
		{name: "loaded unlocked", stage: mdr.StageLoaded, lock: mdr.Unlocked, validity: mdr.Valid, available: true},
		{name: "loaded locked", stage: mdr.StageLoaded, lock: mdr.Locked, validity: mdr.ValidLocked, available: false},
		{name: "updated unlocked", stage: mdr.StageUpdated, lock: mdr.Unlocked, validity: mdr.Valid, available: true},
		{name: "updated locked", stage: mdr.StageUpdated, lock: mdr.Locked, validity: mdr.ValidLocked, available: false},
		{name: "updating unlocked", stage: mdr.StageUpdating, lock: mdr.Unlocked, validity: mdr.Invalid, available: false},
		{name: "updating locked", stage: mdr.StageUpdating, lock: mdr.Locked, validity: mdr.Invalid, available: false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			entry := mdr.DirectoryEntry{Stage: tt.stage, Lock: tt.lock}

			assert.Equal(t, tt.validity, entry.Validity())
			assert.Equal(t, tt.available, entry.AvailableForUpdate())
		})
	}
}

func TestGetDirectoryInformation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smbios2")
	s := newSynchronizer(t, path)

	_, err := s.GetDirectoryInformation(0)
	assert.ErrorIs(t, err, mdr.ErrInvalidParameter, "unreadable backing store")

	writeStore(t, path, mdr.Header{DirVersion: 1, MDRType: mdr.MDRType}, nil)

	info, err := s.GetDirectoryInformation(0)
	require.NoError(t, err)

	assert.Equal(t, uint8(mdr.ProtocolVersion), info.ProtocolVersion)
	assert.Equal(t, uint8(1), info.ReturnedEntries)
	assert.Equal(t, uint8(0), info.RemainingEntries)
	require.Len(t, info.EntryIDs, 1)
	assert.Equal(t, mdr.TableID, info.EntryIDs[0])

	_, err = s.GetDirectoryInformation(5)
	assert.ErrorIs(t, err, mdr.ErrInvalidParameter)
}

func TestGetDataInformation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smbios2")
	s := newSynchronizer(t, path)

	info, err := s.GetDataInformation(0)
	require.NoError(t, err)

	assert.Equal(t, mdr.TableID, info.ID)
	assert.Equal(t, mdr.Invalid, info.Validity, "initial stage is invalid")

	_, err = s.GetDataInformation(mdr.MaxDirEntries)
	assert.ErrorIs(t, err, mdr.ErrInvalidParameter)
}

func TestGetDataOffer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smbios2")
	s := newSynchronizer(t, path)

	id, err := s.GetDataOffer()
	require.NoError(t, err, "init stage with unlocked entry accepts updates")
	assert.Equal(t, mdr.TableID, id)
}

func TestSendDirectoryInformation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smbios2")
	s := newSynchronizer(t, path)

	newID := make([]byte, mdr.IDLength)
	for i := range newID {
		newID[i] = uint8(i + 1)
	}

	_, err := s.SendDirectoryInformation(2, mdr.MaxDirEntries, 1, 0, newID)
	assert.ErrorIs(t, err, mdr.ErrInvalidParameter, "directory index out of range")

	_, err = s.SendDirectoryInformation(2, 0, 0, 0, nil)
	assert.ErrorIs(t, err, mdr.ErrInvalidParameter, "no entries returned")

	_, err = s.SendDirectoryInformation(2, 0, 2, 0, newID)
	assert.ErrorIs(t, err, mdr.ErrInvalidParameter, "entry count does not match id list size")

	terminate, err := s.SendDirectoryInformation(1, 0, 1, 0, newID)
	require.NoError(t, err)
	assert.True(t, terminate, "matching directory version terminates immediately")

	terminate, err = s.SendDirectoryInformation(2, 0, 1, 3, newID)
	require.NoError(t, err)
	assert.False(t, terminate, "remaining entries keep the exchange open")

	terminate, err = s.SendDirectoryInformation(2, 0, 1, 0, newID)
	require.NoError(t, err)
	assert.True(t, terminate, "version adopted once no entries remain")

	index, err := s.FindIdIndex(newID)
	require.NoError(t, err)
	assert.Equal(t, 0, index)

	terminate, err = s.SendDirectoryInformation(2, 0, 1, 0, newID)
	require.NoError(t, err)
	assert.True(t, terminate, "adopted version now matches")
}

func TestSendDirectoryInformationOverflow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smbios2")
	s := newSynchronizer(t, path)

	_, err := s.SendDirectoryInformation(2, 0, mdr.MaxDirEntries+2, 0, make([]byte, (mdr.MaxDirEntries+2)*mdr.IDLength))
	assert.ErrorIs(t, err, mdr.ErrInvalidParameter, "entry count exceeds directory capacity")

	_, err = s.SendDirectoryInformation(2, mdr.MaxDirEntries-1, 2, 0, make([]byte, 2*mdr.IDLength))
	assert.ErrorIs(t, err, mdr.ErrInvalidParameter, "entries past the directory tail")

	// The directory must stay within bounds for subsequent reads.
	info, err := s.GetDirectoryInformation(0)
	require.NoError(t, err)
	assert.Len(t, info.EntryIDs, 1)

	_, err = s.FindIdIndex(make([]byte, mdr.IDLength))
	assert.ErrorIs(t, err, mdr.ErrInvalidID)
}

func TestSendDataInformation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smbios2")
	s := newSynchronizer(t, path)

	_, err := s.SendDataInformation(mdr.MaxDirEntries, 0, 0, 0, 0)
	assert.ErrorIs(t, err, mdr.ErrInvalidParameter)

	changed, err := s.SendDataInformation(0, 0, 1024, 3, 0x1111)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.SendDataInformation(0, 0, 1024, 3, 0x1111)
	require.NoError(t, err)
	assert.False(t, changed, "identical metadata reports no change")

	changed, err = s.SendDataInformation(0, 0, 1024, 3, 0x2222)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestFindIdIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smbios2")
	s := newSynchronizer(t, path)

	index, err := s.FindIdIndex(mdr.TableID[:])
	require.NoError(t, err)
	assert.Equal(t, 0, index)

	_, err = s.FindIdIndex([]byte{1, 2, 3})
	assert.ErrorIs(t, err, mdr.ErrInvalidID, "short tag")

	unknown := make([]byte, mdr.IDLength)
	_, err = s.FindIdIndex(unknown)
	assert.ErrorIs(t, err, mdr.ErrInvalidID)
}

func TestAgentSynchronizeData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smbios2")
	s := newSynchronizer(t, path)

	assert.False(t, s.AgentSynchronizeData(), "missing backing store fails closed")
	assert.Nil(t, s.Snapshot())

	writeStore(t, path,
		mdr.Header{DirVersion: 3, MDRType: mdr.MDRType, Timestamp: 0x45464748},
		tableBlob(3, 5))

	// Header DataSize of zero: blob is clamped away, no anchor visible.
	assert.False(t, s.AgentSynchronizeData())

	blob := tableBlob(3, 5)
	writeStore(t, path,
		mdr.Header{DirVersion: 3, MDRType: mdr.MDRType, Timestamp: 0x45464748, DataSize: uint32(len(blob))},
		blob)

	require.True(t, s.AgentSynchronizeData())

	snapshot := s.Snapshot()
	require.NotNil(t, snapshot)
	assert.Equal(t, uint64(1), snapshot.Generation)
	assert.Equal(t, uint8(3), snapshot.DataVersion)
	assert.Equal(t, uint32(0x45464748), snapshot.Timestamp)
	assert.Equal(t, smbios.Version{Major: 3, Minor: 5}, snapshot.Inventory.Version)
	assert.Equal(t, "F31", snapshot.Inventory.BIOS.Version)
	assert.Equal(t, "Acme", snapshot.Inventory.System.Manufacturer)

	info, err := s.GetDataInformation(0)
	require.NoError(t, err)
	assert.Equal(t, mdr.Valid, info.Validity, "sync loads and unlocks the entry")

	// Unsupported version: previous snapshot is retained.
	blob = tableBlob(3, 1)
	writeStore(t, path,
		mdr.Header{DirVersion: 4, MDRType: mdr.MDRType, DataSize: uint32(len(blob))},
		blob)

	assert.False(t, s.AgentSynchronizeData())
	assert.Equal(t, uint64(1), s.Snapshot().Generation)
	assert.Equal(t, uint8(3), s.Snapshot().DataVersion)
}

func TestAgentSynchronizeDataOversized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smbios2")
	s := newSynchronizer(t, path)

	var hdr [10]byte

	hdr[1] = mdr.MDRType
	binary.LittleEndian.PutUint32(hdr[6:], 128*1024)
	require.NoError(t, os.WriteFile(path, hdr[:], 0o644))

	assert.False(t, s.AgentSynchronizeData(), "data size over capacity fails closed")
}

func TestAgentSynchronizeDataCorruptBIOS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smbios2")
	s := newSynchronizer(t, path)

	// BIOS version string with a control character.
	blob := tableBlob(3, 5)
	copy(blob[18:], "F\x011")

	writeStore(t, path,
		mdr.Header{DirVersion: 3, MDRType: mdr.MDRType, DataSize: uint32(len(blob))},
		blob)

	require.True(t, s.AgentSynchronizeData(), "sync proceeds with the version defaulted")

	snapshot := s.Snapshot()
	require.NotNil(t, snapshot)
	assert.Equal(t, smbios.NoBIOSVersion, snapshot.Inventory.BIOS.Version)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, contents, "corrupt backing store is truncated")
}

func TestSynchronizeDirectoryCommonData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smbios2")

	var syncs atomic.Int32

	s := newSynchronizer(t, path,
		mdr.WithSyncDelay(50*time.Millisecond),
		mdr.WithSyncHandler(func(*mdr.Snapshot) { syncs.Add(1) }))

	blob := tableBlob(3, 4)
	writeStore(t, path,
		mdr.Header{DirVersion: 1, MDRType: mdr.MDRType, DataSize: uint32(len(blob))},
		blob)

	_, err := s.SynchronizeDirectoryCommonData(mdr.MaxDirEntries, 100)
	assert.ErrorIs(t, err, mdr.ErrInvalidParameter)

	_, err = s.SynchronizeDirectoryCommonData(0, 100)
	require.NoError(t, err)

	prev, err := s.SynchronizeDirectoryCommonData(0, 200)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), prev.DataVersion)

	assert.Eventually(t, func() bool {
		return syncs.Load() == 1
	}, 2*time.Second, 10*time.Millisecond, "re-armed debounce coalesces into one sync")

	// No further syncs arrive after the debounce fires once.
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), syncs.Load())
}
