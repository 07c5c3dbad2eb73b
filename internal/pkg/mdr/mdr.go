// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package mdr implements the MDR (managed data region) version 2 directory
// protocol: a small state machine which governs when the SMBIOS table held
// in the backing store may be replaced versus read, plus the validated load
// sequence which turns the store contents into a decoded inventory snapshot.
package mdr

import (
	"errors"
	"time"
)

// Protocol constants.
const (
	// ProtocolVersion is the MDR protocol version reported in directory
	// and data information responses.
	ProtocolVersion = 2

	// AgentVersion is the version of this agent implementation.
	AgentVersion = 1

	// MDRType identifies SMBIOS table payloads in the backing store header.
	MDRType = 2

	// MaxDirEntries bounds the directory; this implementation manages a
	// single entry at index 0.
	MaxDirEntries = 4

	// TableDirIndex is the directory index of the managed SMBIOS table.
	TableDirIndex = 0

	// IDLength is the length of a directory entry tag.
	IDLength = 16

	// DefaultSyncDelay debounces agent-triggered synchronization.
	DefaultSyncDelay = 2 * time.Second
)

// TableID is the well-known tag of the SMBIOS table directory entry.
var TableID = [IDLength]uint8{40, 41, 42, 43, 44, 45, 46, 47, 48, 49, 50, 51, 52, 53, 54, 0x42}

// Protocol errors surfaced to the caller; parse failures during a sync are
// reported separately and never mutate directory state.
var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInvalidID        = errors.New("invalid data id")
	ErrUpdateInProgress = errors.New("update in progress")
)

// Stage is the lifecycle stage of a directory entry.
type Stage uint8

// Directory entry stages.
const (
	StageInit Stage = iota
	StageLoaded
	StageUpdated
	StageUpdating
)

// Lock is the advisory lock state of a directory entry.
type Lock uint8

// Directory entry lock states.
const (
	Unlocked Lock = iota
	Locked
)

// Validity is the externally visible state derived from stage and lock.
type Validity uint8

// Validity flags.
const (
	Invalid Validity = iota
	Valid
	ValidLocked
)

// DirectoryEntry is the metadata of one managed table.
type DirectoryEntry struct {
	ID          [IDLength]uint8
	Size        uint32
	DataSetSize uint32
	DataVersion uint8
	Timestamp   uint32
	Stage       Stage
	Lock        Lock
}

// Validity derives the external flag from the stage and lock pair.
func (e *DirectoryEntry) Validity() Validity {
	switch e.Stage {
	case StageLoaded, StageUpdated:
		if e.Lock == Locked {
			return ValidLocked
		}

		return Valid
	default:
		return Invalid
	}
}

// AvailableForUpdate reports whether a new sync may start: any stage but
// Updating, and not locked.
func (e *DirectoryEntry) AvailableForUpdate() bool {
	if e.Stage == StageUpdating {
		return false
	}

	return e.Lock == Unlocked
}

// DirectoryInfo is the response to GetDirectoryInformation.
type DirectoryInfo struct {
	ProtocolVersion  uint8
	DirVersion       uint8
	ReturnedEntries  uint8
	RemainingEntries uint8
	EntryIDs         [][IDLength]uint8
}

// DataInfo is the response to GetDataInformation.
type DataInfo struct {
	ProtocolVersion uint8
	ID              [IDLength]uint8
	Validity        Validity
	Size            uint32
	DataVersion     uint8
	Timestamp       uint32
}
