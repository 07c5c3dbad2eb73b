// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package mdr

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openbmc/smbios-mdr/internal/pkg/smbios"
)

// Snapshot is the immutable result of one successful sync.
type Snapshot struct {
	// Generation increments on every successful sync.
	Generation uint64

	Inventory *smbios.Inventory

	DataVersion uint8
	Timestamp   uint32
	Size        uint32
}

// SyncHandler is invoked after each successful sync with the new snapshot.
type SyncHandler func(*Snapshot)

// Synchronizer owns the one-entry MDR directory and the current table
// snapshot. All methods are safe for concurrent use; a sync decodes the
// whole record set under the lock, so readers never observe a partially
// decoded table.
type Synchronizer struct {
	mu sync.Mutex

	store  *Store
	logger *zap.Logger

	decodeOptions smbios.Options
	syncDelay     time.Duration
	onSync        SyncHandler

	dirVersion uint8
	dirEntries uint8
	dir        [MaxDirEntries]DirectoryEntry

	snapshot *Snapshot
	timer    *time.Timer
}

// Option configures the Synchronizer.
type Option func(*Synchronizer)

// WithSyncDelay overrides the debounce delay armed by
// SynchronizeDirectoryCommonData.
func WithSyncDelay(d time.Duration) Option {
	return func(s *Synchronizer) {
		s.syncDelay = d
	}
}

// WithSyncHandler registers a callback invoked after each successful sync.
func WithSyncHandler(handler SyncHandler) Option {
	return func(s *Synchronizer) {
		s.onSync = handler
	}
}

// WithDecodeOptions sets platform-specific decode behavior.
func WithDecodeOptions(opts smbios.Options) Option {
	return func(s *Synchronizer) {
		s.decodeOptions = opts
	}
}

// NewSynchronizer builds a synchronizer over the given backing store with a
// single directory entry carrying the well-known SMBIOS table tag.
func NewSynchronizer(store *Store, logger *zap.Logger, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		store:      store,
		logger:     logger,
		syncDelay:  DefaultSyncDelay,
		dirVersion: 1,
		dirEntries: 1,
	}

	s.dir[TableDirIndex].ID = TableID

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Snapshot returns the latest successful sync result, nil before the first
// successful sync.
func (s *Synchronizer) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshot
}

// DirVersion returns the current directory version.
func (s *Synchronizer) DirVersion() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dirVersion
}

// DirectoryEntries returns the number of directory entries, zero when the
// backing store is unreadable.
func (s *Synchronizer) DirectoryEntries() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.Readable() {
		s.logger.Error("backing store is not readable")

		return 0
	}

	return s.dirEntries
}

// GetDirectoryInformation returns the directory metadata and the entry tags
// from dirIndex onwards.
func (s *Synchronizer) GetDirectoryInformation(dirIndex uint8) (DirectoryInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.Readable() {
		s.logger.Error("get directory information failed: backing store is not readable")

		return DirectoryInfo{}, ErrInvalidParameter
	}

	if dirIndex > s.dirEntries {
		return DirectoryInfo{}, ErrInvalidParameter
	}

	info := DirectoryInfo{
		ProtocolVersion: ProtocolVersion,
		DirVersion:      s.dirVersion,
		ReturnedEntries: s.dirEntries - dirIndex,
	}

	for index := dirIndex; index < s.dirEntries; index++ {
		info.EntryIDs = append(info.EntryIDs, s.dir[index].ID)
	}

	return info, nil
}

// GetDataInformation returns the metadata of the entry at idIndex.
func (s *Synchronizer) GetDataInformation(idIndex uint8) (DataInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idIndex >= MaxDirEntries {
		return DataInfo{}, ErrInvalidParameter
	}

	entry := &s.dir[idIndex]

	return DataInfo{
		ProtocolVersion: ProtocolVersion,
		ID:              entry.ID,
		Validity:        entry.Validity(),
		Size:            entry.Size,
		DataVersion:     entry.DataVersion,
		Timestamp:       entry.Timestamp,
	}, nil
}

// GetDataOffer offers the managed table's tag to an agent wishing to push an
// update; it fails while an update is in progress or the entry is locked.
func (s *Synchronizer) GetDataOffer() ([IDLength]uint8, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dir[TableDirIndex].AvailableForUpdate() {
		s.logger.Error("table is not ready for update")

		return [IDLength]uint8{}, ErrUpdateInProgress
	}

	return s.dir[TableDirIndex].ID, nil
}

// SendDirectoryInformation negotiates the directory version with the agent.
// A matching version terminates the exchange immediately; a differing
// version adopts the pushed entry tags, terminating once no entries remain.
func (s *Synchronizer) SendDirectoryInformation(dirVersion, dirIndex, returnedEntries, remainingEntries uint8, idList []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dirIndex >= MaxDirEntries || returnedEntries < 1 || returnedEntries > MaxDirEntries-dirIndex {
		s.logger.Error("send directory information failed: invalid parameter",
			zap.Uint8("dir_index", dirIndex),
			zap.Uint8("returned_entries", returnedEntries))

		return false, ErrInvalidParameter
	}

	if int(returnedEntries)*IDLength != len(idList) {
		s.logger.Error("send directory information failed: directory size invalid",
			zap.Int("id_list_length", len(idList)))

		return false, ErrInvalidParameter
	}

	if dirVersion == s.dirVersion {
		return true, nil
	}

	terminate := remainingEntries == 0
	if terminate {
		s.dirVersion = dirVersion
	}

	s.dirEntries = returnedEntries

	for index := uint8(0); index < returnedEntries; index++ {
		copy(s.dir[dirIndex+index].ID[:], idList[int(index)*IDLength:])
	}

	return terminate, nil
}

// SendDataInformation updates the entry's data metadata, reporting whether
// any field changed.
func (s *Synchronizer) SendDataInformation(idIndex, _ uint8, dataLen, dataVersion, timestamp uint32) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idIndex >= MaxDirEntries {
		return false, ErrInvalidParameter
	}

	entry := &s.dir[idIndex]
	changed := false

	if entry.DataSetSize != dataLen {
		entry.DataSetSize = dataLen
		changed = true
	}

	if entry.DataVersion != uint8(dataVersion) {
		entry.DataVersion = uint8(dataVersion)
		changed = true
	}

	if entry.Timestamp != timestamp {
		entry.Timestamp = timestamp
		changed = true
	}

	return changed, nil
}

// FindIdIndex locates a directory entry by its 16-byte tag.
func (s *Synchronizer) FindIdIndex(tag []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(tag) != IDLength {
		s.logger.Error("find id index failed: tag length invalid", zap.Int("length", len(tag)))

		return 0, ErrInvalidID
	}

	for index := uint8(0); index < s.dirEntries; index++ {
		if [IDLength]uint8(tag) == s.dir[index].ID {
			return int(index), nil
		}
	}

	return 0, ErrInvalidID
}

// CommonData is the previous entry metadata returned by
// SynchronizeDirectoryCommonData.
type CommonData struct {
	DataSetSize uint32
	DataVersion uint32
	Timestamp   uint32
}

// SynchronizeDirectoryCommonData records the incoming table size and arms
// the debounce timer; a pending timer is replaced, so repeated calls
// coalesce into a single sync.
func (s *Synchronizer) SynchronizeDirectoryCommonData(idIndex uint8, size uint32) (CommonData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idIndex >= MaxDirEntries {
		return CommonData{}, ErrInvalidParameter
	}

	entry := &s.dir[idIndex]

	prev := CommonData{
		DataSetSize: entry.DataSetSize,
		DataVersion: uint32(entry.DataVersion),
		Timestamp:   entry.Timestamp,
	}

	entry.Size = size

	if s.timer != nil {
		s.timer.Stop()
	}

	s.timer = time.AfterFunc(s.syncDelay, func() {
		s.AgentSynchronizeData()
	})

	return prev, nil
}

// AgentSynchronizeData loads the backing store, validates the embedded
// entry point and rebuilds the inventory snapshot. It fails closed: on any
// validation or I/O error the previous snapshot and directory state are
// retained.
func (s *Synchronizer) AgentSynchronizeData() bool {
	s.mu.Lock()

	snapshot, ok := s.synchronize()

	s.mu.Unlock()

	if ok && s.onSync != nil {
		s.onSync(snapshot)
	}

	return ok
}

func (s *Synchronizer) synchronize() (*Snapshot, bool) {
	hdr, blob, err := s.store.Read()
	if err != nil {
		s.logger.Error("agent data sync failed: error reading backing store", zap.Error(err))

		return nil, false
	}

	version, err := smbios.Sniff(blob)
	if err != nil {
		s.logger.Error("agent data sync failed: table validation failed", zap.Error(err))

		return nil, false
	}

	table := smbios.NewTable(blob)

	inventory, err := smbios.Decode(table, version, s.decodeOptions)

	switch {
	case errors.Is(err, smbios.ErrNonPrintable):
		// The stored table is corrupt past the entry point checks;
		// truncate it so the broken file is not reloaded on next sync.
		s.logger.Error("non-printable BIOS version, invalidating the backing store")

		if truncErr := s.store.Truncate(); truncErr != nil {
			s.logger.Error("error truncating backing store", zap.Error(truncErr))
		}
	case err != nil:
		s.logger.Error("agent data sync failed: decode error", zap.Error(err))

		return nil, false
	}

	entry := &s.dir[TableDirIndex]
	entry.DataVersion = hdr.DirVersion
	entry.Timestamp = hdr.Timestamp
	entry.Size = hdr.DataSize
	entry.Stage = StageLoaded
	entry.Lock = Unlocked

	generation := uint64(1)
	if s.snapshot != nil {
		generation = s.snapshot.Generation + 1
	}

	s.snapshot = &Snapshot{
		Generation:  generation,
		Inventory:   inventory,
		DataVersion: entry.DataVersion,
		Timestamp:   entry.Timestamp,
		Size:        entry.Size,
	}

	s.logger.Info("table synchronized",
		zap.String("smbios_version", version.String()),
		zap.Uint32("size", entry.Size),
		zap.Uint64("generation", generation))

	return s.snapshot, true
}

// Stop cancels any pending debounced sync.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
