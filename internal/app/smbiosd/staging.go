// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smbiosd

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openbmc/smbios-mdr/internal/pkg/mdr"
	"github.com/openbmc/smbios-mdr/internal/pkg/smbios"
	"github.com/openbmc/smbios-mdr/pkg/logging"
)

// Staging session errors.
var (
	ErrSessionOpen  = errors.New("staging session already open")
	ErrNoSession    = errors.New("no staging session open")
	ErrStagingBound = errors.New("write beyond staging capacity")
)

// StagingBuffer accepts a new table image from a firmware agent one chunk at
// a time. A single write-only session may be open at a time; Commit stamps
// the MDR header, atomically replaces the backing store and triggers a sync.
type StagingBuffer struct {
	mu sync.Mutex

	store        *mdr.Store
	synchronizer *mdr.Synchronizer
	logger       *zap.Logger

	buf  []byte
	open bool
}

// NewStagingBuffer builds a staging buffer over the synchronizer's backing
// store.
func NewStagingBuffer(store *mdr.Store, synchronizer *mdr.Synchronizer, logger *zap.Logger) *StagingBuffer {
	return &StagingBuffer{
		store:        store,
		synchronizer: synchronizer,
		logger:       logger.With(logging.Component("staging")),
	}
}

// Open starts a staging session.
func (b *StagingBuffer) Open() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.open {
		return ErrSessionOpen
	}

	b.open = true
	b.buf = nil

	return nil
}

// Write stores a chunk at the given offset, growing the staged image as
// needed up to the table capacity.
func (b *StagingBuffer) Write(offset uint32, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return ErrNoSession
	}

	end := int(offset) + len(data)
	if end > smbios.TableCapacity {
		return fmt.Errorf("%w: offset %d length %d", ErrStagingBound, offset, len(data))
	}

	if end > len(b.buf) {
		b.buf = append(b.buf, make([]byte, end-len(b.buf))...)
	}

	copy(b.buf[offset:], data)

	return nil
}

// Size returns the number of bytes staged so far.
func (b *StagingBuffer) Size() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return uint32(len(b.buf))
}

// Commit seals the session: the staged image is written to the backing store
// under a fresh MDR header and the synchronizer picks it up immediately.
func (b *StagingBuffer) Commit() error {
	b.mu.Lock()

	if !b.open {
		b.mu.Unlock()

		return ErrNoSession
	}

	hdr := mdr.Header{
		DirVersion: b.synchronizer.DirVersion(),
		MDRType:    mdr.MDRType,
		Timestamp:  uint32(time.Now().Unix()),
	}

	blob := b.buf
	b.buf = nil
	b.open = false

	b.mu.Unlock()

	if err := b.store.Write(hdr, blob); err != nil {
		return fmt.Errorf("error writing staged table: %w", err)
	}

	b.logger.Info("staged table committed", zap.Int("size", len(blob)))

	if !b.synchronizer.AgentSynchronizeData() {
		return errors.New("staged table failed to synchronize")
	}

	return nil
}

// Abort discards the session without touching the backing store.
func (b *StagingBuffer) Abort() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf = nil
	b.open = false
}
