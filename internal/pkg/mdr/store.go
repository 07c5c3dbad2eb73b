// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package mdr

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/openbmc/smbios-mdr/internal/pkg/smbios"
)

// HeaderLength is the size of the backing store header.
const HeaderLength = 10

// Header prefixes the table blob in the backing store.
type Header struct {
	DirVersion uint8
	MDRType    uint8
	Timestamp  uint32
	DataSize   uint32
}

// MarshalBinary encodes the header in its on-disk little-endian layout.
func (h Header) MarshalBinary() ([]byte, error) {
	b := make([]byte, HeaderLength)
	b[0] = h.DirVersion
	b[1] = h.MDRType
	binary.LittleEndian.PutUint32(b[2:], h.Timestamp)
	binary.LittleEndian.PutUint32(b[6:], h.DataSize)

	return b, nil
}

// UnmarshalBinary decodes the on-disk header layout.
func (h *Header) UnmarshalBinary(b []byte) error {
	if len(b) < HeaderLength {
		return fmt.Errorf("backing store smaller than header: %d bytes", len(b))
	}

	h.DirVersion = b[0]
	h.MDRType = b[1]
	h.Timestamp = binary.LittleEndian.Uint32(b[2:])
	h.DataSize = binary.LittleEndian.Uint32(b[6:])

	return nil
}

// Store is the backing-store file holding the header and raw table blob.
type Store struct {
	path string
}

// NewStore returns a store at the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Read loads the header and up to DataSize bytes of the blob. The blob may
// be shorter than the header declares when the file is truncated; a DataSize
// over the storage capacity fails.
func (s *Store) Read() (Header, []byte, error) {
	var hdr Header

	contents, err := os.ReadFile(s.path)
	if err != nil {
		return hdr, nil, fmt.Errorf("error reading backing store: %w", err)
	}

	if err = hdr.UnmarshalBinary(contents); err != nil {
		return hdr, nil, err
	}

	if hdr.DataSize > smbios.TableCapacity {
		return hdr, nil, fmt.Errorf("data size %d exceeds storage capacity", hdr.DataSize)
	}

	blob := contents[HeaderLength:]
	if uint32(len(blob)) > hdr.DataSize {
		blob = blob[:hdr.DataSize]
	}

	return hdr, blob, nil
}

// Write atomically replaces the store contents with a header and blob via a
// temporary file in the same directory.
func (s *Store) Write(hdr Header, blob []byte) error {
	if len(blob) > smbios.TableCapacity {
		return fmt.Errorf("table blob %d bytes exceeds storage capacity", len(blob))
	}

	hdr.DataSize = uint32(len(blob))

	encoded, err := hdr.MarshalBinary()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+"-*")
	if err != nil {
		return fmt.Errorf("error creating temporary store file: %w", err)
	}

	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err = tmp.Write(encoded); err != nil {
		tmp.Close() //nolint:errcheck

		return fmt.Errorf("error writing store header: %w", err)
	}

	if _, err = tmp.Write(blob); err != nil {
		tmp.Close() //nolint:errcheck

		return fmt.Errorf("error writing store blob: %w", err)
	}

	if err = tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck

		return fmt.Errorf("error syncing store file: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), s.path)
}

// Truncate empties the backing store; used when the stored table is found to
// be corrupt so a broken file is not repeatedly reloaded.
func (s *Store) Truncate() error {
	return os.Truncate(s.path, 0)
}

// Readable reports whether the backing store can be opened for reading.
func (s *Store) Readable() bool {
	f, err := os.Open(s.path)
	if err != nil {
		return false
	}

	f.Close() //nolint:errcheck

	return true
}
