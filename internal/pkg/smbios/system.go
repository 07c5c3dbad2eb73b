// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smbios

import (
	"encoding/binary"
	"errors"

	"github.com/google/uuid"
)

// NoBIOSVersion is reported when the table carries no usable BIOS version
// string.
const NoBIOSVersion = "No BIOS Version"

// zeroUUID is the fallback when the table has no system structure.
const zeroUUID = "00000000-0000-0000-0000-000000000000"

// ErrNonPrintable reports a BIOS version string with non-printable bytes;
// the table contents past the string heuristics can't be trusted, so the
// caller is expected to discard the backing store.
var ErrNonPrintable = errors.New("non-printable character in BIOS version")

// Type 1 formatted-part offsets.
const (
	sysManufacturerOff = 0x04
	sysProductNameOff  = 0x05
	sysVersionOff      = 0x06
	sysSerialNumberOff = 0x07
	sysUUIDOff         = 0x08
	sysSKUNumberOff    = 0x19
	sysFamilyOff       = 0x1a
)

// Type 0 formatted-part offsets.
const (
	biosVendorOff      = 0x04
	biosVersionOff     = 0x05
	biosReleaseDateOff = 0x08
)

// SystemRecord is a decoded type 1 structure.
type SystemRecord struct {
	Manufacturer string
	ProductName  string
	Version      string
	SerialNumber string
	UUID         string
	SKUNumber    string
	Family       string
}

// System decodes the first system information structure; when the table has
// none, the all-zero UUID is returned with ok false.
func (t *Table) System() (SystemRecord, bool) {
	s, ok := t.FirstOfType(TypeSystemInformation, 0)
	if !ok {
		return SystemRecord{UUID: zeroUUID}, false
	}

	return SystemRecord{
		Manufacturer: s.String(s.Byte(sysManufacturerOff)),
		ProductName:  s.String(s.Byte(sysProductNameOff)),
		Version:      s.String(s.Byte(sysVersionOff)),
		SerialNumber: s.String(s.Byte(sysSerialNumberOff)),
		UUID:         s.systemUUID(),
		SKUNumber:    s.String(s.Byte(sysSKUNumberOff)),
		Family:       s.String(s.Byte(sysFamilyOff)),
	}, true
}

// systemUUID renders the 16-byte UUID field in canonical form. The first
// three fields are little-endian on the wire while the canonical rendering
// is big-endian, so they are byte-swapped into place.
func (s Structure) systemUUID() string {
	var raw [16]byte

	binary.BigEndian.PutUint32(raw[0:4], s.DWord(sysUUIDOff))
	binary.BigEndian.PutUint16(raw[4:6], s.Word(sysUUIDOff+4))
	binary.BigEndian.PutUint16(raw[6:8], s.Word(sysUUIDOff+6))

	for i := 0; i < 8; i++ {
		raw[8+i] = s.Byte(sysUUIDOff + 8 + i)
	}

	return uuid.UUID(raw).String()
}

// BIOSVersion decodes the BIOS version string from the first type 0
// structure. Non-printable bytes in the string indicate a corrupt table and
// yield ErrNonPrintable; a missing structure yields the NoBIOSVersion
// placeholder without error.
func (t *Table) BIOSVersion() (string, error) {
	s, ok := t.FirstOfType(TypeBIOSInformation, 0)
	if !ok {
		return NoBIOSVersion, nil
	}

	version := s.String(s.Byte(biosVersionOff))

	for i := 0; i < len(version); i++ {
		if version[i] < 0x20 || version[i] > 0x7e {
			return NoBIOSVersion, ErrNonPrintable
		}
	}

	if version == "" {
		return NoBIOSVersion, nil
	}

	return version, nil
}

// BIOSRecord is a decoded type 0 structure.
type BIOSRecord struct {
	Vendor      string
	Version     string
	ReleaseDate string
}

// BIOS decodes the first BIOS information structure. A corrupt version
// string defaults to the placeholder and is reported via ErrNonPrintable
// alongside the otherwise-valid record.
func (t *Table) BIOS() (BIOSRecord, error) {
	version, err := t.BIOSVersion()

	s, ok := t.FirstOfType(TypeBIOSInformation, 0)
	if !ok {
		return BIOSRecord{Version: version}, err
	}

	return BIOSRecord{
		Vendor:      s.String(s.Byte(biosVendorOff)),
		Version:     version,
		ReleaseDate: s.String(s.Byte(biosReleaseDateOff)),
	}, err
}
