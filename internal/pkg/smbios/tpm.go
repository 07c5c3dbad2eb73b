// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smbios

import (
	"fmt"
	"strings"
)

// Type 43 formatted-part offsets.
const (
	tpmVendorOff           = 0x04
	tpmSpecMajorOff        = 0x08
	tpmFirmwareVersion1Off = 0x0a
	tpmDescriptionOff      = 0x12

	tpmVendorLen = 4
)

// TPMRecord is a decoded type 43 structure.
type TPMRecord struct {
	Present         bool
	VendorID        string
	SpecMajor       uint8
	FirmwareVersion string
	Description     string
}

// TPM decodes occurrence index of the TPM device structure.
func (t *Table) TPM(index int) (TPMRecord, bool) {
	s, ok := t.NthOfType(TypeTPMDevice, index, 0)
	if !ok {
		return TPMRecord{}, false
	}

	rec := TPMRecord{
		Present:     true,
		VendorID:    tpmVendorID(s),
		SpecMajor:   s.Byte(tpmSpecMajorOff),
		Description: s.String(s.Byte(tpmDescriptionOff)),
	}

	rec.FirmwareVersion = tpmFirmwareVersion(rec.SpecMajor, s.DWord(tpmFirmwareVersion1Off))

	return rec, true
}

// tpmVendorID renders the four vendor bytes as ASCII, substituting '.' for
// anything non-printable.
func tpmVendorID(s Structure) string {
	var b strings.Builder

	for off := tpmVendorOff; off < tpmVendorOff+tpmVendorLen; off++ {
		c := s.Byte(off)
		if c == 0 {
			break
		}

		if c < 0x20 || c > 0x7e {
			c = '.'
		}

		b.WriteByte(c)
	}

	return b.String()
}

// tpmFirmwareVersion formats the firmware version 1 field, whose layout
// depends on the spec major version: TPM 1.x packs major.minor into the two
// high bytes, TPM 2.x carries two little-endian 16-bit values with the minor
// revision first.
func tpmFirmwareVersion(specMajor uint8, version1 uint32) string {
	switch specMajor {
	case 1:
		return fmt.Sprintf("%d.%d", uint8(version1>>16), uint8(version1>>24))
	case 2:
		return fmt.Sprintf("%d.%d", uint16(version1>>16), uint16(version1))
	default:
		return ""
	}
}
