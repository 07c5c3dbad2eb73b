// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smbios

import (
	"regexp"
	"strconv"
	"strings"
)

// Type 45 formatted-part offsets.
const (
	fwComponentNameOff   = 0x04
	fwVersionOff         = 0x05
	fwIDOff              = 0x07
	fwReleaseDateOff     = 0x09
	fwManufacturerOff    = 0x0a
	fwLowestSupportedOff = 0x0b
	fwImageSizeOff       = 0x0c
	fwStateOff           = 0x16
	fwAssocCountOff      = 0x17
	fwAssocHandlesOff    = 0x18
)

// Structures whose fourth byte is a designation string position.
const (
	designationStringOff = 0x04

	// Power supplies carry the location string one byte further.
	powerSupplyLocationOff = 0x05
)

var firmwareIdentifierSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_/]+`)

// FirmwareRecord is a decoded type 45 structure.
type FirmwareRecord struct {
	// Identifier is a stable object name derived from the firmware id (or
	// the component name) plus the designations of associated components.
	Identifier string

	ComponentName string
	Version       string
	ID            string
	ReleaseDate   string
	Manufacturer  string
	ImageSize     uint64
}

// Firmware decodes occurrence index of the firmware inventory structure.
func (t *Table) Firmware(index int, opts Options) (FirmwareRecord, bool) {
	s, ok := t.NthOfType(TypeFirmwareInventory, index, 0)
	if !ok {
		return FirmwareRecord{}, false
	}

	rec := FirmwareRecord{
		ComponentName: s.String(s.Byte(fwComponentNameOff)),
		Version:       s.String(s.Byte(fwVersionOff)),
		ID:            s.String(s.Byte(fwIDOff)),
		ReleaseDate:   s.String(s.Byte(fwReleaseDateOff)),
		Manufacturer:  s.String(s.Byte(fwManufacturerOff)),
		ImageSize:     s.QWord(fwImageSizeOff),
	}

	rec.Identifier = t.firmwareIdentifier(s, index, opts, rec)

	return rec, true
}

// firmwareIdentifier builds the object name: the id (or component name),
// suffixed with the designation of every associated component the handle
// list points at, falling back to "firmware<index>" when the result is
// empty, then sanitized to the permitted character set.
func (t *Table) firmwareIdentifier(s Structure, index int, opts Options, rec FirmwareRecord) string {
	identifier := rec.ID
	if opts.ExposeComponentName {
		identifier = rec.ComponentName
	}

	assocCount := int(s.Byte(fwAssocCountOff))

	for i := 0; i < assocCount; i++ {
		handle := s.Word(fwAssocHandlesOff + i*2)

		component, ok := t.StructureByHandle(handle)
		if !ok {
			continue
		}

		var designation string

		switch component.Type() {
		case TypeProcessorInformation, TypeSystemSlot, TypeOnboardDevicesExtended:
			designation = component.String(component.Byte(designationStringOff))
		case TypeSystemPowerSupply:
			designation = component.String(component.Byte(powerSupplyLocationOff))
		}

		if designation != "" {
			identifier += "_" + designation
		}
	}

	if identifier == "" {
		identifier = "firmware" + strconv.Itoa(index)
	}

	identifier = strings.TrimRight(identifier, " ")

	return firmwareIdentifierSanitizer.ReplaceAllString(identifier, "_")
}
