// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package smbios decodes the subset of SMBIOS (DSP0134) structures consumed
// by the hardware inventory: BIOS, system, processor, physical memory array,
// memory device, system slot, TPM device and firmware inventory.
//
// The table originates from firmware pushed over an untrusted channel, so
// every access is bounds-checked: a malformed structure chain or string table
// resolves to "not found" or an empty string, never a panic or an overread.
package smbios

import (
	"encoding/binary"
)

// TableCapacity is the upper bound on the size of a stored table.
const TableCapacity = 64 * 1024

// Structure type codes consumed by the inventory.
const (
	TypeBIOSInformation        = 0
	TypeSystemInformation      = 1
	TypeProcessorInformation   = 4
	TypeSystemSlot             = 9
	TypePhysicalMemoryArray    = 16
	TypeMemoryDevice           = 17
	TypeSystemPowerSupply      = 39
	TypeOnboardDevicesExtended = 41
	TypeTPMDevice              = 43
	TypeFirmwareInventory      = 45
)

const (
	headerLen    = 4
	separatorLen = 2

	// maxEntries caps occurrence scans over a single table.
	maxEntries = 0xff
)

// Table is an immutable snapshot of the concatenated SMBIOS structures.
type Table struct {
	data []byte
}

// NewTable copies data into a new table snapshot.
func NewTable(data []byte) *Table {
	return &Table{data: append([]byte(nil), data...)}
}

// Len returns the table length in bytes.
func (t *Table) Len() int {
	return len(t.data)
}

// Structure points at one structure within a table. The zero value is not
// valid; structures are obtained from the lookup methods on Table.
type Structure struct {
	table *Table
	off   int
}

// Type returns the structure type code.
func (s Structure) Type() uint8 {
	return s.table.data[s.off]
}

// FormattedLength returns the declared length of the fixed part.
func (s Structure) FormattedLength() uint8 {
	return s.table.data[s.off+1]
}

// Handle returns the unique-per-table structure handle.
func (s Structure) Handle() uint16 {
	return s.Word(2)
}

// field returns size bytes at offset off within the formatted part, or nil
// when the read would cross the declared length or the table end.
func (s Structure) field(off, size int) []byte {
	if off+size > int(s.FormattedLength()) {
		return nil
	}

	if s.off+off+size > len(s.table.data) {
		return nil
	}

	return s.table.data[s.off+off : s.off+off+size]
}

// Byte reads a one-byte field; out-of-bounds reads yield zero.
func (s Structure) Byte(off int) uint8 {
	b := s.field(off, 1)
	if b == nil {
		return 0
	}

	return b[0]
}

// Word reads a little-endian two-byte field; out-of-bounds reads yield zero.
func (s Structure) Word(off int) uint16 {
	b := s.field(off, 2)
	if b == nil {
		return 0
	}

	return binary.LittleEndian.Uint16(b)
}

// DWord reads a little-endian four-byte field; out-of-bounds reads yield zero.
func (s Structure) DWord(off int) uint32 {
	b := s.field(off, 4)
	if b == nil {
		return 0
	}

	return binary.LittleEndian.Uint32(b)
}

// QWord reads a little-endian eight-byte field; out-of-bounds reads yield zero.
func (s Structure) QWord(off int) uint64 {
	b := s.field(off, 8)
	if b == nil {
		return 0
	}

	return binary.LittleEndian.Uint64(b)
}

// String resolves a 1-based position into the structure's trailing string
// table. Position zero is always the empty string, as is any position past
// the double-zero end-of-strings marker or the end of the table.
func (s Structure) String(position uint8) string {
	if position == 0 {
		return ""
	}

	target := s.off + int(s.FormattedLength())
	data := s.table.data

	for index := uint8(1); index < position; index++ {
		for {
			if target >= len(data) {
				return ""
			}

			if data[target] == 0 {
				break
			}

			target++
		}

		target++

		if target >= len(data) || data[target] == 0 {
			// 0x00 0x00 terminates the string table.
			return ""
		}
	}

	start := target

	for target < len(data) && data[target] != 0 {
		target++
	}

	if target >= len(data) {
		return ""
	}

	return string(data[start:target])
}

// endOfStrings scans from the end of the formatted part of the structure at
// off for the 0x00 0x00 terminator, returning the offset immediately after.
func (t *Table) endOfStrings(off int) (int, bool) {
	if off+separatorLen > len(t.data) {
		return 0, false
	}

	pos := off + int(t.data[off+1])

	for {
		if pos+separatorLen > len(t.data) {
			return 0, false
		}

		if t.data[pos] == 0 && t.data[pos+1] == 0 {
			return pos + separatorLen, true
		}

		pos++
	}
}

// firstOfTypeAt scans forward from off for a structure of the given type
// whose formatted part is at least minLen bytes.
func (t *Table) firstOfTypeAt(off int, typeID, minLen uint8) (Structure, bool) {
	for {
		if off+separatorLen > len(t.data) {
			return Structure{}, false
		}

		if t.data[off] == 0 && t.data[off+1] == 0 {
			return Structure{}, false
		}

		if t.data[off] == typeID {
			if t.data[off+1] < minLen {
				return Structure{}, false
			}

			return Structure{table: t, off: off}, true
		}

		next, ok := t.endOfStrings(off)
		if !ok {
			return Structure{}, false
		}

		off = next
	}
}

// FirstOfType returns the first structure of the given type whose formatted
// part is at least minLen bytes. Absence is not an error.
func (t *Table) FirstOfType(typeID, minLen uint8) (Structure, bool) {
	return t.firstOfTypeAt(0, typeID, minLen)
}

// Next returns the structure following s, of any type.
func (t *Table) Next(s Structure) (Structure, bool) {
	off, ok := t.endOfStrings(s.off)
	if !ok {
		return Structure{}, false
	}

	if off+separatorLen > len(t.data) || (t.data[off] == 0 && t.data[off+1] == 0) {
		return Structure{}, false
	}

	return Structure{table: t, off: off}, true
}

// NextOfType returns the structure of the given type following s.
func (t *Table) NextOfType(s Structure, typeID, minLen uint8) (Structure, bool) {
	off, ok := t.endOfStrings(s.off)
	if !ok {
		return Structure{}, false
	}

	return t.firstOfTypeAt(off, typeID, minLen)
}

// NthOfType returns occurrence n (zero-based) of the given type.
func (t *Table) NthOfType(typeID uint8, n int, minLen uint8) (Structure, bool) {
	s, ok := t.FirstOfType(typeID, minLen)
	if !ok {
		return Structure{}, false
	}

	for i := 0; i < n; i++ {
		s, ok = t.NextOfType(s, typeID, minLen)
		if !ok {
			return Structure{}, false
		}
	}

	return s, true
}

// CountOfType counts occurrences of the given type, capped at maxEntries.
func (t *Table) CountOfType(typeID uint8) int {
	num := 0

	s, ok := t.FirstOfType(typeID, 0)

	for ok {
		num++

		if num >= maxEntries {
			break
		}

		s, ok = t.NextOfType(s, typeID, 0)
	}

	return num
}

// ByHandle returns the structure of the given type with the given handle.
func (t *Table) ByHandle(handle uint16, typeID uint8) (Structure, bool) {
	s, ok := t.FirstOfType(typeID, 0)

	for ok {
		if s.Handle() == handle {
			return s, true
		}

		s, ok = t.NextOfType(s, typeID, 0)
	}

	return Structure{}, false
}

// StructureByHandle returns the structure with the given handle regardless of
// its type; handles are the only cross-reference mechanism within a table.
func (t *Table) StructureByHandle(handle uint16) (Structure, bool) {
	if len(t.data) < separatorLen {
		return Structure{}, false
	}

	s := Structure{table: t, off: 0}

	if t.data[0] == 0 && t.data[1] == 0 {
		return Structure{}, false
	}

	for num := 0; num < maxEntries; num++ {
		if s.Handle() == handle {
			return s, true
		}

		var ok bool

		s, ok = t.Next(s)
		if !ok {
			return Structure{}, false
		}
	}

	return Structure{}, false
}
