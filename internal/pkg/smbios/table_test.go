// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smbios_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbmc/smbios-mdr/internal/pkg/smbios"
)

// rawStructure assembles one SMBIOS structure: header, formatted part and
// string table. No strings produces the bare double-zero terminator.
func rawStructure(typ uint8, handle uint16, formatted []byte, strs ...string) []byte {
	b := []byte{typ, uint8(4 + len(formatted)), uint8(handle), uint8(handle >> 8)}
	b = append(b, formatted...)

	if len(strs) == 0 {
		return append(b, 0, 0)
	}

	for _, s := range strs {
		b = append(b, s...)
		b = append(b, 0)
	}

	return append(b, 0)
}

func buildTable(structures ...[]byte) *smbios.Table {
	var data []byte

	for _, s := range structures {
		data = append(data, s...)
	}

	return smbios.NewTable(data)
}

func TestStructureWalk(t *testing.T) {
	table := buildTable(
		rawStructure(0, 0x0000, make([]byte, 16), "Vendor", "1.2.3"),
		rawStructure(4, 0x0400, make([]byte, 44), "CPU0"),
		rawStructure(4, 0x0401, make([]byte, 44), "CPU1"),
		rawStructure(17, 0x1100, make([]byte, 40), "DIMM_A0"),
	)

	assert.Equal(t, 1, table.CountOfType(0))
	assert.Equal(t, 2, table.CountOfType(4))
	assert.Equal(t, 1, table.CountOfType(17))
	assert.Equal(t, 0, table.CountOfType(9))

	s, ok := table.FirstOfType(4, 0)
	require.True(t, ok)
	assert.Equal(t, uint16(0x0400), s.Handle())

	s, ok = table.NextOfType(s, 4, 0)
	require.True(t, ok)
	assert.Equal(t, uint16(0x0401), s.Handle())

	_, ok = table.NextOfType(s, 4, 0)
	assert.False(t, ok)

	s, ok = table.NthOfType(17, 0, 0)
	require.True(t, ok)
	assert.Equal(t, uint16(0x1100), s.Handle())
}

func TestStructureMinLength(t *testing.T) {
	table := buildTable(
		rawStructure(4, 0x0400, make([]byte, 10), "CPU0"),
	)

	_, ok := table.FirstOfType(4, 0x30)
	assert.False(t, ok, "structure shorter than the minimum length must not match")

	_, ok = table.FirstOfType(4, 0x0e)
	assert.True(t, ok)
}

func TestStringResolution(t *testing.T) {
	table := buildTable(
		rawStructure(1, 0x0100, make([]byte, 24), "First", "Second"),
	)

	s, ok := table.FirstOfType(1, 0)
	require.True(t, ok)

	assert.Equal(t, "", s.String(0), "string position zero is always empty")
	assert.Equal(t, "First", s.String(1))
	assert.Equal(t, "Second", s.String(2))
	assert.Equal(t, "", s.String(3), "position past the string table resolves empty")
	assert.Equal(t, "", s.String(200))
}

func TestHandleLookup(t *testing.T) {
	table := buildTable(
		rawStructure(16, 0x1000, make([]byte, 11)),
		rawStructure(17, 0x1100, make([]byte, 40), "DIMM_A0"),
	)

	s, ok := table.ByHandle(0x1000, 16)
	require.True(t, ok)
	assert.Equal(t, uint8(16), s.Type())

	_, ok = table.ByHandle(0x1000, 17)
	assert.False(t, ok, "handle of another type must not match")

	_, ok = table.ByHandle(0xdead, 16)
	assert.False(t, ok)

	s, ok = table.StructureByHandle(0x1100)
	require.True(t, ok)
	assert.Equal(t, uint8(17), s.Type())
}

func TestTruncatedTable(t *testing.T) {
	full := rawStructure(4, 0x0400, make([]byte, 44), "CPU0", "GenuineVendor")

	for cut := 0; cut < len(full); cut++ {
		table := smbios.NewTable(full[:cut])

		// Must never panic; at most a partial structure is visible.
		if s, ok := table.FirstOfType(4, 0); ok {
			_ = s.String(1)
			_ = s.String(2)
			_ = s.Byte(0x26)
			_ = s.Word(0x28)
			_ = s.QWord(0x08)
		}
	}
}

func TestUnterminatedStrings(t *testing.T) {
	// A structure whose string table never hits the double-zero marker.
	data := []byte{4, 8, 0x00, 0x04, 0, 0, 0, 0, 'A', 'B', 'C'}
	table := smbios.NewTable(data)

	s, ok := table.FirstOfType(4, 0)
	require.True(t, ok)
	assert.Equal(t, "", s.String(1), "unterminated string must not be returned")

	_, ok = table.Next(s)
	assert.False(t, ok)
}

func TestEmptyTable(t *testing.T) {
	table := smbios.NewTable(nil)

	for _, typ := range []uint8{0, 1, 4, 9, 16, 17, 43, 45} {
		_, ok := table.FirstOfType(typ, 0)
		assert.False(t, ok)
		assert.Equal(t, 0, table.CountOfType(typ))
	}
}

func TestFieldReadsBoundedByLength(t *testing.T) {
	// Declared length 8 but more bytes follow; reads past the formatted
	// part must yield zero even though table data exists there.
	table := buildTable(
		rawStructure(4, 0x0400, []byte{0xaa, 0xbb, 0xcc, 0xdd}, "spill"),
	)

	s, ok := table.FirstOfType(4, 0)
	require.True(t, ok)
	assert.Equal(t, uint8(0xaa), s.Byte(4))
	assert.Equal(t, uint8(0), s.Byte(8), "read past declared length")
	assert.Equal(t, uint16(0), s.Word(7), "read straddling declared length")
}
