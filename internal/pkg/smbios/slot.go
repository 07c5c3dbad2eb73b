// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smbios

// SlotGeneration is the PCIe generation reported by a type 9 slot.
type SlotGeneration string

// Slot generations.
const (
	SlotGenUnknown SlotGeneration = "Unknown"
	SlotGen1       SlotGeneration = "Gen1"
	SlotGen2       SlotGeneration = "Gen2"
	SlotGen3       SlotGeneration = "Gen3"
	SlotGen4       SlotGeneration = "Gen4"
	SlotGen5       SlotGeneration = "Gen5"
)

// SlotKind is the physical kind of a PCIe slot.
type SlotKind string

// Slot kinds.
const (
	SlotKindUnknown    SlotKind = "Unknown"
	SlotKindFullLength SlotKind = "FullLength"
	SlotKindHalfLength SlotKind = "HalfLength"
	SlotKindLowProfile SlotKind = "LowProfile"
	SlotKindMini       SlotKind = "Mini"
	SlotKindM2         SlotKind = "M_2"
	SlotKindOCP3Small  SlotKind = "OCP3Small"
	SlotKindOCP3Large  SlotKind = "OCP3Large"
	SlotKindU2         SlotKind = "U_2"
	SlotKindOEM        SlotKind = "OEM"
)

// Type 9 formatted-part offsets.
const (
	slotDesignationOff      = 0x04
	slotTypeOff             = 0x05
	slotDataBusWidthOff     = 0x06
	slotCurrentUsageOff     = 0x07
	slotLengthOff           = 0x08
	slotCharacteristics2Off = 0x0c
	slotPeerGroupCountOff   = 0x12
	slotPeerGroupSize       = 5

	// The slot height byte follows the variable-length peer grouping list.
	slotHeightExtraOff = 4
)

const (
	slotUsageInUse = 0x04

	slotHotPlugMask = 0x02
)

// PCIeSlotRecord is a decoded type 9 structure limited to PCI Express slot
// types.
type PCIeSlotRecord struct {
	Designation  string
	Generation   SlotGeneration
	Kind         SlotKind
	Lanes        uint8
	InUse        bool
	HotPluggable bool
}

// PCIeSlot decodes occurrence index of the system slot structure, counting
// only slots whose type code denotes a PCI Express slot.
func (t *Table) PCIeSlot(index int, opts Options) (PCIeSlotRecord, bool) {
	s, ok := t.nthPCIeSlot(index)
	if !ok {
		return PCIeSlotRecord{}, false
	}

	slotType := s.Byte(slotTypeOff)

	rec := PCIeSlotRecord{
		Designation:  s.String(s.Byte(slotDesignationOff)),
		Generation:   slotGeneration(slotType),
		Kind:         s.slotKind(slotType),
		Lanes:        slotLanesTable[s.Byte(slotDataBusWidthOff)],
		HotPluggable: s.Byte(slotCharacteristics2Off)&slotHotPlugMask != 0,
	}

	if opts.EmbeddedSlots {
		// Embedded slots have no presence detect; report them occupied.
		rec.InUse = true
	} else {
		rec.InUse = s.Byte(slotCurrentUsageOff) == slotUsageInUse
	}

	return rec, true
}

// nthPCIeSlot walks type 9 structures skipping non-PCIe slot types, so that
// occurrence indices are stable regardless of interleaved legacy slots.
func (t *Table) nthPCIeSlot(index int) (Structure, bool) {
	count := 0

	for s, ok := t.FirstOfType(TypeSystemSlot, 0); ok; s, ok = t.NextOfType(s, TypeSystemSlot, 0) {
		if !isPCIeSlotType(s.Byte(slotTypeOff)) {
			continue
		}

		if count == index {
			return s, true
		}

		count++

		if count > maxEntries {
			break
		}
	}

	return Structure{}, false
}

// CountPCIeSlots returns the number of PCI Express slot structures.
func (t *Table) CountPCIeSlots() int {
	count := 0

	for s, ok := t.FirstOfType(TypeSystemSlot, 0); ok; s, ok = t.NextOfType(s, TypeSystemSlot, 0) {
		if isPCIeSlotType(s.Byte(slotTypeOff)) {
			count++
		}

		if count > maxEntries {
			break
		}
	}

	return count
}

func isPCIeSlotType(code uint8) bool {
	if code == 0x09 {
		return true
	}

	return (code >= 0x14 && code <= 0x29) || (code >= 0xa5 && code <= 0xc6)
}

func slotGeneration(code uint8) SlotGeneration {
	if gen, ok := slotGenerationTable[code]; ok {
		return gen
	}

	return SlotGenUnknown
}

// slotKind resolves the physical kind with three fallbacks: the slot type
// code, then the slot length code, then the slot height byte past the peer
// grouping list when the structure is long enough to carry it.
func (s Structure) slotKind(slotType uint8) SlotKind {
	if kind, ok := slotKindTable[slotType]; ok {
		return kind
	}

	if kind, ok := slotLengthTable[s.Byte(slotLengthOff)]; ok {
		return kind
	}

	peerCount := int(s.Byte(slotPeerGroupCountOff))
	heightOff := slotPeerGroupCountOff + 1 + peerCount*slotPeerGroupSize + slotHeightExtraOff

	if heightOff >= int(s.FormattedLength()) {
		return SlotKindUnknown
	}

	if kind, ok := slotHeightTable[s.Byte(heightOff)]; ok {
		return kind
	}

	return SlotKindUnknown
}

var slotGenerationTable = map[uint8]SlotGeneration{
	0x09: SlotGenUnknown,
	0x14: SlotGen3,
	0x15: SlotGen3,
	0x16: SlotGen3,
	0x17: SlotGen3,
	0x18: SlotGen1,
	0x19: SlotGen1,
	0x1a: SlotGen1,
	0x1b: SlotGen1,
	0x1c: SlotGen1,
	0x1d: SlotGen3,
	0x1e: SlotGen3,
	0x1f: SlotGen2,
	0x20: SlotGen3,
	0x21: SlotGen1,
	0x22: SlotGen1,
	0x23: SlotGen1,
	0x24: SlotGen4,
	0x25: SlotGen5,
	0x26: SlotGenUnknown,
	0x27: SlotGenUnknown,
	0x28: SlotGenUnknown,
	0x29: SlotGenUnknown,
	0xa5: SlotGen1,
	0xa6: SlotGen1,
	0xa7: SlotGen1,
	0xa8: SlotGen1,
	0xa9: SlotGen1,
	0xaa: SlotGen1,
	0xab: SlotGen2,
	0xac: SlotGen2,
	0xad: SlotGen2,
	0xae: SlotGen2,
	0xaf: SlotGen2,
	0xb0: SlotGen2,
	0xb1: SlotGen3,
	0xb2: SlotGen3,
	0xb3: SlotGen3,
	0xb4: SlotGen3,
	0xb5: SlotGen3,
	0xb6: SlotGen3,
	0xb8: SlotGen4,
	0xb9: SlotGen4,
	0xba: SlotGen4,
	0xbb: SlotGen4,
	0xbc: SlotGen4,
	0xbd: SlotGen4,
	0xbe: SlotGen5,
	0xbf: SlotGen5,
	0xc0: SlotGen5,
	0xc1: SlotGen5,
	0xc2: SlotGen5,
	0xc3: SlotGen5,
	0xc4: SlotGenUnknown,
	0xc5: SlotGenUnknown,
	0xc6: SlotGenUnknown,
}

var slotKindTable = map[uint8]SlotKind{
	0x09: SlotKindOEM,
	0x14: SlotKindM2,
	0x15: SlotKindM2,
	0x16: SlotKindM2,
	0x17: SlotKindM2,
	0x1f: SlotKindU2,
	0x20: SlotKindU2,
	0x21: SlotKindMini,
	0x22: SlotKindMini,
	0x23: SlotKindMini,
	0x24: SlotKindU2,
	0x25: SlotKindU2,
	0x26: SlotKindOCP3Small,
	0x27: SlotKindOCP3Large,
}

var slotLengthTable = map[uint8]SlotKind{
	0x03: SlotKindHalfLength,
	0x04: SlotKindFullLength,
}

var slotHeightTable = map[uint8]SlotKind{
	0x03: SlotKindFullLength,
	0x04: SlotKindLowProfile,
}

var slotLanesTable = map[uint8]uint8{
	0x08: 1,
	0x09: 2,
	0x0a: 4,
	0x0b: 8,
	0x0c: 12,
	0x0d: 16,
	0x0e: 32,
}
