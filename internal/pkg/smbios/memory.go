// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smbios

import (
	"strconv"
	"strings"
)

// MemoryDeviceType is the decoded type 17 memory device type.
type MemoryDeviceType string

// Memory device types.
const (
	MemoryDeviceOther           MemoryDeviceType = "Other"
	MemoryDeviceUnknown         MemoryDeviceType = "Unknown"
	MemoryDeviceDRAM            MemoryDeviceType = "DRAM"
	MemoryDeviceEDRAM           MemoryDeviceType = "EDRAM"
	MemoryDeviceVRAM            MemoryDeviceType = "VRAM"
	MemoryDeviceSRAM            MemoryDeviceType = "SRAM"
	MemoryDeviceRAM             MemoryDeviceType = "RAM"
	MemoryDeviceROM             MemoryDeviceType = "ROM"
	MemoryDeviceFlash           MemoryDeviceType = "FLASH"
	MemoryDeviceEEPROM          MemoryDeviceType = "EEPROM"
	MemoryDeviceFEPROM          MemoryDeviceType = "FEPROM"
	MemoryDeviceEPROM           MemoryDeviceType = "EPROM"
	MemoryDeviceCDRAM           MemoryDeviceType = "CDRAM"
	MemoryDevice3DRAM           MemoryDeviceType = "ThreeDRAM"
	MemoryDeviceSDRAM           MemoryDeviceType = "SDRAM"
	MemoryDeviceDDRSGRAM        MemoryDeviceType = "DDR_SGRAM"
	MemoryDeviceRDRAM           MemoryDeviceType = "RDRAM"
	MemoryDeviceDDR             MemoryDeviceType = "DDR"
	MemoryDeviceDDR2            MemoryDeviceType = "DDR2"
	MemoryDeviceDDR2FBDIMM      MemoryDeviceType = "DDR2_SDRAM_FB_DIMM"
	MemoryDeviceDDR3            MemoryDeviceType = "DDR3"
	MemoryDeviceFBD2            MemoryDeviceType = "FBD2"
	MemoryDeviceDDR4            MemoryDeviceType = "DDR4"
	MemoryDeviceLPDDR           MemoryDeviceType = "LPDDR_SDRAM"
	MemoryDeviceLPDDR2          MemoryDeviceType = "LPDDR2_SDRAM"
	MemoryDeviceLPDDR3          MemoryDeviceType = "LPDDR3_SDRAM"
	MemoryDeviceLPDDR4          MemoryDeviceType = "LPDDR4_SDRAM"
	MemoryDeviceLogicalNonVolat MemoryDeviceType = "Logical"
	MemoryDeviceHBM             MemoryDeviceType = "HBM"
	MemoryDeviceHBM2            MemoryDeviceType = "HBM2"
	MemoryDeviceDDR5            MemoryDeviceType = "DDR5"
	MemoryDeviceLPDDR5          MemoryDeviceType = "LPDDR5_SDRAM"
)

// ECCType is the decoded memory array error correction capability.
type ECCType string

// ECC types; the SMBIOS Unknown, None and CRC codes all collapse to NoECC.
const (
	ECCNone          ECCType = "NoECC"
	ECCAddressParity ECCType = "AddressParity"
	ECCSingleBit     ECCType = "SingleBitECC"
	ECCMultiBit      ECCType = "MultiBitECC"
)

// MemoryTech is the decoded type 17 memory technology.
type MemoryTech string

// Memory technologies.
const (
	MemoryTechOther       MemoryTech = "Other"
	MemoryTechUnknown     MemoryTech = "Unknown"
	MemoryTechDRAM        MemoryTech = "DRAM"
	MemoryTechNVDIMMN     MemoryTech = "NVDIMM_N"
	MemoryTechNVDIMMF     MemoryTech = "NVDIMM_F"
	MemoryTechNVDIMMP     MemoryTech = "NVDIMM_P"
	MemoryTechIntelOptane MemoryTech = "IntelOptane"
)

// Type 17 formatted-part offsets.
const (
	memArrayHandleOff     = 0x04
	memTotalWidthOff      = 0x08
	memDataWidthOff       = 0x0a
	memSizeOff            = 0x0c
	memDeviceLocatorOff   = 0x10
	memBankLocatorOff     = 0x11
	memTypeOff            = 0x12
	memTypeDetailOff      = 0x13
	memSpeedOff           = 0x15
	memManufacturerOff    = 0x17
	memSerialNumberOff    = 0x18
	memAssetTagOff        = 0x19
	memPartNumberOff      = 0x1a
	memAttributesOff      = 0x1b
	memExtendedSizeOff    = 0x1c
	memConfiguredSpeedOff = 0x20
	memTechnologyOff      = 0x28
)

// Type 16 formatted-part offsets.
const (
	arrayECCOff         = 0x06
	arrayMaxCapacityOff = 0x07
	arrayDeviceCountOff = 0x0d
)

const (
	// memSizeExtended in the 16-bit size field redirects to the 32-bit
	// extended size field.
	memSizeExtended = 0x7fff

	// memSizeUnitKB selects raw-KB units in the 16-bit size field.
	memSizeUnitKB = 0x8000

	kilobytesPerMB = 1024
)

// MemoryModuleRecord is a decoded type 17 structure.
type MemoryModuleRecord struct {
	Present            bool
	Functional         bool
	SizeKB             uint64
	TotalWidth         uint16
	DataWidth          uint16
	DeviceLocator      string
	Type               MemoryDeviceType
	TypeDetail         string
	MaxSpeedMHz        uint16
	ConfiguredSpeedMHz uint16
	Manufacturer       string
	SerialNumber       string
	AssetTag           string
	PartNumber         string
	Attributes         uint8
	Technology         MemoryTech
	ECC                ECCType
	ArrayHandle        uint16
	MemoryController   uint8
	Socket             uint8
	Slot               uint8
	Channel            uint8
}

// MemoryArrayRecord is a decoded type 16 structure.
type MemoryArrayRecord struct {
	Handle          uint16
	ErrorCorrection ECCType
	MaximumCapacity uint32
	DeviceCount     uint16
}

// MemoryLocation pins a memory module to a physical position; entries come
// from the platform locator map keyed by the exact device-locator string.
type MemoryLocation struct {
	MemoryController uint8 `yaml:"memoryController"`
	Socket           uint8 `yaml:"socket"`
	Slot             uint8 `yaml:"slot"`
	Channel          uint8 `yaml:"channel"`
}

// MemoryModule decodes occurrence index of the memory device structure.
func (t *Table) MemoryModule(index int, opts Options) (MemoryModuleRecord, bool) {
	s, ok := t.NthOfType(TypeMemoryDevice, index, 0)
	if !ok {
		return MemoryModuleRecord{}, false
	}

	rec := MemoryModuleRecord{
		TotalWidth:  s.Word(memTotalWidthOff),
		DataWidth:   s.Word(memDataWidthOff),
		ArrayHandle: s.Word(memArrayHandleOff),
	}

	size := s.Word(memSizeOff)
	if size == memSizeExtended {
		rec.SizeKB = uint64(s.DWord(memExtendedSizeOff)) * kilobytesPerMB
	} else {
		rec.SizeKB = uint64(size &^ memSizeUnitKB)
		if size&memSizeUnitKB == 0 {
			rec.SizeKB *= kilobytesPerMB
		}
	}

	// A zero size word means no module is installed in the socket; the
	// 0x7FFF sentinel still marks a populated slot even when the extended
	// size field is empty.
	rec.Present = size > 0
	rec.Functional = rec.Present

	deviceLocator := s.String(s.Byte(memDeviceLocatorOff))
	bankLocator := s.String(s.Byte(memBankLocatorOff))

	if bankLocator == "" || opts.OnlyDeviceLocator {
		rec.DeviceLocator = deviceLocator
	} else {
		rec.DeviceLocator = bankLocator + " " + deviceLocator
	}

	if loc, ok := opts.MemoryLocations[deviceLocator]; ok {
		rec.MemoryController = loc.MemoryController
		rec.Socket = loc.Socket
		rec.Slot = loc.Slot
		rec.Channel = loc.Channel
	} else {
		rec.Socket, rec.Slot = parseLocator(deviceLocator)
	}

	rec.Type = memoryDeviceType(s.Byte(memTypeOff))
	rec.TypeDetail = memoryTypeDetail(s.Word(memTypeDetailOff))
	rec.MaxSpeedMHz = s.Word(memSpeedOff)
	rec.ConfiguredSpeedMHz = s.Word(memConfiguredSpeedOff)

	rec.Manufacturer = s.String(s.Byte(memManufacturerOff))
	if rec.Manufacturer == "NO DIMM" {
		// Placeholder emitted by some firmware for empty sockets.
		rec.Manufacturer = ""
	}

	rec.SerialNumber = s.String(s.Byte(memSerialNumberOff))
	rec.AssetTag = s.String(s.Byte(memAssetTagOff))
	rec.PartNumber = strings.TrimRight(s.String(s.Byte(memPartNumberOff)), " ")
	rec.Attributes = s.Byte(memAttributesOff)
	rec.Technology = memoryTechType(s.Byte(memTechnologyOff))
	rec.ECC = t.arrayECC(rec.ArrayHandle)

	return rec, true
}

// MemoryArray decodes occurrence index of the physical memory array structure.
func (t *Table) MemoryArray(index int) (MemoryArrayRecord, bool) {
	s, ok := t.NthOfType(TypePhysicalMemoryArray, index, 0)
	if !ok {
		return MemoryArrayRecord{}, false
	}

	return MemoryArrayRecord{
		Handle:          s.Handle(),
		ErrorCorrection: eccType(s.Byte(arrayECCOff)),
		MaximumCapacity: s.DWord(arrayMaxCapacityOff),
		DeviceCount:     s.Word(arrayDeviceCountOff),
	}, true
}

// arrayECC chases the physical-memory-array handle and maps its error
// correction byte; a missing array or unmapped code resolves to NoECC.
func (t *Table) arrayECC(handle uint16) ECCType {
	s, ok := t.ByHandle(handle, TypePhysicalMemoryArray)
	if !ok {
		return ECCNone
	}

	return eccType(s.Byte(arrayECCOff))
}

// parseLocator is a best-effort parse of conventional CPUn_DIMM_x device
// locator naming: the digit after "CPU" (plus one) is the socket, a single
// letter after "DIMM" and a separator is the slot (its ASCII value).
func parseLocator(deviceLocator string) (socket, slot uint8) {
	if pos := strings.Index(deviceLocator, "CPU"); pos != -1 && pos+3 < len(deviceLocator) {
		if num, err := strconv.Atoi(deviceLocator[pos+3 : pos+4]); err == nil {
			socket = uint8(num + 1)
		}
	}

	if pos := strings.Index(deviceLocator, "DIMM"); pos != -1 && pos+5 < len(deviceLocator) {
		rest := deviceLocator[pos+5:]
		if len(rest) == 1 && isLetter(rest[0]) {
			slot = uint8(rest[0] &^ 0x20)
		}
	}

	return socket, slot
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func memoryDeviceType(code uint8) MemoryDeviceType {
	if typ, ok := memoryDeviceTypeTable[code]; ok {
		return typ
	}

	return MemoryDeviceUnknown
}

func memoryTechType(code uint8) MemoryTech {
	if tech, ok := memoryTechTable[code]; ok {
		return tech
	}

	return MemoryTechUnknown
}

func eccType(code uint8) ECCType {
	if ecc, ok := eccTypeTable[code]; ok {
		return ecc
	}

	return ECCNone
}

// memoryTypeDetail concatenates the names of the set type-detail bits.
func memoryTypeDetail(detail uint16) string {
	var result strings.Builder

	for index := 0; index < 16; index++ {
		if detail&(1<<index) != 0 {
			result.WriteString(memoryTypeDetailTable[index])
		}
	}

	return result.String()
}

var memoryDeviceTypeTable = map[uint8]MemoryDeviceType{
	0x01: MemoryDeviceOther,
	0x02: MemoryDeviceUnknown,
	0x03: MemoryDeviceDRAM,
	0x04: MemoryDeviceEDRAM,
	0x05: MemoryDeviceVRAM,
	0x06: MemoryDeviceSRAM,
	0x07: MemoryDeviceRAM,
	0x08: MemoryDeviceROM,
	0x09: MemoryDeviceFlash,
	0x0a: MemoryDeviceEEPROM,
	0x0b: MemoryDeviceFEPROM,
	0x0c: MemoryDeviceEPROM,
	0x0d: MemoryDeviceCDRAM,
	0x0e: MemoryDevice3DRAM,
	0x0f: MemoryDeviceSDRAM,
	0x10: MemoryDeviceDDRSGRAM,
	0x11: MemoryDeviceRDRAM,
	0x12: MemoryDeviceDDR,
	0x13: MemoryDeviceDDR2,
	0x14: MemoryDeviceDDR2FBDIMM,
	0x18: MemoryDeviceDDR3,
	0x19: MemoryDeviceFBD2,
	0x1a: MemoryDeviceDDR4,
	0x1b: MemoryDeviceLPDDR,
	0x1c: MemoryDeviceLPDDR2,
	0x1d: MemoryDeviceLPDDR3,
	0x1e: MemoryDeviceLPDDR4,
	0x1f: MemoryDeviceLogicalNonVolat,
	0x20: MemoryDeviceHBM,
	0x21: MemoryDeviceHBM2,
	0x22: MemoryDeviceDDR5,
	0x23: MemoryDeviceLPDDR5,
}

// eccTypeTable collapses the SMBIOS Unknown (0x02), None (0x03) and CRC
// (0x07) codes to NoECC; downstream consumers have no representation for
// those.
var eccTypeTable = map[uint8]ECCType{
	0x01: ECCNone,
	0x02: ECCNone,
	0x03: ECCNone,
	0x04: ECCAddressParity,
	0x05: ECCSingleBit,
	0x06: ECCMultiBit,
	0x07: ECCNone,
}

var memoryTechTable = map[uint8]MemoryTech{
	0x01: MemoryTechOther,
	0x02: MemoryTechUnknown,
	0x03: MemoryTechDRAM,
	0x04: MemoryTechNVDIMMN,
	0x05: MemoryTechNVDIMMF,
	0x06: MemoryTechNVDIMMP,
	0x07: MemoryTechIntelOptane,
}

var memoryTypeDetailTable = [16]string{
	"Reserved", "Other", "Unknown", "Fast-paged",
	"Static column", "Pseudo-static", "RAMBUS", "Synchronous",
	"CMOS", "EDO", "Window DRAM", "Cache DRAM",
	"Non-volatile", "Registered", "Unbuffered", "LRDIMM",
}
