// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smbios

// Options adjust platform-specific decode behavior.
type Options struct {
	// OnlyDeviceLocator drops the bank locator from the composed memory
	// module locator string.
	OnlyDeviceLocator bool

	// EmbeddedSlots reports every PCIe slot as occupied instead of
	// consulting the slot usage code.
	EmbeddedSlots bool

	// ExposeComponentName keys firmware inventory identifiers by component
	// name instead of firmware id.
	ExposeComponentName bool

	// MemoryLocations maps exact device-locator strings to physical
	// positions, overriding the locator parsing heuristics.
	MemoryLocations map[string]MemoryLocation
}

// Inventory is the full decoded contents of one table version.
type Inventory struct {
	Version Version

	System SystemRecord
	BIOS   BIOSRecord

	Processors    []ProcessorRecord
	MemoryModules []MemoryModuleRecord
	MemoryArrays  []MemoryArrayRecord
	PCIeSlots     []PCIeSlotRecord
	TPMs          []TPMRecord
	Firmware      []FirmwareRecord
}

// Decode walks every supported structure type and returns the assembled
// inventory. The only decode error is ErrNonPrintable for a corrupt BIOS
// version string; the inventory is still returned with the version field
// defaulted, and the caller is expected to invalidate the backing store.
func Decode(t *Table, version Version, opts Options) (*Inventory, error) {
	bios, biosErr := t.BIOS()

	inventory := &Inventory{
		Version: version,
		BIOS:    bios,
	}

	inventory.System, _ = t.System()

	for i := 0; i < t.CountOfType(TypeProcessorInformation); i++ {
		if rec, ok := t.Processor(i); ok {
			inventory.Processors = append(inventory.Processors, rec)
		}
	}

	for i := 0; i < t.CountOfType(TypeMemoryDevice); i++ {
		if rec, ok := t.MemoryModule(i, opts); ok {
			inventory.MemoryModules = append(inventory.MemoryModules, rec)
		}
	}

	for i := 0; i < t.CountOfType(TypePhysicalMemoryArray); i++ {
		if rec, ok := t.MemoryArray(i); ok {
			inventory.MemoryArrays = append(inventory.MemoryArrays, rec)
		}
	}

	for i := 0; i < t.CountPCIeSlots(); i++ {
		if rec, ok := t.PCIeSlot(i, opts); ok {
			inventory.PCIeSlots = append(inventory.PCIeSlots, rec)
		}
	}

	for i := 0; i < t.CountOfType(TypeTPMDevice); i++ {
		if rec, ok := t.TPM(i); ok {
			inventory.TPMs = append(inventory.TPMs, rec)
		}
	}

	seen := map[string]struct{}{}

	for i := 0; i < t.CountOfType(TypeFirmwareInventory); i++ {
		rec, ok := t.Firmware(i, opts)
		if !ok {
			continue
		}

		// Duplicate identifiers collapse to the first occurrence.
		if _, dup := seen[rec.Identifier]; dup {
			continue
		}

		seen[rec.Identifier] = struct{}{}

		inventory.Firmware = append(inventory.Firmware, rec)
	}

	return inventory, biosErr
}
