// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smbiosd_test

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cosi-project/runtime/pkg/resource"
	"github.com/cosi-project/runtime/pkg/safe"
	"github.com/cosi-project/runtime/pkg/state"
	"github.com/siderolabs/go-retry/retry"
	"github.com/stretchr/testify/suite"

	"github.com/openbmc/smbios-mdr/internal/app/smbiosd"
	"github.com/openbmc/smbios-mdr/internal/app/smbiosd/ctest"
	"github.com/openbmc/smbios-mdr/internal/pkg/mdr"
	"github.com/openbmc/smbios-mdr/internal/pkg/smbios"
	"github.com/openbmc/smbios-mdr/pkg/resources/hardware"
)

type InventorySuite struct {
	ctest.DefaultSuite

	snapshot atomic.Pointer[mdr.Snapshot]
}

func TestInventorySuite(t *testing.T) {
	s := &InventorySuite{}

	s.AfterSetup = func(ds *ctest.DefaultSuite) {
		ds.Require().NoError(ds.Runtime().RegisterController(&smbiosd.InventoryController{
			Snapshot: s.snapshot.Load,
		}))
	}

	suite.Run(t, s)
}

// publish stores the snapshot and bumps the table status to wake the
// controller.
func (s *InventorySuite) publish(generation uint64, inv *smbios.Inventory) {
	s.snapshot.Store(&mdr.Snapshot{
		Generation:  generation,
		Inventory:   inv,
		DataVersion: 1,
		Timestamp:   42,
		Size:        100,
	})

	status := hardware.NewTableStatus()
	status.TypedSpec().Generation = generation

	if err := s.State().Create(s.Ctx(), status); err != nil {
		_, err = safe.StateUpdateWithConflicts(s.Ctx(), s.State(), status.Metadata(), func(res *hardware.TableStatus) error {
			res.TypedSpec().Generation = generation

			return nil
		})
		s.Require().NoError(err)
	}
}

func (s *InventorySuite) assertResource(ptr resource.Pointer, check func(resource.Resource) error) {
	s.AssertWithin(3*time.Second, 10*time.Millisecond, func() error {
		res, err := s.State().Get(s.Ctx(), ptr)
		if err != nil {
			return retry.ExpectedError(err)
		}

		if err = check(res); err != nil {
			return retry.ExpectedError(err)
		}

		return nil
	})
}

func (s *InventorySuite) assertNoResource(ptr resource.Pointer) {
	s.AssertWithin(3*time.Second, 10*time.Millisecond, func() error {
		_, err := s.State().Get(s.Ctx(), ptr)
		if err == nil {
			return retry.ExpectedErrorf("resource %s still exists", ptr)
		}

		if state.IsNotFoundError(err) {
			return nil
		}

		return err
	})
}

func exampleInventory() *smbios.Inventory {
	return &smbios.Inventory{
		Version: smbios.Version{Major: 3, Minor: 5},
		System: smbios.SystemRecord{
			Manufacturer: "Acme",
			ProductName:  "Server X",
			UUID:         "00112233-4455-6677-8899-aabbccddeeff",
		},
		BIOS: smbios.BIOSRecord{
			Vendor:  "Acme BIOS",
			Version: "F31",
		},
		Processors: []smbios.ProcessorRecord{
			{
				Socket:    "CPU 0",
				Present:   true,
				Family:    "Xeon",
				Version:   "Intel Xeon E5",
				CoreCount: 8,
			},
		},
		MemoryModules: []smbios.MemoryModuleRecord{
			{Present: true, Functional: true, DeviceLocator: "DIMM A0", SizeKB: 16 * 1024 * 1024},
			{Present: false, DeviceLocator: "DIMM A1"},
		},
		MemoryArrays: []smbios.MemoryArrayRecord{
			{Handle: 0x40, DeviceCount: 2},
		},
		PCIeSlots: []smbios.PCIeSlotRecord{
			{Designation: "PCIe Slot 1", Lanes: 16, InUse: true},
		},
		TPMs: []smbios.TPMRecord{
			{Present: true, VendorID: "ACME", SpecMajor: 2, FirmwareVersion: "7.5"},
		},
		Firmware: []smbios.FirmwareRecord{
			{Identifier: "BIOS_Firmware", ComponentName: "BIOS", Version: "1.0"},
		},
	}
}

func (s *InventorySuite) TestPublish() {
	s.publish(1, exampleInventory())

	s.assertResource(hardware.NewSystemInformation().Metadata(), func(res resource.Resource) error {
		spec := res.(*hardware.SystemInformation).TypedSpec()

		if spec.Manufacturer != "Acme" || spec.BIOSVersion != "F31" {
			return fmt.Errorf("unexpected system information %v", spec)
		}

		return nil
	})

	s.assertResource(hardware.NewProcessor("cpu-0").Metadata(), func(res resource.Resource) error {
		spec := res.(*hardware.Processor).TypedSpec()

		if !spec.Present || spec.Socket != "CPU 0" || spec.CoreCount != 8 {
			return fmt.Errorf("unexpected processor %v", spec)
		}

		return nil
	})

	s.assertResource(hardware.NewMemoryModule("dimm-0").Metadata(), func(res resource.Resource) error {
		spec := res.(*hardware.MemoryModule).TypedSpec()

		if spec.SizeKB != 16*1024*1024 || spec.DeviceLocator != "DIMM A0" {
			return fmt.Errorf("unexpected memory module %v", spec)
		}

		return nil
	})

	s.assertResource(hardware.NewMemoryModule("dimm-1").Metadata(), func(res resource.Resource) error {
		if res.(*hardware.MemoryModule).TypedSpec().Present {
			return fmt.Errorf("dimm-1 should not be present")
		}

		return nil
	})

	s.assertResource(hardware.NewMemoryArray("memarray-0").Metadata(), func(res resource.Resource) error {
		if res.(*hardware.MemoryArray).TypedSpec().DeviceCount != 2 {
			return fmt.Errorf("unexpected memory array")
		}

		return nil
	})

	s.assertResource(hardware.NewPCIeSlot("slot-0").Metadata(), func(res resource.Resource) error {
		spec := res.(*hardware.PCIeSlot).TypedSpec()

		if spec.Lanes != 16 || !spec.InUse {
			return fmt.Errorf("unexpected PCIe slot %v", spec)
		}

		return nil
	})

	s.assertResource(hardware.NewTPM("tpm-0").Metadata(), func(res resource.Resource) error {
		if res.(*hardware.TPM).TypedSpec().FirmwareVersion != "7.5" {
			return fmt.Errorf("unexpected TPM")
		}

		return nil
	})

	s.assertResource(hardware.NewFirmwareComponent("BIOS_Firmware").Metadata(), func(res resource.Resource) error {
		if res.(*hardware.FirmwareComponent).TypedSpec().Version != "1.0" {
			return fmt.Errorf("unexpected firmware component")
		}

		return nil
	})
}

func (s *InventorySuite) TestTeardown() {
	s.publish(1, exampleInventory())

	s.assertResource(hardware.NewTPM("tpm-0").Metadata(), func(resource.Resource) error { return nil })
	s.assertResource(hardware.NewMemoryModule("dimm-1").Metadata(), func(resource.Resource) error { return nil })

	// a rebuilt table without the TPM and the second DIMM slot
	inv := exampleInventory()
	inv.TPMs = nil
	inv.MemoryModules = inv.MemoryModules[:1]
	inv.Firmware[0].Version = "2.0"

	s.publish(2, inv)

	s.assertNoResource(hardware.NewTPM("tpm-0").Metadata())
	s.assertNoResource(hardware.NewMemoryModule("dimm-1").Metadata())

	s.assertResource(hardware.NewFirmwareComponent("BIOS_Firmware").Metadata(), func(res resource.Resource) error {
		if version := res.(*hardware.FirmwareComponent).TypedSpec().Version; version != "2.0" {
			return fmt.Errorf("firmware version not updated: %q", version)
		}

		return nil
	})

	s.assertResource(hardware.NewMemoryModule("dimm-0").Metadata(), func(resource.Resource) error { return nil })
}
