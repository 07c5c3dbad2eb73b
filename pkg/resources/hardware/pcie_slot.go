// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package hardware

import (
	"github.com/cosi-project/runtime/pkg/resource"
	"github.com/cosi-project/runtime/pkg/resource/meta"
	"github.com/cosi-project/runtime/pkg/resource/typed"
)

// PCIeSlotType is type of PCIeSlot resource.
const PCIeSlotType = resource.Type("PCIeSlots.hardware.openbmc.org")

// PCIeSlot resource holds one decoded PCI Express slot.
type PCIeSlot = typed.Resource[PCIeSlotSpec, PCIeSlotExtension]

// PCIeSlotSpec represents a single PCI Express slot.
type PCIeSlotSpec struct {
	Designation  string `yaml:"designation"`
	Generation   string `yaml:"generation,omitempty"`
	Kind         string `yaml:"kind,omitempty"`
	Lanes        uint8  `yaml:"lanes,omitempty"`
	InUse        bool   `yaml:"inUse"`
	HotPluggable bool   `yaml:"hotPluggable"`
}

// NewPCIeSlot initializes a PCIeSlot resource.
func NewPCIeSlot(id string) *PCIeSlot {
	return typed.NewResource[PCIeSlotSpec, PCIeSlotExtension](
		resource.NewMetadata(NamespaceName, PCIeSlotType, id, resource.VersionUndefined),
		PCIeSlotSpec{},
	)
}

// PCIeSlotExtension provides auxiliary methods for PCIeSlot.
type PCIeSlotExtension struct{}

// ResourceDefinition implements [typed.Extension] interface.
func (PCIeSlotExtension) ResourceDefinition() meta.ResourceDefinitionSpec {
	return meta.ResourceDefinitionSpec{
		Type: PCIeSlotType,
		Aliases: []resource.Type{
			"pcieslots",
		},
		DefaultNamespace: NamespaceName,
		PrintColumns: []meta.PrintColumn{
			{
				Name:     "Designation",
				JSONPath: `{.designation}`,
			},
			{
				Name:     "Generation",
				JSONPath: `{.generation}`,
			},
			{
				Name:     "Lanes",
				JSONPath: `{.lanes}`,
			},
			{
				Name:     "InUse",
				JSONPath: `{.inUse}`,
			},
		},
	}
}
