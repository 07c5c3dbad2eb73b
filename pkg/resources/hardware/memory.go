// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package hardware

import (
	"github.com/cosi-project/runtime/pkg/resource"
	"github.com/cosi-project/runtime/pkg/resource/meta"
	"github.com/cosi-project/runtime/pkg/resource/typed"
)

// MemoryModuleType is type of MemoryModule resource.
const MemoryModuleType = resource.Type("MemoryModules.hardware.openbmc.org")

// MemoryModule resource holds one decoded memory device socket.
type MemoryModule = typed.Resource[MemoryModuleSpec, MemoryModuleExtension]

// MemoryModuleSpec represents a single memory device.
type MemoryModuleSpec struct {
	Present            bool   `yaml:"present"`
	Functional         bool   `yaml:"functional"`
	DeviceLocator      string `yaml:"deviceLocator"`
	SizeKB             uint64 `yaml:"sizeKB"`
	Type               string `yaml:"type,omitempty"`
	TypeDetail         string `yaml:"typeDetail,omitempty"`
	MaxSpeedMHz        uint16 `yaml:"maxSpeedMHz,omitempty"`
	ConfiguredSpeedMHz uint16 `yaml:"configuredSpeedMHz,omitempty"`
	Manufacturer       string `yaml:"manufacturer,omitempty"`
	SerialNumber       string `yaml:"serialNumber,omitempty"`
	AssetTag           string `yaml:"assetTag,omitempty"`
	PartNumber         string `yaml:"partNumber,omitempty"`
	Technology         string `yaml:"technology,omitempty"`
	ECC                string `yaml:"ecc,omitempty"`
	MemoryController   uint8  `yaml:"memoryController,omitempty"`
	Socket             uint8  `yaml:"socket,omitempty"`
	Slot               uint8  `yaml:"slot,omitempty"`
	Channel            uint8  `yaml:"channel,omitempty"`
	ArrayHandle        uint16 `yaml:"arrayHandle,omitempty"`
}

// NewMemoryModule initializes a MemoryModule resource.
func NewMemoryModule(id string) *MemoryModule {
	return typed.NewResource[MemoryModuleSpec, MemoryModuleExtension](
		resource.NewMetadata(NamespaceName, MemoryModuleType, id, resource.VersionUndefined),
		MemoryModuleSpec{},
	)
}

// MemoryModuleExtension provides auxiliary methods for MemoryModule.
type MemoryModuleExtension struct{}

// ResourceDefinition implements [typed.Extension] interface.
func (MemoryModuleExtension) ResourceDefinition() meta.ResourceDefinitionSpec {
	return meta.ResourceDefinitionSpec{
		Type: MemoryModuleType,
		Aliases: []resource.Type{
			"dimms",
			"memorymodules",
		},
		DefaultNamespace: NamespaceName,
		PrintColumns: []meta.PrintColumn{
			{
				Name:     "Locator",
				JSONPath: `{.deviceLocator}`,
			},
			{
				Name:     "Manufacturer",
				JSONPath: `{.manufacturer}`,
			},
			{
				Name:     "Size",
				JSONPath: `{.sizeKB}`,
			},
			{
				Name:     "Type",
				JSONPath: `{.type}`,
			},
		},
	}
}

// MemoryArrayType is type of MemoryArray resource.
const MemoryArrayType = resource.Type("MemoryArrays.hardware.openbmc.org")

// MemoryArray resource holds one decoded physical memory array.
type MemoryArray = typed.Resource[MemoryArraySpec, MemoryArrayExtension]

// MemoryArraySpec represents a single physical memory array.
type MemoryArraySpec struct {
	Handle          uint16 `yaml:"handle"`
	ErrorCorrection string `yaml:"errorCorrection,omitempty"`
	MaximumCapacity uint32 `yaml:"maximumCapacity,omitempty"`
	DeviceCount     uint16 `yaml:"deviceCount,omitempty"`
}

// NewMemoryArray initializes a MemoryArray resource.
func NewMemoryArray(id string) *MemoryArray {
	return typed.NewResource[MemoryArraySpec, MemoryArrayExtension](
		resource.NewMetadata(NamespaceName, MemoryArrayType, id, resource.VersionUndefined),
		MemoryArraySpec{},
	)
}

// MemoryArrayExtension provides auxiliary methods for MemoryArray.
type MemoryArrayExtension struct{}

// ResourceDefinition implements [typed.Extension] interface.
func (MemoryArrayExtension) ResourceDefinition() meta.ResourceDefinitionSpec {
	return meta.ResourceDefinitionSpec{
		Type: MemoryArrayType,
		Aliases: []resource.Type{
			"memoryarrays",
		},
		DefaultNamespace: NamespaceName,
		PrintColumns: []meta.PrintColumn{
			{
				Name:     "ECC",
				JSONPath: `{.errorCorrection}`,
			},
			{
				Name:     "Devices",
				JSONPath: `{.deviceCount}`,
			},
		},
	}
}
