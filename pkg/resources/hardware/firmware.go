// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package hardware

import (
	"github.com/cosi-project/runtime/pkg/resource"
	"github.com/cosi-project/runtime/pkg/resource/meta"
	"github.com/cosi-project/runtime/pkg/resource/typed"
)

// FirmwareComponentType is type of FirmwareComponent resource.
const FirmwareComponentType = resource.Type("FirmwareComponents.hardware.openbmc.org")

// FirmwareComponent resource holds one decoded firmware inventory entry.
type FirmwareComponent = typed.Resource[FirmwareComponentSpec, FirmwareComponentExtension]

// FirmwareComponentSpec represents a single firmware inventory entry.
type FirmwareComponentSpec struct {
	ComponentName string `yaml:"componentName,omitempty"`
	Version       string `yaml:"version,omitempty"`
	ReleaseDate   string `yaml:"releaseDate,omitempty"`
	Manufacturer  string `yaml:"manufacturer,omitempty"`
	ImageSize     uint64 `yaml:"imageSize,omitempty"`
}

// NewFirmwareComponent initializes a FirmwareComponent resource.
func NewFirmwareComponent(id string) *FirmwareComponent {
	return typed.NewResource[FirmwareComponentSpec, FirmwareComponentExtension](
		resource.NewMetadata(NamespaceName, FirmwareComponentType, id, resource.VersionUndefined),
		FirmwareComponentSpec{},
	)
}

// FirmwareComponentExtension provides auxiliary methods for FirmwareComponent.
type FirmwareComponentExtension struct{}

// ResourceDefinition implements [typed.Extension] interface.
func (FirmwareComponentExtension) ResourceDefinition() meta.ResourceDefinitionSpec {
	return meta.ResourceDefinitionSpec{
		Type: FirmwareComponentType,
		Aliases: []resource.Type{
			"firmware",
		},
		DefaultNamespace: NamespaceName,
		PrintColumns: []meta.PrintColumn{
			{
				Name:     "Name",
				JSONPath: `{.componentName}`,
			},
			{
				Name:     "Version",
				JSONPath: `{.version}`,
			},
			{
				Name:     "ReleaseDate",
				JSONPath: `{.releaseDate}`,
			},
		},
	}
}
