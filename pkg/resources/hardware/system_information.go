// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package hardware

import (
	"github.com/cosi-project/runtime/pkg/resource"
	"github.com/cosi-project/runtime/pkg/resource/meta"
	"github.com/cosi-project/runtime/pkg/resource/typed"
)

// SystemInformationType is type of SystemInformation resource.
const SystemInformationType = resource.Type("SystemInformations.hardware.openbmc.org")

// SystemInformationID is the ID of the SystemInformation resource.
const SystemInformationID = resource.ID("systeminformation")

// SystemInformation resource holds the system identity decoded from the
// SMBIOS system and BIOS structures.
type SystemInformation = typed.Resource[SystemInformationSpec, SystemInformationExtension]

// SystemInformationSpec represents the system identity.
type SystemInformationSpec struct {
	Manufacturer    string `yaml:"manufacturer,omitempty"`
	ProductName     string `yaml:"productName,omitempty"`
	Version         string `yaml:"version,omitempty"`
	SerialNumber    string `yaml:"serialNumber,omitempty"`
	UUID            string `yaml:"uuid,omitempty"`
	SKUNumber       string `yaml:"skuNumber,omitempty"`
	Family          string `yaml:"family,omitempty"`
	BIOSVendor      string `yaml:"biosVendor,omitempty"`
	BIOSVersion     string `yaml:"biosVersion,omitempty"`
	BIOSReleaseDate string `yaml:"biosReleaseDate,omitempty"`
}

// NewSystemInformation initializes a SystemInformation resource.
func NewSystemInformation() *SystemInformation {
	return typed.NewResource[SystemInformationSpec, SystemInformationExtension](
		resource.NewMetadata(NamespaceName, SystemInformationType, SystemInformationID, resource.VersionUndefined),
		SystemInformationSpec{},
	)
}

// SystemInformationExtension provides auxiliary methods for SystemInformation.
type SystemInformationExtension struct{}

// ResourceDefinition implements [typed.Extension] interface.
func (SystemInformationExtension) ResourceDefinition() meta.ResourceDefinitionSpec {
	return meta.ResourceDefinitionSpec{
		Type: SystemInformationType,
		Aliases: []resource.Type{
			"systeminformation",
		},
		DefaultNamespace: NamespaceName,
		PrintColumns: []meta.PrintColumn{
			{
				Name:     "Manufacturer",
				JSONPath: `{.manufacturer}`,
			},
			{
				Name:     "ProductName",
				JSONPath: `{.productName}`,
			},
			{
				Name:     "SerialNumber",
				JSONPath: `{.serialNumber}`,
			},
			{
				Name:     "UUID",
				JSONPath: `{.uuid}`,
			},
			{
				Name:     "BIOSVersion",
				JSONPath: `{.biosVersion}`,
			},
		},
	}
}
