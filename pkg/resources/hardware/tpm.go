// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package hardware

import (
	"github.com/cosi-project/runtime/pkg/resource"
	"github.com/cosi-project/runtime/pkg/resource/meta"
	"github.com/cosi-project/runtime/pkg/resource/typed"
)

// TPMType is type of TPM resource.
const TPMType = resource.Type("TPMs.hardware.openbmc.org")

// TPM resource holds one decoded TPM device.
type TPM = typed.Resource[TPMSpec, TPMExtension]

// TPMSpec represents a single TPM device.
type TPMSpec struct {
	Present         bool   `yaml:"present"`
	VendorID        string `yaml:"vendorId,omitempty"`
	SpecMajor       uint8  `yaml:"specMajor,omitempty"`
	FirmwareVersion string `yaml:"firmwareVersion,omitempty"`
	Description     string `yaml:"description,omitempty"`
}

// NewTPM initializes a TPM resource.
func NewTPM(id string) *TPM {
	return typed.NewResource[TPMSpec, TPMExtension](
		resource.NewMetadata(NamespaceName, TPMType, id, resource.VersionUndefined),
		TPMSpec{},
	)
}

// TPMExtension provides auxiliary methods for TPM.
type TPMExtension struct{}

// ResourceDefinition implements [typed.Extension] interface.
func (TPMExtension) ResourceDefinition() meta.ResourceDefinitionSpec {
	return meta.ResourceDefinitionSpec{
		Type: TPMType,
		Aliases: []resource.Type{
			"tpms",
		},
		DefaultNamespace: NamespaceName,
		PrintColumns: []meta.PrintColumn{
			{
				Name:     "Vendor",
				JSONPath: `{.vendorId}`,
			},
			{
				Name:     "Firmware",
				JSONPath: `{.firmwareVersion}`,
			},
		},
	}
}
