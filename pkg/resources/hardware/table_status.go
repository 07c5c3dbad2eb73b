// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package hardware

import (
	"github.com/cosi-project/runtime/pkg/resource"
	"github.com/cosi-project/runtime/pkg/resource/meta"
	"github.com/cosi-project/runtime/pkg/resource/typed"
)

// TableStatusType is type of TableStatus resource.
const TableStatusType = resource.Type("TableStatuses.hardware.openbmc.org")

// TableStatusID is the ID of the singleton TableStatus resource.
const TableStatusID = resource.ID("smbios")

// TableStatus resource describes the currently loaded SMBIOS table; it is
// updated by the synchronizer on every successful sync and drives the
// inventory controller.
type TableStatus = typed.Resource[TableStatusSpec, TableStatusExtension]

// TableStatusSpec describes one loaded table version.
type TableStatusSpec struct {
	Generation    uint64 `yaml:"generation"`
	DataVersion   uint8  `yaml:"dataVersion"`
	Timestamp     uint32 `yaml:"timestamp"`
	Size          uint32 `yaml:"size"`
	SMBIOSVersion string `yaml:"smbiosVersion"`
}

// NewTableStatus initializes a TableStatus resource.
func NewTableStatus() *TableStatus {
	return typed.NewResource[TableStatusSpec, TableStatusExtension](
		resource.NewMetadata(NamespaceName, TableStatusType, TableStatusID, resource.VersionUndefined),
		TableStatusSpec{},
	)
}

// TableStatusExtension provides auxiliary methods for TableStatus.
type TableStatusExtension struct{}

// ResourceDefinition implements [typed.Extension] interface.
func (TableStatusExtension) ResourceDefinition() meta.ResourceDefinitionSpec {
	return meta.ResourceDefinitionSpec{
		Type: TableStatusType,
		Aliases: []resource.Type{
			"tablestatus",
		},
		DefaultNamespace: NamespaceName,
		PrintColumns: []meta.PrintColumn{
			{
				Name:     "Generation",
				JSONPath: `{.generation}`,
			},
			{
				Name:     "Version",
				JSONPath: `{.smbiosVersion}`,
			},
			{
				Name:     "Size",
				JSONPath: `{.size}`,
			},
		},
	}
}
