// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package hardware

import (
	"github.com/cosi-project/runtime/pkg/resource"
	"github.com/cosi-project/runtime/pkg/resource/meta"
	"github.com/cosi-project/runtime/pkg/resource/typed"
)

// ProcessorType is type of Processor resource.
const ProcessorType = resource.Type("Processors.hardware.openbmc.org")

// Processor resource holds one decoded processor socket.
type Processor = typed.Resource[ProcessorSpec, ProcessorExtension]

// ProcessorSpec represents a single processor socket.
type ProcessorSpec struct {
	Socket          string   `yaml:"socket"`
	Present         bool     `yaml:"present"`
	Manufacturer    string   `yaml:"manufacturer,omitempty"`
	Version         string   `yaml:"version,omitempty"`
	SerialNumber    string   `yaml:"serialNumber,omitempty"`
	PartNumber      string   `yaml:"partNumber,omitempty"`
	Family          string   `yaml:"family,omitempty"`
	EffectiveFamily uint16   `yaml:"effectiveFamily,omitempty"`
	EffectiveModel  uint16   `yaml:"effectiveModel,omitempty"`
	Step            uint16   `yaml:"step,omitempty"`
	ProcessorID     uint64   `yaml:"processorId,omitempty"`
	MaxSpeedMHz     uint16   `yaml:"maxSpeedMHz,omitempty"`
	CoreCount       uint16   `yaml:"coreCount,omitempty"`
	ThreadCount     uint16   `yaml:"threadCount,omitempty"`
	Characteristics []string `yaml:"characteristics,omitempty"`
}

// NewProcessor initializes a Processor resource.
func NewProcessor(id string) *Processor {
	return typed.NewResource[ProcessorSpec, ProcessorExtension](
		resource.NewMetadata(NamespaceName, ProcessorType, id, resource.VersionUndefined),
		ProcessorSpec{},
	)
}

// ProcessorExtension provides auxiliary methods for Processor.
type ProcessorExtension struct{}

// ResourceDefinition implements [typed.Extension] interface.
func (ProcessorExtension) ResourceDefinition() meta.ResourceDefinitionSpec {
	return meta.ResourceDefinitionSpec{
		Type: ProcessorType,
		Aliases: []resource.Type{
			"cpus",
			"processors",
		},
		DefaultNamespace: NamespaceName,
		PrintColumns: []meta.PrintColumn{
			{
				Name:     "Socket",
				JSONPath: `{.socket}`,
			},
			{
				Name:     "Present",
				JSONPath: `{.present}`,
			},
			{
				Name:     "Version",
				JSONPath: `{.version}`,
			},
			{
				Name:     "Cores",
				JSONPath: `{.coreCount}`,
			},
		},
	}
}
