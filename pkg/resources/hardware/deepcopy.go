// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package hardware

// DeepCopy generates a deep copy of ProcessorSpec.
func (o ProcessorSpec) DeepCopy() ProcessorSpec {
	cp := o

	if o.Characteristics != nil {
		cp.Characteristics = make([]string, len(o.Characteristics))
		copy(cp.Characteristics, o.Characteristics)
	}

	return cp
}

// DeepCopy generates a deep copy of MemoryModuleSpec.
func (o MemoryModuleSpec) DeepCopy() MemoryModuleSpec {
	return o
}

// DeepCopy generates a deep copy of MemoryArraySpec.
func (o MemoryArraySpec) DeepCopy() MemoryArraySpec {
	return o
}

// DeepCopy generates a deep copy of PCIeSlotSpec.
func (o PCIeSlotSpec) DeepCopy() PCIeSlotSpec {
	return o
}

// DeepCopy generates a deep copy of TPMSpec.
func (o TPMSpec) DeepCopy() TPMSpec {
	return o
}

// DeepCopy generates a deep copy of FirmwareComponentSpec.
func (o FirmwareComponentSpec) DeepCopy() FirmwareComponentSpec {
	return o
}

// DeepCopy generates a deep copy of SystemInformationSpec.
func (o SystemInformationSpec) DeepCopy() SystemInformationSpec {
	return o
}

// DeepCopy generates a deep copy of TableStatusSpec.
func (o TableStatusSpec) DeepCopy() TableStatusSpec {
	return o
}
