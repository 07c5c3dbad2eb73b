// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package hardware defines the resources describing hardware inventory
// decoded from the SMBIOS table.
package hardware

import (
	"github.com/cosi-project/runtime/pkg/resource"
)

// NamespaceName contains resources related to hardware as a whole.
const NamespaceName resource.Namespace = "hardware"
