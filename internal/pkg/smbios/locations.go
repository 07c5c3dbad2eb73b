// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smbios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadMemoryLocations reads the platform locator map from a YAML file keyed
// by the exact device-locator string of each memory module.
func LoadMemoryLocations(path string) (map[string]MemoryLocation, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading locator map: %w", err)
	}

	locations := map[string]MemoryLocation{}

	if err = yaml.Unmarshal(contents, &locations); err != nil {
		return nil, fmt.Errorf("error parsing locator map %q: %w", path, err)
	}

	return locations, nil
}
