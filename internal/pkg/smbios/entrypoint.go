// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smbios

import (
	"bytes"
	"fmt"
)

// Entry point anchor strings per DSP0134.
var (
	anchor21 = []byte("_SM_")
	anchor30 = []byte("_SM3_")
)

const (
	entryPoint21Len = 31
	entryPoint30Len = 24
)

// Version is the SMBIOS version pair embedded in the entry point structure.
type Version struct {
	Major uint8
	Minor uint8
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// SupportedVersions is the allowlist of table versions accepted on sync.
var SupportedVersions = []Version{
	{3, 0},
	{3, 2},
	{3, 3},
	{3, 4},
	{3, 5},
	{3, 6},
	{3, 7},
	{3, 8},
}

// Entry point validation failures.
var (
	ErrAnchorNotFound     = fmt.Errorf("SMBIOS 2.1 and 3.0 anchor strings not found")
	ErrEntryPointTooShort = fmt.Errorf("truncated SMBIOS entry point structure")
)

// UnsupportedVersionError is returned when the embedded version pair is not
// in the supported allowlist.
type UnsupportedVersionError struct {
	Version Version
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported SMBIOS table version %s", e.Version)
}

// Sniff locates the entry point anchor within blob and extracts the embedded
// version pair. The 2.1-style anchor is preferred; the 3.0-style anchor is a
// fallback. The version must be in the supported allowlist.
func Sniff(blob []byte) (Version, error) {
	var (
		version Version
		err     error
	)

	if pos := bytes.Index(blob, anchor21); pos != -1 {
		version, err = entryPointVersion(blob[pos:], entryPoint21Len, len(anchor21)+2)
	} else if pos := bytes.Index(blob, anchor30); pos != -1 {
		version, err = entryPointVersion(blob[pos:], entryPoint30Len, len(anchor30)+2)
	} else {
		return Version{}, ErrAnchorNotFound
	}

	if err != nil {
		return Version{}, err
	}

	for _, supported := range SupportedVersions {
		if version == supported {
			return version, nil
		}
	}

	return Version{}, &UnsupportedVersionError{Version: version}
}

// entryPointVersion reads the {major, minor} pair which sits after the anchor,
// checksum and entry point length bytes; the offset differs by anchor kind.
func entryPointVersion(ep []byte, structLen, versionOff int) (Version, error) {
	if len(ep) < structLen {
		return Version{}, ErrEntryPointTooShort
	}

	return Version{Major: ep[versionOff], Minor: ep[versionOff+1]}, nil
}
