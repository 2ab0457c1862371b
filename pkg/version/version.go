// Package version provides runtime API version parsing and comparison.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Current is the runtime API version implemented by this library.
const Current = "1.0.34"

// APIVersion represents a parsed "major.minor.patch" runtime version.
type APIVersion struct {
	Major uint16
	Minor uint16
	Patch uint32
}

// Parse parses a "major.minor.patch" version string. The patch component
// may be omitted.
func Parse(s string) (APIVersion, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 && len(parts) != 3 {
		return APIVersion{}, fmt.Errorf("invalid version %q: expected major.minor[.patch]", s)
	}

	major, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil || parts[0] == "" {
		return APIVersion{}, fmt.Errorf("invalid version %q: bad major component", s)
	}

	minor, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil || parts[1] == "" {
		return APIVersion{}, fmt.Errorf("invalid version %q: bad minor component", s)
	}

	var patch uint64
	if len(parts) == 3 {
		patch, err = strconv.ParseUint(parts[2], 10, 32)
		if err != nil || parts[2] == "" {
			return APIVersion{}, fmt.Errorf("invalid version %q: bad patch component", s)
		}
	}

	return APIVersion{Major: uint16(major), Minor: uint16(minor), Patch: uint32(patch)}, nil
}

// String returns the version as "major.minor.patch".
func (v APIVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compatible returns true if the other version has the same major version.
func (v APIVersion) Compatible(other APIVersion) bool {
	return v.Major == other.Major
}

// Packed returns the version packed into the 64-bit layout the loader
// handshake carries: 16 bits major, 16 bits minor, 32 bits patch.
func (v APIVersion) Packed() uint64 {
	return uint64(v.Major)<<48 | uint64(v.Minor)<<32 | uint64(v.Patch)
}

// Unpack splits a packed 64-bit version.
func Unpack(packed uint64) APIVersion {
	return APIVersion{
		Major: uint16(packed >> 48),
		Minor: uint16(packed >> 32),
		Patch: uint32(packed),
	}
}
