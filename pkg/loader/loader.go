// Package loader implements the handshake a dispatch layer performs
// before any runtime call: structure identification, version range
// agreement and the entry point table handoff.
package loader

import (
	"github.com/strata-xr/strata-go/pkg/api"
	"github.com/strata-xr/strata-go/pkg/version"
)

// Structure identification for the negotiation request and response.
// All three fields must match exactly before any field is trusted.
const (
	StructTypeLoaderInfo     uint32 = 1
	StructTypeRuntimeRequest uint32 = 2

	StructVersion uint32 = 1
)

// LoaderInfoSize and RuntimeRequestSize pin the struct layouts the
// handshake accepts.
const (
	LoaderInfoSize     = 32
	RuntimeRequestSize = 40
)

// LoaderInfo is what the dispatch layer sends: its identity and the
// interface major versions it can drive.
type LoaderInfo struct {
	StructType    uint32
	StructVersion uint32
	StructSize    uint32

	MinInterfaceVersion uint32
	MaxInterfaceVersion uint32

	MinAPIVersion api.Version
	MaxAPIVersion api.Version
}

// RuntimeRequest is the runtime's answer: the agreed versions and the
// entry table.
type RuntimeRequest struct {
	StructType    uint32
	StructVersion uint32
	StructSize    uint32

	RuntimeInterfaceVersion uint32
	RuntimeAPIVersion       api.Version
}

// interfaceVersion is the loader interface generation this runtime
// speaks.
const interfaceVersion uint32 = 1

// Negotiate checks the loader's request and fills in the runtime's
// answer. Both structures carry their own identification triple and both
// must be exactly right.
func Negotiate(info *LoaderInfo, req *RuntimeRequest) error {
	if info == nil || req == nil {
		return api.Resultf(api.ErrValidationFailure, "negotiation structures missing")
	}
	if info.StructType != StructTypeLoaderInfo ||
		info.StructVersion != StructVersion ||
		info.StructSize != LoaderInfoSize {
		return api.Resultf(api.ErrInitializationFailed,
			"loader info identification %d/%d/%d",
			info.StructType, info.StructVersion, info.StructSize)
	}
	if req.StructType != StructTypeRuntimeRequest ||
		req.StructVersion != StructVersion ||
		req.StructSize != RuntimeRequestSize {
		return api.Resultf(api.ErrInitializationFailed,
			"runtime request identification %d/%d/%d",
			req.StructType, req.StructVersion, req.StructSize)
	}

	if info.MinInterfaceVersion > info.MaxInterfaceVersion {
		return api.Resultf(api.ErrInitializationFailed,
			"inverted interface range %d..%d",
			info.MinInterfaceVersion, info.MaxInterfaceVersion)
	}
	if interfaceVersion < info.MinInterfaceVersion || interfaceVersion > info.MaxInterfaceVersion {
		return api.Resultf(api.ErrInitializationFailed,
			"interface %d outside loader range %d..%d",
			interfaceVersion, info.MinInterfaceVersion, info.MaxInterfaceVersion)
	}

	cur, _ := version.Parse(version.Current)
	runtimeAPI := api.MakeVersion(cur.Major, cur.Minor, cur.Patch)
	if info.MinAPIVersion > info.MaxAPIVersion {
		return api.Resultf(api.ErrInitializationFailed, "inverted API range")
	}
	if uint16(cur.Major) < info.MinAPIVersion.Major() || uint16(cur.Major) > info.MaxAPIVersion.Major() {
		return api.Resultf(api.ErrAPIVersionUnsupported,
			"runtime %s outside requested majors %d..%d",
			runtimeAPI, info.MinAPIVersion.Major(), info.MaxAPIVersion.Major())
	}

	req.RuntimeInterfaceVersion = interfaceVersion
	req.RuntimeAPIVersion = runtimeAPI
	return nil
}
