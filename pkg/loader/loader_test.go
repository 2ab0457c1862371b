package loader

import (
	"errors"
	"testing"

	"github.com/strata-xr/strata-go/pkg/api"
)

func validInfo() LoaderInfo {
	return LoaderInfo{
		StructType:          StructTypeLoaderInfo,
		StructVersion:       StructVersion,
		StructSize:          LoaderInfoSize,
		MinInterfaceVersion: 1,
		MaxInterfaceVersion: 1,
		MinAPIVersion:       api.MakeVersion(1, 0, 0),
		MaxAPIVersion:       api.MakeVersion(1, 0, 0),
	}
}

func validRequest() RuntimeRequest {
	return RuntimeRequest{
		StructType:    StructTypeRuntimeRequest,
		StructVersion: StructVersion,
		StructSize:    RuntimeRequestSize,
	}
}

func TestNegotiate(t *testing.T) {
	info := validInfo()
	req := validRequest()
	if err := Negotiate(&info, &req); err != nil {
		t.Fatalf("negotiate failed: %v", err)
	}
	if req.RuntimeInterfaceVersion != 1 {
		t.Errorf("interface version = %d, want 1", req.RuntimeInterfaceVersion)
	}
	if req.RuntimeAPIVersion.Major() != 1 {
		t.Errorf("API major = %d, want 1", req.RuntimeAPIVersion.Major())
	}
}

func TestNegotiateNilStructures(t *testing.T) {
	info := validInfo()
	req := validRequest()
	if err := Negotiate(nil, &req); !errors.Is(err, api.ErrValidationFailure) {
		t.Errorf("nil info: %v", err)
	}
	if err := Negotiate(&info, nil); !errors.Is(err, api.ErrValidationFailure) {
		t.Errorf("nil request: %v", err)
	}
}

func TestNegotiateIdentification(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*LoaderInfo, *RuntimeRequest)
	}{
		{"info type", func(i *LoaderInfo, _ *RuntimeRequest) { i.StructType = 99 }},
		{"info version", func(i *LoaderInfo, _ *RuntimeRequest) { i.StructVersion = 0 }},
		{"info size", func(i *LoaderInfo, _ *RuntimeRequest) { i.StructSize = 4 }},
		{"request type", func(_ *LoaderInfo, r *RuntimeRequest) { r.StructType = StructTypeLoaderInfo }},
		{"request version", func(_ *LoaderInfo, r *RuntimeRequest) { r.StructVersion = 7 }},
		{"request size", func(_ *LoaderInfo, r *RuntimeRequest) { r.StructSize = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			info := validInfo()
			req := validRequest()
			tc.mutate(&info, &req)
			if err := Negotiate(&info, &req); !errors.Is(err, api.ErrInitializationFailed) {
				t.Errorf("got %v, want initialization failure", err)
			}
		})
	}
}

func TestNegotiateInterfaceRange(t *testing.T) {
	info := validInfo()
	req := validRequest()
	info.MinInterfaceVersion = 2
	info.MaxInterfaceVersion = 3
	if err := Negotiate(&info, &req); !errors.Is(err, api.ErrInitializationFailed) {
		t.Errorf("out of range interface: %v", err)
	}

	info = validInfo()
	info.MinInterfaceVersion = 3
	info.MaxInterfaceVersion = 1
	if err := Negotiate(&info, &req); !errors.Is(err, api.ErrInitializationFailed) {
		t.Errorf("inverted interface range: %v", err)
	}
}

func TestNegotiateAPIRange(t *testing.T) {
	info := validInfo()
	req := validRequest()
	info.MinAPIVersion = api.MakeVersion(2, 0, 0)
	info.MaxAPIVersion = api.MakeVersion(3, 0, 0)
	if err := Negotiate(&info, &req); !errors.Is(err, api.ErrAPIVersionUnsupported) {
		t.Errorf("future-only API range: %v", err)
	}

	// A wide range that includes the runtime's major succeeds.
	info = validInfo()
	info.MinAPIVersion = api.MakeVersion(1, 0, 0)
	info.MaxAPIVersion = api.MakeVersion(2, 0, 0)
	if err := Negotiate(&info, &req); err != nil {
		t.Errorf("wide API range: %v", err)
	}
}
