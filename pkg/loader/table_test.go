package loader

import (
	"errors"
	"testing"

	"github.com/strata-xr/strata-go/pkg/api"
)

func demoTable() *Table {
	t := NewTable()
	t.Register("CreateInstance", func() {})
	t.Register("EnumerateApiLayerProperties", func() {})
	t.Register("CreateSession", func() {})
	return t
}

func TestTableLookup(t *testing.T) {
	tbl := demoTable()
	fn, err := tbl.Lookup("CreateSession", true)
	if err != nil {
		t.Fatalf("lookup with instance: %v", err)
	}
	if fn == nil {
		t.Error("entry point is nil")
	}
}

func TestTableLookupUnknown(t *testing.T) {
	tbl := demoTable()
	if _, err := tbl.Lookup("MakeCoffee", true); !errors.Is(err, api.ErrFunctionUnsupported) {
		t.Errorf("unknown name: %v", err)
	}
}

func TestTableLookupWithoutInstance(t *testing.T) {
	tbl := demoTable()

	// The pre-instance set resolves without a live instance.
	if _, err := tbl.Lookup("CreateInstance", false); err != nil {
		t.Errorf("pre-instance name: %v", err)
	}
	if _, err := tbl.Lookup("EnumerateApiLayerProperties", false); err != nil {
		t.Errorf("pre-instance name: %v", err)
	}

	// A known name that needs an instance fails differently from an
	// unknown one.
	if _, err := tbl.Lookup("CreateSession", false); !errors.Is(err, api.ErrHandleInvalid) {
		t.Errorf("instance-bound name: %v", err)
	}
	if _, err := tbl.Lookup("MakeCoffee", false); !errors.Is(err, api.ErrFunctionUnsupported) {
		t.Errorf("unknown name without instance: %v", err)
	}
}

func TestTableRegisterReplaces(t *testing.T) {
	tbl := NewTable()
	tbl.Register("CreateInstance", func() int { return 1 })
	tbl.Register("CreateInstance", func() int { return 2 })
	fn, err := tbl.Lookup("CreateInstance", false)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got := fn.(func() int)(); got != 2 {
		t.Errorf("got %d, want the later registration", got)
	}
}
