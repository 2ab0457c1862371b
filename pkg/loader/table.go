package loader

import "github.com/strata-xr/strata-go/pkg/api"

// Entrypoint is a function value handed across the handshake. The
// loader never calls it; it only controls which names resolve and when.
type Entrypoint any

// preInstance lists the entry points that resolve before any instance
// exists. Everything else needs a live instance behind the lookup.
var preInstance = map[string]bool{
	"EnumerateApiLayerProperties":          true,
	"EnumerateInstanceExtensionProperties": true,
	"CreateInstance":                       true,
}

// Table is the name-keyed entry point registry the runtime hands to the
// dispatch layer once negotiation succeeds.
type Table struct {
	entries map[string]Entrypoint
}

// NewTable returns an empty registry.
func NewTable() *Table {
	return &Table{entries: make(map[string]Entrypoint)}
}

// Register installs fn under name, replacing any earlier registration.
func (t *Table) Register(name string, fn Entrypoint) {
	t.entries[name] = fn
}

// Lookup resolves name to its registered entry point. Without an
// instance only the pre-instance set resolves; a known name still
// fails with a distinct error so the caller can tell a missing
// instance from a function the runtime never had.
func (t *Table) Lookup(name string, haveInstance bool) (Entrypoint, error) {
	fn, ok := t.entries[name]
	if !ok {
		return nil, api.Resultf(api.ErrFunctionUnsupported, "no entry point %q", name)
	}
	if !haveInstance && !preInstance[name] {
		return nil, api.Resultf(api.ErrHandleInvalid, "%s requires an instance", name)
	}
	return fn, nil
}
