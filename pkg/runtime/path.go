package runtime

import (
	"strings"
	"sync"

	"github.com/strata-xr/strata-go/pkg/api"
)

// pathTree interns path strings into dense Path atoms. Atoms are valid
// for the life of the owning instance and never reused.
type pathTree struct {
	mu     sync.RWMutex
	byName map[string]api.Path
	byAtom []string // index 0 unused, NullPath
}

func newPathTree() *pathTree {
	return &pathTree{
		byName: make(map[string]api.Path),
		byAtom: make([]string, 1),
	}
}

// GetOrCreate interns a path string, validating syntax on first sight.
func (t *pathTree) GetOrCreate(s string) (api.Path, error) {
	t.mu.RLock()
	p, ok := t.byName[s]
	t.mu.RUnlock()
	if ok {
		return p, nil
	}

	if err := validatePathString(s); err != nil {
		return api.NullPath, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.byName[s]; ok {
		return p, nil
	}
	p = api.Path(len(t.byAtom))
	t.byAtom = append(t.byAtom, s)
	t.byName[s] = p
	return p, nil
}

// Get returns the atom for an already interned string, NullPath if unseen.
func (t *pathTree) Get(s string) api.Path {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.byName[s]
}

// String resolves an atom back to its string. Unknown atoms resolve to
// the empty string.
func (t *pathTree) String(p api.Path) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if p == api.NullPath || int(p) >= len(t.byAtom) {
		return ""
	}
	return t.byAtom[p]
}

// Valid reports whether p names an interned path.
func (t *pathTree) Valid(p api.Path) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return p != api.NullPath && int(p) < len(t.byAtom)
}

// validatePathString enforces path syntax: a leading slash, non-empty
// segments of lowercase letters, digits, dash, underscore and dot, no
// trailing slash, and a bounded total length.
func validatePathString(s string) error {
	if len(s) >= api.PathMaxLength {
		return api.Resultf(api.ErrPathFormatInvalid, "path longer than %d bytes", api.PathMaxLength)
	}
	if len(s) < 2 || s[0] != '/' {
		return api.Resultf(api.ErrPathFormatInvalid, "path %q must start with / and name a segment", s)
	}
	if s[len(s)-1] == '/' {
		return api.Resultf(api.ErrPathFormatInvalid, "path %q has a trailing slash", s)
	}
	prev := byte('/')
	for i := 1; i < len(s); i++ {
		c := s[i]
		if c == '/' {
			if prev == '/' {
				return api.Resultf(api.ErrPathFormatInvalid, "path %q has an empty segment", s)
			}
		} else if !pathChar(c) {
			return api.Resultf(api.ErrPathFormatInvalid, "path %q has invalid character %q", s, c)
		}
		prev = c
	}
	return nil
}

func pathChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.':
		return true
	}
	return false
}

// subactionIndex identifies one top level user slot an action can track
// separately.
type subactionIndex int

const (
	subactionHead subactionIndex = iota
	subactionLeft
	subactionRight
	subactionGamepad
	subactionEyes
	subactionCount

	// subactionAny is the combined slot used when the caller does not
	// narrow the query.
	subactionAny subactionIndex = -1
)

const (
	pathUserHead      = "/user/head"
	pathUserHandLeft  = "/user/hand/left"
	pathUserHandRight = "/user/hand/right"
	pathUserGamepad   = "/user/gamepad"
	pathUserEyes      = "/user/eyes_ext"
)

var subactionPrefixes = [subactionCount]string{
	subactionHead:    pathUserHead,
	subactionLeft:    pathUserHandLeft,
	subactionRight:   pathUserHandRight,
	subactionGamepad: pathUserGamepad,
	subactionEyes:    pathUserEyes,
}

func (i subactionIndex) String() string {
	if i == subactionAny {
		return "any"
	}
	if i >= 0 && i < subactionCount {
		return subactionPrefixes[i]
	}
	return "invalid"
}

// classifySubaction maps a full binding or subaction path string to its
// user slot. Prefixes are checked in fixed priority order; a prefix only
// matches on a segment boundary.
func classifySubaction(s string) (subactionIndex, bool) {
	for i, prefix := range subactionPrefixes {
		if s == prefix {
			return subactionIndex(i), true
		}
		if strings.HasPrefix(s, prefix) && len(s) > len(prefix) && s[len(prefix)] == '/' {
			return subactionIndex(i), true
		}
	}
	return subactionAny, false
}
