package runtime

import (
	"strings"

	"github.com/strata-xr/strata-go/pkg/api"
)

// dpadDirections are the recognized suffixes a dpad emulated binding
// path can end in.
var dpadDirections = []string{"dpad_up", "dpad_down", "dpad_left", "dpad_right", "dpad_center"}

// splitDpadPath splits a path like .../input/thumbstick/dpad_up into the
// parent component and the direction. ok is false for non dpad paths.
func splitDpadPath(s string) (parent, direction string, ok bool) {
	i := strings.LastIndexByte(s, '/')
	if i < 0 {
		return "", "", false
	}
	suffix := s[i+1:]
	for _, d := range dpadDirections {
		if suffix == d {
			return s[:i], suffix, true
		}
	}
	return "", "", false
}

// DpadSettings tunes how a vector input folds into dpad booleans.
type DpadSettings struct {
	// ForceThreshold is the deflection that presses a direction.
	ForceThreshold float32

	// ForceThresholdReleased is the deflection below which it releases.
	ForceThresholdReleased float32

	// CenterRegion is the radius of the center zone.
	CenterRegion float32

	// WedgeAngle is the angular width of each direction wedge in
	// radians.
	WedgeAngle float32

	// IsSticky keeps a direction pressed until the stick returns to
	// center.
	IsSticky bool
}

func defaultDpadSettings() DpadSettings {
	return DpadSettings{
		ForceThreshold:         0.5,
		ForceThresholdReleased: 0.4,
		CenterRegion:           0.5,
		WedgeAngle:             2.0943951, // 120 degrees
	}
}

// DpadModification customizes dpad folding for one parent component on
// behalf of one action set.
type DpadModification struct {
	ActionSet *ActionSet
	// Binding is the parent component path, e.g.
	// /user/hand/left/input/thumbstick.
	Binding  string
	Settings DpadSettings
}

// dpadKey identifies one customization slot: parent component per set.
type dpadKey struct {
	set     *actionSetData
	binding string
}

// dpadState is the folded per-profile customization table.
type dpadState struct {
	entries map[dpadKey]DpadSettings
}

func newDpadState() dpadState {
	return dpadState{entries: make(map[dpadKey]DpadSettings)}
}

func (s dpadState) clone() dpadState {
	out := newDpadState()
	for k, v := range s.entries {
		out.entries[k] = v
	}
	return out
}

// add records one modification. A second modification for the same
// parent and set within one suggestion is rejected.
func (s dpadState) add(set *actionSetData, binding string, settings DpadSettings) error {
	k := dpadKey{set: set, binding: binding}
	if _, dup := s.entries[k]; dup {
		return api.Resultf(api.ErrValidationFailure,
			"duplicate dpad modification for %q in set %q", binding, set.name)
	}
	if settings.ForceThreshold <= 0 || settings.ForceThresholdReleased <= 0 ||
		settings.ForceThreshold < settings.ForceThresholdReleased {
		return api.Resultf(api.ErrValidationFailure,
			"dpad thresholds for %q out of order", binding)
	}
	s.entries[k] = settings
	return nil
}

// settingsFor returns the customization for a parent component and set,
// falling back to defaults.
func (s dpadState) settingsFor(set *actionSetData, binding string) DpadSettings {
	if v, ok := s.entries[dpadKey{set: set, binding: binding}]; ok {
		return v
	}
	return defaultDpadSettings()
}

// dpadPressed folds a 2D deflection into one direction's boolean.
// Pressed state from the previous sync feeds the release hysteresis.
func dpadPressed(direction string, x, y float32, cfg DpadSettings, wasPressed bool) bool {
	threshold := cfg.ForceThreshold
	if wasPressed {
		threshold = cfg.ForceThresholdReleased
	}

	if direction == "dpad_center" {
		return x*x+y*y < cfg.CenterRegion*cfg.CenterRegion
	}

	var deflection float32
	switch direction {
	case "dpad_up":
		deflection = y
	case "dpad_down":
		deflection = -y
	case "dpad_left":
		deflection = -x
	case "dpad_right":
		deflection = x
	}
	if deflection < threshold {
		return false
	}
	// dominant axis wins so opposite wedges never press together
	switch direction {
	case "dpad_up", "dpad_down":
		return deflection >= abs32(x)
	default:
		return deflection >= abs32(y)
	}
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
