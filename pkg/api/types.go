package api

import "fmt"

// Path is an interned semantic path atom. The zero value NullPath never
// names anything.
type Path uint64

// NullPath is the invalid path atom.
const NullPath Path = 0

// Maximum byte length of a path string, including the terminating limit
// check but not any NUL terminator.
const PathMaxLength = 256

// Time is a runtime timestamp in nanoseconds. Zero and negative times are
// never valid display or sample times.
type Time int64

// Valid reports whether t can be used as a sample or display time.
func (t Time) Valid() bool {
	return t > 0
}

// Duration is a span between two Times, in nanoseconds.
type Duration int64

// SessionState is one rung of the session lifecycle ladder.
type SessionState int

const (
	SessionStateUnknown SessionState = iota
	SessionStateIdle
	SessionStateReady
	SessionStateSynchronized
	SessionStateVisible
	SessionStateFocused
	SessionStateStopping
	SessionStateLossPending
	SessionStateExiting
)

var sessionStateNames = map[SessionState]string{
	SessionStateUnknown:      "UNKNOWN",
	SessionStateIdle:         "IDLE",
	SessionStateReady:        "READY",
	SessionStateSynchronized: "SYNCHRONIZED",
	SessionStateVisible:      "VISIBLE",
	SessionStateFocused:      "FOCUSED",
	SessionStateStopping:     "STOPPING",
	SessionStateLossPending:  "LOSS_PENDING",
	SessionStateExiting:      "EXITING",
}

func (s SessionState) String() string {
	if name, ok := sessionStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SESSION_STATE_%d", int(s))
}

// ActionType is the value kind an action produces or consumes.
type ActionType int

const (
	ActionTypeBoolean ActionType = iota + 1
	ActionTypeFloat
	ActionTypeVector2
	ActionTypePose
	ActionTypeHapticOutput
)

var actionTypeNames = map[ActionType]string{
	ActionTypeBoolean:      "BOOLEAN",
	ActionTypeFloat:        "FLOAT",
	ActionTypeVector2:      "VECTOR2",
	ActionTypePose:         "POSE",
	ActionTypeHapticOutput: "HAPTIC_OUTPUT",
}

func (t ActionType) String() string {
	if name, ok := actionTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ACTION_TYPE_%d", int(t))
}

// ReferenceSpaceType selects one of the well known base spaces.
type ReferenceSpaceType int

const (
	ReferenceSpaceView ReferenceSpaceType = iota + 1
	ReferenceSpaceLocal
	ReferenceSpaceStage
	ReferenceSpaceLocalFloor
)

var referenceSpaceNames = map[ReferenceSpaceType]string{
	ReferenceSpaceView:       "VIEW",
	ReferenceSpaceLocal:      "LOCAL",
	ReferenceSpaceStage:      "STAGE",
	ReferenceSpaceLocalFloor: "LOCAL_FLOOR",
}

func (t ReferenceSpaceType) String() string {
	if name, ok := referenceSpaceNames[t]; ok {
		return name
	}
	return fmt.Sprintf("REFERENCE_SPACE_%d", int(t))
}

// FormFactor is the physical device class a system is resolved for.
type FormFactor int

const (
	FormFactorHeadMounted FormFactor = iota + 1
	FormFactorHandheld
)

func (f FormFactor) String() string {
	switch f {
	case FormFactorHeadMounted:
		return "HEAD_MOUNTED_DISPLAY"
	case FormFactorHandheld:
		return "HANDHELD_DISPLAY"
	}
	return fmt.Sprintf("FORM_FACTOR_%d", int(f))
}

// ViewConfigurationType selects the render view arrangement.
type ViewConfigurationType int

const (
	ViewConfigurationMono ViewConfigurationType = iota + 1
	ViewConfigurationStereo
)

func (v ViewConfigurationType) String() string {
	switch v {
	case ViewConfigurationMono:
		return "MONO"
	case ViewConfigurationStereo:
		return "STEREO"
	}
	return fmt.Sprintf("VIEW_CONFIGURATION_%d", int(v))
}

// EnvironmentBlendMode describes how rendered layers combine with the
// user's surroundings.
type EnvironmentBlendMode int

const (
	BlendModeOpaque EnvironmentBlendMode = iota + 1
	BlendModeAdditive
	BlendModeAlphaBlend
)

func (m EnvironmentBlendMode) String() string {
	switch m {
	case BlendModeOpaque:
		return "OPAQUE"
	case BlendModeAdditive:
		return "ADDITIVE"
	case BlendModeAlphaBlend:
		return "ALPHA_BLEND"
	}
	return fmt.Sprintf("BLEND_MODE_%d", int(m))
}

// Offset2D, Extent2D and Rect2D describe integer sub rectangles of
// swapchain images.
type Offset2D struct {
	X, Y int32
}

type Extent2D struct {
	Width, Height int32
}

type Rect2D struct {
	Offset Offset2D
	Extent Extent2D
}

// FoV holds half angles in radians. Left and Down are typically negative.
type FoV struct {
	AngleLeft  float32
	AngleRight float32
	AngleUp    float32
	AngleDown  float32
}

// Version packs major.minor.patch the way the negotiation handshake
// carries it.
type Version uint64

// MakeVersion packs the three components into a Version.
func MakeVersion(major, minor uint16, patch uint32) Version {
	return Version(uint64(major)<<48 | uint64(minor)<<32 | uint64(patch))
}

func (v Version) Major() uint16 { return uint16(v >> 48) }
func (v Version) Minor() uint16 { return uint16(v >> 32) }
func (v Version) Patch() uint32 { return uint32(v) }

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())
}
