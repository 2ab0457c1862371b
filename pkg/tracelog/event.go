package tracelog

import "time"

// Event represents a runtime trace event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// RunID uniquely identifies the instance run (UUID).
	RunID string `cbor:"2,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// SessionName identifies the session, empty for instance scoped events.
	SessionName string `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	StateChange *StateChangeEvent `cbor:"6,keyasint,omitempty"`  // Session lifecycle
	Frame       *FrameEvent       `cbor:"7,keyasint,omitempty"`  // Frame loop
	Input       *InputEvent       `cbor:"8,keyasint,omitempty"`  // Action edges
	Binding     *BindingEvent     `cbor:"9,keyasint,omitempty"`  // Profile changes
	Error       *ErrorEventData   `cbor:"10,keyasint,omitempty"` // Errors at any layer
}

// Layer indicates which runtime layer captured the event.
type Layer uint8

const (
	// LayerLifecycle is the instance and session lifecycle layer.
	LayerLifecycle Layer = 0
	// LayerFrame is the frame pacing layer.
	LayerFrame Layer = 1
	// LayerInput is the action and binding layer.
	LayerInput Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerLifecycle:
		return "LIFECYCLE"
	case LayerFrame:
		return "FRAME"
	case LayerInput:
		return "INPUT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryState indicates a state change.
	CategoryState Category = 0
	// CategoryFrame indicates a frame loop event.
	CategoryFrame Category = 1
	// CategoryInput indicates an action value edge.
	CategoryInput Category = 2
	// CategoryBinding indicates a binding or profile event.
	CategoryBinding Category = 3
	// CategoryError indicates an error event.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryState:
		return "STATE"
	case CategoryFrame:
		return "FRAME"
	case CategoryInput:
		return "INPUT"
	case CategoryBinding:
		return "BINDING"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures session lifecycle transitions.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// FramePhase indicates which frame loop call produced the event.
type FramePhase uint8

const (
	// FramePhaseWait indicates a completed frame wait.
	FramePhaseWait FramePhase = 0
	// FramePhaseBegin indicates a begun frame.
	FramePhaseBegin FramePhase = 1
	// FramePhaseEnd indicates a submitted frame.
	FramePhaseEnd FramePhase = 2
	// FramePhaseDiscard indicates a discarded frame.
	FramePhaseDiscard FramePhase = 3
)

// String returns the frame phase name.
func (p FramePhase) String() string {
	switch p {
	case FramePhaseWait:
		return "WAIT"
	case FramePhaseBegin:
		return "BEGIN"
	case FramePhaseEnd:
		return "END"
	case FramePhaseDiscard:
		return "DISCARD"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures one frame loop call.
type FrameEvent struct {
	// Phase of the frame loop.
	Phase FramePhase `cbor:"1,keyasint"`

	// FrameID correlates wait/begin/end of the same frame.
	FrameID int64 `cbor:"2,keyasint"`

	// DisplayTime is the predicted or submitted display time (ns).
	DisplayTime int64 `cbor:"3,keyasint,omitempty"`

	// LayerCount is the number of layers submitted (end only).
	LayerCount *int `cbor:"4,keyasint,omitempty"`
}

// InputEvent captures one action value edge observed during sync.
type InputEvent struct {
	// Action is the action name.
	Action string `cbor:"1,keyasint"`

	// SubactionPath is the resolved subaction, empty for the combined slot.
	SubactionPath string `cbor:"2,keyasint,omitempty"`

	// Active indicates whether any bound source was live.
	Active bool `cbor:"3,keyasint"`

	// Value is the new value, flattened to floats (booleans become 0/1).
	Value []float32 `cbor:"4,keyasint,omitempty"`
}

// BindingEvent captures interaction profile activity.
type BindingEvent struct {
	// Profile is the interaction profile path string.
	Profile string `cbor:"1,keyasint"`

	// BindingCount is the number of bindings involved.
	BindingCount int `cbor:"2,keyasint,omitempty"`

	// Attached indicates this event is an action set attachment.
	Attached bool `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the result code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
