// Package driver defines the contract between the state tracker and the
// device layer below it. Devices expose inputs, poses and haptics;
// compositors expose frame timing and layer submission; a system bundles
// both plus the role assignment of devices to head, hands and controllers.
package driver

import (
	"github.com/strata-xr/strata-go/pkg/api"
	"github.com/strata-xr/strata-go/pkg/relation"
)

// InputKind is the wire shape of one device input.
type InputKind int

const (
	InputBoolean InputKind = iota + 1
	InputFloat
	InputVector2
	InputPose
)

// Input is one sample read from a device. Value layout depends on Kind:
// booleans use Bool, scalars use X, vectors use X and Y, poses are read
// through Device.Relation instead.
type Input struct {
	Kind      InputKind
	Active    bool
	Timestamp api.Time
	Bool      bool
	X, Y      float32
}

// Haptic describes one vibration request.
type Haptic struct {
	DurationNs int64
	Frequency  float32
	Amplitude  float32
}

// Device is one tracked input device. Implementations must be safe for
// concurrent use; the state tracker samples from application threads and
// the frame loop at once.
type Device interface {
	// Name is a stable human readable identifier.
	Name() string

	// Profile returns the interaction profile path string this device
	// answers to, empty when it has none.
	Profile() string

	// Input samples the input behind a component path string. The second
	// return is false when the device has no such input.
	Input(path string) (Input, bool)

	// Relation locates the device pose identified by path at time t,
	// expressed in the device's tracking origin.
	Relation(path string, t api.Time) relation.Relation

	// Haptic triggers or stops vibration on the output behind path.
	Haptic(path string, h Haptic) error
}

// Roles is a snapshot of which device fills each semantic slot. Nil slots
// are currently unfilled.
type Roles struct {
	Head       Device
	Left       Device
	Right      Device
	Gamepad    Device
	Eyes       Device
	Generation uint64
}

// System aggregates the devices and compositor backing one form factor.
type System interface {
	// Roles returns the current role assignment without blocking. When a
	// reassignment is in flight implementations may return the previous
	// snapshot.
	Roles() Roles

	// LockRoles returns the role assignment, waiting out any in flight
	// reassignment so the snapshot is current.
	LockRoles() Roles

	// TrackingOriginOffset is the pose of the tracking origin in the
	// runtime's global space.
	TrackingOriginOffset() relation.Pose

	// Compositor returns the frame sink, nil for headless systems.
	Compositor() Compositor

	// Events returns the source of device level events, never nil.
	Events() EventSource
}

// FrameTiming is what a compositor predicts for the next frame.
type FrameTiming struct {
	FrameID          int64
	PredictedDisplay api.Time
	PredictedPeriod  api.Duration
	ShouldRender     bool
}

// Compositor receives completed frames. The call sequence per frame is
// WaitFrame, BeginFrame, then either DiscardFrame or BeginLayers followed
// by one Submit per layer and a CommitLayers.
type Compositor interface {
	// BeginSession and EndSession bracket the frame loop for one view
	// configuration.
	BeginSession(viewConfig api.ViewConfigurationType) error
	EndSession() error

	WaitFrame() (FrameTiming, error)
	BeginFrame(frameID int64) error
	DiscardFrame(frameID int64) error

	BeginLayers(frameID int64, display api.Time, blend api.EnvironmentBlendMode) error
	SubmitLayer(frameID int64, layer SubmittedLayer) error
	CommitLayers(frameID int64) error

	// Visibility reports whether the session's content is shown and
	// whether input focus is granted.
	Visibility() (visible, focused bool)

	// CreateSwapchain allocates image backing for the given shape.
	CreateSwapchain(info SwapchainCreateInfo) (SwapchainImages, error)
}

// SubmittedLayer is one verified layer handed down per frame.
type SubmittedLayer struct {
	Kind       LayerKind
	Relation   relation.Relation
	Rect       api.Rect2D
	ImageIndex uint32
	Extent     api.Extent2D
}

// LayerKind discriminates SubmittedLayer payloads.
type LayerKind int

const (
	LayerProjection LayerKind = iota + 1
	LayerQuad
	LayerCube
)

// SwapchainCreateInfo is the shape of a requested swapchain.
type SwapchainCreateInfo struct {
	Format      int64
	Width       uint32
	Height      uint32
	FaceCount   uint32
	ArraySize   uint32
	MipCount    uint32
	SampleCount uint32
}

// SwapchainImages is the allocated backing, opaque image handles included.
type SwapchainImages struct {
	Count  uint32
	Images []uintptr
}

// EventKind discriminates device layer events.
type EventKind int

const (
	EventNone EventKind = iota
	EventSessionLoss
	EventRolesChanged
	EventVisibilityChanged
)

// Event is one device layer occurrence.
type Event struct {
	Kind    EventKind
	Time    api.Time
	Visible bool
	Focused bool
}

// EventSource drains device layer events. Poll returns EventNone when
// nothing is pending.
type EventSource interface {
	Poll() Event
}
