// Package simulated provides an in-memory device layer. It backs the test
// suites and the headless tool with devices whose inputs and poses can be
// scripted from the outside.
package simulated

import (
	"errors"
	"sync"

	"github.com/strata-xr/strata-go/pkg/api"
	"github.com/strata-xr/strata-go/pkg/driver"
	"github.com/strata-xr/strata-go/pkg/relation"
)

// Device is a scriptable input device.
type Device struct {
	mu      sync.Mutex
	name    string
	profile string
	inputs  map[string]driver.Input
	poses   map[string]relation.Relation
	haptics []HapticRecord
}

// HapticRecord remembers one haptic request for inspection.
type HapticRecord struct {
	Path  string
	Event driver.Haptic
}

// NewDevice creates a device answering to the given interaction profile.
func NewDevice(name, profile string) *Device {
	return &Device{
		name:    name,
		profile: profile,
		inputs:  make(map[string]driver.Input),
		poses:   make(map[string]relation.Relation),
	}
}

func (d *Device) Name() string    { return d.name }
func (d *Device) Profile() string { return d.profile }

// SetBool scripts a boolean input component.
func (d *Device) SetBool(path string, value bool, t api.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inputs[path] = driver.Input{
		Kind: driver.InputBoolean, Active: true, Timestamp: t, Bool: value,
	}
}

// SetFloat scripts a scalar input component.
func (d *Device) SetFloat(path string, value float32, t api.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inputs[path] = driver.Input{
		Kind: driver.InputFloat, Active: true, Timestamp: t, X: value,
	}
}

// SetVector2 scripts a 2D input component.
func (d *Device) SetVector2(path string, x, y float32, t api.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inputs[path] = driver.Input{
		Kind: driver.InputVector2, Active: true, Timestamp: t, X: x, Y: y,
	}
}

// SetInactive marks a component present but currently inactive.
func (d *Device) SetInactive(path string, kind driver.InputKind) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inputs[path] = driver.Input{Kind: kind}
}

// SetPose scripts the relation behind a pose identifier.
func (d *Device) SetPose(path string, r relation.Relation) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.poses[path] = r
}

func (d *Device) Input(path string) (driver.Input, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	in, ok := d.inputs[path]
	return in, ok
}

func (d *Device) Relation(path string, _ api.Time) relation.Relation {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r, ok := d.poses[path]; ok {
		return r
	}
	return relation.Relation{}
}

func (d *Device) Haptic(path string, h driver.Haptic) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.haptics = append(d.haptics, HapticRecord{Path: path, Event: h})
	return nil
}

// Haptics returns the haptic requests received so far.
func (d *Device) Haptics() []HapticRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]HapticRecord, len(d.haptics))
	copy(out, d.haptics)
	return out
}

// Compositor is a scriptable frame sink that records the call sequence.
type Compositor struct {
	mu        sync.Mutex
	frameID   int64
	frameMs   api.Duration
	now       api.Time
	visible   bool
	focused   bool
	Layers    []driver.SubmittedLayer
	Discarded int
	Committed int

	SessionsBegun int
	SessionsEnded int
	ViewConfig    api.ViewConfigurationType
}

// NewCompositor creates a compositor predicting frames on a fixed period.
func NewCompositor(framePeriod api.Duration) *Compositor {
	return &Compositor{frameMs: framePeriod, now: api.Time(framePeriod)}
}

// SetVisibility scripts the visible and focused bits.
func (c *Compositor) SetVisibility(visible, focused bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visible = visible
	c.focused = focused
}

func (c *Compositor) Visibility() (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible, c.focused
}

func (c *Compositor) BeginSession(viewConfig api.ViewConfigurationType) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SessionsBegun++
	c.ViewConfig = viewConfig
	return nil
}

func (c *Compositor) EndSession() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SessionsEnded++
	return nil
}

func (c *Compositor) WaitFrame() (driver.FrameTiming, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frameID++
	c.now += api.Time(c.frameMs)
	return driver.FrameTiming{
		FrameID:          c.frameID,
		PredictedDisplay: c.now,
		PredictedPeriod:  c.frameMs,
		ShouldRender:     c.visible,
	}, nil
}

func (c *Compositor) BeginFrame(int64) error { return nil }

func (c *Compositor) DiscardFrame(int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Discarded++
	return nil
}

func (c *Compositor) BeginLayers(int64, api.Time, api.EnvironmentBlendMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Layers = c.Layers[:0]
	return nil
}

func (c *Compositor) SubmitLayer(_ int64, layer driver.SubmittedLayer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Layers = append(c.Layers, layer)
	return nil
}

func (c *Compositor) CommitLayers(int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Committed++
	return nil
}

func (c *Compositor) CreateSwapchain(info driver.SwapchainCreateInfo) (driver.SwapchainImages, error) {
	if info.Width == 0 || info.Height == 0 {
		return driver.SwapchainImages{}, errors.New("zero extent swapchain")
	}
	const n = 3
	images := make([]uintptr, n)
	for i := range images {
		images[i] = uintptr(i + 1)
	}
	return driver.SwapchainImages{Count: n, Images: images}, nil
}

// EventQueue is a buffered device event source.
type EventQueue struct {
	mu     sync.Mutex
	events []driver.Event
}

// Push queues one event.
func (q *EventQueue) Push(ev driver.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, ev)
}

func (q *EventQueue) Poll() driver.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return driver.Event{Kind: driver.EventNone}
	}
	ev := q.events[0]
	q.events = q.events[1:]
	return ev
}

// System bundles scripted devices and a compositor.
type System struct {
	mu         sync.Mutex
	roles      driver.Roles
	offset     relation.Pose
	compositor *Compositor
	queue      *EventQueue
}

// Option configures NewSystem.
type Option func(*System)

// WithHeadless drops the compositor so the system reports no frame sink.
func WithHeadless() Option {
	return func(s *System) { s.compositor = nil }
}

// WithTrackingOriginOffset places the tracking origin in global space.
func WithTrackingOriginOffset(p relation.Pose) Option {
	return func(s *System) { s.offset = p }
}

// NewSystem creates a system with a head device and empty hands.
func NewSystem(opts ...Option) *System {
	s := &System{
		compositor: NewCompositor(api.Duration(16_666_667)),
		queue:      &EventQueue{},
		offset:     relation.Identity(),
	}
	s.roles.Head = NewDevice("simulated hmd", "/interaction_profiles/strata/hmd")
	s.roles.Generation = 1
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Head returns the head device for scripting.
func (s *System) Head() *Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roles.Head.(*Device)
}

// AssignLeft installs a left hand device and bumps the role generation.
func (s *System) AssignLeft(d *Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles.Left = d
	s.roles.Generation++
}

// AssignRight installs a right hand device and bumps the role generation.
func (s *System) AssignRight(d *Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles.Right = d
	s.roles.Generation++
}

// AssignGamepad installs a gamepad device and bumps the role generation.
func (s *System) AssignGamepad(d *Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles.Gamepad = d
	s.roles.Generation++
}

// AssignEyes installs an eye tracker device and bumps the role generation.
func (s *System) AssignEyes(d *Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles.Eyes = d
	s.roles.Generation++
}

func (s *System) Roles() driver.Roles {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roles
}

func (s *System) LockRoles() driver.Roles {
	return s.Roles()
}

func (s *System) TrackingOriginOffset() relation.Pose {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

func (s *System) Compositor() driver.Compositor {
	if s.compositor == nil {
		return nil
	}
	return s.compositor
}

// Sink returns the concrete compositor for inspection, nil when headless.
func (s *System) Sink() *Compositor {
	return s.compositor
}

func (s *System) Events() driver.EventSource {
	return s.queue
}

// Queue returns the event queue for scripting.
func (s *System) Queue() *EventQueue {
	return s.queue
}

var _ driver.Device = (*Device)(nil)
var _ driver.System = (*System)(nil)
var _ driver.Compositor = (*Compositor)(nil)
var _ driver.EventSource = (*EventQueue)(nil)
