package runtime

import (
	"fmt"
	"sync"
	"time"

	"github.com/strata-xr/strata-go/pkg/api"
	"github.com/strata-xr/strata-go/pkg/driver"
	"github.com/strata-xr/strata-go/pkg/handle"
	"github.com/strata-xr/strata-go/pkg/relation"
	"github.com/strata-xr/strata-go/pkg/tracelog"
)

// Session is one application's run against a system. Its lifecycle walks
// the state ladder one rung per polled event, driven by compositor
// visibility and the application's begin/exit/end calls.
type Session struct {
	handle.Base
	inst *Instance
	sys  *System
	comp driver.Compositor // nil when headless
	name string

	mu    sync.Mutex
	state api.SessionState

	running bool
	exiting bool

	// hasLost is sticky: once the session is lost every entry point
	// fails with ErrSessionLost until the handle is destroyed.
	hasLost     bool
	lossPending bool

	// cached compositor bits, folded in during event pumping
	compositorVisible bool
	compositorFocused bool

	viewConfig api.ViewConfigurationType
	blendMode  api.EnvironmentBlendMode

	frame frameState

	attachment *attachment

	// profileChangedQueued coalesces repeated role changes between polls
	profileChangedQueued bool

	// lastOrigin detects tracking origin moves so reference space change
	// events can be announced.
	lastOrigin relation.Pose
	originSeen bool
}

// NewSession creates a session against the resolved system.
func (inst *Instance) NewSession(sys *System) (*Session, error) {
	if err := handle.Validate(&inst.Base, handle.TypeInstance); err != nil {
		return nil, err
	}
	if sys == nil || sys.inst != inst {
		return nil, api.Resultf(api.ErrSystemInvalid, "system does not belong to this instance")
	}

	inst.sessionsMu.Lock()
	inst.sessionCounter++
	name := fmt.Sprintf("session-%d", inst.sessionCounter)
	inst.sessionsMu.Unlock()

	sess := &Session{
		inst:  inst,
		sys:   sys,
		comp:  sys.dev.Compositor(),
		name:  name,
		state: api.SessionStateIdle,
	}
	sess.frame.init()

	if err := handle.Init(&sess.Base, handle.TypeSession, &inst.Base, sess.onDestroy); err != nil {
		return nil, err
	}
	inst.registerSession(sess)

	// the application learns about IDLE and READY through the queue
	sess.mu.Lock()
	sess.queueStateLocked(api.SessionStateIdle)
	sess.queueStateLocked(api.SessionStateReady)
	sess.mu.Unlock()

	inst.log.Info("session created", "session", name, "headless", sess.comp == nil)
	return sess, nil
}

func (sess *Session) onDestroy(*handle.Base) error {
	sess.inst.unregisterSession(sess)
	if sess.attachment != nil {
		sess.attachment.release()
	}
	sess.inst.log.Info("session destroyed", "session", sess.name)
	return nil
}

// Destroy tears down the session and everything hanging off it.
func (sess *Session) Destroy() error {
	return handle.Destroy(&sess.Base)
}

// Name returns the session's diagnostic name.
func (sess *Session) Name() string {
	return sess.name
}

// State returns the current lifecycle state.
func (sess *Session) State() api.SessionState {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state
}

// Running reports whether the session is between Begin and End.
func (sess *Session) Running() bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.running
}

// checkValid gates an entry point on handle liveness and loss.
func (sess *Session) checkValid() error {
	if err := handle.Validate(&sess.Base, handle.TypeSession); err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.hasLost {
		return api.Resultf(api.ErrSessionLost, "session %s", sess.name)
	}
	return nil
}

// successResult is the qualified success for an otherwise clean call.
func (sess *Session) successResult() api.Result {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.lossPending {
		return api.SessionLossPending
	}
	return api.Success
}

// Begin starts the frame loop for a view configuration.
func (sess *Session) Begin(viewConfig api.ViewConfigurationType) (api.Result, error) {
	if err := sess.checkValid(); err != nil {
		return 0, err
	}
	if sess.comp != nil {
		ok := false
		for _, v := range sess.sys.ViewConfigurations() {
			if v == viewConfig {
				ok = true
			}
		}
		if !ok {
			return 0, api.Resultf(api.ErrViewConfigurationUnsupported,
				"view configuration %s", viewConfig)
		}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.running {
		return 0, api.Resultf(api.ErrSessionRunning, "session %s already begun", sess.name)
	}
	if sess.state != api.SessionStateReady {
		return 0, api.Resultf(api.ErrSessionNotReady, "session %s is %s", sess.name, sess.state)
	}
	if sess.comp != nil {
		if err := sess.comp.BeginSession(viewConfig); err != nil {
			return 0, api.Resultf(api.ErrRuntimeFailure, "compositor begin: %v", err)
		}
	}

	sess.running = true
	sess.exiting = false
	sess.viewConfig = viewConfig
	sess.blendMode = api.BlendModeOpaque
	if sess.comp == nil {
		// no compositor negotiates rendered states for a headless
		// session, so the full ladder is announced right away
		sess.queueStateLocked(api.SessionStateSynchronized)
		sess.queueStateLocked(api.SessionStateVisible)
		sess.queueStateLocked(api.SessionStateFocused)
	}
	if sess.lossPending {
		return api.SessionLossPending, nil
	}
	return api.Success, nil
}

// RequestExit begins the graceful walk down the ladder. Each subsequent
// poll emits one downward state until STOPPING is reached.
func (sess *Session) RequestExit() error {
	if err := sess.checkValid(); err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.running {
		return api.Resultf(api.ErrSessionNotRunning, "session %s", sess.name)
	}
	sess.exiting = true
	return nil
}

// End finishes a stopped session. Only legal once the application has
// observed STOPPING.
func (sess *Session) End() error {
	if err := sess.checkValid(); err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.running {
		return api.Resultf(api.ErrSessionNotRunning, "session %s", sess.name)
	}
	if sess.state != api.SessionStateStopping {
		return api.Resultf(api.ErrSessionNotStopping, "session %s is %s", sess.name, sess.state)
	}
	if sess.comp != nil {
		if err := sess.comp.EndSession(); err != nil {
			sess.inst.log.Warn("compositor end failed", "session", sess.name, "error", err)
		}
	}
	sess.running = false
	wasExiting := sess.exiting
	sess.exiting = false
	sess.queueStateLocked(api.SessionStateIdle)
	if wasExiting {
		sess.queueStateLocked(api.SessionStateExiting)
	} else {
		sess.queueStateLocked(api.SessionStateReady)
	}
	sess.frame.reset()
	return nil
}

// Lose marks the session lost at a deadline. All further calls fail with
// ErrSessionLost once the application has seen LOSS_PENDING.
func (sess *Session) Lose(at api.Time) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.lossPending {
		return
	}
	sess.lossPending = true
	sess.queueStateLocked(api.SessionStateLossPending)
	sess.inst.log.Warn("session loss pending", "session", sess.name, "deadline", int64(at))
}

// queueStateLocked emits one lifecycle event. Callers hold sess.mu.
func (sess *Session) queueStateLocked(next api.SessionState) {
	old := sess.state
	sess.state = next
	sess.inst.events.Push(InstanceEvent{
		SessionStateChanged: &SessionStateChangedEvent{
			Session: sess,
			State:   next,
			Time:    sess.inst.Now(),
		},
	})
	sess.inst.trace.Log(tracelog.Event{
		Timestamp:   time.Now(),
		RunID:       sess.inst.runID,
		Layer:       tracelog.LayerLifecycle,
		Category:    tracelog.CategoryState,
		SessionName: sess.name,
		StateChange: &tracelog.StateChangeEvent{
			OldState: old.String(),
			NewState: next.String(),
		},
	})
	sess.inst.log.Debug("session state",
		"session", sess.name, "old", old.String(), "new", next.String())
}

// pump folds device events in and advances the visibility ladder at most
// one rung. Called before each event poll.
func (sess *Session) pump() {
	if sess.Base.State() != handle.Live {
		return
	}

	sess.mu.Lock()
	sess.profileChangedQueued = false
	sess.mu.Unlock()

	// drain device layer events first
	for {
		ev := sess.sys.dev.Events().Poll()
		if ev.Kind == driver.EventNone {
			break
		}
		switch ev.Kind {
		case driver.EventSessionLoss:
			sess.Lose(ev.Time)
		case driver.EventRolesChanged:
			if sess.sys.refreshRoles() {
				sess.queueProfileChanged()
			}
		case driver.EventVisibilityChanged:
			sess.mu.Lock()
			sess.compositorVisible = ev.Visible
			sess.compositorFocused = ev.Focused
			sess.mu.Unlock()
		}
	}

	if sess.comp != nil {
		visible, focused := sess.comp.Visibility()
		sess.mu.Lock()
		sess.compositorVisible = visible
		sess.compositorFocused = focused
		sess.mu.Unlock()
	}

	sess.checkOriginMoved()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.lossPending {
		// once LOSS_PENDING has been announced the loss becomes final
		if sess.state == api.SessionStateLossPending {
			sess.hasLost = true
		}
		return
	}
	if !sess.running {
		return
	}

	target := sess.targetStateLocked()
	sess.stepTowardsLocked(target)
}

// targetStateLocked derives where the ladder should settle given the
// compositor bits and a pending exit.
func (sess *Session) targetStateLocked() api.SessionState {
	if sess.exiting {
		return api.SessionStateStopping
	}
	visible, focused := sess.compositorVisible, sess.compositorFocused
	if sess.comp == nil {
		// headless sessions are always shown and focused
		visible, focused = true, true
	}
	switch {
	case visible && focused:
		return api.SessionStateFocused
	case visible:
		return api.SessionStateVisible
	default:
		return api.SessionStateSynchronized
	}
}

// stepTowardsLocked moves exactly one rung toward target, emitting the
// step's event. The application sees every intermediate state.
func (sess *Session) stepTowardsLocked(target api.SessionState) {
	cur := sess.state
	if cur == target {
		return
	}

	switch cur {
	case api.SessionStateIdle, api.SessionStateReady:
		sess.queueStateLocked(api.SessionStateSynchronized)
	case api.SessionStateSynchronized:
		if target == api.SessionStateStopping {
			sess.queueStateLocked(api.SessionStateStopping)
		} else if target == api.SessionStateVisible || target == api.SessionStateFocused {
			sess.queueStateLocked(api.SessionStateVisible)
		}
	case api.SessionStateVisible:
		if target == api.SessionStateFocused {
			sess.queueStateLocked(api.SessionStateFocused)
		} else {
			sess.queueStateLocked(api.SessionStateSynchronized)
		}
	case api.SessionStateFocused:
		sess.queueStateLocked(api.SessionStateVisible)
	}
}

// checkOriginMoved announces a reference space change when the device
// layer moved the tracking origin since the last poll. Origin relative
// reference spaces jump together, so one event per type is queued.
func (sess *Session) checkOriginMoved() {
	origin := sess.sys.dev.TrackingOriginOffset()
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.originSeen {
		sess.originSeen = true
		sess.lastOrigin = origin
		return
	}
	if origin == sess.lastOrigin {
		return
	}
	sess.lastOrigin = origin
	now := sess.inst.Now()
	for _, refType := range []api.ReferenceSpaceType{
		api.ReferenceSpaceLocal, api.ReferenceSpaceLocalFloor, api.ReferenceSpaceStage,
	} {
		sess.inst.events.Push(InstanceEvent{
			ReferenceSpaceChanged: &ReferenceSpaceChangedEvent{
				Session:    sess,
				Type:       refType,
				ChangeTime: now,
				PoseValid:  true,
			},
		})
	}
}

// queueProfileChanged coalesces interaction profile change announcements
// so one poll sees at most one.
func (sess *Session) queueProfileChanged() {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.profileChangedQueued {
		return
	}
	sess.profileChangedQueued = true
	sess.inst.events.Push(InstanceEvent{
		InteractionProfileChanged: &InteractionProfileChangedEvent{Session: sess},
	})
}
