package runtime

import (
	"github.com/strata-xr/strata-go/pkg/api"
	"github.com/strata-xr/strata-go/pkg/driver"
	"github.com/strata-xr/strata-go/pkg/handle"
)

// BooleanState is the latched state of a boolean action.
type BooleanState struct {
	CurrentState         bool
	ChangedSinceLastSync bool
	LastChangeTime       api.Time
	IsActive             bool
}

// FloatState is the latched state of a float action.
type FloatState struct {
	CurrentState         float32
	ChangedSinceLastSync bool
	LastChangeTime       api.Time
	IsActive             bool
}

// Vector2State is the latched state of a 2D action.
type Vector2State struct {
	X, Y                 float32
	ChangedSinceLastSync bool
	LastChangeTime       api.Time
	IsActive             bool
}

// PoseState reports whether a pose action currently resolves to a
// tracked source.
type PoseState struct {
	IsActive bool
}

// lookupValue resolves the latched slot a query reads, enforcing the
// attachment, type and subaction filter rules.
func (sess *Session) lookupValue(act *Action, subaction api.Path, want api.ActionType) (*actionValue, *attachedAction, error) {
	if err := sess.checkValid(); err != nil {
		return nil, nil, err
	}
	if act == nil {
		return nil, nil, api.Resultf(api.ErrHandleInvalid, "nil action")
	}
	if err := handle.Validate(&act.Base, handle.TypeAction); err != nil {
		return nil, nil, err
	}
	if act.data.typ != want {
		return nil, nil, api.Resultf(api.ErrActionTypeMismatch,
			"action %q is %s, queried as %s", act.data.name, act.data.typ, want)
	}

	sess.mu.Lock()
	att := sess.attachment
	sess.mu.Unlock()
	if att == nil || !att.attachedSet(act.set.data) {
		return nil, nil, api.Resultf(api.ErrActionsetNotAttached,
			"action %q's set is not attached to session %s", act.data.name, sess.name)
	}
	a := att.actions[act.data.key]
	if a == nil {
		return nil, nil, api.Resultf(api.ErrActionsetNotAttached,
			"action %q was created after attach", act.data.name)
	}

	if subaction == api.NullPath {
		return &a.any, a, nil
	}
	s := sess.inst.paths.String(subaction)
	if s == "" {
		return nil, nil, api.Resultf(api.ErrPathInvalid, "atom %d", subaction)
	}
	idx, ok := classifySubaction(s)
	if !ok || s != subactionPrefixes[idx] {
		return nil, nil, api.Resultf(api.ErrPathUnsupported, "subaction path %q", s)
	}
	if !a.data.acceptsSubaction(idx) {
		return nil, nil, api.Resultf(api.ErrPathUnsupported,
			"action %q did not declare subaction %q", act.data.name, s)
	}
	return &a.slots[idx], a, nil
}

// GetBoolean reads a boolean action's latched state.
func (sess *Session) GetBoolean(act *Action, subaction api.Path) (BooleanState, error) {
	v, _, err := sess.lookupValue(act, subaction, api.ActionTypeBoolean)
	if err != nil {
		return BooleanState{}, err
	}
	return BooleanState{
		CurrentState:         v.boolean,
		ChangedSinceLastSync: v.changed,
		LastChangeTime:       v.lastChange,
		IsActive:             v.active,
	}, nil
}

// GetFloat reads a float action's latched state.
func (sess *Session) GetFloat(act *Action, subaction api.Path) (FloatState, error) {
	v, _, err := sess.lookupValue(act, subaction, api.ActionTypeFloat)
	if err != nil {
		return FloatState{}, err
	}
	return FloatState{
		CurrentState:         v.x,
		ChangedSinceLastSync: v.changed,
		LastChangeTime:       v.lastChange,
		IsActive:             v.active,
	}, nil
}

// GetVector2 reads a 2D action's latched state.
func (sess *Session) GetVector2(act *Action, subaction api.Path) (Vector2State, error) {
	v, _, err := sess.lookupValue(act, subaction, api.ActionTypeVector2)
	if err != nil {
		return Vector2State{}, err
	}
	return Vector2State{
		X:                    v.x,
		Y:                    v.y,
		ChangedSinceLastSync: v.changed,
		LastChangeTime:       v.lastChange,
		IsActive:             v.active,
	}, nil
}

// GetPose reports whether a pose action resolves to a live source.
func (sess *Session) GetPose(act *Action, subaction api.Path) (PoseState, error) {
	if err := sess.checkValid(); err != nil {
		return PoseState{}, err
	}
	if act == nil {
		return PoseState{}, api.Resultf(api.ErrHandleInvalid, "nil action")
	}
	if err := handle.Validate(&act.Base, handle.TypeAction); err != nil {
		return PoseState{}, err
	}
	if act.data.typ != api.ActionTypePose {
		return PoseState{}, api.Resultf(api.ErrActionTypeMismatch,
			"action %q is %s, queried as POSE", act.data.name, act.data.typ)
	}
	sess.mu.Lock()
	att := sess.attachment
	sess.mu.Unlock()
	if att == nil || !att.attachedSet(act.set.data) {
		return PoseState{}, api.Resultf(api.ErrActionsetNotAttached,
			"action %q's set is not attached to session %s", act.data.name, sess.name)
	}

	idx := subactionAny
	if subaction != api.NullPath {
		s := sess.inst.paths.String(subaction)
		if s == "" {
			return PoseState{}, api.Resultf(api.ErrPathInvalid, "atom %d", subaction)
		}
		i, ok := classifySubaction(s)
		if !ok || s != subactionPrefixes[i] {
			return PoseState{}, api.Resultf(api.ErrPathUnsupported, "subaction path %q", s)
		}
		if !act.data.acceptsSubaction(i) {
			return PoseState{}, api.Resultf(api.ErrPathUnsupported,
				"action %q did not declare subaction %q", act.data.name, s)
		}
		idx = i
	}

	a := att.actions[act.data.key]
	if a == nil {
		return PoseState{}, api.Resultf(api.ErrActionsetNotAttached,
			"action %q was created after attach", act.data.name)
	}
	_, _, ok := att.resolvePoseSource(a, idx)
	return PoseState{IsActive: ok}, nil
}

// resolvePoseSource finds the device and component path behind a pose
// action, pinning the slot the first time it resolves.
func (att *attachment) resolvePoseSource(a *attachedAction, idx subactionIndex) (driver.Device, string, bool) {
	try := func(slot subactionIndex) (driver.Device, string, bool) {
		dev := att.sess.sys.deviceFor(slot)
		if dev == nil {
			return nil, "", false
		}
		prof, ok := att.profiles[dev.Profile()]
		if !ok {
			return nil, "", false
		}
		for _, b := range prof.bindings {
			if b.subaction != slot || b.output || b.kind != driver.InputPose {
				continue
			}
			if hasKey(b.keys, a.data.key) {
				return dev, devicePath(b.aliases[0]), true
			}
		}
		return nil, "", false
	}

	if idx != subactionAny {
		return try(idx)
	}
	if a.pinned != subactionAny {
		return try(a.pinned)
	}
	for slot := subactionIndex(0); slot < subactionCount; slot++ {
		if !a.data.acceptsSubaction(slot) {
			continue
		}
		if dev, path, ok := try(slot); ok {
			// pose actions stay on the slot they first resolve to
			a.pinned = slot
			return dev, path, true
		}
	}
	return nil, "", false
}

// ApplyHaptic routes a vibration to every output bound to the action on
// the selected slots.
func (sess *Session) ApplyHaptic(act *Action, subaction api.Path, h driver.Haptic) error {
	return sess.routeHaptic(act, subaction, h)
}

// StopHaptic cancels vibration on the bound outputs.
func (sess *Session) StopHaptic(act *Action, subaction api.Path) error {
	return sess.routeHaptic(act, subaction, driver.Haptic{})
}

func (sess *Session) routeHaptic(act *Action, subaction api.Path, h driver.Haptic) error {
	if err := sess.checkValid(); err != nil {
		return err
	}
	if act == nil {
		return api.Resultf(api.ErrHandleInvalid, "nil action")
	}
	if err := handle.Validate(&act.Base, handle.TypeAction); err != nil {
		return err
	}
	if act.data.typ != api.ActionTypeHapticOutput {
		return api.Resultf(api.ErrActionTypeMismatch,
			"action %q is %s, not HAPTIC_OUTPUT", act.data.name, act.data.typ)
	}
	sess.mu.Lock()
	att := sess.attachment
	sess.mu.Unlock()
	if att == nil || !att.attachedSet(act.set.data) {
		return api.Resultf(api.ErrActionsetNotAttached,
			"action %q's set is not attached to session %s", act.data.name, sess.name)
	}

	narrow := subactionAny
	if subaction != api.NullPath {
		s := sess.inst.paths.String(subaction)
		if s == "" {
			return api.Resultf(api.ErrPathInvalid, "atom %d", subaction)
		}
		idx, ok := classifySubaction(s)
		if !ok || s != subactionPrefixes[idx] {
			return api.Resultf(api.ErrPathUnsupported, "subaction path %q", s)
		}
		if !act.data.acceptsSubaction(idx) {
			return api.Resultf(api.ErrPathUnsupported,
				"action %q did not declare subaction %q", act.data.name, s)
		}
		narrow = idx
	}

	for idx := subactionIndex(0); idx < subactionCount; idx++ {
		if narrow != subactionAny && narrow != idx {
			continue
		}
		if !act.data.acceptsSubaction(idx) {
			continue
		}
		dev := sess.sys.deviceFor(idx)
		if dev == nil {
			continue
		}
		prof, ok := att.profiles[dev.Profile()]
		if !ok {
			continue
		}
		for _, b := range prof.bindings {
			if b.subaction != idx || !b.output {
				continue
			}
			if hasKey(b.keys, act.data.key) {
				_ = dev.Haptic(devicePath(b.aliases[0]), h)
			}
		}
	}
	return nil
}
