package runtime

import (
	"time"

	"github.com/strata-xr/strata-go/pkg/api"
	"github.com/strata-xr/strata-go/pkg/handle"
	"github.com/strata-xr/strata-go/pkg/tracelog"
)

// attachment is the session side of attached action sets. It references
// the refcounted backing data and snapshots the binding profiles, so the
// session keeps working when handles are destroyed or new suggestions
// arrive.
type attachment struct {
	sess *Session

	sets    []*actionSetData
	actions map[uint32]*attachedAction

	// profiles is the session's frozen copy of the instance bindings,
	// keyed by profile path string.
	profiles map[string]*profile

	// current is the effective interaction profile per user slot.
	current [subactionCount]api.Path
}

// attachedAction is the per-session sampling state of one action.
type attachedAction struct {
	data *actionData
	set  *actionSetData

	// slots holds per-subaction values, any the combined view.
	slots [subactionCount]actionValue
	any   actionValue

	// pinned fixes a pose action to the slot it first resolved on.
	pinned subactionIndex

	// dpadPressed carries fold hysteresis per dpad component path.
	dpadPressed map[string]bool
}

// actionValue is one sampled slot.
type actionValue struct {
	active     bool
	boolean    bool
	x, y       float32
	timestamp  api.Time
	changed    bool
	lastChange api.Time
}

// AttachActionSets freezes the given sets onto the session. A session
// attaches exactly once; the sets become immutable everywhere.
func (sess *Session) AttachActionSets(sets []*ActionSet) error {
	if err := sess.checkValid(); err != nil {
		return err
	}
	if len(sets) == 0 {
		return api.Resultf(api.ErrValidationFailure, "no action sets to attach")
	}

	seen := make(map[*actionSetData]bool, len(sets))
	for _, set := range sets {
		if set == nil {
			return api.Resultf(api.ErrHandleInvalid, "nil action set")
		}
		if err := handle.Validate(&set.Base, handle.TypeActionSet); err != nil {
			return err
		}
		if seen[set.data] {
			return api.Resultf(api.ErrValidationFailure,
				"action set %q attached twice in one call", set.data.name)
		}
		seen[set.data] = true
	}

	sess.mu.Lock()
	already := sess.attachment != nil
	sess.mu.Unlock()
	if already {
		return api.Resultf(api.ErrActionsetsAlreadyAttached, "session %s", sess.name)
	}

	att := &attachment{
		sess:     sess,
		actions:  make(map[uint32]*attachedAction),
		profiles: make(map[string]*profile),
	}

	for _, set := range sets {
		data := set.data
		data.markAttached()
		data.Ref()
		att.sets = append(att.sets, data)

		data.mu.Lock()
		for _, act := range data.actions {
			act.Ref()
			att.actions[act.key] = &attachedAction{
				data:        act,
				set:         data,
				pinned:      subactionAny,
				dpadPressed: make(map[string]bool),
			}
		}
		data.mu.Unlock()
	}

	// freeze the instance's current suggestions
	sess.inst.profilesMu.Lock()
	for _, prof := range sess.inst.profiles {
		att.profiles[prof.str] = prof.clone()
	}
	sess.inst.profilesMu.Unlock()

	att.updateCurrentProfiles()

	sess.mu.Lock()
	sess.attachment = att
	sess.mu.Unlock()

	for name := range att.profiles {
		sess.inst.trace.Log(tracelog.Event{
			Timestamp:   time.Now(),
			RunID:       sess.inst.runID,
			Layer:       tracelog.LayerInput,
			Category:    tracelog.CategoryBinding,
			SessionName: sess.name,
			Binding:     &tracelog.BindingEvent{Profile: name, Attached: true},
		})
	}
	sess.inst.log.Info("action sets attached",
		"session", sess.name, "sets", len(sets), "actions", len(att.actions))
	return nil
}

// release drops the attachment's references at session teardown.
func (att *attachment) release() {
	for _, a := range att.actions {
		a.data.Unref()
	}
	for _, s := range att.sets {
		s.Unref()
	}
}

// updateCurrentProfiles recomputes the effective profile of every user
// slot from the role snapshot.
func (att *attachment) updateCurrentProfiles() {
	sys := att.sess.sys
	for idx := subactionIndex(0); idx < subactionCount; idx++ {
		att.current[idx] = api.NullPath
		dev := sys.deviceFor(idx)
		if dev == nil {
			continue
		}
		str := dev.Profile()
		if _, known := att.profiles[str]; !known {
			continue
		}
		if p := att.sess.inst.paths.Get(str); p != api.NullPath {
			att.current[idx] = p
		}
	}
}

// attachedSet reports whether the attachment includes the given set.
func (att *attachment) attachedSet(data *actionSetData) bool {
	for _, s := range att.sets {
		if s == data {
			return true
		}
	}
	return false
}

// CurrentInteractionProfile reports which profile serves a top level
// user path. NullPath means no device or no bindings for the slot.
func (sess *Session) CurrentInteractionProfile(topLevel api.Path) (api.Path, error) {
	if err := sess.checkValid(); err != nil {
		return api.NullPath, err
	}
	sess.mu.Lock()
	att := sess.attachment
	sess.mu.Unlock()
	if att == nil {
		return api.NullPath, api.Resultf(api.ErrActionsetNotAttached,
			"session %s has no attached action sets", sess.name)
	}

	s := sess.inst.paths.String(topLevel)
	if s == "" {
		return api.NullPath, api.Resultf(api.ErrPathInvalid, "atom %d", topLevel)
	}
	idx, ok := classifySubaction(s)
	if !ok || s != subactionPrefixes[idx] {
		return api.NullPath, api.Resultf(api.ErrPathUnsupported, "top level path %q", s)
	}
	return att.current[idx], nil
}
