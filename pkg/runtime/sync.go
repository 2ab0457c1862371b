package runtime

import (
	"time"

	"github.com/strata-xr/strata-go/pkg/api"
	"github.com/strata-xr/strata-go/pkg/driver"
	"github.com/strata-xr/strata-go/pkg/handle"
	"github.com/strata-xr/strata-go/pkg/tracelog"
)

// ActiveActionSet selects one attached set for a sync, optionally
// narrowed to a single subaction slot.
type ActiveActionSet struct {
	Set           *ActionSet
	SubactionPath api.Path
}

// SyncActions samples every bound source of the named sets and latches
// the per-action state the queries read. Only a focused session receives
// input; otherwise everything deactivates and the call reports
// SessionNotFocused.
func (sess *Session) SyncActions(active []ActiveActionSet) (api.Result, error) {
	if err := sess.checkValid(); err != nil {
		return 0, err
	}
	sess.mu.Lock()
	att := sess.attachment
	running := sess.running
	focused := sess.state == api.SessionStateFocused
	sess.mu.Unlock()

	if !running {
		return 0, api.Resultf(api.ErrSessionNotRunning, "session %s", sess.name)
	}
	if att == nil {
		return 0, api.Resultf(api.ErrActionsetNotAttached,
			"session %s has no attached action sets", sess.name)
	}

	// validate before sampling anything
	selected := make(map[*actionSetData]subactionIndex)
	for _, a := range active {
		if a.Set == nil {
			return 0, api.Resultf(api.ErrHandleInvalid, "nil action set")
		}
		if err := handle.Validate(&a.Set.Base, handle.TypeActionSet); err != nil {
			return 0, err
		}
		if !att.attachedSet(a.Set.data) {
			return 0, api.Resultf(api.ErrActionsetNotAttached,
				"set %q is not attached to session %s", a.Set.data.name, sess.name)
		}
		narrow := subactionAny
		if a.SubactionPath != api.NullPath {
			s := sess.inst.paths.String(a.SubactionPath)
			if s == "" {
				return 0, api.Resultf(api.ErrPathInvalid, "atom %d", a.SubactionPath)
			}
			idx, ok := classifySubaction(s)
			if !ok || s != subactionPrefixes[idx] {
				return 0, api.Resultf(api.ErrPathUnsupported, "subaction path %q", s)
			}
			narrow = idx
		}
		selected[a.Set.data] = narrow
	}

	if !focused {
		att.deactivateAll()
		return api.SessionNotFocused, nil
	}

	// a sync is the one place the role cache refreshes with blocking
	if sess.sys.refreshRoles() {
		att.updateCurrentProfiles()
		sess.queueProfileChanged()
	}

	for _, a := range att.actions {
		narrow, on := selected[a.set]
		if !on {
			a.deactivate()
			continue
		}
		att.syncAction(a, narrow)
	}
	return sess.successResult(), nil
}

func (att *attachment) deactivateAll() {
	for _, a := range att.actions {
		a.deactivate()
	}
}

func (a *attachedAction) deactivate() {
	for i := range a.slots {
		a.slots[i].deactivate()
	}
	a.any.deactivate()
}

func (v *actionValue) deactivate() {
	if v.active {
		v.changed = false
		v.active = false
		v.boolean = false
		v.x, v.y = 0, 0
	} else {
		v.changed = false
	}
}

// syncAction samples one action across its slots and folds the combined
// view.
func (att *attachment) syncAction(a *attachedAction, narrow subactionIndex) {
	var liveSlots []subactionIndex
	for idx := subactionIndex(0); idx < subactionCount; idx++ {
		if narrow != subactionAny && narrow != idx {
			a.slots[idx].deactivate()
			continue
		}
		if !a.data.acceptsSubaction(idx) {
			a.slots[idx].deactivate()
			continue
		}
		sample, ok := att.sampleSlot(a, idx)
		if !ok {
			a.slots[idx].deactivate()
			continue
		}
		a.slots[idx].latch(sample)
		liveSlots = append(liveSlots, idx)
	}

	// fold the combined slot from the live ones
	var combined sample
	for _, idx := range liveSlots {
		s := a.slots[idx]
		combined = merge(a.data.typ, combined, sample{
			active: true, boolean: s.boolean, x: s.x, y: s.y, timestamp: s.timestamp,
		})
	}
	if combined.active {
		a.any.latch(combined)
	} else {
		a.any.deactivate()
	}

	if a.any.changed {
		att.traceEdge(a)
	}
}

// sample is one aggregated reading before latching.
type sample struct {
	active    bool
	boolean   bool
	x, y      float32
	timestamp api.Time
}

// latch folds a new sample in, computing the changed edge.
func (v *actionValue) latch(s sample) {
	wasActive := v.active
	changed := !wasActive ||
		v.boolean != s.boolean || v.x != s.x || v.y != s.y
	v.active = true
	v.boolean = s.boolean
	v.x, v.y = s.x, s.y
	v.timestamp = s.timestamp
	v.changed = changed && wasActive
	if changed {
		v.lastChange = s.timestamp
	}
}

// sampleSlot reads every binding serving one action on one slot and
// aggregates them into a single sample.
func (att *attachment) sampleSlot(a *attachedAction, idx subactionIndex) (sample, bool) {
	dev := att.sess.sys.deviceFor(idx)
	if dev == nil {
		return sample{}, false
	}
	prof, ok := att.profiles[dev.Profile()]
	if !ok {
		return sample{}, false
	}

	var agg sample
	found := false
	for _, b := range prof.bindings {
		if b.subaction != idx || b.output {
			continue
		}
		if !hasKey(b.keys, a.data.key) {
			continue
		}
		s, ok := att.readBinding(a, dev, prof, b)
		if !ok {
			continue
		}
		agg = merge(a.data.typ, agg, s)
		found = true
	}
	if !found || !agg.active {
		return sample{}, false
	}
	return agg, true
}

func hasKey(keys []uint32, key uint32) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// readBinding samples one component, converting between the component's
// kind and the action's declared type.
func (att *attachment) readBinding(a *attachedAction, dev driver.Device, prof *profile, b *binding) (sample, bool) {
	if b.dpadModified {
		parentFull := b.aliases[0][:len(b.aliases[0])-len(b.dpadDirection)-1]
		in, ok := dev.Input(devicePath(parentFull))
		if !ok || in.Kind != driver.InputVector2 {
			return sample{}, false
		}
		if !in.Active {
			return sample{}, false
		}
		cfg := prof.dpads.settingsFor(a.set, parentFull)
		hystKey := b.aliases[0]
		pressed := dpadPressed(b.dpadDirection, in.X, in.Y, cfg, a.dpadPressed[hystKey])
		a.dpadPressed[hystKey] = pressed
		return convert(a.data.typ, driver.Input{
			Kind: driver.InputBoolean, Active: true, Timestamp: in.Timestamp, Bool: pressed,
		})
	}

	in, ok := dev.Input(devicePath(b.aliases[0]))
	if !ok || !in.Active {
		return sample{}, false
	}
	return convert(a.data.typ, in)
}

// convert adapts a component sample to the action's type. Unsupported
// pairings drop the source.
func convert(typ api.ActionType, in driver.Input) (sample, bool) {
	out := sample{active: true, timestamp: in.Timestamp}
	switch typ {
	case api.ActionTypeBoolean:
		switch in.Kind {
		case driver.InputBoolean:
			out.boolean = in.Bool
		case driver.InputFloat:
			out.boolean = in.X > 0.5
		default:
			return sample{}, false
		}
	case api.ActionTypeFloat:
		switch in.Kind {
		case driver.InputFloat:
			out.x = in.X
		case driver.InputBoolean:
			if in.Bool {
				out.x = 1
			}
		default:
			return sample{}, false
		}
	case api.ActionTypeVector2:
		if in.Kind != driver.InputVector2 {
			return sample{}, false
		}
		out.x, out.y = in.X, in.Y
	default:
		return sample{}, false
	}
	return out, true
}

// merge folds two samples of the same action. Booleans OR together,
// floats keep the largest magnitude, vectors the longest.
func merge(typ api.ActionType, a, b sample) sample {
	if !a.active {
		return b
	}
	if !b.active {
		return a
	}
	out := a
	if b.timestamp > out.timestamp {
		out.timestamp = b.timestamp
	}
	switch typ {
	case api.ActionTypeBoolean:
		out.boolean = a.boolean || b.boolean
	case api.ActionTypeFloat:
		if abs32(b.x) > abs32(a.x) {
			out.x = b.x
		}
	case api.ActionTypeVector2:
		if b.x*b.x+b.y*b.y > a.x*a.x+a.y*a.y {
			out.x, out.y = b.x, b.y
		}
	}
	return out
}

func (att *attachment) traceEdge(a *attachedAction) {
	var value []float32
	switch a.data.typ {
	case api.ActionTypeBoolean:
		v := float32(0)
		if a.any.boolean {
			v = 1
		}
		value = []float32{v}
	case api.ActionTypeFloat:
		value = []float32{a.any.x}
	case api.ActionTypeVector2:
		value = []float32{a.any.x, a.any.y}
	}
	att.sess.inst.trace.Log(tracelog.Event{
		Timestamp:   time.Now(),
		RunID:       att.sess.inst.runID,
		Layer:       tracelog.LayerInput,
		Category:    tracelog.CategoryInput,
		SessionName: att.sess.name,
		Input: &tracelog.InputEvent{
			Action: a.data.name,
			Active: a.any.active,
			Value:  value,
		},
	})
}
