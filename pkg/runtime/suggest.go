package runtime

import (
	"time"

	"github.com/strata-xr/strata-go/pkg/api"
	"github.com/strata-xr/strata-go/pkg/driver"
	"github.com/strata-xr/strata-go/pkg/handle"
	"github.com/strata-xr/strata-go/pkg/tracelog"
)

// SuggestedBinding ties one action to one component path of an
// interaction profile.
type SuggestedBinding struct {
	Action  *Action
	Binding api.Path
}

// SuggestBindings replaces the suggested bindings for one interaction
// profile. Earlier suggestions for the same profile are discarded
// entirely; sessions that already attached keep their snapshot.
func (inst *Instance) SuggestBindings(profilePath api.Path, suggested []SuggestedBinding, dpads ...DpadModification) error {
	if err := handle.Validate(&inst.Base, handle.TypeInstance); err != nil {
		return err
	}
	if len(suggested) == 0 {
		return api.Resultf(api.ErrValidationFailure, "no bindings suggested")
	}

	prof := inst.profileFor(profilePath)
	if prof == nil {
		return api.Resultf(api.ErrPathUnsupported,
			"unknown interaction profile %q", inst.paths.String(profilePath))
	}

	// validate everything before touching the profile
	for _, sb := range suggested {
		if sb.Action == nil {
			return api.Resultf(api.ErrHandleInvalid, "nil action in suggestion")
		}
		if err := handle.Validate(&sb.Action.Base, handle.TypeAction); err != nil {
			return err
		}
		if sb.Action.set.data.attached() {
			return api.Resultf(api.ErrActionsetsAlreadyAttached,
				"set %q is attached, bindings are frozen", sb.Action.set.data.name)
		}
		if !inst.paths.Valid(sb.Binding) {
			return api.Resultf(api.ErrPathInvalid, "binding atom %d", sb.Binding)
		}
	}
	for _, dm := range dpads {
		if dm.ActionSet == nil {
			return api.Resultf(api.ErrHandleInvalid, "nil action set in dpad modification")
		}
		if err := handle.Validate(&dm.ActionSet.Base, handle.TypeActionSet); err != nil {
			return err
		}
		if dm.ActionSet.data.attached() {
			return api.Resultf(api.ErrActionsetsAlreadyAttached,
				"set %q is attached, bindings are frozen", dm.ActionSet.data.name)
		}
	}

	inst.profilesMu.Lock()
	defer inst.profilesMu.Unlock()

	// full replace: wipe, then fold the new suggestion in
	prof.reset()

	for _, dm := range dpads {
		if err := prof.dpads.add(dm.ActionSet.data, dm.Binding, dm.Settings); err != nil {
			return err
		}
	}

	matched := 0
	for _, sb := range suggested {
		s := inst.paths.String(sb.Binding)
		key := sb.Action.data.key

		if parent, direction, ok := splitDpadPath(s); ok {
			if b := prof.findBinding(parent); b != nil && b.kind == driver.InputVector2 {
				db := prof.dpadBinding(parent, direction)
				db.keys = append(db.keys, key)
				matched++
				continue
			}
		}

		if b := prof.findBinding(s); b != nil {
			b.keys = append(b.keys, key)
			matched++
		}
		// unmatched suggestions are tolerated: the profile simply has
		// no such component
	}

	inst.trace.Log(tracelog.Event{
		Timestamp: time.Now(),
		RunID:     inst.runID,
		Layer:     tracelog.LayerInput,
		Category:  tracelog.CategoryBinding,
		Binding: &tracelog.BindingEvent{
			Profile:      prof.str,
			BindingCount: matched,
		},
	})
	inst.log.Debug("bindings suggested",
		"profile", prof.str, "suggested", len(suggested), "matched", matched)
	return nil
}

// findBinding scans the alias sets for a component selected by path.
func (p *profile) findBinding(s string) *binding {
	for _, b := range p.bindings {
		for _, alias := range b.aliases {
			if alias == s {
				return b
			}
		}
	}
	return nil
}

// dpadBinding returns the synthetic boolean binding folding one dpad
// direction of a vector component, creating it on first use.
func (p *profile) dpadBinding(parent, direction string) *binding {
	full := parent + "/" + direction
	for _, b := range p.bindings {
		if b.dpadModified && b.aliases[0] == full {
			return b
		}
	}
	idx, _ := classifySubaction(parent)
	b := &binding{
		bindingTemplate: bindingTemplate{
			aliases:   []string{full},
			kind:      driver.InputBoolean,
			subaction: idx,
		},
		dpadModified:  true,
		dpadDirection: direction,
	}
	p.bindings = append(p.bindings, b)
	return b
}
