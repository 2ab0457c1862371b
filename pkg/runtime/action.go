package runtime

import (
	"regexp"
	"sync"
	"sync/atomic"

	"github.com/strata-xr/strata-go/pkg/api"
	"github.com/strata-xr/strata-go/pkg/handle"
)

// actionKeyCounter hands out instance-unique keys for actions. Keys tie
// suggested bindings to actions without holding handle pointers.
var actionKeyCounter atomic.Uint32

// wellFormedName matches the permitted characters of set and action
// names: lowercase letters, digits, dash, underscore and dot.
var wellFormedName = regexp.MustCompile(`^[a-z0-9\-_.]+$`)

// ActionSet groups actions that activate together.
type ActionSet struct {
	handle.Base
	inst *Instance
	data *actionSetData
}

// actionSetData is the refcounted backing that sessions keep alive after
// the public handle is destroyed.
type actionSetData struct {
	handle.Refcounted

	name          string
	localizedName string
	priority      uint32

	mu      sync.Mutex
	actions map[string]*actionData

	// everAttached flips once and makes the set immutable: no new
	// actions, no new suggested bindings touching it.
	everAttached bool
}

func (d *actionSetData) markAttached() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.everAttached = true
}

func (d *actionSetData) attached() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.everAttached
}

// CreateActionSet validates names and hangs a new set off the instance.
func (inst *Instance) CreateActionSet(name, localizedName string, priority uint32) (*ActionSet, error) {
	if err := handle.Validate(&inst.Base, handle.TypeInstance); err != nil {
		return nil, err
	}
	if name == "" || !wellFormedName.MatchString(name) {
		return nil, api.Resultf(api.ErrNameInvalid, "action set name %q", name)
	}
	if localizedName == "" {
		return nil, api.Resultf(api.ErrLocalizedNameInvalid, "empty localized name for set %q", name)
	}

	inst.setNamesMu.Lock()
	dup := inst.actionSetNames[name]
	if !dup {
		if inst.actionSetNames == nil {
			inst.actionSetNames = make(map[string]bool)
		}
		inst.actionSetNames[name] = true
	}
	inst.setNamesMu.Unlock()
	if dup {
		return nil, api.Resultf(api.ErrNameDuplicated, "action set %q already exists", name)
	}

	set := &ActionSet{
		inst: inst,
		data: &actionSetData{
			name:          name,
			localizedName: localizedName,
			priority:      priority,
			actions:       make(map[string]*actionData),
		},
	}
	set.data.InitRef()
	if err := handle.Init(&set.Base, handle.TypeActionSet, &inst.Base, set.onDestroy); err != nil {
		return nil, err
	}
	return set, nil
}

func (set *ActionSet) onDestroy(*handle.Base) error {
	set.inst.setNamesMu.Lock()
	delete(set.inst.actionSetNames, set.data.name)
	set.inst.setNamesMu.Unlock()
	set.data.Unref()
	return nil
}

// Destroy tears down the set and its actions. Attached sessions keep the
// refcounted backing until they go away themselves.
func (set *ActionSet) Destroy() error {
	return handle.Destroy(&set.Base)
}

// Name returns the set's name.
func (set *ActionSet) Name() string {
	return set.data.name
}

// Action is one application input or output slot.
type Action struct {
	handle.Base
	set  *ActionSet
	data *actionData
}

// actionData is the refcounted per-action backing.
type actionData struct {
	handle.Refcounted

	key           uint32
	name          string
	localizedName string
	typ           api.ActionType

	// subactions is the declared filter; all false means the action
	// accepts any subaction.
	subactions [subactionCount]bool
}

func (d *actionData) acceptsSubaction(idx subactionIndex) bool {
	if idx == subactionAny {
		return true
	}
	any := false
	for _, on := range d.subactions {
		if on {
			any = true
			break
		}
	}
	if !any {
		return true
	}
	return d.subactions[idx]
}

// CreateAction validates names, types and subaction filters, then hangs
// a new action off the set.
func (set *ActionSet) CreateAction(name, localizedName string, typ api.ActionType, subactionPaths []api.Path) (*Action, error) {
	if err := handle.Validate(&set.Base, handle.TypeActionSet); err != nil {
		return nil, err
	}
	if name == "" || !wellFormedName.MatchString(name) {
		return nil, api.Resultf(api.ErrNameInvalid, "action name %q", name)
	}
	if localizedName == "" {
		return nil, api.Resultf(api.ErrLocalizedNameInvalid, "empty localized name for action %q", name)
	}
	switch typ {
	case api.ActionTypeBoolean, api.ActionTypeFloat, api.ActionTypeVector2,
		api.ActionTypePose, api.ActionTypeHapticOutput:
	default:
		return nil, api.Resultf(api.ErrValidationFailure, "unknown action type %d", typ)
	}
	if set.data.attached() {
		return nil, api.Resultf(api.ErrActionsetsAlreadyAttached,
			"set %q is attached and immutable", set.data.name)
	}

	var filter [subactionCount]bool
	for _, p := range subactionPaths {
		s := set.inst.paths.String(p)
		if s == "" {
			return nil, api.Resultf(api.ErrPathInvalid, "subaction atom %d", p)
		}
		idx, ok := classifySubaction(s)
		if !ok || s != subactionPrefixes[idx] {
			return nil, api.Resultf(api.ErrPathUnsupported, "subaction path %q", s)
		}
		if filter[idx] {
			return nil, api.Resultf(api.ErrPathInvalid, "duplicate subaction path %q", s)
		}
		filter[idx] = true
	}

	set.data.mu.Lock()
	defer set.data.mu.Unlock()
	if _, dup := set.data.actions[name]; dup {
		return nil, api.Resultf(api.ErrNameDuplicated,
			"action %q already exists in set %q", name, set.data.name)
	}

	act := &Action{
		set: set,
		data: &actionData{
			key:           actionKeyCounter.Add(1),
			name:          name,
			localizedName: localizedName,
			typ:           typ,
			subactions:    filter,
		},
	}
	act.data.InitRef()
	if err := handle.Init(&act.Base, handle.TypeAction, &set.Base, act.onDestroy); err != nil {
		return nil, err
	}
	set.data.actions[name] = act.data
	return act, nil
}

func (act *Action) onDestroy(*handle.Base) error {
	act.set.data.mu.Lock()
	delete(act.set.data.actions, act.data.name)
	act.set.data.mu.Unlock()
	act.data.Unref()
	return nil
}

// Destroy tears down the action handle. Sessions that attached its set
// keep sampling through the refcounted backing.
func (act *Action) Destroy() error {
	return handle.Destroy(&act.Base)
}

// Name returns the action's name.
func (act *Action) Name() string {
	return act.data.name
}

// Type returns the action's value kind.
func (act *Action) Type() api.ActionType {
	return act.data.typ
}
