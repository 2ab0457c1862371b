package runtime

import (
	"strings"

	"github.com/strata-xr/strata-go/pkg/api"
	"github.com/strata-xr/strata-go/pkg/driver"
)

// bindingTemplate is one input or output component an interaction
// profile offers. The alias set lists every path string that selects it;
// the first entry is the full component path.
type bindingTemplate struct {
	aliases   []string
	kind      driver.InputKind
	subaction subactionIndex
	output    bool
}

// profileTemplate is the static description of one interaction profile.
type profileTemplate struct {
	path     string
	bindings []bindingTemplate
}

// binding is one live component slot in an instance's profile copy. The
// keys slice holds the actions currently suggested onto it.
type binding struct {
	bindingTemplate
	keys          []uint32
	dpadModified  bool
	dpadDirection string
}

// profile is the per-instance mutable copy of a template.
type profile struct {
	path     api.Path
	str      string
	bindings []*binding
	dpads    dpadState
}

// handInput expands one component template for both hands.
func handInput(component string, kind driver.InputKind, aliases ...string) []bindingTemplate {
	sides := []struct {
		prefix string
		idx    subactionIndex
	}{
		{pathUserHandLeft, subactionLeft},
		{pathUserHandRight, subactionRight},
	}
	var out []bindingTemplate
	for _, side := range sides {
		names := []string{side.prefix + component}
		for _, a := range aliases {
			names = append(names, side.prefix+a)
		}
		out = append(out, bindingTemplate{aliases: names, kind: kind, subaction: side.idx})
	}
	return out
}

func handOutput(component string, aliases ...string) []bindingTemplate {
	tmpl := handInput(component, driver.InputBoolean, aliases...)
	for i := range tmpl {
		tmpl[i].output = true
	}
	return tmpl
}

func concat(groups ...[]bindingTemplate) []bindingTemplate {
	var out []bindingTemplate
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// profileCatalogue lists every interaction profile this runtime knows.
// Instances copy entries lazily on first suggestion.
var profileCatalogue = []profileTemplate{
	{
		path: "/interaction_profiles/khr/simple_controller",
		bindings: concat(
			handInput("/input/select/click", driver.InputBoolean, "/input/select"),
			handInput("/input/menu/click", driver.InputBoolean, "/input/menu"),
			handInput("/input/grip/pose", driver.InputPose, "/input/grip"),
			handInput("/input/aim/pose", driver.InputPose, "/input/aim"),
			handOutput("/output/haptic"),
		),
	},
	{
		path: "/interaction_profiles/strata/touch_controller",
		bindings: concat(
			handInput("/input/trigger/value", driver.InputFloat, "/input/trigger"),
			handInput("/input/trigger/touch", driver.InputBoolean),
			handInput("/input/squeeze/value", driver.InputFloat, "/input/squeeze"),
			handInput("/input/thumbstick", driver.InputVector2),
			handInput("/input/thumbstick/click", driver.InputBoolean),
			handInput("/input/a/click", driver.InputBoolean, "/input/a"),
			handInput("/input/b/click", driver.InputBoolean, "/input/b"),
			handInput("/input/menu/click", driver.InputBoolean, "/input/menu"),
			handInput("/input/grip/pose", driver.InputPose, "/input/grip"),
			handInput("/input/aim/pose", driver.InputPose, "/input/aim"),
			handOutput("/output/haptic"),
		),
	},
	{
		path: "/interaction_profiles/ext/eye_gaze_interaction",
		bindings: []bindingTemplate{
			{aliases: []string{pathUserEyes + "/input/gaze_ext/pose", pathUserEyes + "/input/gaze_ext"}, kind: driver.InputPose, subaction: subactionEyes},
		},
	},
	{
		path: "/interaction_profiles/strata/gamepad",
		bindings: []bindingTemplate{
			{aliases: []string{pathUserGamepad + "/input/a/click", pathUserGamepad + "/input/a"}, kind: driver.InputBoolean, subaction: subactionGamepad},
			{aliases: []string{pathUserGamepad + "/input/b/click", pathUserGamepad + "/input/b"}, kind: driver.InputBoolean, subaction: subactionGamepad},
			{aliases: []string{pathUserGamepad + "/input/thumbstick_left"}, kind: driver.InputVector2, subaction: subactionGamepad},
			{aliases: []string{pathUserGamepad + "/input/thumbstick_right"}, kind: driver.InputVector2, subaction: subactionGamepad},
			{aliases: []string{pathUserGamepad + "/input/trigger_left/value", pathUserGamepad + "/input/trigger_left"}, kind: driver.InputFloat, subaction: subactionGamepad},
			{aliases: []string{pathUserGamepad + "/input/trigger_right/value", pathUserGamepad + "/input/trigger_right"}, kind: driver.InputFloat, subaction: subactionGamepad},
			{aliases: []string{pathUserGamepad + "/output/haptic_left"}, kind: driver.InputBoolean, subaction: subactionGamepad, output: true},
			{aliases: []string{pathUserGamepad + "/output/haptic_right"}, kind: driver.InputBoolean, subaction: subactionGamepad, output: true},
		},
	},
}

// findTemplate looks a profile path up in the catalogue.
func findTemplate(path string) *profileTemplate {
	for i := range profileCatalogue {
		if profileCatalogue[i].path == path {
			return &profileCatalogue[i]
		}
	}
	return nil
}

// profileFor returns the instance's mutable copy of the named profile,
// copying from the catalogue on first use. Returns nil for unknown
// profiles.
func (inst *Instance) profileFor(p api.Path) *profile {
	inst.profilesMu.Lock()
	defer inst.profilesMu.Unlock()
	if prof, ok := inst.profiles[p]; ok {
		return prof
	}
	str := inst.paths.String(p)
	tmpl := findTemplate(str)
	if tmpl == nil {
		return nil
	}
	prof := &profile{
		path:  p,
		str:   str,
		dpads: newDpadState(),
	}
	for _, bt := range tmpl.bindings {
		prof.bindings = append(prof.bindings, &binding{bindingTemplate: bt})
	}
	inst.profiles[p] = prof
	return prof
}

// clone deep copies a profile so an attached session is isolated from
// later suggestions.
func (p *profile) clone() *profile {
	out := &profile{
		path:  p.path,
		str:   p.str,
		dpads: p.dpads.clone(),
	}
	for _, b := range p.bindings {
		nb := &binding{bindingTemplate: b.bindingTemplate}
		nb.keys = append([]uint32(nil), b.keys...)
		nb.dpadModified = b.dpadModified
		nb.dpadDirection = b.dpadDirection
		out.bindings = append(out.bindings, nb)
	}
	return out
}

// reset clears every suggested key and the folded dpad state, the first
// half of a full replace suggestion. Synthetic dpad bindings belong to
// the discarded suggestion and are dropped outright; a fresh suggestion
// recreates the ones it needs.
func (p *profile) reset() {
	kept := p.bindings[:0]
	for _, b := range p.bindings {
		if b.dpadModified {
			continue
		}
		b.keys = nil
		kept = append(kept, b)
	}
	p.bindings = kept
	p.dpads = newDpadState()
}

// devicePath strips the subaction prefix from a full component path,
// leaving the path the device layer resolves. Returns the input as-is
// when no prefix matches.
func devicePath(full string) string {
	idx, ok := classifySubaction(full)
	if !ok {
		return full
	}
	return strings.TrimPrefix(full, subactionPrefixes[idx])
}
