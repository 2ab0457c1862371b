package runtime

import (
	"errors"
	"strings"
	"testing"

	"github.com/strata-xr/strata-go/pkg/api"
)

func TestStringToPathInterning(t *testing.T) {
	inst, _ := newTestInstance(t)

	p1 := mustPath(t, inst, "/user/hand/left")
	p2 := mustPath(t, inst, "/user/hand/left")
	if p1 != p2 {
		t.Errorf("same string interned to %d and %d", p1, p2)
	}
	p3 := mustPath(t, inst, "/user/hand/right")
	if p3 == p1 {
		t.Errorf("distinct strings share atom %d", p1)
	}

	s, err := inst.PathToString(p1)
	if err != nil || s != "/user/hand/left" {
		t.Errorf("PathToString = %q, %v", s, err)
	}
	if _, err := inst.PathToString(api.Path(9999)); !errors.Is(err, api.ErrPathInvalid) {
		t.Errorf("unknown atom: %v", err)
	}
	if _, err := inst.PathToString(api.NullPath); !errors.Is(err, api.ErrPathInvalid) {
		t.Errorf("null path: %v", err)
	}
}

func TestStringToPathSyntax(t *testing.T) {
	inst, _ := newTestInstance(t)

	good := []string{
		"/user/hand/left",
		"/interaction_profiles/khr/simple_controller",
		"/a",
		"/digits-0.9_ok",
	}
	for _, s := range good {
		if _, err := inst.StringToPath(s); err != nil {
			t.Errorf("%q rejected: %v", s, err)
		}
	}

	bad := []string{
		"",
		"/",
		"no/leading/slash",
		"/trailing/",
		"/double//slash",
		"/Upper/case",
		"/white space",
		"/" + strings.Repeat("a", api.PathMaxLength),
	}
	for _, s := range bad {
		if _, err := inst.StringToPath(s); !errors.Is(err, api.ErrPathFormatInvalid) {
			t.Errorf("%q: got %v, want format error", s, err)
		}
	}
}

func TestClassifySubaction(t *testing.T) {
	cases := []struct {
		path string
		want subactionIndex
		ok   bool
	}{
		{"/user/head", subactionHead, true},
		{"/user/head/input/mute", subactionHead, true},
		{"/user/hand/left", subactionLeft, true},
		{"/user/hand/left/input/trigger/value", subactionLeft, true},
		{"/user/hand/right/input/a/click", subactionRight, true},
		{"/user/gamepad/input/a", subactionGamepad, true},
		{"/user/eyes_ext/input/gaze_ext/pose", subactionEyes, true},
		{"/user/hand/lefty", 0, false},
		{"/user/handlebar", 0, false},
		{"/user/treadmill", 0, false},
	}
	for _, tc := range cases {
		idx, ok := classifySubaction(tc.path)
		if ok != tc.ok || (ok && idx != tc.want) {
			t.Errorf("classifySubaction(%q) = %v, %v", tc.path, idx, ok)
		}
	}
}

func TestDevicePath(t *testing.T) {
	if got := devicePath("/user/hand/left/input/trigger/value"); got != "/input/trigger/value" {
		t.Errorf("devicePath = %q", got)
	}
	if got := devicePath("/input/trigger/value"); got != "/input/trigger/value" {
		t.Errorf("unprefixed devicePath = %q", got)
	}
}
