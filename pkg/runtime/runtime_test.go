package runtime

import (
	"io"
	"log/slog"
	"testing"

	"github.com/strata-xr/strata-go/pkg/api"
	"github.com/strata-xr/strata-go/pkg/driver/simulated"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestInstance(t *testing.T, opts ...simulated.Option) (*Instance, *simulated.System) {
	t.Helper()
	sim := simulated.NewSystem(opts...)
	inst, err := NewInstance(Config{
		ApplicationName: "runtime-test",
		System:          sim,
		Log:             testLogger(),
	})
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	t.Cleanup(func() { _ = inst.Destroy() })
	return inst, sim
}

func newTestSession(t *testing.T, opts ...simulated.Option) (*Instance, *Session, *simulated.System) {
	t.Helper()
	inst, sim := newTestInstance(t, opts...)
	sys, err := inst.System(api.FormFactorHeadMounted)
	if err != nil {
		t.Fatalf("System: %v", err)
	}
	sess, err := inst.NewSession(sys)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return inst, sess, sim
}

// beginTestSession drains the creation events and begins the frame loop.
func beginTestSession(t *testing.T, opts ...simulated.Option) (*Instance, *Session, *simulated.System) {
	t.Helper()
	inst, sess, sim := newTestSession(t, opts...)
	pumpUntil(t, inst, api.SessionStateReady)
	if _, err := sess.Begin(api.ViewConfigurationStereo); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	return inst, sess, sim
}

// pumpUntil polls events until the given session state is announced.
func pumpUntil(t *testing.T, inst *Instance, want api.SessionState) {
	t.Helper()
	for i := 0; i < 32; i++ {
		ev, ok, err := inst.PollEvent()
		if err != nil {
			t.Fatalf("PollEvent: %v", err)
		}
		if !ok {
			continue
		}
		if sc := ev.SessionStateChanged; sc != nil && sc.State == want {
			return
		}
	}
	t.Fatalf("state %s never announced", want)
}

// focusSession scripts full visibility and walks the ladder to FOCUSED.
func focusSession(t *testing.T, inst *Instance, sim *simulated.System) {
	t.Helper()
	sim.Sink().SetVisibility(true, true)
	pumpUntil(t, inst, api.SessionStateFocused)
}

func mustPath(t *testing.T, inst *Instance, s string) api.Path {
	t.Helper()
	p, err := inst.StringToPath(s)
	if err != nil {
		t.Fatalf("StringToPath(%q): %v", s, err)
	}
	return p
}
