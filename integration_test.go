package strata_test

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/strata-xr/strata-go/pkg/api"
	"github.com/strata-xr/strata-go/pkg/config"
	"github.com/strata-xr/strata-go/pkg/driver/simulated"
	"github.com/strata-xr/strata-go/pkg/runtime"
	"github.com/strata-xr/strata-go/pkg/tracelog"
)

// TestE2E_SessionLifecycle drives one session from creation through the
// full state ladder, a traced frame loop with action input, and a clean
// exit, then checks the written trace accounts for all of it.
func TestE2E_SessionLifecycle(t *testing.T) {
	cfg, err := config.Parse([]byte(`
runtime_name: Strata Integration
log_level: debug
devices:
  left_controller: /interaction_profiles/khr/simple_controller
`))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	tracePath := filepath.Join(t.TempDir(), "run.strace")
	trace, err := tracelog.NewFileLogger(tracePath)
	if err != nil {
		t.Fatalf("trace logger: %v", err)
	}

	sim := simulated.NewSystem()
	left := simulated.NewDevice("left controller", cfg.Devices.LeftController)
	sim.AssignLeft(left)
	sim.Sink().SetVisibility(true, true)

	inst, err := runtime.NewInstance(runtime.Config{
		ApplicationName: cfg.RuntimeName,
		System:          sim,
		Log:             slog.New(slog.NewTextHandler(io.Discard, nil)),
		Trace:           trace,
	})
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}

	sys, err := inst.System(api.FormFactorHeadMounted)
	if err != nil {
		t.Fatalf("System: %v", err)
	}
	sess, err := inst.NewSession(sys)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	// Action setup: one boolean action on the simple controller.
	set, err := inst.CreateActionSet("gameplay", "Gameplay", 0)
	if err != nil {
		t.Fatalf("CreateActionSet: %v", err)
	}
	fire, err := set.CreateAction("fire", "Fire", api.ActionTypeBoolean, nil)
	if err != nil {
		t.Fatalf("CreateAction: %v", err)
	}
	profile := path(t, inst, "/interaction_profiles/khr/simple_controller")
	binding := path(t, inst, "/user/hand/left/input/select/click")
	err = inst.SuggestBindings(profile, []runtime.SuggestedBinding{
		{Action: fire, Binding: binding},
	})
	if err != nil {
		t.Fatalf("SuggestBindings: %v", err)
	}
	if err := sess.AttachActionSets([]*runtime.ActionSet{set}); err != nil {
		t.Fatalf("AttachActionSets: %v", err)
	}

	waitState(t, inst, api.SessionStateReady)
	if _, err := sess.Begin(api.ViewConfigurationStereo); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	// Climb the ladder and run the frame loop with input scripted on
	// frame three.
	sawEdge := false
	for frame := 0; frame < 12; frame++ {
		if _, _, err := inst.PollEvent(); err != nil {
			t.Fatalf("PollEvent: %v", err)
		}

		fr, err := sess.WaitFrame()
		if err != nil {
			t.Fatalf("WaitFrame: %v", err)
		}
		if _, err := sess.BeginFrame(); err != nil {
			t.Fatalf("BeginFrame: %v", err)
		}

		if frame == 3 {
			left.SetBool("/input/select/click", true, fr.DisplayTime)
		}
		res, err := sess.SyncActions([]runtime.ActiveActionSet{{Set: set}})
		if err != nil {
			t.Fatalf("SyncActions: %v", err)
		}
		if res == api.Success {
			st, err := sess.GetBoolean(fire, api.NullPath)
			if err != nil {
				t.Fatalf("GetBoolean: %v", err)
			}
			if st.CurrentState {
				sawEdge = true
			}
		}

		if _, err := sess.EndFrame(fr.DisplayTime, api.BlendModeOpaque, nil); err != nil {
			t.Fatalf("EndFrame: %v", err)
		}
	}
	if !sawEdge {
		t.Error("scripted press never reached the action")
	}

	if err := sess.RequestExit(); err != nil {
		t.Fatalf("RequestExit: %v", err)
	}
	waitState(t, inst, api.SessionStateStopping)
	if err := sess.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
	waitState(t, inst, api.SessionStateExiting)

	if err := sess.Destroy(); err != nil {
		t.Fatalf("session Destroy: %v", err)
	}
	if err := inst.Destroy(); err != nil {
		t.Fatalf("instance Destroy: %v", err)
	}
	if err := trace.Close(); err != nil {
		t.Fatalf("trace Close: %v", err)
	}

	checkTrace(t, tracePath)
}

// checkTrace reads the trace back and verifies the lifecycle, frame loop
// and attachment all left events behind.
func checkTrace(t *testing.T, path string) {
	t.Helper()
	reader, err := tracelog.NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer reader.Close()

	states := map[string]bool{}
	var frames, attachments int
	var runID string
	for {
		ev, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if runID == "" {
			runID = ev.RunID
		} else if ev.RunID != runID {
			t.Errorf("run ID changed mid trace: %q vs %q", ev.RunID, runID)
		}
		switch {
		case ev.StateChange != nil:
			states[ev.StateChange.NewState] = true
		case ev.Frame != nil:
			frames++
		case ev.Binding != nil && ev.Binding.Attached:
			attachments++
		}
	}

	for _, want := range []string{"IDLE", "READY", "SYNCHRONIZED", "VISIBLE", "FOCUSED", "STOPPING", "EXITING"} {
		if !states[want] {
			t.Errorf("state %s missing from trace", want)
		}
	}
	if frames == 0 {
		t.Error("no frame events in trace")
	}
	if attachments != 1 {
		t.Errorf("expected one attachment event, got %d", attachments)
	}
}

func waitState(t *testing.T, inst *runtime.Instance, want api.SessionState) {
	t.Helper()
	for i := 0; i < 64; i++ {
		ev, ok, err := inst.PollEvent()
		if err != nil {
			t.Fatalf("PollEvent: %v", err)
		}
		if ok && ev.SessionStateChanged != nil && ev.SessionStateChanged.State == want {
			return
		}
	}
	t.Fatalf("state %s never announced", want)
}

func path(t *testing.T, inst *runtime.Instance, s string) api.Path {
	t.Helper()
	p, err := inst.StringToPath(s)
	if err != nil {
		t.Fatalf("StringToPath(%q): %v", s, err)
	}
	return p
}
