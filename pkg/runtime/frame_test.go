package runtime

import (
	"errors"
	"testing"
	"time"

	"github.com/strata-xr/strata-go/pkg/api"
	"github.com/strata-xr/strata-go/pkg/driver/simulated"
)

func TestFrameLoopOrdering(t *testing.T) {
	_, sess, sim := beginTestSession(t)

	if _, err := sess.BeginFrame(); !errors.Is(err, api.ErrCallOrderInvalid) {
		t.Errorf("begin before wait: %v", err)
	}

	res, err := sess.WaitFrame()
	if err != nil {
		t.Fatalf("WaitFrame: %v", err)
	}
	if res.DisplayTime <= 0 || res.DisplayPeriod <= 0 {
		t.Errorf("timing = %+v", res)
	}
	if r, err := sess.BeginFrame(); err != nil || r != api.Success {
		t.Fatalf("BeginFrame = %v, %v", r, err)
	}
	if _, err := sess.BeginFrame(); !errors.Is(err, api.ErrCallOrderInvalid) {
		t.Errorf("begin twice without wait: %v", err)
	}
	if r, err := sess.EndFrame(res.DisplayTime, api.BlendModeOpaque, nil); err != nil || r != api.Success {
		t.Fatalf("EndFrame = %v, %v", r, err)
	}
	if _, err := sess.EndFrame(res.DisplayTime, api.BlendModeOpaque, nil); !errors.Is(err, api.ErrCallOrderInvalid) {
		t.Errorf("end twice: %v", err)
	}
	if sim.Sink().Discarded != 1 {
		t.Errorf("empty EndFrame should discard, got %d", sim.Sink().Discarded)
	}
}

func TestFrameRequiresRunningSession(t *testing.T) {
	_, sess, _ := newTestSession(t)
	if _, err := sess.WaitFrame(); !errors.Is(err, api.ErrSessionNotRunning) {
		t.Errorf("WaitFrame before Begin: %v", err)
	}
	if _, err := sess.BeginFrame(); !errors.Is(err, api.ErrSessionNotRunning) {
		t.Errorf("BeginFrame before Begin: %v", err)
	}
}

func TestSecondWaitBlocksUntilBegin(t *testing.T) {
	_, sess, _ := beginTestSession(t)

	if _, err := sess.WaitFrame(); err != nil {
		t.Fatalf("first WaitFrame: %v", err)
	}

	unblocked := make(chan error, 1)
	go func() {
		_, err := sess.WaitFrame()
		unblocked <- err
	}()

	select {
	case err := <-unblocked:
		t.Fatalf("second wait returned early: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	if _, err := sess.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	select {
	case err := <-unblocked:
		if err != nil {
			t.Fatalf("second wait: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("second wait never unblocked")
	}
}

func TestThirdOutstandingWaitFails(t *testing.T) {
	_, sess, _ := beginTestSession(t)

	if _, err := sess.WaitFrame(); err != nil {
		t.Fatalf("first WaitFrame: %v", err)
	}
	blocked := make(chan error, 1)
	go func() {
		_, err := sess.WaitFrame()
		blocked <- err
	}()
	time.Sleep(20 * time.Millisecond)

	if _, err := sess.WaitFrame(); !errors.Is(err, api.ErrCallOrderInvalid) {
		t.Errorf("third wait: %v", err)
	}

	// drain the blocked second wait
	if _, err := sess.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	if err := <-blocked; err != nil {
		t.Fatalf("second wait: %v", err)
	}
}

func TestDoubleBeginDiscardsPriorFrame(t *testing.T) {
	_, sess, sim := beginTestSession(t)

	if _, err := sess.WaitFrame(); err != nil {
		t.Fatalf("WaitFrame: %v", err)
	}
	if _, err := sess.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	if _, err := sess.WaitFrame(); err != nil {
		t.Fatalf("second WaitFrame: %v", err)
	}
	r, err := sess.BeginFrame()
	if err != nil {
		t.Fatalf("second BeginFrame: %v", err)
	}
	if r != api.FrameDiscarded {
		t.Errorf("second begin = %v, want FRAME_DISCARDED", r)
	}
	if sim.Sink().Discarded != 1 {
		t.Errorf("compositor discards = %d", sim.Sink().Discarded)
	}

	// the loop continues normally afterwards
	res, err := sess.WaitFrame()
	if err != nil {
		t.Fatalf("WaitFrame after discard: %v", err)
	}
	if _, err := sess.EndFrame(res.DisplayTime, api.BlendModeOpaque, nil); err != nil {
		t.Fatalf("EndFrame after discard: %v", err)
	}
}

func TestHeadlessFrameTiming(t *testing.T) {
	inst, sess, _ := newTestSession(t, simulated.WithHeadless())
	collectStates(t, inst, 8)
	if _, err := sess.Begin(api.ViewConfigurationStereo); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	res, err := sess.WaitFrame()
	if err != nil {
		t.Fatalf("WaitFrame: %v", err)
	}
	if res.ShouldRender {
		t.Error("headless frame should not render")
	}
	if res.DisplayPeriod != api.Duration(16_666_667) {
		t.Errorf("period = %d", res.DisplayPeriod)
	}
	if _, err := sess.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	if _, err := sess.EndFrame(res.DisplayTime, api.BlendModeOpaque, nil); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
}

func TestEndFrameValidation(t *testing.T) {
	_, sess, _ := beginTestSession(t)
	res, err := sess.WaitFrame()
	if err != nil {
		t.Fatalf("WaitFrame: %v", err)
	}
	if _, err := sess.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}

	if _, err := sess.EndFrame(api.Time(0), api.BlendModeOpaque, nil); !errors.Is(err, api.ErrTimeInvalid) {
		t.Errorf("zero display time: %v", err)
	}
	if _, err := sess.EndFrame(res.DisplayTime, api.BlendModeAdditive, nil); !errors.Is(err, api.ErrBlendModeUnsupported) {
		t.Errorf("unsupported blend: %v", err)
	}

	layers := make([]CompositionLayer, maxLayerCount+1)
	if _, err := sess.EndFrame(res.DisplayTime, api.BlendModeOpaque, layers); !errors.Is(err, api.ErrLayerLimitExceeded) {
		t.Errorf("layer limit: %v", err)
	}

	// the frame is still endable after failed validation
	if _, err := sess.EndFrame(res.DisplayTime, api.BlendModeOpaque, nil); err != nil {
		t.Errorf("EndFrame after rejects: %v", err)
	}
}
