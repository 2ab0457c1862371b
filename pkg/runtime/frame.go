package runtime

import (
	"sync"
	"time"

	"github.com/strata-xr/strata-go/pkg/api"
	"github.com/strata-xr/strata-go/pkg/driver"
	"github.com/strata-xr/strata-go/pkg/tracelog"
)

// frameState paces a session's frame loop. A binary permit keeps exactly
// one frame between wait and begin; the wait counter bounds the calls a
// second thread can have outstanding to two.
type frameState struct {
	mu sync.Mutex

	// permit is seeded with one slot. WaitFrame takes it, BeginFrame
	// hands it back, so a second wait blocks until the first frame is
	// begun.
	permit chan struct{}

	activeWaits int

	waited  bool
	begun   bool
	waitedT driver.FrameTiming
	begunT  driver.FrameTiming

	// headless timing synthesis
	frameCounter int64
}

func (f *frameState) init() {
	f.permit = make(chan struct{}, 1)
	f.permit <- struct{}{}
}

// reset drops per-run frame state at session end.
func (f *frameState) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.waited || f.begun {
		// drain whatever the application abandoned
		f.waited = false
		f.begun = false
		f.activeWaits = 0
		select {
		case f.permit <- struct{}{}:
		default:
		}
	}
}

// FrameResult is what WaitFrame predicts for the next frame.
type FrameResult struct {
	DisplayTime   api.Time
	DisplayPeriod api.Duration
	ShouldRender  bool
}

// WaitFrame blocks until the previously waited frame has been begun,
// then predicts timing for the next frame. At most two calls may be
// outstanding; a third fails rather than deadlocking the caller.
func (sess *Session) WaitFrame() (FrameResult, error) {
	if err := sess.checkValid(); err != nil {
		return FrameResult{}, err
	}
	sess.mu.Lock()
	running := sess.running
	sess.mu.Unlock()
	if !running {
		return FrameResult{}, api.Resultf(api.ErrSessionNotRunning, "session %s", sess.name)
	}

	f := &sess.frame
	f.mu.Lock()
	if f.activeWaits >= 2 {
		f.mu.Unlock()
		return FrameResult{}, api.Resultf(api.ErrCallOrderInvalid,
			"more than two outstanding frame waits")
	}
	f.activeWaits++
	f.mu.Unlock()

	<-f.permit

	timing, err := sess.waitTiming()
	if err != nil {
		// hand the permit back so the loop can recover
		f.mu.Lock()
		f.activeWaits--
		f.mu.Unlock()
		f.permit <- struct{}{}
		return FrameResult{}, api.Resultf(api.ErrRuntimeFailure, "compositor wait: %v", err)
	}

	f.mu.Lock()
	f.waited = true
	f.waitedT = timing
	f.mu.Unlock()

	sess.inst.trace.Log(tracelog.Event{
		Timestamp:   time.Now(),
		RunID:       sess.inst.runID,
		Layer:       tracelog.LayerFrame,
		Category:    tracelog.CategoryFrame,
		SessionName: sess.name,
		Frame: &tracelog.FrameEvent{
			Phase:       tracelog.FramePhaseWait,
			FrameID:     timing.FrameID,
			DisplayTime: int64(timing.PredictedDisplay),
		},
	})

	return FrameResult{
		DisplayTime:   timing.PredictedDisplay,
		DisplayPeriod: timing.PredictedPeriod,
		ShouldRender:  timing.ShouldRender,
	}, nil
}

// waitTiming asks the compositor for frame timing, or synthesizes it for
// headless sessions.
func (sess *Session) waitTiming() (driver.FrameTiming, error) {
	if sess.comp != nil {
		return sess.comp.WaitFrame()
	}
	f := &sess.frame
	f.mu.Lock()
	f.frameCounter++
	id := f.frameCounter
	f.mu.Unlock()
	const period = api.Duration(16_666_667)
	return driver.FrameTiming{
		FrameID:          id,
		PredictedDisplay: sess.inst.Now() + api.Time(period),
		PredictedPeriod:  period,
		ShouldRender:     false,
	}, nil
}

// BeginFrame opens the waited frame for rendering. Calling it again
// without an intervening EndFrame discards the frame already begun and
// reports FrameDiscarded.
func (sess *Session) BeginFrame() (api.Result, error) {
	if err := sess.checkValid(); err != nil {
		return 0, err
	}
	sess.mu.Lock()
	running := sess.running
	sess.mu.Unlock()
	if !running {
		return 0, api.Resultf(api.ErrSessionNotRunning, "session %s", sess.name)
	}

	f := &sess.frame
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case !f.waited && !f.begun:
		return 0, api.Resultf(api.ErrCallOrderInvalid, "begin without a waited frame")

	case f.begun && !f.waited:
		return 0, api.Resultf(api.ErrCallOrderInvalid, "frame already begun")

	case f.begun && f.waited:
		// double begin with a second wait outstanding: the begun frame
		// is abandoned
		discarded := f.begunT
		if sess.comp != nil {
			_ = sess.comp.DiscardFrame(discarded.FrameID)
		}
		f.activeWaits--
		f.begunT = f.waitedT
		f.waited = false
		f.permit <- struct{}{}

		sess.traceFramePhase(tracelog.FramePhaseDiscard, discarded.FrameID, 0, nil)
		sess.traceFramePhase(tracelog.FramePhaseBegin, f.begunT.FrameID, int64(f.begunT.PredictedDisplay), nil)
		return api.FrameDiscarded, nil

	default:
		f.begun = true
		f.begunT = f.waitedT
		f.waited = false
		if sess.comp != nil {
			_ = sess.comp.BeginFrame(f.begunT.FrameID)
		}
		f.permit <- struct{}{}

		sess.traceFramePhase(tracelog.FramePhaseBegin, f.begunT.FrameID, int64(f.begunT.PredictedDisplay), nil)
		sess.mu.Lock()
		loss := sess.lossPending
		sess.mu.Unlock()
		if loss {
			return api.SessionLossPending, nil
		}
		return api.Success, nil
	}
}

func (sess *Session) traceFramePhase(phase tracelog.FramePhase, frameID, display int64, layers *int) {
	sess.inst.trace.Log(tracelog.Event{
		Timestamp:   time.Now(),
		RunID:       sess.inst.runID,
		Layer:       tracelog.LayerFrame,
		Category:    tracelog.CategoryFrame,
		SessionName: sess.name,
		Frame: &tracelog.FrameEvent{
			Phase:       phase,
			FrameID:     frameID,
			DisplayTime: display,
			LayerCount:  layers,
		},
	})
}
