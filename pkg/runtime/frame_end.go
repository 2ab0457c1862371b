package runtime

import (
	"github.com/strata-xr/strata-go/pkg/api"
	"github.com/strata-xr/strata-go/pkg/driver"
	"github.com/strata-xr/strata-go/pkg/relation"
	"github.com/strata-xr/strata-go/pkg/tracelog"
)

// EndFrame submits the begun frame. Every layer is verified before
// anything reaches the compositor; zero layers is a valid discard.
func (sess *Session) EndFrame(displayTime api.Time, blend api.EnvironmentBlendMode, layers []CompositionLayer) (api.Result, error) {
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
	if !f.begun {
		f.mu.Unlock()
		return 0, api.Resultf(api.ErrCallOrderInvalid, "end without a begun frame")
	}
	frameID := f.begunT.FrameID
	f.mu.Unlock()

	if !displayTime.Valid() {
		return 0, api.Resultf(api.ErrTimeInvalid, "display time %d", displayTime)
	}
	modes, err := sess.sys.BlendModes(sess.viewConfig)
	if sess.comp != nil {
		if err != nil {
			return 0, err
		}
		ok := false
		for _, m := range modes {
			if m == blend {
				ok = true
			}
		}
		if !ok {
			return 0, api.Resultf(api.ErrBlendModeUnsupported, "blend mode %s", blend)
		}
	}
	if len(layers) > maxLayerCount {
		return 0, api.Resultf(api.ErrLayerLimitExceeded,
			"%d layers, limit %d", len(layers), maxLayerCount)
	}
	for i, layer := range layers {
		if err := sess.verifyLayer(i, layer); err != nil {
			return 0, err
		}
	}

	// verification is done, the frame is committed from here on
	if sess.comp != nil {
		if len(layers) == 0 {
			_ = sess.comp.DiscardFrame(frameID)
		} else {
			if err := sess.comp.BeginLayers(frameID, displayTime, blend); err != nil {
				return 0, api.Resultf(api.ErrRuntimeFailure, "begin layers: %v", err)
			}
			for _, layer := range layers {
				if err := sess.comp.SubmitLayer(frameID, sess.lowerLayer(layer, displayTime)); err != nil {
					return 0, api.Resultf(api.ErrRuntimeFailure, "submit layer: %v", err)
				}
			}
			if err := sess.comp.CommitLayers(frameID); err != nil {
				return 0, api.Resultf(api.ErrRuntimeFailure, "commit layers: %v", err)
			}
		}
	}

	f.mu.Lock()
	f.begun = false
	f.activeWaits--
	f.mu.Unlock()

	n := len(layers)
	phase := tracelog.FramePhaseEnd
	if n == 0 {
		phase = tracelog.FramePhaseDiscard
	}
	sess.traceFramePhase(phase, frameID, int64(displayTime), &n)

	return sess.successResult(), nil
}

// lowerLayer converts one verified layer into the driver representation,
// resolving its space at display time.
func (sess *Session) lowerLayer(layer CompositionLayer, at api.Time) driver.SubmittedLayer {
	switch {
	case layer.Projection != nil:
		v := layer.Projection.Views[0]
		rel := layer.Projection.Space.relationAt(at)
		return driver.SubmittedLayer{
			Kind:       driver.LayerProjection,
			Relation:   rel,
			Rect:       v.SubImage.Rect,
			ImageIndex: v.SubImage.ArrayIndex,
			Extent:     api.Extent2D{Width: int32(v.SubImage.Swapchain.info.Width), Height: int32(v.SubImage.Swapchain.info.Height)},
		}
	case layer.Quad != nil:
		var c relation.Chain
		c.PushPose(layer.Quad.Pose)
		c.PushRelation(layer.Quad.Space.relationAt(at))
		return driver.SubmittedLayer{
			Kind:       driver.LayerQuad,
			Relation:   c.Resolve(),
			Rect:       layer.Quad.SubImage.Rect,
			ImageIndex: layer.Quad.SubImage.ArrayIndex,
		}
	default:
		var c relation.Chain
		c.PushPose(layer.Cube.Orientation)
		c.PushRelation(layer.Cube.Space.relationAt(at))
		return driver.SubmittedLayer{
			Kind:       driver.LayerCube,
			Relation:   c.Resolve(),
			Rect:       layer.Cube.SubImage.Rect,
			ImageIndex: layer.Cube.SubImage.ArrayIndex,
		}
	}
}
