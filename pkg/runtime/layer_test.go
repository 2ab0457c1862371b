package runtime

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/strata-xr/strata-go/pkg/api"
	"github.com/strata-xr/strata-go/pkg/driver/simulated"
	"github.com/strata-xr/strata-go/pkg/relation"
)

// layerRig is a running session with a begun frame and a swapchain that
// has completed at least one acquire, wait, release cycle.
type layerRig struct {
	inst    *Instance
	sess    *Session
	sim     *simulated.System
	sc      *Swapchain
	space   *Space
	display api.Time
}

func newLayerRig(t *testing.T) *layerRig {
	t.Helper()
	inst, sess, sim := beginTestSession(t)

	fr, err := sess.WaitFrame()
	if err != nil {
		t.Fatalf("WaitFrame: %v", err)
	}
	if _, err := sess.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}

	sc, err := sess.CreateSwapchain(rgbaSwapchain())
	if err != nil {
		t.Fatalf("CreateSwapchain: %v", err)
	}
	if _, err := sc.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := sc.Wait(api.Duration(0)); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if err := sc.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	space, err := sess.CreateReferenceSpace(api.ReferenceSpaceLocal, relation.Identity())
	if err != nil {
		t.Fatalf("CreateReferenceSpace: %v", err)
	}
	return &layerRig{inst: inst, sess: sess, sim: sim, sc: sc, space: space, display: fr.DisplayTime}
}

func (r *layerRig) subImage() SubImage {
	return SubImage{
		Swapchain: r.sc,
		Rect:      api.Rect2D{Extent: api.Extent2D{Width: 1920, Height: 1920}},
	}
}

func (r *layerRig) projection() CompositionLayer {
	view := ProjectionView{
		Pose:     relation.Identity(),
		FoV:      defaultFoV,
		SubImage: r.subImage(),
	}
	return CompositionLayer{Projection: &ProjectionLayer{
		Space: r.space,
		Views: []ProjectionView{view, view},
	}}
}

func (r *layerRig) quad() CompositionLayer {
	return CompositionLayer{Quad: &QuadLayer{
		Space:    r.space,
		Pose:     relation.Identity(),
		Width:    1,
		Height:   1,
		SubImage: r.subImage(),
	}}
}

func (r *layerRig) end(layers []CompositionLayer) error {
	_, err := r.sess.EndFrame(r.display, api.BlendModeOpaque, layers)
	return err
}

func TestEndFrameSubmitsProjection(t *testing.T) {
	r := newLayerRig(t)
	if err := r.end([]CompositionLayer{r.projection()}); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	sink := r.sim.Sink()
	if sink.Committed != 1 {
		t.Errorf("Committed = %d", sink.Committed)
	}
	if len(sink.Layers) != 1 {
		t.Fatalf("got %d submitted layers", len(sink.Layers))
	}
	if got := sink.Layers[0].Extent; got.Width != 1920 || got.Height != 1920 {
		t.Errorf("extent = %+v", got)
	}
}

func TestEndFrameSubmitsMultipleLayers(t *testing.T) {
	r := newLayerRig(t)
	if err := r.end([]CompositionLayer{r.projection(), r.quad()}); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	sink := r.sim.Sink()
	if len(sink.Layers) != 2 {
		t.Fatalf("got %d submitted layers", len(sink.Layers))
	}
}

func TestLayerPayloadCount(t *testing.T) {
	r := newLayerRig(t)

	if err := r.end([]CompositionLayer{{}}); !errors.Is(err, api.ErrLayerInvalid) {
		t.Errorf("empty layer: %v", err)
	}

	both := r.quad()
	both.Projection = r.projection().Projection
	if err := r.end([]CompositionLayer{both}); !errors.Is(err, api.ErrLayerInvalid) {
		t.Errorf("two payloads: %v", err)
	}
}

func TestLayerRequiresReleasedImage(t *testing.T) {
	r := newLayerRig(t)

	fresh, err := r.sess.CreateSwapchain(rgbaSwapchain())
	if err != nil {
		t.Fatalf("CreateSwapchain: %v", err)
	}
	layer := r.quad()
	layer.Quad.SubImage.Swapchain = fresh
	if err := r.end([]CompositionLayer{layer}); !errors.Is(err, api.ErrLayerInvalid) {
		t.Errorf("never released swapchain: %v", err)
	}
}

func TestLayerSubImageValidation(t *testing.T) {
	r := newLayerRig(t)

	t.Run("array index", func(t *testing.T) {
		layer := r.quad()
		layer.Quad.SubImage.ArrayIndex = 1
		if err := r.end([]CompositionLayer{layer}); !errors.Is(err, api.ErrValidationFailure) {
			t.Errorf("out of range index: %v", err)
		}
	})
	t.Run("degenerate rect", func(t *testing.T) {
		layer := r.quad()
		layer.Quad.SubImage.Rect.Extent.Width = 0
		if err := r.end([]CompositionLayer{layer}); !errors.Is(err, api.ErrSwapchainRectInvalid) {
			t.Errorf("zero width rect: %v", err)
		}
	})
	t.Run("rect exceeds image", func(t *testing.T) {
		layer := r.quad()
		layer.Quad.SubImage.Rect.Offset.X = 1
		if err := r.end([]CompositionLayer{layer}); !errors.Is(err, api.ErrSwapchainRectInvalid) {
			t.Errorf("offset rect: %v", err)
		}
	})
}

func TestLayerPoseValidation(t *testing.T) {
	r := newLayerRig(t)

	layer := r.quad()
	layer.Quad.Pose.Orientation = mgl32.Quat{W: 2}
	if err := r.end([]CompositionLayer{layer}); !errors.Is(err, api.ErrPoseInvalid) {
		t.Errorf("non unit orientation: %v", err)
	}

	proj := r.projection()
	proj.Projection.Views[0].FoV.AngleLeft = 1
	if err := r.end([]CompositionLayer{proj}); !errors.Is(err, api.ErrPoseInvalid) {
		t.Errorf("inverted fov: %v", err)
	}
}

func TestLayerQuadSize(t *testing.T) {
	r := newLayerRig(t)
	layer := r.quad()
	layer.Quad.Width = 0
	if err := r.end([]CompositionLayer{layer}); !errors.Is(err, api.ErrLayerInvalid) {
		t.Errorf("zero width quad: %v", err)
	}
}

func TestLayerCubeNeedsSixFaces(t *testing.T) {
	r := newLayerRig(t)

	// the rig swapchain has one face, a cube needs six
	bad := CompositionLayer{Cube: &CubeLayer{
		Space:       r.space,
		Orientation: relation.Identity(),
		SubImage:    r.subImage(),
	}}
	if err := r.end([]CompositionLayer{bad}); !errors.Is(err, api.ErrLayerInvalid) {
		t.Errorf("one face cube: %v", err)
	}

	info := rgbaSwapchain()
	info.FaceCount = 6
	cubeSC, err := r.sess.CreateSwapchain(info)
	if err != nil {
		t.Fatalf("CreateSwapchain: %v", err)
	}
	if _, err := cubeSC.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := cubeSC.Wait(api.Duration(0)); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if err := cubeSC.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	good := CompositionLayer{Cube: &CubeLayer{
		Space:       r.space,
		Orientation: relation.Identity(),
		SubImage:    SubImage{Swapchain: cubeSC, Rect: api.Rect2D{Extent: api.Extent2D{Width: 1920, Height: 1920}}},
	}}
	if err := r.end([]CompositionLayer{good}); err != nil {
		t.Fatalf("cube submit: %v", err)
	}
}

func TestLayerSpaceMustMatchSession(t *testing.T) {
	r := newLayerRig(t)

	sys, _ := r.inst.System(api.FormFactorHeadMounted)
	other, err := r.inst.NewSession(sys)
	if err != nil {
		t.Fatalf("second session: %v", err)
	}
	foreign, err := other.CreateReferenceSpace(api.ReferenceSpaceLocal, relation.Identity())
	if err != nil {
		t.Fatalf("foreign space: %v", err)
	}

	layer := r.quad()
	layer.Quad.Space = foreign
	if err := r.end([]CompositionLayer{layer}); !errors.Is(err, api.ErrLayerInvalid) {
		t.Errorf("foreign space: %v", err)
	}
}

func TestLayerRejectLeavesFrameOpen(t *testing.T) {
	r := newLayerRig(t)

	if err := r.end([]CompositionLayer{{}}); !errors.Is(err, api.ErrLayerInvalid) {
		t.Fatalf("empty layer: %v", err)
	}
	// verification failed before commit, so the frame can still end
	if err := r.end([]CompositionLayer{r.quad()}); err != nil {
		t.Fatalf("EndFrame after reject: %v", err)
	}
}
