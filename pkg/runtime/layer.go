package runtime

import (
	"github.com/strata-xr/strata-go/pkg/api"
	"github.com/strata-xr/strata-go/pkg/relation"
)

// maxLayerCount bounds how many layers one frame may submit.
const maxLayerCount = 16

// CompositionLayer is one layer handed to EndFrame. Exactly one of the
// pointer fields is set.
type CompositionLayer struct {
	Projection *ProjectionLayer
	Quad       *QuadLayer
	Cube       *CubeLayer
}

// SubImage selects a rectangle of one swapchain image.
type SubImage struct {
	Swapchain  *Swapchain
	Rect       api.Rect2D
	ArrayIndex uint32
}

// ProjectionView is one eye of a projection layer.
type ProjectionView struct {
	Pose     relation.Pose
	FoV      api.FoV
	SubImage SubImage
}

// ProjectionLayer renders head locked stereo views into a space.
type ProjectionLayer struct {
	Space *Space
	Views []ProjectionView
}

// QuadLayer places a textured rectangle into a space.
type QuadLayer struct {
	Space    *Space
	Pose     relation.Pose
	Width    float32
	Height   float32
	SubImage SubImage
}

// CubeLayer renders a cubemap around the viewer.
type CubeLayer struct {
	Space       *Space
	Orientation relation.Pose
	SubImage    SubImage
}

// verifyLayer checks one layer against the session's swapchains and
// spaces before anything reaches the compositor.
func (sess *Session) verifyLayer(i int, layer CompositionLayer) error {
	set := 0
	if layer.Projection != nil {
		set++
	}
	if layer.Quad != nil {
		set++
	}
	if layer.Cube != nil {
		set++
	}
	if set != 1 {
		return api.Resultf(api.ErrLayerInvalid, "layer %d sets %d payloads", i, set)
	}

	switch {
	case layer.Projection != nil:
		return sess.verifyProjection(i, layer.Projection)
	case layer.Quad != nil:
		return sess.verifyQuad(i, layer.Quad)
	default:
		return sess.verifyCube(i, layer.Cube)
	}
}

func (sess *Session) verifySpace(i int, sp *Space) error {
	if sp == nil {
		return api.Resultf(api.ErrLayerInvalid, "layer %d has no space", i)
	}
	if err := sp.checkValid(); err != nil {
		return err
	}
	if sp.session != sess {
		return api.Resultf(api.ErrLayerInvalid, "layer %d space belongs to another session", i)
	}
	return nil
}

func (sess *Session) verifyPose(i int, p relation.Pose) error {
	if !p.Finite() {
		return api.Resultf(api.ErrPoseInvalid, "layer %d pose is not finite", i)
	}
	if !p.OrientationUnit() {
		return api.Resultf(api.ErrPoseInvalid, "layer %d orientation is not unit length", i)
	}
	return nil
}

func (sess *Session) verifySubImage(i int, sub SubImage, wantFaces uint32) error {
	sc := sub.Swapchain
	if sc == nil {
		return api.Resultf(api.ErrLayerInvalid, "layer %d has no swapchain", i)
	}
	if err := sc.checkValid(); err != nil {
		return err
	}
	if sc.session != sess {
		return api.Resultf(api.ErrLayerInvalid, "layer %d swapchain belongs to another session", i)
	}
	if !sc.everReleased() {
		return api.Resultf(api.ErrLayerInvalid,
			"layer %d swapchain has never released an image", i)
	}
	if sc.info.FaceCount != wantFaces {
		return api.Resultf(api.ErrLayerInvalid,
			"layer %d swapchain has %d faces, need %d", i, sc.info.FaceCount, wantFaces)
	}
	if sub.ArrayIndex >= sc.info.ArraySize {
		return api.Resultf(api.ErrValidationFailure,
			"layer %d array index %d out of %d", i, sub.ArrayIndex, sc.info.ArraySize)
	}

	r := sub.Rect
	if r.Offset.X < 0 || r.Offset.Y < 0 || r.Extent.Width <= 0 || r.Extent.Height <= 0 {
		return api.Resultf(api.ErrSwapchainRectInvalid,
			"layer %d rect %+v is degenerate", i, r)
	}
	if uint32(r.Offset.X)+uint32(r.Extent.Width) > sc.info.Width ||
		uint32(r.Offset.Y)+uint32(r.Extent.Height) > sc.info.Height {
		return api.Resultf(api.ErrSwapchainRectInvalid,
			"layer %d rect %+v exceeds %dx%d", i, r, sc.info.Width, sc.info.Height)
	}
	return nil
}

func (sess *Session) verifyProjection(i int, layer *ProjectionLayer) error {
	if err := sess.verifySpace(i, layer.Space); err != nil {
		return err
	}
	if len(layer.Views) == 0 {
		return api.Resultf(api.ErrLayerInvalid, "layer %d projection has no views", i)
	}
	for _, v := range layer.Views {
		if err := sess.verifyPose(i, v.Pose); err != nil {
			return err
		}
		if v.FoV.AngleLeft >= v.FoV.AngleRight || v.FoV.AngleDown >= v.FoV.AngleUp {
			return api.Resultf(api.ErrPoseInvalid, "layer %d has inverted field of view", i)
		}
		if err := sess.verifySubImage(i, v.SubImage, 1); err != nil {
			return err
		}
	}
	return nil
}

func (sess *Session) verifyQuad(i int, layer *QuadLayer) error {
	if err := sess.verifySpace(i, layer.Space); err != nil {
		return err
	}
	if err := sess.verifyPose(i, layer.Pose); err != nil {
		return err
	}
	if layer.Width <= 0 || layer.Height <= 0 {
		return api.Resultf(api.ErrLayerInvalid,
			"layer %d quad size %gx%g", i, layer.Width, layer.Height)
	}
	return sess.verifySubImage(i, layer.SubImage, 1)
}

func (sess *Session) verifyCube(i int, layer *CubeLayer) error {
	if err := sess.verifySpace(i, layer.Space); err != nil {
		return err
	}
	if err := sess.verifyPose(i, layer.Orientation); err != nil {
		return err
	}
	return sess.verifySubImage(i, layer.SubImage, 6)
}
