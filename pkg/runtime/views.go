package runtime

import (
	"github.com/strata-xr/strata-go/pkg/api"
	"github.com/strata-xr/strata-go/pkg/relation"

	"github.com/go-gl/mathgl/mgl32"
)

// defaultFoV is the symmetric field of view the simulated display
// reports, 45 degree half angles.
var defaultFoV = api.FoV{
	AngleLeft:  -0.7853982,
	AngleRight: 0.7853982,
	AngleUp:    0.7853982,
	AngleDown:  -0.7853982,
}

// interpupillaryDistance separates the synthesized stereo eyes.
const interpupillaryDistance = 0.063

// View is one eye's pose and projection at a display time.
type View struct {
	Pose relation.Pose
	FoV  api.FoV
}

// ViewConfigurationView describes the recommended render target of one
// view.
type ViewConfigurationView struct {
	RecommendedWidth  uint32
	RecommendedHeight uint32
	MaxWidth          uint32
	MaxHeight         uint32
}

// EnumerateViews returns the render target recommendations for a view
// configuration.
func (sess *Session) EnumerateViews(viewConfig api.ViewConfigurationType) ([]ViewConfigurationView, error) {
	if err := sess.checkValid(); err != nil {
		return nil, err
	}
	var n int
	switch viewConfig {
	case api.ViewConfigurationMono:
		n = 1
	case api.ViewConfigurationStereo:
		n = 2
	default:
		return nil, api.Resultf(api.ErrViewConfigurationUnsupported,
			"view configuration %s", viewConfig)
	}
	views := make([]ViewConfigurationView, n)
	for i := range views {
		views[i] = ViewConfigurationView{
			RecommendedWidth:  1920,
			RecommendedHeight: 1920,
			MaxWidth:          3840,
			MaxHeight:         3840,
		}
	}
	return views, nil
}

// LocateViews predicts the eye poses in a base space at display time.
// The state flags mirror the head relation's validity.
func (sess *Session) LocateViews(viewConfig api.ViewConfigurationType, base *Space, t api.Time) ([]View, relation.Flags, error) {
	if err := sess.checkValid(); err != nil {
		return nil, 0, err
	}
	sess.mu.Lock()
	running := sess.running
	sess.mu.Unlock()
	if !running {
		return nil, 0, api.Resultf(api.ErrSessionNotRunning, "session %s", sess.name)
	}
	if base == nil {
		return nil, 0, api.Resultf(api.ErrHandleInvalid, "nil base space")
	}
	if err := base.checkValid(); err != nil {
		return nil, 0, err
	}
	if !t.Valid() {
		return nil, 0, api.Resultf(api.ErrTimeInvalid, "time %d", t)
	}

	var n int
	switch viewConfig {
	case api.ViewConfigurationMono:
		n = 1
	case api.ViewConfigurationStereo:
		n = 2
	default:
		return nil, 0, api.Resultf(api.ErrViewConfigurationUnsupported,
			"view configuration %s", viewConfig)
	}

	roles := sess.sys.roles()
	if roles.Head == nil {
		return make([]View, n), 0, nil
	}

	// head in base space
	var c relation.Chain
	c.PushRelation(roles.Head.Relation("/input/head/pose", t))
	c.PushPoseIfNotIdentity(sess.sys.dev.TrackingOriginOffset())
	c.PushInvertedRelation(base.relationAt(t))
	head := c.Resolve()

	views := make([]View, n)
	for i := range views {
		eye := relation.Identity()
		if n == 2 {
			off := float32(interpupillaryDistance / 2)
			if i == 0 {
				off = -off
			}
			eye.Position = mgl32.Vec3{off, 0, 0}
		}
		var ec relation.Chain
		ec.PushPoseIfNotIdentity(eye)
		ec.PushRelation(head)
		views[i] = View{Pose: ec.Resolve().Pose, FoV: defaultFoV}
	}
	return views, head.Flags, nil
}
