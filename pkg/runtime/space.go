package runtime

import (
	"github.com/strata-xr/strata-go/pkg/api"
	"github.com/strata-xr/strata-go/pkg/handle"
	"github.com/strata-xr/strata-go/pkg/relation"
)

// localFloorHeight is the synthetic eye height separating LOCAL from
// LOCAL_FLOOR when the device layer reports no floor.
const localFloorHeight = 1.6

// Space is a frame of reference poses are expressed in. Reference spaces
// follow the well known bases; action spaces follow a pose action's
// device.
type Space struct {
	handle.Base
	session *Session

	refType api.ReferenceSpaceType // zero for action spaces

	action    *Action
	subaction subactionIndex

	// poseInSpace offsets the space from what it tracks.
	poseInSpace relation.Pose
}

// ReferenceSpaceTypes lists the reference spaces the session supports.
func (sess *Session) ReferenceSpaceTypes() []api.ReferenceSpaceType {
	return []api.ReferenceSpaceType{
		api.ReferenceSpaceView,
		api.ReferenceSpaceLocal,
		api.ReferenceSpaceStage,
		api.ReferenceSpaceLocalFloor,
	}
}

// CreateReferenceSpace builds a space anchored to a well known base.
func (sess *Session) CreateReferenceSpace(refType api.ReferenceSpaceType, poseInSpace relation.Pose) (*Space, error) {
	if err := sess.checkValid(); err != nil {
		return nil, err
	}
	supported := false
	for _, t := range sess.ReferenceSpaceTypes() {
		if t == refType {
			supported = true
		}
	}
	if !supported {
		return nil, api.Resultf(api.ErrReferenceSpaceUnsupported, "reference space %d", refType)
	}
	if err := validateOffsetPose(poseInSpace); err != nil {
		return nil, err
	}

	sp := &Space{session: sess, refType: refType, poseInSpace: poseInSpace}
	if err := handle.Init(&sp.Base, handle.TypeSpace, &sess.Base, nil); err != nil {
		return nil, err
	}
	return sp, nil
}

// CreateActionSpace builds a space following a pose action.
func (sess *Session) CreateActionSpace(act *Action, subaction api.Path, poseInSpace relation.Pose) (*Space, error) {
	if err := sess.checkValid(); err != nil {
		return nil, err
	}
	if act == nil {
		return nil, api.Resultf(api.ErrHandleInvalid, "nil action")
	}
	if err := handle.Validate(&act.Base, handle.TypeAction); err != nil {
		return nil, err
	}
	if act.data.typ != api.ActionTypePose {
		return nil, api.Resultf(api.ErrActionTypeMismatch,
			"action %q is %s, spaces need POSE", act.data.name, act.data.typ)
	}
	if err := validateOffsetPose(poseInSpace); err != nil {
		return nil, err
	}

	idx := subactionAny
	if subaction != api.NullPath {
		s := sess.inst.paths.String(subaction)
		if s == "" {
			return nil, api.Resultf(api.ErrPathInvalid, "atom %d", subaction)
		}
		i, ok := classifySubaction(s)
		if !ok || s != subactionPrefixes[i] {
			return nil, api.Resultf(api.ErrPathUnsupported, "subaction path %q", s)
		}
		if !act.data.acceptsSubaction(i) {
			return nil, api.Resultf(api.ErrPathUnsupported,
				"action %q did not declare subaction %q", act.data.name, s)
		}
		idx = i
	}

	sp := &Space{session: sess, action: act, subaction: idx, poseInSpace: poseInSpace}
	if err := handle.Init(&sp.Base, handle.TypeSpace, &sess.Base, nil); err != nil {
		return nil, err
	}
	return sp, nil
}

func validateOffsetPose(p relation.Pose) error {
	if !p.Finite() {
		return api.Resultf(api.ErrPoseInvalid, "offset pose is not finite")
	}
	if !p.OrientationUnit() {
		return api.Resultf(api.ErrPoseInvalid, "offset orientation is not unit length")
	}
	return nil
}

func (sp *Space) checkValid() error {
	return handle.Validate(&sp.Base, handle.TypeSpace)
}

// Destroy tears down the space.
func (sp *Space) Destroy() error {
	return handle.Destroy(&sp.Base)
}

// Location is a located space: the relation of one space expressed in
// another at a point in time.
type Location struct {
	Relation relation.Relation
}

// Locate expresses sp in base at time t. A space that cannot currently
// be tracked yields a relation with no valid flags rather than an error.
func (sp *Space) Locate(base *Space, t api.Time) (Location, error) {
	if err := sp.checkValid(); err != nil {
		return Location{}, err
	}
	if base == nil {
		return Location{}, api.Resultf(api.ErrHandleInvalid, "nil base space")
	}
	if err := base.checkValid(); err != nil {
		return Location{}, err
	}
	if !t.Valid() {
		return Location{}, api.Resultf(api.ErrTimeInvalid, "time %d", t)
	}
	if sp.session != base.session {
		return Location{}, api.Resultf(api.ErrValidationFailure,
			"spaces belong to different sessions")
	}
	if err := sp.session.checkValid(); err != nil {
		return Location{}, err
	}

	spaceRel := sp.relationAt(t)
	baseRel := base.relationAt(t)

	var c relation.Chain
	c.PushRelation(spaceRel)
	c.PushInvertedRelation(baseRel)
	return Location{Relation: c.Resolve()}, nil
}

// Bounds would report the play area rectangle. The device layer exposes
// none, so the bounds are unavailable for every space.
func (sp *Space) Bounds() (api.Extent2D, api.Result, error) {
	if err := sp.checkValid(); err != nil {
		return api.Extent2D{}, 0, err
	}
	return api.Extent2D{}, api.SpaceBoundsUnavailable, nil
}

// relationAt locates the space in the runtime's global base. The offset
// pose is applied first, then whatever the space tracks.
func (sp *Space) relationAt(t api.Time) relation.Relation {
	var c relation.Chain
	c.PushPoseIfNotIdentity(sp.poseInSpace)

	if sp.action != nil {
		sess := sp.session
		sess.mu.Lock()
		att := sess.attachment
		sess.mu.Unlock()
		if att == nil {
			return relation.Relation{}
		}
		a := att.actions[sp.action.data.key]
		if a == nil {
			return relation.Relation{}
		}
		dev, path, ok := att.resolvePoseSource(a, sp.subaction)
		if !ok {
			return relation.Relation{}
		}
		c.PushRelation(dev.Relation(path, t))
		c.PushPoseIfNotIdentity(sess.sys.dev.TrackingOriginOffset())
		return c.Resolve()
	}

	switch sp.refType {
	case api.ReferenceSpaceView:
		roles := sp.session.sys.roles()
		if roles.Head == nil {
			return relation.Relation{}
		}
		c.PushRelation(roles.Head.Relation("/input/head/pose", t))
		c.PushPoseIfNotIdentity(sp.session.sys.dev.TrackingOriginOffset())
		return c.Resolve()

	case api.ReferenceSpaceLocal:
		// local sits at the tracking origin, eye level
		c.PushRelation(relation.IdentityRelation())
		return c.Resolve()

	case api.ReferenceSpaceLocalFloor:
		floor := relation.Identity()
		floor.Position[1] = -localFloorHeight
		c.PushPose(floor)
		c.PushRelation(relation.IdentityRelation())
		return c.Resolve()

	case api.ReferenceSpaceStage:
		c.PushPoseIfNotIdentity(sp.session.sys.dev.TrackingOriginOffset())
		c.PushRelation(relation.IdentityRelation())
		return c.Resolve()
	}
	return relation.Relation{}
}
