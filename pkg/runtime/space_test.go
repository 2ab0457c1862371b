package runtime

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/strata-xr/strata-go/pkg/api"
	"github.com/strata-xr/strata-go/pkg/driver/simulated"
	"github.com/strata-xr/strata-go/pkg/relation"
)

const spaceEps = 1e-5

func posNear(t *testing.T, got, want mgl32.Vec3, what string) {
	t.Helper()
	if got.Sub(want).Len() > spaceEps {
		t.Errorf("%s = %v, want %v", what, got, want)
	}
}

func trackedAt(pos mgl32.Vec3) relation.Relation {
	return relation.Relation{
		Pose:  relation.Pose{Orientation: mgl32.QuatIdent(), Position: pos},
		Flags: relation.PoseFlags,
	}
}

func offsetPose(x, y, z float32) relation.Pose {
	return relation.Pose{Orientation: mgl32.QuatIdent(), Position: mgl32.Vec3{x, y, z}}
}

func TestCreateReferenceSpaceValidation(t *testing.T) {
	_, sess, _ := beginTestSession(t)

	if _, err := sess.CreateReferenceSpace(api.ReferenceSpaceType(99), relation.Identity()); !errors.Is(err, api.ErrReferenceSpaceUnsupported) {
		t.Errorf("unknown type: %v", err)
	}
	bad := relation.Identity()
	bad.Orientation = mgl32.Quat{W: 2}
	if _, err := sess.CreateReferenceSpace(api.ReferenceSpaceLocal, bad); !errors.Is(err, api.ErrPoseInvalid) {
		t.Errorf("non unit orientation: %v", err)
	}
	nonFinite := relation.Identity()
	nonFinite.Position[0] = float32(math.NaN())
	if _, err := sess.CreateReferenceSpace(api.ReferenceSpaceLocal, nonFinite); !errors.Is(err, api.ErrPoseInvalid) {
		t.Errorf("non finite position: %v", err)
	}
	if _, err := sess.CreateReferenceSpace(api.ReferenceSpaceLocal, relation.Identity()); err != nil {
		t.Errorf("valid space: %v", err)
	}
}

func TestLocateLocalFloorInLocal(t *testing.T) {
	inst, sess, _ := beginTestSession(t)

	local, err := sess.CreateReferenceSpace(api.ReferenceSpaceLocal, relation.Identity())
	if err != nil {
		t.Fatalf("local: %v", err)
	}
	floor, err := sess.CreateReferenceSpace(api.ReferenceSpaceLocalFloor, relation.Identity())
	if err != nil {
		t.Fatalf("floor: %v", err)
	}

	loc, err := floor.Locate(local, inst.Now())
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if !loc.Relation.Flags.Has(relation.OrientationValid | relation.PositionValid) {
		t.Fatalf("flags = %v", loc.Relation.Flags)
	}
	posNear(t, loc.Relation.Pose.Position, mgl32.Vec3{0, -localFloorHeight, 0}, "floor in local")

	// and the inverse locates local above the floor
	loc, err = local.Locate(floor, inst.Now())
	if err != nil {
		t.Fatalf("inverse Locate: %v", err)
	}
	posNear(t, loc.Relation.Pose.Position, mgl32.Vec3{0, localFloorHeight, 0}, "local in floor")
}

func TestLocateViewInLocal(t *testing.T) {
	inst, sess, sim := beginTestSession(t)
	sim.Head().SetPose("/input/head/pose", trackedAt(mgl32.Vec3{1, 1.7, -2}))

	view, err := sess.CreateReferenceSpace(api.ReferenceSpaceView, relation.Identity())
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	local, err := sess.CreateReferenceSpace(api.ReferenceSpaceLocal, relation.Identity())
	if err != nil {
		t.Fatalf("local: %v", err)
	}

	loc, err := view.Locate(local, inst.Now())
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if !loc.Relation.Flags.Has(relation.PositionTracked) {
		t.Fatalf("flags = %v", loc.Relation.Flags)
	}
	posNear(t, loc.Relation.Pose.Position, mgl32.Vec3{1, 1.7, -2}, "view in local")
}

func TestLocateAppliesOffsetPose(t *testing.T) {
	inst, sess, sim := beginTestSession(t)
	sim.Head().SetPose("/input/head/pose", trackedAt(mgl32.Vec3{0, 1, 0}))

	// a space half a meter in front of the head
	ahead, err := sess.CreateReferenceSpace(api.ReferenceSpaceView, offsetPose(0, 0, -0.5))
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	local, err := sess.CreateReferenceSpace(api.ReferenceSpaceLocal, relation.Identity())
	if err != nil {
		t.Fatalf("local: %v", err)
	}
	loc, err := ahead.Locate(local, inst.Now())
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	posNear(t, loc.Relation.Pose.Position, mgl32.Vec3{0, 1, -0.5}, "offset view in local")
}

func TestLocateStageUsesTrackingOrigin(t *testing.T) {
	inst, sess, _ := beginTestSession(t, simulated.WithTrackingOriginOffset(offsetPose(2, 0, 1)))

	stage, err := sess.CreateReferenceSpace(api.ReferenceSpaceStage, relation.Identity())
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	local, err := sess.CreateReferenceSpace(api.ReferenceSpaceLocal, relation.Identity())
	if err != nil {
		t.Fatalf("local: %v", err)
	}
	loc, err := stage.Locate(local, inst.Now())
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	posNear(t, loc.Relation.Pose.Position, mgl32.Vec3{2, 0, 1}, "stage in local")
}

func TestLocateValidation(t *testing.T) {
	inst, sess, _ := beginTestSession(t)
	local, _ := sess.CreateReferenceSpace(api.ReferenceSpaceLocal, relation.Identity())
	view, _ := sess.CreateReferenceSpace(api.ReferenceSpaceView, relation.Identity())

	if _, err := view.Locate(local, api.Time(0)); !errors.Is(err, api.ErrTimeInvalid) {
		t.Errorf("zero time: %v", err)
	}
	if _, err := view.Locate(nil, inst.Now()); !errors.Is(err, api.ErrHandleInvalid) {
		t.Errorf("nil base: %v", err)
	}

	sys, _ := inst.System(api.FormFactorHeadMounted)
	other, err := inst.NewSession(sys)
	if err != nil {
		t.Fatalf("second session: %v", err)
	}
	foreign, err := other.CreateReferenceSpace(api.ReferenceSpaceLocal, relation.Identity())
	if err != nil {
		t.Fatalf("foreign space: %v", err)
	}
	if _, err := view.Locate(foreign, inst.Now()); !errors.Is(err, api.ErrValidationFailure) {
		t.Errorf("cross session locate: %v", err)
	}
}

func TestLocateUntrackedYieldsNoFlags(t *testing.T) {
	inst, sess, _ := beginTestSession(t)
	// the head pose was never scripted, so VIEW cannot be tracked
	view, _ := sess.CreateReferenceSpace(api.ReferenceSpaceView, relation.Identity())
	local, _ := sess.CreateReferenceSpace(api.ReferenceSpaceLocal, relation.Identity())

	loc, err := view.Locate(local, inst.Now())
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if loc.Relation.Flags != 0 {
		t.Errorf("untracked flags = %v", loc.Relation.Flags)
	}
}

func TestSpaceBoundsUnavailable(t *testing.T) {
	_, sess, _ := beginTestSession(t)
	stage, _ := sess.CreateReferenceSpace(api.ReferenceSpaceStage, relation.Identity())
	_, res, err := stage.Bounds()
	if err != nil || res != api.SpaceBoundsUnavailable {
		t.Errorf("Bounds = %v, %v", res, err)
	}
}

func TestActionSpaceFollowsDevice(t *testing.T) {
	r := newInputRig(t)
	grip := r.action(t, "grip", api.ActionTypePose)
	r.suggest(t, []SuggestedBinding{
		r.bind(t, grip, "/user/hand/left/input/grip/pose"),
	})
	r.attachAndFocus(t)
	r.sync(t)

	r.left.SetPose("/input/grip/pose", trackedAt(mgl32.Vec3{0.3, 1.2, -0.4}))

	gripSpace, err := r.sess.CreateActionSpace(grip, api.NullPath, relation.Identity())
	if err != nil {
		t.Fatalf("CreateActionSpace: %v", err)
	}
	local, _ := r.sess.CreateReferenceSpace(api.ReferenceSpaceLocal, relation.Identity())

	loc, err := gripSpace.Locate(local, r.inst.Now())
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if !loc.Relation.Flags.Has(relation.PositionValid) {
		t.Fatalf("flags = %v", loc.Relation.Flags)
	}
	posNear(t, loc.Relation.Pose.Position, mgl32.Vec3{0.3, 1.2, -0.4}, "grip in local")

	st, err := r.sess.GetPose(grip, api.NullPath)
	if err != nil || !st.IsActive {
		t.Errorf("GetPose = %+v, %v", st, err)
	}
}

func TestActionSpacePinsFirstSlot(t *testing.T) {
	r := newInputRig(t)
	grip := r.action(t, "grip", api.ActionTypePose)
	r.suggest(t, []SuggestedBinding{
		r.bind(t, grip, "/user/hand/left/input/grip/pose"),
		r.bind(t, grip, "/user/hand/right/input/grip/pose"),
	})
	r.attachAndFocus(t)
	r.sync(t)

	r.left.SetPose("/input/grip/pose", trackedAt(mgl32.Vec3{-1, 0, 0}))
	r.right.SetPose("/input/grip/pose", trackedAt(mgl32.Vec3{1, 0, 0}))

	gripSpace, err := r.sess.CreateActionSpace(grip, api.NullPath, relation.Identity())
	if err != nil {
		t.Fatalf("CreateActionSpace: %v", err)
	}
	local, _ := r.sess.CreateReferenceSpace(api.ReferenceSpaceLocal, relation.Identity())

	loc, err := gripSpace.Locate(local, r.inst.Now())
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	first := loc.Relation.Pose.Position

	// the unnarrowed pose stays on the slot it first resolved to
	for i := 0; i < 3; i++ {
		loc, err = gripSpace.Locate(local, r.inst.Now())
		if err != nil {
			t.Fatalf("Locate: %v", err)
		}
		posNear(t, loc.Relation.Pose.Position, first, "pinned slot")
	}
}

func TestEyeGazeActionSpace(t *testing.T) {
	inst, sess, sim := beginTestSession(t)

	eyes := simulated.NewDevice("eye tracker", "/interaction_profiles/ext/eye_gaze_interaction")
	sim.AssignEyes(eyes)

	set, err := inst.CreateActionSet("gaze", "Gaze", 0)
	if err != nil {
		t.Fatalf("CreateActionSet: %v", err)
	}
	gaze, err := set.CreateAction("gaze_pose", "Gaze Pose", api.ActionTypePose, nil)
	if err != nil {
		t.Fatalf("CreateAction: %v", err)
	}
	profile := mustPath(t, inst, "/interaction_profiles/ext/eye_gaze_interaction")
	err = inst.SuggestBindings(profile, []SuggestedBinding{
		{Action: gaze, Binding: mustPath(t, inst, "/user/eyes_ext/input/gaze_ext/pose")},
	})
	if err != nil {
		t.Fatalf("SuggestBindings: %v", err)
	}
	if err := sess.AttachActionSets([]*ActionSet{set}); err != nil {
		t.Fatalf("AttachActionSets: %v", err)
	}
	focusSession(t, inst, sim)
	if _, err := sess.SyncActions([]ActiveActionSet{{Set: set}}); err != nil {
		t.Fatalf("SyncActions: %v", err)
	}

	eyes.SetPose("/input/gaze_ext/pose", trackedAt(mgl32.Vec3{0, 1.6, -0.1}))

	gazeSpace, err := sess.CreateActionSpace(gaze, api.NullPath, relation.Identity())
	if err != nil {
		t.Fatalf("CreateActionSpace: %v", err)
	}
	local, _ := sess.CreateReferenceSpace(api.ReferenceSpaceLocal, relation.Identity())
	loc, err := gazeSpace.Locate(local, inst.Now())
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if !loc.Relation.Flags.Has(relation.PositionValid) {
		t.Fatalf("flags = %v", loc.Relation.Flags)
	}
	posNear(t, loc.Relation.Pose.Position, mgl32.Vec3{0, 1.6, -0.1}, "gaze in local")
}

func TestCreateActionSpaceValidation(t *testing.T) {
	r := newInputRig(t)
	fire := r.action(t, "fire", api.ActionTypeBoolean)
	r.suggest(t, []SuggestedBinding{r.bind(t, fire, "/user/hand/left/input/a/click")})
	r.attachAndFocus(t)

	if _, err := r.sess.CreateActionSpace(fire, api.NullPath, relation.Identity()); !errors.Is(err, api.ErrActionTypeMismatch) {
		t.Errorf("non pose action: %v", err)
	}
	if _, err := r.sess.CreateActionSpace(nil, api.NullPath, relation.Identity()); !errors.Is(err, api.ErrHandleInvalid) {
		t.Errorf("nil action: %v", err)
	}
}

func TestSpaceDestroyedWithSession(t *testing.T) {
	inst, sess, _ := beginTestSession(t)
	local, err := sess.CreateReferenceSpace(api.ReferenceSpaceLocal, relation.Identity())
	if err != nil {
		t.Fatalf("CreateReferenceSpace: %v", err)
	}
	if err := sess.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if _, err := local.Locate(local, inst.Now()); err == nil {
		t.Error("space survived its session")
	}
}
