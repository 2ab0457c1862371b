// Package relation models spatial poses and their derivatives. A Relation
// carries a pose plus linear and angular velocity together with validity
// flags, and a Chain composes a sequence of relations into one, the way
// tracked poses hop from device space through tracking origin to an
// application base space.
package relation

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Flags records which parts of a Relation hold meaningful data. A part
// can be valid without being tracked, which is how emulated or last-known
// poses are reported.
type Flags uint32

const (
	OrientationValid Flags = 1 << iota
	PositionValid
	LinearVelocityValid
	AngularVelocityValid
	OrientationTracked
	PositionTracked
)

// FlagsAll marks every component valid and tracked.
const FlagsAll = OrientationValid | PositionValid |
	LinearVelocityValid | AngularVelocityValid |
	OrientationTracked | PositionTracked

// PoseFlags are the subset of flags that pure pose transforms preserve.
const PoseFlags = OrientationValid | PositionValid |
	OrientationTracked | PositionTracked

// Has reports whether every flag in want is set.
func (f Flags) Has(want Flags) bool {
	return f&want == want
}

// Pose is a rigid transform, rotation then translation.
type Pose struct {
	Orientation mgl32.Quat
	Position    mgl32.Vec3
}

// Identity returns the identity pose.
func Identity() Pose {
	return Pose{Orientation: mgl32.QuatIdent()}
}

// IsIdentity reports whether p is exactly the identity transform.
func (p Pose) IsIdentity() bool {
	return p.Position == (mgl32.Vec3{}) &&
		p.Orientation.W == 1 && p.Orientation.V == (mgl32.Vec3{})
}

// Transform applies p to a point.
func (p Pose) Transform(v mgl32.Vec3) mgl32.Vec3 {
	return p.Orientation.Rotate(v).Add(p.Position)
}

// Mul composes two poses: the result applies q first, then p.
func (p Pose) Mul(q Pose) Pose {
	return Pose{
		Orientation: p.Orientation.Mul(q.Orientation),
		Position:    p.Orientation.Rotate(q.Position).Add(p.Position),
	}
}

// Invert returns the inverse transform.
func (p Pose) Invert() Pose {
	inv := p.Orientation.Conjugate()
	return Pose{
		Orientation: inv,
		Position:    inv.Rotate(p.Position).Mul(-1),
	}
}

// OrientationUnit reports whether the orientation length is within one
// percent of unit, the tolerance layer submission applies.
func (p Pose) OrientationUnit() bool {
	q := p.Orientation
	n := float64(q.W*q.W + q.V[0]*q.V[0] + q.V[1]*q.V[1] + q.V[2]*q.V[2])
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return false
	}
	l := math.Sqrt(n)
	return l >= 0.99 && l <= 1.01
}

// Finite reports whether every component of the pose is a finite number.
func (p Pose) Finite() bool {
	return finite32(p.Position[0]) && finite32(p.Position[1]) && finite32(p.Position[2]) &&
		finite32(p.Orientation.W) && finite32(p.Orientation.V[0]) &&
		finite32(p.Orientation.V[1]) && finite32(p.Orientation.V[2])
}

func finite32(f float32) bool {
	f64 := float64(f)
	return !math.IsNaN(f64) && !math.IsInf(f64, 0)
}

// Relation is a pose with velocities and validity flags. The zero value
// is the fully invalid relation.
type Relation struct {
	Flags           Flags
	Pose            Pose
	LinearVelocity  mgl32.Vec3
	AngularVelocity mgl32.Vec3
}

// FromPose wraps a pose as a relation with valid and tracked pose flags
// and no velocity.
func FromPose(p Pose) Relation {
	return Relation{Flags: PoseFlags, Pose: p}
}

// IdentityRelation returns a fully valid, tracked, motionless relation.
func IdentityRelation() Relation {
	return Relation{Flags: FlagsAll, Pose: Identity()}
}
