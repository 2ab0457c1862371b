package relation

const maxChainSteps = 8

// Chain accumulates relation steps and resolves them into a single
// relation. Steps are pushed tracking-target first: the first step maps
// out of the tracked thing's own space, the last step maps into the final
// base space. The zero value is ready to use.
type Chain struct {
	steps [maxChainSteps]Relation
	n     int
}

// Reset empties the chain for reuse.
func (c *Chain) Reset() {
	c.n = 0
}

// Len reports how many steps have been pushed.
func (c *Chain) Len() int {
	return c.n
}

// PushRelation appends a full relation step. Pushing beyond capacity
// drops the step; chains deep enough to overflow indicate a tracking
// graph defect upstream.
func (c *Chain) PushRelation(r Relation) {
	if c.n == len(c.steps) {
		return
	}
	c.steps[c.n] = r
	c.n++
}

// PushPose appends a static transform step. A fixed transform has an
// exactly known velocity of zero, so its step carries valid velocity
// flags and stays transparent to motion passing through.
func (c *Chain) PushPose(p Pose) {
	c.PushRelation(Relation{Flags: FlagsAll, Pose: p})
}

// PushPoseIfNotIdentity appends a pose step unless it is the identity,
// which would not change the result.
func (c *Chain) PushPoseIfNotIdentity(p Pose) {
	if p.IsIdentity() {
		return
	}
	c.PushPose(p)
}

// PushInvertedPose appends the inverse of a pose step.
func (c *Chain) PushInvertedPose(p Pose) {
	c.PushPoseIfNotIdentity(p.Invert())
}

// PushInvertedRelation appends the inverse of a full relation step.
func (c *Chain) PushInvertedRelation(r Relation) {
	inv := Relation{Flags: r.Flags, Pose: r.Pose.Invert()}
	if r.Flags.Has(LinearVelocityValid) {
		inv.LinearVelocity = inv.Pose.Orientation.Rotate(r.LinearVelocity).Mul(-1)
	}
	if r.Flags.Has(AngularVelocityValid) {
		inv.AngularVelocity = inv.Pose.Orientation.Rotate(r.AngularVelocity).Mul(-1)
	}
	c.PushRelation(inv)
}

// Resolve composes every pushed step, first pushed applied first, and
// resets the chain. An empty chain resolves to the zero relation.
func (c *Chain) Resolve() Relation {
	if c.n == 0 {
		return Relation{}
	}
	out := c.steps[0]
	for i := 1; i < c.n; i++ {
		out = Apply(out, c.steps[i])
	}
	c.n = 0
	return out
}

// Apply expresses relation a in the base space of relation b, where b
// locates a's base. Composed flags are the conjunction of the input
// flags, and velocities additionally need both segments tracked: motion
// never leaks through an emulated step.
func Apply(a, b Relation) Relation {
	var out Relation

	poseValid := a.Flags.Has(OrientationValid|PositionValid) &&
		b.Flags.Has(OrientationValid|PositionValid)
	if !poseValid {
		return out
	}
	out.Flags = OrientationValid | PositionValid
	tracked := a.Flags.Has(OrientationTracked|PositionTracked) &&
		b.Flags.Has(OrientationTracked|PositionTracked)
	if tracked {
		out.Flags |= OrientationTracked | PositionTracked
	}
	out.Pose = b.Pose.Mul(a.Pose)

	if tracked && a.Flags.Has(AngularVelocityValid) && b.Flags.Has(AngularVelocityValid) {
		out.Flags |= AngularVelocityValid
		out.AngularVelocity = b.AngularVelocity.
			Add(b.Pose.Orientation.Rotate(a.AngularVelocity))
	}
	if tracked && a.Flags.Has(LinearVelocityValid) && b.Flags.Has(LinearVelocityValid) {
		out.Flags |= LinearVelocityValid
		out.LinearVelocity = b.LinearVelocity.
			Add(b.Pose.Orientation.Rotate(a.LinearVelocity))
		if b.Flags.Has(AngularVelocityValid) {
			// moving-base sweep term, omega cross r
			r := b.Pose.Orientation.Rotate(a.Pose.Position)
			out.LinearVelocity = out.LinearVelocity.Add(b.AngularVelocity.Cross(r))
		}
	}
	return out
}
