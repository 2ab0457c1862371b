package handle

import "sync/atomic"

// Refcounted is embedded in backing data that must outlive its public
// handle, such as action state that a session keeps using after the
// application destroys the action handle.
type Refcounted struct {
	count atomic.Int32
	// Release runs when the count drops to zero. May be nil.
	Release func()
}

// Ref takes an additional reference. The embedding object starts at one
// reference owned by its creator, so Ref is only called when sharing.
func (r *Refcounted) Ref() {
	r.count.Add(1)
}

// InitRef sets the initial creator reference.
func (r *Refcounted) InitRef() {
	r.count.Store(1)
}

// Unref drops one reference and runs Release when none remain.
func (r *Refcounted) Unref() {
	if r.count.Add(-1) == 0 {
		if r.Release != nil {
			r.Release()
		}
	}
}
