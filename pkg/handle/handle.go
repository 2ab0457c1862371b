// Package handle implements the ownership tree shared by every runtime
// object. Each object embeds a Base carrying a type tag, a lifecycle state
// and the list of children it owns. Destroying a handle destroys its whole
// subtree, children first, so no child ever outlives its parent.
package handle

import (
	"errors"
	"fmt"
	"sync"
)

// State is the lifecycle phase of a handle.
type State uint8

const (
	// Uninitialized handles have never been through Init.
	Uninitialized State = iota
	// Live handles are valid for use.
	Live
	// Destroyed handles have been torn down and must be rejected.
	Destroyed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "UNINITIALIZED"
	case Live:
		return "LIVE"
	case Destroyed:
		return "DESTROYED"
	}
	return fmt.Sprintf("STATE_%d", s)
}

// Type tags the concrete object a Base is embedded in.
type Type uint8

const (
	TypeUnknown Type = iota
	TypeInstance
	TypeMessenger
	TypeSession
	TypeActionSet
	TypeAction
	TypeSpace
	TypeSwapchain
)

func (t Type) String() string {
	switch t {
	case TypeInstance:
		return "instance"
	case TypeMessenger:
		return "messenger"
	case TypeSession:
		return "session"
	case TypeActionSet:
		return "action_set"
	case TypeAction:
		return "action"
	case TypeSpace:
		return "space"
	case TypeSwapchain:
		return "swapchain"
	}
	return "unknown"
}

var (
	ErrNotLive       = errors.New("handle is not live")
	ErrWrongType     = errors.New("handle has unexpected type")
	ErrAlreadyInit   = errors.New("handle already initialized")
	ErrParentNotLive = errors.New("parent handle is not live")
)

// Destroyer releases the resources of the object owning b. It runs after
// all of b's children have already been destroyed.
type Destroyer func(b *Base) error

// Base is embedded in every runtime object. The tree is guarded by a
// single mutex shared through the root, matching the one-big-lock
// discipline of handle creation and destruction.
type Base struct {
	ty      Type
	state   State
	parent  *Base
	child   []*Base
	destroy Destroyer

	// root mutex, shared by every Base in one tree
	mu *sync.Mutex
}

// InitRoot initializes b as the root of a new handle tree.
func InitRoot(b *Base, ty Type, destroy Destroyer) error {
	if b.state != Uninitialized {
		return ErrAlreadyInit
	}
	b.ty = ty
	b.destroy = destroy
	b.mu = &sync.Mutex{}
	b.state = Live
	return nil
}

// Init initializes b as a live child of parent.
func Init(b *Base, ty Type, parent *Base, destroy Destroyer) error {
	if b.state != Uninitialized {
		return ErrAlreadyInit
	}
	parent.mu.Lock()
	defer parent.mu.Unlock()
	if parent.state != Live {
		return ErrParentNotLive
	}
	b.ty = ty
	b.parent = parent
	b.destroy = destroy
	b.mu = parent.mu
	b.state = Live
	parent.child = append(parent.child, b)
	return nil
}

// Type returns the tag b was initialized with.
func (b *Base) Type() Type {
	return b.ty
}

// State returns the current lifecycle state.
func (b *Base) State() State {
	if b.mu == nil {
		return b.state
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Parent returns the owning handle, nil for roots.
func (b *Base) Parent() *Base {
	return b.parent
}

// Validate checks that b is live and carries the wanted tag. It is the
// gate every entry point passes a caller supplied handle through.
func Validate(b *Base, want Type) error {
	if b == nil {
		return fmt.Errorf("%w: nil %s", ErrNotLive, want)
	}
	if b.mu != nil {
		b.mu.Lock()
		defer b.mu.Unlock()
	}
	if b.state != Live {
		return fmt.Errorf("%w: %s is %s", ErrNotLive, b.ty, b.state)
	}
	if b.ty != want {
		return fmt.Errorf("%w: got %s, want %s", ErrWrongType, b.ty, want)
	}
	return nil
}

// Destroy tears down b and everything below it, children before parents.
// The first destroyer error is returned but teardown always runs to
// completion. Destroying an already destroyed handle is an error.
func Destroy(b *Base) error {
	if b == nil || b.mu == nil {
		return ErrNotLive
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Live {
		return fmt.Errorf("%w: %s is %s", ErrNotLive, b.ty, b.state)
	}
	err := destroyLocked(b)
	if b.parent != nil {
		b.parent.removeChildLocked(b)
	}
	return err
}

func destroyLocked(b *Base) error {
	var firstErr error
	// iterate a copy, destroyers may not mutate but order must be stable
	children := b.child
	for i := len(children) - 1; i >= 0; i-- {
		c := children[i]
		if c.state != Live {
			continue
		}
		if err := destroyLocked(c); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	b.child = nil
	b.state = Destroyed
	if b.destroy != nil {
		if err := b.destroy(b); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (b *Base) removeChildLocked(c *Base) {
	for i, have := range b.child {
		if have == c {
			b.child = append(b.child[:i], b.child[i+1:]...)
			return
		}
	}
}

// ChildCount reports how many live children b currently owns.
func (b *Base) ChildCount() int {
	if b.mu == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.child {
		if c.state == Live {
			n++
		}
	}
	return n
}

// Walk visits b and every descendant in parent-before-child order. The
// tree lock is held for the duration, so fn must not call back into this
// package.
func (b *Base) Walk(fn func(b *Base)) {
	if b.mu == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	walkLocked(b, fn)
}

func walkLocked(b *Base, fn func(b *Base)) {
	fn(b)
	for _, c := range b.child {
		walkLocked(c, fn)
	}
}
