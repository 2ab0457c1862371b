package handle

import (
	"errors"
	"testing"
)

type node struct {
	Base
	name      string
	destroyed *[]string
}

func newRoot(t *testing.T, log *[]string) *node {
	t.Helper()
	n := &node{name: "root", destroyed: log}
	if err := InitRoot(&n.Base, TypeInstance, n.onDestroy); err != nil {
		t.Fatalf("InitRoot: %v", err)
	}
	return n
}

func (n *node) addChild(t *testing.T, name string, ty Type) *node {
	t.Helper()
	c := &node{name: name, destroyed: n.destroyed}
	if err := Init(&c.Base, ty, &n.Base, c.onDestroy); err != nil {
		t.Fatalf("Init(%s): %v", name, err)
	}
	return c
}

func (n *node) onDestroy(*Base) error {
	*n.destroyed = append(*n.destroyed, n.name)
	return nil
}

func TestValidate(t *testing.T) {
	var log []string
	root := newRoot(t, &log)

	if err := Validate(&root.Base, TypeInstance); err != nil {
		t.Errorf("live root should validate: %v", err)
	}
	if err := Validate(&root.Base, TypeSession); !errors.Is(err, ErrWrongType) {
		t.Errorf("wrong type should fail, got %v", err)
	}
	if err := Validate(nil, TypeInstance); !errors.Is(err, ErrNotLive) {
		t.Errorf("nil should fail, got %v", err)
	}

	if err := Destroy(&root.Base); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if err := Validate(&root.Base, TypeInstance); !errors.Is(err, ErrNotLive) {
		t.Errorf("destroyed handle should fail validation, got %v", err)
	}
}

func TestDestroyOrder(t *testing.T) {
	var log []string
	root := newRoot(t, &log)
	session := root.addChild(t, "session", TypeSession)
	session.addChild(t, "space", TypeSpace)
	session.addChild(t, "swapchain", TypeSwapchain)
	actionSet := root.addChild(t, "action_set", TypeActionSet)
	actionSet.addChild(t, "action", TypeAction)

	if err := Destroy(&root.Base); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	want := []string{"action", "action_set", "swapchain", "space", "session", "root"}
	if len(log) != len(want) {
		t.Fatalf("destroyed %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("destroyed %v, want %v", log, want)
		}
	}
}

func TestDestroySubtreeDetaches(t *testing.T) {
	var log []string
	root := newRoot(t, &log)
	session := root.addChild(t, "session", TypeSession)
	session.addChild(t, "space", TypeSpace)
	root.addChild(t, "action_set", TypeActionSet)

	if err := Destroy(&session.Base); err != nil {
		t.Fatalf("Destroy(session): %v", err)
	}
	if got := root.Base.ChildCount(); got != 1 {
		t.Errorf("ChildCount = %d, want 1", got)
	}
	if err := Validate(&session.Base, TypeSession); !errors.Is(err, ErrNotLive) {
		t.Errorf("destroyed session should not validate, got %v", err)
	}

	// destroying again is an error, not a panic
	if err := Destroy(&session.Base); !errors.Is(err, ErrNotLive) {
		t.Errorf("double destroy should fail, got %v", err)
	}
}

func TestInitOnDestroyedParent(t *testing.T) {
	var log []string
	root := newRoot(t, &log)
	if err := Destroy(&root.Base); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	c := &node{name: "late", destroyed: &log}
	if err := Init(&c.Base, TypeSession, &root.Base, nil); !errors.Is(err, ErrParentNotLive) {
		t.Errorf("Init on destroyed parent should fail, got %v", err)
	}
}

func TestDoubleInit(t *testing.T) {
	var log []string
	root := newRoot(t, &log)
	if err := InitRoot(&root.Base, TypeInstance, nil); !errors.Is(err, ErrAlreadyInit) {
		t.Errorf("double init should fail, got %v", err)
	}
}

func TestWalk(t *testing.T) {
	var log []string
	root := newRoot(t, &log)
	root.addChild(t, "a", TypeActionSet)
	s := root.addChild(t, "b", TypeSession)
	s.addChild(t, "c", TypeSpace)

	var seen []Type
	root.Base.Walk(func(b *Base) { seen = append(seen, b.Type()) })
	want := []Type{TypeInstance, TypeActionSet, TypeSession, TypeSpace}
	if len(seen) != len(want) {
		t.Fatalf("Walk visited %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("Walk visited %v, want %v", seen, want)
		}
	}
}

func TestRefcounted(t *testing.T) {
	released := 0
	r := &Refcounted{Release: func() { released++ }}
	r.InitRef()
	r.Ref()
	r.Unref()
	if released != 0 {
		t.Fatal("released too early")
	}
	r.Unref()
	if released != 1 {
		t.Fatalf("released = %d, want 1", released)
	}
}
