package chrono_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jameszhang-a/chrono"
)

func TestActiveBoxFreezesOutsideBodies(t *testing.T) {
	states := chrono.BodyStates{
		// Overlapping pair inside the region.
		1: activeAt(mgl64.Vec3{0, 0, 0}),
		2: activeAt(mgl64.Vec3{1.5, 0, 0}),
		// Overlapping pair far outside it.
		3: activeAt(mgl64.Vec3{100, 0, 0}),
		4: activeAt(mgl64.Vec3{101.5, 0, 0}),
	}
	sys := chrono.NewCollisionSystem(states)
	for id := chrono.BodyID(1); id <= 4; id++ {
		addBodyShape(t, sys, id, chrono.NewSphereShape(1))
	}

	if err := sys.EnableActiveBox(mgl64.Vec3{-10, -10, -10}, mgl64.Vec3{10, 10, 10}); err != nil {
		t.Fatal(err)
	}
	step(t, sys)

	if n := len(sys.Contacts()); n != 1 {
		t.Fatalf("got %d contacts, want 1 (outside pair frozen)", n)
	}
	if !sys.BodyActive(1) || !sys.BodyActive(2) {
		t.Fatal("inside bodies should stay active")
	}
	if sys.BodyActive(3) || sys.BodyActive(4) {
		t.Fatal("outside bodies should be frozen")
	}

	min, max, enabled := sys.ActiveBox()
	if !enabled || min != (mgl64.Vec3{-10, -10, -10}) || max != (mgl64.Vec3{10, 10, 10}) {
		t.Fatalf("ActiveBox() = %v %v %v", min, max, enabled)
	}
}

func TestActiveBoxReentry(t *testing.T) {
	states := chrono.BodyStates{
		1: activeAt(mgl64.Vec3{100, 0, 0}),
		2: activeAt(mgl64.Vec3{101.5, 0, 0}),
	}
	sys := chrono.NewCollisionSystem(states)
	addBodyShape(t, sys, 1, chrono.NewSphereShape(1))
	addBodyShape(t, sys, 2, chrono.NewSphereShape(1))
	if err := sys.EnableActiveBox(mgl64.Vec3{-10, -10, -10}, mgl64.Vec3{10, 10, 10}); err != nil {
		t.Fatal(err)
	}

	step(t, sys)
	if n := len(sys.Contacts()); n != 0 {
		t.Fatalf("frozen pair produced %d contacts", n)
	}

	// The pair moves back inside; the next Synchronize thaws it.
	states[1] = activeAt(mgl64.Vec3{0, 0, 0})
	states[2] = activeAt(mgl64.Vec3{1.5, 0, 0})
	step(t, sys)
	if n := len(sys.Contacts()); n != 1 {
		t.Fatalf("thawed pair produced %d contacts, want 1", n)
	}
	if !sys.BodyActive(1) || !sys.BodyActive(2) {
		t.Fatal("re-entered bodies should be active")
	}
}

// A body straddling the region boundary stays active: freezing requires the
// whole shape AABB to leave the region.
func TestActiveBoxBoundaryOverlapStaysActive(t *testing.T) {
	states := chrono.BodyStates{
		1: activeAt(mgl64.Vec3{10.5, 0, 0}), // AABB reaches back to x=9.5
		2: activeAt(mgl64.Vec3{12, 0, 0}),
	}
	sys := chrono.NewCollisionSystem(states)
	addBodyShape(t, sys, 1, chrono.NewSphereShape(1))
	addBodyShape(t, sys, 2, chrono.NewSphereShape(1))
	if err := sys.EnableActiveBox(mgl64.Vec3{-10, -10, -10}, mgl64.Vec3{10, 10, 10}); err != nil {
		t.Fatal(err)
	}
	step(t, sys)

	if !sys.BodyActive(1) {
		t.Fatal("straddling body should stay active")
	}
	if sys.BodyActive(2) {
		t.Fatal("fully outside body should be frozen")
	}
	// The straddling body has no active partner, so no contacts.
	if n := len(sys.Contacts()); n != 0 {
		t.Fatalf("got %d contacts, want 0", n)
	}
}

func TestDisableActiveBox(t *testing.T) {
	states := chrono.BodyStates{
		1: activeAt(mgl64.Vec3{100, 0, 0}),
		2: activeAt(mgl64.Vec3{101.5, 0, 0}),
	}
	sys := chrono.NewCollisionSystem(states)
	addBodyShape(t, sys, 1, chrono.NewSphereShape(1))
	addBodyShape(t, sys, 2, chrono.NewSphereShape(1))
	if err := sys.EnableActiveBox(mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{1, 1, 1}); err != nil {
		t.Fatal(err)
	}
	step(t, sys)
	if n := len(sys.Contacts()); n != 0 {
		t.Fatalf("frozen pair produced %d contacts", n)
	}

	sys.DisableActiveBox()
	step(t, sys)
	if n := len(sys.Contacts()); n != 1 {
		t.Fatalf("after disabling: got %d contacts, want 1", n)
	}
}
