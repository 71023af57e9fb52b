package chrono

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func sphereSupport(ca, cb mgl64.Vec3, ra, rb float64) supportFunc {
	a := NewSphereShape(ra)
	b := NewSphereShape(rb)
	ta := NewTransformTranslate(ca)
	tb := NewTransformTranslate(cb)
	return func(d mgl64.Vec3) minkowskiPoint {
		pa := supportWorld(a, ta, d, a.margin())
		pb := supportWorld(b, tb, d.Mul(-1), b.margin())
		return minkowskiPoint{p: pa.Sub(pb), a: pa, b: pb}
	}
}

func cubeCoreSupport(center mgl64.Vec3, half float64, point mgl64.Vec3) supportFunc {
	hull := NewHullShape([]mgl64.Vec3{
		{-half, -half, -half}, {half, -half, -half}, {half, half, -half}, {-half, half, -half},
		{-half, -half, half}, {half, -half, half}, {half, half, half}, {-half, half, half},
	})
	wt := NewTransformTranslate(center)
	return func(d mgl64.Vec3) minkowskiPoint {
		pa := supportWorld(hull, wt, d, 0)
		return minkowskiPoint{p: pa.Sub(point), a: pa, b: point}
	}
}

func TestGjkDistanceSeparated(t *testing.T) {
	// Unit cube at the origin against a point at (0.9, 0, 0).
	support := cubeCoreSupport(mgl64.Vec3{}, 0.5, mgl64.Vec3{0.9, 0, 0})
	pa, pb, dist, overlap := gjkDistance(support, mgl64.Vec3{-0.9, 0, 0})
	if overlap {
		t.Fatal("gjkDistance reported overlap for separated cores")
	}
	if math.Abs(dist-0.4) > 1e-9 {
		t.Errorf("dist = %v, want 0.4", dist)
	}
	if pa.Sub(mgl64.Vec3{0.5, 0, 0}).Len() > 1e-9 {
		t.Errorf("witness on cube = %v, want (0.5,0,0)", pa)
	}
	if pb.Sub(mgl64.Vec3{0.9, 0, 0}).Len() > 1e-9 {
		t.Errorf("witness on point = %v, want (0.9,0,0)", pb)
	}
}

func TestGjkDistanceEdgeRegion(t *testing.T) {
	// Point diagonally off a cube corner edge region.
	support := cubeCoreSupport(mgl64.Vec3{}, 0.5, mgl64.Vec3{1, 1, 0})
	pa, _, dist, overlap := gjkDistance(support, mgl64.Vec3{-1, -1, 0})
	if overlap {
		t.Fatal("gjkDistance reported overlap for separated cores")
	}
	want := math.Sqrt(0.5)
	if math.Abs(dist-want) > 1e-9 {
		t.Errorf("dist = %v, want %v", dist, want)
	}
	if pa.Sub(mgl64.Vec3{0.5, 0.5, 0}).Len() > 1e-9 {
		t.Errorf("witness on cube = %v, want (0.5,0.5,0)", pa)
	}
}

func TestGjkDistanceOverlap(t *testing.T) {
	// Point inside the cube: cores overlap, distance is meaningless.
	support := cubeCoreSupport(mgl64.Vec3{}, 0.5, mgl64.Vec3{0.2, 0.1, 0})
	_, _, _, overlap := gjkDistance(support, mgl64.Vec3{1, 0, 0})
	if !overlap {
		t.Fatal("gjkDistance missed overlapping cores")
	}
}

func TestGjkSeparated(t *testing.T) {
	support := sphereSupport(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{3, 0, 0}, 1, 1)
	if _, hit := gjk(support, mgl64.Vec3{3, 0, 0}); hit {
		t.Fatal("gjk reported overlap for separated spheres")
	}
}

func TestGjkEpaOverlap(t *testing.T) {
	support := sphereSupport(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1.5, 0, 0}, 1, 1)
	initDir := mgl64.Vec3{1.5, 0, 0}
	s, hit := gjk(support, initDir)
	if !hit {
		t.Fatal("gjk missed overlapping spheres")
	}
	res := epa(support, s, initDir)
	if math.Abs(res.depth-0.5) > 1e-3 {
		t.Errorf("depth = %v, want 0.5", res.depth)
	}
	if res.normal.Sub(mgl64.Vec3{1, 0, 0}).Len() > 1e-3 {
		t.Errorf("normal = %v, want (1,0,0)", res.normal)
	}
	// Witness points lie on the inflated (here: true) surfaces.
	if math.Abs(res.pa.Len()-1) > 1e-3 {
		t.Errorf("witness A at distance %v from center A, want 1", res.pa.Len())
	}
	if math.Abs(res.pb.Sub(mgl64.Vec3{1.5, 0, 0}).Len()-1) > 1e-3 {
		t.Errorf("witness B at distance %v from center B, want 1", res.pb.Sub(mgl64.Vec3{1.5, 0, 0}).Len())
	}
}

// Concentric shapes have no meaningful center offset; the fallback direction
// must still produce a unit normal and full depth.
func TestEpaConcentric(t *testing.T) {
	support := sphereSupport(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 0}, 1, 0.5)
	s, hit := gjk(support, mgl64.Vec3{})
	if !hit {
		t.Fatal("gjk missed concentric spheres")
	}
	res := epa(support, s, mgl64.Vec3{})
	if math.Abs(res.normal.Len()-1) > 1e-9 {
		t.Fatalf("normal %v is not unit length", res.normal)
	}
	if math.Abs(res.depth-1.5) > 1e-2 {
		t.Errorf("depth = %v, want 1.5", res.depth)
	}
}

func TestEpaDeterministic(t *testing.T) {
	run := func() epaResult {
		support := sphereSupport(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0.9, 0.7, -0.3}, 1, 1)
		initDir := mgl64.Vec3{0.9, 0.7, -0.3}
		s, hit := gjk(support, initDir)
		if !hit {
			t.Fatal("gjk missed overlapping spheres")
		}
		return epa(support, s, initDir)
	}
	first := run()
	for i := 0; i < 10; i++ {
		if got := run(); got != first {
			t.Fatalf("epa result varies between runs: %+v vs %+v", got, first)
		}
	}
}

func TestSupportLocalDirections(t *testing.T) {
	box := NewBoxShape(2, 4, 6)
	cases := []struct {
		dir  mgl64.Vec3
		want mgl64.Vec3
	}{
		{mgl64.Vec3{1, 1, 1}, mgl64.Vec3{1, 2, 3}},
		{mgl64.Vec3{-1, 1, -1}, mgl64.Vec3{-1, 2, -3}},
		{mgl64.Vec3{0, -1, 0}, mgl64.Vec3{1, -2, 3}},
	}
	for _, c := range cases {
		if got := box.supportLocal(c.dir); got != c.want {
			t.Errorf("box support along %v = %v, want %v", c.dir, got, c.want)
		}
	}

	cyl := NewCylinderShape(2, 2)
	if got := cyl.supportLocal(mgl64.Vec3{1, 0.5, 0}); got != (mgl64.Vec3{2, 1, 0}) {
		t.Errorf("cylinder support = %v, want (2,1,0)", got)
	}
	// Purely axial direction hits the cap center rather than dividing by a
	// zero radial component.
	if got := cyl.supportLocal(mgl64.Vec3{0, -1, 0}); got != (mgl64.Vec3{0, -1, 0}) {
		t.Errorf("axial cylinder support = %v, want (0,-1,0)", got)
	}

	hull := NewHullShape([]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 2, 0}})
	if got := hull.supportLocal(mgl64.Vec3{0, 1, 0}); got != (mgl64.Vec3{0, 2, 0}) {
		t.Errorf("hull support = %v, want (0,2,0)", got)
	}
}

func TestSupportWorldMargin(t *testing.T) {
	s := NewSphereShape(2)
	wt := NewTransformTranslate(mgl64.Vec3{5, 0, 0})
	got := supportWorld(s, wt, mgl64.Vec3{0, 3, 0}, s.margin()+0.5)
	if got.Sub(mgl64.Vec3{5, 2.5, 0}).Len() > 1e-12 {
		t.Fatalf("supportWorld = %v, want (5,2.5,0)", got)
	}
}

func TestWorldAABBRotatedBox(t *testing.T) {
	s := NewBoxShape(2, 2, 2)
	q := mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1})
	box := worldAABB(s, NewTransform(mgl64.Vec3{}, q))
	want := math.Sqrt2
	if math.Abs(box.Max[0]-want) > 1e-12 || math.Abs(box.Max[1]-want) > 1e-12 ||
		math.Abs(box.Max[2]-1) > 1e-12 {
		t.Fatalf("rotated box AABB = %v", box)
	}
}

func TestWorldAABBCapsule(t *testing.T) {
	s := NewCapsuleShape(0.5, 2)
	box := worldAABB(s, NewTransformTranslate(mgl64.Vec3{1, 0, 0}))
	if box.Min != (mgl64.Vec3{0.5, -1.5, -0.5}) || box.Max != (mgl64.Vec3{1.5, 1.5, 0.5}) {
		t.Fatalf("capsule AABB = %v", box)
	}
}

func TestClosestPointsSegmentSegment(t *testing.T) {
	cases := []struct {
		name           string
		p0, p1, q0, q1 mgl64.Vec3
		wantP, wantQ   mgl64.Vec3
	}{
		{
			"crossed",
			mgl64.Vec3{0, -1, 0}, mgl64.Vec3{0, 1, 0},
			mgl64.Vec3{-1, 0, 1}, mgl64.Vec3{1, 0, 1},
			mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 1},
		},
		{
			"endpoint to endpoint",
			mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0},
			mgl64.Vec3{3, 0, 0}, mgl64.Vec3{4, 0, 0},
			mgl64.Vec3{1, 0, 0}, mgl64.Vec3{3, 0, 0},
		},
		{
			"degenerate first",
			mgl64.Vec3{0, 2, 0}, mgl64.Vec3{0, 2, 0},
			mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{1, 0, 0},
			mgl64.Vec3{0, 2, 0}, mgl64.Vec3{0, 0, 0},
		},
	}
	for _, c := range cases {
		gotP, gotQ := closestPointsSegmentSegment(c.p0, c.p1, c.q0, c.q1)
		if gotP.Sub(c.wantP).Len() > 1e-12 || gotQ.Sub(c.wantQ).Len() > 1e-12 {
			t.Errorf("%s: got %v %v, want %v %v", c.name, gotP, gotQ, c.wantP, c.wantQ)
		}
	}
}

func TestPairKeyCanonical(t *testing.T) {
	if pairKey(3, 7) != pairKey(7, 3) {
		t.Fatal("pairKey is not symmetric")
	}
	k := pairKey(7, 3)
	if ShapeID(k>>32) != 3 || ShapeID(uint32(k)) != 7 {
		t.Fatalf("pairKey packing = %x", k)
	}
}
