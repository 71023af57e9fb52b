package chrono_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jameszhang-a/chrono"
)

func TestAABBIntersects(t *testing.T) {
	base := chrono.NewAABB(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{2, 2, 2})
	cases := []struct {
		name  string
		other chrono.AABB
		want  bool
	}{
		{"overlapping", chrono.NewAABB(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{3, 3, 3}), true},
		{"contained", chrono.NewAABB(mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{1, 1, 1}), true},
		{"touching face", chrono.NewAABB(mgl64.Vec3{2, 0, 0}, mgl64.Vec3{4, 2, 2}), true},
		{"disjoint x", chrono.NewAABB(mgl64.Vec3{3, 0, 0}, mgl64.Vec3{4, 2, 2}), false},
		{"disjoint y only", chrono.NewAABB(mgl64.Vec3{0, 5, 0}, mgl64.Vec3{2, 6, 2}), false},
	}
	for _, c := range cases {
		if got := base.Intersects(c.other); got != c.want {
			t.Errorf("%s: Intersects = %v, want %v", c.name, got, c.want)
		}
		if got := c.other.Intersects(base); got != c.want {
			t.Errorf("%s (swapped): Intersects = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestAABBMergeExpand(t *testing.T) {
	a := chrono.NewAABB(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1})
	b := chrono.NewAABB(mgl64.Vec3{-2, 0.5, 0}, mgl64.Vec3{0.5, 3, 1})

	m := a.Merge(b)
	if m.Min != (mgl64.Vec3{-2, 0, 0}) || m.Max != (mgl64.Vec3{1, 3, 1}) {
		t.Fatalf("Merge = %v", m)
	}
	if !m.Contains(a) || !m.Contains(b) {
		t.Fatal("merged box does not contain its inputs")
	}

	e := a.Expand(mgl64.Vec3{5, -1, 0.5})
	if e.Min != (mgl64.Vec3{0, -1, 0}) || e.Max != (mgl64.Vec3{5, 1, 1}) {
		t.Fatalf("Expand = %v", e)
	}
}

func TestAABBInflate(t *testing.T) {
	a := chrono.NewAABB(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 2, 3})
	g := a.Inflate(0.5)
	if g.Min != (mgl64.Vec3{-0.5, -0.5, -0.5}) || g.Max != (mgl64.Vec3{1.5, 2.5, 3.5}) {
		t.Fatalf("Inflate = %v", g)
	}
}

func TestAABBGeometry(t *testing.T) {
	a := chrono.NewAABBForExtents(mgl64.Vec3{1, 2, 3}, mgl64.Vec3{0.5, 1, 1.5})
	if c := a.Center(); c != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("Center = %v", c)
	}
	if s := a.Size(); s != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("Size = %v", s)
	}
	if v := a.Volume(); v != 6 {
		t.Errorf("Volume = %v", v)
	}
	if !a.ContainsPoint(mgl64.Vec3{1, 2, 3}) || a.ContainsPoint(mgl64.Vec3{0, 0, 0}) {
		t.Error("ContainsPoint misclassified")
	}
	s := chrono.NewAABBForSphere(mgl64.Vec3{0, 1, 0}, 2)
	if s.Min != (mgl64.Vec3{-2, -1, -2}) || s.Max != (mgl64.Vec3{2, 3, 2}) {
		t.Errorf("sphere AABB = %v", s)
	}
}
