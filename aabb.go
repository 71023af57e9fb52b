package chrono

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB is a world-space axis-aligned bounding box.
type AABB struct {
	Min, Max mgl64.Vec3
}

// NewAABB is a convenience constructor for AABB values.
func NewAABB(min, max mgl64.Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// NewAABBForExtents constructs an AABB centered on a point with the given
// half sizes.
func NewAABBForExtents(c, half mgl64.Vec3) AABB {
	return AABB{Min: c.Sub(half), Max: c.Add(half)}
}

// NewAABBForSphere constructs an AABB for a sphere with the given center
// and radius.
func NewAABBForSphere(c mgl64.Vec3, r float64) AABB {
	return NewAABBForExtents(c, mgl64.Vec3{r, r, r})
}

func (a AABB) String() string {
	return fmt.Sprintf("%v %v", a.Min, a.Max)
}

// Intersects returns true if a and b intersect. Touching boxes count as
// intersecting.
func (a AABB) Intersects(b AABB) bool {
	return a.Min[0] <= b.Max[0] && b.Min[0] <= a.Max[0] &&
		a.Min[1] <= b.Max[1] && b.Min[1] <= a.Max[1] &&
		a.Min[2] <= b.Max[2] && b.Min[2] <= a.Max[2]
}

// Contains returns true if b lies completely within a.
func (a AABB) Contains(b AABB) bool {
	return a.Min[0] <= b.Min[0] && a.Max[0] >= b.Max[0] &&
		a.Min[1] <= b.Min[1] && a.Max[1] >= b.Max[1] &&
		a.Min[2] <= b.Min[2] && a.Max[2] >= b.Max[2]
}

// ContainsPoint returns true if a contains p.
func (a AABB) ContainsPoint(p mgl64.Vec3) bool {
	return a.Min[0] <= p[0] && p[0] <= a.Max[0] &&
		a.Min[1] <= p[1] && p[1] <= a.Max[1] &&
		a.Min[2] <= p[2] && p[2] <= a.Max[2]
}

// Merge returns a bounding box that holds both bounding boxes.
func (a AABB) Merge(b AABB) AABB {
	return AABB{
		Min: mgl64.Vec3{
			math.Min(a.Min[0], b.Min[0]),
			math.Min(a.Min[1], b.Min[1]),
			math.Min(a.Min[2], b.Min[2]),
		},
		Max: mgl64.Vec3{
			math.Max(a.Max[0], b.Max[0]),
			math.Max(a.Max[1], b.Max[1]),
			math.Max(a.Max[2], b.Max[2]),
		},
	}
}

// Expand returns a bounding box that holds both a and p.
func (a AABB) Expand(p mgl64.Vec3) AABB {
	return AABB{
		Min: mgl64.Vec3{
			math.Min(a.Min[0], p[0]),
			math.Min(a.Min[1], p[1]),
			math.Min(a.Min[2], p[2]),
		},
		Max: mgl64.Vec3{
			math.Max(a.Max[0], p[0]),
			math.Max(a.Max[1], p[1]),
			math.Max(a.Max[2], p[2]),
		},
	}
}

// Inflate returns a bounding box grown by m on every side.
func (a AABB) Inflate(m float64) AABB {
	d := mgl64.Vec3{m, m, m}
	return AABB{Min: a.Min.Sub(d), Max: a.Max.Add(d)}
}

// Center returns the center of the bounding box.
func (a AABB) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// Size returns the edge lengths of the bounding box.
func (a AABB) Size() mgl64.Vec3 {
	return a.Max.Sub(a.Min)
}

// Volume returns the volume of the bounding box.
func (a AABB) Volume() float64 {
	s := a.Size()
	return s[0] * s[1] * s[2]
}
