package chrono

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Shape is an immutable geometric descriptor attached to a body. Only the
// fields matching the shape's Type are meaningful; the constructors below
// fill them in. Shapes are registered with CollisionSystem.AddShape and
// must not be mutated afterwards.
type Shape struct {
	Type ShapeType
	// Local is the local-to-body placement of the shape. For children of
	// a compound it is relative to the compound's frame instead.
	Local    Transform
	Material Material

	// Radius of spheres, capsules and cylinders, and the rounding radius
	// of capsule endcaps.
	Radius float64
	// HalfLength is the half extent of capsules and cylinders along the
	// local Y axis. For capsules it measures the cylindrical segment
	// only, excluding the endcaps.
	HalfLength float64
	// HalfExtents are the box half sizes.
	HalfExtents mgl64.Vec3
	// Vertices are the convex hull corners in shape-local coordinates.
	Vertices []mgl64.Vec3
	// Mesh is the triangle mesh geometry.
	Mesh *TriangleMesh
	// Children are the sub-shapes of a compound.
	Children []*Shape

	body BodyID
	id   ShapeID
}

// DefaultFriction is the friction coefficient assigned by the shape
// constructors.
const DefaultFriction = 0.6

func newShape(t ShapeType) *Shape {
	return &Shape{
		Type:     t,
		Local:    NewTransformIdentity(),
		Material: Material{Friction: DefaultFriction},
		id:       -1,
	}
}

// NewSphereShape returns a sphere shape with the given radius.
func NewSphereShape(radius float64) *Shape {
	s := newShape(Sphere)
	s.Radius = radius
	return s
}

// NewBoxShape returns a box shape with the given side lengths.
func NewBoxShape(sx, sy, sz float64) *Shape {
	s := newShape(Box)
	s.HalfExtents = mgl64.Vec3{sx / 2, sy / 2, sz / 2}
	return s
}

// NewCapsuleShape returns a capsule shape with the given endcap radius and
// cylindrical segment length, aligned with the local Y axis.
func NewCapsuleShape(radius, length float64) *Shape {
	s := newShape(Capsule)
	s.Radius = radius
	s.HalfLength = length / 2
	return s
}

// NewCylinderShape returns a cylinder shape with the given radius and
// length, aligned with the local Y axis.
func NewCylinderShape(radius, length float64) *Shape {
	s := newShape(Cylinder)
	s.Radius = radius
	s.HalfLength = length / 2
	return s
}

// NewHullShape returns a convex hull shape over the given vertices. The
// vertices are assumed to already form a convex set; no hull reduction is
// performed.
func NewHullShape(vertices []mgl64.Vec3) *Shape {
	if len(vertices) == 0 {
		panic("chrono: hull shape needs at least one vertex")
	}
	s := newShape(ConvexHull)
	s.Vertices = vertices
	return s
}

// NewMeshShape returns a triangle mesh shape.
func NewMeshShape(mesh *TriangleMesh) *Shape {
	s := newShape(TriangleMeshType)
	s.Mesh = mesh
	return s
}

// NewCompoundShape returns a compound of the given child shapes. Each
// child's Local transform is interpreted relative to the compound frame.
func NewCompoundShape(children ...*Shape) *Shape {
	if len(children) == 0 {
		panic("chrono: compound shape needs at least one child")
	}
	s := newShape(Compound)
	s.Children = children
	return s
}

// BodyID returns the owning body, valid after registration.
func (s *Shape) BodyID() BodyID { return s.body }

// ID returns the shape id assigned at registration, or -1 before.
func (s *Shape) ID() ShapeID { return s.id }

// margin is the spherical expansion baked into the shape's support
// function. For spheres and capsules the core is a point or segment and
// the radius lives entirely in the margin, which keeps GJK simplices well
// conditioned.
func (s *Shape) margin() float64 {
	switch s.Type {
	case Sphere, Capsule:
		return s.Radius
	}
	return 0
}

// supportLocal returns the support point of the shape core (margin
// excluded) along the local direction d. d need not be normalized.
func (s *Shape) supportLocal(d mgl64.Vec3) mgl64.Vec3 {
	switch s.Type {
	case Sphere:
		return mgl64.Vec3{}
	case Capsule:
		if d[1] >= 0 {
			return mgl64.Vec3{0, s.HalfLength, 0}
		}
		return mgl64.Vec3{0, -s.HalfLength, 0}
	case Box:
		p := s.HalfExtents
		if d[0] < 0 {
			p[0] = -p[0]
		}
		if d[1] < 0 {
			p[1] = -p[1]
		}
		if d[2] < 0 {
			p[2] = -p[2]
		}
		return p
	case Cylinder:
		y := s.HalfLength
		if d[1] < 0 {
			y = -y
		}
		radial := math.Hypot(d[0], d[2])
		if radial < magicEpsilon {
			return mgl64.Vec3{0, y, 0}
		}
		k := s.Radius / radial
		return mgl64.Vec3{d[0] * k, y, d[2] * k}
	case ConvexHull:
		best := 0
		max := s.Vertices[0].Dot(d)
		for i := 1; i < len(s.Vertices); i++ {
			if dot := s.Vertices[i].Dot(d); dot > max {
				max = dot
				best = i
			}
		}
		return s.Vertices[best]
	}
	// Mesh and compound shapes never reach the convex support path;
	// their dispatch decomposes them first.
	panic("chrono: support function on non-convex shape type " + s.Type.String())
}

// supportWorld returns the world-space support point of the shape placed at
// wt along the world direction d, expanded outward by margin. A zero margin
// samples the shape core; passing s.margin() samples the true surface.
func supportWorld(s *Shape, wt Transform, d mgl64.Vec3, margin float64) mgl64.Vec3 {
	ld := wt.Rotation.Inverse().Rotate(d)
	p := s.supportLocal(ld)
	if m := margin; m != 0 {
		n := ld.Len()
		if n < magicEpsilon {
			ld = mgl64.Vec3{1, 0, 0}
			n = 1
		}
		p = p.Add(ld.Mul(m / n))
	}
	return wt.Apply(p)
}

// worldAABB computes the world-space AABB of the shape placed at the world
// transform wt (body transform composed with the shape's Local). The box
// always encloses the true shape extent; for cylinders and rotated boxes it
// may over-approximate, which is sound for broadphase culling.
func worldAABB(s *Shape, wt Transform) AABB {
	switch s.Type {
	case Sphere:
		return NewAABBForSphere(wt.Position, s.Radius)
	case Box:
		return NewAABBForExtents(wt.Position, rotatedExtents(wt.Rotation, s.HalfExtents))
	case Cylinder:
		h := mgl64.Vec3{s.Radius, s.HalfLength, s.Radius}
		return NewAABBForExtents(wt.Position, rotatedExtents(wt.Rotation, h))
	case Capsule:
		a := wt.Apply(mgl64.Vec3{0, s.HalfLength, 0})
		b := wt.Apply(mgl64.Vec3{0, -s.HalfLength, 0})
		return NewAABBForSphere(a, s.Radius).Merge(NewAABBForSphere(b, s.Radius))
	case ConvexHull:
		box := pointAABB(wt.Apply(s.Vertices[0]))
		for _, v := range s.Vertices[1:] {
			box = box.Expand(wt.Apply(v))
		}
		return box
	case TriangleMeshType:
		box := pointAABB(wt.Apply(s.Mesh.Vertices[0]))
		for _, v := range s.Mesh.Vertices[1:] {
			box = box.Expand(wt.Apply(v))
		}
		return box
	case Compound:
		box := worldAABB(s.Children[0], wt.Mult(s.Children[0].Local))
		for _, c := range s.Children[1:] {
			box = box.Merge(worldAABB(c, wt.Mult(c.Local)))
		}
		return box
	}
	panic("chrono: unknown shape type")
}

func pointAABB(p mgl64.Vec3) AABB {
	return AABB{Min: p, Max: p}
}

// rotatedExtents returns the world half sizes of a rotated box with local
// half extents h: the absolute rotation matrix applied to h.
func rotatedExtents(q mgl64.Quat, h mgl64.Vec3) mgl64.Vec3 {
	bx := q.Rotate(mgl64.Vec3{h[0], 0, 0})
	by := q.Rotate(mgl64.Vec3{0, h[1], 0})
	bz := q.Rotate(mgl64.Vec3{0, 0, h[2]})
	return mgl64.Vec3{
		math.Abs(bx[0]) + math.Abs(by[0]) + math.Abs(bz[0]),
		math.Abs(bx[1]) + math.Abs(by[1]) + math.Abs(bz[1]),
		math.Abs(bx[2]) + math.Abs(by[2]) + math.Abs(bz[2]),
	}
}
