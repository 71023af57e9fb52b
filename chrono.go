// Package chrono implements a multicore collision-detection engine for a
// rigid multibody simulator. It turns a set of collision shapes attached to
// moving bodies into a list of contact constraints (points, normals, signed
// penetration depths) once per simulation step.
//
// The pipeline runs strictly downstream: Synchronize copies external body
// state into a per-step snapshot, then Run generates a world AABB per shape,
// bins the AABBs into a uniform broadphase grid to produce candidate pairs,
// and resolves each candidate pair in the narrowphase. Results are exposed
// through ReportContacts, GetOverlappingPairs and the overlap queries.
//
// All phases fan out over a fixed-size worker pool (SetNumThreads) and
// produce output that is independent of thread count and scheduling.
package chrono

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultGridDensity is the default broadphase grid density used for
	// dynamic tuning of the number of collision bins.
	DefaultGridDensity = 5.0

	magicEpsilon = 1e-9
)

// ShapeType is the geometric type tag of a collision shape.
type ShapeType int

const (
	Sphere ShapeType = iota
	Box
	Capsule
	Cylinder
	ConvexHull
	TriangleMeshType
	Compound

	shapeTypeCount
)

func (t ShapeType) String() string {
	switch t {
	case Sphere:
		return "sphere"
	case Box:
		return "box"
	case Capsule:
		return "capsule"
	case Cylinder:
		return "cylinder"
	case ConvexHull:
		return "hull"
	case TriangleMeshType:
		return "mesh"
	case Compound:
		return "compound"
	}
	return "unknown"
}

// Algorithm selects the narrowphase strategy.
type Algorithm int

const (
	// AlgorithmHybrid dispatches per pair: closed-form primitive
	// functions where one exists, the generic convex path otherwise.
	// This is the default.
	AlgorithmHybrid Algorithm = iota
	// AlgorithmPrimitive uses only the closed-form primitive functions.
	// Candidate pairs with no closed form produce no contacts.
	AlgorithmPrimitive
	// AlgorithmGeneric routes every convex pair through GJK/EPA.
	AlgorithmGeneric
)

// Sentinel errors returned by the collision system.
var (
	// ErrNotSupported is returned by operations that are accepted
	// syntactically but intentionally not implemented (shape removal,
	// ray-hit tests, proximity reporting).
	ErrNotSupported = errors.New("chrono: operation not supported")
	// ErrUnknownBody is returned when registering a shape against a body
	// id that was never added.
	ErrUnknownBody = errors.New("chrono: unknown body id")
	// ErrDuplicateBody is returned when adding a body id twice.
	ErrDuplicateBody = errors.New("chrono: duplicate body id")
	// ErrInvalidConfig is returned by configuration setters for invalid
	// values. The prior configuration is retained.
	ErrInvalidConfig = errors.New("chrono: invalid configuration")
	// ErrNotSynchronized is returned by Run when Synchronize has never
	// completed successfully.
	ErrNotSynchronized = errors.New("chrono: Run called before Synchronize")
)

// BodyID identifies a body owned by the external dynamics system.
type BodyID int

// ShapeID is the stable index of a registered collision shape. Shape ids
// never change for the lifetime of a registration.
type ShapeID int

// Material holds the surface properties referenced by a collision shape.
type Material struct {
	Friction    float64
	Restitution float64
}

// combine produces the effective material of a contact between two
// surfaces. Both properties combine with the minimum rule.
func (m Material) combine(o Material) Material {
	return Material{
		Friction:    min(m.Friction, o.Friction),
		Restitution: min(m.Restitution, o.Restitution),
	}
}

// BodyState is the per-body snapshot copied from the dynamics system by
// Synchronize. The collision core never mutates it.
type BodyState struct {
	// World transform of the body frame.
	Transform Transform
	// Velocities are snapshotted for downstream consumers; the collision
	// pipeline itself does not use them.
	LinearVelocity  mgl64.Vec3
	AngularVelocity mgl64.Vec3
	// Active reports whether the dynamics system considers the body
	// active. Inactive bodies contribute no AABBs, pairs or contacts.
	Active bool
}

// StateProvider supplies current body state to Synchronize. It is
// implemented by the external dynamics system.
type StateProvider interface {
	// BodyState returns the current state of the given body and whether
	// the body is known to the provider.
	BodyState(id BodyID) (BodyState, bool)
}

// BodyStates is a map-based StateProvider, convenient for tests and for
// callers that stage state by hand.
type BodyStates map[BodyID]BodyState

func (m BodyStates) BodyState(id BodyID) (BodyState, bool) {
	s, ok := m[id]
	return s, ok
}

// Pair is a deduplicated candidate shape pair produced by the broadphase.
// A < B always holds.
type Pair struct {
	A, B ShapeID
}

// Contact is one contact point between two shapes, produced by the
// narrowphase. Contacts are transient: the list is rebuilt every Run.
type Contact struct {
	ShapeA, ShapeB ShapeID
	BodyA, BodyB   BodyID

	// PointA and PointB are the witness points on the true surfaces of
	// shape A and shape B, in world space.
	PointA, PointB mgl64.Vec3
	// Normal is the unit contact normal pointing from shape A toward
	// shape B.
	Normal mgl64.Vec3
	// Depth is the signed penetration depth. Positive means the shapes
	// overlap; negative means they are separated but within the
	// collision envelope.
	Depth float64

	// Effective material, combined from both shapes.
	Friction    float64
	Restitution float64
}

// ContactSink receives the final contact list from ReportContacts. It is
// implemented by the external contact container feeding the solver.
type ContactSink interface {
	BeginAddContact()
	AddContact(c Contact)
	EndAddContact()
}

// ContactSlice is a minimal ContactSink that accumulates contacts in a
// slice. BeginAddContact resets it.
type ContactSlice []Contact

func (s *ContactSlice) BeginAddContact()     { *s = (*s)[:0] }
func (s *ContactSlice) AddContact(c Contact) { *s = append(*s, c) }
func (s *ContactSlice) EndAddContact()       {}

// RayHitResult would describe the first shape hit by a ray query. Ray-hit
// tests are not implemented; RayHit always returns a zero result and
// ErrNotSupported.
type RayHitResult struct {
	Shape    ShapeID
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
	Fraction float64
}

func clamp(f, lo, hi float64) float64 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}

func clamp01(f float64) float64 {
	return clamp(f, 0, 1)
}
