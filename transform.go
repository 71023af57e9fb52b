package chrono

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Transform is a rigid 3-D transformation: a rotation followed by a
// translation. Rotations are unit quaternions; there is no scale or shear,
// so composition and inversion stay cheap and exact.
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// NewTransformIdentity returns the identity transformation.
func NewTransformIdentity() Transform {
	return Transform{Rotation: mgl64.QuatIdent()}
}

// NewTransform returns a transform with the given translation and rotation.
// The rotation is normalized.
func NewTransform(position mgl64.Vec3, rotation mgl64.Quat) Transform {
	return Transform{Position: position, Rotation: rotation.Normalize()}
}

// NewTransformTranslate returns a pure translation.
func NewTransformTranslate(position mgl64.Vec3) Transform {
	return Transform{Position: position, Rotation: mgl64.QuatIdent()}
}

// Apply transforms the point p from local into parent coordinates.
func (t Transform) Apply(p mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(p).Add(t.Position)
}

// ApplyVector rotates the direction d without translating it.
func (t Transform) ApplyVector(d mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(d)
}

// Mult composes two transforms. (t.Mult(u)).Apply(p) == t.Apply(u.Apply(p)).
func (t Transform) Mult(u Transform) Transform {
	return Transform{
		Position: t.Apply(u.Position),
		Rotation: t.Rotation.Mul(u.Rotation),
	}
}

// Inverse returns the inverse transformation.
func (t Transform) Inverse() Transform {
	inv := t.Rotation.Inverse()
	return Transform{
		Position: inv.Rotate(t.Position.Mul(-1)),
		Rotation: inv,
	}
}

// ApplyInverse transforms the point p from parent into local coordinates.
// Equivalent to t.Inverse().Apply(p) without building the inverse.
func (t Transform) ApplyInverse(p mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Inverse().Rotate(p.Sub(t.Position))
}
