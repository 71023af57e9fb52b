package chrono

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Closed-form narrowphase functions for primitive shape combinations.
// Operands arrive in canonical type order (see registerPrimitive), the
// normal points from operand a toward operand b, and a pair is kept while
// its true-surface depth exceeds -2*envelope (both shapes inflated by the
// envelope). Degenerate configurations resolve to the +X axis rather than
// producing NaNs.

func sphereSphere(info *narrowphaseInfo) {
	ca := info.ta.Position
	cb := info.tb.Position
	ra, rb := info.a.Radius, info.b.Radius

	rsum := ra + rb
	reach := rsum + 2*info.envelope
	delta := cb.Sub(ca)
	distSq := delta.LenSqr()
	if distSq >= reach*reach {
		return
	}

	dist := math.Sqrt(distSq)
	n := mgl64.Vec3{1, 0, 0}
	if dist > magicEpsilon {
		n = delta.Mul(1 / dist)
	}
	info.pushContact(ca.Add(n.Mul(ra)), cb.Sub(n.Mul(rb)), n, rsum-dist)
}

func sphereBox(info *narrowphaseInfo) {
	ca := info.ta.Position
	ra := info.a.Radius
	h := info.b.HalfExtents

	l := info.tb.ApplyInverse(ca)
	closest := mgl64.Vec3{
		clamp(l[0], -h[0], h[0]),
		clamp(l[1], -h[1], h[1]),
		clamp(l[2], -h[2], h[2]),
	}
	delta := l.Sub(closest)
	distSq := delta.LenSqr()

	if distSq > magicEpsilon*magicEpsilon {
		// Sphere center outside the box.
		dist := math.Sqrt(distSq)
		depth := ra - dist
		if depth <= -2*info.envelope {
			return
		}
		n := info.tb.ApplyVector(delta.Mul(-1 / dist))
		info.pushContact(ca.Add(n.Mul(ra)), info.tb.Apply(closest), n, depth)
		return
	}

	// Center inside the box: push out through the least-penetrated face,
	// lowest axis first on ties.
	axis := 0
	for i := 1; i < 3; i++ {
		if h[i]-math.Abs(l[i]) < h[axis]-math.Abs(l[axis]) {
			axis = i
		}
	}
	sign := 1.0
	if l[axis] < 0 {
		sign = -1
	}
	var outLocal mgl64.Vec3
	outLocal[axis] = sign
	depth := ra + h[axis] - math.Abs(l[axis])

	surface := l
	surface[axis] = sign * h[axis]
	n := info.tb.ApplyVector(outLocal).Mul(-1)
	info.pushContact(ca.Add(n.Mul(ra)), info.tb.Apply(surface), n, depth)
}

func sphereCapsule(info *narrowphaseInfo) {
	ca := info.ta.Position
	ra, rb := info.a.Radius, info.b.Radius
	hl := info.b.HalfLength

	p0 := info.tb.Apply(mgl64.Vec3{0, -hl, 0})
	p1 := info.tb.Apply(mgl64.Vec3{0, hl, 0})
	closest := closestPointOnSegment(ca, p0, p1)

	rsum := ra + rb
	reach := rsum + 2*info.envelope
	delta := closest.Sub(ca)
	distSq := delta.LenSqr()
	if distSq >= reach*reach {
		return
	}

	dist := math.Sqrt(distSq)
	n := mgl64.Vec3{1, 0, 0}
	if dist > magicEpsilon {
		n = delta.Mul(1 / dist)
	}
	info.pushContact(ca.Add(n.Mul(ra)), closest.Sub(n.Mul(rb)), n, rsum-dist)
}

func sphereCylinder(info *narrowphaseInfo) {
	ca := info.ta.Position
	ra := info.a.Radius
	r, hl := info.b.Radius, info.b.HalfLength

	l := info.tb.ApplyInverse(ca)
	radial := math.Hypot(l[0], l[2])

	if math.Abs(l[1]) > hl || radial > r {
		// Center outside the solid cylinder: clamp to its surface.
		cl := l
		cl[1] = clamp(l[1], -hl, hl)
		if radial > r {
			k := r / radial
			cl[0], cl[2] = l[0]*k, l[2]*k
		}
		delta := l.Sub(cl)
		dist := delta.Len()
		if dist > magicEpsilon {
			depth := ra - dist
			if depth <= -2*info.envelope {
				return
			}
			n := info.tb.ApplyVector(delta.Mul(-1 / dist))
			info.pushContact(ca.Add(n.Mul(ra)), info.tb.Apply(cl), n, depth)
			return
		}
		// Center numerically on the surface; fall through to the
		// interior resolution below.
	}

	// Center inside: compare the axial and radial escapes.
	axialDepth := hl - math.Abs(l[1])
	radialDepth := r - radial
	var outLocal, surface mgl64.Vec3
	var depth float64
	if axialDepth <= radialDepth {
		sign := 1.0
		if l[1] < 0 {
			sign = -1
		}
		outLocal = mgl64.Vec3{0, sign, 0}
		surface = mgl64.Vec3{l[0], sign * hl, l[2]}
		depth = ra + axialDepth
	} else {
		if radial > magicEpsilon {
			outLocal = mgl64.Vec3{l[0] / radial, 0, l[2] / radial}
		} else {
			outLocal = mgl64.Vec3{1, 0, 0}
		}
		surface = outLocal.Mul(r)
		surface[1] = l[1]
		depth = ra + radialDepth
	}
	n := info.tb.ApplyVector(outLocal).Mul(-1)
	info.pushContact(ca.Add(n.Mul(ra)), info.tb.Apply(surface), n, depth)
}

func capsuleCapsule(info *narrowphaseInfo) {
	ra, rb := info.a.Radius, info.b.Radius
	ha, hb := info.a.HalfLength, info.b.HalfLength

	p0 := info.ta.Apply(mgl64.Vec3{0, -ha, 0})
	p1 := info.ta.Apply(mgl64.Vec3{0, ha, 0})
	q0 := info.tb.Apply(mgl64.Vec3{0, -hb, 0})
	q1 := info.tb.Apply(mgl64.Vec3{0, hb, 0})

	cpa, cpb := closestPointsSegmentSegment(p0, p1, q0, q1)

	rsum := ra + rb
	reach := rsum + 2*info.envelope
	delta := cpb.Sub(cpa)
	distSq := delta.LenSqr()
	if distSq >= reach*reach {
		return
	}

	dist := math.Sqrt(distSq)
	n := mgl64.Vec3{1, 0, 0}
	if dist > magicEpsilon {
		n = delta.Mul(1 / dist)
	}
	info.pushContact(cpa.Add(n.Mul(ra)), cpb.Sub(n.Mul(rb)), n, rsum-dist)
}

// closestPointOnSegment returns the point on segment ab closest to p.
func closestPointOnSegment(p, a, b mgl64.Vec3) mgl64.Vec3 {
	ab := b.Sub(a)
	den := ab.LenSqr()
	if den < magicEpsilon*magicEpsilon {
		return a
	}
	t := clamp01(ab.Dot(p.Sub(a)) / den)
	return a.Add(ab.Mul(t))
}

// closestPointsSegmentSegment returns the closest points between segments
// p0p1 and q0q1. Parallel segments resolve through the clamping sequence,
// which always picks the same witness pair for a given input.
func closestPointsSegmentSegment(p0, p1, q0, q1 mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	d1 := p1.Sub(p0)
	d2 := q1.Sub(q0)
	r := p0.Sub(q0)
	a := d1.LenSqr()
	e := d2.LenSqr()
	f := d2.Dot(r)

	var s, t float64
	switch {
	case a < 1e-18 && e < 1e-18:
		return p0, q0
	case a < 1e-18:
		t = clamp01(f / e)
	case e < 1e-18:
		s = clamp01(-d1.Dot(r) / a)
	default:
		c := d1.Dot(r)
		b := d1.Dot(d2)
		den := a*e - b*b
		if den > 1e-18 {
			s = clamp01((b*f - c*e) / den)
		}
		t = (b*s + f) / e
		if t < 0 {
			t = 0
			s = clamp01(-c / a)
		} else if t > 1 {
			t = 1
			s = clamp01((b - c) / a)
		}
	}
	return p0.Add(d1.Mul(s)), q0.Add(d2.Mul(t))
}
