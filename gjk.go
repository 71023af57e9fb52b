package chrono

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	maxGjkIterations         = 32
	maxGjkDistanceIterations = 64
)

// minkowskiPoint is a point on the surface of two shapes' Minkowski
// difference. The source support points are cached so the closest feature
// can be mapped back to witness points on both surfaces.
type minkowskiPoint struct {
	p    mgl64.Vec3 // a - b
	a, b mgl64.Vec3
}

// supportFunc returns the Minkowski-difference support point along d.
// Implementations close over the two shape cores and their world
// transforms; spherical margins are reapplied by the caller.
type supportFunc func(d mgl64.Vec3) minkowskiPoint

// simplex is the working set of 1-4 Minkowski points built by GJK. The
// most recently added point lives at the highest index.
type simplex struct {
	pts   [4]minkowskiPoint
	count int
}

// gjk reports whether the Minkowski difference sampled by support contains
// the origin, i.e. whether the two cores overlap. On a hit the returned
// simplex seeds EPA; initDir is a warm-start direction, typically the
// center offset between the shapes.
func gjk(support supportFunc, initDir mgl64.Vec3) (simplex, bool) {
	var s simplex

	dir := initDir
	if dir.LenSqr() < magicEpsilon {
		dir = mgl64.Vec3{1, 0, 0}
	}

	s.pts[0] = support(dir)
	s.count = 1
	dir = s.pts[0].p.Mul(-1)
	if dir.LenSqr() < 1e-16 {
		// First support point is the origin: surfaces touch exactly.
		return s, true
	}

	for i := 0; i < maxGjkIterations; i++ {
		p := support(dir)
		if p.p.Dot(dir) <= 0 {
			// The new point cannot pass the origin in the search
			// direction: proven separated.
			return s, false
		}
		s.pts[s.count] = p
		s.count++
		if simplexContainsOrigin(&s, &dir) {
			return s, true
		}
	}
	return s, false
}

// gjkDistance returns the closest points between the two convex cores
// sampled by support and the distance between them. overlap reports that the
// cores themselves intersect; penetration then needs EPA. The witness points
// come from barycentric interpolation over the closest simplex feature, the
// same way EPA maps its closest face back to the surfaces.
func gjkDistance(support supportFunc, initDir mgl64.Vec3) (pa, pb mgl64.Vec3, dist float64, overlap bool) {
	dir := initDir
	if dir.LenSqr() < magicEpsilon {
		dir = mgl64.Vec3{1, 0, 0}
	}
	var s simplex
	s.pts[0] = support(dir)
	s.count = 1

	for i := 0; i < maxGjkDistanceIterations; i++ {
		v, wa, wb := closestOnSimplex(&s)
		vv := v.LenSqr()
		if vv < 1e-18 {
			// Origin on or inside the simplex: the cores overlap.
			return wa, wb, 0, true
		}
		p := support(v.Mul(-1))
		// The new support point cannot get closer to the origin than
		// the current witness: converged.
		if vv-v.Dot(p.p) <= 1e-12*vv {
			return wa, wb, math.Sqrt(vv), false
		}
		s.pts[s.count] = p
		s.count++
	}

	v, wa, wb := closestOnSimplex(&s)
	return wa, wb, v.Len(), false
}

// closestOnSimplex computes the point of the simplex closest to the origin
// with its witness points on both cores, reducing the simplex to the feature
// supporting that point.
func closestOnSimplex(s *simplex) (v, pa, pb mgl64.Vec3) {
	switch s.count {
	case 1:
		p := s.pts[0]
		return p.p, p.a, p.b
	case 2:
		return closestOnSegmentFeature(s)
	case 3:
		return closestOnTriangleFeature(s)
	}
	return closestOnTetrahedronFeature(s)
}

func lerpMinkowski(a, b minkowskiPoint, t float64) (v, pa, pb mgl64.Vec3) {
	return a.p.Add(b.p.Sub(a.p).Mul(t)),
		a.a.Add(b.a.Sub(a.a).Mul(t)),
		a.b.Add(b.b.Sub(a.b).Mul(t))
}

func closestOnSegmentFeature(s *simplex) (v, pa, pb mgl64.Vec3) {
	a, b := s.pts[0], s.pts[1]
	ab := b.p.Sub(a.p)
	den := ab.LenSqr()
	t := 0.0
	if den > 1e-18 {
		t = clamp01(-a.p.Dot(ab) / den)
	}
	switch {
	case t <= 0:
		s.count = 1
		return a.p, a.a, a.b
	case t >= 1:
		s.pts[0] = b
		s.count = 1
		return b.p, b.a, b.b
	}
	return lerpMinkowski(a, b, t)
}

// closestOnTriangleFeature is the Voronoi-region walk over a triangle's
// vertices, edges and face.
func closestOnTriangleFeature(s *simplex) (v, pa, pb mgl64.Vec3) {
	a, b, c := s.pts[0], s.pts[1], s.pts[2]
	ab := b.p.Sub(a.p)
	ac := c.p.Sub(a.p)
	ao := a.p.Mul(-1)
	d1 := ab.Dot(ao)
	d2 := ac.Dot(ao)
	if d1 <= 0 && d2 <= 0 {
		s.count = 1
		return a.p, a.a, a.b
	}

	bo := b.p.Mul(-1)
	d3 := ab.Dot(bo)
	d4 := ac.Dot(bo)
	if d3 >= 0 && d4 <= d3 {
		s.pts[0] = b
		s.count = 1
		return b.p, b.a, b.b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		s.count = 2
		return lerpMinkowski(a, b, d1/(d1-d3))
	}

	co := c.p.Mul(-1)
	d5 := ab.Dot(co)
	d6 := ac.Dot(co)
	if d6 >= 0 && d5 <= d6 {
		s.pts[0] = c
		s.count = 1
		return c.p, c.a, c.b
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		s.pts[1] = c
		s.count = 2
		return lerpMinkowski(a, c, d2/(d2-d6))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		s.pts[0] = b
		s.pts[1] = c
		s.count = 2
		return lerpMinkowski(b, c, (d4-d3)/((d4-d3)+(d5-d6)))
	}

	denom := va + vb + vc
	if math.Abs(denom) < 1e-30 {
		// Collinear points: fall back to the first edge.
		s.count = 2
		return closestOnSegmentFeature(s)
	}
	wv := vb / denom
	ww := vc / denom
	wu := 1 - wv - ww
	return a.p.Mul(wu).Add(b.p.Mul(wv)).Add(c.p.Mul(ww)),
		a.a.Mul(wu).Add(b.a.Mul(wv)).Add(c.a.Mul(ww)),
		a.b.Mul(wu).Add(b.b.Mul(wv)).Add(c.b.Mul(ww))
}

// closestOnTetrahedronFeature tests the origin against each face plane and
// reduces to the closest outside face, or reports containment with a zero
// closest point.
func closestOnTetrahedronFeature(s *simplex) (v, pa, pb mgl64.Vec3) {
	pts := s.pts
	faces := [4][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}}
	opposite := [4]int{3, 2, 1, 0}

	found := false
	bestDist := math.Inf(1)
	var bestSimplex simplex
	var bestV, bestPa, bestPb mgl64.Vec3

	for i, f := range faces {
		a, b, c := pts[f[0]], pts[f[1]], pts[f[2]]
		n := b.p.Sub(a.p).Cross(c.p.Sub(a.p))
		sideO := n.Dot(a.p.Mul(-1))
		sideD := n.Dot(pts[opposite[i]].p.Sub(a.p))
		if sideO*sideD >= 0 {
			// Origin is not outside this face.
			continue
		}
		var t simplex
		t.pts[0], t.pts[1], t.pts[2] = a, b, c
		t.count = 3
		fv, fpa, fpb := closestOnTriangleFeature(&t)
		if d := fv.LenSqr(); d < bestDist {
			found = true
			bestDist = d
			bestSimplex = t
			bestV, bestPa, bestPb = fv, fpa, fpb
		}
	}
	if !found {
		return mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{}
	}
	*s = bestSimplex
	return bestV, bestPa, bestPb
}

// simplexContainsOrigin tests the simplex against the origin, reduces it to
// its closest feature and updates the search direction.
func simplexContainsOrigin(s *simplex, dir *mgl64.Vec3) bool {
	switch s.count {
	case 2:
		return simplexLine(s, dir)
	case 3:
		return simplexTriangle(s, dir)
	case 4:
		return simplexTetrahedron(s, dir)
	}
	return false
}

func simplexLine(s *simplex, dir *mgl64.Vec3) bool {
	a := s.pts[1] // newest
	b := s.pts[0]
	ab := b.p.Sub(a.p)
	ao := a.p.Mul(-1)

	if ab.LenSqr() < 1e-16 {
		if ao.LenSqr() < 1e-16 {
			return true
		}
		s.pts[0] = a
		s.count = 1
		*dir = ao
		return false
	}

	if ab.Dot(ao) <= 0 {
		// Voronoi region of A alone.
		s.pts[0] = a
		s.count = 1
		*dir = ao
		return false
	}

	perp := ab.Cross(ao).Cross(ab)
	if perp.LenSqr() < 1e-18 {
		// Origin lies on the segment.
		return true
	}
	*dir = perp
	return false
}

func simplexTriangle(s *simplex, dir *mgl64.Vec3) bool {
	a := s.pts[2] // newest
	b := s.pts[1]
	c := s.pts[0]

	ab := b.p.Sub(a.p)
	ac := c.p.Sub(a.p)
	ao := a.p.Mul(-1)
	abc := ab.Cross(ac)

	if abc.LenSqr() < 1e-18 {
		// Collinear points: fall back to the newest edge.
		s.pts[0] = b
		s.pts[1] = a
		s.count = 2
		return simplexLine(s, dir)
	}

	if ab.Cross(abc).Dot(ao) > 0 {
		s.pts[0] = b
		s.pts[1] = a
		s.count = 2
		*dir = ab.Cross(ao).Cross(ab)
		return false
	}
	if abc.Cross(ac).Dot(ao) > 0 {
		s.pts[0] = c
		s.pts[1] = a
		s.count = 2
		*dir = ac.Cross(ao).Cross(ac)
		return false
	}

	if abc.Dot(ao) > 0 {
		*dir = abc
	} else {
		// Origin below the triangle: flip the winding so the next
		// tetrahedron case sees consistent orientation.
		s.pts[0], s.pts[1] = s.pts[1], s.pts[0]
		*dir = abc.Mul(-1)
	}
	return false
}

func simplexTetrahedron(s *simplex, dir *mgl64.Vec3) bool {
	a := s.pts[3] // newest
	b := s.pts[2]
	c := s.pts[1]
	d := s.pts[0]

	ab := b.p.Sub(a.p)
	ac := c.p.Sub(a.p)
	ad := d.p.Sub(a.p)
	ao := a.p.Mul(-1)

	abc := ab.Cross(ac)
	acd := ac.Cross(ad)
	adb := ad.Cross(ab)

	// Orient each face normal away from the opposite vertex.
	if abc.Dot(ad) > 0 {
		abc = abc.Mul(-1)
	}
	if acd.Dot(ab) > 0 {
		acd = acd.Mul(-1)
	}
	if adb.Dot(ac) > 0 {
		adb = adb.Mul(-1)
	}

	if abc.Dot(ao) > 0 {
		s.pts[0] = c
		s.pts[1] = b
		s.pts[2] = a
		s.count = 3
		return simplexTriangle(s, dir)
	}
	if acd.Dot(ao) > 0 {
		s.pts[0] = d
		s.pts[1] = c
		s.pts[2] = a
		s.count = 3
		return simplexTriangle(s, dir)
	}
	if adb.Dot(ao) > 0 {
		s.pts[0] = b
		s.pts[1] = d
		s.pts[2] = a
		s.count = 3
		return simplexTriangle(s, dir)
	}

	// Origin is inside all four faces.
	return true
}
