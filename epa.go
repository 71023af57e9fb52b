package chrono

import (
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	maxEpaIterations = 32
	epaTolerance     = 1e-4
)

// epaResult is the penetration information for two overlapping cores: the
// minimum translation normal pointing from shape A toward shape B, the
// penetration depth along it, and the witness points on both core surfaces.
type epaResult struct {
	normal mgl64.Vec3
	depth  float64
	pa, pb mgl64.Vec3
}

type epaFace struct {
	pts    [3]minkowskiPoint
	normal mgl64.Vec3
	dist   float64
}

// epa expands the GJK termination simplex into a polytope on the Minkowski
// difference boundary until the face closest to the origin is found. That
// face's normal and plane distance are the contact normal and penetration
// depth; the witness points come from barycentric interpolation of the
// cached support pairs.
func epa(support supportFunc, s simplex, fallback mgl64.Vec3) epaResult {
	if s.count < 4 {
		return epaDegenerate(s, fallback)
	}

	faces := buildInitialFaces(s)
	if len(faces) == 0 {
		return epaDegenerate(s, fallback)
	}

	for iter := 0; iter < maxEpaIterations; iter++ {
		ci := closestFaceIndex(faces)
		face := faces[ci]

		// A closest face at distance zero is a valid answer (origin on
		// the polytope boundary); the convergence test below decides
		// whether it is final. Dropping it would open the polytope.
		sup := support(face.normal)
		if sup.p.Dot(face.normal)-face.dist < epaTolerance {
			return faceResult(face)
		}
		faces = expandPolytope(faces, sup, ci)
		if len(faces) == 0 {
			return epaDegenerate(s, fallback)
		}
	}

	log.Println("Warning: EPA iteration limit reached")
	return faceResult(faces[closestFaceIndex(faces)])
}

// epaDegenerate resolves configurations where GJK terminated with an
// incomplete simplex (exactly touching surfaces, coincident centers). The
// closest available Minkowski point stands in for the closest face; if even
// that is degenerate the fallback direction (center offset or +X) breaks
// the tie deterministically.
func epaDegenerate(s simplex, fallback mgl64.Vec3) epaResult {
	best := -1
	bestDist := math.Inf(1)
	for i := 0; i < s.count; i++ {
		if d := s.pts[i].p.Len(); d < bestDist {
			bestDist = d
			best = i
		}
	}

	normal := fallback
	if normal.LenSqr() < magicEpsilon {
		normal = mgl64.Vec3{1, 0, 0}
	}
	normal = normal.Normalize()

	if best < 0 {
		return epaResult{normal: normal}
	}

	pt := s.pts[best]
	depth := bestDist
	if bestDist >= magicEpsilon {
		normal = pt.p.Mul(1 / bestDist)
	}
	return epaResult{normal: normal, depth: depth, pa: pt.a, pb: pt.b}
}

func faceResult(f epaFace) epaResult {
	q := f.normal.Mul(f.dist)
	u, v, w := barycentric(f.pts[0].p, f.pts[1].p, f.pts[2].p, q)
	return epaResult{
		normal: f.normal,
		depth:  f.dist,
		pa:     f.pts[0].a.Mul(u).Add(f.pts[1].a.Mul(v)).Add(f.pts[2].a.Mul(w)),
		pb:     f.pts[0].b.Mul(u).Add(f.pts[1].b.Mul(v)).Add(f.pts[2].b.Mul(w)),
	}
}

// barycentric returns the barycentric coordinates of q in triangle abc,
// falling back to the centroid for degenerate triangles.
func barycentric(a, b, c, q mgl64.Vec3) (u, v, w float64) {
	v0 := b.Sub(a)
	v1 := c.Sub(a)
	v2 := q.Sub(a)
	d00 := v0.Dot(v0)
	d01 := v0.Dot(v1)
	d11 := v1.Dot(v1)
	d20 := v2.Dot(v0)
	d21 := v2.Dot(v1)
	denom := d00*d11 - d01*d01
	if math.Abs(denom) < 1e-18 {
		return 1.0 / 3, 1.0 / 3, 1.0 / 3
	}
	v = (d11*d20 - d01*d21) / denom
	w = (d00*d21 - d01*d20) / denom
	u = 1 - v - w
	return
}

// newFaceOutward builds a face over a, b, c with its normal oriented away
// from opposite (and away from the origin).
func newFaceOutward(a, b, c minkowskiPoint, opposite mgl64.Vec3) (epaFace, bool) {
	f := epaFace{pts: [3]minkowskiPoint{a, b, c}}
	n := b.p.Sub(a.p).Cross(c.p.Sub(a.p))
	if n.LenSqr() < 1e-18 {
		return f, false
	}
	n = n.Normalize()
	if n.Dot(opposite.Sub(a.p)) > 0 {
		n = n.Mul(-1)
	}
	dist := a.p.Dot(n)
	if dist < 0 {
		n = n.Mul(-1)
		dist = -dist
	}
	f.normal = n
	f.dist = dist
	return f, true
}

func buildInitialFaces(s simplex) []epaFace {
	a, b, c, d := s.pts[0], s.pts[1], s.pts[2], s.pts[3]
	candidates := [4][4]minkowskiPoint{
		{a, b, c, d},
		{a, c, d, b},
		{a, d, b, c},
		{b, d, c, a},
	}
	faces := make([]epaFace, 0, 8)
	for _, cand := range candidates {
		if f, ok := newFaceOutward(cand[0], cand[1], cand[2], cand[3].p); ok {
			faces = append(faces, f)
		}
	}
	return faces
}

func closestFaceIndex(faces []epaFace) int {
	best := 0
	for i := 1; i < len(faces); i++ {
		if faces[i].dist < faces[best].dist {
			best = i
		}
	}
	return best
}

type epaEdge struct {
	a, b minkowskiPoint
}

func edgeKey(e epaEdge) [2]mgl64.Vec3 {
	if lessVec3(e.b.p, e.a.p) {
		return [2]mgl64.Vec3{e.b.p, e.a.p}
	}
	return [2]mgl64.Vec3{e.a.p, e.b.p}
}

func lessVec3(a, b mgl64.Vec3) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	if a[1] != b[1] {
		return a[1] < b[1]
	}
	return a[2] < b[2]
}

// expandPolytope inserts the support point sup: faces visible from it are
// removed and the resulting hole is re-triangulated against sup through the
// boundary edges (edges shared by exactly one visible face).
func expandPolytope(faces []epaFace, sup minkowskiPoint, closest int) []epaFace {
	var centroid mgl64.Vec3
	for _, f := range faces {
		for _, p := range f.pts {
			centroid = centroid.Add(p.p)
		}
	}
	centroid = centroid.Mul(1 / float64(3*len(faces)))

	visible := make([]int, 0, len(faces))
	for i, f := range faces {
		if sup.p.Sub(f.pts[0].p).Dot(f.normal) > 0 {
			visible = append(visible, i)
		}
	}
	if len(visible) == 0 {
		visible = append(visible, closest)
	}
	if len(visible) == len(faces) {
		visible = visible[:1]
		visible[0] = closest
	}

	// Boundary edges are collected in face order, not map order, so the
	// rebuilt polytope is identical from run to run.
	edgeCount := make(map[[2]mgl64.Vec3]int)
	var ordered []epaEdge
	for _, fi := range visible {
		f := faces[fi]
		edges := [3]epaEdge{
			{f.pts[0], f.pts[1]},
			{f.pts[1], f.pts[2]},
			{f.pts[2], f.pts[0]},
		}
		for _, e := range edges {
			edgeCount[edgeKey(e)]++
			ordered = append(ordered, e)
		}
	}

	for i := len(visible) - 1; i >= 0; i-- {
		fi := visible[i]
		faces = append(faces[:fi], faces[fi+1:]...)
	}

	for _, e := range ordered {
		if edgeCount[edgeKey(e)] != 1 {
			continue
		}
		if f, ok := newFaceOutward(e.a, e.b, sup, centroid); ok {
			faces = append(faces, f)
		}
	}
	return faces
}
