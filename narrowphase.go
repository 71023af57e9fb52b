package chrono

import "github.com/go-gl/mathgl/mgl64"

// narrowphase resolves every broadphase candidate pair into exact contact
// geometry. Dispatch is a lookup table keyed by the canonically ordered
// shape-type pair: primitive combinations use closed-form functions, hulls
// and remaining convex combinations go through GJK/EPA, and meshes take the
// per-triangle path. Compounds are decomposed into their convex leaves
// before dispatch.
//
// Pairs are processed in parallel, each writing into its own result slot;
// a sequential compaction in (sorted) pair order then produces a contact
// list that is identical regardless of thread count.
type narrowphase struct {
	data    *collisionData
	results [][]Contact
}

// narrowphaseInfo carries one leaf shape pair through collision dispatch.
// The operands are in canonical type order (a.Type <= b.Type); idA/idB are
// the registered top-level shape ids the contact records refer to, which
// follow the operands through any swap.
type narrowphaseInfo struct {
	a, b         *Shape
	ta, tb       Transform
	idA, idB     ShapeID
	bodyA, bodyB BodyID
	envelope     float64
	contacts     *[]Contact
}

// pushContact appends one contact in operand orientation: the normal points
// from operand a toward operand b.
func (info *narrowphaseInfo) pushContact(pa, pb, n mgl64.Vec3, depth float64) {
	m := info.a.Material.combine(info.b.Material)
	*info.contacts = append(*info.contacts, Contact{
		ShapeA:      info.idA,
		ShapeB:      info.idB,
		BodyA:       info.bodyA,
		BodyB:       info.bodyB,
		PointA:      pa,
		PointB:      pb,
		Normal:      n,
		Depth:       depth,
		Friction:    m.Friction,
		Restitution: m.Restitution,
	})
}

type collisionFunc func(info *narrowphaseInfo)

// primitiveFuncs maps a canonically ordered shape-type pair to its
// closed-form collision function, indexed the same way the dispatch works:
// a.Type + b.Type*shapeTypeCount with a.Type <= b.Type. Entries left nil
// fall back to the generic convex path under the hybrid policy.
var primitiveFuncs [int(shapeTypeCount) * int(shapeTypeCount)]collisionFunc

func registerPrimitive(a, b ShapeType, fn collisionFunc) {
	if a > b {
		panic("chrono: primitive functions are registered in sorted type order")
	}
	primitiveFuncs[int(a)+int(b)*int(shapeTypeCount)] = fn
}

func init() {
	registerPrimitive(Sphere, Sphere, sphereSphere)
	registerPrimitive(Sphere, Box, sphereBox)
	registerPrimitive(Sphere, Capsule, sphereCapsule)
	registerPrimitive(Sphere, Cylinder, sphereCylinder)
	registerPrimitive(Capsule, Capsule, capsuleCapsule)
}

func (np *narrowphase) process(cfg *settings, workers int) {
	d := np.data
	n := len(d.pairs)

	if cap(np.results) < n {
		grown := make([][]Contact, n)
		copy(grown, np.results[:cap(np.results)])
		np.results = grown
	}
	np.results = np.results[:n]

	parallelFor(n, workers, func(start, end int) {
		for i := start; i < end; i++ {
			np.results[i] = np.results[i][:0]
			np.collidePair(d.pairs[i], &np.results[i], cfg)
		}
	})

	// Deterministic compaction in pair order.
	d.contacts = d.contacts[:0]
	for i := range np.results {
		d.contacts = append(d.contacts, np.results[i]...)
	}
}

type leafShape struct {
	s  *Shape
	wt Transform
}

// collectLeaves flattens a (possibly compound) registered shape into its
// convex or mesh leaves with composed world transforms. Leaf order is the
// child declaration order, so the contact output stays deterministic.
func collectLeaves(s *Shape, wt Transform, buf []leafShape) []leafShape {
	if s.Type != Compound {
		return append(buf, leafShape{s: s, wt: wt})
	}
	for _, c := range s.Children {
		buf = collectLeaves(c, wt.Mult(c.Local), buf)
	}
	return buf
}

func (np *narrowphase) collidePair(pair Pair, out *[]Contact, cfg *settings) {
	d := np.data
	sa, sb := d.shapes[pair.A], d.shapes[pair.B]
	ta := d.bodyTransform(pair.A).Mult(sa.Local)
	tb := d.bodyTransform(pair.B).Mult(sb.Local)

	var bufA, bufB [8]leafShape
	leavesA := collectLeaves(sa, ta, bufA[:0])
	leavesB := collectLeaves(sb, tb, bufB[:0])
	multi := len(leavesA) > 1 || len(leavesB) > 1

	for _, la := range leavesA {
		var boxA AABB
		if multi {
			boxA = worldAABB(la.s, la.wt).Inflate(cfg.envelope)
		}
		for _, lb := range leavesB {
			if multi {
				boxB := worldAABB(lb.s, lb.wt).Inflate(cfg.envelope)
				if !boxA.Intersects(boxB) {
					continue
				}
			}
			np.collideLeaves(pair, la, lb, out, cfg)
		}
	}

	// Dispatch may have swapped operands into type order; contact
	// records always come out in candidate-pair orientation.
	for i := range *out {
		c := &(*out)[i]
		if c.ShapeA != pair.A {
			c.ShapeA, c.ShapeB = c.ShapeB, c.ShapeA
			c.BodyA, c.BodyB = c.BodyB, c.BodyA
			c.PointA, c.PointB = c.PointB, c.PointA
			c.Normal = c.Normal.Mul(-1)
		}
	}
}

func (np *narrowphase) collideLeaves(pair Pair, la, lb leafShape, out *[]Contact, cfg *settings) {
	d := np.data
	info := narrowphaseInfo{
		a: la.s, b: lb.s,
		ta: la.wt, tb: lb.wt,
		idA: pair.A, idB: pair.B,
		// Compound leaves carry no registration of their own; contact
		// records always name the top-level shapes and their bodies.
		bodyA: d.shapes[pair.A].body, bodyB: d.shapes[pair.B].body,
		envelope: cfg.envelope,
		contacts: out,
	}
	// Sort operands by type so the table and the mesh path see a
	// canonical ordering.
	if info.a.Type > info.b.Type {
		info.a, info.b = info.b, info.a
		info.ta, info.tb = info.tb, info.ta
		info.idA, info.idB = info.idB, info.idA
		info.bodyA, info.bodyB = info.bodyB, info.bodyA
	}

	if info.b.Type == TriangleMeshType {
		if cfg.algorithm != AlgorithmPrimitive {
			meshCollide(&info)
		}
		return
	}

	switch cfg.algorithm {
	case AlgorithmPrimitive:
		if fn := primitiveFuncs[int(info.a.Type)+int(info.b.Type)*int(shapeTypeCount)]; fn != nil {
			fn(&info)
		}
	case AlgorithmGeneric:
		convexConvex(&info)
	default: // AlgorithmHybrid
		if fn := primitiveFuncs[int(info.a.Type)+int(info.b.Type)*int(shapeTypeCount)]; fn != nil {
			fn(&info)
		} else {
			convexConvex(&info)
		}
	}
}

// convexConvex is the generic convex path. The support functions sample the
// shape cores with margins stripped, so EPA only ever runs on pure polytopes
// for box, hull and capsule cores; the margins are folded back in
// analytically by marginContact.
func convexConvex(info *narrowphaseInfo) {
	a, b := info.a, info.b
	ta, tb := info.ta, info.tb

	support := func(d mgl64.Vec3) minkowskiPoint {
		pa := supportWorld(a, ta, d, 0)
		pb := supportWorld(b, tb, d.Mul(-1), 0)
		return minkowskiPoint{p: pa.Sub(pb), a: pa, b: pb}
	}

	initDir := tb.Position.Sub(ta.Position)
	marginContact(info, support, initDir, a.margin(), b.margin())
}

// marginContact resolves one core support function into a contact.
// Separated cores go through the closest-point query, overlapping cores
// through EPA; either way the spherical margins of both operands are
// reapplied along the contact normal, so the reported depth and witness
// points refer to the true surfaces. A pair separated by more than twice
// the envelope beyond its margins is dropped.
func marginContact(info *narrowphaseInfo, support supportFunc, initDir mgl64.Vec3, marginA, marginB float64) {
	pa, pb, dist, overlap := gjkDistance(support, initDir)

	if !overlap {
		depth := marginA + marginB - dist
		if depth <= -2*info.envelope {
			return
		}
		n := pb.Sub(pa).Mul(1 / dist)
		info.pushContact(pa.Add(n.Mul(marginA)), pb.Sub(n.Mul(marginB)), n, depth)
		return
	}

	s, hit := gjk(support, initDir)
	if !hit {
		return
	}
	res := epa(support, s, initDir)
	n := res.normal
	info.pushContact(
		res.pa.Add(n.Mul(marginA)),
		res.pb.Sub(n.Mul(marginB)),
		n,
		res.depth+marginA+marginB,
	)
}
