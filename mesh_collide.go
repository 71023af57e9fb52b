package chrono

import "github.com/go-gl/mathgl/mgl64"

// Mesh narrowphase path: triangles are treated as convex cores and resolved
// against the other operand's core through the shared margin machinery,
// after a per-triangle AABB prefilter. Triangles are visited in index order
// so mesh contacts are deterministic; one contact is produced per contacting
// triangle.
//
// meshCollide expects canonical operand order, so info.b is always a mesh.
func meshCollide(info *narrowphaseInfo) {
	if info.a.Type == TriangleMeshType {
		meshMesh(info)
		return
	}
	convexMesh(info)
}

func convexMesh(info *narrowphaseInfo) {
	a := info.a
	mesh := info.b.Mesh
	env := info.envelope

	aBox := worldAABB(a, info.ta).Inflate(env)
	for i := 0; i < mesh.TriangleCount(); i++ {
		v0, v1, v2 := worldTriangle(mesh, i, info.tb)
		if !aBox.Intersects(triangleAABB(v0, v1, v2).Inflate(env)) {
			continue
		}

		support := func(d mgl64.Vec3) minkowskiPoint {
			pa := supportWorld(a, info.ta, d, 0)
			pb := supportTriangle(v0, v1, v2, d.Mul(-1))
			return minkowskiPoint{p: pa.Sub(pb), a: pa, b: pb}
		}
		initDir := triangleCentroid(v0, v1, v2).Sub(info.ta.Position)
		marginContact(info, support, initDir, a.margin(), 0)
	}
}

func meshMesh(info *narrowphaseInfo) {
	ma := info.a.Mesh
	mb := info.b.Mesh
	env := info.envelope

	for i := 0; i < ma.TriangleCount(); i++ {
		a0, a1, a2 := worldTriangle(ma, i, info.ta)
		boxA := triangleAABB(a0, a1, a2).Inflate(env)
		ca := triangleCentroid(a0, a1, a2)
		for j := 0; j < mb.TriangleCount(); j++ {
			b0, b1, b2 := worldTriangle(mb, j, info.tb)
			if !boxA.Intersects(triangleAABB(b0, b1, b2).Inflate(env)) {
				continue
			}

			support := func(d mgl64.Vec3) minkowskiPoint {
				pa := supportTriangle(a0, a1, a2, d)
				pb := supportTriangle(b0, b1, b2, d.Mul(-1))
				return minkowskiPoint{p: pa.Sub(pb), a: pa, b: pb}
			}
			initDir := triangleCentroid(b0, b1, b2).Sub(ca)
			marginContact(info, support, initDir, 0, 0)
		}
	}
}

func worldTriangle(m *TriangleMesh, i int, wt Transform) (a, b, c mgl64.Vec3) {
	la, lb, lc := m.Triangle(i)
	return wt.Apply(la), wt.Apply(lb), wt.Apply(lc)
}

func triangleAABB(a, b, c mgl64.Vec3) AABB {
	return pointAABB(a).Expand(b).Expand(c)
}

func triangleCentroid(a, b, c mgl64.Vec3) mgl64.Vec3 {
	return a.Add(b).Add(c).Mul(1.0 / 3)
}

// supportTriangle is the support function of a single world-space triangle.
func supportTriangle(v0, v1, v2, d mgl64.Vec3) mgl64.Vec3 {
	best := v0
	bestDot := v0.Dot(d)
	if dot := v1.Dot(d); dot > bestDot {
		best, bestDot = v1, dot
	}
	if dot := v2.Dot(d); dot > bestDot {
		best = v2
	}
	return best
}
