package chrono

import "github.com/go-gl/mathgl/mgl64"

// TriangleMesh is an indexed triangle list in shape-local coordinates.
// Meshes are shared, immutable geometry: several mesh shapes may reference
// the same TriangleMesh.
type TriangleMesh struct {
	Vertices []mgl64.Vec3
	// Indices holds three vertex indices per triangle.
	Indices []uint32
}

// NewTriangleMesh builds a mesh from a vertex list and a flat triangle
// index list. Panics if the index count is not a multiple of three or an
// index is out of range; a malformed mesh is a programming error, not a
// runtime condition.
func NewTriangleMesh(vertices []mgl64.Vec3, indices []uint32) *TriangleMesh {
	if len(indices)%3 != 0 {
		panic("chrono: triangle index count must be a multiple of 3")
	}
	for _, i := range indices {
		if int(i) >= len(vertices) {
			panic("chrono: triangle index out of range")
		}
	}
	return &TriangleMesh{Vertices: vertices, Indices: indices}
}

// TriangleCount returns the number of triangles.
func (m *TriangleMesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Triangle returns the corners of triangle i in mesh-local coordinates.
func (m *TriangleMesh) Triangle(i int) (a, b, c mgl64.Vec3) {
	a = m.Vertices[m.Indices[3*i]]
	b = m.Vertices[m.Indices[3*i+1]]
	c = m.Vertices[m.Indices[3*i+2]]
	return
}
