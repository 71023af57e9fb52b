package chrono

// aabbGenerator computes one world-space AABB per active shape from the
// synchronized body transforms, inflated by the global collision envelope.
// The phase is a pure parallel fan-out: it reads the body snapshot and
// writes exactly one AABB slot per shape.
type aabbGenerator struct {
	data *collisionData
}

func (g *aabbGenerator) generate(envelope float64, workers int) {
	d := g.data
	parallelFor(len(d.shapes), workers, func(start, end int) {
		for i := start; i < end; i++ {
			if !d.active[i] {
				continue
			}
			s := d.shapes[i]
			wt := d.bodyTransform(s.id).Mult(s.Local)
			d.aabbs[i] = worldAABB(s, wt).Inflate(envelope)
		}
	})
}
