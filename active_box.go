package chrono

// activeBoxManager freezes bodies that wander outside a fixed world-space
// region. Frozen bodies keep their registrations but contribute no AABBs,
// pairs or contacts until they re-enter the region.
type activeBoxManager struct {
	enabled bool
	box     AABB
}

// update recomputes the per-body freeze flags from the synchronized body
// transforms. A body is frozen while the union AABB of its shapes no longer
// touches the region; bodies without shapes are never frozen. The flags are
// recomputed from scratch every step, so re-entry unfreezes automatically.
func (m *activeBoxManager) update(d *collisionData) {
	if !m.enabled {
		for i := range d.frozen {
			d.frozen[i] = false
		}
		return
	}
	for bi, shapes := range d.shapesByBody {
		if len(shapes) == 0 {
			d.frozen[bi] = false
			continue
		}
		bt := d.states[bi].Transform
		var box AABB
		for k, id := range shapes {
			s := d.shapes[id]
			b := worldAABB(s, bt.Mult(s.Local))
			if k == 0 {
				box = b
			} else {
				box = box.Merge(b)
			}
		}
		d.frozen[bi] = !m.box.Intersects(box)
	}
}
