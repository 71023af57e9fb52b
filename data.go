package chrono

// collisionData owns the registered geometry and every per-step transient
// structure of the pipeline. Transients are arena-style: reset between
// steps, grown geometrically on demand, never reallocated per step.
type collisionData struct {
	// Registered bodies. bodyIndex maps external ids to dense indices
	// into bodyIDs/states/frozen.
	bodyIndex map[BodyID]int
	bodyIDs   []BodyID

	// Registered shapes. A shape's id is its index here; ids are stable
	// for the lifetime of a registration (removal is unsupported).
	shapes       []*Shape
	shapesByBody [][]ShapeID

	// Per-step snapshot of body state, copied by Synchronize.
	states []BodyState
	// Per-body freeze flag maintained by the active-region manager.
	frozen []bool

	// Per-step transients.
	aabbs    []AABB // world AABB per shape, envelope included
	active   []bool // per-shape participation mask for this step
	pairs    []Pair // deduplicated candidate pairs, sorted
	contacts []Contact
}

func newCollisionData() *collisionData {
	return &collisionData{bodyIndex: make(map[BodyID]int)}
}

func (d *collisionData) addBody(id BodyID) error {
	if _, ok := d.bodyIndex[id]; ok {
		return ErrDuplicateBody
	}
	d.bodyIndex[id] = len(d.bodyIDs)
	d.bodyIDs = append(d.bodyIDs, id)
	d.states = append(d.states, BodyState{})
	d.frozen = append(d.frozen, false)
	d.shapesByBody = append(d.shapesByBody, nil)
	return nil
}

func (d *collisionData) addShape(body BodyID, s *Shape) (ShapeID, error) {
	bi, ok := d.bodyIndex[body]
	if !ok {
		return -1, ErrUnknownBody
	}
	id := ShapeID(len(d.shapes))
	s.body = body
	s.id = id
	d.shapes = append(d.shapes, s)
	d.shapesByBody[bi] = append(d.shapesByBody[bi], id)
	return id, nil
}

// clear drops all per-step transients but keeps the registered shapes and
// bodies.
func (d *collisionData) clear() {
	d.aabbs = d.aabbs[:0]
	d.active = d.active[:0]
	d.pairs = d.pairs[:0]
	d.contacts = d.contacts[:0]
}

// prepareStep sizes the per-shape transient arrays for the current shape
// count.
func (d *collisionData) prepareStep() {
	n := len(d.shapes)
	if cap(d.aabbs) < n {
		d.aabbs = make([]AABB, n)
		d.active = make([]bool, n)
	}
	d.aabbs = d.aabbs[:n]
	d.active = d.active[:n]
}

// bodyTransform returns the synchronized world transform of the shape's
// owning body.
func (d *collisionData) bodyTransform(id ShapeID) Transform {
	return d.states[d.bodyIndex[d.shapes[id].body]].Transform
}
