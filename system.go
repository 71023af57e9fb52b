package chrono

import (
	"runtime"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// settings is the validated runtime configuration shared by the pipeline
// phases. It changes only through the CollisionSystem setters, never during
// a Run.
type settings struct {
	numThreads int
	envelope   float64

	fixedBins   bool
	binsPerAxis [3]int
	gridDensity float64

	algorithm Algorithm
}

// CollisionSystem is the collision-detection engine. The owning simulator
// drives it once per step: Synchronize to snapshot body state, Run to
// execute the pipeline, then ReportContacts (or Contacts) to consume the
// results. A CollisionSystem is not safe for concurrent use; it manages its
// own worker parallelism internally.
type CollisionSystem struct {
	provider StateProvider
	data     *collisionData
	cfg      settings

	aabbGen   aabbGenerator
	broad     broadphase
	narrow    narrowphase
	activeBox activeBoxManager

	synchronized bool

	timerBroad  float64
	timerNarrow float64
}

// NewCollisionSystem returns a system that pulls body state from provider.
// Defaults: one worker per CPU, zero envelope, auto-tuned broadphase grid at
// DefaultGridDensity, hybrid narrowphase.
func NewCollisionSystem(provider StateProvider) *CollisionSystem {
	d := newCollisionData()
	return &CollisionSystem{
		provider: provider,
		data:     d,
		cfg: settings{
			numThreads:  runtime.NumCPU(),
			gridDensity: DefaultGridDensity,
			algorithm:   AlgorithmHybrid,
		},
		aabbGen: aabbGenerator{data: d},
		broad:   broadphase{data: d},
		narrow:  narrowphase{data: d},
	}
}

// AddBody registers a body id with the system. The body carries no geometry
// until shapes are attached with AddShape. Registration invalidates the
// current snapshot; Synchronize must run again before the next Run.
func (sys *CollisionSystem) AddBody(id BodyID) error {
	if err := sys.data.addBody(id); err != nil {
		return err
	}
	sys.synchronized = false
	return nil
}

// AddShape attaches a shape to a registered body and returns its stable
// shape id. The shape must not be mutated or attached twice. Registration
// invalidates the current snapshot; Synchronize must run again before the
// next Run.
func (sys *CollisionSystem) AddShape(body BodyID, s *Shape) (ShapeID, error) {
	id, err := sys.data.addShape(body, s)
	if err != nil {
		return id, err
	}
	sys.synchronized = false
	return id, nil
}

// RemoveShape is accepted for interface symmetry but not implemented; shape
// ids stay stable for the lifetime of the system. It always returns
// ErrNotSupported and changes nothing.
func (sys *CollisionSystem) RemoveShape(id ShapeID) error {
	return ErrNotSupported
}

// Clear drops all per-step transient state (AABBs, pairs, contacts) while
// keeping every registered body and shape.
func (sys *CollisionSystem) Clear() {
	sys.data.clear()
	sys.synchronized = false
}

// Synchronize snapshots the current state of every registered body from the
// provider and recomputes the per-shape participation mask. It must be
// called before each Run; an error leaves the system unsynchronized.
func (sys *CollisionSystem) Synchronize() error {
	d := sys.data
	sys.synchronized = false

	for i, id := range d.bodyIDs {
		st, ok := sys.provider.BodyState(id)
		if !ok {
			return ErrUnknownBody
		}
		d.states[i] = st
	}

	sys.activeBox.update(d)

	d.prepareStep()
	for i, s := range d.shapes {
		bi := d.bodyIndex[s.body]
		d.active[i] = d.states[bi].Active && !d.frozen[bi]
	}

	sys.synchronized = true
	return nil
}

// Run executes the collision pipeline over the synchronized snapshot: AABB
// generation, broadphase binning and narrowphase resolution. The resulting
// pair and contact lists replace those of the previous step and do not
// depend on the worker count.
func (sys *CollisionSystem) Run() error {
	if !sys.synchronized {
		return ErrNotSynchronized
	}
	workers := sys.cfg.numThreads

	start := time.Now()
	sys.aabbGen.generate(sys.cfg.envelope, workers)
	sys.broad.run(&sys.cfg, workers)
	sys.timerBroad += time.Since(start).Seconds()

	start = time.Now()
	sys.narrow.process(&sys.cfg, workers)
	sys.timerNarrow += time.Since(start).Seconds()

	return nil
}

// ReportContacts streams the contacts of the last Run into sink, bracketed
// by BeginAddContact and EndAddContact.
func (sys *CollisionSystem) ReportContacts(sink ContactSink) {
	sink.BeginAddContact()
	for _, c := range sys.data.contacts {
		sink.AddContact(c)
	}
	sink.EndAddContact()
}

// ReportProximities would stream near-miss pairs for a proximity container.
// Proximity reporting is not implemented.
func (sys *CollisionSystem) ReportProximities(sink ContactSink) error {
	return ErrNotSupported
}

// Contacts returns a copy of the contact list of the last Run.
func (sys *CollisionSystem) Contacts() []Contact {
	out := make([]Contact, len(sys.data.contacts))
	copy(out, sys.data.contacts)
	return out
}

// GetOverlappingPairs returns a copy of the candidate pair list of the last
// Run, sorted with A < B in each pair.
func (sys *CollisionSystem) GetOverlappingPairs() []Pair {
	out := make([]Pair, len(sys.data.pairs))
	copy(out, sys.data.pairs)
	return out
}

// GetOverlappingAABB flags every shape whose last-computed world AABB
// intersects the axis-aligned box [min, max]. The result is written into
// flags when it has one slot per shape; otherwise a new slice is returned.
func (sys *CollisionSystem) GetOverlappingAABB(flags []bool, min, max mgl64.Vec3) []bool {
	d := sys.data
	if len(flags) != len(d.shapes) {
		flags = make([]bool, len(d.shapes))
	}
	query := AABB{Min: min, Max: max}
	for i := range d.shapes {
		flags[i] = i < len(d.aabbs) && d.active[i] && d.aabbs[i].Intersects(query)
	}
	return flags
}

// GetBoundingBox returns the union AABB of all active shapes from the last
// Run. ok is false when no broadphase has run or no shape was active.
func (sys *CollisionSystem) GetBoundingBox() (AABB, bool) {
	return sys.broad.sceneBounds, sys.broad.hasBounds
}

// NumBinsPerAxis returns the broadphase grid resolution used by the last
// Run. With density tuning enabled the counts vary step to step.
func (sys *CollisionSystem) NumBinsPerAxis() [3]int {
	return sys.broad.binsPerAxis
}

// RayHit would intersect a ray against the registered shapes. Ray queries
// are not implemented and always return ErrNotSupported.
func (sys *CollisionSystem) RayHit(from, to mgl64.Vec3) (RayHitResult, error) {
	return RayHitResult{}, ErrNotSupported
}

// BodyActive reports whether the body participated in the last synchronized
// step: known, flagged active by the provider and not frozen by the active
// region.
func (sys *CollisionSystem) BodyActive(id BodyID) bool {
	bi, ok := sys.data.bodyIndex[id]
	if !ok {
		return false
	}
	return sys.data.states[bi].Active && !sys.data.frozen[bi]
}

// ResetTimers zeroes the accumulated phase timers.
func (sys *CollisionSystem) ResetTimers() {
	sys.timerBroad = 0
	sys.timerNarrow = 0
}

// GetTimerCollisionBroad returns the seconds spent in AABB generation and
// broadphase binning since the last ResetTimers.
func (sys *CollisionSystem) GetTimerCollisionBroad() float64 { return sys.timerBroad }

// GetTimerCollisionNarrow returns the seconds spent in the narrowphase since
// the last ResetTimers.
func (sys *CollisionSystem) GetTimerCollisionNarrow() float64 { return sys.timerNarrow }

// SetNumThreads sets the worker count used by every parallel phase.
func (sys *CollisionSystem) SetNumThreads(n int) error {
	if n < 1 {
		return ErrInvalidConfig
	}
	sys.cfg.numThreads = n
	return nil
}

// SetEnvelope sets the collision envelope: every shape is inflated by this
// outward margin, and separated pairs within twice the envelope still
// produce (negative depth) contacts.
func (sys *CollisionSystem) SetEnvelope(e float64) error {
	if e < 0 {
		return ErrInvalidConfig
	}
	sys.cfg.envelope = e
	return nil
}

// SetBroadphaseNumBins fixes the broadphase grid resolution, disabling
// density tuning. All three counts must be positive and their product must
// not exceed the grid size cap; fixed counts are never rescaled at run time.
func (sys *CollisionSystem) SetBroadphaseNumBins(x, y, z int) error {
	if x < 1 || y < 1 || z < 1 || x*y*z > maxTotalBins {
		return ErrInvalidConfig
	}
	sys.cfg.binsPerAxis = [3]int{x, y, z}
	sys.cfg.fixedBins = true
	return nil
}

// SetBroadphaseGridDensity sets the target shape density per bin and
// re-enables dynamic grid tuning.
func (sys *CollisionSystem) SetBroadphaseGridDensity(density float64) error {
	if density <= 0 {
		return ErrInvalidConfig
	}
	sys.cfg.gridDensity = density
	sys.cfg.fixedBins = false
	return nil
}

// SetNarrowphaseAlgorithm selects the narrowphase dispatch strategy.
func (sys *CollisionSystem) SetNarrowphaseAlgorithm(a Algorithm) error {
	switch a {
	case AlgorithmHybrid, AlgorithmPrimitive, AlgorithmGeneric:
		sys.cfg.algorithm = a
		return nil
	}
	return ErrInvalidConfig
}

// EnableActiveBox restricts collision processing to bodies overlapping the
// axis-aligned region [min, max]; bodies fully outside it are frozen at the
// next Synchronize.
func (sys *CollisionSystem) EnableActiveBox(min, max mgl64.Vec3) error {
	for i := 0; i < 3; i++ {
		if min[i] > max[i] {
			return ErrInvalidConfig
		}
	}
	sys.activeBox.enabled = true
	sys.activeBox.box = AABB{Min: min, Max: max}
	return nil
}

// DisableActiveBox removes the active region; frozen bodies thaw at the
// next Synchronize.
func (sys *CollisionSystem) DisableActiveBox() {
	sys.activeBox.enabled = false
}

// ActiveBox returns the active region bounds and whether it is enabled.
func (sys *CollisionSystem) ActiveBox() (min, max mgl64.Vec3, enabled bool) {
	return sys.activeBox.box.Min, sys.activeBox.box.Max, sys.activeBox.enabled
}
