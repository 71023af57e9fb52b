package chrono

import (
	"math"
	"slices"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
)

// maxTotalBins caps the broadphase grid size. Auto-tuned axis counts are
// scaled down uniformly when the density target would exceed it.
const maxTotalBins = 1 << 21

// broadphase over-approximates the set of potentially contacting shape
// pairs with a uniform grid, rebuilt every step:
//
//  1. the scene bounds and bin counts are derived (or taken as fixed),
//  2. every active shape's AABB is binned into each cell it overlaps
//     (parallel count, prefix sum, parallel fill),
//  3. every cell emits its unordered shape pairs under a canonical
//     (min,max) key into per-worker buffers,
//  4. the buffers are merged, sorted and deduplicated into the final
//     candidate pair list.
//
// Same-body pairs are excluded, and pairs whose AABBs do not actually
// overlap are filtered with an exact test since cell membership is
// conservative.
type broadphase struct {
	data *collisionData

	binsPerAxis [3]int
	origin      mgl64.Vec3
	invCell     mgl64.Vec3

	sceneBounds AABB
	hasBounds   bool

	// Reusable buffers.
	cellCount  []int32
	cellStart  []int32
	cellFill   []int32
	cellShapes []int32
	shapeCells [][6]int32
	workerKeys [][]uint64
	pairKeys   []uint64
}

func pairKey(a, b ShapeID) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(uint32(a))<<32 | uint64(uint32(b))
}

func (bp *broadphase) run(cfg *settings, workers int) {
	d := bp.data
	d.pairs = d.pairs[:0]
	bp.hasBounds = false

	numActive := bp.computeBounds()
	if numActive == 0 {
		return
	}

	bp.computeBins(cfg, numActive)
	bp.binShapes(workers)
	bp.generatePairs(workers)
}

// computeBounds unions the active AABBs into the scene bounds and returns
// the active shape count.
func (bp *broadphase) computeBounds() int {
	d := bp.data
	n := 0
	for i := range d.shapes {
		if !d.active[i] {
			continue
		}
		if n == 0 {
			bp.sceneBounds = d.aabbs[i]
		} else {
			bp.sceneBounds = bp.sceneBounds.Merge(d.aabbs[i])
		}
		n++
	}
	bp.hasBounds = n > 0
	return n
}

// computeBins derives the grid resolution. Fixed bin counts are used as
// given; otherwise the per-axis counts follow the grid density target:
// resolution = cbrt(density*N/V) cells per unit length, so raising the
// density target never lowers the total bin count for a fixed scene.
func (bp *broadphase) computeBins(cfg *settings, numActive int) {
	ext := bp.sceneBounds.Size()
	for i := 0; i < 3; i++ {
		ext[i] = math.Max(ext[i], magicEpsilon)
	}

	if cfg.fixedBins {
		// Fixed counts are validated against maxTotalBins at the
		// setter and used exactly as given.
		bp.binsPerAxis = cfg.binsPerAxis
	} else {
		volume := ext[0] * ext[1] * ext[2]
		res := math.Cbrt(cfg.gridDensity * float64(numActive) / volume)
		for i := 0; i < 3; i++ {
			bp.binsPerAxis[i] = int(math.Max(1, math.Round(ext[i]*res)))
		}
		for total := bp.totalBins(); total > maxTotalBins; total = bp.totalBins() {
			scale := math.Cbrt(float64(maxTotalBins) / float64(total))
			for i := 0; i < 3; i++ {
				bp.binsPerAxis[i] = int(math.Max(1, math.Floor(float64(bp.binsPerAxis[i])*scale)))
			}
			if bp.binsPerAxis[0] == 1 && bp.binsPerAxis[1] == 1 && bp.binsPerAxis[2] == 1 {
				break
			}
		}
	}

	bp.origin = bp.sceneBounds.Min
	for i := 0; i < 3; i++ {
		bp.invCell[i] = float64(bp.binsPerAxis[i]) / ext[i]
	}
}

func (bp *broadphase) totalBins() int {
	return bp.binsPerAxis[0] * bp.binsPerAxis[1] * bp.binsPerAxis[2]
}

// cellRange returns the clamped inclusive cell coordinate range overlapped
// by box. Degenerate boxes land in a single cell.
func (bp *broadphase) cellRange(box AABB) [6]int32 {
	var r [6]int32
	for i := 0; i < 3; i++ {
		lo := int32(math.Floor((box.Min[i] - bp.origin[i]) * bp.invCell[i]))
		hi := int32(math.Floor((box.Max[i] - bp.origin[i]) * bp.invCell[i]))
		n := int32(bp.binsPerAxis[i])
		if lo < 0 {
			lo = 0
		}
		if lo > n-1 {
			lo = n - 1
		}
		if hi < lo {
			hi = lo
		}
		if hi > n-1 {
			hi = n - 1
		}
		r[i] = lo
		r[3+i] = hi
	}
	return r
}

func (bp *broadphase) cellIndex(x, y, z int32) int {
	nx := int32(bp.binsPerAxis[0])
	ny := int32(bp.binsPerAxis[1])
	return int(x + nx*(y+ny*z))
}

// binShapes builds the cell -> shapes multimap with a count / prefix-sum /
// fill pass. Counting and filling fan out over shapes; slot reservation
// uses atomic increments, which perturbs only the order within a cell and
// never the final pair list (pairs are globally sorted afterwards).
func (bp *broadphase) binShapes(workers int) {
	d := bp.data
	numCells := bp.totalBins()
	numShapes := len(d.shapes)

	bp.cellCount = resizeInt32(bp.cellCount, numCells)
	bp.cellFill = resizeInt32(bp.cellFill, numCells)
	bp.cellStart = resizeInt32(bp.cellStart, numCells+1)
	if cap(bp.shapeCells) < numShapes {
		bp.shapeCells = make([][6]int32, numShapes)
	}
	bp.shapeCells = bp.shapeCells[:numShapes]

	parallelFor(numShapes, workers, func(start, end int) {
		for i := start; i < end; i++ {
			if !d.active[i] {
				continue
			}
			r := bp.cellRange(d.aabbs[i])
			bp.shapeCells[i] = r
			for z := r[2]; z <= r[5]; z++ {
				for y := r[1]; y <= r[4]; y++ {
					for x := r[0]; x <= r[3]; x++ {
						atomic.AddInt32(&bp.cellCount[bp.cellIndex(x, y, z)], 1)
					}
				}
			}
		}
	})

	total := int32(0)
	for i := 0; i < numCells; i++ {
		bp.cellStart[i] = total
		total += bp.cellCount[i]
	}
	bp.cellStart[numCells] = total

	if cap(bp.cellShapes) < int(total) {
		bp.cellShapes = make([]int32, total)
	}
	bp.cellShapes = bp.cellShapes[:total]

	parallelFor(numShapes, workers, func(start, end int) {
		for i := start; i < end; i++ {
			if !d.active[i] {
				continue
			}
			r := bp.shapeCells[i]
			for z := r[2]; z <= r[5]; z++ {
				for y := r[1]; y <= r[4]; y++ {
					for x := r[0]; x <= r[3]; x++ {
						c := bp.cellIndex(x, y, z)
						slot := bp.cellStart[c] + atomic.AddInt32(&bp.cellFill[c], 1) - 1
						bp.cellShapes[slot] = int32(i)
					}
				}
			}
		}
	})
}

// generatePairs emits candidate pairs per cell into per-worker buffers and
// merges them with a sort-and-unique pass, so a pair spanning several cells
// is reported exactly once.
func (bp *broadphase) generatePairs(workers int) {
	d := bp.data
	numCells := bp.totalBins()

	if cap(bp.workerKeys) < workers {
		bp.workerKeys = make([][]uint64, workers)
	}
	bp.workerKeys = bp.workerKeys[:workers]
	for i := range bp.workerKeys {
		bp.workerKeys[i] = bp.workerKeys[i][:0]
	}

	parallelForWorkers(numCells, workers, func(worker, start, end int) {
		keys := bp.workerKeys[worker]
		for c := start; c < end; c++ {
			lo, hi := bp.cellStart[c], bp.cellStart[c+1]
			cell := bp.cellShapes[lo:hi]
			for i := 0; i < len(cell); i++ {
				for j := i + 1; j < len(cell); j++ {
					a := ShapeID(cell[i])
					b := ShapeID(cell[j])
					if d.shapes[a].body == d.shapes[b].body {
						continue
					}
					// Cell membership is conservative.
					if !d.aabbs[a].Intersects(d.aabbs[b]) {
						continue
					}
					keys = append(keys, pairKey(a, b))
				}
			}
		}
		bp.workerKeys[worker] = keys
	})

	bp.pairKeys = bp.pairKeys[:0]
	for _, keys := range bp.workerKeys {
		bp.pairKeys = append(bp.pairKeys, keys...)
	}
	slices.Sort(bp.pairKeys)
	bp.pairKeys = slices.Compact(bp.pairKeys)

	for _, k := range bp.pairKeys {
		d.pairs = append(d.pairs, Pair{A: ShapeID(k >> 32), B: ShapeID(uint32(k))})
	}
}

func resizeInt32(s []int32, n int) []int32 {
	if cap(s) < n {
		s = make([]int32, n)
	}
	s = s[:n]
	for i := range s {
		s[i] = 0
	}
	return s
}
