package simulation

import (
	"math"

	"github.com/lao-tseu-is-alive/go-murmuration/pkg/geometry"
)

// minCellSize keeps the grid from degenerating into thousands of tiny cells
// when the perception radius is dialed very low.
const minCellSize = 10.0

type gridKey struct {
	x, y int
}

// Grid is a uniform spatial hash over bird positions, rebuilt every tick.
// Cells hold bird indices; QueryInto returns a superset of the true
// neighborhood (cell granularity), which callers filter by exact distance.
type Grid struct {
	cellSize float64
	cells    map[gridKey][]int
}

func NewGrid(cellSize float64) *Grid {
	return &Grid{
		cellSize: math.Max(cellSize, minCellSize),
		cells:    make(map[gridKey][]int),
	}
}

// SetCellSize adjusts the cell size (clamped to the minimum). Takes effect on
// the next Rebuild.
func (g *Grid) SetCellSize(s float64) {
	g.cellSize = math.Max(s, minCellSize)
}

// Rebuild re-buckets every bird. Cell slices are reset to length 0 but keep
// their capacity, so steady-state rebuilds allocate almost nothing.
func (g *Grid) Rebuild(birds []Bird) {
	for k := range g.cells {
		g.cells[k] = g.cells[k][:0]
	}
	for i := range birds {
		key := g.keyFor(birds[i].Pos)
		g.cells[key] = append(g.cells[key], i)
	}
}

func (g *Grid) keyFor(p geometry.Vector2D) gridKey {
	return gridKey{
		x: int(math.Floor(p.X / g.cellSize)),
		y: int(math.Floor(p.Y / g.cellSize)),
	}
}

// QueryInto appends the indices of every bird that could lie within radius of
// center, reusing dst to avoid allocations. No false negatives: the scanned
// cell rectangle fully covers the query circle. False positives are bounded
// by the cell granularity; callers filter by exact distance.
// A zero or negative radius returns dst unchanged (empty neighborhood).
func (g *Grid) QueryInto(dst []int, center geometry.Vector2D, radius float64) []int {
	if radius <= 0 {
		return dst
	}

	minGx := int(math.Floor((center.X - radius) / g.cellSize))
	maxGx := int(math.Floor((center.X + radius) / g.cellSize))
	minGy := int(math.Floor((center.Y - radius) / g.cellSize))
	maxGy := int(math.Floor((center.Y + radius) / g.cellSize))

	for gx := minGx; gx <= maxGx; gx++ {
		for gy := minGy; gy <= maxGy; gy++ {
			if bucket, ok := g.cells[gridKey{x: gx, y: gy}]; ok {
				dst = append(dst, bucket...)
			}
		}
	}
	return dst
}
