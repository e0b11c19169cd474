package actor

import (
	"math"
	"slices"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// ============================================================================
// Types
// ============================================================================

// CellKey - cell coordinates in 3D space
type CellKey struct {
	X, Y, Z int
}

// Cell - body indices overlapping a cell
type Cell struct {
	bodyIndices []int
}

// Grid - uniform hashed grid over bounded static shapes
type Grid struct {
	cellSize float64
	cells    []Cell
	cellMask int
}

// ============================================================================
// Constructor
// ============================================================================

// NewGrid creates a grid of cellSize cells hashed into numCells buckets
// (rounded up to a power of two)
func NewGrid(cellSize float64, numCells int) *Grid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].bodyIndices = make([]int, 0, 8)
	}

	return &Grid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

// nextPowerOfTwo - rounds up to the next power of two
func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// Insert - adds a body index to every cell its AABB touches
func (g *Grid) Insert(bodyIndex int, aabb AABB) {
	g.forEachCell(aabb, func(cellIdx int) {
		g.cells[cellIdx].bodyIndices = append(g.cells[cellIdx].bodyIndices, bodyIndex)
	})
}

func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i].bodyIndices = g.cells[i].bodyIndices[:0]
	}
}

func (g *Grid) SortCells() {
	for i := range g.cells {
		if len(g.cells[i].bodyIndices) > 1 {
			sort.Ints(g.cells[i].bodyIndices)
		}
	}
}

// Query - appends to dst every body index sharing a cell with aabb, once
// each, in ascending order. Safe for concurrent readers.
func (g *Grid) Query(aabb AABB, dst []int) []int {
	start := len(dst)

	g.forEachCell(aabb, func(cellIdx int) {
		for _, idx := range g.cells[cellIdx].bodyIndices {
			if !slices.Contains(dst[start:], idx) {
				dst = append(dst, idx)
			}
		}
	})

	slices.Sort(dst[start:])
	return dst
}

func (g *Grid) forEachCell(aabb AABB, fn func(cellIdx int)) {
	minCell := g.worldToCell(aabb.Min)
	maxCell := g.worldToCell(aabb.Max)

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				fn(g.hashCell(CellKey{x, y, z}))
			}
		}
	}
}

// worldToCell - converts a world position to cell coordinates
func (g *Grid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / g.cellSize)),
		Y: int(math.Floor(pos.Y() / g.cellSize)),
		Z: int(math.Floor(pos.Z() / g.cellSize)),
	}
}

// hashCell - hashes a cell to a bucket index
func (g *Grid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & g.cellMask
}
