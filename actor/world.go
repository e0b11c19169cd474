package actor

import "github.com/go-gl/mathgl/mgl64"

const (
	DEFAULT_CELL_SIZE = 1.0
	DEFAULT_NUM_CELLS = 1024
)

// World is the set of rigid bodies a cloth can touch. Only static bodies
// take part in sphere queries.
type World struct {
	// List of all rigid bodies in the world
	Bodies []*RigidBody

	grid      *Grid
	unbounded []int
}

// NewWorld creates a world with a grid of the given cell size
func NewWorld(cellSize float64) *World {
	if cellSize <= 0 {
		cellSize = DEFAULT_CELL_SIZE
	}
	return &World{grid: NewGrid(cellSize, DEFAULT_NUM_CELLS)}
}

// AddBody adds a rigid body to the world
func (w *World) AddBody(body *RigidBody) {
	w.Bodies = append(w.Bodies, body)
	w.Update()
}

// RemoveBody removes a rigid body from the world
func (w *World) RemoveBody(body *RigidBody) {
	k := -1
	for i, b := range w.Bodies {
		if b == body {
			k = i
			break
		}
	}

	if k != -1 {
		w.Bodies = append(w.Bodies[:k], w.Bodies[k+1:]...)
		w.Update()
	}
}

// Update rebuilds the static broad phase from the current body transforms.
// Call it once before a batch of queries whenever bodies moved.
func (w *World) Update() {
	if w.grid == nil {
		w.grid = NewGrid(DEFAULT_CELL_SIZE, DEFAULT_NUM_CELLS)
	}

	w.grid.Clear()
	w.unbounded = w.unbounded[:0]

	for i, body := range w.Bodies {
		if body.BodyType != BodyTypeStatic {
			continue
		}

		body.Shape.ComputeAABB(body.Transform)
		if body.Shape.Bounded() {
			w.grid.Insert(i, body.Shape.GetAABB())
		} else {
			w.unbounded = append(w.unbounded, i)
		}
	}
	w.grid.SortCells()
}

// QuerySphere calls fn for every static body the sphere touches or
// penetrates, bounded shapes first in body order, then unbounded ones.
// Returning false from fn stops the query. Concurrent queries are safe
// between two Update calls.
func (w *World) QuerySphere(center mgl64.Vec3, radius float64, fn func(body *RigidBody, hit SphereHit) bool) {
	if w.grid == nil {
		w.Update()
	}

	aabb := SphereAABB(center, radius)

	var buf [16]int
	candidates := w.grid.Query(aabb, buf[:0])

	for _, i := range candidates {
		body := w.Bodies[i]
		if !body.Shape.GetAABB().Overlaps(aabb) {
			continue
		}
		if hit, ok := body.TestSphere(center, radius); ok {
			if !fn(body, hit) {
				return
			}
		}
	}

	for _, i := range w.unbounded {
		body := w.Bodies[i]
		if hit, ok := body.TestSphere(center, radius); ok {
			if !fn(body, hit) {
				return
			}
		}
	}
}
