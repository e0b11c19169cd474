package linalg

import (
	"fmt"
	"slices"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Pattern is the sparsity structure of a symmetric block matrix.
// Only the upper triangle (i <= j) is stored; the diagonal is always present.
// A Pattern is built with Insert, then compiled once and shared by every
// matrix assembled over the same particle/force graph.
type Pattern struct {
	n        int
	rows     [][]int
	rowPtr   []int
	cols     []int
	compiled bool
}

// NewPattern creates a pattern for an n x n block matrix holding its diagonal.
func NewPattern(n int) *Pattern {
	rows := make([][]int, n)
	for i := range rows {
		rows[i] = append(make([]int, 0, 8), i)
	}

	return &Pattern{n: n, rows: rows}
}

// Insert declares the block (i, j). Order does not matter: (j, i) is the same entry.
func (p *Pattern) Insert(i, j int) {
	if p.compiled {
		panic("linalg: insert into a compiled pattern")
	}
	p.checkIndex(i, j)

	if i > j {
		i, j = j, i
	}
	if !slices.Contains(p.rows[i], j) {
		p.rows[i] = append(p.rows[i], j)
	}
}

// Compile freezes the pattern into compressed block-sparse-row form.
func (p *Pattern) Compile() {
	if p.compiled {
		return
	}

	p.rowPtr = make([]int, p.n+1)
	nnz := 0
	for i, row := range p.rows {
		sort.Ints(row)
		p.rowPtr[i] = nnz
		nnz += len(row)
	}
	p.rowPtr[p.n] = nnz

	p.cols = make([]int, 0, nnz)
	for _, row := range p.rows {
		p.cols = append(p.cols, row...)
	}

	p.rows = nil
	p.compiled = true
}

// N returns the block dimension.
func (p *Pattern) N() int {
	return p.n
}

// NNZ returns the number of stored upper-triangle blocks.
func (p *Pattern) NNZ() int {
	if !p.compiled {
		panic("linalg: pattern is not compiled")
	}
	return len(p.cols)
}

// find returns the storage slot of (i, j), i <= j, or -1 when absent.
func (p *Pattern) find(i, j int) int {
	row := p.cols[p.rowPtr[i]:p.rowPtr[i+1]]
	k := sort.SearchInts(row, j)
	if k < len(row) && row[k] == j {
		return p.rowPtr[i] + k
	}
	return -1
}

func (p *Pattern) checkIndex(i, j int) {
	if i < 0 || j < 0 || i >= p.n || j >= p.n {
		panic(fmt.Sprintf("linalg: block (%d, %d) out of range for %dx%d matrix", i, j, p.n, p.n))
	}
}

// SparseSymMat33 is a symmetric block-sparse matrix of 3x3 blocks.
//
// Contract: accessing block (i, j) with i > j returns the transpose of (j, i).
// Blocks not in the pattern read as zero and cannot be written.
type SparseSymMat33 struct {
	pattern *Pattern
	blocks  []mgl64.Mat3
}

// NewSparseSymMat33 allocates a zero matrix over a compiled pattern. Block
// storage is drawn from the stack when one is given.
func NewSparseSymMat33(p *Pattern, stack *Stack) *SparseSymMat33 {
	p.Compile()

	var blocks []mgl64.Mat3
	if stack != nil {
		blocks = stack.Mat3s(p.NNZ())
	} else {
		blocks = make([]mgl64.Mat3, p.NNZ())
	}

	return &SparseSymMat33{pattern: p, blocks: blocks}
}

// Pattern returns the sparsity structure the matrix was built over.
func (m *SparseSymMat33) Pattern() *Pattern {
	return m.pattern
}

// N returns the block dimension.
func (m *SparseSymMat33) N() int {
	return m.pattern.n
}

func (m *SparseSymMat33) SetZero() {
	clear(m.blocks)
}

// At returns block (i, j).
func (m *SparseSymMat33) At(i, j int) mgl64.Mat3 {
	m.pattern.checkIndex(i, j)

	if i > j {
		return m.At(j, i).Transpose()
	}

	k := m.pattern.find(i, j)
	if k < 0 {
		return mgl64.Mat3{}
	}
	return m.blocks[k]
}

// AddBlock adds b to block (i, j), and implicitly bᵀ to block (j, i).
func (m *SparseSymMat33) AddBlock(i, j int, b mgl64.Mat3) {
	m.pattern.checkIndex(i, j)

	if i > j {
		i, j = j, i
		b = b.Transpose()
	}

	k := m.pattern.find(i, j)
	if k < 0 {
		panic(fmt.Sprintf("linalg: block (%d, %d) is not in the pattern", i, j))
	}
	m.blocks[k] = m.blocks[k].Add(b)
}

// AddScaled sets m += s * other. Both matrices must share the same pattern.
func (m *SparseSymMat33) AddScaled(s float64, other *SparseSymMat33) {
	if m.pattern != other.pattern {
		panic("linalg: matrices do not share a pattern")
	}
	for k := range m.blocks {
		m.blocks[k] = m.blocks[k].Add(other.blocks[k].Mul(s))
	}
}

// MulVec sets out = M v. out must not alias v.
func (m *SparseSymMat33) MulVec(out, v DenseVec3) {
	n := m.pattern.n
	checkLen(n, len(out), len(v))
	if n > 0 && &out[0] == &v[0] {
		panic("linalg: MulVec output aliases its input")
	}

	out.SetZero()

	p := m.pattern
	for i := 0; i < n; i++ {
		for k := p.rowPtr[i]; k < p.rowPtr[i+1]; k++ {
			j := p.cols[k]
			b := m.blocks[k]

			out[i] = out[i].Add(b.Mul3x1(v[j]))
			if j != i {
				out[j] = out[j].Add(b.Transpose().Mul3x1(v[i]))
			}
		}
	}
}

// Diagonal copies the diagonal blocks into out.
func (m *SparseSymMat33) Diagonal(out DiagMat33) {
	p := m.pattern
	checkLen(p.n, len(out))

	for i := 0; i < p.n; i++ {
		// the diagonal is always the first column of its row
		out[i] = m.blocks[p.rowPtr[i]]
	}
}
