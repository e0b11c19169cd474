// Package linalg provides the block linear algebra the cloth solver is built on:
// dense vectors of 3-vectors, block diagonal matrices, a symmetric block-sparse
// matrix and a scoped stack allocator for per-step buffers.
//
// Every entry is a mgl64.Vec3 or a 3x3 mgl64.Mat3 block, so a system of N
// particles is a 3N x 3N scalar system stored as N x N blocks.
package linalg

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Outer returns the outer product a bᵀ.
func Outer(a, b mgl64.Vec3) mgl64.Mat3 {
	// mgl64 matrices are column-major: element (row, col) lives at col*3+row
	return mgl64.Mat3{
		a[0] * b[0], a[1] * b[0], a[2] * b[0],
		a[0] * b[1], a[1] * b[1], a[2] * b[1],
		a[0] * b[2], a[1] * b[2], a[2] * b[2],
	}
}

// IsPositiveDefinite applies Sylvester's criterion to a symmetric block:
// every leading principal minor must be strictly positive.
func IsPositiveDefinite(m mgl64.Mat3) bool {
	m00 := m.At(0, 0)
	if !(m00 > 0) {
		return false
	}

	minor2 := m00*m.At(1, 1) - m.At(0, 1)*m.At(1, 0)
	if !(minor2 > 0) {
		return false
	}

	return m.Det() > 0
}

// InvertPD returns the inverse of a positive definite block through the
// closed-form cofactor expansion. It panics when the block is not positive
// definite: the preconditioner cannot be built from such a system.
func InvertPD(m mgl64.Mat3) mgl64.Mat3 {
	if !IsPositiveDefinite(m) {
		panic(fmt.Sprintf("linalg: block is not positive definite: %v", m))
	}

	return m.Inv()
}

// IsFiniteVec reports whether every component of the vector is finite.
func IsFiniteVec(v mgl64.Vec3) bool {
	return isFinite(v[0]) && isFinite(v[1]) && isFinite(v[2])
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
