package linalg

import "github.com/go-gl/mathgl/mgl64"

// DenseVec3 is a dense vector of N 3-vectors, one entry per particle.
// All operations write into the receiver and are safe when the receiver
// aliases one of the operands, since they work element by element.
type DenseVec3 []mgl64.Vec3

func (v DenseVec3) SetZero() {
	clear(v)
}

// Copy sets v = a.
func (v DenseVec3) Copy(a DenseVec3) {
	checkLen(len(v), len(a))
	copy(v, a)
}

// Add sets v = a + b.
func (v DenseVec3) Add(a, b DenseVec3) {
	checkLen(len(v), len(a), len(b))
	for i := range v {
		v[i] = a[i].Add(b[i])
	}
}

// Sub sets v = a - b.
func (v DenseVec3) Sub(a, b DenseVec3) {
	checkLen(len(v), len(a), len(b))
	for i := range v {
		v[i] = a[i].Sub(b[i])
	}
}

// Scale sets v = s * a.
func (v DenseVec3) Scale(s float64, a DenseVec3) {
	checkLen(len(v), len(a))
	for i := range v {
		v[i] = a[i].Mul(s)
	}
}

// AddScaled sets v = a + s * b.
func (v DenseVec3) AddScaled(a DenseVec3, s float64, b DenseVec3) {
	checkLen(len(v), len(a), len(b))
	for i := range v {
		v[i] = a[i].Add(b[i].Mul(s))
	}
}

// IsFinite reports whether every component of every entry is finite.
func (v DenseVec3) IsFinite() bool {
	for _, e := range v {
		if !IsFiniteVec(e) {
			return false
		}
	}
	return true
}

// Dot returns the scalar product of two dense vectors.
func Dot(a, b DenseVec3) float64 {
	checkLen(len(a), len(b))

	var sum float64
	for i := range a {
		sum += a[i].Dot(b[i])
	}
	return sum
}

func checkLen(n int, others ...int) {
	for _, m := range others {
		if m != n {
			panic("linalg: dimension mismatch")
		}
	}
}
