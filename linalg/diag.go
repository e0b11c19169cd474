package linalg

import "github.com/go-gl/mathgl/mgl64"

// DiagMat33 is a block diagonal matrix: one 3x3 block per particle.
type DiagMat33 []mgl64.Mat3

func (d DiagMat33) SetIdentity() {
	for i := range d {
		d[i] = mgl64.Ident3()
	}
}

func (d DiagMat33) SetZero() {
	clear(d)
}

// MulVec sets out = D v.
func (d DiagMat33) MulVec(out, v DenseVec3) {
	checkLen(len(d), len(out), len(v))
	for i := range d {
		out[i] = d[i].Mul3x1(v[i])
	}
}

// Complement sets out = I - D.
func (d DiagMat33) Complement(out DiagMat33) {
	checkLen(len(d), len(out))
	for i := range d {
		out[i] = mgl64.Ident3().Sub(d[i])
	}
}
