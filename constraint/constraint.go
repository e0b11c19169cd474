// Package constraint describes the velocity constraints a cloth solve filters
// through, and the friction rules deciding which contact directions lock.
package constraint

import (
	"fmt"
	"math"

	"github.com/akmonengine/weave/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Acceleration restricts the velocity increment of one particle.
// NDOF is the number of free directions left: 2 blocks P only, 1 blocks P
// and Q, 0 blocks everything. Z is the increment required along the
// blocked directions.
type Acceleration struct {
	Index int
	NDOF  int
	P     mgl64.Vec3
	Q     mgl64.Vec3
	Z     mgl64.Vec3
}

// Pin fully constrains a particle to keep its current velocity
func Pin(index int) Acceleration {
	return Acceleration{Index: index, NDOF: 0}
}

// Filter returns the projection onto the free directions, I - P Pᵀ - Q Qᵀ
func (a Acceleration) Filter() mgl64.Mat3 {
	I := mgl64.Ident3()

	switch a.NDOF {
	case 2:
		return I.Sub(a.P.OuterProd3(a.P))
	case 1:
		return I.Sub(a.P.OuterProd3(a.P)).Sub(a.Q.OuterProd3(a.Q))
	case 0:
		return mgl64.Mat3{}
	}
	panic(fmt.Sprintf("constraint: invalid degrees of freedom %d on particle %d", a.NDOF, a.Index))
}

// Target returns the part of Z living in the blocked directions
func (a Acceleration) Target() mgl64.Vec3 {
	S := a.Filter()
	return a.Z.Sub(S.Mul3x1(a.Z))
}

// ComputeStaticFriction combines the cloth and body coefficients
func ComputeStaticFriction(cloth float64, mat actor.Material) float64 {
	// Geometric mean
	return math.Sqrt(cloth * mat.StaticFriction)
}
