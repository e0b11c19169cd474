// Package force holds the internal forces of a cloth. Every kind is a spring
// between two particles; Kind only records where it came from.
package force

import (
	"errors"
	"fmt"

	"github.com/akmonengine/weave/slotmap"
	"github.com/go-gl/mathgl/mgl64"
)

type Kind int

const (
	// KindStructural springs follow mesh edges and sewing lines
	KindStructural Kind = iota
	// KindBending springs join the two vertices opposite a shared edge
	KindBending
)

func (k Kind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindBending:
		return "bending"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var (
	ErrSelfSpring        = errors.New("force: spring connects a particle to itself")
	ErrNegativeRest      = errors.New("force: negative rest length")
	ErrNegativeStiffness = errors.New("force: negative stiffness")
	ErrNegativeDamping   = errors.New("force: negative damping")
)

// Force is a damped spring between particles A and B
type Force struct {
	Kind       Kind
	A, B       slotmap.Handle
	RestLength float64
	Stiffness  float64
	Damping    float64
}

// NewSpring creates a spring whose rest length is the distance between x1 and x2
func NewSpring(kind Kind, a, b slotmap.Handle, x1, x2 mgl64.Vec3, stiffness, damping float64) Force {
	return Force{
		Kind:       kind,
		A:          a,
		B:          b,
		RestLength: x1.Sub(x2).Len(),
		Stiffness:  stiffness,
		Damping:    damping,
	}
}

func (f Force) Validate() error {
	switch {
	case f.A == f.B:
		return ErrSelfSpring
	case f.RestLength < 0:
		return fmt.Errorf("%w: %v", ErrNegativeRest, f.RestLength)
	case f.Stiffness < 0:
		return fmt.Errorf("%w: %v", ErrNegativeStiffness, f.Stiffness)
	case f.Damping < 0:
		return fmt.Errorf("%w: %v", ErrNegativeDamping, f.Damping)
	}
	return nil
}

// Result is what a force contributes to one step.
// F1 acts on particle A and -F1 on particle B. Jx and Jv are the derivatives
// of F1 with respect to the position and velocity of A; they enter the
// system as +J on both diagonal blocks and -J on the (A, B) block.
type Result struct {
	F1 mgl64.Vec3
	Jx mgl64.Mat3
	Jv mgl64.Mat3
}

// Evaluate computes the spring force and its Jacobians at the given state.
// The spring only pulls: nothing happens along the axis while L <= RestLength.
func (f Force) Evaluate(x1, x2, v1, v2 mgl64.Vec3) Result {
	var r Result

	dx := x1.Sub(x2)
	L := dx.Len()

	if L > f.RestLength && L > 0 {
		n := dx.Mul(1.0 / L)
		ks := f.Stiffness
		L0 := f.RestLength

		r.F1 = n.Mul(-ks * (L - L0))

		nn := n.OuterProd3(n)
		I := mgl64.Ident3()
		r.Jx = I.Mul(1.0 - L0/L).Add(nn.Mul(L0 / L)).Mul(-ks)
	}

	kd := f.Damping
	if kd > 0 {
		r.F1 = r.F1.Sub(v1.Sub(v2).Mul(kd))
		r.Jv = mgl64.Ident3().Mul(-kd)
	}

	return r
}

// Energy returns the elastic energy stored in the spring
func (f Force) Energy(x1, x2 mgl64.Vec3) float64 {
	L := x1.Sub(x2).Len()
	if L <= f.RestLength {
		return 0
	}
	d := L - f.RestLength
	return 0.5 * f.Stiffness * d * d
}
