package force

import (
	"errors"
	"math"
	"testing"

	"github.com/akmonengine/weave/slotmap"
	"github.com/go-gl/mathgl/mgl64"
)

func mat3Equal(a, b mgl64.Mat3, tolerance float64) bool {
	for i := range 9 {
		if math.Abs(a[i]-b[i]) > tolerance {
			return false
		}
	}
	return true
}

func vec3Equal(a, b mgl64.Vec3, tolerance float64) bool {
	return math.Abs(a.X()-b.X()) < tolerance &&
		math.Abs(a.Y()-b.Y()) < tolerance &&
		math.Abs(a.Z()-b.Z()) < tolerance
}

var (
	handleA = slotmap.Handle{Index: 0, Generation: 1}
	handleB = slotmap.Handle{Index: 1, Generation: 1}
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		force   Force
		wantErr error
	}{
		{"valid", Force{A: handleA, B: handleB, RestLength: 1, Stiffness: 10, Damping: 1}, nil},
		{"self spring", Force{A: handleA, B: handleA, RestLength: 1}, ErrSelfSpring},
		{"negative rest", Force{A: handleA, B: handleB, RestLength: -1}, ErrNegativeRest},
		{"negative stiffness", Force{A: handleA, B: handleB, Stiffness: -1}, ErrNegativeStiffness},
		{"negative damping", Force{A: handleA, B: handleB, Damping: -1}, ErrNegativeDamping},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.force.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewSpringRestLength(t *testing.T) {
	f := NewSpring(KindBending, handleA, handleB, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{3, 4, 0}, 5, 0)

	if f.RestLength != 5 {
		t.Errorf("RestLength = %v, want 5", f.RestLength)
	}
	if f.Kind != KindBending {
		t.Errorf("Kind = %v, want bending", f.Kind)
	}
}

func TestEvaluateStretched(t *testing.T) {
	f := Force{A: handleA, B: handleB, RestLength: 1, Stiffness: 10}

	r := f.Evaluate(mgl64.Vec3{2, 0, 0}, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{}, mgl64.Vec3{})

	// Pulls A back toward B by ks * (L - L0)
	if !vec3Equal(r.F1, mgl64.Vec3{-10, 0, 0}, 1e-12) {
		t.Errorf("F1 = %v, want [-10 0 0]", r.F1)
	}

	// -ks [(1 - L0/L) I + (L0/L) n nᵀ] with n = x, L = 2
	want := mgl64.Diag3(mgl64.Vec3{-10, -5, -5})
	if !mat3Equal(r.Jx, want, 1e-12) {
		t.Errorf("Jx = %v, want %v", r.Jx, want)
	}
	if r.Jv != (mgl64.Mat3{}) {
		t.Errorf("Jv = %v, want zero without damping", r.Jv)
	}
}

func TestEvaluateCompressedIsSilent(t *testing.T) {
	f := Force{A: handleA, B: handleB, RestLength: 2, Stiffness: 10}

	r := f.Evaluate(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{}, mgl64.Vec3{})

	if r.F1 != (mgl64.Vec3{}) || r.Jx != (mgl64.Mat3{}) {
		t.Errorf("compressed spring produced %v %v", r.F1, r.Jx)
	}
}

func TestEvaluateCoincident(t *testing.T) {
	f := Force{A: handleA, B: handleB, RestLength: 0, Stiffness: 10, Damping: 2}

	r := f.Evaluate(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{1, 1, 1}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{})

	if !vec3Equal(r.F1, mgl64.Vec3{-2, 0, 0}, 1e-12) {
		t.Errorf("F1 = %v, want damping only [-2 0 0]", r.F1)
	}
	if r.Jx != (mgl64.Mat3{}) {
		t.Errorf("Jx = %v, want zero", r.Jx)
	}
}

func TestEvaluateDamping(t *testing.T) {
	f := Force{A: handleA, B: handleB, RestLength: 5, Stiffness: 10, Damping: 0.5}

	r := f.Evaluate(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 2, 0}, mgl64.Vec3{0, -2, 0})

	if !vec3Equal(r.F1, mgl64.Vec3{0, -2, 0}, 1e-12) {
		t.Errorf("F1 = %v, want [0 -2 0]", r.F1)
	}
	if !mat3Equal(r.Jv, mgl64.Diag3(mgl64.Vec3{-0.5, -0.5, -0.5}), 1e-12) {
		t.Errorf("Jv = %v, want -0.5 I", r.Jv)
	}
}

// Jx must match a central difference of F1 in the position of A.
func TestEvaluateJacobianFiniteDifference(t *testing.T) {
	f := Force{A: handleA, B: handleB, RestLength: 0.7, Stiffness: 25}
	x1 := mgl64.Vec3{0.3, 0.9, -0.4}
	x2 := mgl64.Vec3{-0.2, 0.1, 0.2}

	r := f.Evaluate(x1, x2, mgl64.Vec3{}, mgl64.Vec3{})

	const h = 1e-6
	for col := range 3 {
		var d mgl64.Vec3
		d[col] = h
		fp := f.Evaluate(x1.Add(d), x2, mgl64.Vec3{}, mgl64.Vec3{}).F1
		fm := f.Evaluate(x1.Sub(d), x2, mgl64.Vec3{}, mgl64.Vec3{}).F1
		deriv := fp.Sub(fm).Mul(1 / (2 * h))

		if !vec3Equal(r.Jx.Col(col), deriv, 1e-5) {
			t.Errorf("Jx column %d = %v, finite difference %v", col, r.Jx.Col(col), deriv)
		}
	}
}

func TestEnergy(t *testing.T) {
	f := Force{A: handleA, B: handleB, RestLength: 1, Stiffness: 4}

	if got := f.Energy(mgl64.Vec3{3, 0, 0}, mgl64.Vec3{}); got != 8 {
		t.Errorf("Energy() = %v, want 8", got)
	}
	if got := f.Energy(mgl64.Vec3{0.5, 0, 0}, mgl64.Vec3{}); got != 0 {
		t.Errorf("Energy() compressed = %v, want 0", got)
	}
}
