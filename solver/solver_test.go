package solver

import (
	"math"
	"math/rand"
	"testing"

	"github.com/akmonengine/weave/actor"
	"github.com/akmonengine/weave/force"
	"github.com/akmonengine/weave/linalg"
	"github.com/akmonengine/weave/particle"
	"github.com/akmonengine/weave/slotmap"
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

var gravity = mgl64.Vec3{0, -9.81, 0}

func vec3Equal(a, b mgl64.Vec3, tolerance float64) bool {
	return math.Abs(a.X()-b.X()) < tolerance &&
		math.Abs(a.Y()-b.Y()) < tolerance &&
		math.Abs(a.Z()-b.Z()) < tolerance
}

func createParticle(typ particle.Type, position mgl64.Vec3, mass float64) *particle.Particle {
	p := particle.New(position, 0.05)
	p.SetType(typ)
	p.SetMass(mass)
	return &p
}

func createSpring(p1, p2 *particle.Particle, stiffness, damping float64) *force.Force {
	f := force.NewSpring(force.KindStructural,
		slotmap.Handle{Index: 0, Generation: 1}, slotmap.Handle{Index: 1, Generation: 1},
		p1.Position, p2.Position, stiffness, damping)
	return &f
}

// chainSystem builds the block tridiagonal system mass I + k L of a chain
func chainSystem(n int, mass, k float64) *linalg.SparseSymMat33 {
	p := linalg.NewPattern(n)
	for i := 0; i+1 < n; i++ {
		p.Insert(i, i+1)
	}
	A := linalg.NewSparseSymMat33(p, nil)

	I := mgl64.Ident3()
	for i := range n {
		A.AddBlock(i, i, I.Mul(mass))
	}
	for i := 0; i+1 < n; i++ {
		A.AddBlock(i, i, I.Mul(k))
		A.AddBlock(i+1, i+1, I.Mul(k))
		A.AddBlock(i, i+1, I.Mul(-k))
	}
	return A
}

func identityFilter(n int) linalg.DiagMat33 {
	S := make(linalg.DiagMat33, n)
	S.SetIdentity()
	return S
}

// =============================================================================
// MPCG Tests
// =============================================================================

func TestMPCGMatchesDenseSolve(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const n = 8

	A := chainSystem(n, 2, 50)
	b := make(linalg.DenseVec3, n)
	for i := range b {
		b[i] = mgl64.Vec3{rng.Float64() - 0.5, rng.Float64() - 0.5, rng.Float64() - 0.5}
	}

	x := make(linalg.DenseVec3, n)
	stats := MPCG(linalg.NewStack(), A, b, identityFilter(n), make(linalg.DenseVec3, n), make(linalg.DenseVec3, n), x, 1e-10, 1000)
	if !stats.Converged {
		t.Fatalf("MPCG did not converge: %+v", stats)
	}

	dense := mat.NewDense(3*n, 3*n, nil)
	for i := range n {
		for j := range n {
			blk := A.At(i, j)
			for r := range 3 {
				for c := range 3 {
					dense.Set(3*i+r, 3*j+c, blk.At(r, c))
				}
			}
		}
	}
	rhs := mat.NewVecDense(3*n, nil)
	for i := range n {
		for k := range 3 {
			rhs.SetVec(3*i+k, b[i][k])
		}
	}

	var want mat.VecDense
	if err := want.SolveVec(dense, rhs); err != nil {
		t.Fatalf("dense solve failed: %v", err)
	}

	for i := range n {
		for k := range 3 {
			if math.Abs(x[i][k]-want.AtVec(3*i+k)) > 1e-8 {
				t.Errorf("x[%d][%d] = %v, dense solve %v", i, k, x[i][k], want.AtVec(3*i+k))
			}
		}
	}
}

func TestMPCGConstraintsHold(t *testing.T) {
	const n = 5
	A := chainSystem(n, 1, 100)

	b := make(linalg.DenseVec3, n)
	for i := range b {
		b[i] = mgl64.Vec3{1, -2, 0.5}
	}

	normal := mgl64.Vec3{0, 1, 0}
	S := identityFilter(n)
	z := make(linalg.DenseVec3, n)

	// particle 0 pinned, particle 3 blocked along the normal with a target
	S[0] = mgl64.Mat3{}
	S[3] = mgl64.Ident3().Sub(linalg.Outer(normal, normal))
	z[3] = mgl64.Vec3{0, 0.25, 0}

	// a warm start pointing into the blocked directions must be filtered out
	x0 := make(linalg.DenseVec3, n)
	for i := range x0 {
		x0[i] = mgl64.Vec3{3, 3, 3}
	}

	x := make(linalg.DenseVec3, n)
	stats := MPCG(linalg.NewStack(), A, b, S, z, x0, x, DefaultTolerance, DefaultMaxIterations)

	if !stats.Converged {
		t.Errorf("MPCG did not converge: %+v", stats)
	}
	if x[0] != (mgl64.Vec3{}) {
		t.Errorf("pinned x[0] = %v, want exactly zero", x[0])
	}
	if math.Abs(x[3].Dot(normal)-0.25) > 1e-12 {
		t.Errorf("x[3] · n = %v, want 0.25", x[3].Dot(normal))
	}
}

// A long, nearly singular chain driven at one end cannot converge within the
// cap: after k iterations the iterate is still zero beyond k links.
func TestMPCGStopsAtCap(t *testing.T) {
	const n = 400
	A := chainSystem(n, 1e-6, 1)

	b := make(linalg.DenseVec3, n)
	b[0] = mgl64.Vec3{1, 1, 1}

	x := make(linalg.DenseVec3, n)
	stack := linalg.NewStack()
	stats := MPCG(stack, A, b, identityFilter(n), make(linalg.DenseVec3, n), make(linalg.DenseVec3, n), x, DefaultTolerance, DefaultMaxIterations)

	if stats.Iterations != DefaultMaxIterations {
		t.Errorf("Iterations = %d, want the cap %d", stats.Iterations, DefaultMaxIterations)
	}
	if stats.Converged {
		t.Error("Converged = true on a system that cannot converge in time")
	}
	if !x.IsFinite() {
		t.Error("unconverged iterate is not finite")
	}
	if math.IsNaN(stats.ResidualRatio) || stats.ResidualRatio <= DefaultTolerance {
		t.Errorf("ResidualRatio = %v, want above the tolerance", stats.ResidualRatio)
	}
	if stack.InUse() {
		t.Error("MPCG left buffers on the stack")
	}
}

func TestMPCGNotPositiveDefinitePanics(t *testing.T) {
	A := chainSystem(2, 0, 0)

	defer func() {
		if recover() == nil {
			t.Error("MPCG should panic on a singular diagonal block")
		}
	}()

	x := make(linalg.DenseVec3, 2)
	MPCG(linalg.NewStack(), A, make(linalg.DenseVec3, 2), identityFilter(2), make(linalg.DenseVec3, 2), make(linalg.DenseVec3, 2), x, DefaultTolerance, DefaultMaxIterations)
}

func TestMPCGNonFinitePanics(t *testing.T) {
	A := chainSystem(2, 1, 1)
	b := linalg.DenseVec3{{math.NaN(), 0, 0}, {}}

	defer func() {
		if recover() == nil {
			t.Error("MPCG should panic on a non-finite right-hand side")
		}
	}()

	x := make(linalg.DenseVec3, 2)
	MPCG(linalg.NewStack(), A, b, identityFilter(2), make(linalg.DenseVec3, 2), make(linalg.DenseVec3, 2), x, DefaultTolerance, DefaultMaxIterations)
}

// =============================================================================
// Solver Tests
// =============================================================================

func TestSolveFreeFall(t *testing.T) {
	p := createParticle(particle.TypeDynamic, mgl64.Vec3{0, 10, 0}, 2)

	s := New(Def{ParticleCapacity: 1})
	s.AddParticle(p)
	result := s.Solve(0.1, gravity)

	if !result.Converged {
		t.Errorf("free fall did not converge: %+v", result)
	}
	if !vec3Equal(p.Velocity, mgl64.Vec3{0, -0.981, 0}, 1e-9) {
		t.Errorf("Velocity = %v, want [0 -0.981 0]", p.Velocity)
	}
	if !vec3Equal(p.Position, mgl64.Vec3{0, 10 - 0.0981, 0}, 1e-9) {
		t.Errorf("Position = %v, want [0 9.9019 0]", p.Position)
	}
	if !vec3Equal(p.Solution, mgl64.Vec3{0, -0.981, 0}, 1e-9) {
		t.Errorf("Solution = %v, want the velocity increment", p.Solution)
	}
}

func TestSolvePinnedParticlesUnchanged(t *testing.T) {
	static := createParticle(particle.TypeStatic, mgl64.Vec3{0, 0, 0}, 1)
	kinematic := createParticle(particle.TypeKinematic, mgl64.Vec3{1, 0, 0}, 1)
	kinematic.Velocity = mgl64.Vec3{0, 0, 1}
	dynamic := createParticle(particle.TypeDynamic, mgl64.Vec3{0.5, -0.5, 0}, 1)

	s := New(Def{ParticleCapacity: 3, ForceCapacity: 2})
	s.AddParticle(static)
	s.AddParticle(kinematic)
	s.AddParticle(dynamic)

	// stretched springs pulling hard on both pinned particles
	f1 := createSpring(static, dynamic, 1e4, 10)
	f1.RestLength *= 0.5
	f2 := createSpring(kinematic, dynamic, 1e4, 10)
	f2.RestLength *= 0.5
	s.AddForce(f1, static, dynamic)
	s.AddForce(f2, kinematic, dynamic)

	result := s.Solve(1.0/60, mgl64.Vec3{})

	if static.Position != (mgl64.Vec3{0, 0, 0}) || static.Velocity != (mgl64.Vec3{}) {
		t.Errorf("static particle moved: %v %v", static.Position, static.Velocity)
	}
	if kinematic.Velocity != (mgl64.Vec3{0, 0, 1}) {
		t.Errorf("kinematic velocity = %v, want [0 0 1]", kinematic.Velocity)
	}
	if !vec3Equal(kinematic.Position, mgl64.Vec3{1, 0, 1.0 / 60}, 1e-12) {
		t.Errorf("kinematic position = %v, want it advanced by its velocity", kinematic.Position)
	}
	if dynamic.Position == (mgl64.Vec3{0.5, -0.5, 0}) {
		t.Error("dynamic particle did not react to the springs")
	}
	if result.Constraints != 2 {
		t.Errorf("Constraints = %d, want 2", result.Constraints)
	}
}

func TestSolveTranslationMovesStaticParticle(t *testing.T) {
	p := createParticle(particle.TypeStatic, mgl64.Vec3{0, 0, 0}, 1)
	p.Translation = mgl64.Vec3{0.5, 0, 0}

	s := New(Def{ParticleCapacity: 1})
	s.AddParticle(p)
	s.Solve(0.1, gravity)

	if p.Position != (mgl64.Vec3{0.5, 0, 0}) {
		t.Errorf("Position = %v, want [0.5 0 0]", p.Position)
	}
}

func TestSolveContactForce(t *testing.T) {
	ground := actor.NewRigidBody(actor.NewTransform(), &actor.Plane{Normal: mgl64.Vec3{0, 1, 0}}, actor.BodyTypeStatic)

	p := createParticle(particle.TypeDynamic, mgl64.Vec3{0, 0.04, 0}, 2)
	p.Velocity = mgl64.Vec3{0.5, -1, 0}
	p.Contact.Refresh(ground, actor.SphereHit{Separation: -0.01, Point: mgl64.Vec3{0, 0, 0}, Normal: mgl64.Vec3{0, 1, 0}})

	s := New(Def{ParticleCapacity: 1, ContactCapacity: 1})
	s.AddParticle(p)
	s.AddContact(p)

	const dt = 0.01
	s.Solve(dt, gravity)

	// the normal increment is blocked: gravity is cancelled, the approach
	// speed is kept
	if !vec3Equal(p.Velocity, mgl64.Vec3{0.5, -1, 0}, 1e-9) {
		t.Errorf("Velocity = %v, want [0.5 -1 0]", p.Velocity)
	}
	// moved by h v, then pushed out of the plane by the separation
	if !vec3Equal(p.Position, mgl64.Vec3{0.005, 0.04, 0}, 1e-9) {
		t.Errorf("Position = %v, want [0.005 0.04 0]", p.Position)
	}

	// A x - b: the plane supplies the weight over the step, m g h
	want := 2 * 9.81 * dt
	if math.Abs(p.Contact.NormalForce-want) > 1e-9 {
		t.Errorf("NormalForce = %v, want %v", p.Contact.NormalForce, want)
	}
	if math.Abs(p.Contact.TangentForce[0]) > 1e-9 || math.Abs(p.Contact.TangentForce[1]) > 1e-9 {
		t.Errorf("TangentForce = %v, want zero on a free slide", p.Contact.TangentForce)
	}
}

func TestSolveLockedContactBlocksIncrement(t *testing.T) {
	ground := actor.NewRigidBody(actor.NewTransform(), &actor.Plane{Normal: mgl64.Vec3{0, 1, 0}}, actor.BodyTypeStatic)

	p := createParticle(particle.TypeDynamic, mgl64.Vec3{0, 0.05, 0}, 1)
	p.Velocity = mgl64.Vec3{0.2, 0, -0.1}
	p.Force = mgl64.Vec3{3, 0, 0}
	p.Contact.Refresh(ground, actor.SphereHit{Separation: 0, Normal: mgl64.Vec3{0, 1, 0}})
	p.Contact.TangentActive = [2]bool{true, true}

	s := New(Def{ParticleCapacity: 1, ContactCapacity: 1})
	s.AddParticle(p)
	s.AddContact(p)

	const dt = 0.01
	s.Solve(dt, gravity)

	// no direction is free: the push and the weight change nothing
	if !vec3Equal(p.Velocity, mgl64.Vec3{0.2, 0, -0.1}, 1e-12) {
		t.Errorf("Velocity = %v, want [0.2 0 -0.1]", p.Velocity)
	}
	if !vec3Equal(p.Solution, mgl64.Vec3{}, 1e-12) {
		t.Errorf("Solution = %v, want zero", p.Solution)
	}

	// the contact holds against the push along Tangent1 = +X
	if math.Abs(p.Contact.TangentForce[0]+3*dt) > 1e-12 {
		t.Errorf("TangentForce[0] = %v, want %v", p.Contact.TangentForce[0], -3*dt)
	}
	if math.Abs(p.Contact.NormalForce-9.81*dt) > 1e-12 {
		t.Errorf("NormalForce = %v, want %v", p.Contact.NormalForce, 9.81*dt)
	}
}

func TestSolvePhases(t *testing.T) {
	p := createParticle(particle.TypeDynamic, mgl64.Vec3{}, 1)
	s := New(Def{})

	if s.Phase() != PhaseConstructed {
		t.Fatalf("Phase() = %v, want constructed", s.Phase())
	}

	s.AddParticle(p)
	result := s.Solve(0.01, gravity)

	if result.Phase != PhaseSolved || s.Phase() != PhaseSolved {
		t.Errorf("Phase = %v, want solved", result.Phase)
	}

	tests := []struct {
		name string
		fn   func()
	}{
		{"solve twice", func() { s.Solve(0.01, gravity) }},
		{"add after solve", func() { s.AddParticle(createParticle(particle.TypeDynamic, mgl64.Vec3{}, 1)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected a panic")
				}
			}()
			tt.fn()
		})
	}
}

func TestSolvePreconditions(t *testing.T) {
	tests := []struct {
		name string
		fn   func(s *Solver)
	}{
		{"zero time step", func(s *Solver) { s.Solve(0, gravity) }},
		{"unknown particle in force", func(s *Solver) {
			a := createParticle(particle.TypeDynamic, mgl64.Vec3{}, 1)
			b := createParticle(particle.TypeDynamic, mgl64.Vec3{1, 0, 0}, 1)
			s.AddParticle(a)
			s.AddForce(createSpring(a, b, 1, 0), a, b)
		}},
		{"inactive contact", func(s *Solver) {
			a := createParticle(particle.TypeDynamic, mgl64.Vec3{}, 1)
			s.AddParticle(a)
			s.AddContact(a)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected a panic")
				}
			}()
			tt.fn(New(Def{}))
		})
	}
}

func TestSolveReleasesStack(t *testing.T) {
	stack := linalg.NewStack()
	a := createParticle(particle.TypeStatic, mgl64.Vec3{}, 1)
	b := createParticle(particle.TypeDynamic, mgl64.Vec3{1, 0, 0}, 1)

	s := New(Def{Stack: stack, ParticleCapacity: 2, ForceCapacity: 1})
	s.AddParticle(a)
	s.AddParticle(b)
	s.AddForce(createSpring(a, b, 100, 1), a, b)
	s.Solve(0.01, gravity)

	if stack.InUse() {
		t.Error("Solve left buffers on the stack")
	}
}
