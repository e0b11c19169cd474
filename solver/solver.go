// Package solver advances a set of particles by one implicit step.
//
// A Solver lives for exactly one step: particles, forces and contacts are
// added, then Solve runs gather, force evaluation, constraint assembly,
// system assembly, MPCG and scatter in that order. Step buffers are drawn
// from a caller-owned linalg.Stack and released when Solve returns.
//
// The system is the backward Euler linearisation of Baraff and Witkin:
//
//	A = M - h ∂f/∂v - h² ∂f/∂x
//	b = h (f₀ + h ∂f/∂x v + ∂f/∂x y)
//
// where y holds the pending translations. Its solution is the velocity
// increment of every particle.
package solver

import (
	"fmt"

	"github.com/akmonengine/weave/constraint"
	"github.com/akmonengine/weave/force"
	"github.com/akmonengine/weave/linalg"
	"github.com/akmonengine/weave/particle"
	"github.com/go-gl/mathgl/mgl64"
)

// Phase is the position of a solver in its single step
type Phase int

const (
	PhaseConstructed Phase = iota
	PhaseForcesInitialized
	PhaseForcesApplied
	PhaseConstraintsBuilt
	PhaseSystemAssembled
	PhaseSolved
)

func (p Phase) String() string {
	switch p {
	case PhaseConstructed:
		return "constructed"
	case PhaseForcesInitialized:
		return "forces initialized"
	case PhaseForcesApplied:
		return "forces applied"
	case PhaseConstraintsBuilt:
		return "constraints built"
	case PhaseSystemAssembled:
		return "system assembled"
	case PhaseSolved:
		return "solved"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

type Def struct {
	Stack *linalg.Stack

	ParticleCapacity int
	ForceCapacity    int
	ContactCapacity  int

	// Zero values fall back to DefaultMaxIterations and DefaultTolerance
	MaxIterations int
	Tolerance     float64
}

// Result describes one solve
type Result struct {
	Stats
	Phase       Phase
	Particles   int
	Forces      int
	Contacts    int
	Constraints int
}

type spring struct {
	force  *force.Force
	p1, p2 *particle.Particle
}

type Solver struct {
	stack         *linalg.Stack
	maxIterations int
	tolerance     float64
	phase         Phase

	particles   []*particle.Particle
	springs     []spring
	contacts    []*particle.Particle
	constraints []constraint.Acceleration

	// step buffers, valid during Solve
	h       float64
	x, v, f linalg.DenseVec3
	y, x0   linalg.DenseVec3
	results []force.Result
	pairs   []int
	dfdx    *linalg.SparseSymMat33
	dfdv    *linalg.SparseSymMat33
}

func New(def Def) *Solver {
	stack := def.Stack
	if stack == nil {
		stack = linalg.NewStack()
	}

	maxIterations := def.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	tolerance := def.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	return &Solver{
		stack:         stack,
		maxIterations: maxIterations,
		tolerance:     tolerance,
		particles:     make([]*particle.Particle, 0, def.ParticleCapacity),
		springs:       make([]spring, 0, def.ForceCapacity),
		contacts:      make([]*particle.Particle, 0, def.ContactCapacity),
		constraints:   make([]constraint.Acceleration, 0, def.ParticleCapacity),
	}
}

func (s *Solver) Phase() Phase {
	return s.phase
}

func (s *Solver) expect(phase Phase) {
	if s.phase != phase {
		panic(fmt.Sprintf("solver: expected phase %q, solver is %q", phase, s.phase))
	}
}

// AddParticle registers p and assigns its solver index
func (s *Solver) AddParticle(p *particle.Particle) {
	s.expect(PhaseConstructed)

	p.SolverIndex = len(s.particles)
	s.particles = append(s.particles, p)
}

// AddForce registers a spring between two registered particles
func (s *Solver) AddForce(f *force.Force, p1, p2 *particle.Particle) {
	s.expect(PhaseConstructed)
	s.checkParticle(p1)
	s.checkParticle(p2)
	if p1 == p2 {
		panic("solver: spring connects a particle to itself")
	}

	s.springs = append(s.springs, spring{force: f, p1: p1, p2: p2})
}

// AddContact registers the active contact of a registered particle
func (s *Solver) AddContact(p *particle.Particle) {
	s.expect(PhaseConstructed)
	s.checkParticle(p)
	if !p.Contact.Active {
		panic(fmt.Sprintf("solver: particle %d has no active contact", p.SolverIndex))
	}

	s.contacts = append(s.contacts, p)
}

func (s *Solver) checkParticle(p *particle.Particle) {
	i := p.SolverIndex
	if i < 0 || i >= len(s.particles) || s.particles[i] != p {
		panic(fmt.Sprintf("solver: particle with index %d is not part of this solve", i))
	}
}

// Solve integrates every registered particle over dt. It can run once.
func (s *Solver) Solve(dt float64, gravity mgl64.Vec3) Result {
	s.expect(PhaseConstructed)
	if !(dt > 0) {
		panic(fmt.Sprintf("solver: non-positive time step %v", dt))
	}

	mark := s.stack.Mark()
	defer s.stack.Release(mark)

	s.h = dt
	s.gather(gravity)

	s.initializeForces()
	s.applyForces()
	s.initializeConstraints()

	n := len(s.particles)
	A := linalg.NewSparseSymMat33(s.dfdx.Pattern(), s.stack)
	b := s.stack.Vec3s(n)
	s.computeAB(A, b)

	S := s.stack.Diag(n)
	z := s.stack.Vec3s(n)
	s.computeSZ(S, z)
	s.phase = PhaseSystemAssembled

	x := s.stack.Vec3s(n)
	stats := MPCG(s.stack, A, b, S, z, s.x0, x, s.tolerance, s.maxIterations)

	s.scatter(x, A, b)
	s.phase = PhaseSolved

	return Result{
		Stats:       stats,
		Phase:       s.phase,
		Particles:   n,
		Forces:      len(s.springs),
		Contacts:    len(s.contacts),
		Constraints: len(s.constraints),
	}
}

// gather copies the particle state into flat buffers, adds the weight of
// dynamic particles and biases contact translations out of the shapes.
func (s *Solver) gather(gravity mgl64.Vec3) {
	n := len(s.particles)

	s.x = s.stack.Vec3s(n)
	s.v = s.stack.Vec3s(n)
	s.f = s.stack.Vec3s(n)
	s.y = s.stack.Vec3s(n)
	s.x0 = s.stack.Vec3s(n)

	for i, p := range s.particles {
		s.x[i] = p.Position
		s.v[i] = p.Velocity
		s.f[i] = p.Force
		s.y[i] = p.Translation
		s.x0[i] = p.Solution

		if p.Type == particle.TypeDynamic {
			s.f[i] = s.f[i].Add(gravity.Mul(p.Mass))
		}
	}

	// Position correction, not a collision response
	for _, p := range s.contacts {
		c := &p.Contact
		i := p.SolverIndex
		s.y[i] = s.y[i].Sub(c.Normal.Mul(c.Separation))
	}
}

func (s *Solver) initializeForces() {
	s.expect(PhaseConstructed)

	n := len(s.particles)
	pattern := linalg.NewPattern(n)

	s.pairs = s.stack.Ints(2 * len(s.springs))
	s.results = make([]force.Result, len(s.springs))

	for k, sp := range s.springs {
		i1, i2 := sp.p1.SolverIndex, sp.p2.SolverIndex
		s.pairs[2*k] = i1
		s.pairs[2*k+1] = i2
		pattern.Insert(i1, i2)

		s.results[k] = sp.force.Evaluate(s.x[i1], s.x[i2], s.v[i1], s.v[i2])
	}

	s.dfdx = linalg.NewSparseSymMat33(pattern, s.stack)
	s.dfdv = linalg.NewSparseSymMat33(pattern, s.stack)

	s.phase = PhaseForcesInitialized
}

func (s *Solver) applyForces() {
	s.expect(PhaseForcesInitialized)

	for k, r := range s.results {
		i1, i2 := s.pairs[2*k], s.pairs[2*k+1]

		s.f[i1] = s.f[i1].Add(r.F1)
		s.f[i2] = s.f[i2].Sub(r.F1)

		s.dfdx.AddBlock(i1, i1, r.Jx)
		s.dfdx.AddBlock(i2, i2, r.Jx)
		s.dfdx.AddBlock(i1, i2, r.Jx.Mul(-1))

		s.dfdv.AddBlock(i1, i1, r.Jv)
		s.dfdv.AddBlock(i2, i2, r.Jv)
		s.dfdv.AddBlock(i1, i2, r.Jv.Mul(-1))
	}

	s.phase = PhaseForcesApplied
}

// initializeConstraints pins every non-dynamic particle and turns every
// contact into a normal (and possibly tangent) constraint.
func (s *Solver) initializeConstraints() {
	s.expect(PhaseForcesApplied)

	s.constraints = s.constraints[:0]
	for i, p := range s.particles {
		if p.Type != particle.TypeDynamic {
			s.constraints = append(s.constraints, constraint.Pin(i))
		}
	}

	for _, p := range s.contacts {
		i := p.SolverIndex
		s.constraints = append(s.constraints, constraint.FromContact(i, &p.Contact))
	}

	s.phase = PhaseConstraintsBuilt
}

// computeAB assembles A = M - h dfdv - h² dfdx and
// b = h (f + h dfdx v + dfdx y).
func (s *Solver) computeAB(A *linalg.SparseSymMat33, b linalg.DenseVec3) {
	s.expect(PhaseConstraintsBuilt)
	h := s.h

	A.AddScaled(-h, s.dfdv)
	A.AddScaled(-h*h, s.dfdx)
	for i, p := range s.particles {
		A.AddBlock(i, i, mgl64.Diag3(mgl64.Vec3{p.Mass, p.Mass, p.Mass}))
	}

	mark := s.stack.Mark()
	defer s.stack.Release(mark)

	n := len(s.particles)
	dv := s.stack.Vec3s(n)
	dy := s.stack.Vec3s(n)
	s.dfdx.MulVec(dv, s.v)
	s.dfdx.MulVec(dy, s.y)

	b.AddScaled(s.f, h, dv)
	b.Add(b, dy)
	b.Scale(h, b)
}

// computeSZ builds the filter S and the targets z from the constraints.
// Unconstrained particles keep S = I and z = 0.
func (s *Solver) computeSZ(S linalg.DiagMat33, z linalg.DenseVec3) {
	S.SetIdentity()
	z.SetZero()

	for _, c := range s.constraints {
		S[c.Index] = c.Filter()
		z[c.Index] = c.Z
	}
}

// scatter writes the new state back, caches x for the next solve and
// stores the contact forces A x - b.
func (s *Solver) scatter(x linalg.DenseVec3, A *linalg.SparseSymMat33, b linalg.DenseVec3) {
	s.expect(PhaseSystemAssembled)
	h := s.h

	// v = v + x, x = x + h v + y
	s.v.Add(s.v, x)
	s.x.AddScaled(s.x, h, s.v)
	s.x.Add(s.x, s.y)

	for i, p := range s.particles {
		p.Position = s.x[i]
		p.Velocity = s.v[i]
		p.Solution = x[i]
	}

	if len(s.contacts) == 0 {
		return
	}

	mark := s.stack.Mark()
	defer s.stack.Release(mark)

	f := s.stack.Vec3s(len(s.particles))
	A.MulVec(f, x)
	f.Sub(f, b)

	for _, p := range s.contacts {
		c := &p.Contact
		fi := f[p.SolverIndex]

		c.NormalForce = fi.Dot(c.Normal)
		c.TangentForce[0] = fi.Dot(c.Tangent1)
		c.TangentForce[1] = fi.Dot(c.Tangent2)
	}
}
