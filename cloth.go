// Package weave simulates cloth with the implicit integrator of Baraff and
// Witkin.
//
// A Cloth is built from a triangle mesh: one particle per vertex, one
// structural spring per mesh edge and sewing line, and one bending spring
// across every pair of adjacent triangles. Each Step refreshes the contacts
// of the dynamic particles against the static bodies of a RigidWorld, solves
// the linearised backward Euler system with MPCG and clears the pending
// inputs.
//
// External code refers to particles and springs through ParticleID and
// ForceID handles; reads return copies.
package weave

import (
	"fmt"
	"iter"

	"github.com/akmonengine/weave/force"
	"github.com/akmonengine/weave/linalg"
	"github.com/akmonengine/weave/mesh"
	"github.com/akmonengine/weave/particle"
	"github.com/akmonengine/weave/slotmap"
	"github.com/akmonengine/weave/solver"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

const DEFAULT_WORKERS = 1

type (
	ParticleID = slotmap.Handle
	ForceID    = slotmap.Handle
)

// Def holds the construction parameters of a cloth
type Def struct {
	Mesh *mesh.Mesh

	// Density is the mass per unit area
	Density float64
	// Radius of the particle spheres tested against rigid shapes
	Radius float64

	StructuralStiffness float64
	BendingStiffness    float64
	Damping             float64

	// Friction is combined with each body's static friction
	Friction float64

	// Workers refreshing contacts; results do not depend on it
	Workers int

	// Zero values use the solver defaults
	MaxIterations int
	Tolerance     float64

	// Logger defaults to a no-op logger
	Logger *zap.Logger
}

// DefaultDef returns the usual parameters for m
func DefaultDef(m *mesh.Mesh) Def {
	return Def{
		Mesh:                m,
		Density:             0.2,
		Radius:              0.05,
		StructuralStiffness: 10000,
		BendingStiffness:    1000,
		Damping:             0,
		Friction:            0.5,
		Workers:             DEFAULT_WORKERS,
		MaxIterations:       solver.DefaultMaxIterations,
		Tolerance:           solver.DefaultTolerance,
	}
}

// ParticleDef describes a particle added after construction. It is not bound
// to a mesh vertex, so its mass must be given.
type ParticleDef struct {
	Type     particle.Type
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Mass     float64
	Radius   float64
}

type Cloth struct {
	def Def

	particles slotmap.Map[particle.Particle]
	forces    slotmap.Map[force.Force]

	// mesh topology kept for mass updates and ray casts
	triangles []mesh.Triangle
	areas     []float64
	// vertexParticles maps a mesh vertex to its particle, Nil once removed
	vertexParticles []ParticleID

	world RigidWorld
	stack *linalg.Stack
	log   *zap.Logger

	Events Events
}

// NewCloth builds a cloth from def.Mesh. The mesh is only read here.
func NewCloth(def Def) (*Cloth, error) {
	m := def.Mesh
	if m == nil {
		return nil, ErrNilMesh
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMesh, err)
	}
	if !(def.Density > 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDensity, def.Density)
	}

	areas := make([]float64, len(m.Triangles))
	for i, t := range m.Triangles {
		areas[i] = m.TriangleArea(i)
		if !(areas[i] > 0) {
			return nil, fmt.Errorf("%w: triangle %d (%d, %d, %d) has area %v", ErrDegenerateTriangle, i, t.V1, t.V2, t.V3, areas[i])
		}
	}

	def.Workers = max(DEFAULT_WORKERS, def.Workers)
	if def.Logger == nil {
		def.Logger = zap.NewNop()
	}

	c := &Cloth{
		def:             def,
		triangles:       append([]mesh.Triangle(nil), m.Triangles...),
		areas:           areas,
		vertexParticles: make([]ParticleID, len(m.Vertices)),
		stack:           linalg.NewStack(),
		log:             def.Logger,
		Events:          NewEvents(),
	}

	for v, x := range m.Vertices {
		p := particle.New(x, def.Radius)
		p.Vertex = v
		c.vertexParticles[v] = c.particles.Insert(p)
	}

	if err := c.updateMasses(); err != nil {
		return nil, err
	}

	for _, e := range mesh.UniqueEdges(m) {
		c.addSpring(force.KindStructural, e.V1, e.V2, def.StructuralStiffness)
	}

	for _, e := range mesh.SharedEdges(m) {
		if e.Opposite1 == e.Opposite2 {
			continue
		}
		c.addSpring(force.KindBending, e.Opposite1, e.Opposite2, def.BendingStiffness)
	}

	for _, s := range m.SewingLines {
		id := c.addSpring(force.KindStructural, s.V1, s.V2, def.StructuralStiffness)
		// seams pull the two sides together
		c.forces.MustGet(id).RestLength = 0
	}

	c.log.Debug("cloth created",
		zap.Int("particles", c.particles.Len()),
		zap.Int("forces", c.forces.Len()),
		zap.Float64("mass", c.Mass()),
	)

	return c, nil
}

func (c *Cloth) addSpring(kind force.Kind, v1, v2 int, stiffness float64) ForceID {
	a, b := c.vertexParticles[v1], c.vertexParticles[v2]
	pa, pb := c.particles.MustGet(a), c.particles.MustGet(b)

	return c.forces.Insert(force.NewSpring(kind, a, b, pa.Position, pb.Position, stiffness, c.def.Damping))
}

// updateMasses spreads density * area of every triangle evenly over its
// vertices. Particles without a vertex keep their own mass.
func (c *Cloth) updateMasses() error {
	masses := make([]float64, len(c.vertexParticles))
	for i, t := range c.triangles {
		share := c.def.Density * c.areas[i] / 3.0
		masses[t.V1] += share
		masses[t.V2] += share
		masses[t.V3] += share
	}

	for v, id := range c.vertexParticles {
		p, ok := c.particles.Get(id)
		if !ok {
			continue
		}
		if !(masses[v] > 0) {
			return fmt.Errorf("%w: vertex %d belongs to no triangle", ErrMasslessParticle, v)
		}
		p.SetMass(masses[v])
	}

	return nil
}

// SetDensity changes the density and recomputes the mass of every mesh
// particle
func (c *Cloth) SetDensity(density float64) error {
	if !(density > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidDensity, density)
	}
	c.def.Density = density
	return c.updateMasses()
}

func (c *Cloth) Density() float64 {
	return c.def.Density
}

// SetWorld attaches the rigid bodies particles collide with. nil detaches.
func (c *Cloth) SetWorld(world RigidWorld) {
	c.world = world
}

func (c *Cloth) mustParticle(id ParticleID) *particle.Particle {
	p, ok := c.particles.Get(id)
	if !ok {
		panic(fmt.Sprintf("weave: unknown particle %v", id))
	}
	return p
}

// SetType changes the type of a particle. See particle.Particle.SetType.
func (c *Cloth) SetType(id ParticleID, t particle.Type) {
	c.mustParticle(id).SetType(t)
}

// Translate queues a displacement applied by the next Step
func (c *Cloth) Translate(id ParticleID, delta mgl64.Vec3) {
	p := c.mustParticle(id)
	p.Translation = p.Translation.Add(delta)
}

// SetVelocity overwrites the velocity of a moving particle. Static particles
// ignore it.
func (c *Cloth) SetVelocity(id ParticleID, v mgl64.Vec3) {
	p := c.mustParticle(id)
	if p.Type == particle.TypeStatic {
		return
	}
	p.Velocity = v
}

// ApplyForce accumulates an external force for the next Step. Only dynamic
// particles are driven by forces, the others ignore it.
func (c *Cloth) ApplyForce(id ParticleID, f mgl64.Vec3) {
	p := c.mustParticle(id)
	if p.Type != particle.TypeDynamic {
		return
	}
	p.Force = p.Force.Add(f)
}

// AddParticle adds a particle bound to no mesh vertex
func (c *Cloth) AddParticle(def ParticleDef) (ParticleID, error) {
	if !(def.Mass > 0) {
		return slotmap.Nil, fmt.Errorf("%w: mass %v", ErrMasslessParticle, def.Mass)
	}

	p := particle.New(def.Position, def.Radius)
	p.Type = def.Type
	p.SetMass(def.Mass)
	if p.Type != particle.TypeStatic {
		p.Velocity = def.Velocity
	}

	return c.particles.Insert(p), nil
}

// RemoveParticle removes a particle and every force attached to it. It
// reports whether the particle existed.
func (c *Cloth) RemoveParticle(id ParticleID) bool {
	p, ok := c.particles.Get(id)
	if !ok {
		return false
	}

	var attached []ForceID
	for fid, f := range c.forces.All() {
		if f.A == id || f.B == id {
			attached = append(attached, fid)
		}
	}
	for _, fid := range attached {
		c.forces.Remove(fid)
	}

	p.Contact.Deactivate()
	if p.Vertex >= 0 {
		c.vertexParticles[p.Vertex] = slotmap.Nil
	}
	c.Events.forget(id)

	return c.particles.Remove(id)
}

// AddForce adds a force between two particles of the cloth
func (c *Cloth) AddForce(f force.Force) (ForceID, error) {
	if err := f.Validate(); err != nil {
		return slotmap.Nil, fmt.Errorf("%w: %w", ErrInvalidForce, err)
	}
	if !c.particles.Contains(f.A) {
		return slotmap.Nil, fmt.Errorf("%w: %v", ErrUnknownParticle, f.A)
	}
	if !c.particles.Contains(f.B) {
		return slotmap.Nil, fmt.Errorf("%w: %v", ErrUnknownParticle, f.B)
	}

	return c.forces.Insert(f), nil
}

// RemoveForce reports whether the force existed
func (c *Cloth) RemoveForce(id ForceID) bool {
	return c.forces.Remove(id)
}

// VertexParticle returns the particle of mesh vertex v
func (c *Cloth) VertexParticle(v int) (ParticleID, bool) {
	if v < 0 || v >= len(c.vertexParticles) {
		return slotmap.Nil, false
	}
	id := c.vertexParticles[v]
	return id, !id.IsNil()
}

// Particle returns a copy of a particle
func (c *Cloth) Particle(id ParticleID) (particle.Particle, bool) {
	p, ok := c.particles.Get(id)
	if !ok {
		return particle.Particle{}, false
	}
	return *p, true
}

// Force returns a copy of a force
func (c *Cloth) Force(id ForceID) (force.Force, bool) {
	f, ok := c.forces.Get(id)
	if !ok {
		return force.Force{}, false
	}
	return *f, true
}

// Particles iterates copies of the particles in storage order
func (c *Cloth) Particles() iter.Seq2[ParticleID, particle.Particle] {
	return func(yield func(ParticleID, particle.Particle) bool) {
		for id, p := range c.particles.All() {
			if !yield(id, *p) {
				return
			}
		}
	}
}

// Forces iterates copies of the forces in storage order
func (c *Cloth) Forces() iter.Seq2[ForceID, force.Force] {
	return func(yield func(ForceID, force.Force) bool) {
		for id, f := range c.forces.All() {
			if !yield(id, *f) {
				return
			}
		}
	}
}

func (c *Cloth) ParticleCount() int {
	return c.particles.Len()
}

func (c *Cloth) ForceCount() int {
	return c.forces.Len()
}

// Mass returns the total mass of the particles
func (c *Cloth) Mass() float64 {
	var mass float64
	for _, p := range c.particles.All() {
		mass += p.Mass
	}
	return mass
}

// Energy returns the kinetic energy 0.5 Σ m |v|²
func (c *Cloth) Energy() float64 {
	var energy float64
	for _, p := range c.particles.All() {
		energy += p.KineticEnergy()
	}
	return energy
}

// ElasticEnergy returns the energy stored in the springs
func (c *Cloth) ElasticEnergy() float64 {
	var energy float64
	for _, f := range c.forces.All() {
		pa, pb := c.particles.MustGet(f.A), c.particles.MustGet(f.B)
		energy += f.Energy(pa.Position, pb.Position)
	}
	return energy
}

// Apply writes the particle positions into the vertices of m, which must
// have as many vertices as the mesh the cloth was built from. Vertices whose
// particle was removed are left untouched.
func (c *Cloth) Apply(m *mesh.Mesh) {
	if len(m.Vertices) != len(c.vertexParticles) {
		panic(fmt.Sprintf("weave: mesh has %d vertices, cloth has %d", len(m.Vertices), len(c.vertexParticles)))
	}

	for v, id := range c.vertexParticles {
		if p, ok := c.particles.Get(id); ok {
			m.Vertices[v] = p.Position
		}
	}
}
