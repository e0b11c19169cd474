// Package particle holds the per-vertex state of a cloth.
package particle

import (
	"fmt"

	"github.com/akmonengine/weave/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Type represents how a particle is driven
type Type int

const (
	// TypeStatic particles never move on their own. Only Translate changes
	// their position.
	TypeStatic Type = iota

	// TypeKinematic particles move with their own velocity and ignore forces
	TypeKinematic

	// TypeDynamic particles are integrated under gravity, springs and contacts
	TypeDynamic
)

func (t Type) String() string {
	switch t {
	case TypeStatic:
		return "static"
	case TypeKinematic:
		return "kinematic"
	case TypeDynamic:
		return "dynamic"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Particle is a point mass of the cloth
type Particle struct {
	Type Type

	Position mgl64.Vec3
	Velocity mgl64.Vec3

	// Pending inputs, cleared at the end of every step
	Force       mgl64.Vec3
	Translation mgl64.Vec3

	// Mass is derived from the triangles around the vertex and is kept for
	// every type. InvMass is 0 unless the particle is dynamic.
	Mass    float64
	InvMass float64

	// Radius of the sphere tested against rigid shapes
	Radius float64

	// Vertex is the mesh vertex owning this particle, -1 for none
	Vertex int

	// SolverIndex is assigned fresh by each solve
	SolverIndex int
	// Solution is the velocity increment of the last solve, reused as the
	// next initial guess
	Solution mgl64.Vec3

	Contact Contact
}

// New creates a dynamic particle at position, not bound to any vertex
func New(position mgl64.Vec3, radius float64) Particle {
	return Particle{
		Type:     TypeDynamic,
		Position: position,
		Radius:   radius,
		Vertex:   -1,
	}
}

// SetMass stores mass and derives the inverse mass from the type
func (p *Particle) SetMass(mass float64) {
	p.Mass = mass
	p.updateInvMass()
}

// SetType changes the classification and drops the pending force. Becoming
// static also zeroes the velocity, the pending translation and the solver
// cache, and drops the contact.
func (p *Particle) SetType(t Type) {
	if p.Type == t {
		return
	}
	p.Type = t
	p.Force = mgl64.Vec3{}

	if t == TypeStatic {
		p.Velocity = mgl64.Vec3{}
		p.Translation = mgl64.Vec3{}
		p.Solution = mgl64.Vec3{}
		p.Contact.Deactivate()
	}
	p.updateInvMass()
}

func (p *Particle) updateInvMass() {
	if p.Type == TypeDynamic && p.Mass > 0 {
		p.InvMass = 1.0 / p.Mass
	} else {
		p.InvMass = 0
	}
}

// KineticEnergy returns 0.5 m |v|²
func (p *Particle) KineticEnergy() float64 {
	return 0.5 * p.Mass * p.Velocity.Dot(p.Velocity)
}

// Contact records the deepest rigid shape a particle penetrates
type Contact struct {
	Active bool
	Body   *actor.RigidBody

	// Separation is negative while penetrating
	Separation float64
	// Normal points from the shape toward the particle
	Normal mgl64.Vec3
	// LocalPoint is the contact point in the body frame
	LocalPoint mgl64.Vec3

	Tangent1 mgl64.Vec3
	Tangent2 mgl64.Vec3

	// Signed components of A x - b from the last solve, the extra momentum
	// the constraint supplied over the step (not divided by dt). Positive
	// NormalForce pushes the particle away from the shape.
	NormalForce  float64
	TangentForce [2]float64

	// TangentActive locks the matching tangent direction in the next solve
	TangentActive [2]bool

	// Sums of the forces above over the life of the contact
	NormalImpulse  float64
	TangentImpulse [2]float64
}

// Deactivate marks the contact inactive and discards its accumulated state
func (c *Contact) Deactivate() {
	*c = Contact{}
}

// Refresh replaces the geometry of the contact. Accumulated state survives
// only if the contact was already active against the same body.
func (c *Contact) Refresh(body *actor.RigidBody, hit actor.SphereHit) {
	carry := c.Active && c.Body == body
	prev := *c

	t1, t2 := actor.TangentBasis(hit.Normal)

	*c = Contact{
		Active:     true,
		Body:       body,
		Separation: hit.Separation,
		Normal:     hit.Normal,
		LocalPoint: body.LocalPoint(hit.Point),
		Tangent1:   t1,
		Tangent2:   t2,
	}

	if carry {
		c.TangentActive = prev.TangentActive
		c.NormalImpulse = prev.NormalImpulse
		c.TangentImpulse = prev.TangentImpulse
	}
}

// Point returns the contact point in world space
func (c *Contact) Point() mgl64.Vec3 {
	if c.Body == nil {
		return mgl64.Vec3{}
	}
	return c.Body.WorldPoint(c.LocalPoint)
}
