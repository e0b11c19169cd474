package weave

import (
	"fmt"

	"github.com/akmonengine/weave/constraint"
	"github.com/akmonengine/weave/particle"
	"github.com/akmonengine/weave/solver"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// StepResult describes one Step. The embedded solver result is zero when
// nothing was integrated.
type StepResult struct {
	solver.Result

	// Solved is false for a zero time step
	Solved bool
	// Contacts is the number of active contacts after the refresh
	Contacts int

	// Passed through for callers sharing a step loop with a rigid solver.
	// MPCG is capped by its own iteration limit.
	VelocityIterations int
	PositionIterations int
}

// Step advances the cloth by dt. A zero dt refreshes the contacts and clears
// the pending inputs without integrating.
func (c *Cloth) Step(dt float64, gravity mgl64.Vec3, velocityIterations, positionIterations int) StepResult {
	if dt < 0 {
		panic(fmt.Sprintf("weave: negative time step %v", dt))
	}

	result := StepResult{
		VelocityIterations: velocityIterations,
		PositionIterations: positionIterations,
	}

	// Phase 1: Contact refresh
	result.Contacts = c.refreshContacts()

	// Phase 2: Implicit solve
	if dt > 0 {
		result.Result = c.solve(dt, gravity)
		result.Solved = true

		// Phase 3: Friction, from the forces of this solve
		c.updateFriction()
	}

	// Phase 4: Pending inputs only last one step
	for _, p := range c.particles.All() {
		p.Force = mgl64.Vec3{}
		p.Translation = mgl64.Vec3{}
	}

	// Phase 5: Events
	for id, p := range c.particles.All() {
		if p.Contact.Active {
			c.Events.recordContact(id, p.Contact.Body)
		}
	}
	c.Events.flush()

	c.log.Debug("step",
		zap.Float64("dt", dt),
		zap.Int("particles", result.Particles),
		zap.Int("forces", result.Forces),
		zap.Int("contacts", result.Contacts),
		zap.Int("iterations", result.Iterations),
		zap.Float64("residual", result.ResidualRatio),
	)
	if result.Solved && !result.Converged {
		c.log.Warn("solver stopped before convergence",
			zap.Int("iterations", result.Iterations),
			zap.Float64("residual", result.ResidualRatio),
			zap.Float64("tolerance", c.def.Tolerance),
		)
	}

	return result
}

// refreshContacts finds the deepest penetrated static body of every dynamic
// particle. Other particles lose their contact. It returns the number of
// active contacts.
func (c *Cloth) refreshContacts() int {
	dynamic := make([]*particle.Particle, 0, c.particles.Len())
	for _, p := range c.particles.All() {
		if p.Type == particle.TypeDynamic && c.world != nil {
			dynamic = append(dynamic, p)
		} else {
			p.Contact.Deactivate()
		}
	}

	if len(dynamic) == 0 {
		return 0
	}

	c.world.Update()

	task(c.def.Workers, dynamic, func(p *particle.Particle) {
		body, hit, ok := deepestPenetration(c.world, p.Position, p.Radius)
		if !ok {
			p.Contact.Deactivate()
			return
		}
		p.Contact.Refresh(body, hit)
	})

	count := 0
	for _, p := range dynamic {
		if p.Contact.Active {
			count++
		}
	}
	return count
}

func (c *Cloth) solve(dt float64, gravity mgl64.Vec3) solver.Result {
	s := solver.New(solver.Def{
		Stack:            c.stack,
		ParticleCapacity: c.particles.Len(),
		ForceCapacity:    c.forces.Len(),
		ContactCapacity:  c.particles.Len(),
		MaxIterations:    c.def.MaxIterations,
		Tolerance:        c.def.Tolerance,
	})

	for _, p := range c.particles.All() {
		s.AddParticle(p)
	}

	for _, f := range c.forces.All() {
		s.AddForce(f, c.particles.MustGet(f.A), c.particles.MustGet(f.B))
	}

	for _, p := range c.particles.All() {
		if p.Contact.Active {
			s.AddContact(p)
		}
	}

	return s.Solve(dt, gravity)
}

func (c *Cloth) updateFriction() {
	for _, p := range c.particles.All() {
		if !p.Contact.Active {
			continue
		}
		mu := constraint.ComputeStaticFriction(c.def.Friction, p.Contact.Body.Material)
		constraint.UpdateFriction(&p.Contact, p.Velocity, mu)
	}
}
