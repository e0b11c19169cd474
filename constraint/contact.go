package constraint

import (
	"math"

	"github.com/akmonengine/weave/particle"
	"github.com/go-gl/mathgl/mgl64"
)

// StickSpeed is the tangential speed below which a sliding direction locks
const StickSpeed = 1e-2

// FromContact builds the constraint of an active contact. The normal always
// blocks and so does a locked tangent. Z stays zero: the velocity along a
// blocked direction is kept as is, penetration is handled by the position
// bias of the solve.
func FromContact(index int, c *particle.Contact) Acceleration {
	a := Acceleration{Index: index, NDOF: 2, P: c.Normal}

	locked1, locked2 := c.TangentActive[0], c.TangentActive[1]
	switch {
	case locked1 && locked2:
		a.NDOF = 0
	case locked1:
		a.NDOF = 1
		a.Q = c.Tangent1
	case locked2:
		a.NDOF = 1
		a.Q = c.Tangent2
	}

	return a
}

// UpdateFriction decides which tangents of c lock in the next solve, from
// the forces of the solve that just ran and the new velocity v.
// A locked tangent holds while its force stays inside the friction cone
// mu * Fn; a free tangent locks once the particle slows below StickSpeed
// along it. Nothing locks unless the shape pushes (Fn > 0).
func UpdateFriction(c *particle.Contact, v mgl64.Vec3, mu float64) {
	if !c.Active {
		return
	}

	c.NormalImpulse += c.NormalForce
	c.TangentImpulse[0] += c.TangentForce[0]
	c.TangentImpulse[1] += c.TangentForce[1]

	fn := c.NormalForce
	if fn <= 0 {
		c.TangentActive = [2]bool{}
		return
	}

	tangents := [2]mgl64.Vec3{c.Tangent1, c.Tangent2}
	for k := range 2 {
		if c.TangentActive[k] {
			c.TangentActive[k] = math.Abs(c.TangentForce[k]) <= mu*fn
		} else {
			c.TangentActive[k] = mu > 0 && math.Abs(v.Dot(tangents[k])) <= StickSpeed
		}
	}
}
