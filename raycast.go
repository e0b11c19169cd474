package weave

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// RayCastHit is the first cloth triangle crossed by a segment
type RayCastHit struct {
	Triangle int
	// Fraction of the segment travelled, in [0, 1]
	Fraction float64
	Point    mgl64.Vec3
	// Normal of the triangle, facing the segment start
	Normal mgl64.Vec3
}

// RayCast returns the closest triangle crossed by the segment p1 p2, using
// the current particle positions. Triangles that lost a particle are
// skipped.
func (c *Cloth) RayCast(p1, p2 mgl64.Vec3) (RayCastHit, bool) {
	d := p2.Sub(p1)

	best := RayCastHit{Fraction: math.Inf(1)}
	found := false

	for i, t := range c.triangles {
		a, okA := c.particles.Get(c.vertexParticles[t.V1])
		b, okB := c.particles.Get(c.vertexParticles[t.V2])
		v, okC := c.particles.Get(c.vertexParticles[t.V3])
		if !okA || !okB || !okC {
			continue
		}

		fraction, ok := intersectTriangle(p1, d, a.Position, b.Position, v.Position)
		if !ok || fraction >= best.Fraction {
			continue
		}

		n := b.Position.Sub(a.Position).Cross(v.Position.Sub(a.Position)).Normalize()
		if n.Dot(d) > 0 {
			n = n.Mul(-1)
		}

		best = RayCastHit{
			Triangle: i,
			Fraction: fraction,
			Point:    p1.Add(d.Mul(fraction)),
			Normal:   n,
		}
		found = true
	}

	return best, found
}

// intersectTriangle is the Möller-Trumbore test of the segment origin +
// s*dir, s in [0, 1], against triangle (a, b, c). Both faces count.
func intersectTriangle(origin, dir, a, b, c mgl64.Vec3) (float64, bool) {
	const epsilon = 1e-12

	e1 := b.Sub(a)
	e2 := c.Sub(a)

	p := dir.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < epsilon {
		// parallel or degenerate
		return 0, false
	}
	invDet := 1.0 / det

	s := origin.Sub(a)
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(e1)
	w := dir.Dot(q) * invDet
	if w < 0 || u+w > 1 {
		return 0, false
	}

	fraction := e2.Dot(q) * invDet
	if fraction < 0 || fraction > 1 {
		return 0, false
	}

	return fraction, true
}
