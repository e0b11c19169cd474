package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType represents the type of collision shape
type ShapeType int

const (
	ShapeTypeSphere ShapeType = iota
	ShapeTypeBox
	ShapeTypePlane
)

// SphereHit describes how a query sphere meets a shape.
// Separation is the signed gap between the surfaces (negative when the sphere
// penetrates), Point lies on the shape surface and Normal points from the
// shape toward the sphere centre.
type SphereHit struct {
	Separation float64
	Point      mgl64.Vec3
	Normal     mgl64.Vec3
}

// ShapeInterface is the interface that all collision shapes must implement
type ShapeInterface interface {
	Type() ShapeType
	// ComputeAABB calculates the axis-aligned bounding box for the shape
	// at the given transform
	ComputeAABB(transform Transform)
	GetAABB() AABB
	// Bounded is false for shapes whose AABB cannot be stored in a grid
	Bounded() bool
	// TestSphere reports whether the sphere touches or penetrates the shape
	TestSphere(center mgl64.Vec3, radius float64, transform Transform) (SphereHit, bool)
}

// Box represents an oriented box collision shape
// The box is defined by its half-extents (half-width, half-height, half-depth)
type Box struct {
	HalfExtents mgl64.Vec3
	aabb        AABB
}

func (b *Box) Type() ShapeType {
	return ShapeTypeBox
}

func (b *Box) ComputeAABB(transform Transform) {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()

	worldCorner := transform.ToWorld(mgl64.Vec3{-hx, -hy, -hz})
	min := worldCorner
	max := worldCorner

	for i := 1; i < 8; i++ {
		corner := mgl64.Vec3{hx, hy, hz}
		if i&1 == 0 {
			corner[0] = -hx
		}
		if i&2 == 0 {
			corner[1] = -hy
		}
		if i&4 == 0 {
			corner[2] = -hz
		}
		worldCorner = transform.ToWorld(corner)

		for axis := range 3 {
			min[axis] = math.Min(min[axis], worldCorner[axis])
			max[axis] = math.Max(max[axis], worldCorner[axis])
		}
	}

	b.aabb = AABB{Min: min, Max: max}
}

func (b *Box) GetAABB() AABB {
	return b.aabb
}

func (b *Box) Bounded() bool {
	return true
}

// TestSphere clamps the sphere centre onto the box in local space. A centre
// inside the box is pushed out through the face of least penetration.
func (b *Box) TestSphere(center mgl64.Vec3, radius float64, transform Transform) (SphereHit, bool) {
	local := transform.ToLocal(center)

	closest := local
	inside := true
	for axis := range 3 {
		h := b.HalfExtents[axis]
		if closest[axis] > h {
			closest[axis] = h
			inside = false
		} else if closest[axis] < -h {
			closest[axis] = -h
			inside = false
		}
	}

	var hit SphereHit

	if inside {
		axis := 0
		best := math.MaxFloat64
		for a := range 3 {
			if d := b.HalfExtents[a] - math.Abs(local[a]); d < best {
				best = d
				axis = a
			}
		}

		var normal mgl64.Vec3
		normal[axis] = math.Copysign(1, local[axis])

		point := local
		point[axis] = normal[axis] * b.HalfExtents[axis]

		hit = SphereHit{
			Separation: -best - radius,
			Point:      transform.ToWorld(point),
			Normal:     transform.RotateToWorld(normal),
		}
		return hit, true
	}

	d := local.Sub(closest)
	distance := d.Len()
	separation := distance - radius
	if separation > 0 {
		return SphereHit{}, false
	}

	hit = SphereHit{
		Separation: separation,
		Point:      transform.ToWorld(closest),
		Normal:     transform.RotateToWorld(d.Mul(1.0 / distance)),
	}
	return hit, true
}

// Sphere represents a spherical collision shape
type Sphere struct {
	Radius float64
	aabb   AABB
}

func (s *Sphere) Type() ShapeType {
	return ShapeTypeSphere
}

// ComputeAABB calculates the axis-aligned bounding box for the sphere
func (s *Sphere) ComputeAABB(transform Transform) {
	// Sphere AABB is not affected by rotation, only by position
	s.aabb = SphereAABB(transform.Position, s.Radius)
}

func (s *Sphere) GetAABB() AABB {
	return s.aabb
}

func (s *Sphere) Bounded() bool {
	return true
}

func (s *Sphere) TestSphere(center mgl64.Vec3, radius float64, transform Transform) (SphereHit, bool) {
	d := center.Sub(transform.Position)
	distance := d.Len()

	separation := distance - s.Radius - radius
	if separation > 0 {
		return SphereHit{}, false
	}

	normal := mgl64.Vec3{0, 1, 0}
	if distance > 1e-12 {
		normal = d.Mul(1.0 / distance)
	}

	return SphereHit{
		Separation: separation,
		Point:      transform.Position.Add(normal.Mul(s.Radius)),
		Normal:     normal,
	}, true
}

// Plane represents an infinite plane collision shape
// The plane is defined by the equation: Normal · p + Distance = 0
// where Normal is the plane's normal vector (must be normalized)
// and Distance is the signed distance from the origin along the normal.
// Everything below the plane is solid.
type Plane struct {
	Normal   mgl64.Vec3 // Plane normal (must be normalized)
	Distance float64    // Plane constant (signed distance from origin)
	aabb     AABB
}

func (p *Plane) Type() ShapeType {
	return ShapeTypePlane
}

func (p *Plane) ComputeAABB(transform Transform) {
	const thickness = 1.0 // épaisseur de détection du plan
	const infinity = 1e10 // grande valeur pour les dimensions infinies

	normal := transform.RotateToWorld(p.Normal)
	planePoint := normal.Mul(-p.Distance).Add(transform.Position)

	min := planePoint.Sub(normal.Mul(thickness))
	max := planePoint

	// Extend the AABB to infinity in directions not aligned with the normal
	for axis := range 3 {
		if math.Abs(normal[axis]) < 1.0 {
			min[axis] = -infinity
			max[axis] = infinity
		} else if min[axis] > max[axis] {
			min[axis], max[axis] = max[axis], min[axis]
		}
	}

	p.aabb = AABB{Min: min, Max: max}
}

func (p *Plane) GetAABB() AABB {
	return p.aabb
}

func (p *Plane) Bounded() bool {
	return false
}

func (p *Plane) TestSphere(center mgl64.Vec3, radius float64, transform Transform) (SphereHit, bool) {
	normal := transform.RotateToWorld(p.Normal)
	planePoint := normal.Mul(-p.Distance).Add(transform.Position)

	distance := center.Sub(planePoint).Dot(normal)
	separation := distance - radius
	if separation > 0 {
		return SphereHit{}, false
	}

	return SphereHit{
		Separation: separation,
		Point:      center.Sub(normal.Mul(distance)),
		Normal:     normal,
	}, true
}

// TangentBasis returns two unit vectors orthogonal to normal and to each other
func TangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var tangent1 mgl64.Vec3
	if math.Abs(normal.X()) > 0.9 {
		tangent1 = mgl64.Vec3{0, 1, 0}
	} else {
		tangent1 = mgl64.Vec3{1, 0, 0}
	}

	tangent1 = tangent1.Sub(normal.Mul(tangent1.Dot(normal))).Normalize()
	tangent2 := normal.Cross(tangent1).Normalize()

	return tangent1, tangent2
}
