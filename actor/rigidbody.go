// Package actor holds the rigid bodies a cloth collides with. Bodies are
// collaborators of the cloth solver: it only asks them, through World, which
// static shape a particle sphere penetrates.
package actor

import "github.com/go-gl/mathgl/mgl64"

// BodyType represents the type of rigid body
type BodyType int

const (
	// BodyTypeDynamic bodies are driven by a rigid-body simulation elsewhere.
	// Cloth particles do not collide with them.
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies are immovable and have infinite mass
	// (e.g., ground, walls, a table top)
	BodyTypeStatic
)

// Material holds the surface coefficients a cloth combines with its own.
// Cloth friction is static only.
type Material struct {
	StaticFriction float64
}

// RigidBody represents a rigid body in the physics world
type RigidBody struct {
	Transform Transform

	// Physical properties
	Material Material
	BodyType BodyType // Dynamic or Static

	// Collision shape
	Shape ShapeInterface // The collision shape

	// UserData is left untouched by the engine
	UserData any
}

// NewRigidBody creates a new rigid body with the given properties
func NewRigidBody(transform Transform, shape ShapeInterface, bodyType BodyType) *RigidBody {
	if transform.Rotation == (mgl64.Quat{}) {
		transform.Rotation = mgl64.QuatIdent()
	}

	rb := &RigidBody{
		Transform: transform,
		Shape:     shape,
		BodyType:  bodyType,
		Material: Material{
			StaticFriction: 0.5,
		},
	}
	rb.Shape.ComputeAABB(rb.Transform)

	return rb
}

// SetTransform moves the body and refreshes its bounds
func (rb *RigidBody) SetTransform(transform Transform) {
	if transform.Rotation == (mgl64.Quat{}) {
		transform.Rotation = mgl64.QuatIdent()
	}

	rb.Transform = transform
	rb.Shape.ComputeAABB(rb.Transform)
}

// LocalPoint maps a world point into the body frame
func (rb *RigidBody) LocalPoint(world mgl64.Vec3) mgl64.Vec3 {
	return rb.Transform.ToLocal(world)
}

// WorldPoint maps a body-frame point into world space
func (rb *RigidBody) WorldPoint(local mgl64.Vec3) mgl64.Vec3 {
	return rb.Transform.ToWorld(local)
}

// TestSphere runs the shape's sphere test at the body transform
func (rb *RigidBody) TestSphere(center mgl64.Vec3, radius float64) (SphereHit, bool) {
	return rb.Shape.TestSphere(center, radius, rb.Transform)
}
