package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform represents a position and orientation in 3D space
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position: mgl64.Vec3{0, 0, 0},
		Rotation: mgl64.QuatIdent(),
	}
}

// NewTransformAt creates a transform at position with the given rotation
func NewTransformAt(position mgl64.Vec3, rotation mgl64.Quat) Transform {
	return Transform{
		Position: position,
		Rotation: rotation.Normalize(),
	}
}

// rotation treats the zero quaternion as identity, so a literal
// Transform{Position: p} still behaves as a translation.
func (t Transform) rotation() mgl64.Quat {
	if t.Rotation == (mgl64.Quat{}) {
		return mgl64.QuatIdent()
	}
	return t.Rotation
}

// ToWorld maps a local point to world space
func (t Transform) ToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return t.rotation().Rotate(local).Add(t.Position)
}

// ToLocal maps a world point to local space. Rotations are unit
// quaternions, so the conjugate is the inverse.
func (t Transform) ToLocal(world mgl64.Vec3) mgl64.Vec3 {
	return t.rotation().Conjugate().Rotate(world.Sub(t.Position))
}

// RotateToWorld maps a local direction to world space
func (t Transform) RotateToWorld(direction mgl64.Vec3) mgl64.Vec3 {
	return t.rotation().Rotate(direction)
}

// RotateToLocal maps a world direction to local space
func (t Transform) RotateToLocal(direction mgl64.Vec3) mgl64.Vec3 {
	return t.rotation().Conjugate().Rotate(direction)
}
