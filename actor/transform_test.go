package actor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// =============================================================================
// Transform Tests
// =============================================================================

func TestTransformRoundTrip(t *testing.T) {
	rotation := mgl64.QuatRotate(math.Pi/3, mgl64.Vec3{1, 1, 0}.Normalize())
	point := mgl64.Vec3{0.3, -1.2, 2}

	tests := []struct {
		name      string
		transform Transform
	}{
		{"identity", NewTransform()},
		{"translation literal", Transform{Position: mgl64.Vec3{1, 2, 3}}},
		{"rotation literal", Transform{Position: mgl64.Vec3{-1, 0, 4}, Rotation: rotation}},
		{"constructed", NewTransformAt(mgl64.Vec3{0, 5, 0}, rotation.Scale(3))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			xf := tt.transform

			if got := xf.ToLocal(xf.ToWorld(point)); !vec3Equal(got, point, 1e-12) {
				t.Errorf("ToLocal(ToWorld(p)) = %v, want %v", got, point)
			}
			if got := xf.RotateToLocal(xf.RotateToWorld(point)); !vec3Equal(got, point, 1e-12) {
				t.Errorf("RotateToLocal(RotateToWorld(d)) = %v, want %v", got, point)
			}
		})
	}
}

func TestTransformRotationLiteral(t *testing.T) {
	xf := Transform{Rotation: mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})}

	// +X turns to +Y and back
	if got := xf.RotateToWorld(mgl64.Vec3{1, 0, 0}); !vec3Equal(got, mgl64.Vec3{0, 1, 0}, 1e-12) {
		t.Errorf("RotateToWorld(+X) = %v, want +Y", got)
	}
	if got := xf.RotateToLocal(mgl64.Vec3{0, 1, 0}); !vec3Equal(got, mgl64.Vec3{1, 0, 0}, 1e-12) {
		t.Errorf("RotateToLocal(+Y) = %v, want +X", got)
	}
}

func TestNewRigidBodyDefaults(t *testing.T) {
	body := NewRigidBody(Transform{Position: mgl64.Vec3{0, 1, 0}}, &Sphere{Radius: 1}, BodyTypeStatic)

	if body.Transform.Rotation != mgl64.QuatIdent() {
		t.Errorf("Rotation = %v, want identity", body.Transform.Rotation)
	}
	if body.Material != (Material{StaticFriction: 0.5}) {
		t.Errorf("Material = %+v, want static friction 0.5", body.Material)
	}
	if got := body.LocalPoint(mgl64.Vec3{0, 2, 0}); !vec3Equal(got, mgl64.Vec3{0, 1, 0}, 1e-12) {
		t.Errorf("LocalPoint() = %v, want [0 1 0]", got)
	}
}
