package main

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/akmonengine/weave/actor"
	"github.com/akmonengine/weave/internal/config"
	"github.com/akmonengine/weave/particle"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// =============================================================================
// Pins
// =============================================================================

func TestPinnedVertices(t *testing.T) {
	tests := []struct {
		name string
		pin  string
		want []int
	}{
		{"none", config.PinNone, nil},
		{"empty", "", nil},
		{"corners", config.PinCorners, []int{6, 8}},
		{"edge", config.PinEdge, []int{6, 7, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc := config.ClothConfig{Width: 2, Height: 2, Pin: tt.pin}
			got := pinnedVertices(cc)
			if !slices.Equal(got, tt.want) {
				t.Errorf("pinnedVertices() = %v, want %v", got, tt.want)
			}
		})
	}
}

// =============================================================================
// Scene
// =============================================================================

func TestBuildWorld(t *testing.T) {
	cfg := config.Default().World
	cfg.Boxes = []config.BoxConfig{
		{Center: config.Vec{3, 0.5, 0}, HalfExtents: config.Vec{0.5, 0.5, 0.5}, Friction: 0.2},
	}

	world := buildWorld(cfg)

	if len(world.Bodies) != 3 {
		t.Fatalf("len(Bodies) = %d, want 3", len(world.Bodies))
	}
	for i, body := range world.Bodies {
		if body.BodyType != actor.BodyTypeStatic {
			t.Errorf("body %d type = %v, want static", i, body.BodyType)
		}
	}
	if world.Bodies[2].Material.StaticFriction != 0.2 {
		t.Errorf("box friction = %v, want 0.2", world.Bodies[2].Material.StaticFriction)
	}

	// a small sphere resting into the top of the ball touches it, not the ground
	var touched []*actor.RigidBody
	world.QuerySphere(mgl64.Vec3{0, 1.5, 0}, 0.05, func(body *actor.RigidBody, hit actor.SphereHit) bool {
		touched = append(touched, body)
		return true
	})
	if len(touched) != 1 || touched[0] != world.Bodies[1] {
		t.Errorf("QuerySphere touched %d bodies, want only the sphere", len(touched))
	}
}

func TestBuildClothPins(t *testing.T) {
	cfg := config.Default()
	cfg.Cloth.Width = 2
	cfg.Cloth.Height = 2
	cfg.Cloth.Pin = config.PinCorners

	c, err := buildCloth(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("buildCloth() error = %v", err)
	}

	if c.ParticleCount() != 9 {
		t.Fatalf("ParticleCount() = %d, want 9", c.ParticleCount())
	}

	for v := range 9 {
		id, ok := c.VertexParticle(v)
		if !ok {
			t.Fatalf("vertex %d has no particle", v)
		}
		p, _ := c.Particle(id)

		want := particle.TypeDynamic
		if v == 6 || v == 8 {
			want = particle.TypeStatic
		}
		if p.Type != want {
			t.Errorf("vertex %d type = %v, want %v", v, p.Type, want)
		}
	}
}

// =============================================================================
// Run
// =============================================================================

func TestRunWritesSnapshot(t *testing.T) {
	cfg := config.Default()
	cfg.Cloth.Width = 4
	cfg.Cloth.Height = 4
	cfg.Cloth.Pin = config.PinEdge
	cfg.Solver.Steps = 5
	cfg.Output.Snapshot = filepath.Join(t.TempDir(), "out", "cloth.webp")
	cfg.Output.Width = 32
	cfg.Output.Height = 32
	cfg.Output.Supersample = 1

	if err := run(cfg, zap.NewNop()); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	info, err := os.Stat(cfg.Output.Snapshot)
	if err != nil {
		t.Fatalf("snapshot missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("snapshot is empty")
	}
}

func TestRunRejectsUnknownView(t *testing.T) {
	cfg := config.Default()
	cfg.Solver.Steps = 1
	cfg.Output.Snapshot = filepath.Join(t.TempDir(), "cloth.webp")
	cfg.Output.View = "side"

	if err := run(cfg, zap.NewNop()); err == nil {
		t.Error("run() should fail on an unknown view")
	}
}
