package main

import (
	"github.com/akmonengine/weave"
	"github.com/akmonengine/weave/actor"
	"github.com/akmonengine/weave/internal/config"
	"github.com/akmonengine/weave/mesh"
	"github.com/akmonengine/weave/particle"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// buildWorld creates the static bodies of the scene
func buildWorld(cfg config.WorldConfig) *actor.World {
	world := actor.NewWorld(cfg.CellSize)

	for _, p := range cfg.Planes {
		shape := &actor.Plane{Normal: p.Normal.Vec3().Normalize()}
		addStatic(world, p.Point.Vec3(), shape, p.Friction)
	}
	for _, s := range cfg.Spheres {
		addStatic(world, s.Center.Vec3(), &actor.Sphere{Radius: s.Radius}, s.Friction)
	}
	for _, b := range cfg.Boxes {
		addStatic(world, b.Center.Vec3(), &actor.Box{HalfExtents: b.HalfExtents.Vec3()}, b.Friction)
	}

	return world
}

func addStatic(world *actor.World, position mgl64.Vec3, shape actor.ShapeInterface, friction float64) {
	body := actor.NewRigidBody(actor.NewTransformAt(position, mgl64.QuatIdent()), shape, actor.BodyTypeStatic)
	body.Material.StaticFriction = friction
	world.AddBody(body)
}

// buildCloth creates the grid cloth and pins it
func buildCloth(cfg *config.Config, log *zap.Logger) (*weave.Cloth, error) {
	cc := cfg.Cloth
	m := mesh.NewGrid(cc.Width, cc.Height, cc.Spacing, cc.Origin.Vec3())

	def := weave.DefaultDef(m)
	def.Density = cc.Density
	def.Radius = cc.Radius
	def.StructuralStiffness = cc.StructuralStiffness
	def.BendingStiffness = cc.BendingStiffness
	def.Damping = cc.Damping
	def.Friction = cc.Friction
	def.Logger = log
	if cfg.Solver.Workers > 0 {
		def.Workers = cfg.Solver.Workers
	}
	if cfg.Solver.MaxIterations > 0 {
		def.MaxIterations = cfg.Solver.MaxIterations
	}
	if cfg.Solver.Tolerance > 0 {
		def.Tolerance = cfg.Solver.Tolerance
	}

	c, err := weave.NewCloth(def)
	if err != nil {
		return nil, err
	}

	for _, v := range pinnedVertices(cc) {
		if id, ok := c.VertexParticle(v); ok {
			c.SetType(id, particle.TypeStatic)
		}
	}

	return c, nil
}

// pinnedVertices lists the grid vertices held in place. The far row is the
// one at the largest Z.
func pinnedVertices(cc config.ClothConfig) []int {
	row := cc.Height * (cc.Width + 1)

	switch cc.Pin {
	case config.PinCorners:
		return []int{row, row + cc.Width}
	case config.PinEdge:
		vertices := make([]int, 0, cc.Width+1)
		for i := 0; i <= cc.Width; i++ {
			vertices = append(vertices, row+i)
		}
		return vertices
	}
	return nil
}
