package weave

import (
	"github.com/akmonengine/weave/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// RigidWorld is the set of static bodies a cloth collides with.
// actor.World implements it.
type RigidWorld interface {
	// Update is called once per step before the queries
	Update()
	// QuerySphere calls fn for each static body the sphere touches, until fn
	// returns false. It must be safe to call concurrently between two
	// Update calls.
	QuerySphere(center mgl64.Vec3, radius float64, fn func(body *actor.RigidBody, hit actor.SphereHit) bool)
}

var _ RigidWorld = (*actor.World)(nil)

// deepestPenetration returns the body the sphere penetrates the most. On a
// tie the first body found wins.
func deepestPenetration(world RigidWorld, center mgl64.Vec3, radius float64) (*actor.RigidBody, actor.SphereHit, bool) {
	var (
		best    *actor.RigidBody
		bestHit actor.SphereHit
	)

	world.QuerySphere(center, radius, func(body *actor.RigidBody, hit actor.SphereHit) bool {
		if hit.Separation < 0 && (best == nil || hit.Separation < bestHit.Separation) {
			best, bestHit = body, hit
		}
		return true
	})

	return best, bestHit, best != nil
}
