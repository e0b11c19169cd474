package weave

import "errors"

// Construction faults. NewCloth and the other fallible operations wrap them
// with context, test with errors.Is.
var (
	ErrNilMesh            = errors.New("weave: nil mesh")
	ErrInvalidMesh        = errors.New("weave: invalid mesh")
	ErrInvalidDensity     = errors.New("weave: density must be positive")
	ErrDegenerateTriangle = errors.New("weave: degenerate triangle")
	ErrMasslessParticle   = errors.New("weave: particle without mass")
	ErrUnknownParticle    = errors.New("weave: unknown particle")
	ErrInvalidForce       = errors.New("weave: invalid force")
)
