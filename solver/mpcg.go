package solver

import (
	"fmt"
	"math"

	"github.com/akmonengine/weave/linalg"
)

const (
	DefaultTolerance     = 1e-4
	DefaultMaxIterations = 100
)

// Stats reports how an MPCG solve ended.
// ResidualRatio is sqrt(δ / δ(b̂)), comparable to the tolerance.
type Stats struct {
	Iterations    int
	Converged     bool
	ResidualRatio float64
}

// MPCG solves A x = b with the modified preconditioned conjugate gradient of
// Baraff and Witkin. S filters every iterate onto the free directions of
// each particle and z fixes the blocked ones, so (I - S) x = (I - S) z holds
// from the first iterate on. x0 seeds the free directions.
//
// The preconditioner is the inverse of the block diagonal of A; a block that
// is not positive definite panics. So does any non-finite scalar, which only
// happens once the system itself is broken.
//
// Work buffers come from stack and are released before returning.
func MPCG(stack *linalg.Stack, A *linalg.SparseSymMat33, b linalg.DenseVec3, S linalg.DiagMat33, z, x0, x linalg.DenseVec3, tolerance float64, maxIterations int) Stats {
	n := A.N()
	if len(b) != n || len(S) != n || len(z) != n || len(x0) != n || len(x) != n {
		panic(fmt.Sprintf("solver: MPCG dimension mismatch for %d particles", n))
	}

	mark := stack.Mark()
	defer stack.Release(mark)

	// P⁻¹ = diag(A)⁻¹
	invP := stack.Diag(n)
	A.Diagonal(invP)
	for i := range invP {
		if !linalg.IsPositiveDefinite(invP[i]) {
			panic(fmt.Sprintf("solver: diagonal block %d is not positive definite: %v", i, invP[i]))
		}
		invP[i] = linalg.InvertPD(invP[i])
	}

	IS := stack.Diag(n)
	S.Complement(IS)

	tmp := stack.Vec3s(n)
	tmp2 := stack.Vec3s(n)
	bHat := stack.Vec3s(n)
	r := stack.Vec3s(n)
	p := stack.Vec3s(n)
	s := stack.Vec3s(n)
	h := stack.Vec3s(n)

	// x = S x0 + (I - S) z
	S.MulVec(x, x0)
	IS.MulVec(tmp, z)
	x.Add(x, tmp)

	// b̂ = S (b - A (I - S) z)
	A.MulVec(tmp2, tmp)
	tmp2.Sub(b, tmp2)
	S.MulVec(bHat, tmp2)

	// δ(b̂) = b̂ · P⁻¹ b̂
	invP.MulVec(tmp, bHat)
	bDelta := linalg.Dot(bHat, tmp)

	// r = S (b - A x)
	A.MulVec(tmp, x)
	tmp.Sub(b, tmp)
	S.MulVec(r, tmp)

	// p = S (P⁻¹ r)
	invP.MulVec(tmp, r)
	S.MulVec(p, tmp)

	deltaNew := linalg.Dot(r, p)

	threshold := tolerance * tolerance * bDelta

	iteration := 0
	for iteration < maxIterations {
		mustBeFinite("delta", deltaNew, iteration)

		if deltaNew <= threshold {
			break
		}

		// s = S (A p)
		A.MulVec(tmp, p)
		S.MulVec(s, tmp)

		alpha := deltaNew / linalg.Dot(p, s)
		mustBeFinite("alpha", alpha, iteration)

		x.AddScaled(x, alpha, p)
		r.AddScaled(r, -alpha, s)

		// h = P⁻¹ r
		invP.MulVec(h, r)

		deltaOld := deltaNew
		deltaNew = linalg.Dot(r, h)
		mustBeFinite("delta", deltaNew, iteration)

		beta := deltaNew / deltaOld
		mustBeFinite("beta", beta, iteration)

		// p = S (h + β p)
		tmp.AddScaled(h, beta, p)
		S.MulVec(p, tmp)

		iteration++
	}

	stats := Stats{
		Iterations: iteration,
		Converged:  deltaNew <= threshold,
	}
	if bDelta > 0 {
		stats.ResidualRatio = math.Sqrt(math.Max(deltaNew, 0) / bDelta)
	}

	return stats
}

func mustBeFinite(name string, v float64, iteration int) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		panic(fmt.Sprintf("solver: %s is not finite (%v) at iteration %d", name, v, iteration))
	}
}
