package flatness

import (
	"math"

	"github.com/san-kum/flatquad/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

const (
	lambdaInit = 1e-6
	lambdaMin  = 1e-12
	lambdaMax  = 1e12
)

type residualFunc func(y [2]float64) dynamo.Vec2
type jacobianFunc func(y [2]float64) jac2

// findRoot drives F(y) to zero with Levenberg-Marquardt damped Newton steps.
// It stops once |F| <= cfg.Tolerance*scale, where scale is the magnitude of
// the terms being balanced. Iterations are capped by cfg.MaxIterations; on
// failure the last iterate is reported through *dynamo.RootError, never
// returned as a solution.
func findRoot(f residualFunc, jac jacobianFunc, seed [2]float64, scale float64, cfg Config) ([2]float64, int, error) {
	tol := cfg.Tolerance * scale
	y := seed
	r := f(y)
	norm := r.Norm()
	if !r.IsValid() {
		norm = math.Inf(1)
	}
	lambda := lambdaInit

	it := 0
	for ; it < cfg.MaxIterations && norm > tol; it++ {
		j := jac(y)
		a := j.dense()

		// (J^T J + lambda I) step = -J^T r
		var jtj mat.Dense
		jtj.Mul(a.T(), a)
		jtj.Set(0, 0, jtj.At(0, 0)+lambda)
		jtj.Set(1, 1, jtj.At(1, 1)+lambda)
		var jtr mat.VecDense
		jtr.MulVec(a.T(), mat.NewVecDense(2, []float64{-r[0], -r[1]}))

		step, err := solve(&jtj, dynamo.Vec2{jtr.AtVec(0), jtr.AtVec(1)})
		if err != nil {
			lambda *= 10
			if lambda > lambdaMax {
				break
			}
			continue
		}

		next := [2]float64{y[0] + step[0], y[1] + step[1]}
		rn := f(next)
		if nn := rn.Norm(); rn.IsValid() && nn < norm {
			y, r, norm = next, rn, nn
			lambda = math.Max(lambda/10, lambdaMin)
			continue
		}
		lambda *= 10
		if lambda > lambdaMax {
			break
		}
	}

	if norm <= tol {
		return y, it, nil
	}
	return y, it, &dynamo.RootError{Seed: seed, Last: y, Residual: norm, Iterations: it}
}

// normalizeAngle maps theta into (-pi, pi].
func normalizeAngle(theta float64) float64 {
	theta = math.Mod(theta, 2*math.Pi)
	if theta <= -math.Pi {
		theta += 2 * math.Pi
	} else if theta > math.Pi {
		theta -= 2 * math.Pi
	}
	return theta
}
