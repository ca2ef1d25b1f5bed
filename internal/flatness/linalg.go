package flatness

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/flatquad/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// jac2 is a 2x2 jacobian; rows are force components, columns are
// (thrust norm, angle).
type jac2 [2][2]float64

func (j jac2) dense() *mat.Dense {
	return mat.NewDense(2, 2, []float64{j[0][0], j[0][1], j[1][0], j[1][1]})
}

// rank counts singular values above tol relative to max(1, sigma_max).
func rank(m mat.Matrix, tol float64) int {
	var svd mat.SVD
	if !svd.Factorize(m, mat.SVDNone) {
		return 0
	}
	s := svd.Values(nil)
	if len(s) == 0 || math.IsNaN(s[0]) {
		return 0
	}
	floor := tol * math.Max(1, s[0])
	r := 0
	for _, v := range s {
		if v > floor {
			r++
		}
	}
	return r
}

// solve returns x with a*x = b. A Condition error from gonum only warns of
// ill conditioning; the solution is still returned.
func solve(a *mat.Dense, b dynamo.Vec2) (dynamo.Vec2, error) {
	var x mat.VecDense
	err := x.SolveVec(a, mat.NewVecDense(2, []float64{b[0], b[1]}))
	var cond mat.Condition
	if err != nil && !errors.As(err, &cond) {
		return dynamo.Vec2{}, fmt.Errorf("%w: %v", dynamo.ErrSingularJacobian, err)
	}
	out := dynamo.Vec2{x.AtVec(0), x.AtVec(1)}
	if !out.IsValid() {
		return dynamo.Vec2{}, dynamo.ErrSingularJacobian
	}
	return out, nil
}

// solveSensitivity solves j*x = b after checking j has full rank.
func solveSensitivity(j jac2, b dynamo.Vec2, tol float64) (dynamo.Vec2, error) {
	a := j.dense()
	if r := rank(a, tol); r < 2 {
		return dynamo.Vec2{}, fmt.Errorf("rank %d: %w", r, dynamo.ErrSingularJacobian)
	}
	return solve(a, b)
}
