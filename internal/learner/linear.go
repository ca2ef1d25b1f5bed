package learner

import (
	"fmt"

	"github.com/san-kum/flatquad/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

const (
	featureDim = StateDim + InputDim
	idxThrust  = StateDim
)

// Linear is an affine force-error model f = W*[state; input] + b, the form
// produced by least-squares fits of logged residuals. It has no curvature,
// so every second partial is zero.
type Linear struct {
	w    *mat.Dense
	bias dynamo.Vec2
}

// NewLinear builds a model from a 2x8 weight matrix (rows: horizontal,
// vertical; columns: x, z, theta, vx, vz, omega, thrust, input2).
func NewLinear(weights [][]float64, bias [2]float64) (*Linear, error) {
	if len(weights) != 2 {
		return nil, fmt.Errorf("linear learner: want 2 weight rows, got %d", len(weights))
	}
	data := make([]float64, 0, 2*featureDim)
	for i, row := range weights {
		if len(row) != featureDim {
			return nil, fmt.Errorf("linear learner: row %d has %d columns, want %d", i, len(row), featureDim)
		}
		data = append(data, row...)
	}
	return &Linear{w: mat.NewDense(2, featureDim, data), bias: bias}, nil
}

func (l *Linear) features(q Query) *mat.VecDense {
	f := make([]float64, featureDim)
	copy(f, q.State[:])
	copy(f[StateDim:], q.Input[:])
	return mat.NewVecDense(featureDim, f)
}

func (l *Linear) Predict(q Query) dynamo.Vec2 {
	var out mat.VecDense
	out.MulVec(l.w, l.features(q))
	return dynamo.Vec2{out.AtVec(0) + l.bias[0], out.AtVec(1) + l.bias[1]}
}

func (l *Linear) column(j int) dynamo.Vec2 {
	return dynamo.Vec2{l.w.At(0, j), l.w.At(1, j)}
}

func (l *Linear) StateJacobian(Query) StateJacobian {
	var j StateJacobian
	for i := 0; i < 2; i++ {
		for k := 0; k < StateDim; k++ {
			j[i][k] = l.w.At(i, k)
		}
	}
	return j
}

func (l *Linear) StateHessian(Query) StateHessian      { return StateHessian{} }
func (l *Linear) InputDeriv(Query) dynamo.Vec2         { return l.column(idxThrust) }
func (l *Linear) AttitudeDeriv(Query) dynamo.Vec2      { return l.column(dynamo.IdxTheta) }
func (l *Linear) InputAttitudeDeriv(Query) dynamo.Vec2 { return dynamo.Vec2{} }
func (l *Linear) InputDeriv2(Query) dynamo.Vec2        { return dynamo.Vec2{} }
func (l *Linear) AttitudeDeriv2(Query) dynamo.Vec2     { return dynamo.Vec2{} }
