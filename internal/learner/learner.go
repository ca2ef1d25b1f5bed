// Package learner defines the learned force-error model consumed by the flat
// map, as a set of capability interfaces.
//
// A model is queried with the augmented state (x, z, theta, vx, vz, omega)
// and input (thrust, 0) and returns a specific-force error in m/s^2 that is
// added to the rigid-body acceleration. The flat map picks its correction
// strategy from the capabilities a model implements:
//
//   - [Model] only: constant offset, no derivative terms
//   - [StateSensitive]: linearized correction along the nominal trajectory
//   - [AttitudeSensitive]: nonlinear root solve with implicit sensitivity
//
// Use [None] when no correction is learned.
package learner

import "github.com/san-kum/flatquad/internal/dynamo"

const (
	StateDim = dynamo.StateDim
	InputDim = 2
)

type (
	StateJacobian [2][StateDim]float64
	StateHessian  [2][StateDim][StateDim]float64
)

// Query is the point at which a model is evaluated.
type Query struct {
	State [StateDim]float64
	Input [InputDim]float64
}

// NewQuery builds the augmented query used by the flat map. Angular rate is
// not modeled and is left at zero.
func NewQuery(pos, vel dynamo.Vec2, theta, thrust float64) Query {
	var q Query
	q.State[dynamo.IdxX] = pos[0]
	q.State[dynamo.IdxZ] = pos[1]
	q.State[dynamo.IdxTheta] = theta
	q.State[dynamo.IdxVX] = vel[0]
	q.State[dynamo.IdxVZ] = vel[1]
	q.Input[0] = thrust
	return q
}

func (q Query) Theta() float64  { return q.State[dynamo.IdxTheta] }
func (q Query) Thrust() float64 { return q.Input[0] }

func (q Query) Vel() dynamo.Vec2 {
	return dynamo.Vec2{q.State[dynamo.IdxVX], q.State[dynamo.IdxVZ]}
}

// Model predicts the force error at a query point.
type Model interface {
	Predict(q Query) dynamo.Vec2
}

// StateSensitive models expose first and second partials with respect to
// the state vector.
type StateSensitive interface {
	Model
	StateJacobian(q Query) StateJacobian
	StateHessian(q Query) StateHessian
}

// AttitudeSensitive models also expose partials with respect to the thrust
// input and the attitude angle, up to second order.
type AttitudeSensitive interface {
	StateSensitive
	InputDeriv(q Query) dynamo.Vec2
	AttitudeDeriv(q Query) dynamo.Vec2
	InputAttitudeDeriv(q Query) dynamo.Vec2
	InputDeriv2(q Query) dynamo.Vec2
	AttitudeDeriv2(q Query) dynamo.Vec2
}

// Readier is implemented by models that may not be trained yet. A model
// reporting false is treated as absent.
type Readier interface {
	Ready() bool
}

// IsAbsent reports whether m contributes no correction at all.
func IsAbsent(m Model) bool {
	switch v := m.(type) {
	case nil:
		return true
	case None, *None:
		return true
	case Readier:
		return !v.Ready()
	}
	return false
}

// None is the null model.
type None struct{}

func (None) Predict(Query) dynamo.Vec2 { return dynamo.Vec2{} }

// Zero is a full-capability model whose prediction and partials are all
// zero. Unlike None it still routes through the nonlinear strategy.
type Zero struct{}

func (Zero) Predict(Query) dynamo.Vec2            { return dynamo.Vec2{} }
func (Zero) StateJacobian(Query) StateJacobian    { return StateJacobian{} }
func (Zero) StateHessian(Query) StateHessian      { return StateHessian{} }
func (Zero) InputDeriv(Query) dynamo.Vec2         { return dynamo.Vec2{} }
func (Zero) AttitudeDeriv(Query) dynamo.Vec2      { return dynamo.Vec2{} }
func (Zero) InputAttitudeDeriv(Query) dynamo.Vec2 { return dynamo.Vec2{} }
func (Zero) InputDeriv2(Query) dynamo.Vec2        { return dynamo.Vec2{} }
func (Zero) AttitudeDeriv2(Query) dynamo.Vec2     { return dynamo.Vec2{} }

// Apply returns J*v for each output row.
func (j StateJacobian) Apply(v [StateDim]float64) dynamo.Vec2 {
	var out dynamo.Vec2
	for i := range j {
		for k := range v {
			out[i] += j[i][k] * v[k]
		}
	}
	return out
}

// Quadratic returns v^T H_i v for each output row.
func (h StateHessian) Quadratic(v [StateDim]float64) dynamo.Vec2 {
	var out dynamo.Vec2
	for i := range h {
		for a := range v {
			if v[a] == 0 {
				continue
			}
			for b := range v {
				out[i] += v[a] * h[i][a][b] * v[b]
			}
		}
	}
	return out
}
