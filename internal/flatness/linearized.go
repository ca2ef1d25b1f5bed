package flatness

import (
	"github.com/san-kum/flatquad/internal/dynamo"
	"github.com/san-kum/flatquad/internal/learner"
)

// stateRates returns the first and second time derivatives of the learner
// state along the trajectory. Attitude and angular-rate slots stay zero:
// attitude enters through its own partials, and angular rate is not modeled.
func stateRates(d dynamo.Desired) (x1, x2 [learner.StateDim]float64) {
	vel, acc, jerk := d.Vel(), d.Acc(), d.Jerk()

	x1[dynamo.IdxX], x1[dynamo.IdxZ] = vel[0], vel[1]
	x1[dynamo.IdxVX], x1[dynamo.IdxVZ] = acc[0], acc[1]

	x2[dynamo.IdxX], x2[dynamo.IdxZ] = acc[0], acc[1]
	x2[dynamo.IdxVX], x2[dynamo.IdxVZ] = jerk[0], jerk[1]
	return x1, x2
}

// linearized evaluates the correction once at the nominal state (zero
// attitude, nominal thrust), propagates its time derivatives by the chain
// rule along the desired state, and removes them before the closed form.
func (tr *Transform) linearized(d dynamo.Desired) (dynamo.FlatOutput, error) {
	acc := d.Acc().Add(tr.gravityVec())
	q := learner.NewQuery(d.Pos(), d.Vel(), 0, acc.Norm())

	f := tr.model.Predict(q)
	var fDot, fDDot dynamo.Vec2
	if m, ok := tr.model.(learner.StateSensitive); ok {
		x1, x2 := stateRates(d)
		jac := m.StateJacobian(q)
		fDot = jac.Apply(x1)
		fDDot = jac.Apply(x2).Add(m.StateHessian(q).Quadratic(x1))
	}

	return tr.recover(acc.Sub(f), d.Jerk().Sub(fDot), d.Snap().Sub(fDDot))
}
