package flatness

import (
	"fmt"
	"math"

	"github.com/san-kum/flatquad/internal/dynamo"
	"github.com/san-kum/flatquad/internal/learner"
)

// bodyAxis returns z(theta) = (-sin, cos) and its first two derivatives.
func bodyAxis(theta float64) (z, zp, zpp dynamo.Vec2) {
	s, c := math.Sin(theta), math.Cos(theta)
	return dynamo.Vec2{-s, c}, dynamo.Vec2{-c, -s}, dynamo.Vec2{s, -c}
}

// seed is the uncorrected solution, taken with atan2 so it stays defined
// when the specific force vanishes.
func (tr *Transform) seed(d dynamo.Desired) [2]float64 {
	acc := d.Acc().Add(tr.gravityVec())
	return [2]float64{acc.Norm(), math.Atan2(-acc[0], acc[1])}
}

// balance is the force-balance problem u*z(theta) - g + f(theta, u) - a = 0
// at one trajectory sample.
type balance struct {
	model   learner.AttitudeSensitive
	gravity dynamo.Vec2
	d       dynamo.Desired
}

func (b balance) query(y [2]float64) learner.Query {
	return learner.NewQuery(b.d.Pos(), b.d.Vel(), y[1], y[0])
}

// scale is max(1, |a+g|), the size of the specific force the residual is
// measured against.
func (b balance) scale() float64 {
	return math.Max(1, b.d.Acc().Add(b.gravity).Norm())
}

func (b balance) residual(y [2]float64) dynamo.Vec2 {
	z, _, _ := bodyAxis(y[1])
	return z.Scale(y[0]).Sub(b.gravity).Add(b.model.Predict(b.query(y))).Sub(b.d.Acc())
}

// jacobian is dF/d(u, theta): the rigid-body part [z, u z'] plus the
// learner's input and attitude partials.
func (b balance) jacobian(y [2]float64) jac2 {
	q := b.query(y)
	z, zp, _ := bodyAxis(y[1])
	du := z.Add(b.model.InputDeriv(q))
	dth := zp.Scale(y[0]).Add(b.model.AttitudeDeriv(q))
	return jac2{{du[0], dth[0]}, {du[1], dth[1]}}
}

// hessian is d2F/d(u, theta)2 indexed [component][a][b].
func (b balance) hessian(y [2]float64) [2][2][2]float64 {
	q := b.query(y)
	_, zp, zpp := bodyAxis(y[1])
	duu := b.model.InputDeriv2(q)
	duth := zp.Add(b.model.InputAttitudeDeriv(q))
	dthth := zpp.Scale(y[0]).Add(b.model.AttitudeDeriv2(q))

	var h [2][2][2]float64
	for i := 0; i < 2; i++ {
		h[i] = [2][2]float64{{duu[i], duth[i]}, {duth[i], dthth[i]}}
	}
	return h
}

func (tr *Transform) nonlinear(d dynamo.Desired, seed [2]float64) (dynamo.FlatOutput, error) {
	m, ok := tr.model.(learner.AttitudeSensitive)
	if !ok {
		return dynamo.FlatOutput{}, fmt.Errorf("model %T is not attitude sensitive: %w", tr.model, dynamo.ErrParameterBounds)
	}
	b := balance{model: m, gravity: tr.gravityVec(), d: d}

	y, _, err := findRoot(b.residual, b.jacobian, seed, b.scale(), tr.cfg)
	if err != nil {
		return dynamo.FlatOutput{}, err
	}
	y[1] = normalizeAngle(y[1])

	return tr.sensitivity(b, y)
}

// sensitivity differentiates F(u(t), theta(t), x(t)) = 0 twice in time at
// the root y = (u, theta):
//
//	J y'  = -dF/dt
//	J y'' = -d2F/dt2 - T(y', y')
//
// where dF/dt and d2F/dt2 hold the explicit time dependence through the
// desired state and T is the second derivative of F in (u, theta).
func (tr *Transform) sensitivity(b balance, y [2]float64) (dynamo.FlatOutput, error) {
	r := b.residual(y)
	if res := math.Max(math.Abs(r[0]), math.Abs(r[1])); !(res <= tr.cfg.ConsistencyTolerance*b.scale()) {
		return dynamo.FlatOutput{}, fmt.Errorf("|F|=%g at u=%g theta=%g: %w", res, y[0], y[1], dynamo.ErrConsistency)
	}

	q := b.query(y)
	j := b.jacobian(y)
	x1, x2 := stateRates(b.d)
	sj := b.model.StateJacobian(q)

	dFdt := sj.Apply(x1).Sub(b.d.Jerk())
	yDot, err := solveSensitivity(j, dFdt.Scale(-1), tr.cfg.SingularTolerance)
	if err != nil {
		return dynamo.FlatOutput{}, err
	}

	d2Fdt2 := sj.Apply(x2).Add(b.model.StateHessian(q).Quadratic(x1)).Sub(b.d.Snap())
	h := b.hessian(y)
	var curv dynamo.Vec2
	for i := 0; i < 2; i++ {
		for a := 0; a < 2; a++ {
			for c := 0; c < 2; c++ {
				curv[i] += h[i][a][c] * yDot[a] * yDot[c]
			}
		}
	}
	yDDot, err := solveSensitivity(j, d2Fdt2.Add(curv).Scale(-1), tr.cfg.SingularTolerance)
	if err != nil {
		return dynamo.FlatOutput{}, err
	}

	return dynamo.FlatOutput{
		ThrustNorm:  y[0],
		ThrustRate:  yDot[0],
		ThrustAccel: yDDot[0],
		Angle:       y[1],
		AngleRate:   yDot[1],
		AngleAccel:  yDDot[1],
	}, nil
}
