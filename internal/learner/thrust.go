package learner

import (
	"math"

	"github.com/san-kum/flatquad/internal/dynamo"
)

// ThrustGain models a thrust-efficiency error: the realised specific force
// along the body axis is (1+Gain)*u instead of u, so f = Gain*u*z(theta)
// with z = (-sin theta, cos theta).
type ThrustGain struct {
	Gain float64
}

func bodyAxes(theta float64) (z, zp, zpp dynamo.Vec2) {
	s, c := math.Sin(theta), math.Cos(theta)
	return dynamo.Vec2{-s, c}, dynamo.Vec2{-c, -s}, dynamo.Vec2{s, -c}
}

func (g ThrustGain) Predict(q Query) dynamo.Vec2 {
	z, _, _ := bodyAxes(q.Theta())
	return z.Scale(g.Gain * q.Thrust())
}

func (g ThrustGain) StateJacobian(q Query) StateJacobian {
	var j StateJacobian
	d := g.AttitudeDeriv(q)
	j[0][dynamo.IdxTheta] = d[0]
	j[1][dynamo.IdxTheta] = d[1]
	return j
}

func (g ThrustGain) StateHessian(q Query) StateHessian {
	var h StateHessian
	d := g.AttitudeDeriv2(q)
	h[0][dynamo.IdxTheta][dynamo.IdxTheta] = d[0]
	h[1][dynamo.IdxTheta][dynamo.IdxTheta] = d[1]
	return h
}

func (g ThrustGain) InputDeriv(q Query) dynamo.Vec2 {
	z, _, _ := bodyAxes(q.Theta())
	return z.Scale(g.Gain)
}

func (g ThrustGain) AttitudeDeriv(q Query) dynamo.Vec2 {
	_, zp, _ := bodyAxes(q.Theta())
	return zp.Scale(g.Gain * q.Thrust())
}

func (g ThrustGain) InputAttitudeDeriv(q Query) dynamo.Vec2 {
	_, zp, _ := bodyAxes(q.Theta())
	return zp.Scale(g.Gain)
}

func (g ThrustGain) InputDeriv2(Query) dynamo.Vec2 { return dynamo.Vec2{} }

func (g ThrustGain) AttitudeDeriv2(q Query) dynamo.Vec2 {
	_, _, zpp := bodyAxes(q.Theta())
	return zpp.Scale(g.Gain * q.Thrust())
}
