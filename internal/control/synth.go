package control

import (
	"fmt"

	"github.com/san-kum/flatquad/internal/dynamo"
)

// Vehicle is the read-only rigid-body model the synthesizer needs.
type Vehicle interface {
	Mass() float64
	Inertia() float64
	Gravity() float64
}

// Synthesize scales the flat output into actuator units. The learned
// correction, if any, is already folded into out.
func Synthesize(v Vehicle, out dynamo.FlatOutput) dynamo.Command {
	return dynamo.Command{
		Thrust: v.Mass() * out.ThrustNorm,
		Torque: v.Inertia() * out.AngleAccel,
	}
}

// ClosedForm computes thrust and torque straight from acceleration, jerk
// and snap without recovering the attitude. With a = acc + (0, g):
//
//	theta'  = (a_x j_z - a_z j_x) / |a|^2
//	theta'' = ((a_x s_z - a_z s_x) |a|^2 - (a_x j_z - a_z j_x) 2 a.j) / |a|^4
//
// It only holds for the uncorrected model.
func ClosedForm(v Vehicle, d dynamo.Desired) (dynamo.Command, error) {
	a := d.Acc().Add(dynamo.Vec2{0, v.Gravity()})
	j, s := d.Jerk(), d.Snap()

	n2 := a.Dot(a)
	if !(n2 > 0) {
		return dynamo.Command{}, fmt.Errorf("|a+g|^2=%g: %w", n2, dynamo.ErrDegenerateThrust)
	}

	num := a[0]*j[1] - a[1]*j[0]
	numDot := a[0]*s[1] - a[1]*s[0]
	n2Dot := 2 * a.Dot(j)
	accel := (numDot*n2 - num*n2Dot) / (n2 * n2)

	return dynamo.Command{
		Thrust: v.Mass() * a.Norm(),
		Torque: v.Inertia() * accel,
	}, nil
}
