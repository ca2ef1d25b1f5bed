package flatness

import (
	"fmt"
	"math"

	"github.com/san-kum/flatquad/internal/dynamo"
)

// asinSlack absorbs rounding in |z_x| after normalization.
const asinSlack = 1e-12

func (tr *Transform) nominal(d dynamo.Desired) (dynamo.FlatOutput, error) {
	return tr.recover(d.Acc().Add(tr.gravityVec()), d.Jerk(), d.Snap())
}

// recover inverts the flat map for a specific-force vector acc (gravity
// already added) and its first two time derivatives.
func (tr *Transform) recover(acc, jerk, snap dynamo.Vec2) (dynamo.FlatOutput, error) {
	if !acc.IsValid() {
		return dynamo.FlatOutput{}, fmt.Errorf("specific force %v: %w", acc, dynamo.ErrAttitudeDomain)
	}
	aNorm := acc.Norm()
	if !(aNorm >= tr.cfg.MinThrust) {
		return dynamo.FlatOutput{}, fmt.Errorf("|a+g|=%g: %w", aNorm, dynamo.ErrDegenerateThrust)
	}
	z := acc.Scale(1 / aNorm)

	angle, err := attitude(z)
	if err != nil {
		return dynamo.FlatOutput{}, err
	}

	aNormDot := jerk.Dot(z)
	zDot := jerk.Sub(z.Scale(aNormDot)).Scale(1 / aNorm)
	// zDot = rate * R90 z and R90 is orthogonal
	rate := zDot.Dot(z.Perp())

	aNormDDot := snap.Dot(z) + jerk.Dot(zDot)
	zDDot := snap.Sub(z.Scale(aNormDDot)).Sub(zDot.Scale(2 * aNormDot)).Scale(1 / aNorm)
	accel := zDDot.Dot(z.Perp()) + zDot.Dot(zDot.Perp())

	return dynamo.FlatOutput{
		ThrustNorm:  aNorm,
		ThrustRate:  aNormDot,
		ThrustAccel: aNormDDot,
		Angle:       angle,
		AngleRate:   rate,
		AngleAccel:  accel,
	}, nil
}

// attitude recovers theta from the unit body-up axis z = (-sin, cos).
func attitude(z dynamo.Vec2) (float64, error) {
	s := -z[0]
	if math.IsNaN(s) || math.Abs(s) > 1+asinSlack {
		return 0, fmt.Errorf("asin(%g): %w", s, dynamo.ErrAttitudeDomain)
	}
	return math.Asin(math.Max(-1, math.Min(1, s))), nil
}
