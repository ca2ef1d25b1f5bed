package integrators

import (
	"github.com/san-kum/flatquad/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// Euler is the first-order explicit step, the baseline RK4 replays are
// compared against.
type Euler struct{}

func NewEuler() *Euler { return &Euler{} }

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	next := make(dynamo.State, len(x))
	floats.AddScaledTo(next, x, dt, dyn.Derive(x, u, t))
	return next
}
