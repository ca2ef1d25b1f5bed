package integrators

import "github.com/san-kum/flatquad/internal/dynamo"

var (
	rk4Nodes   = [4]float64{0, 0.5, 0.5, 1}
	rk4Weights = [4]float64{1, 2, 2, 1}
)

// RK4 is the classical fourth-order Runge-Kutta scheme. Stage buffers are
// reused between calls, so an RK4 must not be shared across goroutines.
type RK4 struct {
	k   [4]dynamo.State
	tmp dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.tmp) == n {
		return
	}
	for s := range r.k {
		r.k[s] = make(dynamo.State, n)
	}
	r.tmp = make(dynamo.State, n)
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	r.ensureScratch(n)

	for s := range r.k {
		stage := x
		if s > 0 {
			h := dt * rk4Nodes[s]
			for i := 0; i < n; i++ {
				r.tmp[i] = x[i] + h*r.k[s-1][i]
			}
			stage = r.tmp
		}
		copy(r.k[s], dyn.Derive(stage, u, t+dt*rk4Nodes[s]))
	}

	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		sum := 0.0
		for s, w := range rk4Weights {
			sum += w * r.k[s][i]
		}
		result[i] = x[i] + dt6*sum
	}
	return result
}
