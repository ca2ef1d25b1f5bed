package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/flatquad/internal/dynamo"
)

const (
	DefaultMass    = 1.0
	DefaultInertia = 0.01
	DefaultGravity = 9.81
)

// Quadrotor is the planar rigid-body model: mass, inertia about the
// out-of-plane axis and gravitational acceleration. Drag is not part of the
// nominal model; it only shapes the replayed "true" vehicle.
type Quadrotor struct {
	mass, inertia, gravity float64
	drag                   float64
}

type Option func(*Quadrotor)

// WithDrag adds linear translational drag (force = -k*v) to Derive.
func WithDrag(k float64) Option {
	return func(q *Quadrotor) { q.drag = k }
}

func NewQuadrotor(mass, inertia, gravity float64, opts ...Option) (*Quadrotor, error) {
	q := &Quadrotor{mass: mass, inertia: inertia, gravity: gravity}
	for _, opt := range opts {
		opt(q)
	}
	switch {
	case !(mass > 0):
		return nil, fmt.Errorf("mass %v: %w", mass, dynamo.ErrParameterBounds)
	case !(inertia > 0):
		return nil, fmt.Errorf("inertia %v: %w", inertia, dynamo.ErrParameterBounds)
	case !(gravity > 0):
		return nil, fmt.Errorf("gravity %v: %w", gravity, dynamo.ErrParameterBounds)
	case q.drag < 0 || math.IsNaN(q.drag):
		return nil, fmt.Errorf("drag %v: %w", q.drag, dynamo.ErrParameterBounds)
	}
	return q, nil
}

// NewDefaultQuadrotor returns a 1 kg vehicle under standard gravity.
func NewDefaultQuadrotor() *Quadrotor {
	return &Quadrotor{mass: DefaultMass, inertia: DefaultInertia, gravity: DefaultGravity}
}

func (q *Quadrotor) Mass() float64    { return q.mass }
func (q *Quadrotor) Inertia() float64 { return q.inertia }
func (q *Quadrotor) Gravity() float64 { return q.gravity }
func (q *Quadrotor) Drag() float64    { return q.drag }

func (q *Quadrotor) StateDim() int   { return dynamo.StateDim }
func (q *Quadrotor) ControlDim() int { return 2 }

// Derive returns d/dt of (x, z, theta, vx, vz, omega) under u = (thrust, torque).
func (q *Quadrotor) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	theta, vx, vz, omega := x[dynamo.IdxTheta], x[dynamo.IdxVX], x[dynamo.IdxVZ], x[dynamo.IdxOmega]

	thrust, torque := 0.0, 0.0
	if len(u) >= 2 {
		thrust, torque = u[0], u[1]
	} else if len(u) == 1 {
		thrust = u[0]
	}

	sin, cos := math.Sin(theta), math.Cos(theta)
	fx := -thrust*sin - q.drag*vx
	fz := thrust*cos - q.mass*q.gravity - q.drag*vz

	return dynamo.State{vx, vz, omega, fx / q.mass, fz / q.mass, torque / q.inertia}
}

func (q *Quadrotor) HoverThrust() float64 {
	return q.mass * q.gravity
}

func (q *Quadrotor) Energy(x dynamo.State) float64 {
	z, vx, vz, omega := x[dynamo.IdxZ], x[dynamo.IdxVX], x[dynamo.IdxVZ], x[dynamo.IdxOmega]
	ke := 0.5 * q.mass * (vx*vx + vz*vz)
	keRot := 0.5 * q.inertia * omega * omega
	pe := q.mass * q.gravity * z
	return ke + keRot + pe
}

func (q *Quadrotor) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":    q.mass,
		"inertia": q.inertia,
		"gravity": q.gravity,
		"drag":    q.drag,
	}
}
