package dynamo

import (
	"fmt"
	"math"
)

// Vec2 is a planar vector ordered (horizontal, vertical).
type Vec2 [2]float64

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v[0] + o[0], v[1] + o[1]} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v[0] - o[0], v[1] - o[1]} }

func (v Vec2) Scale(k float64) Vec2 { return Vec2{v[0] * k, v[1] * k} }

func (v Vec2) Dot(o Vec2) float64 { return v[0]*o[0] + v[1]*o[1] }

func (v Vec2) Norm() float64 { return math.Hypot(v[0], v[1]) }

// Perp rotates v by +90 degrees, i.e. R90*v with R90 = [[0,-1],[1,0]].
func (v Vec2) Perp() Vec2 { return Vec2{-v[1], v[0]} }

func (v Vec2) IsValid() bool {
	return !math.IsNaN(v[0]) && !math.IsNaN(v[1]) && !math.IsInf(v[0], 0) && !math.IsInf(v[1], 0)
}

// Derivative orders stored in a Desired axis.
const (
	Position = iota
	Velocity
	Acceleration
	Jerk
	Snap
	NumDerivatives
)

// Desired is the trajectory sampled at one instant: position through snap
// for the horizontal (X) and vertical (Z) axes.
type Desired struct {
	T float64
	X [NumDerivatives]float64
	Z [NumDerivatives]float64
}

// At returns the planar vector of the given derivative order.
func (d Desired) At(order int) Vec2 { return Vec2{d.X[order], d.Z[order]} }

func (d Desired) Pos() Vec2  { return d.At(Position) }
func (d Desired) Vel() Vec2  { return d.At(Velocity) }
func (d Desired) Acc() Vec2  { return d.At(Acceleration) }
func (d Desired) Jerk() Vec2 { return d.At(Jerk) }
func (d Desired) Snap() Vec2 { return d.At(Snap) }

// Strategy identifies which branch of the flat map produced an output.
type Strategy int

const (
	StrategyNominal Strategy = iota
	StrategyLinearized
	StrategyNonlinear
)

func (s Strategy) String() string {
	switch s {
	case StrategyNominal:
		return "nominal"
	case StrategyLinearized:
		return "linearized"
	case StrategyNonlinear:
		return "nonlinear"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// FlatOutput is the attitude and normalized thrust recovered from the flat
// outputs at a single instant.
type FlatOutput struct {
	ThrustNorm  float64
	ThrustRate  float64
	ThrustAccel float64
	Angle       float64
	AngleRate   float64
	AngleAccel  float64
	Strategy    Strategy
}

// Command is the feed-forward actuation for one control tick.
type Command struct {
	Thrust float64
	Torque float64
}

// State is the planar rigid-body state (x, z, theta, vx, vz, omega).
type State []float64

const (
	IdxX = iota
	IdxZ
	IdxTheta
	IdxVX
	IdxVZ
	IdxOmega
	StateDim
)

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Control is (thrust, torque).
type Control []float64

// System is an ODE dX/dt = f(X, u, t).
type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}
