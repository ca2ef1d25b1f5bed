// Package trajectory represents planar polynomial reference trajectories and
// samples them up to snap.
package trajectory

import (
	"errors"

	"github.com/san-kum/flatquad/internal/dynamo"
)

type Axis int

const (
	AxisX Axis = iota
	AxisZ
)

// Chain is a polynomial and its first four time derivatives;
// chain[i] = d/dt chain[i-1].
type Chain [dynamo.NumDerivatives]Polynomial

func NewChain(coeffs []float64) Chain {
	var c Chain
	c[0] = Polynomial(coeffs).Clone()
	for i := 1; i < len(c); i++ {
		c[i] = c[i-1].Derivative()
	}
	return c
}

func (c Chain) Eval(t float64) [dynamo.NumDerivatives]float64 {
	var out [dynamo.NumDerivatives]float64
	for i, p := range c {
		out[i] = p.Eval(t)
	}
	return out
}

// Trajectory is immutable after New and safe for concurrent use.
type Trajectory struct {
	x, z     Chain
	duration float64
}

var ErrEmptyPolynomial = errors.New("trajectory: empty coefficient list")

func New(xCoeffs, zCoeffs []float64) (*Trajectory, error) {
	if len(xCoeffs) == 0 || len(zCoeffs) == 0 {
		return nil, ErrEmptyPolynomial
	}
	return &Trajectory{x: NewChain(xCoeffs), z: NewChain(zCoeffs)}, nil
}

// WithDuration returns a copy carrying a nominal length in seconds. The
// receiver is left unchanged.
func (tr *Trajectory) WithDuration(d float64) *Trajectory {
	c := *tr
	c.duration = d
	return &c
}

// Duration is the nominal length in seconds, zero if unset. Evaluate does
// not enforce it.
func (tr *Trajectory) Duration() float64 { return tr.duration }

// Evaluate samples position through snap on both axes. Any real t is
// accepted, including extrapolation past Duration().
func (tr *Trajectory) Evaluate(t float64) dynamo.Desired {
	return dynamo.Desired{T: t, X: tr.x.Eval(t), Z: tr.z.Eval(t)}
}

// Coefficients returns a copy of the position polynomial for axis.
func (tr *Trajectory) Coefficients(axis Axis) []float64 {
	if axis == AxisZ {
		return tr.z[0].Clone()
	}
	return tr.x[0].Clone()
}

// Chain returns a copy of the derivative chain for axis.
func (tr *Trajectory) Chain(axis Axis) Chain {
	src := tr.x
	if axis == AxisZ {
		src = tr.z
	}
	var c Chain
	for i, p := range src {
		c[i] = p.Clone()
	}
	return c
}
