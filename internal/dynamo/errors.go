package dynamo

import (
	"errors"
	"fmt"
)

// Faults raised by the flat map and its collaborators.
var (
	// ErrDegenerateThrust indicates the required specific force is (near) zero,
	// so no attitude can be recovered.
	ErrDegenerateThrust = errors.New("dynamo: degenerate thrust (acceleration vector magnitude ~0)")

	// ErrAttitudeDomain indicates the attitude recovery left the arcsin domain.
	ErrAttitudeDomain = errors.New("dynamo: attitude recovery out of domain")

	// ErrSingularJacobian indicates the (thrust, angle) sensitivity Jacobian lost rank.
	ErrSingularJacobian = errors.New("dynamo: singular sensitivity jacobian")

	// ErrRootNotConverged indicates the force-balance root finder gave up.
	ErrRootNotConverged = errors.New("dynamo: root finder did not converge")

	// ErrConsistency indicates the force balance does not hold at a solved root.
	// It signals a defect rather than a recoverable condition.
	ErrConsistency = errors.New("dynamo: force balance residual exceeds tolerance")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrInvalidState indicates a state vector with NaN or Inf values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnknownName indicates a registry lookup for an unregistered name.
	ErrUnknownName = errors.New("dynamo: unknown name")
)

// RootError carries root-finder diagnostics. It unwraps to ErrRootNotConverged.
type RootError struct {
	Seed       [2]float64
	Last       [2]float64
	Residual   float64
	Iterations int
}

func (e *RootError) Error() string {
	return fmt.Sprintf("%v after %d iterations (seed u=%.6g theta=%.6g, last u=%.6g theta=%.6g, |F|=%.3g)",
		ErrRootNotConverged, e.Iterations, e.Seed[0], e.Seed[1], e.Last[0], e.Last[1], e.Residual)
}

func (e *RootError) Unwrap() error { return ErrRootNotConverged }

// StepError wraps a fault with the control tick it occurred on.
type StepError struct {
	Time     float64
	Strategy Strategy
	Wrapped  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("t=%.4f (%s): %v", e.Time, e.Strategy, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
