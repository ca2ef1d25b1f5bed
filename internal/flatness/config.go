package flatness

import (
	"fmt"

	"github.com/san-kum/flatquad/internal/dynamo"
)

type Config struct {
	// MinThrust is the smallest specific force (m/s^2) from which an
	// attitude is recovered.
	MinThrust float64
	// MaxIterations bounds the root finder.
	MaxIterations int
	// Tolerance is the residual norm at which the root finder stops,
	// relative to max(1, |a+g|).
	Tolerance float64
	// ConsistencyTolerance bounds the force-balance residual accepted at a
	// root before the sensitivity solve, relative to max(1, |a+g|).
	ConsistencyTolerance float64
	// SingularTolerance is the relative singular-value floor below which
	// the sensitivity jacobian counts as rank deficient.
	SingularTolerance float64
}

func DefaultConfig() Config {
	return Config{
		MinThrust:            1e-9,
		MaxIterations:        50,
		Tolerance:            1e-10,
		ConsistencyTolerance: 1e-4,
		SingularTolerance:    1e-10,
	}
}

func (c Config) validate() error {
	switch {
	case !(c.MinThrust > 0):
		return fmt.Errorf("min thrust %v: %w", c.MinThrust, dynamo.ErrParameterBounds)
	case c.MaxIterations < 1:
		return fmt.Errorf("max iterations %d: %w", c.MaxIterations, dynamo.ErrParameterBounds)
	case !(c.Tolerance > 0):
		return fmt.Errorf("tolerance %v: %w", c.Tolerance, dynamo.ErrParameterBounds)
	case !(c.ConsistencyTolerance >= c.Tolerance):
		return fmt.Errorf("consistency tolerance %v below solver tolerance: %w", c.ConsistencyTolerance, dynamo.ErrParameterBounds)
	case !(c.SingularTolerance > 0):
		return fmt.Errorf("singular tolerance %v: %w", c.SingularTolerance, dynamo.ErrParameterBounds)
	}
	return nil
}
