// Package sim replays feed-forward commands through a dynamics model.
//
// The replay is open loop: the controller sees the state but the flat
// controller ignores it, so tracking error measures how well the feed-forward
// (and its learned correction) matches the vehicle.
package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/flatquad/internal/dynamo"
)

// Controller produces the actuation for state x at time t.
type Controller interface {
	Compute(x dynamo.State, t float64) (dynamo.Control, error)
}

type Config struct {
	Dt            float64
	Duration      float64
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{Dt: 0.01, Duration: 5.0, ValidateState: true}
}

type Result struct {
	States   []dynamo.State
	Controls []dynamo.Control
	Times    []float64
	Metrics  map[string]float64
}

// Final returns the last recorded state.
func (r *Result) Final() dynamo.State {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}

type Simulator struct {
	dyn        dynamo.System
	integrator dynamo.Integrator
	controller Controller
	metrics    []dynamo.Metric
}

func New(dyn dynamo.System, integrator dynamo.Integrator, controller Controller) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		controller: controller,
		metrics:    make([]dynamo.Metric, 0),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric) { s.metrics = append(s.metrics, m) }

// Run integrates from x0 for cfg.Duration. A controller fault stops the run
// and is returned together with the partial result.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != s.dyn.StateDim() {
		return nil, fmt.Errorf("initial state has %d entries, want %d: %w", len(x0), s.dyn.StateDim(), dynamo.ErrParameterBounds)
	}

	steps := int(cfg.Duration/cfg.Dt + 0.5)
	result := &Result{
		States:   make([]dynamo.State, 0, steps+1),
		Controls: make([]dynamo.Control, 0, steps),
		Times:    make([]float64, 0, steps+1),
		Metrics:  make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, 0)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		t := float64(i) * cfg.Dt
		u, err := s.controller.Compute(x, t)
		if err != nil {
			s.collect(result)
			return result, err
		}

		for _, m := range s.metrics {
			m.Observe(x, u, t)
		}

		x = s.integrator.Step(s.dyn, x, u, t, cfg.Dt)
		if cfg.ValidateState && !x.IsValid() {
			s.collect(result)
			return result, &dynamo.StepError{Time: t, Wrapped: dynamo.ErrInvalidState}
		}

		result.States = append(result.States, x.Clone())
		result.Controls = append(result.Controls, u)
		result.Times = append(result.Times, float64(i+1)*cfg.Dt)
	}

	s.collect(result)
	return result, nil
}

func (s *Simulator) collect(result *Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if !(cfg.Duration > 0) {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return nil
}
