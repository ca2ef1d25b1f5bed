package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/flatquad/internal/config"
	"github.com/san-kum/flatquad/internal/dynamo"
	"github.com/san-kum/flatquad/internal/integrators"
	"github.com/san-kum/flatquad/internal/learner"
	"github.com/san-kum/flatquad/internal/metrics"
	"github.com/san-kum/flatquad/internal/physics"
)

type Registry struct {
	learners    map[string]func(config.LearnerConfig) (learner.Model, error)
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		learners:    make(map[string]func(config.LearnerConfig) (learner.Model, error)),
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.learners["none"] = func(config.LearnerConfig) (learner.Model, error) { return learner.None{}, nil }
	r.learners["zero"] = func(config.LearnerConfig) (learner.Model, error) { return learner.Zero{}, nil }
	r.learners["linear_drag"] = func(c config.LearnerConfig) (learner.Model, error) {
		return learner.LinearDrag{Coeff: c.Coeff}, nil
	}
	r.learners["quadratic_drag"] = func(c config.LearnerConfig) (learner.Model, error) {
		return learner.QuadraticDrag{Coeff: c.Coeff}, nil
	}
	r.learners["thrust_gain"] = func(c config.LearnerConfig) (learner.Model, error) {
		return learner.ThrustGain{Gain: c.Gain}, nil
	}
	r.learners["wind"] = func(c config.LearnerConfig) (learner.Model, error) {
		if len(c.Wind) != 2 {
			return nil, fmt.Errorf("wind learner needs 2 entries, got %d: %w", len(c.Wind), dynamo.ErrParameterBounds)
		}
		return learner.Wind{Accel: dynamo.Vec2{c.Wind[0], c.Wind[1]}}, nil
	}
	r.learners["linear"] = func(c config.LearnerConfig) (learner.Model, error) {
		var bias [2]float64
		copy(bias[:], c.Bias)
		return learner.NewLinear(c.Weights, bias)
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }

	return r
}

func (r *Registry) GetLearner(c config.LearnerConfig) (learner.Model, error) {
	fn, ok := r.learners[c.Kind]
	if !ok {
		return nil, fmt.Errorf("learner %q: %w", c.Kind, dynamo.ErrUnknownName)
	}
	return fn(c)
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("integrator %q: %w", name, dynamo.ErrUnknownName)
	}
	return fn(), nil
}

func (r *Registry) ListLearners() []string    { return sortedKeys(r.learners) }
func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }

// DefaultMetrics are attached to every replay.
func (r *Registry) DefaultMetrics(ref metrics.Reference, plant *physics.Quadrotor) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewTrackingError(ref),
		metrics.NewControlEffort(),
		metrics.NewPeakTorque(),
		metrics.NewEnergyChange(plant),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
