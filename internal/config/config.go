package config

import (
	"fmt"
	"math"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMass       = 1.0
	DefaultInertia    = 0.01
	DefaultGravity    = 9.81
	DefaultDt         = 0.01
	DefaultDuration   = 2.0
	DefaultIntegrator = "rk4"
	DefaultLearner    = "none"

	// LinearFeatures is the width of a linear learner's weight rows:
	// the six state entries followed by the two inputs.
	LinearFeatures = 8
)

type Config struct {
	Model      ModelConfig      `yaml:"model"`
	Trajectory TrajectoryConfig `yaml:"trajectory"`
	Learner    LearnerConfig    `yaml:"learner"`
	Solver     SolverConfig     `yaml:"solver"`
	Sample     SampleConfig     `yaml:"sample"`
}

// ModelConfig describes the vehicle. Drag only shapes the replayed vehicle;
// the flat map never sees it except through a learner.
type ModelConfig struct {
	Mass    float64 `yaml:"mass"`
	Inertia float64 `yaml:"inertia"`
	Gravity float64 `yaml:"gravity"`
	Drag    float64 `yaml:"drag"`
}

// TrajectoryConfig holds polynomial coefficients, highest degree first.
type TrajectoryConfig struct {
	X []float64 `yaml:"x"`
	Z []float64 `yaml:"z"`
}

type LearnerConfig struct {
	Kind    string      `yaml:"kind"`
	Coeff   float64     `yaml:"coeff,omitempty"`
	Gain    float64     `yaml:"gain,omitempty"`
	Wind    []float64   `yaml:"wind,omitempty"`
	Weights [][]float64 `yaml:"weights,omitempty"`
	Bias    []float64   `yaml:"bias,omitempty"`
}

type SolverConfig struct {
	MinThrust            float64 `yaml:"min_thrust"`
	MaxIterations        int     `yaml:"max_iterations"`
	Tolerance            float64 `yaml:"tolerance"`
	ConsistencyTolerance float64 `yaml:"consistency_tolerance"`
	SingularTolerance    float64 `yaml:"singular_tolerance"`
	Fallback             bool    `yaml:"fallback"`
}

type SampleConfig struct {
	Dt         float64 `yaml:"dt"`
	Duration   float64 `yaml:"duration"`
	Integrator string  `yaml:"integrator"`
}

func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Mass:    DefaultMass,
			Inertia: DefaultInertia,
			Gravity: DefaultGravity,
		},
		Trajectory: TrajectoryConfig{
			X: []float64{0},
			Z: []float64{1},
		},
		Learner: LearnerConfig{Kind: DefaultLearner},
		Solver: SolverConfig{
			MinThrust:            1e-9,
			MaxIterations:        50,
			Tolerance:            1e-10,
			ConsistencyTolerance: 1e-4,
			SingularTolerance:    1e-10,
		},
		Sample: SampleConfig{
			Dt:         DefaultDt,
			Duration:   DefaultDuration,
			Integrator: DefaultIntegrator,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every problem at once. Learner kinds are resolved later
// by the registry, so only their parameters are checked here.
func (c *Config) Validate() error {
	var err error

	positive := func(name string, v float64) {
		if !(v > 0) || math.IsInf(v, 0) {
			err = multierr.Append(err, fmt.Errorf("%s must be positive, got %v", name, v))
		}
	}
	positive("model.mass", c.Model.Mass)
	positive("model.inertia", c.Model.Inertia)
	positive("model.gravity", c.Model.Gravity)
	if c.Model.Drag < 0 || math.IsNaN(c.Model.Drag) {
		err = multierr.Append(err, fmt.Errorf("model.drag must be non-negative, got %v", c.Model.Drag))
	}

	if len(c.Trajectory.X) == 0 {
		err = multierr.Append(err, fmt.Errorf("trajectory.x has no coefficients"))
	}
	if len(c.Trajectory.Z) == 0 {
		err = multierr.Append(err, fmt.Errorf("trajectory.z has no coefficients"))
	}

	if c.Learner.Wind != nil && len(c.Learner.Wind) != 2 {
		err = multierr.Append(err, fmt.Errorf("learner.wind needs 2 entries, got %d", len(c.Learner.Wind)))
	}
	if c.Learner.Kind == "linear" {
		if len(c.Learner.Weights) != 2 {
			err = multierr.Append(err, fmt.Errorf("learner.weights needs 2 rows, got %d", len(c.Learner.Weights)))
		}
		for i, row := range c.Learner.Weights {
			if len(row) != LinearFeatures {
				err = multierr.Append(err, fmt.Errorf("learner.weights[%d] needs %d entries, got %d", i, LinearFeatures, len(row)))
			}
		}
		if c.Learner.Bias != nil && len(c.Learner.Bias) != 2 {
			err = multierr.Append(err, fmt.Errorf("learner.bias needs 2 entries, got %d", len(c.Learner.Bias)))
		}
	}

	positive("solver.min_thrust", c.Solver.MinThrust)
	positive("solver.tolerance", c.Solver.Tolerance)
	positive("solver.consistency_tolerance", c.Solver.ConsistencyTolerance)
	positive("solver.singular_tolerance", c.Solver.SingularTolerance)
	if c.Solver.MaxIterations <= 0 {
		err = multierr.Append(err, fmt.Errorf("solver.max_iterations must be positive, got %d", c.Solver.MaxIterations))
	}

	positive("sample.dt", c.Sample.Dt)
	positive("sample.duration", c.Sample.Duration)
	if c.Sample.Dt > c.Sample.Duration {
		err = multierr.Append(err, fmt.Errorf("sample.dt %v exceeds sample.duration %v", c.Sample.Dt, c.Sample.Duration))
	}

	return err
}

// Clone returns a deep copy so presets can be tweaked by flags.
func (c *Config) Clone() *Config {
	out := *c
	out.Trajectory.X = append([]float64(nil), c.Trajectory.X...)
	out.Trajectory.Z = append([]float64(nil), c.Trajectory.Z...)
	out.Learner.Wind = append([]float64(nil), c.Learner.Wind...)
	out.Learner.Bias = append([]float64(nil), c.Learner.Bias...)
	if c.Learner.Weights != nil {
		out.Learner.Weights = make([][]float64, len(c.Learner.Weights))
		for i, row := range c.Learner.Weights {
			out.Learner.Weights[i] = append([]float64(nil), row...)
		}
	}
	return &out
}

// Times returns the sample instants 0, dt, ..., duration.
func (c *Config) Times() []float64 {
	n := int(c.Sample.Duration/c.Sample.Dt + 0.5)
	ts := make([]float64, n+1)
	for i := range ts {
		ts[i] = float64(i) * c.Sample.Dt
	}
	return ts
}
