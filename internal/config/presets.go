package config

import "sort"

func preset(x, z []float64, l LearnerConfig, drag, duration float64) *Config {
	cfg := DefaultConfig()
	cfg.Trajectory = TrajectoryConfig{X: x, Z: z}
	cfg.Learner = l
	cfg.Model.Drag = drag
	cfg.Sample.Duration = duration
	return cfg
}

// Presets are ready-made scenarios, one per strategy and learner family.
var Presets = map[string]*Config{
	// Holding position: thrust m*g, zero torque.
	"hover": preset([]float64{0}, []float64{1}, LearnerConfig{Kind: "none"}, 0, 2.0),

	// Constant horizontal speed against linear drag.
	"cruise": preset([]float64{1, 0}, []float64{1},
		LearnerConfig{Kind: "linear_drag", Coeff: 0.3}, 0.3, 3.0),

	// Accelerating climb with quadratic drag.
	"climb": preset([]float64{0.1, 0, 0}, []float64{0.5, 0, 1},
		LearnerConfig{Kind: "quadratic_drag", Coeff: 0.1}, 0, 2.0),

	// Quintic side-to-side swing with a mis-scaled thrust map.
	"swing": func() *Config {
		cfg := preset([]float64{0.05, -0.25, 0.3, 0, 0, 0}, []float64{0.02, -0.05, 0, 0.1, 0, 1},
			LearnerConfig{Kind: "thrust_gain", Gain: 0.1}, 0, 2.0)
		cfg.Solver.Fallback = true
		return cfg
	}(),

	// Rest-to-rest dash with a fitted affine correction.
	"dash": preset([]float64{-0.4, 1.2, 0, 0}, []float64{1},
		LearnerConfig{
			Kind: "linear",
			Weights: [][]float64{
				{0, 0, 0, -0.2, 0, 0, 0, 0},
				{0, 0, 0, 0, -0.2, 0, 0, 0},
			},
			Bias: []float64{0, 0},
		}, 0.2, 2.0),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
