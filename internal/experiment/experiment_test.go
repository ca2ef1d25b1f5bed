package experiment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/san-kum/flatquad/internal/config"
	"github.com/san-kum/flatquad/internal/dynamo"
)

func TestRegistryLearners(t *testing.T) {
	reg := NewRegistry()

	want := []string{"linear", "linear_drag", "none", "quadratic_drag", "thrust_gain", "wind", "zero"}
	if diff := cmp.Diff(want, reg.ListLearners()); diff != "" {
		t.Errorf("learner names mismatch (-want +got):\n%s", diff)
	}

	if _, err := reg.GetLearner(config.LearnerConfig{Kind: "gp"}); !errors.Is(err, dynamo.ErrUnknownName) {
		t.Errorf("expected ErrUnknownName, got %v", err)
	}
	if _, err := reg.GetLearner(config.LearnerConfig{Kind: "wind", Wind: []float64{1}}); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds for short wind, got %v", err)
	}
	if _, err := reg.GetIntegrator("verlet"); !errors.Is(err, dynamo.ErrUnknownName) {
		t.Errorf("expected ErrUnknownName, got %v", err)
	}
}

func TestPresetStrategies(t *testing.T) {
	tests := []struct {
		preset string
		want   dynamo.Strategy
	}{
		{"hover", dynamo.StrategyNominal},
		{"cruise", dynamo.StrategyLinearized},
		{"climb", dynamo.StrategyLinearized},
		{"swing", dynamo.StrategyNonlinear},
		{"dash", dynamo.StrategyNonlinear},
	}

	reg := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			exp, err := New(config.GetPreset(tt.preset), reg, nil)
			if err != nil {
				t.Fatalf("setup failed: %v", err)
			}
			if got := exp.Controller().Strategy(); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
			if got := exp.Trajectory().Duration(); got != exp.Config().Sample.Duration {
				t.Errorf("trajectory duration %v, want %v", got, exp.Config().Sample.Duration)
			}
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Model.Inertia = 0
	if _, err := New(cfg, NewRegistry(), nil); err == nil {
		t.Error("expected error for zero inertia")
	}

	cfg = config.DefaultConfig()
	cfg.Learner.Kind = "unknown"
	if _, err := New(cfg, NewRegistry(), nil); !errors.Is(err, dynamo.ErrUnknownName) {
		t.Errorf("expected ErrUnknownName, got %v", err)
	}
}

func TestSampleHover(t *testing.T) {
	exp, err := New(config.GetPreset("hover"), NewRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}

	ticks, err := exp.Sample()
	if err != nil {
		t.Fatalf("sample failed: %v", err)
	}
	if len(ticks) != len(exp.Config().Times()) {
		t.Errorf("expected %d ticks, got %d", len(exp.Config().Times()), len(ticks))
	}
	for _, tick := range ticks {
		if math.Abs(tick.Command.Thrust-9.81) > 1e-12 || tick.Command.Torque != 0 {
			t.Fatalf("expected hover command at t=%.2f, got %+v", tick.Desired.T, tick.Command)
		}
	}
}

func TestReplayCruise(t *testing.T) {
	exp, err := New(config.GetPreset("cruise"), NewRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}

	result, err := exp.Replay(context.Background())
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if rms := result.Metrics["tracking_rms"]; rms > 1e-6 {
		t.Errorf("expected cruise to track, rms %.3g", rms)
	}
	if peak := result.Metrics["peak_torque"]; peak > 1e-9 {
		t.Errorf("expected no torque in cruise, got %.3g", peak)
	}
}

func TestCheckPresets(t *testing.T) {
	reg := NewRegistry()
	for _, name := range config.ListPresets() {
		t.Run(name, func(t *testing.T) {
			exp, err := New(config.GetPreset(name), reg, nil)
			if err != nil {
				t.Fatal(err)
			}
			rep, err := exp.Check()
			if err != nil {
				t.Fatalf("check failed: %v", err)
			}
			if !rep.Pass(1e-3) {
				t.Errorf("check did not pass: %+v", rep)
			}
		})
	}
}

func TestIsRecoverable(t *testing.T) {
	if !IsRecoverable(&dynamo.RootError{}) {
		t.Error("root failures should be recoverable")
	}
	if IsRecoverable(&dynamo.StepError{Wrapped: dynamo.ErrDegenerateThrust}) {
		t.Error("degenerate thrust should not be recoverable")
	}
}
