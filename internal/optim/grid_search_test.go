package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/san-kum/flatquad/internal/config"
	"github.com/san-kum/flatquad/internal/dynamo"
	"github.com/san-kum/flatquad/internal/experiment"
)

func TestParseAxis(t *testing.T) {
	a, err := ParseAxis("learner.coeff=0, 0.15,0.3")
	if err != nil {
		t.Fatal(err)
	}
	want := Axis{Name: "learner.coeff", Values: []float64{0, 0.15, 0.3}}
	if diff := cmp.Diff(want, a); diff != "" {
		t.Errorf("axis mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"learner.coeff", "learner.coeff=", "learner.coeff=0,x"} {
		if _, err := ParseAxis(bad); err == nil {
			t.Errorf("ParseAxis(%q) should fail", bad)
		}
	}
}

func TestNewGridSearchValidation(t *testing.T) {
	if _, err := NewGridSearch(nil); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("no axes: expected ErrParameterBounds, got %v", err)
	}
	if _, err := NewGridSearch([]Axis{{Name: "solver.tolerance", Values: []float64{1}}}); !errors.Is(err, dynamo.ErrUnknownName) {
		t.Errorf("unknown param: expected ErrUnknownName, got %v", err)
	}
	if _, err := NewGridSearch([]Axis{{Name: "model.drag"}}); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("empty axis: expected ErrParameterBounds, got %v", err)
	}
}

func TestGrid(t *testing.T) {
	g, err := NewGridSearch([]Axis{
		{Name: "model.drag", Values: []float64{0, 1}},
		{Name: "learner.coeff", Values: []float64{2, 3, 4}},
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []map[string]float64{
		{"model.drag": 0, "learner.coeff": 2},
		{"model.drag": 0, "learner.coeff": 3},
		{"model.drag": 0, "learner.coeff": 4},
		{"model.drag": 1, "learner.coeff": 2},
		{"model.drag": 1, "learner.coeff": 3},
		{"model.drag": 1, "learner.coeff": 4},
	}
	if diff := cmp.Diff(want, g.Grid()); diff != "" {
		t.Errorf("grid mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchRecoversDragCoefficient(t *testing.T) {
	base := config.GetPreset("cruise")
	base.Sample.Duration = 1.0

	g, err := NewGridSearch([]Axis{{Name: "learner.coeff", Values: []float64{0, 0.15, 0.3, 0.6}}}, WithWorkers(2))
	if err != nil {
		t.Fatal(err)
	}

	res, err := g.Search(context.Background(), base, experiment.NewRegistry(), "tracking_rms")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Points) != 4 {
		t.Fatalf("expected 4 points, got %d", len(res.Points))
	}
	if c := res.Best.Params["learner.coeff"]; c != 0.3 {
		t.Errorf("expected best coeff 0.3, got %v (rms %g)", c, res.Best.Value)
	}
	if res.Best.Value > 1e-6 {
		t.Errorf("matched correction should track exactly, rms %g", res.Best.Value)
	}
	for _, p := range res.Points {
		if p.Err != nil {
			t.Errorf("point %v faulted: %v", p.Params, p.Err)
		}
	}
}

func TestSearchAllFaulted(t *testing.T) {
	g, err := NewGridSearch([]Axis{{Name: "model.mass", Values: []float64{-1, 0}}})
	if err != nil {
		t.Fatal(err)
	}

	res, err := g.Search(context.Background(), config.GetPreset("hover"), experiment.NewRegistry(), "tracking_rms")
	if err == nil {
		t.Fatal("expected an error when every cell faults")
	}
	for _, p := range res.Points {
		if p.Err == nil || !math.IsInf(p.Value, 1) {
			t.Errorf("point %v should be marked faulted, got value %v", p.Params, p.Value)
		}
	}
}

func TestSearchUnknownMetric(t *testing.T) {
	g, err := NewGridSearch([]Axis{{Name: "model.drag", Values: []float64{0}}})
	if err != nil {
		t.Fatal(err)
	}
	_, err = g.Search(context.Background(), config.GetPreset("hover"), experiment.NewRegistry(), "bogus")
	if !errors.Is(err, dynamo.ErrUnknownName) {
		t.Errorf("expected ErrUnknownName, got %v", err)
	}
}

func TestSearchCancelled(t *testing.T) {
	g, err := NewGridSearch([]Axis{{Name: "model.drag", Values: []float64{0, 0.1}}})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := g.Search(ctx, config.GetPreset("hover"), experiment.NewRegistry(), "tracking_rms"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
