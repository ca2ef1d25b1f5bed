package trajectory

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/san-kum/flatquad/internal/dynamo"
)

func TestPolynomialEval(t *testing.T) {
	tests := []struct {
		name string
		p    Polynomial
		t    float64
		want float64
	}{
		{"empty", Polynomial{}, 3, 0},
		{"constant", Polynomial{4}, 10, 4},
		{"linear", Polynomial{2, 1}, 3, 7},
		{"quadratic", Polynomial{3, 0, 1}, 2, 13},
		{"negative t", Polynomial{1, 0, 0, 0}, -2, -8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Eval(tt.t); got != tt.want {
				t.Errorf("Eval(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestPolynomialDerivative(t *testing.T) {
	tests := []struct {
		name string
		p    Polynomial
		want Polynomial
	}{
		{"constant", Polynomial{5}, Polynomial{0}},
		{"empty", Polynomial{}, Polynomial{0}},
		{"linear", Polynomial{2, 1}, Polynomial{2}},
		{"quartic", Polynomial{1, 2, 3, 4, 5}, Polynomial{4, 6, 6, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.p.Derivative()); diff != "" {
				t.Errorf("Derivative mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestChainIsDerivativeChain(t *testing.T) {
	c := NewChain([]float64{1, -2, 0.5, 3, 0, 1})

	for i := 1; i < len(c); i++ {
		if diff := cmp.Diff(c[i-1].Derivative(), c[i]); diff != "" {
			t.Errorf("chain[%d] is not d/dt chain[%d]:\n%s", i, i-1, diff)
		}
	}
}

func TestNewRejectsEmpty(t *testing.T) {
	if _, err := New(nil, []float64{0}); !errors.Is(err, ErrEmptyPolynomial) {
		t.Errorf("expected ErrEmptyPolynomial, got %v", err)
	}
	if _, err := New([]float64{0}, []float64{}); !errors.Is(err, ErrEmptyPolynomial) {
		t.Errorf("expected ErrEmptyPolynomial, got %v", err)
	}
}

func TestEvaluate(t *testing.T) {
	// x = t^4, z = 2t^2 - 1
	tr, err := New([]float64{1, 0, 0, 0, 0}, []float64{2, 0, -1})
	if err != nil {
		t.Fatal(err)
	}

	tm := 1.5
	d := tr.Evaluate(tm)
	want := dynamo.Desired{
		T: tm,
		X: [5]float64{math.Pow(tm, 4), 4 * math.Pow(tm, 3), 12 * tm * tm, 24 * tm, 24},
		Z: [5]float64{2*tm*tm - 1, 4 * tm, 4, 0, 0},
	}

	if diff := cmp.Diff(want, d); diff != "" {
		t.Errorf("Evaluate mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluateExtrapolates(t *testing.T) {
	base, _ := New([]float64{1, 0}, []float64{0})
	tr := base.WithDuration(1)

	if d := tr.Evaluate(-5); d.X[dynamo.Position] != -5 {
		t.Errorf("expected x=-5, got %f", d.X[dynamo.Position])
	}
	if d := tr.Evaluate(100); d.X[dynamo.Position] != 100 {
		t.Errorf("expected x=100, got %f", d.X[dynamo.Position])
	}
}

func TestCoefficientsAreCopies(t *testing.T) {
	coeffs := []float64{1, 2, 3}
	tr, _ := New(coeffs, []float64{0})

	coeffs[0] = 99
	got := tr.Coefficients(AxisX)
	if got[0] != 1 {
		t.Errorf("trajectory aliased caller coefficients: %v", got)
	}

	got[1] = 42
	if tr.Coefficients(AxisX)[1] != 2 {
		t.Error("Coefficients returned internal storage")
	}

	ch := tr.Chain(AxisX)
	ch[1][0] = -1
	if tr.Chain(AxisX)[1][0] != 2 {
		t.Error("Chain returned internal storage")
	}
}

func TestWithDurationCopies(t *testing.T) {
	base, err := New([]float64{1, 0}, []float64{2})
	if err != nil {
		t.Fatal(err)
	}
	timed := base.WithDuration(3)

	if base.Duration() != 0 {
		t.Errorf("receiver modified: duration %v", base.Duration())
	}
	if timed.Duration() != 3 {
		t.Errorf("expected duration 3, got %v", timed.Duration())
	}
	if diff := cmp.Diff(base.Evaluate(0.7), timed.Evaluate(0.7)); diff != "" {
		t.Errorf("copy evaluates differently (-base +timed):\n%s", diff)
	}
}
