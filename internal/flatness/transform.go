package flatness

import (
	"fmt"

	"github.com/san-kum/flatquad/internal/dynamo"
	"github.com/san-kum/flatquad/internal/learner"
)

// StrategyFor selects the correction strategy implied by m's capabilities.
func StrategyFor(m learner.Model) dynamo.Strategy {
	if learner.IsAbsent(m) {
		return dynamo.StrategyNominal
	}
	if _, ok := m.(learner.AttitudeSensitive); ok {
		return dynamo.StrategyNonlinear
	}
	return dynamo.StrategyLinearized
}

type Transform struct {
	gravity  float64
	model    learner.Model
	strategy dynamo.Strategy
	cfg      Config
}

// New builds a Transform for the given gravity and (possibly nil) learned
// correction.
func New(gravity float64, m learner.Model, cfg Config) (*Transform, error) {
	if !(gravity > 0) {
		return nil, fmt.Errorf("gravity %v: %w", gravity, dynamo.ErrParameterBounds)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if m == nil {
		m = learner.None{}
	}
	return &Transform{gravity: gravity, model: m, strategy: StrategyFor(m), cfg: cfg}, nil
}

func (tr *Transform) Strategy() dynamo.Strategy { return tr.strategy }
func (tr *Transform) Model() learner.Model      { return tr.model }
func (tr *Transform) Gravity() float64          { return tr.gravity }

// WithStrategy returns a copy of tr forced onto s, e.g. to fall back to the
// linearized correction after a root-finder failure. A strategy the model
// cannot serve is rejected.
func (tr *Transform) WithStrategy(s dynamo.Strategy) (*Transform, error) {
	switch s {
	case dynamo.StrategyNominal:
	case dynamo.StrategyLinearized:
		if learner.IsAbsent(tr.model) {
			return nil, fmt.Errorf("linearized strategy needs a learned model: %w", dynamo.ErrParameterBounds)
		}
	case dynamo.StrategyNonlinear:
		if _, ok := tr.model.(learner.AttitudeSensitive); !ok || learner.IsAbsent(tr.model) {
			return nil, fmt.Errorf("nonlinear strategy needs an attitude-sensitive model: %w", dynamo.ErrParameterBounds)
		}
	default:
		return nil, fmt.Errorf("%v: %w", s, dynamo.ErrUnknownName)
	}
	c := *tr
	c.strategy = s
	return &c, nil
}

// Compute recovers thrust norm and attitude for one trajectory sample.
// Faults are returned as *dynamo.StepError wrapping the sentinel error.
func (tr *Transform) Compute(d dynamo.Desired) (dynamo.FlatOutput, error) {
	var (
		out dynamo.FlatOutput
		err error
	)
	switch tr.strategy {
	case dynamo.StrategyLinearized:
		out, err = tr.linearized(d)
	case dynamo.StrategyNonlinear:
		out, err = tr.nonlinear(d, tr.seed(d))
	default:
		out, err = tr.nominal(d)
	}
	if err != nil {
		return dynamo.FlatOutput{}, &dynamo.StepError{Time: d.T, Strategy: tr.strategy, Wrapped: err}
	}
	out.Strategy = tr.strategy
	return out, nil
}

// ComputeFrom runs the nonlinear strategy from an explicit (thrust norm,
// angle) seed. Other strategies are closed form and ignore the seed.
func (tr *Transform) ComputeFrom(d dynamo.Desired, thrust, angle float64) (dynamo.FlatOutput, error) {
	if tr.strategy != dynamo.StrategyNonlinear {
		return tr.Compute(d)
	}
	out, err := tr.nonlinear(d, [2]float64{thrust, angle})
	if err != nil {
		return dynamo.FlatOutput{}, &dynamo.StepError{Time: d.T, Strategy: tr.strategy, Wrapped: err}
	}
	out.Strategy = tr.strategy
	return out, nil
}

func (tr *Transform) gravityVec() dynamo.Vec2 { return dynamo.Vec2{0, tr.gravity} }
