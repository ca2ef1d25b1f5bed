package control

import (
	"errors"
	"fmt"

	"github.com/san-kum/flatquad/internal/dynamo"
	"github.com/san-kum/flatquad/internal/flatness"
	"github.com/san-kum/flatquad/internal/learner"
	"github.com/san-kum/flatquad/internal/trajectory"
	"go.uber.org/zap"
)

// Tick is everything produced for one control instant.
type Tick struct {
	Desired dynamo.Desired
	Output  dynamo.FlatOutput
	Command dynamo.Command
}

// FlatController is the per-tick driver: sample the trajectory, invert the
// flat map, synthesize the command.
type FlatController struct {
	vehicle   Vehicle
	traj      *trajectory.Trajectory
	transform *flatness.Transform
	fallback  *flatness.Transform
	log       *zap.Logger
}

type Option func(*FlatController) error

func WithLogger(l *zap.Logger) Option {
	return func(c *FlatController) error {
		c.log = l
		return nil
	}
}

// WithFallback retries ticks whose root solve failed or whose sensitivity
// Jacobian lost rank on the linearized strategy. It is a no-op unless the
// primary strategy is nonlinear.
func WithFallback() Option {
	return func(c *FlatController) error {
		if c.transform.Strategy() != dynamo.StrategyNonlinear {
			return nil
		}
		fb, err := c.transform.WithStrategy(dynamo.StrategyLinearized)
		if err != nil {
			return err
		}
		c.fallback = fb
		return nil
	}
}

func NewFlatController(v Vehicle, traj *trajectory.Trajectory, m learner.Model, cfg flatness.Config, opts ...Option) (*FlatController, error) {
	tr, err := flatness.New(v.Gravity(), m, cfg)
	if err != nil {
		return nil, err
	}
	c := &FlatController{vehicle: v, traj: traj, transform: tr, log: zap.NewNop()}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.log.Debug("flat controller ready",
		zap.Stringer("strategy", tr.Strategy()),
		zap.String("learner", fmt.Sprintf("%T", tr.Model())),
		zap.Bool("fallback", c.fallback != nil),
	)
	return c, nil
}

func (c *FlatController) Strategy() dynamo.Strategy          { return c.transform.Strategy() }
func (c *FlatController) Trajectory() *trajectory.Trajectory { return c.traj }

// Step runs the full pipeline at time t.
func (c *FlatController) Step(t float64) (Tick, error) {
	d := c.traj.Evaluate(t)

	out, err := c.transform.Compute(d)
	if err != nil && c.fallback != nil && recoverable(err) {
		c.log.Warn("nonlinear solve failed, using linearized correction", zap.Float64("t", t), zap.Error(err))
		out, err = c.fallback.Compute(d)
	}
	if err != nil {
		c.log.Error("flat map fault", zap.Float64("t", t), zap.Error(err))
		return Tick{Desired: d}, err
	}

	return Tick{Desired: d, Output: out, Command: Synthesize(c.vehicle, out)}, nil
}

// recoverable reports faults the linearized strategy can still answer.
func recoverable(err error) bool {
	return errors.Is(err, dynamo.ErrRootNotConverged) || errors.Is(err, dynamo.ErrSingularJacobian)
}

func (c *FlatController) Command(t float64) (dynamo.Command, error) {
	tick, err := c.Step(t)
	return tick.Command, err
}

// Compute ignores the measured state: the command is pure feed-forward.
func (c *FlatController) Compute(_ dynamo.State, t float64) (dynamo.Control, error) {
	cmd, err := c.Command(t)
	if err != nil {
		return nil, err
	}
	return dynamo.Control{cmd.Thrust, cmd.Torque}, nil
}
