package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/flatquad/internal/config"
	"github.com/san-kum/flatquad/internal/control"
	"github.com/san-kum/flatquad/internal/dynamo"
	"github.com/san-kum/flatquad/internal/flatness"
	"github.com/san-kum/flatquad/internal/physics"
	"github.com/san-kum/flatquad/internal/sim"
	"github.com/san-kum/flatquad/internal/trajectory"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/diff/fd"
)

// Experiment wires one configuration into a flat controller plus the
// vehicle it is replayed against.
type Experiment struct {
	cfg        *config.Config
	reg        *Registry
	vehicle    *physics.Quadrotor
	plant      *physics.Quadrotor
	traj       *trajectory.Trajectory
	controller *control.FlatController
	log        *zap.Logger
}

func SolverConfig(c config.SolverConfig) flatness.Config {
	return flatness.Config{
		MinThrust:            c.MinThrust,
		MaxIterations:        c.MaxIterations,
		Tolerance:            c.Tolerance,
		ConsistencyTolerance: c.ConsistencyTolerance,
		SingularTolerance:    c.SingularTolerance,
	}
}

func New(cfg *config.Config, reg *Registry, log *zap.Logger) (*Experiment, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := cfg.Model
	vehicle, err := physics.NewQuadrotor(m.Mass, m.Inertia, m.Gravity)
	if err != nil {
		return nil, err
	}
	plant, err := physics.NewQuadrotor(m.Mass, m.Inertia, m.Gravity, physics.WithDrag(m.Drag))
	if err != nil {
		return nil, err
	}

	traj, err := trajectory.New(cfg.Trajectory.X, cfg.Trajectory.Z)
	if err != nil {
		return nil, err
	}
	traj = traj.WithDuration(cfg.Sample.Duration)

	model, err := reg.GetLearner(cfg.Learner)
	if err != nil {
		return nil, err
	}

	opts := []control.Option{control.WithLogger(log)}
	if cfg.Solver.Fallback {
		opts = append(opts, control.WithFallback())
	}
	ctrl, err := control.NewFlatController(vehicle, traj, model, SolverConfig(cfg.Solver), opts...)
	if err != nil {
		return nil, err
	}

	return &Experiment{
		cfg:        cfg,
		reg:        reg,
		vehicle:    vehicle,
		plant:      plant,
		traj:       traj,
		controller: ctrl,
		log:        log,
	}, nil
}

func (e *Experiment) Config() *config.Config              { return e.cfg }
func (e *Experiment) Controller() *control.FlatController { return e.controller }
func (e *Experiment) Trajectory() *trajectory.Trajectory  { return e.traj }
func (e *Experiment) Vehicle() *physics.Quadrotor         { return e.vehicle }
func (e *Experiment) Plant() *physics.Quadrotor           { return e.plant }

// Sample runs the controller over the configured time grid. On a fault the
// ticks computed so far are returned with the error.
func (e *Experiment) Sample() ([]control.Tick, error) {
	times := e.cfg.Times()
	ticks := make([]control.Tick, 0, len(times))
	for _, t := range times {
		tick, err := e.controller.Step(t)
		if err != nil {
			return ticks, err
		}
		ticks = append(ticks, tick)
	}
	return ticks, nil
}

// InitialState places the vehicle on the trajectory at t=0 with the
// attitude the flat map asks for.
func (e *Experiment) InitialState() (dynamo.State, error) {
	tick, err := e.controller.Step(0)
	if err != nil {
		return nil, err
	}
	d := tick.Desired
	return dynamo.State{d.X[0], d.Z[0], tick.Output.Angle, d.X[1], d.Z[1], tick.Output.AngleRate}, nil
}

// Replay integrates the plant (the vehicle including its drag) under the
// feed-forward commands.
func (e *Experiment) Replay(ctx context.Context) (*sim.Result, error) {
	integ, err := e.reg.GetIntegrator(e.cfg.Sample.Integrator)
	if err != nil {
		return nil, err
	}
	x0, err := e.InitialState()
	if err != nil {
		return nil, err
	}

	s := sim.New(e.plant, integ, e.controller)
	for _, m := range e.reg.DefaultMetrics(e.traj, e.plant) {
		s.AddMetric(m)
	}

	e.log.Debug("replay",
		zap.Float64("dt", e.cfg.Sample.Dt),
		zap.Float64("duration", e.cfg.Sample.Duration),
		zap.String("integrator", e.cfg.Sample.Integrator),
		zap.Float64("drag", e.plant.Drag()),
	)
	return s.Run(ctx, x0, sim.Config{Dt: e.cfg.Sample.Dt, Duration: e.cfg.Sample.Duration, ValidateState: true})
}

// Report summarizes a self-consistency check over the sample grid.
type Report struct {
	Strategy dynamo.Strategy
	Samples  int
	// MaxClosedForm is the largest command deviation from the closed-form
	// shortcut. It is NaN unless the strategy is nominal.
	MaxClosedForm float64
	// MaxRateError and MaxAccelError compare AngleRate and AngleAccel with
	// central differences of Angle and AngleRate.
	MaxRateError  float64
	MaxAccelError float64
}

func (r Report) Pass(tol float64) bool {
	if r.Strategy == dynamo.StrategyNominal && !(r.MaxClosedForm <= tol) {
		return false
	}
	return r.MaxRateError <= tol && r.MaxAccelError <= tol
}

var diffSettings = &fd.Settings{Formula: fd.Central, Step: 1e-4}

// Check cross-validates the flat map against finite differences of itself
// and, for the uncorrected model, against the closed-form command.
func (e *Experiment) Check() (Report, error) {
	ticks, err := e.Sample()
	if err != nil {
		return Report{}, err
	}

	rep := Report{Strategy: e.controller.Strategy(), Samples: len(ticks), MaxClosedForm: math.NaN()}
	if rep.Strategy == dynamo.StrategyNominal {
		rep.MaxClosedForm = 0
	}

	var stepErr error
	output := func(t float64) dynamo.FlatOutput {
		tick, err := e.controller.Step(t)
		if err != nil && stepErr == nil {
			stepErr = err
		}
		return tick.Output
	}
	angle := func(t float64) float64 { return output(t).Angle }
	rate := func(t float64) float64 { return output(t).AngleRate }

	for _, tick := range ticks {
		t := tick.Desired.T

		rep.MaxRateError = math.Max(rep.MaxRateError, math.Abs(fd.Derivative(angle, t, diffSettings)-tick.Output.AngleRate))
		rep.MaxAccelError = math.Max(rep.MaxAccelError, math.Abs(fd.Derivative(rate, t, diffSettings)-tick.Output.AngleAccel))

		if rep.Strategy != dynamo.StrategyNominal {
			continue
		}
		cf, err := control.ClosedForm(e.vehicle, tick.Desired)
		if err != nil {
			return rep, err
		}
		dev := math.Max(math.Abs(cf.Thrust-tick.Command.Thrust), math.Abs(cf.Torque-tick.Command.Torque))
		rep.MaxClosedForm = math.Max(rep.MaxClosedForm, dev)
	}

	if stepErr != nil {
		return rep, fmt.Errorf("finite-difference probe: %w", stepErr)
	}
	return rep, nil
}

// IsRecoverable reports faults that a different strategy or seed might
// clear, as opposed to infeasible trajectories.
func IsRecoverable(err error) bool {
	return errors.Is(err, dynamo.ErrRootNotConverged) || errors.Is(err, dynamo.ErrSingularJacobian)
}
