// Package control turns flat outputs into actuator commands.
//
// [Synthesize] scales a [dynamo.FlatOutput] by the vehicle's mass and
// inertia. [ClosedForm] computes the same command for the uncorrected model
// straight from acceleration, jerk and snap, and serves as a cross-check.
//
// [FlatController] is the per-tick driver used by the CLI and by open-loop
// replay:
//
//	ctrl, err := control.NewFlatController(vehicle, traj, learner.LinearDrag{Coeff: 0.3}, flatness.DefaultConfig())
//	tick, err := ctrl.Step(t)
//	// tick.Command.Thrust, tick.Command.Torque
package control
