// Package dynamo holds the value types shared by the flat-map pipeline.
//
// The pipeline turns a trajectory sample into an actuator command:
//
//   - [Desired]: position through snap for both planar axes at time t
//   - [FlatOutput]: thrust norm and attitude (with two time derivatives)
//   - [Command]: thrust and torque handed to the vehicle
//
// [State], [Control], [System] and [Integrator] describe the planar
// rigid body for open-loop replay of feed-forward commands.
//
// # Errors
//
// Every fault of the flat map is a distinct sentinel so callers can decide
// on retry or fallback with errors.Is:
//
//	out, err := tr.Compute(d)
//	if errors.Is(err, dynamo.ErrRootNotConverged) {
//	    // retry with the linearized strategy
//	}
//
// # Thread Safety
//
// All types here are plain values. Nothing is shared between calls.
package dynamo
