// Package physics provides the planar quadrotor used to replay commands.
//
// [Quadrotor] implements [dynamo.System] with state (x, z, theta, vx, vz,
// omega) and control (thrust, torque):
//
//	m*ax = -T*sin(theta) - k*vx
//	m*az =  T*cos(theta) - m*g - k*vz
//	J*alpha = tau
//
// The drag coefficient k defaults to zero. A vehicle built WithDrag plays
// the role of the true plant whose force error a learner approximates.
package physics
