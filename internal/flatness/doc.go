// Package flatness inverts the planar quadrotor's flat map: from desired
// acceleration, jerk and snap it recovers the thrust norm, attitude angle,
// angular rate and angular acceleration that produce them.
//
// Three strategies share one entry point, [Transform.Compute]:
//
//   - nominal: closed form on the rigid-body model
//   - linearized: a learned correction evaluated along the nominal
//     trajectory is subtracted before the closed form (attitude
//     dependence ignored)
//   - nonlinear: the force balance with an attitude- and thrust-dependent
//     correction is solved by a bounded damped Newton iteration, then
//     angle rate and acceleration follow from implicit differentiation of
//     the balance at the root
//
// The strategy is fixed when the Transform is built, from the capabilities
// of the supplied [learner.Model]. A Transform holds no mutable state and
// may be shared between goroutines.
package flatness
