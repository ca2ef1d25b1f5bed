package flatness_test

import (
	"math"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/flatquad/internal/control"
	"github.com/san-kum/flatquad/internal/dynamo"
	"github.com/san-kum/flatquad/internal/flatness"
	"github.com/san-kum/flatquad/internal/learner"
	"github.com/san-kum/flatquad/internal/physics"
	"github.com/san-kum/flatquad/internal/trajectory"
	"gonum.org/v1/gonum/diff/fd"
)

const (
	g           = physics.DefaultGravity
	randomTrajs = 120
)

var central = &fd.Settings{Formula: fd.Central, Step: 1e-4}

// randomTrajectory draws a quintic on each axis: horizontal coefficients
// from U(-0.3, 0.3), vertical from U(-0.1, 0.1).
func randomTrajectory(rng *rand.Rand) *trajectory.Trajectory {
	x := make([]float64, 6)
	z := make([]float64, 6)
	for i := range x {
		x[i] = 0.6*rng.Float64() - 0.3
		z[i] = 0.2*rng.Float64() - 0.1
	}
	traj, err := trajectory.New(x, z)
	Expect(err).NotTo(HaveOccurred())
	return traj
}

func newTransform(m learner.Model) *flatness.Transform {
	tr, err := flatness.New(g, m, flatness.DefaultConfig())
	Expect(err).NotTo(HaveOccurred())
	return tr
}

// outputAt evaluates the flat map along traj. Faults fail the test.
func outputAt(tr *flatness.Transform, traj *trajectory.Trajectory) func(t float64) dynamo.FlatOutput {
	return func(t float64) dynamo.FlatOutput {
		out, err := tr.Compute(traj.Evaluate(t))
		Expect(err).NotTo(HaveOccurred())
		return out
	}
}

// expectDifferentiable checks that every reported rate is the time
// derivative of the corresponding reported quantity.
func expectDifferentiable(tr *flatness.Transform, traj *trajectory.Trajectory, t, tol float64) {
	at := outputAt(tr, traj)
	out := at(t)

	angle := func(t float64) float64 { return at(t).Angle }
	rate := func(t float64) float64 { return at(t).AngleRate }
	thrust := func(t float64) float64 { return at(t).ThrustNorm }
	thrustRate := func(t float64) float64 { return at(t).ThrustRate }

	Expect(fd.Derivative(angle, t, central)).To(BeNumerically("~", out.AngleRate, tol), "angle rate at t=%.3f", t)
	Expect(fd.Derivative(rate, t, central)).To(BeNumerically("~", out.AngleAccel, tol), "angle accel at t=%.3f", t)
	Expect(fd.Derivative(thrust, t, central)).To(BeNumerically("~", out.ThrustRate, tol), "thrust rate at t=%.3f", t)
	Expect(fd.Derivative(thrustRate, t, central)).To(BeNumerically("~", out.ThrustAccel, tol), "thrust accel at t=%.3f", t)
}

var _ = Describe("Transform", func() {
	var rng *rand.Rand

	BeforeEach(func() {
		rng = rand.New(rand.NewPCG(7, 11))
	})

	Describe("hover", func() {
		DescribeTable("every strategy returns the identity at rest",
			func(m learner.Model) {
				out, err := newTransform(m).Compute(dynamo.Desired{})
				Expect(err).NotTo(HaveOccurred())
				Expect(out.ThrustNorm).To(BeNumerically("~", g, 1e-9))
				Expect(out.Angle).To(BeNumerically("~", 0, 1e-12))
				Expect(out.AngleRate).To(BeNumerically("~", 0, 1e-12))
				Expect(out.AngleAccel).To(BeNumerically("~", 0, 1e-12))
			},
			Entry("nominal", nil),
			Entry("linearized", learner.LinearDrag{Coeff: 0.4}),
			Entry("nonlinear", learner.Zero{}),
		)
	})

	Describe("differentiation consistency", func() {
		DescribeTable("rates match finite differences along random trajectories",
			func(m learner.Model, tol float64) {
				tr := newTransform(m)
				for i := 0; i < 20; i++ {
					traj := randomTrajectory(rng)
					expectDifferentiable(tr, traj, 0.1+0.8*rng.Float64(), tol)
				}
			},
			Entry("nominal", nil, 1e-5),
			Entry("linearized with linear drag", learner.LinearDrag{Coeff: 0.3}, 1e-5),
			Entry("linearized with quadratic drag", learner.QuadraticDrag{Coeff: 0.2}, 1e-5),
			Entry("nonlinear with thrust gain", learner.ThrustGain{Gain: 0.15}, 1e-4),
		)

		It("holds for an affine learner with attitude and thrust terms", func() {
			lin, err := learner.NewLinear([][]float64{
				{0, 0, 0.3, -0.2, 0, 0, 0.05, 0},
				{0, 0, -0.1, 0, -0.2, 0, 0.02, 0},
			}, [2]float64{0.05, -0.1})
			Expect(err).NotTo(HaveOccurred())

			tr := newTransform(lin)
			Expect(tr.Strategy()).To(Equal(dynamo.StrategyNonlinear))
			for i := 0; i < 10; i++ {
				expectDifferentiable(tr, randomTrajectory(rng), 0.1+0.8*rng.Float64(), 1e-4)
			}
		})
	})

	Describe("closed form", func() {
		It("agrees with the synthesized nominal command on random trajectories", func() {
			tr := newTransform(nil)
			v, err := physics.NewQuadrotor(0.9, 0.015, g)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < randomTrajs; i++ {
				d := randomTrajectory(rng).Evaluate(rng.Float64())

				out, err := tr.Compute(d)
				Expect(err).NotTo(HaveOccurred())
				want, err := control.ClosedForm(v, d)
				Expect(err).NotTo(HaveOccurred())

				got := control.Synthesize(v, out)
				Expect(got.Thrust).To(BeNumerically("~", want.Thrust, 1e-9))
				Expect(got.Torque).To(BeNumerically("~", want.Torque, 1e-9))
			}
		})
	})

	Describe("zero correction", func() {
		It("makes the nonlinear strategy reproduce the nominal one", func() {
			nominal := newTransform(nil)
			zero := newTransform(learner.Zero{})
			Expect(zero.Strategy()).To(Equal(dynamo.StrategyNonlinear))

			for i := 0; i < 50; i++ {
				d := randomTrajectory(rng).Evaluate(rng.Float64())

				want, err := nominal.Compute(d)
				Expect(err).NotTo(HaveOccurred())
				got, err := zero.Compute(d)
				Expect(err).NotTo(HaveOccurred())

				Expect(got.ThrustNorm).To(BeNumerically("~", want.ThrustNorm, 1e-9))
				Expect(got.ThrustRate).To(BeNumerically("~", want.ThrustRate, 1e-8))
				Expect(got.ThrustAccel).To(BeNumerically("~", want.ThrustAccel, 1e-8))
				Expect(got.Angle).To(BeNumerically("~", want.Angle, 1e-9))
				Expect(got.AngleRate).To(BeNumerically("~", want.AngleRate, 1e-8))
				Expect(got.AngleAccel).To(BeNumerically("~", want.AngleAccel, 1e-8))
			}
		})
	})

	Describe("faults", func() {
		It("detects a rank-deficient sensitivity at zero thrust", func() {
			d := dynamo.Desired{Z: [dynamo.NumDerivatives]float64{0, 0, -g}}
			_, err := newTransform(learner.Zero{}).Compute(d)
			Expect(err).To(MatchError(dynamo.ErrSingularJacobian))

			var stepErr *dynamo.StepError
			Expect(err).To(BeAssignableToTypeOf(stepErr))
		})

		It("reports degenerate thrust on the closed-form path", func() {
			d := dynamo.Desired{Z: [dynamo.NumDerivatives]float64{0, 0, -g}}
			_, err := newTransform(nil).Compute(d)
			Expect(err).To(MatchError(dynamo.ErrDegenerateThrust))
		})
	})

	Describe("inverted attitude", func() {
		DescribeTable("keeps the angle in (-pi, pi] near the branch cut",
			func(ax float64) {
				d := dynamo.Desired{
					X: [dynamo.NumDerivatives]float64{0, 0, ax},
					Z: [dynamo.NumDerivatives]float64{0, 0, -2 * g},
				}
				out, err := newTransform(learner.Zero{}).Compute(d)
				Expect(err).NotTo(HaveOccurred())

				Expect(out.Angle).To(BeNumerically(">", -math.Pi))
				Expect(out.Angle).To(BeNumerically("<=", math.Pi))
				Expect(math.Abs(out.Angle)).To(BeNumerically(">", math.Pi-0.01))

				// u*z(theta) must reproduce a + g.
				Expect(-out.ThrustNorm * math.Sin(out.Angle)).To(BeNumerically("~", ax, 1e-9))
				Expect(out.ThrustNorm * math.Cos(out.Angle)).To(BeNumerically("~", -g, 1e-9))
			},
			Entry("just left of the cut", 0.01),
			Entry("just right of the cut", -0.01),
			Entry("on the cut", 0.0),
		)
	})
})
