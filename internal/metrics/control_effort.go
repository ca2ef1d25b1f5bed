package metrics

import (
	"math"

	"github.com/san-kum/flatquad/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// ControlEffort is the mean absolute actuation per channel, summed over
// channels.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(x dynamo.State, u dynamo.Control, t float64) {
	c.sum += floats.Norm(u, 1)
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}

// PeakTorque is the largest torque magnitude commanded during a run.
type PeakTorque struct {
	peak float64
}

func NewPeakTorque() *PeakTorque { return &PeakTorque{} }

func (p *PeakTorque) Name() string { return "peak_torque" }

func (p *PeakTorque) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(u) < 2 {
		return
	}
	p.peak = math.Max(p.peak, math.Abs(u[1]))
}

func (p *PeakTorque) Value() float64 { return p.peak }
func (p *PeakTorque) Reset()        { p.peak = 0 }
