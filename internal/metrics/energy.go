package metrics

import (
	"github.com/san-kum/flatquad/internal/dynamo"
)

// Energetic is a system that can report its total mechanical energy.
type Energetic interface {
	Energy(x dynamo.State) float64
}

// EnergyChange tracks the mechanical energy injected by the actuators:
// energy at the latest observed state minus energy at the first.
type EnergyChange struct {
	sys           Energetic
	initialEnergy float64
	currentEnergy float64
	samples       int
}

func NewEnergyChange(sys Energetic) *EnergyChange {
	return &EnergyChange{sys: sys}
}

func (e *EnergyChange) Name() string { return "energy_change" }

func (e *EnergyChange) Observe(x dynamo.State, u dynamo.Control, t float64) {
	energy := e.sys.Energy(x)
	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.currentEnergy = energy
	e.samples++
}

func (e *EnergyChange) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.currentEnergy - e.initialEnergy
}

func (e *EnergyChange) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.samples = 0
}
