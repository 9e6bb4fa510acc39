package metrics

import (
	"math"

	"github.com/san-kum/helixwave/internal/dynamo"
)

// EnergyDrift tracks the largest relative departure of the model energy from
// its value at the first observed step. Velocity is the backward difference
// of consecutive observations, so steps must be observed without gaps.
type EnergyDrift struct {
	name          string
	sys           dynamo.Hamiltonian
	dt            float64
	initialEnergy float64
	maxDrift      float64
	samples       int
	last          dynamo.Field
	vel           dynamo.Field
}

func NewEnergyDrift(sys dynamo.Hamiltonian, dt float64) *EnergyDrift {
	return &EnergyDrift{
		name: "energy_drift",
		sys:  sys,
		dt:   dt,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(_ int, _ float64, psi dynamo.Field) {
	if e.samples == 0 {
		e.last = psi.Clone()
		e.vel = dynamo.NewField(psi.NX, psi.NY)
		e.initialEnergy = e.sys.Energy(psi, e.vel)
		e.samples++
		return
	}

	for k, u := range psi.Data {
		e.vel.Data[k] = (u - e.last.Data[k]) / e.dt
	}
	e.last.CopyFrom(psi)
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(e.sys.Energy(psi, e.vel)-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
	e.last = dynamo.Field{}
}
