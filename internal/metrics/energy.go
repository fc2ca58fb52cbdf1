package metrics

import (
	"math"

	"github.com/san-kum/fluidsim/internal/fluid"
)

// KineticEnergy is ½Σ(u²+v²) over interior cells at the latest observation.
type KineticEnergy struct {
	name  string
	value float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(s *fluid.Solver, t float64) {
	u, v := s.Velocity()
	n := s.Size()
	k.value = 0.5 * (interiorDot(u, u, n) + interiorDot(v, v, n))
}

func (k *KineticEnergy) Value() float64 { return k.value }
func (k *KineticEnergy) Reset()         { k.value = 0 }

// MassDrift is the largest relative departure of interior mass from the
// first non-zero observation. Emitters that keep injecting make it grow;
// without sources it measures how well advection conserves mass.
type MassDrift struct {
	name     string
	initial  float64
	maxDrift float64
}

func NewMassDrift() *MassDrift {
	return &MassDrift{name: "mass_drift"}
}

func (m *MassDrift) Name() string { return m.name }

func (m *MassDrift) Observe(s *fluid.Solver, t float64) {
	mass := interiorSum(s.Density(), s.Size())
	if m.initial == 0 {
		m.initial = mass
		return
	}
	drift := math.Abs(mass-m.initial) / math.Abs(m.initial)
	m.maxDrift = math.Max(m.maxDrift, drift)
}

func (m *MassDrift) Value() float64 { return m.maxDrift }

func (m *MassDrift) Reset() {
	m.initial = 0
	m.maxDrift = 0
}
