package emitter

import (
	"sync"

	"github.com/san-kum/fluidsim/internal/fluid"
)

// Impulse is one user-generated splat.
type Impulse struct {
	I, J    int
	Density float64
	VX, VY  float64
}

// Manual queues impulses from input goroutines (terminal mouse, websocket
// clients) and applies them on the simulation goroutine.
type Manual struct {
	mu      sync.Mutex
	pending []Impulse
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Push(imp Impulse) {
	m.mu.Lock()
	m.pending = append(m.pending, imp)
	m.mu.Unlock()
}

// Pending reports how many impulses are waiting.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Emit drains the queue. Impulses outside the grid are dropped; the first
// such error is returned after the rest have been applied.
func (m *Manual) Emit(s *fluid.Solver, step int) error {
	m.mu.Lock()
	batch := m.pending
	m.pending = nil
	m.mu.Unlock()

	var firstErr error
	for _, imp := range batch {
		err := s.AddDensity(imp.I, imp.J, imp.Density)
		if err == nil && (imp.VX != 0 || imp.VY != 0) {
			err = s.AddVelocity(imp.I, imp.J, imp.VX, imp.VY)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
