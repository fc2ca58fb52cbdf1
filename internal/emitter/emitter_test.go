package emitter

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/san-kum/fluidsim/internal/fluid"
)

func newSolver(t *testing.T, n int) *fluid.Solver {
	t.Helper()
	s, err := fluid.New(0, 0, 0.1, fluid.WithSize(n))
	if err != nil {
		t.Fatalf("solver: %v", err)
	}
	return s
}

func TestNone(t *testing.T) {
	s := newSolver(t, 8)
	if err := NewNone().Emit(s, 0); err != nil {
		t.Fatalf("emit failed: %v", err)
	}
	if fluid.InteriorSum(s.Density(), 8) != 0 {
		t.Error("none emitter injected density")
	}
}

func TestPointOnce(t *testing.T) {
	s := newSolver(t, 64)
	p := NewPoint(2, 2, 1.0)

	for step := 0; step < 3; step++ {
		if err := p.Emit(s, step); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
	}

	if d, _ := s.DensityAt(2, 2); d != 1.0 {
		t.Errorf("expected exactly one unit at (2, 2), got %f", d)
	}
}

func TestPointPeriodicWithRadius(t *testing.T) {
	s := newSolver(t, 16)
	p := &Point{X: 8, Y: 8, Amount: 1, VX: 0.5, Radius: 1, Every: 2}

	for step := 0; step < 4; step++ {
		if err := p.Emit(s, step); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
	}

	if sum := fluid.InteriorSum(s.Density(), 16); sum != 18 {
		t.Errorf("expected 2 firings of 9 cells, got %f", sum)
	}
	if vx, _, _ := s.VelocityAt(9, 9); vx != 1.0 {
		t.Errorf("expected vx 1.0, got %f", vx)
	}
}

func TestPointClipsRadiusAtWall(t *testing.T) {
	s := newSolver(t, 8)
	p := &Point{X: 0, Y: 0, Amount: 1, Radius: 2}

	if err := p.Emit(s, 0); err != nil {
		t.Fatalf("emit failed: %v", err)
	}
	if d, _ := s.DensityAt(2, 2); d != 1 {
		t.Errorf("expected (2, 2) filled, got %f", d)
	}
}

func TestPointCentreOutOfRange(t *testing.T) {
	s := newSolver(t, 8)
	p := NewPoint(8, 3, 1)
	p.Radius = 1
	if err := p.Emit(s, 0); !errors.Is(err, fluid.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if maxAbs(s.Density()) != 0 {
		t.Error("on-grid neighbours were written before the centre was rejected")
	}
}

func TestJetInjectsBlockAndForce(t *testing.T) {
	s := newSolver(t, 16)
	jet := NewJet(8, 8, 7)

	if err := jet.Emit(s, 0); err != nil {
		t.Fatalf("emit failed: %v", err)
	}

	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			d, _ := s.DensityAt(8+dx, 8+dy)
			if d < 50 || d >= 150 {
				t.Errorf("cell (%d, %d): density %f outside [50, 150)", 8+dx, 8+dy, d)
			}
		}
	}
	if d, _ := s.DensityAt(10, 8); d != 0 {
		t.Errorf("density leaked outside the block: %f", d)
	}

	vx, vy, _ := s.VelocityAt(8, 8)
	mag := math.Hypot(vx, vy)
	if mag <= 0 || mag > 0.4+1e-12 {
		t.Errorf("expected two pushes of 0.2, got magnitude %f", mag)
	}
}

func TestJetAtEdgeLeavesGridUntouched(t *testing.T) {
	s := newSolver(t, 16)
	for _, pos := range [][2]int{{0, 8}, {8, 15}, {15, 15}} {
		err := NewJet(pos[0], pos[1], 3).Emit(s, 0)
		if !errors.Is(err, fluid.ErrOutOfRange) {
			t.Errorf("jet at %v: expected ErrOutOfRange, got %v", pos, err)
		}
	}
	u, v := s.Velocity()
	if maxAbs(s.Density()) != 0 || maxAbs(u) != 0 || maxAbs(v) != 0 {
		t.Error("a rejected jet left a partial injection behind")
	}
}

func maxAbs(f fluid.Field) float64 {
	m := 0.0
	for _, x := range f {
		m = math.Max(m, math.Abs(x))
	}
	return m
}

func TestJetDeterministicPerSeed(t *testing.T) {
	a, b := newSolver(t, 16), newSolver(t, 16)
	ja, jb := NewJet(8, 8, 99), NewJet(8, 8, 99)

	for step := 0; step < 10; step++ {
		_ = ja.Emit(a, step)
		_ = jb.Emit(b, step)
	}

	for q := range a.Density() {
		if a.Density()[q] != b.Density()[q] {
			t.Fatalf("cell %d differs between equal seeds", q)
		}
	}
}

func TestJetHeadingAdvances(t *testing.T) {
	jet := NewJet(8, 8, 1)
	s := newSolver(t, 16)
	_ = jet.Emit(s, 0)
	if jet.t != 2*NoiseStep {
		t.Errorf("expected noise time %f, got %f", 2*NoiseStep, jet.t)
	}
}

func TestManualConcurrentPush(t *testing.T) {
	m := NewManual()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < 10; k++ {
				m.Push(Impulse{I: 4, J: 4, Density: 1})
			}
		}()
	}
	wg.Wait()

	if m.Pending() != 80 {
		t.Fatalf("expected 80 pending, got %d", m.Pending())
	}

	s := newSolver(t, 8)
	if err := m.Emit(s, 0); err != nil {
		t.Fatalf("emit failed: %v", err)
	}
	if d, _ := s.DensityAt(4, 4); d != 80 {
		t.Errorf("expected 80, got %f", d)
	}
	if m.Pending() != 0 {
		t.Error("queue not drained")
	}
}

func TestManualDropsOutOfRange(t *testing.T) {
	m := NewManual()
	m.Push(Impulse{I: 100, J: 1, Density: 1})
	m.Push(Impulse{I: 3, J: 3, Density: 2, VX: 1, VY: -1})

	s := newSolver(t, 8)
	err := m.Emit(s, 0)
	if !errors.Is(err, fluid.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if d, _ := s.DensityAt(3, 3); d != 2 {
		t.Errorf("valid impulse not applied: %f", d)
	}
	if vx, vy, _ := s.VelocityAt(3, 3); vx != 1 || vy != -1 {
		t.Errorf("expected velocity (1, -1), got (%f, %f)", vx, vy)
	}
}

func TestChainStopsAtError(t *testing.T) {
	s := newSolver(t, 8)
	after := NewPoint(3, 3, 1)
	c := Chain{NewPoint(50, 50, 1), after}

	if err := c.Emit(s, 0); err == nil {
		t.Fatal("expected error from first emitter")
	}
	if d, _ := s.DensityAt(3, 3); d != 0 {
		t.Error("chain continued after error")
	}
}
