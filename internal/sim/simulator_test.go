package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/fluidsim/internal/fluid"
)

type testEmitter struct {
	calls int
	err   error
}

func (e *testEmitter) Emit(s *fluid.Solver, step int) error {
	e.calls++
	if e.err != nil {
		return e.err
	}
	if step == 0 {
		return s.AddDensity(5, 5, 10)
	}
	return nil
}

type testMetric struct {
	count int
	last  float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(s *fluid.Solver, time float64) {
	t.count++
	t.last = fluid.InteriorSum(s.Density(), s.Size())
}
func (t *testMetric) Value() float64 { return t.last }
func (t *testMetric) Reset() {
	t.count = 0
	t.last = 0
}

func newSolver(t *testing.T) *fluid.Solver {
	t.Helper()
	s, err := fluid.New(0.0001, 0.0001, 0.1, fluid.WithSize(12))
	if err != nil {
		t.Fatalf("solver: %v", err)
	}
	return s
}

func TestSimulatorRun(t *testing.T) {
	em := &testEmitter{}
	sim := New(newSolver(t), em)

	result, err := sim.Run(context.Background(), Config{Steps: 10, SnapshotEvery: 5})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.StepsTaken != 10 || len(result.Times) != 10 {
		t.Errorf("expected 10 steps, got %d (%d times)", result.StepsTaken, len(result.Times))
	}
	if em.calls != 10 {
		t.Errorf("expected 10 emitter calls, got %d", em.calls)
	}
	if math.Abs(result.Times[9]-1.0) > 1e-9 {
		t.Errorf("expected final time 1.0, got %f", result.Times[9])
	}
	if len(result.Snapshots) != 2 || result.Snapshots[0].Step != 5 || result.Snapshots[1].Step != 10 {
		t.Errorf("unexpected snapshots: %d", len(result.Snapshots))
	}
	if len(result.Final) != 144 || result.Size != 12 {
		t.Errorf("expected a 12x12 final field, got %d cells", len(result.Final))
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := New(newSolver(t), nil)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero steps", Config{Steps: 0}},
		{"negative steps", Config{Steps: -3}},
		{"negative snapshot interval", Config{Steps: 5, SnapshotEvery: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), tt.cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSimulatorMetrics(t *testing.T) {
	sim := New(newSolver(t), &testEmitter{})
	metric := &testMetric{}
	sim.AddMetric(metric)

	result, err := sim.Run(context.Background(), Config{Steps: 20})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if metric.count != 20 {
		t.Errorf("expected 20 observations, got %d", metric.count)
	}
	if len(result.Series["test"]) != 20 {
		t.Errorf("expected 20 samples, got %d", len(result.Series["test"]))
	}
	if result.Metrics["test"] <= 0 || result.Metrics["test"] > 10.1 {
		t.Errorf("expected mass near 10, got %f", result.Metrics["test"])
	}
}

func TestSimulatorObserver(t *testing.T) {
	sim := New(newSolver(t), nil)
	var steps []int
	sim.AddObserver(ObserverFunc(func(s *fluid.Solver, step int, time float64) {
		steps = append(steps, step)
	}))

	if _, err := sim.Run(context.Background(), Config{Steps: 3}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(steps) != 3 || steps[2] != 2 {
		t.Errorf("unexpected observed steps %v", steps)
	}
}

func TestSimulatorEmitterErrorsRecorded(t *testing.T) {
	sim := New(newSolver(t), &testEmitter{err: fluid.ErrOutOfRange})

	result, err := sim.Run(context.Background(), Config{Steps: 4})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.Errors) != 4 || !errors.Is(result.Errors[0], fluid.ErrOutOfRange) {
		t.Errorf("expected 4 wrapped range errors, got %v", result.Errors)
	}
	if result.StepsTaken != 4 {
		t.Errorf("rejected impulses should not stop the run")
	}
}

func TestSimulatorValidateState(t *testing.T) {
	solver := newSolver(t)
	_ = solver.AddDensity(5, 5, math.Inf(1))
	sim := New(solver, nil)

	result, err := sim.Run(context.Background(), Config{Steps: 10, ValidateState: true})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.StepsTaken != 1 {
		t.Errorf("expected abort after 1 step, got %d", result.StepsTaken)
	}

	var se SimError
	if len(result.Errors) != 1 || !errors.As(result.Errors[0], &se) {
		t.Fatalf("expected SimError, got %v", result.Errors)
	}
	if !errors.Is(se, fluid.ErrUnstable) {
		t.Error("SimError should unwrap to ErrUnstable")
	}
}

func TestSimulatorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sim := New(newSolver(t), nil)
	result, err := sim.Run(ctx, Config{Steps: 100})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if result == nil || result.StepsTaken != 0 || result.Final == nil {
		t.Error("expected an empty partial result")
	}
}

func TestRunWithCallback(t *testing.T) {
	sim := New(newSolver(t), &testEmitter{})

	frames := 0
	err := sim.RunWithCallback(context.Background(), 0, func(f Frame) bool {
		frames++
		return f.Step < 4
	})
	if err != nil {
		t.Fatalf("callback run failed: %v", err)
	}
	if frames != 5 {
		t.Errorf("expected 5 frames, got %d", frames)
	}

	frames = 0
	if err := sim.RunWithCallback(context.Background(), 3, func(Frame) bool { frames++; return true }); err != nil {
		t.Fatal(err)
	}
	if frames != 3 {
		t.Errorf("expected step limit of 3, got %d", frames)
	}
}

func TestRunBatch(t *testing.T) {
	jobs := []Job{
		{Name: "a", Cfg: Config{Steps: 3}, Build: func() (*Simulator, error) { return New(newSolver(t), nil), nil }},
		{Name: "b", Cfg: Config{Steps: 0}, Build: func() (*Simulator, error) { return New(newSolver(t), nil), nil }},
		{Name: "c", Build: func() (*Simulator, error) { return nil, fluid.ErrParameterBounds }},
		{Name: "d", Cfg: Config{Steps: 5}, Build: func() (*Simulator, error) { return New(newSolver(t), nil), nil }},
	}

	results := RunBatch(context.Background(), jobs, 2)

	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if results[0].Name != "a" || results[0].Err != nil || results[0].Result.StepsTaken != 3 {
		t.Errorf("job a: %+v", results[0])
	}
	if !errors.Is(results[1].Err, ErrInvalidConfig) {
		t.Errorf("job b: expected ErrInvalidConfig, got %v", results[1].Err)
	}
	if !errors.Is(results[2].Err, fluid.ErrParameterBounds) {
		t.Errorf("job c: expected build error, got %v", results[2].Err)
	}
	if results[3].Result.StepsTaken != 5 {
		t.Errorf("job d: expected 5 steps")
	}
}

func TestFieldPool(t *testing.T) {
	p := NewFieldPool(4)
	f := p.GetAndCopy(fluid.Field{1, 2, 3, 4})
	if f[3] != 4 {
		t.Fatalf("copy failed: %v", f)
	}
	p.Put(f)

	g := p.Get()
	for _, v := range g {
		if v != 0 {
			t.Fatalf("pooled field not cleared: %v", g)
		}
	}
	p.Put(fluid.Field{1}) // wrong size is discarded
}

func TestAdvanceAndReset(t *testing.T) {
	sim := New(newSolver(t), &testEmitter{})
	metric := &testMetric{}
	sim.AddMetric(metric)

	for k := 0; k < 3; k++ {
		if err := sim.Advance(); err != nil {
			t.Fatalf("advance failed: %v", err)
		}
	}
	if sim.Steps() != 3 || math.Abs(sim.Time()-0.3) > 1e-9 {
		t.Errorf("expected 3 steps at t=0.3, got %d at %f", sim.Steps(), sim.Time())
	}
	if metric.count != 3 {
		t.Errorf("expected 3 observations, got %d", metric.count)
	}

	sim.Reset()
	if sim.Steps() != 0 || sim.Time() != 0 || metric.count != 0 {
		t.Error("reset did not clear clock and metrics")
	}
	if fluid.InteriorSum(sim.Solver().Density(), 12) != 0 {
		t.Error("reset did not clear the solver")
	}
}

func TestSetSolver(t *testing.T) {
	sim := New(newSolver(t), &testEmitter{})
	if err := sim.Advance(); err != nil {
		t.Fatal(err)
	}

	next, err := sim.Solver().Rebuild(0, 0, 0.2)
	if err != nil {
		t.Fatal(err)
	}
	if err := sim.SetSolver(next); err != nil {
		t.Fatalf("set solver: %v", err)
	}
	if sim.Solver() != next || sim.Steps() != 1 {
		t.Error("swap lost the solver or the step count")
	}
	if err := sim.Advance(); err != nil {
		t.Fatal(err)
	}
	if math.Abs(sim.Time()-0.3) > 1e-9 {
		t.Errorf("expected t=0.3 after a 0.1 and a 0.2 step, got %f", sim.Time())
	}

	small, _ := fluid.New(0, 0, 0.1, fluid.WithSize(8))
	if err := sim.SetSolver(small); err == nil {
		t.Error("expected a size mismatch error")
	}
}
