package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/fluidsim/internal/fluid"
)

type Simulator struct {
	solver    *fluid.Solver
	emitter   Emitter
	metrics   []Metric
	observers []Observer

	step int
	t    float64
}

func New(solver *fluid.Solver, emitter Emitter) *Simulator {
	return &Simulator{
		solver:    solver,
		emitter:   emitter,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }
func (s *Simulator) Solver() *fluid.Solver  { return s.solver }
func (s *Simulator) Metrics() []Metric      { return s.metrics }

// SetSolver swaps in a solver of the same size. The clock, the step count
// and the metrics keep running.
func (s *Simulator) SetSolver(solver *fluid.Solver) error {
	if solver.Size() != s.solver.Size() {
		return fmt.Errorf("solver size %d, simulator runs %d", solver.Size(), s.solver.Size())
	}
	s.solver = solver
	return nil
}

// Time is the simulated time since the last Reset.
func (s *Simulator) Time() float64 { return s.t }

// Steps is the number of steps taken since the last Reset.
func (s *Simulator) Steps() int { return s.step }

// Reset clears the solver, the clock and every metric.
func (s *Simulator) Reset() {
	s.solver.Reset()
	s.step, s.t = 0, 0
	for _, m := range s.metrics {
		m.Reset()
	}
}

// Advance runs one emit + step cycle and notifies metrics and observers.
// An emitter error is returned after the step has still been taken.
func (s *Simulator) Advance() error {
	var emitErr error
	if s.emitter != nil {
		if err := s.emitter.Emit(s.solver, s.step); err != nil {
			emitErr = fmt.Errorf("step %d: %w", s.step, err)
		}
	}

	s.solver.Step()
	s.t += s.solver.Params().Dt
	step := s.step
	s.step++

	for _, m := range s.metrics {
		m.Observe(s.solver, s.t)
	}
	for _, obs := range s.observers {
		obs.OnStep(s.solver, step, s.t)
	}
	return emitErr
}

func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Size:    s.solver.Size(),
		Times:   make([]float64, 0, cfg.Steps),
		Series:  make(map[string][]float64, len(s.metrics)),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
		result.Series[m.Name()] = make([]float64, 0, cfg.Steps)
	}
	s.step, s.t = 0, 0

	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			s.finish(result)
			return result, ctx.Err()
		default:
		}

		if err := s.Advance(); err != nil {
			result.Errors = append(result.Errors, err)
		}
		result.StepsTaken++
		result.Times = append(result.Times, s.t)

		for _, m := range s.metrics {
			result.Series[m.Name()] = append(result.Series[m.Name()], m.Value())
		}

		if cfg.SnapshotEvery > 0 && s.step%cfg.SnapshotEvery == 0 {
			result.Snapshots = append(result.Snapshots, Snapshot{Step: s.step, Time: s.t, Density: s.solver.Snapshot()})
		}

		if cfg.ValidateState && !s.Finite() {
			err := SimError{Step: i, Time: s.t, Message: "invalid state (NaN/Inf)"}
			result.Errors = append(result.Errors, err)
			break
		}
	}

	s.finish(result)
	return result, nil
}

func (s *Simulator) finish(result *Result) {
	result.Final = s.solver.Snapshot()
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

// Finite reports whether density and velocity are free of NaN and Inf.
func (s *Simulator) Finite() bool {
	u, v := s.solver.Velocity()
	return fluid.IsFinite(s.solver.Density()) && fluid.IsFinite(u) && fluid.IsFinite(v)
}

func validateConfig(cfg Config) error {
	if cfg.Steps < 1 {
		return fmt.Errorf("%w: steps must be positive, got %d", ErrInvalidConfig, cfg.Steps)
	}
	if cfg.SnapshotEvery < 0 {
		return fmt.Errorf("%w: snapshot interval must be non-negative, got %d", ErrInvalidConfig, cfg.SnapshotEvery)
	}
	return nil
}

// RunWithCallback steps until ctx is done, callback returns false, or steps
// have been taken. steps <= 0 runs without a step limit. Rejected impulses
// are user input errors and do not stop the loop.
func (s *Simulator) RunWithCallback(ctx context.Context, steps int, callback func(Frame) bool) error {
	for i := 0; steps <= 0 || i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_ = s.Advance()

		if !callback(Frame{Step: s.step - 1, Time: s.t, Solver: s.solver}) {
			return nil
		}

		if !s.Finite() {
			return SimError{Step: s.step - 1, Time: s.t, Message: "invalid state (NaN/Inf)"}
		}
	}

	return nil
}
