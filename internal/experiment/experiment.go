package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/fluidsim/internal/config"
	"github.com/san-kum/fluidsim/internal/emitter"
	"github.com/san-kum/fluidsim/internal/fluid"
	"github.com/san-kum/fluidsim/internal/sim"
)

type Experiment struct {
	cfg       *config.Config
	solver    *fluid.Solver
	simulator *sim.Simulator
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// NewSolver builds a solver from the numeric part of cfg.
func NewSolver(cfg *config.Config) (*fluid.Solver, error) {
	return fluid.New(cfg.Diffusion, cfg.Viscosity, cfg.Dt,
		fluid.WithSize(cfg.Size),
		fluid.WithIterations(cfg.Iterations),
		fluid.WithWorkers(cfg.Workers),
		fluid.WithDensityClamp(cfg.ClampDensity),
	)
}

// Setup validates the configuration and wires solver, emitter and metrics.
// extra emitters run after the configured one, in order.
func (e *Experiment) Setup(reg *Registry, metrics []sim.Metric, extra ...emitter.Emitter) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	solver, err := NewSolver(e.cfg)
	if err != nil {
		return err
	}
	em, err := reg.GetEmitter(e.cfg)
	if err != nil {
		return err
	}
	if len(extra) > 0 {
		em = append(emitter.Chain{em}, extra...)
	}

	e.solver = solver
	e.simulator = sim.New(solver, em)
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, sim.ErrNotSetup
	}

	return e.simulator.Run(ctx, e.SimConfig())
}

func (e *Experiment) SimConfig() sim.Config {
	return sim.Config{
		Steps:         e.cfg.Steps,
		SnapshotEvery: e.cfg.SnapshotEvery,
		ValidateState: true,
	}
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

// Solver returns the solver built by Setup, or nil before Setup.
func (e *Experiment) Solver() *fluid.Solver {
	if e.simulator != nil {
		return e.simulator.Solver()
	}
	return e.solver
}

// Describe summarizes the experiment for log lines.
func (e *Experiment) Describe() string {
	c := e.cfg
	return fmt.Sprintf("N=%d dt=%g diff=%g visc=%g iter=%d emitter=%s",
		c.Size, c.Dt, c.Diffusion, c.Viscosity, c.Iterations, c.Emitter)
}
