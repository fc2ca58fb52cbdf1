package automation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/fluidsim/internal/config"
	"github.com/san-kum/fluidsim/internal/experiment"
	"github.com/san-kum/fluidsim/internal/optim"
	"github.com/san-kum/fluidsim/internal/sim"
	"github.com/san-kum/fluidsim/internal/storage"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Base        string         `yaml:"base"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep overrides the scenario base for one run. Zero values keep
// the base setting.
type ScenarioStep struct {
	Name    string             `yaml:"name"`
	Preset  string             `yaml:"preset"`
	Emitter string             `yaml:"emitter"`
	Size    int                `yaml:"size"`
	Steps   int                `yaml:"steps"`
	Seed    int64              `yaml:"seed"`
	Params  map[string]float64 `yaml:"params"`
	SaveAs  string             `yaml:"save_as"`
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Name   string
	Config *config.Config
	Result *sim.Result
	RunID  string
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(scenario.Steps) == 0 {
		return nil, errors.New("scenario has no steps")
	}
	return &scenario, nil
}

func preset(name string) (*config.Config, error) {
	if name == "" {
		return config.DefaultConfig(), nil
	}
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s", name)
	}
	return cfg, nil
}

// Config resolves a step against the scenario base.
func (sc *Scenario) Config(step ScenarioStep) (*config.Config, error) {
	name := sc.Base
	if step.Preset != "" {
		name = step.Preset
	}
	cfg, err := preset(name)
	if err != nil {
		return nil, err
	}
	if step.Emitter != "" {
		cfg.Emitter = step.Emitter
	}
	if step.Size > 0 {
		cfg.Size = step.Size
	}
	if step.Steps > 0 {
		cfg.Steps = step.Steps
	}
	if step.Seed != 0 {
		cfg.Seed = step.Seed
	}
	for k, v := range step.Params {
		if err := optim.Apply(cfg, k, v); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

// RunScenario executes the steps in order. Steps with SaveAs are stored
// when store is non-nil. Progress lines go to out.
func RunScenario(ctx context.Context, sc *Scenario, reg *experiment.Registry, store *storage.Store, out io.Writer) ([]StepResult, error) {
	results := make([]StepResult, 0, len(sc.Steps))

	for i, step := range sc.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step-%d", i+1)
		}
		cfg, err := sc.Config(step)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp := experiment.New(cfg)
		fmt.Fprintf(out, "Running step %d/%d: %s (%s)\n", i+1, len(sc.Steps), name, exp.Describe())
		if err := exp.Setup(reg, reg.DefaultMetrics()); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Name: name, Config: cfg, Result: result}
		if step.SaveAs != "" && store != nil {
			sr.RunID, err = store.Save(RunInfo(step.SaveAs, cfg), result)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}

// RunInfo describes cfg for storage.
func RunInfo(name string, cfg *config.Config) storage.RunInfo {
	return storage.RunInfo{
		Name:       name,
		Emitter:    cfg.Emitter,
		Seed:       cfg.Seed,
		Size:       cfg.Size,
		Dt:         cfg.Dt,
		Diffusion:  cfg.Diffusion,
		Viscosity:  cfg.Viscosity,
		Iterations: cfg.Iterations,
		Steps:      cfg.Steps,
	}
}

// ParameterSweep runs one config per value of a single parameter.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

type SweepResult struct {
	ParamValue float64
	Metrics    map[string]float64
	Err        error
}

// RunSweep executes the sweep sequentially. A failed run is recorded in
// its SweepResult and the sweep continues.
func RunSweep(ctx context.Context, sweep *ParameterSweep, reg *experiment.Registry, out io.Writer) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}
	if err := optim.Apply(config.DefaultConfig(), sweep.ParamName, 0); err != nil {
		return nil, err
	}

	values := optim.Linspace(sweep.ParamMin, sweep.ParamMax, sweep.NumSteps)
	results := make([]SweepResult, 0, len(values))
	for i, val := range values {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		cfg := *sweep.Base
		optim.Apply(&cfg, sweep.ParamName, val)

		sr := SweepResult{ParamValue: val}
		exp := experiment.New(&cfg)
		if sr.Err = exp.Setup(reg, reg.DefaultMetrics()); sr.Err == nil {
			var res *sim.Result
			if res, sr.Err = exp.Run(ctx); sr.Err == nil {
				sr.Metrics = res.Metrics
			}
		}
		results = append(results, sr)
		fmt.Fprintf(out, "Sweep %d/%d: %s=%.4g\n", i+1, len(values), sweep.ParamName, val)
	}
	return results, nil
}

// MonteCarloConfig perturbs diffusion and viscosity by up to Perturbation
// (relative) and reseeds the emitter for every trial.
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64
	NumTrials    int
	Seed         int64
}

type MonteCarloResult struct {
	TrialID   int
	Diffusion float64
	Viscosity float64
	Seed      int64
	Mass      float64
	Stable    bool
}

func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig, reg *experiment.Registry, out io.Writer) ([]MonteCarloResult, error) {
	results := make([]MonteCarloResult, 0, mc.NumTrials)

	rng := rand.New(rand.NewSource(mc.Seed))
	if mc.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	perturb := func(x float64) float64 {
		return x * (1 + (rng.Float64()-0.5)*2*mc.Perturbation)
	}

	for trial := 0; trial < mc.NumTrials; trial++ {
		cfg := *mc.Base
		cfg.Diffusion = max(0, perturb(cfg.Diffusion))
		cfg.Viscosity = max(0, perturb(cfg.Viscosity))
		cfg.Seed = rng.Int63()

		exp := experiment.New(&cfg)
		if err := exp.Setup(reg, reg.DefaultMetrics()); err != nil {
			return results, err
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return results, err
		}

		var simErr sim.SimError
		stable := result.Metrics["stability"] == 1
		for _, e := range result.Errors {
			if errors.As(e, &simErr) {
				stable = false
			}
		}

		results = append(results, MonteCarloResult{
			TrialID:   trial,
			Diffusion: cfg.Diffusion,
			Viscosity: cfg.Viscosity,
			Seed:      cfg.Seed,
			Mass:      result.Metrics["mass"],
			Stable:    stable,
		})

		if (trial+1)%10 == 0 {
			fmt.Fprintf(out, "Monte Carlo: %d/%d trials complete\n", trial+1, mc.NumTrials)
		}
	}

	return results, nil
}

func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
