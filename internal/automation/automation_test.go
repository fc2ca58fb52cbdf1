package automation

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/fluidsim/internal/config"
	"github.com/san-kum/fluidsim/internal/experiment"
	"github.com/san-kum/fluidsim/internal/storage"
)

const scenarioYAML = `
name: diffusion-ladder
description: same drop, three diffusion rates
base: calm
steps:
  - name: still
    size: 16
    steps: 4
    params:
      diffusion: 0
  - name: spread
    size: 16
    steps: 4
    params:
      diffusion: 0.01
    save_as: spread
  - preset: ink
    size: 16
    steps: 3
    emitter: none
`

func smallConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Size = 12
	cfg.Steps = 4
	cfg.SnapshotEvery = 0
	cfg.Emitter = "point"
	cfg.EmitterParams = config.EmitterConfig{Amount: 50}
	return cfg
}

func TestParseScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	if sc.Name != "diffusion-ladder" || len(sc.Steps) != 3 {
		t.Fatalf("parsed %+v", sc)
	}
	if sc.Steps[1].SaveAs != "spread" || sc.Steps[1].Params["diffusion"] != 0.01 {
		t.Errorf("step fields lost: %+v", sc.Steps[1])
	}

	if _, err := ParseScenario([]byte("name: empty\n")); err == nil {
		t.Error("scenario without steps accepted")
	}
	if _, err := ParseScenario([]byte("steps: [")); err == nil {
		t.Error("malformed yaml accepted")
	}
}

func TestScenarioConfig(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := sc.Config(sc.Steps[1])
	if err != nil {
		t.Fatal(err)
	}
	calm := config.GetPreset("calm")
	if cfg.Diffusion != 0.01 || cfg.Size != 16 || cfg.Viscosity != calm.Viscosity {
		t.Errorf("overrides not layered on base: %+v", cfg)
	}

	cfg, err = sc.Config(sc.Steps[2])
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Emitter != "none" || cfg.Viscosity != config.GetPreset("ink").Viscosity {
		t.Errorf("step preset not used: %+v", cfg)
	}

	if _, err := sc.Config(ScenarioStep{Preset: "lava"}); err == nil {
		t.Error("unknown preset accepted")
	}
	if _, err := sc.Config(ScenarioStep{Params: map[string]float64{"dt": -1}}); err == nil {
		t.Error("invalid override accepted")
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	store := storage.New(filepath.Join(t.TempDir(), "runs"))
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), store, &out)
	if err != nil {
		t.Fatalf("scenario failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[2].Name != "step-3" {
		t.Errorf("unnamed step called %q", results[2].Name)
	}
	if results[0].Result.Metrics["peak_density"] <= results[1].Result.Metrics["peak_density"] {
		t.Error("higher diffusion should lower the peak")
	}
	if results[1].RunID == "" || results[0].RunID != "" {
		t.Error("only save_as steps should be stored")
	}
	if _, err := store.Load(results[1].RunID); err != nil {
		t.Errorf("saved run not loadable: %v", err)
	}
	if strings.Count(out.String(), "Running step") != 3 {
		t.Errorf("progress output: %q", out.String())
	}
}

func TestRunSweep(t *testing.T) {
	sweep := &ParameterSweep{Base: smallConfig(), ParamName: "viscosity", ParamMin: 0, ParamMax: 0.01, NumSteps: 3}
	var out bytes.Buffer
	results, err := RunSweep(context.Background(), sweep, experiment.NewRegistry(), &out)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 || results[2].ParamValue != 0.01 {
		t.Fatalf("results %+v", results)
	}
	for _, r := range results {
		if r.Err != nil || r.Metrics["mass"] <= 0 {
			t.Errorf("viscosity %v: err=%v mass=%v", r.ParamValue, r.Err, r.Metrics["mass"])
		}
	}

	bad := &ParameterSweep{Base: smallConfig(), ParamName: "dt", ParamMin: -1, ParamMax: 0.1, NumSteps: 2}
	results, err = RunSweep(context.Background(), bad, experiment.NewRegistry(), &out)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Err == nil || results[1].Err != nil {
		t.Error("invalid dt should fail only its own run")
	}

	if _, err := RunSweep(context.Background(), &ParameterSweep{Base: smallConfig(), ParamName: "colour", NumSteps: 2}, experiment.NewRegistry(), &out); err == nil {
		t.Error("unknown sweep parameter accepted")
	}
}

func TestRunMonteCarlo(t *testing.T) {
	mc := &MonteCarloConfig{Base: smallConfig(), Perturbation: 0.5, NumTrials: 4, Seed: 42}
	var out bytes.Buffer
	results, err := RunMonteCarlo(context.Background(), mc, experiment.NewRegistry(), &out)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 trials, got %d", len(results))
	}
	base := smallConfig()
	for _, r := range results {
		if r.Diffusion < base.Diffusion*0.5 || r.Diffusion > base.Diffusion*1.5 {
			t.Errorf("diffusion %v outside perturbation band", r.Diffusion)
		}
	}
	stable, unstable := MonteCarloStats(results)
	if stable != 4 || unstable != 0 {
		t.Errorf("stats = %d stable, %d unstable", stable, unstable)
	}

	again, _ := RunMonteCarlo(context.Background(), mc, experiment.NewRegistry(), &out)
	if again[2].Seed != results[2].Seed || again[2].Mass != results[2].Mass {
		t.Error("same seed should repeat the trials")
	}
}
