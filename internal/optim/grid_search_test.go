package optim

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/fluidsim/internal/config"
	"github.com/san-kum/fluidsim/internal/experiment"
)

func baseConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Size = 16
	cfg.Steps = 5
	cfg.SnapshotEvery = 0
	cfg.Emitter = "point"
	cfg.EmitterParams = config.EmitterConfig{Amount: 100}
	return cfg
}

func TestApply(t *testing.T) {
	cfg := config.DefaultConfig()
	for _, name := range Tunable {
		if err := Apply(cfg, name, 3.4); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if cfg.Diffusion != 3.4 || cfg.Viscosity != 3.4 || cfg.Dt != 3.4 || cfg.Iterations != 3 {
		t.Errorf("fields not applied: %+v", cfg)
	}
	if err := Apply(cfg, "gravity", 1); err == nil {
		t.Error("unknown parameter accepted")
	}
}

func TestNewGridSearchValidates(t *testing.T) {
	if _, err := NewGridSearch([]string{"dt"}, nil); err == nil {
		t.Error("mismatched ranges accepted")
	}
	if _, err := NewGridSearch([]string{"dt"}, [][]float64{{}}); err == nil {
		t.Error("empty range accepted")
	}
	if _, err := NewGridSearch([]string{"mass"}, [][]float64{{1}}); err == nil {
		t.Error("unknown parameter accepted")
	}
}

func TestCombinations(t *testing.T) {
	g, err := NewGridSearch([]string{"diffusion", "viscosity"}, [][]float64{{1, 2}, {10, 20, 30}})
	if err != nil {
		t.Fatal(err)
	}
	combos := g.Combinations()
	if len(combos) != 6 {
		t.Fatalf("expected 6 combinations, got %d", len(combos))
	}
	if combos[0]["diffusion"] != 1 || combos[0]["viscosity"] != 10 {
		t.Errorf("first combination %v", combos[0])
	}
	if combos[1]["viscosity"] != 20 || combos[3]["diffusion"] != 2 {
		t.Error("last parameter should vary fastest")
	}
}

func TestSearchFindsMostDiffusive(t *testing.T) {
	g, err := NewGridSearch([]string{"diffusion"}, [][]float64{{0, 0.001, 0.01}})
	if err != nil {
		t.Fatal(err)
	}
	g.Workers = 2

	res, err := g.Search(context.Background(), baseConfig(), experiment.NewRegistry(), "peak_density")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if res.Best["diffusion"] != 0.01 {
		t.Errorf("expected diffusion 0.01 to flatten the peak most, got %v", res.Best)
	}
	sorted := res.Sorted()
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Value < sorted[i-1].Value {
			t.Error("Sorted is not ascending")
		}
	}
}

func TestSearchSkipsInvalidTrials(t *testing.T) {
	g, err := NewGridSearch([]string{"dt"}, [][]float64{{-1, 0.1}})
	if err != nil {
		t.Fatal(err)
	}
	res, err := g.Search(context.Background(), baseConfig(), experiment.NewRegistry(), "mass")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if res.Trials[0].Err == nil {
		t.Error("negative dt trial should fail")
	}
	if res.Best["dt"] != 0.1 {
		t.Errorf("best = %v", res.Best)
	}
	if sorted := res.Sorted(); sorted[len(sorted)-1].Err == nil {
		t.Error("failed trials should sort last")
	}

	if _, err := g.Search(context.Background(), baseConfig(), experiment.NewRegistry(), "nope"); err != ErrNoTrials {
		t.Errorf("unknown metric should leave no winner, got %v", err)
	}
}

func TestSpaces(t *testing.T) {
	lin := Linspace(0, 1, 5)
	if len(lin) != 5 || lin[4] != 1 || lin[1] != 0.25 {
		t.Errorf("Linspace = %v", lin)
	}
	if got := Linspace(2, 3, 1); len(got) != 1 || got[0] != 2 {
		t.Errorf("single point = %v", got)
	}
	lg := Logspace(1e-4, 1e-2, 3)
	if math.Abs(lg[1]-1e-3) > 1e-12 || math.Abs(lg[2]-1e-2) > 1e-12 {
		t.Errorf("Logspace = %v", lg)
	}
}
