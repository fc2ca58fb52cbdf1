package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/fluidsim/internal/config"
	"github.com/san-kum/fluidsim/internal/experiment"
	"github.com/san-kum/fluidsim/internal/sim"
)

var ErrNoTrials = errors.New("optim: no successful trials")

// Tunable lists the config fields a search may vary.
var Tunable = []string{"diffusion", "viscosity", "dt", "iterations"}

// Apply sets the named field of cfg.
func Apply(cfg *config.Config, name string, v float64) error {
	switch name {
	case "diffusion":
		cfg.Diffusion = v
	case "viscosity":
		cfg.Viscosity = v
	case "dt":
		cfg.Dt = v
	case "iterations":
		cfg.Iterations = int(math.Round(v))
	default:
		return fmt.Errorf("unknown parameter %q (want one of %s)", name, strings.Join(Tunable, ", "))
	}
	return nil
}

// Trial is one evaluated parameter combination.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type Result struct {
	Best      map[string]float64
	BestValue float64
	Trials    []Trial
}

// GridSearch evaluates every combination of the given ranges on copies of
// a base config and minimises one run metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	Workers    int
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("%d parameters but %d ranges", len(params), len(ranges))
	}
	probe := config.DefaultConfig()
	for i, name := range params {
		if err := Apply(probe, name, 0); err != nil {
			return nil, err
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("empty range for %s", name)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Combinations expands the ranges in row-major order, last parameter
// fastest.
func (g *GridSearch) Combinations() []map[string]float64 {
	var out []map[string]float64
	g.combine(0, make(map[string]float64), &out)
	return out
}

func (g *GridSearch) combine(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		combo := make(map[string]float64, len(current))
		for k, v := range current {
			combo[k] = v
		}
		*out = append(*out, combo)
		return
	}
	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[name] = val
		g.combine(depth+1, current, out)
	}
	delete(current, name)
}

// Search runs all combinations concurrently and returns the one with the
// lowest final value of metric. Failed or non-finite trials are kept in
// Trials but never win.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, reg *experiment.Registry, metric string) (*Result, error) {
	combos := g.Combinations()
	jobs := make([]sim.Job, len(combos))
	for i, combo := range combos {
		cfg := *base
		for name, v := range combo {
			if err := Apply(&cfg, name, v); err != nil {
				return nil, err
			}
		}
		exp := experiment.New(&cfg)
		jobs[i] = sim.Job{
			Name: label(combo, g.paramNames),
			Build: func() (*sim.Simulator, error) {
				if err := exp.Setup(reg, reg.DefaultMetrics()); err != nil {
					return nil, err
				}
				return exp.GetSimulator(), nil
			},
			Cfg: exp.SimConfig(),
		}
	}

	res := &Result{BestValue: math.Inf(1), Trials: make([]Trial, len(combos))}
	for i, br := range sim.RunBatch(ctx, jobs, g.Workers) {
		trial := Trial{Params: combos[i], Err: br.Err, Value: math.NaN()}
		if br.Err == nil {
			v, ok := br.Result.Metrics[metric]
			if !ok {
				trial.Err = fmt.Errorf("metric %q not recorded", metric)
			} else {
				trial.Value = v
			}
		}
		res.Trials[i] = trial
		if trial.Err == nil && !math.IsNaN(trial.Value) && trial.Value < res.BestValue {
			res.Best, res.BestValue = trial.Params, trial.Value
		}
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	if res.Best == nil {
		return res, ErrNoTrials
	}
	return res, nil
}

func label(combo map[string]float64, order []string) string {
	parts := make([]string, 0, len(order))
	for _, name := range order {
		parts = append(parts, fmt.Sprintf("%s=%g", name, combo[name]))
	}
	return strings.Join(parts, ",")
}

// Sorted returns the trials ordered best first, failures last.
func (r *Result) Sorted() []Trial {
	out := append([]Trial(nil), r.Trials...)
	sort.SliceStable(out, func(a, b int) bool {
		va, vb := out[a], out[b]
		if (va.Err == nil) != (vb.Err == nil) {
			return va.Err == nil
		}
		return va.Value < vb.Value
	})
	return out
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// Logspace returns n values from lo to hi evenly spaced in log10.
func Logspace(lo, hi float64, n int) []float64 {
	exps := Linspace(math.Log10(lo), math.Log10(hi), n)
	for i, e := range exps {
		exps[i] = math.Pow(10, e)
	}
	return exps
}
