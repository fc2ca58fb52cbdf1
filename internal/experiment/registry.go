package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/fluidsim/internal/config"
	"github.com/san-kum/fluidsim/internal/emitter"
	"github.com/san-kum/fluidsim/internal/metrics"
	"github.com/san-kum/fluidsim/internal/sim"
)

// EmitterFactory builds an emitter for the given configuration.
type EmitterFactory func(cfg *config.Config) emitter.Emitter

type Registry struct {
	emitters map[string]EmitterFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		emitters: make(map[string]EmitterFactory),
	}

	r.emitters["none"] = func(cfg *config.Config) emitter.Emitter { return emitter.NewNone() }
	r.emitters["point"] = func(cfg *config.Config) emitter.Emitter {
		x, y := cfg.Center()
		p := cfg.EmitterParams
		return &emitter.Point{
			X: x, Y: y,
			Amount: p.Amount,
			VX:     p.VX, VY: p.VY,
			Radius: p.Radius,
			Every:  p.Every,
		}
	}
	r.emitters["jet"] = func(cfg *config.Config) emitter.Emitter {
		x, y := cfg.Center()
		p := cfg.EmitterParams
		jet := emitter.NewJet(x, y, cfg.Seed)
		if p.Force != 0 {
			jet.Force = p.Force
		}
		if p.MaxAmount > 0 {
			jet.MinAmount, jet.MaxAmount = p.MinAmount, p.MaxAmount
		}
		return jet
	}

	return r
}

// Register adds or replaces an emitter factory.
func (r *Registry) Register(name string, f EmitterFactory) {
	r.emitters[name] = f
}

func (r *Registry) GetEmitter(cfg *config.Config) (emitter.Emitter, error) {
	fn, ok := r.emitters[cfg.Emitter]
	if !ok {
		return nil, fmt.Errorf("unknown emitter: %s", cfg.Emitter)
	}
	return fn(cfg), nil
}

func (r *Registry) ListEmitters() []string {
	names := make([]string, 0, len(r.emitters))
	for name := range r.emitters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics() []sim.Metric {
	ms := metrics.Defaults()
	out := make([]sim.Metric, len(ms))
	for i, m := range ms {
		out[i] = m
	}
	return out
}
