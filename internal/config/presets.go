package config

import "sort"

var Presets = map[string]*Config{
	// One unit of density in a corner, stepped once with a near-zero dt.
	"sketch": {
		Size: 64, Dt: 0.0000001, Diffusion: 0.2, Viscosity: 1.0, Iterations: 20,
		Steps: 1, Workers: 1, ClampDensity: true, SnapshotEvery: 1,
		Emitter:       "point",
		EmitterParams: EmitterConfig{X: 2, Y: 2, Amount: 1.0},
	},
	"smoke": {
		Size: 96, Dt: 0.1, Diffusion: 0.00001, Viscosity: 0.000001, Iterations: 20,
		Steps: 400, Workers: 4, ClampDensity: true, SnapshotEvery: 10,
		Emitter: "jet",
		EmitterParams: EmitterConfig{
			MinAmount: 50, MaxAmount: 150, Force: 0.2, Radius: 1, Every: 1,
		},
	},
	"ink": {
		Size: 64, Dt: 0.05, Diffusion: 0.0001, Viscosity: 0.0005, Iterations: 30,
		Steps: 300, Workers: 1, ClampDensity: true, SnapshotEvery: 10,
		Emitter: "point",
		EmitterParams: EmitterConfig{
			Amount: 200, VX: 2, VY: 0, Radius: 2, Every: 5,
		},
	},
	"calm": {
		Size: 48, Dt: 0.1, Diffusion: 0.001, Viscosity: 0.01, Iterations: 20,
		Steps: 200, Workers: 1, ClampDensity: true, SnapshotEvery: 20,
		Emitter:       "point",
		EmitterParams: EmitterConfig{Amount: 100, Radius: 1},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
