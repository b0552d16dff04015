package config

import "sort"

// Presets are named run configurations
var Presets = map[string]*Config{
	"freefall": {
		Params:     ParamsConfig{CartMass: 1, PendulumMass: 1, PendulumLength: 1, Viscosity: 0.1},
		Scheme:     "semi-implicit",
		Dt:         0.01,
		Steps:      10000,
		InitState:  InitStateConfig{Theta: 0.01},
		Controller: ControllerConfig{Type: ControllerNone},
	},
	"balance": {
		Params:    ParamsConfig{CartMass: 1, PendulumMass: 1, PendulumLength: 1, Viscosity: 0.1},
		Scheme:    "semi-implicit",
		Dt:        0.01,
		Steps:     3000,
		InitState: InitStateConfig{Theta: 0.1},
		Controller: ControllerConfig{
			Type: ControllerLQR,
			Q:    []float64{1, 10, 1, 1},
			R:    1,
		},
	},
	"recover": {
		Params:    ParamsConfig{CartMass: 1, PendulumMass: 1, PendulumLength: 1, Viscosity: 0.1},
		Scheme:    "semi-implicit",
		Dt:        0.01,
		Steps:     3000,
		InitState: InitStateConfig{Theta: 0.3, ThetaDot: -0.5},
		Controller: ControllerConfig{
			Type:  ControllerLQR,
			Q:     []float64{1, 10, 1, 1},
			R:     1,
			Limit: 50,
		},
		Noise: NoiseConfig{Std: 0.5, Seed: 1},
	},
}

// GetPreset returns a copy of the named preset or nil if it does not exist
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}

	cfg := *p
	cfg.Controller.Gains = append([]float64(nil), p.Controller.Gains...)
	cfg.Controller.Q = append([]float64(nil), p.Controller.Q...)

	return &cfg
}

// ListPresets returns sorted preset names
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
