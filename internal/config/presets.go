package config

import (
	"sort"

	"github.com/san-kum/modelspace/internal/reparam"
)

var Presets = map[string]map[string]*Config{
	"pendulum": {
		"small": {
			Model:      "pendulum",
			OrigParams: map[string]float64{"amplitude": 0.2},
		},
		"large": {
			Model:      "pendulum",
			OrigParams: map[string]float64{"amplitude": 2.5, "damping": 0},
		},
		"long": {
			Model:      "pendulum",
			OrigParams: map[string]float64{"length": 10},
			Free:       []string{"damping"},
		},
		"log": {
			Model:   "pendulum",
			Reparam: &ReparamConfig{Kind: reparam.KindLog, Options: reparam.Options{Params: []string{"mass", "length"}}},
		},
	},
	"chain": {
		"three": {
			Model: "chain",
		},
		"five": {
			Model:         "chain",
			VectorLengths: map[string]int{"m": 5, "k": 6},
			Fixed:         []string{"k"},
		},
		"stiff": {
			Model:      "chain",
			OrigParams: map[string]float64{"k_0": 100, "k_3": 100},
		},
		"log_springs": {
			Model:   "chain",
			Reparam: &ReparamConfig{Kind: reparam.KindLog, Options: reparam.Options{Params: []string{"k_0", "k_1", "k_2", "k_3"}}},
		},
	},
	"oscillator": {
		"free": {
			Model: "oscillator",
			Free:  []string{"damping", "amplitude"},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply fills p's model settings over the runtime settings of c.
func (c *Config) Apply(p *Config) *Config {
	out := p.Clone()
	out.Scan = c.Scan
	out.DataDir = c.DataDir
	out.LogLevel = c.LogLevel
	out.Store = c.Store
	return out
}
