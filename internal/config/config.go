package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/modelspace/internal/dynamo"
	"github.com/san-kum/modelspace/internal/experiment"
	"github.com/san-kum/modelspace/internal/model"
	"github.com/san-kum/modelspace/internal/param"
	"github.com/san-kum/modelspace/internal/reparam"
)

const (
	DefaultModel      = "pendulum"
	DefaultDataDir    = ".modelspace"
	DefaultLogLevel   = "info"
	DefaultStore      = "dir"
	DefaultScanPoints = 20
)

type Config struct {
	Model string `yaml:"model"`
	// VectorLengths maps a vector parameter name to its instance length.
	VectorLengths map[string]int `yaml:"vector_lengths,omitempty"`
	// Params are working-space values, applied after the reparam.
	Params map[string]float64 `yaml:"params,omitempty"`
	// OrigParams are original-space values, applied before the reparam.
	OrigParams map[string]float64 `yaml:"orig_params,omitempty"`
	Free       []string           `yaml:"free,omitempty"`
	Fixed      []string           `yaml:"fixed,omitempty"`
	Reparam    *ReparamConfig     `yaml:"reparam,omitempty"`
	Scan       ScanConfig         `yaml:"scan"`
	DataDir    string             `yaml:"data_dir"`
	LogLevel   string             `yaml:"log_level"`
	Store      string             `yaml:"store"`
}

type ReparamConfig struct {
	Kind            string `yaml:"kind"`
	reparam.Options `yaml:",inline"`
}

type ScanConfig struct {
	Param      string  `yaml:"param"`
	From       float64 `yaml:"from"`
	To         float64 `yaml:"to"`
	Points     int     `yaml:"points"`
	Integrator string  `yaml:"integrator"`
	Metric     string  `yaml:"metric,omitempty"`
	Dt         float64 `yaml:"dt"`
	Duration   float64 `yaml:"duration"`
}

// Experiment is the simulation setup a scan evaluates at every point.
func (s ScanConfig) Experiment() experiment.Config {
	cfg := experiment.DefaultConfig()
	cfg.Sim = dynamo.DefaultConfig()
	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.Dt > 0 {
		cfg.Sim.Dt = s.Dt
	}
	if s.Duration > 0 {
		cfg.Sim.Duration = s.Duration
	}
	if s.Metric != "" {
		cfg.Metrics = append(cfg.Metrics, s.Metric)
	}
	return cfg
}

func DefaultConfig() *Config {
	return &Config{
		Model:    DefaultModel,
		DataDir:  DefaultDataDir,
		LogLevel: DefaultLogLevel,
		Store:    DefaultStore,
		Scan: ScanConfig{
			Param:      "length",
			From:       0.5,
			To:         5,
			Points:     DefaultScanPoints,
			Integrator: "rk4",
			Dt:         0.01,
			Duration:   10,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

type envOverrides struct {
	DataDir  string `env:"MODELSPACE_DATA_DIR"`
	LogLevel string `env:"MODELSPACE_LOG_LEVEL"`
	Store    string `env:"MODELSPACE_STORE"`
}

// ApplyEnv overrides the runtime settings from MODELSPACE_* variables.
func (c *Config) ApplyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.Store != "" {
		c.Store = o.Store
	}
	return nil
}

// Clone deep-copies the config so presets can be edited safely.
func (c *Config) Clone() *Config {
	out := *c
	if c.VectorLengths != nil {
		out.VectorLengths = make(map[string]int, len(c.VectorLengths))
		for k, v := range c.VectorLengths {
			out.VectorLengths[k] = v
		}
	}
	out.Params = cloneValues(c.Params)
	out.OrigParams = cloneValues(c.OrigParams)
	out.Free = append([]string(nil), c.Free...)
	out.Fixed = append([]string(nil), c.Fixed...)
	if c.Reparam != nil {
		r := *c.Reparam
		r.Params = append([]string(nil), r.Params...)
		r.Offset = append([]float64(nil), r.Offset...)
		if r.Matrix != nil {
			r.Matrix = make([][]float64, len(c.Reparam.Matrix))
			for i, row := range c.Reparam.Matrix {
				r.Matrix[i] = append([]float64(nil), row...)
			}
		}
		out.Reparam = &r
	}
	return &out
}

func cloneValues(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Build constructs an instance of cfg.Model and applies, in order: vector
// lengths, original-space values, the reparam, working-space values, then
// fit flags.
func Build(cfg *Config, reg *model.Registry) (*model.Model, error) {
	s, err := reg.Schema(cfg.Model)
	if err != nil {
		return nil, err
	}

	var opts []model.Option
	for name, n := range cfg.VectorLengths {
		p, ok := s.PropertyByName(name + "-length")
		if !ok || p.Kind != model.VparamLength {
			return nil, fmt.Errorf("%w: vector %q in model %s", model.ErrParamNotFound, name, s.Name())
		}
		if n < 0 {
			return nil, fmt.Errorf("vector %q: negative length %d", name, n)
		}
		opts = append(opts, model.WithVectorLen(p.Index, n))
	}

	m, err := reg.New(cfg.Model, opts...)
	if err != nil {
		return nil, err
	}

	for name, x := range cfg.OrigParams {
		if err := m.OrigParamSetByName(name, x); err != nil {
			return nil, err
		}
	}

	if cfg.Reparam != nil {
		r, err := reparam.Build(cfg.Reparam.Kind, m, cfg.Reparam.Options)
		if err != nil {
			return nil, fmt.Errorf("reparam %s: %w", cfg.Reparam.Kind, err)
		}
		m.SetReparam(r)
	}

	for name, x := range cfg.Params {
		if err := m.ParamSetByName(name, x); err != nil {
			return nil, err
		}
	}

	for _, name := range cfg.Free {
		if err := setFit(m, name, param.Free); err != nil {
			return nil, err
		}
	}
	for _, name := range cfg.Fixed {
		if err := setFit(m, name, param.Fixed); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// setFit marks a slot by working name, or every component of a vector
// parameter by its vector name.
func setFit(m *model.Model, name string, ft param.FitType) error {
	i, err := m.ParamIndexFromName(name)
	if err == nil {
		m.ParamSetFitType(i, ft)
		return nil
	}
	if !errors.Is(err, model.ErrParamNotFound) {
		return err
	}
	if perr := m.SetPropertyByName(name+"-fit", ft == param.Free); perr != nil {
		return err
	}
	return nil
}
