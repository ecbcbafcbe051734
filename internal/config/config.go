// Package config handles YAML configuration parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"pulsecam/internal/core"
	"pulsecam/internal/report"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for one run. It is built
// once, validated before any simulation work, and never mutated after;
// every component receives it (or a section of it) at construction.
type Config struct {
	Timing   Timing         `yaml:"timing"`
	Output   Output         `yaml:"output"`
	Spectrum *Spectrum      `yaml:"spectrum,omitempty"`
	Run      Run            `yaml:"run,omitempty"`
	Checks   *report.Checks `yaml:"checks,omitempty"`
}

// Timing holds the pulsed-source parameters. Times are nanoseconds,
// energies electronvolts.
type Timing struct {
	TminNs        float64 `yaml:"tmin_ns"`
	TmaxNs        float64 `yaml:"tmax_ns"`
	FluxPerCm2Sec float64 `yaml:"flux"`
	FrequencyHz   float64 `yaml:"frequency_hz"`
	TotalNeutrons int     `yaml:"total_neutrons"`
	MinEnergyEV   float64 `yaml:"min_energy_ev"`
	MaxEnergyEV   float64 `yaml:"max_energy_ev"`
	JitterNs      float64 `yaml:"jitter_ns"`
}

// Window returns TMAX - TMIN in nanoseconds.
func (t Timing) Window() float64 {
	return t.TmaxNs - t.TminNs
}

// Output controls the batched CSV writer.
type Output struct {
	// Dir is created if missing. Relative paths resolve against the
	// config file's directory.
	Dir string `yaml:"dir"`
	// BaseName yields files <BaseName>_<seq>.csv, seq from 0.
	BaseName string `yaml:"base_name"`
	// BatchSize is hit records per file; 0 means a single unbounded file.
	BatchSize int `yaml:"batch_size"`
}

// Spectrum points at a tabulated source energy spectrum.
type Spectrum struct {
	File string `yaml:"file"`
	Mode string `yaml:"mode"` // "sequential" or "random"
}

// Run controls execution rather than physics.
type Run struct {
	Seed    int64 `yaml:"seed"`
	Workers int   `yaml:"workers"`
	// MaxRate caps primaries per second across all workers; 0 = uncapped.
	MaxRate int  `yaml:"max_rate"`
	Quiet   bool `yaml:"quiet"`
}

const (
	DefaultBaseName  = "sim_data"
	DefaultBatchSize = 10000
)

// LoadConfig reads, parses and validates a YAML configuration file.
// Relative output and spectrum paths are resolved against the config
// file's directory.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if cfg.Output.Dir != "" && !filepath.IsAbs(cfg.Output.Dir) {
		cfg.Output.Dir = filepath.Join(dir, cfg.Output.Dir)
	}
	if cfg.Spectrum != nil && cfg.Spectrum.File != "" && !filepath.IsAbs(cfg.Spectrum.File) {
		cfg.Spectrum.File = filepath.Join(dir, cfg.Spectrum.File)
	}
	return cfg, nil
}

// Parse parses and validates raw YAML.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Output.BaseName == "" {
		c.Output.BaseName = DefaultBaseName
	}
	if c.Output.BatchSize == 0 {
		c.Output.BatchSize = DefaultBatchSize
	}
	if c.Output.BatchSize < 0 {
		// Explicit "single file" spelling; normalized to the writer's 0.
		c.Output.BatchSize = 0
	}
	if c.Run.Workers < 1 {
		c.Run.Workers = 1
	}
	if c.Spectrum != nil && c.Spectrum.Mode == "" {
		c.Spectrum.Mode = "random"
	}
}

// Validate rejects configurations that cannot start a run. Timing
// parameters that only the pulse generator interprets (window, counts)
// are checked again there; Validate catches everything it can before
// any component is constructed.
func (c *Config) Validate() error {
	t := c.Timing
	if t.TmaxNs <= t.TminNs {
		return fmt.Errorf("%w: tmax_ns (%g) must exceed tmin_ns (%g)", core.ErrConfig, t.TmaxNs, t.TminNs)
	}
	if t.FluxPerCm2Sec < 0 {
		return fmt.Errorf("%w: flux must not be negative, got %g", core.ErrConfig, t.FluxPerCm2Sec)
	}
	if t.FrequencyHz < 0 {
		return fmt.Errorf("%w: frequency_hz must not be negative, got %g", core.ErrConfig, t.FrequencyHz)
	}
	if t.TotalNeutrons <= 0 {
		return fmt.Errorf("%w: total_neutrons must be positive, got %d", core.ErrConfig, t.TotalNeutrons)
	}
	if t.MinEnergyEV < 0 || (t.MaxEnergyEV != 0 && t.MaxEnergyEV < t.MinEnergyEV) {
		return fmt.Errorf("%w: energy window [%g, %g] eV is invalid", core.ErrConfig, t.MinEnergyEV, t.MaxEnergyEV)
	}
	if t.JitterNs < 0 {
		return fmt.Errorf("%w: jitter_ns must not be negative, got %g", core.ErrConfig, t.JitterNs)
	}
	if c.Spectrum != nil {
		if c.Spectrum.File == "" {
			return fmt.Errorf("%w: spectrum.file is required when spectrum is set", core.ErrConfig)
		}
		if c.Spectrum.Mode != "sequential" && c.Spectrum.Mode != "random" {
			return fmt.Errorf("%w: spectrum.mode must be \"sequential\" or \"random\", got %q", core.ErrConfig, c.Spectrum.Mode)
		}
	}
	if c.Run.MaxRate < 0 {
		return fmt.Errorf("%w: run.max_rate must not be negative, got %d", core.ErrConfig, c.Run.MaxRate)
	}
	if c.Run.Workers > c.Timing.TotalNeutrons {
		return fmt.Errorf("%w: run.workers (%d) exceeds total_neutrons (%d)", core.ErrConfig, c.Run.Workers, c.Timing.TotalNeutrons)
	}
	return nil
}
