package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/meritorder/core/dispatch"
	"github.com/kilianp07/meritorder/core/metrics"
	"github.com/kilianp07/meritorder/core/model"
	"github.com/kilianp07/meritorder/core/results"
)

type Config struct {
	// Horizon is the number of frames of every order.
	Horizon   int             `json:"horizon"`
	Dispatch  dispatch.Config `json:"dispatch"`
	Metrics   metrics.Config  `json:"metrics"`
	Results   results.Config  `json:"results"`
	Logging   LoggingConfig   `json:"logging"`
	Scenarios []string        `json:"scenarios"`
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	if c.Horizon == 0 {
		c.Horizon = model.DefaultHorizon
	}
	c.Results.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := model.ValidateHorizon(c.Horizon); err != nil {
		return err
	}
	if err := c.Results.Validate(); err != nil {
		return fmt.Errorf("results: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	for i, s := range c.Metrics.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics.sinks[%d]: %w", i, errMissingType)
		}
	}
	return nil
}

var errMissingType = errors.New("type is required")

// Load reads the config file at path, applies K_ environment overrides
// (K_DISPATCH__SORT_BY_COST=true sets dispatch.sort_by_cost) and validates
// the result. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides. The callback turns K_A__B into a.b, so
	// keys are unflattened on ".".
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
