// Package config loads the agent-chat YAML configuration, applies
// environment overrides and validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rcliao/agent-chat/internal/access"
	"github.com/rcliao/agent-chat/internal/model"
	"github.com/rcliao/agent-chat/internal/retrieval"
	"github.com/rcliao/agent-chat/internal/store"
)

// Config is the full agent-chat configuration.
type Config struct {
	Store     store.Options `yaml:"store"`
	Retrieval Retrieval     `yaml:"retrieval"`
	Assistant Assistant     `yaml:"assistant"`
	Access    Access        `yaml:"access"`
	Log       Log           `yaml:"log"`
}

// Retrieval configures scoring and what the engine records.
type Retrieval struct {
	retrieval.Policy `yaml:",inline"`

	// ScanLimit caps the entries read for scoring. Zero reads every
	// retained entry; a positive value must cover store.capacity.
	ScanLimit  int  `yaml:"scan_limit"`
	RecordMeta bool `yaml:"record_meta"`
	Markov     bool `yaml:"markov"`
}

// Assistant configures reply presentation and the model registry.
type Assistant struct {
	Name             string            `yaml:"name"`
	Backend          string            `yaml:"backend"`
	Location         string            `yaml:"location"`
	DefaultModel     string            `yaml:"default_model"`
	PremiumAvailable bool              `yaml:"premium_available"`
	Models           []model.ModelInfo `yaml:"models"`
}

// Access configures the rotating access key.
type Access struct {
	Secret string        `yaml:"secret"`
	Prefix string        `yaml:"prefix"`
	Window time.Duration `yaml:"window"`
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Store: store.Options{
			Driver:   store.DriverSQLite,
			Path:     filepath.Join(home, ".agent-chat", "memory.db"),
			Capacity: store.DefaultCapacity,
		},
		Retrieval: Retrieval{
			Policy:     retrieval.Policy{Strategy: retrieval.StrategyOverlap, Limit: retrieval.DefaultLimit},
			RecordMeta: true,
		},
		Assistant: Assistant{
			Name:         "Gomega",
			Backend:      "local assistant",
			DefaultModel: model.DefaultModelID,
			Models:       model.DefaultModels,
		},
		Access: Access{
			Prefix: access.DefaultPrefix,
			Window: access.DefaultWindow,
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// DefaultPath returns the config file used when none is given.
func DefaultPath() string {
	if env := os.Getenv("AGENT_CHAT_CONFIG"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".agent-chat", "config.yaml")
}

// Load reads the config like Read and validates it.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Read reads path over the defaults, then applies environment overrides.
// A missing file is not an error; the defaults are used. The result is not
// validated, so callers layering further overrides validate once at the end.
func Read(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config yaml: %w", err)
			}
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("AGENT_CHAT_DB"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("AGENT_CHAT_STORE"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("AGENT_CHAT_PG_DSN"); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv("AGENT_CHAT_STRATEGY"); v != "" {
		c.Retrieval.Strategy = retrieval.Strategy(v)
	}
	if v := os.Getenv("AGENT_CHAT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("AGENT_CHAT_ACCESS_SECRET"); v != "" {
		c.Access.Secret = v
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case store.DriverSQLite, store.DriverJSON:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for driver %q", c.Store.Driver)
		}
	case store.DriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for driver postgres")
		}
	case store.DriverMemory:
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	if c.Store.Capacity <= 0 {
		return fmt.Errorf("store.capacity must be positive, got %d", c.Store.Capacity)
	}
	if _, err := retrieval.ParseStrategy(string(c.Retrieval.Strategy)); err != nil {
		return fmt.Errorf("retrieval: %w", err)
	}
	if c.Retrieval.Limit < 0 || c.Retrieval.ScanLimit < 0 {
		return fmt.Errorf("retrieval limits must not be negative")
	}
	if c.Retrieval.ScanLimit > 0 && c.Retrieval.ScanLimit < c.Store.Capacity {
		return fmt.Errorf("retrieval.scan_limit %d is below store.capacity %d; retained memories would never be scored",
			c.Retrieval.ScanLimit, c.Store.Capacity)
	}
	for name, v := range map[string]*float64{
		"floor":            c.Retrieval.Floor,
		"substring_weight": c.Retrieval.SubstringWeight,
		"keyword_weight":   c.Retrieval.KeywordWeight,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("retrieval.%s must not be negative", name)
		}
	}
	if len(c.Assistant.Models) == 0 {
		return fmt.Errorf("assistant.models must list at least one model")
	}
	seen := map[string]bool{}
	for _, m := range c.Assistant.Models {
		if m.ID == "" {
			return fmt.Errorf("assistant.models: model with empty id")
		}
		if seen[m.ID] {
			return fmt.Errorf("assistant.models: duplicate id %q", m.ID)
		}
		seen[m.ID] = true
	}
	if c.Assistant.DefaultModel != "" && !seen[c.Assistant.DefaultModel] {
		return fmt.Errorf("assistant.default_model %q is not in assistant.models", c.Assistant.DefaultModel)
	}
	if c.Assistant.Location != "" {
		if _, err := time.LoadLocation(c.Assistant.Location); err != nil {
			return fmt.Errorf("assistant.location: %w", err)
		}
	}
	if c.Access.Window < 0 {
		return fmt.Errorf("access.window must not be negative")
	}
	return nil
}
