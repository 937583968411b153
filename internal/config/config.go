// Package config handles loading arctree configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/arctree/config.yaml
//
// Environment variables override the file: ARCTREE_BASE_URL and
// ARCTREE_REPOSITORY.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/joshuapare/arctree/catalog"
	"github.com/joshuapare/arctree/engine"
	"github.com/joshuapare/arctree/internal/logger"
	"github.com/joshuapare/arctree/pkg/types"
)

const (
	EnvBaseURL    = "ARCTREE_BASE_URL"
	EnvRepository = "ARCTREE_REPOSITORY"
)

var validate = validator.New()

// LogConfig controls the file logger.
type LogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir,omitempty"`
	Level   string `yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn warning error"`
}

// MetricsConfig controls the Prometheus endpoint of the explorer.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr,omitempty" validate:"omitempty,hostname_port"`
}

// Config is the top-level configuration for arctree.
type Config struct {
	BaseURL    string `yaml:"base_url" validate:"required,url"`
	Repository string `yaml:"repository,omitempty"`

	PageSize     int           `yaml:"page_size,omitempty" validate:"gte=0,lte=500"`
	WaypointSize int           `yaml:"waypoint_size,omitempty" validate:"gte=0,lte=500"`
	Debounce     time.Duration `yaml:"debounce,omitempty" validate:"omitempty,gte=600ms,lte=800ms"`
	Timeout      time.Duration `yaml:"timeout,omitempty" validate:"gte=0"`
	RateLimit    float64       `yaml:"rate_limit,omitempty" validate:"gte=0"`
	Burst        int           `yaml:"burst,omitempty" validate:"gte=0"`
	UserAgent    string        `yaml:"user_agent,omitempty"`

	Log     LogConfig     `yaml:"log,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults. BaseURL has no
// default and must come from the file, the environment or a flag.
func DefaultConfig() Config {
	return Config{
		PageSize:     types.DefaultSearchPageSize,
		WaypointSize: types.DefaultWaypointSize,
		Debounce:     types.DefaultDebounce,
		Timeout:      types.DefaultRequestTimeout,
		RateLimit:    10,
		Burst:        5,
		Log:          LogConfig{Level: "info"},
		Metrics:      MetricsConfig{Addr: "127.0.0.1:9464"},
	}
}

// ConfigDir returns the XDG config directory for arctree.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "arctree")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "arctree")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory and applies
// environment overrides. Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		cfg := DefaultConfig()
		cfg.applyEnv()
		return cfg, nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path and applies environment
// overrides. Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.Log.Dir = expandHome(cfg.Log.Dir)
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		c.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRepository)); v != "" {
		c.Repository = v
	}
}

// Validate checks the merged configuration. Call it after flags have been
// applied on top of the loaded file.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ClientOptions maps the config onto catalog client options.
func (c Config) ClientOptions() catalog.ClientOptions {
	return catalog.ClientOptions{
		BaseURL:   c.BaseURL,
		Timeout:   c.Timeout,
		RateLimit: c.RateLimit,
		Burst:     c.Burst,
		UserAgent: c.UserAgent,
	}
}

// EngineOptions maps the config onto engine options. The catalog and router
// are supplied by the caller.
func (c Config) EngineOptions() engine.Options {
	return engine.Options{
		PageSize:     c.PageSize,
		WaypointSize: c.WaypointSize,
		Debounce:     c.Debounce,
	}
}

// LoggerOptions maps the log section onto logger options.
func (c Config) LoggerOptions() logger.Options {
	return logger.Options{
		Enabled: c.Log.Enabled,
		LogDir:  c.Log.Dir,
		Level:   logger.ParseLevel(c.Log.Level),
	}
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
