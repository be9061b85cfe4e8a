// Package config provides configuration loading from YAML files.
package config

import (
	"net/url"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Media backends.
const (
	BackendNone = "none"
	BackendMpv  = "mpv"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig            `yaml:"server"`
	API     APIConfig               `yaml:"api"`
	Catalog CatalogConfig           `yaml:"catalog"`
	Filters map[string]FilterConfig `yaml:"filters"`
	Media   MediaConfig             `yaml:"media"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr  string      `yaml:"addr" default:":8080"`
	Hooks HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// APIConfig represents the episode API configuration.
type APIConfig struct {
	BaseURL       string `yaml:"base_url" default:"http://localhost:3333" validate:"required,url"`
	Limit         int    `yaml:"limit" default:"12" validate:"gte=1,lte=100"`
	Sort          string `yaml:"sort" default:"published_at" validate:"required"`
	Order         string `yaml:"order" default:"desc" validate:"oneof=asc desc"`
	TimeoutMs     int    `yaml:"timeout_ms" default:"10000" validate:"gte=100,lte=60000"`
	RevalidateSec int    `yaml:"revalidate_sec" default:"28800"`
}

// CatalogConfig represents catalog presentation configuration.
type CatalogConfig struct {
	LatestCount int `yaml:"latest_count" default:"2" validate:"gte=0"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// MediaConfig represents the media backend configuration.
type MediaConfig struct {
	Backend  string         `yaml:"backend" default:"none" validate:"oneof=none mpv"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("PODCAST_API_URL"); v != "" {
		c.API.BaseURL = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return errors.Wrap(err, "failed to parse api.base_url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Newf("api.base_url (%s) must use http or https", c.API.BaseURL)
	}

	return nil
}

// Timeout returns the episode API request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutMs) * time.Millisecond
}

// Revalidate returns the catalog refresh interval.
// A negative revalidate_sec disables refreshing and yields zero.
func (c *Config) Revalidate() time.Duration {
	if c.API.RevalidateSec < 0 {
		return 0
	}
	return time.Duration(c.API.RevalidateSec) * time.Second
}

// EnabledFilters returns the settings of every enabled filter by name.
func (c *Config) EnabledFilters() map[string]map[string]any {
	enabled := make(map[string]map[string]any)
	for name, f := range c.Filters {
		if f.Enabled {
			enabled[name] = f.Settings
		}
	}
	return enabled
}
