// Package config loads daemon settings from a YAML file, with sane defaults
// for running against the bundled simulated terminal.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML accepts "30s" style values.
type Duration time.Duration

// Std returns the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %v", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in the same form it is read.
func (d Duration) MarshalYAML() (any, error) {
	return d.Std().String(), nil
}

// Config is the daemon configuration.
type Config struct {
	// Listen is the address the bridge accepts sessions on.
	Listen string `yaml:"listen"`
	// Advertise is the address registered for discovery. Defaults to Listen.
	Advertise string `yaml:"advertise"`
	// EtcdEndpoints enables registry registration when non-empty.
	EtcdEndpoints []string `yaml:"etcd_endpoints"`

	// Workers caps concurrently executing requests per server.
	Workers int `yaml:"workers"`
	// RequestTimeout bounds a single handler invocation.
	RequestTimeout Duration `yaml:"request_timeout"`
	// RateLimit caps requests per second across all sessions. Zero disables
	// rate limiting.
	RateLimit float64 `yaml:"rate_limit"`
	// RateBurst is the rate limiter burst size.
	RateBurst int `yaml:"rate_burst"`

	// Debug switches the logger to development output.
	Debug bool `yaml:"debug"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Listen:         "0.0.0.0:18812",
		Workers:        10,
		RequestTimeout: Duration(300 * time.Second),
		RateBurst:      100,
	}
}

// Load reads a YAML config file on top of the defaults. Unknown keys are
// rejected so typos fail loudly.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.Advertise == "" {
		cfg.Advertise = cfg.Listen
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout.Std())
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %v", c.RateLimit)
	}
	return nil
}
