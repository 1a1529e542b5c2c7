package glimit

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the rate limiting configuration. It supports global defaults
// and per-route policy overrides.
type Config struct {
	// Defaults are applied to all routes unless overridden
	Defaults PolicyConfig `yaml:"defaults"`

	// Policies maps route paths to their specific rate limit policies
	// Example: "/api/login" -> strict policy, "/api/search" -> lenient policy
	Policies map[string]PolicyConfig `yaml:"policies,omitempty"`

	// KeyExtractor selects how clients are identified
	// Examples: "ip", "ip_proxy", "header:X-API-Key", "bearer"
	KeyExtractor string `yaml:"key_extractor,omitempty"`

	// SweepInterval is how often idle (fully refilled) buckets are reclaimed
	// Format: "10s", "1m"
	SweepInterval string `yaml:"sweep_interval,omitempty"`
}

// PolicyConfig defines rate limiting parameters for a route or default.
type PolicyConfig struct {
	// Capacity is the maximum number of tokens (burst limit)
	Capacity int64 `yaml:"capacity"`

	// RefillRate is the number of tokens added per second
	RefillRate int64 `yaml:"refill_rate"`

	// Enabled allows disabling rate limiting for specific routes
	Enabled bool `yaml:"enabled"`
}

// NewConfig creates a Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Defaults: PolicyConfig{
			Capacity:   100,
			RefillRate: 10,
			Enabled:    true,
		},
		Policies:      make(map[string]PolicyConfig),
		KeyExtractor:  "ip",
		SweepInterval: "10s",
	}
}

// LoadConfigFromFile loads configuration from a YAML file.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrInvalidConfig, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse YAML: %v", ErrInvalidConfig, err)
	}

	// Apply defaults if not set
	if config.KeyExtractor == "" {
		config.KeyExtractor = "ip"
	}
	if config.SweepInterval == "" {
		config.SweepInterval = "10s"
	}
	if config.Policies == nil {
		config.Policies = make(map[string]PolicyConfig)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks if the configuration is valid. The core accepts degenerate
// limits, so validation of operator intent happens here, upstream of it.
func (c *Config) Validate() error {
	if err := c.Defaults.Validate(); err != nil {
		return fmt.Errorf("%w: invalid defaults: %v", ErrInvalidConfig, err)
	}

	for route, policy := range c.Policies {
		if err := policy.Validate(); err != nil {
			return fmt.Errorf("%w: invalid policy for route %s: %v", ErrInvalidConfig, route, err)
		}
	}

	if c.SweepInterval != "" {
		if _, err := time.ParseDuration(c.SweepInterval); err != nil {
			return fmt.Errorf("%w: invalid sweep interval %q: %v", ErrInvalidConfig, c.SweepInterval, err)
		}
	}

	return nil
}

// Validate checks if a PolicyConfig is valid.
func (p *PolicyConfig) Validate() error {
	if p.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if p.RefillRate <= 0 {
		return ErrInvalidRefillRate
	}
	return nil
}

// GetPolicy returns the rate limit policy for a given route, falling back to
// the default policy when no specific one exists.
func (c *Config) GetPolicy(route string) PolicyConfig {
	if policy, exists := c.Policies[route]; exists {
		return policy
	}
	return c.Defaults
}

// SetPolicy sets a rate limit policy for a specific route. Buckets already
// created for the route keep the limits they were created with.
func (c *Config) SetPolicy(route string, policy PolicyConfig) error {
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Policies == nil {
		c.Policies = make(map[string]PolicyConfig)
	}
	c.Policies[route] = policy
	return nil
}

// sweepInterval returns the parsed sweep interval, or the package default
// when unset or invalid.
func (c *Config) sweepInterval() time.Duration {
	if c.SweepInterval == "" {
		return DefaultSweepInterval
	}
	d, err := time.ParseDuration(c.SweepInterval)
	if err != nil || d <= 0 {
		return DefaultSweepInterval
	}
	return d
}
