// Package config provides configuration types for the intent resolver.
//
// Configuration is file-based with environment overrides. The resolver
// itself holds no state between requests, so the schema only covers how
// times are resolved, how drafts are matched, and which policy rules guard
// the resulting actions.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Resolver modes.
const (
	// ModeOracle resolves free-form time expressions through an
	// OpenAI-compatible chat completions endpoint.
	ModeOracle = "oracle"
	// ModeOffline only accepts strict timestamps and UTC offsets. No network.
	ModeOffline = "offline"
)

// Config is the top-level configuration for the intent resolver.
type Config struct {
	// Log configures the slog handler.
	Log LogConfig `yaml:"log" mapstructure:"log"`

	// Resolver configures how time expressions are resolved.
	Resolver ResolverConfig `yaml:"resolver" mapstructure:"resolver"`

	// Cache configures memoization of time resolutions.
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`

	// Matching tunes function matching and reference inference.
	Matching MatchingConfig `yaml:"matching" mapstructure:"matching"`

	// DefaultTimezone is used when a request carries no timezone.
	// Accepts IANA names and UTC/GMT offsets. Defaults to "UTC".
	DefaultTimezone string `yaml:"default_timezone" mapstructure:"default_timezone" validate:"required,timezone_id"`

	// Policies are CEL rules evaluated against every canonical action.
	// An action matching any rule's condition is rejected.
	Policies []PolicyConfig `yaml:"policies" mapstructure:"policies" validate:"omitempty,dive"`

	// DevMode enables debug logging and the offline resolver when no
	// oracle endpoint is configured.
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Defaults to "info". DevMode=true overrides to "debug".
	Level string `yaml:"level" mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error"`

	// Format selects the handler: "text" or "json". Defaults to "text".
	Format string `yaml:"format" mapstructure:"format" validate:"omitempty,oneof=text json"`
}

// ResolverConfig configures time resolution.
type ResolverConfig struct {
	// Mode is "oracle" or "offline". Defaults to "oracle".
	Mode string `yaml:"mode" mapstructure:"mode" validate:"required,oneof=oracle offline"`

	// BaseURL is the API base, e.g. "https://api.openai.com/v1".
	// Required in oracle mode.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"required_if=Mode oracle,omitempty,url"`

	// Model is the chat model name. Required in oracle mode.
	Model string `yaml:"model" mapstructure:"model" validate:"required_if=Mode oracle"`

	// APIKey is sent as a bearer token. Prefer INTENT_RESOLVER_RESOLVER_API_KEY.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`

	// Timeout bounds one resolution call (e.g. "15s"). Defaults to "15s".
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"omitempty,duration"`
}

// CacheConfig configures the time resolution cache.
type CacheConfig struct {
	// Enabled turns the cache on or off. Defaults to true.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Size is the maximum number of cached resolutions. Defaults to 1000.
	Size int `yaml:"size" mapstructure:"size" validate:"omitempty,min=1"`

	// TTL is how long an entry stays valid (e.g. "10m"). Defaults to "10m".
	TTL string `yaml:"ttl" mapstructure:"ttl" validate:"omitempty,duration"`
}

// MatchingConfig tunes matching.
type MatchingConfig struct {
	// FuzzyThreshold is the minimum title similarity in (0, 1].
	// Defaults to 0.6.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold" validate:"omitempty,gt=0,lte=1"`

	// ConfirmWindow is how many recent turns are scanned for a destructive
	// request when inferring delete confirmation. Defaults to 2.
	ConfirmWindow int `yaml:"confirm_window" mapstructure:"confirm_window" validate:"omitempty,min=1"`
}

// PolicyConfig defines a single action policy rule.
type PolicyConfig struct {
	// Name identifies the rule in rejection messages. Must be unique.
	Name string `yaml:"name" mapstructure:"name" validate:"required"`

	// Condition is a CEL expression over operation, category, fields and
	// index. True means the action is rejected.
	Condition string `yaml:"condition" mapstructure:"condition" validate:"required"`

	// Message is reported with the rejection. Defaults to "blocked by policy".
	Message string `yaml:"message" mapstructure:"message"`
}

// SetDevDefaults applies permissive defaults for development mode.
// These defaults are applied BEFORE validation so required fields are satisfied.
func (c *Config) SetDevDefaults() {
	if !c.DevMode {
		return
	}

	c.Log.Level = "debug"

	// Without an endpoint there is nothing to call; stay offline.
	if c.Resolver.Mode == ModeOracle && c.Resolver.BaseURL == "" {
		c.Resolver.Mode = ModeOffline
	}
}

// SetDefaults applies sensible default values to the configuration.
func (c *Config) SetDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Resolver.Mode == "" {
		c.Resolver.Mode = ModeOracle
	}
	if c.Resolver.Timeout == "" {
		c.Resolver.Timeout = "15s"
	}

	// viper.IsSet distinguishes "not set" (zero value) from "explicitly false".
	if !viper.IsSet("cache.enabled") {
		c.Cache.Enabled = true
	}
	if c.Cache.Size == 0 {
		c.Cache.Size = 1000
	}
	if c.Cache.TTL == "" {
		c.Cache.TTL = "10m"
	}

	if c.Matching.FuzzyThreshold == 0 {
		c.Matching.FuzzyThreshold = 0.6
	}
	if c.Matching.ConfirmWindow == 0 {
		c.Matching.ConfirmWindow = 2
	}

	if c.DefaultTimezone == "" {
		c.DefaultTimezone = "UTC"
	}
}

// ResolverTimeout returns the parsed resolver timeout, or zero if unset.
func (c *Config) ResolverTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Resolver.Timeout)
	return d
}

// CacheTTL returns the parsed cache TTL, or zero if unset.
func (c *Config) CacheTTL() time.Duration {
	d, _ := time.ParseDuration(c.Cache.TTL)
	return d
}
