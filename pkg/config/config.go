// Package config loads server configuration from defaults, an optional YAML
// file and ODOOQ_* environment variables, in that order.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/tb0hdan/odoo-query-mcp/pkg/odoo"
	"github.com/tb0hdan/odoo-query-mcp/pkg/period"
)

// EnvPrefix prefixes every environment override. The first underscore after
// it separates the section: ODOOQ_ODOO_API_KEY sets odoo.api_key.
const EnvPrefix = "ODOOQ_"

type Config struct {
	Log       LogConfig                   `koanf:"log"`
	Server    ServerConfig                `koanf:"server"`
	Storage   StorageConfig               `koanf:"storage"`
	Odoo      OdooConfig                  `koanf:"odoo"`
	Tenants   map[string]odoo.Credentials `koanf:"tenants"`
	Retry     RetryConfig                 `koanf:"retry"`
	Cache     CacheConfig                 `koanf:"cache"`
	Period    PeriodConfig                `koanf:"period"`
	Telemetry TelemetryConfig             `koanf:"telemetry"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=trace debug info warn error"`
}

type ServerConfig struct {
	Bind string `koanf:"bind" validate:"required,hostname_port"`
}

type StorageConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// OdooConfig holds the default tenant and its credentials.
type OdooConfig struct {
	Tenant   string        `koanf:"tenant" validate:"required"`
	URL      string        `koanf:"url" validate:"omitempty,url"`
	Database string        `koanf:"database"`
	Username string        `koanf:"username"`
	APIKey   string        `koanf:"api_key"`
	Timeout  time.Duration `koanf:"timeout" validate:"min=0"`
}

type RetryConfig struct {
	MaxAttempts     int           `koanf:"max_attempts" validate:"min=1,max=10"`
	InitialInterval time.Duration `koanf:"initial_interval" validate:"min=0"`
	Multiplier      float64       `koanf:"multiplier" validate:"gte=1"`
	MaxInterval     time.Duration `koanf:"max_interval" validate:"min=0"`
}

type CacheConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Capacity int           `koanf:"capacity" validate:"min=1"`
	TTL      time.Duration `koanf:"ttl" validate:"min=0"`
}

type PeriodConfig struct {
	// Ambiguity is the policy for "desde <mes>" without a year.
	Ambiguity string `koanf:"ambiguity" validate:"omitempty,oneof=reject single_month most_recent"`
}

type TelemetryConfig struct {
	Exporter string        `koanf:"exporter" validate:"omitempty,oneof=none stdout"`
	Interval time.Duration `koanf:"interval" validate:"min=0"`
}

func defaults() map[string]any {
	return map[string]any{
		"log.level":              "info",
		"server.bind":            "localhost:8989",
		"storage.path":           "odoo-query.db",
		"odoo.tenant":            "default",
		"odoo.timeout":           "30s",
		"retry.max_attempts":     3,
		"retry.initial_interval": "1s",
		"retry.multiplier":       2.0,
		"retry.max_interval":     "10s",
		"cache.enabled":          true,
		"cache.capacity":         1024,
		"cache.ttl":              "5m",
		"period.ambiguity":       string(period.AmbiguityReject),
		"telemetry.exporter":     "none",
		"telemetry.interval":     "1m",
	}
}

// envKey maps ODOOQ_RETRY_MAX_ATTEMPTS to retry.max_attempts.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, rest, ok := strings.Cut(s, "_")
	if !ok || rest == "" {
		return ""
	}
	return section + "." + rest
}

// Load reads configuration. path may be empty.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("failed to set default %s: %w", key, err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// RetryPolicy converts the retry section.
func (c *Config) RetryPolicy() odoo.RetryPolicy {
	return odoo.RetryPolicy{
		MaxAttempts:     c.Retry.MaxAttempts,
		InitialInterval: c.Retry.InitialInterval,
		Multiplier:      c.Retry.Multiplier,
		MaxInterval:     c.Retry.MaxInterval,
	}
}

// AmbiguityPolicy returns the configured period ambiguity policy.
func (c *Config) AmbiguityPolicy() period.AmbiguityPolicy {
	p, err := period.ParsePolicy(c.Period.Ambiguity)
	if err != nil {
		return period.AmbiguityReject
	}
	return p
}

// Credentials returns every configured tenant. The odoo section overrides
// a tenants entry with the same name.
func (c *Config) Credentials() map[string]odoo.Credentials {
	out := make(map[string]odoo.Credentials, len(c.Tenants)+1)
	for name, creds := range c.Tenants {
		out[name] = creds
	}
	o := c.Odoo
	if o.URL != "" || o.Database != "" || o.Username != "" || o.APIKey != "" {
		out[o.Tenant] = odoo.Credentials{URL: o.URL, Database: o.Database, Username: o.Username, APIKey: o.APIKey}
	}
	return out
}
