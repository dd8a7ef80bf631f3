// Package config loads linkguard settings from a file, the environment and
// command line flags through viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable viper reads.
const EnvPrefix = "LINKGUARD"

// Config is the full runtime configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Audit     AuditConfig     `mapstructure:"audit" yaml:"audit"`
	Ruleset   string          `mapstructure:"ruleset" yaml:"ruleset"`
	Collector CollectorConfig `mapstructure:"collector" yaml:"collector"`
	Providers ProvidersConfig `mapstructure:"providers" yaml:"providers"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // console or json
}

type ServerConfig struct {
	Listen    string `mapstructure:"listen" yaml:"listen"`
	Dashboard bool   `mapstructure:"dashboard" yaml:"dashboard"`
}

// AuditConfig selects the audit sink. An empty Path writes to stderr.
type AuditConfig struct {
	Path       string `mapstructure:"path" yaml:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

type CollectorConfig struct {
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// ProviderConfig is shared by every collaborator client.
type ProviderConfig struct {
	APIKey    string  `mapstructure:"api_key" yaml:"api_key"`
	BaseURL   string  `mapstructure:"base_url" yaml:"base_url"`
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
}

type SearchConfig struct {
	ProviderConfig `mapstructure:",squash" yaml:",inline"`
	EngineID       string `mapstructure:"engine_id" yaml:"engine_id"`
}

type ProvidersConfig struct {
	SafeBrowsing ProviderConfig `mapstructure:"safebrowsing" yaml:"safebrowsing"`
	VirusTotal   ProviderConfig `mapstructure:"virustotal" yaml:"virustotal"`
	Whois        ProviderConfig `mapstructure:"whois" yaml:"whois"`
	Search       SearchConfig   `mapstructure:"search" yaml:"search"`
}

// legacyEnv maps config keys to the environment names the service has
// always accepted.
var legacyEnv = map[string]string{
	"providers.safebrowsing.api_key": "GOOGLE_SAFE_BROWSING_API_KEY",
	"providers.virustotal.api_key":   "VIRUSTOTAL_API_KEY",
	"providers.whois.api_key":        "WHOIS_API_KEY",
	"providers.search.api_key":       "GOOGLE_CUSTOM_SEARCH_API_KEY",
	"providers.search.engine_id":     "GOOGLE_CUSTOM_SEARCH_CX",
}

// SetDefaults registers every key with its default. Keys must be known to
// viper for AutomaticEnv to reach them during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.dashboard", true)
	v.SetDefault("audit.path", "")
	v.SetDefault("audit.max_size_mb", 100)
	v.SetDefault("audit.max_backups", 10)
	v.SetDefault("audit.max_age_days", 30)
	v.SetDefault("audit.compress", false)
	v.SetDefault("ruleset", "")
	v.SetDefault("collector.timeout", "10s")
	v.SetDefault("collector.user_agent", "linkguard")

	for _, p := range []string{"safebrowsing", "virustotal", "whois", "search"} {
		v.SetDefault("providers."+p+".api_key", "")
		v.SetDefault("providers."+p+".base_url", "")
		v.SetDefault("providers."+p+".rate_limit", 0)
	}
	v.SetDefault("providers.search.engine_id", "")
}

// NewViper returns a viper instance with defaults and environment bindings.
// path may be empty, in which case ./linkguard.yaml is used if present.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("linkguard")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return v, nil
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	if c.Collector.Timeout <= 0 {
		return fmt.Errorf("collector.timeout must be positive, got %s", c.Collector.Timeout)
	}
	if c.Audit.MaxSizeMB < 0 || c.Audit.MaxBackups < 0 || c.Audit.MaxAgeDays < 0 {
		return errors.New("audit rotation settings must not be negative")
	}
	for name, p := range map[string]ProviderConfig{
		"safebrowsing": c.Providers.SafeBrowsing,
		"virustotal":   c.Providers.VirusTotal,
		"whois":        c.Providers.Whois,
		"search":       c.Providers.Search.ProviderConfig,
	} {
		if p.RateLimit < 0 {
			return fmt.Errorf("providers.%s.rate_limit must not be negative", name)
		}
	}
	if c.Providers.Search.APIKey != "" && c.Providers.Search.EngineID == "" {
		return errors.New("providers.search.engine_id is required when the search api_key is set")
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
