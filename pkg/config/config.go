// Package config loads the settings of a service hosting OAuth login flows:
// an optional YAML file overlaid with environment variables.
package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/Suhaibinator/oauthflow/pkg/auth"
)

// Config is the full service configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	// OAuth is keyed by provider name, e.g. "linear".
	OAuth map[string]auth.ProviderConfig `yaml:"oauth"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" env:"SERVER_ADDR"`
}

type LogConfig struct {
	// Env selects the logger preset: "development" or "production".
	Env   string `yaml:"env" env:"APP_ENV"`
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

// Defaults applied after loading.
const (
	DefaultAddr     = ":8080"
	DefaultLogEnv   = "development"
	DefaultLogLevel = "info"
)

// Load reads path (skipped when empty) and then applies environment
// variables, which take precedence. Provider settings are read from
// OAUTH_<PROVIDER>_<FIELD>, e.g. OAUTH_LINEAR_CLIENT_ID, for every name in
// providers and every provider present in the file.
func Load(path string, providers []string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg.Server); err != nil {
		return nil, fmt.Errorf("parse server env: %w", err)
	}
	if err := env.Parse(&cfg.Log); err != nil {
		return nil, fmt.Errorf("parse log env: %w", err)
	}

	if cfg.OAuth == nil {
		cfg.OAuth = make(map[string]auth.ProviderConfig)
	}
	var errs []error
	for _, name := range providerNames(providers, cfg.OAuth) {
		pc := cfg.OAuth[name]
		if err := env.ParseWithOptions(&pc, env.Options{Prefix: EnvPrefix(name)}); err != nil {
			errs = append(errs, fmt.Errorf("parse %s env: %w", name, err))
			continue
		}
		if reflect.ValueOf(pc).IsZero() {
			continue
		}
		cfg.OAuth[name] = pc
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return cfg, nil
}

// providerNames is the sorted union of the requested names and the file entries.
func providerNames(requested []string, fromFile map[string]auth.ProviderConfig) []string {
	names := slices.Collect(maps.Keys(fromFile))
	names = append(names, requested...)
	slices.Sort(names)
	return slices.Compact(names)
}

// EnvPrefix is the environment variable prefix of a provider.
func EnvPrefix(provider string) string {
	return "OAUTH_" + strings.ToUpper(strings.ReplaceAll(provider, "-", "_")) + "_"
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Log.Env == "" {
		c.Log.Env = DefaultLogEnv
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// IsProduction reports whether the production logger preset is selected.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Log.Env, "production") || strings.EqualFold(c.Log.Env, "prod")
}
