// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agartex Contributors

// Package config loads service configuration from defaults, an optional YAML
// file, and command-line flags, in that order of precedence.
package config

import (
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config is the full service configuration. All values are fixed at startup;
// nothing here is runtime-mutable.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Session  SessionConfig  `koanf:"session"`
	Auth     AuthConfig     `koanf:"auth"`
	Log      LogConfig      `koanf:"log"`
}

// ServerConfig holds the HTTP listen addresses.
type ServerConfig struct {
	Addr        string `koanf:"addr"`
	MetricsAddr string `koanf:"metrics_addr"`
}

// DatabaseConfig holds the PostgreSQL connection string.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// SessionConfig holds the session cookie and lifetime settings.
type SessionConfig struct {
	CookieName      string `koanf:"cookie_name"`
	CookieSecure    bool   `koanf:"cookie_secure"`
	LifetimeSeconds int64  `koanf:"lifetime_seconds"`
}

// Lifetime returns the fixed session lifetime as a duration.
func (s SessionConfig) Lifetime() time.Duration {
	return time.Duration(s.LifetimeSeconds) * time.Second
}

// AuthConfig holds the hashing parameters.
type AuthConfig struct {
	HashCost int `koanf:"hash_cost"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Format string `koanf:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:        ":3000",
			MetricsAddr: "127.0.0.1:9100",
		},
		Database: DatabaseConfig{
			URL: "postgres://localhost:5432/agartex-db",
		},
		Session: SessionConfig{
			CookieName:      "RSESSID",
			CookieSecure:    false,
			LifetimeSeconds: 30 * 24 * 60 * 60,
		},
		Auth: AuthConfig{
			HashCost: 12,
		},
		Log: LogConfig{
			Format: "json",
		},
	}
}

// flagKeys maps CLI flag names to koanf paths. Flags not listed here do not
// participate in configuration.
var flagKeys = map[string]string{
	"addr":             "server.addr",
	"metrics-addr":     "server.metrics_addr",
	"database-url":     "database.url",
	"cookie-name":      "session.cookie_name",
	"cookie-secure":    "session.cookie_secure",
	"session-lifetime": "session.lifetime_seconds",
	"hash-cost":        "auth.hash_cost",
	"log-format":       "log.format",
}

// Load builds the configuration: defaults, overlaid by the YAML file at path
// (when non-empty), overlaid by any changed flags.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("server.addr is required")
	}
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url is required")
	}
	if c.Session.CookieName == "" {
		return oops.Code("CONFIG_INVALID").Errorf("session.cookie_name is required")
	}
	if c.Session.LifetimeSeconds <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("session.lifetime_seconds must be positive")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").
			With("format", c.Log.Format).
			Errorf("log.format must be json or text")
	}
	return nil
}
