// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

// Prefix is prepended to every variable name.
const Prefix = "CREDITGATE_"

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr      string        `env:"LISTEN_ADDR" envDefault:"127.0.0.1:6969"`
	StoreDriver     string        `env:"STORE_DRIVER" envDefault:"sqlite"`
	DBPath          string        `env:"DB_PATH" envDefault:"creditgate.db"`
	MongoURI        string        `env:"MONGO_URI"`
	MongoDatabase   string        `env:"MONGO_DATABASE" envDefault:"creditgate"`
	SecretKeyHex    string        `env:"SECRET_KEY"`
	BankBaseURL     string        `env:"BANK_BASE_URL"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"30s"`
	RenewalInterval time.Duration `env:"RENEWAL_INTERVAL" envDefault:"0s"`
	OTelEndpoint    string        `env:"OTEL_ENDPOINT"`
	MetricsEnabled  bool          `env:"METRICS_ENABLED" envDefault:"true"`

	// SecretKey is the decoded SecretKeyHex: 32 bytes, or nil when unset.
	SecretKey []byte `env:"-"`
}

// HasBank reports whether a downstream bridge is configured.
func (c *Config) HasBank() bool {
	return c.BankBaseURL != ""
}

// Load reads configuration from CREDITGATE_* environment variables and
// returns a validated Config.
//
// CREDITGATE_SECRET_KEY (64 hex chars) is required for the sqlite driver,
// which seals linked-account material with it. CREDITGATE_MONGO_URI is
// required for the mongo driver. CREDITGATE_BANK_BASE_URL is required unless
// the memory driver is used.
func Load() (*Config, error) {
	cfg, err := parse()
	if err != nil {
		return nil, err
	}

	if err := cfg.validateStore(); err != nil {
		return nil, err
	}
	if err := cfg.validateServer(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadStore is Load for tools that only touch the credential store. Server
// settings are parsed but not validated.
func LoadStore() (*Config, error) {
	cfg, err := parse()
	if err != nil {
		return nil, err
	}

	if err := cfg.validateStore(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parse() (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validateStore() error {
	switch c.StoreDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return errors.New(Prefix + "DB_PATH must not be empty")
		}
		if c.SecretKeyHex == "" {
			return errors.New(Prefix + "SECRET_KEY is required for the sqlite driver")
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New(Prefix + "MONGO_URI is required for the mongo driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("%sSTORE_DRIVER has invalid value %q: want sqlite, mongo or memory", Prefix, c.StoreDriver)
	}

	if c.SecretKeyHex != "" {
		key, err := hex.DecodeString(c.SecretKeyHex)
		if err != nil {
			return fmt.Errorf("%sSECRET_KEY is not valid hex: %w", Prefix, err)
		}
		if len(key) != 32 {
			return fmt.Errorf("%sSECRET_KEY must decode to 32 bytes, got %d", Prefix, len(key))
		}
		c.SecretKey = key
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.BankBaseURL == "" && c.StoreDriver != DriverMemory {
		return errors.New(Prefix + "BANK_BASE_URL is required")
	}
	if c.BankBaseURL != "" {
		u, err := url.Parse(c.BankBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%sBANK_BASE_URL has invalid value %q: want an http(s) URL", Prefix, c.BankBaseURL)
		}
	}

	if c.UpstreamTimeout < 0 {
		return fmt.Errorf("%sUPSTREAM_TIMEOUT must not be negative, got %s", Prefix, c.UpstreamTimeout)
	}
	if c.RenewalInterval < 0 {
		return fmt.Errorf("%sRENEWAL_INTERVAL must not be negative, got %s", Prefix, c.RenewalInterval)
	}
	return nil
}
