package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment variable the bridge reads
const EnvPrefix = "FOCUSBRIDGE_"

// Config holds all runtime configuration for the bridge, its platform
// backend and the blocked-app store
type Config struct {
	Environment string `env:"ENV"`       // development, production, test
	LogLevel    string `env:"LOG_LEVEL"` // debug, info, warn, error

	// PackageName is the identity whose usage-access grant is checked
	PackageName string `env:"PACKAGE"`

	// ForegroundWindow is the trailing window used to infer the foreground app
	ForegroundWindow time.Duration `env:"FOREGROUND_WINDOW"`

	ADB    ADBConfig    `envPrefix:"ADB_"`
	Labels LabelsConfig `envPrefix:"LABELS_"`
	Store  StoreConfig  `envPrefix:"DB_"`
}

// ADBConfig configures the Android Debug Bridge backend
type ADBConfig struct {
	Path           string        `env:"PATH"`
	Serial         string        `env:"SERIAL"` // empty means the only attached device
	CommandTimeout time.Duration `env:"TIMEOUT"`
}

// LabelsConfig configures store-listing display name lookups
type LabelsConfig struct {
	Enabled bool          `env:"ENABLED"`
	BaseURL string        `env:"BASE_URL"`
	Timeout time.Duration `env:"TIMEOUT"`
}

// StoreConfig configures the blocked-app SQLite store
type StoreConfig struct {
	Path        string `env:"PATH"`
	BusyTimeout int    `env:"BUSY_TIMEOUT"` // milliseconds
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Environment:      "production",
		LogLevel:         "info",
		PackageName:      "com.focusfencer",
		ForegroundWindow: 5 * time.Second,
		ADB: ADBConfig{
			Path:           "adb",
			CommandTimeout: 10 * time.Second,
		},
		Labels: LabelsConfig{
			Enabled: false,
			BaseURL: "https://play.google.com/store/apps/details",
			Timeout: 5 * time.Second,
		},
		Store: StoreConfig{
			Path:        "focusbridge.db",
			BusyTimeout: 5000,
		},
	}
}

// ConfigForEnvironment returns defaults adjusted for the named environment
func ConfigForEnvironment(environment string) *Config {
	cfg := DefaultConfig()
	cfg.Environment = environment

	switch environment {
	case "development":
		cfg.LogLevel = "debug"
		cfg.Store.Path = "focusbridge_dev.db"
	case "test":
		cfg.LogLevel = "warn"
		cfg.Store.Path = ":memory:"
		cfg.ADB.CommandTimeout = 2 * time.Second
	}

	return cfg
}

// Load builds the configuration for environment and overlays FOCUSBRIDGE_*
// variables from the process environment
func Load(environment string) (*Config, error) {
	return LoadFrom(environment, nil)
}

// LoadFrom is Load with an explicit variable set; a nil map reads the
// process environment
func LoadFrom(environment string, vars map[string]string) (*Config, error) {
	cfg := ConfigForEnvironment(environment)

	opts := env.Options{Prefix: EnvPrefix}
	if vars != nil {
		opts.Environment = vars
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the bridge cannot work with
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.PackageName) == "" {
		problems = append(problems, "package name must not be empty")
	}
	if c.ForegroundWindow <= 0 {
		problems = append(problems, "foreground window must be positive")
	}
	if c.ADB.Path == "" {
		problems = append(problems, "adb path must not be empty")
	}
	if c.ADB.CommandTimeout <= 0 {
		problems = append(problems, "adb timeout must be positive")
	}
	if c.Store.Path == "" {
		problems = append(problems, "store path must not be empty")
	}
	if c.Store.BusyTimeout < 0 {
		problems = append(problems, "store busy timeout must not be negative")
	}
	if c.Labels.Enabled && c.Labels.BaseURL == "" {
		problems = append(problems, "labels base url must be set when lookups are enabled")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
