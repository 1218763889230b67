package database

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"focusbridge/internal/config"
)

// Config holds the SQLite connection options for the blocked-app store
type Config struct {
	Path            string        // Database file path, ":memory:" for an in-memory store
	MaxConnections  int           // Maximum number of open connections (capped at 4 for WAL)
	ConnMaxLifetime time.Duration // Maximum connection lifetime
	JournalMode     string        // SQLite journal mode (WAL, DELETE, etc.)
	BusyTimeout     int           // SQLite busy timeout in milliseconds
	ForeignKeys     bool          // Enable foreign key constraints
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path:            "focusbridge.db",
		MaxConnections:  4,
		ConnMaxLifetime: time.Hour,
		JournalMode:     "WAL",
		BusyTimeout:     5000,
		ForeignKeys:     true,
	}
}

// ConfigFromStore builds the connection options from the application config
func ConfigFromStore(store config.StoreConfig) *Config {
	cfg := DefaultConfig()
	cfg.Path = store.Path
	cfg.BusyTimeout = store.BusyTimeout
	if cfg.IsInMemory() {
		cfg.JournalMode = "MEMORY"
	}
	return cfg
}

// IsInMemory reports whether the store lives only in memory
func (c *Config) IsInMemory() bool {
	return c.Path == ":memory:"
}

// Validate checks the options
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("database path is required")
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("busy timeout must not be negative")
	}
	switch strings.ToUpper(c.JournalMode) {
	case "WAL", "DELETE", "TRUNCATE", "PERSIST", "MEMORY", "OFF":
	default:
		return fmt.Errorf("unsupported journal mode %q", c.JournalMode)
	}
	return nil
}

// GetConnectionString builds the go-sqlite3 DSN
func (c *Config) GetConnectionString() string {
	values := url.Values{}
	if c.ForeignKeys {
		values.Set("_foreign_keys", "on")
	} else {
		values.Set("_foreign_keys", "off")
	}
	values.Set("_journal_mode", c.JournalMode)
	values.Set("_busy_timeout", fmt.Sprintf("%d", c.BusyTimeout))

	if c.IsInMemory() {
		return "file::memory:?" + values.Encode()
	}

	// Escape only the characters that would break query string parsing
	path := c.Path
	if strings.ContainsAny(path, "?&") {
		path = strings.ReplaceAll(path, "?", "%3F")
		path = strings.ReplaceAll(path, "&", "%26")
	}
	return path + "?" + values.Encode()
}
