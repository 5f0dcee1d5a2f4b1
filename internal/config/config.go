package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config carries settings for both binaries. The server reads Port and the
// AMQP block; the client reads ServerURL, SQLiteDBPath and the sync knobs.
type Config struct {
	// HTTP server
	Port string

	// Client
	ServerURL    string
	SQLiteDBPath string
	HTTPTimeout  time.Duration
	Offline      bool

	// Sync coordinator
	DebounceWindow time.Duration

	// AMQP (optional, server side)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// fileConfig is the optional client-side TOML config file. Environment
// variables win over file values.
type fileConfig struct {
	ServerURL      string `toml:"server_url"`
	DBPath         string `toml:"db_path"`
	DebounceWindow string `toml:"debounce_window"`
	HTTPTimeout    string `toml:"http_timeout"`
	Offline        bool   `toml:"offline"`
}

// Load builds a Config from an optional .env file, the client config file
// and the environment, in that order of increasing precedence.
func Load() *Config {
	// Missing .env is fine; env vars still apply.
	_ = godotenv.Load()

	cfg := &Config{
		Port:           "8090",
		ServerURL:      "http://localhost:8090",
		SQLiteDBPath:   "./data/budgetbox.db",
		HTTPTimeout:    10 * time.Second,
		DebounceWindow: time.Second,
		AMQPExchange:   "budgetbox",
		AMQPQueue:      "budget_synced",
	}

	cfg.applyFile(configFilePath())

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.ServerURL = getEnv("SERVER_URL", cfg.ServerURL)
	cfg.SQLiteDBPath = getEnv("SQLITE_DB_PATH", cfg.SQLiteDBPath)
	cfg.HTTPTimeout = getEnvDuration("HTTP_TIMEOUT", cfg.HTTPTimeout)
	cfg.Offline = getEnvBool("OFFLINE", cfg.Offline)
	cfg.DebounceWindow = getEnvDuration("SYNC_DEBOUNCE", cfg.DebounceWindow)
	cfg.AMQPURL = getEnv("AMQP_URL", cfg.AMQPURL)
	cfg.AMQPExchange = getEnv("AMQP_EXCHANGE", cfg.AMQPExchange)
	cfg.AMQPQueue = getEnv("AMQP_QUEUE", cfg.AMQPQueue)

	return cfg
}

// configFilePath resolves the client config file location. BUDGETBOX_CONFIG
// overrides the default under the user config directory.
func configFilePath() string {
	if p := os.Getenv("BUDGETBOX_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "budgetbox", "config.toml")
}

func (c *Config) applyFile(path string) {
	if path == "" {
		return
	}
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		// Absent or unreadable file falls through to defaults.
		return
	}
	if fc.ServerURL != "" {
		c.ServerURL = fc.ServerURL
	}
	if fc.DBPath != "" {
		c.SQLiteDBPath = fc.DBPath
	}
	if fc.DebounceWindow != "" {
		if d, err := time.ParseDuration(fc.DebounceWindow); err == nil {
			c.DebounceWindow = d
		}
	}
	if fc.HTTPTimeout != "" {
		if d, err := time.ParseDuration(fc.HTTPTimeout); err == nil {
			c.HTTPTimeout = d
		}
	}
	if fc.Offline {
		c.Offline = true
	}
}

// Validate checks the configuration and returns a combined error if invalid.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if u, err := url.Parse(c.ServerURL); err != nil {
		errs = append(errs, fmt.Sprintf("invalid server URL %q: %v", c.ServerURL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, fmt.Sprintf("invalid server URL scheme %q: must be http or https", u.Scheme))
	}

	if c.SQLiteDBPath == "" {
		errs = append(errs, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create database directory %q: %v", dir, err))
				}
			}
		}
	}

	if c.DebounceWindow < 50*time.Millisecond {
		errs = append(errs, fmt.Sprintf("invalid debounce window %v: must be at least 50ms", c.DebounceWindow))
	} else if c.DebounceWindow > time.Minute {
		errs = append(errs, fmt.Sprintf("invalid debounce window %v: must be at most 1 minute", c.DebounceWindow))
	}

	if c.HTTPTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid HTTP timeout %v: must be at least 1 second", c.HTTPTimeout))
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL %q: %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme %q: must be amqp or amqps", u.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
