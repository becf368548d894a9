package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	// Database
	SQLiteDBPath string

	// Vault
	Passphrase  string // optional; a remembered key is tried first
	RememberKey bool   // opt-in: persist the passphrase across restarts

	// Recurring engine
	CatchUpOnStart bool

	// Logging
	LogLevel string
}

func Load() *Config {
	return &Config{
		SQLiteDBPath:   getEnv("FINTRACK_DB_PATH", "./data/fintrack.db"),
		Passphrase:     getEnv("FINTRACK_PASSPHRASE", ""),
		RememberKey:    getEnvBool("FINTRACK_REMEMBER_KEY", false),
		CatchUpOnStart: getEnvBool("FINTRACK_CATCHUP_ON_START", true),
		LogLevel:       getEnv("FINTRACK_LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.SQLiteDBPath == "" {
		errors = append(errors, "database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
				}
			}
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
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
