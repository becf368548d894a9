// Package cli provides common initialization for the fintrack command:
// env loading, logging, configuration and storage/vault construction.
package cli

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"

	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/vault"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger initializes structured logging at the configured level and
// sets it as the process default.
func SetupLogger(level string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: "fintrack",
	})
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// InitStorage opens the SQLite partition store, running migrations.
func InitStorage(dbPath string) (*storage.SQLite, error) {
	kv, err := storage.NewSQLite(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initialize storage: %w", err)
	}
	return kv, nil
}

// OpenVault unlocks the vault: a remembered session key is tried first,
// then the configured passphrase. With RememberKey set, the passphrase is
// persisted for future runs after a successful unlock.
func OpenVault(ctx context.Context, cfg *config.Config, kv vault.KV) (*vault.Vault, error) {
	v := vault.New(kv)

	resumed, err := v.ResumeSession(ctx)
	if err != nil && err != vault.ErrWrongPassphrase {
		return nil, fmt.Errorf("resume session: %w", err)
	}
	if resumed {
		return v, nil
	}

	if cfg.Passphrase == "" {
		return nil, fmt.Errorf("vault is locked: set FINTRACK_PASSPHRASE or use --passphrase")
	}
	if err := v.Unlock(ctx, cfg.Passphrase); err != nil {
		return nil, fmt.Errorf("unlock vault: %w", err)
	}

	if cfg.RememberKey {
		if err := v.RememberKey(ctx); err != nil {
			return nil, fmt.Errorf("remember key: %w", err)
		}
	}
	return v, nil
}
