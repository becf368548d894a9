// Package storage persists named partitions as rows of a single SQLite
// key-value table. Each partition value is an opaque string: raw JSON for
// legacy unencrypted data or ciphertext produced by the codec. The vault
// layer decides which is which; this layer never inspects values.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the raw value of one partition. The second return value is
// false when the partition has never been written.
func (s *SQLite) Get(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM partitions WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get partition %s: %w", name, err)
	}
	return value, true, nil
}

// Put upserts one partition value.
func (s *SQLite) Put(ctx context.Context, name, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO partitions (name, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP`,
		name, value)
	if err != nil {
		return fmt.Errorf("put partition %s: %w", name, err)
	}
	return nil
}

// PutAll upserts every given partition in a single transaction. Used by key
// rotation so an interrupted rotation never leaves partitions under mixed
// keys.
func (s *SQLite) PutAll(ctx context.Context, values map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put-all: %w", err)
	}
	defer tx.Rollback()

	for name, value := range values {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO partitions (name, value, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(name) DO UPDATE SET
				value = excluded.value,
				updated_at = CURRENT_TIMESTAMP`,
			name, value); err != nil {
			return fmt.Errorf("put partition %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put-all: %w", err)
	}

	slog.DebugContext(ctx, "Partitions written", "count", len(values))
	return nil
}

// Delete removes one partition. Deleting an absent partition is a no-op.
func (s *SQLite) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM partitions WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete partition %s: %w", name, err)
	}
	return nil
}

// DeleteAll removes the given partitions in a single transaction.
func (s *SQLite) DeleteAll(ctx context.Context, names []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete-all: %w", err)
	}
	defer tx.Rollback()

	for _, name := range names {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM partitions WHERE name = ?`, name); err != nil {
			return fmt.Errorf("delete partition %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete-all: %w", err)
	}
	return nil
}
