// Package store exposes the typed collections backed by vault partitions:
// the financial ledger, the budget and category registries, the goal
// tracker, the recurring-template store and the user profile. Every
// mutation is synchronously visible in memory and persisted to the vault
// before returning.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"fintrack/internal/vault"
)

// loadPartition deserializes one partition into dst. Absent, unreadable and
// malformed partitions all leave dst at its default; corruption is logged
// and never propagated.
func loadPartition(ctx context.Context, v *vault.Vault, name string, dst any) {
	raw := v.LoadPartition(ctx, name)
	if raw == "" {
		return
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		slog.ErrorContext(ctx, "Partition payload malformed, using defaults",
			"partition", name, "error", err)
	}
}

// savePartition serializes value and hands it to the vault.
func savePartition(ctx context.Context, v *vault.Vault, name string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal partition %s: %w", name, err)
	}
	if err := v.SavePartition(ctx, name, string(data)); err != nil {
		return fmt.Errorf("persist partition %s: %w", name, err)
	}
	return nil
}
