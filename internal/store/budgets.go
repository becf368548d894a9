package store

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/vault"
)

// Budgets maps expense categories to monthly limits. Setting a budget for
// an existing category overwrites its amount; no history is retained.
type Budgets struct {
	vault *vault.Vault

	mu    sync.Mutex
	items []core.Budget
}

func NewBudgets(ctx context.Context, v *vault.Vault) *Budgets {
	b := &Budgets{vault: v}
	loadPartition(ctx, v, vault.PartBudgets, &b.items)
	return b
}

// Set upserts the monthly limit for a category.
func (b *Budgets) Set(ctx context.Context, category string, limit core.Money) error {
	budget := core.Budget{Category: category, Limit: limit}
	if err := budget.Validate(); err != nil {
		return fmt.Errorf("set budget: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.items {
		if b.items[i].Category == category {
			b.items[i].Limit = limit
			return savePartition(ctx, b.vault, vault.PartBudgets, b.items)
		}
	}
	b.items = append(b.items, budget)
	return savePartition(ctx, b.vault, vault.PartBudgets, b.items)
}

// Remove deletes the budget for a category; absent categories are a no-op.
func (b *Budgets) Remove(ctx context.Context, category string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.items {
		if b.items[i].Category == category {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return savePartition(ctx, b.vault, vault.PartBudgets, b.items)
		}
	}
	return nil
}

// Get returns the limit for a category.
func (b *Budgets) Get(category string) (core.Money, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, item := range b.items {
		if item.Category == category {
			return item.Limit, true
		}
	}
	return core.Money{}, false
}

// List returns a copy of all budgets in stable order.
func (b *Budgets) List() []core.Budget {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]core.Budget(nil), b.items...)
}
