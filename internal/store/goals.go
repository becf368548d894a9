package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/vault"
)

// Goals tracks named savings targets. Contributions only ever increase the
// accumulated amount; achieved goals stay listed and editable.
type Goals struct {
	vault *vault.Vault

	mu    sync.Mutex
	items []core.Goal
}

func NewGoals(ctx context.Context, v *vault.Vault) *Goals {
	g := &Goals{vault: v}
	loadPartition(ctx, v, vault.PartGoals, &g.items)
	return g
}

// Add validates the goal, assigns a fresh id and persists it.
func (g *Goals) Add(ctx context.Context, goal core.Goal) (string, error) {
	if err := goal.Validate(); err != nil {
		return "", fmt.Errorf("add goal: %w", err)
	}
	goal.ID = uuid.NewString()

	g.mu.Lock()
	defer g.mu.Unlock()
	g.items = append(g.items, goal)
	if err := savePartition(ctx, g.vault, vault.PartGoals, g.items); err != nil {
		return "", err
	}
	return goal.ID, nil
}

// Update replaces the goal matching the id; missing ids are a no-op.
func (g *Goals) Update(ctx context.Context, goal core.Goal) error {
	if goal.ID == "" {
		return nil
	}
	if err := goal.Validate(); err != nil {
		return fmt.Errorf("update goal: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.items {
		if g.items[i].ID == goal.ID {
			g.items[i] = goal
			return savePartition(ctx, g.vault, vault.PartGoals, g.items)
		}
	}
	return nil
}

// Delete removes a goal by id; absent ids are a no-op.
func (g *Goals) Delete(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.items {
		if g.items[i].ID == id {
			g.items = append(g.items[:i], g.items[i+1:]...)
			return savePartition(ctx, g.vault, vault.PartGoals, g.items)
		}
	}
	return nil
}

// Contribute adds a positive amount to a goal's accumulated total. The
// total is never decreased through this path.
func (g *Goals) Contribute(ctx context.Context, id string, amount core.Money) error {
	if err := amount.Validate(); err != nil {
		return fmt.Errorf("contribute: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.items {
		if g.items[i].ID == id {
			g.items[i].CurrentAmount.Cents += amount.Cents
			return savePartition(ctx, g.vault, vault.PartGoals, g.items)
		}
	}
	return nil
}

// List returns a copy of all goals.
func (g *Goals) List() []core.Goal {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]core.Goal(nil), g.items...)
}
