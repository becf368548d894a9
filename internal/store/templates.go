package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/vault"
)

// Templates holds the recurring-transaction templates. LastProcessedDate is
// mutated exclusively by the recurring engine; deleting a template leaves
// its already-emitted ledger records in place.
type Templates struct {
	vault *vault.Vault

	mu    sync.Mutex
	items []core.RecurringTemplate
}

func NewTemplates(ctx context.Context, v *vault.Vault) *Templates {
	t := &Templates{vault: v}
	loadPartition(ctx, v, vault.PartRecurring, &t.items)
	return t
}

// Add validates the template, assigns a fresh id, activates it and
// persists. LastProcessedDate starts unset so the engine begins the
// catch-up cursor at StartDate.
func (t *Templates) Add(ctx context.Context, tmpl core.RecurringTemplate) (string, error) {
	tmpl.IsActive = true
	tmpl.LastProcessedDate = core.Date{}
	if err := tmpl.Validate(); err != nil {
		return "", fmt.Errorf("add template: %w", err)
	}
	tmpl.ID = uuid.NewString()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, tmpl)
	if err := savePartition(ctx, t.vault, vault.PartRecurring, t.items); err != nil {
		return "", err
	}
	return tmpl.ID, nil
}

// Update replaces the template matching the id; missing ids are a no-op.
func (t *Templates) Update(ctx context.Context, tmpl core.RecurringTemplate) error {
	if tmpl.ID == "" {
		return nil
	}
	if err := tmpl.Validate(); err != nil {
		return fmt.Errorf("update template: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.items {
		if t.items[i].ID == tmpl.ID {
			t.items[i] = tmpl
			return savePartition(ctx, t.vault, vault.PartRecurring, t.items)
		}
	}
	return nil
}

// SetActive toggles a template. A deactivated template keeps its cursor
// frozen; reactivation resumes catch-up from there, possibly emitting a
// large backlog at once.
func (t *Templates) SetActive(ctx context.Context, id string, active bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.items {
		if t.items[i].ID == id {
			t.items[i].IsActive = active
			return savePartition(ctx, t.vault, vault.PartRecurring, t.items)
		}
	}
	return nil
}

// Delete removes a template by id; absent ids are a no-op.
func (t *Templates) Delete(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.items {
		if t.items[i].ID == id {
			t.items = append(t.items[:i], t.items[i+1:]...)
			return savePartition(ctx, t.vault, vault.PartRecurring, t.items)
		}
	}
	return nil
}

// List returns a copy of all templates.
func (t *Templates) List() []core.RecurringTemplate {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]core.RecurringTemplate(nil), t.items...)
}
