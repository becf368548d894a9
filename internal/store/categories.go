package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/vault"
)

// Default name lists seeded at first run.
var (
	defaultExpenseCategories = []string{
		"Food", "Transport", "Utilities", "Entertainment", "Shopping",
		"Healthcare", "Education", "Rent", "Other",
	}
	defaultIncomeSources = []string{
		"Salary", "Freelance", "Investment", "Gift", "Refund", "Other",
	}
)

// Categories holds the two independent ordered name lists: expense
// categories and income sources. Membership is advisory only; the ledger
// never enforces it.
type Categories struct {
	vault *vault.Vault

	mu      sync.Mutex
	expense []string
	income  []string
}

func NewCategories(ctx context.Context, v *vault.Vault) *Categories {
	c := &Categories{vault: v}
	loadPartition(ctx, v, vault.PartExpenseCategories, &c.expense)
	loadPartition(ctx, v, vault.PartIncomeSources, &c.income)
	if len(c.expense) == 0 {
		c.expense = append([]string(nil), defaultExpenseCategories...)
	}
	if len(c.income) == 0 {
		c.income = append([]string(nil), defaultIncomeSources...)
	}
	return c
}

// Add appends a name to the list for the given kind. Adding an
// already-present name is a no-op.
func (c *Categories) Add(ctx context.Context, kind core.Kind, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("add category: %w", core.ErrEmptyName)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.list(kind)
	for _, existing := range *list {
		if existing == name {
			return nil
		}
	}
	*list = append(*list, name)
	return c.persist(ctx, kind)
}

// Remove deletes a name from the list for the given kind. Records that
// reference the name are left as they are; no cascade.
func (c *Categories) Remove(ctx context.Context, kind core.Kind, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.list(kind)
	for i, existing := range *list {
		if existing == name {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return c.persist(ctx, kind)
		}
	}
	return nil
}

// List returns a copy of the names for one kind, in insertion order.
func (c *Categories) List(kind core.Kind) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), *c.list(kind)...)
}

func (c *Categories) list(kind core.Kind) *[]string {
	if kind == core.KindIncome {
		return &c.income
	}
	return &c.expense
}

func (c *Categories) persist(ctx context.Context, kind core.Kind) error {
	if kind == core.KindIncome {
		return savePartition(ctx, c.vault, vault.PartIncomeSources, c.income)
	}
	return savePartition(ctx, c.vault, vault.PartExpenseCategories, c.expense)
}
