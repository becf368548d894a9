package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/vault"
)

// Ledger holds the ordered expense and income collections. Append order is
// storage order; display ordering is a reporting concern.
type Ledger struct {
	vault *vault.Vault

	mu       sync.Mutex
	expenses []core.Transaction
	incomes  []core.Transaction
}

func NewLedger(ctx context.Context, v *vault.Vault) *Ledger {
	l := &Ledger{vault: v}
	loadPartition(ctx, v, vault.PartExpenses, &l.expenses)
	loadPartition(ctx, v, vault.PartIncomes, &l.incomes)
	return l
}

// Add validates the record, assigns a fresh id, appends it to the
// collection for its kind and persists. Returns the assigned id.
func (l *Ledger) Add(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("add transaction: %w", err)
	}
	t.ID = uuid.NewString()

	l.mu.Lock()
	defer l.mu.Unlock()

	bucket := l.bucket(t.Kind)
	*bucket = append(*bucket, t)
	if err := l.persist(ctx, t.Kind); err != nil {
		return "", err
	}
	return t.ID, nil
}

// Update replaces the full record matching the id of t. Updating a missing
// id is a no-op. The record's kind cannot change.
func (l *Ledger) Update(ctx context.Context, t core.Transaction) error {
	if t.ID == "" {
		return nil
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bucket := l.bucket(t.Kind)
	for i := range *bucket {
		if (*bucket)[i].ID == t.ID {
			(*bucket)[i] = t
			return l.persist(ctx, t.Kind)
		}
	}
	return nil
}

// Delete removes the record with the given id from either collection.
// Deletion is permanent and immediate; absent ids are a no-op.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, kind := range []core.Kind{core.KindExpense, core.KindIncome} {
		bucket := l.bucket(kind)
		for i := range *bucket {
			if (*bucket)[i].ID == id {
				*bucket = append((*bucket)[:i], (*bucket)[i+1:]...)
				return l.persist(ctx, kind)
			}
		}
	}
	return nil
}

// Get returns the record with the given id.
func (l *Ledger) Get(id string) (core.Transaction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, bucket := range []*[]core.Transaction{&l.expenses, &l.incomes} {
		for _, t := range *bucket {
			if t.ID == id {
				return t, true
			}
		}
	}
	return core.Transaction{}, false
}

// List returns a copy of the collection for one kind.
func (l *Ledger) List(kind core.Kind) []core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Transaction(nil), *l.bucket(kind)...)
}

func (l *Ledger) bucket(kind core.Kind) *[]core.Transaction {
	if kind == core.KindIncome {
		return &l.incomes
	}
	return &l.expenses
}

func (l *Ledger) persist(ctx context.Context, kind core.Kind) error {
	if kind == core.KindIncome {
		return savePartition(ctx, l.vault, vault.PartIncomes, l.incomes)
	}
	return savePartition(ctx, l.vault, vault.PartExpenses, l.expenses)
}
