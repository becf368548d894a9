package core

import (
	"errors"
	"strings"
)

const (
	Daily       Frequency = "daily"
	Weekly      Frequency = "weekly"
	Biweekly    Frequency = "biweekly"
	ThreeWeekly Frequency = "threeweekly"
	Monthly     Frequency = "monthly"
	Yearly      Frequency = "yearly"
)

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

type (
	// Frequency is the repetition cadence of a recurring template.
	Frequency string

	// Kind distinguishes the two sides of the ledger.
	Kind string

	Money struct {
		Cents int64
	}

	// Transaction is a single ledger record. Label holds the expense
	// category or the income source depending on Kind.
	Transaction struct {
		ID          string `json:"id"`
		Kind        Kind   `json:"kind"`
		Amount      Money  `json:"amount"`
		Label       string `json:"label"`
		Date        Date   `json:"date"`
		Description string `json:"description,omitempty"`
	}

	// RecurringTemplate describes a repeating transaction. The concrete
	// transactions it generates are ordinary ledger records and survive
	// deletion of the template.
	RecurringTemplate struct {
		ID                string    `json:"id"`
		Kind              Kind      `json:"kind"`
		Amount            Money     `json:"amount"`
		Label             string    `json:"label"`
		Frequency         Frequency `json:"frequency"`
		StartDate         Date      `json:"startDate"`
		EndDate           Date      `json:"endDate,omitempty"`
		LastProcessedDate Date      `json:"lastProcessedDate,omitempty"`
		Description       string    `json:"description,omitempty"`
		IsActive          bool      `json:"isActive"`
	}

	// Budget is a monthly spending limit for one expense category.
	Budget struct {
		Category string `json:"category"`
		Limit    Money  `json:"limit"`
	}

	// Goal is a named savings target. CurrentAmount only ever grows via
	// contributions; an achieved goal stays visible and editable.
	Goal struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		TargetAmount  Money  `json:"targetAmount"`
		CurrentAmount Money  `json:"currentAmount"`
		Deadline      Date   `json:"deadline,omitempty"`
		Category      string `json:"category,omitempty"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrEmptyLabel       = errors.New("empty category or source")
	ErrEmptyName        = errors.New("empty name")
)

func (k Kind) Validate() error {
	switch k {
	case KindExpense, KindIncome:
		return nil
	default:
		return errors.New("invalid transaction kind")
	}
}

func (f Frequency) Validate() error {
	switch f {
	case Daily, Weekly, Biweekly, ThreeWeekly, Monthly, Yearly:
		return nil
	default:
		return ErrInvalidFrequency
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Label) == "" {
		return ErrEmptyLabel
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (rt RecurringTemplate) Validate() error {
	if err := rt.Kind.Validate(); err != nil {
		return err
	}
	if err := rt.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(rt.Label) == "" {
		return ErrEmptyLabel
	}
	if err := rt.Frequency.Validate(); err != nil {
		return err
	}
	if rt.StartDate.IsZero() {
		return errors.New("invalid start date")
	}
	if !rt.EndDate.IsZero() && rt.EndDate.Before(rt.StartDate) {
		return errors.New("end date must not precede start date")
	}
	if len(rt.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyLabel
	}
	return b.Limit.Validate()
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	return g.TargetAmount.Validate()
}

// Achieved reports whether the goal's contributions have reached its target.
func (g Goal) Achieved() bool {
	return g.CurrentAmount.Cents >= g.TargetAmount.Cents
}
