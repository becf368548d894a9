package services

import (
	"context"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/store"
	"fintrack/internal/vault"
)

func newEngine(t *testing.T) (*RecurringEngine, *store.Templates, *store.Ledger) {
	t.Helper()
	ctx := context.Background()
	v := vault.New(storage.NewMemory())
	if err := v.Unlock(ctx, "test-pw"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	templates := store.NewTemplates(ctx, v)
	ledger := store.NewLedger(ctx, v)
	return NewRecurringEngine(templates, ledger), templates, ledger
}

func TestNextOccurrence(t *testing.T) {
	cases := []struct {
		name string
		in   core.Date
		freq core.Frequency
		want core.Date
	}{
		{"daily", core.NewDate(2024, 1, 15), core.Daily, core.NewDate(2024, 1, 16)},
		{"weekly", core.NewDate(2024, 1, 15), core.Weekly, core.NewDate(2024, 1, 22)},
		{"biweekly", core.NewDate(2024, 1, 15), core.Biweekly, core.NewDate(2024, 1, 29)},
		{"threeweekly", core.NewDate(2024, 1, 15), core.ThreeWeekly, core.NewDate(2024, 2, 5)},
		{"monthly", core.NewDate(2024, 1, 15), core.Monthly, core.NewDate(2024, 2, 15)},
		{"monthly clamped", core.NewDate(2024, 1, 31), core.Monthly, core.NewDate(2024, 2, 29)},
		{"monthly clamped non-leap", core.NewDate(2023, 1, 31), core.Monthly, core.NewDate(2023, 2, 28)},
		{"yearly", core.NewDate(2024, 3, 10), core.Yearly, core.NewDate(2025, 3, 10)},
		{"yearly leap clamped", core.NewDate(2024, 2, 29), core.Yearly, core.NewDate(2025, 2, 28)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NextOccurrence(tc.in, tc.freq)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}

	if _, err := NextOccurrence(core.NewDate(2024, 1, 1), "hourly"); err == nil {
		t.Fatal("unknown frequency accepted")
	}
}

func TestCatchUpEmitsEveryMissedOccurrence(t *testing.T) {
	ctx := context.Background()
	engine, templates, ledger := newEngine(t)

	today := core.NewDate(2024, 6, 10)
	start := core.NewDate(2024, 6, 5)
	id, err := templates.Add(ctx, core.RecurringTemplate{
		Kind:        core.KindExpense,
		Amount:      core.Money{Cents: 450},
		Label:       "Food",
		Description: "morning coffee",
		Frequency:   core.Daily,
		StartDate:   start,
	})
	if err != nil {
		t.Fatalf("add template: %v", err)
	}

	emitted, err := engine.CatchUp(ctx, today)
	if err != nil {
		t.Fatalf("catch up: %v", err)
	}
	if emitted != 6 {
		t.Fatalf("emitted = %d, want one record per day from start through today", emitted)
	}

	records := ledger.List(core.KindExpense)
	if len(records) != 6 {
		t.Fatalf("ledger holds %d records, want 6", len(records))
	}
	for i, r := range records {
		want := start.AddDays(i)
		if !r.Date.Equal(want) {
			t.Errorf("record %d dated %s, want %s", i, r.Date, want)
		}
		if r.Description != "(Recurring) morning coffee" {
			t.Errorf("record %d description = %q", i, r.Description)
		}
		if r.Amount.Cents != 450 || r.Label != "Food" || r.Kind != core.KindExpense {
			t.Errorf("record %d does not mirror the template: %+v", i, r)
		}
	}

	var tmpl core.RecurringTemplate
	for _, cand := range templates.List() {
		if cand.ID == id {
			tmpl = cand
		}
	}
	if !tmpl.LastProcessedDate.Equal(today) {
		t.Fatalf("cursor at %s, want %s", tmpl.LastProcessedDate, today)
	}
}

func TestCatchUpIdempotent(t *testing.T) {
	ctx := context.Background()
	engine, templates, ledger := newEngine(t)

	today := core.NewDate(2024, 6, 10)
	if _, err := templates.Add(ctx, core.RecurringTemplate{
		Kind:      core.KindIncome,
		Amount:    core.Money{Cents: 250000},
		Label:     "Salary",
		Frequency: core.Monthly,
		StartDate: core.NewDate(2024, 4, 1),
	}); err != nil {
		t.Fatalf("add template: %v", err)
	}

	first, err := engine.CatchUp(ctx, today)
	if err != nil || first != 3 {
		t.Fatalf("first pass = %d, %v; want 3 (apr, may, jun)", first, err)
	}
	second, err := engine.CatchUp(ctx, today)
	if err != nil || second != 0 {
		t.Fatalf("second pass = %d, %v; want 0", second, err)
	}
	if n := len(ledger.List(core.KindIncome)); n != 3 {
		t.Fatalf("ledger holds %d records after double pass, want 3", n)
	}
}

func TestCatchUpStopsAtEndDate(t *testing.T) {
	ctx := context.Background()
	engine, templates, ledger := newEngine(t)

	if _, err := templates.Add(ctx, core.RecurringTemplate{
		Kind:      core.KindExpense,
		Amount:    core.Money{Cents: 2999},
		Label:     "Entertainment",
		Frequency: core.Monthly,
		StartDate: core.NewDate(2024, 1, 15),
		EndDate:   core.NewDate(2024, 3, 20),
	}); err != nil {
		t.Fatalf("add template: %v", err)
	}

	emitted, err := engine.CatchUp(ctx, core.NewDate(2024, 6, 1))
	if err != nil {
		t.Fatalf("catch up: %v", err)
	}
	if emitted != 3 {
		t.Fatalf("emitted = %d, want jan/feb/mar only", emitted)
	}
	records := ledger.List(core.KindExpense)
	last := records[len(records)-1]
	if !last.Date.Equal(core.NewDate(2024, 3, 15)) {
		t.Fatalf("last occurrence at %s, want 2024-03-15", last.Date)
	}
}

func TestCatchUpFutureStartEmitsNothing(t *testing.T) {
	ctx := context.Background()
	engine, templates, ledger := newEngine(t)

	if _, err := templates.Add(ctx, core.RecurringTemplate{
		Kind:      core.KindExpense,
		Amount:    core.Money{Cents: 100},
		Label:     "Other",
		Frequency: core.Daily,
		StartDate: core.NewDate(2024, 7, 1),
	}); err != nil {
		t.Fatalf("add template: %v", err)
	}

	emitted, err := engine.CatchUp(ctx, core.NewDate(2024, 6, 1))
	if err != nil || emitted != 0 {
		t.Fatalf("emitted = %d, %v; want 0 for a future start date", emitted, err)
	}
	if n := len(ledger.List(core.KindExpense)); n != 0 {
		t.Fatalf("ledger holds %d records, want 0", n)
	}
}

func TestCatchUpPausedAndResumed(t *testing.T) {
	ctx := context.Background()
	engine, templates, ledger := newEngine(t)

	id, err := templates.Add(ctx, core.RecurringTemplate{
		Kind:      core.KindExpense,
		Amount:    core.Money{Cents: 1500},
		Label:     "Transport",
		Frequency: core.Weekly,
		StartDate: core.NewDate(2024, 5, 6),
	})
	if err != nil {
		t.Fatalf("add template: %v", err)
	}
	if err := templates.SetActive(ctx, id, false); err != nil {
		t.Fatalf("pause: %v", err)
	}

	emitted, err := engine.CatchUp(ctx, core.NewDate(2024, 6, 3))
	if err != nil || emitted != 0 {
		t.Fatalf("paused template emitted %d, %v; want 0", emitted, err)
	}

	// Reactivation resumes from the frozen cursor and emits the full
	// backlog in one pass.
	if err := templates.SetActive(ctx, id, true); err != nil {
		t.Fatalf("resume: %v", err)
	}
	emitted, err = engine.CatchUp(ctx, core.NewDate(2024, 6, 3))
	if err != nil || emitted != 5 {
		t.Fatalf("resumed template emitted %d, %v; want 5 weekly occurrences", emitted, err)
	}
	if n := len(ledger.List(core.KindExpense)); n != 5 {
		t.Fatalf("ledger holds %d records, want 5", n)
	}
}

func TestCatchUpMonthlyClampDrift(t *testing.T) {
	ctx := context.Background()
	engine, templates, ledger := newEngine(t)

	// A template anchored on the 31st drifts to the clamped day once it
	// crosses a shorter month: jan 31, feb 29, mar 29.
	if _, err := templates.Add(ctx, core.RecurringTemplate{
		Kind:      core.KindExpense,
		Amount:    core.Money{Cents: 90000},
		Label:     "Rent",
		Frequency: core.Monthly,
		StartDate: core.NewDate(2024, 1, 31),
	}); err != nil {
		t.Fatalf("add template: %v", err)
	}

	emitted, err := engine.CatchUp(ctx, core.NewDate(2024, 3, 31))
	if err != nil || emitted != 3 {
		t.Fatalf("emitted = %d, %v; want 3", emitted, err)
	}
	want := []core.Date{
		core.NewDate(2024, 1, 31),
		core.NewDate(2024, 2, 29),
		core.NewDate(2024, 3, 29),
	}
	records := ledger.List(core.KindExpense)
	for i, w := range want {
		if !records[i].Date.Equal(w) {
			t.Errorf("occurrence %d at %s, want %s", i, records[i].Date, w)
		}
	}
}

func TestCatchUpMultipleTemplates(t *testing.T) {
	ctx := context.Background()
	engine, templates, ledger := newEngine(t)

	today := core.NewDate(2024, 6, 3)
	if _, err := templates.Add(ctx, core.RecurringTemplate{
		Kind:      core.KindExpense,
		Amount:    core.Money{Cents: 450},
		Label:     "Food",
		Frequency: core.Daily,
		StartDate: core.NewDate(2024, 6, 1),
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := templates.Add(ctx, core.RecurringTemplate{
		Kind:      core.KindIncome,
		Amount:    core.Money{Cents: 250000},
		Label:     "Salary",
		Frequency: core.Monthly,
		StartDate: core.NewDate(2024, 6, 1),
	}); err != nil {
		t.Fatal(err)
	}

	emitted, err := engine.CatchUp(ctx, today)
	if err != nil || emitted != 4 {
		t.Fatalf("emitted = %d, %v; want 3 daily + 1 monthly", emitted, err)
	}
	if n := len(ledger.List(core.KindExpense)); n != 3 {
		t.Fatalf("%d expense records, want 3", n)
	}
	if n := len(ledger.List(core.KindIncome)); n != 1 {
		t.Fatalf("%d income records, want 1", n)
	}
}
