// Package report derives read-only views over the ledger: time-window
// filtering, per-label totals, month-over-month comparison, running
// balances and budget status. Everything here is a pure function consumed
// by the presentation layer; nothing mutates state.
package report

import (
	"sort"

	"fintrack/internal/core"
)

// Period is a symbolic reporting window.
type Period string

const (
	PeriodThisMonth   Period = "this-month"
	PeriodLastNMonths Period = "last-n-months"
	PeriodThisYear    Period = "this-year"
	PeriodAllTime     Period = "all-time"
)

// Window resolves a symbolic period to inclusive day bounds relative to
// today. A zero bound means unbounded on that side. months is only
// consulted for PeriodLastNMonths.
func Window(p Period, months int, today core.Date) (start, end core.Date) {
	switch p {
	case PeriodThisMonth:
		return today.MonthStart(), today.MonthEnd()
	case PeriodLastNMonths:
		if months < 1 {
			months = 1
		}
		return today.MonthStart().AddMonths(-(months - 1)), today.MonthEnd()
	case PeriodThisYear:
		return core.NewDate(today.Year(), 1, 1), core.NewDate(today.Year(), 12, 31)
	default:
		return core.Date{}, core.Date{}
	}
}

// Filter returns the records dated within [start, end] inclusive. Zero
// bounds leave that side open.
func Filter(txs []core.Transaction, start, end core.Date) []core.Transaction {
	var out []core.Transaction
	for _, t := range txs {
		if !start.IsZero() && t.Date.Before(start) {
			continue
		}
		if !end.IsZero() && t.Date.After(end) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Total sums the amounts of the given records.
func Total(txs []core.Transaction) core.Money {
	var cents int64
	for _, t := range txs {
		cents += t.Amount.Cents
	}
	return core.Money{Cents: cents}
}

// LabelTotal is an amount aggregated by category or source name.
type LabelTotal struct {
	Label string
	Total core.Money
}

// TotalsByLabel groups records by label and sums each group. Output is
// ordered by descending total, then label, for stable rendering.
func TotalsByLabel(txs []core.Transaction) []LabelTotal {
	sums := make(map[string]int64)
	for _, t := range txs {
		sums[t.Label] += t.Amount.Cents
	}

	out := make([]LabelTotal, 0, len(sums))
	for label, cents := range sums {
		out = append(out, LabelTotal{Label: label, Total: core.Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// MonthComparison contrasts the current calendar month with the one before
// it.
type MonthComparison struct {
	Current  core.Money
	Previous core.Money
	Diff     core.Money
	// PercentChange is 0 when the previous month's total is 0; division by
	// zero must never surface as Inf or NaN.
	PercentChange float64
}

// MonthOverMonth compares this month's total against the immediately
// preceding calendar month.
func MonthOverMonth(txs []core.Transaction, today core.Date) MonthComparison {
	curStart, curEnd := today.MonthStart(), today.MonthEnd()
	prevAnchor := curStart.AddMonths(-1)
	prevStart, prevEnd := prevAnchor.MonthStart(), prevAnchor.MonthEnd()

	cur := Total(Filter(txs, curStart, curEnd))
	prev := Total(Filter(txs, prevStart, prevEnd))

	cmp := MonthComparison{
		Current:  cur,
		Previous: prev,
		Diff:     core.Money{Cents: cur.Cents - prev.Cents},
	}
	if prev.Cents != 0 {
		cmp.PercentChange = float64(cur.Cents-prev.Cents) / float64(prev.Cents) * 100
	}
	return cmp
}

// OpeningBalance is the cumulative income minus expenses over all records
// dated strictly before the given day. Windowed views carry it forward as
// their starting balance.
func OpeningBalance(expenses, incomes []core.Transaction, before core.Date) core.Money {
	var cents int64
	for _, t := range incomes {
		if t.Date.Before(before) {
			cents += t.Amount.Cents
		}
	}
	for _, t := range expenses {
		if t.Date.Before(before) {
			cents -= t.Amount.Cents
		}
	}
	return core.Money{Cents: cents}
}

// BalancePoint is the net and running balance for one calendar month.
type BalancePoint struct {
	Month   core.Date // first day of the month
	Net     core.Money
	Running core.Money
}

// RunningBalance produces a month-by-month cumulative balance from the
// earliest record through the latest, with empty months carried forward.
func RunningBalance(expenses, incomes []core.Transaction) []BalancePoint {
	nets := make(map[core.Date]int64)
	var first, last core.Date
	note := func(txs []core.Transaction, sign int64) {
		for _, t := range txs {
			m := t.Date.MonthStart()
			nets[m] += sign * t.Amount.Cents
			if first.IsZero() || m.Before(first) {
				first = m
			}
			if last.IsZero() || m.After(last) {
				last = m
			}
		}
	}
	note(incomes, 1)
	note(expenses, -1)

	if first.IsZero() {
		return nil
	}

	var out []BalancePoint
	var running int64
	for m := first; !m.After(last); m = m.AddMonths(1) {
		net := nets[m]
		running += net
		out = append(out, BalancePoint{
			Month:   m,
			Net:     core.Money{Cents: net},
			Running: core.Money{Cents: running},
		})
	}
	return out
}

// BudgetStatus reports one category's consumption against its monthly
// limit.
type BudgetStatus struct {
	Category string
	Limit    core.Money
	Spent    core.Money
	// Percent is uncapped; the display layer clamps progress bars at 100.
	Percent float64
	Over    bool
}

// BudgetStatuses computes this month's spend per budgeted category.
func BudgetStatuses(expenses []core.Transaction, budgets []core.Budget, today core.Date) []BudgetStatus {
	start, end := today.MonthStart(), today.MonthEnd()
	month := Filter(expenses, start, end)

	spent := make(map[string]int64)
	for _, t := range month {
		spent[t.Label] += t.Amount.Cents
	}

	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		s := core.Money{Cents: spent[b.Category]}
		status := BudgetStatus{
			Category: b.Category,
			Limit:    b.Limit,
			Spent:    s,
			Over:     s.Cents > b.Limit.Cents,
		}
		if b.Limit.Cents != 0 {
			status.Percent = float64(s.Cents) / float64(b.Limit.Cents) * 100
		}
		out = append(out, status)
	}
	return out
}
