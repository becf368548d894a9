// Package services orchestrates operations that span multiple stores.
//
// The recurring engine materializes ledger records from recurring
// templates. Each template carries a cursor (its last-processed date); a
// catch-up pass walks the cursor forward one occurrence at a time until it
// passes today, emitting one concrete ledger record per occurrence. The
// walk never jumps straight to today: every missed date becomes its own
// record, because this is financial history, not an aggregate.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// RecurringEngine drives the catch-up pass over all active templates.
type RecurringEngine struct {
	templates *store.Templates
	ledger    *store.Ledger

	// inFlight guards against re-entrant invocation. Process-local, reset
	// at pass completion, never persisted.
	inFlight atomic.Bool
}

func NewRecurringEngine(templates *store.Templates, ledger *store.Ledger) *RecurringEngine {
	return &RecurringEngine{templates: templates, ledger: ledger}
}

// NextOccurrence returns the occurrence after date for the given
// frequency. Monthly and yearly steps clamp the day of month (Jan 31 ->
// Feb 28) instead of normalizing past the month boundary.
func NextOccurrence(date core.Date, frequency core.Frequency) (core.Date, error) {
	switch frequency {
	case core.Daily:
		return date.AddDays(1), nil
	case core.Weekly:
		return date.AddDays(7), nil
	case core.Biweekly:
		return date.AddDays(14), nil
	case core.ThreeWeekly:
		return date.AddDays(21), nil
	case core.Monthly:
		return date.AddMonths(1), nil
	case core.Yearly:
		return date.AddYears(1), nil
	default:
		return core.Date{}, fmt.Errorf("next occurrence: %w: %s", core.ErrInvalidFrequency, frequency)
	}
}

// CatchUp processes every active template up to and including today and
// returns the total number of records emitted across all templates.
//
// The pass is idempotent against immediate re-invocation: after a pass each
// cursor sits beyond today, so a second call emits nothing. A concurrent or
// re-entrant trigger is skipped outright via the in-flight guard.
func (e *RecurringEngine) CatchUp(ctx context.Context, today core.Date) (int, error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		slog.DebugContext(ctx, "Catch-up pass already in flight, skipping")
		return 0, nil
	}
	defer e.inFlight.Store(false)

	templates := e.templates.List()
	slog.InfoContext(ctx, "Processing recurring templates",
		"total", len(templates),
		"processing_date", today.String())

	total := 0
	for _, tmpl := range templates {
		emitted, err := e.catchUpTemplate(ctx, tmpl, today)
		if err != nil {
			slog.ErrorContext(ctx, "Template catch-up failed",
				"template_id", tmpl.ID,
				"description", tmpl.Description,
				"error", err)
			continue
		}
		total += emitted
	}

	slog.InfoContext(ctx, "Recurring catch-up complete",
		"emitted", total,
		"templates_checked", len(templates))
	return total, nil
}

// catchUpTemplate walks one template's cursor to today. The template is
// persisted once, after the walk, with its advanced cursor; a template that
// emitted nothing is not rewritten.
func (e *RecurringEngine) catchUpTemplate(ctx context.Context, tmpl core.RecurringTemplate, today core.Date) (int, error) {
	if !tmpl.IsActive {
		return 0, nil
	}

	var cursor core.Date
	if !tmpl.LastProcessedDate.IsZero() {
		next, err := NextOccurrence(tmpl.LastProcessedDate, tmpl.Frequency)
		if err != nil {
			return 0, err
		}
		cursor = next
	} else {
		cursor = tmpl.StartDate
	}

	emitted := 0
	for !cursor.After(today) && (tmpl.EndDate.IsZero() || !cursor.After(tmpl.EndDate)) {
		_, err := e.ledger.Add(ctx, core.Transaction{
			Kind:        tmpl.Kind,
			Amount:      tmpl.Amount,
			Label:       tmpl.Label,
			Date:        cursor,
			Description: "(Recurring) " + tmpl.Description,
		})
		if err != nil {
			// Stop without advancing past the failed occurrence; the next
			// pass retries from here.
			if persistErr := e.persistCursor(ctx, tmpl, emitted); persistErr != nil {
				return emitted, persistErr
			}
			return emitted, fmt.Errorf("emit occurrence %s: %w", cursor, err)
		}

		tmpl.LastProcessedDate = cursor
		next, err := NextOccurrence(cursor, tmpl.Frequency)
		if err != nil {
			return emitted, err
		}
		cursor = next
		emitted++
	}

	if err := e.persistCursor(ctx, tmpl, emitted); err != nil {
		return emitted, err
	}

	if emitted > 0 {
		slog.InfoContext(ctx, "Template caught up",
			"template_id", tmpl.ID,
			"description", tmpl.Description,
			"emitted", emitted,
			"last_processed", tmpl.LastProcessedDate.String())
	}
	return emitted, nil
}

func (e *RecurringEngine) persistCursor(ctx context.Context, tmpl core.RecurringTemplate, emitted int) error {
	if emitted == 0 {
		return nil
	}
	if err := e.templates.Update(ctx, tmpl); err != nil {
		return fmt.Errorf("persist cursor: %w", err)
	}
	return nil
}
