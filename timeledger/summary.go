package timeledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/staffing-engine/core"
	"github.com/warp/staffing-engine/schedule"
)

// =============================================================================
// PERIOD SUMMARY - Aggregated hours feeding pay-stub approval
// =============================================================================

// PeriodSummary aggregates one worker's entries over one pay period.
// TotalHours carries the per-entry zero clamp, so a pathological entry
// never subtracts from the period total. Recomputing a summary with
// identical inputs is idempotent and side-effect-free.
type PeriodSummary struct {
	UserID       core.UserID
	Period       schedule.Period
	TotalHours   decimal.Decimal
	BreakMinutes int
	EntryCount   int
	HasActive    bool // true when the period still contains a running entry
}

// Summarize aggregates a single worker's entries that clock in within
// the period. now bounds the effective end of any still-active entry.
func (l *Ledger) Summarize(ctx context.Context, org core.OrgID, user core.UserID, period schedule.Period, now time.Time) (PeriodSummary, error) {
	entries, err := l.store.LoadUserEntries(ctx, org, user, period.Start, period.End)
	if err != nil {
		return PeriodSummary{}, fmt.Errorf("load entries: %w", err)
	}
	return summarize(user, period, entries, now), nil
}

// SummarizeAll aggregates every worker with entries in the period.
func (l *Ledger) SummarizeAll(ctx context.Context, org core.OrgID, period schedule.Period, now time.Time) (map[core.UserID]PeriodSummary, error) {
	entries, err := l.store.LoadEntries(ctx, org, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	byUser := make(map[core.UserID][]core.TimeEntry)
	for _, e := range entries {
		byUser[e.UserID] = append(byUser[e.UserID], e)
	}

	summaries := make(map[core.UserID]PeriodSummary, len(byUser))
	for user, userEntries := range byUser {
		summaries[user] = summarize(user, period, userEntries, now)
	}
	return summaries, nil
}

func summarize(user core.UserID, period schedule.Period, entries []core.TimeEntry, now time.Time) PeriodSummary {
	s := PeriodSummary{UserID: user, Period: period, TotalHours: decimal.Zero}
	for i := range entries {
		e := &entries[i]
		if e.Status == core.EntryRejected {
			continue
		}
		s.TotalHours = s.TotalHours.Add(WorkedHours(e, now))
		s.BreakMinutes += e.TotalBreakMinutes
		s.EntryCount++
		if e.Status == core.EntryActive {
			s.HasActive = true
		}
	}
	return s
}

// GrossPay converts a summary into pay at an hourly rate, rounded to
// cents. This is the figure frozen into the stub at approval time.
func (s PeriodSummary) GrossPay(hourlyRate decimal.Decimal) decimal.Decimal {
	return s.TotalHours.Mul(hourlyRate).Round(2)
}
