/*
Package timeledger implements the per-worker time-tracking state machine.

PURPOSE:
  Records clock-in/out and break events per worker and computes worked
  duration. This is the stateful heart of the engine: the ledger owns the
  entry lifecycle (active -> pending_approval -> approved/rejected) and
  its invariants.

CRITICAL INVARIANTS:
  1. At most one active entry per worker at any instant. Checked here
     and enforced atomically by the store's conditional write, so two
     concurrent clock-ins cannot both succeed.
  2. At most one open break per entry at a time.
  3. Worked hours never go negative: an entry whose recorded breaks
     exceed its span reports 0 hours.

AUTHORIZATION:
  ForceClockOut closes another worker's entry. The ledger itself performs
  no authorization check - callers gate it on core.Role.CanForceClockOut
  before invoking.

ERROR HANDLING:
  Double clock-in        -> ConflictError("AlreadyClockedIn")
  Break already open     -> ConflictError("BreakAlreadyOpen")
  No open break to end   -> ConflictError("NoOpenBreak")
  Event on a non-active  -> StateError
  Store failures         -> propagated verbatim, no local state mutated

SEE ALSO:
  - summary.go: per-period aggregation feeding pay-stub approval
  - export.go:  timesheet CSV export
*/
package timeledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/staffing-engine/core"
)

// Ledger drives time-entry transitions against a store. All operations
// take explicit timestamps so the ledger itself is deterministic; the
// caller supplies them from an injected core.Clock.
type Ledger struct {
	store core.EntryStore
}

func New(store core.EntryStore) *Ledger {
	return &Ledger{store: store}
}

// =============================================================================
// CLOCK IN / OUT
// =============================================================================

// ClockIn opens a new active entry for the worker.
// Fails with ConflictError("AlreadyClockedIn") if one is already open;
// no record is created in that case.
func (l *Ledger) ClockIn(ctx context.Context, org core.OrgID, user core.UserID, ts time.Time, location string) (*core.TimeEntry, error) {
	existing, err := l.store.ActiveEntry(ctx, org, user)
	if err != nil {
		return nil, fmt.Errorf("active entry lookup: %w", err)
	}
	if existing != nil {
		return nil, &core.ConflictError{
			Code:    "AlreadyClockedIn",
			Message: fmt.Sprintf("worker %s already has active entry %s", user, existing.ID),
		}
	}

	entry := core.TimeEntry{
		ID:       core.NewEntryID(),
		OrgID:    org,
		UserID:   user,
		ClockIn:  ts,
		Breaks:   []core.Break{},
		Status:   core.EntryActive,
		Location: location,
	}
	if err := l.store.CreateActiveEntry(ctx, entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ClockOut terminates an active entry. Any still-open break is closed at
// ts (truncated, not discarded) and the entry moves to pending_approval.
func (l *Ledger) ClockOut(ctx context.Context, id core.EntryID, ts time.Time) (*core.TimeEntry, error) {
	return l.closeEntry(ctx, id, ts, "")
}

// ForceClockOut is ClockOut targeting another worker's entry, recording
// the acting manager. No authorization check happens here.
func (l *Ledger) ForceClockOut(ctx context.Context, id core.EntryID, ts time.Time, actor core.UserID) (*core.TimeEntry, error) {
	return l.closeEntry(ctx, id, ts, actor)
}

func (l *Ledger) closeEntry(ctx context.Context, id core.EntryID, ts time.Time, actor core.UserID) (*core.TimeEntry, error) {
	entry, err := l.store.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.Status != core.EntryActive {
		return nil, &core.StateError{Current: string(entry.Status), Attempted: "clock out"}
	}
	if ts.Before(entry.ClockIn) {
		return nil, &core.ValidationError{Field: "clock_out", Message: "before clock-in"}
	}

	if open := entry.OpenBreak(); open != nil {
		closeBreak(entry, open, ts)
	}

	out := ts
	entry.ClockOut = &out
	entry.Status = core.EntryPendingApproval
	entry.ClosedBy = actor

	if err := l.store.UpdateEntry(ctx, *entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// =============================================================================
// BREAKS
// =============================================================================

// StartBreak opens a break on an active entry.
func (l *Ledger) StartBreak(ctx context.Context, id core.EntryID, ts time.Time) (*core.TimeEntry, error) {
	entry, err := l.store.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.Status != core.EntryActive {
		return nil, &core.StateError{Current: string(entry.Status), Attempted: "start break"}
	}
	if entry.OpenBreak() != nil {
		return nil, &core.ConflictError{Code: "BreakAlreadyOpen", Message: "entry already has an open break"}
	}
	if ts.Before(entry.ClockIn) {
		return nil, &core.ValidationError{Field: "break_start", Message: "before clock-in"}
	}

	entry.Breaks = append(entry.Breaks, core.Break{Start: ts})
	if err := l.store.UpdateEntry(ctx, *entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// EndBreak closes the open break, recording its minute duration.
func (l *Ledger) EndBreak(ctx context.Context, id core.EntryID, ts time.Time) (*core.TimeEntry, error) {
	entry, err := l.store.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	open := entry.OpenBreak()
	if open == nil {
		return nil, &core.ConflictError{Code: "NoOpenBreak", Message: "entry has no open break"}
	}

	closeBreak(entry, open, ts)
	if err := l.store.UpdateEntry(ctx, *entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// closeBreak terminates an open break at ts and accumulates its minutes.
// A ts before the break start truncates the break to zero minutes.
func closeBreak(entry *core.TimeEntry, open *core.Break, ts time.Time) {
	end := ts
	if end.Before(open.Start) {
		end = open.Start
	}
	open.End = &end
	entry.TotalBreakMinutes += int(end.Sub(open.Start).Minutes())
}

// =============================================================================
// APPROVAL TRANSITION
// =============================================================================

// Approve moves a pending entry to approved, after which the store
// treats it as immutable. Entries in any other state fail with
// StateError; the orchestrator classifies that as "nothing to do".
func (l *Ledger) Approve(ctx context.Context, id core.EntryID) (*core.TimeEntry, error) {
	entry, err := l.store.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.Status != core.EntryPendingApproval {
		return nil, &core.StateError{Current: string(entry.Status), Attempted: "approve"}
	}
	entry.Status = core.EntryApproved
	if err := l.store.UpdateEntry(ctx, *entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// =============================================================================
// DURATION MATH
// =============================================================================

// WorkedHours computes the worked duration of an entry in hours:
// (effectiveEnd - clockIn) minus recorded break minutes, clamped to a
// minimum of zero. effectiveEnd is the clock-out if present, else now.
// This clamp applies uniformly wherever hours are aggregated.
func WorkedHours(entry *core.TimeEntry, now time.Time) decimal.Decimal {
	end := now
	if entry.ClockOut != nil {
		end = *entry.ClockOut
	}
	if end.Before(entry.ClockIn) {
		return decimal.Zero
	}

	span := decimal.NewFromFloat(end.Sub(entry.ClockIn).Hours())
	breaks := decimal.NewFromInt(int64(entry.TotalBreakMinutes)).Div(decimal.NewFromInt(60))

	hours := span.Sub(breaks)
	if hours.IsNegative() {
		return decimal.Zero
	}
	return hours
}
