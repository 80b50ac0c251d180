/*
Package payroll governs the pay-stub lifecycle and bulk approval.

PURPOSE:
  A pay stub is the frozen financial summary for one worker over one pay
  period. Its lifecycle is strictly monotonic:

    draft (no stored row) -> approved -> released (terminal)

  Status never regresses and never skips a step.

SNAPSHOT FREEZE:
  TotalHours and GrossPay are fixed at approval time. Later edits to the
  underlying time entries never implicitly recompute an approved stub;
  a correction requires an explicit re-approval of a still-draft period.
  Re-approving an already-approved or released stub is an intentional
  idempotent no-op that preserves the original figures.

FINANCIAL VISIBILITY:
  Workers see hour totals while a period is still draft, but derived pay
  figures only once the stub is approved or released. Managers always
  see both. See FinancialsVisible.

SEE ALSO:
  - orchestrator.go: bulk approve/release with per-target outcomes
  - timeledger/summary.go: the hours snapshot source
*/
package payroll

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/staffing-engine/core"
	"github.com/warp/staffing-engine/schedule"
)

// Lifecycle drives pay-stub transitions against a store. The injected
// clock stamps ReleasedAt.
type Lifecycle struct {
	store core.StubStore
	clock core.Clock
}

func NewLifecycle(store core.StubStore, clock core.Clock) *Lifecycle {
	return &Lifecycle{store: store, clock: clock}
}

// =============================================================================
// APPROVE
// =============================================================================

// Approve creates an approved stub for (user, period) with the given
// hours and pay snapshots. If a stub already exists for the period -
// approved or released - Approve returns it unchanged: the operation is
// an idempotent no-op and never regresses a released stub with new
// figures.
//
// The returned bool is true when a new stub was created.
func (lc *Lifecycle) Approve(ctx context.Context, org core.OrgID, user core.UserID, period schedule.Period, totalHours, grossPay decimal.Decimal) (*core.PayStub, bool, error) {
	existing, err := lc.store.FindStub(ctx, org, user, period.Start)
	if err != nil {
		return nil, false, fmt.Errorf("find stub: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	stub := core.PayStub{
		ID:          core.NewStubID(),
		OrgID:       org,
		UserID:      user,
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		Status:      core.StubApproved,
		TotalHours:  totalHours,
		GrossPay:    grossPay,
	}
	if err := lc.store.CreateStub(ctx, stub); err != nil {
		return nil, false, err
	}
	return &stub, true, nil
}

// =============================================================================
// RELEASE
// =============================================================================

// Release moves an approved stub to released and stamps ReleasedAt.
// A stub that is already released fails with LockedError; any other
// non-approved state fails with StateError.
func (lc *Lifecycle) Release(ctx context.Context, id core.StubID) (*core.PayStub, error) {
	stub, err := lc.store.GetStub(ctx, id)
	if err != nil {
		return nil, err
	}
	switch stub.Status {
	case core.StubReleased:
		return nil, &core.LockedError{Kind: "pay_stub", ID: string(id)}
	case core.StubApproved:
		// fallthrough to release
	default:
		return nil, &core.StateError{Current: string(stub.Status), Attempted: "release"}
	}

	now := lc.clock.Now()
	stub.Status = core.StubReleased
	stub.ReleasedAt = &now
	if err := lc.store.UpdateStub(ctx, *stub); err != nil {
		return nil, err
	}
	return stub, nil
}

// =============================================================================
// VISIBILITY
// =============================================================================

// FinancialsVisible reports whether derived pay figures may be shown.
// A nil stub means the period is still draft. Managers always see
// financials; workers see them once the stub is approved or released.
func FinancialsVisible(stub *core.PayStub, viewer core.Role) bool {
	if viewer.CanSeeFinancials() {
		return true
	}
	if stub == nil {
		return false
	}
	return stub.Status == core.StubApproved || stub.Status == core.StubReleased
}
