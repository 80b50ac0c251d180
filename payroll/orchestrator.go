/*
orchestrator.go - Bulk approve/release with partial-failure semantics

PURPOSE:
  Applies approve/release across a selection of targets, one at a time,
  continuing past individual failures. Every target gets exactly one
  outcome; a single bad target never aborts the batch and the batch as a
  whole is not transactional. Callers retry only the failed subset.

OUTCOMES:
  applied - the transition happened
  skipped - nothing to do (already approved/released, not yet eligible);
            reported distinctly, neither an error nor a silent success
  failed  - store failure or missing target, surfaced verbatim

EMPTY SELECTION:
  An empty selection infers the eligible universe: entries pending
  approval for bulk approve, approved stubs for bulk release.
*/
package payroll

import (
	"context"
	"errors"

	"github.com/warp/staffing-engine/core"
	"github.com/warp/staffing-engine/schedule"
	"github.com/warp/staffing-engine/timeledger"
)

// =============================================================================
// OUTCOMES
// =============================================================================

type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Result is the per-target outcome of a bulk operation.
type Result struct {
	Target  string
	Outcome Outcome
	Detail  string // human-readable reason for skipped/failed
	Err     error  // set only for failed
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Orchestrator drives the time ledger and the stub lifecycle across
// many targets at once.
type Orchestrator struct {
	ledger    *timeledger.Ledger
	lifecycle *Lifecycle
	entries   core.EntryStore
	stubs     core.StubStore
}

func NewOrchestrator(ledger *timeledger.Ledger, lifecycle *Lifecycle, entries core.EntryStore, stubs core.StubStore) *Orchestrator {
	return &Orchestrator{ledger: ledger, lifecycle: lifecycle, entries: entries, stubs: stubs}
}

// BulkApproveEntries approves pending time entries. An empty selection
// targets every entry clocked in during the period; entries in any
// other state report "nothing to do".
func (o *Orchestrator) BulkApproveEntries(ctx context.Context, org core.OrgID, period schedule.Period, targets []core.EntryID) ([]Result, error) {
	if len(targets) == 0 {
		all, err := o.entries.LoadEntries(ctx, org, period.Start, period.End)
		if err != nil {
			return nil, err
		}
		for _, e := range all {
			targets = append(targets, e.ID)
		}
	}

	results := make([]Result, 0, len(targets))
	for _, id := range targets {
		_, err := o.ledger.Approve(ctx, id)
		results = append(results, classify(string(id), err))
	}
	return results, nil
}

// BulkReleaseStubs releases approved stubs. An empty selection targets
// every stub in the organization; non-approved stubs report "nothing to
// do". A fully empty eligible universe yields an empty result set, not
// an error.
func (o *Orchestrator) BulkReleaseStubs(ctx context.Context, org core.OrgID, targets []core.StubID) ([]Result, error) {
	if len(targets) == 0 {
		all, err := o.stubs.ListStubs(ctx, org)
		if err != nil {
			return nil, err
		}
		for _, s := range all {
			targets = append(targets, s.ID)
		}
	}

	results := make([]Result, 0, len(targets))
	for _, id := range targets {
		_, err := o.lifecycle.Release(ctx, id)
		results = append(results, classify(string(id), err))
	}
	return results, nil
}

// classify maps a transition error to a per-target outcome. Lifecycle
// ineligibility (wrong state, already terminal) is "nothing to do";
// anything else is a real failure surfaced verbatim.
func classify(target string, err error) Result {
	switch {
	case err == nil:
		return Result{Target: target, Outcome: OutcomeApplied}
	case errors.Is(err, core.ErrState), errors.Is(err, core.ErrLocked):
		return Result{Target: target, Outcome: OutcomeSkipped, Detail: "nothing to do: " + err.Error()}
	default:
		return Result{Target: target, Outcome: OutcomeFailed, Detail: err.Error(), Err: err}
	}
}
