package payroll_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffing-engine/core"
	"github.com/warp/staffing-engine/core/store"
	"github.com/warp/staffing-engine/payroll"
	"github.com/warp/staffing-engine/timeledger"
)

func newTestOrchestrator(t *testing.T) (*payroll.Orchestrator, *timeledger.Ledger, *payroll.Lifecycle, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	ledger := timeledger.New(mem)
	lifecycle := payroll.NewLifecycle(mem, core.FixedClock{At: releaseInstant})
	return payroll.NewOrchestrator(ledger, lifecycle, mem, mem), ledger, lifecycle, mem
}

func countOutcomes(results []payroll.Result) map[payroll.Outcome]int {
	counts := make(map[payroll.Outcome]int)
	for _, r := range results {
		counts[r.Outcome]++
	}
	return counts
}

// =============================================================================
// BULK ENTRY APPROVAL
// =============================================================================

func TestBulkApproveEntries_EmptySelectionInfersUniverse(t *testing.T) {
	// GIVEN: 3 pending entries and 2 already approved in the period
	// WHEN: bulk approving with no explicit selection
	// THEN: 3 applied, 2 skipped as "nothing to do", none failed

	orch, ledger, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	clockPair := func(user core.UserID, day int) *core.TimeEntry {
		in := time.Date(2024, time.June, day, 9, 0, 0, 0, time.UTC)
		entry, err := ledger.ClockIn(ctx, testOrg, user, in, "")
		require.NoError(t, err)
		_, err = ledger.ClockOut(ctx, entry.ID, in.Add(8*time.Hour))
		require.NoError(t, err)
		return entry
	}

	clockPair("worker-1", 3)
	clockPair("worker-2", 4)
	clockPair("worker-3", 5)
	preApproved1 := clockPair("worker-4", 6)
	preApproved2 := clockPair("worker-5", 7)
	_, err := ledger.Approve(ctx, preApproved1.ID)
	require.NoError(t, err)
	_, err = ledger.Approve(ctx, preApproved2.ID)
	require.NoError(t, err)

	results, err := orch.BulkApproveEntries(ctx, testOrg, testPeriod(), nil)
	require.NoError(t, err)
	require.Len(t, results, 5)

	counts := countOutcomes(results)
	assert.Equal(t, 3, counts[payroll.OutcomeApplied])
	assert.Equal(t, 2, counts[payroll.OutcomeSkipped])
	assert.Zero(t, counts[payroll.OutcomeFailed])

	for _, r := range results {
		if r.Outcome == payroll.OutcomeSkipped {
			assert.Contains(t, r.Detail, "nothing to do")
			assert.NoError(t, r.Err)
		}
	}
}

func TestBulkApproveEntries_MissingTargetFails(t *testing.T) {
	// A bad target fails on its own; the rest of the batch proceeds.
	orch, ledger, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	in := time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC)
	entry, err := ledger.ClockIn(ctx, testOrg, testUser, in, "")
	require.NoError(t, err)
	_, err = ledger.ClockOut(ctx, entry.ID, in.Add(8*time.Hour))
	require.NoError(t, err)

	results, err := orch.BulkApproveEntries(ctx, testOrg, testPeriod(),
		[]core.EntryID{entry.ID, "no-such-entry"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, payroll.OutcomeApplied, results[0].Outcome)
	assert.Equal(t, payroll.OutcomeFailed, results[1].Outcome)
	assert.ErrorIs(t, results[1].Err, core.ErrNotFound)
}

func TestBulkApproveEntries_EmptyUniverse(t *testing.T) {
	orch, _, _, _ := newTestOrchestrator(t)

	results, err := orch.BulkApproveEntries(context.Background(), testOrg, testPeriod(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

// =============================================================================
// BULK STUB RELEASE
// =============================================================================

func TestBulkReleaseStubs_SkipsAlreadyReleased(t *testing.T) {
	// GIVEN: two approved stubs and one already released
	// WHEN: bulk releasing everything
	// THEN: 2 applied, 1 skipped

	orch, _, lifecycle, _ := newTestOrchestrator(t)
	ctx := context.Background()

	p := testPeriod()
	s1, _, err := lifecycle.Approve(ctx, testOrg, "worker-1", p, dec("40"), dec("1000"))
	require.NoError(t, err)
	_, _, err = lifecycle.Approve(ctx, testOrg, "worker-2", p, dec("32"), dec("800"))
	require.NoError(t, err)
	_, _, err = lifecycle.Approve(ctx, testOrg, "worker-3", p, dec("20"), dec("500"))
	require.NoError(t, err)
	_, err = lifecycle.Release(ctx, s1.ID)
	require.NoError(t, err)

	results, err := orch.BulkReleaseStubs(ctx, testOrg, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	counts := countOutcomes(results)
	assert.Equal(t, 2, counts[payroll.OutcomeApplied])
	assert.Equal(t, 1, counts[payroll.OutcomeSkipped])
}

func TestBulkReleaseStubs_ExplicitSelection(t *testing.T) {
	orch, _, lifecycle, mem := newTestOrchestrator(t)
	ctx := context.Background()

	p := testPeriod()
	s1, _, err := lifecycle.Approve(ctx, testOrg, "worker-1", p, dec("40"), dec("1000"))
	require.NoError(t, err)
	s2, _, err := lifecycle.Approve(ctx, testOrg, "worker-2", p, dec("32"), dec("800"))
	require.NoError(t, err)

	results, err := orch.BulkReleaseStubs(ctx, testOrg, []core.StubID{s1.ID})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, payroll.OutcomeApplied, results[0].Outcome)

	// The unselected stub stays approved.
	untouched, err := mem.GetStub(ctx, s2.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StubApproved, untouched.Status)
}

func TestBulkReleaseStubs_EmptyUniverse(t *testing.T) {
	orch, _, _, _ := newTestOrchestrator(t)

	results, err := orch.BulkReleaseStubs(context.Background(), testOrg, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
