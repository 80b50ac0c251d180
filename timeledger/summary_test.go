package timeledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffing-engine/core"
	"github.com/warp/staffing-engine/schedule"
	"github.com/warp/staffing-engine/timeledger"
)

func weekOf(day time.Time) schedule.Period {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return schedule.Period{Start: start, End: start.AddDate(0, 0, 7).Add(-time.Millisecond)}
}

func TestSummarize_AggregatesClosedEntries(t *testing.T) {
	// GIVEN: two closed shifts in one week, 8h and 4h with a 30min break
	// THEN: the summary totals 11.5 hours over 2 entries

	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	e1, err := ledger.ClockIn(ctx, testOrg, testUser, at(9, 0), "")
	require.NoError(t, err)
	_, err = ledger.ClockOut(ctx, e1.ID, at(17, 0))
	require.NoError(t, err)

	nextDay := at(9, 0).AddDate(0, 0, 1)
	e2, err := ledger.ClockIn(ctx, testOrg, testUser, nextDay, "")
	require.NoError(t, err)
	_, err = ledger.StartBreak(ctx, e2.ID, nextDay.Add(time.Hour))
	require.NoError(t, err)
	_, err = ledger.EndBreak(ctx, e2.ID, nextDay.Add(90*time.Minute))
	require.NoError(t, err)
	_, err = ledger.ClockOut(ctx, e2.ID, nextDay.Add(4*time.Hour+30*time.Minute))
	require.NoError(t, err)

	summary, err := ledger.Summarize(ctx, testOrg, testUser, weekOf(at(0, 0)), at(23, 0))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.EntryCount)
	assert.Equal(t, 30, summary.BreakMinutes)
	assert.False(t, summary.HasActive)
	assert.True(t, summary.TotalHours.Equal(decimal.RequireFromString("11.5")), "got %s", summary.TotalHours)
}

func TestSummarize_SkipsRejectedEntries(t *testing.T) {
	ledger, mem := newTestLedger(t)
	ctx := context.Background()

	entry, err := ledger.ClockIn(ctx, testOrg, testUser, at(9, 0), "")
	require.NoError(t, err)
	closed, err := ledger.ClockOut(ctx, entry.ID, at(17, 0))
	require.NoError(t, err)

	closed.Status = core.EntryRejected
	require.NoError(t, mem.UpdateEntry(ctx, *closed))

	summary, err := ledger.Summarize(ctx, testOrg, testUser, weekOf(at(0, 0)), at(23, 0))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.EntryCount)
	assert.True(t, summary.TotalHours.IsZero())
}

func TestSummarize_FlagsActiveEntry(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.ClockIn(ctx, testOrg, testUser, at(9, 0), "")
	require.NoError(t, err)

	summary, err := ledger.Summarize(ctx, testOrg, testUser, weekOf(at(0, 0)), at(12, 0))
	require.NoError(t, err)

	assert.True(t, summary.HasActive)
	// Active entry counts up to "now".
	assert.True(t, summary.TotalHours.Equal(decimal.NewFromInt(3)), "got %s", summary.TotalHours)
}

func TestSummarizeAll_GroupsByWorker(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	a, err := ledger.ClockIn(ctx, testOrg, "worker-a", at(9, 0), "")
	require.NoError(t, err)
	_, err = ledger.ClockOut(ctx, a.ID, at(17, 0))
	require.NoError(t, err)

	b, err := ledger.ClockIn(ctx, testOrg, "worker-b", at(10, 0), "")
	require.NoError(t, err)
	_, err = ledger.ClockOut(ctx, b.ID, at(14, 0))
	require.NoError(t, err)

	summaries, err := ledger.SummarizeAll(ctx, testOrg, weekOf(at(0, 0)), at(23, 0))
	require.NoError(t, err)

	require.Len(t, summaries, 2)
	assert.True(t, summaries["worker-a"].TotalHours.Equal(decimal.NewFromInt(8)))
	assert.True(t, summaries["worker-b"].TotalHours.Equal(decimal.NewFromInt(4)))
}

func TestGrossPay_RoundsToCents(t *testing.T) {
	s := timeledger.PeriodSummary{TotalHours: decimal.RequireFromString("7.333")}
	pay := s.GrossPay(decimal.RequireFromString("15.50"))
	assert.True(t, pay.Equal(decimal.RequireFromString("113.66")), "got %s", pay)
}
