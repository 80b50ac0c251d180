package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffing-engine/core"
	"github.com/warp/staffing-engine/store/sqlite"
)

const (
	testOrg  = core.OrgID("org-1")
	testUser = core.UserID("worker-1")
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.New(filepath.Join(t.TempDir(), "staffing.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// =============================================================================
// TIME ENTRIES
// =============================================================================

func TestEntryRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	clockIn := time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC)
	breakStart := clockIn.Add(3 * time.Hour)
	breakEnd := breakStart.Add(45 * time.Minute)
	clockOut := clockIn.Add(8 * time.Hour)

	entry := core.TimeEntry{
		ID:                "entry-1",
		OrgID:             testOrg,
		UserID:            testUser,
		ClockIn:           clockIn,
		ClockOut:          &clockOut,
		Breaks:            []core.Break{{Start: breakStart, End: &breakEnd}},
		TotalBreakMinutes: 45,
		Status:            core.EntryPendingApproval,
		Location:          "front desk",
		ClosedBy:          "manager-1",
	}
	require.NoError(t, st.CreateActiveEntry(ctx, entry))

	loaded, err := st.GetEntry(ctx, "entry-1")
	require.NoError(t, err)

	assert.Equal(t, entry.ID, loaded.ID)
	assert.True(t, loaded.ClockIn.Equal(clockIn))
	require.NotNil(t, loaded.ClockOut)
	assert.True(t, loaded.ClockOut.Equal(clockOut))
	require.Len(t, loaded.Breaks, 1)
	assert.True(t, loaded.Breaks[0].Start.Equal(breakStart))
	require.NotNil(t, loaded.Breaks[0].End)
	assert.True(t, loaded.Breaks[0].End.Equal(breakEnd))
	assert.Equal(t, 45, loaded.TotalBreakMinutes)
	assert.Equal(t, "front desk", loaded.Location)
	assert.Equal(t, core.UserID("manager-1"), loaded.ClosedBy)
}

func TestCreateActiveEntry_UniqueActivePerWorker(t *testing.T) {
	// The partial unique index makes the one-active-entry rule hold at
	// the database level, not just in application code.
	st := newTestStore(t)
	ctx := context.Background()

	ts := time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC)
	first := core.TimeEntry{ID: "entry-1", OrgID: testOrg, UserID: testUser, ClockIn: ts, Status: core.EntryActive}
	require.NoError(t, st.CreateActiveEntry(ctx, first))

	second := core.TimeEntry{ID: "entry-2", OrgID: testOrg, UserID: testUser, ClockIn: ts.Add(time.Minute), Status: core.EntryActive}
	err := st.CreateActiveEntry(ctx, second)
	require.ErrorIs(t, err, core.ErrConflict)

	var conflict *core.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "AlreadyClockedIn", conflict.Code)
}

func TestCreateActiveEntry_ClosedEntriesDoNotBlock(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	ts := time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC)

	first := core.TimeEntry{ID: "entry-1", OrgID: testOrg, UserID: testUser, ClockIn: ts, Status: core.EntryActive}
	require.NoError(t, st.CreateActiveEntry(ctx, first))

	out := ts.Add(8 * time.Hour)
	first.ClockOut = &out
	first.Status = core.EntryPendingApproval
	require.NoError(t, st.UpdateEntry(ctx, first))

	second := core.TimeEntry{ID: "entry-2", OrgID: testOrg, UserID: testUser, ClockIn: out.Add(time.Hour), Status: core.EntryActive}
	require.NoError(t, st.CreateActiveEntry(ctx, second))
}

func TestUpdateEntry_ApprovedIsLocked(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	ts := time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC)

	entry := core.TimeEntry{ID: "entry-1", OrgID: testOrg, UserID: testUser, ClockIn: ts, Status: core.EntryActive}
	require.NoError(t, st.CreateActiveEntry(ctx, entry))

	out := ts.Add(8 * time.Hour)
	entry.ClockOut = &out
	entry.Status = core.EntryApproved
	require.NoError(t, st.UpdateEntry(ctx, entry))

	entry.TotalBreakMinutes = 60
	err := st.UpdateEntry(ctx, entry)
	assert.ErrorIs(t, err, core.ErrLocked)
}

func TestActiveEntry_LookupAndWindowQueries(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	day := time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)

	none, err := st.ActiveEntry(ctx, testOrg, testUser)
	require.NoError(t, err)
	assert.Nil(t, none)

	for i, id := range []core.EntryID{"entry-1", "entry-2", "entry-3"} {
		in := day.Add(time.Duration(9+i) * time.Hour)
		e := core.TimeEntry{ID: id, OrgID: testOrg, UserID: core.UserID("worker-" + string(rune('1'+i))), ClockIn: in, Status: core.EntryActive}
		require.NoError(t, st.CreateActiveEntry(ctx, e))
	}

	active, err := st.ActiveEntry(ctx, testOrg, testUser)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, core.EntryID("entry-1"), active.ID)

	all, err := st.LoadEntries(ctx, testOrg, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Ordered by clock-in.
	assert.Equal(t, core.EntryID("entry-1"), all[0].ID)
	assert.Equal(t, core.EntryID("entry-3"), all[2].ID)

	mine, err := st.LoadUserEntries(ctx, testOrg, testUser, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, mine, 1)
}

// =============================================================================
// PAY STUBS
// =============================================================================

func TestStubRoundTripAndPeriodUniqueness(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	start := time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7).Add(-time.Millisecond)

	stub := core.PayStub{
		ID:          "stub-1",
		OrgID:       testOrg,
		UserID:      testUser,
		PeriodStart: start,
		PeriodEnd:   end,
		Status:      core.StubApproved,
		TotalHours:  decimal.RequireFromString("40"),
		GrossPay:    decimal.RequireFromString("1000"),
	}
	require.NoError(t, st.CreateStub(ctx, stub))

	loaded, err := st.GetStub(ctx, "stub-1")
	require.NoError(t, err)
	assert.True(t, loaded.PeriodStart.Equal(start))
	assert.True(t, loaded.PeriodEnd.Equal(end))
	assert.True(t, loaded.TotalHours.Equal(stub.TotalHours))
	assert.True(t, loaded.GrossPay.Equal(stub.GrossPay))
	assert.Nil(t, loaded.ReleasedAt)

	dup := stub
	dup.ID = "stub-2"
	assert.ErrorIs(t, st.CreateStub(ctx, dup), core.ErrConflict)
}

func TestFindStub_ExactPeriodStartMatch(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	start := time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)

	stub := core.PayStub{
		ID: "stub-1", OrgID: testOrg, UserID: testUser,
		PeriodStart: start, PeriodEnd: start.AddDate(0, 0, 7).Add(-time.Millisecond),
		Status: core.StubApproved, TotalHours: decimal.Zero, GrossPay: decimal.Zero,
	}
	require.NoError(t, st.CreateStub(ctx, stub))

	found, err := st.FindStub(ctx, testOrg, testUser, start)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, core.StubID("stub-1"), found.ID)

	missing, err := st.FindStub(ctx, testOrg, testUser, start.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdateStub_ReleasedIsLocked(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	start := time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)

	stub := core.PayStub{
		ID: "stub-1", OrgID: testOrg, UserID: testUser,
		PeriodStart: start, PeriodEnd: start.AddDate(0, 0, 7).Add(-time.Millisecond),
		Status: core.StubApproved, TotalHours: decimal.RequireFromString("40"), GrossPay: decimal.RequireFromString("1000"),
	}
	require.NoError(t, st.CreateStub(ctx, stub))

	released := start.AddDate(0, 0, 8)
	stub.Status = core.StubReleased
	stub.ReleasedAt = &released
	require.NoError(t, st.UpdateStub(ctx, stub))

	loaded, err := st.GetStub(ctx, "stub-1")
	require.NoError(t, err)
	require.NotNil(t, loaded.ReleasedAt)
	assert.True(t, loaded.ReleasedAt.Equal(released))

	stub.GrossPay = decimal.RequireFromString("9999")
	assert.ErrorIs(t, st.UpdateStub(ctx, stub), core.ErrLocked)
}

// =============================================================================
// SETTINGS AND SHIFTS
// =============================================================================

func TestSettingsAndRatiosRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.LoadOrgSettings(ctx, testOrg)
	assert.ErrorIs(t, err, core.ErrNotFound)

	settings := core.OrgSettings{OrgID: testOrg, PayPeriod: core.PayPeriodBiweekly, StartDay: 5}
	require.NoError(t, st.SaveOrgSettings(ctx, settings))

	loaded, err := st.LoadOrgSettings(ctx, testOrg)
	require.NoError(t, err)
	assert.Equal(t, settings, *loaded)

	// Saving again replaces, never duplicates.
	settings.StartDay = 1
	require.NoError(t, st.SaveOrgSettings(ctx, settings))
	loaded, err = st.LoadOrgSettings(ctx, testOrg)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.StartDay)

	ratios := []core.StaffingRatio{
		{Zone: "boarding", StaffCount: 1, DogCount: 15},
		{Zone: "daycare", StaffCount: 1, DogCount: 10},
	}
	require.NoError(t, st.SaveRatios(ctx, testOrg, ratios))
	loadedRatios, err := st.LoadRatios(ctx, testOrg)
	require.NoError(t, err)
	assert.Equal(t, ratios, loadedRatios)

	// A save replaces the whole ratio set.
	require.NoError(t, st.SaveRatios(ctx, testOrg, ratios[:1]))
	loadedRatios, err = st.LoadRatios(ctx, testOrg)
	require.NoError(t, err)
	assert.Len(t, loadedRatios, 1)
}

func TestShiftsRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	day := time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)

	shifts := []core.Shift{
		{ID: "shift-1", OrgID: testOrg, Start: day.Add(7 * time.Hour), End: day.Add(17 * time.Hour), Role: core.RoleDaycare, Status: core.ShiftDraft, IsOpen: true},
		{ID: "shift-2", OrgID: testOrg, Start: day.Add(20 * time.Hour), End: day.AddDate(0, 0, 1).Add(8 * time.Hour), Role: core.RoleOvernightLead, Status: core.ShiftDraft, IsOpen: true},
	}
	require.NoError(t, st.SaveShifts(ctx, shifts))

	loaded, err := st.LoadShifts(ctx, testOrg, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, core.ShiftID("shift-1"), loaded[0].ID)
	assert.True(t, loaded[1].End.Equal(day.AddDate(0, 0, 1).Add(8*time.Hour)))
	assert.True(t, loaded[0].IsOpen)
}
