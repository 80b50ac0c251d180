package timeledger_test

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffing-engine/core"
	"github.com/warp/staffing-engine/timeledger"
)

func TestWriteTimesheetCSV(t *testing.T) {
	// GIVEN: one closed entry and one still-active entry
	// THEN: header + two rows, active clock-out rendered as the sentinel

	out := at(17, 0)
	entries := []core.TimeEntry{
		{
			ID:                "entry-1",
			UserID:            testUser,
			ClockIn:           at(9, 0),
			ClockOut:          &out,
			TotalBreakMinutes: 45,
			Status:            core.EntryPendingApproval,
		},
		{
			ID:      "entry-2",
			UserID:  testUser,
			ClockIn: at(20, 0),
			Status:  core.EntryActive,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, timeledger.WriteTimesheetCSV(&buf, entries, time.UTC))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"entry_id", "user_id", "clock_in", "clock_out", "break_minutes", "status"}, rows[0])
	assert.Equal(t, []string{"entry-1", "worker-1", "2024-06-03 09:00", "2024-06-03 17:00", "45", "pending_approval"}, rows[1])
	assert.Equal(t, timeledger.ActiveSentinel, rows[2][3])
	assert.Equal(t, "0", rows[2][4])
}

func TestWriteTimesheetCSV_RendersInViewerZone(t *testing.T) {
	denver, err := time.LoadLocation("America/Denver")
	require.NoError(t, err)

	entries := []core.TimeEntry{{
		ID:      "entry-1",
		UserID:  testUser,
		ClockIn: time.Date(2024, time.June, 3, 15, 0, 0, 0, time.UTC), // 09:00 MDT
		Status:  core.EntryActive,
	}}

	var buf bytes.Buffer
	require.NoError(t, timeledger.WriteTimesheetCSV(&buf, entries, denver))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "2024-06-03 09:00", rows[1][2])
}

func TestWriteTimesheetCSV_EmptyLedger(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, timeledger.WriteTimesheetCSV(&buf, nil, time.UTC))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1) // header only
}
