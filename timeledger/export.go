package timeledger

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/warp/staffing-engine/core"
)

// =============================================================================
// TIMESHEET EXPORT
// =============================================================================

// ActiveSentinel is written in the clock-out column for entries that are
// still running.
const ActiveSentinel = "ACTIVE"

const exportTimeLayout = "2006-01-02 15:04"

var exportHeader = []string{"entry_id", "user_id", "clock_in", "clock_out", "break_minutes", "status"}

// WriteTimesheetCSV writes a header row followed by one row per entry.
// Timestamps are rendered in the viewer's location.
func WriteTimesheetCSV(w io.Writer, entries []core.TimeEntry, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, e := range entries {
		clockOut := ActiveSentinel
		if e.ClockOut != nil {
			clockOut = e.ClockOut.In(loc).Format(exportTimeLayout)
		}
		row := []string{
			string(e.ID),
			string(e.UserID),
			e.ClockIn.In(loc).Format(exportTimeLayout),
			clockOut,
			strconv.Itoa(e.TotalBreakMinutes),
			string(e.Status),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
