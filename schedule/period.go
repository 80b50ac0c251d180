// Package schedule contains the pure scheduling math: pay-period
// boundary calculation and ratio-based demand planning. Nothing in this
// package touches a store or a clock; everything is deterministic.
package schedule

import (
	"time"

	"github.com/warp/staffing-engine/core"
)

// =============================================================================
// PERIOD - Concrete pay-period boundaries
// =============================================================================

// Period is one concrete pay period. Start is the first instant of the
// first day; End is the last represented instant (millisecond precision)
// of the last day, so consecutive periods satisfy
// next.Start == prev.End + 1ms.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains returns true if t falls within [Start, End].
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

func (p Period) String() string {
	return "[" + p.Start.Format("2006-01-02") + ", " + p.End.Format("2006-01-02") + "]"
}

// =============================================================================
// PERIOD CALCULATOR
// =============================================================================

// ComputeBoundaries resolves an organization's pay-period settings into
// the concrete period enclosing the anchor, shifted by offset whole
// periods. offset 0 is the enclosing current period, -1 the previous,
// +1 the next.
//
// Weekly/biweekly periods start on the most recent date whose weekday
// equals StartDay on or before the anchor. Monthly periods span the
// anchor's calendar month. An empty PayPeriod defaults to weekly.
func ComputeBoundaries(settings core.OrgSettings, anchor time.Time, offset int) (Period, error) {
	if settings.StartDay < 0 || settings.StartDay > 6 {
		return Period{}, &core.ConfigurationError{
			Setting: "pay_period_start_day",
			Message: "must be a weekday 0-6",
		}
	}

	periodType := settings.PayPeriod
	if periodType == "" {
		periodType = core.PayPeriodWeekly
	}

	day := startOfDay(anchor)

	switch periodType {
	case core.PayPeriodWeekly:
		return weekdaySnappedPeriod(day, settings.StartDay, 7, offset), nil
	case core.PayPeriodBiweekly:
		return weekdaySnappedPeriod(day, settings.StartDay, 14, offset), nil
	case core.PayPeriodMonthly:
		return monthlyPeriod(day, offset), nil
	default:
		return Period{}, &core.ConfigurationError{
			Setting: "pay_period",
			Message: "unknown period type " + string(periodType),
		}
	}
}

// weekdaySnappedPeriod shifts the anchor by offset whole periods, then
// snaps back to the most recent startDay on or before it.
func weekdaySnappedPeriod(day time.Time, startDay, lengthDays, offset int) Period {
	day = day.AddDate(0, 0, offset*lengthDays)

	back := int(day.Weekday()) - startDay
	if back < 0 {
		back += 7
	}
	start := day.AddDate(0, 0, -back)
	return Period{Start: start, End: lastInstantAfterDays(start, lengthDays)}
}

// monthlyPeriod spans a whole calendar month. The anchor is first
// reduced to the first of its month so that shifting by offset months
// never rolls over short months.
func monthlyPeriod(day time.Time, offset int) Period {
	first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	first = first.AddDate(0, offset, 0)
	end := first.AddDate(0, 1, 0).Add(-time.Millisecond)
	return Period{Start: first, End: end}
}

// lastInstantAfterDays returns the last represented instant of the
// period that starts at start and covers lengthDays calendar days.
func lastInstantAfterDays(start time.Time, lengthDays int) time.Time {
	return start.AddDate(0, 0, lengthDays).Add(-time.Millisecond)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
