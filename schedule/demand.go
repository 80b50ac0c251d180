/*
demand.go - Ratio-based staffing demand planner

PURPOSE:
  Converts projected occupancy and per-zone staffing ratios into draft,
  unassigned shifts for a date range. The planner only generates demand;
  assigning workers to the generated shifts is a separate scheduling step
  outside this package.

STAFFING MATH:
  neededStaff = ceil(projected / ratio.DogCount) * ratio.StaffCount

  10 dogs at a 1:10 ratio need 1 attendant; 11 dogs need 2. A zone with
  zero projected dogs needs nobody.

OVERNIGHT COVERAGE:
  Overnight staffing is a flat rule, independent of occupancy: every
  covered night gets exactly one lead and one support shift. Overnight
  end times cross midnight, so they are computed with calendar hour
  arithmetic (hour 20 + 12 = hour 32 normalizes to 08:00 the next day),
  never by string manipulation.
*/
package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/warp/staffing-engine/core"
)

// Fixed shift windows, in local hours of the covered day.
const (
	daytimeStartHour = 7
	daytimeEndHour   = 17

	overnightStartHour    = 20
	overnightLengthHours  = 12
	overnightShiftsPerDay = 2
)

// DefaultRatio applies to zones that appear in the projection but have
// no configured ratio row.
var DefaultRatio = core.StaffingRatio{StaffCount: 1, DogCount: 10}

// DemandPlan is the input to shift generation.
type DemandPlan struct {
	OrgID     core.OrgID
	Start     time.Time
	End       time.Time
	Projected map[string]int // zone name -> projected dog count
	Ratios    []core.StaffingRatio
}

// GenerateShifts emits draft, open shifts covering the plan's date range
// (both endpoints inclusive, at calendar-day granularity).
//
// An inverted range yields an empty slice, not an error. A negative
// projected count fails with ValidationError.
func GenerateShifts(plan DemandPlan) ([]core.Shift, error) {
	for zone, count := range plan.Projected {
		if count < 0 {
			return nil, &core.ValidationError{
				Field:   "projected." + zone,
				Message: fmt.Sprintf("count must not be negative, got %d", count),
			}
		}
	}

	ratioByZone := make(map[string]core.StaffingRatio, len(plan.Ratios))
	for _, r := range plan.Ratios {
		ratioByZone[r.Zone] = r
	}

	// Iterate zones in a stable order so output is deterministic.
	zones := make([]string, 0, len(plan.Projected))
	for zone := range plan.Projected {
		zones = append(zones, zone)
	}
	sort.Strings(zones)

	var shifts []core.Shift
	for day := startOfDay(plan.Start); !day.After(startOfDay(plan.End)); day = day.AddDate(0, 0, 1) {
		for _, zone := range zones {
			ratio, ok := ratioByZone[zone]
			if !ok {
				ratio = DefaultRatio
			}
			needed := NeededStaff(plan.Projected[zone], ratio)
			for i := 0; i < needed; i++ {
				shifts = append(shifts, daytimeShift(plan.OrgID, day, core.RoleType(zone)))
			}
		}

		// Flat overnight pair, regardless of projected counts.
		shifts = append(shifts,
			overnightShift(plan.OrgID, day, core.RoleOvernightLead),
			overnightShift(plan.OrgID, day, core.RoleOvernightSupport),
		)
	}
	return shifts, nil
}

// NeededStaff computes ceil(projected / ratio.DogCount) * ratio.StaffCount.
// A zero or invalid ratio falls back to DefaultRatio so a misconfigured
// zone never divides by zero.
func NeededStaff(projected int, ratio core.StaffingRatio) int {
	if ratio.DogCount <= 0 || ratio.StaffCount <= 0 {
		ratio = DefaultRatio
	}
	if projected <= 0 {
		return 0
	}
	groups := (projected + ratio.DogCount - 1) / ratio.DogCount
	return groups * ratio.StaffCount
}

func daytimeShift(org core.OrgID, day time.Time, role core.RoleType) core.Shift {
	return core.Shift{
		ID:     core.NewShiftID(),
		OrgID:  org,
		Start:  atHour(day, daytimeStartHour),
		End:    atHour(day, daytimeEndHour),
		Role:   role,
		Status: core.ShiftDraft,
		IsOpen: true,
	}
}

func overnightShift(org core.OrgID, day time.Time, role core.RoleType) core.Shift {
	return core.Shift{
		ID:     core.NewShiftID(),
		OrgID:  org,
		Start:  atHour(day, overnightStartHour),
		End:    atHour(day, overnightStartHour+overnightLengthHours),
		Role:   role,
		Status: core.ShiftDraft,
		IsOpen: true,
	}
}

// atHour builds an instant on day at the given hour. Hours past 24 roll
// the date forward; time.Date normalizes them.
func atHour(day time.Time, hour int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
}
