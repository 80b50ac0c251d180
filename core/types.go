/*
Package core contains the shared domain model for the staffing engine.

PURPOSE:
  This package defines the types every other package speaks: organizations
  and their pay-period settings, staffing ratios, shifts, time entries, and
  pay stubs. It also defines the Clock capability, the error taxonomy, the
  role classifier, and the store interfaces.

KEY CONCEPTS IN THIS FILE (types.go):
  - OrgSettings: pay-period configuration for an organization
  - StaffingRatio: staff required per number of dogs in a zone
  - Shift: a scheduled block of work (possibly open/unassigned)
  - TimeEntry: one clock-in/out record with its breaks
  - PayStub: the frozen financial summary for one worker and period

DESIGN PRINCIPLES:
  1. Precision: money and hour totals use decimal.Decimal, never float64
  2. Type Safety: strong ID types prevent mixing org/user/entry identifiers
  3. Explicit State: every lifecycle status is a named constant, and
     transitions are owned by the timeledger and payroll packages

SEE ALSO:
  - errors.go: Error taxonomy
  - store.go: Persistence interfaces
  - clock.go: Injected time source
*/
package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type OrgID string
type UserID string
type ShiftID string
type EntryID string
type StubID string

func NewShiftID() ShiftID { return ShiftID(uuid.NewString()) }
func NewEntryID() EntryID { return EntryID(uuid.NewString()) }
func NewStubID() StubID   { return StubID(uuid.NewString()) }

// =============================================================================
// ORGANIZATION SETTINGS
// =============================================================================

// PayPeriodType defines how pay periods recur.
type PayPeriodType string

const (
	PayPeriodWeekly   PayPeriodType = "weekly"
	PayPeriodBiweekly PayPeriodType = "biweekly"
	PayPeriodMonthly  PayPeriodType = "monthly"
)

// OrgSettings holds the pay-period configuration for an organization.
// StartDay is a weekday, 0 = Sunday through 6 = Saturday. It is ignored
// for monthly periods.
type OrgSettings struct {
	OrgID     OrgID
	PayPeriod PayPeriodType
	StartDay  int
}

// StaffingRatio expresses how many staff are required per DogCount dogs
// in a zone. Example: {Zone: "daycare", StaffCount: 1, DogCount: 10}.
type StaffingRatio struct {
	Zone       string
	StaffCount int
	DogCount   int
}

// =============================================================================
// SHIFT
// =============================================================================

type RoleType string

const (
	RoleDaycare          RoleType = "daycare"
	RoleBoarding         RoleType = "boarding"
	RoleOvernightLead    RoleType = "overnight_lead"
	RoleOvernightSupport RoleType = "overnight_support"
)

type ShiftStatus string

const (
	ShiftDraft     ShiftStatus = "draft"
	ShiftPublished ShiftStatus = "published"
)

// Shift is a scheduled block of work. A shift with an empty UserID is
// open (unassigned); assignment is a separate scheduling step.
type Shift struct {
	ID     ShiftID
	OrgID  OrgID
	UserID UserID // empty = open shift
	Start  time.Time
	End    time.Time
	Role   RoleType
	Status ShiftStatus
	IsOpen bool
	Notes  string
}

// =============================================================================
// TIME ENTRY
// =============================================================================

type EntryStatus string

const (
	EntryActive          EntryStatus = "active"
	EntryPendingApproval EntryStatus = "pending_approval"
	EntryApproved        EntryStatus = "approved"
	EntryRejected        EntryStatus = "rejected"
)

// Break is one rest interval inside a time entry. End is nil while the
// break is still open.
type Break struct {
	Start time.Time
	End   *time.Time
}

// TimeEntry records one clock-in/out cycle for a worker.
//
// INVARIANTS (enforced by timeledger.Ledger and the stores):
//   - At most one entry with status "active" per worker at any instant.
//   - At most one open break at a time.
//   - ClockOut, when set, is at or after ClockIn.
type TimeEntry struct {
	ID                EntryID
	OrgID             OrgID
	UserID            UserID
	ShiftID           ShiftID // optional, empty when not tied to a shift
	ClockIn           time.Time
	ClockOut          *time.Time
	Breaks            []Break
	TotalBreakMinutes int
	Status            EntryStatus
	Location          string // optional clock-in location note
	ClosedBy          UserID // set when a manager force-closed the entry
}

// OpenBreak returns the currently open break, or nil if none.
func (e *TimeEntry) OpenBreak() *Break {
	for i := range e.Breaks {
		if e.Breaks[i].End == nil {
			return &e.Breaks[i]
		}
	}
	return nil
}

// =============================================================================
// PAY STUB
// =============================================================================

// StubStatus is the stored pay-stub state. "Draft" is implicit: a
// (worker, period) with no stored stub is in the draft state.
type StubStatus string

const (
	StubApproved StubStatus = "approved"
	StubReleased StubStatus = "released"
)

// PayStub is the frozen financial record for one worker over one pay
// period. TotalHours and GrossPay are snapshots taken at approval time
// and are never recomputed from later ledger edits.
type PayStub struct {
	ID          StubID
	OrgID       OrgID
	UserID      UserID
	PeriodStart time.Time
	PeriodEnd   time.Time
	Status      StubStatus
	TotalHours  decimal.Decimal
	GrossPay    decimal.Decimal
	ReleasedAt  *time.Time
}
