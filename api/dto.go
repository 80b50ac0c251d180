/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  internal domain model from the external contract.

NAMING CONVENTION:
  - *DTO: response types returned to clients
  - *Request: request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: uses these types
*/
package api

import (
	"time"

	"github.com/warp/staffing-engine/core"
	"github.com/warp/staffing-engine/payroll"
	"github.com/warp/staffing-engine/schedule"
	"github.com/warp/staffing-engine/timeledger"
)

// =============================================================================
// SETTINGS / RATIOS
// =============================================================================

type SettingsDTO struct {
	PayPeriod string `json:"pay_period"`
	StartDay  int    `json:"pay_period_start_day"`
}

type RatioDTO struct {
	Zone       string `json:"zone"`
	StaffCount int    `json:"staff_count"`
	DogCount   int    `json:"dog_count"`
}

// =============================================================================
// PERIODS / SCHEDULE
// =============================================================================

type PeriodDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func toPeriodDTO(p schedule.Period) PeriodDTO {
	return PeriodDTO{
		Start: p.Start.Format(time.RFC3339),
		End:   p.End.Format(time.RFC3339Nano),
	}
}

// GenerateScheduleRequest is the demand-planner input.
type GenerateScheduleRequest struct {
	Start     string         `json:"start"` // 2006-01-02
	End       string         `json:"end"`
	Projected map[string]int `json:"projected"` // zone -> dog count
}

type ShiftDTO struct {
	ID     string `json:"id"`
	UserID string `json:"user_id,omitempty"`
	Start  string `json:"start_time"`
	End    string `json:"end_time"`
	Role   string `json:"role_type"`
	Status string `json:"status"`
	IsOpen bool   `json:"is_open"`
	Notes  string `json:"notes,omitempty"`
}

func toShiftDTO(s core.Shift) ShiftDTO {
	return ShiftDTO{
		ID:     string(s.ID),
		UserID: string(s.UserID),
		Start:  s.Start.Format(time.RFC3339),
		End:    s.End.Format(time.RFC3339),
		Role:   string(s.Role),
		Status: string(s.Status),
		IsOpen: s.IsOpen,
		Notes:  s.Notes,
	}
}

// =============================================================================
// TIME ENTRIES
// =============================================================================

type ClockInRequest struct {
	UserID   string `json:"user_id"`
	Location string `json:"location,omitempty"`
}

type ForceClockOutRequest struct {
	ActorID   string `json:"actor_id"`
	ActorRole string `json:"actor_role"`
}

type BreakDTO struct {
	Start string  `json:"start"`
	End   *string `json:"end,omitempty"`
}

type EntryDTO struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	ShiftID      string     `json:"shift_id,omitempty"`
	ClockIn      string     `json:"clock_in"`
	ClockOut     *string    `json:"clock_out,omitempty"`
	Breaks       []BreakDTO `json:"breaks"`
	BreakMinutes int        `json:"total_break_minutes"`
	Status       string     `json:"status"`
	WorkedHours  string     `json:"worked_hours"`
}

func toEntryDTO(e *core.TimeEntry, now time.Time) EntryDTO {
	dto := EntryDTO{
		ID:           string(e.ID),
		UserID:       string(e.UserID),
		ShiftID:      string(e.ShiftID),
		ClockIn:      e.ClockIn.Format(time.RFC3339),
		Breaks:       make([]BreakDTO, 0, len(e.Breaks)),
		BreakMinutes: e.TotalBreakMinutes,
		Status:       string(e.Status),
		WorkedHours:  timeledger.WorkedHours(e, now).StringFixed(2),
	}
	if e.ClockOut != nil {
		s := e.ClockOut.Format(time.RFC3339)
		dto.ClockOut = &s
	}
	for _, b := range e.Breaks {
		bd := BreakDTO{Start: b.Start.Format(time.RFC3339)}
		if b.End != nil {
			s := b.End.Format(time.RFC3339)
			bd.End = &s
		}
		dto.Breaks = append(dto.Breaks, bd)
	}
	return dto
}

// =============================================================================
// SUMMARIES / PAY STUBS
// =============================================================================

// SummaryDTO carries hour totals always; GrossPay only when the viewer
// may see financials for the period.
type SummaryDTO struct {
	UserID       string    `json:"user_id"`
	Period       PeriodDTO `json:"period"`
	TotalHours   string    `json:"total_hours"`
	BreakMinutes int       `json:"break_minutes"`
	EntryCount   int       `json:"entry_count"`
	GrossPay     *string   `json:"gross_pay,omitempty"`
}

type ApproveStubRequest struct {
	UserID     string `json:"user_id"`
	Offset     int    `json:"offset"` // pay-period offset, 0 = current
	HourlyRate string `json:"hourly_rate"`
	ActorRole  string `json:"actor_role"`
}

type ReleaseStubRequest struct {
	ActorRole string `json:"actor_role"`
}

type BulkEntryApproveRequest struct {
	IDs       []string `json:"ids"`
	Offset    int      `json:"offset"`
	ActorRole string   `json:"actor_role"`
}

type BulkStubReleaseRequest struct {
	IDs       []string `json:"ids"`
	ActorRole string   `json:"actor_role"`
}

type BulkResultDTO struct {
	Target  string `json:"target"`
	Outcome string `json:"outcome"`
	Detail  string `json:"detail,omitempty"`
}

func toBulkResultDTOs(results []payroll.Result) []BulkResultDTO {
	dtos := make([]BulkResultDTO, len(results))
	for i, r := range results {
		dtos[i] = BulkResultDTO{Target: r.Target, Outcome: string(r.Outcome), Detail: r.Detail}
	}
	return dtos
}

type StubDTO struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	PeriodStart string  `json:"period_start"`
	PeriodEnd   string  `json:"period_end"`
	Status      string  `json:"status"`
	TotalHours  string  `json:"total_hours"`
	GrossPay    string  `json:"gross_pay"`
	ReleasedAt  *string `json:"released_at,omitempty"`
}

func toStubDTO(s core.PayStub) StubDTO {
	dto := StubDTO{
		ID:          string(s.ID),
		UserID:      string(s.UserID),
		PeriodStart: s.PeriodStart.Format(time.RFC3339),
		PeriodEnd:   s.PeriodEnd.Format(time.RFC3339Nano),
		Status:      string(s.Status),
		TotalHours:  s.TotalHours.StringFixed(2),
		GrossPay:    s.GrossPay.StringFixed(2),
	}
	if s.ReleasedAt != nil {
		r := s.ReleasedAt.Format(time.RFC3339)
		dto.ReleasedAt = &r
	}
	return dto
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
