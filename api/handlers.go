/*
handlers.go - HTTP API handlers for the staffing engine

PURPOSE:
  Exposes the scheduling, time-ledger, and payroll operations via REST.
  Handles HTTP request/response and JSON serialization, and delegates to
  the domain packages.

ENDPOINTS:
  Settings:
    GET    /api/orgs/{orgID}/settings           Pay-period settings
    PUT    /api/orgs/{orgID}/settings           Update settings
    GET    /api/orgs/{orgID}/ratios             Staffing ratios
    PUT    /api/orgs/{orgID}/ratios             Replace ratios

  Schedule:
    GET    /api/orgs/{orgID}/periods            Period boundaries (?offset=)
    POST   /api/orgs/{orgID}/schedule/generate  Demand planner -> draft shifts
    GET    /api/orgs/{orgID}/shifts             Shifts in range (?from=&to=)

  Time ledger:
    POST   /api/orgs/{orgID}/clock-in           Open an active entry
    POST   /api/entries/{entryID}/breaks/start
    POST   /api/entries/{entryID}/breaks/end
    POST   /api/entries/{entryID}/clock-out
    POST   /api/entries/{entryID}/force-clock-out  (manager-gated)
    GET    /api/orgs/{orgID}/entries            Entries in range
    GET    /api/orgs/{orgID}/timesheet.csv      CSV export
    POST   /api/orgs/{orgID}/entries/bulk-approve

  Payroll:
    GET    /api/orgs/{orgID}/summary            Period summary (?user_id=&offset=)
    POST   /api/orgs/{orgID}/stubs/approve
    POST   /api/stubs/{stubID}/release
    POST   /api/orgs/{orgID}/stubs/bulk-release
    GET    /api/orgs/{orgID}/stubs

ERROR HANDLING:
  Domain errors map to HTTP status by taxonomy:
    400  validation / configuration
    404  not found
    409  conflict, illegal transition, locked record
    500  store failures

AUTHORIZATION:
  Requests carry the actor's role string; it is classified once via
  core.ClassifyRole and passed explicitly into capability checks. There
  is no session handling here - authentication is an external concern.

SEE ALSO:
  - dto.go: request/response types
  - server.go: router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/staffing-engine/core"
	"github.com/warp/staffing-engine/payroll"
	"github.com/warp/staffing-engine/schedule"
	"github.com/warp/staffing-engine/timeledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store        core.Store
	Clock        core.Clock
	Ledger       *timeledger.Ledger
	Lifecycle    *payroll.Lifecycle
	Orchestrator *payroll.Orchestrator
}

// NewHandler wires the domain services over a store and clock.
func NewHandler(store core.Store, clock core.Clock) *Handler {
	ledger := timeledger.New(store)
	lifecycle := payroll.NewLifecycle(store, clock)
	return &Handler{
		Store:        store,
		Clock:        clock,
		Ledger:       ledger,
		Lifecycle:    lifecycle,
		Orchestrator: payroll.NewOrchestrator(ledger, lifecycle, store, store),
	}
}

// =============================================================================
// SETTINGS
// =============================================================================

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	org := core.OrgID(chi.URLParam(r, "orgID"))
	settings, err := h.Store.LoadOrgSettings(r.Context(), org)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SettingsDTO{
		PayPeriod: string(settings.PayPeriod),
		StartDay:  settings.StartDay,
	})
}

func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	org := core.OrgID(chi.URLParam(r, "orgID"))
	var req SettingsDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	settings := core.OrgSettings{
		OrgID:     org,
		PayPeriod: core.PayPeriodType(req.PayPeriod),
		StartDay:  req.StartDay,
	}
	// Reject invalid settings before they are saved; ComputeBoundaries
	// validates both the period type and the start day.
	if _, err := schedule.ComputeBoundaries(settings, h.Clock.Now(), 0); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.Store.SaveOrgSettings(r.Context(), settings); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) GetRatios(w http.ResponseWriter, r *http.Request) {
	org := core.OrgID(chi.URLParam(r, "orgID"))
	ratios, err := h.Store.LoadRatios(r.Context(), org)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]RatioDTO, len(ratios))
	for i, ra := range ratios {
		dtos[i] = RatioDTO{Zone: ra.Zone, StaffCount: ra.StaffCount, DogCount: ra.DogCount}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) PutRatios(w http.ResponseWriter, r *http.Request) {
	org := core.OrgID(chi.URLParam(r, "orgID"))
	var req []RatioDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	ratios := make([]core.StaffingRatio, len(req))
	for i, dto := range req {
		if dto.StaffCount <= 0 || dto.DogCount <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid ratio",
				&core.ValidationError{Field: "ratios." + dto.Zone, Message: "counts must be positive"})
			return
		}
		ratios[i] = core.StaffingRatio{Zone: dto.Zone, StaffCount: dto.StaffCount, DogCount: dto.DogCount}
	}
	if err := h.Store.SaveRatios(r.Context(), org, ratios); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// =============================================================================
// SCHEDULE
// =============================================================================

// GetPeriod returns the org's pay-period boundaries for ?offset= (0 =
// current period), anchored at ?anchor= (default now).
func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	org := core.OrgID(chi.URLParam(r, "orgID"))
	settings, err := h.Store.LoadOrgSettings(r.Context(), org)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	anchor := h.Clock.Now()
	if raw := r.URL.Query().Get("anchor"); raw != "" {
		anchor, err = time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid anchor date", err)
			return
		}
	}

	period, err := schedule.ComputeBoundaries(*settings, anchor, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(period))
}

// GenerateSchedule runs the demand planner and persists the resulting
// draft shifts.
func (h *Handler) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	org := core.OrgID(chi.URLParam(r, "orgID"))
	var req GenerateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	start, err := time.Parse("2006-01-02", req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date", err)
		return
	}
	end, err := time.Parse("2006-01-02", req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date", err)
		return
	}

	ratios, err := h.Store.LoadRatios(r.Context(), org)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	shifts, err := schedule.GenerateShifts(schedule.DemandPlan{
		OrgID:     org,
		Start:     start,
		End:       end,
		Projected: req.Projected,
		Ratios:    ratios,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.Store.SaveShifts(r.Context(), shifts); err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]ShiftDTO, len(shifts))
	for i, s := range shifts {
		dtos[i] = toShiftDTO(s)
	}
	writeJSON(w, http.StatusCreated, dtos)
}

func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	org := core.OrgID(chi.URLParam(r, "orgID"))
	from, to, err := rangeParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	shifts, err := h.Store.LoadShifts(r.Context(), org, from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]ShiftDTO, len(shifts))
	for i, s := range shifts {
		dtos[i] = toShiftDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// TIME LEDGER
// =============================================================================

func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	org := core.OrgID(chi.URLParam(r, "orgID"))
	var req ClockInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "Missing user_id", nil)
		return
	}

	now := h.Clock.Now()
	entry, err := h.Ledger.ClockIn(r.Context(), org, core.UserID(req.UserID), now, req.Location)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(entry, now))
}

func (h *Handler) StartBreak(w http.ResponseWriter, r *http.Request) {
	h.entryTransition(w, r, func(id core.EntryID, ts time.Time) (*core.TimeEntry, error) {
		return h.Ledger.StartBreak(r.Context(), id, ts)
	})
}

func (h *Handler) EndBreak(w http.ResponseWriter, r *http.Request) {
	h.entryTransition(w, r, func(id core.EntryID, ts time.Time) (*core.TimeEntry, error) {
		return h.Ledger.EndBreak(r.Context(), id, ts)
	})
}

func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	h.entryTransition(w, r, func(id core.EntryID, ts time.Time) (*core.TimeEntry, error) {
		return h.Ledger.ClockOut(r.Context(), id, ts)
	})
}

func (h *Handler) entryTransition(w http.ResponseWriter, r *http.Request, fn func(core.EntryID, time.Time) (*core.TimeEntry, error)) {
	id := core.EntryID(chi.URLParam(r, "entryID"))
	now := h.Clock.Now()
	entry, err := fn(id, now)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry, now))
}

// ForceClockOut closes another worker's entry. Gated on the actor's
// capability before the ledger is touched.
func (h *Handler) ForceClockOut(w http.ResponseWriter, r *http.Request) {
	id := core.EntryID(chi.URLParam(r, "entryID"))
	var req ForceClockOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if !core.ClassifyRole(req.ActorRole).CanForceClockOut() {
		writeError(w, http.StatusForbidden, "Role may not force clock-out", nil)
		return
	}

	now := h.Clock.Now()
	entry, err := h.Ledger.ForceClockOut(r.Context(), id, now, core.UserID(req.ActorID))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry, now))
}

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	org := core.OrgID(chi.URLParam(r, "orgID"))
	from, to, err := rangeParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	entries, err := h.Store.LoadEntries(r.Context(), org, from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	now := h.Clock.Now()
	dtos := make([]EntryDTO, len(entries))
	for i := range entries {
		dtos[i] = toEntryDTO(&entries[i], now)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ExportTimesheet streams the entries in range as CSV.
// GET /api/orgs/{orgID}/timesheet.csv?from=&to=&tz=
func (h *Handler) ExportTimesheet(w http.ResponseWriter, r *http.Request) {
	org := core.OrgID(chi.URLParam(r, "orgID"))
	from, to, err := rangeParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	loc := time.Local
	if tz := r.URL.Query().Get("tz"); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid timezone", err)
			return
		}
	}

	entries, err := h.Store.LoadEntries(r.Context(), org, from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="timesheet.csv"`)
	if err := timeledger.WriteTimesheetCSV(w, entries, loc); err != nil {
		// Headers are already out; nothing useful left to send.
		return
	}
}

func (h *Handler) BulkApproveEntries(w http.ResponseWriter, r *http.Request) {
	org := core.OrgID(chi.URLParam(r, "orgID"))
	var req BulkEntryApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if !core.ClassifyRole(req.ActorRole).CanApprovePay() {
		writeError(w, http.StatusForbidden, "Role may not approve entries", nil)
		return
	}

	settings, err := h.Store.LoadOrgSettings(r.Context(), org)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	period, err := schedule.ComputeBoundaries(*settings, h.Clock.Now(), req.Offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	ids := make([]core.EntryID, len(req.IDs))
	for i, raw := range req.IDs {
		ids[i] = core.EntryID(raw)
	}
	results, err := h.Orchestrator.BulkApproveEntries(r.Context(), org, period, ids)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBulkResultDTOs(results))
}

// =============================================================================
// PAYROLL
// =============================================================================

// GetSummary aggregates one worker's hours for a period. Pay figures
// are included only when the viewer may see them.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	org := core.OrgID(chi.URLParam(r, "orgID"))
	user := core.UserID(r.URL.Query().Get("user_id"))
	if user == "" {
		writeError(w, http.StatusBadRequest, "Missing user_id", nil)
		return
	}
	viewer := core.ClassifyRole(r.URL.Query().Get("viewer_role"))

	settings, err := h.Store.LoadOrgSettings(r.Context(), org)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	now := h.Clock.Now()
	period, err := schedule.ComputeBoundaries(*settings, now, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	summary, err := h.Ledger.Summarize(r.Context(), org, user, period, now)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dto := SummaryDTO{
		UserID:       string(user),
		Period:       toPeriodDTO(period),
		TotalHours:   summary.TotalHours.StringFixed(2),
		BreakMinutes: summary.BreakMinutes,
		EntryCount:   summary.EntryCount,
	}

	stub, err := h.Store.FindStub(r.Context(), org, user, period.Start)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if payroll.FinancialsVisible(stub, viewer) && stub != nil {
		gross := stub.GrossPay.StringFixed(2)
		dto.GrossPay = &gross
	}
	writeJSON(w, http.StatusOK, dto)
}

// ApproveStub freezes a worker's period into an approved pay stub. The
// hours snapshot comes from the ledger summary; gross pay from the
// submitted hourly rate.
func (h *Handler) ApproveStub(w http.ResponseWriter, r *http.Request) {
	org := core.OrgID(chi.URLParam(r, "orgID"))
	var req ApproveStubRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if !core.ClassifyRole(req.ActorRole).CanApprovePay() {
		writeError(w, http.StatusForbidden, "Role may not approve pay", nil)
		return
	}
	rate, err := decimal.NewFromString(req.HourlyRate)
	if err != nil || rate.IsNegative() {
		writeError(w, http.StatusBadRequest, "Invalid hourly_rate", err)
		return
	}

	settings, err := h.Store.LoadOrgSettings(r.Context(), org)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	now := h.Clock.Now()
	period, err := schedule.ComputeBoundaries(*settings, now, req.Offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	summary, err := h.Ledger.Summarize(r.Context(), org, core.UserID(req.UserID), period, now)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	stub, created, err := h.Lifecycle.Approve(r.Context(), org, core.UserID(req.UserID), period,
		summary.TotalHours, summary.GrossPay(rate))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toStubDTO(*stub))
}

func (h *Handler) ReleaseStub(w http.ResponseWriter, r *http.Request) {
	id := core.StubID(chi.URLParam(r, "stubID"))
	var req ReleaseStubRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if !core.ClassifyRole(req.ActorRole).CanApprovePay() {
		writeError(w, http.StatusForbidden, "Role may not release pay", nil)
		return
	}

	stub, err := h.Lifecycle.Release(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStubDTO(*stub))
}

func (h *Handler) BulkReleaseStubs(w http.ResponseWriter, r *http.Request) {
	org := core.OrgID(chi.URLParam(r, "orgID"))
	var req BulkStubReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if !core.ClassifyRole(req.ActorRole).CanApprovePay() {
		writeError(w, http.StatusForbidden, "Role may not release pay", nil)
		return
	}

	ids := make([]core.StubID, len(req.IDs))
	for i, raw := range req.IDs {
		ids[i] = core.StubID(raw)
	}
	results, err := h.Orchestrator.BulkReleaseStubs(r.Context(), org, ids)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBulkResultDTOs(results))
}

func (h *Handler) ListStubs(w http.ResponseWriter, r *http.Request) {
	org := core.OrgID(chi.URLParam(r, "orgID"))
	stubs, err := h.Store.ListStubs(r.Context(), org)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]StubDTO, len(stubs))
	for i, s := range stubs {
		dtos[i] = toStubDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func rangeParams(r *http.Request) (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	// Make "to" inclusive of the whole day.
	return from, to.AddDate(0, 0, 1).Add(-time.Millisecond), nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the error taxonomy onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrConfiguration):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, core.ErrConflict), errors.Is(err, core.ErrState), errors.Is(err, core.ErrLocked):
		writeError(w, http.StatusConflict, "Conflict", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
