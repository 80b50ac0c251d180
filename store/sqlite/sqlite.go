/*
Package sqlite provides the SQLite-backed implementation of core.Store.

PURPOSE:
  Production persistence for shifts, time entries, pay stubs, and
  organization settings. The same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

KEY TABLES:
  org_settings:    pay-period configuration per organization
  staffing_ratios: staff-per-dogs rows per organization and zone
  shifts:          draft/published shifts (planner output + manual)
  time_entries:    clock-in/out records; breaks serialized as JSON
  pay_stubs:       frozen financial records

INVARIANT ENFORCEMENT:
  - idx_one_active_entry: a partial unique index on (org_id, user_id)
    WHERE status = 'active'. This is the conditional write that makes
    two concurrent clock-ins for the same worker impossible; the loser
    gets ConflictError("AlreadyClockedIn").
  - idx_stub_period: unique (org_id, user_id, period_start), backing the
    one-stub-per-worker-per-period key.
  - Released stubs and approved entries are never updated in place; the
    guard runs inside the same transaction as the write.

WAL MODE:
  Opened with WAL for better concurrency: readers don't block, single
  writer, better crash recovery.

USAGE:
  st, err := sqlite.New("./staffing.db")   // ":memory:" for tests
  defer st.Close()

SEE ALSO:
  - core/store.go: interface contracts
  - core/store/memory.go: in-memory implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/staffing-engine/core"
)

// Store implements core.Store using SQLite.
type Store struct {
	db *sql.DB
}

var _ core.Store = (*Store)(nil)

// New opens (and auto-migrates) a SQLite database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS org_settings (
		org_id TEXT PRIMARY KEY,
		pay_period TEXT NOT NULL,
		start_day INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS staffing_ratios (
		org_id TEXT NOT NULL,
		zone TEXT NOT NULL,
		staff_count INTEGER NOT NULL,
		dog_count INTEGER NOT NULL,
		PRIMARY KEY (org_id, zone)
	);

	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		user_id TEXT NOT NULL DEFAULT '',
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		role TEXT NOT NULL,
		status TEXT NOT NULL,
		is_open INTEGER NOT NULL,
		notes TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_shifts_org_start ON shifts(org_id, start_time);

	CREATE TABLE IF NOT EXISTS time_entries (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		shift_id TEXT NOT NULL DEFAULT '',
		clock_in TEXT NOT NULL,
		clock_out TEXT,
		breaks TEXT NOT NULL DEFAULT '[]',
		total_break_minutes INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		closed_by TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_entries_org_clock_in ON time_entries(org_id, clock_in);
	-- The at-most-one-active-entry-per-worker conditional write.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_one_active_entry
		ON time_entries(org_id, user_id) WHERE status = 'active';

	CREATE TABLE IF NOT EXISTS pay_stubs (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		status TEXT NOT NULL,
		total_hours TEXT NOT NULL,
		gross_pay TEXT NOT NULL,
		released_at TEXT
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_stub_period
		ON pay_stubs(org_id, user_id, period_start);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SHIFTS
// =============================================================================

func (s *Store) SaveShifts(ctx context.Context, shifts []core.Shift) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO shifts (id, org_id, user_id, start_time, end_time, role, status, is_open, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, sh := range shifts {
		_, err := stmt.ExecContext(ctx,
			string(sh.ID), string(sh.OrgID), string(sh.UserID),
			formatTime(sh.Start), formatTime(sh.End),
			string(sh.Role), string(sh.Status), boolToInt(sh.IsOpen), sh.Notes)
		if err != nil {
			return fmt.Errorf("save shift %s: %w", sh.ID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) LoadShifts(ctx context.Context, org core.OrgID, from, to time.Time) ([]core.Shift, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org_id, user_id, start_time, end_time, role, status, is_open, notes
		FROM shifts
		WHERE org_id = ? AND start_time >= ? AND start_time <= ?
		ORDER BY start_time`,
		string(org), formatTime(from), formatTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shifts []core.Shift
	for rows.Next() {
		var sh core.Shift
		var start, end string
		var isOpen int
		if err := rows.Scan(&sh.ID, &sh.OrgID, &sh.UserID, &start, &end, &sh.Role, &sh.Status, &isOpen, &sh.Notes); err != nil {
			return nil, err
		}
		if sh.Start, err = parseTime(start); err != nil {
			return nil, err
		}
		if sh.End, err = parseTime(end); err != nil {
			return nil, err
		}
		sh.IsOpen = isOpen != 0
		shifts = append(shifts, sh)
	}
	return shifts, rows.Err()
}

// =============================================================================
// TIME ENTRIES
// =============================================================================

func (s *Store) CreateActiveEntry(ctx context.Context, entry core.TimeEntry) error {
	breaks, err := json.Marshal(entry.Breaks)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO time_entries (id, org_id, user_id, shift_id, clock_in, clock_out, breaks, total_break_minutes, status, location, closed_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(entry.ID), string(entry.OrgID), string(entry.UserID), string(entry.ShiftID),
		formatTime(entry.ClockIn), nullableTime(entry.ClockOut), string(breaks),
		entry.TotalBreakMinutes, string(entry.Status), entry.Location, string(entry.ClosedBy))
	if isUniqueViolation(err) {
		// idx_one_active_entry fired: the worker is already clocked in.
		return &core.ConflictError{Code: "AlreadyClockedIn", Message: "active entry exists for worker"}
	}
	return err
}

func (s *Store) UpdateEntry(ctx context.Context, entry core.TimeEntry) error {
	breaks, err := json.Marshal(entry.Breaks)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM time_entries WHERE id = ?`, string(entry.ID)).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return &core.NotFoundError{Kind: "time_entry", ID: string(entry.ID)}
	}
	if err != nil {
		return err
	}
	if status == string(core.EntryApproved) {
		return &core.LockedError{Kind: "time_entry", ID: string(entry.ID)}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE time_entries
		SET clock_out = ?, breaks = ?, total_break_minutes = ?, status = ?, closed_by = ?
		WHERE id = ?`,
		nullableTime(entry.ClockOut), string(breaks), entry.TotalBreakMinutes,
		string(entry.Status), string(entry.ClosedBy), string(entry.ID))
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) GetEntry(ctx context.Context, id core.EntryID) (*core.TimeEntry, error) {
	row := s.db.QueryRowContext(ctx, entrySelect+` WHERE id = ?`, string(id))
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Kind: "time_entry", ID: string(id)}
	}
	return entry, err
}

func (s *Store) ActiveEntry(ctx context.Context, org core.OrgID, user core.UserID) (*core.TimeEntry, error) {
	row := s.db.QueryRowContext(ctx,
		entrySelect+` WHERE org_id = ? AND user_id = ? AND status = 'active'`,
		string(org), string(user))
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return entry, err
}

func (s *Store) LoadEntries(ctx context.Context, org core.OrgID, from, to time.Time) ([]core.TimeEntry, error) {
	return s.queryEntries(ctx,
		entrySelect+` WHERE org_id = ? AND clock_in >= ? AND clock_in <= ? ORDER BY clock_in`,
		string(org), formatTime(from), formatTime(to))
}

func (s *Store) LoadUserEntries(ctx context.Context, org core.OrgID, user core.UserID, from, to time.Time) ([]core.TimeEntry, error) {
	return s.queryEntries(ctx,
		entrySelect+` WHERE org_id = ? AND user_id = ? AND clock_in >= ? AND clock_in <= ? ORDER BY clock_in`,
		string(org), string(user), formatTime(from), formatTime(to))
}

const entrySelect = `
	SELECT id, org_id, user_id, shift_id, clock_in, clock_out, breaks, total_break_minutes, status, location, closed_by
	FROM time_entries`

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]core.TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []core.TimeEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*core.TimeEntry, error) {
	var e core.TimeEntry
	var clockIn string
	var clockOut sql.NullString
	var breaks string
	if err := row.Scan(&e.ID, &e.OrgID, &e.UserID, &e.ShiftID, &clockIn, &clockOut, &breaks,
		&e.TotalBreakMinutes, &e.Status, &e.Location, &e.ClosedBy); err != nil {
		return nil, err
	}

	var err error
	if e.ClockIn, err = parseTime(clockIn); err != nil {
		return nil, err
	}
	if clockOut.Valid {
		t, err := parseTime(clockOut.String)
		if err != nil {
			return nil, err
		}
		e.ClockOut = &t
	}
	if err := json.Unmarshal([]byte(breaks), &e.Breaks); err != nil {
		return nil, fmt.Errorf("decode breaks for entry %s: %w", e.ID, err)
	}
	return &e, nil
}

// =============================================================================
// PAY STUBS
// =============================================================================

func (s *Store) CreateStub(ctx context.Context, stub core.PayStub) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pay_stubs (id, org_id, user_id, period_start, period_end, status, total_hours, gross_pay, released_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(stub.ID), string(stub.OrgID), string(stub.UserID),
		formatTime(stub.PeriodStart), formatTime(stub.PeriodEnd), string(stub.Status),
		stub.TotalHours.String(), stub.GrossPay.String(), nullableTime(stub.ReleasedAt))
	if isUniqueViolation(err) {
		return &core.ConflictError{Code: "StubExists", Message: "stub exists for worker and period"}
	}
	return err
}

func (s *Store) UpdateStub(ctx context.Context, stub core.PayStub) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM pay_stubs WHERE id = ?`, string(stub.ID)).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return &core.NotFoundError{Kind: "pay_stub", ID: string(stub.ID)}
	}
	if err != nil {
		return err
	}
	if status == string(core.StubReleased) {
		return &core.LockedError{Kind: "pay_stub", ID: string(stub.ID)}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE pay_stubs SET status = ?, total_hours = ?, gross_pay = ?, released_at = ? WHERE id = ?`,
		string(stub.Status), stub.TotalHours.String(), stub.GrossPay.String(),
		nullableTime(stub.ReleasedAt), string(stub.ID))
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) GetStub(ctx context.Context, id core.StubID) (*core.PayStub, error) {
	row := s.db.QueryRowContext(ctx, stubSelect+` WHERE id = ?`, string(id))
	stub, err := scanStub(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Kind: "pay_stub", ID: string(id)}
	}
	return stub, err
}

func (s *Store) FindStub(ctx context.Context, org core.OrgID, user core.UserID, periodStart time.Time) (*core.PayStub, error) {
	row := s.db.QueryRowContext(ctx,
		stubSelect+` WHERE org_id = ? AND user_id = ? AND period_start = ?`,
		string(org), string(user), formatTime(periodStart))
	stub, err := scanStub(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return stub, err
}

func (s *Store) ListStubs(ctx context.Context, org core.OrgID) ([]core.PayStub, error) {
	rows, err := s.db.QueryContext(ctx,
		stubSelect+` WHERE org_id = ? ORDER BY user_id, period_start`, string(org))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stubs []core.PayStub
	for rows.Next() {
		stub, err := scanStub(rows)
		if err != nil {
			return nil, err
		}
		stubs = append(stubs, *stub)
	}
	return stubs, rows.Err()
}

const stubSelect = `
	SELECT id, org_id, user_id, period_start, period_end, status, total_hours, gross_pay, released_at
	FROM pay_stubs`

func scanStub(row rowScanner) (*core.PayStub, error) {
	var stub core.PayStub
	var periodStart, periodEnd, totalHours, grossPay string
	var releasedAt sql.NullString
	if err := row.Scan(&stub.ID, &stub.OrgID, &stub.UserID, &periodStart, &periodEnd,
		&stub.Status, &totalHours, &grossPay, &releasedAt); err != nil {
		return nil, err
	}

	var err error
	if stub.PeriodStart, err = parseTime(periodStart); err != nil {
		return nil, err
	}
	if stub.PeriodEnd, err = parseTime(periodEnd); err != nil {
		return nil, err
	}
	if stub.TotalHours, err = decimal.NewFromString(totalHours); err != nil {
		return nil, fmt.Errorf("decode total_hours for stub %s: %w", stub.ID, err)
	}
	if stub.GrossPay, err = decimal.NewFromString(grossPay); err != nil {
		return nil, fmt.Errorf("decode gross_pay for stub %s: %w", stub.ID, err)
	}
	if releasedAt.Valid {
		t, err := parseTime(releasedAt.String)
		if err != nil {
			return nil, err
		}
		stub.ReleasedAt = &t
	}
	return &stub, nil
}

// =============================================================================
// SETTINGS
// =============================================================================

func (s *Store) LoadOrgSettings(ctx context.Context, org core.OrgID) (*core.OrgSettings, error) {
	var settings core.OrgSettings
	err := s.db.QueryRowContext(ctx,
		`SELECT org_id, pay_period, start_day FROM org_settings WHERE org_id = ?`,
		string(org)).Scan(&settings.OrgID, &settings.PayPeriod, &settings.StartDay)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Kind: "org_settings", ID: string(org)}
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *Store) SaveOrgSettings(ctx context.Context, settings core.OrgSettings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO org_settings (org_id, pay_period, start_day) VALUES (?, ?, ?)`,
		string(settings.OrgID), string(settings.PayPeriod), settings.StartDay)
	return err
}

func (s *Store) LoadRatios(ctx context.Context, org core.OrgID) ([]core.StaffingRatio, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT zone, staff_count, dog_count FROM staffing_ratios WHERE org_id = ? ORDER BY zone`,
		string(org))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratios []core.StaffingRatio
	for rows.Next() {
		var r core.StaffingRatio
		if err := rows.Scan(&r.Zone, &r.StaffCount, &r.DogCount); err != nil {
			return nil, err
		}
		ratios = append(ratios, r)
	}
	return ratios, rows.Err()
}

func (s *Store) SaveRatios(ctx context.Context, org core.OrgID, ratios []core.StaffingRatio) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM staffing_ratios WHERE org_id = ?`, string(org)); err != nil {
		return err
	}
	for _, r := range ratios {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO staffing_ratios (org_id, zone, staff_count, dog_count) VALUES (?, ?, ?, ?)`,
			string(org), r.Zone, r.StaffCount, r.DogCount)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// =============================================================================
// HELPERS
// =============================================================================

// timeLayout is fixed-width (no trailing-zero trimming) so stored
// strings compare lexicographically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) { return time.Parse(time.RFC3339Nano, s) }

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
