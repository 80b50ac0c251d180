/*
store.go - Persistence interfaces for the staffing engine

PURPOSE:
  Defines the interface between domain logic and the database (the
  "ledger store"). Different implementations can use SQLite or in-memory
  storage; the domain packages never see a concrete store.

KEY INTERFACES:
  ShiftStore:    Draft/published shift persistence
  EntryStore:    Time entry persistence with the active-entry guard
  StubStore:     Pay stub persistence with the released-stub guard
  SettingsStore: Organization pay-period settings and staffing ratios
  Store:         All of the above

CONDITIONAL WRITE CONTRACT:
  CreateActiveEntry MUST enforce at-most-one-active-entry-per-worker
  atomically. Two concurrent clock-ins for the same worker must not both
  succeed; the loser receives a ConflictError with code "AlreadyClockedIn".
  In SQLite this is a partial unique index; in memory it is a check under
  the write lock.

IMMUTABILITY GUARDS:
  - UpdateEntry fails with LockedError when the stored entry is approved.
  - UpdateStub fails with LockedError when the stored stub is released.
  Corrections to approved records go through explicit re-approval, never
  through in-place edits.

IMPLEMENTATIONS:
  - store/sqlite: production store
  - core/store:   in-memory store for tests and development

SEE ALSO:
  - timeledger: clock-in/out state machine on top of EntryStore
  - payroll:    stub lifecycle on top of StubStore
*/
package core

import (
	"context"
	"time"
)

// =============================================================================
// STORE INTERFACES
// =============================================================================

// ShiftStore persists shifts, keyed by organization and date range.
type ShiftStore interface {
	// SaveShifts persists a batch of shifts (insert or replace by ID).
	SaveShifts(ctx context.Context, shifts []Shift) error

	// LoadShifts returns shifts whose start falls in [from, to].
	LoadShifts(ctx context.Context, org OrgID, from, to time.Time) ([]Shift, error)
}

// EntryStore persists time entries.
type EntryStore interface {
	// CreateActiveEntry inserts a new active entry. Fails with
	// ConflictError("AlreadyClockedIn") if the worker already has an
	// active entry. The check-and-insert is atomic.
	CreateActiveEntry(ctx context.Context, entry TimeEntry) error

	// UpdateEntry replaces a stored entry. Fails with NotFoundError if
	// absent, LockedError if the stored entry is already approved.
	UpdateEntry(ctx context.Context, entry TimeEntry) error

	// GetEntry returns one entry by ID, or NotFoundError.
	GetEntry(ctx context.Context, id EntryID) (*TimeEntry, error)

	// ActiveEntry returns the worker's active entry, or nil if none.
	ActiveEntry(ctx context.Context, org OrgID, user UserID) (*TimeEntry, error)

	// LoadEntries returns entries whose clock-in falls in [from, to].
	LoadEntries(ctx context.Context, org OrgID, from, to time.Time) ([]TimeEntry, error)

	// LoadUserEntries is LoadEntries filtered to one worker.
	LoadUserEntries(ctx context.Context, org OrgID, user UserID, from, to time.Time) ([]TimeEntry, error)
}

// StubStore persists pay stubs.
type StubStore interface {
	// CreateStub inserts a stub. Fails with ConflictError if a stub for
	// (org, user, period start) already exists.
	CreateStub(ctx context.Context, stub PayStub) error

	// UpdateStub replaces a stored stub. Fails with NotFoundError if
	// absent, LockedError if the stored stub is already released.
	UpdateStub(ctx context.Context, stub PayStub) error

	// GetStub returns one stub by ID, or NotFoundError.
	GetStub(ctx context.Context, id StubID) (*PayStub, error)

	// FindStub returns the stub keyed by (org, user, period start), or
	// nil if the pair is still in the implicit draft state.
	FindStub(ctx context.Context, org OrgID, user UserID, periodStart time.Time) (*PayStub, error)

	// ListStubs returns all stubs for an organization.
	ListStubs(ctx context.Context, org OrgID) ([]PayStub, error)
}

// SettingsStore persists organization configuration.
type SettingsStore interface {
	// LoadOrgSettings returns the org's pay-period settings, or
	// NotFoundError if the org has none saved.
	LoadOrgSettings(ctx context.Context, org OrgID) (*OrgSettings, error)

	SaveOrgSettings(ctx context.Context, settings OrgSettings) error

	// LoadRatios returns the org's staffing ratios (may be empty).
	LoadRatios(ctx context.Context, org OrgID) ([]StaffingRatio, error)

	SaveRatios(ctx context.Context, org OrgID, ratios []StaffingRatio) error
}

// Store is the full ledger-store contract.
type Store interface {
	ShiftStore
	EntryStore
	StubStore
	SettingsStore
}
