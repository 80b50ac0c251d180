// Package store provides the in-memory core.Store implementation used
// in tests and development. The SQLite-backed production store lives in
// store/sqlite.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/staffing-engine/core"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	shifts   map[core.ShiftID]core.Shift
	entries  map[core.EntryID]core.TimeEntry
	stubs    map[core.StubID]core.PayStub
	settings map[core.OrgID]core.OrgSettings
	ratios   map[core.OrgID][]core.StaffingRatio
}

var _ core.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		shifts:   make(map[core.ShiftID]core.Shift),
		entries:  make(map[core.EntryID]core.TimeEntry),
		stubs:    make(map[core.StubID]core.PayStub),
		settings: make(map[core.OrgID]core.OrgSettings),
		ratios:   make(map[core.OrgID][]core.StaffingRatio),
	}
}

// =============================================================================
// SHIFTS
// =============================================================================

func (m *Memory) SaveShifts(_ context.Context, shifts []core.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range shifts {
		m.shifts[s.ID] = s
	}
	return nil
}

func (m *Memory) LoadShifts(_ context.Context, org core.OrgID, from, to time.Time) ([]core.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []core.Shift
	for _, s := range m.shifts {
		if s.OrgID == org && !s.Start.Before(from) && !s.Start.After(to) {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Start.Before(result[j].Start) })
	return result, nil
}

// =============================================================================
// TIME ENTRIES
// =============================================================================

// CreateActiveEntry performs the conditional write under the write lock:
// the active-entry check and the insert are a single atomic step, so two
// concurrent clock-ins for the same worker cannot both succeed.
func (m *Memory) CreateActiveEntry(_ context.Context, entry core.TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.entries {
		if e.OrgID == entry.OrgID && e.UserID == entry.UserID && e.Status == core.EntryActive {
			return &core.ConflictError{Code: "AlreadyClockedIn", Message: "active entry exists for worker"}
		}
	}
	m.entries[entry.ID] = copyEntry(entry)
	return nil
}

func (m *Memory) UpdateEntry(_ context.Context, entry core.TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.entries[entry.ID]
	if !ok {
		return &core.NotFoundError{Kind: "time_entry", ID: string(entry.ID)}
	}
	if stored.Status == core.EntryApproved {
		return &core.LockedError{Kind: "time_entry", ID: string(entry.ID)}
	}
	m.entries[entry.ID] = copyEntry(entry)
	return nil
}

func (m *Memory) GetEntry(_ context.Context, id core.EntryID) (*core.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[id]
	if !ok {
		return nil, &core.NotFoundError{Kind: "time_entry", ID: string(id)}
	}
	e := copyEntry(entry)
	return &e, nil
}

func (m *Memory) ActiveEntry(_ context.Context, org core.OrgID, user core.UserID) (*core.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.entries {
		if e.OrgID == org && e.UserID == user && e.Status == core.EntryActive {
			out := copyEntry(e)
			return &out, nil
		}
	}
	return nil, nil
}

func (m *Memory) LoadEntries(_ context.Context, org core.OrgID, from, to time.Time) ([]core.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadEntriesLocked(org, "", from, to), nil
}

func (m *Memory) LoadUserEntries(_ context.Context, org core.OrgID, user core.UserID, from, to time.Time) ([]core.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadEntriesLocked(org, user, from, to), nil
}

func (m *Memory) loadEntriesLocked(org core.OrgID, user core.UserID, from, to time.Time) []core.TimeEntry {
	var result []core.TimeEntry
	for _, e := range m.entries {
		if e.OrgID != org || e.ClockIn.Before(from) || e.ClockIn.After(to) {
			continue
		}
		if user != "" && e.UserID != user {
			continue
		}
		result = append(result, copyEntry(e))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ClockIn.Before(result[j].ClockIn) })
	return result
}

// copyEntry deep-copies the breaks slice so callers never alias stored
// state.
func copyEntry(e core.TimeEntry) core.TimeEntry {
	breaks := make([]core.Break, len(e.Breaks))
	copy(breaks, e.Breaks)
	e.Breaks = breaks
	return e
}

// =============================================================================
// PAY STUBS
// =============================================================================

func (m *Memory) CreateStub(_ context.Context, stub core.PayStub) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.stubs {
		if s.OrgID == stub.OrgID && s.UserID == stub.UserID && s.PeriodStart.Equal(stub.PeriodStart) {
			return &core.ConflictError{Code: "StubExists", Message: "stub exists for worker and period"}
		}
	}
	m.stubs[stub.ID] = stub
	return nil
}

func (m *Memory) UpdateStub(_ context.Context, stub core.PayStub) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.stubs[stub.ID]
	if !ok {
		return &core.NotFoundError{Kind: "pay_stub", ID: string(stub.ID)}
	}
	if stored.Status == core.StubReleased {
		return &core.LockedError{Kind: "pay_stub", ID: string(stub.ID)}
	}
	m.stubs[stub.ID] = stub
	return nil
}

func (m *Memory) GetStub(_ context.Context, id core.StubID) (*core.PayStub, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stub, ok := m.stubs[id]
	if !ok {
		return nil, &core.NotFoundError{Kind: "pay_stub", ID: string(id)}
	}
	return &stub, nil
}

func (m *Memory) FindStub(_ context.Context, org core.OrgID, user core.UserID, periodStart time.Time) (*core.PayStub, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.stubs {
		if s.OrgID == org && s.UserID == user && s.PeriodStart.Equal(periodStart) {
			stub := s
			return &stub, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListStubs(_ context.Context, org core.OrgID) ([]core.PayStub, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []core.PayStub
	for _, s := range m.stubs {
		if s.OrgID == org {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].UserID != result[j].UserID {
			return result[i].UserID < result[j].UserID
		}
		return result[i].PeriodStart.Before(result[j].PeriodStart)
	})
	return result, nil
}

// =============================================================================
// SETTINGS
// =============================================================================

func (m *Memory) LoadOrgSettings(_ context.Context, org core.OrgID) (*core.OrgSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.settings[org]
	if !ok {
		return nil, &core.NotFoundError{Kind: "org_settings", ID: string(org)}
	}
	return &s, nil
}

func (m *Memory) SaveOrgSettings(_ context.Context, settings core.OrgSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[settings.OrgID] = settings
	return nil
}

func (m *Memory) LoadRatios(_ context.Context, org core.OrgID) ([]core.StaffingRatio, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ratios := make([]core.StaffingRatio, len(m.ratios[org]))
	copy(ratios, m.ratios[org])
	return ratios, nil
}

func (m *Memory) SaveRatios(_ context.Context, org core.OrgID, ratios []core.StaffingRatio) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]core.StaffingRatio, len(ratios))
	copy(stored, ratios)
	m.ratios[org] = stored
	return nil
}
