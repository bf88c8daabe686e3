// Package store provides an in-memory billing.Store for tests and dev.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/billing-engine/billing"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	entries     map[string]billing.TimeEntry
	corrections []billing.Correction
	rates       []billing.RateRule
	holidays    []billing.Date
	schedules   []billing.ScheduleRule
	statements  map[string]billing.MonthlyStatement
}

func NewMemory() *Memory {
	return &Memory{
		entries:    make(map[string]billing.TimeEntry),
		statements: make(map[string]billing.MonthlyStatement),
	}
}

var _ billing.Store = (*Memory)(nil)

// =============================================================================
// ENTRIES
// =============================================================================

func (m *Memory) CreateEntry(_ context.Context, e billing.TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.ID] = e
	return nil
}

func (m *Memory) UpdateEntry(_ context.Context, e billing.TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[e.ID]; !ok {
		return billing.ErrNotFound
	}
	m.entries[e.ID] = e
	return nil
}

func (m *Memory) DeleteEntry(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return billing.ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *Memory) GetEntry(_ context.Context, id string) (*billing.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, billing.ErrNotFound
	}
	return &e, nil
}

func (m *Memory) ListEntries(_ context.Context, trainer string, month, year int) ([]billing.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []billing.TimeEntry
	for _, e := range m.entries {
		if trainer != "" && e.Trainer != trainer {
			continue
		}
		if month != 0 && int(e.Date.Month()) != month {
			continue
		}
		if year != 0 && e.Date.Year() != year {
			continue
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		if result[i].Start != result[j].Start {
			return result[i].Start < result[j].Start
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// =============================================================================
// CORRECTIONS (append-only)
// =============================================================================

func (m *Memory) CreateCorrection(_ context.Context, c billing.Correction) error {
	if err := c.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.corrections = append(m.corrections, c)
	return nil
}

func (m *Memory) ListCorrections(_ context.Context, trainer string, month, year int) ([]billing.Correction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []billing.Correction
	for _, c := range m.corrections {
		if trainer != "" && c.Trainer != trainer {
			continue
		}
		if month != 0 && c.Month != month {
			continue
		}
		if year != 0 && c.Year != year {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// =============================================================================
// RATES
// =============================================================================

func (m *Memory) CreateRateRule(_ context.Context, r billing.RateRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates = append(m.rates, r)
	return nil
}

func (m *Memory) ListRateRules(_ context.Context) ([]billing.RateRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]billing.RateRule, len(m.rates))
	copy(result, m.rates)
	return result, nil
}

// =============================================================================
// CALENDAR
// =============================================================================

func (m *Memory) AddHoliday(_ context.Context, d billing.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.holidays {
		if h.Equal(d) {
			return nil
		}
	}
	m.holidays = append(m.holidays, d)
	return nil
}

func (m *Memory) ListHolidays(_ context.Context) ([]billing.Date, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]billing.Date, len(m.holidays))
	copy(result, m.holidays)
	sort.Slice(result, func(i, j int) bool { return result[i].Before(result[j]) })
	return result, nil
}

func (m *Memory) CreateScheduleRule(_ context.Context, r billing.ScheduleRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules = append(m.schedules, r)
	return nil
}

func (m *Memory) ListScheduleRules(_ context.Context) ([]billing.ScheduleRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]billing.ScheduleRule, len(m.schedules))
	copy(result, m.schedules)
	return result, nil
}

// =============================================================================
// STATEMENTS
// =============================================================================

func (m *Memory) CreateStatement(_ context.Context, s billing.MonthlyStatement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// One active statement per (trainer, month, year): the in-memory
	// equivalent of the SQLite unique partial index.
	for _, existing := range m.statements {
		if existing.Trainer == s.Trainer && existing.Month == s.Month &&
			existing.Year == s.Year && existing.Status.Active() {
			return billing.ErrStatementExists
		}
	}
	m.statements[s.ID] = s
	return nil
}

func (m *Memory) GetStatement(_ context.Context, id string) (*billing.MonthlyStatement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.statements[id]
	if !ok {
		return nil, billing.ErrNotFound
	}
	return &s, nil
}

func (m *Memory) UpdateStatementStatus(_ context.Context, id string, status billing.StatementStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.statements[id]
	if !ok {
		return billing.ErrNotFound
	}
	// Reactivating a voided statement must not break the one-active-
	// statement-per-key rule: another statement may hold the key now.
	if status.Active() && !s.Status.Active() {
		for _, existing := range m.statements {
			if existing.ID != id && existing.Trainer == s.Trainer &&
				existing.Month == s.Month && existing.Year == s.Year &&
				existing.Status.Active() {
				return billing.ErrStatementExists
			}
		}
	}
	s.Status = status
	m.statements[id] = s
	return nil
}

func (m *Memory) ListStatements(_ context.Context, trainer string, month, year int) ([]billing.MonthlyStatement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []billing.MonthlyStatement
	for _, s := range m.statements {
		if trainer != "" && s.Trainer != trainer {
			continue
		}
		if month != 0 && s.Month != month {
			continue
		}
		if year != 0 && s.Year != year {
			continue
		}
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
