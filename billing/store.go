/*
store.go - Storage interfaces consumed by the surrounding CRUD layer

PURPOSE:
  The engine itself is pure and needs no storage. These interfaces define
  the collaborators the API layer wires together: an entry/correction
  provider, a rate-rule provider, a holiday/standard-schedule provider,
  and statement persistence. Implementations: billing/store (in-memory,
  tests and dev) and store/sqlite (production).

FILTER CONVENTION:
  List methods take (trainer, month, year) filters; the zero value of a
  filter ("" or 0) means "no filter on this dimension".

APPEND-ONLY CORRECTIONS:
  Corrections have no update or delete. A wrong correction is fixed by
  another correction - the same reversal discipline the ledger itself
  follows.
*/
package billing

import "context"

// EntryStore persists base time entries. The API layer must consult
// IsLocked before mutating: a locked (trainer, month, year) key rejects
// create/update/delete.
type EntryStore interface {
	CreateEntry(ctx context.Context, e TimeEntry) error
	UpdateEntry(ctx context.Context, e TimeEntry) error
	DeleteEntry(ctx context.Context, id string) error
	GetEntry(ctx context.Context, id string) (*TimeEntry, error)
	ListEntries(ctx context.Context, trainer string, month, year int) ([]TimeEntry, error)
}

// CorrectionStore persists corrections. Append-only.
type CorrectionStore interface {
	CreateCorrection(ctx context.Context, c Correction) error
	ListCorrections(ctx context.Context, trainer string, month, year int) ([]Correction, error)
}

// RateStore persists the time-versioned rate table.
type RateStore interface {
	CreateRateRule(ctx context.Context, r RateRule) error
	ListRateRules(ctx context.Context) ([]RateRule, error)
}

// CalendarStore persists conflict-detection reference data: the holiday
// calendar and the standard weekly schedule.
type CalendarStore interface {
	AddHoliday(ctx context.Context, d Date) error
	ListHolidays(ctx context.Context) ([]Date, error)
	CreateScheduleRule(ctx context.Context, r ScheduleRule) error
	ListScheduleRules(ctx context.Context) ([]ScheduleRule, error)
}

// StatementStore persists monthly statements. CreateStatement must fail
// with ErrStatementExists when an active statement already holds the
// (trainer, month, year) key - this is the serialization point for
// concurrent statement creation.
type StatementStore interface {
	CreateStatement(ctx context.Context, s MonthlyStatement) error
	GetStatement(ctx context.Context, id string) (*MonthlyStatement, error)
	UpdateStatementStatus(ctx context.Context, id string, status StatementStatus) error
	ListStatements(ctx context.Context, trainer string, month, year int) ([]MonthlyStatement, error)
}

// Store is the full persistence surface the API layer depends on.
type Store interface {
	EntryStore
	CorrectionStore
	RateStore
	CalendarStore
	StatementStore
}
