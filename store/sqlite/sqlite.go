/*
Package sqlite provides a SQLite-backed implementation of billing.Store.

PURPOSE:
  Production persistence for time entries, corrections, rate rules, the
  holiday calendar, standard schedules, and monthly statements. The same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  time_entries:   Base logged sessions
  corrections:    Append-only adjustments (no UPDATE, no DELETE)
  rate_rules:     Time-versioned wage table
  holidays:       Non-training days
  schedule_rules: Expected weekly slots per sport
  statements:     Monthly statements with status lifecycle

STATEMENT UNIQUENESS:
  A unique partial index on statements(trainer, month, year) WHERE
  status != 'voided' is the serialization point for concurrent statement
  creation: the lock-gate predicate alone is not atomic, the index is.

WAL MODE:
  SQLite is opened with WAL for better concurrency: multiple readers
  don't block, single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/club.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - billing/store.go: Interface definitions
  - billing/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/billing-engine/billing"
)

// Store implements billing.Store using SQLite.
type Store struct {
	db *sql.DB
}

var _ billing.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS time_entries (
		id TEXT PRIMARY KEY,
		trainer TEXT NOT NULL,
		date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		sport TEXT NOT NULL,
		field TEXT NOT NULL,
		role TEXT NOT NULL,
		setup INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_trainer_date
		ON time_entries(trainer, date);
	CREATE INDEX IF NOT EXISTS idx_entries_date_field
		ON time_entries(date, field);

	-- Corrections are append-only: no UPDATE, no DELETE. A wrong
	-- correction is fixed by another correction.
	CREATE TABLE IF NOT EXISTS corrections (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		trainer TEXT NOT NULL,
		date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		sport TEXT NOT NULL,
		field TEXT NOT NULL,
		role TEXT NOT NULL,
		setup INTEGER NOT NULL DEFAULT 0,
		ref_id TEXT,
		comment TEXT,
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_corrections_trainer_period
		ON corrections(trainer, year, month);

	CREATE TABLE IF NOT EXISTS rate_rules (
		role TEXT NOT NULL,
		hourly_wage TEXT NOT NULL,
		setup_bonus TEXT NOT NULL,
		effective_from TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rates_role_from
		ON rate_rules(role, effective_from);

	CREATE TABLE IF NOT EXISTS holidays (
		date TEXT PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS schedule_rules (
		sport TEXT NOT NULL,
		weekday INTEGER NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		valid_from TEXT NOT NULL,
		valid_to TEXT
	);

	CREATE TABLE IF NOT EXISTS statements (
		id TEXT PRIMARY KEY,
		trainer TEXT NOT NULL,
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		status TEXT NOT NULL,
		total TEXT NOT NULL,
		setup_mode TEXT NOT NULL DEFAULT 'flat_bonus',
		document_ref TEXT,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: one active statement per (trainer, month, year).
	-- This is what makes concurrent statement creation safe; the pure
	-- lock-gate predicate provides no atomicity on its own.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_statements_active
		ON statements(trainer, month, year)
		WHERE status != 'voided';
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ENTRIES
// =============================================================================

func (s *Store) CreateEntry(ctx context.Context, e billing.TimeEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO time_entries (id, trainer, date, start_time, end_time, sport, field, role, setup, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Trainer, e.Date.String(), e.Start.String(), e.End.String(),
		e.Sport, e.Field, string(e.Role), boolToInt(e.Setup), nowRFC3339(),
	)
	return err
}

func (s *Store) UpdateEntry(ctx context.Context, e billing.TimeEntry) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE time_entries
		SET trainer = ?, date = ?, start_time = ?, end_time = ?, sport = ?, field = ?, role = ?, setup = ?
		WHERE id = ?`,
		e.Trainer, e.Date.String(), e.Start.String(), e.End.String(),
		e.Sport, e.Field, string(e.Role), boolToInt(e.Setup), e.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM time_entries WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) GetEntry(ctx context.Context, id string) (*billing.TimeEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, trainer, date, start_time, end_time, sport, field, role, setup
		FROM time_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, billing.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) ListEntries(ctx context.Context, trainer string, month, year int) ([]billing.TimeEntry, error) {
	query := `
		SELECT id, trainer, date, start_time, end_time, sport, field, role, setup
		FROM time_entries`
	where, args := entryFilters(trainer, month, year)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date, start_time, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []billing.TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func entryFilters(trainer string, month, year int) ([]string, []interface{}) {
	var where []string
	var args []interface{}
	if trainer != "" {
		where = append(where, "trainer = ?")
		args = append(args, trainer)
	}
	if year != 0 && month != 0 {
		where = append(where, "date LIKE ?")
		args = append(args, fmt.Sprintf("%04d-%02d-%%", year, month))
	} else if year != 0 {
		where = append(where, "date LIKE ?")
		args = append(args, fmt.Sprintf("%04d-%%", year))
	}
	return where, args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(r rowScanner) (billing.TimeEntry, error) {
	var e billing.TimeEntry
	var date, start, end, role string
	var setup int
	if err := r.Scan(&e.ID, &e.Trainer, &date, &start, &end, &e.Sport, &e.Field, &role, &setup); err != nil {
		return billing.TimeEntry{}, err
	}
	var err error
	if e.Date, err = billing.ParseDate(date); err != nil {
		return billing.TimeEntry{}, err
	}
	if e.Start, err = billing.ParseClockTime(start); err != nil {
		return billing.TimeEntry{}, err
	}
	if e.End, err = billing.ParseClockTime(end); err != nil {
		return billing.TimeEntry{}, err
	}
	e.Role = billing.Role(role)
	e.Setup = setup != 0
	return e, nil
}

// =============================================================================
// CORRECTIONS
// =============================================================================

func (s *Store) CreateCorrection(ctx context.Context, c billing.Correction) error {
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO corrections (id, kind, trainer, date, start_time, end_time, sport, field, role, setup, ref_id, comment, month, year, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, string(c.Kind), c.Trainer, c.Date.String(), c.Start.String(), c.End.String(),
		c.Sport, c.Field, string(c.Role), boolToInt(c.Setup), c.Ref, c.Comment, c.Month, c.Year, nowRFC3339(),
	)
	return err
}

func (s *Store) ListCorrections(ctx context.Context, trainer string, month, year int) ([]billing.Correction, error) {
	query := `
		SELECT id, kind, trainer, date, start_time, end_time, sport, field, role, setup, ref_id, comment, month, year
		FROM corrections`
	var where []string
	var args []interface{}
	if trainer != "" {
		where = append(where, "trainer = ?")
		args = append(args, trainer)
	}
	if month != 0 {
		where = append(where, "month = ?")
		args = append(args, month)
	}
	if year != 0 {
		where = append(where, "year = ?")
		args = append(args, year)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var corrections []billing.Correction
	for rows.Next() {
		var c billing.Correction
		var kind, date, start, end, role string
		var setup int
		var ref, comment sql.NullString
		if err := rows.Scan(&c.ID, &kind, &c.Trainer, &date, &start, &end, &c.Sport, &c.Field, &role, &setup, &ref, &comment, &c.Month, &c.Year); err != nil {
			return nil, err
		}
		c.Kind = billing.CorrectionKind(kind)
		if c.Date, err = billing.ParseDate(date); err != nil {
			return nil, err
		}
		if c.Start, err = billing.ParseClockTime(start); err != nil {
			return nil, err
		}
		if c.End, err = billing.ParseClockTime(end); err != nil {
			return nil, err
		}
		c.Role = billing.Role(role)
		c.Setup = setup != 0
		c.Ref = ref.String
		c.Comment = comment.String
		corrections = append(corrections, c)
	}
	return corrections, rows.Err()
}

// =============================================================================
// RATES
// =============================================================================

func (s *Store) CreateRateRule(ctx context.Context, r billing.RateRule) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rate_rules (role, hourly_wage, setup_bonus, effective_from)
		VALUES (?, ?, ?, ?)`,
		string(r.Role), r.HourlyWage.String(), r.SetupBonus.String(), r.EffectiveFrom.String(),
	)
	return err
}

func (s *Store) ListRateRules(ctx context.Context) ([]billing.RateRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, hourly_wage, setup_bonus, effective_from
		FROM rate_rules ORDER BY role, effective_from`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []billing.RateRule
	for rows.Next() {
		var role, wage, bonus, from string
		if err := rows.Scan(&role, &wage, &bonus, &from); err != nil {
			return nil, err
		}
		r := billing.RateRule{Role: billing.Role(role)}
		if r.HourlyWage, err = billing.ParseMoney(wage); err != nil {
			return nil, err
		}
		if r.SetupBonus, err = billing.ParseMoney(bonus); err != nil {
			return nil, err
		}
		if r.EffectiveFrom, err = billing.ParseDate(from); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// =============================================================================
// CALENDAR
// =============================================================================

func (s *Store) AddHoliday(ctx context.Context, d billing.Date) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO holidays (date) VALUES (?)`, d.String())
	return err
}

func (s *Store) ListHolidays(ctx context.Context) ([]billing.Date, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date FROM holidays ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []billing.Date
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		d, err := billing.ParseDate(raw)
		if err != nil {
			return nil, err
		}
		holidays = append(holidays, d)
	}
	return holidays, rows.Err()
}

func (s *Store) CreateScheduleRule(ctx context.Context, r billing.ScheduleRule) error {
	var validTo interface{}
	if r.ValidTo != nil {
		validTo = r.ValidTo.String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schedule_rules (sport, weekday, start_time, end_time, valid_from, valid_to)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.Sport, r.Weekday, r.Start.String(), r.End.String(), r.ValidFrom.String(), validTo,
	)
	return err
}

func (s *Store) ListScheduleRules(ctx context.Context) ([]billing.ScheduleRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sport, weekday, start_time, end_time, valid_from, valid_to
		FROM schedule_rules ORDER BY sport, weekday, start_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []billing.ScheduleRule
	for rows.Next() {
		var r billing.ScheduleRule
		var start, end, from string
		var to sql.NullString
		if err := rows.Scan(&r.Sport, &r.Weekday, &start, &end, &from, &to); err != nil {
			return nil, err
		}
		if r.Start, err = billing.ParseClockTime(start); err != nil {
			return nil, err
		}
		if r.End, err = billing.ParseClockTime(end); err != nil {
			return nil, err
		}
		if r.ValidFrom, err = billing.ParseDate(from); err != nil {
			return nil, err
		}
		if to.Valid {
			d, err := billing.ParseDate(to.String)
			if err != nil {
				return nil, err
			}
			r.ValidTo = &d
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// =============================================================================
// STATEMENTS
// =============================================================================

func (s *Store) CreateStatement(ctx context.Context, st billing.MonthlyStatement) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO statements (id, trainer, month, year, status, total, setup_mode, document_ref, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.Trainer, st.Month, st.Year, string(st.Status), st.Total.String(),
		string(st.SetupMode.Normalize()), st.DocumentRef, nowRFC3339(),
	)
	return mapStatementConflict(err)
}

func (s *Store) GetStatement(ctx context.Context, id string) (*billing.MonthlyStatement, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, trainer, month, year, status, total, setup_mode, document_ref
		FROM statements WHERE id = ?`, id)
	st, err := scanStatement(row)
	if err == sql.ErrNoRows {
		return nil, billing.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) UpdateStatementStatus(ctx context.Context, id string, status billing.StatementStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE statements SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		// Reactivating a voided statement hits the active-per-key index
		// when another statement holds the period.
		return mapStatementConflict(err)
	}
	return requireRow(res)
}

func (s *Store) ListStatements(ctx context.Context, trainer string, month, year int) ([]billing.MonthlyStatement, error) {
	query := `
		SELECT id, trainer, month, year, status, total, setup_mode, document_ref
		FROM statements`
	var where []string
	var args []interface{}
	if trainer != "" {
		where = append(where, "trainer = ?")
		args = append(args, trainer)
	}
	if month != 0 {
		where = append(where, "month = ?")
		args = append(args, month)
	}
	if year != 0 {
		where = append(where, "year = ?")
		args = append(args, year)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY year, month, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statements []billing.MonthlyStatement
	for rows.Next() {
		st, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		statements = append(statements, st)
	}
	return statements, rows.Err()
}

func scanStatement(r rowScanner) (billing.MonthlyStatement, error) {
	var st billing.MonthlyStatement
	var status, total, setupMode string
	var docRef sql.NullString
	if err := r.Scan(&st.ID, &st.Trainer, &st.Month, &st.Year, &status, &total, &setupMode, &docRef); err != nil {
		return billing.MonthlyStatement{}, err
	}
	st.Status = billing.StatementStatus(status)
	st.SetupMode = billing.SetupMode(setupMode)
	t, err := billing.ParseMoney(total)
	if err != nil {
		return billing.MonthlyStatement{}, err
	}
	st.Total = t
	st.DocumentRef = docRef.String
	return st, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// mapStatementConflict translates the active-per-key unique index
// violation into the portable sentinel.
func mapStatementConflict(err error) error {
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return billing.ErrStatementExists
	}
	return err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return billing.ErrNotFound
	}
	return nil
}
