/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Caches reference data (production calendars and the key-rate history)
  so it is fetched from the network once, and keeps a history of
  calculation runs with the configuration each was made from.

INTERFACES IMPLEMENTED:
  generic.ReferenceStore: calendar years and key rates

KEY TABLES:
  calendar_years:    One row per loaded year
  non_working_days:  Weekends and holidays of loaded years
  key_rates:         Key-rate changes (effective date, percent)
  key_rate_coverage: The last date the stored key-rate history covers
  calculation_runs:  Saved runs (configuration and totals)

REPLACE SEMANTICS:
  Reference data is replaced, never merged:
  - Saving a year deletes its old non-working days in the same transaction
  - Saving key rates replaces the whole history and its coverage date

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. The loader fetches years in
  parallel, so writes do arrive concurrently.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/reference.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  loader := source.NewLoader(store, source.NewXMLCalendar(nil), source.NewCBRKeyRates(nil), logger)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - generic/store.go: Interface definition
  - generic/store/memory.go: In-memory implementation for testing
  - source/loader.go: Fills the cache
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/wage-arrears/generic"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

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
	-- Production calendar years
	CREATE TABLE IF NOT EXISTS calendar_years (
		year INTEGER PRIMARY KEY,
		loaded_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS non_working_days (
		date TEXT PRIMARY KEY,
		year INTEGER NOT NULL REFERENCES calendar_years(year) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_non_working_days_year
		ON non_working_days(year);

	-- Key-rate history
	CREATE TABLE IF NOT EXISTS key_rates (
		effective_date TEXT PRIMARY KEY,
		rate TEXT NOT NULL
	);

	-- Single row: how far the key-rate history is known to be complete
	CREATE TABLE IF NOT EXISTS key_rate_coverage (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		to_date TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Calculation runs
	CREATE TABLE IF NOT EXISTS calculation_runs (
		id TEXT PRIMARY KEY,
		calculation_date TEXT NOT NULL,
		config_json TEXT NOT NULL,
		underpayment TEXT NOT NULL,
		compensation TEXT NOT NULL,
		due TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_calculation_runs_created
		ON calculation_runs(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CALENDAR YEARS
// =============================================================================

// SaveCalendarYear replaces the non-working days of a year.
func (s *Store) SaveCalendarYear(ctx context.Context, year generic.CalendarYear) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx, `DELETE FROM non_working_days WHERE year = ?`, year.Year); err != nil {
		return fmt.Errorf("failed to clear calendar year %d: %w", year.Year, err)
	}
	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO calendar_years (year, loaded_at) VALUES (?, ?)
		ON CONFLICT(year) DO UPDATE SET loaded_at = excluded.loaded_at
	`, year.Year, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save calendar year %d: %w", year.Year, err)
	}

	stmt, err := sqlTx.PrepareContext(ctx, `INSERT OR IGNORE INTO non_working_days (date, year) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range year.NonWorkingDays {
		if d.Year() != year.Year {
			return fmt.Errorf("non-working day %s is outside year %d", d, year.Year)
		}
		if _, err := stmt.ExecContext(ctx, d.String(), year.Year); err != nil {
			return fmt.Errorf("failed to save non-working day %s: %w", d, err)
		}
	}

	return sqlTx.Commit()
}

// LoadCalendarYear returns the stored year, or false when it was never saved.
func (s *Store) LoadCalendarYear(ctx context.Context, year int) (generic.CalendarYear, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var loadedAt string
	err := s.db.QueryRowContext(ctx, `SELECT loaded_at FROM calendar_years WHERE year = ?`, year).Scan(&loadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return generic.CalendarYear{}, false, nil
	}
	if err != nil {
		return generic.CalendarYear{}, false, fmt.Errorf("failed to load calendar year %d: %w", year, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT date FROM non_working_days WHERE year = ? ORDER BY date ASC`, year)
	if err != nil {
		return generic.CalendarYear{}, false, fmt.Errorf("failed to load non-working days: %w", err)
	}
	defer rows.Close()

	out := generic.CalendarYear{Year: year}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return generic.CalendarYear{}, false, err
		}
		d, err := generic.ParseDate(raw)
		if err != nil {
			return generic.CalendarYear{}, false, fmt.Errorf("corrupt non-working day %q: %w", raw, err)
		}
		out.NonWorkingDays = append(out.NonWorkingDays, d)
	}
	return out, true, rows.Err()
}

// CalendarYears lists the stored years in ascending order.
func (s *Store) CalendarYears(ctx context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT year FROM calendar_years ORDER BY year ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

// =============================================================================
// KEY RATES
// =============================================================================

// SaveKeyRates replaces the stored history and its coverage date.
func (s *Store) SaveKeyRates(ctx context.Context, rates []generic.KeyRate, coveredTo generic.TimePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx, `DELETE FROM key_rates`); err != nil {
		return fmt.Errorf("failed to clear key rates: %w", err)
	}
	for _, r := range rates {
		_, err := sqlTx.ExecContext(ctx,
			`INSERT OR REPLACE INTO key_rates (effective_date, rate) VALUES (?, ?)`,
			r.EffectiveFrom.String(), r.Rate.String())
		if err != nil {
			return fmt.Errorf("failed to save key rate %s: %w", r.EffectiveFrom, err)
		}
	}

	if coveredTo.IsZero() {
		_, err = sqlTx.ExecContext(ctx, `DELETE FROM key_rate_coverage`)
	} else {
		_, err = sqlTx.ExecContext(ctx, `
			INSERT INTO key_rate_coverage (id, to_date, updated_at) VALUES (1, ?, ?)
			ON CONFLICT(id) DO UPDATE SET to_date = excluded.to_date, updated_at = excluded.updated_at
		`, coveredTo.String(), time.Now().UTC().Format(time.RFC3339))
	}
	if err != nil {
		return fmt.Errorf("failed to save key rate coverage: %w", err)
	}

	return sqlTx.Commit()
}

// LoadKeyRates returns the history ordered by effective date and the date
// it covers. An empty store yields no rates and a zero date.
func (s *Store) LoadKeyRates(ctx context.Context) ([]generic.KeyRate, generic.TimePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT effective_date, rate FROM key_rates ORDER BY effective_date ASC`)
	if err != nil {
		return nil, generic.TimePoint{}, fmt.Errorf("failed to load key rates: %w", err)
	}
	defer rows.Close()

	var rates []generic.KeyRate
	for rows.Next() {
		var rawDate, rawRate string
		if err := rows.Scan(&rawDate, &rawRate); err != nil {
			return nil, generic.TimePoint{}, err
		}
		d, err := generic.ParseDate(rawDate)
		if err != nil {
			return nil, generic.TimePoint{}, fmt.Errorf("corrupt key rate date %q: %w", rawDate, err)
		}
		rate, err := decimal.NewFromString(rawRate)
		if err != nil {
			return nil, generic.TimePoint{}, fmt.Errorf("corrupt key rate %q: %w", rawRate, err)
		}
		rates = append(rates, generic.KeyRate{EffectiveFrom: d, Rate: rate})
	}
	if err := rows.Err(); err != nil {
		return nil, generic.TimePoint{}, err
	}

	var rawTo string
	err = s.db.QueryRowContext(ctx, `SELECT to_date FROM key_rate_coverage WHERE id = 1`).Scan(&rawTo)
	if errors.Is(err, sql.ErrNoRows) {
		return rates, generic.TimePoint{}, nil
	}
	if err != nil {
		return nil, generic.TimePoint{}, fmt.Errorf("failed to load key rate coverage: %w", err)
	}
	coveredTo, err := generic.ParseDate(rawTo)
	if err != nil {
		return nil, generic.TimePoint{}, fmt.Errorf("corrupt key rate coverage %q: %w", rawTo, err)
	}
	return rates, coveredTo, nil
}

// =============================================================================
// CALCULATION RUNS
// =============================================================================

// RunRecord is a saved calculation: the configuration document it was run
// with and its totals.
type RunRecord struct {
	ID              string
	CalculationDate generic.TimePoint
	ConfigJSON      string
	Underpayment    decimal.Decimal
	Compensation    decimal.Decimal
	Due             decimal.Decimal
	CreatedAt       time.Time
}

// SaveRun stores a calculation run.
func (s *Store) SaveRun(ctx context.Context, run RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO calculation_runs
		(id, calculation_date, config_json, underpayment, compensation, due, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.CalculationDate.String(),
		run.ConfigJSON,
		run.Underpayment.String(),
		run.Compensation.String(),
		run.Due.String(),
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun returns a run by id, or nil when there is none.
func (s *Store) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, calculation_date, config_json, underpayment, compensation, due, created_at
		FROM calculation_runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, calculation_date, config_json, underpayment, compensation, due, created_at
		FROM calculation_runs
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var (
		run                                RunRecord
		calcDate, under, comp, due, create string
	)
	if err := row.Scan(&run.ID, &calcDate, &run.ConfigJSON, &under, &comp, &due, &create); err != nil {
		return RunRecord{}, err
	}

	var err error
	if run.CalculationDate, err = generic.ParseDate(calcDate); err != nil {
		return RunRecord{}, fmt.Errorf("corrupt run %s: %w", run.ID, err)
	}
	if run.Underpayment, err = decimal.NewFromString(under); err != nil {
		return RunRecord{}, fmt.Errorf("corrupt run %s: %w", run.ID, err)
	}
	if run.Compensation, err = decimal.NewFromString(comp); err != nil {
		return RunRecord{}, fmt.Errorf("corrupt run %s: %w", run.ID, err)
	}
	if run.Due, err = decimal.NewFromString(due); err != nil {
		return RunRecord{}, fmt.Errorf("corrupt run %s: %w", run.ID, err)
	}
	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, create); err != nil {
		return RunRecord{}, fmt.Errorf("corrupt run %s: %w", run.ID, err)
	}
	return run, nil
}
