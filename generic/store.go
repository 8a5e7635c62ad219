/*
store.go - Persistence interface for reference data

PURPOSE:
  Defines the interface between the reference-data loader and the database.
  Production calendars and the key-rate history are fetched from remote
  services once and cached; the Store keeps that cache.

KEY INTERFACES:
  ReferenceStore: calendar years and key-rate history (save, load)

CACHE CONTRACT:
  - A calendar year is saved whole; saving it again replaces it.
  - The key-rate history is saved together with the last date it is known
    to cover. Rates are a step function, so the coverage date is what
    tells a stale history from a current one.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - generic/store/memory.go: In-memory for testing

EXAMPLE:
  store, _ := sqlite.New("./reference.db")
  year, ok, err := store.LoadCalendarYear(ctx, 2025)
  if !ok {
      // fetch from xmlcalendar.ru and SaveCalendarYear
  }

SEE ALSO:
  - calendar.go: the query interfaces built from this data
  - source/loader.go: fills the store
*/
package generic

import "context"

// =============================================================================
// REFERENCE STORE - Cache of production calendars and key rates
// =============================================================================

type ReferenceStore interface {
	// SaveCalendarYear replaces the stored non-working days of the year.
	SaveCalendarYear(ctx context.Context, year CalendarYear) error

	// LoadCalendarYear returns the year and whether it was found.
	LoadCalendarYear(ctx context.Context, year int) (CalendarYear, bool, error)

	// SaveKeyRates replaces the stored history. coveredTo is the last date
	// the history is known to be complete for.
	SaveKeyRates(ctx context.Context, rates []KeyRate, coveredTo TimePoint) error

	// LoadKeyRates returns the history ordered by effective date and its
	// coverage date. An empty store yields no rates and a zero date.
	LoadKeyRates(ctx context.Context) ([]KeyRate, TimePoint, error)
}
