package source

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/warp/wage-arrears/generic"
	"github.com/warp/wage-arrears/generic/store"
	"github.com/warp/wage-arrears/payroll"
)

// KeyRateHistoryStart is the first day the Bank of Russia published a key rate.
var KeyRateHistoryStart = generic.NewTimePoint(2013, 9, 13)

// maxParallelFetches bounds concurrent calendar downloads.
const maxParallelFetches = 4

// =============================================================================
// LOADER - Cache-first reference data
// =============================================================================

// Loader resolves the reference data a calculation needs. Cached data is
// read from the store; whatever is missing is fetched and written back.
type Loader struct {
	store    generic.ReferenceStore
	calendar CalendarFetcher
	rates    KeyRateFetcher
	log      *zap.Logger
	now      func() generic.TimePoint

	// Serialises key-rate refreshes so parallel calculations fetch once.
	ratesMu sync.Mutex
}

// NewLoader creates a loader. A nil logger disables logging.
func NewLoader(st generic.ReferenceStore, cal CalendarFetcher, rates KeyRateFetcher, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		store:    st,
		calendar: cal,
		rates:    rates,
		log:      log,
		now:      generic.Today,
	}
}

// WithClock replaces the notion of today.
func (l *Loader) WithClock(now func() generic.TimePoint) *Loader {
	l.now = now
	return l
}

// Load returns the calendar and key-rate schedule covering everything the
// calculation for in reads. Calendar years and key rates load in parallel.
func (l *Loader) Load(ctx context.Context, in payroll.EmployeeInput) (*store.Calendar, *store.KeyRates, error) {
	fromYear, toYear := payroll.RequiredYears(in)
	rateRange := payroll.RequiredRateRange(in)

	var (
		cal   *store.Calendar
		rates *store.KeyRates
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cal, err = l.LoadYears(gctx, fromYear, toYear)
		return err
	})
	g.Go(func() error {
		var err error
		rates, err = l.LoadKeyRates(gctx, rateRange.End)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return cal, rates, nil
}

// LoadYears returns a calendar holding every year in [fromYear, toYear].
func (l *Loader) LoadYears(ctx context.Context, fromYear, toYear int) (*store.Calendar, error) {
	years := make([]generic.CalendarYear, toYear-fromYear+1)
	var missing []int
	for y := fromYear; y <= toYear; y++ {
		year, ok, err := l.store.LoadCalendarYear(ctx, y)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, y)
			continue
		}
		years[y-fromYear] = year
	}

	if len(missing) > 0 {
		l.log.Info("fetching production calendars", zap.Ints("years", missing))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxParallelFetches)
		for _, y := range missing {
			g.Go(func() error {
				year, err := l.calendar.FetchYear(gctx, y)
				if err != nil {
					l.log.Warn("calendar fetch failed", zap.Int("year", y), zap.Error(err))
					return generic.MissingData(generic.StartOfYear(y), "production calendar for %d is unavailable: %v", y, err)
				}
				if err := l.store.SaveCalendarYear(gctx, year); err != nil {
					return err
				}
				years[y-fromYear] = year
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	return store.NewCalendar(years...), nil
}

// LoadKeyRates returns a schedule covering the history up to `to`. The
// cached history is used when it reaches `to` (or today, for a future
// date); otherwise the whole history is fetched again. Dates after today
// take the latest published rate.
func (l *Loader) LoadKeyRates(ctx context.Context, to generic.TimePoint) (*store.KeyRates, error) {
	l.ratesMu.Lock()
	defer l.ratesMu.Unlock()

	today := l.now()
	need := generic.MinTimePoint(to, today)

	history, covered, err := l.store.LoadKeyRates(ctx)
	if err != nil {
		return nil, err
	}

	if len(history) == 0 || covered.IsZero() || covered.Before(need) {
		l.log.Info("fetching key rates",
			zap.Stringer("from", KeyRateHistoryStart),
			zap.Stringer("to", need),
		)
		fetched, err := l.rates.FetchKeyRates(ctx, KeyRateHistoryStart, need)
		if err != nil {
			l.log.Warn("key rate fetch failed", zap.Error(err))
			return nil, generic.MissingData(need, "key rate history is unavailable: %v", err)
		}
		if len(fetched) == 0 {
			return nil, generic.MissingData(need, "key rate service returned no rates")
		}
		if err := l.store.SaveKeyRates(ctx, fetched, need); err != nil {
			return nil, err
		}
		history, covered = fetched, need
	}

	if !covered.Before(today) {
		covered = generic.MaxTimePoint(covered, to)
	}
	return store.NewKeyRates(history, covered), nil
}
