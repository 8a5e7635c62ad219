/*
scheduler.go - Reference data refresh scheduler

PURPOSE:
  Keeps the reference-data cache warm so calculations rarely wait on the
  network. Periodically loads the production calendars around today and
  extends the key-rate history to today.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Goes through source.Loader, so only missing data is fetched
  - Next year's calendar is published late in the year; until then its
    fetch fails and is only logged

CONFIGURATION:
  - CheckInterval: How often to refresh (default: 6 hours)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewRefreshScheduler(loader, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - source/loader.go: cache-first loading
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/wage-arrears/generic"
	"github.com/warp/wage-arrears/source"
)

// RefreshScheduler periodically refreshes reference data.
type RefreshScheduler struct {
	Loader        *source.Loader
	CheckInterval time.Duration
	Enabled       bool

	log    *zap.Logger
	now    func() generic.TimePoint
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// RefreshResult reports one refresh pass.
type RefreshResult struct {
	Years  []int
	Failed []int
	Rates  bool
}

// NewRefreshScheduler creates a new scheduler.
func NewRefreshScheduler(loader *source.Loader, log *zap.Logger) *RefreshScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &RefreshScheduler{
		Loader:        loader,
		CheckInterval: 6 * time.Hour,
		Enabled:       true,
		log:           log,
		now:           generic.Today,
	}
}

// WithClock replaces the notion of today.
func (rs *RefreshScheduler) WithClock(now func() generic.TimePoint) *RefreshScheduler {
	rs.now = now
	return rs
}

// Start begins the scheduler.
func (rs *RefreshScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.log.Info("refresh scheduler disabled")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run()

	rs.log.Info("refresh scheduler started", zap.Duration("interval", rs.CheckInterval))
}

// Stop stops the scheduler and waits for a running refresh to finish.
func (rs *RefreshScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		rs.log.Info("refresh scheduler stopped")
	}
}

func (rs *RefreshScheduler) run() {
	defer rs.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-rs.stop
		cancel()
	}()

	// Run immediately on start
	rs.RunNow(ctx)

	for {
		select {
		case <-rs.ticker.C:
			rs.RunNow(ctx)
		case <-rs.stop:
			return
		}
	}
}

// RunNow refreshes immediately: last year, this year and next year, then
// the key rates up to today.
func (rs *RefreshScheduler) RunNow(ctx context.Context) RefreshResult {
	today := rs.now()
	var res RefreshResult

	for y := today.Year() - 1; y <= today.Year()+1; y++ {
		if _, err := rs.Loader.LoadYears(ctx, y, y); err != nil {
			rs.log.Warn("calendar refresh failed", zap.Int("year", y), zap.Error(err))
			res.Failed = append(res.Failed, y)
			continue
		}
		res.Years = append(res.Years, y)
	}

	if _, err := rs.Loader.LoadKeyRates(ctx, today); err != nil {
		rs.log.Warn("key rate refresh failed", zap.Error(err))
	} else {
		res.Rates = true
	}

	rs.log.Info("reference data refreshed",
		zap.Ints("years", res.Years),
		zap.Ints("failed_years", res.Failed),
		zap.Bool("key_rates", res.Rates),
	)
	return res
}

// GetNextRunTime returns when the next scheduled refresh will occur.
func (rs *RefreshScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(rs.CheckInterval)
}
