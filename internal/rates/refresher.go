package rates

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iwvelando/pfa-tax-calculator/pkg/constants"
	"github.com/iwvelando/pfa-tax-calculator/pkg/datetime"
	"go.uber.org/zap"
)

// ErrRefreshInProgress is returned by Refresh when another refresh is running.
var ErrRefreshInProgress = errors.New("exchange rate refresh already in progress")

// Refresher periodically replaces the current Table with a fresh one from
// its Source. At most one fetch runs at a time; a failed fetch keeps the
// previous snapshot.
type Refresher struct {
	source   Source
	cache    Cache
	interval time.Duration
	logger   *zap.Logger

	current  atomic.Pointer[Table]
	inFlight sync.Mutex

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewRefresher returns a Refresher. cache may be nil. A non-positive
// interval falls back to constants.DefaultExchangeRateReloadInterval.
func NewRefresher(source Source, cache Cache, interval time.Duration, logger *zap.Logger) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Duration(constants.DefaultExchangeRateReloadInterval) * time.Millisecond
	}
	return &Refresher{
		source:   source,
		cache:    cache,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start loads an initial snapshot (from the source, or from the cache when
// the source fails) and then refreshes every interval until ctx is done or
// Stop is called. Start returns once the initial attempt has finished.
func (r *Refresher) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		loopCtx, cancel := context.WithCancel(ctx)
		r.cancel = cancel

		if err := r.Refresh(loopCtx); err != nil {
			r.loadFromCache(loopCtx)
		}

		go r.loop(loopCtx)
	})
}

// Stop ends the refresh loop and waits for it to exit.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() {
		if r.cancel == nil {
			return
		}
		r.cancel()
		<-r.done
	})
}

// Current returns the latest snapshot.
func (r *Refresher) Current() (*Table, error) {
	table := r.current.Load()
	if table == nil {
		return nil, ErrNoRates
	}
	return table, nil
}

// Refresh fetches a new snapshot now. It returns ErrRefreshInProgress
// without fetching when another refresh is running.
func (r *Refresher) Refresh(ctx context.Context) error {
	if !r.inFlight.TryLock() {
		return ErrRefreshInProgress
	}
	defer r.inFlight.Unlock()

	start := time.Now()
	table, err := r.source.Fetch(ctx)
	if err != nil {
		r.logger.Warn("failed to refresh exchange rates",
			zap.String("op", "rates.Refresh"),
			zap.Error(err),
		)
		return fmt.Errorf("failed to refresh exchange rates: %w", err)
	}

	r.current.Store(table)
	r.logger.Info("exchange rates refreshed",
		zap.String("op", "rates.Refresh"),
		zap.String("base", table.Base()),
		zap.Time("date", table.Date()),
		zap.Int("ageDays", datetime.DaysOld(table.Date(), time.Now())),
		zap.Int("currencies", len(table.Codes())),
		zap.Duration("duration", time.Since(start)),
	)

	if r.cache != nil {
		if err := r.cache.Store(ctx, table); err != nil {
			r.logger.Warn("failed to cache exchange rates",
				zap.String("op", "rates.Refresh"),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (r *Refresher) loadFromCache(ctx context.Context) {
	if r.cache == nil {
		return
	}
	table, err := r.cache.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			r.logger.Warn("failed to load cached exchange rates",
				zap.String("op", "rates.loadFromCache"),
				zap.Error(err),
			)
		}
		return
	}

	// A successful fetch that raced ahead wins over the cached copy.
	if r.current.CompareAndSwap(nil, table) {
		r.logger.Info("using cached exchange rates",
			zap.String("op", "rates.loadFromCache"),
			zap.Time("date", table.Date()),
		)
	}
}

func (r *Refresher) loop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Errors are logged by Refresh; the next tick retries.
			_ = r.Refresh(ctx)
		}
	}
}
