// ABOUTME: Refreshes the offline read cache from the backend
// ABOUTME: Bounded concurrent fetch of all datasets plus a periodic refresh loop
package offline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/frontdesk/models"
	"golang.org/x/sync/errgroup"
)

// Source reads the datasets the cache mirrors.
type Source interface {
	ListBookings(ctx context.Context) ([]models.Booking, error)
	ListRuns(ctx context.Context) ([]models.Run, error)
	ListFollowUps(ctx context.Context) ([]models.FollowUp, error)
	ListTouches(ctx context.Context) ([]models.Touch, error)
	ListShiftRecaps(ctx context.Context) ([]models.ShiftRecap, error)
	ListOutsideSales(ctx context.Context) ([]models.OutsideSale, error)
}

const refreshConcurrency = 3

// Refresher copies server datasets into the cache.
type Refresher struct {
	source Source
	cache  *Cache
	logger *log.Logger
}

// NewRefresher returns a refresher from source into cache.
func NewRefresher(source Source, cache *Cache, logger *log.Logger) *Refresher {
	if logger == nil {
		logger = log.Default()
	}
	return &Refresher{source: source, cache: cache, logger: logger}
}

func fetchInto[T any](ctx context.Context, c *Cache, ds Dataset, fetch func(context.Context) ([]T, error)) error {
	data, err := fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", ds, err)
	}
	if data == nil {
		data = []T{}
	}
	return c.WriteCache(ds, data)
}

// Refresh fetches every dataset and overwrites its snapshot. Snapshots
// already written stay in place when a later fetch fails.
func (r *Refresher) Refresh(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)

	g.Go(func() error { return fetchInto(ctx, r.cache, DatasetBookings, r.source.ListBookings) })
	g.Go(func() error { return fetchInto(ctx, r.cache, DatasetRuns, r.source.ListRuns) })
	g.Go(func() error { return fetchInto(ctx, r.cache, DatasetFollowUps, r.source.ListFollowUps) })
	g.Go(func() error { return fetchInto(ctx, r.cache, DatasetTouches, r.source.ListTouches) })
	g.Go(func() error { return fetchInto(ctx, r.cache, DatasetShiftRecaps, r.source.ListShiftRecaps) })
	g.Go(func() error { return fetchInto(ctx, r.cache, DatasetOutsideSales, r.source.ListOutsideSales) })

	return g.Wait()
}

// Run refreshes immediately and then every interval until ctx is done.
func (r *Refresher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
			r.logger.Warn("cache refresh failed", "err", err)
		} else if err == nil {
			r.logger.Debug("cache refreshed", "datasets", len(Datasets))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
