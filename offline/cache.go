// ABOUTME: Offline read cache of last-known-good server datasets
// ABOUTME: Each dataset is stored whole with its fetch time; last writer wins
package offline

import (
	"fmt"
	"time"

	"github.com/harperreed/frontdesk/localstore"
)

// Dataset names a cached server table.
type Dataset string

const (
	DatasetBookings     Dataset = "intros_booked"
	DatasetRuns         Dataset = "intros_run"
	DatasetFollowUps    Dataset = "follow_up_queue"
	DatasetTouches      Dataset = "followup_touches"
	DatasetShiftRecaps  Dataset = "shift_recaps"
	DatasetOutsideSales Dataset = "sales_outside_intro"
)

// Datasets lists every cached dataset.
var Datasets = []Dataset{
	DatasetBookings,
	DatasetRuns,
	DatasetFollowUps,
	DatasetTouches,
	DatasetShiftRecaps,
	DatasetOutsideSales,
}

// CachedDataset is a snapshot of one dataset.
type CachedDataset[T any] struct {
	Data     T         `json:"data"`
	CachedAt time.Time `json:"cached_at"`
}

// Cache stores dataset snapshots in the local store.
type Cache struct {
	store *localstore.Store
	now   func() time.Time
}

// NewCache returns a cache over store.
func NewCache(store *localstore.Store) *Cache {
	return &Cache{store: store, now: time.Now}
}

func cacheKey(ds Dataset) string {
	return "cache:" + string(ds)
}

// WriteCache overwrites the snapshot for ds.
func (c *Cache) WriteCache(ds Dataset, data any) error {
	entry := CachedDataset[any]{Data: data, CachedAt: c.now().UTC()}
	if err := c.store.SetJSON(cacheKey(ds), entry); err != nil {
		return fmt.Errorf("failed to cache %s: %w", ds, err)
	}
	return nil
}

// ReadCache returns the snapshot for ds, or nil when nothing is cached.
func ReadCache[T any](c *Cache, ds Dataset) (*CachedDataset[T], error) {
	var entry CachedDataset[T]
	found, err := c.store.GetJSON(cacheKey(ds), &entry)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &entry, nil
}

// LastCacheTime returns the newest cached_at across all datasets, or nil
// when nothing has been cached.
func (c *Cache) LastCacheTime() (*time.Time, error) {
	var latest *time.Time
	for _, ds := range Datasets {
		var stamp struct {
			CachedAt time.Time `json:"cached_at"`
		}
		found, err := c.store.GetJSON(cacheKey(ds), &stamp)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		if latest == nil || stamp.CachedAt.After(*latest) {
			t := stamp.CachedAt
			latest = &t
		}
	}
	return latest, nil
}

// Status reports when each dataset was last cached.
func (c *Cache) Status() (map[Dataset]time.Time, error) {
	status := make(map[Dataset]time.Time, len(Datasets))
	for _, ds := range Datasets {
		var stamp struct {
			CachedAt time.Time `json:"cached_at"`
		}
		found, err := c.store.GetJSON(cacheKey(ds), &stamp)
		if err != nil {
			return nil, err
		}
		if found {
			status[ds] = stamp.CachedAt
		}
	}
	return status, nil
}
