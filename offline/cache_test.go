package offline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harperreed/frontdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenReadCache(t *testing.T) {
	cache := NewCache(newTestStore(t))
	bookings := []models.Booking{{ID: "b-1", MemberName: "Jane Doe", ClassDate: "2026-03-01"}}

	before := time.Now()
	require.NoError(t, cache.WriteCache(DatasetBookings, bookings))

	got, err := ReadCache[[]models.Booking](cache, DatasetBookings)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Jane Doe", got.Data[0].MemberName)
	assert.WithinDuration(t, before, got.CachedAt, time.Second)
}

func TestReadCacheMissing(t *testing.T) {
	cache := NewCache(newTestStore(t))

	got, err := ReadCache[[]models.Run](cache, DatasetRuns)
	require.NoError(t, err)
	assert.Nil(t, got)

	last, err := cache.LastCacheTime()
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestLastCacheTimeIsNewestDataset(t *testing.T) {
	cache := NewCache(newTestStore(t))
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	stamps := map[Dataset]time.Time{
		DatasetBookings:     base,
		DatasetRuns:         base.Add(3 * time.Hour),
		DatasetOutsideSales: base.Add(time.Hour),
	}
	for ds, at := range stamps {
		at := at
		cache.now = func() time.Time { return at }
		require.NoError(t, cache.WriteCache(ds, []string{}))
	}

	last, err := cache.LastCacheTime()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.Equal(base.Add(3*time.Hour)))

	status, err := cache.Status()
	require.NoError(t, err)
	assert.Len(t, status, 3)
}

type fakeSource struct {
	failRuns bool
}

func (fakeSource) ListBookings(context.Context) ([]models.Booking, error) {
	return []models.Booking{{ID: "b-1", MemberName: "Jane Doe"}}, nil
}

func (f fakeSource) ListRuns(context.Context) ([]models.Run, error) {
	if f.failRuns {
		return nil, errors.New("connection reset")
	}
	return []models.Run{{ID: "r-1"}}, nil
}

func (fakeSource) ListFollowUps(context.Context) ([]models.FollowUp, error) { return nil, nil }
func (fakeSource) ListTouches(context.Context) ([]models.Touch, error)     { return nil, nil }
func (fakeSource) ListShiftRecaps(context.Context) ([]models.ShiftRecap, error) {
	return nil, nil
}
func (fakeSource) ListOutsideSales(context.Context) ([]models.OutsideSale, error) {
	return nil, nil
}

func TestRefreshCachesEveryDataset(t *testing.T) {
	cache := NewCache(newTestStore(t))
	r := NewRefresher(fakeSource{}, cache, quietLogger())

	require.NoError(t, r.Refresh(context.Background()))

	status, err := cache.Status()
	require.NoError(t, err)
	assert.Len(t, status, len(Datasets))

	touches, err := ReadCache[[]models.Touch](cache, DatasetTouches)
	require.NoError(t, err)
	require.NotNil(t, touches)
	assert.NotNil(t, touches.Data, "empty datasets are cached as empty lists")
	assert.Empty(t, touches.Data)
}

func TestRefreshReportsFetchErrors(t *testing.T) {
	cache := NewCache(newTestStore(t))
	r := NewRefresher(fakeSource{failRuns: true}, cache, quietLogger())

	err := r.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "intros_run")

	runs, err := ReadCache[[]models.Run](cache, DatasetRuns)
	require.NoError(t, err)
	assert.Nil(t, runs)
}
