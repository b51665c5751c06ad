package offline

import (
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/harperreed/frontdesk/localstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestStore(t *testing.T) *localstore.Store {
	t.Helper()
	backend, err := localstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	return localstore.New(backend, "frontdesk")
}

func newTestQueue(t *testing.T) (*Queue, *localstore.Store) {
	t.Helper()
	store := newTestStore(t)
	q, err := OpenQueue(store, quietLogger())
	require.NoError(t, err)
	return q, store
}

func touchItem(t *testing.T, bookingID string) Item {
	t.Helper()
	item, err := NewTouchItem("Alex", TouchPayload{TouchType: "call", BookingID: bookingID, Channel: "phone"})
	require.NoError(t, err)
	return item
}

func TestEnqueueDeduplicatesByID(t *testing.T) {
	q, _ := newTestQueue(t)
	item := touchItem(t, "b-1")

	assert.True(t, q.Enqueue(item))
	assert.False(t, q.Enqueue(item))

	items := q.GetQueue()
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)
}

func TestQueueKeepsFIFOOrder(t *testing.T) {
	q, _ := newTestQueue(t)
	a, b, c := touchItem(t, "a"), touchItem(t, "b"), touchItem(t, "c")
	q.Enqueue(a)
	q.Enqueue(b)
	q.Enqueue(c)

	q.Dequeue(b.ID)
	q.Dequeue("missing")

	items := q.GetQueue()
	require.Len(t, items, 2)
	assert.Equal(t, a.ID, items[0].ID)
	assert.Equal(t, c.ID, items[1].ID)
}

func TestUpdateItemMergesFields(t *testing.T) {
	q, _ := newTestQueue(t)
	item := touchItem(t, "b-1")
	q.Enqueue(item)

	msg := "timeout"
	retries := 2
	require.True(t, q.UpdateItem(item.ID, Patch{SyncStatus: ptr(StatusFailed), RetryCount: &retries, LastError: &msg}))
	assert.False(t, q.UpdateItem("missing", Patch{LastError: &msg}))

	got, ok := q.Get(item.ID)
	require.True(t, ok)
	assert.Equal(t, StatusFailed, got.SyncStatus)
	assert.Equal(t, 2, got.RetryCount)
	assert.Equal(t, "timeout", got.LastError)
	assert.Equal(t, item.Payload, got.Payload, "unpatched fields are kept")
}

func TestGetPendingCount(t *testing.T) {
	q, _ := newTestQueue(t)
	a, b, c := touchItem(t, "a"), touchItem(t, "b"), touchItem(t, "c")
	q.Enqueue(a)
	q.Enqueue(b)
	q.Enqueue(c)

	q.UpdateItem(b.ID, Patch{SyncStatus: ptr(StatusFailed)})
	q.UpdateItem(c.ID, Patch{SyncStatus: ptr(StatusSyncing)})

	assert.Equal(t, 2, q.GetPendingCount())
}

func TestQueuePersistsAndResetsSyncing(t *testing.T) {
	q, store := newTestQueue(t)
	a, b := touchItem(t, "a"), touchItem(t, "b")
	q.Enqueue(a)
	q.Enqueue(b)
	q.UpdateItem(a.ID, Patch{SyncStatus: ptr(StatusSyncing)})

	reopened, err := OpenQueue(store, quietLogger())
	require.NoError(t, err)

	items := reopened.GetQueue()
	require.Len(t, items, 2)
	assert.Equal(t, a.ID, items[0].ID)
	assert.Equal(t, StatusPending, items[0].SyncStatus, "interrupted items go back to pending")
	assert.Equal(t, 2, reopened.GetPendingCount())
}

type failingBackend struct{}

func (failingBackend) Get([]byte) ([]byte, error) { return nil, localstore.ErrNotFound }
func (failingBackend) Set([]byte, []byte) error   { return errors.New("disk full") }
func (failingBackend) Delete([]byte) error        { return errors.New("disk full") }
func (failingBackend) Close() error               { return nil }

func TestPersistenceFailureIsSwallowed(t *testing.T) {
	q, err := OpenQueue(localstore.New(failingBackend{}, "ns"), quietLogger())
	require.NoError(t, err)

	item := touchItem(t, "b-1")
	assert.True(t, q.Enqueue(item))
	assert.Len(t, q.GetQueue(), 1, "in-memory queue stays authoritative")

	q.Dequeue(item.ID)
	assert.Empty(t, q.GetQueue())
}

func TestItemConstructorsValidate(t *testing.T) {
	_, err := NewTouchItem("Alex", TouchPayload{BookingID: "b-1"})
	assert.ErrorIs(t, err, ErrInvalidItem)

	_, err = NewTouchItem("Alex", TouchPayload{TouchType: "call"})
	assert.ErrorIs(t, err, ErrInvalidItem)

	_, err = NewTouchItem("", TouchPayload{TouchType: "call", LeadID: "l-1"})
	assert.ErrorIs(t, err, ErrInvalidItem)

	_, err = NewFollowUpCompleteItem("Alex", FollowUpCompletePayload{FollowUpID: "f-1", Status: "archived"})
	assert.ErrorIs(t, err, ErrInvalidItem)

	_, err = NewRebookItem("Alex", RebookPayload{MemberName: "Jane Doe", ClassDate: "03/01/2026"})
	assert.ErrorIs(t, err, ErrInvalidItem)

	item, err := NewFollowUpCompleteItem("Alex", FollowUpCompletePayload{FollowUpID: "f-1"})
	require.NoError(t, err)
	assert.Equal(t, ItemFollowUpComplete, item.Type)
	assert.Equal(t, StatusPending, item.SyncStatus)
	assert.Len(t, item.ID, 26, "ULID ids")

	var p FollowUpCompletePayload
	require.NoError(t, json.Unmarshal(item.Payload, &p))
	assert.Equal(t, "completed", p.Status, "status defaults to completed")
}
