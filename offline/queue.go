// ABOUTME: Durable FIFO write queue persisted to the local store
// ABOUTME: Every mutation rewrites the whole list; persistence failures are logged and swallowed
package offline

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/harperreed/frontdesk/localstore"
)

const queueKey = "write_queue"

// Queue is an ordered list of staged writes, unique by item ID.
type Queue struct {
	mu     sync.Mutex
	items  []Item
	store  *localstore.Store
	logger *log.Logger
}

// OpenQueue loads the persisted queue. Items left in syncing by a process
// that died mid-replay go back to pending.
func OpenQueue(store *localstore.Store, logger *log.Logger) (*Queue, error) {
	if logger == nil {
		logger = log.Default()
	}
	q := &Queue{store: store, logger: logger, items: []Item{}}

	var items []Item
	found, err := store.GetJSON(queueKey, &items)
	if err != nil {
		return nil, fmt.Errorf("failed to load write queue: %w", err)
	}
	if !found {
		return q, nil
	}

	reset := 0
	for i := range items {
		if items[i].SyncStatus == StatusSyncing {
			items[i].SyncStatus = StatusPending
			reset++
		}
	}
	q.items = items

	if reset > 0 {
		logger.Info("reset interrupted queue items", "count", reset)
		q.mu.Lock()
		q.persistLocked()
		q.mu.Unlock()
	}
	return q, nil
}

// Enqueue appends item unless an item with the same ID is already queued.
// It reports whether the item was added.
func (q *Queue) Enqueue(item Item) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.indexLocked(item.ID) >= 0 {
		return false
	}
	if item.SyncStatus == "" {
		item.SyncStatus = StatusPending
	}
	q.items = append(q.items, item)
	q.persistLocked()
	return true
}

// Dequeue removes the item with id. Missing IDs are ignored.
func (q *Queue) Dequeue(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexLocked(id)
	if i < 0 {
		return
	}
	q.items = append(q.items[:i], q.items[i+1:]...)
	q.persistLocked()
}

// UpdateItem merges patch into the item with id. It reports whether the
// item existed.
func (q *Queue) UpdateItem(id string, patch Patch) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexLocked(id)
	if i < 0 {
		return false
	}
	patch.apply(&q.items[i])
	q.persistLocked()
	return true
}

// Get returns a copy of the item with id.
func (q *Queue) Get(id string) (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexLocked(id)
	if i < 0 {
		return Item{}, false
	}
	return q.items[i], true
}

// GetQueue returns a snapshot of the queue in FIFO order.
func (q *Queue) GetQueue() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Item(nil), q.items...)
}

// GetPendingCount counts items still waiting to sync (pending or failed).
func (q *Queue) GetPendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for _, it := range q.items {
		if it.SyncStatus == StatusPending || it.SyncStatus == StatusFailed {
			n++
		}
	}
	return n
}

func (q *Queue) indexLocked(id string) int {
	for i := range q.items {
		if q.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (q *Queue) persistLocked() {
	if err := q.store.SetJSON(queueKey, q.items); err != nil {
		q.logger.Warn("failed to persist write queue", "items", len(q.items), "err", err)
	}
}
