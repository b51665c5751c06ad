// ABOUTME: Sync engine that replays the write queue against the backend
// ABOUTME: Sequential FIFO replay with idempotency checks, exponential backoff, and a retry cap
package offline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/frontdesk/db"
	"github.com/harperreed/frontdesk/models"
)

// ErrSyncInProgress is returned when RunSync is called while another run
// on the same Syncer has not finished.
var ErrSyncInProgress = errors.New("sync already in progress")

// Remote is the backend surface queued writes are applied to. GetFollowUp
// returns db.ErrNotFound for a missing row.
type Remote interface {
	InsertTouch(ctx context.Context, t *models.Touch) error
	GetFollowUp(ctx context.Context, id string) (*models.FollowUp, error)
	CompleteFollowUp(ctx context.Context, id, status, completedBy, notes string, at time.Time) error
	CreateBooking(ctx context.Context, b *models.Booking) error
}

// SyncOptions tunes replay.
type SyncOptions struct {
	// MaxRetries stops retrying an item after this many failures; 0 retries forever
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	ItemTimeout time.Duration
}

// DefaultSyncOptions returns the standard replay settings.
func DefaultSyncOptions() SyncOptions {
	return SyncOptions{
		MaxRetries:  8,
		BaseBackoff: 30 * time.Second,
		MaxBackoff:  time.Hour,
		ItemTimeout: 15 * time.Second,
	}
}

// SyncResult summarizes one replay pass.
type SyncResult struct {
	Synced    int      `json:"synced"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"`
	Exhausted int      `json:"exhausted"`
	Errors    []string `json:"errors,omitempty"`
}

// Syncer drains a Queue into a Remote.
type Syncer struct {
	queue   *Queue
	remote  Remote
	opts    SyncOptions
	logger  *log.Logger
	now     func() time.Time
	running sync.Mutex
}

// NewSyncer returns a syncer for queue against remote.
func NewSyncer(queue *Queue, remote Remote, opts SyncOptions, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = log.Default()
	}
	return &Syncer{queue: queue, remote: remote, opts: opts, logger: logger, now: time.Now}
}

// Backoff returns the wait after the given number of failures.
func (s *Syncer) Backoff(retries int) time.Duration {
	if s.opts.BaseBackoff <= 0 || retries <= 0 {
		return 0
	}
	d := s.opts.BaseBackoff
	for i := 1; i < retries; i++ {
		d *= 2
		if s.opts.MaxBackoff > 0 && d >= s.opts.MaxBackoff {
			return s.opts.MaxBackoff
		}
	}
	if s.opts.MaxBackoff > 0 && d > s.opts.MaxBackoff {
		return s.opts.MaxBackoff
	}
	return d
}

func (s *Syncer) exhausted(it Item) bool {
	return s.opts.MaxRetries > 0 && it.RetryCount >= s.opts.MaxRetries
}

// RunSync replays a snapshot of the queue in order, one item at a time.
func (s *Syncer) RunSync(ctx context.Context) (SyncResult, error) {
	var result SyncResult
	if !s.running.TryLock() {
		return result, ErrSyncInProgress
	}
	defer s.running.Unlock()

	for _, snap := range s.queue.GetQueue() {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		item, ok := s.queue.Get(snap.ID)
		if !ok {
			continue
		}

		now := s.now()
		switch {
		case item.SyncStatus == StatusSyncing:
			result.Skipped++
			continue
		case s.exhausted(item):
			result.Exhausted++
			continue
		case item.NextAttemptAt != nil && now.Before(*item.NextAttemptAt):
			result.Skipped++
			continue
		}

		s.queue.UpdateItem(item.ID, Patch{SyncStatus: ptr(StatusSyncing)})

		if err := s.syncItem(ctx, item); err != nil {
			s.markFailed(item, err)
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s %s: %v", item.Type, item.ID, err))
			continue
		}

		s.queue.Dequeue(item.ID)
		result.Synced++
		s.logger.Debug("synced queue item", "item_id", item.ID, "type", item.Type)
	}

	return result, nil
}

func (s *Syncer) markFailed(item Item, err error) {
	retries := item.RetryCount + 1
	if errors.Is(err, ErrInvalidItem) && s.opts.MaxRetries > retries {
		// Malformed items can never succeed
		retries = s.opts.MaxRetries
	}
	next := s.now().Add(s.Backoff(retries))
	msg := err.Error()

	s.queue.UpdateItem(item.ID, Patch{
		SyncStatus:    ptr(StatusFailed),
		RetryCount:    &retries,
		LastError:     &msg,
		NextAttemptAt: &next,
	})
	s.logger.Warn("sync item failed", "item_id", item.ID, "type", item.Type, "retry_count", retries, "err", err)
}

func (s *Syncer) syncItem(ctx context.Context, item Item) error {
	if s.opts.ItemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ItemTimeout)
		defer cancel()
	}

	switch item.Type {
	case ItemTouch:
		return s.syncTouch(ctx, item)
	case ItemFollowUpComplete:
		return s.syncFollowUpComplete(ctx, item)
	case ItemRebookDraft:
		return s.syncRebook(ctx, item)
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidItem, item.Type)
	}
}

// Touches are a log, so a replayed duplicate is harmless.
func (s *Syncer) syncTouch(ctx context.Context, item Item) error {
	var p TouchPayload
	if err := item.DecodePayload(&p); err != nil {
		return err
	}
	return s.remote.InsertTouch(ctx, &models.Touch{
		TouchType: p.TouchType,
		BookingID: p.BookingID,
		LeadID:    p.LeadID,
		Channel:   p.Channel,
		Notes:     p.Notes,
		CreatedBy: item.CreatedBy,
		CreatedAt: item.CreatedAt,
	})
}

func (s *Syncer) syncFollowUpComplete(ctx context.Context, item Item) error {
	var p FollowUpCompletePayload
	if err := item.DecodePayload(&p); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	return s.closeFollowUp(ctx, p.FollowUpID, p.Status, item.CreatedBy, p.Notes)
}

// closeFollowUp re-reads the row first. A row already sent or completed,
// or one that no longer exists, counts as done without a write.
func (s *Syncer) closeFollowUp(ctx context.Context, id, status, by, notes string) error {
	current, err := s.remote.GetFollowUp(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		s.logger.Info("follow-up no longer exists, treating as done", "follow_up_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read follow-up: %w", err)
	}
	if current.Status == models.FollowUpSent || current.Status == models.FollowUpCompleted {
		return nil
	}
	return s.remote.CompleteFollowUp(ctx, id, status, by, notes, s.now().UTC())
}

func (s *Syncer) syncRebook(ctx context.Context, item Item) error {
	var p RebookPayload
	if err := item.DecodePayload(&p); err != nil {
		return err
	}

	bookingID := item.CreatedBookingID
	if bookingID == "" {
		if err := p.Validate(); err != nil {
			return err
		}
		bookedBy := p.BookedBy
		if bookedBy == "" {
			bookedBy = item.CreatedBy
		}
		booking := &models.Booking{
			MemberName:           p.MemberName,
			ClassDate:            p.ClassDate,
			IntroTime:            p.IntroTime,
			Coach:                p.Coach,
			LeadSource:           p.LeadSource,
			BookedBy:             bookedBy,
			IntroOwner:           p.IntroOwner,
			Phone:                p.Phone,
			Email:                p.Email,
			OriginatingBookingID: p.OriginatingBookingID,
		}
		if err := s.remote.CreateBooking(ctx, booking); err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
		bookingID = booking.ID
		// Recorded before the follow-up step so a retry never inserts twice
		s.queue.UpdateItem(item.ID, Patch{CreatedBookingID: &bookingID})
	}

	if p.FollowUpID == "" {
		return nil
	}
	return s.closeFollowUp(ctx, p.FollowUpID, models.FollowUpCompleted, item.CreatedBy, "Rebooked as "+bookingID)
}
