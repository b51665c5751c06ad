// ABOUTME: Queue item types for writes staged while the backend is unreachable
// ABOUTME: Touch, follow-up completion, and rebook draft payloads with validating constructors
package offline

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/frontdesk/models"
	"github.com/oklog/ulid/v2"
)

// ErrInvalidItem marks an item or payload that can never be applied.
var ErrInvalidItem = errors.New("invalid queue item")

// ItemType names the mutation a queue item carries.
type ItemType string

const (
	ItemTouch            ItemType = "touch"
	ItemFollowUpComplete ItemType = "followup_complete"
	ItemRebookDraft      ItemType = "rebook_draft"
)

// SyncStatus is the replay state of a queue item.
type SyncStatus string

const (
	StatusPending SyncStatus = "pending"
	StatusSyncing SyncStatus = "syncing"
	StatusFailed  SyncStatus = "failed"
)

// Item is one staged mutation.
type Item struct {
	ID            string     `json:"id"`
	Type          ItemType   `json:"type"`
	CreatedAt     time.Time  `json:"created_at"`
	CreatedBy     string     `json:"created_by"`
	SyncStatus    SyncStatus `json:"sync_status"`
	RetryCount    int        `json:"retry_count"`
	LastError     string     `json:"last_error,omitempty"`
	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"`

	// CreatedBookingID is set once a rebook draft's booking insert succeeded
	CreatedBookingID string `json:"created_booking_id,omitempty"`

	Payload json.RawMessage `json:"payload"`
}

// TouchPayload logs a contact attempt against a booking or lead.
type TouchPayload struct {
	TouchType string `json:"touch_type"`
	BookingID string `json:"booking_id,omitempty"`
	LeadID    string `json:"lead_id,omitempty"`
	Channel   string `json:"channel,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// FollowUpCompletePayload closes out a follow-up queue row.
type FollowUpCompletePayload struct {
	FollowUpID string `json:"follow_up_id"`
	Status     string `json:"status"`
	Notes      string `json:"notes,omitempty"`
}

// RebookPayload creates a new booking and optionally closes the follow-up
// that produced it.
type RebookPayload struct {
	MemberName           string `json:"member_name"`
	ClassDate            string `json:"class_date"`
	IntroTime            string `json:"intro_time,omitempty"`
	Coach                string `json:"coach,omitempty"`
	LeadSource           string `json:"lead_source,omitempty"`
	BookedBy             string `json:"booked_by,omitempty"`
	IntroOwner           string `json:"intro_owner,omitempty"`
	Phone                string `json:"phone,omitempty"`
	Email                string `json:"email,omitempty"`
	OriginatingBookingID string `json:"originating_booking_id,omitempty"`
	FollowUpID           string `json:"follow_up_id,omitempty"`
}

// Validate checks the fields a touch needs before any I/O.
func (p TouchPayload) Validate() error {
	if strings.TrimSpace(p.TouchType) == "" {
		return fmt.Errorf("%w: touch type is required", ErrInvalidItem)
	}
	if p.BookingID == "" && p.LeadID == "" {
		return fmt.Errorf("%w: touch needs a booking or lead", ErrInvalidItem)
	}
	return nil
}

// Validate checks the follow-up target and normalizes the status.
func (p *FollowUpCompletePayload) Validate() error {
	if p.FollowUpID == "" {
		return fmt.Errorf("%w: follow-up id is required", ErrInvalidItem)
	}
	if p.Status == "" {
		p.Status = models.FollowUpCompleted
	}
	switch p.Status {
	case models.FollowUpCompleted, models.FollowUpSent, models.FollowUpSkipped:
		return nil
	}
	return fmt.Errorf("%w: unsupported follow-up status %q", ErrInvalidItem, p.Status)
}

// Validate checks the fields a new booking needs.
func (p RebookPayload) Validate() error {
	if strings.TrimSpace(p.MemberName) == "" {
		return fmt.Errorf("%w: member name is required", ErrInvalidItem)
	}
	if _, err := time.Parse(models.DateLayout, p.ClassDate); err != nil {
		return fmt.Errorf("%w: class date must be YYYY-MM-DD", ErrInvalidItem)
	}
	return nil
}

// NewTouchItem builds a pending touch item.
func NewTouchItem(createdBy string, p TouchPayload) (Item, error) {
	if err := p.Validate(); err != nil {
		return Item{}, err
	}
	return newItem(ItemTouch, createdBy, p)
}

// NewFollowUpCompleteItem builds a pending follow-up completion item.
func NewFollowUpCompleteItem(createdBy string, p FollowUpCompletePayload) (Item, error) {
	if err := p.Validate(); err != nil {
		return Item{}, err
	}
	return newItem(ItemFollowUpComplete, createdBy, p)
}

// NewRebookItem builds a pending rebook draft item.
func NewRebookItem(createdBy string, p RebookPayload) (Item, error) {
	if err := p.Validate(); err != nil {
		return Item{}, err
	}
	return newItem(ItemRebookDraft, createdBy, p)
}

func newItem(typ ItemType, createdBy string, payload any) (Item, error) {
	if strings.TrimSpace(createdBy) == "" {
		return Item{}, fmt.Errorf("%w: created by is required", ErrInvalidItem)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Item{}, fmt.Errorf("failed to encode payload: %w", err)
	}
	return Item{
		ID:         ulid.Make().String(),
		Type:       typ,
		CreatedAt:  time.Now().UTC(),
		CreatedBy:  createdBy,
		SyncStatus: StatusPending,
		Payload:    raw,
	}, nil
}

// DecodePayload unmarshals the item payload into v.
func (it Item) DecodePayload(v any) error {
	if len(it.Payload) == 0 {
		return fmt.Errorf("%w: %s item has no payload", ErrInvalidItem, it.Type)
	}
	if err := json.Unmarshal(it.Payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	return nil
}

// Patch lists the fields UpdateItem merges; nil fields are left alone. A
// zero NextAttemptAt clears the backoff.
type Patch struct {
	SyncStatus       *SyncStatus
	RetryCount       *int
	LastError        *string
	NextAttemptAt    *time.Time
	CreatedBookingID *string
}

func (p Patch) apply(it *Item) {
	if p.SyncStatus != nil {
		it.SyncStatus = *p.SyncStatus
	}
	if p.RetryCount != nil {
		it.RetryCount = *p.RetryCount
	}
	if p.LastError != nil {
		it.LastError = *p.LastError
	}
	if p.NextAttemptAt != nil {
		if p.NextAttemptAt.IsZero() {
			it.NextAttemptAt = nil
		} else {
			t := *p.NextAttemptAt
			it.NextAttemptAt = &t
		}
	}
	if p.CreatedBookingID != nil {
		it.CreatedBookingID = *p.CreatedBookingID
	}
}

func ptr[T any](v T) *T { return &v }
