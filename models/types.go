// ABOUTME: Data models for front-desk sales entities
// ABOUTME: Defines bookings, runs, follow-ups, touches, leads, and the outcome vocabularies
package models

import (
	"strings"
	"time"
)

// Booking is an intro class booking (intros_booked).
type Booking struct {
	ID                   string     `json:"id"`
	MemberName           string     `json:"member_name"`
	ClassDate            string     `json:"class_date"` // YYYY-MM-DD
	IntroTime            string     `json:"intro_time,omitempty"`
	Coach                string     `json:"coach,omitempty"`
	LeadSource           string     `json:"lead_source,omitempty"`
	BookedBy             string     `json:"booked_by,omitempty"`
	IntroOwner           string     `json:"intro_owner,omitempty"`
	Phone                string     `json:"phone,omitempty"`
	Email                string     `json:"email,omitempty"`
	BookingStatus        string     `json:"booking_status"`
	OriginatingBookingID string     `json:"originating_booking_id,omitempty"`
	ClosedAt             *time.Time `json:"closed_at,omitempty"`
	ClosedBy             string     `json:"closed_by,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Run is the recorded outcome of an intro that took place (intros_run).
type Run struct {
	ID               string     `json:"id"`
	LinkedBookingID  string     `json:"linked_intro_booked_id"`
	MemberName       string     `json:"member_name"`
	RunDate          string     `json:"run_date"` // YYYY-MM-DD
	Result           string     `json:"result"`
	LeadSource       string     `json:"lead_source,omitempty"`
	IntroOwner       string     `json:"intro_owner,omitempty"`
	CommissionAmount float64    `json:"commission_amount"`
	PrimaryObjection string     `json:"primary_objection,omitempty"`
	BuyDate          string     `json:"buy_date,omitempty"`
	LastEditedAt     *time.Time `json:"last_edited_at,omitempty"`
	LastEditedBy     string     `json:"last_edited_by,omitempty"`
	EditReason       string     `json:"edit_reason,omitempty"`
	Version          int        `json:"version"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// FollowUp is one scheduled nurture touch (follow_up_queue).
type FollowUp struct {
	ID               string     `json:"id"`
	BookingID        string     `json:"booking_id"`
	PersonName       string     `json:"person_name"`
	PersonType       string     `json:"person_type"`
	TouchNumber      int        `json:"touch_number"`
	ScheduledDate    string     `json:"scheduled_date"` // YYYY-MM-DD
	Status           string     `json:"status"`
	PrimaryObjection string     `json:"primary_objection,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CompletedBy      string     `json:"completed_by,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Touch is a single logged contact attempt (followup_touches).
type Touch struct {
	ID        string    `json:"id"`
	TouchType string    `json:"touch_type"`
	BookingID string    `json:"booking_id,omitempty"`
	LeadID    string    `json:"lead_id,omitempty"`
	Channel   string    `json:"channel,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// ShiftRecap is an SA's end-of-shift activity summary (shift_recaps).
type ShiftRecap struct {
	ID        string    `json:"id"`
	StaffName string    `json:"staff_name"`
	ShiftDate string    `json:"shift_date"`
	ShiftType string    `json:"shift_type,omitempty"`
	Calls     int       `json:"calls"`
	Texts     int       `json:"texts"`
	DMs       int       `json:"dms"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// OutsideSale is a membership sold without an intro (sales_outside_intro).
type OutsideSale struct {
	ID               string    `json:"id"`
	MemberName       string    `json:"member_name"`
	MembershipType   string    `json:"membership_type"`
	SaleDate         string    `json:"sale_date"`
	IntroOwner       string    `json:"intro_owner,omitempty"`
	LeadSource       string    `json:"lead_source,omitempty"`
	CommissionAmount float64   `json:"commission_amount"`
	CreatedAt        time.Time `json:"created_at"`
}

// Lead is an inbound prospect before booking (leads).
type Lead struct {
	ID                  string    `json:"id"`
	FirstName           string    `json:"first_name"`
	LastName            string    `json:"last_name"`
	Phone               string    `json:"phone,omitempty"`
	Email               string    `json:"email,omitempty"`
	Source              string    `json:"source,omitempty"`
	Stage               string    `json:"stage"`
	DuplicateConfidence string    `json:"duplicate_confidence,omitempty"`
	DuplicateMatchType  string    `json:"duplicate_match_type,omitempty"`
	DuplicateNotes      string    `json:"duplicate_notes,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// FullName joins first and last name.
func (l *Lead) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// OutcomeChange is one audit row (outcome_changes).
type OutcomeChange struct {
	ID              string    `json:"id"`
	BookingID       string    `json:"booking_id"`
	RunID           string    `json:"run_id,omitempty"`
	MemberName      string    `json:"member_name"`
	OldResult       string    `json:"old_result,omitempty"`
	NewResult       string    `json:"new_result"`
	OldStatus       string    `json:"old_status,omitempty"`
	NewStatus       string    `json:"new_status"`
	ChangedBy       string    `json:"changed_by"`
	SourceComponent string    `json:"source_component"`
	EditReason      string    `json:"edit_reason,omitempty"`
	AMCIncremented  bool      `json:"amc_incremented"`
	CreatedAt       time.Time `json:"created_at"`
}

// AMCEntry is one active-member-count adjustment (amc_log).
type AMCEntry struct {
	ID             string    `json:"id"`
	LogDate        string    `json:"log_date"`
	Delta          int       `json:"delta"`
	BookingID      string    `json:"booking_id,omitempty"`
	MemberName     string    `json:"member_name"`
	MembershipType string    `json:"membership_type"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}

// Run results other than membership labels.
const (
	ResultDidntBuy      = "Didn't Buy"
	ResultNoShow        = "No-show"
	ResultNotInterested = "Not interested"
)

// Booking statuses written by outcome updates.
const (
	BookingStatusClosedBought  = "Closed – Bought"
	BookingStatusNotInterested = "Not Interested"
	BookingStatusActive        = "Active"
)

// Booking statuses that take a booking out of duplicate matching.
const (
	BookingStatusClosedPurchased = "Closed (Purchased)"
	BookingStatusDeletedSoft     = "Deleted (soft)"
	BookingStatusDuplicate       = "Duplicate"
	BookingStatusNoShow          = "No-show"
)

// Follow-up statuses.
const (
	FollowUpPending   = "pending"
	FollowUpSent      = "sent"
	FollowUpCompleted = "completed"
	FollowUpSkipped   = "skipped"
)

// Follow-up person types.
const (
	PersonTypeNoShow   = "no_show"
	PersonTypeDidntBuy = "didnt_buy"
)

// Lead stages.
const (
	StageNew             = "new"
	StageFlagged         = "flagged"
	StageAlreadyInSystem = "already_in_system"
	StageContacted       = "contacted"
	StageBooked          = "booked"
	StageWon             = "won"
	StageLost            = "lost"
)

func normalizeResult(result string) string {
	r := strings.ToLower(strings.TrimSpace(result))
	r = strings.ReplaceAll(r, "’", "'")
	return r
}

// IsDidntBuy reports whether a run result is a didn't-buy outcome.
func IsDidntBuy(result string) bool {
	switch normalizeResult(result) {
	case "didn't buy", "didnt buy", "did not buy":
		return true
	}
	return false
}

// IsNoShow reports whether a run result is a no-show.
func IsNoShow(result string) bool {
	switch normalizeResult(result) {
	case "no-show", "no show", "noshow":
		return true
	}
	return false
}

// IsNotInterested reports whether a run result marks the prospect not interested.
func IsNotInterested(result string) bool {
	return normalizeResult(result) == "not interested"
}

// IsSale reports whether a run result is a membership sale. Any non-empty
// result that is not one of the non-sale outcomes is a membership label.
func IsSale(result string) bool {
	if normalizeResult(result) == "" {
		return false
	}
	return !IsDidntBuy(result) && !IsNoShow(result) && !IsNotInterested(result)
}

// BookingStatusForResult maps a run result onto the booking status vocabulary.
func BookingStatusForResult(result string) string {
	switch {
	case IsSale(result):
		return BookingStatusClosedBought
	case IsNotInterested(result):
		return BookingStatusNotInterested
	default:
		return BookingStatusActive
	}
}

// PersonTypeForResult returns the follow-up person type for a non-sale
// result, or "" when the result does not generate follow-ups.
func PersonTypeForResult(result string) string {
	switch {
	case IsNoShow(result):
		return PersonTypeNoShow
	case IsDidntBuy(result):
		return PersonTypeDidntBuy
	}
	return ""
}

// DateLayout is the layout used for date-only columns.
const DateLayout = "2006-01-02"
