// ABOUTME: Strict duplicate detection waterfall for lead intake
// ABOUTME: Returns at the first hit with a fixed confidence and writes the verdict back to the lead
package dedup

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/harperreed/frontdesk/models"
)

// RecentWindow bounds the run and booking tiers of the waterfall.
const RecentWindow = 30 * 24 * time.Hour

// Confidence is the certainty of a waterfall hit.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
	ConfidenceNone   Confidence = "NONE"
)

// MatchType names the field a waterfall hit matched on.
type MatchType string

const (
	MatchPhone    MatchType = "phone"
	MatchEmail    MatchType = "email"
	MatchNameDate MatchType = "name_date"
	MatchNameOnly MatchType = "name_only"
)

// Candidate is the incoming person being checked.
type Candidate struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// MatchedRecord identifies the existing row a candidate matched.
type MatchedRecord struct {
	Table string `json:"table"`
	ID    string `json:"id"`
	Name  string `json:"name"`
	Date  string `json:"date,omitempty"`
}

// DuplicateResult is the waterfall verdict.
type DuplicateResult struct {
	IsDuplicate    bool           `json:"is_duplicate"`
	Confidence     Confidence     `json:"confidence"`
	MatchType      MatchType      `json:"match_type"`
	MatchedRecord  *MatchedRecord `json:"matched_record,omitempty"`
	ExistingStatus string         `json:"existing_status,omitempty"`
	SummaryNote    string         `json:"summary_note,omitempty"`
}

// Source is the backend surface the detector reads and writes.
type Source interface {
	ListBookings(ctx context.Context) ([]models.Booking, error)
	ListBookingsSince(ctx context.Context, since string) ([]models.Booking, error)
	ListRunsSince(ctx context.Context, since string) ([]models.Run, error)
	ListOutsideSales(ctx context.Context) ([]models.OutsideSale, error)
	GetLead(ctx context.Context, id string) (*models.Lead, error)
	UpdateLeadDuplicate(ctx context.Context, id, confidence, matchType, notes, stage string) error
}

// Detector runs the intake waterfall.
type Detector struct {
	source Source
	logger *log.Logger
	now    func() time.Time
}

// NewDetector creates a Detector over source.
func NewDetector(source Source, logger *log.Logger) *Detector {
	if logger == nil {
		logger = log.Default()
	}
	return &Detector{source: source, logger: logger, now: time.Now}
}

// normalizePhone keeps the last ten digits. Numbers shorter than seven
// digits are not matchable.
func normalizePhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	if len(digits) < 7 {
		return ""
	}
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return digits
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// matchable skips bookings that no longer represent a person.
func matchable(b models.Booking) bool {
	return b.BookingStatus != models.BookingStatusDeletedSoft && b.BookingStatus != models.BookingStatusDuplicate
}

func noMatch() DuplicateResult {
	return DuplicateResult{Confidence: ConfidenceNone}
}

// DetectDuplicate checks phone, email, outside sales, recent runs, recent
// bookings, then all bookings, returning at the first hit.
func (d *Detector) DetectDuplicate(ctx context.Context, c Candidate) (DuplicateResult, error) {
	name := NormalizeName(c.Name)
	phone := normalizePhone(c.Phone)
	email := normalizeEmail(c.Email)
	if name == "" && phone == "" && email == "" {
		return noMatch(), nil
	}

	since := d.now().Add(-RecentWindow).Format(models.DateLayout)

	bookings, err := d.source.ListBookings(ctx)
	if err != nil {
		return noMatch(), fmt.Errorf("failed to load bookings: %w", err)
	}

	if phone != "" {
		for _, b := range bookings {
			if matchable(b) && normalizePhone(b.Phone) == phone {
				return bookingHit(b, ConfidenceHigh, MatchPhone, "Phone matches"), nil
			}
		}
	}

	if email != "" {
		for _, b := range bookings {
			if matchable(b) && normalizeEmail(b.Email) == email {
				return bookingHit(b, ConfidenceHigh, MatchEmail, "Email matches"), nil
			}
		}
	}

	if name == "" {
		return noMatch(), nil
	}

	sales, err := d.source.ListOutsideSales(ctx)
	if err != nil {
		return noMatch(), fmt.Errorf("failed to load outside sales: %w", err)
	}
	for _, s := range sales {
		if NormalizeName(s.MemberName) == name {
			return DuplicateResult{
				IsDuplicate:    true,
				Confidence:     ConfidenceHigh,
				MatchType:      MatchNameOnly,
				MatchedRecord:  &MatchedRecord{Table: "sales_outside_intro", ID: s.ID, Name: s.MemberName, Date: s.SaleDate},
				ExistingStatus: "Already a member",
				SummaryNote:    fmt.Sprintf("Already a member: %s bought %s on %s", s.MemberName, s.MembershipType, s.SaleDate),
			}, nil
		}
	}

	runs, err := d.source.ListRunsSince(ctx, since)
	if err != nil {
		return noMatch(), fmt.Errorf("failed to load recent runs: %w", err)
	}
	for _, r := range runs {
		if NormalizeName(r.MemberName) == name {
			return DuplicateResult{
				IsDuplicate:    true,
				Confidence:     ConfidenceMedium,
				MatchType:      MatchNameDate,
				MatchedRecord:  &MatchedRecord{Table: "intros_run", ID: r.ID, Name: r.MemberName, Date: r.RunDate},
				ExistingStatus: r.Result,
				SummaryNote:    fmt.Sprintf("Ran an intro on %s (%s)", r.RunDate, orUnknown(r.Result)),
			}, nil
		}
	}

	recent, err := d.source.ListBookingsSince(ctx, since)
	if err != nil {
		return noMatch(), fmt.Errorf("failed to load recent bookings: %w", err)
	}
	for _, b := range recent {
		if matchable(b) && NormalizeName(b.MemberName) == name {
			return bookingHit(b, ConfidenceMedium, MatchNameDate, "Booked recently"), nil
		}
	}

	for _, b := range bookings {
		if matchable(b) && NormalizeName(b.MemberName) == name {
			return bookingHit(b, ConfidenceLow, MatchNameOnly, "Name matches"), nil
		}
	}

	return noMatch(), nil
}

func bookingHit(b models.Booking, conf Confidence, mt MatchType, prefix string) DuplicateResult {
	return DuplicateResult{
		IsDuplicate:    true,
		Confidence:     conf,
		MatchType:      mt,
		MatchedRecord:  &MatchedRecord{Table: "intros_booked", ID: b.ID, Name: b.MemberName, Date: b.ClassDate},
		ExistingStatus: b.BookingStatus,
		SummaryNote:    fmt.Sprintf("%s: %s, intro %s (%s)", prefix, b.MemberName, b.ClassDate, orUnknown(b.BookingStatus)),
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// stageFor returns the lead stage a verdict moves a lead into, or "" to keep
// the current stage. Only new leads are moved.
func stageFor(current string, conf Confidence) string {
	if current != "" && current != models.StageNew {
		return ""
	}
	switch conf {
	case ConfidenceHigh:
		return models.StageAlreadyInSystem
	case ConfidenceMedium:
		return models.StageFlagged
	}
	return ""
}

// ApplyToLead writes a verdict onto the lead and moves new leads into
// already_in_system or flagged.
func (d *Detector) ApplyToLead(ctx context.Context, leadID string, result DuplicateResult) error {
	lead, err := d.source.GetLead(ctx, leadID)
	if err != nil {
		return fmt.Errorf("failed to load lead %s: %w", leadID, err)
	}

	stage := stageFor(lead.Stage, result.Confidence)
	err = d.source.UpdateLeadDuplicate(ctx, leadID, string(result.Confidence), string(result.MatchType), result.SummaryNote, stage)
	if err != nil {
		return fmt.Errorf("failed to record duplicate check for lead %s: %w", leadID, err)
	}

	if stage != "" {
		d.logger.Info("lead stage updated by duplicate check", "lead_id", leadID, "stage", stage, "confidence", result.Confidence)
	}
	return nil
}

// CheckLead runs the waterfall for a stored lead and records the verdict.
func (d *Detector) CheckLead(ctx context.Context, leadID string) (DuplicateResult, error) {
	lead, err := d.source.GetLead(ctx, leadID)
	if err != nil {
		return noMatch(), fmt.Errorf("failed to load lead %s: %w", leadID, err)
	}

	result, err := d.DetectDuplicate(ctx, Candidate{Name: lead.FullName(), Phone: lead.Phone, Email: lead.Email})
	if err != nil {
		return result, err
	}
	if err := d.ApplyToLead(ctx, leadID, result); err != nil {
		return result, err
	}
	return result, nil
}
