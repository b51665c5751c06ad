// ABOUTME: Outcome Update Service, the single writer for an intro's result
// ABOUTME: Updates run, booking, AMC, follow-ups, and the audit log in one transaction
package outcome

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/frontdesk/db"
	"github.com/harperreed/frontdesk/models"
)

// ErrValidation marks params rejected before any I/O.
var ErrValidation = errors.New("invalid outcome update")

// Params describes one result change.
type Params struct {
	BookingID        string   `json:"booking_id"`
	MemberName       string   `json:"member_name,omitempty"`
	ClassDate        string   `json:"class_date,omitempty"`
	NewResult        string   `json:"new_result"`
	PreviousResult   string   `json:"previous_result,omitempty"`
	MembershipType   string   `json:"membership_type,omitempty"`
	CommissionAmount *float64 `json:"commission_amount,omitempty"`
	LeadSource       string   `json:"lead_source,omitempty"`
	Objection        string   `json:"objection,omitempty"`
	EditedBy         string   `json:"edited_by"`
	SourceComponent  string   `json:"source_component,omitempty"`
	EditReason       string   `json:"edit_reason,omitempty"`
	RunID            string   `json:"run_id,omitempty"`
	ExpectedVersion  int      `json:"expected_version,omitempty"`
}

// Validate checks required fields.
func (p Params) Validate() error {
	switch {
	case p.BookingID == "":
		return fmt.Errorf("%w: booking_id is required", ErrValidation)
	case p.NewResult == "":
		return fmt.Errorf("%w: new_result is required", ErrValidation)
	case p.EditedBy == "":
		return fmt.Errorf("%w: edited_by is required", ErrValidation)
	case p.ExpectedVersion < 0:
		return fmt.Errorf("%w: expected_version must not be negative", ErrValidation)
	}
	return nil
}

// Result reports the outcome of ApplyIntroOutcomeUpdate. Failures never
// escape as panics or errors; they are carried in Error and Err.
type Result struct {
	Success        bool   `json:"success"`
	RunID          string `json:"run_id,omitempty"`
	AMCIncremented bool   `json:"amc_incremented"`
	NewSale        bool   `json:"new_sale"`
	Error          string `json:"error,omitempty"`
	Err            error  `json:"-"`
}

// Service applies outcome updates against the backend.
type Service struct {
	store   *db.Store
	logger  *log.Logger
	now     func() time.Time
	Cadence Cadence
}

// NewService creates an outcome service using the default cadence.
func NewService(store *db.Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		store:   store,
		logger:  logger,
		now:     time.Now,
		Cadence: DefaultCadence(),
	}
}

// ApplyIntroOutcomeUpdate changes an intro's result and keeps the run,
// booking, AMC log, follow-up queue, and audit trail consistent. Every step
// runs in one transaction; any failure rolls all of them back.
func (s *Service) ApplyIntroOutcomeUpdate(ctx context.Context, p Params) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = s.fail(p, fmt.Errorf("outcome update panicked: %v", r))
		}
	}()

	if err := p.Validate(); err != nil {
		return s.fail(p, err)
	}

	now := s.now()
	var out Result
	err := s.store.WithTx(ctx, func(tx *db.Store) error {
		var err error
		out, err = s.apply(ctx, tx, p, now)
		return err
	})
	if err != nil {
		return s.fail(p, err)
	}

	out.Success = true
	s.logger.Info("outcome updated",
		"booking_id", p.BookingID,
		"run_id", out.RunID,
		"new_result", p.NewResult,
		"amc", out.AMCIncremented,
	)
	return out
}

func (s *Service) fail(p Params, err error) Result {
	s.logger.Error("outcome update failed", "booking_id", p.BookingID, "new_result", p.NewResult, "err", err)
	return Result{Error: err.Error(), Err: err}
}

func (s *Service) apply(ctx context.Context, tx *db.Store, p Params, now time.Time) (Result, error) {
	today := now.Format(models.DateLayout)

	booking, err := tx.GetBooking(ctx, p.BookingID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load booking %s: %w", p.BookingID, err)
	}
	memberName := firstNonEmpty(p.MemberName, booking.MemberName)

	// 1. Locate the run
	run, err := s.locateRun(ctx, tx, p, booking, memberName, today)
	if err != nil {
		return Result{}, err
	}

	// PreviousResult only fills in for a run with no stored result
	prev := run.Result
	if prev == "" {
		prev = p.PreviousResult
	}
	expected := run.Version
	if p.ExpectedVersion > 0 {
		expected = p.ExpectedVersion
	}

	isNowSale := models.IsSale(p.NewResult)
	wasSale := models.IsSale(prev)

	// 2. Update the run
	run.Result = p.NewResult
	if p.CommissionAmount != nil {
		run.CommissionAmount = *p.CommissionAmount
	}
	if models.IsDidntBuy(p.NewResult) {
		run.PrimaryObjection = p.Objection
	} else {
		run.PrimaryObjection = ""
	}
	if p.LeadSource != "" {
		run.LeadSource = p.LeadSource
	}
	if isNowSale && !wasSale && run.BuyDate == "" {
		run.BuyDate = today
	}
	editedAt := now.UTC()
	run.LastEditedAt = &editedAt
	run.LastEditedBy = p.EditedBy
	run.EditReason = p.EditReason
	if run.EditReason == "" {
		run.EditReason = describeChange(prev, p.NewResult)
	}
	if err := tx.UpdateRunOutcome(ctx, run, expected); err != nil {
		return Result{}, fmt.Errorf("failed to update run %s: %w", run.ID, err)
	}

	// 3. Update the booking
	newStatus := models.BookingStatusForResult(p.NewResult)
	stamp := db.CloseKeep
	switch {
	case isNowSale && !wasSale:
		stamp = db.CloseSet
	case !isNowSale && wasSale:
		stamp = db.CloseClear
	}
	if err := tx.UpdateBookingOutcome(ctx, booking.ID, newStatus, stamp, editedAt, p.EditedBy); err != nil {
		return Result{}, fmt.Errorf("failed to update booking %s: %w", booking.ID, err)
	}

	// 4. AMC on a transition into an eligible sale
	amc := false
	if isNowSale && !wasSale {
		membership := firstNonEmpty(p.MembershipType, p.NewResult)
		source := firstNonEmpty(p.LeadSource, run.LeadSource, booking.LeadSource)
		if IsAMCEligible(membership, source) {
			err := tx.InsertAMCEntry(ctx, &models.AMCEntry{
				LogDate:        today,
				Delta:          1,
				BookingID:      booking.ID,
				MemberName:     memberName,
				MembershipType: membership,
				CreatedBy:      p.EditedBy,
			})
			if err != nil {
				return Result{}, err
			}
			amc = true
		}
	}

	// 5. Follow-up reconciliation
	plan := planFollowUps(prev, p.NewResult)
	if plan.deletePending {
		n, err := tx.DeletePendingFollowUps(ctx, booking.ID)
		if err != nil {
			return Result{}, err
		}
		s.logger.Debug("cleared follow-ups", "booking_id", booking.ID, "count", n)
	}
	if plan.regenerate != "" {
		rows := s.Cadence.Build(booking.ID, memberName, plan.regenerate, p.Objection, now)
		if err := tx.CreateFollowUps(ctx, rows); err != nil {
			return Result{}, err
		}
	}

	// 6. Audit
	err = tx.InsertOutcomeChange(ctx, &models.OutcomeChange{
		BookingID:       booking.ID,
		RunID:           run.ID,
		MemberName:      memberName,
		OldResult:       prev,
		NewResult:       p.NewResult,
		OldStatus:       booking.BookingStatus,
		NewStatus:       newStatus,
		ChangedBy:       p.EditedBy,
		SourceComponent: p.SourceComponent,
		EditReason:      run.EditReason,
		AMCIncremented:  amc,
		CreatedAt:       editedAt,
	})
	if err != nil {
		return Result{}, err
	}

	return Result{RunID: run.ID, AMCIncremented: amc, NewSale: isNowSale && !wasSale}, nil
}

// locateRun finds the run by id, else the latest run for the booking. A
// booking with no run yet gets one.
func (s *Service) locateRun(ctx context.Context, tx *db.Store, p Params, booking *models.Booking, memberName, today string) (*models.Run, error) {
	if p.RunID != "" {
		run, err := tx.GetRun(ctx, p.RunID)
		if err != nil {
			return nil, fmt.Errorf("failed to load run %s: %w", p.RunID, err)
		}
		if run.LinkedBookingID != booking.ID {
			return nil, fmt.Errorf("%w: run %s belongs to booking %s, not %s",
				ErrValidation, run.ID, run.LinkedBookingID, booking.ID)
		}
		return run, nil
	}

	run, err := tx.FindLatestRunForBooking(ctx, booking.ID)
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("failed to find run for booking %s: %w", booking.ID, err)
	}

	run = &models.Run{
		LinkedBookingID: booking.ID,
		MemberName:      memberName,
		RunDate:         firstNonEmpty(p.ClassDate, booking.ClassDate, today),
		LeadSource:      booking.LeadSource,
		IntroOwner:      booking.IntroOwner,
	}
	if err := tx.CreateRun(ctx, run); err != nil {
		return nil, err
	}
	s.logger.Debug("created run for booking", "booking_id", booking.ID, "run_id", run.ID)
	return run, nil
}

func describeChange(prev, next string) string {
	if prev == "" {
		return "Result set to " + next
	}
	return fmt.Sprintf("Result changed from %s to %s", prev, next)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
