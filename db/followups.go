// ABOUTME: Database operations for the follow-up queue, touch log, and shift recaps
// ABOUTME: Handles cadence rows per booking, completion status, and logged contact attempts
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/frontdesk/models"
)

const followUpColumns = `id, booking_id, person_name, person_type, touch_number, scheduled_date,
	status, primary_objection, completed_at, completed_by, notes, created_at`

func scanFollowUp(row scanner) (*models.FollowUp, error) {
	f := &models.FollowUp{}
	err := row.Scan(
		&f.ID, &f.BookingID, &f.PersonName, &f.PersonType, &f.TouchNumber,
		&f.ScheduledDate, &f.Status, str(&f.PrimaryObjection), &f.CompletedAt,
		str(&f.CompletedBy), str(&f.Notes), &f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// CreateFollowUps inserts a batch of follow-up rows.
func (s *Store) CreateFollowUps(ctx context.Context, followUps []models.FollowUp) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO follow_up_queue (` + followUpColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i := range followUps {
		f := &followUps[i]
		if f.ID == "" {
			f.ID = uuid.New().String()
		}
		if f.Status == "" {
			f.Status = models.FollowUpPending
		}
		f.CreatedAt = now

		_, err := s.exec(ctx, query,
			f.ID, f.BookingID, f.PersonName, f.PersonType, f.TouchNumber, f.ScheduledDate,
			f.Status, nullIfEmpty(f.PrimaryObjection), f.CompletedAt,
			nullIfEmpty(f.CompletedBy), nullIfEmpty(f.Notes), f.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create follow-up %d: %w", f.TouchNumber, err)
		}
	}
	return nil
}

// GetFollowUp returns the follow-up with the given ID or ErrNotFound.
func (s *Store) GetFollowUp(ctx context.Context, id string) (*models.FollowUp, error) {
	f, err := scanFollowUp(s.queryRow(ctx, `SELECT `+followUpColumns+` FROM follow_up_queue WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get follow-up: %w", err)
	}
	return f, nil
}

// ListFollowUps returns every follow-up ordered by scheduled date.
func (s *Store) ListFollowUps(ctx context.Context) ([]models.FollowUp, error) {
	return s.listFollowUps(ctx, `SELECT `+followUpColumns+` FROM follow_up_queue
		ORDER BY scheduled_date ASC, touch_number ASC`)
}

// ListFollowUpsForBooking returns the follow-ups belonging to one booking.
func (s *Store) ListFollowUpsForBooking(ctx context.Context, bookingID string) ([]models.FollowUp, error) {
	return s.listFollowUps(ctx, `SELECT `+followUpColumns+` FROM follow_up_queue
		WHERE booking_id = ?
		ORDER BY touch_number ASC`, bookingID)
}

// ListDueFollowUps returns pending follow-ups scheduled on or before date.
func (s *Store) ListDueFollowUps(ctx context.Context, date string) ([]models.FollowUp, error) {
	return s.listFollowUps(ctx, `SELECT `+followUpColumns+` FROM follow_up_queue
		WHERE status = ? AND scheduled_date <= ?
		ORDER BY scheduled_date ASC, touch_number ASC`, models.FollowUpPending, date)
}

func (s *Store) listFollowUps(ctx context.Context, query string, args ...any) ([]models.FollowUp, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list follow-ups: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var followUps []models.FollowUp
	for rows.Next() {
		f, err := scanFollowUp(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan follow-up: %w", err)
		}
		followUps = append(followUps, *f)
	}
	return followUps, rows.Err()
}

// DeletePendingFollowUps removes the pending follow-ups of a booking and
// returns how many rows were deleted.
func (s *Store) DeletePendingFollowUps(ctx context.Context, bookingID string) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM follow_up_queue WHERE booking_id = ? AND status = ?`,
		bookingID, models.FollowUpPending)
	if err != nil {
		return 0, fmt.Errorf("failed to delete follow-ups: %w", err)
	}
	return res.RowsAffected()
}

// CompleteFollowUp sets the follow-up status and completion stamps.
func (s *Store) CompleteFollowUp(ctx context.Context, id, status, completedBy, notes string, at time.Time) error {
	res, err := s.exec(ctx, `
		UPDATE follow_up_queue
		SET status = ?, completed_at = ?, completed_by = ?, notes = COALESCE(?, notes)
		WHERE id = ?
	`, status, at, nullIfEmpty(completedBy), nullIfEmpty(notes), id)
	if err != nil {
		return fmt.Errorf("failed to complete follow-up: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertTouch logs a contact attempt.
func (s *Store) InsertTouch(ctx context.Context, t *models.Touch) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	_, err := s.exec(ctx, `
		INSERT INTO followup_touches (id, touch_type, booking_id, lead_id, channel, notes, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.TouchType, nullIfEmpty(t.BookingID), nullIfEmpty(t.LeadID),
		nullIfEmpty(t.Channel), nullIfEmpty(t.Notes), t.CreatedBy, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert touch: %w", err)
	}
	return nil
}

// ListTouches returns logged touches, newest first.
func (s *Store) ListTouches(ctx context.Context) ([]models.Touch, error) {
	rows, err := s.query(ctx, `
		SELECT id, touch_type, booking_id, lead_id, channel, notes, created_by, created_at
		FROM followup_touches
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list touches: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var touches []models.Touch
	for rows.Next() {
		var t models.Touch
		if err := rows.Scan(&t.ID, &t.TouchType, str(&t.BookingID), str(&t.LeadID),
			str(&t.Channel), str(&t.Notes), &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan touch: %w", err)
		}
		touches = append(touches, t)
	}
	return touches, rows.Err()
}

// CreateShiftRecap stores an end-of-shift summary.
func (s *Store) CreateShiftRecap(ctx context.Context, r *models.ShiftRecap) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	r.CreatedAt = time.Now().UTC()

	_, err := s.exec(ctx, `
		INSERT INTO shift_recaps (id, staff_name, shift_date, shift_type, calls, texts, dms, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.StaffName, r.ShiftDate, nullIfEmpty(r.ShiftType), r.Calls, r.Texts, r.DMs,
		nullIfEmpty(r.Notes), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create shift recap: %w", err)
	}
	return nil
}

// ListShiftRecaps returns shift recaps, newest shift first.
func (s *Store) ListShiftRecaps(ctx context.Context) ([]models.ShiftRecap, error) {
	rows, err := s.query(ctx, `
		SELECT id, staff_name, shift_date, shift_type, calls, texts, dms, notes, created_at
		FROM shift_recaps
		ORDER BY shift_date DESC, created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list shift recaps: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var recaps []models.ShiftRecap
	for rows.Next() {
		var r models.ShiftRecap
		if err := rows.Scan(&r.ID, &r.StaffName, &r.ShiftDate, str(&r.ShiftType),
			&r.Calls, &r.Texts, &r.DMs, str(&r.Notes), &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shift recap: %w", err)
		}
		recaps = append(recaps, r)
	}
	return recaps, rows.Err()
}
