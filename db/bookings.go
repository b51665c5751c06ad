// ABOUTME: Database operations for intro bookings
// ABOUTME: Create, lookup, listing, and outcome status updates on intros_booked
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

const bookingColumns = `id, member_name, class_date, intro_time, coach, lead_source,
	booked_by, intro_owner, phone, email, booking_status, originating_booking_id,
	closed_at, closed_by, created_at, updated_at`

func scanBooking(row scanner) (*models.Booking, error) {
	b := &models.Booking{}
	err := row.Scan(
		&b.ID, &b.MemberName, &b.ClassDate, str(&b.IntroTime), str(&b.Coach),
		str(&b.LeadSource), str(&b.BookedBy), str(&b.IntroOwner), str(&b.Phone),
		str(&b.Email), str(&b.BookingStatus), str(&b.OriginatingBookingID),
		&b.ClosedAt, str(&b.ClosedBy), &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// CreateBooking inserts a new booking, assigning an ID when none is set.
func (s *Store) CreateBooking(ctx context.Context, b *models.Booking) error {
	if b.MemberName == "" {
		return fmt.Errorf("booking member name is required")
	}
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.BookingStatus == "" {
		b.BookingStatus = models.BookingStatusActive
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	query := `
		INSERT INTO intros_booked (` + bookingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.exec(ctx, query,
		b.ID, b.MemberName, b.ClassDate, nullIfEmpty(b.IntroTime), nullIfEmpty(b.Coach),
		nullIfEmpty(b.LeadSource), nullIfEmpty(b.BookedBy), nullIfEmpty(b.IntroOwner),
		nullIfEmpty(b.Phone), nullIfEmpty(b.Email), b.BookingStatus,
		nullIfEmpty(b.OriginatingBookingID), b.ClosedAt, nullIfEmpty(b.ClosedBy),
		b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// GetBooking returns the booking with the given ID or ErrNotFound.
func (s *Store) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	row := s.queryRow(ctx, `SELECT `+bookingColumns+` FROM intros_booked WHERE id = ?`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// ListBookings returns all bookings, newest class date first.
func (s *Store) ListBookings(ctx context.Context) ([]models.Booking, error) {
	return s.listBookings(ctx, `SELECT `+bookingColumns+` FROM intros_booked
		ORDER BY class_date DESC, created_at DESC`)
}

// ListBookingsSince returns bookings whose class date is on or after since (YYYY-MM-DD).
func (s *Store) ListBookingsSince(ctx context.Context, since string) ([]models.Booking, error) {
	return s.listBookings(ctx, `SELECT `+bookingColumns+` FROM intros_booked
		WHERE class_date >= ?
		ORDER BY class_date DESC, created_at DESC`, since)
}

func (s *Store) listBookings(ctx context.Context, query string, args ...any) ([]models.Booking, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// CloseStamp says what UpdateBookingOutcome does with closed_at/closed_by.
type CloseStamp int

const (
	// CloseKeep leaves the stamps as they are
	CloseKeep CloseStamp = iota
	// CloseSet writes closedAt and closedBy
	CloseSet
	// CloseClear nulls both stamps
	CloseClear
)

// UpdateBookingOutcome sets the booking status and applies stamp to the
// closed_at/closed_by columns.
func (s *Store) UpdateBookingOutcome(ctx context.Context, id, status string, stamp CloseStamp, closedAt time.Time, closedBy string) error {
	now := time.Now().UTC()

	var (
		res sql.Result
		err error
	)
	switch stamp {
	case CloseSet:
		res, err = s.exec(ctx, `
			UPDATE intros_booked
			SET booking_status = ?, closed_at = ?, closed_by = ?, updated_at = ?
			WHERE id = ?
		`, status, closedAt, nullIfEmpty(closedBy), now, id)
	case CloseClear:
		res, err = s.exec(ctx, `
			UPDATE intros_booked
			SET booking_status = ?, closed_at = NULL, closed_by = NULL, updated_at = ?
			WHERE id = ?
		`, status, now, id)
	default:
		res, err = s.exec(ctx, `
			UPDATE intros_booked SET booking_status = ?, updated_at = ? WHERE id = ?
		`, status, now, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
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
