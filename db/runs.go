// ABOUTME: Database operations for intro runs
// ABOUTME: Run lookup by booking and versioned compare-and-swap outcome updates
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

const runColumns = `id, linked_intro_booked_id, member_name, run_date, result, lead_source,
	intro_owner, commission_amount, primary_objection, buy_date, last_edited_at,
	last_edited_by, edit_reason, version, created_at, updated_at`

func scanRun(row scanner) (*models.Run, error) {
	r := &models.Run{}
	err := row.Scan(
		&r.ID, str(&r.LinkedBookingID), &r.MemberName, &r.RunDate, str(&r.Result),
		str(&r.LeadSource), str(&r.IntroOwner), num(&r.CommissionAmount),
		str(&r.PrimaryObjection), str(&r.BuyDate), &r.LastEditedAt,
		str(&r.LastEditedBy), str(&r.EditReason), &r.Version, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// CreateRun inserts a run record at version 1.
func (s *Store) CreateRun(ctx context.Context, r *models.Run) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	r.Version = 1
	r.CreatedAt = now
	r.UpdatedAt = now

	query := `
		INSERT INTO intros_run (` + runColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.exec(ctx, query,
		r.ID, nullIfEmpty(r.LinkedBookingID), r.MemberName, r.RunDate, nullIfEmpty(r.Result),
		nullIfEmpty(r.LeadSource), nullIfEmpty(r.IntroOwner), r.CommissionAmount,
		nullIfEmpty(r.PrimaryObjection), nullIfEmpty(r.BuyDate), r.LastEditedAt,
		nullIfEmpty(r.LastEditedBy), nullIfEmpty(r.EditReason), r.Version,
		r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// GetRun returns the run with the given ID or ErrNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (*models.Run, error) {
	r, err := scanRun(s.queryRow(ctx, `SELECT `+runColumns+` FROM intros_run WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return r, nil
}

// FindLatestRunForBooking returns the most recent run linked to a booking.
func (s *Store) FindLatestRunForBooking(ctx context.Context, bookingID string) (*models.Run, error) {
	r, err := scanRun(s.queryRow(ctx, `
		SELECT `+runColumns+` FROM intros_run
		WHERE linked_intro_booked_id = ?
		ORDER BY run_date DESC, created_at DESC
		LIMIT 1
	`, bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find run for booking: %w", err)
	}
	return r, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]models.Run, error) {
	return s.listRuns(ctx, `SELECT `+runColumns+` FROM intros_run ORDER BY run_date DESC, created_at DESC`)
}

// ListRunsSince returns runs whose run date is on or after since (YYYY-MM-DD).
func (s *Store) ListRunsSince(ctx context.Context, since string) ([]models.Run, error) {
	return s.listRuns(ctx, `SELECT `+runColumns+` FROM intros_run
		WHERE run_date >= ?
		ORDER BY run_date DESC, created_at DESC`, since)
}

// ListRunsBetween returns runs with from <= run_date <= to.
func (s *Store) ListRunsBetween(ctx context.Context, from, to string) ([]models.Run, error) {
	return s.listRuns(ctx, `SELECT `+runColumns+` FROM intros_run
		WHERE run_date >= ? AND run_date <= ?
		ORDER BY run_date ASC, created_at ASC`, from, to)
}

// ListRunsSoldBetween returns runs whose sale date, buy_date or else
// run_date, falls within from..to inclusive.
func (s *Store) ListRunsSoldBetween(ctx context.Context, from, to string) ([]models.Run, error) {
	return s.listRuns(ctx, `SELECT `+runColumns+` FROM intros_run
		WHERE COALESCE(buy_date, run_date) >= ? AND COALESCE(buy_date, run_date) <= ?
		ORDER BY COALESCE(buy_date, run_date) ASC, created_at ASC`, from, to)
}

func (s *Store) listRuns(ctx context.Context, query string, args ...any) ([]models.Run, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var runs []models.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// UpdateRunOutcome writes the outcome fields of r if the stored version still
// equals expectedVersion. On success r.Version is advanced. A stale version
// returns ErrConflict.
func (s *Store) UpdateRunOutcome(ctx context.Context, r *models.Run, expectedVersion int) error {
	now := time.Now().UTC()

	res, err := s.exec(ctx, `
		UPDATE intros_run
		SET result = ?, commission_amount = ?, primary_objection = ?, buy_date = ?,
		    lead_source = ?, last_edited_at = ?, last_edited_by = ?, edit_reason = ?,
		    version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`,
		nullIfEmpty(r.Result), r.CommissionAmount, nullIfEmpty(r.PrimaryObjection),
		nullIfEmpty(r.BuyDate), nullIfEmpty(r.LeadSource), r.LastEditedAt,
		nullIfEmpty(r.LastEditedBy), nullIfEmpty(r.EditReason), now,
		r.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, getErr := s.GetRun(ctx, r.ID); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
		return ErrConflict
	}

	r.Version = expectedVersion + 1
	r.UpdatedAt = now
	return nil
}
