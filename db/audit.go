// ABOUTME: Database operations for the outcome audit log and AMC counter
// ABOUTME: Append-only rows in outcome_changes and amc_log
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/frontdesk/models"
)

const outcomeChangeColumns = `id, booking_id, run_id, member_name, old_result, new_result,
	old_status, new_status, changed_by, source_component, edit_reason, amc_incremented, created_at`

// InsertOutcomeChange appends an audit row.
func (s *Store) InsertOutcomeChange(ctx context.Context, c *models.OutcomeChange) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := s.exec(ctx, `
		INSERT INTO outcome_changes (`+outcomeChangeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.BookingID, nullIfEmpty(c.RunID), nullIfEmpty(c.MemberName), nullIfEmpty(c.OldResult),
		c.NewResult, nullIfEmpty(c.OldStatus), c.NewStatus, c.ChangedBy,
		nullIfEmpty(c.SourceComponent), nullIfEmpty(c.EditReason), c.AMCIncremented, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert outcome change: %w", err)
	}
	return nil
}

// ListOutcomeChanges returns the audit trail for a booking, oldest first.
func (s *Store) ListOutcomeChanges(ctx context.Context, bookingID string) ([]models.OutcomeChange, error) {
	return s.listOutcomeChanges(ctx, `SELECT `+outcomeChangeColumns+` FROM outcome_changes
		WHERE booking_id = ?
		ORDER BY created_at ASC`, bookingID)
}

// ListOutcomeChangesSince returns audit rows created at or after since.
func (s *Store) ListOutcomeChangesSince(ctx context.Context, since time.Time) ([]models.OutcomeChange, error) {
	return s.listOutcomeChanges(ctx, `SELECT `+outcomeChangeColumns+` FROM outcome_changes
		WHERE created_at >= ?
		ORDER BY created_at ASC`, since)
}

func (s *Store) listOutcomeChanges(ctx context.Context, query string, args ...any) ([]models.OutcomeChange, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list outcome changes: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var changes []models.OutcomeChange
	for rows.Next() {
		var c models.OutcomeChange
		if err := rows.Scan(&c.ID, &c.BookingID, str(&c.RunID), str(&c.MemberName),
			str(&c.OldResult), &c.NewResult, str(&c.OldStatus), &c.NewStatus, &c.ChangedBy,
			str(&c.SourceComponent), str(&c.EditReason), &c.AMCIncremented, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outcome change: %w", err)
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// InsertAMCEntry appends an active-member-count adjustment.
func (s *Store) InsertAMCEntry(ctx context.Context, e *models.AMCEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Delta == 0 {
		e.Delta = 1
	}
	e.CreatedAt = time.Now().UTC()

	_, err := s.exec(ctx, `
		INSERT INTO amc_log (id, log_date, delta, booking_id, member_name, membership_type, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.LogDate, e.Delta, nullIfEmpty(e.BookingID), nullIfEmpty(e.MemberName),
		nullIfEmpty(e.MembershipType), nullIfEmpty(e.CreatedBy), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert AMC entry: %w", err)
	}
	return nil
}

// AMCTotalForDate sums the AMC deltas logged on a date (YYYY-MM-DD).
func (s *Store) AMCTotalForDate(ctx context.Context, date string) (int, error) {
	var total int
	err := s.queryRow(ctx, `SELECT COALESCE(SUM(delta), 0) FROM amc_log WHERE log_date = ?`, date).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum AMC entries: %w", err)
	}
	return total, nil
}
