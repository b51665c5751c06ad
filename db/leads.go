// ABOUTME: Database operations for leads and sales made outside an intro
// ABOUTME: Includes the duplicate-flag write-back used at lead intake
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

const leadColumns = `id, first_name, last_name, phone, email, source, stage,
	duplicate_confidence, duplicate_match_type, duplicate_notes, created_at, updated_at`

// CreateLead inserts a lead in the new stage unless a stage is set.
func (s *Store) CreateLead(ctx context.Context, l *models.Lead) error {
	if l.FirstName == "" {
		return fmt.Errorf("lead first name is required")
	}
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.Stage == "" {
		l.Stage = models.StageNew
	}
	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now

	_, err := s.exec(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, l.ID, l.FirstName, nullIfEmpty(l.LastName), nullIfEmpty(l.Phone), nullIfEmpty(l.Email),
		nullIfEmpty(l.Source), l.Stage, nullIfEmpty(l.DuplicateConfidence),
		nullIfEmpty(l.DuplicateMatchType), nullIfEmpty(l.DuplicateNotes), l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	return nil
}

// GetLead returns the lead with the given ID or ErrNotFound.
func (s *Store) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	l := &models.Lead{}
	err := s.queryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = ?`, id).Scan(
		&l.ID, &l.FirstName, str(&l.LastName), str(&l.Phone), str(&l.Email), str(&l.Source),
		str(&l.Stage), str(&l.DuplicateConfidence), str(&l.DuplicateMatchType),
		str(&l.DuplicateNotes), &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return l, nil
}

// UpdateLeadDuplicate records a duplicate judgment on a lead. A non-empty
// stage replaces the lead's stage.
func (s *Store) UpdateLeadDuplicate(ctx context.Context, id, confidence, matchType, notes, stage string) error {
	now := time.Now().UTC()
	res, err := s.exec(ctx, `
		UPDATE leads
		SET duplicate_confidence = ?, duplicate_match_type = ?, duplicate_notes = ?,
		    stage = COALESCE(?, stage), updated_at = ?
		WHERE id = ?
	`, nullIfEmpty(confidence), nullIfEmpty(matchType), nullIfEmpty(notes), nullIfEmpty(stage), now, id)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
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

// CreateOutsideSale records a membership sold without an intro.
func (s *Store) CreateOutsideSale(ctx context.Context, sale *models.OutsideSale) error {
	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}
	sale.CreatedAt = time.Now().UTC()

	_, err := s.exec(ctx, `
		INSERT INTO sales_outside_intro (id, member_name, membership_type, sale_date, intro_owner,
			lead_source, commission_amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, sale.ID, sale.MemberName, sale.MembershipType, sale.SaleDate, nullIfEmpty(sale.IntroOwner),
		nullIfEmpty(sale.LeadSource), sale.CommissionAmount, sale.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create outside sale: %w", err)
	}
	return nil
}

// ListOutsideSales returns every outside sale, newest first.
func (s *Store) ListOutsideSales(ctx context.Context) ([]models.OutsideSale, error) {
	return s.listOutsideSales(ctx, `
		SELECT id, member_name, membership_type, sale_date, intro_owner, lead_source,
		       commission_amount, created_at
		FROM sales_outside_intro
		ORDER BY sale_date DESC, created_at DESC
	`)
}

// ListOutsideSalesBetween returns outside sales with from <= sale_date <= to.
func (s *Store) ListOutsideSalesBetween(ctx context.Context, from, to string) ([]models.OutsideSale, error) {
	return s.listOutsideSales(ctx, `
		SELECT id, member_name, membership_type, sale_date, intro_owner, lead_source,
		       commission_amount, created_at
		FROM sales_outside_intro
		WHERE sale_date >= ? AND sale_date <= ?
		ORDER BY sale_date ASC, created_at ASC
	`, from, to)
}

func (s *Store) listOutsideSales(ctx context.Context, query string, args ...any) ([]models.OutsideSale, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list outside sales: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var sales []models.OutsideSale
	for rows.Next() {
		var o models.OutsideSale
		if err := rows.Scan(&o.ID, &o.MemberName, &o.MembershipType, &o.SaleDate,
			str(&o.IntroOwner), str(&o.LeadSource), num(&o.CommissionAmount), &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outside sale: %w", err)
		}
		sales = append(sales, o)
	}
	return sales, rows.Err()
}
