// ABOUTME: Database operations for the export_state table
// ABOUTME: Tracks per-service cursors and status for outbound exports (Sheets, digest)
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Export state statuses.
const (
	ExportStatusIdle  = "idle"
	ExportStatusError = "error"
)

// ExportState is the last known export position for an outbound service.
type ExportState struct {
	Service        string     `json:"service"`
	LastExportTime *time.Time `json:"last_export_time,omitempty"`
	Cursor         string     `json:"cursor,omitempty"`
	Status         string     `json:"status"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

const exportStateColumns = `service, last_export_time, last_cursor, status, error_message, created_at, updated_at`

func scanExportState(row scanner) (*ExportState, error) {
	var state ExportState
	var lastExportTime sql.NullTime
	err := row.Scan(
		&state.Service,
		&lastExportTime,
		str(&state.Cursor),
		&state.Status,
		str(&state.ErrorMessage),
		&state.CreatedAt,
		&state.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastExportTime.Valid {
		state.LastExportTime = &lastExportTime.Time
	}
	return &state, nil
}

// GetExportState returns the state for a service, or nil when the service
// has never exported.
func (s *Store) GetExportState(ctx context.Context, service string) (*ExportState, error) {
	state, err := scanExportState(s.queryRow(ctx,
		`SELECT `+exportStateColumns+` FROM export_state WHERE service = ?`, service))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get export state: %w", err)
	}
	return state, nil
}

// RecordExportSuccess advances the cursor for a service and clears any error.
func (s *Store) RecordExportSuccess(ctx context.Context, service, cursor string) error {
	_, err := s.exec(ctx, `
		INSERT INTO export_state (service, last_export_time, last_cursor, status, created_at, updated_at)
		VALUES (?, CURRENT_TIMESTAMP, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			last_export_time = CURRENT_TIMESTAMP,
			last_cursor = excluded.last_cursor,
			status = excluded.status,
			error_message = NULL,
			updated_at = CURRENT_TIMESTAMP
	`, service, cursor, ExportStatusIdle)
	if err != nil {
		return fmt.Errorf("failed to update export cursor: %w", err)
	}
	return nil
}

// RecordExportFailure marks a service as failed without moving its cursor.
func (s *Store) RecordExportFailure(ctx context.Context, service, errorMsg string) error {
	_, err := s.exec(ctx, `
		INSERT INTO export_state (service, status, error_message, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, service, ExportStatusError, errorMsg)
	if err != nil {
		return fmt.Errorf("failed to update export status: %w", err)
	}
	return nil
}

// ListExportStates returns the state of every service that has exported.
func (s *Store) ListExportStates(ctx context.Context) ([]ExportState, error) {
	rows, err := s.query(ctx, `SELECT `+exportStateColumns+` FROM export_state ORDER BY service`)
	if err != nil {
		return nil, fmt.Errorf("failed to query export states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var states []ExportState
	for rows.Next() {
		state, err := scanExportState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan export state: %w", err)
		}
		states = append(states, *state)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating export states: %w", err)
	}
	return states, nil
}
