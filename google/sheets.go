// ABOUTME: Appends outcome audit rows to a Google Sheet
// ABOUTME: Tracks its position in export_state so each change is exported once
package google

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/frontdesk/db"
	"github.com/harperreed/frontdesk/models"
	"google.golang.org/api/sheets/v4"
)

// ExportService is the export_state key for the Sheets export.
const ExportService = "sheets"

// HeaderRow is written before the first exported change.
var HeaderRow = []interface{}{
	"Changed At", "Member", "Old Result", "New Result", "Old Status", "New Status",
	"Changed By", "Source", "Reason", "AMC",
}

// ExportStore is the backend surface the exporter needs.
type ExportStore interface {
	ListOutcomeChangesSince(ctx context.Context, since time.Time) ([]models.OutcomeChange, error)
	GetExportState(ctx context.Context, service string) (*db.ExportState, error)
	RecordExportSuccess(ctx context.Context, service, cursor string) error
	RecordExportFailure(ctx context.Context, service, errorMsg string) error
}

// SheetsExporter appends audit rows to one spreadsheet range.
type SheetsExporter struct {
	service *sheets.Service
	sheetID string
	rng     string
	store   ExportStore
	logger  *log.Logger
}

// NewSheetsExporter creates an exporter writing to sheetID at rng.
func NewSheetsExporter(service *sheets.Service, sheetID, rng string, store ExportStore, logger *log.Logger) *SheetsExporter {
	if logger == nil {
		logger = log.Default()
	}
	return &SheetsExporter{service: service, sheetID: sheetID, rng: rng, store: store, logger: logger}
}

func changeRow(c models.OutcomeChange) []interface{} {
	amc := "no"
	if c.AMCIncremented {
		amc = "yes"
	}
	return []interface{}{
		c.CreatedAt.Format(time.RFC3339), c.MemberName, c.OldResult, c.NewResult,
		c.OldStatus, c.NewStatus, c.ChangedBy, c.SourceComponent, c.EditReason, amc,
	}
}

// AppendOutcomeChanges appends one row per change.
func (e *SheetsExporter) AppendOutcomeChanges(ctx context.Context, changes []models.OutcomeChange) error {
	return e.append(ctx, false, changes)
}

func (e *SheetsExporter) append(ctx context.Context, header bool, changes []models.OutcomeChange) error {
	values := make([][]interface{}, 0, len(changes)+1)
	if header {
		values = append(values, HeaderRow)
	}
	for _, c := range changes {
		values = append(values, changeRow(c))
	}
	if len(values) == 0 {
		return nil
	}

	_, err := e.service.Spreadsheets.Values.
		Append(e.sheetID, e.rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append rows: %w", err)
	}
	return nil
}

// ExportPending appends every change newer than the stored cursor and
// advances it. Returns the number of changes exported.
func (e *SheetsExporter) ExportPending(ctx context.Context) (int, error) {
	state, err := e.store.GetExportState(ctx, ExportService)
	if err != nil {
		return 0, err
	}

	var since time.Time
	first := state == nil || state.Cursor == ""
	if !first {
		since, err = time.Parse(time.RFC3339Nano, state.Cursor)
		if err != nil {
			return 0, fmt.Errorf("invalid export cursor %q: %w", state.Cursor, err)
		}
	}

	changes, err := e.store.ListOutcomeChangesSince(ctx, since)
	if err != nil {
		return 0, err
	}
	pending := changes[:0]
	for _, c := range changes {
		if first || c.CreatedAt.After(since) {
			pending = append(pending, c)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	if err := e.append(ctx, first, pending); err != nil {
		if recErr := e.store.RecordExportFailure(ctx, ExportService, err.Error()); recErr != nil {
			e.logger.Warn("failed to record export failure", "err", recErr)
		}
		return 0, err
	}

	cursor := pending[len(pending)-1].CreatedAt.UTC().Format(time.RFC3339Nano)
	if err := e.store.RecordExportSuccess(ctx, ExportService, cursor); err != nil {
		return len(pending), err
	}

	e.logger.Info("exported outcome changes", "count", len(pending), "sheet", e.sheetID)
	return len(pending), nil
}
