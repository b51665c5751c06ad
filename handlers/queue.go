// ABOUTME: Offline queue MCP tool handlers
// ABOUTME: Implements log_touch, queue_followup_complete, queue_rebook, list_queue, and run_sync tools
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/frontdesk/app"
	"github.com/harperreed/frontdesk/offline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type QueueHandlers struct {
	app *app.App
}

func NewQueueHandlers(a *app.App) *QueueHandlers {
	return &QueueHandlers{app: a}
}

type LogTouchInput struct {
	TouchType string `json:"touch_type" jsonschema:"Kind of touch, e.g. call, text, dm (required)"`
	BookingID string `json:"booking_id,omitempty" jsonschema:"Booking the touch is about"`
	LeadID    string `json:"lead_id,omitempty" jsonschema:"Lead the touch is about (booking_id or lead_id required)"`
	Channel   string `json:"channel,omitempty" jsonschema:"Channel used"`
	Notes     string `json:"notes,omitempty" jsonschema:"Free-form notes"`
	CreatedBy string `json:"created_by,omitempty" jsonschema:"Staff member logging the touch (defaults to configured staff)"`
}

type LogTouchOutput struct {
	Outcome      string `json:"outcome"`
	PendingCount int    `json:"pending_count"`
}

func (h *QueueHandlers) LogTouch(ctx context.Context, request *mcp.CallToolRequest, input LogTouchInput) (*mcp.CallToolResult, LogTouchOutput, error) {
	by, err := h.app.Staff(input.CreatedBy)
	if err != nil {
		return nil, LogTouchOutput{}, err
	}

	outcome, err := h.app.Touches.LogTouch(ctx, by, offline.TouchPayload{
		TouchType: input.TouchType,
		BookingID: input.BookingID,
		LeadID:    input.LeadID,
		Channel:   input.Channel,
		Notes:     input.Notes,
	})
	if err != nil {
		return nil, LogTouchOutput{}, fmt.Errorf("failed to log touch: %w", err)
	}

	return nil, LogTouchOutput{Outcome: string(outcome), PendingCount: h.app.Queue.GetPendingCount()}, nil
}

type QueueFollowUpCompleteInput struct {
	FollowUpID string `json:"follow_up_id" jsonschema:"Follow-up queue row to close (required)"`
	Status     string `json:"status,omitempty" jsonschema:"completed, sent, or skipped (default completed)"`
	Notes      string `json:"notes,omitempty" jsonschema:"Notes recorded on the follow-up"`
	CreatedBy  string `json:"created_by,omitempty" jsonschema:"Staff member closing the follow-up"`
}

type QueuedItemOutput struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Queued       bool   `json:"queued"`
	PendingCount int    `json:"pending_count"`
}

func (h *QueueHandlers) QueueFollowUpComplete(_ context.Context, request *mcp.CallToolRequest, input QueueFollowUpCompleteInput) (*mcp.CallToolResult, QueuedItemOutput, error) {
	by, err := h.app.Staff(input.CreatedBy)
	if err != nil {
		return nil, QueuedItemOutput{}, err
	}

	item, err := offline.NewFollowUpCompleteItem(by, offline.FollowUpCompletePayload{
		FollowUpID: input.FollowUpID,
		Status:     input.Status,
		Notes:      input.Notes,
	})
	if err != nil {
		return nil, QueuedItemOutput{}, err
	}

	return nil, h.enqueue(item), nil
}

type QueueRebookInput struct {
	MemberName           string `json:"member_name" jsonschema:"Member to rebook (required)"`
	ClassDate            string `json:"class_date" jsonschema:"Class date YYYY-MM-DD (required)"`
	IntroTime            string `json:"intro_time,omitempty" jsonschema:"Class time"`
	Coach                string `json:"coach,omitempty" jsonschema:"Coach for the class"`
	LeadSource           string `json:"lead_source,omitempty" jsonschema:"Lead source"`
	IntroOwner           string `json:"intro_owner,omitempty" jsonschema:"SA who owns the intro"`
	Phone                string `json:"phone,omitempty" jsonschema:"Member phone"`
	Email                string `json:"email,omitempty" jsonschema:"Member email"`
	OriginatingBookingID string `json:"originating_booking_id,omitempty" jsonschema:"Booking this rebook came from"`
	FollowUpID           string `json:"follow_up_id,omitempty" jsonschema:"Follow-up to close once the booking exists"`
	CreatedBy            string `json:"created_by,omitempty" jsonschema:"Staff member booking the class"`
}

func (h *QueueHandlers) QueueRebook(_ context.Context, request *mcp.CallToolRequest, input QueueRebookInput) (*mcp.CallToolResult, QueuedItemOutput, error) {
	by, err := h.app.Staff(input.CreatedBy)
	if err != nil {
		return nil, QueuedItemOutput{}, err
	}

	item, err := offline.NewRebookItem(by, offline.RebookPayload{
		MemberName:           input.MemberName,
		ClassDate:            input.ClassDate,
		IntroTime:            input.IntroTime,
		Coach:                input.Coach,
		LeadSource:           input.LeadSource,
		BookedBy:             by,
		IntroOwner:           input.IntroOwner,
		Phone:                input.Phone,
		Email:                input.Email,
		OriginatingBookingID: input.OriginatingBookingID,
		FollowUpID:           input.FollowUpID,
	})
	if err != nil {
		return nil, QueuedItemOutput{}, err
	}

	return nil, h.enqueue(item), nil
}

func (h *QueueHandlers) enqueue(item offline.Item) QueuedItemOutput {
	queued := h.app.Queue.Enqueue(item)
	return QueuedItemOutput{
		ID:           item.ID,
		Type:         string(item.Type),
		Queued:       queued,
		PendingCount: h.app.Queue.GetPendingCount(),
	}
}

type ListQueueInput struct {
	Status string `json:"status,omitempty" jsonschema:"Only items with this sync status (pending, syncing, failed)"`
}

type QueueItemOutput struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	CreatedBy     string  `json:"created_by"`
	CreatedAt     string  `json:"created_at"`
	SyncStatus    string  `json:"sync_status"`
	RetryCount    int     `json:"retry_count"`
	LastError     string  `json:"last_error,omitempty"`
	NextAttemptAt *string `json:"next_attempt_at,omitempty"`
}

type ListQueueOutput struct {
	Items        []QueueItemOutput `json:"items"`
	PendingCount int               `json:"pending_count"`
}

func (h *QueueHandlers) ListQueue(_ context.Context, request *mcp.CallToolRequest, input ListQueueInput) (*mcp.CallToolResult, ListQueueOutput, error) {
	items := h.app.Queue.GetQueue()
	out := ListQueueOutput{Items: []QueueItemOutput{}, PendingCount: h.app.Queue.GetPendingCount()}
	for _, it := range items {
		if input.Status != "" && string(it.SyncStatus) != input.Status {
			continue
		}
		out.Items = append(out.Items, queueItemToOutput(it))
	}
	return nil, out, nil
}

func queueItemToOutput(it offline.Item) QueueItemOutput {
	out := QueueItemOutput{
		ID:         it.ID,
		Type:       string(it.Type),
		CreatedBy:  it.CreatedBy,
		CreatedAt:  it.CreatedAt.Format(time.RFC3339),
		SyncStatus: string(it.SyncStatus),
		RetryCount: it.RetryCount,
		LastError:  it.LastError,
	}
	if it.NextAttemptAt != nil {
		s := it.NextAttemptAt.Format(time.RFC3339)
		out.NextAttemptAt = &s
	}
	return out
}

type RunSyncInput struct {
	Refresh bool `json:"refresh,omitempty" jsonschema:"Also refresh the offline read cache after replay"`
}

type RunSyncOutput struct {
	Synced       int      `json:"synced"`
	Failed       int      `json:"failed"`
	Skipped      int      `json:"skipped"`
	Exhausted    int      `json:"exhausted"`
	Errors       []string `json:"errors,omitempty"`
	PendingCount int      `json:"pending_count"`
}

func (h *QueueHandlers) RunSync(ctx context.Context, request *mcp.CallToolRequest, input RunSyncInput) (*mcp.CallToolResult, RunSyncOutput, error) {
	res, err := h.app.Syncer.RunSync(ctx)
	if err != nil {
		return nil, RunSyncOutput{}, fmt.Errorf("sync failed: %w", err)
	}

	if input.Refresh {
		if err := h.app.Refresher.Refresh(ctx); err != nil {
			return nil, RunSyncOutput{}, fmt.Errorf("cache refresh failed: %w", err)
		}
	}

	return nil, RunSyncOutput{
		Synced:       res.Synced,
		Failed:       res.Failed,
		Skipped:      res.Skipped,
		Exhausted:    res.Exhausted,
		Errors:       res.Errors,
		PendingCount: h.app.Queue.GetPendingCount(),
	}, nil
}
