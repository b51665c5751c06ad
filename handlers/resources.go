// ABOUTME: MCP resource handlers for exposing front desk state
// ABOUTME: Provides read-only access to the write queue, cache, follow-ups, bookings, and exports via URI
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/frontdesk/app"
	"github.com/harperreed/frontdesk/db"
	"github.com/harperreed/frontdesk/models"
	"github.com/harperreed/frontdesk/offline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ResourceScheme prefixes every resource URI.
const ResourceScheme = "frontdesk://"

type ResourceHandlers struct {
	app *app.App
	now func() time.Time
}

func NewResourceHandlers(a *app.App) *ResourceHandlers {
	return &ResourceHandlers{app: a, now: time.Now}
}

// Resources lists the fixed resources the server advertises.
func Resources() []*mcp.Resource {
	return []*mcp.Resource{
		{URI: ResourceScheme + "queue", Name: "queue", Description: "Offline write queue", MIMEType: "application/json"},
		{URI: ResourceScheme + "cache", Name: "cache", Description: "Offline cache freshness per dataset", MIMEType: "application/json"},
		{URI: ResourceScheme + "followups/due", Name: "followups-due", Description: "Pending follow-ups due today or earlier", MIMEType: "application/json"},
		{URI: ResourceScheme + "exports", Name: "exports", Description: "Export status per service", MIMEType: "application/json"},
	}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, ResourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", ResourceScheme)
	}

	path := strings.TrimPrefix(uri, ResourceScheme)
	parts := strings.Split(path, "/")

	switch parts[0] {
	case "queue":
		return jsonResource(uri, h.app.Queue.GetQueue())

	case "cache":
		return h.readCacheStatus(uri)

	case "followups":
		if len(parts) == 2 && parts[1] == "due" {
			return h.readDueFollowUps(ctx, uri)
		}
		return nil, fmt.Errorf("unknown follow-up resource: %s", path)

	case "bookings":
		if len(parts) != 2 || parts[1] == "" {
			return nil, fmt.Errorf("booking ID required")
		}
		return h.readBooking(ctx, uri, parts[1])

	case "exports":
		states, err := h.app.Store.ListExportStates(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch export states: %w", err)
		}
		return jsonResource(uri, states)

	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

type cacheStatusOutput struct {
	LastCacheTime *time.Time                 `json:"last_cache_time"`
	Datasets      map[offline.Dataset]string `json:"datasets"`
	PendingWrites int                        `json:"pending_writes"`
}

func (h *ResourceHandlers) readCacheStatus(uri string) (*mcp.ReadResourceResult, error) {
	status, err := h.app.Cache.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read cache status: %w", err)
	}
	last, err := h.app.Cache.LastCacheTime()
	if err != nil {
		return nil, fmt.Errorf("failed to read cache status: %w", err)
	}

	out := cacheStatusOutput{
		LastCacheTime: last,
		Datasets:      make(map[offline.Dataset]string, len(status)),
		PendingWrites: h.app.Queue.GetPendingCount(),
	}
	for ds, at := range status {
		out.Datasets[ds] = at.Format(time.RFC3339)
	}
	return jsonResource(uri, out)
}

type dueFollowUpsOutput struct {
	Source    string            `json:"source"`
	FollowUps []models.FollowUp `json:"follow_ups"`
}

// readDueFollowUps reads from the backend and falls back to the offline
// cache when the backend is unreachable.
func (h *ResourceHandlers) readDueFollowUps(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	today := h.now().Format(models.DateLayout)

	due, err := h.app.Store.ListDueFollowUps(ctx, today)
	if err == nil {
		return jsonResource(uri, dueFollowUpsOutput{Source: "live", FollowUps: due})
	}
	h.app.Logger.Warn("follow-up fetch failed, reading cache", "err", err)

	cached, cacheErr := offline.ReadCache[[]models.FollowUp](h.app.Cache, offline.DatasetFollowUps)
	if cacheErr != nil || cached == nil {
		return nil, fmt.Errorf("failed to fetch follow-ups: %w", err)
	}
	return jsonResource(uri, dueFollowUpsOutput{Source: "cache", FollowUps: FilterDue(cached.Data, today)})
}

// FilterDue keeps pending follow-ups scheduled on or before date.
func FilterDue(followUps []models.FollowUp, date string) []models.FollowUp {
	due := []models.FollowUp{}
	for _, f := range followUps {
		if f.Status == models.FollowUpPending && f.ScheduledDate <= date {
			due = append(due, f)
		}
	}
	return due
}

func (h *ResourceHandlers) readBooking(ctx context.Context, uri, id string) (*mcp.ReadResourceResult, error) {
	booking, err := h.app.Store.GetBooking(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("booking not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}

	followUps, err := h.app.Store.ListFollowUpsForBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch follow-ups: %w", err)
	}
	changes, err := h.app.Store.ListOutcomeChanges(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch outcome history: %w", err)
	}

	return jsonResource(uri, map[string]any{
		"booking":         booking,
		"follow_ups":      followUps,
		"outcome_changes": changes,
	})
}
