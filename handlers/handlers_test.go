package handlers

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/frontdesk/app"
	"github.com/harperreed/frontdesk/config"
	"github.com/harperreed/frontdesk/db"
	"github.com/harperreed/frontdesk/localstore"
	"github.com/harperreed/frontdesk/models"
	"github.com/harperreed/frontdesk/offline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) *app.App {
	t.Helper()
	store, err := db.OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	backend, err := localstore.OpenInMemory()
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Staff = "Alex"
	a, err := app.New(cfg, log.New(io.Discard), store, backend)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func seedBooking(t *testing.T, a *app.App, name string) *models.Booking {
	t.Helper()
	b := &models.Booking{MemberName: name, ClassDate: "2026-03-01", IntroOwner: "Alex", LeadSource: "Instagram"}
	require.NoError(t, a.Store.CreateBooking(context.Background(), b))
	return b
}

func TestLogTouchHandler(t *testing.T) {
	a := setupTestApp(t)
	h := NewQueueHandlers(a)

	_, out, err := h.LogTouch(context.Background(), nil, LogTouchInput{TouchType: "call", BookingID: "b-1"})
	require.NoError(t, err)
	assert.Equal(t, string(offline.TouchLogged), out.Outcome)
	assert.Equal(t, 0, out.PendingCount)

	_, _, err = h.LogTouch(context.Background(), nil, LogTouchInput{BookingID: "b-1"})
	assert.ErrorIs(t, err, offline.ErrInvalidItem)
}

func TestLogTouchRequiresStaff(t *testing.T) {
	a := setupTestApp(t)
	a.Config.Staff = ""
	h := NewQueueHandlers(a)

	_, _, err := h.LogTouch(context.Background(), nil, LogTouchInput{TouchType: "call", BookingID: "b-1"})
	assert.Error(t, err)
}

func TestQueuedFollowUpSyncs(t *testing.T) {
	a := setupTestApp(t)
	ctx := context.Background()
	h := NewQueueHandlers(a)

	booking := seedBooking(t, a, "Jane Doe")
	rows := []models.FollowUp{{BookingID: booking.ID, PersonName: "Jane Doe", PersonType: models.PersonTypeNoShow, TouchNumber: 1, ScheduledDate: "2026-03-02"}}
	require.NoError(t, a.Store.CreateFollowUps(ctx, rows))

	_, queued, err := h.QueueFollowUpComplete(ctx, nil, QueueFollowUpCompleteInput{FollowUpID: rows[0].ID, Notes: "left voicemail"})
	require.NoError(t, err)
	assert.True(t, queued.Queued)
	assert.Equal(t, string(offline.ItemFollowUpComplete), queued.Type)
	assert.Equal(t, 1, queued.PendingCount)

	_, list, err := h.ListQueue(ctx, nil, ListQueueInput{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Alex", list.Items[0].CreatedBy)

	_, list, err = h.ListQueue(ctx, nil, ListQueueInput{Status: string(offline.StatusFailed)})
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	_, res, err := h.RunSync(ctx, nil, RunSyncInput{Refresh: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Synced)
	assert.Equal(t, 0, res.PendingCount)

	got, err := a.Store.GetFollowUp(ctx, rows[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.FollowUpCompleted, got.Status)
	assert.Equal(t, "left voicemail", got.Notes)

	last, err := a.Cache.LastCacheTime()
	require.NoError(t, err)
	assert.NotNil(t, last)
}

func TestQueueRebookValidates(t *testing.T) {
	a := setupTestApp(t)
	h := NewQueueHandlers(a)

	_, _, err := h.QueueRebook(context.Background(), nil, QueueRebookInput{MemberName: "Jane Doe", ClassDate: "next tuesday"})
	assert.ErrorIs(t, err, offline.ErrInvalidItem)
	assert.Equal(t, 0, a.Queue.GetPendingCount())

	_, out, err := h.QueueRebook(context.Background(), nil, QueueRebookInput{MemberName: "Jane Doe", ClassDate: "2026-03-10"})
	require.NoError(t, err)
	assert.Equal(t, string(offline.ItemRebookDraft), out.Type)
	assert.Equal(t, 1, out.PendingCount)
}

func TestUpdateOutcomeHandler(t *testing.T) {
	a := setupTestApp(t)
	ctx := context.Background()
	h := NewOutcomeHandlers(a)

	booking := seedBooking(t, a, "Jane Doe")
	run := &models.Run{LinkedBookingID: booking.ID, MemberName: "Jane Doe", RunDate: "2026-03-01", Result: models.ResultDidntBuy}
	require.NoError(t, a.Store.CreateRun(ctx, run))

	_, out, err := h.UpdateOutcome(ctx, nil, UpdateOutcomeInput{BookingID: booking.ID, NewResult: "Premier", MembershipType: "Premier"})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.True(t, out.NewSale)
	assert.True(t, out.AMCIncremented)
	assert.Equal(t, run.ID, out.RunID)

	changes, err := a.Store.ListOutcomeChanges(ctx, booking.ID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "mcp", changes[0].SourceComponent)
	assert.Equal(t, "Alex", changes[0].ChangedBy)

	_, _, err = h.UpdateOutcome(ctx, nil, UpdateOutcomeInput{BookingID: "missing", NewResult: "Premier"})
	assert.Error(t, err)
}

func TestDuplicateHandlers(t *testing.T) {
	a := setupTestApp(t)
	ctx := context.Background()
	h := NewDuplicateHandlers(a)
	seedBooking(t, a, "Jane Doe")

	_, out, err := h.FindDuplicates(ctx, nil, FindDuplicatesInput{Name: "jane doe"})
	require.NoError(t, err)
	require.Len(t, out.Matches, 1)
	assert.Equal(t, "exact", out.Matches[0].MatchType)
	assert.Equal(t, 1.0, out.Matches[0].Similarity)

	_, _, err = h.FindDuplicates(ctx, nil, FindDuplicatesInput{})
	assert.Error(t, err)

	_, _, err = h.DetectDuplicate(ctx, nil, DetectDuplicateInput{})
	assert.Error(t, err)

	_, res, err := h.DetectDuplicate(ctx, nil, DetectDuplicateInput{Name: "Nobody Here"})
	require.NoError(t, err)
	assert.False(t, res.IsDuplicate)
}

func TestLeaderboardHandler(t *testing.T) {
	a := setupTestApp(t)
	ctx := context.Background()
	h := NewReportHandlers(a)
	h.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }

	booking := seedBooking(t, a, "Jane Doe")
	require.NoError(t, a.Store.CreateRun(ctx, &models.Run{
		LinkedBookingID: booking.ID, MemberName: "Jane Doe", RunDate: "2026-03-14",
		Result: "Premier", IntroOwner: "Alex", BuyDate: "2026-03-14", CommissionAmount: 15,
	}))

	_, out, err := h.Leaderboard(ctx, nil, LeaderboardInput{})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", out.From)
	assert.Equal(t, "2026-03-15", out.To)
	require.Len(t, out.Entries, 1)
	assert.Equal(t, "Alex", out.Entries[0].Name)
	assert.Equal(t, 1, out.Entries[0].Sales)

	_, _, err = h.Leaderboard(ctx, nil, LeaderboardInput{From: "03/01/2026"})
	assert.Error(t, err)

	_, digest, err := h.DailyDigest(ctx, nil, DailyDigestInput{Date: "2026-03-14"})
	require.NoError(t, err)
	assert.Contains(t, digest.Text, "2026-03-14")
	assert.False(t, digest.Posted)
}

func readResource(t *testing.T, h *ResourceHandlers, uri string) map[string]any {
	t.Helper()
	res, err := h.ReadResource(context.Background(), &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &out))
	return out
}

func TestReadResources(t *testing.T) {
	a := setupTestApp(t)
	ctx := context.Background()
	h := NewResourceHandlers(a)
	h.now = func() time.Time { return time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC) }

	booking := seedBooking(t, a, "Jane Doe")
	require.NoError(t, a.Store.CreateFollowUps(ctx, []models.FollowUp{
		{BookingID: booking.ID, PersonName: "Jane Doe", PersonType: models.PersonTypeNoShow, TouchNumber: 1, ScheduledDate: "2026-03-02"},
		{BookingID: booking.ID, PersonName: "Jane Doe", PersonType: models.PersonTypeNoShow, TouchNumber: 2, ScheduledDate: "2026-03-08"},
	}))

	due := readResource(t, h, "frontdesk://followups/due")
	assert.Equal(t, "live", due["source"])
	assert.Len(t, due["follow_ups"], 1)

	detail := readResource(t, h, "frontdesk://bookings/"+booking.ID)
	assert.Len(t, detail["follow_ups"], 2)

	cache := readResource(t, h, "frontdesk://cache")
	assert.Nil(t, cache["last_cache_time"])
	assert.Equal(t, 0.0, cache["pending_writes"])

	_, err := h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "crm://contacts"}})
	assert.Error(t, err)
	_, err = h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "frontdesk://bookings/missing"}})
	assert.Error(t, err)
}

func TestFilterDue(t *testing.T) {
	rows := []models.FollowUp{
		{ID: "a", Status: models.FollowUpPending, ScheduledDate: "2026-03-01"},
		{ID: "b", Status: models.FollowUpCompleted, ScheduledDate: "2026-03-01"},
		{ID: "c", Status: models.FollowUpPending, ScheduledDate: "2026-03-09"},
	}
	due := FilterDue(rows, "2026-03-05")
	require.Len(t, due, 1)
	assert.Equal(t, "a", due[0].ID)
}

func TestFollowUpMessagePrompt(t *testing.T) {
	a := setupTestApp(t)
	ctx := context.Background()
	h := NewPromptHandlers(a)

	booking := seedBooking(t, a, "Jane Doe")
	rows := []models.FollowUp{{BookingID: booking.ID, PersonName: "Jane Doe", PersonType: models.PersonTypeDidntBuy, TouchNumber: 2, ScheduledDate: "2026-03-04", PrimaryObjection: "Pricing"}}
	require.NoError(t, a.Store.CreateFollowUps(ctx, rows))

	res, err := h.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{
		Name:      "follow-up-message",
		Arguments: map[string]string{"follow_up_id": rows[0].ID},
	}})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	text := res.Messages[0].Content.(*mcp.TextContent).Text
	assert.Contains(t, text, "Jane Doe")
	assert.Contains(t, text, "Pricing")
	assert.Contains(t, text, "not the first message")

	_, err = h.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: "nope"}})
	assert.Error(t, err)
}

func TestNewServerRegisters(t *testing.T) {
	a := setupTestApp(t)
	assert.NotNil(t, NewServer(a, "test"))
}
