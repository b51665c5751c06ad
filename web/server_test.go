package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/frontdesk/app"
	"github.com/harperreed/frontdesk/config"
	"github.com/harperreed/frontdesk/db"
	"github.com/harperreed/frontdesk/localstore"
	"github.com/harperreed/frontdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T) (*Server, *app.App, *httptest.Server) {
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

	s := NewServer(a)
	s.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, a, srv
}

func doJSON(t *testing.T, method, url, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func seedBooking(t *testing.T, a *app.App, name, date string) *models.Booking {
	t.Helper()
	b := &models.Booking{MemberName: name, ClassDate: date, IntroOwner: "Alex", LeadSource: "Instagram"}
	require.NoError(t, a.Store.CreateBooking(context.Background(), b))
	return b
}

func TestHealthz(t *testing.T) {
	_, _, srv := setupServer(t)
	code, out := doJSON(t, http.MethodGet, srv.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", out["status"])
}

func TestLogTouchEndpoint(t *testing.T) {
	_, a, srv := setupServer(t)

	code, out := doJSON(t, http.MethodPost, srv.URL+"/api/touches", `{"touch_type":"text","booking_id":"b-1","channel":"sms"}`)
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "logged", out["outcome"])

	touches, err := a.Store.ListTouches(context.Background())
	require.NoError(t, err)
	require.Len(t, touches, 1)
	assert.Equal(t, "Alex", touches[0].CreatedBy)

	code, out = doJSON(t, http.MethodPost, srv.URL+"/api/touches", `{"booking_id":"b-1"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, out["error"].(map[string]any)["message"], "touch type")

	code, _ = doJSON(t, http.MethodPost, srv.URL+"/api/touches", `{not json`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestQueueAndSyncEndpoints(t *testing.T) {
	_, a, srv := setupServer(t)

	code, out := doJSON(t, http.MethodPost, srv.URL+"/api/rebooks", `{"member_name":"Jane Doe","class_date":"2026-03-20"}`)
	assert.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, true, out["queued"])
	assert.Equal(t, 1.0, out["pending_count"])

	code, out = doJSON(t, http.MethodGet, srv.URL+"/api/queue", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, out["items"], 1)

	code, out = doJSON(t, http.MethodPost, srv.URL+"/api/queue/sync", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.0, out["result"].(map[string]any)["synced"])
	assert.Equal(t, 0.0, out["pending_count"])

	bookings, err := a.Store.ListBookings(context.Background())
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "Alex", bookings[0].BookedBy)
}

func TestFollowUpCompleteEndpointValidates(t *testing.T) {
	_, _, srv := setupServer(t)
	code, _ := doJSON(t, http.MethodPost, srv.URL+"/api/followups/f-1/complete", `{"status":"exploded"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, out := doJSON(t, http.MethodPost, srv.URL+"/api/followups/f-1/complete", `{}`)
	assert.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, "followup_complete", out["type"])
}

func TestUpdateOutcomeEndpoint(t *testing.T) {
	_, a, srv := setupServer(t)
	ctx := context.Background()
	booking := seedBooking(t, a, "Jane Doe", "2026-03-14")
	run := &models.Run{LinkedBookingID: booking.ID, MemberName: "Jane Doe", RunDate: "2026-03-14", Result: models.ResultNoShow}
	require.NoError(t, a.Store.CreateRun(ctx, run))

	code, out := doJSON(t, http.MethodPost, srv.URL+"/api/outcomes",
		`{"booking_id":"`+booking.ID+`","new_result":"Didn't Buy","objection":"Pricing"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["success"])

	changes, err := a.Store.ListOutcomeChanges(ctx, booking.ID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "web", changes[0].SourceComponent)

	// Stale version
	code, out = doJSON(t, http.MethodPost, srv.URL+"/api/outcomes",
		`{"booking_id":"`+booking.ID+`","new_result":"Premier","expected_version":1}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, false, out["success"])

	code, _ = doJSON(t, http.MethodPost, srv.URL+"/api/outcomes", `{"booking_id":"missing","new_result":"Premier"}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = doJSON(t, http.MethodPost, srv.URL+"/api/outcomes", `{"booking_id":"`+booking.ID+`"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestDuplicateEndpoints(t *testing.T) {
	_, a, srv := setupServer(t)
	ctx := context.Background()
	seedBooking(t, a, "Jane Doe", "2026-03-01")

	code, out := doJSON(t, http.MethodGet, srv.URL+"/api/duplicates?name=Jane%20Doe", "")
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, out["matches"], 1)

	code, _ = doJSON(t, http.MethodGet, srv.URL+"/api/duplicates", "")
	assert.Equal(t, http.StatusBadRequest, code)

	lead := &models.Lead{FirstName: "Jane", LastName: "Doe", Stage: models.StageNew}
	require.NoError(t, a.Store.CreateLead(ctx, lead))

	code, out = doJSON(t, http.MethodPost, srv.URL+"/api/leads/"+lead.ID+"/duplicate-check", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["is_duplicate"])

	code, _ = doJSON(t, http.MethodPost, srv.URL+"/api/leads/missing/duplicate-check", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCacheStatusAndDueFollowUps(t *testing.T) {
	_, a, srv := setupServer(t)
	ctx := context.Background()

	code, out := doJSON(t, http.MethodGet, srv.URL+"/api/cache/status", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Nil(t, out["last_cache_time"])

	require.NoError(t, a.Refresher.Refresh(ctx))
	code, out = doJSON(t, http.MethodGet, srv.URL+"/api/cache/status", "")
	assert.Equal(t, http.StatusOK, code)
	assert.NotNil(t, out["last_cache_time"])
	assert.Len(t, out["datasets"], 6)

	booking := seedBooking(t, a, "Jane Doe", "2026-03-10")
	require.NoError(t, a.Store.CreateFollowUps(ctx, []models.FollowUp{
		{BookingID: booking.ID, PersonName: "Jane Doe", PersonType: models.PersonTypeNoShow, TouchNumber: 1, ScheduledDate: "2026-03-11"},
	}))
	code, out = doJSON(t, http.MethodGet, srv.URL+"/api/followups/due", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "live", out["source"])
	assert.Len(t, out["follow_ups"], 1)
}

func TestLeaderboardEndpoint(t *testing.T) {
	_, a, srv := setupServer(t)
	booking := seedBooking(t, a, "Jane Doe", "2026-03-14")
	require.NoError(t, a.Store.CreateRun(context.Background(), &models.Run{
		LinkedBookingID: booking.ID, MemberName: "Jane Doe", RunDate: "2026-03-14",
		Result: "Premier", IntroOwner: "Alex", BuyDate: "2026-03-14",
	}))

	code, out := doJSON(t, http.MethodGet, srv.URL+"/api/leaderboard", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "2026-03-01", out["from"])
	require.Len(t, out["entries"], 1)
	assert.Equal(t, "Alex", out["entries"].([]any)[0].(map[string]any)["name"])

	code, _ = doJSON(t, http.MethodGet, srv.URL+"/api/leaderboard?from=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, code)
}
