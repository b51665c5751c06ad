// ABOUTME: Tests for queue sync CLI commands
// ABOUTME: Covers interval parsing, the daemon loop, and sync output
package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/harperreed/frontdesk/offline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInterval(t *testing.T) {
	tests := []struct {
		name     string
		interval string
		want     time.Duration
		wantErr  bool
	}{
		{name: "valid 1 hour", interval: "1h", want: time.Hour},
		{name: "valid 30 seconds (minimum)", interval: "30s", want: 30 * time.Second},
		{name: "valid 5 minutes", interval: "5m", want: 5 * time.Minute},
		{name: "below minimum", interval: "10s", wantErr: true},
		{name: "invalid format", interval: "invalid", wantErr: true},
		{name: "empty string", interval: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseInterval(tt.interval)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatTimeSince(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		time     time.Time
		expected string
	}{
		{name: "just now (30 seconds)", time: now.Add(-30 * time.Second), expected: "just now"},
		{name: "1 minute ago", time: now.Add(-1 * time.Minute), expected: "1 minute ago"},
		{name: "5 minutes ago", time: now.Add(-5 * time.Minute), expected: "5 minutes ago"},
		{name: "1 hour ago", time: now.Add(-1 * time.Hour), expected: "1 hour ago"},
		{name: "3 hours ago", time: now.Add(-3 * time.Hour), expected: "3 hours ago"},
		{name: "1 day ago", time: now.Add(-24 * time.Hour), expected: "1 day ago"},
		{name: "5 days ago", time: now.Add(-5 * 24 * time.Hour), expected: "5 days ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatTimeSince(tt.time))
		})
	}
}

func TestRunDaemonStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	done := make(chan error, 1)
	go func() {
		done <- runDaemon(ctx, 10*time.Millisecond, func(context.Context) error {
			calls++
			if calls == 3 {
				cancel()
			}
			return nil
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop after cancel")
	}
}

func TestSyncCommandReplaysQueue(t *testing.T) {
	a := setupTestApp(t)
	item, err := offline.NewRebookItem("Alex", offline.RebookPayload{MemberName: "Jane Doe", ClassDate: "2026-03-20"})
	require.NoError(t, err)
	a.Queue.Enqueue(item)

	var out bytes.Buffer
	require.NoError(t, SyncCommand(context.Background(), a, &out, []string{"--refresh"}))
	assert.Contains(t, out.String(), "Synced 1, failed 0")
	assert.Contains(t, out.String(), "(0 pending)")
	assert.Contains(t, out.String(), "Offline cache refreshed")

	out.Reset()
	require.NoError(t, CacheCommand(context.Background(), a, &out, nil))
	assert.Contains(t, out.String(), "intros_booked")
	assert.NotContains(t, out.String(), "never cached")
}

func TestExportSheetsNeedsConfig(t *testing.T) {
	a := setupTestApp(t)
	var out bytes.Buffer
	err := ExportSheetsCommand(context.Background(), a, &out, nil)
	assert.ErrorContains(t, err, "sheet id")
}
