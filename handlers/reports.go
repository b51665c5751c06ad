// ABOUTME: Reporting MCP tool handlers
// ABOUTME: Implements leaderboard and daily_digest tools
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/frontdesk/app"
	"github.com/harperreed/frontdesk/models"
	"github.com/harperreed/frontdesk/reports"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ReportHandlers struct {
	app *app.App
	now func() time.Time
}

func NewReportHandlers(a *app.App) *ReportHandlers {
	return &ReportHandlers{app: a, now: time.Now}
}

type LeaderboardInput struct {
	From string `json:"from,omitempty" jsonschema:"First day YYYY-MM-DD (default first of this month)"`
	To   string `json:"to,omitempty" jsonschema:"Last day YYYY-MM-DD (default today)"`
}

type LeaderboardOutput struct {
	From    string                     `json:"from"`
	To      string                     `json:"to"`
	Entries []reports.LeaderboardEntry `json:"entries"`
	Streaks []reports.Streak           `json:"streaks"`
}

// MonthToDate returns the default leaderboard range for now.
func MonthToDate(now time.Time) (string, string) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return first.Format(models.DateLayout), now.Format(models.DateLayout)
}

func (h *ReportHandlers) Leaderboard(ctx context.Context, request *mcp.CallToolRequest, input LeaderboardInput) (*mcp.CallToolResult, LeaderboardOutput, error) {
	now := h.now()
	from, to := MonthToDate(now)
	if input.From != "" {
		from = input.From
	}
	if input.To != "" {
		to = input.To
	}
	for _, d := range []string{from, to} {
		if _, err := time.Parse(models.DateLayout, d); err != nil {
			return nil, LeaderboardOutput{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", d)
		}
	}

	entries, err := h.app.Reports.Leaderboard(ctx, from, to)
	if err != nil {
		return nil, LeaderboardOutput{}, err
	}
	streaks, err := h.app.Reports.Streaks(ctx, now)
	if err != nil {
		return nil, LeaderboardOutput{}, err
	}

	if entries == nil {
		entries = []reports.LeaderboardEntry{}
	}
	if streaks == nil {
		streaks = []reports.Streak{}
	}
	return nil, LeaderboardOutput{From: from, To: to, Entries: entries, Streaks: streaks}, nil
}

type DailyDigestInput struct {
	Date string `json:"date,omitempty" jsonschema:"Day YYYY-MM-DD (default today)"`
	Post bool   `json:"post,omitempty" jsonschema:"Also post the digest to the team GroupMe"`
}

type DailyDigestOutput struct {
	Text   string `json:"text"`
	Posted bool   `json:"posted"`
}

func (h *ReportHandlers) DailyDigest(ctx context.Context, request *mcp.CallToolRequest, input DailyDigestInput) (*mcp.CallToolResult, DailyDigestOutput, error) {
	date := h.now()
	if input.Date != "" {
		d, err := time.ParseInLocation(models.DateLayout, input.Date, date.Location())
		if err != nil {
			return nil, DailyDigestOutput{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", input.Date)
		}
		date = d
	}

	digest, err := h.app.Reports.DailyDigest(ctx, date)
	if err != nil {
		return nil, DailyDigestOutput{}, err
	}
	text := reports.RenderDigest(digest)

	if !input.Post {
		return nil, DailyDigestOutput{Text: text}, nil
	}
	if err := h.app.GroupMe.Post(ctx, text); err != nil {
		return nil, DailyDigestOutput{}, fmt.Errorf("failed to post digest: %w", err)
	}
	return nil, DailyDigestOutput{Text: text, Posted: true}, nil
}
