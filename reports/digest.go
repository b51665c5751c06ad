// ABOUTME: Plain-text daily digest for the team chat
// ABOUTME: Renders the day's leaderboard with bars, streaks, and the AMC count
package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/frontdesk/models"
)

// Digest is everything the daily post reports.
type Digest struct {
	Date        string             `json:"date"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	Streaks     []Streak           `json:"streaks"`
	AMC         int                `json:"amc"`
}

// DailyDigest gathers the digest for the day of date.
func (r *Reporter) DailyDigest(ctx context.Context, date time.Time) (*Digest, error) {
	day := date.Format(models.DateLayout)

	board, err := r.Leaderboard(ctx, day, day)
	if err != nil {
		return nil, err
	}
	streaks, err := r.Streaks(ctx, date)
	if err != nil {
		return nil, err
	}
	amc, err := r.source.AMCTotalForDate(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch AMC total: %w", err)
	}

	return &Digest{Date: day, Leaderboard: board, Streaks: streaks, AMC: amc}, nil
}

// RenderDigest formats a digest as chat text.
func RenderDigest(d *Digest) string {
	var out strings.Builder

	out.WriteString(fmt.Sprintf("FRONT DESK DAILY - %s\n\n", d.Date))

	totalSales := 0
	for _, e := range d.Leaderboard {
		totalSales += e.Sales
	}
	out.WriteString(fmt.Sprintf("Sales today: %d  |  New members (AMC): +%d\n\n", totalSales, d.AMC))

	if len(d.Leaderboard) == 0 {
		out.WriteString("No intros run today.\n")
	} else {
		out.WriteString("LEADERBOARD\n")
		renderBoard(&out, d.Leaderboard)
	}

	if len(d.Streaks) > 0 {
		out.WriteString("\nSTREAKS\n")
		for _, s := range d.Streaks {
			if s.Days < 2 {
				continue
			}
			out.WriteString(fmt.Sprintf("  🔥 %s - %d days\n", s.Name, s.Days))
		}
	}

	return out.String()
}

func renderBoard(out *strings.Builder, board []LeaderboardEntry) {
	maxSales := 0
	for _, e := range board {
		if e.Sales > maxSales {
			maxSales = e.Sales
		}
	}
	if maxSales == 0 {
		maxSales = 1
	}

	for i, e := range board {
		// 0-10 blocks
		barLength := (e.Sales * 10) / maxSales
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)

		out.WriteString(fmt.Sprintf("  %d. %-12s %s  %d sold  %d/%d run (%.0f%%)  $%.0f\n",
			i+1, e.Name, bar, e.Sales, e.IntroSales, e.IntrosRun, e.CloseRate*100, e.Commission))
	}
}
