// ABOUTME: Reporting CLI commands
// ABOUTME: Prints the sales leaderboard and the daily digest, optionally posting it to GroupMe
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/harperreed/frontdesk/app"
	"github.com/harperreed/frontdesk/handlers"
	"github.com/harperreed/frontdesk/models"
	"github.com/harperreed/frontdesk/reports"
)

// LeaderboardCommand prints sales per SA.
func LeaderboardCommand(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	now := time.Now()
	defFrom, defTo := handlers.MonthToDate(now)

	fs := flag.NewFlagSet("leaderboard", flag.ExitOnError)
	from := fs.String("from", defFrom, "First day YYYY-MM-DD")
	to := fs.String("to", defTo, "Last day YYYY-MM-DD")
	_ = fs.Parse(args)

	entries, err := a.Reports.Leaderboard(ctx, *from, *to)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "LEADERBOARD %s → %s\n", *from, *to)
	_, _ = fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(out, "No intros or sales in range.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tSA\tRUN\tSALES\tCLOSE\tCOMMISSION")
	for i, e := range entries {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%.0f%%\t$%.2f\n",
			i+1, e.Name, e.IntrosRun, e.Sales, e.CloseRate*100, e.Commission)
	}
	_ = w.Flush()

	streaks, err := a.Reports.Streaks(ctx, now)
	if err != nil {
		return err
	}
	for _, s := range streaks {
		if s.Days >= 2 {
			_, _ = fmt.Fprintf(out, "🔥 %s: %d day streak\n", s.Name, s.Days)
		}
	}
	return nil
}

// DigestCommand prints the daily digest and posts it with --post.
func DigestCommand(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("digest", flag.ExitOnError)
	date := fs.String("date", time.Now().Format(models.DateLayout), "Day YYYY-MM-DD")
	post := fs.Bool("post", false, "Post to the team GroupMe")
	_ = fs.Parse(args)

	day, err := time.ParseInLocation(models.DateLayout, *date, time.Local)
	if err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", *date)
	}

	digest, err := a.Reports.DailyDigest(ctx, day)
	if err != nil {
		return err
	}
	text := reports.RenderDigest(digest)
	_, _ = fmt.Fprint(out, text)

	if !*post {
		return nil
	}
	if err := a.GroupMe.Post(ctx, text); err != nil {
		return fmt.Errorf("failed to post digest: %w", err)
	}
	_, _ = fmt.Fprintln(out, "\n✓ Posted to GroupMe")
	return nil
}
