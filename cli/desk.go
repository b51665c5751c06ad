// ABOUTME: Front desk CLI commands for touches, follow-ups, rebooks, and the write queue
// ABOUTME: Writes go through the offline queue so they survive a dropped connection
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
	"github.com/harperreed/frontdesk/offline"
)

// TouchCommand logs a call, text, or DM.
func TouchCommand(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("touch", flag.ExitOnError)
	touchType := fs.String("type", "", "Touch type, e.g. call, text, dm (required)")
	bookingID := fs.String("booking", "", "Booking ID")
	leadID := fs.String("lead", "", "Lead ID")
	channel := fs.String("channel", "", "Channel used")
	notes := fs.String("notes", "", "Notes")
	by := fs.String("by", "", "Staff name (defaults to configured staff)")
	_ = fs.Parse(args)

	staff, err := a.Staff(*by)
	if err != nil {
		return err
	}

	result, err := a.Touches.LogTouch(ctx, staff, offline.TouchPayload{
		TouchType: *touchType,
		BookingID: *bookingID,
		LeadID:    *leadID,
		Channel:   *channel,
		Notes:     *notes,
	})
	if err != nil {
		return err
	}

	switch result {
	case offline.TouchLogged:
		_, _ = fmt.Fprintf(out, "✓ Logged %s\n", *touchType)
	case offline.TouchQueued:
		_, _ = fmt.Fprintf(out, "⏳ Offline: %s queued (%d pending)\n", *touchType, a.Queue.GetPendingCount())
	case offline.TouchThrottled:
		_, _ = fmt.Fprintln(out, "Already logged a moment ago, skipped")
	}
	return nil
}

// FollowUpDoneCommand queues closing a follow-up.
func FollowUpDoneCommand(a *app.App, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("followup-done", flag.ExitOnError)
	id := fs.String("id", "", "Follow-up ID (required)")
	status := fs.String("status", models.FollowUpCompleted, "completed, sent, or skipped")
	notes := fs.String("notes", "", "Notes")
	by := fs.String("by", "", "Staff name (defaults to configured staff)")
	_ = fs.Parse(args)

	staff, err := a.Staff(*by)
	if err != nil {
		return err
	}

	item, err := offline.NewFollowUpCompleteItem(staff, offline.FollowUpCompletePayload{
		FollowUpID: *id,
		Status:     *status,
		Notes:      *notes,
	})
	if err != nil {
		return err
	}
	return enqueue(a, out, item)
}

// RebookCommand queues a new intro booking.
func RebookCommand(a *app.App, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("rebook", flag.ExitOnError)
	name := fs.String("name", "", "Member name (required)")
	date := fs.String("date", "", "Class date YYYY-MM-DD (required)")
	introTime := fs.String("time", "", "Class time")
	coach := fs.String("coach", "", "Coach")
	source := fs.String("source", "", "Lead source")
	owner := fs.String("owner", "", "Intro owner")
	phone := fs.String("phone", "", "Phone")
	email := fs.String("email", "", "Email")
	fromBooking := fs.String("from-booking", "", "Booking this rebook came from")
	followUp := fs.String("followup", "", "Follow-up to close once booked")
	by := fs.String("by", "", "Staff name (defaults to configured staff)")
	_ = fs.Parse(args)

	staff, err := a.Staff(*by)
	if err != nil {
		return err
	}

	item, err := offline.NewRebookItem(staff, offline.RebookPayload{
		MemberName:           *name,
		ClassDate:            *date,
		IntroTime:            *introTime,
		Coach:                *coach,
		LeadSource:           *source,
		BookedBy:             staff,
		IntroOwner:           *owner,
		Phone:                *phone,
		Email:                *email,
		OriginatingBookingID: *fromBooking,
		FollowUpID:           *followUp,
	})
	if err != nil {
		return err
	}
	return enqueue(a, out, item)
}

func enqueue(a *app.App, out io.Writer, item offline.Item) error {
	if !a.Queue.Enqueue(item) {
		_, _ = fmt.Fprintf(out, "Already queued: %s\n", item.ID)
		return nil
	}
	_, _ = fmt.Fprintf(out, "✓ Queued %s %s (%d pending)\n", item.Type, item.ID, a.Queue.GetPendingCount())
	_, _ = fmt.Fprintln(out, "Run 'frontdesk desk sync' to push it now.")
	return nil
}

// QueueCommand lists the offline write queue.
func QueueCommand(a *app.App, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("queue", flag.ExitOnError)
	status := fs.String("status", "", "Only show items with this status (pending, syncing, failed)")
	_ = fs.Parse(args)

	items := a.Queue.GetQueue()
	if len(items) == 0 {
		_, _ = fmt.Fprintln(out, "Queue is empty.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tRETRIES\tQUEUED\tLAST ERROR")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t-------\t------\t----------")
	shown := 0
	for _, it := range items {
		if *status != "" && string(it.SyncStatus) != *status {
			continue
		}
		shown++
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			it.ID, it.Type, it.SyncStatus, it.RetryCount, formatTimeSince(it.CreatedAt), truncate(it.LastError, 40))
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\n%d shown, %d pending\n", shown, a.Queue.GetPendingCount())
	return nil
}

// FollowUpsCommand lists pending follow-ups due on or before a date, reading
// the offline cache when the backend is unreachable.
func FollowUpsCommand(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("followups", flag.ExitOnError)
	date := fs.String("date", time.Now().Format(models.DateLayout), "Due on or before YYYY-MM-DD")
	_ = fs.Parse(args)

	due, err := a.Store.ListDueFollowUps(ctx, *date)
	if err != nil {
		cached, cacheErr := offline.ReadCache[[]models.FollowUp](a.Cache, offline.DatasetFollowUps)
		if cacheErr != nil || cached == nil {
			return fmt.Errorf("failed to list follow-ups: %w", err)
		}
		_, _ = fmt.Fprintf(out, "⚠ Offline: showing follow-ups cached %s\n\n", formatTimeSince(cached.CachedAt))
		due = handlers.FilterDue(cached.Data, *date)
	}

	if len(due) == 0 {
		_, _ = fmt.Fprintln(out, "No follow-ups due.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tMEMBER\tTYPE\tTOUCH\tDUE\tOBJECTION")
	_, _ = fmt.Fprintln(w, "--\t------\t----\t-----\t---\t---------")
	for _, f := range due {
		indicator := "🟡"
		if f.ScheduledDate < *date {
			indicator = "🔴"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s %s\t%s\t%d\t%s\t%s\n",
			f.ID, indicator, f.PersonName, f.PersonType, f.TouchNumber, f.ScheduledDate, f.PrimaryObjection)
	}
	_ = w.Flush()
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// formatTimeSince renders how long ago t was.
func formatTimeSince(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour") + " ago"
	default:
		return plural(int(d.Hours()/24), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
