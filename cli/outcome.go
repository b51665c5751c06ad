// ABOUTME: Outcome and duplicate-check CLI commands
// ABOUTME: Changes an intro's result and searches for existing bookings before a new one
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/frontdesk/app"
	"github.com/harperreed/frontdesk/dedup"
	"github.com/harperreed/frontdesk/outcome"
)

// OutcomeCommand applies an outcome update.
func OutcomeCommand(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("outcome", flag.ExitOnError)
	bookingID := fs.String("booking", "", "Booking ID (required)")
	result := fs.String("result", "", "New result: membership label, \"Didn't Buy\", \"No-show\", or \"Not interested\" (required)")
	prev := fs.String("prev", "", "Previous result (defaults to the run's)")
	membership := fs.String("membership", "", "Membership type sold")
	commission := fs.Float64("commission", 0, "Commission amount")
	source := fs.String("source", "", "Lead source")
	objection := fs.String("objection", "", "Primary objection for a didn't-buy")
	reason := fs.String("reason", "", "Edit reason")
	runID := fs.String("run", "", "Run ID (defaults to the latest run)")
	version := fs.Int("version", 0, "Expected run version")
	by := fs.String("by", "", "Staff name (defaults to configured staff)")
	_ = fs.Parse(args)

	staff, err := a.Staff(*by)
	if err != nil {
		return err
	}

	p := outcome.Params{
		BookingID:       *bookingID,
		NewResult:       *result,
		PreviousResult:  *prev,
		MembershipType:  *membership,
		LeadSource:      *source,
		Objection:       *objection,
		EditedBy:        staff,
		SourceComponent: "cli",
		EditReason:      *reason,
		RunID:           *runID,
		ExpectedVersion: *version,
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "commission" {
			p.CommissionAmount = commission
		}
	})

	res := a.ApplyOutcome(ctx, p)
	if !res.Success {
		return errors.New(res.Error)
	}

	_, _ = fmt.Fprintf(out, "✓ Result set to %s (run %s)\n", *result, res.RunID)
	if res.AMCIncremented {
		_, _ = fmt.Fprintln(out, "🎉 New member counted toward AMC")
	}
	return nil
}

// DupesCommand lists bookings similar to a name and runs the full duplicate
// check when phone, email, or a lead is given.
func DupesCommand(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("dupes", flag.ExitOnError)
	phone := fs.String("phone", "", "Phone to check")
	email := fs.String("email", "", "Email to check")
	leadID := fs.String("lead", "", "Lead ID to check and update")
	_ = fs.Parse(args)
	name := strings.Join(fs.Args(), " ")

	if *leadID != "" {
		res, err := a.Detector.CheckLead(ctx, *leadID)
		if err != nil {
			return err
		}
		printVerdict(out, res)
		return nil
	}

	if name == "" && *phone == "" && *email == "" {
		return fmt.Errorf("usage: frontdesk desk dupes [--phone P] [--email E] [--lead ID] <name>")
	}

	if name != "" {
		matches, err := a.Finder.Find(ctx, name)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			_, _ = fmt.Fprintf(out, "No similar bookings for %q\n", name)
		} else {
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "MEMBER\tCLASS DATE\tMATCH\tSCORE\tWARNING")
			_, _ = fmt.Fprintln(w, "------\t----------\t-----\t-----\t-------")
			for _, m := range matches {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.0f%%\t%s\n",
					m.Booking.MemberName, m.Booking.ClassDate, m.Kind, m.Similarity*100, m.Warning)
			}
			_ = w.Flush()
		}
	}

	if *phone == "" && *email == "" {
		return nil
	}
	res, err := a.Detector.DetectDuplicate(ctx, dedup.Candidate{Name: name, Phone: *phone, Email: *email})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out)
	printVerdict(out, res)
	return nil
}

func printVerdict(out io.Writer, res dedup.DuplicateResult) {
	if !res.IsDuplicate {
		_, _ = fmt.Fprintln(out, "✓ No duplicate found")
		return
	}
	icon := "🟡"
	if res.Confidence == dedup.ConfidenceHigh {
		icon = "🔴"
	}
	_, _ = fmt.Fprintf(out, "%s %s confidence (%s)\n", icon, res.Confidence, res.MatchType)
	if res.SummaryNote != "" {
		_, _ = fmt.Fprintf(out, "  %s\n", res.SummaryNote)
	}
}
