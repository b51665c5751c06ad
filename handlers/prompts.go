// ABOUTME: MCP prompt handlers for reusable front desk workflow templates
// ABOUTME: Provides prompts for follow-up messages, shift recaps, and objection coaching
package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/frontdesk/app"
	"github.com/harperreed/frontdesk/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	app *app.App
	now func() time.Time
}

func NewPromptHandlers(a *app.App) *PromptHandlers {
	return &PromptHandlers{app: a, now: time.Now}
}

// Prompts lists the prompt templates the server advertises.
func Prompts() []*mcp.Prompt {
	return []*mcp.Prompt{
		{
			Name:        "follow-up-message",
			Description: "Draft the next nurture text for a follow-up queue row",
			Arguments: []*mcp.PromptArgument{
				{Name: "follow_up_id", Description: "Follow-up queue row", Required: true},
			},
		},
		{
			Name:        "shift-recap",
			Description: "Summarize an SA's touches for the day",
			Arguments: []*mcp.PromptArgument{
				{Name: "staff_name", Description: "Staff member", Required: true},
				{Name: "date", Description: "Shift date YYYY-MM-DD (default today)"},
			},
		},
		{
			Name:        "objection-coaching",
			Description: "Coaching notes from recent didn't-buy objections",
			Arguments: []*mcp.PromptArgument{
				{Name: "days", Description: "Lookback in days (default 30)"},
			},
		},
	}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	arguments := request.Params.Arguments
	switch name {
	case "follow-up-message":
		return h.getFollowUpMessagePrompt(ctx, arguments)
	case "shift-recap":
		return h.getShiftRecapPrompt(ctx, arguments)
	case "objection-coaching":
		return h.getObjectionCoachingPrompt(ctx, arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", name)
	}
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}

func (h *PromptHandlers) getFollowUpMessagePrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	id, ok := args["follow_up_id"]
	if !ok || id == "" {
		return nil, fmt.Errorf("follow_up_id is required")
	}

	fu, err := h.app.Store.GetFollowUp(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch follow-up: %w", err)
	}

	var promptText strings.Builder
	promptText.WriteString("Write a short, friendly text message from a fitness studio front desk.\n\n")
	promptText.WriteString(fmt.Sprintf("Member: %s\n", fu.PersonName))
	promptText.WriteString(fmt.Sprintf("Touch: %d\n", fu.TouchNumber))
	switch fu.PersonType {
	case models.PersonTypeNoShow:
		promptText.WriteString("Situation: booked an intro class but did not show up\n")
	case models.PersonTypeDidntBuy:
		promptText.WriteString("Situation: took an intro class but did not buy a membership\n")
	}
	if fu.PrimaryObjection != "" {
		promptText.WriteString(fmt.Sprintf("Objection: %s\n", fu.PrimaryObjection))
	}

	if booking, err := h.app.Store.GetBooking(ctx, fu.BookingID); err == nil {
		promptText.WriteString(fmt.Sprintf("Intro class: %s", booking.ClassDate))
		if booking.Coach != "" {
			promptText.WriteString(fmt.Sprintf(" with coach %s", booking.Coach))
		}
		promptText.WriteString("\n")
	}

	promptText.WriteString("\nKeep it under 300 characters, invite them to book a class, and don't be pushy.")
	if fu.TouchNumber > 1 {
		promptText.WriteString(" This is not the first message, so don't reintroduce the studio.")
	}

	return userPrompt(fmt.Sprintf("Follow-up message for %s", fu.PersonName), promptText.String()), nil
}

func (h *PromptHandlers) getShiftRecapPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	staff := args["staff_name"]
	if staff == "" {
		return nil, fmt.Errorf("staff_name is required")
	}
	date := args["date"]
	if date == "" {
		date = h.now().Format(models.DateLayout)
	}

	touches, err := h.app.Store.ListTouches(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch touches: %w", err)
	}

	counts := make(map[string]int)
	total := 0
	var notes []string
	for _, t := range touches {
		if !strings.EqualFold(t.CreatedBy, staff) || t.CreatedAt.Local().Format(models.DateLayout) != date {
			continue
		}
		counts[t.TouchType]++
		total++
		if t.Notes != "" {
			notes = append(notes, t.Notes)
		}
	}

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Write an end-of-shift recap for %s on %s.\n\n", staff, date))
	promptText.WriteString(fmt.Sprintf("Total touches: %d\n", total))
	types := make([]string, 0, len(counts))
	for k := range counts {
		types = append(types, k)
	}
	sort.Strings(types)
	for _, k := range types {
		promptText.WriteString(fmt.Sprintf("  - %s: %d\n", k, counts[k]))
	}
	if len(notes) > 0 {
		promptText.WriteString("\nNotes:\n")
		for _, n := range notes {
			promptText.WriteString(fmt.Sprintf("  - %s\n", n))
		}
	}
	if pending := h.app.Queue.GetPendingCount(); pending > 0 {
		promptText.WriteString(fmt.Sprintf("\n%d writes are still waiting to sync.\n", pending))
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. A two-sentence summary of the shift")
	promptText.WriteString("\n2. Anything the next shift should pick up")

	return userPrompt(fmt.Sprintf("Shift recap for %s", staff), promptText.String()), nil
}

func (h *PromptHandlers) getObjectionCoachingPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	days := 30
	if v := args["days"]; v != "" {
		if _, err := fmt.Sscanf(v, "%d", &days); err != nil || days <= 0 {
			return nil, fmt.Errorf("invalid days: %s", v)
		}
	}
	since := h.now().AddDate(0, 0, -days).Format(models.DateLayout)

	runs, err := h.app.Store.ListRunsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch runs: %w", err)
	}

	objections := make(map[string]int)
	didntBuy := 0
	for _, r := range runs {
		if !models.IsDidntBuy(r.Result) {
			continue
		}
		didntBuy++
		o := strings.TrimSpace(r.PrimaryObjection)
		if o == "" {
			o = "unspecified"
		}
		objections[o]++
	}

	keys := make([]string, 0, len(objections))
	for k := range objections {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if objections[keys[i]] != objections[keys[j]] {
			return objections[keys[i]] > objections[keys[j]]
		}
		return keys[i] < keys[j]
	})

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Over the last %d days, %d intros ended without a sale.\n\n", days, didntBuy))
	promptText.WriteString("Objections:\n")
	for _, k := range keys {
		promptText.WriteString(fmt.Sprintf("  - %s: %d\n", k, objections[k]))
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. The top objection to focus on this week")
	promptText.WriteString("\n2. Suggested responses the front desk can practice")

	return userPrompt("Objection coaching", promptText.String()), nil
}
