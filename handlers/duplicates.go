// ABOUTME: Duplicate detection MCP tool handlers
// ABOUTME: Implements find_duplicates and detect_duplicate tools
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/frontdesk/app"
	"github.com/harperreed/frontdesk/dedup"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type DuplicateHandlers struct {
	app *app.App
}

func NewDuplicateHandlers(a *app.App) *DuplicateHandlers {
	return &DuplicateHandlers{app: a}
}

type FindDuplicatesInput struct {
	Name string `json:"name" jsonschema:"Member name being booked (required)"`
}

type DuplicateMatchOutput struct {
	BookingID     string  `json:"booking_id"`
	MemberName    string  `json:"member_name"`
	ClassDate     string  `json:"class_date"`
	BookingStatus string  `json:"booking_status,omitempty"`
	Similarity    float64 `json:"similarity"`
	MatchType     string  `json:"match_type"`
	Warning       string  `json:"warning"`
}

type FindDuplicatesOutput struct {
	Matches []DuplicateMatchOutput `json:"matches"`
}

func (h *DuplicateHandlers) FindDuplicates(ctx context.Context, request *mcp.CallToolRequest, input FindDuplicatesInput) (*mcp.CallToolResult, FindDuplicatesOutput, error) {
	if input.Name == "" {
		return nil, FindDuplicatesOutput{}, fmt.Errorf("name is required")
	}

	matches, err := h.app.Finder.Find(ctx, input.Name)
	if err != nil {
		return nil, FindDuplicatesOutput{}, fmt.Errorf("failed to search bookings: %w", err)
	}

	out := FindDuplicatesOutput{Matches: make([]DuplicateMatchOutput, len(matches))}
	for i, m := range matches {
		out.Matches[i] = matchToOutput(m)
	}
	return nil, out, nil
}

func matchToOutput(m dedup.Match) DuplicateMatchOutput {
	return DuplicateMatchOutput{
		BookingID:     m.Booking.ID,
		MemberName:    m.Booking.MemberName,
		ClassDate:     m.Booking.ClassDate,
		BookingStatus: m.Booking.BookingStatus,
		Similarity:    m.Similarity,
		MatchType:     string(m.Kind),
		Warning:       m.Warning,
	}
}

type DetectDuplicateInput struct {
	LeadID string `json:"lead_id,omitempty" jsonschema:"Lead to check; its stage is updated when a match is found"`
	Name   string `json:"name,omitempty" jsonschema:"Candidate name (when no lead_id)"`
	Phone  string `json:"phone,omitempty" jsonschema:"Candidate phone"`
	Email  string `json:"email,omitempty" jsonschema:"Candidate email"`
}

func (h *DuplicateHandlers) DetectDuplicate(ctx context.Context, request *mcp.CallToolRequest, input DetectDuplicateInput) (*mcp.CallToolResult, dedup.DuplicateResult, error) {
	if input.LeadID != "" {
		res, err := h.app.Detector.CheckLead(ctx, input.LeadID)
		if err != nil {
			return nil, dedup.DuplicateResult{}, fmt.Errorf("failed to check lead: %w", err)
		}
		return nil, res, nil
	}

	if input.Name == "" && input.Phone == "" && input.Email == "" {
		return nil, dedup.DuplicateResult{}, fmt.Errorf("lead_id or one of name, phone, email is required")
	}

	res, err := h.app.Detector.DetectDuplicate(ctx, dedup.Candidate{
		Name:  input.Name,
		Phone: input.Phone,
		Email: input.Email,
	})
	if err != nil {
		return nil, dedup.DuplicateResult{}, fmt.Errorf("failed to detect duplicates: %w", err)
	}
	return nil, res, nil
}
