// ABOUTME: Outcome MCP tool handler
// ABOUTME: Implements update_outcome over the outcome update service
package handlers

import (
	"context"
	"errors"

	"github.com/harperreed/frontdesk/app"
	"github.com/harperreed/frontdesk/outcome"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type OutcomeHandlers struct {
	app *app.App
}

func NewOutcomeHandlers(a *app.App) *OutcomeHandlers {
	return &OutcomeHandlers{app: a}
}

type UpdateOutcomeInput struct {
	BookingID        string   `json:"booking_id" jsonschema:"Booking whose intro result changes (required)"`
	NewResult        string   `json:"new_result" jsonschema:"New result: a membership label, Didn't Buy, No-show, or Not interested (required)"`
	PreviousResult   string   `json:"previous_result,omitempty" jsonschema:"Result before this change (defaults to the run's current result)"`
	MemberName       string   `json:"member_name,omitempty" jsonschema:"Member name (defaults to the booking's)"`
	ClassDate        string   `json:"class_date,omitempty" jsonschema:"Run date when a run must be created, YYYY-MM-DD"`
	MembershipType   string   `json:"membership_type,omitempty" jsonschema:"Membership sold, used for AMC eligibility"`
	CommissionAmount *float64 `json:"commission_amount,omitempty" jsonschema:"Commission earned on the sale"`
	LeadSource       string   `json:"lead_source,omitempty" jsonschema:"Lead source"`
	Objection        string   `json:"objection,omitempty" jsonschema:"Primary objection for a didn't-buy result"`
	EditReason       string   `json:"edit_reason,omitempty" jsonschema:"Why the result changed"`
	RunID            string   `json:"run_id,omitempty" jsonschema:"Run to update (defaults to the booking's latest run)"`
	ExpectedVersion  int      `json:"expected_version,omitempty" jsonschema:"Run version the edit was based on; stale versions are rejected"`
	EditedBy         string   `json:"edited_by,omitempty" jsonschema:"Staff member making the change (defaults to configured staff)"`
}

type UpdateOutcomeOutput struct {
	Success        bool   `json:"success"`
	RunID          string `json:"run_id,omitempty"`
	AMCIncremented bool   `json:"amc_incremented"`
	NewSale        bool   `json:"new_sale"`
}

func (h *OutcomeHandlers) UpdateOutcome(ctx context.Context, request *mcp.CallToolRequest, input UpdateOutcomeInput) (*mcp.CallToolResult, UpdateOutcomeOutput, error) {
	by, err := h.app.Staff(input.EditedBy)
	if err != nil {
		return nil, UpdateOutcomeOutput{}, err
	}

	res := h.app.ApplyOutcome(ctx, outcome.Params{
		BookingID:        input.BookingID,
		MemberName:       input.MemberName,
		ClassDate:        input.ClassDate,
		NewResult:        input.NewResult,
		PreviousResult:   input.PreviousResult,
		MembershipType:   input.MembershipType,
		CommissionAmount: input.CommissionAmount,
		LeadSource:       input.LeadSource,
		Objection:        input.Objection,
		EditedBy:         by,
		SourceComponent:  "mcp",
		EditReason:       input.EditReason,
		RunID:            input.RunID,
		ExpectedVersion:  input.ExpectedVersion,
	})
	if !res.Success {
		return nil, UpdateOutcomeOutput{}, errors.New(res.Error)
	}

	return nil, UpdateOutcomeOutput{
		Success:        true,
		RunID:          res.RunID,
		AMCIncremented: res.AMCIncremented,
		NewSale:        res.NewSale,
	}, nil
}
