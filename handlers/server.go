// ABOUTME: Assembles the MCP server with every front desk tool, resource, and prompt
// ABOUTME: Used by the mcp subcommand and by handler tests
package handlers

import (
	"github.com/harperreed/frontdesk/app"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer registers all tools, resources, and prompts.
func NewServer(a *app.App, version string) *mcp.Server {
	queueHandlers := NewQueueHandlers(a)
	outcomeHandlers := NewOutcomeHandlers(a)
	duplicateHandlers := NewDuplicateHandlers(a)
	reportHandlers := NewReportHandlers(a)
	resourceHandlers := NewResourceHandlers(a)
	promptHandlers := NewPromptHandlers(a)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "frontdesk",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "log_touch",
		Description: "Log a call, text, or DM to a booking or lead; queued offline if the backend is unreachable",
	}, queueHandlers.LogTouch)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "queue_followup_complete",
		Description: "Queue closing a follow-up as completed, sent, or skipped",
	}, queueHandlers.QueueFollowUpComplete)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "queue_rebook",
		Description: "Queue a new intro booking, optionally closing the follow-up that produced it",
	}, queueHandlers.QueueRebook)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_queue",
		Description: "List writes waiting in the offline queue",
	}, queueHandlers.ListQueue)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_sync",
		Description: "Replay the offline queue against the backend in order",
	}, queueHandlers.RunSync)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_outcome",
		Description: "Change an intro's result and update the run, booking, AMC, follow-ups, and audit log together",
	}, outcomeHandlers.UpdateOutcome)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_duplicates",
		Description: "Find existing bookings whose member name is similar to a new booking's",
	}, duplicateHandlers.FindDuplicates)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "detect_duplicate",
		Description: "Check a lead or candidate against bookings, runs, and members by phone, email, and name",
	}, duplicateHandlers.DetectDuplicate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "leaderboard",
		Description: "Sales leaderboard and active streaks per SA for a date range",
	}, reportHandlers.Leaderboard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "daily_digest",
		Description: "Render the daily sales digest and optionally post it to GroupMe",
	}, reportHandlers.DailyDigest)

	for _, r := range Resources() {
		server.AddResource(r, resourceHandlers.ReadResource)
	}
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: ResourceScheme + "bookings/{id}",
		Name:        "booking",
		Description: "A booking with its follow-ups and outcome history",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	for _, p := range Prompts() {
		server.AddPrompt(p, promptHandlers.GetPrompt)
	}

	return server
}
