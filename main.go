// ABOUTME: Entry point for the front desk CLI, MCP server, and web API
// ABOUTME: Routes to desk commands, servers, the TUI, or charm store commands based on arguments
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/harperreed/frontdesk/app"
	"github.com/harperreed/frontdesk/charm"
	"github.com/harperreed/frontdesk/cli"
	"github.com/harperreed/frontdesk/config"
	"github.com/harperreed/frontdesk/tui"
)

const version = "0.1.0"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbDSN := flag.String("db", "", "Database path or DSN (overrides config)")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("frontdesk version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbDSN != "" {
		cfg.DBDSN = *dbDSN
	}
	logger := cfg.NewLogger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := args[0]
	commandArgs := args[1:]

	// Setup commands run before the database is opened
	switch command {
	case "sheets-auth":
		if err := cli.SheetsAuthCommand(ctx, os.Stdout, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	case "config":
		if len(commandArgs) == 0 || commandArgs[0] != "init" {
			fmt.Println("Error: config requires the init subcommand")
			printUsage()
			os.Exit(1)
		}
		if err := cli.ConfigInitCommand(os.Stdin, os.Stdout, commandArgs[1:]); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	}

	a, err := app.Open(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open front desk: %v", err)
	}
	defer func() { _ = a.Close() }()

	if err := run(ctx, a, command, commandArgs); err != nil {
		_ = a.Close()
		log.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, a *app.App, command string, args []string) error {
	out := os.Stdout

	switch command {
	case "mcp":
		return cli.MCPCommand(ctx, a, version)
	case "serve":
		return cli.ServeCommand(ctx, a, args)
	case "tui":
		return tui.Run(ctx, a)
	case "desk":
		if len(args) == 0 {
			fmt.Println("Error: desk requires a subcommand")
			printUsage()
			os.Exit(1)
		}
		return runDesk(ctx, a, args[0], args[1:])
	case "charm":
		if a.Charm == nil {
			return fmt.Errorf("charm commands need store_backend %q (set FRONTDESK_STORE_BACKEND=charm)", config.StoreCharm)
		}
		if len(args) == 0 {
			fmt.Println("Error: charm requires a subcommand")
			printUsage()
			os.Exit(1)
		}
		switch args[0] {
		case "status":
			return charm.StatusCommand(a.Charm, out, args[1:])
		case "sync":
			return charm.SyncNowCommand(a.Charm, out, args[1:])
		case "wipe":
			return charm.WipeCommand(a.Charm, out, args[1:])
		}
		fmt.Printf("Unknown charm command: %s\n\n", args[0])
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
	}

	printUsage()
	os.Exit(1)
	return nil
}

func runDesk(ctx context.Context, a *app.App, sub string, args []string) error {
	out := os.Stdout

	switch sub {
	case "touch":
		return cli.TouchCommand(ctx, a, out, args)
	case "followup-done":
		return cli.FollowUpDoneCommand(a, out, args)
	case "rebook":
		return cli.RebookCommand(a, out, args)
	case "queue":
		return cli.QueueCommand(a, out, args)
	case "followups":
		return cli.FollowUpsCommand(ctx, a, out, args)
	case "sync":
		return cli.SyncCommand(ctx, a, out, args)
	case "cache":
		return cli.CacheCommand(ctx, a, out, args)
	case "outcome":
		return cli.OutcomeCommand(ctx, a, out, args)
	case "dupes":
		return cli.DupesCommand(ctx, a, out, args)
	case "leaderboard":
		return cli.LeaderboardCommand(ctx, a, out, args)
	case "digest":
		return cli.DigestCommand(ctx, a, out, args)
	case "export-sheets":
		return cli.ExportSheetsCommand(ctx, a, out, args)
	}

	fmt.Printf("Unknown desk command: %s\n\n", sub)
	printUsage()
	os.Exit(1)
	return nil
}

func printUsage() {
	fmt.Printf(`frontdesk v%s - Studio front desk toolkit

USAGE:
  frontdesk [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --db <path|dsn>        Database path or Postgres DSN (overrides config)

COMMANDS:
  desk                   Front desk commands
  serve                  Start the JSON API with background sync
  mcp                    Start MCP server for Claude Desktop
  tui                    Full-screen follow-up board and queue
  charm                  Charm store commands (store_backend=charm)
  sheets-auth            Authorize Google Sheets export
  config init            Write the config file

CONFIG:
  frontdesk config init
    --driver <sqlite|postgres>    Database driver
    --dsn <dsn>                   Path or connection string (prompted for postgres)
    --store <backend>             badger, charm, or memory
    --staff <name>                Staff name for writes from this device
    --groupme-bot <id>            GroupMe bot ID
    --sheet-id <id>               Google Sheet for outcome exports

DESK COMMANDS:
  frontdesk desk touch          Log a call, text, or DM
    --type <type>                 Touch type (required)
    --booking <id>                Booking ID
    --lead <id>                   Lead ID
    --channel <channel>           Channel used
    --notes <notes>               Notes
    --by <name>                   Staff name

  frontdesk desk followup-done  Queue closing a follow-up
    --id <id>                     Follow-up ID (required)
    --status <status>             completed, sent, or skipped
    --notes <notes>               Notes

  frontdesk desk rebook         Queue a new intro booking
    --name <name>                 Member name (required)
    --date <YYYY-MM-DD>           Class date (required)
    --time, --coach, --source, --owner, --phone, --email
    --from-booking <id>           Booking this rebook came from
    --followup <id>               Follow-up to close once booked

  frontdesk desk queue          List the offline write queue
    --status <status>             pending, syncing, or failed

  frontdesk desk followups      List follow-ups due
    --date <YYYY-MM-DD>           Due on or before (default: today)

  frontdesk desk sync           Replay the write queue
    --refresh                     Refresh the offline cache after
    --daemon                      Keep syncing until interrupted
    --interval <duration>         Daemon interval (default: 1m, min: 30s)

  frontdesk desk cache          Show offline cache freshness
    --refresh                     Refresh first

  frontdesk desk outcome        Change an intro result
    --booking <id>                Booking ID (required)
    --result <result>             New result (required)
    --membership, --commission, --source, --objection, --reason
    --run <id>                    Run ID (default: latest)
    --version <n>                 Expected run version

  frontdesk desk dupes <name>   Find existing bookings
    --phone, --email              Run the full duplicate check
    --lead <id>                   Check and update a lead

  frontdesk desk leaderboard    Sales per SA
    --from, --to <YYYY-MM-DD>     Range (default: month to date)

  frontdesk desk digest         Daily digest
    --date <YYYY-MM-DD>           Day (default: today)
    --post                        Post to the team GroupMe

  frontdesk desk export-sheets  Append new outcome changes to Google Sheets

SERVE:
  frontdesk serve
    --addr <addr>                 Listen address (default from config)
    --sync-interval <duration>    Queue replay interval (0 disables)

CHARM COMMANDS:
  frontdesk charm status        Connection state and key count
  frontdesk charm sync          Push and pull now
  frontdesk charm wipe          Delete this device's queue and cache keys

CONFIGURATION:
  Config file: %s
  Environment: FRONTDESK_DB_DRIVER, FRONTDESK_DB_DSN, FRONTDESK_STORE_BACKEND,
  FRONTDESK_STAFF, GROUPME_BOT_ID, FRONTDESK_SHEET_ID (a .env file is loaded if present)
`, version, config.ConfigPath())
}
