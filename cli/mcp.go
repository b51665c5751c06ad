// ABOUTME: MCP server and web API subcommands
// ABOUTME: Starts the MCP server on stdio or the JSON API with background sync
package cli

import (
	"context"
	"flag"
	"time"

	"github.com/harperreed/frontdesk/app"
	"github.com/harperreed/frontdesk/handlers"
	"github.com/harperreed/frontdesk/web"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPCommand starts the MCP server on stdio
func MCPCommand(ctx context.Context, a *app.App, version string) error {
	a.Logger.Info("starting frontdesk MCP server")
	server := handlers.NewServer(a, version)
	return server.Run(ctx, &mcp.StdioTransport{})
}

// ServeCommand runs the web API, refreshing the offline cache and replaying
// the queue in the background.
func ServeCommand(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", a.Config.HTTPAddr, "Listen address")
	syncEvery := fs.Duration("sync-interval", time.Minute, "How often to replay the write queue (0 disables)")
	_ = fs.Parse(args)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.Config.RefreshInterval > 0 {
		go a.Refresher.Run(ctx, a.Config.RefreshInterval)
	}
	if *syncEvery > 0 {
		go func() {
			_ = runDaemon(ctx, *syncEvery, func(ctx context.Context) error {
				if _, err := a.Syncer.RunSync(ctx); err != nil {
					a.Logger.Debug("background sync skipped", "err", err)
				}
				return nil
			})
		}()
	}

	return web.NewServer(a).Start(ctx, *addr)
}
