// ABOUTME: Google Sheets CLI commands
// ABOUTME: Handles OAuth setup and exporting the outcome audit log
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"runtime"

	"github.com/harperreed/frontdesk/app"
	"github.com/harperreed/frontdesk/google"
	"golang.org/x/oauth2"
)

// SheetsAuthCommand runs the browser OAuth flow and stores the token.
func SheetsAuthCommand(ctx context.Context, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("sheets-auth", flag.ExitOnError)
	_ = fs.Parse(args)

	config, err := google.RequireConfig()
	if err != nil {
		return err
	}

	// Start local server for OAuth callback
	callbackChan := make(chan *oauth2.Token, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errChan <- fmt.Errorf("no authorization code received")
			return
		}

		token, err := config.Exchange(ctx, code)
		if err != nil {
			errChan <- fmt.Errorf("failed to exchange code: %w", err)
			return
		}

		callbackChan <- token
		_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
	})

	server := &http.Server{Addr: google.CallbackAddr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	defer func() { _ = server.Shutdown(context.Background()) }()

	authURL := config.AuthCodeURL("state", oauth2.AccessTypeOffline)

	_, _ = fmt.Fprintln(out, "Opening browser for Google OAuth...")
	_, _ = fmt.Fprintf(out, "\nIf browser doesn't open, visit this URL:\n%s\n\n", authURL)
	_ = openBrowser(authURL)

	select {
	case token := <-callbackChan:
		if err := google.SaveToken(token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
		_, _ = fmt.Fprintf(out, "\n✓ Authenticated successfully\n")
		_, _ = fmt.Fprintf(out, "✓ Tokens saved to %s\n\n", google.TokenPath())
		_, _ = fmt.Fprintln(out, "Ready! Run 'frontdesk desk export-sheets' to export outcome changes.")
		return nil

	case err := <-errChan:
		return fmt.Errorf("OAuth flow failed: %w", err)

	case <-ctx.Done():
		return ctx.Err()
	}
}

// ExportSheetsCommand appends outcome changes not yet exported.
func ExportSheetsCommand(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("export-sheets", flag.ExitOnError)
	_ = fs.Parse(args)

	exporter, err := a.SheetsExporter(ctx)
	if err != nil {
		return err
	}

	n, err := exporter.ExportPending(ctx)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if n == 0 {
		_, _ = fmt.Fprintln(out, "Nothing new to export.")
		return nil
	}
	_, _ = fmt.Fprintf(out, "✓ Exported %d outcome changes\n", n)
	return nil
}

// openBrowser attempts to open URL in default browser
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	command := exec.Command(cmd, args...)
	return command.Start()
}
