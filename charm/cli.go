// ABOUTME: CLI commands for the Charm KV store backend
// ABOUTME: Status, manual sync, and wipe of the device's queue and cache keys

package charm

import (
	"flag"
	"fmt"
	"io"
)

// StatusCommand prints the charm connection state and key counts.
func StatusCommand(c *Client, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("charm status", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := c.Config()
	_, _ = fmt.Fprintln(out, "Charm Store Status")
	_, _ = fmt.Fprintln(out, "──────────────────")
	_, _ = fmt.Fprintf(out, "Server:    %s\n", cfg.Host)
	_, _ = fmt.Fprintf(out, "Auto-sync: %v\n", cfg.AutoSync)

	if id, err := c.ID(); err != nil {
		_, _ = fmt.Fprintln(out, "Status:    Not connected")
	} else {
		_, _ = fmt.Fprintf(out, "Status:    Connected (%s)\n", id)
	}

	keys, err := c.KeysWithPrefix(AppName + ":")
	if err == nil {
		_, _ = fmt.Fprintf(out, "Keys:      %d\n", len(keys))
	}
	return nil
}

// SyncNowCommand pushes and pulls immediately.
func SyncNowCommand(c *Client, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("charm sync", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := c.Sync(); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	_, _ = fmt.Fprintln(out, "✓ Synced")
	return nil
}

// WipeCommand deletes every local key. Queued writes that have not synced
// are lost, so --confirm is required.
func WipeCommand(c *Client, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("charm wipe", flag.ContinueOnError)
	confirm := fs.Bool("confirm", false, "Confirm data wipe")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*confirm {
		_, _ = fmt.Fprintln(out, "WARNING: This deletes the offline queue and cache on this device.")
		_, _ = fmt.Fprintln(out, "To confirm, run:")
		_, _ = fmt.Fprintln(out, "  frontdesk charm wipe --confirm")
		return nil
	}

	if err := c.Reset(); err != nil {
		return fmt.Errorf("failed to reset KV store: %w", err)
	}
	_, _ = fmt.Fprintln(out, "✓ Local store wiped")
	return nil
}
