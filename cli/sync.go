// ABOUTME: Queue sync CLI commands
// ABOUTME: Replays the write queue once or on an interval, refreshing the offline cache
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/harperreed/frontdesk/app"
	"github.com/harperreed/frontdesk/offline"
)

// MinDaemonInterval is the shortest allowed --interval.
const MinDaemonInterval = 30 * time.Second

// SyncCommand replays the write queue.
func SyncCommand(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	refresh := fs.Bool("refresh", false, "Refresh the offline cache after replay")
	daemon := fs.Bool("daemon", false, "Keep syncing on an interval until interrupted")
	interval := fs.String("interval", "1m", "Daemon interval (minimum 30s)")
	_ = fs.Parse(args)

	if !*daemon {
		return syncOnce(ctx, a, out, *refresh)
	}

	every, err := parseInterval(*interval)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Syncing every %s, Ctrl+C to stop\n", every)
	return runDaemon(ctx, every, func(ctx context.Context) error {
		return syncOnce(ctx, a, out, true)
	})
}

func syncOnce(ctx context.Context, a *app.App, out io.Writer, refresh bool) error {
	res, err := a.Syncer.RunSync(ctx)
	if errors.Is(err, offline.ErrSyncInProgress) {
		_, _ = fmt.Fprintln(out, "Sync already running, skipped")
		return nil
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	_, _ = fmt.Fprintf(out, "✓ Synced %d, failed %d, waiting %d", res.Synced, res.Failed, res.Skipped)
	if res.Exhausted > 0 {
		_, _ = fmt.Fprintf(out, ", gave up on %d", res.Exhausted)
	}
	_, _ = fmt.Fprintf(out, " (%d pending)\n", a.Queue.GetPendingCount())
	for _, e := range res.Errors {
		_, _ = fmt.Fprintf(out, "  ✗ %s\n", e)
	}

	if refresh {
		if err := a.Refresher.Refresh(ctx); err != nil {
			_, _ = fmt.Fprintf(out, "⚠ Cache refresh failed: %v\n", err)
			return nil
		}
		_, _ = fmt.Fprintln(out, "✓ Offline cache refreshed")
	}
	return nil
}

func parseInterval(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: %w", s, err)
	}
	if d < MinDaemonInterval {
		return 0, fmt.Errorf("interval must be at least %s", MinDaemonInterval)
	}
	return d, nil
}

// runDaemon calls fn immediately and then on every tick until ctx is done.
// Errors from fn are reported by fn itself and don't stop the loop.
func runDaemon(ctx context.Context, every time.Duration, fn func(context.Context) error) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		if err := fn(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// CacheCommand shows offline cache freshness, refreshing it first with --refresh.
func CacheCommand(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("cache", flag.ExitOnError)
	refresh := fs.Bool("refresh", false, "Refresh before reporting")
	_ = fs.Parse(args)

	if *refresh {
		if err := a.Refresher.Refresh(ctx); err != nil {
			return fmt.Errorf("cache refresh failed: %w", err)
		}
	}

	status, err := a.Cache.Status()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, "OFFLINE CACHE")
	_, _ = fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	for _, ds := range offline.Datasets {
		at, ok := status[ds]
		if !ok {
			_, _ = fmt.Fprintf(out, "  ✗ %-22s never cached\n", ds)
			continue
		}
		_, _ = fmt.Fprintf(out, "  ✓ %-22s %s\n", ds, formatTimeSince(at))
	}
	_, _ = fmt.Fprintf(out, "\nPending writes: %d\n", a.Queue.GetPendingCount())
	return nil
}
