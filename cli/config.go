// ABOUTME: Config setup command
// ABOUTME: Writes the JSON config, reading the Postgres DSN without echo when typed at a terminal
package cli

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/harperreed/frontdesk/config"
	"golang.org/x/term"
)

// ConfigInitCommand writes the config file. Flags override what is already
// saved; a postgres driver without --dsn prompts for it.
func ConfigInitCommand(in *os.File, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("config-init", flag.ExitOnError)
	path := fs.String("path", config.ConfigPath(), "Config file to write")
	driver := fs.String("driver", "", "Database driver: sqlite or postgres")
	dsn := fs.String("dsn", "", "Database path or Postgres connection string")
	store := fs.String("store", "", "Local store backend: badger, charm, or memory")
	staff := fs.String("staff", "", "Staff name stamped on writes from this device")
	bot := fs.String("groupme-bot", "", "GroupMe bot ID")
	sheet := fs.String("sheet-id", "", "Google Sheet ID for outcome exports")
	_ = fs.Parse(args)

	cfg, err := config.LoadFrom(*path)
	if err != nil {
		return err
	}

	if *driver != "" {
		if *driver != cfg.DBDriver {
			cfg.DBDSN = ""
		}
		cfg.DBDriver = *driver
	}
	setIf(&cfg.DBDSN, *dsn)
	setIf(&cfg.StoreBackend, *store)
	setIf(&cfg.Staff, *staff)
	setIf(&cfg.GroupMeBotID, *bot)
	setIf(&cfg.SheetID, *sheet)

	if cfg.DBDSN == "" {
		_, _ = fmt.Fprint(out, "Postgres connection string: ")
		secret, err := readSecret(in)
		_, _ = fmt.Fprintln(out)
		if err != nil {
			return fmt.Errorf("failed to read connection string: %w", err)
		}
		cfg.DBDSN = secret
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(*path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	_, _ = fmt.Fprintf(out, "✓ Config saved to %s\n", *path)
	_, _ = fmt.Fprintf(out, "  Database: %s\n", cfg.DBDriver)
	_, _ = fmt.Fprintf(out, "  Store:    %s\n", cfg.StoreBackend)
	if cfg.Staff != "" {
		_, _ = fmt.Fprintf(out, "  Staff:    %s\n", cfg.Staff)
	}
	return nil
}

func setIf(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// readSecret reads one line, hiding input when in is a terminal.
func readSecret(in *os.File) (string, error) {
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
