// ABOUTME: Application configuration for the front-desk backend
// ABOUTME: Defaults, JSON config at XDG paths, FRONTDESK_* environment overrides, and logger setup
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

const (
	// AppName names the XDG config and data directories.
	AppName = "frontdesk"

	// ConfigFileName is the JSON config file under the XDG config directory.
	ConfigFileName = "config.json"
)

// Local store backends.
const (
	StoreBadger = "badger"
	StoreCharm  = "charm"
	StoreMemory = "memory"
)

// SyncConfig tunes the offline queue replay.
type SyncConfig struct {
	MaxRetries  int           `json:"max_retries"`
	BaseBackoff time.Duration `json:"base_backoff,omitempty"`
	MaxBackoff  time.Duration `json:"max_backoff,omitempty"`
	ItemTimeout time.Duration `json:"item_timeout,omitempty"`
}

// Config holds every runtime setting.
type Config struct {
	// DBDriver is "sqlite" for a local database or "postgres" for Supabase
	DBDriver string `json:"db_driver"`

	// DBDSN is a file path for sqlite or a connection string for postgres
	DBDSN string `json:"db_dsn"`

	StoreBackend string `json:"store_backend"`
	StoreDir     string `json:"store_dir"`
	CharmHost    string `json:"charm_host,omitempty"`

	LogLevel string `json:"log_level"`
	HTTPAddr string `json:"http_addr"`

	// Staff is the SA name stamped on writes made from this device
	Staff string `json:"staff,omitempty"`

	GroupMeBotID string `json:"groupme_bot_id,omitempty"`
	SheetID      string `json:"sheet_id,omitempty"`
	SheetRange   string `json:"sheet_range,omitempty"`

	Sync            SyncConfig    `json:"sync"`
	ThrottleWindow  time.Duration `json:"throttle_window,omitempty"`
	RefreshInterval time.Duration `json:"refresh_interval,omitempty"`
}

// ConfigDir returns the XDG config directory for the app.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ConfigPath returns the path of the JSON config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), ConfigFileName)
}

// DataDir returns the XDG data directory for the app.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Default returns a config with every field set to its default.
func Default() *Config {
	return &Config{
		DBDriver:     "sqlite",
		DBDSN:        filepath.Join(DataDir(), "frontdesk.db"),
		StoreBackend: StoreBadger,
		StoreDir:     filepath.Join(DataDir(), "store"),
		LogLevel:     "info",
		HTTPAddr:     "127.0.0.1:8080",
		SheetRange:   "Outcome Changes!A1",
		Sync: SyncConfig{
			MaxRetries:  8,
			BaseBackoff: 30 * time.Second,
			MaxBackoff:  time.Hour,
			ItemTimeout: 15 * time.Second,
		},
		ThrottleWindow:  time.Minute,
		RefreshInterval: 5 * time.Minute,
	}
}

// Load reads the config file, falling back to defaults when it does not
// exist, then applies environment overrides.
// Environment variables override file values:
// - FRONTDESK_DB_DRIVER
// - FRONTDESK_DB_DSN
// - FRONTDESK_STORE_BACKEND
// - FRONTDESK_STORE_DIR
// - FRONTDESK_CHARM_HOST
// - FRONTDESK_LOG_LEVEL
// - FRONTDESK_HTTP_ADDR
// - FRONTDESK_STAFF
// - GROUPME_BOT_ID
// - FRONTDESK_SHEET_ID
// - FRONTDESK_SYNC_MAX_RETRIES.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom is Load with an explicit config file path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}

	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
	} else {
		defer func() { _ = f.Close() }()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.fillDefaults()

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("FRONTDESK_DB_DRIVER"); v != "" {
		cfg.DBDriver = v
	}
	if v := os.Getenv("FRONTDESK_DB_DSN"); v != "" {
		cfg.DBDSN = v
	}
	if v := os.Getenv("FRONTDESK_STORE_BACKEND"); v != "" {
		cfg.StoreBackend = v
	}
	if v := os.Getenv("FRONTDESK_STORE_DIR"); v != "" {
		cfg.StoreDir = v
	}
	if v := os.Getenv("FRONTDESK_CHARM_HOST"); v != "" {
		cfg.CharmHost = v
	}
	if v := os.Getenv("FRONTDESK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("FRONTDESK_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("FRONTDESK_STAFF"); v != "" {
		cfg.Staff = v
	}
	if v := os.Getenv("GROUPME_BOT_ID"); v != "" {
		cfg.GroupMeBotID = v
	}
	if v := os.Getenv("FRONTDESK_SHEET_ID"); v != "" {
		cfg.SheetID = v
	}
	if v := os.Getenv("FRONTDESK_SYNC_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FRONTDESK_SYNC_MAX_RETRIES %q: %w", v, err)
		}
		cfg.Sync.MaxRetries = n
	}
	return nil
}

// fillDefaults restores defaults for fields a config file left empty.
func (c *Config) fillDefaults() {
	d := Default()
	if c.DBDriver == "" {
		c.DBDriver = d.DBDriver
	}
	if c.DBDSN == "" && strings.HasPrefix(c.DBDriver, "sqlite") {
		c.DBDSN = d.DBDSN
	}
	if c.StoreBackend == "" {
		c.StoreBackend = d.StoreBackend
	}
	if c.StoreDir == "" {
		c.StoreDir = d.StoreDir
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = d.HTTPAddr
	}
	if c.SheetRange == "" {
		c.SheetRange = d.SheetRange
	}
	if c.Sync.MaxRetries == 0 {
		c.Sync.MaxRetries = d.Sync.MaxRetries
	}
	if c.Sync.BaseBackoff == 0 {
		c.Sync.BaseBackoff = d.Sync.BaseBackoff
	}
	if c.Sync.MaxBackoff == 0 {
		c.Sync.MaxBackoff = d.Sync.MaxBackoff
	}
	if c.Sync.ItemTimeout == 0 {
		c.Sync.ItemTimeout = d.Sync.ItemTimeout
	}
	if c.ThrottleWindow == 0 {
		c.ThrottleWindow = d.ThrottleWindow
	}
	if c.RefreshInterval == 0 {
		c.RefreshInterval = d.RefreshInterval
	}
}

// Save writes the config to path with restricted permissions.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch strings.ToLower(c.DBDriver) {
	case "sqlite", "sqlite3", "postgres", "supabase":
	default:
		return fmt.Errorf("unsupported db_driver %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("db_dsn is required for driver %q", c.DBDriver)
	}
	switch c.StoreBackend {
	case StoreBadger, StoreCharm, StoreMemory:
	default:
		return fmt.Errorf("unsupported store_backend %q", c.StoreBackend)
	}
	if c.Sync.MaxRetries < 0 {
		return fmt.Errorf("sync.max_retries must not be negative")
	}
	return nil
}

// NewLogger builds the process logger at the configured level.
func (c *Config) NewLogger(w io.Writer) *log.Logger {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          AppName,
	})
}
