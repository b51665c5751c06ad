// ABOUTME: Wires the database, local store, and services into one App
// ABOUTME: Shared by the CLI, MCP server, web API, and TUI entry points
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/harperreed/frontdesk/charm"
	"github.com/harperreed/frontdesk/config"
	"github.com/harperreed/frontdesk/db"
	"github.com/harperreed/frontdesk/dedup"
	"github.com/harperreed/frontdesk/google"
	"github.com/harperreed/frontdesk/localstore"
	"github.com/harperreed/frontdesk/notify"
	"github.com/harperreed/frontdesk/offline"
	"github.com/harperreed/frontdesk/outcome"
	"github.com/harperreed/frontdesk/reports"
)

// Namespace prefixes every local store key.
const Namespace = config.AppName

// App holds the process-wide services.
type App struct {
	Config *config.Config
	Logger *log.Logger

	Store *db.Store
	Local *localstore.Store
	Charm *charm.Client

	Queue     *offline.Queue
	Cache     *offline.Cache
	Refresher *offline.Refresher
	Syncer    *offline.Syncer
	Touches   *offline.TouchLogger

	Outcomes *outcome.Service
	Finder   *dedup.Finder
	Detector *dedup.Detector
	Reports  *reports.Reporter
	GroupMe  *notify.GroupMe
}

// Open connects to the configured database and local store and builds the
// services.
func Open(cfg *config.Config, logger *log.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}

	backend, charmClient, err := openBackend(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	a, err := New(cfg, logger, store, backend)
	if err != nil {
		_ = backend.Close()
		_ = store.Close()
		return nil, err
	}
	a.Charm = charmClient
	return a, nil
}

func openBackend(cfg *config.Config) (localstore.Backend, *charm.Client, error) {
	switch cfg.StoreBackend {
	case config.StoreCharm:
		charmCfg, err := charm.LoadConfig(cfg.CharmHost)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load charm config: %w", err)
		}
		client, err := charm.NewClient(charmCfg)
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil
	case config.StoreMemory:
		b, err := localstore.OpenInMemory()
		return b, nil, err
	default:
		b, err := localstore.OpenBadger(cfg.StoreDir)
		return b, nil, err
	}
}

// New builds an App over an already-open database and local store backend.
func New(cfg *config.Config, logger *log.Logger, store *db.Store, backend localstore.Backend) (*App, error) {
	if logger == nil {
		logger = log.Default()
	}

	local := localstore.New(backend, Namespace)
	queue, err := offline.OpenQueue(local, logger.WithPrefix("queue"))
	if err != nil {
		return nil, err
	}
	cache := offline.NewCache(local)

	syncOpts := offline.SyncOptions{
		MaxRetries:  cfg.Sync.MaxRetries,
		BaseBackoff: cfg.Sync.BaseBackoff,
		MaxBackoff:  cfg.Sync.MaxBackoff,
		ItemTimeout: cfg.Sync.ItemTimeout,
	}

	return &App{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Local:     local,
		Queue:     queue,
		Cache:     cache,
		Refresher: offline.NewRefresher(store, cache, logger.WithPrefix("cache")),
		Syncer:    offline.NewSyncer(queue, store, syncOpts, logger.WithPrefix("sync")),
		Touches:   offline.NewTouchLogger(store, queue, cfg.ThrottleWindow, logger),
		Outcomes:  outcome.NewService(store, logger.WithPrefix("outcome")),
		Finder:    dedup.NewFinder(store, logger),
		Detector:  dedup.NewDetector(store, logger.WithPrefix("dedup")),
		Reports:   reports.NewReporter(store),
		GroupMe:   notify.NewGroupMe(notify.GroupMeOptions{BotID: cfg.GroupMeBotID, Logger: logger.WithPrefix("groupme")}),
	}, nil
}

// Staff returns who to stamp on writes: the explicit name, else the
// configured staff member.
func (a *App) Staff(explicit string) (string, error) {
	if s := strings.TrimSpace(explicit); s != "" {
		return s, nil
	}
	if a.Config.Staff != "" {
		return a.Config.Staff, nil
	}
	return "", errors.New("staff name required (pass --by or set FRONTDESK_STAFF)")
}

// SheetsExporter builds the Sheets exporter from the stored Google token.
func (a *App) SheetsExporter(ctx context.Context) (*google.SheetsExporter, error) {
	if a.Config.SheetID == "" {
		return nil, errors.New("sheet id not configured (set FRONTDESK_SHEET_ID)")
	}
	token, err := google.LoadToken()
	if err != nil {
		return nil, fmt.Errorf("no Google token found, run 'frontdesk desk sheets-auth' first: %w", err)
	}
	svc, err := google.NewSheetsService(ctx, token)
	if err != nil {
		return nil, err
	}
	return google.NewSheetsExporter(svc, a.Config.SheetID, a.Config.SheetRange, a.Store, a.Logger.WithPrefix("sheets")), nil
}

// Announce posts text to the team chat when a bot is configured. Failures
// are logged, never returned.
func (a *App) Announce(ctx context.Context, text string) {
	if a.Config.GroupMeBotID == "" {
		return
	}
	if err := a.GroupMe.Post(ctx, text); err != nil {
		a.Logger.Warn("groupme post failed", "err", err)
	}
}

// ApplyOutcome runs an outcome update and announces new sales to the team.
func (a *App) ApplyOutcome(ctx context.Context, p outcome.Params) outcome.Result {
	res := a.Outcomes.ApplyIntroOutcomeUpdate(ctx, p)
	if res.Success && res.NewSale {
		name := p.MemberName
		if name == "" {
			name = "A new member"
		}
		a.Announce(ctx, fmt.Sprintf("🎉 %s just joined: %s (closed by %s)", name, p.NewResult, p.EditedBy))
	}
	return res
}

// Close releases the local store and database.
func (a *App) Close() error {
	var errs []error
	if err := a.Local.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
