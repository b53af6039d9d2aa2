package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sydlexius/cadence/internal/catalog"
	"github.com/sydlexius/cadence/internal/collector"
	"github.com/sydlexius/cadence/internal/config"
	"github.com/sydlexius/cadence/internal/database"
	"github.com/sydlexius/cadence/internal/event"
	"github.com/sydlexius/cadence/internal/importer"
	"github.com/sydlexius/cadence/internal/logging"
	"github.com/sydlexius/cadence/internal/palette"
	"github.com/sydlexius/cadence/internal/provider"
	"github.com/sydlexius/cadence/internal/provider/coverart"
	"github.com/sydlexius/cadence/internal/provider/discogs"
	"github.com/sydlexius/cadence/internal/provider/musicbrainz"
	"github.com/sydlexius/cadence/internal/provider/wikipedia"
	"github.com/sydlexius/cadence/internal/reconcile"
	"github.com/sydlexius/cadence/internal/selector"
	"github.com/sydlexius/cadence/internal/snapshot"
	"github.com/sydlexius/cadence/internal/version"
)

const usage = `usage: cadence <command> [args]

commands:
  import <artist-mbid>...   import artists and their release groups
  migrate                   apply database migrations
  stats                     print catalog row counts and database size
  snapshot                  write a catalog snapshot now
  snapshots                 list catalog snapshots
  version                   print the version`

var errUsage = errors.New(usage)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	if args[0] == "version" {
		fmt.Println(version.Version)
		return nil
	}

	configPath := os.Getenv("CADENCE_CONFIG_PATH")
	if configPath == "" {
		configPath = "./cadence.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logCfg := logging.FromSettings(cfg.Logging)
	if err := logCfg.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	logManager, logger := logging.NewManager(logCfg)
	defer logManager.Close() //nolint:errcheck
	slog.SetDefault(logger)

	// SIGHUP re-reads the logging section so a long import can be switched to debug.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go reloadLogging(hup, configPath, logManager)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("closing database", "error", err)
		}
	}()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("database ready", slog.String("path", cfg.Database.Path))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "migrate":
		return nil
	case "stats":
		return printStats(ctx, cfg, db, logger)
	case "snapshot":
		info, err := newSnapshotter(cfg, db, logManager).Create(ctx)
		if err != nil {
			return err
		}
		return printJSON(info)
	case "snapshots":
		snaps, err := newSnapshotter(cfg, db, logManager).List()
		if err != nil {
			return err
		}
		return printJSON(snaps)
	case "import":
		if len(args) < 2 {
			return errUsage
		}
		return runImport(ctx, cfg, db, logManager, args[1:])
	default:
		return errUsage
	}
}

func reloadLogging(hup <-chan os.Signal, configPath string, logManager *logging.Manager) {
	for range hup {
		cfg, err := config.Load(configPath)
		if err != nil {
			slog.Error("reloading config", slog.String("error", err.Error()))
			continue
		}
		logCfg := logging.FromSettings(cfg.Logging)
		if err := logCfg.Validate(); err != nil {
			slog.Error("reloading logging config", slog.String("error", err.Error()))
			continue
		}
		logManager.Reconfigure(logCfg)
		slog.Info("logging reconfigured", slog.String("level", logCfg.Level))
	}
}

func newSnapshotter(cfg *config.Config, db *sql.DB, logManager *logging.Manager) *snapshot.Snapshotter {
	return snapshot.New(db, cfg.Snapshot.Dir, cfg.Snapshot.Retention, logManager.Component("snapshot"))
}

func printStats(ctx context.Context, cfg *config.Config, db *sql.DB, logger *slog.Logger) error {
	store, err := catalog.NewStore(db, logger)
	if err != nil {
		return err
	}
	counts, err := store.Queries().Stats(ctx)
	if err != nil {
		return err
	}
	status, err := database.ReadStatus(ctx, db, cfg.Database.Path)
	if err != nil {
		return err
	}
	return printJSON(struct {
		Catalog  catalog.Stats    `json:"catalog"`
		Database *database.Status `json:"database"`
	}{counts, status})
}

func runImport(ctx context.Context, cfg *config.Config, db *sql.DB, logManager *logging.Manager, artistIDs []string) error {
	logger := logManager.Component("cadence")

	store, err := catalog.NewStore(db, logManager.Component("catalog"))
	if err != nil {
		return err
	}

	if cfg.Snapshot.Enabled {
		if _, err := newSnapshotter(cfg, db, logManager).Create(ctx); err != nil {
			return fmt.Errorf("snapshot before import: %w", err)
		}
	}
	defer func() {
		if err := database.Optimize(context.WithoutCancel(ctx), db); err != nil {
			logger.Warn("optimizing database", slog.String("error", err.Error()))
		}
	}()

	eventBus := event.NewBus(logManager.Component("events"), 256)
	eventBus.SubscribeAll(event.LogHandler(logManager.Component("events")))
	go eventBus.Start()
	defer eventBus.Stop()

	rateLimiters := provider.NewRateLimiterMap()
	mb := musicbrainz.NewWithBaseURL(rateLimiters, logger, cfg.Providers.MusicBrainzURL)
	src := importer.Sources{
		Metadata: mb,
		Covers:   coverart.NewWithBaseURL(rateLimiters, logger, cfg.Providers.CoverArtURL),
		Tags:     discogs.NewWithBaseURL(rateLimiters, cfg.Providers.DiscogsToken, logger, cfg.Providers.DiscogsURL),
		Pages:    wikipedia.NewWithBaseURL(rateLimiters, logger, cfg.Providers.WikipediaURL),
	}

	retrier := collector.NewRetrier(cfg.Import.RateLimitBackoff, logger)
	reconciler := reconcile.New(store, eventBus, logManager.Component("reconcile"))
	imp := importer.New(src, reconciler, retrier, importer.Options{
		Concurrency:  cfg.Import.Concurrency,
		PageSize:     cfg.Import.PageSize,
		ReleaseTypes: cfg.Import.ReleaseTypes,
	}, logger).
		WithResolver(selector.NewHTTPResolver(logger)).
		WithEvents(eventBus)
	if cfg.Import.Palette {
		imp = imp.WithPalette(palette.NewExtractor(logger))
	}

	summaries := make([]*importer.Summary, 0, len(artistIDs))
	for _, id := range artistIDs {
		sum, err := imp.ImportArtist(ctx, id)
		if sum != nil {
			summaries = append(summaries, sum)
		}
		if err != nil {
			_ = printJSON(summaries)
			return fmt.Errorf("importing artist %s: %w", id, err)
		}
	}
	return printJSON(summaries)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
