package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/qualityfeed/internal/config"
	"github.com/JonMunkholm/qualityfeed/internal/core"
	_ "github.com/JonMunkholm/qualityfeed/internal/core/feeds" // Register truck and vessel feeds
	"github.com/JonMunkholm/qualityfeed/internal/logging"
	"github.com/JonMunkholm/qualityfeed/internal/source"
	"github.com/JonMunkholm/qualityfeed/internal/store"
	"github.com/JonMunkholm/qualityfeed/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Overload lets .env win over the shell environment
	if err := godotenv.Overload(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limits, err := config.LoadLimits(cfg.Limits.File)
	if err != nil {
		return err
	}
	engine := core.NewEngine(limits,
		core.ReconcilerOptions{LegacyImplicitRelease: cfg.Feeds.LegacyRelease},
		core.DefaultCalendar(),
	)
	slog.Info("limits loaded", "name", limits.Name, "feeds", len(core.Feeds()))

	var db *store.Store
	if cfg.Database.Enabled() {
		pool, err := connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		db = store.New(pool)
		if err := db.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	src, dir, err := openSource(cfg, db)
	if err != nil {
		return err
	}

	service := core.NewService(src, core.Options{
		Engine:        engine,
		CacheTTL:      cfg.Feeds.CacheTTL,
		CacheCleanup:  cfg.Feeds.CacheTTL,
		MaxConcurrent: cfg.Feeds.MaxConcurrent,
		MaxWait:       cfg.Feeds.MaxWait,
	})

	// Background jobs share ctx and stop with the signal
	if dir != nil && cfg.Feeds.Watch {
		go func() {
			if err := dir.Watch(ctx, service); err != nil {
				slog.Error("feed watcher stopped", "error", err)
			}
		}()
	}
	if cfg.Ingest.Enabled {
		if db == nil {
			return errors.New("INGEST_ENABLED requires DATABASE_URL")
		}
		go service.StartIngestScheduler(ctx, core.IngestConfig{
			Feeds:    cfg.Ingest.Feeds,
			Interval: cfg.Ingest.Interval,
		}, db)
	}

	server := web.NewServer(service, cfg)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.Server.Addr())
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if status := service.LimiterStatus(); status.Active > 0 {
		slog.Info("waiting for feed loads to complete", "active", status.Active)
		if err := service.WaitForLoads(shutdownCtx); err != nil {
			slog.Warn("feed loads did not complete in time", "error", err)
		}
	}
	return server.Shutdown(shutdownCtx)
}

// connect opens the Postgres pool with the configured limits.
func connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	slog.Info("connected to database", "database", poolConfig.ConnConfig.Database)
	return pool, nil
}

// openSource builds the configured feed source. dir is non-nil only for
// the directory source, which is the one that can be watched.
func openSource(cfg *config.Config, db *store.Store) (src core.Source, dir *source.Dir, err error) {
	switch strings.ToLower(cfg.Feeds.Source) {
	case config.SourceDir:
		dir = source.NewDir(cfg.Feeds.Dir)
		slog.Info("reading feeds from directory", "root", dir.Root())
		return dir, dir, nil
	case config.SourceHTTP:
		h, err := source.NewHTTP(cfg.Feeds.BaseURL, cfg.Feeds.FetchTimeout)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("reading feeds over HTTP", "base_url", cfg.Feeds.BaseURL)
		return h, nil, nil
	case config.SourceIndex:
		if db == nil {
			return nil, nil, errors.New("FEED_SOURCE=index requires DATABASE_URL")
		}
		slog.Info("reading feeds through the database index")
		return source.NewIndexed(db, cfg.Feeds.FetchTimeout), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown FEED_SOURCE %q", cfg.Feeds.Source)
	}
}
