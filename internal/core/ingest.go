package core

// ingest.go provides the background job that persists each day's feeds.
//
// On every tick the scheduler loads today's file for each configured feed and
// hands the classified units to a Recorder. A missing file is normal early in
// the day and is logged at debug level. Failures are logged and retried on the
// next tick; they never stop the scheduler.

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Recorder persists one classified feed day and returns the run id.
type Recorder interface {
	RecordDay(ctx context.Context, day *DayResult) (string, error)
}

// IngestConfig holds configuration for the ingest scheduler.
type IngestConfig struct {
	Feeds    []string         // Feed keys to ingest (default: all registered)
	Interval time.Duration    // How often to run (default: 15m)
	Now      func() time.Time // Clock, for tests (default: time.Now)
}

func (c IngestConfig) withDefaults() IngestConfig {
	if len(c.Feeds) == 0 {
		for _, def := range Feeds() {
			c.Feeds = append(c.Feeds, def.Key)
		}
	}
	if c.Interval <= 0 {
		c.Interval = 15 * time.Minute
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// StartIngestScheduler runs an ingest pass immediately, then every Interval,
// until ctx is cancelled.
func (s *Service) StartIngestScheduler(ctx context.Context, cfg IngestConfig, rec Recorder) {
	cfg = cfg.withDefaults()
	slog.Info("ingest scheduler started",
		"feeds", cfg.Feeds,
		"interval", cfg.Interval.String(),
	)

	s.RunIngest(ctx, cfg, rec)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("ingest scheduler stopped")
			return
		case <-ticker.C:
			s.RunIngest(ctx, cfg, rec)
		}
	}
}

// RunIngest performs one pass and returns how many feeds were recorded.
func (s *Service) RunIngest(ctx context.Context, cfg IngestConfig, rec Recorder) int {
	cfg = cfg.withDefaults()
	date := cfg.Now().Format(time.DateOnly)
	start := time.Now()
	recorded := 0

	for _, feed := range cfg.Feeds {
		if ctx.Err() != nil {
			break
		}

		day, err := s.LoadDay(ctx, feed, date)
		if errors.Is(err, ErrFeedNotFound) {
			slog.Debug("no feed file yet", "feed", feed, "date", date)
			continue
		}
		if err != nil {
			slog.Error("ingest load failed", "feed", feed, "date", date, "error", err)
			continue
		}

		runID, err := rec.RecordDay(ctx, day)
		if err != nil {
			slog.Error("ingest record failed", "feed", feed, "date", date, "error", err)
			continue
		}
		recorded++
		slog.Info("feed ingested",
			"feed", feed,
			"date", date,
			"run_id", runID,
			"units", len(day.Units),
			"skipped", len(day.Skipped),
		)
	}

	slog.Debug("ingest pass completed",
		"recorded", recorded,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return recorded
}
