package core

// service.go loads classified feed days for the web layer, the CLI and the
// ingest scheduler.
//
// Parsing is pure, so the service puts a read-through TTL cache in front of
// it, keyed by feed, date and source ref. Entries are never modified after
// they are stored; two concurrent misses for the same key simply parse twice
// and the later Set wins with an identical value.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/qualityfeed/internal/logging"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
)

// Source locates and opens raw feed text. It is implemented outside core
// (directory, HTTP, database index).
type Source interface {
	// Locate returns the ref of the feed file for an ISO date, or an error
	// wrapping ErrFeedNotFound.
	Locate(ctx context.Context, feed, date string) (string, error)
	// Open returns the file content for a ref returned by Locate.
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// DefaultCacheTTL is the freshness window of a parsed feed.
const DefaultCacheTTL = 5 * time.Minute

// Options configure a Service. Zero values take defaults.
type Options struct {
	Engine        *Engine
	CacheTTL      time.Duration
	CacheCleanup  time.Duration // 0 disables the background janitor
	MaxConcurrent int
	MaxWait       time.Duration
}

// DayResult is one classified feed file. Shared between callers; treat as read-only.
type DayResult struct {
	Feed      string           `json:"feed"`
	Date      string           `json:"date"`
	Ref       string           `json:"ref"`
	Delimiter string           `json:"delimiter"`
	TotalRows int              `json:"totalRows"`
	Units     []ClassifiedUnit `json:"units"`
	Skipped   []SkippedRow     `json:"skipped"`
	LoadedAt  time.Time        `json:"loadedAt"`
}

// DayReport is a filtered view of one day.
type DayReport struct {
	Feed     string       `json:"feed"`
	Date     string       `json:"date"`
	Filter   StatusFilter `json:"filter"`
	Summary  DaySummary   `json:"summary"`
	Averages []Average    `json:"averages"`
}

// Service is the main entry point for loading feed days.
type Service struct {
	source  Source
	engine  *Engine
	cache   *gocache.Cache
	limiter *FetchLimiter
}

// NewService creates a service reading from src.
func NewService(src Source, opts Options) *Service {
	if opts.Engine == nil {
		opts.Engine = DefaultEngine()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	return &Service{
		source:  src,
		engine:  opts.Engine,
		cache:   gocache.New(opts.CacheTTL, opts.CacheCleanup),
		limiter: NewFetchLimiter(opts.MaxConcurrent, opts.MaxWait),
	}
}

// Engine returns the engine used to classify units.
func (s *Service) Engine() *Engine {
	return s.engine
}

// LimiterStatus reports fetch slot usage.
func (s *Service) LimiterStatus() FetchLimiterStatus {
	return s.limiter.Status()
}

// WaitForLoads blocks until in-flight loads finish or ctx ends.
func (s *Service) WaitForLoads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// LoadDay returns the classified units of one feed file.
func (s *Service) LoadDay(ctx context.Context, feed, date string) (*DayResult, error) {
	def, ok := Feed(feed)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeed, feed)
	}
	if err := ValidateDate(date); err != nil {
		return nil, err
	}

	ref, err := s.source.Locate(ctx, feed, date)
	if err != nil {
		if errors.Is(err, ErrFeedNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("locate %s %s: %w: %w", feed, date, ErrFetchFailed, err)
	}

	key := cacheKey(feed, date, ref)
	if v, found := s.cache.Get(key); found {
		logging.FromContext(ctx).Debug("feed cache hit", "feed", feed, "date", date, "ref", ref)
		return v.(*DayResult), nil
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	start := time.Now()
	day, err := s.parse(ctx, def, date, ref)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, day, gocache.DefaultExpiration)

	logger := logging.WithFields(ctx, "feed", feed, "date", date, "ref", ref)
	for _, sk := range day.Skipped {
		logger.Debug("row skipped", "line", sk.Line, "reason", sk.Reason)
	}
	logger.Info("feed loaded",
		"units", len(day.Units),
		"skipped", len(day.Skipped),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return day, nil
}

func (s *Service) parse(ctx context.Context, def FeedDefinition, date, ref string) (*DayResult, error) {
	rc, err := s.source.Open(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrFeedNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("open %s: %w: %w", ref, ErrFetchFailed, err)
	}
	defer rc.Close()

	res, err := ParseFeed(rc, def)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	return &DayResult{
		Feed:      def.Key,
		Date:      date,
		Ref:       ref,
		Delimiter: res.Delimiter,
		TotalRows: res.TotalRows,
		Units:     s.engine.ClassifyAll(res.Units),
		Skipped:   res.Skipped,
		LoadedAt:  time.Now(),
	}, nil
}

// LoadDays loads several dates in parallel. Dates without a feed file, or
// whose file could not be fetched, are logged and left out of the result.
// Any other failure (unknown feed, bad date, cancelled ctx) cancels the rest.
func (s *Service) LoadDays(ctx context.Context, feed string, dates []string) (map[string]*DayResult, error) {
	var (
		mu  sync.Mutex
		out = make(map[string]*DayResult, len(dates))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limiter.Status().MaxConcurrent)

	for _, date := range dates {
		g.Go(func() error {
			day, err := s.LoadDay(gctx, feed, date)
			switch {
			case err == nil:
			case errors.Is(err, ErrFeedNotFound):
				return nil
			case errors.Is(err, ErrFetchFailed), errors.Is(err, ErrTooManyFetches):
				logging.FromContext(ctx).Warn("day left out of range load",
					"feed", feed, "date", date, "code", MapError(err).Code, "error", err)
				return nil
			default:
				return err
			}
			mu.Lock()
			out[date] = day
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// DayReport loads one day and summarises it under filter f.
func (s *Service) DayReport(ctx context.Context, feed, date string, f StatusFilter) (*DayReport, error) {
	day, err := s.LoadDay(ctx, feed, date)
	if err != nil {
		return nil, err
	}
	agg := s.engine.Aggregator
	units := agg.Filter(day.Units, f)
	summary := agg.AggregateDay(units)
	summary.Date = date
	return &DayReport{
		Feed:     feed,
		Date:     date,
		Filter:   f,
		Summary:  summary,
		Averages: agg.AverageAll(units),
	}, nil
}

// MonthReport loads every day of month ("YYYY-MM") and rolls it up.
func (s *Service) MonthReport(ctx context.Context, feed, month string, f StatusFilter) (*MonthSummary, error) {
	dates, err := DaysInMonth(month)
	if err != nil {
		return nil, err
	}
	loaded, err := s.LoadDays(ctx, feed, dates)
	if err != nil {
		return nil, err
	}

	days := make(map[string][]ClassifiedUnit, len(loaded))
	for d, day := range loaded {
		days[d] = day.Units
	}
	ms, err := s.engine.Aggregator.AggregateMonth(month, days, f)
	if err != nil {
		return nil, err
	}
	return &ms, nil
}

// Invalidate drops every cached entry read from ref.
func (s *Service) Invalidate(ref string) int {
	n := 0
	for key := range s.cache.Items() {
		if strings.HasSuffix(key, "|"+ref) {
			s.cache.Delete(key)
			n++
		}
	}
	return n
}

// CachedEntries reports how many parsed files are cached.
func (s *Service) CachedEntries() int {
	return s.cache.ItemCount()
}

func cacheKey(feed, date, ref string) string {
	return feed + "|" + date + "|" + ref
}

// ValidateDate checks an ISO date (YYYY-MM-DD).
func ValidateDate(date string) error {
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return nil
}

// DaysInMonth lists the ISO dates of month ("YYYY-MM").
func DaysInMonth(month string) ([]string, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, fmt.Errorf("%w: month %q", ErrInvalidDate, month)
	}
	var out []string
	for d := start; d.Month() == start.Month(); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(time.DateOnly))
	}
	return out, nil
}
