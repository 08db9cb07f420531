package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memorySource serves feed files from a map keyed by "feed/date".
type memorySource struct {
	mu      sync.Mutex
	files   map[string]string
	opens    atomic.Int64
	openErr  error
	openErrs map[string]error
}

func newMemorySource() *memorySource {
	return &memorySource{files: make(map[string]string)}
}

func (s *memorySource) put(feed, date, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[feed+"/"+date] = body
}

func (s *memorySource) Locate(_ context.Context, feed, date string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := feed + "/" + date
	if _, ok := s.files[ref]; !ok {
		return "", fmt.Errorf("%s: %w", ref, ErrFeedNotFound)
	}
	return ref, nil
}

func (s *memorySource) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	s.opens.Add(1)
	if s.openErr != nil {
		return nil, s.openErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.openErrs[ref]; err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(s.files[ref])), nil
}

const dayFile = "id;placa;nf;cliente;fornecedor;peso;cor;pol;umi;cin;ri\n" +
	"1;AAA1111;10;CLI;USI;10;1000;99,2;0,1;0,1;100\n" +
	"2;BBB2222;11;CLI;USI;20;1300;99,2;0,1;0,1;100\n" +
	"3;CCC3333;12;CLI;USI;30;1000;99,2;0,1;0,1;600\n" +
	"4;DDD4444;;CLI;USI;5;1000;99,2;0,1;0,1;100\n" +
	"5;;13;CLI;USI;5;1000;99,2;0,1;0,1;100\n"

func TestService_LoadDay(t *testing.T) {
	src := newMemorySource()
	src.put("test", "2025-03-14", dayFile)
	svc := NewService(src, Options{})

	day, err := svc.LoadDay(context.Background(), "test", "2025-03-14")
	require.NoError(t, err)

	assert.Equal(t, "test/2025-03-14", day.Ref)
	assert.Equal(t, ";", day.Delimiter)
	assert.Equal(t, 5, day.TotalRows)
	require.Len(t, day.Units, 4)
	require.Len(t, day.Skipped, 1)
	assert.Equal(t, 6, day.Skipped[0].Line)

	statuses := make([]Status, len(day.Units))
	for i, u := range day.Units {
		statuses[i] = u.Status
	}
	assert.Equal(t, []Status{StatusApproved, StatusApurado, StatusRejected, StatusApproved}, statuses)
	assert.False(t, day.Units[3].Complete, "missing invoice must be incomplete")
}

func TestService_LoadDay_Cached(t *testing.T) {
	src := newMemorySource()
	src.put("test", "2025-03-14", dayFile)
	svc := NewService(src, Options{})
	ctx := context.Background()

	first, err := svc.LoadDay(ctx, "test", "2025-03-14")
	require.NoError(t, err)
	second, err := svc.LoadDay(ctx, "test", "2025-03-14")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int64(1), src.opens.Load())
	assert.Equal(t, 1, svc.CachedEntries())

	assert.Equal(t, 1, svc.Invalidate("test/2025-03-14"))
	_, err = svc.LoadDay(ctx, "test", "2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, int64(2), src.opens.Load())
}

func TestService_LoadDay_Errors(t *testing.T) {
	src := newMemorySource()
	svc := NewService(src, Options{})
	ctx := context.Background()

	_, err := svc.LoadDay(ctx, "barge", "2025-03-14")
	assert.ErrorIs(t, err, ErrUnknownFeed)

	_, err = svc.LoadDay(ctx, "test", "14/03/2025")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = svc.LoadDay(ctx, "test", "2025-03-14")
	assert.ErrorIs(t, err, ErrFeedNotFound)

	src.put("test", "2025-03-15", dayFile)
	src.openErr = errors.New("disk on fire")
	_, err = svc.LoadDay(ctx, "test", "2025-03-15")
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.Equal(t, "FEED005", MapError(err).Code)
}

func TestService_LoadDays_SkipsMissingDates(t *testing.T) {
	src := newMemorySource()
	src.put("test", "2025-03-01", dayFile)
	src.put("test", "2025-03-03", dayFile)
	svc := NewService(src, Options{MaxConcurrent: 2})

	got, err := svc.LoadDays(context.Background(), "test", []string{"2025-03-01", "2025-03-02", "2025-03-03"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Contains(t, got, "2025-03-01")
	assert.Contains(t, got, "2025-03-03")
}

func TestService_LoadDays_SkipsUnreadableDates(t *testing.T) {
	src := newMemorySource()
	src.put("test", "2025-03-01", dayFile)
	src.put("test", "2025-03-02", dayFile)
	src.put("test", "2025-03-03", dayFile)
	src.openErrs = map[string]error{"test/2025-03-02": errors.New("502 bad gateway")}
	svc := NewService(src, Options{MaxConcurrent: 1})

	got, err := svc.LoadDays(context.Background(), "test", []string{"2025-03-01", "2025-03-02", "2025-03-03"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.NotContains(t, got, "2025-03-02")

	ms, err := svc.MonthReport(context.Background(), "test", "2025-03", FilterAll)
	require.NoError(t, err)
	require.Len(t, ms.Days, 2)
	assert.Equal(t, "2025-03-01", ms.Days[0].Date)
	assert.Equal(t, "2025-03-03", ms.Days[1].Date)
}

func TestService_LoadDays_FailsOnBadInput(t *testing.T) {
	svc := NewService(newMemorySource(), Options{})

	_, err := svc.LoadDays(context.Background(), "barge", []string{"2025-03-01"})
	assert.ErrorIs(t, err, ErrUnknownFeed)

	_, err = svc.LoadDays(context.Background(), "test", []string{"2025-03-01", "03/2025"})
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestService_DayReport(t *testing.T) {
	src := newMemorySource()
	src.put("test", "2025-03-14", dayFile)
	svc := NewService(src, Options{})

	rep, err := svc.DayReport(context.Background(), "test", "2025-03-14", FilterAll)
	require.NoError(t, err)
	assert.Equal(t, DaySummary{
		Date:       "2025-03-14",
		Count:      4,
		Tonnage:    65,
		Approved:   1,
		Apurado:    1,
		Rejected:   1,
		Incomplete: 1,
	}, rep.Summary)
	require.Len(t, rep.Averages, len(Metrics))

	rep, err = svc.DayReport(context.Background(), "test", "2025-03-14", FilterApurado)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Summary.Count)
	assert.InDelta(t, 1300, rep.Averages[0].Weighted.Float64, 1e-9)
}

func TestService_MonthReport(t *testing.T) {
	src := newMemorySource()
	src.put("test", "2025-02-03", dayFile)
	src.put("test", "2025-02-28", dayFile)
	svc := NewService(src, Options{})

	ms, err := svc.MonthReport(context.Background(), "test", "2025-02", FilterAll)
	require.NoError(t, err)
	assert.Equal(t, "Fevereiro 2025", ms.Label)
	require.Len(t, ms.Days, 2)
	assert.Equal(t, 8, ms.Total.Count)

	_, err = svc.MonthReport(context.Background(), "test", "Feb", FilterAll)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestDaysInMonth(t *testing.T) {
	days, err := DaysInMonth("2024-02")
	require.NoError(t, err)
	assert.Len(t, days, 29)
	assert.Equal(t, "2024-02-01", days[0])
	assert.Equal(t, "2024-02-29", days[28])
}

func TestService_WaitForLoads(t *testing.T) {
	svc := NewService(newMemorySource(), Options{})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, svc.WaitForLoads(ctx))
}
