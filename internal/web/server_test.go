package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JonMunkholm/qualityfeed/internal/config"
	"github.com/JonMunkholm/qualityfeed/internal/core"
	_ "github.com/JonMunkholm/qualityfeed/internal/core/feeds"
	"github.com/JonMunkholm/qualityfeed/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dayFile = "id;placa;nf;cliente;fornecedor;peso;cor;pol;umi;cin;ri\n" +
	"1;AAA1111;10;CLI;USI;10;1000;99,2;0,1;0,1;100\n" +
	"2;BBB2222;11;CLI;USI;20;1300;99,2;0,1;0,1;100\n" +
	"3;CCC3333;12;CLI;USI;30;1000;99,2;0,1;0,1;600\n" +
	"4;DDD4444;;CLI;USI;5;1000;99,2;0,1;0,1;100\n" +
	"5;;13;CLI;USI;5;1000;99,2;0,1;0,1;100\n"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second},
		Rate:   config.RateLimitConfig{Enabled: false},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "unit"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "unit", "2025-03-14.csv"), []byte(dayFile), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "unit", "2025-03-15.csv"), []byte(dayFile), 0o644))

	svc := core.NewService(source.NewDir(root), core.Options{})
	s := NewServer(svc, cfg)
	t.Cleanup(func() { _ = s.Shutdown(t.Context()) })
	return s
}

func get(t *testing.T, s *Server, path string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := get(t, s, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, core.DefaultMaxConcurrentFetches, body.Limiter.MaxConcurrent)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestListFeeds(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := get(t, s, "/api/feeds")
	require.Equal(t, http.StatusOK, rec.Code)

	var feeds []FeedInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feeds))
	require.Len(t, feeds, 2)
	assert.Equal(t, "unit", feeds[0].Key)
	assert.Equal(t, core.KindVessel, feeds[1].Kind)
}

func TestDayUnits(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/api/feeds/unit/days/2025-03-14/units")
	require.Equal(t, http.StatusOK, rec.Code)
	var all UnitsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Equal(t, core.FilterAll, all.Filter)
	assert.Equal(t, 5, all.TotalRows)
	assert.Len(t, all.Units, 4)
	require.Len(t, all.Skipped, 1)
	assert.Equal(t, 6, all.Skipped[0].Line)

	rec = get(t, s, "/api/feeds/unit/days/2025-03-14/units?status=rejected")
	require.Equal(t, http.StatusOK, rec.Code)
	var rejected UnitsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rejected))
	require.Len(t, rejected.Units, 1)
	assert.Equal(t, "3", rejected.Units[0].ID)
	assert.Equal(t, core.StatusRejected, rejected.Units[0].Status)
}

func TestDaySummary(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := get(t, s, "/api/feeds/unit/days/2025-03-14/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var report core.DayReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	sum := report.Summary
	assert.Equal(t, 4, sum.Count)
	assert.InDelta(t, 65.0, sum.Tonnage, 1e-9)
	assert.Equal(t, 1, sum.Approved)
	assert.Equal(t, 1, sum.Apurado)
	assert.Equal(t, 1, sum.Rejected)
	assert.Equal(t, 1, sum.Incomplete)
	assert.Len(t, report.Averages, len(core.Metrics))
}

func TestMonthSummary(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := get(t, s, "/api/feeds/unit/months/2025-03/summary?status=approved")
	require.Equal(t, http.StatusOK, rec.Code)

	var ms core.MonthSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ms))
	assert.Equal(t, "Março 2025", ms.Label)
	require.Len(t, ms.Days, 2)
	assert.Equal(t, "2025-03-14", ms.Days[0].Date)
	assert.Equal(t, 2, ms.Total.Count)
	assert.Equal(t, 2, ms.Total.Approved)
}

func TestAPIErrors(t *testing.T) {
	s := newTestServer(t, testConfig())

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"unknown feed", "/api/feeds/barge/days/2025-03-14/units", http.StatusNotFound, "FEED002"},
		{"missing day", "/api/feeds/unit/days/2025-03-16/summary", http.StatusNotFound, "FEED001"},
		{"bad date", "/api/feeds/unit/days/14-03-2025/units", http.StatusBadRequest, "FEED003"},
		{"bad month", "/api/feeds/unit/months/2025-13/summary", http.StatusBadRequest, "FEED003"},
		{"unknown feed month", "/api/feeds/barge/months/2025-03/summary", http.StatusNotFound, "FEED002"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.path)
			require.Equal(t, tt.status, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Action)
		})
	}
}

func TestDayPage(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/feeds/unit/days/2025-03-14?status=apurado")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "BBB2222")
	assert.NotContains(t, body, "AAA1111")
	assert.Contains(t, body, "1 malformed rows skipped")
}

func TestDayPage_NotFoundRendersHTML(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := get(t, s, "/feeds/unit/days/2025-03-20")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "FEED001")
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestIndexPage(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := get(t, s, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Trucks")
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}}
	s := newTestServer(t, cfg)

	assert.Equal(t, http.StatusUnauthorized, get(t, s, "/api/feeds").Code)
	assert.Equal(t, http.StatusOK, get(t, s, "/api/feeds", "X-API-Key", "secret").Code)
	assert.Equal(t, http.StatusOK, get(t, s, "/healthz").Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}
	s := newTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, get(t, s, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(t, s, "/healthz").Code)
	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrUnknownFeed, http.StatusNotFound},
		{core.ErrFeedNotFound, http.StatusNotFound},
		{core.ErrInvalidDate, http.StatusBadRequest},
		{core.ErrTooManyFetches, http.StatusServiceUnavailable},
		{core.ErrFetchFailed, http.StatusBadGateway},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestDayRedirect(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/feeds/unit/days?date=2025-03-14")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/feeds/unit/days/2025-03-14", rec.Header().Get("Location"))

	rec = get(t, s, "/feeds/unit/days?date=tomorrow")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
