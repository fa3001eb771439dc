package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codir/internal/browser"
	"codir/internal/company"
	"codir/internal/logging"
	"codir/internal/scraper"
)

type stubScraper struct {
	mu    sync.Mutex
	set   *company.RecordSet
	err   error
	calls []scraper.Request
}

func (s *stubScraper) Scrape(ctx context.Context, req scraper.Request) (*company.RecordSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	return s.set, s.err
}

func airbnbSet() *company.RecordSet {
	website := "https://www.airbnb.com"
	set := company.NewRecordSet(1)
	set.Add(company.Record{
		Name:        "Airbnb",
		Location:    "San Francisco, CA",
		Description: "Vacation rentals platform",
		Batch:       "S09",
		Website:     &website,
		Founders:    []company.Founder{{Name: "Brian Chesky", LinkedIn: "https://www.linkedin.com/in/brianchesky"}},
	})
	return set
}

func newRouter(s Scraper) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logging.Discard()
	return SetupRouter(logger, NewHandler(s, 1, logger), prometheus.NewRegistry())
}

func get(t *testing.T, r http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, target, nil)
	require.NoError(t, err)
	r.ServeHTTP(w, req)
	return w
}

func search(input string) string {
	return "/companies/search_data?search_input=" + url.QueryEscape(input)
}

func TestSearchDataWithoutInput(t *testing.T) {
	s := &stubScraper{}
	w := get(t, newRouter(s), "/companies/search_data")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, s.calls)
}

func TestSearchDataInvalidCount(t *testing.T) {
	s := &stubScraper{}
	w := get(t, newRouter(s), search(`{"n": 0, "filters": {"industry": "tech"}}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please enter value of n greater than 0", w.Body.String())
	assert.Empty(t, s.calls)
}

func TestSearchDataInvalidJSON(t *testing.T) {
	s := &stubScraper{}
	w := get(t, newRouter(s), search(`{"n": 1, "filters": {"industry": "tech"`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please enter valid JSON format", w.Body.String())
	assert.Empty(t, s.calls)
}

func TestSearchDataTimeout(t *testing.T) {
	s := &stubScraper{err: scraper.TimeoutError(browser.ErrWaitTimeout)}
	w := get(t, newRouter(s), search(`{"n": 1, "filters": {"industry": "tech"}}`))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No data found", w.Body.String())
}

func TestSearchDataEmptyResult(t *testing.T) {
	s := &stubScraper{set: company.NewRecordSet(1)}
	w := get(t, newRouter(s), search(`{"n": 1}`))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No data found", w.Body.String())
}

func TestSearchDataOtherFailure(t *testing.T) {
	s := &stubScraper{err: scraper.BrowserError("failed to open browser session", errors.New("no chromium"))}
	w := get(t, newRouter(s), search(`{"n": 1}`))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "failed to open browser session", w.Body.String())
}

func TestSearchDataCSVDownload(t *testing.T) {
	s := &stubScraper{set: airbnbSet()}
	w := get(t, newRouter(s), search(`{"n": 1, "filters": {"industry": "tech"}}`))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Equal(t, `attachment; filename="companies_data.csv"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "Company Name,Location,Description,Batch,Website,Founder,LinkedIn\n"))
	assert.Contains(t, w.Body.String(), "Brian Chesky")

	require.Len(t, s.calls, 1)
	assert.Equal(t, 1, s.calls[0].Count)
	assert.Equal(t, "industry=tech", s.calls[0].Query())
}

func TestSearchDataJSON(t *testing.T) {
	s := &stubScraper{set: airbnbSet()}
	w := get(t, newRouter(s), search(`{"count": 1}`)+"&format=json")

	require.Equal(t, http.StatusOK, w.Code)
	var recs []company.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "Airbnb", recs[0].Name)
}

func TestSearchDataPostBody(t *testing.T) {
	s := &stubScraper{set: airbnbSet()}
	r := newRouter(s)

	w := httptest.NewRecorder()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, "/companies/search_data", strings.NewReader(`{"count": 1}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, s.calls, 1)
}

func TestSearchDataUnsupportedFormat(t *testing.T) {
	w := get(t, newRouter(&stubScraper{}), search(`{"count": 1}`)+"&format=xml")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	r := newRouter(&stubScraper{})

	w := get(t, r, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	w = get(t, r, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSearchDataBusy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := logging.Discard()
	h := NewHandler(&stubScraper{set: airbnbSet()}, 1, logger)
	r := SetupRouter(logger, h, prometheus.NewRegistry())

	require.True(t, h.sessions.TryAcquire(1))
	defer h.sessions.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := httptest.NewRecorder()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, search(`{"count": 1}`), nil)
	require.NoError(t, err)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequestID(t *testing.T) {
	r := newRouter(&stubScraper{})

	w := get(t, r, "/health")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "abc-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}
