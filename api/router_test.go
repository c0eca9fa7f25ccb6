package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/use-agent/sectionscope/config"
	"github.com/use-agent/sectionscope/models"
	"github.com/use-agent/sectionscope/pipeline"
)

type stubScraper struct{}

func (stubScraper) Run(_ context.Context, pageURL string, _ pipeline.Options) *models.ScrapeResult {
	return models.NewScrapeResult(pageURL, time.Now())
}

func testConfig(authEnabled bool) *config.Config {
	cfg := config.Load()
	cfg.Server.Mode = "test"
	cfg.Auth.Enabled = authEnabled
	cfg.Auth.APIKeys = []string{"secret"}
	return cfg
}

func TestNewRouter_Routes(t *testing.T) {
	r := NewRouter(testConfig(false), Services{Scraper: stubScraper{}, StoreName: "none", StartTime: time.Now()})

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/api/v1/health", "", http.StatusOK},
		{http.MethodPost, "/scrape", `{"url":"https://example.com"}`, http.StatusOK},
		{http.MethodPost, "/api/v1/scrape", `{"url":"https://example.com"}`, http.StatusOK},
		{http.MethodPost, "/scrape", `{"url":""}`, http.StatusBadRequest},
		{http.MethodGet, "/api/v1/scrapes", "", http.StatusOK},
		{http.MethodGet, "/api/v1/crawl", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, w.Code, tt.want)
		}
	}
}

func TestNewRouter_AuthSkipsHealth(t *testing.T) {
	r := NewRouter(testConfig(true), Services{Scraper: stubScraper{}, StartTime: time.Now()})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("healthz = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scrape", strings.NewReader(`{"url":"https://example.com"}`)))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("scrape without key = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/scrape", strings.NewReader(`{"url":"https://example.com"}`))
	req.Header.Set("X-API-Key", "secret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("scrape with key = %d, want 200", w.Code)
	}
}
