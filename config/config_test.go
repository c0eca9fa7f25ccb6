package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Scraper.NavigationTimeout != 60*time.Second {
		t.Errorf("NavigationTimeout = %v, want 60s", cfg.Scraper.NavigationTimeout)
	}
	if cfg.Scraper.TabDelay != 1500*time.Millisecond {
		t.Errorf("TabDelay = %v, want 1.5s", cfg.Scraper.TabDelay)
	}
	if cfg.Scraper.UserAgent != DefaultUserAgent {
		t.Errorf("UserAgent = %q, want default", cfg.Scraper.UserAgent)
	}
	if cfg.Store.Backend != "none" {
		t.Errorf("Store.Backend = %q, want none", cfg.Store.Backend)
	}
	if !reflect.DeepEqual(cfg.Server.CORSOrigins, []string{"*"}) {
		t.Errorf("CORSOrigins = %v, want [*]", cfg.Server.CORSOrigins)
	}
	if !cfg.Browser.Enabled {
		t.Error("Browser.Enabled should default to true")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SECTIONSCOPE_PORT", "9090")
	t.Setenv("SECTIONSCOPE_RENDER_ENABLED", "false")
	t.Setenv("SECTIONSCOPE_PROBE_TIMEOUT", "250ms")
	t.Setenv("SECTIONSCOPE_API_KEYS", " a, ,b ")
	t.Setenv("SECTIONSCOPE_MAX_REDIRECTS", "not-a-number")
	t.Setenv("SECTIONSCOPE_FETCH_HEADERS", "Accept-Language=de-DE")
	t.Setenv("SECTIONSCOPE_RENDER_HEADERS", "X-Debug=1, Accept-Language = fr-FR")

	cfg := Load()

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Browser.Enabled {
		t.Error("Browser.Enabled should be false")
	}
	if cfg.Scraper.ProbeTimeout != 250*time.Millisecond {
		t.Errorf("ProbeTimeout = %v, want 250ms", cfg.Scraper.ProbeTimeout)
	}
	if !reflect.DeepEqual(cfg.Auth.APIKeys, []string{"a", "b"}) {
		t.Errorf("APIKeys = %v, want [a b]", cfg.Auth.APIKeys)
	}
	if cfg.Fetch.MaxRedirects != 5 {
		t.Errorf("MaxRedirects = %d, want fallback 5", cfg.Fetch.MaxRedirects)
	}
	if !reflect.DeepEqual(cfg.Fetch.Headers, map[string]string{"Accept-Language": "de-DE"}) {
		t.Errorf("Fetch.Headers = %v", cfg.Fetch.Headers)
	}
	want := map[string]string{"X-Debug": "1", "Accept-Language": "fr-FR"}
	if !reflect.DeepEqual(cfg.Scraper.ExtraHeaders, want) {
		t.Errorf("Scraper.ExtraHeaders = %v, want %v", cfg.Scraper.ExtraHeaders, want)
	}
}

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		in   string
		want map[string]string
	}{
		{"A=1", map[string]string{"A": "1"}},
		{"A=1,B=x=y", map[string]string{"A": "1", "B": "x=y"}},
		{" A = 1 , =skipped, ,C", map[string]string{"A": "1", "C": ""}},
	}
	for _, tt := range tests {
		if got := parseHeaders(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseHeaders(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
