package engine

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/use-agent/sectionscope/config"
)

func newTestEngine(t *testing.T, cfg config.FetchConfig) *HTTPEngine {
	t.Helper()
	e, err := NewHTTPEngine(cfg)
	if err != nil {
		t.Fatalf("NewHTTPEngine: %v", err)
	}
	return e
}

func TestHTTPEngine_Fetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><main>Hi</main></body></html>`)
	}))
	defer srv.Close()

	e := newTestEngine(t, config.FetchConfig{Timeout: 5 * time.Second, MaxRedirects: 5})
	res, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.FinalURL != srv.URL {
		t.Errorf("FinalURL = %q, want %q", res.FinalURL, srv.URL)
	}
	if !strings.Contains(res.HTML, "<main>Hi</main>") {
		t.Errorf("HTML = %q", res.HTML)
	}
	if res.StatusCode != http.StatusOK || res.EngineName != "http" {
		t.Errorf("StatusCode = %d, EngineName = %q", res.StatusCode, res.EngineName)
	}
	if gotUA != config.DefaultFetchUserAgent {
		t.Errorf("User-Agent = %q, want default", gotUA)
	}
}

func TestHTTPEngine_CustomHeaders(t *testing.T) {
	var gotLang, gotCustom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLang = r.Header.Get("Accept-Language")
		gotCustom = r.Header.Get("X-Custom")
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<p>ok</p>")
	}))
	defer srv.Close()

	e := newTestEngine(t, config.FetchConfig{
		MaxRedirects: 5,
		Headers:      map[string]string{"Accept-Language": "de-DE", "X-Custom": "yes"},
	})
	if _, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotLang != "de-DE" {
		t.Errorf("Accept-Language = %q, want de-DE", gotLang)
	}
	if gotCustom != "yes" {
		t.Errorf("X-Custom = %q, want yes", gotCustom)
	}
}

func TestHTTPEngine_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name: "error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "gone", http.StatusNotFound)
			},
			wantErr: "status code 404",
		},
		{
			name: "binary content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "image/png")
				w.Write([]byte{0x89, 0x50})
			},
			wantErr: "content-type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			e := newTestEngine(t, config.FetchConfig{MaxRedirects: 5})
			_, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestHTTPEngine_Redirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/hop/", func(w http.ResponseWriter, r *http.Request) {
		var n int
		fmt.Sscanf(strings.TrimPrefix(r.URL.Path, "/hop/"), "%d", &n)
		if n == 0 {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, "<p>landed</p>")
			return
		}
		http.Redirect(w, r, fmt.Sprintf("/hop/%d", n-1), http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	e := newTestEngine(t, config.FetchConfig{MaxRedirects: 5})

	res, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL + "/hop/5"})
	if err != nil {
		t.Fatalf("5 redirects should be followed: %v", err)
	}
	if res.FinalURL != srv.URL+"/hop/0" {
		t.Errorf("FinalURL = %q", res.FinalURL)
	}

	if _, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL + "/hop/6"}); err == nil {
		t.Error("6 redirects should fail")
	}
}

func TestHTTPEngine_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	e := newTestEngine(t, config.FetchConfig{Timeout: 50 * time.Millisecond, MaxRedirects: 5})
	start := time.Now()
	_, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Errorf("engine timeout was not applied, took %v", time.Since(start))
	}
}

func TestNewHTTPEngine_InvalidProxy(t *testing.T) {
	if _, err := NewHTTPEngine(config.FetchConfig{Proxy: "://bad"}); err == nil {
		t.Error("expected error for invalid proxy URL")
	}
}

func TestIsMarkupContentType(t *testing.T) {
	tests := []struct {
		ct   string
		want bool
	}{
		{"text/html; charset=utf-8", true},
		{"application/xhtml+xml", true},
		{"text/plain", true},
		{"", true},
		{"application/json", false},
		{"image/png", false},
	}
	for _, tt := range tests {
		if got := isMarkupContentType(tt.ct); got != tt.want {
			t.Errorf("isMarkupContentType(%q) = %v, want %v", tt.ct, got, tt.want)
		}
	}
}
