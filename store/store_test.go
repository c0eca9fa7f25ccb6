package store

import (
	"context"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/use-agent/sectionscope/config"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	for _, backend := range []string{"", "none", " NONE "} {
		s, err := Open(ctx, config.StoreConfig{Backend: backend})
		if err != nil {
			t.Fatalf("Open(%q): %v", backend, err)
		}
		if s.Name() != "none" {
			t.Errorf("Open(%q).Name() = %q, want none", backend, s.Name())
		}
	}

	if _, err := Open(ctx, config.StoreConfig{Backend: "sqlite"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := Open(ctx, config.StoreConfig{Backend: "postgres"}); err == nil {
		t.Error("expected error for postgres without DSN")
	}

	mr := miniredis.RunT(t)
	s, err := Open(ctx, config.StoreConfig{Backend: "redis", RedisAddr: mr.Addr()})
	if err != nil {
		t.Fatalf("Open(redis): %v", err)
	}
	defer s.Close()
	if s.Name() != "redis" {
		t.Errorf("Name() = %q, want redis", s.Name())
	}
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var n Nop
	if err := n.SaveSummary(ctx, summaryAt("https://a.example", 1)); err != nil {
		t.Errorf("SaveSummary: %v", err)
	}
	got, err := n.Recent(ctx, "", 10)
	if err != nil || got == nil || len(got) != 0 {
		t.Errorf("Recent = %v, %v; want empty slice", got, err)
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultRecentLimit},
		{-3, DefaultRecentLimit},
		{1, 1},
		{MaxRecentLimit, MaxRecentLimit},
		{MaxRecentLimit + 1, MaxRecentLimit},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.in); got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPostgres_SaveAndRecent(t *testing.T) {
	dsn := os.Getenv("SECTIONSCOPE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SECTIONSCOPE_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	db, err := NewPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	defer db.Close()

	url := "https://pg-test.example/" + t.Name()
	if _, err := db.Pool.Exec(ctx, `DELETE FROM scrape_summaries WHERE url = $1`, url); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	for i := 1; i <= 2; i++ {
		s := summaryAt(url, i)
		if err := db.SaveSummary(ctx, s); err != nil {
			t.Fatalf("SaveSummary: %v", err)
		}
	}

	got, err := db.Recent(ctx, url, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[0].SectionsCount != 2 || got[0].Meta.Title != url {
		t.Errorf("newest row = %+v", got[0])
	}
	if got[0].Errors == nil {
		t.Error("Errors should decode as an empty slice")
	}
}
