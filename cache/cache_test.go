package cache

import (
	"testing"
	"time"

	"github.com/use-agent/sectionscope/models"
)

func TestKey(t *testing.T) {
	base := Key("https://example.com", false, "", false)
	variants := []string{
		Key("https://example.com/", false, "", false),
		Key("https://example.com", true, "", false),
		Key("https://example.com", false, "main", false),
		Key("https://example.com", false, "", true),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collides with base key", i)
		}
	}
	if Key("https://example.com", false, "", false) != base {
		t.Error("Key is not deterministic")
	}
}

func TestCache_GetSet(t *testing.T) {
	c := New(10)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	result := models.NewScrapeResult("https://example.com", clock)
	c.Set("k", result)

	tests := []struct {
		name    string
		advance time.Duration
		maxAge  int
		wantHit bool
	}{
		{"lookup disabled", 0, 0, false},
		{"fresh", 0, 1000, true},
		{"at limit", time.Second, 1000, true},
		{"expired", 2 * time.Second, 1000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.now = func() time.Time { return clock.Add(tt.advance) }
			got, hit := c.Get("k", tt.maxAge)
			if hit != tt.wantHit {
				t.Fatalf("hit = %v, want %v", hit, tt.wantHit)
			}
			if hit && got != result {
				t.Error("cached result mismatch")
			}
		})
	}

	if _, hit := c.Get("missing", 1000); hit {
		t.Error("unexpected hit for missing key")
	}
}

func TestCache_Capacity(t *testing.T) {
	c := New(2)
	r := &models.ScrapeResult{}
	c.Set("a", r)
	c.Set("b", r)
	c.Set("a", r) // overwrite does not evict
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	c.Set("c", r)
	if c.Len() != 2 {
		t.Errorf("Len = %d after eviction, want 2", c.Len())
	}
	if _, hit := c.Get("c", 60000); !hit {
		t.Error("newest entry should be present")
	}
}

func TestCache_Disabled(t *testing.T) {
	c := New(0)
	c.Set("a", &models.ScrapeResult{})
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestCache_EvictOlderThan(t *testing.T) {
	c := New(10)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return start }
	c.Set("old", &models.ScrapeResult{})
	c.now = func() time.Time { return start.Add(2 * time.Hour) }
	c.Set("new", &models.ScrapeResult{})

	c.evictOlderThan(start.Add(time.Hour))
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
	if _, hit := c.Get("new", int(time.Hour/time.Millisecond)); !hit {
		t.Error("new entry should survive")
	}
}
