// Package store persists scrape summaries. Persistence is best-effort:
// callers go through Recorder and never see store failures.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/use-agent/sectionscope/config"
	"github.com/use-agent/sectionscope/models"
)

// DefaultRecentLimit and MaxRecentLimit bound history queries.
const (
	DefaultRecentLimit = 20
	MaxRecentLimit     = 100
)

// Store saves and lists summaries.
type Store interface {
	// Name identifies the backend ("postgres", "redis", "none").
	Name() string
	SaveSummary(ctx context.Context, s models.Summary) error
	// Recent returns summaries newest first. An empty url lists across all
	// URLs.
	Recent(ctx context.Context, url string, limit int) ([]models.Summary, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open connects to the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "none":
		return Nop{}, nil
	case "postgres":
		return NewPostgres(ctx, cfg.PostgresDSN)
	case "redis":
		return NewRedis(ctx, RedisConfig{
			Address:  cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	default:
		return nil, models.NewScrapeError(models.ErrCodeStore, models.PhaseServer,
			fmt.Sprintf("unknown store backend %q", cfg.Backend), nil)
	}
}

// clampLimit maps a requested limit onto [1, MaxRecentLimit].
func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultRecentLimit
	case limit > MaxRecentLimit:
		return MaxRecentLimit
	default:
		return limit
	}
}

// Nop discards summaries. It is used when persistence is disabled.
type Nop struct{}

func (Nop) Name() string                                      { return "none" }
func (Nop) SaveSummary(context.Context, models.Summary) error { return nil }
func (Nop) Ping(context.Context) error                        { return nil }
func (Nop) Close() error                                      { return nil }

func (Nop) Recent(context.Context, string, int) ([]models.Summary, error) {
	return []models.Summary{}, nil
}
