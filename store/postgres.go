package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/use-agent/sectionscope/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS scrape_summaries (
	id              BIGSERIAL PRIMARY KEY,
	url             TEXT        NOT NULL,
	scraped_at      TIMESTAMPTZ NOT NULL,
	meta            JSONB       NOT NULL,
	sections_count  INTEGER     NOT NULL,
	errors          JSONB       NOT NULL,
	dom_fingerprint TEXT        NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_scrape_summaries_url ON scrape_summaries (url);
CREATE INDEX IF NOT EXISTS idx_scrape_summaries_scraped_at ON scrape_summaries (scraped_at DESC);
`

// Postgres stores summaries in the scrape_summaries table.
type Postgres struct {
	Pool *pgxpool.Pool
}

// NewPostgres connects with dsn and creates the schema if needed.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, models.NewScrapeError(models.ErrCodeStore, models.PhaseServer,
			"postgres DSN is required", nil)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Postgres{Pool: pool}, nil
}

func (db *Postgres) Name() string { return "postgres" }

// SaveSummary inserts one summary row.
func (db *Postgres) SaveSummary(ctx context.Context, s models.Summary) error {
	meta, errs, err := encodeColumns(s)
	if err != nil {
		return err
	}

	_, err = db.Pool.Exec(ctx,
		`INSERT INTO scrape_summaries (url, scraped_at, meta, sections_count, errors, dom_fingerprint)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.URL, s.ScrapedAt, meta, s.SectionsCount, errs, s.DOMFingerprint,
	)
	if err != nil {
		return fmt.Errorf("failed to insert summary: %w", err)
	}
	return nil
}

// Recent lists summaries newest first, optionally for one URL.
func (db *Postgres) Recent(ctx context.Context, url string, limit int) ([]models.Summary, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT url, scraped_at, meta, sections_count, errors, dom_fingerprint, created_at, updated_at
		 FROM scrape_summaries
		 WHERE $1 = '' OR url = $1
		 ORDER BY scraped_at DESC
		 LIMIT $2`,
		url, clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer rows.Close()

	summaries := []models.Summary{}
	for rows.Next() {
		var (
			s          models.Summary
			meta, errs []byte
		)
		if err := rows.Scan(
			&s.URL,
			&s.ScrapedAt,
			&meta,
			&s.SectionsCount,
			&errs,
			&s.DOMFingerprint,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		if err := decodeColumns(&s, meta, errs); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate summaries: %w", err)
	}
	return summaries, nil
}

func (db *Postgres) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

func (db *Postgres) Close() error {
	db.Pool.Close()
	return nil
}

// encodeColumns serializes the JSONB columns of a summary.
func encodeColumns(s models.Summary) (meta, errs []byte, err error) {
	if s.Errors == nil {
		s.Errors = []models.PhaseError{}
	}
	meta, err = json.Marshal(s.Meta)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode meta: %w", err)
	}
	errs, err = json.Marshal(s.Errors)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode errors: %w", err)
	}
	return meta, errs, nil
}

func decodeColumns(s *models.Summary, meta, errs []byte) error {
	if err := json.Unmarshal(meta, &s.Meta); err != nil {
		return fmt.Errorf("failed to decode meta: %w", err)
	}
	if err := json.Unmarshal(errs, &s.Errors); err != nil {
		return fmt.Errorf("failed to decode errors: %w", err)
	}
	if s.Errors == nil {
		s.Errors = []models.PhaseError{}
	}
	return nil
}

var _ Store = (*Postgres)(nil)
