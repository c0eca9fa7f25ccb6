package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/use-agent/sectionscope/models"
)

// Key layout. Summaries live under summaryPrefix+id; the recent and
// per-URL sorted sets index ids by scrape time in milliseconds.
const (
	seqKey        = "scrapes:seq"
	recentKey     = "scrapes:recent"
	urlKeyPrefix  = "scrapes:url:"
	summaryPrefix = "scrapes:summary:"

	// maxIndexed bounds each index set.
	maxIndexed = 1000

	// summaryTTL expires payloads and per-URL indexes. Index entries that
	// outlive their payload are skipped on read.
	summaryTTL = 30 * 24 * time.Hour
)

// ErrEmptyAddress is returned when the Redis address is not configured.
var ErrEmptyAddress = errors.New("redis address is required")

// connectionTimeout is the timeout for verifying the Redis connection.
const connectionTimeout = 5 * time.Second

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// Redis stores summaries as JSON strings indexed by sorted sets.
type Redis struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedis connects and verifies the connection with a ping.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Redis{client: client, now: time.Now}, nil
}

func (r *Redis) Name() string { return "redis" }

// SaveSummary writes the summary and indexes it in one transaction.
func (r *Redis) SaveSummary(ctx context.Context, s models.Summary) error {
	now := r.now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	if s.Errors == nil {
		s.Errors = []models.PhaseError{}
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	id, err := r.client.Incr(ctx, seqKey).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate summary id: %w", err)
	}
	member := strconv.FormatInt(id, 10)
	score := float64(s.ScrapedAt.UnixMilli())

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, summaryPrefix+member, payload, summaryTTL)
		for _, key := range []string{recentKey, urlKeyPrefix + s.URL} {
			pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: member})
			pipe.ZRemRangeByRank(ctx, key, 0, -maxIndexed-1)
		}
		pipe.Expire(ctx, urlKeyPrefix+s.URL, summaryTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

// Recent lists summaries newest first. Index entries whose payload has
// gone missing are skipped.
func (r *Redis) Recent(ctx context.Context, url string, limit int) ([]models.Summary, error) {
	key := recentKey
	if url != "" {
		key = urlKeyPrefix + url
	}

	ids, err := r.client.ZRevRange(ctx, key, 0, int64(clampLimit(limit)-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	summaries := []models.Summary{}
	if len(ids) == 0 {
		return summaries, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = summaryPrefix + id
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read summaries: %w", err)
	}

	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var s models.Summary
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, fmt.Errorf("failed to decode summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

var _ Store = (*Redis)(nil)
