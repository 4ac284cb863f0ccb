// internal/cache/draft_cache.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bizcore/bizcore-backend/internal/config"
)

// ErrDraftNotFound is returned when no cached draft exists for a key.
var ErrDraftNotFound = errors.New("cache: draft not found")

// DraftCache keeps wizard drafts hot in Redis so an abandoned session
// resumes without a database round trip. Postgres remains the durable
// copy; a cache miss just falls through to it.
type DraftCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDraftCache(cfg config.RedisConfig) (*DraftCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	return &DraftCache{
		client: rdb,
		ttl:    time.Duration(cfg.DraftTTL) * time.Hour,
	}, nil
}

// Ping tests the Redis connection.
func (c *DraftCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *DraftCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func draftKey(applicationID string) string {
	return "bizcore:draft:" + applicationID
}

// PutDraft stores a serialized application snapshot with the configured TTL.
func (c *DraftCache) PutDraft(ctx context.Context, applicationID string, snapshot interface{}) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	return c.client.Set(ctx, draftKey(applicationID), payload, c.ttl).Err()
}

// GetDraft loads a cached snapshot into dest. Returns ErrDraftNotFound on a
// miss so callers can fall back to the database.
func (c *DraftCache) GetDraft(ctx context.Context, applicationID string, dest interface{}) error {
	payload, err := c.client.Get(ctx, draftKey(applicationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrDraftNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read draft: %w", err)
	}
	return json.Unmarshal(payload, dest)
}

// DropDraft removes a cached draft, typically after submission.
func (c *DraftCache) DropDraft(ctx context.Context, applicationID string) error {
	return c.client.Del(ctx, draftKey(applicationID)).Err()
}
