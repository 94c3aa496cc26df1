package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// TextStore keeps the most recent essay text seen for each session.
type TextStore interface {
	// Last returns the stored text, or "" when the session has none.
	Last(ctx context.Context, sessionID string) (string, error)
	Save(ctx context.Context, sessionID, text string) error
	Delete(ctx context.Context, sessionID string) error
}

const redisKeyPrefix = "rewrite:last_text:"

// RedisTextStore keeps texts in Redis with a TTL.
type RedisTextStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTextStore creates a Redis-backed text store.
func NewRedisTextStore(client *redis.Client, ttl time.Duration) *RedisTextStore {
	return &RedisTextStore{client: client, ttl: ttl}
}

func (s *RedisTextStore) Last(ctx context.Context, sessionID string) (string, error) {
	text, err := s.client.Get(ctx, redisKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read last text: %w", err)
	}
	return text, nil
}

func (s *RedisTextStore) Save(ctx context.Context, sessionID, text string) error {
	if err := s.client.Set(ctx, redisKeyPrefix+sessionID, text, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save last text: %w", err)
	}
	return nil
}

func (s *RedisTextStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete last text: %w", err)
	}
	return nil
}

// MemoryTextStore keeps texts in process memory. Used when Redis is not configured.
type MemoryTextStore struct {
	cache *gocache.Cache
}

// NewMemoryTextStore creates an in-memory text store whose entries expire after ttl.
func NewMemoryTextStore(ttl time.Duration) *MemoryTextStore {
	return &MemoryTextStore{cache: gocache.New(ttl, ttl/2+time.Minute)}
}

func (s *MemoryTextStore) Last(_ context.Context, sessionID string) (string, error) {
	if v, ok := s.cache.Get(sessionID); ok {
		return v.(string), nil
	}
	return "", nil
}

func (s *MemoryTextStore) Save(_ context.Context, sessionID, text string) error {
	s.cache.SetDefault(sessionID, text)
	return nil
}

func (s *MemoryTextStore) Delete(_ context.Context, sessionID string) error {
	s.cache.Delete(sessionID)
	return nil
}

var (
	_ TextStore = (*RedisTextStore)(nil)
	_ TextStore = (*MemoryTextStore)(nil)
)
