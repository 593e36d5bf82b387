// Package redis caches extracted personality profiles in Redis.
package redis

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ayutada/bluesky-analyzer/internal/config"
	"github.com/Ayutada/bluesky-analyzer/internal/domain"
)

const profilePrefix = "mbti-rag:profile:"

// DefaultTTL applies when a non-positive TTL is given.
const DefaultTTL = 30 * time.Minute

// ProfileCache stores profiles keyed by language and a digest of the input text.
type ProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProfileCache wraps an existing client.
func NewProfileCache(client *redis.Client, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ProfileCache{client: client, ttl: ttl}
}

// NewClient builds a client from configuration and checks connectivity.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: os.Getenv(cfg.PasswordEnv),
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Key returns the cache key for text in lang.
func Key(lang domain.Language, text string) string {
	sum := md5.Sum([]byte(text))
	return profilePrefix + string(lang) + ":" + hex.EncodeToString(sum[:])
}

// Get returns the cached profile, with ok=false on a miss.
func (c *ProfileCache) Get(ctx context.Context, lang domain.Language, text string) (domain.PersonalityProfile, bool, error) {
	data, err := c.client.Get(ctx, Key(lang, text)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.PersonalityProfile{}, false, nil
	}
	if err != nil {
		return domain.PersonalityProfile{}, false, fmt.Errorf("failed to get profile: %w", err)
	}
	var p domain.PersonalityProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.PersonalityProfile{}, false, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return p, true, nil
}

// Set stores p for text. Fallback profiles are skipped.
func (c *ProfileCache) Set(ctx context.Context, text string, p domain.PersonalityProfile) error {
	if p.IsUnknown() {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := c.client.Set(ctx, Key(p.Language, text), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
