package fixtures

import (
	"context"
	"time"

	"github.com/apexgp/paddock/models"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const cacheKey = "fixtures:all"

// Cache keeps the encoded fixtures list in redis so the marketing site
// doesn't hammer the database on every page load. A nil client disables
// caching entirely.
type Cache struct {
	Redis *redis.Client
	TTL   time.Duration
}

// Get returns the cached fixture list, or ok=false on miss or any
// redis error (callers fall through to the store).
func (c *Cache) Get(ctx context.Context) ([]models.Fixture, bool) {
	if c == nil || c.Redis == nil {
		return nil, false
	}
	payload, err := c.Redis.Get(ctx, cacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var fixtures []models.Fixture
	if err := json.Unmarshal(payload, &fixtures); err != nil {
		return nil, false
	}
	return fixtures, true
}

// Set stores the fixture list. Failures are ignored: the cache is an
// optimization, not a source of truth.
func (c *Cache) Set(ctx context.Context, fixtures []models.Fixture) {
	if c == nil || c.Redis == nil {
		return
	}
	payload, err := json.Marshal(fixtures)
	if err != nil {
		return
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c.Redis.Set(ctx, cacheKey, payload, ttl)
}

// Invalidate drops the cached list. Called on every admin write so the
// cache never outlives the last mutation.
func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil || c.Redis == nil {
		return
	}
	c.Redis.Del(ctx, cacheKey)
}
