package fixtures

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/apexgp/paddock/models"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return &Cache{Redis: client, TTL: time.Minute}
}

func TestCacheRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	if _, ok := cache.Get(ctx); ok {
		t.Fatal("cold cache reported a hit")
	}

	fixtures := []models.Fixture{{UUID: "abc", Round: 1, Location: "Spa"}}
	cache.Set(ctx, fixtures)
	cached, ok := cache.Get(ctx)
	if !ok {
		t.Fatal("warm cache missed")
	}
	if len(cached) != 1 || cached[0].Location != "Spa" {
		t.Errorf("cached = %+v", cached)
	}

	cache.Invalidate(ctx)
	if _, ok := cache.Get(ctx); ok {
		t.Error("invalidated cache reported a hit")
	}
}

func TestCacheCorruptPayloadIsMiss(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	if err := cache.Redis.Set(ctx, cacheKey, "not json", time.Minute).Err(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, ok := cache.Get(ctx); ok {
		t.Error("corrupt payload reported a hit")
	}
}

// A warm cache answers even when the database is gone; dropping the key
// sends the next read back to the store.
func TestListServesFromCacheUntilInvalidated(t *testing.T) {
	env := newTestEnv(t)
	env.service.Cache = newTestCache(t)
	env.seedFixture(t, 1, time.Date(2026, 3, 8, 14, 0, 0, 0, time.UTC), "Khartoum")

	if resp, body := doGet(t, env, "/api/fixtures"); resp.StatusCode != http.StatusOK {
		t.Fatalf("warmup = %d (%s)", resp.StatusCode, body)
	}

	env.db.Close()
	if resp, _ := doGet(t, env, "/api/fixtures"); resp.StatusCode != http.StatusOK {
		t.Errorf("cached read = %d, want 200", resp.StatusCode)
	}

	env.service.Cache.Invalidate(context.Background())
	if resp, _ := doGet(t, env, "/api/fixtures"); resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("post-invalidate read = %d, want 500", resp.StatusCode)
	}
}
