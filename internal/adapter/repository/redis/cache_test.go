package redis

import (
	"context"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

func TestCacheSetAndGet(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client, nil)
	ctx := context.Background()

	if err := cache.Set(ctx, "summary:2025", `{"exercise":2025}`, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	val, err := cache.Get(ctx, "summary:2025")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if val != `{"exercise":2025}` {
		t.Fatalf("unexpected value: %s", val)
	}
}

func TestCacheGetMiss(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client, nil)

	if _, err := cache.Get(context.Background(), "absent"); err != redislib.Nil {
		t.Fatalf("expected redis.Nil on miss, got %v", err)
	}
}

func TestCacheExpiry(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client, nil)
	ctx := context.Background()

	if err := cache.Set(ctx, "summary:2025", "stale", 30*time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	mr.FastForward(31 * time.Second)

	if _, err := cache.Get(ctx, "summary:2025"); err != redislib.Nil {
		t.Fatalf("expected expired key to miss, got %v", err)
	}
}

func TestCacheDelete(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client, nil)
	ctx := context.Background()

	if err := cache.Set(ctx, "summary:2025", "cached", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	if err := cache.Delete(ctx, "summary:2025"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := cache.Get(ctx, "summary:2025"); err != redislib.Nil {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}
