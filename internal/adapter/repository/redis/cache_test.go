package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

// redisFixture starts an in-process server and a client closed with the test.
func redisFixture(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestCache_StoresReportFigureUnderNamespace(t *testing.T) {
	client, mr := redisFixture(t)
	cache := NewCache(client, "ledger-test")
	ctx := context.Background()

	if err := cache.Set(ctx, "report:sum:acc-1", []byte("150.25"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, err := mr.Get("ledger-test:cache:report:sum:acc-1")
	if err != nil || got != "150.25" {
		t.Fatalf("raw key = %q, %v", got, err)
	}

	val, err := cache.Get(ctx, "report:sum:acc-1")
	if err != nil || string(val) != "150.25" {
		t.Fatalf("get = %q, %v", val, err)
	}
}

func TestCache_EmptyNamespaceFallsBackToDefault(t *testing.T) {
	client, mr := redisFixture(t)

	if err := NewCache(client, "").Set(context.Background(), "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if !mr.Exists(DefaultNamespace + ":cache:k") {
		t.Fatalf("expected key under %s, have %v", DefaultNamespace, mr.Keys())
	}
}

func TestCache_MissAndExpiry(t *testing.T) {
	client, mr := redisFixture(t)
	cache := NewCache(client, "")
	ctx := context.Background()

	if val, err := cache.Get(ctx, "absent"); err != nil || val != nil {
		t.Fatalf("expected nil, nil on miss, got %q %v", val, err)
	}

	if err := cache.Set(ctx, "closed-range", []byte("900"), time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	mr.FastForward(2 * time.Second)

	if val, err := cache.Get(ctx, "closed-range"); err != nil || val != nil {
		t.Fatalf("expected expired figure to miss, got %q %v", val, err)
	}
}

func TestCache_RefusesUnboundedTTL(t *testing.T) {
	client, mr := redisFixture(t)

	if err := NewCache(client, "").Set(context.Background(), "forever", []byte("1"), 0); err == nil {
		t.Fatalf("expected zero ttl to be refused")
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("expected nothing written, have %v", mr.Keys())
	}
}

func TestCache_Delete(t *testing.T) {
	client, _ := redisFixture(t)
	cache := NewCache(client, "")
	ctx := context.Background()

	if err := cache.Set(ctx, "stale", []byte("10"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := cache.Delete(ctx, "stale"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if val, _ := cache.Get(ctx, "stale"); val != nil {
		t.Fatalf("expected deleted key to miss, got %q", val)
	}
}

func TestCache_ServerDownSurfacesError(t *testing.T) {
	client, mr := redisFixture(t)
	mr.Close()

	if _, err := NewCache(client, "").Get(context.Background(), "any"); err == nil {
		t.Fatalf("expected error when redis is down")
	}
}
