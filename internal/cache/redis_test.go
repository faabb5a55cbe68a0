package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, time.Hour), mr
}

func TestRedisPutGet(t *testing.T) {
	c, _ := newTestRedis(t)
	ctx := context.Background()

	if err := c.Put(ctx, "k1", "v1"); err != nil {
		t.Fatalf("put: %v", err)
	}
	v, ok, err := c.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || v != "v1" {
		t.Fatalf("got (%q, %v), want (v1, true)", v, ok)
	}
}

func TestRedisMissingKey(t *testing.T) {
	c, _ := newTestRedis(t)
	v, ok, err := c.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok || v != "" {
		t.Fatalf("got (%q, %v), want miss", v, ok)
	}
}

func TestRedisKeysAreNamespaced(t *testing.T) {
	c, mr := newTestRedis(t)
	if err := c.Put(context.Background(), "k2", "v2"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !mr.Exists("docflow:llm:k2") {
		t.Fatal("key not stored under the docflow:llm: prefix")
	}
}

func TestRedisEntriesExpire(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c := NewRedis(client, time.Minute)

	if err := c.Put(context.Background(), "k3", "v3"); err != nil {
		t.Fatalf("put: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	_, ok, err := c.Get(context.Background(), "k3")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("entry should have expired")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()
	if _, ok, _ := c.Get(ctx, "x"); ok {
		t.Fatal("unexpected hit on empty cache")
	}
	if err := c.Put(ctx, "x", "y"); err != nil {
		t.Fatalf("put: %v", err)
	}
	v, ok, _ := c.Get(ctx, "x")
	if !ok || v != "y" {
		t.Fatalf("got (%q, %v), want (y, true)", v, ok)
	}
}
