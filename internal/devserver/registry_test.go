package devserver

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryRegistry_Expiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 20, 0, 0, 0, time.UTC)
	reg := NewMemoryRegistry(func() time.Time { return now })
	ctx := context.Background()

	if err := reg.Add(ctx, 1, "a", 3*time.Minute); err != nil {
		t.Fatalf("Add: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if ok, _ := reg.Touch(ctx, 1, "a", 3*time.Minute); !ok {
		t.Fatal("Touch before expiry reported dead session")
	}

	now = now.Add(2 * time.Minute)
	if live, _ := reg.Live(ctx, 1); live != 1 {
		t.Fatalf("Live = %d after touch, want 1", live)
	}

	now = now.Add(time.Minute)
	if live, _ := reg.Live(ctx, 1); live != 0 {
		t.Fatalf("Live = %d after expiry, want 0", live)
	}
	if ok, _ := reg.Touch(ctx, 1, "a", 3*time.Minute); ok {
		t.Fatal("Touch revived an expired session")
	}
}

func TestMemoryRegistry_RemoveAll(t *testing.T) {
	reg := NewMemoryRegistry(nil)
	ctx := context.Background()

	_ = reg.Add(ctx, 1, "a", time.Minute)
	_ = reg.Add(ctx, 1, "b", time.Minute)
	_ = reg.Add(ctx, 2, "c", time.Minute)

	_ = reg.Remove(ctx, 1, "a")
	if live, _ := reg.Live(ctx, 1); live != 1 {
		t.Fatalf("Live = %d, want 1", live)
	}
	_ = reg.RemoveAll(ctx, 1)
	if live, _ := reg.Live(ctx, 1); live != 0 {
		t.Fatalf("Live = %d, want 0", live)
	}
	if live, _ := reg.Live(ctx, 2); live != 1 {
		t.Fatalf("other user Live = %d, want 1", live)
	}
}

func newRedisRegistry(t *testing.T) (*RedisRegistry, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	reg, err := NewRedisRegistry("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisRegistry: %v", err)
	}
	t.Cleanup(func() { _ = reg.Close() })
	return reg, mr
}

func TestRedisRegistry_TTL(t *testing.T) {
	reg, mr := newRedisRegistry(t)
	ctx := context.Background()

	if err := reg.Add(ctx, 7, "jti-1", 3*time.Minute); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !mr.Exists("sommelier:session:7:jti-1") {
		t.Fatalf("session key missing, keys = %v", mr.Keys())
	}

	mr.FastForward(2 * time.Minute)
	ok, err := reg.Touch(ctx, 7, "jti-1", 3*time.Minute)
	if err != nil || !ok {
		t.Fatalf("Touch = %v, %v; want true", ok, err)
	}

	mr.FastForward(2 * time.Minute)
	if live, _ := reg.Live(ctx, 7); live != 1 {
		t.Fatalf("Live = %d after touch, want 1", live)
	}

	mr.FastForward(2 * time.Minute)
	if live, _ := reg.Live(ctx, 7); live != 0 {
		t.Fatalf("Live = %d after expiry, want 0", live)
	}
	ok, err = reg.Touch(ctx, 7, "jti-1", 3*time.Minute)
	if err != nil || ok {
		t.Fatalf("Touch on expired = %v, %v; want false", ok, err)
	}
}

func TestRedisRegistry_RemoveAllKeepsOtherUsers(t *testing.T) {
	reg, _ := newRedisRegistry(t)
	ctx := context.Background()

	_ = reg.Add(ctx, 1, "a", time.Minute)
	_ = reg.Add(ctx, 1, "b", time.Minute)
	_ = reg.Add(ctx, 11, "c", time.Minute)

	if err := reg.Remove(ctx, 1, "a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if live, _ := reg.Live(ctx, 1); live != 1 {
		t.Fatalf("Live = %d, want 1", live)
	}
	if err := reg.RemoveAll(ctx, 1); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	if live, _ := reg.Live(ctx, 1); live != 0 {
		t.Fatalf("Live = %d, want 0", live)
	}
	// User 11 shares the digit prefix but not the key prefix.
	if live, _ := reg.Live(ctx, 11); live != 1 {
		t.Fatalf("user 11 Live = %d, want 1", live)
	}
	if err := reg.RemoveAll(ctx, 1); err != nil {
		t.Fatalf("RemoveAll on empty: %v", err)
	}
}

func TestNewRedisRegistry_Errors(t *testing.T) {
	if _, err := NewRedisRegistry("not a url"); err == nil {
		t.Fatal("expected parse error")
	}

	if _, err := NewRedisRegistry("redis://127.0.0.1:1"); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestRedisRegistry_WithClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	reg := NewRedisRegistryWithClient(client)
	t.Cleanup(func() { _ = reg.Close() })

	if err := reg.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
