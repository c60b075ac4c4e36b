package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), "redis://"+srv.Addr()+"/0")
	if err != nil {
		t.Fatalf("NewRedisCache() error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, srv
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestRedis(t)

	if _, ok, err := c.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v; want a clean miss", ok, err)
	}

	if err := c.Set(ctx, "layout:abc", []byte("frames"), time.Hour); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	data, ok, err := c.Get(ctx, "layout:abc")
	if err != nil || !ok || string(data) != "frames" {
		t.Fatalf("Get() = %q, %v, %v; want frames", data, ok, err)
	}
	if got := srv.TTL("layout:abc"); got != time.Hour {
		t.Errorf("server TTL = %v, want 1h", got)
	}

	if err := c.Delete(ctx, "layout:abc"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if srv.Exists("layout:abc") {
		t.Error("Delete() left the key on the server")
	}
	if err := c.Delete(ctx, "layout:abc"); err != nil {
		t.Errorf("Delete() of a missing key error: %v", err)
	}
}

func TestRedisCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestRedis(t)

	if err := c.Set(ctx, "short", []byte("x"), time.Minute); err != nil {
		t.Fatal(err)
	}
	srv.FastForward(2 * time.Minute)
	if _, ok, err := c.Get(ctx, "short"); err != nil || ok {
		t.Errorf("Get() after expiry = ok %v, err %v; want miss", ok, err)
	}
}

func TestRedisCacheNonPositiveTTL(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestRedis(t)

	tests := []struct {
		name string
		ttl  time.Duration
	}{
		{"zero", 0},
		{"negative", -time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Start from an expiring entry so a ttl that kept the old expiry
			// would show up as a non-zero TTL.
			if err := c.Set(ctx, "artifact", []byte("old"), time.Minute); err != nil {
				t.Fatal(err)
			}
			if err := c.Set(ctx, "artifact", []byte("new"), tt.ttl); err != nil {
				t.Fatalf("Set(ttl=%v) error: %v", tt.ttl, err)
			}
			if got := srv.TTL("artifact"); got != 0 {
				t.Errorf("server TTL = %v, want no expiry", got)
			}
			srv.FastForward(time.Hour)
			data, ok, err := c.Get(ctx, "artifact")
			if err != nil || !ok || string(data) != "new" {
				t.Errorf("Get() = %q, %v, %v; want the entry to persist", data, ok, err)
			}
		})
	}
}

func TestRedisCacheFromClientScoped(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestRedis(t)
	shared := NewRedisCacheFromClient(c.client)

	if err := shared.Set(ctx, "atlaspack:layout:1", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if got, err := srv.Get("atlaspack:layout:1"); err != nil || got != "v" {
		t.Errorf("server value = %q, %v; want v", got, err)
	}
}
