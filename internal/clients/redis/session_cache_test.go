package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

func exerciseCache(t *testing.T, c SessionCache) {
	t.Helper()
	ctx := context.Background()
	token := "tok-" + uuid.NewString()
	sess := CachedSession{SessionID: uuid.New(), UserID: uuid.New(), IsInstructor: true, ExpiresAt: time.Now().Add(time.Minute)}

	got, err := c.Get(ctx, token)
	if err != nil || got != nil {
		t.Fatalf("expected miss, got %+v err=%v", got, err)
	}
	if err := c.Set(ctx, token, sess); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err = c.Get(ctx, token)
	if err != nil || got == nil {
		t.Fatalf("expected hit, got %+v err=%v", got, err)
	}
	if got.UserID != sess.UserID || !got.IsInstructor {
		t.Fatalf("unexpected session %+v", got)
	}
	if err := c.Delete(ctx, token); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := c.Get(ctx, token); got != nil {
		t.Fatalf("expected miss after delete")
	}

	expired := sess
	expired.ExpiresAt = time.Now().Add(-time.Second)
	if err := c.Set(ctx, token, expired); err != nil {
		t.Fatalf("Set expired: %v", err)
	}
	if got, _ := c.Get(ctx, token); got != nil {
		t.Fatalf("expired session must not be cached")
	}
}

func TestMemorySessionCache(t *testing.T) {
	exerciseCache(t, NewMemorySessionCache())
}

func TestMemorySessionCacheExpires(t *testing.T) {
	c := NewMemorySessionCache().(*memorySessionCache)
	now := time.Now()
	c.now = func() time.Time { return now }
	_ = c.Set(context.Background(), "t", CachedSession{ExpiresAt: now.Add(time.Second)})
	c.now = func() time.Time { return now.Add(2 * time.Second) }
	if got, _ := c.Get(context.Background(), "t"); got != nil {
		t.Fatalf("expected expiry")
	}
}

func TestRedisSessionCache(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	t.Setenv("REDIS_ADDR", addr)
	c, err := NewSessionCache(logger.Nop())
	if err != nil {
		t.Fatalf("NewSessionCache: %v", err)
	}
	defer c.Close()
	exerciseCache(t, c)
}
