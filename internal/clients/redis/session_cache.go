package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Sparkonix11/Knowtopia/internal/platform/envutil"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

// CachedSession is what the auth middleware needs to skip the user_token lookup.
type CachedSession struct {
	SessionID    uuid.UUID `json:"session_id"`
	UserID       uuid.UUID `json:"user_id"`
	IsInstructor bool      `json:"is_instructor"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type SessionCache interface {
	Get(ctx context.Context, token string) (*CachedSession, error)
	Set(ctx context.Context, token string, sess CachedSession) error
	Delete(ctx context.Context, tokens ...string) error
	Close() error
}

type redisSessionCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

// NewSessionCache connects to REDIS_ADDR. Without it sessions are cached in process.
func NewSessionCache(log *logger.Logger) (SessionCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := envutil.String("REDIS_ADDR", "")
	if addr == "" {
		log.Info("REDIS_ADDR not set; using in-memory session cache")
		return NewMemorySessionCache(), nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    envutil.String("REDIS_PASSWORD", ""),
		DB:          envutil.Int("REDIS_DB", 0),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisSessionCache{
		log:    log.With("service", "RedisSessionCache"),
		rdb:    rdb,
		prefix: envutil.String("REDIS_SESSION_PREFIX", "knowtopia:session:"),
	}, nil
}

func (c *redisSessionCache) key(token string) string { return c.prefix + token }

func (c *redisSessionCache) Get(ctx context.Context, token string) (*CachedSession, error) {
	raw, err := c.rdb.Get(ctx, c.key(token)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s CachedSession
	if err := json.Unmarshal(raw, &s); err != nil {
		c.log.Warn("Dropping malformed cached session", "error", err)
		_ = c.rdb.Del(ctx, c.key(token)).Err()
		return nil, nil
	}
	return &s, nil
}

func (c *redisSessionCache) Set(ctx context.Context, token string, sess CachedSession) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(token), raw, ttl).Err()
}

func (c *redisSessionCache) Delete(ctx context.Context, tokens ...string) error {
	if len(tokens) == 0 {
		return nil
	}
	keys := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			keys = append(keys, c.key(t))
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *redisSessionCache) Close() error { return c.rdb.Close() }

type memorySessionCache struct {
	mu       sync.RWMutex
	sessions map[string]CachedSession
	now      func() time.Time
}

func NewMemorySessionCache() SessionCache {
	return &memorySessionCache{sessions: map[string]CachedSession{}, now: time.Now}
}

func (m *memorySessionCache) Get(_ context.Context, token string) (*CachedSession, error) {
	m.mu.RLock()
	s, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !m.now().Before(s.ExpiresAt) {
		m.mu.Lock()
		delete(m.sessions, token)
		m.mu.Unlock()
		return nil, nil
	}
	return &s, nil
}

func (m *memorySessionCache) Set(_ context.Context, token string, sess CachedSession) error {
	if !m.now().Before(sess.ExpiresAt) {
		return nil
	}
	m.mu.Lock()
	m.sessions[token] = sess
	m.mu.Unlock()
	return nil
}

func (m *memorySessionCache) Delete(_ context.Context, tokens ...string) error {
	m.mu.Lock()
	for _, t := range tokens {
		delete(m.sessions, t)
	}
	m.mu.Unlock()
	return nil
}

func (m *memorySessionCache) Close() error { return nil }
