package locking

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLocker implements Locker with a Redis SET NX PX lock and a Lua safe
// release, so concurrent pipeline processes cannot interleave writes to the
// same ledger file.
type RedisLocker struct {
	rdb        *redis.Client
	prefix     string
	ttl        time.Duration
	retryDelay time.Duration
}

// NewRedisLocker creates a RedisLocker. Keys are namespaced with prefix.
func NewRedisLocker(rdb *redis.Client, prefix string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{
		rdb:        rdb,
		prefix:     strings.TrimSpace(prefix),
		ttl:        ttl,
		retryDelay: 50 * time.Millisecond,
	}
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

// Lock polls SET NX until the key is acquired or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate lock token: %w", err)
	}

	lockKey := l.lockKey(key)
	for {
		ok, err := l.rdb.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", lockKey, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lock %s: %w", lockKey, ctx.Err())
		case <-time.After(l.retryDelay):
		}
	}

	release := func() {
		// Best effort: an expired lock is released by Redis anyway.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = releaseScript.Run(ctx, l.rdb, []string{lockKey}, token).Result()
	}
	return release, nil
}

func (l *RedisLocker) lockKey(key string) string {
	p := l.prefix
	if p == "" {
		p = "invoice-pipeline:lock:"
	}
	return p + key
}

func newToken() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
