package turnlock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrTimeout = errors.New("timed out waiting for chat turn lock")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker serializes turns per chat through a redis key. The TTL bounds how long a
// crashed holder can block the chat.
type Locker struct {
	redis *redis.Client
	ttl   time.Duration
	wait  time.Duration
	poll  time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Locker{redis: rdb, ttl: ttl, wait: ttl, poll: 50 * time.Millisecond}
}

func (l *Locker) key(chatID string) string {
	return "modelstudio:turnlock:" + chatID
}

// Acquire blocks until the chat's lock is held or the wait budget runs out. The
// returned func releases the lock only if this caller still owns it.
func (l *Locker) Acquire(ctx context.Context, chatID string) (func(), error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	key := l.key(chatID)
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.redis.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("turn lock setnx: %w", err)
		}
		if ok {
			return func() {
				_ = releaseScript.Run(context.WithoutCancel(ctx), l.redis, []string{key}, token).Err()
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.poll):
		}
	}
}

func newToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("turn lock token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
