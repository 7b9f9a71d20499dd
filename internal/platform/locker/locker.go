// Package locker serializes mutations per visit. The redis implementation
// coordinates across replicas; the in-memory one covers single-process
// deployments and tests.
package locker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// UnlockFunc releases a held lock. Safe to call exactly once.
type UnlockFunc func(context.Context) error

// VisitLocker grants exclusive access to one visit's extraction state.
type VisitLocker interface {
	Lock(ctx context.Context, key string) (UnlockFunc, error)
}

// MemoryLocker is a process-local keyed mutex with reference counting so
// idle keys do not accumulate.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

// NewMemoryLocker creates an in-process locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]*refLock)}
}

func (l *MemoryLocker) Lock(ctx context.Context, key string) (UnlockFunc, error) {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &refLock{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func(context.Context) error {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
		return nil
	}, nil
}

const (
	redisLockTTL      = 30 * time.Second
	redisLockRetry    = 100 * time.Millisecond
	redisKeyPrefix    = "visit-lock:"
	redisUnlockScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`
)

// RedisLocker acquires visit locks via SET NX with a per-holder token, so
// only the holder that set a key can release it.
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker creates a redis-backed locker.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (UnlockFunc, error) {
	token := uuid.NewString()
	full := redisKeyPrefix + key

	for {
		ok, err := l.client.SetNX(ctx, full, token, redisLockTTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(redisLockRetry):
		}
	}

	return func(ctx context.Context) error {
		return l.client.Eval(ctx, redisUnlockScript, []string{full}, token).Err()
	}, nil
}
