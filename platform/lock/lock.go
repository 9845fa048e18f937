// Package lock provides short-lived named locks used to serialize writes
// to the same remote record.
// This is part of the platform layer and contains no business logic.
package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrHeld is returned when another holder owns the lock.
	ErrHeld = errors.New("lock is held by another request")
	// ErrLost is returned by Refresh once the lease expired or was taken over.
	ErrLost = errors.New("lock lease lost")
)

// Locker acquires exclusive named locks that expire after ttl.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error)
}

// Lease is a held lock. It lapses after its ttl unless refreshed.
type Lease struct {
	ttl     time.Duration
	lost    atomic.Bool
	refresh func(ctx context.Context, ttl time.Duration) (bool, error)
	release func(ctx context.Context) error
}

// Refresh pushes the expiry out by the lease ttl. It returns ErrLost when
// the lock expired or now belongs to someone else; a lost lease stays lost.
func (l *Lease) Refresh(ctx context.Context) error {
	if l.lost.Load() {
		return ErrLost
	}
	ok, err := l.refresh(ctx, l.ttl)
	if err != nil {
		return err
	}
	if !ok {
		l.lost.Store(true)
		return ErrLost
	}
	return nil
}

// KeepAlive refreshes the lease every interval until ctx is done or the
// returned stop func is called. Callers still check Refresh before writes.
func (l *Lease) KeepAlive(ctx context.Context, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = l.ttl / 3
	}
	if interval <= 0 {
		interval = time.Second
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := l.Refresh(ctx); errors.Is(err, ErrLost) {
					return
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// Release gives the lock back. It is safe to call after the TTL expired.
func (l *Lease) Release(ctx context.Context) error {
	return l.release(ctx)
}

// releaseScript deletes the key only when it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// refreshScript extends the key's expiry only when it still carries our token.
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker implements Locker with SET NX and a token-checked release,
// so several API instances share the same locks.
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisLocker creates a Redis-backed locker. Keys are stored under prefix.
func NewRedisLocker(client redis.UniversalClient, prefix string) *RedisLocker {
	return &RedisLocker{client: client, prefix: prefix}
}

// Acquire takes the lock or returns ErrHeld without waiting.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error) {
	fullKey := l.prefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrHeld
	}

	return &Lease{
		ttl: ttl,
		refresh: func(ctx context.Context, ttl time.Duration) (bool, error) {
			n, err := refreshScript.Run(ctx, l.client, []string{fullKey}, token, ttl.Milliseconds()).Int64()
			if err != nil {
				return false, err
			}
			return n == 1, nil
		},
		release: func(ctx context.Context) error {
			return releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err()
		},
	}, nil
}

// LocalLocker implements Locker in process memory for single-instance runs.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]localEntry
	clock func() time.Time
}

type localEntry struct {
	token     string
	expiresAt time.Time
}

// NewLocalLocker creates an in-memory locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]localEntry), clock: time.Now}
}

// Acquire takes the lock or returns ErrHeld without waiting.
func (l *LocalLocker) Acquire(_ context.Context, key string, ttl time.Duration) (*Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if entry, ok := l.held[key]; ok && now.Before(entry.expiresAt) {
		return nil, ErrHeld
	}

	token := uuid.NewString()
	l.held[key] = localEntry{token: token, expiresAt: now.Add(ttl)}

	return &Lease{
		ttl: ttl,
		refresh: func(_ context.Context, ttl time.Duration) (bool, error) {
			l.mu.Lock()
			defer l.mu.Unlock()
			now := l.clock()
			entry, ok := l.held[key]
			if !ok || entry.token != token || !now.Before(entry.expiresAt) {
				return false, nil
			}
			l.held[key] = localEntry{token: token, expiresAt: now.Add(ttl)}
			return true, nil
		},
		release: func(context.Context) error {
			l.mu.Lock()
			defer l.mu.Unlock()
			if entry, ok := l.held[key]; ok && entry.token == token {
				delete(l.held, key)
			}
			return nil
		},
	}, nil
}

var (
	_ Locker = (*RedisLocker)(nil)
	_ Locker = (*LocalLocker)(nil)
)
