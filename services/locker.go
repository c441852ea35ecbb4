package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrLockNotAcquired is returned when a lock could not be taken before the
// context expired.
var ErrLockNotAcquired = errors.New("lock not acquired")

// Locker serialises work on one key. The returned unlock func must be called
// exactly once. Callers holding several keys take them in a fixed order:
// students by ascending CIN, then the room.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// RoomLockKey guards the capacity check-and-write of one room.
func RoomLockKey(roomID uint) string {
	return fmt.Sprintf("room:%d", roomID)
}

// StudentLockKey guards the one-active-reservation check of one student.
func StudentLockKey(cin int64) string {
	return fmt.Sprintf("student:%d", cin)
}

// ----------------------------------------------------
// In-process locker (single instance deployments, tests)
// ----------------------------------------------------

type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: map[string]*lockSlot{}}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, slot)
		return nil, fmt.Errorf("%w: %s: %v", ErrLockNotAcquired, key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.ch
			l.release(key, slot)
		})
	}, nil
}

func (l *LocalLocker) release(key string, slot *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}

// ----------------------------------------------------
// Redis locker (shared between instances)
// ----------------------------------------------------

// releaseScript deletes the key only if it still holds our token, so a lease
// that expired and was taken by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	Client redis.UniversalClient
	Log    *logrus.Logger
	Prefix string
	// Lease bounds how long a crashed holder can block a key.
	Lease time.Duration
	// RetryEvery is the polling interval while the key is held.
	RetryEvery time.Duration
}

func NewRedisLocker(client redis.UniversalClient, log *logrus.Logger) *RedisLocker {
	return &RedisLocker{
		Client:     client,
		Log:        log,
		Prefix:     "foyer:lock:",
		Lease:      10 * time.Second,
		RetryEvery: 25 * time.Millisecond,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.Prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.RetryEvery)
	defer ticker.Stop()

	for {
		ok, err := l.Client.SetNX(ctx, redisKey, token, l.Lease).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrLockNotAcquired, key, ctx.Err())
			}
			return nil, fmt.Errorf("redis lock %s: %w", redisKey, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrLockNotAcquired, key, ctx.Err())
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's ctx may already be done; release on a fresh one.
			relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(relCtx, l.Client, []string{redisKey}, token).Err(); err != nil && l.Log != nil {
				l.Log.WithError(err).WithField("lock_key", redisKey).
					Warn("⚠️ redis lock release failed, key stays until its lease expires")
			}
		})
	}, nil
}
