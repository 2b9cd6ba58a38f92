package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLocked   = errors.New("lock is held by another owner")
	ErrLockLost = errors.New("lock is no longer held")
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by someone else is left alone.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

const refreshScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`

// Locker hands out expiring mutual-exclusion locks stored in Redis.
type Locker struct {
	rdb      redis.Cmdable
	prefix   string
	ttl      time.Duration
	newToken func() string
}

func New(rdb redis.Cmdable, prefix string, ttl time.Duration) *Locker {
	return &Locker{
		rdb:      rdb,
		prefix:   prefix,
		ttl:      ttl,
		newToken: uuid.NewString,
	}
}

func (l *Locker) TTL() time.Duration {
	return l.ttl
}

type Lock struct {
	locker *Locker
	key    string
	token  string
}

// Acquire takes the named lock or returns ErrLocked when it is already held.
func (l *Locker) Acquire(ctx context.Context, name string) (*Lock, error) {
	key := l.prefix + name
	token := l.newToken()

	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}

	return &Lock{locker: l, key: key, token: token}, nil
}

func (lk *Lock) Release(ctx context.Context) error {
	return lk.locker.rdb.Eval(ctx, releaseScript, []string{lk.key}, lk.token).Err()
}

func (lk *Lock) Key() string {
	return lk.key
}

// Refresh pushes the expiry out by another TTL. It returns ErrLockLost once
// the key has expired or been taken by another owner.
func (lk *Lock) Refresh(ctx context.Context) error {
	n, err := lk.locker.rdb.Eval(ctx, refreshScript, []string{lk.key}, lk.token, lk.locker.ttl.Milliseconds()).Int64()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLockLost
	}
	return nil
}

// KeepAlive refreshes the lock every interval until stop is called or the
// lock is lost. onErr receives every failed refresh. stop blocks until the
// refresh loop has exited.
func (lk *Lock) KeepAlive(interval time.Duration, onErr func(error)) (stop func()) {
	if interval <= 0 {
		return func() {}
	}

	quit := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), interval)
				err := lk.Refresh(ctx)
				cancel()
				if err == nil {
					continue
				}
				if onErr != nil {
					onErr(err)
				}
				if errors.Is(err, ErrLockLost) {
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(quit) })
		<-done
	}
}
