package autoprocess

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gymdesk/internal/lock"
	"gymdesk/internal/logger"
)

// Gate serialises runs for the same gym. The returned release func must be
// called once the run is done.
type Gate interface {
	Lock(ctx context.Context, gymID int) (release func(), err error)
}

type redisGate struct {
	locker *lock.Locker
}

func NewRedisGate(locker *lock.Locker) Gate {
	return &redisGate{locker: locker}
}

// Lock returns ErrRunInProgress while another run holds the gym. When Redis
// itself is unreachable the run goes ahead unguarded; the conditional status
// update still stops a booking from being transitioned twice. A held lock is
// refreshed every third of its TTL until release.
func (g *redisGate) Lock(ctx context.Context, gymID int) (func(), error) {
	lk, err := g.locker.Acquire(ctx, strconv.Itoa(gymID))
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return nil, ErrRunInProgress
		}
		logger.Warn("Auto-process lock unavailable, running without it", "gym_id", gymID, "error", err)
		return func() {}, nil
	}

	stop := lk.KeepAlive(g.locker.TTL()/3, func(err error) {
		logger.Warn("Failed to extend auto-process lock", "gym_id", gymID, "key", lk.Key(), "error", err)
	})

	return func() {
		stop()
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := lk.Release(releaseCtx); err != nil {
			logger.Warn("Failed to release auto-process lock", "key", lk.Key(), "error", err)
		}
	}, nil
}
