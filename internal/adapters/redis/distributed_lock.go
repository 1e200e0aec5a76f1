package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/amyangfei/redlock-go/v3/redlock"
	"go.uber.org/zap"

	"github.com/tacticalpha/regime-engine/pkg/logger"
)

// RefreshLock guards the scheduled pipeline refresh so only one pod
// recomputes and persists at a time. The TTL outlives a normal run;
// a crashed holder simply lets it expire.
type RefreshLock struct {
	lockManager *redlock.RedLock
	lockName    string
	ttl         time.Duration
	locked      bool
}

// NewRefreshLock creates a distributed lock for one named job
func NewRefreshLock(lockManager *redlock.RedLock, job string, ttl time.Duration) *RefreshLock {
	return &RefreshLock{
		lockManager: lockManager,
		lockName:    fmt.Sprintf("engine:lock:%s", job),
		ttl:         ttl,
	}
}

// TryAcquire attempts to take the lock. Returns false without error
// when another pod already holds it.
func (rl *RefreshLock) TryAcquire(ctx context.Context) (bool, error) {
	expiry, err := rl.lockManager.Lock(ctx, rl.lockName, rl.ttl)
	if err != nil {
		logger.Debug("refresh lock already held by another pod",
			zap.String("lock_name", rl.lockName),
		)
		return false, nil
	}
	if expiry <= 0 {
		return false, fmt.Errorf("failed to acquire lock: invalid expiry %v", expiry)
	}

	rl.locked = true

	logger.Info("refresh lock acquired",
		zap.String("lock_name", rl.lockName),
		zap.Duration("ttl", rl.ttl),
		zap.Duration("expiry", expiry),
	)
	return true, nil
}

// Release releases the lock. A lock that already expired naturally is
// not an error.
func (rl *RefreshLock) Release(ctx context.Context) error {
	if !rl.locked {
		return nil
	}

	if err := rl.lockManager.UnLock(ctx, rl.lockName); err != nil {
		logger.Warn("failed to release lock (may have already expired)",
			zap.String("lock_name", rl.lockName),
			zap.Error(err),
		)
	} else {
		logger.Info("refresh lock released",
			zap.String("lock_name", rl.lockName),
		)
	}

	rl.locked = false
	return nil
}
