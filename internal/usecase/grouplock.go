package usecase

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLockTimeout is returned when a group lock cannot be acquired within
// the configured wait. Transient: callers may retry with backoff.
var ErrLockTimeout = errors.New("timed out waiting for group lock")

// GroupLocks serializes balance-mutating work per group. Recalculation and
// settlement for the same group must never interleave their
// read-modify-write of balance rows; different groups proceed in parallel.
type GroupLocks struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewGroupLocks creates an empty lock table.
func NewGroupLocks() *GroupLocks {
	return &GroupLocks{locks: make(map[string]chan struct{})}
}

// Acquire takes the lock for groupID, waiting up to wait. It returns a
// release function on success. Lock entries are kept for the life of the
// process; the table grows with the number of groups served, not with
// request volume.
func (l *GroupLocks) Acquire(ctx context.Context, groupID string, wait time.Duration) (func(), error) {
	l.mu.Lock()
	ch, ok := l.locks[groupID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[groupID] = ch
	}
	l.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-timer.C:
		return nil, ErrLockTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
