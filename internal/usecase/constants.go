package usecase

import "time"

const (
	// DefaultLockWait bounds how long a caller blocks on a group lock
	// before surfacing ErrLockTimeout.
	DefaultLockWait = 5 * time.Second

	// balancesCacheTTL bounds staleness of the cached group balance view.
	// Recalculation invalidates eagerly; the TTL is a backstop.
	balancesCacheTTL = 60 * time.Second
)

func balancesCacheKey(groupID string) string {
	return "balances:" + groupID
}
