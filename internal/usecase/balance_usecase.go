package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/infrastructure/metrics"
)

// BalanceUseCase rebuilds a group's derived balance rows from its
// unsettled shares.
type BalanceUseCase struct {
	txManager   TransactionManager
	groupRepo   GroupRepository
	shareRepo   ShareRepository
	balanceRepo BalanceRepository
	locks       *GroupLocks
	retrier     Retrier
	cache       Cache
	metrics     *metrics.Metrics
	lockWait    time.Duration
	cacheTTL    time.Duration
}

// NewBalanceUseCase creates a new BalanceUseCase. retrier, cache and
// metrics are optional.
func NewBalanceUseCase(
	txManager TransactionManager,
	groupRepo GroupRepository,
	shareRepo ShareRepository,
	balanceRepo BalanceRepository,
	locks *GroupLocks,
	retrier Retrier,
	cache Cache,
	metrics *metrics.Metrics,
) *BalanceUseCase {
	return &BalanceUseCase{
		txManager:   txManager,
		groupRepo:   groupRepo,
		shareRepo:   shareRepo,
		balanceRepo: balanceRepo,
		locks:       locks,
		retrier:     retrier,
		cache:       cache,
		metrics:     metrics,
		lockWait:    DefaultLockWait,
		cacheTTL:    balancesCacheTTL,
	}
}

// SetLockWait overrides how long callers block on the group lock.
func (uc *BalanceUseCase) SetLockWait(d time.Duration) {
	if d > 0 {
		uc.lockWait = d
	}
}

// SetCacheTTL overrides how long the cached balance view may serve reads.
func (uc *BalanceUseCase) SetCacheTTL(d time.Duration) {
	if d > 0 {
		uc.cacheTTL = d
	}
}

// Recalculate rebuilds all balance rows for a group from its unsettled
// shares and returns how many rows the group now has.
//
// The whole load-simplify-replace sequence runs under the group lock, and
// the replace is a single transaction: a failure leaves the previous
// snapshot intact. Calling it twice with no intervening writes produces
// identical rows, so callers may safely retry on transient errors.
func (uc *BalanceUseCase) Recalculate(ctx context.Context, groupID string) (int, error) {
	start := time.Now()

	count, err := uc.recalculate(ctx, groupID)

	if uc.metrics != nil {
		if err != nil {
			uc.metrics.RecalculationErrors.WithLabelValues(errorType(err)).Inc()
		} else {
			uc.metrics.Recalculations.Inc()
			uc.metrics.RecalculationDuration.Observe(time.Since(start).Seconds())
			uc.metrics.BalanceRows.Observe(float64(count))
		}
	}

	return count, err
}

// ForceRecalculate runs a recalculation on behalf of a group member.
// Balances are rebuilt after every financial write, so this exists to
// repair drift, not as part of the normal flow.
func (uc *BalanceUseCase) ForceRecalculate(ctx context.Context, groupID, callerID string) (int, error) {
	if err := uc.requireMember(ctx, groupID, callerID); err != nil {
		return 0, err
	}

	return uc.Recalculate(ctx, groupID)
}

func (uc *BalanceUseCase) recalculate(ctx context.Context, groupID string) (int, error) {
	// The financial write that triggered us has already landed; an aborted
	// request must not leave stale balances behind. Detach before the lock
	// wait too, or a dead request could bail out between commit and rebuild.
	ctx = context.WithoutCancel(ctx)

	release, err := uc.locks.Acquire(ctx, groupID, uc.lockWait)
	if err != nil {
		return 0, err
	}
	defer release()

	group, err := uc.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return 0, err
	}

	memberIDs, err := uc.groupRepo.MemberIDs(ctx, groupID)
	if err != nil {
		return 0, err
	}

	shares, err := uc.shareRepo.ListUnsettledByGroup(ctx, groupID)
	if err != nil {
		return 0, err
	}

	graph := domain.NewDebtGraph(group.DefaultCurrency, memberIDs)
	for _, share := range shares {
		if share.UserID == share.PayerID {
			continue
		}

		if err := graph.Accumulate(share.UserID, share.PayerID, share.Amount); err != nil {
			return 0, err
		}
	}

	graph.Simplify()

	now := time.Now().UTC()
	edges := graph.Edges()

	balances := make([]*domain.Balance, 0, len(edges))
	for _, e := range edges {
		balances = append(balances, &domain.Balance{
			GroupID:    groupID,
			FromUserID: e.From,
			ToUserID:   e.To,
			Amount:     e.Amount,
			UpdatedAt:  now,
		})
	}

	replace := func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		if err := uc.balanceRepo.ReplaceByGroup(ctx, tx, groupID, balances); err != nil {
			return err
		}

		return tx.Commit(ctx)
	}

	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, replace)
	} else {
		err = replace()
	}

	if err != nil {
		return 0, err
	}

	uc.invalidateCache(ctx, groupID)

	return len(balances), nil
}

// GroupBalancesOutput is the balance view served to group members.
type GroupBalancesOutput struct {
	Balances []*domain.Balance      `json:"balances"`
	Summary  []domain.MemberBalance `json:"summary"`
}

// GroupBalances returns the current simplified balance rows for a group
// along with a per-member summary. The result is cached briefly;
// recalculation invalidates the cache.
func (uc *BalanceUseCase) GroupBalances(ctx context.Context, groupID, callerID string) (*GroupBalancesOutput, error) {
	if err := uc.requireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if raw, err := uc.cache.Get(ctx, balancesCacheKey(groupID)); err == nil && raw != nil {
			var out GroupBalancesOutput
			if err := json.Unmarshal(raw, &out); err == nil {
				if uc.metrics != nil {
					uc.metrics.CacheHits.Inc()
				}

				return &out, nil
			}
		}

		if uc.metrics != nil {
			uc.metrics.CacheMisses.Inc()
		}
	}

	group, err := uc.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	memberIDs, err := uc.groupRepo.MemberIDs(ctx, groupID)
	if err != nil {
		return nil, err
	}

	balances, err := uc.balanceRepo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	for _, b := range balances {
		if err := b.Validate(); err != nil {
			return nil, err
		}
	}

	out := &GroupBalancesOutput{
		Balances: balances,
		Summary:  domain.SummarizeBalances(memberIDs, group.DefaultCurrency, balances),
	}

	if uc.cache != nil {
		if raw, err := json.Marshal(out); err == nil {
			_ = uc.cache.Set(ctx, balancesCacheKey(groupID), raw, uc.cacheTTL)
		}
	}

	return out, nil
}

// UserBalance returns one member's slice of the group balance view.
func (uc *BalanceUseCase) UserBalance(ctx context.Context, groupID, userID string) (*domain.MemberBalance, error) {
	out, err := uc.GroupBalances(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	for i := range out.Summary {
		if out.Summary[i].UserID == userID {
			return &out.Summary[i], nil
		}
	}

	return nil, domain.ErrNotAMember
}

func (uc *BalanceUseCase) requireMember(ctx context.Context, groupID, userID string) error {
	ok, err := uc.groupRepo.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}

	if !ok {
		return domain.ErrNotAMember
	}

	return nil
}

func (uc *BalanceUseCase) invalidateCache(ctx context.Context, groupID string) {
	if uc.cache != nil {
		// Best effort; the TTL catches anything we miss.
		_ = uc.cache.Delete(ctx, balancesCacheKey(groupID))
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, ErrLockTimeout):
		return "lock_timeout"
	case errors.Is(err, domain.ErrGroupNotFound):
		return "group_not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
