package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/infrastructure/metrics"
)

// SettlementUseCase records payments between members. A settlement is an
// append-only audit record plus a decrement of the matching balance row;
// both happen in one transaction under the group lock.
type SettlementUseCase struct {
	txManager      TransactionManager
	groupRepo      GroupRepository
	expenseRepo    ExpenseRepository
	shareRepo      ShareRepository
	balanceRepo    BalanceRepository
	settlementRepo SettlementRepository
	idGen          IDGenerator
	locks          *GroupLocks
	recalc         BalanceRecalculator
	cache          Cache
	metrics        *metrics.Metrics
	lockWait       time.Duration
}

// NewSettlementUseCase creates a new SettlementUseCase. cache and metrics
// are optional.
func NewSettlementUseCase(
	txManager TransactionManager,
	groupRepo GroupRepository,
	expenseRepo ExpenseRepository,
	shareRepo ShareRepository,
	balanceRepo BalanceRepository,
	settlementRepo SettlementRepository,
	idGen IDGenerator,
	locks *GroupLocks,
	recalc BalanceRecalculator,
	cache Cache,
	metrics *metrics.Metrics,
) *SettlementUseCase {
	return &SettlementUseCase{
		txManager:      txManager,
		groupRepo:      groupRepo,
		expenseRepo:    expenseRepo,
		shareRepo:      shareRepo,
		balanceRepo:    balanceRepo,
		settlementRepo: settlementRepo,
		idGen:          idGen,
		locks:          locks,
		recalc:         recalc,
		cache:          cache,
		metrics:        metrics,
		lockWait:       DefaultLockWait,
	}
}

// SetLockWait overrides how long callers block on the group lock.
func (uc *SettlementUseCase) SetLockWait(d time.Duration) {
	if d > 0 {
		uc.lockWait = d
	}
}

// SettleInput contains data for recording a payment.
type SettleInput struct {
	GroupID    string
	CallerID   string
	FromUserID string
	ToUserID   string
	Amount     domain.Money
	Notes      string
}

// Settle records a payment from one member to another and reduces their
// balance row accordingly.
//
// Paying more than is owed, or paying when no balance row exists, is
// allowed: the audit record is kept either way and the balance never goes
// below zero. Debt in the other direction is left alone; the next
// recalculation nets it.
func (uc *SettlementUseCase) Settle(ctx context.Context, input SettleInput) (*domain.Settlement, error) {
	if input.CallerID != input.FromUserID && input.CallerID != input.ToUserID {
		return nil, domain.ErrForbidden
	}

	if input.FromUserID == input.ToUserID {
		return nil, domain.ErrSelfSettlement
	}

	if err := domain.ValidateAmount(input.Amount.Decimal()); err != nil {
		return nil, err
	}

	if err := domain.ValidateNotes(input.Notes); err != nil {
		return nil, err
	}

	group, err := uc.groupRepo.GetByID(ctx, input.GroupID)
	if err != nil {
		return nil, err
	}

	if input.Amount.Currency != group.DefaultCurrency {
		return nil, domain.ErrCurrencyMismatch
	}

	if err := uc.requireMember(ctx, input.GroupID, input.FromUserID); err != nil {
		return nil, err
	}

	if err := uc.requireMember(ctx, input.GroupID, input.ToUserID); err != nil {
		return nil, err
	}

	release, err := uc.locks.Acquire(ctx, input.GroupID, uc.lockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	now := time.Now().UTC()

	settlement := &domain.Settlement{
		ID:         uc.idGen.Generate(),
		GroupID:    input.GroupID,
		FromUserID: input.FromUserID,
		ToUserID:   input.ToUserID,
		Amount:     input.Amount,
		Date:       now,
		Notes:      input.Notes,
	}

	if err := uc.inTx(ctx, func(tx Transaction) error {
		if err := uc.settlementRepo.Create(ctx, tx, settlement); err != nil {
			return err
		}

		return uc.applyToBalance(ctx, tx, settlement, now)
	}); err != nil {
		return nil, err
	}

	uc.invalidateCache(ctx, input.GroupID)

	if uc.metrics != nil {
		uc.metrics.SettlementsCreated.Inc()
		uc.metrics.SettlementAmount.Observe(input.Amount.Decimal().InexactFloat64())
	}

	return settlement, nil
}

// applyToBalance decrements the from->to balance row, deleting it when the
// payment covers the full debt.
func (uc *SettlementUseCase) applyToBalance(ctx context.Context, tx Transaction, s *domain.Settlement, now time.Time) error {
	balance, err := uc.balanceRepo.GetForUpdate(ctx, tx, s.GroupID, s.FromUserID, s.ToUserID)
	if err != nil {
		if errors.Is(err, domain.ErrBalanceNotFound) {
			// Pay-ahead: nothing owed in this direction yet. Keep the
			// audit record only.
			return nil
		}

		return err
	}

	if !s.Amount.LessThan(balance.Amount) {
		return uc.balanceRepo.Delete(ctx, tx, s.GroupID, s.FromUserID, s.ToUserID)
	}

	remaining, err := balance.Amount.Sub(s.Amount)
	if err != nil {
		return err
	}

	return uc.balanceRepo.UpdateAmount(ctx, tx, s.GroupID, s.FromUserID, s.ToUserID, remaining, now)
}

// SettleSharesInput identifies shares of one expense to mark settled.
type SettleSharesInput struct {
	GroupID   string
	ExpenseID string
	CallerID  string
	ShareIDs  []string
}

// SettleShares marks individual shares of an expense as settled and
// recalculates the group's balances. Already-settled shares and share IDs
// from other expenses are rejected before anything is written.
func (uc *SettlementUseCase) SettleShares(ctx context.Context, input SettleSharesInput) error {
	if len(input.ShareIDs) == 0 {
		return domain.ErrShareNotFound
	}

	if err := uc.requireMember(ctx, input.GroupID, input.CallerID); err != nil {
		return err
	}

	if _, err := uc.expenseRepo.GetByID(ctx, input.GroupID, input.ExpenseID); err != nil {
		return err
	}

	shares, err := uc.shareRepo.ListByExpense(ctx, input.ExpenseID)
	if err != nil {
		return err
	}

	byID := make(map[string]*domain.ExpenseShare, len(shares))
	for _, s := range shares {
		byID[s.ID] = s
	}

	for _, id := range input.ShareIDs {
		share, ok := byID[id]
		if !ok {
			return domain.ErrShareNotFound
		}

		if share.IsSettled {
			return domain.ErrAlreadySettled
		}
	}

	now := time.Now().UTC()

	if err := uc.inTx(ctx, func(tx Transaction) error {
		return uc.shareRepo.MarkSettled(ctx, tx, input.ShareIDs, now)
	}); err != nil {
		return err
	}

	if _, err := uc.recalc.Recalculate(ctx, input.GroupID); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.SharesSettled.Add(float64(len(input.ShareIDs)))
	}

	return nil
}

// ListGroupSettlements returns a group's settlement history, newest first.
func (uc *SettlementUseCase) ListGroupSettlements(ctx context.Context, groupID, callerID string) ([]*domain.Settlement, error) {
	if err := uc.requireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	return uc.settlementRepo.ListByGroup(ctx, groupID)
}

// UserSettlementsOutput splits a member's settlements by direction.
type UserSettlementsOutput struct {
	Sent     []*domain.Settlement
	Received []*domain.Settlement
}

// ListUserSettlements returns the settlements a member sent and received
// within a group.
func (uc *SettlementUseCase) ListUserSettlements(ctx context.Context, groupID, userID, callerID string) (*UserSettlementsOutput, error) {
	if err := uc.requireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	if err := uc.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	sent, received, err := uc.settlementRepo.ListByUser(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	return &UserSettlementsOutput{Sent: sent, Received: received}, nil
}

func (uc *SettlementUseCase) requireMember(ctx context.Context, groupID, userID string) error {
	ok, err := uc.groupRepo.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}

	if !ok {
		return domain.ErrNotAMember
	}

	return nil
}

func (uc *SettlementUseCase) invalidateCache(ctx context.Context, groupID string) {
	if uc.cache != nil {
		_ = uc.cache.Delete(ctx, balancesCacheKey(groupID))
	}
}

func (uc *SettlementUseCase) inTx(ctx context.Context, fn func(tx Transaction) error) error {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
