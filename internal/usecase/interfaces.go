package usecase

import (
	"context"
	"time"

	"github.com/iho/splitledger/internal/domain"
)

// GroupRepository is the group-membership oracle consumed by the ledger
// core. Group management itself lives in another service.
type GroupRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Group, error)
	MemberIDs(ctx context.Context, groupID string) ([]string, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	IsAdmin(ctx context.Context, groupID, userID string) (bool, error)
}

// ExpenseRepository defines data access for expenses.
type ExpenseRepository interface {
	Create(ctx context.Context, tx Transaction, expense *domain.Expense) error
	GetByID(ctx context.Context, groupID, id string) (*domain.Expense, error)
	ListByGroup(ctx context.Context, groupID string, filter domain.ExpenseFilter) ([]*domain.Expense, error)
	Update(ctx context.Context, tx Transaction, expense *domain.Expense) error
	Delete(ctx context.Context, tx Transaction, id string) error
}

// ShareRepository defines data access for expense shares.
type ShareRepository interface {
	CreateBatch(ctx context.Context, tx Transaction, shares []*domain.ExpenseShare) error
	DeleteByExpense(ctx context.Context, tx Transaction, expenseID string) error
	ListByExpense(ctx context.Context, expenseID string) ([]*domain.ExpenseShare, error)
	ListUnsettledByGroup(ctx context.Context, groupID string) ([]*domain.UnsettledShare, error)
	MarkSettled(ctx context.Context, tx Transaction, shareIDs []string, settledAt time.Time) error
	HasSettled(ctx context.Context, expenseID string) (bool, error)
	UserSummary(ctx context.Context, groupID, userID string) (*domain.UserExpenseSummary, error)
}

// BalanceRepository defines data access for derived balance rows. Rows are
// keyed by (group, from, to); recalculation owns them wholesale.
type BalanceRepository interface {
	ListByGroup(ctx context.Context, groupID string) ([]*domain.Balance, error)
	GetForUpdate(ctx context.Context, tx Transaction, groupID, fromUserID, toUserID string) (*domain.Balance, error)
	ReplaceByGroup(ctx context.Context, tx Transaction, groupID string, balances []*domain.Balance) error
	UpdateAmount(ctx context.Context, tx Transaction, groupID, fromUserID, toUserID string, amount domain.Money, updatedAt time.Time) error
	Delete(ctx context.Context, tx Transaction, groupID, fromUserID, toUserID string) error
}

// SettlementRepository defines data access for settlement audit records.
// Settlements are append-only; there is no update or delete.
type SettlementRepository interface {
	Create(ctx context.Context, tx Transaction, settlement *domain.Settlement) error
	ListByGroup(ctx context.Context, groupID string) ([]*domain.Settlement, error)
	ListByUser(ctx context.Context, groupID, userID string) (outgoing, incoming []*domain.Settlement, err error)
}

// BalanceRecalculator rebuilds a group's balance rows after a financial
// write. Implemented by BalanceUseCase.
type BalanceRecalculator interface {
	Recalculate(ctx context.Context, groupID string) (int, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier retries an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
