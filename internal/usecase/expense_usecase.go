package usecase

import (
	"context"
	"time"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/infrastructure/metrics"
)

// ExpenseUseCase implements expense business logic. Every financial write
// ends with a synchronous balance recalculation, so reads that follow a
// successful write observe the new balances.
type ExpenseUseCase struct {
	txManager   TransactionManager
	groupRepo   GroupRepository
	expenseRepo ExpenseRepository
	shareRepo   ShareRepository
	idGen       IDGenerator
	recalc      BalanceRecalculator
	metrics     *metrics.Metrics
}

// NewExpenseUseCase creates a new ExpenseUseCase. metrics is optional.
func NewExpenseUseCase(
	txManager TransactionManager,
	groupRepo GroupRepository,
	expenseRepo ExpenseRepository,
	shareRepo ShareRepository,
	idGen IDGenerator,
	recalc BalanceRecalculator,
	metrics *metrics.Metrics,
) *ExpenseUseCase {
	return &ExpenseUseCase{
		txManager:   txManager,
		groupRepo:   groupRepo,
		expenseRepo: expenseRepo,
		shareRepo:   shareRepo,
		idGen:       idGen,
		recalc:      recalc,
		metrics:     metrics,
	}
}

// CreateExpenseInput contains data for creating an expense.
type CreateExpenseInput struct {
	GroupID      string
	CallerID     string
	PaidBy       string
	Description  string
	Category     string
	Amount       domain.Money
	SplitType    domain.SplitType
	Participants []domain.SplitParticipant
	Date         time.Time
}

// ExpenseOutput is an expense together with its shares.
type ExpenseOutput struct {
	Expense *domain.Expense
	Shares  []*domain.ExpenseShare
}

// Create records a new expense, allocates its shares and recalculates the
// group's balances.
func (uc *ExpenseUseCase) Create(ctx context.Context, input CreateExpenseInput) (*ExpenseOutput, error) {
	if err := domain.ValidateDescription(input.Description); err != nil {
		return nil, err
	}

	if err := domain.ValidateAmount(input.Amount.Decimal()); err != nil {
		return nil, err
	}

	if !input.SplitType.Valid() {
		return nil, domain.ErrSplitMismatch
	}

	group, err := uc.groupRepo.GetByID(ctx, input.GroupID)
	if err != nil {
		return nil, err
	}

	if input.Amount.Currency != group.DefaultCurrency {
		return nil, domain.ErrCurrencyMismatch
	}

	if err := uc.requireMembers(ctx, input.GroupID, input.CallerID, input.PaidBy, input.Participants); err != nil {
		return nil, err
	}

	// Allocate before touching storage so split errors cost nothing.
	allocations, err := domain.AllocateShares(input.Amount, input.Participants, input.SplitType, input.PaidBy)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	date := input.Date
	if date.IsZero() {
		date = now
	}

	expense := &domain.Expense{
		ID:          uc.idGen.Generate(),
		GroupID:     input.GroupID,
		PaidBy:      input.PaidBy,
		Description: input.Description,
		Category:    input.Category,
		Amount:      input.Amount,
		SplitType:   input.SplitType,
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	shares := uc.buildShares(expense.ID, allocations, now)

	if err := uc.inTx(ctx, func(tx Transaction) error {
		if err := uc.expenseRepo.Create(ctx, tx, expense); err != nil {
			return err
		}

		return uc.shareRepo.CreateBatch(ctx, tx, shares)
	}); err != nil {
		return nil, err
	}

	if _, err := uc.recalc.Recalculate(ctx, input.GroupID); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ExpensesCreated.Inc()
		uc.metrics.ExpenseAmount.Observe(input.Amount.Decimal().InexactFloat64())
	}

	return &ExpenseOutput{Expense: expense, Shares: shares}, nil
}

// UpdateExpenseInput contains data for updating an expense. Nil fields are
// left unchanged. Amount, SplitType, Participants and PaidBy are the
// financial fields; changing any of them reallocates all shares.
type UpdateExpenseInput struct {
	GroupID      string
	ExpenseID    string
	CallerID     string
	Description  *string
	Category     *string
	Date         *time.Time
	Amount       *domain.Money
	SplitType    *domain.SplitType
	Participants []domain.SplitParticipant
	PaidBy       *string
}

func (input UpdateExpenseInput) financial() bool {
	return input.Amount != nil || input.SplitType != nil || input.Participants != nil || input.PaidBy != nil
}

// Update modifies an expense. Descriptive fields may always change, but
// once any share has been settled the financial fields are locked to
// everyone except group admins.
func (uc *ExpenseUseCase) Update(ctx context.Context, input UpdateExpenseInput) (*ExpenseOutput, error) {
	expense, err := uc.expenseRepo.GetByID(ctx, input.GroupID, input.ExpenseID)
	if err != nil {
		return nil, err
	}

	if err := uc.requireEditor(ctx, expense, input.CallerID, input.financial()); err != nil {
		return nil, err
	}

	if input.Description != nil {
		if err := domain.ValidateDescription(*input.Description); err != nil {
			return nil, err
		}
		expense.Description = *input.Description
	}

	if input.Category != nil {
		expense.Category = *input.Category
	}

	if input.Date != nil {
		expense.Date = *input.Date
	}

	now := time.Now().UTC()
	expense.UpdatedAt = now

	var shares []*domain.ExpenseShare

	if input.financial() {
		shares, err = uc.reallocate(ctx, expense, input, now)
		if err != nil {
			return nil, err
		}
	} else {
		if err := uc.inTx(ctx, func(tx Transaction) error {
			return uc.expenseRepo.Update(ctx, tx, expense)
		}); err != nil {
			return nil, err
		}

		shares, err = uc.shareRepo.ListByExpense(ctx, expense.ID)
		if err != nil {
			return nil, err
		}

		uc.countUpdate()

		return &ExpenseOutput{Expense: expense, Shares: shares}, nil
	}

	if _, err := uc.recalc.Recalculate(ctx, input.GroupID); err != nil {
		return nil, err
	}

	uc.countUpdate()

	return &ExpenseOutput{Expense: expense, Shares: shares}, nil
}

func (uc *ExpenseUseCase) countUpdate() {
	if uc.metrics != nil {
		uc.metrics.ExpensesUpdated.Inc()
	}
}

func (uc *ExpenseUseCase) reallocate(ctx context.Context, expense *domain.Expense, input UpdateExpenseInput, now time.Time) ([]*domain.ExpenseShare, error) {
	if input.Amount != nil {
		if err := domain.ValidateAmount(input.Amount.Decimal()); err != nil {
			return nil, err
		}
		expense.Amount = *input.Amount
	}

	if input.SplitType != nil {
		if !input.SplitType.Valid() {
			return nil, domain.ErrSplitMismatch
		}
		expense.SplitType = *input.SplitType
	}

	if input.PaidBy != nil {
		expense.PaidBy = *input.PaidBy
	}

	group, err := uc.groupRepo.GetByID(ctx, expense.GroupID)
	if err != nil {
		return nil, err
	}

	if expense.Amount.Currency != group.DefaultCurrency {
		return nil, domain.ErrCurrencyMismatch
	}

	participants := input.Participants
	if participants == nil {
		existing, err := uc.shareRepo.ListByExpense(ctx, expense.ID)
		if err != nil {
			return nil, err
		}

		// Carry amounts too, or a custom split could not survive a
		// participant-preserving update such as changing the payer.
		participants = make([]domain.SplitParticipant, len(existing))
		for i, s := range existing {
			amount := s.Amount
			participants[i] = domain.SplitParticipant{UserID: s.UserID, Percentage: s.Percentage, Amount: &amount}
		}
	}

	if err := uc.requireMembers(ctx, expense.GroupID, input.CallerID, expense.PaidBy, participants); err != nil {
		return nil, err
	}

	allocations, err := domain.AllocateShares(expense.Amount, participants, expense.SplitType, expense.PaidBy)
	if err != nil {
		return nil, err
	}

	shares := uc.buildShares(expense.ID, allocations, now)

	if err := uc.inTx(ctx, func(tx Transaction) error {
		if err := uc.expenseRepo.Update(ctx, tx, expense); err != nil {
			return err
		}

		if err := uc.shareRepo.DeleteByExpense(ctx, tx, expense.ID); err != nil {
			return err
		}

		return uc.shareRepo.CreateBatch(ctx, tx, shares)
	}); err != nil {
		return nil, err
	}

	return shares, nil
}

// Delete removes an expense and its shares, then recalculates balances.
// Only the payer or a group admin may delete; once any share is settled,
// admins only.
func (uc *ExpenseUseCase) Delete(ctx context.Context, groupID, expenseID, callerID string) error {
	expense, err := uc.expenseRepo.GetByID(ctx, groupID, expenseID)
	if err != nil {
		return err
	}

	if err := uc.requireEditor(ctx, expense, callerID, true); err != nil {
		return err
	}

	if err := uc.inTx(ctx, func(tx Transaction) error {
		if err := uc.shareRepo.DeleteByExpense(ctx, tx, expenseID); err != nil {
			return err
		}

		return uc.expenseRepo.Delete(ctx, tx, expenseID)
	}); err != nil {
		return err
	}

	if _, err := uc.recalc.Recalculate(ctx, groupID); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.ExpensesDeleted.Inc()
	}

	return nil
}

// Get returns an expense with its shares. Group members only.
func (uc *ExpenseUseCase) Get(ctx context.Context, groupID, expenseID, callerID string) (*ExpenseOutput, error) {
	if err := uc.requireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	expense, err := uc.expenseRepo.GetByID(ctx, groupID, expenseID)
	if err != nil {
		return nil, err
	}

	shares, err := uc.shareRepo.ListByExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	return &ExpenseOutput{Expense: expense, Shares: shares}, nil
}

// List returns a group's expenses, newest first, honoring the filter.
func (uc *ExpenseUseCase) List(ctx context.Context, groupID, callerID string, filter domain.ExpenseFilter) ([]*domain.Expense, error) {
	if err := uc.requireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)

	return uc.expenseRepo.ListByGroup(ctx, groupID, filter)
}

// UserSummary aggregates one member's paid, owed, pending and settled
// totals across a group.
func (uc *ExpenseUseCase) UserSummary(ctx context.Context, groupID, userID, callerID string) (*domain.UserExpenseSummary, error) {
	if err := uc.requireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	if err := uc.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	return uc.shareRepo.UserSummary(ctx, groupID, userID)
}

func (uc *ExpenseUseCase) buildShares(expenseID string, allocations []domain.ShareAllocation, now time.Time) []*domain.ExpenseShare {
	shares := make([]*domain.ExpenseShare, len(allocations))
	for i, a := range allocations {
		share := &domain.ExpenseShare{
			ID:         uc.idGen.Generate(),
			ExpenseID:  expenseID,
			UserID:     a.UserID,
			Amount:     a.Amount,
			Percentage: a.Percentage,
			IsSettled:  a.IsSettled,
			CreatedAt:  now,
		}
		if a.IsSettled {
			settledAt := now
			share.SettledAt = &settledAt
		}

		shares[i] = share
	}

	return shares
}

// requireEditor enforces who may change an expense. financial guards the
// money-bearing fields: once any share is settled they are admin-only.
func (uc *ExpenseUseCase) requireEditor(ctx context.Context, expense *domain.Expense, callerID string, financial bool) error {
	isAdmin, err := uc.groupRepo.IsAdmin(ctx, expense.GroupID, callerID)
	if err != nil {
		return err
	}

	if expense.PaidBy != callerID && !isAdmin {
		return domain.ErrForbidden
	}

	if financial && !isAdmin {
		settled, err := uc.shareRepo.HasSettled(ctx, expense.ID)
		if err != nil {
			return err
		}

		if settled {
			return domain.ErrExpenseLocked
		}
	}

	return nil
}

func (uc *ExpenseUseCase) requireMembers(ctx context.Context, groupID, callerID, payerID string, participants []domain.SplitParticipant) error {
	memberIDs, err := uc.groupRepo.MemberIDs(ctx, groupID)
	if err != nil {
		return err
	}

	members := make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = struct{}{}
	}

	if _, ok := members[callerID]; !ok {
		return domain.ErrNotAMember
	}

	if _, ok := members[payerID]; !ok {
		return domain.ErrNotAMember
	}

	for _, p := range participants {
		if _, ok := members[p.UserID]; !ok {
			return domain.ErrNotAMember
		}
	}

	return nil
}

func (uc *ExpenseUseCase) requireMember(ctx context.Context, groupID, userID string) error {
	ok, err := uc.groupRepo.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}

	if !ok {
		return domain.ErrNotAMember
	}

	return nil
}

func (uc *ExpenseUseCase) inTx(ctx context.Context, fn func(tx Transaction) error) error {
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
