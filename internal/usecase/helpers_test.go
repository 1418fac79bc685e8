package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/usecase"
	"github.com/iho/splitledger/internal/usecase/fakes"
)

// testEnv wires the usecases against stateful mocks so financial writes
// flow through a real recalculation, the way requests do in production.
type testEnv struct {
	groupRepo      *fakes.MockGroupRepository
	expenseRepo    *fakes.MockExpenseRepository
	shareRepo      *fakes.MockShareRepository
	balanceRepo    *fakes.MockBalanceRepository
	settlementRepo *fakes.MockSettlementRepository
	cache          *fakes.MockCache
	locks          *usecase.GroupLocks

	balances    *usecase.BalanceUseCase
	expenses    *usecase.ExpenseUseCase
	settlements *usecase.SettlementUseCase
}

func newTestEnv() *testEnv {
	env := &testEnv{
		groupRepo:      fakes.NewMockGroupRepository(),
		expenseRepo:    fakes.NewMockExpenseRepository(),
		balanceRepo:    fakes.NewMockBalanceRepository(),
		settlementRepo: fakes.NewMockSettlementRepository(),
		cache:          fakes.NewMockCache(),
		locks:          usecase.NewGroupLocks(),
	}
	env.shareRepo = fakes.NewMockShareRepository(env.expenseRepo)

	txMgr := fakes.NewMockTransactionManager()
	idGen := fakes.NewMockIDGenerator()
	retrier := fakes.NewMockRetrier()

	env.balances = usecase.NewBalanceUseCase(txMgr, env.groupRepo, env.shareRepo, env.balanceRepo, env.locks, retrier, env.cache, nil)
	env.expenses = usecase.NewExpenseUseCase(txMgr, env.groupRepo, env.expenseRepo, env.shareRepo, idGen, env.balances, nil)
	env.settlements = usecase.NewSettlementUseCase(txMgr, env.groupRepo, env.expenseRepo, env.shareRepo, env.balanceRepo, env.settlementRepo, idGen, env.locks, env.balances, env.cache, nil)

	env.groupRepo.AddGroup(&domain.Group{ID: "grp-1", Name: "Trip", DefaultCurrency: "EUR", CreatedAt: time.Now().UTC()})
	env.groupRepo.AddMember("grp-1", "alice", domain.RoleAdmin)
	env.groupRepo.AddMember("grp-1", "bob", domain.RoleMember)
	env.groupRepo.AddMember("grp-1", "carol", domain.RoleMember)

	return env
}

func eur(units int64) domain.Money {
	return domain.NewMoney(units, "EUR")
}

// addExpense records an equal-split expense through the usecase so shares
// and balances are in the state a real request leaves behind.
func (env *testEnv) addExpense(t *testing.T, paidBy string, amount domain.Money, participantIDs ...string) *usecase.ExpenseOutput {
	t.Helper()

	participants := make([]domain.SplitParticipant, len(participantIDs))
	for i, id := range participantIDs {
		participants[i] = domain.SplitParticipant{UserID: id}
	}

	out, err := env.expenses.Create(context.Background(), usecase.CreateExpenseInput{
		GroupID:      "grp-1",
		CallerID:     paidBy,
		PaidBy:       paidBy,
		Description:  "test expense",
		Amount:       amount,
		SplitType:    domain.SplitEqual,
		Participants: participants,
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	return out
}

// groupBalances reads balance rows straight from the repository, skipping
// the cache.
func (env *testEnv) groupBalances(t *testing.T) map[string]int64 {
	t.Helper()

	rows, err := env.balanceRepo.ListByGroup(context.Background(), "grp-1")
	if err != nil {
		t.Fatalf("list balances: %v", err)
	}

	out := make(map[string]int64, len(rows))
	for _, b := range rows {
		out[b.FromUserID+"->"+b.ToUserID] = b.Amount.Units
	}

	return out
}
