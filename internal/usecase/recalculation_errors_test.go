package usecase_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/usecase"
	"github.com/iho/splitledger/internal/usecase/mocks"
)

func newMockedBalanceUseCase(ctrl *gomock.Controller) (*usecase.BalanceUseCase, *mocks.MockGroupRepository, *mocks.MockShareRepository, *mocks.MockBalanceRepository) {
	groupRepo := mocks.NewMockGroupRepository(ctrl)
	shareRepo := mocks.NewMockShareRepository(ctrl)
	balanceRepo := mocks.NewMockBalanceRepository(ctrl)
	txMgr := mocks.NewMockTransactionManager(ctrl)

	uc := usecase.NewBalanceUseCase(txMgr, groupRepo, shareRepo, balanceRepo, usecase.NewGroupLocks(), nil, nil, nil)

	return uc, groupRepo, shareRepo, balanceRepo
}

func TestBalanceUseCase_Recalculate_GroupLookupFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, groupRepo, _, _ := newMockedBalanceUseCase(ctrl)

	wantErr := errors.New("connection reset")
	groupRepo.EXPECT().GetByID(gomock.Any(), "grp-1").Return(nil, wantErr)

	_, err := uc.Recalculate(context.Background(), "grp-1")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}

func TestBalanceUseCase_Recalculate_ShareListFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, groupRepo, shareRepo, _ := newMockedBalanceUseCase(ctrl)

	groupRepo.EXPECT().GetByID(gomock.Any(), "grp-1").Return(&domain.Group{ID: "grp-1", DefaultCurrency: "EUR"}, nil)
	groupRepo.EXPECT().MemberIDs(gomock.Any(), "grp-1").Return([]string{"alice", "bob"}, nil)

	wantErr := errors.New("query timeout")
	shareRepo.EXPECT().ListUnsettledByGroup(gomock.Any(), "grp-1").Return(nil, wantErr)

	_, err := uc.Recalculate(context.Background(), "grp-1")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}

func TestBalanceUseCase_GroupBalances_MembershipCheckFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, groupRepo, _, _ := newMockedBalanceUseCase(ctrl)

	wantErr := errors.New("connection reset")
	groupRepo.EXPECT().IsMember(gomock.Any(), "grp-1", "alice").Return(false, wantErr)

	_, err := uc.GroupBalances(context.Background(), "grp-1", "alice")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}

func TestBalanceUseCase_ForceRecalculate_RequiresMembership(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, groupRepo, _, _ := newMockedBalanceUseCase(ctrl)

	groupRepo.EXPECT().IsMember(gomock.Any(), "grp-1", "mallory").Return(false, nil)

	_, err := uc.ForceRecalculate(context.Background(), "grp-1", "mallory")
	if !errors.Is(err, domain.ErrNotAMember) {
		t.Fatalf("expected ErrNotAMember, got %v", err)
	}
}

func TestBalanceUseCase_Recalculate_RetrierRunsReplace(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	groupRepo := mocks.NewMockGroupRepository(ctrl)
	shareRepo := mocks.NewMockShareRepository(ctrl)
	balanceRepo := mocks.NewMockBalanceRepository(ctrl)
	txMgr := mocks.NewMockTransactionManager(ctrl)
	tx := mocks.NewMockTransaction(ctrl)
	retrier := mocks.NewMockRetrier(ctrl)

	uc := usecase.NewBalanceUseCase(txMgr, groupRepo, shareRepo, balanceRepo, usecase.NewGroupLocks(), retrier, nil, nil)

	groupRepo.EXPECT().GetByID(gomock.Any(), "grp-1").Return(&domain.Group{ID: "grp-1", DefaultCurrency: "EUR"}, nil)
	groupRepo.EXPECT().MemberIDs(gomock.Any(), "grp-1").Return([]string{"alice", "bob"}, nil)
	shareRepo.EXPECT().ListUnsettledByGroup(gomock.Any(), "grp-1").Return([]*domain.UnsettledShare{
		{ShareID: "sh-1", ExpenseID: "exp-1", UserID: "bob", PayerID: "alice", Amount: domain.NewMoney(500, "EUR")},
	}, nil)

	// The retrier owns the transaction boundary; run the operation once.
	retrier.EXPECT().Retry(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, op func() error) error {
			return op()
		},
	)
	txMgr.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	balanceRepo.EXPECT().ReplaceByGroup(gomock.Any(), tx, "grp-1", gomock.Len(1)).Return(nil)
	tx.EXPECT().Commit(gomock.Any()).Return(nil)
	tx.EXPECT().Rollback(gomock.Any()).Return(nil)

	count, err := uc.Recalculate(context.Background(), "grp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if count != 1 {
		t.Errorf("expected 1 balance row, got %d", count)
	}
}
