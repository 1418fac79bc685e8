//	mockgen -source=internal/usecase/interfaces.go -destination=internal/usecase/mocks/mock_interfaces.go -package=mocks
//

// Package mocks is a generated GoMock package.
package mocks

import (
	context "context"
	reflect "reflect"
	time "time"

	domain "github.com/iho/splitledger/internal/domain"
	usecase "github.com/iho/splitledger/internal/usecase"
	gomock "go.uber.org/mock/gomock"
)

// MockGroupRepository is a mock of GroupRepository interface.
type MockGroupRepository struct {
	ctrl     *gomock.Controller
	recorder *MockGroupRepositoryMockRecorder
	isgomock struct{}
}

// MockGroupRepositoryMockRecorder is the mock recorder for MockGroupRepository.
type MockGroupRepositoryMockRecorder struct {
	mock *MockGroupRepository
}

// NewMockGroupRepository creates a new mock instance.
func NewMockGroupRepository(ctrl *gomock.Controller) *MockGroupRepository {
	mock := &MockGroupRepository{ctrl: ctrl}
	mock.recorder = &MockGroupRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockGroupRepository) EXPECT() *MockGroupRepositoryMockRecorder {
	return m.recorder
}

// GetByID mocks base method.
func (m *MockGroupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByID", ctx, id)
	ret0, _ := ret[0].(*domain.Group)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByID indicates an expected call of GetByID.
func (mr *MockGroupRepositoryMockRecorder) GetByID(ctx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByID", reflect.TypeOf((*MockGroupRepository)(nil).GetByID), ctx, id)
}

// IsAdmin mocks base method.
func (m *MockGroupRepository) IsAdmin(ctx context.Context, groupID, userID string) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "IsAdmin", ctx, groupID, userID)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// IsAdmin indicates an expected call of IsAdmin.
func (mr *MockGroupRepositoryMockRecorder) IsAdmin(ctx, groupID, userID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "IsAdmin", reflect.TypeOf((*MockGroupRepository)(nil).IsAdmin), ctx, groupID, userID)
}

// IsMember mocks base method.
func (m *MockGroupRepository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "IsMember", ctx, groupID, userID)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// IsMember indicates an expected call of IsMember.
func (mr *MockGroupRepositoryMockRecorder) IsMember(ctx, groupID, userID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "IsMember", reflect.TypeOf((*MockGroupRepository)(nil).IsMember), ctx, groupID, userID)
}

// MemberIDs mocks base method.
func (m *MockGroupRepository) MemberIDs(ctx context.Context, groupID string) ([]string, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "MemberIDs", ctx, groupID)
	ret0, _ := ret[0].([]string)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// MemberIDs indicates an expected call of MemberIDs.
func (mr *MockGroupRepositoryMockRecorder) MemberIDs(ctx, groupID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "MemberIDs", reflect.TypeOf((*MockGroupRepository)(nil).MemberIDs), ctx, groupID)
}

// MockExpenseRepository is a mock of ExpenseRepository interface.
type MockExpenseRepository struct {
	ctrl     *gomock.Controller
	recorder *MockExpenseRepositoryMockRecorder
	isgomock struct{}
}

// MockExpenseRepositoryMockRecorder is the mock recorder for MockExpenseRepository.
type MockExpenseRepositoryMockRecorder struct {
	mock *MockExpenseRepository
}

// NewMockExpenseRepository creates a new mock instance.
func NewMockExpenseRepository(ctrl *gomock.Controller) *MockExpenseRepository {
	mock := &MockExpenseRepository{ctrl: ctrl}
	mock.recorder = &MockExpenseRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockExpenseRepository) EXPECT() *MockExpenseRepositoryMockRecorder {
	return m.recorder
}

// Create mocks base method.
func (m *MockExpenseRepository) Create(ctx context.Context, tx usecase.Transaction, expense *domain.Expense) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, tx, expense)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create.
func (mr *MockExpenseRepositoryMockRecorder) Create(ctx, tx, expense any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockExpenseRepository)(nil).Create), ctx, tx, expense)
}

// Delete mocks base method.
func (m *MockExpenseRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Delete", ctx, tx, id)
	ret0, _ := ret[0].(error)
	return ret0
}

// Delete indicates an expected call of Delete.
func (mr *MockExpenseRepositoryMockRecorder) Delete(ctx, tx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Delete", reflect.TypeOf((*MockExpenseRepository)(nil).Delete), ctx, tx, id)
}

// GetByID mocks base method.
func (m *MockExpenseRepository) GetByID(ctx context.Context, groupID, id string) (*domain.Expense, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByID", ctx, groupID, id)
	ret0, _ := ret[0].(*domain.Expense)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByID indicates an expected call of GetByID.
func (mr *MockExpenseRepositoryMockRecorder) GetByID(ctx, groupID, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByID", reflect.TypeOf((*MockExpenseRepository)(nil).GetByID), ctx, groupID, id)
}

// ListByGroup mocks base method.
func (m *MockExpenseRepository) ListByGroup(ctx context.Context, groupID string, filter domain.ExpenseFilter) ([]*domain.Expense, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListByGroup", ctx, groupID, filter)
	ret0, _ := ret[0].([]*domain.Expense)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListByGroup indicates an expected call of ListByGroup.
func (mr *MockExpenseRepositoryMockRecorder) ListByGroup(ctx, groupID, filter any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListByGroup", reflect.TypeOf((*MockExpenseRepository)(nil).ListByGroup), ctx, groupID, filter)
}

// Update mocks base method.
func (m *MockExpenseRepository) Update(ctx context.Context, tx usecase.Transaction, expense *domain.Expense) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Update", ctx, tx, expense)
	ret0, _ := ret[0].(error)
	return ret0
}

// Update indicates an expected call of Update.
func (mr *MockExpenseRepositoryMockRecorder) Update(ctx, tx, expense any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Update", reflect.TypeOf((*MockExpenseRepository)(nil).Update), ctx, tx, expense)
}

// MockShareRepository is a mock of ShareRepository interface.
type MockShareRepository struct {
	ctrl     *gomock.Controller
	recorder *MockShareRepositoryMockRecorder
	isgomock struct{}
}

// MockShareRepositoryMockRecorder is the mock recorder for MockShareRepository.
type MockShareRepositoryMockRecorder struct {
	mock *MockShareRepository
}

// NewMockShareRepository creates a new mock instance.
func NewMockShareRepository(ctrl *gomock.Controller) *MockShareRepository {
	mock := &MockShareRepository{ctrl: ctrl}
	mock.recorder = &MockShareRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockShareRepository) EXPECT() *MockShareRepositoryMockRecorder {
	return m.recorder
}

// CreateBatch mocks base method.
func (m *MockShareRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, shares []*domain.ExpenseShare) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateBatch", ctx, tx, shares)
	ret0, _ := ret[0].(error)
	return ret0
}

// CreateBatch indicates an expected call of CreateBatch.
func (mr *MockShareRepositoryMockRecorder) CreateBatch(ctx, tx, shares any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateBatch", reflect.TypeOf((*MockShareRepository)(nil).CreateBatch), ctx, tx, shares)
}

// DeleteByExpense mocks base method.
func (m *MockShareRepository) DeleteByExpense(ctx context.Context, tx usecase.Transaction, expenseID string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DeleteByExpense", ctx, tx, expenseID)
	ret0, _ := ret[0].(error)
	return ret0
}

// DeleteByExpense indicates an expected call of DeleteByExpense.
func (mr *MockShareRepositoryMockRecorder) DeleteByExpense(ctx, tx, expenseID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DeleteByExpense", reflect.TypeOf((*MockShareRepository)(nil).DeleteByExpense), ctx, tx, expenseID)
}

// HasSettled mocks base method.
func (m *MockShareRepository) HasSettled(ctx context.Context, expenseID string) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "HasSettled", ctx, expenseID)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// HasSettled indicates an expected call of HasSettled.
func (mr *MockShareRepositoryMockRecorder) HasSettled(ctx, expenseID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "HasSettled", reflect.TypeOf((*MockShareRepository)(nil).HasSettled), ctx, expenseID)
}

// ListByExpense mocks base method.
func (m *MockShareRepository) ListByExpense(ctx context.Context, expenseID string) ([]*domain.ExpenseShare, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListByExpense", ctx, expenseID)
	ret0, _ := ret[0].([]*domain.ExpenseShare)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListByExpense indicates an expected call of ListByExpense.
func (mr *MockShareRepositoryMockRecorder) ListByExpense(ctx, expenseID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListByExpense", reflect.TypeOf((*MockShareRepository)(nil).ListByExpense), ctx, expenseID)
}

// ListUnsettledByGroup mocks base method.
func (m *MockShareRepository) ListUnsettledByGroup(ctx context.Context, groupID string) ([]*domain.UnsettledShare, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListUnsettledByGroup", ctx, groupID)
	ret0, _ := ret[0].([]*domain.UnsettledShare)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListUnsettledByGroup indicates an expected call of ListUnsettledByGroup.
func (mr *MockShareRepositoryMockRecorder) ListUnsettledByGroup(ctx, groupID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListUnsettledByGroup", reflect.TypeOf((*MockShareRepository)(nil).ListUnsettledByGroup), ctx, groupID)
}

// MarkSettled mocks base method.
func (m *MockShareRepository) MarkSettled(ctx context.Context, tx usecase.Transaction, shareIDs []string, settledAt time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "MarkSettled", ctx, tx, shareIDs, settledAt)
	ret0, _ := ret[0].(error)
	return ret0
}

// MarkSettled indicates an expected call of MarkSettled.
func (mr *MockShareRepositoryMockRecorder) MarkSettled(ctx, tx, shareIDs, settledAt any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "MarkSettled", reflect.TypeOf((*MockShareRepository)(nil).MarkSettled), ctx, tx, shareIDs, settledAt)
}

// UserSummary mocks base method.
func (m *MockShareRepository) UserSummary(ctx context.Context, groupID, userID string) (*domain.UserExpenseSummary, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UserSummary", ctx, groupID, userID)
	ret0, _ := ret[0].(*domain.UserExpenseSummary)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// UserSummary indicates an expected call of UserSummary.
func (mr *MockShareRepositoryMockRecorder) UserSummary(ctx, groupID, userID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UserSummary", reflect.TypeOf((*MockShareRepository)(nil).UserSummary), ctx, groupID, userID)
}

// MockBalanceRepository is a mock of BalanceRepository interface.
type MockBalanceRepository struct {
	ctrl     *gomock.Controller
	recorder *MockBalanceRepositoryMockRecorder
	isgomock struct{}
}

// MockBalanceRepositoryMockRecorder is the mock recorder for MockBalanceRepository.
type MockBalanceRepositoryMockRecorder struct {
	mock *MockBalanceRepository
}

// NewMockBalanceRepository creates a new mock instance.
func NewMockBalanceRepository(ctrl *gomock.Controller) *MockBalanceRepository {
	mock := &MockBalanceRepository{ctrl: ctrl}
	mock.recorder = &MockBalanceRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockBalanceRepository) EXPECT() *MockBalanceRepositoryMockRecorder {
	return m.recorder
}

// Delete mocks base method.
func (m *MockBalanceRepository) Delete(ctx context.Context, tx usecase.Transaction, groupID, fromUserID, toUserID string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Delete", ctx, tx, groupID, fromUserID, toUserID)
	ret0, _ := ret[0].(error)
	return ret0
}

// Delete indicates an expected call of Delete.
func (mr *MockBalanceRepositoryMockRecorder) Delete(ctx, tx, groupID, fromUserID, toUserID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Delete", reflect.TypeOf((*MockBalanceRepository)(nil).Delete), ctx, tx, groupID, fromUserID, toUserID)
}

// GetForUpdate mocks base method.
func (m *MockBalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, groupID, fromUserID, toUserID string) (*domain.Balance, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetForUpdate", ctx, tx, groupID, fromUserID, toUserID)
	ret0, _ := ret[0].(*domain.Balance)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetForUpdate indicates an expected call of GetForUpdate.
func (mr *MockBalanceRepositoryMockRecorder) GetForUpdate(ctx, tx, groupID, fromUserID, toUserID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetForUpdate", reflect.TypeOf((*MockBalanceRepository)(nil).GetForUpdate), ctx, tx, groupID, fromUserID, toUserID)
}

// ListByGroup mocks base method.
func (m *MockBalanceRepository) ListByGroup(ctx context.Context, groupID string) ([]*domain.Balance, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListByGroup", ctx, groupID)
	ret0, _ := ret[0].([]*domain.Balance)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListByGroup indicates an expected call of ListByGroup.
func (mr *MockBalanceRepositoryMockRecorder) ListByGroup(ctx, groupID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListByGroup", reflect.TypeOf((*MockBalanceRepository)(nil).ListByGroup), ctx, groupID)
}

// ReplaceByGroup mocks base method.
func (m *MockBalanceRepository) ReplaceByGroup(ctx context.Context, tx usecase.Transaction, groupID string, balances []*domain.Balance) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ReplaceByGroup", ctx, tx, groupID, balances)
	ret0, _ := ret[0].(error)
	return ret0
}

// ReplaceByGroup indicates an expected call of ReplaceByGroup.
func (mr *MockBalanceRepositoryMockRecorder) ReplaceByGroup(ctx, tx, groupID, balances any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ReplaceByGroup", reflect.TypeOf((*MockBalanceRepository)(nil).ReplaceByGroup), ctx, tx, groupID, balances)
}

// UpdateAmount mocks base method.
func (m *MockBalanceRepository) UpdateAmount(ctx context.Context, tx usecase.Transaction, groupID, fromUserID, toUserID string, amount domain.Money, updatedAt time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateAmount", ctx, tx, groupID, fromUserID, toUserID, amount, updatedAt)
	ret0, _ := ret[0].(error)
	return ret0
}

// UpdateAmount indicates an expected call of UpdateAmount.
func (mr *MockBalanceRepositoryMockRecorder) UpdateAmount(ctx, tx, groupID, fromUserID, toUserID, amount, updatedAt any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateAmount", reflect.TypeOf((*MockBalanceRepository)(nil).UpdateAmount), ctx, tx, groupID, fromUserID, toUserID, amount, updatedAt)
}

// MockSettlementRepository is a mock of SettlementRepository interface.
type MockSettlementRepository struct {
	ctrl     *gomock.Controller
	recorder *MockSettlementRepositoryMockRecorder
	isgomock struct{}
}

// MockSettlementRepositoryMockRecorder is the mock recorder for MockSettlementRepository.
type MockSettlementRepositoryMockRecorder struct {
	mock *MockSettlementRepository
}

// NewMockSettlementRepository creates a new mock instance.
func NewMockSettlementRepository(ctrl *gomock.Controller) *MockSettlementRepository {
	mock := &MockSettlementRepository{ctrl: ctrl}
	mock.recorder = &MockSettlementRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockSettlementRepository) EXPECT() *MockSettlementRepositoryMockRecorder {
	return m.recorder
}

// Create mocks base method.
func (m *MockSettlementRepository) Create(ctx context.Context, tx usecase.Transaction, settlement *domain.Settlement) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, tx, settlement)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create.
func (mr *MockSettlementRepositoryMockRecorder) Create(ctx, tx, settlement any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockSettlementRepository)(nil).Create), ctx, tx, settlement)
}

// ListByGroup mocks base method.
func (m *MockSettlementRepository) ListByGroup(ctx context.Context, groupID string) ([]*domain.Settlement, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListByGroup", ctx, groupID)
	ret0, _ := ret[0].([]*domain.Settlement)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListByGroup indicates an expected call of ListByGroup.
func (mr *MockSettlementRepositoryMockRecorder) ListByGroup(ctx, groupID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListByGroup", reflect.TypeOf((*MockSettlementRepository)(nil).ListByGroup), ctx, groupID)
}

// ListByUser mocks base method.
func (m *MockSettlementRepository) ListByUser(ctx context.Context, groupID, userID string) ([]*domain.Settlement, []*domain.Settlement, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListByUser", ctx, groupID, userID)
	ret0, _ := ret[0].([]*domain.Settlement)
	ret1, _ := ret[1].([]*domain.Settlement)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// ListByUser indicates an expected call of ListByUser.
func (mr *MockSettlementRepositoryMockRecorder) ListByUser(ctx, groupID, userID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListByUser", reflect.TypeOf((*MockSettlementRepository)(nil).ListByUser), ctx, groupID, userID)
}

// MockBalanceRecalculator is a mock of BalanceRecalculator interface.
type MockBalanceRecalculator struct {
	ctrl     *gomock.Controller
	recorder *MockBalanceRecalculatorMockRecorder
	isgomock struct{}
}

// MockBalanceRecalculatorMockRecorder is the mock recorder for MockBalanceRecalculator.
type MockBalanceRecalculatorMockRecorder struct {
	mock *MockBalanceRecalculator
}

// NewMockBalanceRecalculator creates a new mock instance.
func NewMockBalanceRecalculator(ctrl *gomock.Controller) *MockBalanceRecalculator {
	mock := &MockBalanceRecalculator{ctrl: ctrl}
	mock.recorder = &MockBalanceRecalculatorMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockBalanceRecalculator) EXPECT() *MockBalanceRecalculatorMockRecorder {
	return m.recorder
}

// Recalculate mocks base method.
func (m *MockBalanceRecalculator) Recalculate(ctx context.Context, groupID string) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Recalculate", ctx, groupID)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Recalculate indicates an expected call of Recalculate.
func (mr *MockBalanceRecalculatorMockRecorder) Recalculate(ctx, groupID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Recalculate", reflect.TypeOf((*MockBalanceRecalculator)(nil).Recalculate), ctx, groupID)
}

// MockTransaction is a mock of Transaction interface.
type MockTransaction struct {
	ctrl     *gomock.Controller
	recorder *MockTransactionMockRecorder
	isgomock struct{}
}

// MockTransactionMockRecorder is the mock recorder for MockTransaction.
type MockTransactionMockRecorder struct {
	mock *MockTransaction
}

// NewMockTransaction creates a new mock instance.
func NewMockTransaction(ctrl *gomock.Controller) *MockTransaction {
	mock := &MockTransaction{ctrl: ctrl}
	mock.recorder = &MockTransactionMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockTransaction) EXPECT() *MockTransactionMockRecorder {
	return m.recorder
}

// Commit mocks base method.
func (m *MockTransaction) Commit(ctx context.Context) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Commit", ctx)
	ret0, _ := ret[0].(error)
	return ret0
}

// Commit indicates an expected call of Commit.
func (mr *MockTransactionMockRecorder) Commit(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Commit", reflect.TypeOf((*MockTransaction)(nil).Commit), ctx)
}

// Rollback mocks base method.
func (m *MockTransaction) Rollback(ctx context.Context) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Rollback", ctx)
	ret0, _ := ret[0].(error)
	return ret0
}

// Rollback indicates an expected call of Rollback.
func (mr *MockTransactionMockRecorder) Rollback(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Rollback", reflect.TypeOf((*MockTransaction)(nil).Rollback), ctx)
}

// MockTransactionManager is a mock of TransactionManager interface.
type MockTransactionManager struct {
	ctrl     *gomock.Controller
	recorder *MockTransactionManagerMockRecorder
	isgomock struct{}
}

// MockTransactionManagerMockRecorder is the mock recorder for MockTransactionManager.
type MockTransactionManagerMockRecorder struct {
	mock *MockTransactionManager
}

// NewMockTransactionManager creates a new mock instance.
func NewMockTransactionManager(ctrl *gomock.Controller) *MockTransactionManager {
	mock := &MockTransactionManager{ctrl: ctrl}
	mock.recorder = &MockTransactionManagerMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockTransactionManager) EXPECT() *MockTransactionManagerMockRecorder {
	return m.recorder
}

// Begin mocks base method.
func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Begin", ctx)
	ret0, _ := ret[0].(usecase.Transaction)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Begin indicates an expected call of Begin.
func (mr *MockTransactionManagerMockRecorder) Begin(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Begin", reflect.TypeOf((*MockTransactionManager)(nil).Begin), ctx)
}

// MockIDGenerator is a mock of IDGenerator interface.
type MockIDGenerator struct {
	ctrl     *gomock.Controller
	recorder *MockIDGeneratorMockRecorder
	isgomock struct{}
}

// MockIDGeneratorMockRecorder is the mock recorder for MockIDGenerator.
type MockIDGeneratorMockRecorder struct {
	mock *MockIDGenerator
}

// NewMockIDGenerator creates a new mock instance.
func NewMockIDGenerator(ctrl *gomock.Controller) *MockIDGenerator {
	mock := &MockIDGenerator{ctrl: ctrl}
	mock.recorder = &MockIDGeneratorMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockIDGenerator) EXPECT() *MockIDGeneratorMockRecorder {
	return m.recorder
}

// Generate mocks base method.
func (m *MockIDGenerator) Generate() string {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Generate")
	ret0, _ := ret[0].(string)
	return ret0
}

// Generate indicates an expected call of Generate.
func (mr *MockIDGeneratorMockRecorder) Generate() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Generate", reflect.TypeOf((*MockIDGenerator)(nil).Generate))
}

// MockRetrier is a mock of Retrier interface.
type MockRetrier struct {
	ctrl     *gomock.Controller
	recorder *MockRetrierMockRecorder
	isgomock struct{}
}

// MockRetrierMockRecorder is the mock recorder for MockRetrier.
type MockRetrierMockRecorder struct {
	mock *MockRetrier
}

// NewMockRetrier creates a new mock instance.
func NewMockRetrier(ctrl *gomock.Controller) *MockRetrier {
	mock := &MockRetrier{ctrl: ctrl}
	mock.recorder = &MockRetrierMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockRetrier) EXPECT() *MockRetrierMockRecorder {
	return m.recorder
}

// Retry mocks base method.
func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Retry", ctx, operation)
	ret0, _ := ret[0].(error)
	return ret0
}

// Retry indicates an expected call of Retry.
func (mr *MockRetrierMockRecorder) Retry(ctx, operation any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Retry", reflect.TypeOf((*MockRetrier)(nil).Retry), ctx, operation)
}

// MockCache is a mock of Cache interface.
type MockCache struct {
	ctrl     *gomock.Controller
	recorder *MockCacheMockRecorder
	isgomock struct{}
}

// MockCacheMockRecorder is the mock recorder for MockCache.
type MockCacheMockRecorder struct {
	mock *MockCache
}

// NewMockCache creates a new mock instance.
func NewMockCache(ctrl *gomock.Controller) *MockCache {
	mock := &MockCache{ctrl: ctrl}
	mock.recorder = &MockCacheMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockCache) EXPECT() *MockCacheMockRecorder {
	return m.recorder
}

// Delete mocks base method.
func (m *MockCache) Delete(ctx context.Context, key string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Delete", ctx, key)
	ret0, _ := ret[0].(error)
	return ret0
}

// Delete indicates an expected call of Delete.
func (mr *MockCacheMockRecorder) Delete(ctx, key any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Delete", reflect.TypeOf((*MockCache)(nil).Delete), ctx, key)
}

// Get mocks base method.
func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Get", ctx, key)
	ret0, _ := ret[0].([]byte)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Get indicates an expected call of Get.
func (mr *MockCacheMockRecorder) Get(ctx, key any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Get", reflect.TypeOf((*MockCache)(nil).Get), ctx, key)
}

// Set mocks base method.
func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Set", ctx, key, value, ttl)
	ret0, _ := ret[0].(error)
	return ret0
}

// Set indicates an expected call of Set.
func (mr *MockCacheMockRecorder) Set(ctx, key, value, ttl any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Set", reflect.TypeOf((*MockCache)(nil).Set), ctx, key, value, ttl)
}

// MockIdempotencyStore is a mock of IdempotencyStore interface.
type MockIdempotencyStore struct {
	ctrl     *gomock.Controller
	recorder *MockIdempotencyStoreMockRecorder
	isgomock struct{}
}

// MockIdempotencyStoreMockRecorder is the mock recorder for MockIdempotencyStore.
type MockIdempotencyStoreMockRecorder struct {
	mock *MockIdempotencyStore
}

// NewMockIdempotencyStore creates a new mock instance.
func NewMockIdempotencyStore(ctrl *gomock.Controller) *MockIdempotencyStore {
	mock := &MockIdempotencyStore{ctrl: ctrl}
	mock.recorder = &MockIdempotencyStoreMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockIdempotencyStore) EXPECT() *MockIdempotencyStoreMockRecorder {
	return m.recorder
}

// CheckAndSet mocks base method.
func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CheckAndSet", ctx, key, response, ttl)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].([]byte)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// CheckAndSet indicates an expected call of CheckAndSet.
func (mr *MockIdempotencyStoreMockRecorder) CheckAndSet(ctx, key, response, ttl any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CheckAndSet", reflect.TypeOf((*MockIdempotencyStore)(nil).CheckAndSet), ctx, key, response, ttl)
}

// Update mocks base method.
func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Update", ctx, key, response, ttl)
	ret0, _ := ret[0].(error)
	return ret0
}

// Update indicates an expected call of Update.
func (mr *MockIdempotencyStoreMockRecorder) Update(ctx, key, response, ttl any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Update", reflect.TypeOf((*MockIdempotencyStore)(nil).Update), ctx, key, response, ttl)
}
