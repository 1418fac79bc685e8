package fakes

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/usecase"
)

// MockGroupRepository is a mock implementation of GroupRepository.
type MockGroupRepository struct {
	mu      sync.RWMutex
	groups  map[string]*domain.Group
	members map[string]map[string]domain.Role

	GetByIDFunc   func(ctx context.Context, id string) (*domain.Group, error)
	MemberIDsFunc func(ctx context.Context, groupID string) ([]string, error)
	IsMemberFunc  func(ctx context.Context, groupID, userID string) (bool, error)
	IsAdminFunc   func(ctx context.Context, groupID, userID string) (bool, error)
}

func NewMockGroupRepository() *MockGroupRepository {
	return &MockGroupRepository{
		groups:  make(map[string]*domain.Group),
		members: make(map[string]map[string]domain.Role),
	}
}

// AddGroup seeds a group.
func (m *MockGroupRepository) AddGroup(group *domain.Group) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[group.ID] = group
	if m.members[group.ID] == nil {
		m.members[group.ID] = make(map[string]domain.Role)
	}
}

// AddMember seeds a membership.
func (m *MockGroupRepository) AddMember(groupID, userID string, role domain.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.members[groupID] == nil {
		m.members[groupID] = make(map[string]domain.Role)
	}
	m.members[groupID][userID] = role
}

func (m *MockGroupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.groups[id]; ok {
		return g, nil
	}
	return nil, domain.ErrGroupNotFound
}

func (m *MockGroupRepository) MemberIDs(ctx context.Context, groupID string) ([]string, error) {
	if m.MemberIDsFunc != nil {
		return m.MemberIDsFunc(ctx, groupID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.members[groupID]))
	for id := range m.members[groupID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MockGroupRepository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	if m.IsMemberFunc != nil {
		return m.IsMemberFunc(ctx, groupID, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.members[groupID][userID]
	return ok, nil
}

func (m *MockGroupRepository) IsAdmin(ctx context.Context, groupID, userID string) (bool, error) {
	if m.IsAdminFunc != nil {
		return m.IsAdminFunc(ctx, groupID, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.members[groupID][userID] == domain.RoleAdmin, nil
}

// MockExpenseRepository is a mock implementation of ExpenseRepository.
type MockExpenseRepository struct {
	mu       sync.RWMutex
	expenses map[string]*domain.Expense

	CreateFunc      func(ctx context.Context, tx usecase.Transaction, expense *domain.Expense) error
	GetByIDFunc     func(ctx context.Context, groupID, id string) (*domain.Expense, error)
	ListByGroupFunc func(ctx context.Context, groupID string, filter domain.ExpenseFilter) ([]*domain.Expense, error)
	UpdateFunc      func(ctx context.Context, tx usecase.Transaction, expense *domain.Expense) error
	DeleteFunc      func(ctx context.Context, tx usecase.Transaction, id string) error
}

func NewMockExpenseRepository() *MockExpenseRepository {
	return &MockExpenseRepository{
		expenses: make(map[string]*domain.Expense),
	}
}

func (m *MockExpenseRepository) Create(ctx context.Context, tx usecase.Transaction, expense *domain.Expense) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, expense)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expenses[expense.ID] = expense
	return nil
}

func (m *MockExpenseRepository) GetByID(ctx context.Context, groupID, id string) (*domain.Expense, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, groupID, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.expenses[id]; ok && e.GroupID == groupID {
		return e, nil
	}
	return nil, domain.ErrExpenseNotFound
}

func (m *MockExpenseRepository) ListByGroup(ctx context.Context, groupID string, filter domain.ExpenseFilter) ([]*domain.Expense, error) {
	if m.ListByGroupFunc != nil {
		return m.ListByGroupFunc(ctx, groupID, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var expenses []*domain.Expense
	for _, e := range m.expenses {
		if e.GroupID != groupID {
			continue
		}
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if filter.From != nil && e.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.Date.After(*filter.To) {
			continue
		}
		expenses = append(expenses, e)
	}
	sort.Slice(expenses, func(i, j int) bool { return expenses[i].Date.After(expenses[j].Date) })
	if filter.Offset > 0 {
		if filter.Offset >= len(expenses) {
			return nil, nil
		}
		expenses = expenses[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(expenses) {
		expenses = expenses[:filter.Limit]
	}
	return expenses, nil
}

func (m *MockExpenseRepository) Update(ctx context.Context, tx usecase.Transaction, expense *domain.Expense) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, expense)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.expenses[expense.ID]; !ok {
		return domain.ErrExpenseNotFound
	}
	m.expenses[expense.ID] = expense
	return nil
}

func (m *MockExpenseRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.expenses, id)
	return nil
}

// MockShareRepository is a mock implementation of ShareRepository. When
// given an expense repository it derives unsettled shares and summaries
// from the seeded state, the way the real SQL joins do.
type MockShareRepository struct {
	mu       sync.RWMutex
	shares   map[string][]*domain.ExpenseShare
	expenses *MockExpenseRepository

	CreateBatchFunc          func(ctx context.Context, tx usecase.Transaction, shares []*domain.ExpenseShare) error
	DeleteByExpenseFunc      func(ctx context.Context, tx usecase.Transaction, expenseID string) error
	ListByExpenseFunc        func(ctx context.Context, expenseID string) ([]*domain.ExpenseShare, error)
	ListUnsettledByGroupFunc func(ctx context.Context, groupID string) ([]*domain.UnsettledShare, error)
	MarkSettledFunc          func(ctx context.Context, tx usecase.Transaction, shareIDs []string, settledAt time.Time) error
	HasSettledFunc           func(ctx context.Context, expenseID string) (bool, error)
	UserSummaryFunc          func(ctx context.Context, groupID, userID string) (*domain.UserExpenseSummary, error)
}

func NewMockShareRepository(expenses *MockExpenseRepository) *MockShareRepository {
	return &MockShareRepository{
		shares:   make(map[string][]*domain.ExpenseShare),
		expenses: expenses,
	}
}

func (m *MockShareRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, shares []*domain.ExpenseShare) error {
	if m.CreateBatchFunc != nil {
		return m.CreateBatchFunc(ctx, tx, shares)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range shares {
		m.shares[s.ExpenseID] = append(m.shares[s.ExpenseID], s)
	}
	return nil
}

func (m *MockShareRepository) DeleteByExpense(ctx context.Context, tx usecase.Transaction, expenseID string) error {
	if m.DeleteByExpenseFunc != nil {
		return m.DeleteByExpenseFunc(ctx, tx, expenseID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.shares, expenseID)
	return nil
}

func (m *MockShareRepository) ListByExpense(ctx context.Context, expenseID string) ([]*domain.ExpenseShare, error) {
	if m.ListByExpenseFunc != nil {
		return m.ListByExpenseFunc(ctx, expenseID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.ExpenseShare(nil), m.shares[expenseID]...), nil
}

func (m *MockShareRepository) ListUnsettledByGroup(ctx context.Context, groupID string) ([]*domain.UnsettledShare, error) {
	if m.ListUnsettledByGroupFunc != nil {
		return m.ListUnsettledByGroupFunc(ctx, groupID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var unsettled []*domain.UnsettledShare
	for expenseID, shares := range m.shares {
		expense, err := m.expenses.GetByID(ctx, groupID, expenseID)
		if err != nil {
			continue
		}
		for _, s := range shares {
			if s.IsSettled {
				continue
			}
			unsettled = append(unsettled, &domain.UnsettledShare{
				ShareID:   s.ID,
				ExpenseID: expenseID,
				UserID:    s.UserID,
				PayerID:   expense.PaidBy,
				Amount:    s.Amount,
			})
		}
	}
	sort.Slice(unsettled, func(i, j int) bool { return unsettled[i].ShareID < unsettled[j].ShareID })
	return unsettled, nil
}

func (m *MockShareRepository) MarkSettled(ctx context.Context, tx usecase.Transaction, shareIDs []string, settledAt time.Time) error {
	if m.MarkSettledFunc != nil {
		return m.MarkSettledFunc(ctx, tx, shareIDs, settledAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make(map[string]struct{}, len(shareIDs))
	for _, id := range shareIDs {
		ids[id] = struct{}{}
	}
	for _, shares := range m.shares {
		for _, s := range shares {
			if _, ok := ids[s.ID]; ok {
				s.IsSettled = true
				at := settledAt
				s.SettledAt = &at
			}
		}
	}
	return nil
}

func (m *MockShareRepository) HasSettled(ctx context.Context, expenseID string) (bool, error) {
	if m.HasSettledFunc != nil {
		return m.HasSettledFunc(ctx, expenseID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	expense, err := m.expenses.GetByIDAny(expenseID)
	if err != nil {
		return false, err
	}
	for _, s := range m.shares[expenseID] {
		if s.IsSettled && s.UserID != expense.PaidBy {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockShareRepository) UserSummary(ctx context.Context, groupID, userID string) (*domain.UserExpenseSummary, error) {
	if m.UserSummaryFunc != nil {
		return m.UserSummaryFunc(ctx, groupID, userID)
	}
	return &domain.UserExpenseSummary{}, nil
}

// GetByIDAny looks an expense up without knowing its group.
func (m *MockExpenseRepository) GetByIDAny(id string) (*domain.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.expenses[id]; ok {
		return e, nil
	}
	return nil, domain.ErrExpenseNotFound
}

// MockBalanceRepository is a mock implementation of BalanceRepository.
type MockBalanceRepository struct {
	mu       sync.RWMutex
	balances map[string]map[string]*domain.Balance

	ListByGroupFunc    func(ctx context.Context, groupID string) ([]*domain.Balance, error)
	GetForUpdateFunc   func(ctx context.Context, tx usecase.Transaction, groupID, fromUserID, toUserID string) (*domain.Balance, error)
	ReplaceByGroupFunc func(ctx context.Context, tx usecase.Transaction, groupID string, balances []*domain.Balance) error
	UpdateAmountFunc   func(ctx context.Context, tx usecase.Transaction, groupID, fromUserID, toUserID string, amount domain.Money, updatedAt time.Time) error
	DeleteFunc         func(ctx context.Context, tx usecase.Transaction, groupID, fromUserID, toUserID string) error
}

func NewMockBalanceRepository() *MockBalanceRepository {
	return &MockBalanceRepository{
		balances: make(map[string]map[string]*domain.Balance),
	}
}

func balanceKey(fromUserID, toUserID string) string {
	return fromUserID + "->" + toUserID
}

func (m *MockBalanceRepository) ListByGroup(ctx context.Context, groupID string) ([]*domain.Balance, error) {
	if m.ListByGroupFunc != nil {
		return m.ListByGroupFunc(ctx, groupID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var balances []*domain.Balance
	for _, b := range m.balances[groupID] {
		balances = append(balances, b)
	}
	sort.Slice(balances, func(i, j int) bool {
		if balances[i].FromUserID != balances[j].FromUserID {
			return balances[i].FromUserID < balances[j].FromUserID
		}
		return balances[i].ToUserID < balances[j].ToUserID
	})
	return balances, nil
}

func (m *MockBalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, groupID, fromUserID, toUserID string) (*domain.Balance, error) {
	if m.GetForUpdateFunc != nil {
		return m.GetForUpdateFunc(ctx, tx, groupID, fromUserID, toUserID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.balances[groupID][balanceKey(fromUserID, toUserID)]; ok {
		return b, nil
	}
	return nil, domain.ErrBalanceNotFound
}

func (m *MockBalanceRepository) ReplaceByGroup(ctx context.Context, tx usecase.Transaction, groupID string, balances []*domain.Balance) error {
	if m.ReplaceByGroupFunc != nil {
		return m.ReplaceByGroupFunc(ctx, tx, groupID, balances)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := make(map[string]*domain.Balance, len(balances))
	for _, b := range balances {
		rows[balanceKey(b.FromUserID, b.ToUserID)] = b
	}
	m.balances[groupID] = rows
	return nil
}

func (m *MockBalanceRepository) UpdateAmount(ctx context.Context, tx usecase.Transaction, groupID, fromUserID, toUserID string, amount domain.Money, updatedAt time.Time) error {
	if m.UpdateAmountFunc != nil {
		return m.UpdateAmountFunc(ctx, tx, groupID, fromUserID, toUserID, amount, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[groupID][balanceKey(fromUserID, toUserID)]
	if !ok {
		return domain.ErrBalanceNotFound
	}
	b.Amount = amount
	b.UpdatedAt = updatedAt
	return nil
}

func (m *MockBalanceRepository) Delete(ctx context.Context, tx usecase.Transaction, groupID, fromUserID, toUserID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, tx, groupID, fromUserID, toUserID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.balances[groupID], balanceKey(fromUserID, toUserID))
	return nil
}

// MockSettlementRepository is a mock implementation of SettlementRepository.
type MockSettlementRepository struct {
	mu          sync.RWMutex
	settlements map[string][]*domain.Settlement

	CreateFunc      func(ctx context.Context, tx usecase.Transaction, settlement *domain.Settlement) error
	ListByGroupFunc func(ctx context.Context, groupID string) ([]*domain.Settlement, error)
	ListByUserFunc  func(ctx context.Context, groupID, userID string) ([]*domain.Settlement, []*domain.Settlement, error)
}

func NewMockSettlementRepository() *MockSettlementRepository {
	return &MockSettlementRepository{
		settlements: make(map[string][]*domain.Settlement),
	}
}

func (m *MockSettlementRepository) Create(ctx context.Context, tx usecase.Transaction, settlement *domain.Settlement) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, settlement)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settlements[settlement.GroupID] = append(m.settlements[settlement.GroupID], settlement)
	return nil
}

func (m *MockSettlementRepository) ListByGroup(ctx context.Context, groupID string) ([]*domain.Settlement, error) {
	if m.ListByGroupFunc != nil {
		return m.ListByGroupFunc(ctx, groupID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.Settlement(nil), m.settlements[groupID]...), nil
}

func (m *MockSettlementRepository) ListByUser(ctx context.Context, groupID, userID string) ([]*domain.Settlement, []*domain.Settlement, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, groupID, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var outgoing, incoming []*domain.Settlement
	for _, s := range m.settlements[groupID] {
		switch userID {
		case s.FromUserID:
			outgoing = append(outgoing, s)
		case s.ToUserID:
			incoming = append(incoming, s)
		}
	}
	return outgoing, incoming, nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%d", m.counter)
}

// MockRetrier is a mock implementation of Retrier that runs the operation
// once.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}

// MockCache is a mock implementation of Cache.
type MockCache struct {
	mu   sync.RWMutex
	data map[string][]byte

	GetFunc    func(ctx context.Context, key string) ([]byte, error)
	SetFunc    func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error
}

func NewMockCache() *MockCache {
	return &MockCache{
		data: make(map[string][]byte),
	}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, nil
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}
