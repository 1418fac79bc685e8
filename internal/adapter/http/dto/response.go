package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// MoneyResponse carries an amount as a 2-dp decimal string plus currency.
type MoneyResponse struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func moneyFromDomain(m domain.Money) MoneyResponse {
	return MoneyResponse{Amount: m.Decimal(), Currency: m.Currency}
}

// ShareResponse represents an expense share in API responses.
type ShareResponse struct {
	ID         string        `json:"id"`
	UserID     string        `json:"user_id"`
	Amount     MoneyResponse `json:"amount"`
	Percentage *float64      `json:"percentage,omitempty"`
	IsSettled  bool          `json:"is_settled"`
	SettledAt  *time.Time    `json:"settled_at,omitempty"`
}

// ExpenseResponse represents an expense in API responses.
type ExpenseResponse struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id"`
	PaidBy      string          `json:"paid_by"`
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
	Amount      MoneyResponse   `json:"amount"`
	SplitType   string          `json:"split_type"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Shares      []ShareResponse `json:"shares,omitempty"`
}

// ExpenseFromDomain converts a domain expense with its shares to a
// response.
func ExpenseFromDomain(e *domain.Expense, shares []*domain.ExpenseShare) *ExpenseResponse {
	resp := &ExpenseResponse{
		ID:          e.ID,
		GroupID:     e.GroupID,
		PaidBy:      e.PaidBy,
		Description: e.Description,
		Category:    e.Category,
		Amount:      moneyFromDomain(e.Amount),
		SplitType:   string(e.SplitType),
		Date:        e.Date,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}

	for _, s := range shares {
		resp.Shares = append(resp.Shares, ShareResponse{
			ID:         s.ID,
			UserID:     s.UserID,
			Amount:     moneyFromDomain(s.Amount),
			Percentage: s.Percentage,
			IsSettled:  s.IsSettled,
			SettledAt:  s.SettledAt,
		})
	}

	return resp
}

// ExpensesFromDomain converts domain expenses to responses without
// shares.
func ExpensesFromDomain(expenses []*domain.Expense) []*ExpenseResponse {
	result := make([]*ExpenseResponse, len(expenses))
	for i, e := range expenses {
		result[i] = ExpenseFromDomain(e, nil)
	}
	return result
}

// BalanceResponse represents one simplified debt in API responses.
type BalanceResponse struct {
	FromUserID string        `json:"from_user_id"`
	ToUserID   string        `json:"to_user_id"`
	Amount     MoneyResponse `json:"amount"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// MemberBalanceResponse represents one member's totals.
type MemberBalanceResponse struct {
	UserID     string        `json:"user_id"`
	TotalOwing MoneyResponse `json:"total_owing"`
	TotalOwed  MoneyResponse `json:"total_owed"`
	Net        MoneyResponse `json:"net"`
}

// GroupBalancesResponse is the full balance view of a group.
type GroupBalancesResponse struct {
	Balances []BalanceResponse       `json:"balances"`
	Summary  []MemberBalanceResponse `json:"summary"`
}

// GroupBalancesFromDomain converts the usecase balance view to a
// response.
func GroupBalancesFromDomain(out *usecase.GroupBalancesOutput) *GroupBalancesResponse {
	resp := &GroupBalancesResponse{
		Balances: make([]BalanceResponse, len(out.Balances)),
		Summary:  make([]MemberBalanceResponse, len(out.Summary)),
	}

	for i, b := range out.Balances {
		resp.Balances[i] = BalanceResponse{
			FromUserID: b.FromUserID,
			ToUserID:   b.ToUserID,
			Amount:     moneyFromDomain(b.Amount),
			UpdatedAt:  b.UpdatedAt,
		}
	}

	for i, s := range out.Summary {
		resp.Summary[i] = MemberBalanceFromDomain(&s)
	}

	return resp
}

// MemberBalanceFromDomain converts one member summary to a response.
func MemberBalanceFromDomain(s *domain.MemberBalance) MemberBalanceResponse {
	return MemberBalanceResponse{
		UserID:     s.UserID,
		TotalOwing: moneyFromDomain(s.TotalOwing),
		TotalOwed:  moneyFromDomain(s.TotalOwed),
		Net:        moneyFromDomain(s.Net),
	}
}

// RecalculateResponse reports the outcome of a forced recalculation.
type RecalculateResponse struct {
	BalanceCount int `json:"balance_count"`
}

// SettlementResponse represents a settlement in API responses.
type SettlementResponse struct {
	ID         string        `json:"id"`
	GroupID    string        `json:"group_id"`
	FromUserID string        `json:"from_user_id"`
	ToUserID   string        `json:"to_user_id"`
	Amount     MoneyResponse `json:"amount"`
	Date       time.Time     `json:"date"`
	Notes      string        `json:"notes,omitempty"`
}

// SettlementFromDomain converts a domain settlement to a response.
func SettlementFromDomain(s *domain.Settlement) *SettlementResponse {
	return &SettlementResponse{
		ID:         s.ID,
		GroupID:    s.GroupID,
		FromUserID: s.FromUserID,
		ToUserID:   s.ToUserID,
		Amount:     moneyFromDomain(s.Amount),
		Date:       s.Date,
		Notes:      s.Notes,
	}
}

// SettlementsFromDomain converts domain settlements to responses.
func SettlementsFromDomain(settlements []*domain.Settlement) []*SettlementResponse {
	result := make([]*SettlementResponse, len(settlements))
	for i, s := range settlements {
		result[i] = SettlementFromDomain(s)
	}
	return result
}

// UserSettlementsResponse splits a member's settlements by direction.
type UserSettlementsResponse struct {
	Sent     []*SettlementResponse `json:"sent"`
	Received []*SettlementResponse `json:"received"`
}

// UserSummaryResponse aggregates one member's expense totals in a group.
type UserSummaryResponse struct {
	TotalPaid    MoneyResponse `json:"total_paid"`
	TotalOwed    MoneyResponse `json:"total_owed"`
	TotalPending MoneyResponse `json:"total_pending"`
	TotalSettled MoneyResponse `json:"total_settled"`
	Net          MoneyResponse `json:"net"`
}

// UserSummaryFromDomain converts a domain summary to a response.
func UserSummaryFromDomain(s *domain.UserExpenseSummary) *UserSummaryResponse {
	return &UserSummaryResponse{
		TotalPaid:    moneyFromDomain(s.TotalPaid),
		TotalOwed:    moneyFromDomain(s.TotalOwed),
		TotalPending: moneyFromDomain(s.TotalPending),
		TotalSettled: moneyFromDomain(s.TotalSettled),
		Net:          moneyFromDomain(s.Net),
	}
}
