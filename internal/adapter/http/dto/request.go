package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/usecase"
)

// ParticipantShare declares one participant of an expense. Percentage is
// required for percentage splits, Amount for custom splits.
type ParticipantShare struct {
	UserID     string           `json:"user_id"`
	Percentage *float64         `json:"percentage,omitempty"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
}

func (p ParticipantShare) toDomain(currency string) (domain.SplitParticipant, error) {
	participant := domain.SplitParticipant{
		UserID:     p.UserID,
		Percentage: p.Percentage,
	}

	if p.Amount != nil {
		m, err := domain.MoneyFromDecimal(*p.Amount, currency)
		if err != nil {
			return domain.SplitParticipant{}, err
		}

		participant.Amount = &m
	}

	return participant, nil
}

func participantsToDomain(participants []ParticipantShare, currency string) ([]domain.SplitParticipant, error) {
	out := make([]domain.SplitParticipant, len(participants))

	for i, p := range participants {
		participant, err := p.toDomain(currency)
		if err != nil {
			return nil, err
		}

		out[i] = participant
	}

	return out, nil
}

// CreateExpenseRequest represents a request to record an expense.
type CreateExpenseRequest struct {
	Description  string             `json:"description"`
	Category     string             `json:"category,omitempty"`
	Amount       decimal.Decimal    `json:"amount"`
	Currency     string             `json:"currency"`
	SplitType    string             `json:"split_type"`
	PaidBy       string             `json:"paid_by,omitempty"`
	Date         *time.Time         `json:"date,omitempty"`
	Participants []ParticipantShare `json:"participants"`
}

// ToUseCaseInput converts to use case input. An absent paid_by defaults to
// the caller.
func (r *CreateExpenseRequest) ToUseCaseInput(groupID, callerID string) (usecase.CreateExpenseInput, error) {
	if err := domain.ValidateCurrency(r.Currency); err != nil {
		return usecase.CreateExpenseInput{}, err
	}

	amount, err := domain.MoneyFromDecimal(r.Amount, r.Currency)
	if err != nil {
		return usecase.CreateExpenseInput{}, err
	}

	participants, err := participantsToDomain(r.Participants, r.Currency)
	if err != nil {
		return usecase.CreateExpenseInput{}, err
	}

	paidBy := r.PaidBy
	if paidBy == "" {
		paidBy = callerID
	}

	input := usecase.CreateExpenseInput{
		GroupID:      groupID,
		CallerID:     callerID,
		PaidBy:       paidBy,
		Description:  r.Description,
		Category:     r.Category,
		Amount:       amount,
		SplitType:    domain.SplitType(r.SplitType),
		Participants: participants,
	}

	if r.Date != nil {
		input.Date = *r.Date
	}

	return input, nil
}

// UpdateExpenseRequest represents a partial expense update. Absent fields
// are left unchanged; a non-nil participants list reallocates all shares.
type UpdateExpenseRequest struct {
	Description  *string            `json:"description,omitempty"`
	Category     *string            `json:"category,omitempty"`
	Date         *time.Time         `json:"date,omitempty"`
	Amount       *decimal.Decimal   `json:"amount,omitempty"`
	Currency     string             `json:"currency,omitempty"`
	SplitType    *string            `json:"split_type,omitempty"`
	PaidBy       *string            `json:"paid_by,omitempty"`
	Participants []ParticipantShare `json:"participants,omitempty"`
}

// ToUseCaseInput converts to use case input. Currency is only needed when
// the update carries monetary values.
func (r *UpdateExpenseRequest) ToUseCaseInput(groupID, expenseID, callerID string) (usecase.UpdateExpenseInput, error) {
	input := usecase.UpdateExpenseInput{
		GroupID:     groupID,
		ExpenseID:   expenseID,
		CallerID:    callerID,
		Description: r.Description,
		Category:    r.Category,
		Date:        r.Date,
		PaidBy:      r.PaidBy,
	}

	currency := r.Currency

	if r.Amount != nil || hasCustomAmounts(r.Participants) {
		if err := domain.ValidateCurrency(currency); err != nil {
			return usecase.UpdateExpenseInput{}, err
		}
	}

	if r.Amount != nil {
		amount, err := domain.MoneyFromDecimal(*r.Amount, currency)
		if err != nil {
			return usecase.UpdateExpenseInput{}, err
		}

		input.Amount = &amount
	}

	if r.SplitType != nil {
		splitType := domain.SplitType(*r.SplitType)
		input.SplitType = &splitType
	}

	if r.Participants != nil {
		participants, err := participantsToDomain(r.Participants, currency)
		if err != nil {
			return usecase.UpdateExpenseInput{}, err
		}

		input.Participants = participants
	}

	return input, nil
}

func hasCustomAmounts(participants []ParticipantShare) bool {
	for _, p := range participants {
		if p.Amount != nil {
			return true
		}
	}

	return false
}

// CreateSettlementRequest represents a request to record a payment.
type CreateSettlementRequest struct {
	FromUserID string          `json:"from_user_id"`
	ToUserID   string          `json:"to_user_id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Notes      string          `json:"notes,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateSettlementRequest) ToUseCaseInput(groupID, callerID string) (usecase.SettleInput, error) {
	if err := domain.ValidateCurrency(r.Currency); err != nil {
		return usecase.SettleInput{}, err
	}

	amount, err := domain.MoneyFromDecimal(r.Amount, r.Currency)
	if err != nil {
		return usecase.SettleInput{}, err
	}

	return usecase.SettleInput{
		GroupID:    groupID,
		CallerID:   callerID,
		FromUserID: r.FromUserID,
		ToUserID:   r.ToUserID,
		Amount:     amount,
		Notes:      r.Notes,
	}, nil
}

// SettleSharesRequest names the shares of one expense to mark settled.
type SettleSharesRequest struct {
	ShareIDs []string `json:"share_ids"`
}

// ToUseCaseInput converts to use case input.
func (r *SettleSharesRequest) ToUseCaseInput(groupID, expenseID, callerID string) usecase.SettleSharesInput {
	return usecase.SettleSharesInput{
		GroupID:   groupID,
		ExpenseID: expenseID,
		CallerID:  callerID,
		ShareIDs:  r.ShareIDs,
	}
}
