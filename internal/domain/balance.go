package domain

import "time"

// Balance is a derived, simplified net debt between two members of a group.
// Rows are fully owned by recalculation; the amount is always positive and
// at most one row exists per ordered (from, to) pair.
type Balance struct {
	GroupID    string
	FromUserID string
	ToUserID   string
	Amount     Money
	UpdatedAt  time.Time
}

// Validate rejects balance rows that must never be stored.
func (b *Balance) Validate() error {
	if b.GroupID == "" || b.FromUserID == "" || b.ToUserID == "" {
		return ErrStoreCorruption
	}

	if b.FromUserID == b.ToUserID {
		return ErrStoreCorruption
	}

	if !b.Amount.IsPositive() {
		return ErrStoreCorruption
	}

	return nil
}

// MemberBalance is the per-member view over a group's balance rows.
type MemberBalance struct {
	UserID     string
	Owes       []Balance
	IsOwed     []Balance
	TotalOwing Money
	TotalOwed  Money
	Net        Money
}

// SummarizeBalances groups balance rows into per-member totals. Members
// with no rows still appear with zero totals.
func SummarizeBalances(memberIDs []string, currency string, balances []*Balance) []MemberBalance {
	byUser := make(map[string]*MemberBalance, len(memberIDs))

	summaries := make([]MemberBalance, len(memberIDs))
	for i, id := range memberIDs {
		summaries[i] = MemberBalance{
			UserID:     id,
			TotalOwing: NewMoney(0, currency),
			TotalOwed:  NewMoney(0, currency),
			Net:        NewMoney(0, currency),
		}
		byUser[id] = &summaries[i]
	}

	for _, b := range balances {
		if from, ok := byUser[b.FromUserID]; ok {
			from.Owes = append(from.Owes, *b)
			from.TotalOwing.Units += b.Amount.Units
			from.Net.Units -= b.Amount.Units
		}

		if to, ok := byUser[b.ToUserID]; ok {
			to.IsOwed = append(to.IsOwed, *b)
			to.TotalOwed.Units += b.Amount.Units
			to.Net.Units += b.Amount.Units
		}
	}

	return summaries
}
