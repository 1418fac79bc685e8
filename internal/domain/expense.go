package domain

import "time"

// SplitType determines how an expense is divided among participants.
type SplitType string

const (
	SplitEqual      SplitType = "equal"
	SplitPercentage SplitType = "percentage"
	SplitCustom     SplitType = "custom"
)

// Valid reports whether the split type is one of the known policies.
func (s SplitType) Valid() bool {
	switch s {
	case SplitEqual, SplitPercentage, SplitCustom:
		return true
	}
	return false
}

// Expense is a single shared expense paid by one group member.
type Expense struct {
	ID          string
	GroupID     string
	PaidBy      string
	Description string
	Category    string
	Amount      Money
	SplitType   SplitType
	Date        time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ExpenseShare is one participant's portion of an expense. The payer's own
// share is created already settled; self-debt is never tracked.
type ExpenseShare struct {
	ID         string
	ExpenseID  string
	UserID     string
	Amount     Money
	Percentage *float64
	IsSettled  bool
	SettledAt  *time.Time
	CreatedAt  time.Time
}

// UnsettledShare is an unsettled share joined with its expense's payer,
// the unit the debt graph is built from.
type UnsettledShare struct {
	ShareID   string
	ExpenseID string
	UserID    string
	PayerID   string
	Amount    Money
}

// ExpenseFilter narrows expense listings.
type ExpenseFilter struct {
	From     *time.Time
	To       *time.Time
	Category string
	Limit    int
	Offset   int
}

// UserExpenseSummary is one member's aggregate view over a group's
// expenses and their own shares.
type UserExpenseSummary struct {
	TotalPaid    Money
	TotalOwed    Money
	TotalPending Money
	TotalSettled Money
	Net          Money
}
