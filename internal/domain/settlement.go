package domain

import "time"

// Settlement is an immutable audit record of a payment between two members.
// It is append-only: never updated or deleted, even when the payment exceeds
// the outstanding balance.
type Settlement struct {
	ID         string
	GroupID    string
	FromUserID string
	ToUserID   string
	Amount     Money
	Date       time.Time
	Notes      string
}
