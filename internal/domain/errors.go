package domain

import "errors"

var (
	// Allocation errors (client input, never retried)
	ErrInvalidAmount     = errors.New("amount must be a positive two-decimal value")
	ErrSplitMismatch     = errors.New("shares do not add up to the expense total")
	ErrMissingShareValue = errors.New("participant is missing a percentage or amount")
	ErrNoParticipants    = errors.New("expense needs at least one participant")

	// Authorization errors
	ErrNotAMember = errors.New("user is not a member of the group")
	ErrNotAdmin   = errors.New("operation requires group admin")
	ErrForbidden  = errors.New("user may only record payments involving themselves")

	// State-conflict errors
	ErrSelfSettlement = errors.New("payer and recipient must differ")
	ErrAlreadySettled = errors.New("share is already settled")
	ErrShareNotFound  = errors.New("share does not belong to the expense")
	ErrExpenseLocked  = errors.New("expense has settled shares and cannot be changed")

	// Lookup errors
	ErrGroupNotFound      = errors.New("group not found")
	ErrExpenseNotFound    = errors.New("expense not found")
	ErrBalanceNotFound    = errors.New("no balance between these users")
	ErrSettlementNotFound = errors.New("settlement not found")

	// Money errors
	ErrCurrencyMismatch = errors.New("cannot combine amounts in different currencies")

	// ErrStoreCorruption is returned when the store hands back a row that
	// fails domain validation; it is never propagated as a nil value.
	ErrStoreCorruption = errors.New("store returned a malformed row")

	// Auth errors
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)
