package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// percentTolerance is how far the declared percentages may drift from 100
// (and custom amounts from the total, in currency units) before the split
// is rejected.
const percentTolerance = 0.01

// SplitParticipant is one declared participant of an expense. Percentage is
// required for percentage splits, Amount for custom splits.
type SplitParticipant struct {
	UserID     string
	Percentage *float64
	Amount     *Money
}

// ShareAllocation is the allocator's output for one participant.
type ShareAllocation struct {
	UserID     string
	Amount     Money
	Percentage *float64
	IsSettled  bool
}

// AllocateShares splits an expense total into per-participant shares.
//
// All arithmetic is on minor units. For equal and percentage splits the
// rounding remainder is handed out one minor unit at a time in input order,
// so the shares always sum to the total exactly. The payer's own share, if
// present, comes back already settled.
func AllocateShares(total Money, participants []SplitParticipant, splitType SplitType, payerID string) ([]ShareAllocation, error) {
	if !total.IsPositive() {
		return nil, ErrInvalidAmount
	}

	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}

	var units []int64

	var err error

	switch splitType {
	case SplitEqual:
		units = splitEqually(total.Units, len(participants))
	case SplitPercentage:
		units, err = splitByPercentage(total.Units, participants)
	case SplitCustom:
		units, err = splitByAmounts(total, participants)
	default:
		return nil, ErrSplitMismatch
	}

	if err != nil {
		return nil, err
	}

	allocations := make([]ShareAllocation, len(participants))
	for i, p := range participants {
		allocations[i] = ShareAllocation{
			UserID:     p.UserID,
			Amount:     NewMoney(units[i], total.Currency),
			Percentage: p.Percentage,
			IsSettled:  p.UserID == payerID,
		}
	}

	return allocations, nil
}

// splitEqually divides total minor units by n, giving the first
// (total mod n) participants one extra unit.
func splitEqually(totalUnits int64, n int) []int64 {
	base := totalUnits / int64(n)
	remainder := totalUnits % int64(n)

	units := make([]int64, n)
	for i := range units {
		units[i] = base
		if int64(i) < remainder {
			units[i]++
		}
	}

	return units
}

func splitByPercentage(totalUnits int64, participants []SplitParticipant) ([]int64, error) {
	var pctSum float64

	for _, p := range participants {
		if p.Percentage == nil {
			return nil, ErrMissingShareValue
		}
		pctSum += *p.Percentage
	}

	if math.Abs(pctSum-100) > percentTolerance+1e-9 {
		return nil, ErrSplitMismatch
	}

	total := decimal.NewFromInt(totalUnits)
	hundred := decimal.NewFromInt(100)

	units := make([]int64, len(participants))

	var allocated int64

	for i, p := range participants {
		// Round half away from zero to whole minor units.
		share := decimal.NewFromFloat(*p.Percentage).Mul(total).Div(hundred).Round(0)
		units[i] = share.IntPart()
		allocated += units[i]
	}

	// Distribute the rounding residual one unit at a time in input order.
	residual := totalUnits - allocated
	for i := 0; residual != 0; i = (i + 1) % len(units) {
		if residual > 0 {
			units[i]++
			residual--
		} else {
			units[i]--
			residual++
		}
	}

	return units, nil
}

func splitByAmounts(total Money, participants []SplitParticipant) ([]int64, error) {
	units := make([]int64, len(participants))

	var sum int64

	for i, p := range participants {
		if p.Amount == nil {
			return nil, ErrMissingShareValue
		}

		if p.Amount.Currency != total.Currency {
			return nil, ErrCurrencyMismatch
		}

		units[i] = p.Amount.Units
		sum += p.Amount.Units
	}

	// Tolerance of one minor unit, mirroring the 0.01 currency tolerance.
	if diff := sum - total.Units; diff > 1 || diff < -1 {
		return nil, ErrSplitMismatch
	}

	return units, nil
}
