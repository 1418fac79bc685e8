package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/usecase"
)

// ShareRepository implements usecase.ShareRepository.
type ShareRepository struct {
	pool *pgxpool.Pool
}

// NewShareRepository creates a new ShareRepository.
func NewShareRepository(pool *pgxpool.Pool) *ShareRepository {
	return &ShareRepository{pool: pool}
}

// CreateBatch inserts all shares of an expense in one round trip.
func (r *ShareRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, shares []*domain.ExpenseShare) error {
	pgxTx := tx.(*Tx).PgxTx()

	const query = `
		INSERT INTO expense_shares (id, expense_id, user_id, amount, currency, percentage, is_settled, settled_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	batch := &pgx.Batch{}
	for _, s := range shares {
		batch.Queue(query,
			s.ID,
			s.ExpenseID,
			s.UserID,
			moneyToNumeric(s.Amount),
			s.Amount.Currency,
			s.Percentage,
			s.IsSettled,
			timePtrToPgTimestamptz(s.SettledAt),
			timeToPgTimestamptz(s.CreatedAt),
		)
	}

	results := pgxTx.SendBatch(ctx, batch)
	defer results.Close()

	for range shares {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return results.Close()
}

// DeleteByExpense removes all shares of an expense.
func (r *ShareRepository) DeleteByExpense(ctx context.Context, tx usecase.Transaction, expenseID string) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `DELETE FROM expense_shares WHERE expense_id = $1`, expenseID)

	return err
}

// ListByExpense returns the shares of one expense.
func (r *ShareRepository) ListByExpense(ctx context.Context, expenseID string) ([]*domain.ExpenseShare, error) {
	const query = `
		SELECT id, expense_id, user_id, amount, currency, percentage, is_settled, settled_at, created_at
		FROM expense_shares
		WHERE expense_id = $1
		ORDER BY id`

	rows, err := r.pool.Query(ctx, query, expenseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shares []*domain.ExpenseShare

	for rows.Next() {
		var (
			share     domain.ExpenseShare
			amount    pgtype.Numeric
			currency  string
			settledAt pgtype.Timestamptz
		)

		err := rows.Scan(
			&share.ID,
			&share.ExpenseID,
			&share.UserID,
			&amount,
			&currency,
			&share.Percentage,
			&share.IsSettled,
			&settledAt,
			&share.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		share.Amount, err = numericToMoney(amount, currency)
		if err != nil {
			return nil, err
		}

		share.SettledAt = pgTimestamptzToTimePtr(settledAt)

		shares = append(shares, &share)
	}

	return shares, rows.Err()
}

// ListUnsettledByGroup returns every unsettled share in a group joined
// with its expense's payer. This is the input the debt graph is built
// from.
func (r *ShareRepository) ListUnsettledByGroup(ctx context.Context, groupID string) ([]*domain.UnsettledShare, error) {
	const query = `
		SELECT s.id, s.expense_id, s.user_id, e.paid_by, s.amount, s.currency
		FROM expense_shares s
		JOIN expenses e ON e.id = s.expense_id
		WHERE e.group_id = $1 AND NOT s.is_settled
		ORDER BY s.id`

	rows, err := r.pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shares []*domain.UnsettledShare

	for rows.Next() {
		var (
			share    domain.UnsettledShare
			amount   pgtype.Numeric
			currency string
		)

		err := rows.Scan(&share.ShareID, &share.ExpenseID, &share.UserID, &share.PayerID, &amount, &currency)
		if err != nil {
			return nil, err
		}

		share.Amount, err = numericToMoney(amount, currency)
		if err != nil {
			return nil, err
		}

		shares = append(shares, &share)
	}

	return shares, rows.Err()
}

// MarkSettled settles the given shares at the given time.
func (r *ShareRepository) MarkSettled(ctx context.Context, tx usecase.Transaction, shareIDs []string, settledAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	const query = `
		UPDATE expense_shares
		SET is_settled = TRUE, settled_at = $2
		WHERE id = ANY($1) AND NOT is_settled`

	tag, err := pgxTx.Exec(ctx, query, shareIDs, timeToPgTimestamptz(settledAt))
	if err != nil {
		return err
	}

	// A short count means a concurrent writer settled one of the shares
	// after validation.
	if tag.RowsAffected() != int64(len(shareIDs)) {
		return domain.ErrAlreadySettled
	}

	return nil
}

// HasSettled reports whether any participant share of the expense has been
// settled. The payer's own share is settled from birth and does not
// count.
func (r *ShareRepository) HasSettled(ctx context.Context, expenseID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1
			FROM expense_shares s
			JOIN expenses e ON e.id = s.expense_id
			WHERE s.expense_id = $1 AND s.is_settled AND s.user_id <> e.paid_by
		)`

	var exists bool

	err := r.pool.QueryRow(ctx, query, expenseID).Scan(&exists)

	return exists, err
}

// UserSummary aggregates a member's totals across a group's expenses.
func (r *ShareRepository) UserSummary(ctx context.Context, groupID, userID string) (*domain.UserExpenseSummary, error) {
	var currency string

	err := r.pool.QueryRow(ctx, `SELECT default_currency FROM groups WHERE id = $1`, groupID).Scan(&currency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGroupNotFound
		}

		return nil, err
	}

	const query = `
		SELECT
			COALESCE((SELECT SUM(e2.amount) FROM expenses e2 WHERE e2.group_id = $1 AND e2.paid_by = $2), 0),
			COALESCE(SUM(s.amount), 0),
			COALESCE(SUM(s.amount) FILTER (WHERE NOT s.is_settled), 0),
			COALESCE(SUM(s.amount) FILTER (WHERE s.is_settled), 0)
		FROM expense_shares s
		JOIN expenses e ON e.id = s.expense_id
		WHERE e.group_id = $1 AND s.user_id = $2`

	var paid, owed, pending, settled pgtype.Numeric

	if err := r.pool.QueryRow(ctx, query, groupID, userID).Scan(&paid, &owed, &pending, &settled); err != nil {
		return nil, err
	}

	summary := &domain.UserExpenseSummary{}

	if summary.TotalPaid, err = numericToMoney(paid, currency); err != nil {
		return nil, err
	}

	if summary.TotalOwed, err = numericToMoney(owed, currency); err != nil {
		return nil, err
	}

	if summary.TotalPending, err = numericToMoney(pending, currency); err != nil {
		return nil, err
	}

	if summary.TotalSettled, err = numericToMoney(settled, currency); err != nil {
		return nil, err
	}

	summary.Net = domain.NewMoney(summary.TotalPaid.Units-summary.TotalOwed.Units, currency)

	return summary, nil
}
