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

// BalanceRepository implements usecase.BalanceRepository. Balance rows are
// derived state: recalculation replaces a group's rows wholesale and
// settlement decrements single rows, always inside a transaction.
type BalanceRepository struct {
	pool *pgxpool.Pool
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(pool *pgxpool.Pool) *BalanceRepository {
	return &BalanceRepository{pool: pool}
}

// ListByGroup returns a group's balance rows in a stable order.
func (r *BalanceRepository) ListByGroup(ctx context.Context, groupID string) ([]*domain.Balance, error) {
	const query = `
		SELECT group_id, from_user_id, to_user_id, amount, currency, updated_at
		FROM balances
		WHERE group_id = $1
		ORDER BY from_user_id, to_user_id`

	rows, err := r.pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []*domain.Balance

	for rows.Next() {
		balance, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}

		balances = append(balances, balance)
	}

	return balances, rows.Err()
}

// GetForUpdate retrieves one balance row with a FOR UPDATE lock.
func (r *BalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, groupID, fromUserID, toUserID string) (*domain.Balance, error) {
	pgxTx := tx.(*Tx).PgxTx()

	const query = `
		SELECT group_id, from_user_id, to_user_id, amount, currency, updated_at
		FROM balances
		WHERE group_id = $1 AND from_user_id = $2 AND to_user_id = $3
		FOR UPDATE`

	balance, err := scanBalance(pgxTx.QueryRow(ctx, query, groupID, fromUserID, toUserID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBalanceNotFound
		}

		return nil, err
	}

	return balance, nil
}

// ReplaceByGroup atomically swaps all of a group's balance rows for the
// given set.
func (r *BalanceRepository) ReplaceByGroup(ctx context.Context, tx usecase.Transaction, groupID string, balances []*domain.Balance) error {
	pgxTx := tx.(*Tx).PgxTx()

	if _, err := pgxTx.Exec(ctx, `DELETE FROM balances WHERE group_id = $1`, groupID); err != nil {
		return err
	}

	if len(balances) == 0 {
		return nil
	}

	const query = `
		INSERT INTO balances (group_id, from_user_id, to_user_id, amount, currency, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	batch := &pgx.Batch{}
	for _, b := range balances {
		batch.Queue(query,
			b.GroupID,
			b.FromUserID,
			b.ToUserID,
			moneyToNumeric(b.Amount),
			b.Amount.Currency,
			timeToPgTimestamptz(b.UpdatedAt),
		)
	}

	results := pgxTx.SendBatch(ctx, batch)
	defer results.Close()

	for range balances {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return results.Close()
}

// UpdateAmount sets the amount of one balance row.
func (r *BalanceRepository) UpdateAmount(ctx context.Context, tx usecase.Transaction, groupID, fromUserID, toUserID string, amount domain.Money, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	const query = `
		UPDATE balances
		SET amount = $4, updated_at = $5
		WHERE group_id = $1 AND from_user_id = $2 AND to_user_id = $3`

	tag, err := pgxTx.Exec(ctx, query, groupID, fromUserID, toUserID, moneyToNumeric(amount), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrBalanceNotFound
	}

	return nil
}

// Delete removes one balance row.
func (r *BalanceRepository) Delete(ctx context.Context, tx usecase.Transaction, groupID, fromUserID, toUserID string) error {
	pgxTx := tx.(*Tx).PgxTx()

	const query = `
		DELETE FROM balances
		WHERE group_id = $1 AND from_user_id = $2 AND to_user_id = $3`

	_, err := pgxTx.Exec(ctx, query, groupID, fromUserID, toUserID)

	return err
}

func scanBalance(row pgx.Row) (*domain.Balance, error) {
	var (
		balance  domain.Balance
		amount   pgtype.Numeric
		currency string
	)

	err := row.Scan(
		&balance.GroupID,
		&balance.FromUserID,
		&balance.ToUserID,
		&amount,
		&currency,
		&balance.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	balance.Amount, err = numericToMoney(amount, currency)
	if err != nil {
		return nil, err
	}

	return &balance, nil
}
