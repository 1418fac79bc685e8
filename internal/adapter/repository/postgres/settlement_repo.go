package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/usecase"
)

// SettlementRepository implements usecase.SettlementRepository.
// Settlements are the group's payment audit trail; rows are only ever
// inserted.
type SettlementRepository struct {
	pool *pgxpool.Pool
}

// NewSettlementRepository creates a new SettlementRepository.
func NewSettlementRepository(pool *pgxpool.Pool) *SettlementRepository {
	return &SettlementRepository{pool: pool}
}

// Create inserts a settlement record.
func (r *SettlementRepository) Create(ctx context.Context, tx usecase.Transaction, settlement *domain.Settlement) error {
	pgxTx := tx.(*Tx).PgxTx()

	const query = `
		INSERT INTO settlements (id, group_id, from_user_id, to_user_id, amount, currency, settled_on, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := pgxTx.Exec(ctx, query,
		settlement.ID,
		settlement.GroupID,
		settlement.FromUserID,
		settlement.ToUserID,
		moneyToNumeric(settlement.Amount),
		settlement.Amount.Currency,
		timeToPgTimestamptz(settlement.Date),
		settlement.Notes,
	)

	return err
}

// ListByGroup returns a group's settlements newest first.
func (r *SettlementRepository) ListByGroup(ctx context.Context, groupID string) ([]*domain.Settlement, error) {
	const query = `
		SELECT id, group_id, from_user_id, to_user_id, amount, currency, settled_on, notes
		FROM settlements
		WHERE group_id = $1
		ORDER BY settled_on DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSettlements(rows)
}

// ListByUser returns a member's settlements within a group, split by
// direction, each newest first.
func (r *SettlementRepository) ListByUser(ctx context.Context, groupID, userID string) ([]*domain.Settlement, []*domain.Settlement, error) {
	const query = `
		SELECT id, group_id, from_user_id, to_user_id, amount, currency, settled_on, notes
		FROM settlements
		WHERE group_id = $1 AND (from_user_id = $2 OR to_user_id = $2)
		ORDER BY settled_on DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, groupID, userID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	settlements, err := collectSettlements(rows)
	if err != nil {
		return nil, nil, err
	}

	var outgoing, incoming []*domain.Settlement

	for _, s := range settlements {
		if s.FromUserID == userID {
			outgoing = append(outgoing, s)
		} else {
			incoming = append(incoming, s)
		}
	}

	return outgoing, incoming, nil
}

func collectSettlements(rows pgx.Rows) ([]*domain.Settlement, error) {
	var settlements []*domain.Settlement

	for rows.Next() {
		var (
			settlement domain.Settlement
			amount     pgtype.Numeric
			currency   string
		)

		err := rows.Scan(
			&settlement.ID,
			&settlement.GroupID,
			&settlement.FromUserID,
			&settlement.ToUserID,
			&amount,
			&currency,
			&settlement.Date,
			&settlement.Notes,
		)
		if err != nil {
			return nil, err
		}

		settlement.Amount, err = numericToMoney(amount, currency)
		if err != nil {
			return nil, err
		}

		settlements = append(settlements, &settlement)
	}

	return settlements, rows.Err()
}
