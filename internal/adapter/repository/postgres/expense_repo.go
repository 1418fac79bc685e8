package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/usecase"
)

// ExpenseRepository implements usecase.ExpenseRepository.
type ExpenseRepository struct {
	pool *pgxpool.Pool
}

// NewExpenseRepository creates a new ExpenseRepository.
func NewExpenseRepository(pool *pgxpool.Pool) *ExpenseRepository {
	return &ExpenseRepository{pool: pool}
}

const expenseColumns = `id, group_id, paid_by, description, category, amount, currency, split_type, expense_date, created_at, updated_at`

// Create inserts a new expense.
func (r *ExpenseRepository) Create(ctx context.Context, tx usecase.Transaction, expense *domain.Expense) error {
	pgxTx := tx.(*Tx).PgxTx()

	const query = `
		INSERT INTO expenses (` + expenseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := pgxTx.Exec(ctx, query,
		expense.ID,
		expense.GroupID,
		expense.PaidBy,
		expense.Description,
		expense.Category,
		moneyToNumeric(expense.Amount),
		expense.Amount.Currency,
		string(expense.SplitType),
		timeToPgTimestamptz(expense.Date),
		timeToPgTimestamptz(expense.CreatedAt),
		timeToPgTimestamptz(expense.UpdatedAt),
	)

	return err
}

// GetByID retrieves an expense scoped to its group.
func (r *ExpenseRepository) GetByID(ctx context.Context, groupID, id string) (*domain.Expense, error) {
	const query = `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE group_id = $1 AND id = $2`

	expense, err := scanExpense(r.pool.QueryRow(ctx, query, groupID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrExpenseNotFound
		}

		return nil, err
	}

	return expense, nil
}

// ListByGroup lists a group's expenses newest first, honoring the filter.
func (r *ExpenseRepository) ListByGroup(ctx context.Context, groupID string, filter domain.ExpenseFilter) ([]*domain.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE group_id = $1`

	args := []any{groupID}

	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND expense_date >= $%d", len(args))
	}

	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND expense_date <= $%d", len(args))
	}

	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}

	query += " ORDER BY expense_date DESC, id DESC"

	args = append(args, filter.Limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []*domain.Expense

	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}

		expenses = append(expenses, expense)
	}

	return expenses, rows.Err()
}

// Update rewrites an expense's mutable fields.
func (r *ExpenseRepository) Update(ctx context.Context, tx usecase.Transaction, expense *domain.Expense) error {
	pgxTx := tx.(*Tx).PgxTx()

	const query = `
		UPDATE expenses
		SET paid_by = $2,
		    description = $3,
		    category = $4,
		    amount = $5,
		    currency = $6,
		    split_type = $7,
		    expense_date = $8,
		    updated_at = $9
		WHERE id = $1`

	tag, err := pgxTx.Exec(ctx, query,
		expense.ID,
		expense.PaidBy,
		expense.Description,
		expense.Category,
		moneyToNumeric(expense.Amount),
		expense.Amount.Currency,
		string(expense.SplitType),
		timeToPgTimestamptz(expense.Date),
		timeToPgTimestamptz(expense.UpdatedAt),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrExpenseNotFound
	}

	return nil
}

// Delete removes an expense.
func (r *ExpenseRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrExpenseNotFound
	}

	return nil
}

func scanExpense(row pgx.Row) (*domain.Expense, error) {
	var (
		expense  domain.Expense
		amount   pgtype.Numeric
		currency string
	)

	err := row.Scan(
		&expense.ID,
		&expense.GroupID,
		&expense.PaidBy,
		&expense.Description,
		&expense.Category,
		&amount,
		&currency,
		&expense.SplitType,
		&expense.Date,
		&expense.CreatedAt,
		&expense.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	expense.Amount, err = numericToMoney(amount, currency)
	if err != nil {
		return nil, err
	}

	return &expense, nil
}
