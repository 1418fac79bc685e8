package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/splitledger/internal/domain"
)

// GroupRepository implements usecase.GroupRepository.
type GroupRepository struct {
	pool *pgxpool.Pool
}

// NewGroupRepository creates a new GroupRepository.
func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

// GetByID retrieves a group by ID.
func (r *GroupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	const query = `
		SELECT id, name, default_currency, created_at
		FROM groups
		WHERE id = $1`

	var group domain.Group

	err := r.pool.QueryRow(ctx, query, id).Scan(&group.ID, &group.Name, &group.DefaultCurrency, &group.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGroupNotFound
		}

		return nil, err
	}

	return &group, nil
}

// MemberIDs returns the IDs of all members of a group in a stable order.
func (r *GroupRepository) MemberIDs(ctx context.Context, groupID string) ([]string, error) {
	const query = `
		SELECT user_id
		FROM group_members
		WHERE group_id = $1
		ORDER BY user_id`

	rows, err := r.pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// IsMember reports whether a user belongs to a group.
func (r *GroupRepository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM group_members
			WHERE group_id = $1 AND user_id = $2
		)`

	var exists bool

	err := r.pool.QueryRow(ctx, query, groupID, userID).Scan(&exists)

	return exists, err
}

// IsAdmin reports whether a user is an admin of a group.
func (r *GroupRepository) IsAdmin(ctx context.Context, groupID, userID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM group_members
			WHERE group_id = $1 AND user_id = $2 AND role = 'admin'
		)`

	var exists bool

	err := r.pool.QueryRow(ctx, query, groupID, userID).Scan(&exists)

	return exists, err
}
