package authz

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nivra-platform/nivra-core/internal/shared"
)

// Repository provides the read-only lookups the evaluator needs. It resolves
// references at evaluation time rather than caching them, so role and
// permission edits propagate immediately to authorization decisions.
type Repository interface {
	GetAccount(ctx context.Context, userID uuid.UUID) (Account, error)
	RoleGrants(ctx context.Context, roleID uuid.UUID) ([]Grant, error)
	HasSocietyBinding(ctx context.Context, userID, societyID uuid.UUID) (bool, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

var _ Repository = (*pgRepository)(nil)

func (r *pgRepository) GetAccount(ctx context.Context, userID uuid.UUID) (Account, error) {
	acct := Account{ID: userID}
	err := r.pool.QueryRow(ctx,
		`SELECT role_id, is_active FROM users WHERE id=$1`,
		userID).Scan(&acct.RoleID, &acct.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, &shared.NotFoundError{Resource: "user", ID: userID.String()}
		}
		return Account{}, err
	}
	return acct, nil
}

func (r *pgRepository) RoleGrants(ctx context.Context, roleID uuid.UUID) ([]Grant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.resource_type, p.action
		 FROM role_permissions rp
		 JOIN permissions p ON p.id = rp.permission_id
		 WHERE rp.role_id = $1`,
		roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var grants []Grant
	for rows.Next() {
		var g Grant
		if err := rows.Scan(&g.Resource, &g.Action); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

func (r *pgRepository) HasSocietyBinding(ctx context.Context, userID, societyID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM society_admins WHERE user_id=$1 AND society_id=$2)`,
		userID, societyID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
