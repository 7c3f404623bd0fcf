package permissions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nivra-platform/nivra-core/internal/platform/db"
	"github.com/nivra-platform/nivra-core/internal/shared"
)

// Repository defines permission catalog persistence.
type Repository interface {
	Create(ctx context.Context, p Permission) (Permission, error)
	Update(ctx context.Context, p Permission) (Permission, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (Permission, error)
	List(ctx context.Context) ([]Permission, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

var _ Repository = (*pgRepository)(nil)

func (r *pgRepository) Create(ctx context.Context, p Permission) (Permission, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO permissions (id, name, description, resource_type, action, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Description, p.ResourceType, p.Action)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return Permission{}, mapPermissionError(err)
	}
	return p, nil
}

func (r *pgRepository) Update(ctx context.Context, p Permission) (Permission, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE permissions SET name=$2, description=$3, resource_type=$4, action=$5, updated_at=NOW()
		 WHERE id=$1
		 RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Description, p.ResourceType, p.Action)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, &shared.NotFoundError{Resource: "permission", ID: p.ID.String()}
		}
		return Permission{}, mapPermissionError(err)
	}
	return p, nil
}

// Delete removes a permission and strips it from every role's permission set
// in the same transaction, so no role is ever observed referencing a deleted
// permission.
func (r *pgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE permission_id=$1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM permissions WHERE id=$1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &shared.NotFoundError{Resource: "permission", ID: id.String()}
		}
		return nil
	})
}

func (r *pgRepository) Get(ctx context.Context, id uuid.UUID) (Permission, error) {
	var p Permission
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, resource_type, action, created_at, updated_at FROM permissions WHERE id=$1`,
		id).Scan(&p.ID, &p.Name, &p.Description, &p.ResourceType, &p.Action, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, &shared.NotFoundError{Resource: "permission", ID: id.String()}
		}
		return Permission{}, err
	}
	return p, nil
}

func (r *pgRepository) List(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, resource_type, action, created_at, updated_at FROM permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.ResourceType, &p.Action, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func mapPermissionError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.NewValidationError("name", "a permission with this name already exists")
	}
	return err
}
