package roles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nivra-platform/nivra-core/internal/permissions"
	"github.com/nivra-platform/nivra-core/internal/platform/db"
	"github.com/nivra-platform/nivra-core/internal/shared"
)

// Repository defines role registry persistence.
type Repository interface {
	Create(ctx context.Context, role Role) (Role, error)
	Update(ctx context.Context, role Role) (Role, error)
	SetPermissions(ctx context.Context, id uuid.UUID, permissionIDs []uuid.UUID) (Role, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (Role, error)
	List(ctx context.Context) ([]Role, error)
	ListPermissions(ctx context.Context, id uuid.UUID) ([]permissions.Permission, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

var _ Repository = (*pgRepository)(nil)

// Create inserts the role and its initial permission set in one transaction.
func (r *pgRepository) Create(ctx context.Context, role Role) (Role, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO roles (id, name, description, created_at, updated_at)
			 VALUES ($1, $2, $3, NOW(), NOW())
			 RETURNING created_at, updated_at`,
			role.ID, role.Name, role.Description)
		if err := row.Scan(&role.CreatedAt, &role.UpdatedAt); err != nil {
			return mapRoleError(err)
		}
		return attachPermissions(ctx, tx, role.ID, role.PermissionIDs)
	})
	if err != nil {
		return Role{}, err
	}
	return role, nil
}

// Update changes name and description only; the permission set is untouched.
func (r *pgRepository) Update(ctx context.Context, role Role) (Role, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE roles SET name=$2, description=$3, updated_at=NOW()
		 WHERE id=$1
		 RETURNING created_at, updated_at`,
		role.ID, role.Name, role.Description)
	if err := row.Scan(&role.CreatedAt, &role.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, &shared.NotFoundError{Resource: "role", ID: role.ID.String()}
		}
		return Role{}, mapRoleError(err)
	}
	ids, err := r.permissionIDs(ctx, r.pool, role.ID)
	if err != nil {
		return Role{}, err
	}
	role.PermissionIDs = ids
	return role, nil
}

// SetPermissions replaces the whole permission set in one transaction. The
// role row is locked for the duration so concurrent replacements serialize
// and readers never observe a half-applied set.
func (r *pgRepository) SetPermissions(ctx context.Context, id uuid.UUID, permissionIDs []uuid.UUID) (Role, error) {
	var role Role
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`SELECT id, name, description, created_at FROM roles WHERE id=$1 FOR UPDATE`, id)
		if err := row.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &shared.NotFoundError{Resource: "role", ID: id.String()}
			}
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id=$1`, id); err != nil {
			return err
		}
		if err := attachPermissions(ctx, tx, id, permissionIDs); err != nil {
			return err
		}
		row = tx.QueryRow(ctx, `UPDATE roles SET updated_at=NOW() WHERE id=$1 RETURNING updated_at`, id)
		if err := row.Scan(&role.UpdatedAt); err != nil {
			return err
		}
		role.PermissionIDs = append([]uuid.UUID(nil), permissionIDs...)
		return nil
	})
	if err != nil {
		return Role{}, err
	}
	return role, nil
}

// Delete refuses to remove a role still referenced by any user.
func (r *pgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var inUse bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE role_id=$1)`, id).Scan(&inUse); err != nil {
			return err
		}
		if inUse {
			return &shared.ConflictError{Resource: "role", Reason: "role is assigned to one or more users"}
		}
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id=$1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM roles WHERE id=$1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &shared.NotFoundError{Resource: "role", ID: id.String()}
		}
		return nil
	})
}

func (r *pgRepository) Get(ctx context.Context, id uuid.UUID) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at, updated_at FROM roles WHERE id=$1`,
		id).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, &shared.NotFoundError{Resource: "role", ID: id.String()}
		}
		return Role{}, err
	}
	ids, err := r.permissionIDs(ctx, r.pool, id)
	if err != nil {
		return Role{}, err
	}
	role.PermissionIDs = ids
	return role, nil
}

func (r *pgRepository) List(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, created_at, updated_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Role
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		index[role.ID] = len(out)
		out = append(out, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	permRows, err := r.pool.Query(ctx, `SELECT role_id, permission_id FROM role_permissions`)
	if err != nil {
		return nil, err
	}
	defer permRows.Close()
	for permRows.Next() {
		var roleID, permID uuid.UUID
		if err := permRows.Scan(&roleID, &permID); err != nil {
			return nil, err
		}
		if i, ok := index[roleID]; ok {
			out[i].PermissionIDs = append(out[i].PermissionIDs, permID)
		}
	}
	return out, permRows.Err()
}

func (r *pgRepository) ListPermissions(ctx context.Context, id uuid.UUID) ([]permissions.Permission, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM roles WHERE id=$1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, &shared.NotFoundError{Resource: "role", ID: id.String()}
	}
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.name, p.description, p.resource_type, p.action, p.created_at, p.updated_at
		 FROM role_permissions rp
		 JOIN permissions p ON p.id = rp.permission_id
		 WHERE rp.role_id = $1
		 ORDER BY p.name`,
		id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []permissions.Permission
	for rows.Next() {
		var p permissions.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.ResourceType, &p.Action, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *pgRepository) permissionIDs(ctx context.Context, q querier, roleID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.Query(ctx, `SELECT permission_id FROM role_permissions WHERE role_id=$1`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// attachPermissions validates the whole set before inserting any row, so a
// set referencing an unknown permission is rejected atomically.
func attachPermissions(ctx context.Context, tx pgx.Tx, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	var known int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM permissions WHERE id = ANY($1)`, permissionIDs).Scan(&known); err != nil {
		return err
	}
	if known != len(permissionIDs) {
		return shared.NewValidationError("permission_ids", "one or more permission ids do not exist")
	}
	for _, permID := range permissionIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO role_permissions (id, role_id, permission_id, created_at) VALUES ($1, $2, $3, NOW())`,
			uuid.New(), roleID, permID); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return shared.NewValidationError("permission_ids", "one or more permission ids do not exist")
			}
			return err
		}
	}
	return nil
}

func mapRoleError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.NewValidationError("name", "a role with this name already exists")
	}
	return err
}
