package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nivra-platform/nivra-core/internal/platform/db"
	"github.com/nivra-platform/nivra-core/internal/shared"
)

// Repository defines user directory persistence.
type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	Update(ctx context.Context, u User) (User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (User, error)
	List(ctx context.Context) ([]User, error)
	RoleExists(ctx context.Context, roleID uuid.UUID) (bool, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

var _ Repository = (*pgRepository)(nil)

const userColumns = `id, username, email, full_name, password_hash, role_id, is_active, last_login, created_at, updated_at`

func (r *pgRepository) Create(ctx context.Context, u User) (User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (id, username, email, full_name, password_hash, role_id, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		u.ID, u.Username, u.Email, u.FullName, u.PasswordHash, u.RoleID, u.IsActive)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		return User{}, mapUserError(err)
	}
	return u, nil
}

func (r *pgRepository) Update(ctx context.Context, u User) (User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users SET username=$2, email=$3, full_name=$4, password_hash=$5, role_id=$6, is_active=$7, updated_at=NOW()
		 WHERE id=$1
		 RETURNING last_login, created_at, updated_at`,
		u.ID, u.Username, u.Email, u.FullName, u.PasswordHash, u.RoleID, u.IsActive)
	if err := row.Scan(&u.LastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, &shared.NotFoundError{Resource: "user", ID: u.ID.String()}
		}
		return User{}, mapUserError(err)
	}
	return u, nil
}

// Delete removes the user and cascades to their society-admin bindings in
// one transaction.
func (r *pgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM society_admins WHERE user_id=$1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &shared.NotFoundError{Resource: "user", ID: id.String()}
		}
		return nil
	})
}

func (r *pgRepository) Get(ctx context.Context, id uuid.UUID) (User, error) {
	var u User
	err := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash, &u.RoleID, &u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, &shared.NotFoundError{Resource: "user", ID: id.String()}
		}
		return User{}, err
	}
	return u, nil
}

func (r *pgRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash, &u.RoleID, &u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *pgRepository) RoleExists(ctx context.Context, roleID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM roles WHERE id=$1)`, roleID).Scan(&exists)
	return exists, err
}

func mapUserError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		switch {
		case strings.Contains(pgErr.ConstraintName, "username"):
			return shared.NewValidationError("username", "is already taken")
		case strings.Contains(pgErr.ConstraintName, "email"):
			return shared.NewValidationError("email", "is already registered")
		}
		return shared.NewValidationError("username", "is already taken")
	case "23503":
		return shared.NewValidationError("role_id", "does not reference an existing role")
	}
	return err
}
