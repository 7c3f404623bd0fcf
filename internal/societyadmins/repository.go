package societyadmins

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

// Repository defines society-admin binding persistence.
type Repository interface {
	Create(ctx context.Context, b Binding) (Binding, error)
	Update(ctx context.Context, id uuid.UUID, isPrimary bool) (Binding, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (Binding, error)
	List(ctx context.Context) ([]Binding, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Binding, error)
	ListBySociety(ctx context.Context, societyID uuid.UUID) ([]Binding, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

var _ Repository = (*pgRepository)(nil)

const bindingColumns = `id, user_id, society_id, is_primary_admin, created_at, updated_at`

// Create inserts a binding. When the new binding is primary, any existing
// primary admin of the society is demoted inside the same transaction so
// the single-primary invariant never has an observable gap. The society
// row is locked first: under ReadCommitted, two concurrent promotions that
// only lock the demoted rows can both commit a primary.
func (r *pgRepository) Create(ctx context.Context, b Binding) (Binding, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id=$1)`, b.UserID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return &shared.NotFoundError{Resource: "user", ID: b.UserID.String()}
		}
		if err := lockSociety(ctx, tx, b.SocietyID); err != nil {
			return err
		}
		if b.IsPrimaryAdmin {
			if err := demotePrimary(ctx, tx, b.SocietyID); err != nil {
				return err
			}
		}
		row := tx.QueryRow(ctx,
			`INSERT INTO society_admins (id, user_id, society_id, is_primary_admin, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, NOW(), NOW())
			 RETURNING created_at, updated_at`,
			b.ID, b.UserID, b.SocietyID, b.IsPrimaryAdmin)
		return row.Scan(&b.CreatedAt, &b.UpdatedAt)
	})
	if err != nil {
		return Binding{}, mapBindingError(err)
	}
	return b, nil
}

// Update changes the primary flag of an existing binding. Promotion demotes
// the current primary admin of the same society first.
func (r *pgRepository) Update(ctx context.Context, id uuid.UUID, isPrimary bool) (Binding, error) {
	var b Binding
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`SELECT `+bindingColumns+` FROM society_admins WHERE id=$1 FOR UPDATE`, id).
			Scan(&b.ID, &b.UserID, &b.SocietyID, &b.IsPrimaryAdmin, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &shared.NotFoundError{Resource: "society admin", ID: id.String()}
			}
			return err
		}
		if isPrimary && !b.IsPrimaryAdmin {
			if err := lockSociety(ctx, tx, b.SocietyID); err != nil {
				return err
			}
			if err := demotePrimary(ctx, tx, b.SocietyID); err != nil {
				return err
			}
		}
		b.IsPrimaryAdmin = isPrimary
		return tx.QueryRow(ctx,
			`UPDATE society_admins SET is_primary_admin=$2, updated_at=NOW() WHERE id=$1 RETURNING updated_at`,
			id, isPrimary).Scan(&b.UpdatedAt)
	})
	if err != nil {
		return Binding{}, err
	}
	return b, nil
}

func (r *pgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM society_admins WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &shared.NotFoundError{Resource: "society admin", ID: id.String()}
	}
	return nil
}

func (r *pgRepository) Get(ctx context.Context, id uuid.UUID) (Binding, error) {
	var b Binding
	err := r.pool.QueryRow(ctx,
		`SELECT `+bindingColumns+` FROM society_admins WHERE id=$1`, id).
		Scan(&b.ID, &b.UserID, &b.SocietyID, &b.IsPrimaryAdmin, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Binding{}, &shared.NotFoundError{Resource: "society admin", ID: id.String()}
		}
		return Binding{}, err
	}
	return b, nil
}

func (r *pgRepository) List(ctx context.Context) ([]Binding, error) {
	return r.query(ctx, `SELECT `+bindingColumns+` FROM society_admins ORDER BY created_at`)
}

func (r *pgRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Binding, error) {
	return r.query(ctx, `SELECT `+bindingColumns+` FROM society_admins WHERE user_id=$1 ORDER BY created_at`, userID)
}

func (r *pgRepository) ListBySociety(ctx context.Context, societyID uuid.UUID) ([]Binding, error) {
	return r.query(ctx, `SELECT `+bindingColumns+` FROM society_admins WHERE society_id=$1 ORDER BY created_at`, societyID)
}

func (r *pgRepository) query(ctx context.Context, sql string, args ...any) ([]Binding, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Binding
	for rows.Next() {
		var b Binding
		if err := rows.Scan(&b.ID, &b.UserID, &b.SocietyID, &b.IsPrimaryAdmin, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// lockSociety takes a row lock on the society, serializing every
// demote-then-promote for it. Doubles as the existence check.
func lockSociety(ctx context.Context, tx pgx.Tx, societyID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM societies WHERE id=$1 FOR UPDATE`, societyID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return &shared.NotFoundError{Resource: "society", ID: societyID.String()}
	}
	return err
}

func demotePrimary(ctx context.Context, tx pgx.Tx, societyID uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`UPDATE society_admins SET is_primary_admin=false, updated_at=NOW()
		 WHERE society_id=$1 AND is_primary_admin`, societyID)
	return err
}

func mapBindingError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return &shared.ConflictError{Resource: "society admin", Reason: "user is already an admin of this society"}
	}
	return err
}
