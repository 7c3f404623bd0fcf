package societies

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nivra-platform/nivra-core/internal/platform/db"
	"github.com/nivra-platform/nivra-core/internal/shared"
)

// Repository defines society registry persistence.
type Repository interface {
	Create(ctx context.Context, s Society) (Society, error)
	Update(ctx context.Context, s Society) (Society, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (Society, error)
	List(ctx context.Context, limit, offset int) ([]Society, error)
	Count(ctx context.Context) (int, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

var _ Repository = (*pgRepository)(nil)

func (r *pgRepository) Create(ctx context.Context, s Society) (Society, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO societies (id, name, city, state, total_units, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		s.ID, s.Name, s.City, s.State, s.TotalUnits, s.IsActive)
	if err := row.Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
		return Society{}, err
	}
	return s, nil
}

func (r *pgRepository) Update(ctx context.Context, s Society) (Society, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE societies SET name=$2, city=$3, state=$4, total_units=$5, is_active=$6, updated_at=NOW()
		 WHERE id=$1
		 RETURNING created_at, updated_at`,
		s.ID, s.Name, s.City, s.State, s.TotalUnits, s.IsActive)
	if err := row.Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Society{}, &shared.NotFoundError{Resource: "society", ID: s.ID.String()}
		}
		return Society{}, err
	}
	return s, nil
}

// Delete removes the society and cascades to its admin bindings in one
// transaction.
func (r *pgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM society_admins WHERE society_id=$1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM societies WHERE id=$1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &shared.NotFoundError{Resource: "society", ID: id.String()}
		}
		return nil
	})
}

func (r *pgRepository) Get(ctx context.Context, id uuid.UUID) (Society, error) {
	var s Society
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, city, state, total_units, is_active, created_at, updated_at FROM societies WHERE id=$1`,
		id).Scan(&s.ID, &s.Name, &s.City, &s.State, &s.TotalUnits, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Society{}, &shared.NotFoundError{Resource: "society", ID: id.String()}
		}
		return Society{}, err
	}
	return s, nil
}

func (r *pgRepository) List(ctx context.Context, limit, offset int) ([]Society, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, city, state, total_units, is_active, created_at, updated_at
		 FROM societies ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Society
	for rows.Next() {
		var s Society
		if err := rows.Scan(&s.ID, &s.Name, &s.City, &s.State, &s.TotalUnits, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *pgRepository) Count(ctx context.Context) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM societies`).Scan(&total)
	return total, err
}
