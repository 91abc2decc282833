package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/opsboard-backend/internal/errors"
	"github.com/unclebandit/opsboard-backend/internal/model"
)

// EntityRepositoryInterface defines methods used by services
type EntityRepositoryInterface interface {
	List(ctx context.Context) ([]*model.Entity, error)
	GetByID(ctx context.Context, id int) (*model.Entity, error)
	Create(ctx context.Context, e *model.Entity) error
	Rename(ctx context.Context, id int, name string) error
}

type EntityRepository struct {
	DB *sql.DB
}

// List returns entities ordered by name
func (r *EntityRepository) List(ctx context.Context) ([]*model.Entity, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name, created_at FROM entities ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entities := []*model.Entity{}
	for rows.Next() {
		e := &model.Entity{}
		if err := rows.Scan(&e.ID, &e.Name, &e.CreatedAt); err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

func (r *EntityRepository) GetByID(ctx context.Context, id int) (*model.Entity, error) {
	var e model.Entity
	err := r.DB.QueryRowContext(ctx, `SELECT id, name, created_at FROM entities WHERE id=$1`, id).
		Scan(&e.ID, &e.Name, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("entity", id)
		}
		return nil, err
	}
	return &e, nil
}

// Create inserts an entity; a name collision returns ErrDuplicateEntity
func (r *EntityRepository) Create(ctx context.Context, e *model.Entity) error {
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO entities (name) VALUES ($1) RETURNING id, created_at`, e.Name,
	).Scan(&e.ID, &e.CreatedAt)
	return mapUniqueViolation(err)
}

func (r *EntityRepository) Rename(ctx context.Context, id int, name string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE entities SET name=$1 WHERE id=$2`, name, id)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return expectOneRow(res, "entity", id)
}

func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return appErrors.ErrDuplicateEntity
	}
	return err
}

// expectOneRow turns a zero-row update into a not-found error
func expectOneRow(res sql.Result, resource string, id int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewNotFound(resource, id)
	}
	return nil
}

var _ EntityRepositoryInterface = (*EntityRepository)(nil)
