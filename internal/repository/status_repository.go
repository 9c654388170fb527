package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/compliance-case-api/internal/models"
)

const statusColumns = `id, name, sla_days, is_active, created_at, updated_at`

// StatusRepository provides database access for the status catalog.
type StatusRepository struct {
	db *sqlx.DB
}

// NewStatusRepository constructs the repository.
func NewStatusRepository(db *sqlx.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// List returns catalog entries ordered by name. Inactive entries are included on request.
func (r *StatusRepository) List(ctx context.Context, includeInactive bool) ([]models.Status, error) {
	query := `SELECT ` + statusColumns + ` FROM statuses`
	if !includeInactive {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name ASC`

	var statuses []models.Status
	if err := r.db.SelectContext(ctx, &statuses, query); err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	return statuses, nil
}

// FindByID returns a catalog entry regardless of its active flag.
func (r *StatusRepository) FindByID(ctx context.Context, id string) (*models.Status, error) {
	query := `SELECT ` + statusColumns + ` FROM statuses WHERE id = $1`
	var status models.Status
	if err := r.db.GetContext(ctx, &status, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find status by id: %w", err)
	}
	return &status, nil
}

// FindActiveByName returns the active entry with the given name, compared case-insensitively.
func (r *StatusRepository) FindActiveByName(ctx context.Context, name string) (*models.Status, error) {
	query := `SELECT ` + statusColumns + ` FROM statuses WHERE LOWER(name) = LOWER($1) AND is_active = TRUE LIMIT 1`
	var status models.Status
	if err := r.db.GetContext(ctx, &status, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find status by name: %w", err)
	}
	return &status, nil
}

// Create inserts a new catalog entry.
func (r *StatusRepository) Create(ctx context.Context, status *models.Status) error {
	const query = `INSERT INTO statuses (id, name, sla_days, is_active, created_at, updated_at)
VALUES (:id, :name, :sla_days, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, status); err != nil {
		return fmt.Errorf("create status: %w", err)
	}
	return nil
}

// Update overwrites the mutable catalog columns.
func (r *StatusRepository) Update(ctx context.Context, status *models.Status) error {
	const query = `UPDATE statuses SET name = :name, sla_days = :sla_days, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, status)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
