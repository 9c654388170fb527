package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/compliance-case-api/internal/models"
)

// UserRepository provides read access to organization staff.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, organization_id, email, full_name, role, active, created_at, updated_at FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// BelongsToOrganization reports whether the user is an active member of the organization.
func (r *UserRepository) BelongsToOrganization(ctx context.Context, userID, organizationID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND organization_id = $2 AND active = TRUE)`
	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, userID, organizationID); err != nil {
		return false, fmt.Errorf("check organization membership: %w", err)
	}
	return ok, nil
}
