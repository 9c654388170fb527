package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/compliance-case-api/internal/models"
)

// OrganizationRepository reads tenant records.
type OrganizationRepository struct {
	db *sqlx.DB
}

// NewOrganizationRepository constructs the repository.
func NewOrganizationRepository(db *sqlx.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// FindByID returns an organization by identifier.
func (r *OrganizationRepository) FindByID(ctx context.Context, id string) (*models.Organization, error) {
	const query = `SELECT id, business_name, contact_email, created_at FROM organizations WHERE id = $1`
	var org models.Organization
	if err := r.db.GetContext(ctx, &org, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find organization: %w", err)
	}
	return &org, nil
}
