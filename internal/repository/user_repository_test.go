package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/compliance-case-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestUserFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "organization_id", "email", "full_name", "role", "active", "created_at", "updated_at"}).
		AddRow("u-1", "org-1", "officer@example.com", "Officer", string(models.RoleAdmin), true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1 LIMIT 1")).
		WithArgs("u-1").
		WillReturnRows(rows)

	user, err := repo.FindByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "org-1", user.OrganizationID)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("FROM users").WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestBelongsToOrganization(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND organization_id = $2 AND active = TRUE)")).
		WithArgs("u-1", "org-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("u-1", "org-2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := repo.BelongsToOrganization(context.Background(), "u-1", "org-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.BelongsToOrganization(context.Background(), "u-1", "org-2")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrganizationFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOrganizationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM organizations WHERE id = $1")).
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "business_name", "contact_email", "created_at"}).
			AddRow("org-1", "Acme Data Co", "dpo@acme.test", time.Now()))

	org, err := repo.FindByID(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Data Co", org.BusinessName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
