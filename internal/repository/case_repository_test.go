package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/compliance-case-api/internal/models"
)

var caseRowColumns = []string{
	"id", "organization_id", "case_type", "request_type", "requester_first_name", "requester_last_name",
	"requester_email", "requester_phone", "request_comment", "status_id", "assigned_to_user_id", "created_at",
	"last_updated_at", "due_date", "closed_at", "closure_comment", "completed_on_time",
}

func caseRow(now time.Time) *sqlmock.Rows {
	due := now.AddDate(0, 0, 7)
	return sqlmock.NewRows(caseRowColumns).AddRow(
		"c-1", "org-1", "DPR", "Erasure", "Asha", "Rao", "asha@example.com", "", "please erase",
		"s-sub", nil, now, now, due, nil, nil, nil,
	)
}

func TestCaseRunInTxCommitsTransition(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	now := time.Now().UTC()
	later := now.Add(time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM cases WHERE id = $1 FOR UPDATE")).
		WithArgs("c-1").
		WillReturnRows(caseRow(now))
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $8 AND organization_id = $9 AND last_updated_at = $10 AND closed_at IS NULL")).
		WithArgs("s-prog", nil, later, sqlmock.AnyArg(), nil, nil, nil, "c-1", "org-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO case_history").
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(int64(12)))
	mock.ExpectCommit()

	var entry models.HistoryEntry
	err := repo.RunInTx(context.Background(), func(w CaseWriter) error {
		record, err := w.LockForUpdate(context.Background(), "c-1")
		if err != nil {
			return err
		}
		assert.Equal(t, "Asha", record.FirstName)
		assert.Nil(t, record.AssignedToUserID)
		prev := record.LastUpdatedAt
		record.StatusID = "s-prog"
		record.LastUpdatedAt = later
		if err := w.Update(context.Background(), record, prev); err != nil {
			return err
		}
		old := "s-sub"
		entry = models.HistoryEntry{ID: "h-1", CaseID: "c-1", ChangedByUserID: "u-1", OldStatusID: &old, NewStatusID: "s-prog", ChangeDate: later}
		return w.AppendHistory(context.Background(), &entry)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), entry.Seq)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseRunInTxRollsBackOnStaleUpdate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE cases SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.RunInTx(context.Background(), func(w CaseWriter) error {
		record := &models.CaseRecord{ID: "c-1", OrganizationID: "org-1", StatusID: "s-prog", LastUpdatedAt: now}
		return w.Update(context.Background(), record, now.Add(-time.Second))
	})
	require.ErrorIs(t, err, ErrConcurrentUpdate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseRunInTxRollsBackOnCallbackError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO cases").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectRollback()

	err := repo.RunInTx(context.Background(), func(w CaseWriter) error {
		now := time.Now()
		record := &models.CaseRecord{
			ID: "c-2", OrganizationID: "org-1", CaseType: models.CaseTypeGrievance,
			Requester: models.Requester{FirstName: "Ravi", Email: "ravi@example.com"},
			StatusID:  "s-sub", CreatedAt: now, LastUpdatedAt: now,
		}
		if err := w.Insert(context.Background(), record); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseLockForUpdateNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs("missing").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.RunInTx(context.Background(), func(w CaseWriter) error {
		_, err := w.LockForUpdate(context.Background(), "missing")
		return err
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseListAppliesFiltersAndPaging(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM cases WHERE organization_id = $1 AND case_type = $2 AND closed_at IS NULL")).
		WithArgs("org-1", models.CaseTypeDPR).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id ASC LIMIT $3 OFFSET $4")).
		WithArgs("org-1", models.CaseTypeDPR, 2, 2).
		WillReturnRows(caseRow(now))

	records, total, err := repo.List(context.Background(), models.CaseFilter{
		OrganizationID: "org-1", CaseType: models.CaseTypeDPR, OpenOnly: true, Page: 2, PageSize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, records, 1)
	assert.Equal(t, models.RequestTypeErasure, records[0].RequestType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseListHistoryOrdered(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "seq", "case_id", "changed_by_user_id", "old_status_id", "new_status_id",
		"old_assigned_to_user_id", "new_assigned_to_user_id", "comments", "change_date"}).
		AddRow("h-1", int64(1), "c-1", "system", nil, "s-sub", nil, nil, "opened", now).
		AddRow("h-2", int64(2), "c-1", "u-1", "s-sub", "s-prog", nil, "u-2", "", now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM case_history WHERE case_id = $1 ORDER BY change_date ASC, seq ASC")).
		WithArgs("c-1").
		WillReturnRows(rows)

	entries, err := repo.ListHistory(context.Background(), "c-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].IsCreation())
	assert.Equal(t, "u-2", *entries[1].NewAssignedToUserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
