package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/compliance-case-api/internal/models"
)

// ErrConcurrentUpdate is returned when a guarded case update matched no row because the
// case changed after it was read.
var ErrConcurrentUpdate = errors.New("case modified concurrently")

const caseColumns = `id, organization_id, case_type, request_type, requester_first_name, requester_last_name,
	requester_email, requester_phone, request_comment, status_id, assigned_to_user_id, created_at,
	last_updated_at, due_date, closed_at, closure_comment, completed_on_time`

const historyColumns = `id, seq, case_id, changed_by_user_id, old_status_id, new_status_id,
	old_assigned_to_user_id, new_assigned_to_user_id, comments, change_date`

// CaseWriter is the transactional view of case storage handed to RunInTx callbacks.
type CaseWriter interface {
	LockForUpdate(ctx context.Context, id string) (*models.CaseRecord, error)
	Insert(ctx context.Context, record *models.CaseRecord) error
	Update(ctx context.Context, record *models.CaseRecord, prevUpdatedAt time.Time) error
	AppendHistory(ctx context.Context, entry *models.HistoryEntry) error
}

// CaseRepository persists cases and their append-only history.
type CaseRepository struct {
	db *sqlx.DB
}

// NewCaseRepository constructs the repository.
func NewCaseRepository(db *sqlx.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

// RunInTx executes fn inside a single database transaction. The transaction commits only
// when fn returns nil; any error, panic or context cancellation rolls it back.
func (r *CaseRepository) RunInTx(ctx context.Context, fn func(w CaseWriter) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin case transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&caseTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit case transaction: %w", err)
	}
	return nil
}

// GetByID returns a case without locking it.
func (r *CaseRepository) GetByID(ctx context.Context, id string) (*models.CaseRecord, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id = $1`
	var record models.CaseRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get case: %w", err)
	}
	return &record, nil
}

// List returns the organization's cases matching the filter along with the total count.
func (r *CaseRepository) List(ctx context.Context, filter models.CaseFilter) ([]models.CaseRecord, int, error) {
	conditions := []string{"organization_id = $1"}
	args := []interface{}{filter.OrganizationID}

	if filter.CaseType != "" {
		args = append(args, filter.CaseType)
		conditions = append(conditions, fmt.Sprintf("case_type = $%d", len(args)))
	}
	if filter.StatusID != "" {
		args = append(args, filter.StatusID)
		conditions = append(conditions, fmt.Sprintf("status_id = $%d", len(args)))
	}
	if filter.AssignedToUserID != "" {
		args = append(args, filter.AssignedToUserID)
		conditions = append(conditions, fmt.Sprintf("assigned_to_user_id = $%d", len(args)))
	}
	if filter.OpenOnly {
		conditions = append(conditions, "closed_at IS NULL")
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM cases"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count cases: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size < 1 {
		size = 20
	}
	args = append(args, size, (page-1)*size)
	query := fmt.Sprintf(`SELECT %s FROM cases%s ORDER BY created_at DESC, id ASC LIMIT $%d OFFSET $%d`,
		caseColumns, where, len(args)-1, len(args))

	var records []models.CaseRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list cases: %w", err)
	}
	return records, total, nil
}

// ListHistory returns the case's history in chronological order.
func (r *CaseRepository) ListHistory(ctx context.Context, caseID string) ([]models.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + ` FROM case_history WHERE case_id = $1 ORDER BY change_date ASC, seq ASC`
	var entries []models.HistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, caseID); err != nil {
		return nil, fmt.Errorf("list case history: %w", err)
	}
	return entries, nil
}

type caseTx struct {
	tx *sqlx.Tx
}

// LockForUpdate reads the case and holds a row lock until the transaction ends.
func (c *caseTx) LockForUpdate(ctx context.Context, id string) (*models.CaseRecord, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id = $1 FOR UPDATE`
	var record models.CaseRecord
	if err := c.tx.GetContext(ctx, &record, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("lock case: %w", err)
	}
	return &record, nil
}

func (c *caseTx) Insert(ctx context.Context, record *models.CaseRecord) error {
	const query = `INSERT INTO cases (id, organization_id, case_type, request_type, requester_first_name,
	requester_last_name, requester_email, requester_phone, request_comment, status_id, assigned_to_user_id,
	created_at, last_updated_at, due_date, closed_at, closure_comment, completed_on_time)
VALUES (:id, :organization_id, :case_type, :request_type, :requester_first_name, :requester_last_name,
	:requester_email, :requester_phone, :request_comment, :status_id, :assigned_to_user_id, :created_at,
	:last_updated_at, :due_date, :closed_at, :closure_comment, :completed_on_time)`
	if _, err := c.tx.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

// Update writes the mutable lifecycle columns. The row must still carry prevUpdatedAt and
// be open; organization and requester columns are never written after insert.
func (c *caseTx) Update(ctx context.Context, record *models.CaseRecord, prevUpdatedAt time.Time) error {
	const query = `UPDATE cases SET status_id = $1, assigned_to_user_id = $2, last_updated_at = $3, due_date = $4,
	closed_at = $5, closure_comment = $6, completed_on_time = $7
WHERE id = $8 AND organization_id = $9 AND last_updated_at = $10 AND closed_at IS NULL`
	res, err := c.tx.ExecContext(ctx, query,
		record.StatusID,
		record.AssignedToUserID,
		record.LastUpdatedAt,
		record.DueDate,
		record.ClosedAt,
		record.ClosureComment,
		record.CompletedOnTime,
		record.ID,
		record.OrganizationID,
		prevUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update case rows affected: %w", err)
	}
	if affected == 0 {
		return ErrConcurrentUpdate
	}
	return nil
}

// AppendHistory inserts a history entry and fills in its sequence number.
func (c *caseTx) AppendHistory(ctx context.Context, entry *models.HistoryEntry) error {
	const query = `INSERT INTO case_history (id, case_id, changed_by_user_id, old_status_id, new_status_id,
	old_assigned_to_user_id, new_assigned_to_user_id, comments, change_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING seq`
	err := c.tx.QueryRowxContext(ctx, query,
		entry.ID,
		entry.CaseID,
		entry.ChangedByUserID,
		entry.OldStatusID,
		entry.NewStatusID,
		entry.OldAssignedToUserID,
		entry.NewAssignedToUserID,
		entry.Comments,
		entry.ChangeDate,
	).Scan(&entry.Seq)
	if err != nil {
		return fmt.Errorf("append case history: %w", err)
	}
	return nil
}
