package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/compliance-case-api/internal/dto"
	"github.com/noah-isme/compliance-case-api/internal/models"
	"github.com/noah-isme/compliance-case-api/internal/repository"
	"github.com/noah-isme/compliance-case-api/pkg/database"
	appErrors "github.com/noah-isme/compliance-case-api/pkg/errors"
	"github.com/noah-isme/compliance-case-api/pkg/export"
	"github.com/noah-isme/compliance-case-api/pkg/middleware/requestid"
)

const (
	maxTransitionAttempts  = 2
	defaultCaseTxTimeout   = 5 * time.Second
	notificationDispatchTO = 2 * time.Second
)

type caseStore interface {
	RunInTx(ctx context.Context, fn func(w repository.CaseWriter) error) error
	GetByID(ctx context.Context, id string) (*models.CaseRecord, error)
	List(ctx context.Context, filter models.CaseFilter) ([]models.CaseRecord, int, error)
	ListHistory(ctx context.Context, caseID string) ([]models.HistoryEntry, error)
}

type statusCatalog interface {
	ListStatuses(ctx context.Context, includeInactive bool) ([]models.Status, error)
	GetStatus(ctx context.Context, id string) (*models.Status, error)
	InitialStatus(ctx context.Context) (*models.Status, error)
	TerminalStatus(ctx context.Context) (*models.Status, error)
}

type staffDirectory interface {
	BelongsToOrganization(ctx context.Context, userID, organizationID string) (bool, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type organizationReader interface {
	FindByID(ctx context.Context, id string) (*models.Organization, error)
}

type historyRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
	Extension() string
}

// CaseService runs the case lifecycle: opening cases, applying validated transitions with their
// audit history in one transaction, and announcing creation and closure after commit.
type CaseService struct {
	store      caseStore
	catalog    statusCatalog
	staff      staffDirectory
	orgs       organizationReader
	dispatcher NotificationDispatcher
	validator  *validator.Validate
	metrics    *MetricsService
	exporters  map[string]historyRenderer
	txTimeout  time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

// CaseServiceOption configures the service.
type CaseServiceOption func(*CaseService)

// WithCaseClock overrides the time source.
func WithCaseClock(now func() time.Time) CaseServiceOption {
	return func(s *CaseService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCaseMetrics records transition and notification metrics.
func WithCaseMetrics(metrics *MetricsService) CaseServiceOption {
	return func(s *CaseService) {
		s.metrics = metrics
	}
}

// WithCaseTxTimeout bounds each transaction.
func WithCaseTxTimeout(timeout time.Duration) CaseServiceOption {
	return func(s *CaseService) {
		if timeout > 0 {
			s.txTimeout = timeout
		}
	}
}

// WithHistoryExporter registers a renderer for history exports under format.
func WithHistoryExporter(format string, renderer historyRenderer) CaseServiceOption {
	return func(s *CaseService) {
		s.exporters[strings.ToLower(format)] = renderer
	}
}

// NewCaseService wires the lifecycle engine.
func NewCaseService(
	store caseStore,
	catalog statusCatalog,
	staff staffDirectory,
	orgs organizationReader,
	dispatcher NotificationDispatcher,
	validate *validator.Validate,
	logger *zap.Logger,
	opts ...CaseServiceOption,
) *CaseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CaseService{
		store:      store,
		catalog:    catalog,
		staff:      staff,
		orgs:       orgs,
		dispatcher: dispatcher,
		validator:  validate,
		exporters:  map[string]historyRenderer{},
		txTimeout:  defaultCaseTxTimeout,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCase opens a case in the initial status and records its creation entry.
func (s *CaseService) CreateCase(ctx context.Context, input dto.CreateCaseInput) (*models.CaseRecord, error) {
	input.Request.Normalize()
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid case submission")
	}
	switch {
	case input.CaseType == models.CaseTypeDPR && input.Request.RequestType == "":
		return nil, appErrors.Clone(appErrors.ErrValidation, "request_type is required for data principal requests")
	case input.CaseType == models.CaseTypeGrievance && input.Request.RequestType != "":
		return nil, appErrors.Clone(appErrors.ErrValidation, "grievances do not take a request_type")
	}

	org, err := s.orgs.FindByID(ctx, input.OrganizationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "organization not found")
		}
		return nil, appErrors.Internal(err, "failed to load organization")
	}
	initial, err := s.catalog.InitialStatus(ctx)
	if err != nil {
		return nil, err
	}

	actorID := input.CreatedByUserID
	if actorID == "" {
		actorID = models.SystemActorID
	}
	now := s.clock()
	record := &models.CaseRecord{
		ID:             uuid.NewString(),
		OrganizationID: org.ID,
		CaseType:       input.CaseType,
		RequestType:    models.RequestType(input.Request.RequestType),
		Requester: models.Requester{
			FirstName: input.Request.FirstName,
			LastName:  input.Request.LastName,
			Email:     input.Request.Email,
			Phone:     input.Request.Phone,
		},
		RequestComment: input.Request.Comment,
		StatusID:       initial.ID,
		CreatedAt:      now,
		LastUpdatedAt:  now,
		DueDate:        DueDate(*initial, now),
	}

	err = s.runInTx(ctx, "case_create", func(txCtx context.Context, w repository.CaseWriter) error {
		if err := w.Insert(txCtx, record); err != nil {
			return err
		}
		entry := RecordCreation(record, actorID, record.RequestComment, now)
		return w.AppendHistory(txCtx, &entry)
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create case")
	}

	s.metrics.ObserveCaseCreated(string(record.CaseType))
	s.log(ctx).Info("case created",
		zap.String("case_id", record.ID),
		zap.String("organization_id", record.OrganizationID),
		zap.String("case_type", string(record.CaseType)),
		zap.String("status_id", record.StatusID),
	)
	s.dispatch(ctx, NotificationIntentFor(models.NotificationCreated, record, org, "", now))
	return record, nil
}

// ApplyTransition validates and commits change for the case on behalf of actor. A concurrent
// write is retried once against freshly loaded state before surfacing as TRANSIENT.
func (s *CaseService) ApplyTransition(ctx context.Context, actor models.Actor, caseID string, change models.TransitionChange) (*models.CommittedTransition, error) {
	if err := s.validator.Struct(change); err != nil {
		s.metrics.ObserveTransition(TransitionRejected)
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transition payload")
	}
	for attempt := 1; ; attempt++ {
		committed, delta, err := s.attemptTransition(ctx, actor, caseID, change)
		if err == nil {
			committed.Attempts = attempt
			s.metrics.ObserveTransition(TransitionCommitted)
			s.log(ctx).Info("case transition committed",
				zap.String("case_id", caseID),
				zap.String("actor_id", actor.UserID),
				zap.String("status_id", committed.Case.StatusID),
				zap.Bool("closed", committed.Case.IsClosed()),
				zap.Int("attempts", attempt),
			)
			if kind, ok := NotificationKindFor(false, delta); ok {
				committed.Notification = s.buildIntent(ctx, kind, committed.Case)
				s.dispatch(ctx, committed.Notification)
			}
			return committed, nil
		}

		if appErrors.IsRejection(err) {
			s.metrics.ObserveTransition(TransitionRejected)
			s.log(ctx).Info("case transition rejected", zap.String("case_id", caseID), zap.String("actor_id", actor.UserID), zap.Error(err))
			return nil, err
		}
		if isTransientFailure(err) {
			if attempt < maxTransitionAttempts {
				s.metrics.ObserveTransition(TransitionRetried)
				s.log(ctx).Warn("case transition conflicted, retrying", zap.String("case_id", caseID), zap.Int("attempt", attempt), zap.Error(err))
				continue
			}
			s.metrics.ObserveTransition(TransitionFailed)
			s.log(ctx).Warn("case transition conflicted again", zap.String("case_id", caseID), zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, appErrors.ErrTransient.Message)
		}

		s.metrics.ObserveTransition(TransitionFailed)
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		s.log(ctx).Error("case transition failed", zap.String("case_id", caseID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to apply transition")
	}
}

func (s *CaseService) attemptTransition(ctx context.Context, actor models.Actor, caseID string, change models.TransitionChange) (*models.CommittedTransition, *ValidatedTransition, error) {
	var (
		committed *models.CommittedTransition
		delta     *ValidatedTransition
	)
	err := s.runInTx(ctx, "case_transition", func(txCtx context.Context, w repository.CaseWriter) error {
		record, err := w.LockForUpdate(txCtx, caseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "case not found")
			}
			return err
		}

		facts, err := s.resolveFacts(txCtx, actor, record, change)
		if err != nil {
			return err
		}
		delta, err = ValidateTransition(actor, record, change, facts)
		if err != nil {
			return err
		}

		now := s.clock()
		updated := applyDelta(record, delta, now)
		if err := w.Update(txCtx, updated, record.LastUpdatedAt); err != nil {
			return err
		}
		entry, err := RecordTransition(record, actor.UserID, delta, now)
		if err != nil {
			return err
		}
		if err := w.AppendHistory(txCtx, &entry); err != nil {
			return err
		}
		committed = &models.CommittedTransition{Case: updated, History: entry}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return committed, delta, nil
}

// resolveFacts performs the catalog and directory lookups validation needs. Requests the
// validator rejects up front (foreign tenant, closed case) skip the lookups.
func (s *CaseService) resolveFacts(ctx context.Context, actor models.Actor, record *models.CaseRecord, change models.TransitionChange) (TransitionFacts, error) {
	var facts TransitionFacts
	if actor.OrganizationID != record.OrganizationID || record.IsClosed() {
		return facts, nil
	}

	if StatusChangeRequested(record, change) {
		terminal, err := s.catalog.TerminalStatus(ctx)
		if err != nil {
			return facts, err
		}
		facts.TerminalStatusID = terminal.ID

		target, err := s.catalog.GetStatus(ctx, *change.StatusID)
		switch {
		case err == nil:
			facts.TargetStatus = target
		case errors.Is(err, appErrors.ErrNotFound):
		default:
			return facts, err
		}
	}

	if actor.IsAdmin() && AssigneeChangeRequested(record, change) && change.AssignedToUserID.Value != nil {
		ok, err := s.staff.BelongsToOrganization(ctx, *change.AssignedToUserID.Value, record.OrganizationID)
		if err != nil {
			return facts, err
		}
		facts.AssigneeInOrg = ok
	}
	return facts, nil
}

// runInTx bounds fn's transaction by the configured timeout and records its duration.
func (s *CaseService) runInTx(ctx context.Context, label string, fn func(txCtx context.Context, w repository.CaseWriter) error) error {
	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()
	start := time.Now()
	err := s.store.RunInTx(txCtx, func(w repository.CaseWriter) error {
		return fn(txCtx, w)
	})
	s.metrics.ObserveDBQuery(label, time.Since(start))
	return err
}

func applyDelta(record *models.CaseRecord, delta *ValidatedTransition, now time.Time) *models.CaseRecord {
	updated := *record
	updated.LastUpdatedAt = now
	if delta.StatusChanged {
		updated.StatusID = delta.NewStatus.ID
		updated.DueDate = DueDate(*delta.NewStatus, now)
		if delta.Closing {
			closedAt := now
			comment := delta.Comment
			updated.ClosedAt = &closedAt
			updated.ClosureComment = &comment
			updated.CompletedOnTime = completedOnTime(record.DueDate, now)
		}
	}
	if delta.AssigneeChanged {
		updated.AssignedToUserID = delta.NewAssignee
	}
	return &updated
}

// GetHistory returns the case's audit trail in chronological order.
func (s *CaseService) GetHistory(ctx context.Context, actor models.Actor, caseID string) ([]models.HistoryEntry, error) {
	if _, err := s.loadForActor(ctx, actor, caseID); err != nil {
		return nil, err
	}
	entries, err := s.store.ListHistory(ctx, caseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load case history")
	}
	return entries, nil
}

// GetCase returns the case with its status name and deadline figures.
func (s *CaseService) GetCase(ctx context.Context, actor models.Actor, caseID string) (*models.CaseView, error) {
	record, err := s.loadForActor(ctx, actor, caseID)
	if err != nil {
		return nil, err
	}
	names, err := s.statusNames(ctx)
	if err != nil {
		return nil, err
	}
	view := s.view(record, names)
	return &view, nil
}

// ListCases pages through the actor's organization cases.
func (s *CaseService) ListCases(ctx context.Context, actor models.Actor, query dto.CaseListQuery) ([]models.CaseView, *models.Pagination, error) {
	if actor.OrganizationID == "" {
		return nil, nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid case query")
	}
	filter := models.CaseFilter{
		OrganizationID:   actor.OrganizationID,
		CaseType:         models.CaseType(query.CaseType),
		StatusID:         query.StatusID,
		AssignedToUserID: query.AssignedTo,
		OpenOnly:         query.OpenOnly,
		Page:             query.Page,
		PageSize:         query.PageSize,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}

	records, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list cases")
	}
	names, err := s.statusNames(ctx)
	if err != nil {
		return nil, nil, err
	}
	views := make([]models.CaseView, 0, len(records))
	for i := range records {
		views = append(views, s.view(&records[i], names))
	}
	return views, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// ExportHistory renders the case's audit trail in the requested format.
func (s *CaseService) ExportHistory(ctx context.Context, actor models.Actor, caseID, format string) (*dto.HistoryExport, error) {
	renderer, ok := s.exporters[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	entries, err := s.GetHistory(ctx, actor, caseID)
	if err != nil {
		return nil, err
	}
	names, err := s.statusNames(ctx)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: []string{"Changed At", "Changed By", "Old Status", "New Status", "Old Assignee", "New Assignee", "Comments"}}
	for _, entry := range entries {
		oldStatus := ""
		if entry.OldStatusID != nil {
			oldStatus = statusLabel(names, *entry.OldStatusID)
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Changed At":   entry.ChangeDate.UTC().Format(time.RFC3339),
			"Changed By":   entry.ChangedByUserID,
			"Old Status":   oldStatus,
			"New Status":   statusLabel(names, entry.NewStatusID),
			"Old Assignee": derefOr(entry.OldAssignedToUserID, ""),
			"New Assignee": derefOr(entry.NewAssignedToUserID, ""),
			"Comments":     entry.Comments,
		})
	}

	body, err := renderer.Render(dataset, "Case history "+caseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render case history")
	}
	return &dto.HistoryExport{
		Filename:    fmt.Sprintf("case-%s-history.%s", caseID, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func (s *CaseService) loadForActor(ctx context.Context, actor models.Actor, caseID string) (*models.CaseRecord, error) {
	record, err := s.store.GetByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "case not found")
		}
		return nil, appErrors.Internal(err, "failed to load case")
	}
	if actor.OrganizationID == "" || record.OrganizationID != actor.OrganizationID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "case belongs to another organization")
	}
	return record, nil
}

func (s *CaseService) statusNames(ctx context.Context) (map[string]string, error) {
	statuses, err := s.catalog.ListStatuses(ctx, true)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(statuses))
	for _, status := range statuses {
		names[status.ID] = status.Name
	}
	return names, nil
}

func (s *CaseService) view(record *models.CaseRecord, names map[string]string) models.CaseView {
	days, overdue := SLAState(record, s.now())
	return models.CaseView{
		CaseRecord:    *record,
		StatusName:    names[record.StatusID],
		DaysRemaining: days,
		Overdue:       overdue,
	}
}

// buildIntent resolves the organization and assignee details a notification carries. Lookup
// failures degrade the intent rather than suppress it.
func (s *CaseService) buildIntent(ctx context.Context, kind models.NotificationKind, record *models.CaseRecord) *models.NotificationIntent {
	org, err := s.orgs.FindByID(ctx, record.OrganizationID)
	if err != nil {
		s.log(ctx).Warn("organization lookup for notification failed", zap.String("case_id", record.ID), zap.Error(err))
		org = nil
	}
	assigneeEmail := ""
	if record.AssignedToUserID != nil {
		user, err := s.staff.FindByID(ctx, *record.AssignedToUserID)
		if err != nil {
			s.log(ctx).Warn("assignee lookup for notification failed", zap.String("case_id", record.ID), zap.Error(err))
		} else {
			assigneeEmail = user.Email
		}
	}
	return NotificationIntentFor(kind, record, org, assigneeEmail, s.clock())
}

// dispatch hands the intent to the notification collaborator. It runs after commit and never
// reports failure to the caller.
func (s *CaseService) dispatch(ctx context.Context, intent *models.NotificationIntent) {
	if s.dispatcher == nil || intent == nil {
		return
	}
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notificationDispatchTO)
	defer cancel()

	fields := []zap.Field{
		zap.String("intent_id", intent.ID),
		zap.String("case_id", intent.CaseID),
		zap.String("kind", string(intent.Kind)),
	}
	if err := s.dispatcher.Dispatch(dctx, *intent); err != nil {
		s.metrics.ObserveNotification(string(intent.Kind), "dispatch_failed")
		s.log(ctx).Warn("notification dispatch failed", append(fields, zap.Error(err))...)
		return
	}
	s.metrics.ObserveNotification(string(intent.Kind), "dispatched")
	s.log(ctx).Info("notification dispatched", fields...)
}

func (s *CaseService) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *CaseService) log(ctx context.Context) *zap.Logger {
	if id := requestid.FromContext(ctx); id != "" {
		return s.logger.With(zap.String("request_id", id))
	}
	return s.logger
}

func isTransientFailure(err error) bool {
	return errors.Is(err, repository.ErrConcurrentUpdate) || database.IsTransient(err)
}

func statusLabel(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id
}

func derefOr(value *string, fallback string) string {
	if value == nil {
		return fallback
	}
	return *value
}
