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
	"github.com/noah-isme/compliance-case-api/pkg/database"
	appErrors "github.com/noah-isme/compliance-case-api/pkg/errors"
)

const (
	statusCachePattern   = "catalog:*"
	activeStatusCacheKey = "catalog:statuses:active"
)

type statusStore interface {
	List(ctx context.Context, includeInactive bool) ([]models.Status, error)
	FindByID(ctx context.Context, id string) (*models.Status, error)
	FindActiveByName(ctx context.Context, name string) (*models.Status, error)
	Create(ctx context.Context, status *models.Status) error
	Update(ctx context.Context, status *models.Status) error
}

// StatusService owns the status catalog: lookups used by the lifecycle engine and admin edits.
type StatusService struct {
	repo         statusStore
	cache        *CacheService
	cacheTTL     time.Duration
	initialName  string
	terminalName string
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// NewStatusService builds the catalog service. initialName and terminalName designate the statuses
// a new case starts in and a closed case ends in.
func NewStatusService(repo statusStore, cache *CacheService, cacheTTL time.Duration, initialName, terminalName string, validate *validator.Validate, logger *zap.Logger) *StatusService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusService{
		repo:         repo,
		cache:        cache,
		cacheTTL:     cacheTTL,
		initialName:  strings.TrimSpace(initialName),
		terminalName: strings.TrimSpace(terminalName),
		validator:    validate,
		logger:       logger,
		now:          time.Now,
	}
}

// ListActiveStatuses returns the active catalog, served from cache when enabled.
func (s *StatusService) ListActiveStatuses(ctx context.Context) ([]models.Status, error) {
	var cached []models.Status
	if s.cache.Get(ctx, activeStatusCacheKey, &cached) {
		return cached, nil
	}
	statuses, err := s.repo.List(ctx, false)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list statuses")
	}
	s.cache.Set(ctx, activeStatusCacheKey, statuses, s.cacheTTL)
	return statuses, nil
}

// ListStatuses returns the catalog, optionally including deactivated entries.
func (s *StatusService) ListStatuses(ctx context.Context, includeInactive bool) ([]models.Status, error) {
	if !includeInactive {
		return s.ListActiveStatuses(ctx)
	}
	statuses, err := s.repo.List(ctx, true)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list statuses")
	}
	return statuses, nil
}

// GetStatus returns a catalog entry by id, active or not.
func (s *StatusService) GetStatus(ctx context.Context, id string) (*models.Status, error) {
	key := "catalog:status:" + id
	var cached models.Status
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}
	status, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "status not found")
		}
		return nil, appErrors.Internal(err, "failed to load status")
	}
	s.cache.Set(ctx, key, status, s.cacheTTL)
	return status, nil
}

// InitialStatus returns the active status new cases start in.
func (s *StatusService) InitialStatus(ctx context.Context) (*models.Status, error) {
	return s.designated(ctx, s.initialName, "initial")
}

// TerminalStatus returns the active status that closes a case.
func (s *StatusService) TerminalStatus(ctx context.Context) (*models.Status, error) {
	return s.designated(ctx, s.terminalName, "terminal")
}

func (s *StatusService) designated(ctx context.Context, name, role string) (*models.Status, error) {
	statuses, err := s.ListActiveStatuses(ctx)
	if err != nil {
		return nil, err
	}
	for i := range statuses {
		if strings.EqualFold(statuses[i].Name, name) {
			return &statuses[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("%s status %q is not an active catalog entry", role, name))
}

// CreateStatus adds a catalog entry.
func (s *StatusService) CreateStatus(ctx context.Context, req dto.StatusRequest) (*models.Status, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	if active {
		if err := s.ensureNameAvailable(ctx, req.Name, ""); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	status := &models.Status{
		ID:        uuid.NewString(),
		Name:      req.Name,
		SLADays:   *req.SLADays,
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, status); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an active status with this name already exists")
		}
		return nil, appErrors.Internal(err, "failed to create status")
	}
	s.cache.Invalidate(ctx, statusCachePattern)
	s.logger.Info("status created", zap.String("status_id", status.ID), zap.String("name", status.Name), zap.Int("sla_days", status.SLADays))
	return status, nil
}

// UpdateStatus edits a catalog entry. Deactivation stands in for deletion since cases keep
// referencing their statuses; the designated initial and terminal statuses cannot be deactivated.
func (s *StatusService) UpdateStatus(ctx context.Context, id string, req dto.StatusRequest) (*models.Status, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "status not found")
		}
		return nil, appErrors.Internal(err, "failed to load status")
	}

	updated := *current
	updated.Name = req.Name
	updated.SLADays = *req.SLADays
	if req.IsActive != nil {
		updated.IsActive = *req.IsActive
	}
	if current.IsActive && !updated.IsActive && s.isDesignated(current.Name) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "the initial and terminal statuses cannot be deactivated")
	}
	if current.IsActive && s.isDesignated(current.Name) && !strings.EqualFold(current.Name, updated.Name) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "the initial and terminal statuses cannot be renamed")
	}
	if updated.IsActive {
		if err := s.ensureNameAvailable(ctx, updated.Name, updated.ID); err != nil {
			return nil, err
		}
	}
	updated.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "status not found")
		}
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an active status with this name already exists")
		}
		return nil, appErrors.Internal(err, "failed to update status")
	}
	s.cache.Invalidate(ctx, statusCachePattern)
	s.logger.Info("status updated", zap.String("status_id", updated.ID), zap.Bool("active", updated.IsActive), zap.Int("sla_days", updated.SLADays))
	return &updated, nil
}

func (s *StatusService) isDesignated(name string) bool {
	return strings.EqualFold(name, s.initialName) || strings.EqualFold(name, s.terminalName)
}

func (s *StatusService) ensureNameAvailable(ctx context.Context, name, selfID string) error {
	existing, err := s.repo.FindActiveByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Internal(err, "failed to check status name")
	}
	if existing.ID != selfID {
		return appErrors.Clone(appErrors.ErrConflict, "an active status with this name already exists")
	}
	return nil
}
