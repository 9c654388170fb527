package service

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/compliance-case-api/internal/dto"
	"github.com/noah-isme/compliance-case-api/internal/models"
	appErrors "github.com/noah-isme/compliance-case-api/pkg/errors"
)

type statusRepoStub struct {
	mu        sync.Mutex
	statuses  map[string]models.Status
	listCalls int
}

func newStatusRepoStub(statuses ...models.Status) *statusRepoStub {
	stub := &statusRepoStub{statuses: map[string]models.Status{}}
	for _, status := range statuses {
		stub.statuses[status.ID] = status
	}
	return stub
}

func (s *statusRepoStub) List(_ context.Context, includeInactive bool) ([]models.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	var out []models.Status
	for _, status := range s.statuses {
		if includeInactive || status.IsActive {
			out = append(out, status)
		}
	}
	return out, nil
}

func (s *statusRepoStub) FindByID(_ context.Context, id string) (*models.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.statuses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &status, nil
}

func (s *statusRepoStub) FindActiveByName(_ context.Context, name string) (*models.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, status := range s.statuses {
		if status.IsActive && strings.EqualFold(status.Name, name) {
			found := status
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *statusRepoStub) Create(_ context.Context, status *models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[status.ID] = *status
	return nil
}

func (s *statusRepoStub) Update(_ context.Context, status *models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.statuses[status.ID]; !ok {
		return sql.ErrNoRows
	}
	s.statuses[status.ID] = *status
	return nil
}

type memoryCacheRepo struct {
	values map[string]interface{}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	value, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	switch d := dest.(type) {
	case *[]models.Status:
		*d = value.([]models.Status)
	case *models.Status:
		*d = *value.(*models.Status)
	}
	return nil
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.values[key] = value
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.values {
		if strings.HasPrefix(key, prefix) {
			delete(m.values, key)
		}
	}
	return nil
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

func TestStatusServiceDesignatedStatuses(t *testing.T) {
	svc := NewStatusService(newStatusRepoStub(catalogFixture()...), nil, 0, "submitted", "CLOSED", nil, nil)

	initial, err := svc.InitialStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, statusSubmitted, initial.ID)

	terminal, err := svc.TerminalStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, statusClosed, terminal.ID)

	missing := NewStatusService(newStatusRepoStub(catalogFixture()...), nil, 0, "Archived", "Closed", nil, nil)
	_, err = missing.InitialStatus(context.Background())
	requireCode(t, err, appErrors.ErrPreconditionFailed)
}

func TestStatusServiceListActiveUsesCache(t *testing.T) {
	repo := newStatusRepoStub(catalogFixture()...)
	cache := NewCacheService(&memoryCacheRepo{values: map[string]interface{}{}}, nil, time.Minute, nil, true)
	svc := NewStatusService(repo, cache, time.Minute, "Submitted", "Closed", nil, nil)

	first, err := svc.ListActiveStatuses(context.Background())
	require.NoError(t, err)
	assert.Len(t, first, 5)
	_, err = svc.ListActiveStatuses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)

	_, err = svc.CreateStatus(context.Background(), dto.StatusRequest{Name: "On Hold", SLADays: intPtr(4)})
	require.NoError(t, err)
	statuses, err := svc.ListActiveStatuses(context.Background())
	require.NoError(t, err)
	assert.Len(t, statuses, 6)
	assert.Equal(t, 2, repo.listCalls)
}

func TestStatusServiceCreateRejectsDuplicateActiveName(t *testing.T) {
	svc := NewStatusService(newStatusRepoStub(catalogFixture()...), nil, 0, "Submitted", "Closed", nil, nil)

	_, err := svc.CreateStatus(context.Background(), dto.StatusRequest{Name: "in progress", SLADays: intPtr(2)})
	requireCode(t, err, appErrors.ErrConflict)

	archived, err := svc.CreateStatus(context.Background(), dto.StatusRequest{Name: "Archived", SLADays: intPtr(0)})
	require.NoError(t, err, "inactive names do not block reuse")
	assert.True(t, archived.IsActive)
}

func TestStatusServiceCreateValidatesPayload(t *testing.T) {
	svc := NewStatusService(newStatusRepoStub(), nil, 0, "Submitted", "Closed", nil, nil)

	_, err := svc.CreateStatus(context.Background(), dto.StatusRequest{Name: "Negative", SLADays: intPtr(-1)})
	requireCode(t, err, appErrors.ErrValidation)
	_, err = svc.CreateStatus(context.Background(), dto.StatusRequest{Name: " ", SLADays: intPtr(1)})
	requireCode(t, err, appErrors.ErrValidation)
	_, err = svc.CreateStatus(context.Background(), dto.StatusRequest{Name: "No SLA"})
	requireCode(t, err, appErrors.ErrValidation)
}

func TestStatusServiceUpdateDeactivates(t *testing.T) {
	repo := newStatusRepoStub(catalogFixture()...)
	svc := NewStatusService(repo, nil, 0, "Submitted", "Closed", nil, nil)

	updated, err := svc.UpdateStatus(context.Background(), statusEscalated, dto.StatusRequest{Name: "Escalated", SLADays: intPtr(1), IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, 1, repo.statuses[statusEscalated].SLADays)

	_, err = svc.UpdateStatus(context.Background(), statusClosed, dto.StatusRequest{Name: "Closed", SLADays: intPtr(0), IsActive: boolPtr(false)})
	requireCode(t, err, appErrors.ErrPreconditionFailed)

	_, err = svc.UpdateStatus(context.Background(), statusSubmitted, dto.StatusRequest{Name: "New", SLADays: intPtr(5)})
	requireCode(t, err, appErrors.ErrPreconditionFailed)

	_, err = svc.UpdateStatus(context.Background(), statusAwaiting, dto.StatusRequest{Name: "In Progress", SLADays: intPtr(3)})
	requireCode(t, err, appErrors.ErrConflict)

	_, err = svc.UpdateStatus(context.Background(), "missing", dto.StatusRequest{Name: "X", SLADays: intPtr(3)})
	requireCode(t, err, appErrors.ErrNotFound)
}

func TestStatusServiceGetStatus(t *testing.T) {
	svc := NewStatusService(newStatusRepoStub(catalogFixture()...), nil, 0, "Submitted", "Closed", nil, nil)

	status, err := svc.GetStatus(context.Background(), statusArchived)
	require.NoError(t, err)
	assert.False(t, status.IsActive)

	_, err = svc.GetStatus(context.Background(), "nope")
	requireCode(t, err, appErrors.ErrNotFound)
}
