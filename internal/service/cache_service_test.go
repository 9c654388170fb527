package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/compliance-case-api/internal/models"
)

type failingCacheRepo struct{}

func (failingCacheRepo) Get(context.Context, string, interface{}) error {
	return errors.New("redis timeout")
}

func (failingCacheRepo) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("redis timeout")
}

func (failingCacheRepo) DeleteByPattern(context.Context, string) error {
	return errors.New("redis timeout")
}

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	repo := &memoryCacheRepo{values: map[string]interface{}{}}
	svc := NewCacheService(repo, nil, 0, nil, false)

	svc.Set(context.Background(), "catalog:statuses:active", []models.Status{{ID: statusSubmitted}}, 0)
	var out []models.Status
	assert.False(t, svc.Get(context.Background(), "catalog:statuses:active", &out))
	assert.Empty(t, repo.values)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	assert.False(t, nilSvc.Get(context.Background(), "k", &out))
	nilSvc.Invalidate(context.Background(), "catalog:*")
}

func TestCacheServiceFailuresReadAsMisses(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(failingCacheRepo{}, metrics, time.Minute, nil, true)

	var out models.Status
	assert.False(t, svc.Get(context.Background(), "catalog:status:x", &out))
	svc.Set(context.Background(), "catalog:status:x", &models.Status{ID: "x"}, 0)
	svc.Invalidate(context.Background(), "catalog:*")
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.cacheHitRatio))
}

func TestMetricsServiceCountsLifecycleEvents(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObserveTransition(TransitionCommitted)
	metrics.ObserveTransition(TransitionCommitted)
	metrics.ObserveTransition(TransitionRejected)
	metrics.ObserveNotification(string(models.NotificationClosed), "dispatched")
	metrics.ObserveCaseCreated(string(models.CaseTypeDPR))

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.transitions.WithLabelValues(TransitionCommitted)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.transitions.WithLabelValues(TransitionRejected)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.notifications.WithLabelValues("CLOSED", "dispatched")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.casesCreated.WithLabelValues("DPR")))

	var nilMetrics *MetricsService
	nilMetrics.ObserveTransition(TransitionFailed)
	nilMetrics.ObserveHTTPRequest("GET", "/cases", 200, time.Millisecond)
}
