package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/compliance-case-api/internal/models"
)

func TestDueDateAddsCalendarDays(t *testing.T) {
	now := time.Date(2026, 2, 26, 17, 30, 0, 0, time.UTC)
	for days := 1; days <= 45; days++ {
		due := DueDate(models.Status{SLADays: days}, now)
		require.NotNil(t, due)
		assert.Equal(t, now.AddDate(0, 0, days), *due)
		assert.Equal(t, now.Hour(), due.Hour())
	}

	assert.Nil(t, DueDate(models.Status{SLADays: 0}, now))
	assert.Nil(t, DueDate(models.Status{SLADays: -3}, now))
}

func TestSLAState(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	due := func(d time.Duration) *models.CaseRecord {
		at := now.Add(d)
		return &models.CaseRecord{DueDate: &at}
	}

	cases := []struct {
		name    string
		record  *models.CaseRecord
		days    int
		overdue bool
	}{
		{"two days left", due(48 * time.Hour), 2, false},
		{"partial day rounds up", due(30 * time.Hour), 2, false},
		{"due now", due(0), 0, false},
		{"an hour late", due(-time.Hour), -1, true},
		{"a day and an hour late", due(-25 * time.Hour), -2, true},
		{"three days late", due(-72 * time.Hour), -3, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			days, overdue := SLAState(tc.record, now)
			require.NotNil(t, days)
			assert.Equal(t, tc.days, *days)
			assert.Equal(t, tc.overdue, overdue)
		})
	}

	days, overdue := SLAState(&models.CaseRecord{}, now)
	assert.Nil(t, days)
	assert.False(t, overdue)

	closed := due(-72 * time.Hour)
	closedAt := now
	closed.ClosedAt = &closedAt
	days, overdue = SLAState(closed, now)
	assert.Nil(t, days)
	assert.False(t, overdue)
}

func TestCompletedOnTime(t *testing.T) {
	due := time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC)

	assert.Nil(t, completedOnTime(nil, due))
	assert.True(t, *completedOnTime(&due, due))
	assert.True(t, *completedOnTime(&due, due.Add(-time.Minute)))
	assert.False(t, *completedOnTime(&due, due.Add(time.Microsecond)))
}
