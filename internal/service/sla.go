package service

import (
	"math"
	"time"

	"github.com/noah-isme/compliance-case-api/internal/models"
)

// DueDate returns the deadline for a case entering status at now, counted in calendar days.
// Statuses without SLA days carry no deadline.
func DueDate(status models.Status, now time.Time) *time.Time {
	if status.SLADays <= 0 {
		return nil
	}
	due := now.AddDate(0, 0, status.SLADays)
	return &due
}

// SLAState reports the whole days left until the case's deadline (negative once overdue) and
// whether it is overdue at now. Closed cases and cases without a deadline report nil and false.
func SLAState(record *models.CaseRecord, now time.Time) (*int, bool) {
	if record == nil || record.IsClosed() || record.DueDate == nil {
		return nil, false
	}
	left := record.DueDate.Sub(now)
	if left < 0 {
		days := int(math.Floor(left.Hours() / 24))
		return &days, true
	}
	days := int(math.Ceil(left.Hours() / 24))
	return &days, false
}

// completedOnTime reports whether a case closing at closedAt met the deadline it was under.
func completedOnTime(dueDate *time.Time, closedAt time.Time) *bool {
	if dueDate == nil {
		return nil
	}
	onTime := !closedAt.After(*dueDate)
	return &onTime
}
