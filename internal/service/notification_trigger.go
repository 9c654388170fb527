package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/compliance-case-api/internal/models"
)

const (
	creationTemplate = "Request Creation Notification"
	closureTemplate  = "Request Closure Notification"
)

// NotificationKindFor decides which lifecycle notification a committed change announces.
// Only opening a case and entering the terminal status notify; closing is reachable once per
// case because closedAt is write-once.
func NotificationKindFor(created bool, delta *ValidatedTransition) (models.NotificationKind, bool) {
	if created {
		return models.NotificationCreated, true
	}
	if delta != nil && delta.Closing {
		return models.NotificationClosed, true
	}
	return "", false
}

// NotificationIntentFor builds the intent for kind about record. The requester is the recipient;
// closure notices copy the assigned staff member when their address is known.
func NotificationIntentFor(kind models.NotificationKind, record *models.CaseRecord, org *models.Organization, assigneeEmail string, at time.Time) *models.NotificationIntent {
	data := map[string]string{
		"requestId":   record.ID,
		"requestType": requestTypeDisplay(record),
		"name":        record.Requester.FullName(),
	}
	if org != nil {
		data["organizationName"] = org.BusinessName
	}

	intent := &models.NotificationIntent{
		ID:             uuid.NewString(),
		CaseID:         record.ID,
		OrganizationID: record.OrganizationID,
		Kind:           kind,
		RecipientEmail: record.Requester.Email,
		TemplateData:   data,
		CreatedAt:      at,
	}
	switch kind {
	case models.NotificationCreated:
		intent.Template = creationTemplate
	case models.NotificationClosed:
		intent.Template = closureTemplate
		if record.ClosureComment != nil {
			data["closureComment"] = *record.ClosureComment
		}
		if assigneeEmail != "" {
			intent.CC = []string{assigneeEmail}
		}
	}
	return intent
}

func requestTypeDisplay(record *models.CaseRecord) string {
	if record.CaseType == models.CaseTypeGrievance {
		return "Grievance"
	}
	if record.RequestType == "" {
		return "Data Principal Request"
	}
	return "Data Principal Request - " + string(record.RequestType)
}
