package models

import "time"

// NotificationKind names the lifecycle event a notification announces.
type NotificationKind string

const (
	NotificationCreated NotificationKind = "CREATED"
	NotificationClosed  NotificationKind = "CLOSED"
)

// NotificationIntent is a request to send a templated message after a case change commits.
type NotificationIntent struct {
	ID             string            `json:"id"`
	CaseID         string            `json:"case_id"`
	OrganizationID string            `json:"organization_id"`
	Kind           NotificationKind  `json:"kind"`
	Template       string            `json:"template"`
	RecipientEmail string            `json:"recipient_email"`
	CC             []string          `json:"cc,omitempty"`
	TemplateData   map[string]string `json:"template_data"`
	CreatedAt      time.Time         `json:"created_at"`
}
