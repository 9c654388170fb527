package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/compliance-case-api/internal/models"
)

// CreateCaseRequest is the public submission payload for a DPR or grievance.
type CreateCaseRequest struct {
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"max=100"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Phone       string `json:"phone" validate:"omitempty,max=32"`
	RequestType string `json:"request_type" validate:"omitempty,oneof=Access Correction Nomination Erasure"`
	Comment     string `json:"comment" validate:"max=4000"`
}

// CreateCaseInput carries a submission together with the context the transport resolved for it.
type CreateCaseInput struct {
	OrganizationID string          `validate:"required"`
	CaseType       models.CaseType `validate:"required,oneof=DPR GRIEVANCE"`
	Request        CreateCaseRequest
	// CreatedByUserID is empty for anonymous public submissions.
	CreatedByUserID string
}

// Normalize trims free-text fields in place.
func (r *CreateCaseRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	r.RequestType = strings.TrimSpace(r.RequestType)
	r.Comment = strings.TrimSpace(r.Comment)
}

// TransitionRequest is the staff payload for changing a case.
type TransitionRequest struct {
	StatusID         *string           `json:"status_id"`
	AssignedToUserID models.OptionalID `json:"assigned_to_user_id" swaggertype:"string"`
	Comment          *string           `json:"comment" validate:"omitempty,max=4000"`
}

// ToChange converts the payload into the domain change.
func (r TransitionRequest) ToChange() models.TransitionChange {
	change := models.TransitionChange{AssignedToUserID: r.AssignedToUserID, Comment: r.Comment}
	if r.StatusID != nil {
		id := strings.TrimSpace(*r.StatusID)
		change.StatusID = &id
	}
	return change
}

// CaseListQuery captures list filters from the query string.
type CaseListQuery struct {
	CaseType   string `form:"case_type" validate:"omitempty,oneof=DPR GRIEVANCE"`
	StatusID   string `form:"status_id"`
	AssignedTo string `form:"assigned_to"`
	OpenOnly   bool   `form:"open_only"`
	Page       int    `form:"page" validate:"omitempty,min=1"`
	PageSize   int    `form:"page_size" validate:"omitempty,min=1,max=100"`
}

// TransitionResponse is returned after a committed transition.
type TransitionResponse struct {
	Case         *models.CaseRecord         `json:"case"`
	History      models.HistoryEntry        `json:"history"`
	Notification *models.NotificationIntent `json:"notification,omitempty"`
	Attempts     int                        `json:"attempts"`
}

// CaseReceipt acknowledges a public submission without echoing the requester's details.
type CaseReceipt struct {
	ID        string          `json:"id"`
	CaseType  models.CaseType `json:"case_type"`
	CreatedAt time.Time       `json:"created_at"`
	DueDate   *time.Time      `json:"due_date,omitempty"`
}

// HistoryExport is a rendered audit-trail document.
type HistoryExport struct {
	Filename    string
	ContentType string
	Body        []byte
}
