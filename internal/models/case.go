package models

import "time"

// CaseType distinguishes data-principal requests from grievances.
type CaseType string

const (
	CaseTypeDPR       CaseType = "DPR"
	CaseTypeGrievance CaseType = "GRIEVANCE"
)

// RequestType is the kind of data-principal request. Empty for grievances.
type RequestType string

const (
	RequestTypeAccess     RequestType = "Access"
	RequestTypeCorrection RequestType = "Correction"
	RequestTypeNomination RequestType = "Nomination"
	RequestTypeErasure    RequestType = "Erasure"
)

// Requester identifies the person who raised the case.
type Requester struct {
	FirstName string `db:"requester_first_name" json:"first_name"`
	LastName  string `db:"requester_last_name" json:"last_name"`
	Email     string `db:"requester_email" json:"email"`
	Phone     string `db:"requester_phone" json:"phone,omitempty"`
}

// FullName joins the requester's names.
func (r Requester) FullName() string {
	if r.LastName == "" {
		return r.FirstName
	}
	return r.FirstName + " " + r.LastName
}

// CaseRecord is a tracked DPR or grievance owned by exactly one organization.
type CaseRecord struct {
	ID               string      `db:"id" json:"id"`
	OrganizationID   string      `db:"organization_id" json:"organization_id"`
	CaseType         CaseType    `db:"case_type" json:"case_type"`
	RequestType      RequestType `db:"request_type" json:"request_type,omitempty"`
	Requester        `json:"requester"`
	RequestComment   string     `db:"request_comment" json:"request_comment"`
	StatusID         string     `db:"status_id" json:"status_id"`
	AssignedToUserID *string    `db:"assigned_to_user_id" json:"assigned_to_user_id"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	LastUpdatedAt    time.Time  `db:"last_updated_at" json:"last_updated_at"`
	DueDate          *time.Time `db:"due_date" json:"due_date"`
	ClosedAt         *time.Time `db:"closed_at" json:"closed_at"`
	ClosureComment   *string    `db:"closure_comment" json:"closure_comment,omitempty"`
	CompletedOnTime  *bool      `db:"completed_on_time" json:"completed_on_time,omitempty"`
}

// IsClosed reports whether the case has reached the terminal status.
func (c *CaseRecord) IsClosed() bool {
	return c.ClosedAt != nil
}

// CaseView decorates a case with catalog and deadline figures computed at read time.
type CaseView struct {
	CaseRecord
	StatusName    string `json:"status_name"`
	DaysRemaining *int   `json:"days_remaining,omitempty"`
	Overdue       bool   `json:"overdue"`
}

// CaseFilter captures filtering criteria for listing cases within one organization.
type CaseFilter struct {
	OrganizationID   string
	CaseType         CaseType
	StatusID         string
	AssignedToUserID string
	OpenOnly         bool
	Page             int
	PageSize         int
}
