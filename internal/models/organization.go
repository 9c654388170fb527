package models

import "time"

// Organization is a tenant owning cases, staff and a public request page.
type Organization struct {
	ID           string    `db:"id" json:"id"`
	BusinessName string    `db:"business_name" json:"business_name"`
	ContactEmail string    `db:"contact_email" json:"contact_email"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// RequestLink is a signed public link a requester uses to open a case with an organization.
type RequestLink struct {
	OrganizationID string    `json:"organization_id"`
	Token          string    `json:"token"`
	URL            string    `json:"url"`
	ExpiresAt      time.Time `json:"expires_at"`
}
