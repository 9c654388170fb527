package dto

// StatusRequest is the admin payload for creating or updating a catalog entry.
type StatusRequest struct {
	Name     string `json:"name" validate:"required,max=64"`
	SLADays  *int   `json:"sla_days" validate:"required,min=0,max=3650"`
	IsActive *bool  `json:"is_active"`
}
