package models

import "time"

// Status is a catalog entry a case can be in. SLADays of zero means no deadline.
type Status struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	SLADays   int       `db:"sla_days" json:"sla_days"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
