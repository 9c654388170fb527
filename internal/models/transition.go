package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// OptionalID is a nullable identifier that also remembers whether it was supplied at all.
// Set with a nil Value means an explicit null (clear the field).
type OptionalID struct {
	Set   bool
	Value *string
}

// SomeID returns an OptionalID holding id.
func SomeID(id string) OptionalID {
	return OptionalID{Set: true, Value: &id}
}

// NullID returns an OptionalID that explicitly clears the field.
func NullID() OptionalID {
	return OptionalID{Set: true}
}

// UnmarshalJSON records presence and treats null or blank strings as an explicit clear.
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.Value = nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if trimmed := strings.TrimSpace(raw); trimmed != "" {
		o.Value = &trimmed
	}
	return nil
}

// MarshalJSON encodes the value or null.
func (o OptionalID) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// TransitionChange carries the fields a caller wants to change on a case. Nil and unset
// fields are left untouched.
type TransitionChange struct {
	StatusID         *string    `json:"status_id,omitempty"`
	AssignedToUserID OptionalID `json:"assigned_to_user_id"`
	Comment          *string    `json:"comment,omitempty" validate:"omitempty,max=4000"`
}

// CommittedTransition is the outcome of a transition that reached the database.
type CommittedTransition struct {
	Case         *CaseRecord         `json:"case"`
	History      HistoryEntry        `json:"history"`
	Notification *NotificationIntent `json:"notification,omitempty"`
	Attempts     int                 `json:"-"`
}
