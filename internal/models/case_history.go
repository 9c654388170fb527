package models

import "time"

// HistoryEntry is an immutable audit row written for every committed case change.
// OldStatusID is nil only on the entry written at creation.
type HistoryEntry struct {
	ID                  string    `db:"id" json:"id"`
	Seq                 int64     `db:"seq" json:"seq"`
	CaseID              string    `db:"case_id" json:"case_id"`
	ChangedByUserID     string    `db:"changed_by_user_id" json:"changed_by_user_id"`
	OldStatusID         *string   `db:"old_status_id" json:"old_status_id"`
	NewStatusID         string    `db:"new_status_id" json:"new_status_id"`
	OldAssignedToUserID *string   `db:"old_assigned_to_user_id" json:"old_assigned_to_user_id"`
	NewAssignedToUserID *string   `db:"new_assigned_to_user_id" json:"new_assigned_to_user_id"`
	Comments            string    `db:"comments" json:"comments"`
	ChangeDate          time.Time `db:"change_date" json:"change_date"`
}

// IsCreation reports whether the entry records the case being opened.
func (h HistoryEntry) IsCreation() bool {
	return h.OldStatusID == nil
}
