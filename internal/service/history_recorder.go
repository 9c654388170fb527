package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/compliance-case-api/internal/models"
	appErrors "github.com/noah-isme/compliance-case-api/pkg/errors"
)

// ReplayedState is the (status, assignee) pair reconstructed from a case's history.
type ReplayedState struct {
	StatusID         string
	AssignedToUserID *string
	Entries          int
}

// RecordCreation builds the synthetic entry written when a case is opened.
func RecordCreation(record *models.CaseRecord, actorID, comment string, at time.Time) models.HistoryEntry {
	return models.HistoryEntry{
		ID:                  uuid.NewString(),
		CaseID:              record.ID,
		ChangedByUserID:     actorID,
		NewStatusID:         record.StatusID,
		NewAssignedToUserID: record.AssignedToUserID,
		Comments:            comment,
		ChangeDate:          at,
	}
}

// RecordTransition builds the entry for an accepted transition applied to before. Entries always
// carry both old and new values so the delta can be derived without neighbouring rows.
func RecordTransition(before *models.CaseRecord, actorID string, delta *ValidatedTransition, at time.Time) (models.HistoryEntry, error) {
	if delta == nil || (!delta.StatusChanged && !delta.AssigneeChanged && delta.Comment == "") {
		return models.HistoryEntry{}, appErrors.Clone(appErrors.ErrNoChange, "history entry has no change")
	}

	oldStatus := before.StatusID
	entry := models.HistoryEntry{
		ID:                  uuid.NewString(),
		CaseID:              before.ID,
		ChangedByUserID:     actorID,
		OldStatusID:         &oldStatus,
		NewStatusID:         before.StatusID,
		OldAssignedToUserID: before.AssignedToUserID,
		NewAssignedToUserID: before.AssignedToUserID,
		Comments:            delta.Comment,
		ChangeDate:          at,
	}
	if delta.StatusChanged {
		entry.NewStatusID = delta.NewStatus.ID
	}
	if delta.AssigneeChanged {
		entry.NewAssignedToUserID = delta.NewAssignee
	}
	return entry, nil
}

// ReplayHistory folds a case's entries in change order and returns the final state. It fails when
// the sequence does not start with a creation entry or an entry's old values disagree with the
// state its predecessors produced.
func ReplayHistory(entries []models.HistoryEntry) (ReplayedState, error) {
	if len(entries) == 0 {
		return ReplayedState{}, fmt.Errorf("replay history: no entries")
	}
	ordered := make([]models.HistoryEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].ChangeDate.Equal(ordered[j].ChangeDate) {
			return ordered[i].ChangeDate.Before(ordered[j].ChangeDate)
		}
		return ordered[i].Seq < ordered[j].Seq
	})

	if !ordered[0].IsCreation() {
		return ReplayedState{}, fmt.Errorf("replay history: first entry %s is not a creation entry", ordered[0].ID)
	}
	state := ReplayedState{StatusID: ordered[0].NewStatusID, AssignedToUserID: ordered[0].NewAssignedToUserID, Entries: 1}
	for _, entry := range ordered[1:] {
		if entry.IsCreation() {
			return ReplayedState{}, fmt.Errorf("replay history: duplicate creation entry %s", entry.ID)
		}
		if *entry.OldStatusID != state.StatusID || !sameID(entry.OldAssignedToUserID, state.AssignedToUserID) {
			return ReplayedState{}, fmt.Errorf("replay history: entry %s does not follow its predecessor", entry.ID)
		}
		state.StatusID = entry.NewStatusID
		state.AssignedToUserID = entry.NewAssignedToUserID
		state.Entries++
	}
	return state, nil
}
