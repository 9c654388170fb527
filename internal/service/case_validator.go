package service

import (
	"strings"

	"github.com/noah-isme/compliance-case-api/internal/models"
	appErrors "github.com/noah-isme/compliance-case-api/pkg/errors"
)

// TransitionFacts are the catalog and directory lookups a transition is judged against.
// The caller resolves them so validation stays free of I/O.
type TransitionFacts struct {
	// TargetStatus is the catalog entry for the requested status, nil when it does not exist.
	TargetStatus *models.Status
	// TerminalStatusID identifies the status that closes a case.
	TerminalStatusID string
	// AssigneeInOrg reports whether the requested assignee belongs to the case's organization.
	AssigneeInOrg bool
}

// ValidatedTransition describes the effective delta of an accepted change.
type ValidatedTransition struct {
	StatusChanged   bool
	NewStatus       *models.Status
	AssigneeChanged bool
	NewAssignee     *string
	Comment         string
	Closing         bool
}

// StatusChangeRequested reports whether change names a status other than the case's current one.
func StatusChangeRequested(record *models.CaseRecord, change models.TransitionChange) bool {
	return change.StatusID != nil && *change.StatusID != record.StatusID
}

// AssigneeChangeRequested reports whether change names an assignee other than the current one.
func AssigneeChangeRequested(record *models.CaseRecord, change models.TransitionChange) bool {
	return change.AssignedToUserID.Set && !sameID(change.AssignedToUserID.Value, record.AssignedToUserID)
}

// ValidateTransition decides whether actor may apply change to record. Rejections are returned as
// *errors.Error values with rejection codes; the record is never modified.
func ValidateTransition(actor models.Actor, record *models.CaseRecord, change models.TransitionChange, facts TransitionFacts) (*ValidatedTransition, error) {
	if record == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "case not found")
	}
	if actor.OrganizationID == "" || actor.OrganizationID != record.OrganizationID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "case belongs to another organization")
	}
	if record.IsClosed() {
		return nil, appErrors.Clone(appErrors.ErrAlreadyClosed, "")
	}

	result := &ValidatedTransition{}
	if change.Comment != nil {
		result.Comment = strings.TrimSpace(*change.Comment)
	}

	if AssigneeChangeRequested(record, change) {
		if !actor.IsAdmin() {
			return nil, appErrors.Clone(appErrors.ErrInsufficientRole, "")
		}
		result.AssigneeChanged = true
		result.NewAssignee = change.AssignedToUserID.Value
	}

	if StatusChangeRequested(record, change) {
		target := facts.TargetStatus
		if target == nil || !target.IsActive {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "status not found")
		}
		result.StatusChanged = true
		result.NewStatus = target
		result.Closing = target.ID == facts.TerminalStatusID
	}

	if result.Closing && result.Comment == "" {
		return nil, appErrors.Clone(appErrors.ErrClosureCommentRequired, "")
	}
	if result.AssigneeChanged && result.NewAssignee != nil && !facts.AssigneeInOrg {
		return nil, appErrors.Clone(appErrors.ErrInvalidAssignee, "")
	}
	if !result.StatusChanged && !result.AssigneeChanged && result.Comment == "" {
		return nil, appErrors.Clone(appErrors.ErrNoChange, "")
	}
	return result, nil
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
