package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code, so clones compare equal to their template.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Case lifecycle rejections. These are expected outcomes of a transition request and are
// reported to the caller as-is; they never indicate an infrastructure fault.
var (
	ErrAlreadyClosed          = New("ALREADY_CLOSED", http.StatusConflict, "case is closed")
	ErrInsufficientRole       = New("INSUFFICIENT_ROLE", http.StatusForbidden, "role may not change the assignee")
	ErrInvalidAssignee        = New("INVALID_ASSIGNEE", http.StatusUnprocessableEntity, "assignee does not belong to the organization")
	ErrClosureCommentRequired = New("CLOSURE_COMMENT_REQUIRED", http.StatusUnprocessableEntity, "closing a case requires a comment")
	ErrNoChange               = New("NO_CHANGE", http.StatusBadRequest, "no changes to make")
)

// ErrTransient signals a concurrent-write conflict that survived the retry budget.
var ErrTransient = New("TRANSIENT", http.StatusServiceUnavailable, "concurrent modification, try again")

var rejectionCodes = map[string]struct{}{
	ErrForbidden.Code:              {},
	ErrNotFound.Code:               {},
	ErrAlreadyClosed.Code:          {},
	ErrInsufficientRole.Code:       {},
	ErrInvalidAssignee.Code:        {},
	ErrClosureCommentRequired.Code: {},
	ErrNoChange.Code:               {},
	ErrValidation.Code:             {},
}

// IsRejection reports whether err is a validation outcome rather than a fault.
func IsRejection(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	_, ok := rejectionCodes[e.Code]
	return ok
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Internal wraps an infrastructure failure with a message.
func Internal(err error, message string) *Error {
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, message)
}
