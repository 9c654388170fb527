package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCloneMatchesTemplate(t *testing.T) {
	err := Clone(ErrAlreadyClosed, "case 42 is closed")
	require.True(t, errors.Is(err, ErrAlreadyClosed))
	require.False(t, errors.Is(err, ErrNoChange))
	require.Equal(t, "case is closed", ErrAlreadyClosed.Message)
}

func TestIsRejection(t *testing.T) {
	require.True(t, IsRejection(Clone(ErrNoChange, "")))
	require.True(t, IsRejection(fmt.Errorf("wrapped: %w", ErrInvalidAssignee)))
	require.False(t, IsRejection(ErrTransient))
	require.False(t, IsRejection(Internal(errors.New("boom"), "db down")))
	require.False(t, IsRejection(errors.New("plain")))
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	cause := errors.New("connection reset")
	appErr := FromError(cause)
	require.Equal(t, ErrInternal.Code, appErr.Code)
	require.Equal(t, http.StatusInternalServerError, appErr.Status)
	require.ErrorIs(t, appErr, cause)
	require.Nil(t, FromError(nil))
}
