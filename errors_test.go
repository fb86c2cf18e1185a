package twitchauth

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Error_kinds(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind Kind
	}{
		{
			"plain structured error reports its kind",
			NewError(KindTimedOut, "timed out after %s", "5m"),
			KindTimedOut,
		},
		{
			"wrapped structured error reports its kind",
			WrapError(errors.New("connection refused"), KindNetworkError, "exchange failed"),
			KindNetworkError,
		},
		{
			"structured error survives further fmt.Errorf wrapping",
			fmt.Errorf("login failed: %w", NewError(KindCsrfMismatch, "bad state")),
			KindCsrfMismatch,
		},
		{
			"unrelated error has no kind",
			errors.New("something else"),
			Kind(""),
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.wantKind, KindOf(tt.err), tt.name)
	}
}

func Test_Error_Is_matchesByKind(t *testing.T) {
	err := fmt.Errorf("loading token: %w", NewError(KindTokenNotFound, "no token record found for user"))
	assert.True(t, errors.Is(err, ErrTokenNotFound))
	assert.False(t, errors.Is(err, NewError(KindCancelled, "cancelled")))
}

func Test_Error_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := WrapError(cause, KindNetworkError, "refresh failed")
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "network_error")
	assert.Contains(t, err.Error(), "connection refused")
}
