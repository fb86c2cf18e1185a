package twitchauth

import (
	"errors"
	"fmt"
)

// Kind categorizes the ways a login attempt or token operation can fail. Every
// failure surfaced to the UI carries exactly one Kind, so the UI can decide how to
// present it without parsing message strings.
type Kind string

const (
	// KindAlreadyInProgress means a login for the same role is still active.
	KindAlreadyInProgress Kind = "already_in_progress"
	// KindCsrfMismatch means the redirect carried an unknown or already-consumed
	// state token.
	KindCsrfMismatch Kind = "csrf_mismatch"
	// KindProviderError means the redirect carried an error from Twitch.
	KindProviderError Kind = "provider_error"
	// KindNoCodeReceived means the redirect carried neither a code nor an error.
	KindNoCodeReceived Kind = "no_code_received"
	// KindExchangeFailed means a Twitch OAuth endpoint rejected the request: a
	// code exchange, a token refresh, a validation, or a revocation.
	KindExchangeFailed Kind = "exchange_failed"
	// KindTokenNotOurs means validation revealed a token issued to a different
	// client id.
	KindTokenNotOurs Kind = "token_not_ours"
	// KindNetworkError means an outbound call failed at the transport level.
	KindNetworkError Kind = "network_error"
	// KindPortConflict means the role's fixed callback port could not be bound,
	// even after attempting a forced rebind.
	KindPortConflict Kind = "port_conflict"
	// KindTimedOut means no redirect arrived within the flow timeout.
	KindTimedOut Kind = "timed_out"
	// KindCancelled means the login was cancelled before completing.
	KindCancelled Kind = "cancelled"
	// KindTokenNotFound means no persisted record exists for the user.
	KindTokenNotFound Kind = "token_not_found"
	// KindRoleUndetermined means a stored token could not be attributed to either
	// role.
	KindRoleUndetermined Kind = "role_undetermined"
)

// Error is the structured error type returned by this module. It always carries a
// Kind; Cause, when set, preserves the underlying error for errors.Is/As.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is makes two Errors match under errors.Is when they share a Kind, so sentinel
// values like ErrTokenNotFound compare by category rather than by message.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// NewError builds an Error with no underlying cause.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds an Error that preserves cause for unwrapping.
func WrapError(cause error, kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the Kind from any error produced by this module; unknown errors
// report an empty Kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
