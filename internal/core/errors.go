package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies a tracking failure into a closed taxonomy so callers
// can render user-facing messages without inspecting raw status codes.
type ErrorKind string

const (
	KindPrivateProfile   ErrorKind = "private_profile"
	KindAccountNotFound  ErrorKind = "account_not_found"
	KindRateLimited      ErrorKind = "rate_limited"
	KindUnexpectedStatus ErrorKind = "unexpected_status"
	KindTransportFailure ErrorKind = "transport_failure"
	KindMalformedPayload ErrorKind = "malformed_payload"
	KindStorageRead      ErrorKind = "storage_read"
	KindStorageWrite     ErrorKind = "storage_write"
)

// RemoteError is a classified failure from the character API or the
// surrounding storage, carrying enough context to describe itself.
type RemoteError struct {
	Kind       ErrorKind
	Account    string
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	msg := e.Message()
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Message returns a human-readable classification of the failure.
func (e *RemoteError) Message() string {
	switch e.Kind {
	case KindPrivateProfile:
		return fmt.Sprintf("profile for account %q is private", e.Account)
	case KindAccountNotFound:
		return fmt.Sprintf("account %q not found", e.Account)
	case KindRateLimited:
		if e.RetryAfter > 0 {
			return fmt.Sprintf("temporarily rate-limited, retry in %s", e.RetryAfter)
		}
		return "temporarily rate-limited"
	case KindUnexpectedStatus:
		return fmt.Sprintf("unexpected status %d for account %q", e.StatusCode, e.Account)
	case KindTransportFailure:
		return fmt.Sprintf("request for account %q failed", e.Account)
	case KindMalformedPayload:
		return fmt.Sprintf("malformed character payload for account %q", e.Account)
	case KindStorageRead:
		return "snapshot store read failed"
	case KindStorageWrite:
		return "snapshot store write failed"
	default:
		return fmt.Sprintf("tracking failed for account %q", e.Account)
	}
}

// NewRemoteError builds a classified error for an account.
func NewRemoteError(kind ErrorKind, account string, err error) *RemoteError {
	return &RemoteError{Kind: kind, Account: account, Err: err}
}

// KindOf extracts the taxonomy kind from an error chain, or "" when the
// error is not a classified RemoteError.
func KindOf(err error) ErrorKind {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Kind
	}
	return ""
}
