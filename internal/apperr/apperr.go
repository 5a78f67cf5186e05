// Package apperr defines the error-kind taxonomy shared by the device,
// cache, domain, and API layers. Callers test an error's Kind with Is (or
// errors.As to *Error); the API layer maps a Kind to an HTTP status.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies a category of failure, independent of its message.
type Kind int

const (
	// KindUnknownDevice means the device key is not present in the pool.
	KindUnknownDevice Kind = iota
	// KindUnknownUser means a user lookup by uid/user_id found nothing.
	KindUnknownUser
	// KindOffline means a transport-level failure talking to a device:
	// connect refused, timeout, or a protocol-level error.
	KindOffline
	// KindInvalidConfig means the startup configuration is malformed.
	KindInvalidConfig
	// KindAuthFailure means the request's API key was missing or wrong.
	KindAuthFailure
	// KindRemoteWriteFailure means a non-idempotent device write failed
	// (e.g. during best-effort fingerprint restore).
	KindRemoteWriteFailure
	// KindPeripheralFailure means an object-store or HRIS call failed.
	KindPeripheralFailure
)

func (k Kind) String() string {
	switch k {
	case KindUnknownDevice:
		return "unknown_device"
	case KindUnknownUser:
		return "unknown_user"
	case KindOffline:
		return "offline"
	case KindInvalidConfig:
		return "invalid_config"
	case KindAuthFailure:
		return "auth_failure"
	case KindRemoteWriteFailure:
		return "remote_write_failure"
	case KindPeripheralFailure:
		return "peripheral_failure"
	default:
		return "unknown"
	}
}

// Error is an error annotated with a Kind, so callers higher up the stack
// (HTTP handlers, CLI commands) can branch on category without string
// matching.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a *Error with the given kind and message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds a *Error around an underlying cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}
