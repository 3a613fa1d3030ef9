package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotConfigured indicates an operation needs a configured session.
	ErrNotConfigured = errors.New("sdk not configured")

	// Platform Errors.

	// ErrPlatformUnavailable indicates the platform health store is not available
	// on this device. Fatal to the requested operation, not to the process.
	ErrPlatformUnavailable = errors.New("health platform unavailable")

	// ErrAuthorizationDenied indicates the user denied a permission request.
	ErrAuthorizationDenied = errors.New("authorization denied")

	// Storage Errors.

	// ErrStorageCorrupted indicates a persisted blob could not be decoded.
	// Callers treat it as absence.
	ErrStorageCorrupted = errors.New("storage corrupted")

	// Authentication Errors.

	// ErrAuth indicates a credential exchange or refresh was rejected.
	ErrAuth = errors.New("authentication failed")

	// ErrReauthenticationRequired indicates the session has no usable credential
	// until the host supplies a fresh sign-in token.
	ErrReauthenticationRequired = errors.New("reauthentication required")

	// ErrAuthModeMismatch indicates an attempt to switch auth mode without clean-up.
	ErrAuthModeMismatch = errors.New("auth mode mismatch")

	// ErrUserMismatch indicates a sign-in token belongs to a different user
	// than the active session.
	ErrUserMismatch = errors.New("signed in with a different user")

	// Network Errors.

	// ErrNetwork indicates a push or link call failed.
	ErrNetwork = errors.New("network error")
)

// AuthorizationError carries the reason a permission request failed.
type AuthorizationError struct {
	Reason string
}

// Error implements the error interface.
func (e *AuthorizationError) Error() string {
	return "authorization failed: " + e.Reason
}

// Unwrap makes AuthorizationError match ErrAuthorizationDenied.
func (e *AuthorizationError) Unwrap() error {
	return ErrAuthorizationDenied
}

// HTTPError is returned by the remote API client for non-2xx responses.
type HTTPError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http status %d", e.StatusCode)
	}
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

// Unwrap makes HTTPError match ErrNetwork.
func (e *HTTPError) Unwrap() error {
	return ErrNetwork
}
