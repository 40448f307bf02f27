package core

import (
	"errors"

	"github.com/vovakirdan/wireroom-server/internal/store"
)

// Error codes for domain errors.
const (
	ErrCodeNotFound         = "not_found"
	ErrCodePermissionDenied = "permission_denied"
	ErrCodeValidation       = "validation"
	ErrCodeStorage          = "storage"
	ErrCodeNotInRoom        = "not_in_room"
	ErrCodeBadRequest       = "bad_request"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeUnauthorized     = "unauthorized"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrValidation       = errors.New("validation failed")
	ErrNotInRoom        = errors.New("not in room")
)

// errNoChange aborts a mutation that would not change anything.
var errNoChange = errors.New("no change")

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

// Is lets errors.Is match a CoreError against the package sentinels.
func (e *CoreError) Is(target error) bool {
	switch target {
	case ErrPermissionDenied:
		return e.Code == ErrCodePermissionDenied
	case ErrValidation:
		return e.Code == ErrCodeValidation
	case ErrNotInRoom:
		return e.Code == ErrCodeNotInRoom
	case store.ErrNotFound:
		return e.Code == ErrCodeNotFound
	}
	return false
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

func denied(msg string) *CoreError {
	return coreError(ErrCodePermissionDenied, msg)
}

func invalid(msg string) *CoreError {
	return coreError(ErrCodeValidation, msg)
}

func notFound(msg string) *CoreError {
	return coreError(ErrCodeNotFound, msg)
}

// toCoreError classifies any error returned by a component.
func toCoreError(err error) *CoreError {
	var ce *CoreError
	switch {
	case errors.As(err, &ce):
		return ce
	case errors.Is(err, store.ErrNotFound):
		return coreError(ErrCodeNotFound, "room not found")
	case errors.Is(err, ErrNotInRoom):
		return coreError(ErrCodeNotInRoom, "join a room first")
	default:
		return coreError(ErrCodeStorage, "storage unavailable")
	}
}
