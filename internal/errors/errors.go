package errors

import "fmt"

// ErrorCode represents a tweakstash error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrFileNotFound     ErrorCode = "FILE_NOT_FOUND"    // 404
	ErrConflict         ErrorCode = "CONFLICT"          // 409
	ErrCorruptEntry     ErrorCode = "CORRUPT_ENTRY"     // 422
	ErrCancelled        ErrorCode = "CANCELLED"         // 499
	ErrPersistence      ErrorCode = "PERSISTENCE"       // 500
	ErrInternal         ErrorCode = "INTERNAL"          // 500
	ErrCounterIncrement ErrorCode = "COUNTER_INCREMENT" // 502
)

// StashError represents a structured error with code, status, and details.
type StashError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *StashError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *StashError {
	return &StashError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a tweak or history entry cannot be found.
func NewNotFound(identifier string) *StashError {
	return &StashError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing file path.
func NewFileNotFound(path string) *StashError {
	return &StashError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewConflict creates a 409 error for id collisions during catalog import.
func NewConflict(msg string) *StashError {
	return &StashError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewCorruptEntry creates a 422 error for a history record whose stored
// selection fails to deserialize. Isolated per record: a batch fetch reports
// the corrupt entry and keeps the remaining valid entries.
func NewCorruptEntry(rawID string, cause error) *StashError {
	msg := "undecodable selection"
	if cause != nil {
		msg = cause.Error()
	}
	return &StashError{
		Code:    ErrCorruptEntry,
		Status:  422,
		Message: fmt.Sprintf("history entry %s: %s", rawID, msg),
		Details: map[string]any{"id": rawID},
	}
}

// NewCancelled creates a 499 error for a context-cancelled operation.
func NewCancelled(operation string) *StashError {
	return &StashError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", operation),
	}
}

// NewPersistence creates a 500 error for a backing-store failure: the store
// is unreachable or rejected the read/write. Never retried silently; the
// caller decides on retry or backoff.
func NewPersistence(err error) *StashError {
	msg := "backing store failure"
	if err != nil {
		msg = err.Error()
	}
	return &StashError{
		Code:    ErrPersistence,
		Status:  500,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *StashError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &StashError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// NewCounterIncrement creates a 502 error for a single tweak's failed counter
// increment. Isolated per id; sibling increments proceed regardless.
func NewCounterIncrement(tweakID string, cause error) *StashError {
	msg := "increment failed"
	if cause != nil {
		msg = cause.Error()
	}
	return &StashError{
		Code:    ErrCounterIncrement,
		Status:  502,
		Message: fmt.Sprintf("tweak %s: %s", tweakID, msg),
		Details: map[string]any{"tweak_id": tweakID},
	}
}

// Is checks if an error is a StashError with the given code.
func Is(err error, code ErrorCode) bool {
	if sErr, ok := err.(*StashError); ok {
		return sErr.Code == code
	}
	return false
}
