package core

// errors.go defines the error taxonomy for the ingestion pipeline.
//
// Callers branch on error kind using errors.Is / errors.As, never on message
// text. Every error carries enough detail to distinguish cause (which field,
// which line, which id). The core itself does not log, retry, or recover;
// that belongs to the transport layer.

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced dataset does not exist.
var ErrNotFound = errors.New("dataset not found")

// EmptyInputError is returned when an upload contains no data rows:
// either the content is empty or only a header row is present.
// The upload is rejected and no store mutation or eviction occurs.
type EmptyInputError struct {
	Reason string
}

func (e *EmptyInputError) Error() string {
	return "empty input: " + e.Reason
}

// ParseError is returned when a cell cannot be parsed as required.
// It carries the CSV line number (1-based, header is line 1), the column
// name, and the offending raw value. Parsing is all-or-nothing: a single
// ParseError rejects the entire upload with no store mutation.
type ParseError struct {
	Line  int
	Field string
	Value string
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: malformed row: %q", e.Line, e.Value)
	}
	return fmt.Sprintf("line %d: invalid %s value %q", e.Line, e.Field, e.Value)
}

// StorageError wraps a failure of the underlying durable storage.
// The operation is not retried here; partial writes are never left visible
// (the store's atomicity guarantee covers this).
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// UserMessage provides user-friendly error information with a stable code
// for support reference.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// MapError translates a pipeline error into a user-facing message.
// Mapping is by error kind, not message text.
//
// Codes:
//
//	FILE005 - empty upload
//	VAL002  - unparsable numeric cell
//	DS001   - dataset not found
//	UPL002  - too many concurrent uploads
//	DB001   - storage failure
//	ERR000  - anything else
func MapError(err error) UserMessage {
	var emptyErr *EmptyInputError
	var parseErr *ParseError
	var storageErr *StorageError

	switch {
	case errors.As(err, &emptyErr):
		return UserMessage{
			Message: "The uploaded file has no data rows.",
			Action:  "Upload a CSV file with at least one row below the header.",
			Code:    "FILE005",
		}
	case errors.As(err, &parseErr):
		return UserMessage{
			Message: fmt.Sprintf("Line %d has an invalid %s value (%q).", parseErr.Line, parseErr.Field, parseErr.Value),
			Action:  "Fix the value and upload the file again. No data was stored.",
			Code:    "VAL002",
		}
	case errors.Is(err, ErrNotFound):
		return UserMessage{
			Message: "The requested dataset does not exist.",
			Action:  "It may have been evicted from the history window. Refresh the dataset list.",
			Code:    "DS001",
		}
	case errors.Is(err, ErrTooManyUploads):
		return UserMessage{
			Message: "Too many uploads are in progress.",
			Action:  "Wait a moment and try again.",
			Code:    "UPL002",
		}
	case errors.As(err, &storageErr):
		return UserMessage{
			Message: "A storage error prevented the operation from completing.",
			Action:  "Try again in a few moments.",
			Code:    "DB001",
		}
	default:
		return UserMessage{
			Message: "An unexpected error occurred.",
			Action:  "Try again or contact support.",
			Code:    "ERR000",
		}
	}
}
