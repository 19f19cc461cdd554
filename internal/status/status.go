// Package status defines the error taxonomy surfaced by the lineage store.
//
// Every failure crossing a package boundary carries one of the codes below.
// The store never retries internally; callers decide whether to roll back
// the ambient transaction and try again.
package status

import (
	"errors"
	"fmt"
)

// Code categorizes a store failure.
type Code string

const (
	// InvalidArgument indicates a malformed request: a required field is
	// missing, a relationship endpoint does not resolve, an unknown property
	// is referenced, or a property value kind mismatches the type schema.
	InvalidArgument Code = "INVALID_ARGUMENT"

	// NotFound indicates a kind-scoped type lookup miss, or an unresolved
	// type id on node creation.
	NotFound Code = "NOT_FOUND"

	// AlreadyExists indicates a duplicate context (type_id, name), a
	// duplicate relationship pair, or a conflicting property kind on a
	// type update.
	AlreadyExists Code = "ALREADY_EXISTS"

	// Aborted indicates a corrupted store: some schema markers are present
	// but required tables are missing.
	Aborted Code = "ABORTED"

	// FailedPrecondition indicates a schema version newer than the library,
	// or an older one without migration permission.
	FailedPrecondition Code = "FAILED_PRECONDITION"

	// Internal indicates an executor failure or a broken invariant, such as
	// a migration verification query returning a non-boolean result.
	Internal Code = "INTERNAL"
)

// Error is a store failure with a taxonomy code.
type Error struct {
	Code    Code
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf creates an Error with the given code and formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// InvalidArgumentf creates an InvalidArgument error.
func InvalidArgumentf(format string, args ...any) *Error {
	return Errorf(InvalidArgument, format, args...)
}

// NotFoundf creates a NotFound error.
func NotFoundf(format string, args ...any) *Error {
	return Errorf(NotFound, format, args...)
}

// AlreadyExistsf creates an AlreadyExists error.
func AlreadyExistsf(format string, args ...any) *Error {
	return Errorf(AlreadyExists, format, args...)
}

// Abortedf creates an Aborted error.
func Abortedf(format string, args ...any) *Error {
	return Errorf(Aborted, format, args...)
}

// FailedPreconditionf creates a FailedPrecondition error.
func FailedPreconditionf(format string, args ...any) *Error {
	return Errorf(FailedPrecondition, format, args...)
}

// Internalf creates an Internal error.
func Internalf(format string, args ...any) *Error {
	return Errorf(Internal, format, args...)
}

// CodeOf returns the taxonomy code of err, unwrapping as needed.
// Errors without a code classify as Internal; nil returns "".
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return Internal
}

// IsNotFound reports whether err carries the NotFound code.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	return CodeOf(err) == NotFound
}

// IsAlreadyExists reports whether err carries the AlreadyExists code.
func IsAlreadyExists(err error) bool {
	return CodeOf(err) == AlreadyExists
}

// IsInvalidArgument reports whether err carries the InvalidArgument code.
func IsInvalidArgument(err error) bool {
	return CodeOf(err) == InvalidArgument
}
