package faults

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the caller. Every error that crosses a
// service boundary carries exactly one Kind.
type Kind int

const (
	// KindNotFound means the referenced entity does not exist or is not
	// visible to the actor.
	KindNotFound Kind = iota
	// KindForbidden means the actor lacks the required capability.
	KindForbidden
	// KindOutOfRange means a requested ordinal position is outside the
	// valid window for the scope.
	KindOutOfRange
	// KindConflict means a structural rule was violated (non-empty column
	// delete, last admin demotion, cross-project move).
	KindConflict
	// KindTransient means the persistence layer failed mid-operation; the
	// operation was rolled back and may be retried.
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindOutOfRange:
		return "out_of_range"
	case KindConflict:
		return "conflict"
	case KindTransient:
		return "transient"
	}
	return "unknown"
}

// Error is a kinded domain error. It wraps an optional cause so callers can
// still reach driver errors with errors.As.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

// Kind returns the classification of the error.
func (e *Error) Kind() Kind { return e.kind }

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return newError(KindNotFound, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return newError(KindForbidden, format, args...)
}

func OutOfRange(format string, args ...interface{}) *Error {
	return newError(KindOutOfRange, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return newError(KindConflict, format, args...)
}

// Transient wraps a storage error that rolled the operation back.
func Transient(err error, format string, args ...interface{}) *Error {
	e := newError(KindTransient, format, args...)
	e.err = err
	return e
}

func is(err error, kind Kind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.kind == kind
	}
	return false
}

func IsNotFound(err error) bool   { return is(err, KindNotFound) }
func IsForbidden(err error) bool  { return is(err, KindForbidden) }
func IsOutOfRange(err error) bool { return is(err, KindOutOfRange) }
func IsConflict(err error) bool   { return is(err, KindConflict) }
func IsTransient(err error) bool  { return is(err, KindTransient) }

// KindOf extracts the Kind of err, or KindTransient when err is not a
// faults error (unknown storage failures are treated as retryable).
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.kind
	}
	return KindTransient
}
