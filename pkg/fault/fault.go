// Package fault defines the error taxonomy shared by every component of the
// coaching core. Each error carries a Kind that maps onto an HTTP status at
// the API boundary; everything without a Kind is treated as Internal and is
// never surfaced verbatim to callers.
package fault

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	// Validation covers empty, oversized, or forbidden-content messages.
	Validation Kind = iota + 1
	// NotFound marks an unknown user or thread on a retrieval-only operation.
	NotFound
	// Unavailable marks a workout store or knowledge index that is
	// temporarily unreachable.
	Unavailable
	// Upstream marks an LLM transport error or turn timeout. The checkpoint
	// is untouched, so the caller may safely resubmit.
	Upstream
	// Overrun means the per-turn tool-call budget was exhausted.
	Overrun
	// Busy means a concurrent turn is already running on the same thread.
	Busy
	// Internal marks programmer errors.
	Internal
)

// String returns the stable wire label for the kind.
func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation_failure"
	case NotFound:
		return "not_found"
	case Unavailable:
		return "unavailable"
	case Upstream:
		return "upstream_failure"
	case Overrun:
		return "agent_overrun"
	case Busy:
		return "busy"
	default:
		return "internal"
	}
}

// Error is a classified error.
type Error struct {
	kind Kind
	msg  string
	err  error
}

// New creates a classified error.
func New(kind Kind, msg string) error {
	return &Error{kind: kind, msg: msg}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error. A nil err returns nil.
func Wrap(kind Kind, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{kind: kind, msg: msg, err: err}
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

// KindOf returns the Kind of err, unwrapping as needed.
// Unclassified errors are Internal.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error to the status code the API boundary reports.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Validation:
		return http.StatusUnprocessableEntity
	case NotFound:
		return http.StatusNotFound
	case Unavailable:
		return http.StatusServiceUnavailable
	case Upstream:
		return http.StatusBadGateway
	case Overrun:
		return http.StatusBadGateway
	case Busy:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-visible message for an error. Internal errors
// are masked.
func Message(err error) string {
	if KindOf(err) == Internal {
		return "internal error"
	}
	return err.Error()
}
