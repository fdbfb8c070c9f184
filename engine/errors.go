package engine

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure
type Kind string

// Error kinds surfaced to callers
const (
	KindValidation Kind = "ValidationError"
	KindNotFound   Kind = "NotFoundError"
	KindConflict   Kind = "ConflictError"
	KindCapacity   Kind = "CapacityError"
)

// Machine readable codes carried by conflict and capacity errors
const (
	CodeReportLocked      = "REPORT_LOCKED"
	CodeSealed            = "SEALED"
	CodeCallClosed        = "CALL_CLOSED"
	CodeCallAssigned      = "CALL_ASSIGNED"
	CodeCallUnassigned    = "CALL_UNASSIGNED"
	CodeRequestDecided    = "REQUEST_DECIDED"
	CodeDuplicateCallsign = "DUPLICATE_CALLSIGN"
	CodeBoloClosed        = "BOLO_CLOSED"
	CodeSquadFull         = "SQUAD_FULL"
	CodeCaseClosed        = "CASE_CLOSED"
)

// Error is the typed failure returned by every engine operation. Errors
// compare equal under errors.Is when their kinds match and, if the target
// carries a code, their codes match too.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

// Sentinels for errors.Is checks by kind.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrCapacity   = &Error{Kind: KindCapacity}
)

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s(%s): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is implements errors.Is matching on kind and optional code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Code == "" || e.Code == t.Code)
}

// ErrorKind returns the kind as a string for transport encoders
func (e *Error) ErrorKind() string { return string(e.Kind) }

// ErrorCode returns the machine readable code, empty when none applies
func (e *Error) ErrorCode() string { return e.Code }

// Conflict returns a sentinel matching conflict errors carrying code
func Conflict(code string) error {
	return &Error{Kind: KindConflict, Code: code}
}

// KindOf returns the kind of an engine error, or the empty kind for any
// other error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func validationf(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFound(what string, id interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %v not found", what, id)}
}

func conflictf(code, format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

func capacityf(code, format string, args ...interface{}) error {
	return &Error{Kind: KindCapacity, Code: code, Message: fmt.Sprintf(format, args...)}
}
