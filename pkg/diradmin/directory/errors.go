package directory

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kinds of directory failures. Match them with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrGroupNotFound      = errors.New("group not found")
	ErrGroupHasMembers    = errors.New("group has members")
	ErrUnknownUser        = errors.New("unknown user")
	ErrAlreadyLocked      = errors.New("directory is exclusively locked")
	ErrSearchKeyTooShort  = errors.New("search key too short")
	ErrWildcardNotAllowed = errors.New("wildcard not allowed")
	ErrNotImplemented     = errors.New("not yet implemented")
	ErrDataAccess         = errors.New("data access failed")
)

// Error is the single failure type returned by Service. Msg is meant for
// humans; Kind classifies it; cause, when set, is the underlying failure.
type Error struct {
	Kind  error
	Msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Msg + ": " + e.cause.Error()
	}
	return e.Msg
}

// Is matches the error kind
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// Unwrap exposes the cause to errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.cause
}

// Cause implements github.com/pkg/errors causer
func (e *Error) Cause() error {
	return e.cause
}

func newError(kind error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// dataError wraps a persistence failure. Errors that already are *Error pass through.
func dataError(err error, op string) error {
	if err == nil {
		return nil
	}
	var derr *Error
	if errors.As(err, &derr) {
		return derr
	}
	return &Error{Kind: ErrDataAccess, Msg: op, cause: errors.WithStack(err)}
}
