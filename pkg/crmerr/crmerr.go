// Package crmerr defines the error kinds surfaced by the CRM client and
// workflow packages. Every failure is non-fatal for the caller and is
// rendered as an inline notice; nothing is retried automatically.
package crmerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindValidation
	KindInvalidEnum
	KindPersistence
	KindNotFound
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "NetworkFailure"
	case KindValidation:
		return "ValidationFailure"
	case KindInvalidEnum:
		return "InvalidEnumValue"
	case KindPersistence:
		return "PersistenceFailure"
	case KindNotFound:
		return "NotFound"
	case KindUnauthorized:
		return "Unauthorized"
	}
	return "Unknown"
}

// Sentinels usable with errors.Is.
var (
	ErrNetwork      = &Error{Kind: KindNetwork}
	ErrValidation   = &Error{Kind: KindValidation}
	ErrInvalidEnum  = &Error{Kind: KindInvalidEnum}
	ErrPersistence  = &Error{Kind: KindPersistence}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
)

// Error is a classified failure. Op names the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
// regardless of Op and Msg.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// InvalidEnum reports a value outside the declared members of field.
func InvalidEnum(field, value string) *Error {
	return &Error{Kind: KindInvalidEnum, Msg: fmt.Sprintf("%q is not a valid %s", value, field)}
}

func Validation(op, msg string) *Error { return New(KindValidation, op, msg) }

func NotFound(op, what string, id int64) *Error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf("%s %d not found", what, id)}
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Notice renders err as a short user-facing message.
func Notice(err error) string {
	if err == nil {
		return ""
	}
	switch KindOf(err) {
	case KindNetwork:
		return "The server could not be reached. Please try again."
	case KindValidation:
		return "Some fields are missing or malformed: " + innermostMsg(err)
	case KindInvalidEnum:
		return "Invalid value: " + innermostMsg(err)
	case KindPersistence:
		return "The change was not saved: " + innermostMsg(err)
	case KindNotFound:
		return "Not found: " + innermostMsg(err)
	case KindUnauthorized:
		return "Your session is no longer valid. Please log in again."
	}
	return err.Error()
}

func innermostMsg(err error) string {
	msg := ""
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Msg != "" {
				msg = e.Msg
			}
			err = e.Err
			continue
		}
		if msg == "" {
			msg = err.Error()
		}
		err = errors.Unwrap(err)
	}
	return msg
}
