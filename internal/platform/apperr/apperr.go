// Package apperr defines the error kinds that cross component boundaries.
// Lower layers wrap failures with a Kind; the HTTP and CLI layers decode the
// Kind into a transport status without inspecting message text.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalidInput
	KindUpstreamUnavailable
	KindValidationFailed
)

// Sentinels usable with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrValidationFailed    = errors.New("validation failed")
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindInvalidInput:
		return "invalid-input"
	case KindUpstreamUnavailable:
		return "upstream-unavailable"
	case KindValidationFailed:
		return "validation-failed"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindInvalidInput:
		return ErrInvalidInput
	case KindUpstreamUnavailable:
		return ErrUpstreamUnavailable
	case KindValidationFailed:
		return ErrValidationFailed
	default:
		return nil
	}
}

// Error is a kinded error. Op names the operation that failed, e.g.
// "namaste.lookup" or "icd11.search".
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Err.Error()
	case e.Op != "":
		return e.Op + ": " + e.Kind.String()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// E builds a kinded error with a formatted message.
func E(kind Kind, op, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches a kind to an existing error. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func NotFound(op, format string, args ...interface{}) error {
	return E(KindNotFound, op, format, args...)
}

func InvalidInput(op, format string, args ...interface{}) error {
	return E(KindInvalidInput, op, format, args...)
}

func Upstream(op string, err error) error {
	return Wrap(KindUpstreamUnavailable, op, err)
}

// KindOf returns the kind of the outermost kinded error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
