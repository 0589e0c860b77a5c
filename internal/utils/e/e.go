package e

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrNetwork           = errors.New("network error")
	ErrAuth              = errors.New("authorization rejected")
	ErrNotFound          = errors.New("lyrics not found")
	ErrParse             = errors.New("parse error")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// Error ties a failure to its kind and the stage that produced it.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (err *Error) Error() string {
	switch {
	case err.Err == nil:
		return fmt.Sprintf("%s: %v", err.Op, err.Kind)
	case err.Op == "":
		return fmt.Sprintf("%v: %v", err.Kind, err.Err)
	default:
		return fmt.Sprintf("%s: %v: %v", err.Op, err.Kind, err.Err)
	}
}

func (err *Error) Unwrap() []error {
	if err.Err == nil {
		return []error{err.Kind}
	}
	return []error{err.Kind, err.Err}
}

// New builds an *Error of the given kind.
func New(kind error, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf builds an *Error whose cause is a formatted message.
func Newf(kind error, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap prefixes err with msg. Returns nil when err is nil.
func Wrap(msg string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Kind reports which of the known kinds err carries, or nil.
func Kind(err error) error {
	for _, kind := range []error{ErrNetwork, ErrAuth, ErrNotFound, ErrParse, ErrUnsupportedFormat} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
