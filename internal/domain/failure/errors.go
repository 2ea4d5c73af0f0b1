// Package failure defines the error kinds shared across layers and a
// Result type that forces callers to handle success and failure explicitly.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind uint8

// Failure kinds.
const (
	KindUnknown Kind = iota
	KindCatalogLoad
	KindSchema
	KindNotFound
	KindNetwork
	KindMalformedResponse
)

// Sentinel kinds. An *Error of a given Kind matches its sentinel with errors.Is.
var (
	ErrCatalogLoad       = errors.New("catalog load failed")
	ErrSchema            = errors.New("schema mismatch")
	ErrNotFound          = errors.New("not found")
	ErrNetwork           = errors.New("network failure")
	ErrMalformedResponse = errors.New("malformed response")
	ErrUnknown           = errors.New("unknown failure")
)

func (k Kind) String() string {
	switch k {
	case KindCatalogLoad:
		return "catalog_load"
	case KindSchema:
		return "schema"
	case KindNotFound:
		return "not_found"
	case KindNetwork:
		return "network"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindCatalogLoad:
		return ErrCatalogLoad
	case KindSchema:
		return ErrSchema
	case KindNotFound:
		return ErrNotFound
	case KindNetwork:
		return ErrNetwork
	case KindMalformedResponse:
		return ErrMalformedResponse
	default:
		return ErrUnknown
	}
}

// Error is a classified failure with a human readable message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Detail()
}

// Detail is the message and cause without the kind prefix.
func (e *Error) Detail() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// New creates a classified error.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. A nil err returns nil.
func Wrap(kind Kind, err error, msg string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}
