// Package dferr declares the semantic error kinds shared by the collection,
// schematic, and wire adapters. Callers match a kind with Is, which unwraps
// with errors.As, and Wrap carries a cause so the original message survives
// translation to a wire status.
package dferr

import (
	"errors"
	"fmt"
)

// Kind identifies one of the semantic error categories.
type Kind int

const (
	// KindSchema indicates a malformed schematic at construction time.
	KindSchema Kind = iota
	// KindNotFound indicates a missing (instrument, trading_system) cell or an
	// unregistered trading_system_id.
	KindNotFound
	// KindNotReady indicates a projection requested before min_rows is met.
	KindNotReady
	// KindInvalidArgument indicates an unparseable command, an unsupported
	// identifier, an invalid descriptor type, or malformed metadata.
	KindInvalidArgument
	// KindOrderingViolation indicates an append with a timestamp <= the last
	// stored timestamp.
	KindOrderingViolation
	// KindCompute indicates expression evaluation failed.
	KindCompute
	// KindTransport indicates an adapter-level failure.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindSchema:
		return "SchemaError"
	case KindNotFound:
		return "NotFound"
	case KindNotReady:
		return "NotReady"
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindOrderingViolation:
		return "OrderingViolation"
	case KindCompute:
		return "ComputeError"
	case KindTransport:
		return "TransportError"
	default:
		return "Unknown"
	}
}

// Error is a semantically-kinded error. Kind() lets adapters map to a wire
// status without parsing the message.
type Error struct {
	kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// Kind returns the semantic category of this error.
func (e *Error) Kind() Kind { return e.kind }

// New builds an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind that carries cause as its Unwrap
// target.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...), cause: cause}
}

// Is reports whether err carries the given Kind, unwrapping as needed.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.kind == kind
	}
	return false
}
