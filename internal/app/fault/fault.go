package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping and caller decisions:
// callers must be able to statically tell a retry-worthy outcome from a
// terminal one.
type Kind int

const (
	// Unknown covers unclassified internal failures.
	Unknown Kind = iota
	// Validation is a malformed request shape; never logged as an incident.
	Validation
	// AvailabilityConflict means the PMS rejected the dates; surfaced to the
	// guest with the coded reason.
	AvailabilityConflict
	// PriceMismatch means the integrity gate tripped.
	PriceMismatch
	// ServiceUnavailable marks an unreachable PMS, payment processor or
	// database; retryable by the caller.
	ServiceUnavailable
	// NotFound marks an absent booking or listing.
	NotFound
	// SignatureInvalid marks a webhook trust failure; security relevant.
	SignatureInvalid
	// DownstreamSync marks a PMS write failure after payment capture. It is
	// never surfaced to the guest; it exists for logs and events only.
	DownstreamSync
)

// Error carries a kind, a stable machine code and a human-readable message
// that is safe to show to a guest.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Wrap(kind Kind, code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, cause: cause}
}

// KindOf extracts the kind from an error chain; Unknown when absent.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}

// CodeOf extracts the stable code from an error chain.
func CodeOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return "internal"
}

// MessageOf returns the guest-safe message; internal detail stays out of
// responses.
func MessageOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	return "internal error"
}
