package wire

import (
	"errors"
	"fmt"
)

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind/RuleID rather than matching error strings.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	// KindFormat covers malformed or truncated buffers, bad checksums,
	// wrong prefixes and wrong fixed-length payloads.
	KindFormat Kind = "Format"
	// KindRange covers versions outside the accepted window, unknown
	// type ordinals and unknown hash types.
	KindRange Kind = "Range"
	// KindInvariant signals a caller or programmer error: a record claims
	// something that its fields do not back up.
	KindInvariant Kind = "Invariant"
	// KindValidation covers semantically invalid but well-formed values.
	KindValidation Kind = "Validation"
	KindInternal   Kind = "Internal"
)

// Error is the module's structured error type.
//
// RuleID is a stable identifier (e.g. VDXF-FMT-001, VDXF-RNG-010) that names
// the violated rule. Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewError returns a structured error without a cause.
func NewError(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

// WrapError returns a structured error wrapping cause. A nil cause yields
// the same result as NewError.
func WrapError(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return NewError(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}

// ErrUnderrun is the cause attached to every read past the end of a buffer.
var ErrUnderrun = errors.New("buffer underrun")

func underrun(what string, need, have int) error {
	return &Error{
		Kind:    KindFormat,
		RuleID:  "VDXF-FMT-001",
		Message: fmt.Sprintf("cannot read %s: need %d bytes, have %d", what, need, have),
		Cause:   ErrUnderrun,
	}
}
