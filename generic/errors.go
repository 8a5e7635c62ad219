/*
errors.go - Centralized error types for the arrears engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Every failure the engine reports falls into one of three kinds, and
  callers (API, CLI) map the kind to a status code or exit code.

ERROR CATEGORIES:
  1. InputInvalid    - the configuration breaks a validation rule
  2. ExternalMissing - the production calendar or key-rate schedule
                       does not cover a date the calculation needs
  3. NumericDomain   - an arithmetic step produced a negative amount
                       that must never be negative

USAGE:
  Wrap with context, test with errors.Is:

    if errors.Is(err, generic.ErrExternalMissing) {
        // fetch reference data and retry
    }

    var e *generic.Error
    if errors.As(err, &e) && e.Field != "" { ... }

SEE ALSO:
  - payroll/validate.go: produces InputInvalid
  - generic/store/memory.go: produces ExternalMissing
  - api/handlers.go: maps kinds to HTTP status
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInputInvalid is returned when the configuration fails validation.
	ErrInputInvalid = errors.New("invalid input")

	// ErrExternalMissing is returned when a calendar year or key rate is unavailable.
	ErrExternalMissing = errors.New("external reference data missing")

	// ErrNumericDomain is returned when an amount leaves its valid range.
	ErrNumericDomain = errors.New("numeric domain violation")
)

// ErrorKind classifies an Error.
type ErrorKind string

const (
	KindInputInvalid    ErrorKind = "input_invalid"
	KindExternalMissing ErrorKind = "external_missing"
	KindNumericDomain   ErrorKind = "numeric_domain"
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// Error carries the kind plus whatever context identifies the offending input:
// a config field path for InputInvalid, a date for ExternalMissing.
type Error struct {
	Kind    ErrorKind
	Message string
	Field   string
	Date    TimePoint
}

func (e *Error) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	case !e.Date.IsZero():
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Date)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error {
	switch e.Kind {
	case KindInputInvalid:
		return ErrInputInvalid
	case KindExternalMissing:
		return ErrExternalMissing
	case KindNumericDomain:
		return ErrNumericDomain
	}
	return nil
}

// InvalidField builds an InputInvalid error for a config field path.
func InvalidField(field, format string, args ...any) *Error {
	return &Error{Kind: KindInputInvalid, Field: field, Message: fmt.Sprintf(format, args...)}
}

// MissingData builds an ExternalMissing error for the date that was not covered.
func MissingData(date TimePoint, format string, args ...any) *Error {
	return &Error{Kind: KindExternalMissing, Date: date, Message: fmt.Sprintf(format, args...)}
}

// NumericDomain builds a NumericDomain error.
func NumericDomain(format string, args ...any) *Error {
	return &Error{Kind: KindNumericDomain, Message: fmt.Sprintf(format, args...)}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsInputInvalid returns true if the error is due to invalid client input.
func IsInputInvalid(err error) bool {
	return errors.Is(err, ErrInputInvalid)
}

// IsExternalMissing returns true if reference data must be loaded before retrying.
func IsExternalMissing(err error) bool {
	return errors.Is(err, ErrExternalMissing)
}

// IsNumericDomain returns true if a computed amount left its valid range.
func IsNumericDomain(err error) bool {
	return errors.Is(err, ErrNumericDomain)
}

// KindOf returns the kind of err, or "" for errors outside the engine taxonomy.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrInputInvalid):
		return KindInputInvalid
	case errors.Is(err, ErrExternalMissing):
		return KindExternalMissing
	case errors.Is(err, ErrNumericDomain):
		return KindNumericDomain
	}
	return ""
}
