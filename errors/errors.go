// Package errors provides standardized error handling patterns for the ctffs
// plugins. It classifies errors into the taxonomy the CTF filesystem source
// and sink use to decide whether a failure should skip one trace, fail one
// stream, or abort a component outright.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Class represents the classification of an error for handling purposes.
type Class int

const (
	// Transient represents a failure that may succeed if retried, such as a
	// short read or a write that raced a full disk.
	Transient Class = iota
	// Invalid represents bad input: missing parameters, malformed metadata,
	// a stream file whose header cannot be resolved to a stream class.
	Invalid
	// Fatal represents a protocol or programming error that the caller
	// cannot recover from within the current stream or component.
	Fatal
)

// String returns the string representation of Class.
func (c Class) String() string {
	switch c {
	case Transient:
		return "transient"
	case Invalid:
		return "invalid"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Standard error variables for conditions named explicitly by spec.md.
var (
	// Config errors (spec.md §7).
	ErrMissingPath  = errors.New("path parameter is required")
	ErrPathIsRoot   = errors.New("trace root cannot be the filesystem root")
	ErrEmptyResult  = errors.New("no CTF traces found")
	ErrInvalidParam = errors.New("parameter has the wrong type")

	// Schema errors.
	ErrMetadataParse  = errors.New("metadata parse failed")
	ErrUnresolvedSC   = errors.New("cannot resolve stream class")
	ErrMissingField   = errors.New("required field missing from packet header or context")
	ErrDuplicateEvent = errors.New("event class id already present in stream class")

	// I/O errors.
	ErrShortRead  = errors.New("short read on stream file")
	ErrWriteFault = errors.New("write to output stream failed")
	ErrOpenFailed = errors.New("cannot open file")

	// Protocol errors (spec.md §7, §9 state machine).
	ErrPacketEndWithoutBegin = errors.New("packet-end without matching packet-begin")
	ErrEventBeforeBegin      = errors.New("event notification before packet-begin")
	ErrFreshFileYieldedEnd   = errors.New("freshly opened stream file yielded no notifications")
	ErrUnknownStream         = errors.New("stream not yet seen by sink")
	ErrUnknownStreamClass    = errors.New("stream class not yet seen by sink")

	// Component lifecycle.
	ErrAlreadyStarted = errors.New("component already started")
	ErrNotStarted     = errors.New("component not started")
)

// Classified wraps an error together with its Class and the component and
// operation that produced it.
type Classified struct {
	Class     Class
	Err       error
	Component string
	Operation string
}

// Error implements the error interface.
func (c *Classified) Error() string {
	return c.Err.Error()
}

// Unwrap returns the underlying error, enabling errors.Is/As.
func (c *Classified) Unwrap() error {
	return c.Err
}

func newClassified(class Class, err error, component, operation, action string) *Classified {
	return &Classified{
		Class:     class,
		Err:       fmt.Errorf("%s.%s: %s: %w", component, operation, action, err),
		Component: component,
		Operation: operation,
	}
}

// Wrap adds component/operation/action context to err without classifying it.
func Wrap(err error, component, operation, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s: %w", component, operation, action, err)
}

// WrapTransient classifies err as Transient.
func WrapTransient(err error, component, operation, action string) error {
	if err == nil {
		return nil
	}
	return newClassified(Transient, err, component, operation, action)
}

// WrapInvalid classifies err as Invalid.
func WrapInvalid(err error, component, operation, action string) error {
	if err == nil {
		return nil
	}
	return newClassified(Invalid, err, component, operation, action)
}

// WrapFatal classifies err as Fatal.
func WrapFatal(err error, component, operation, action string) error {
	if err == nil {
		return nil
	}
	return newClassified(Fatal, err, component, operation, action)
}

// ClassOf returns the Class of err, defaulting to Fatal for unclassified
// errors: an error the source or sink did not explicitly mark transient or
// invalid is treated as non-recoverable, matching spec.md §7's policy that
// protocol violations are "not recoverable within that stream."
func ClassOf(err error) Class {
	if err == nil {
		return Transient
	}
	var c *Classified
	if errors.As(err, &c) {
		return c.Class
	}
	return Fatal
}

// IsTransient reports whether err is classified Transient.
func IsTransient(err error) bool { return ClassOf(err) == Transient }

// IsInvalid reports whether err is classified Invalid.
func IsInvalid(err error) bool { return ClassOf(err) == Invalid }

// IsFatal reports whether err is classified Fatal.
func IsFatal(err error) bool { return ClassOf(err) == Fatal }

// Join mirrors errors.Join for callers that accumulate per-trace failures
// (spec.md §7: "the affected trace is skipped with a message; other traces
// proceed") without wanting to import both packages.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// Is and As are re-exported so callers depending on this package do not also
// need to import the standard errors package for the common cases.
func Is(err, target error) bool         { return errors.Is(err, target) }
func As(err error, target interface{}) bool { return errors.As(err, target) }

// summarize renders a short, lower-cased one-line description of err's class
// and message, used by component Health() reporting.
func summarize(err error) string {
	if err == nil {
		return ""
	}
	return strings.ToLower(ClassOf(err).String()) + ": " + err.Error()
}

// Summary is the exported form of summarize.
func Summary(err error) string { return summarize(err) }
