package codegen

import (
	"errors"
	"fmt"
)

// Error is returned by every builder in this package. Builds are
// all-or-nothing: a builder that returns an Error returns no routine.
type Error struct {
	// Kind identifies the error category.
	Kind ErrorKind

	// Op names the builder or utility that failed.
	Op string

	// Msg is a human-readable description.
	Msg string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorKind categorizes generation errors.
type ErrorKind string

const (
	// ConfigurationError indicates inputs that cannot describe a valid
	// routine: an ambiguous target, a missing boundary, a bad extension.
	ConfigurationError ErrorKind = "CONFIGURATION"

	// UnsupportedFeatureError indicates a well-formed request for something
	// the generator does not implement.
	UnsupportedFeatureError ErrorKind = "UNSUPPORTED_FEATURE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Msg)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsConfigurationError returns true if err is, or wraps, a configuration
// error.
func IsConfigurationError(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind == ConfigurationError
	}
	return false
}

// IsUnsupportedFeature returns true if err is, or wraps, an unsupported
// feature error.
func IsUnsupportedFeature(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind == UnsupportedFeatureError
	}
	return false
}

func configErr(op, format string, args ...interface{}) error {
	return &Error{Kind: ConfigurationError, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func unsupported(op, format string, args ...interface{}) error {
	return &Error{Kind: UnsupportedFeatureError, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// wrapConfig turns a lower-level failure (an invalid parameter, a symbolic
// classification error) into a configuration error of op.
func wrapConfig(op string, err error) error {
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	return &Error{Kind: ConfigurationError, Op: op, Msg: "invalid input", Err: err}
}
