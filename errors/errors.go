// Package errors provides standardized error handling for the appkernel
// lifecycle controller and configuration engine. It includes error
// classification, standard error variables, and helper functions for
// consistent error wrapping across the kernel.
package errors

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorInvalid represents errors due to invalid input or configuration
	ErrorInvalid ErrorClass = iota
	// ErrorFatal represents programming errors that should stop the process
	ErrorFatal
	// ErrorTransient represents temporary errors that may be retried
	ErrorTransient
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	case ErrorTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Standard error variables for common kernel conditions
var (
	// Plugin registry and lifecycle errors
	ErrDuplicateName   = errors.New("duplicate plugin name")
	ErrPluginNotFound  = errors.New("plugin not found")
	ErrInvalidState    = errors.New("invalid lifecycle state transition")
	ErrDependencyCycle = errors.New("plugin dependency cycle")

	// Option schema and configuration errors
	ErrDuplicateOption    = errors.New("duplicate option name")
	ErrUnknownOption      = errors.New("unknown option")
	ErrConfigFileMissing  = errors.New("config file missing")
	ErrInvalidOptionValue = errors.New("invalid option value")
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsDuplicateName checks for a plugin or option name collision
func IsDuplicateName(err error) bool {
	return errors.Is(err, ErrDuplicateName) || errors.Is(err, ErrDuplicateOption)
}

// IsPluginNotFound checks for an unknown plugin name
func IsPluginNotFound(err error) bool {
	return errors.Is(err, ErrPluginNotFound)
}

// IsInvalidState checks for an out-of-order lifecycle transition
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsConfigFileMissing checks for an absent, non-synthesizable config file
func IsConfigFileMissing(err error) bool {
	return errors.Is(err, ErrConfigFileMissing)
}

// IsFatal checks if an error is fatal and should stop the process
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorFatal
	}
	return errors.Is(err, ErrInvalidState) || errors.Is(err, ErrDependencyCycle)
}

// IsInvalid checks if an error is due to invalid input
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorInvalid
	}
	return errors.Is(err, ErrUnknownOption) ||
		errors.Is(err, ErrInvalidOptionValue) ||
		errors.Is(err, ErrConfigFileMissing) ||
		errors.Is(err, ErrDuplicateName) ||
		errors.Is(err, ErrDuplicateOption)
}

// newClassified creates a new classified error
// This is an internal helper - use WrapInvalid() or WrapFatal() instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapInvalid wraps an error as invalid with context
func WrapInvalid(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorInvalid, wrappedErr, component, method, wrappedErr.Error())
}

// WrapFatal wraps an error as fatal with context
func WrapFatal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorFatal, wrappedErr, component, method, wrappedErr.Error())
}

// Is reports whether any error in err's tree matches target.
// Re-exported so kernel callers do not need both error packages imported.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}
