package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig matches every ValidationError and TypeError.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError describes a setting with an unacceptable value.
type ValidationError struct {
	// Path is the setting path, for example "history.limit".
	Path string
	// Message describes the problem.
	Message string
	// Value is the rejected value.
	Value any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (value: %v)", e.Path, e.Message, e.Value)
}

// Is matches ErrInvalidConfig.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// TypeError is returned when a merged setting has the wrong type or an
// unknown name.
type TypeError struct {
	Err error
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	return "config: " + e.Err.Error()
}

// Unwrap returns the decoder error.
func (e *TypeError) Unwrap() error {
	return e.Err
}

// Is matches ErrInvalidConfig.
func (e *TypeError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// ErrorList collects validation errors.
type ErrorList struct {
	Errors []error
}

// Add appends a non-nil error.
func (l *ErrorList) Add(err error) {
	if err != nil {
		l.Errors = append(l.Errors, err)
	}
}

// Err returns nil for an empty list, the single error, or the list itself.
func (l *ErrorList) Err() error {
	switch len(l.Errors) {
	case 0:
		return nil
	case 1:
		return l.Errors[0]
	default:
		return l
	}
}

// Error implements the error interface.
func (l *ErrorList) Error() string {
	msgs := make([]string, len(l.Errors))
	for i, err := range l.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d configuration errors: %s", len(l.Errors), strings.Join(msgs, "; "))
}

// Unwrap returns the collected errors.
func (l *ErrorList) Unwrap() []error {
	return l.Errors
}
