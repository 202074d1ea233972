package errors

import (
	"errors"
	"fmt"
)

// New returns an error with the given message.
func New(format string, args ...interface{}) error {
	if len(args) == 0 {
		return errors.New(format)
	}
	return fmt.Errorf(format, args...)
}

// WithContext wraps `err` with a short description of what was being done
// when it occurred, e.g. "digest primary".
func WithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return contextError{cause: err, context: context}
}

type contextError struct {
	cause   error
	context string
}

func (err contextError) Error() string {
	return fmt.Sprintf("%s: %s", err.context, err.cause)
}

func (err contextError) Unwrap() error {
	return err.cause
}

// RootCause returns the innermost error wrapped by WithContext.
func RootCause(err error) error {
	for {
		ctxErr, ok := err.(contextError)
		if !ok {
			return err
		}
		err = ctxErr.cause
	}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// FriendlyError is an error whose message is meant to be shown to the user
// as is, without any wrapping context.
type FriendlyError struct {
	msg string
}

// NewFriendlyError formats a FriendlyError.
func NewFriendlyError(template string, args ...interface{}) FriendlyError {
	return FriendlyError{fmt.Sprintf(template, args...)}
}

func (err FriendlyError) Error() string {
	return err.msg
}

// FriendlyMessage returns the user facing message.
func (err FriendlyError) FriendlyMessage() string {
	return err.msg
}
