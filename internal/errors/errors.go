package errors

import (
	"errors"
	"fmt"
)

// Common error types for the social portal
var (
	// Storage errors
	ErrNotFound = errors.New("not found")

	// Authorization flow errors
	ErrInvalidState     = errors.New("invalid state")
	ErrFlowExpired      = errors.New("authorization flow expired")
	ErrProviderMismatch = errors.New("provider does not match authorization flow")
	ErrMissingCode      = errors.New("missing authorization code")

	// Session errors
	ErrInvalidSession = errors.New("invalid session")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
