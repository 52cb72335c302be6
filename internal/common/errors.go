// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Storage errors.
	ErrNotFound = errors.New("not found")

	// Taxonomy errors.
	ErrUnknownCollege = errors.New("unknown college")
	ErrInvalidSchema  = errors.New("invalid taxonomy schema")
	ErrEmptyPool      = errors.New("no candidates available")

	// Classification errors.
	ErrEmptyDescription  = errors.New("research description is empty")
	ErrMalformedResponse = errors.New("malformed model response")
	ErrNoLLM             = errors.New("no LLM client configured")

	// Configuration errors.
	ErrMissingConfig     = errors.New("missing configuration")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrMissingCredential = errors.New("missing API credential")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
