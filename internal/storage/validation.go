// Package storage provides the run history persistence layer.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/atlas/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrInvalidStatus = errors.New("invalid run status")
	ErrInvalidRun    = errors.New("invalid run")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateStatus(status model.RunStatus) error {
	switch status {
	case model.RunComplete, model.RunUnsatisfied, model.RunFailed:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
}

// validateResult checks a run before it is persisted.
func validateResult(result *model.Result) error {
	if result == nil {
		return fmt.Errorf("%w: result", ErrNilParameter)
	}
	if strings.TrimSpace(result.Request.ID) == "" {
		return fmt.Errorf("%w: missing request ID", ErrInvalidRun)
	}
	if result.Request.IsEmpty() {
		return fmt.Errorf("%w: missing description", ErrInvalidRun)
	}
	if err := validateStatus(result.Status); err != nil {
		return err
	}
	return nil
}
