// Package service defines the interfaces shared between application layers.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/atlas/internal/model"
)

// RunFilter defines filtering options for run history queries.
type RunFilter struct {
	Since   *time.Time
	College string
	Field   string
	Status  model.RunStatus
	Limit   int
	Offset  int
}

// Storage defines the contract for the run history persistence layer.
type Storage interface {
	SaveRun(ctx context.Context, result *model.Result) error
	GetRun(ctx context.Context, id string) (*model.Result, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.RunSummary, error)
	DeleteRun(ctx context.Context, id string) error

	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
