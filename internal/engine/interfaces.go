package engine

import (
	"context"

	"github.com/Veraticus/atlas/internal/model"
)

// Observer receives progress notifications while a pipeline runs.
// Implementations must be safe for concurrent use when RunBatch is used.
type Observer interface {
	StageStarted(req model.Request, stage model.Stage, attempt int)
	StageFinished(req model.Request, result model.StageResult)
	RunFinished(result *model.Result)
}

// RunStore persists finished runs.
type RunStore interface {
	SaveRun(ctx context.Context, result *model.Result) error
}

// NopObserver ignores every notification.
type NopObserver struct{}

// StageStarted implements Observer.
func (NopObserver) StageStarted(model.Request, model.Stage, int) {}

// StageFinished implements Observer.
func (NopObserver) StageFinished(model.Request, model.StageResult) {}

// RunFinished implements Observer.
func (NopObserver) RunFinished(*model.Result) {}
