package engine

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/atlas/internal/model"
)

// DefaultConcurrency is the number of requests RunBatch classifies at once.
const DefaultConcurrency = 4

// RunBatch classifies requests concurrently. Results are returned in input
// order; a request that fails still has a result with status failed. The
// returned error joins every per-request failure.
func (p *Pipeline) RunBatch(ctx context.Context, requests []model.Request, concurrency int) ([]*model.Result, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]*model.Result, len(requests))
	errs := make([]error, len(requests))

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, req := range requests {
		g.Go(func() error {
			result, err := p.Run(ctx, req)
			results[i] = result
			if err != nil {
				errs[i] = fmt.Errorf("request %s: %w", result.Request.ID, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return results, errors.Join(errs...)
}
