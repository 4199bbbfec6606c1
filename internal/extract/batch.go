package extract

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BatchResult is the outcome for one source of a batch.
type BatchResult struct {
	Source string
	Result *Result
	Err    error
}

// Batch extracts a template from each source with at most concurrency
// extractions in flight. Results are returned in source order; a failure on
// one source does not stop the others. The returned error is non-nil only
// when ctx is cancelled.
func (e *Extractor) Batch(ctx context.Context, sources []string, opts Options, concurrency int) ([]BatchResult, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]BatchResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, src := range sources {
		results[i].Source = src
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return err
			}
			res, err := e.ExtractFile(gctx, src, opts)
			results[i].Result = res
			results[i].Err = err
			if err != nil {
				e.logger.Warn("batch source failed", zap.String("source", src), zap.Error(err))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
