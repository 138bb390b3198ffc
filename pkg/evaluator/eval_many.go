package evaluator

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/sandrolain/gofhirpath/pkg/types"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// EvalMany evaluates every expression against the same focus. results[i]
// holds the result of exprs[i]. With Concurrency enabled the expressions are
// spread over at most Workers goroutines; the first error cancels the rest
// and is returned.
func (e *Evaluator) EvalMany(ctx context.Context, exprs []*types.Expression, focus value.Sequence, ec *EvaluationContext) ([]value.Sequence, error) {
	results := make([]value.Sequence, len(exprs))
	if len(exprs) == 0 {
		return results, nil
	}

	if !e.opts.Concurrency || e.opts.Workers <= 1 || len(exprs) == 1 {
		for i, expr := range exprs {
			res, err := e.Eval(ctx, expr, focus, ec)
			if err != nil {
				return nil, err
			}
			results[i] = res
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(e.opts.Workers, len(exprs)))

	for i, expr := range exprs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res, err := e.Eval(gctx, expr, focus, ec)
			if err != nil {
				return err
			}
			// each goroutine owns its index
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
