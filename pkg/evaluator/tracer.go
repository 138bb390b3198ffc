package evaluator

import (
	"context"
	"log/slog"

	"github.com/sandrolain/gofhirpath/pkg/node"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// TraceFunc receives the name given to trace() and the traced items. It
// runs synchronously on the evaluating goroutine. A non-nil error aborts
// the evaluation and is returned to the caller as is.
type TraceFunc func(name string, items value.Sequence) error

// LogTracer returns a TraceFunc that logs each trace call at debug level.
// Items that carry a Location annotation are logged by path.
func LogTracer(logger *slog.Logger) TraceFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(name string, items value.Sequence) error {
		if !logger.Enabled(context.Background(), slog.LevelDebug) {
			return nil
		}
		rendered := make([]string, len(items))
		for i, item := range items {
			rendered[i] = item.String()
			if n, ok := item.(node.TypedNode); ok {
				if loc, ok := node.AnnotationOf[node.Location](n); ok {
					rendered[i] = loc.Path
				}
			}
		}
		logger.Debug("trace",
			slog.String("name", name),
			slog.Int("count", len(items)),
			slog.Any("items", rendered))
		return nil
	}
}

// tracerError carries an error returned by a host tracer up to Eval
// without the evaluator touching it.
type tracerError struct {
	err error
}

func (t tracerError) Error() string {
	return t.err.Error()
}

// fnTrace implements trace(name[, selector]). It returns its input
// unchanged; the tracer sees the input, or the selector applied to each
// input item.
func fnTrace(ctx context.Context, e *Evaluator, c *call) (value.Sequence, error) {
	nameSeq, err := c.evalArg(ctx, 0)
	if err != nil {
		return nil, err
	}
	name := ""
	if v, ok, err := singleton(nameSeq, c.node, "trace()"); err != nil {
		return nil, err
	} else if ok {
		name = node.Comparable(v).String()
	}

	tracer := c.scope.Env().Tracer()

	items := c.focus
	if c.hasArg(1) {
		items = nil
		for i, item := range c.focus {
			sel, err := c.Eval(ctx, 1, item, i)
			if err != nil {
				return nil, err
			}
			items = append(items, sel...)
		}
	}

	if e.opts.Debug {
		e.logger.Debug("trace", "name", name, "count", len(items), "tracer", tracer != nil)
	}
	if tracer == nil {
		return c.focus, nil
	}
	if err := tracer(name, items); err != nil {
		return nil, tracerError{err: err}
	}
	return c.focus, nil
}
