package evaluator

import (
	"context"

	"github.com/sandrolain/gofhirpath/pkg/node"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// --- Filtering and Projection ---

// fnWhere keeps the items for which criteria is true.
func fnWhere(ctx context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	var out value.Sequence
	for i, item := range c.focus {
		res, err := c.Eval(ctx, 0, item, i)
		if err != nil {
			return nil, err
		}
		b, known, err := toBoolean(res, c.node, "where()")
		if err != nil {
			return nil, err
		}
		if known && b {
			out = append(out, item)
		}
	}
	return out, nil
}

// fnSelect concatenates the projection of every item.
func fnSelect(ctx context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	var out value.Sequence
	for i, item := range c.focus {
		res, err := c.Eval(ctx, 0, item, i)
		if err != nil {
			return nil, err
		}
		out = append(out, res...)
	}
	return out, nil
}

// fnRepeat applies the projection to the input, then to its results, until
// no new items appear. Items equal to one already collected are not
// visited again, so cyclic projections terminate.
func fnRepeat(ctx context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	var out value.Sequence
	current := c.focus
	for len(current) > 0 {
		var next value.Sequence
		for i, item := range current {
			res, err := c.Eval(ctx, 0, item, i)
			if err != nil {
				return nil, err
			}
			for _, r := range res {
				if !out.Contains(r) {
					out = append(out, r)
					next = append(next, r)
				}
			}
		}
		current = next
	}
	return out, nil
}

// fnOfType keeps the items of the given type, including subtypes.
func fnOfType(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	typeName, err := c.typeArg(0)
	if err != nil {
		return nil, err
	}
	var out value.Sequence
	for _, item := range c.focus {
		if node.IsA(item, typeName) {
			out = append(out, item)
		}
	}
	return out, nil
}

// fnAggregate implements aggregate(aggregator[, init]). The aggregator runs
// once per item with $this, $index and $total bound; its result becomes
// the next $total.
func fnAggregate(ctx context.Context, e *Evaluator, c *call) (value.Sequence, error) {
	var total value.Sequence
	if c.hasArg(1) {
		init, err := c.evalArg(ctx, 1)
		if err != nil {
			return nil, err
		}
		total = init
	}
	for i, item := range c.focus {
		scope := c.scope.WithTotal(total).NewChildContext(item, i)
		res, err := e.evalNode(ctx, c.node.Arguments[0], value.Sequence{item}, scope)
		if err != nil {
			return nil, err
		}
		total = res
	}
	return total, nil
}

// --- Tree Navigation ---

func fnChildren(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	var out value.Sequence
	for _, item := range c.focus {
		if n, ok := item.(node.TypedNode); ok {
			for _, child := range n.Children("") {
				out = append(out, child)
			}
		}
	}
	return out, nil
}

// fnDescendants returns every node below the input in pre-order, without
// the input itself and without de-duplication.
func fnDescendants(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	var out value.Sequence
	for _, item := range c.focus {
		if n, ok := item.(node.TypedNode); ok {
			for _, d := range node.Descendants(n) {
				out = append(out, d)
			}
		}
	}
	return out, nil
}
