package evaluator

import (
	"context"

	"github.com/sandrolain/gofhirpath/pkg/node"
	"github.com/sandrolain/gofhirpath/pkg/types"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// Select evaluates expr against a single tree and returns the result.
func (e *Evaluator) Select(ctx context.Context, expr *types.Expression, input value.Value, ec *EvaluationContext) (value.Sequence, error) {
	return e.Eval(ctx, expr, focusOf(input), ec)
}

// Predicate evaluates expr as a boolean test.
//
// An empty result is false. A result made only of Booleans is true when all
// of them are true. A single non-Boolean item counts as true; more than one
// non-Boolean item is ambiguous and fails with ErrAmbiguousTruthiness.
func (e *Evaluator) Predicate(ctx context.Context, expr *types.Expression, input value.Value, ec *EvaluationContext) (bool, error) {
	res, err := e.Select(ctx, expr, input, ec)
	if err != nil {
		return false, err
	}
	return Truthy(res, expr)
}

// Scalar evaluates expr and returns its only value. ok is false when the
// result is empty; more than one value is an error.
func (e *Evaluator) Scalar(ctx context.Context, expr *types.Expression, input value.Value, ec *EvaluationContext) (v value.Value, ok bool, err error) {
	res, err := e.Select(ctx, expr, input, ec)
	if err != nil {
		return nil, false, err
	}
	switch len(res) {
	case 0:
		return nil, false, nil
	case 1:
		return node.Comparable(res[0]), true, nil
	}
	return nil, false, types.Errorf(types.ErrCardinality, 0,
		"expression %q returned %d items, expected at most one", expr.Source(), len(res))
}

// Truthy interprets a result collection as a boolean, as Predicate does.
// expr is used for error reporting and may be nil.
func Truthy(res value.Sequence, expr *types.Expression) (bool, error) {
	if len(res) == 0 {
		return false, nil
	}
	nonBool := 0
	all := true
	for _, item := range res {
		b, isBool := node.Comparable(item).(value.Boolean)
		if !isBool {
			nonBool++
			continue
		}
		all = all && bool(b)
	}
	if nonBool > 1 {
		src := ""
		if expr != nil {
			src = expr.Source()
		}
		return false, types.Errorf(types.ErrAmbiguousTruthiness, 0,
			"expression %q returned %d non-Boolean items", src, nonBool)
	}
	return all, nil
}

func focusOf(input value.Value) value.Sequence {
	if input == nil {
		return nil
	}
	return value.Sequence{input}
}
