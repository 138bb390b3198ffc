package evaluator

import (
	"context"

	"github.com/sandrolain/gofhirpath/pkg/node"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// --- Conversion Functions ---

// convertFocus applies conv to the single input item.
func convertFocus(c *call, conv func(value.Value) (value.Value, bool)) (value.Sequence, error) {
	v, ok, err := c.focusSingleton()
	if err != nil || !ok {
		return nil, err
	}
	out, ok := conv(node.Comparable(v))
	if !ok {
		return nil, nil
	}
	return value.Sequence{out}, nil
}

func fnToBoolean(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	return convertFocus(c, convertToBoolean)
}

func fnToInteger(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	return convertFocus(c, convertToInteger)
}

func fnToDecimal(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	return convertFocus(c, convertToDecimal)
}

func fnToString(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	return convertFocus(c, convertToString)
}

// fnToQuantity implements toQuantity([unit]). With a unit the quantity is
// converted to it, and is empty when the units are not compatible.
func fnToQuantity(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	out, err := convertFocus(c, convertToQuantity)
	if err != nil || len(out) == 0 || !c.hasArg(0) {
		return out, err
	}
	unit, ok, err := c.stringArg(0)
	if err != nil || !ok {
		return nil, err
	}
	q, err := out[0].(value.Quantity).ConvertTo(unit)
	if err != nil {
		return nil, nil
	}
	return value.Sequence{q}, nil
}

// fnConvertsTo derives a convertsTo*() function from its to*() counterpart.
func fnConvertsTo(conv FunctionImpl) FunctionImpl {
	return func(ctx context.Context, e *Evaluator, c *call) (value.Sequence, error) {
		if len(c.focus) == 0 {
			return nil, nil
		}
		out, err := conv(ctx, e, c)
		if err != nil {
			return nil, err
		}
		return boolSeq(len(out) > 0), nil
	}
}

// fnIif implements iif(criterion, then[, else]). Only the chosen branch is
// evaluated.
func fnIif(ctx context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	cond, err := c.evalArg(ctx, 0)
	if err != nil {
		return nil, err
	}
	b, known, err := toBoolean(cond, c.node, "iif()")
	if err != nil {
		return nil, err
	}
	if known && b {
		return c.evalArg(ctx, 1)
	}
	if c.hasArg(2) {
		return c.evalArg(ctx, 2)
	}
	return nil, nil
}

// --- Type Functions ---

func fnIs(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	typeName, err := c.typeArg(0)
	if err != nil {
		return nil, err
	}
	v, ok, err := c.focusSingleton()
	if err != nil || !ok {
		return nil, err
	}
	return boolSeq(node.IsA(v, typeName)), nil
}

func fnAs(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	typeName, err := c.typeArg(0)
	if err != nil {
		return nil, err
	}
	v, ok, err := c.focusSingleton()
	if err != nil || !ok || !node.IsA(v, typeName) {
		return nil, err
	}
	return value.Sequence{v}, nil
}

// fnHasValue is true for a single item carrying a primitive value.
func fnHasValue(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	if len(c.focus) != 1 {
		return boolSeq(false), nil
	}
	if n, ok := c.focus[0].(node.TypedNode); ok {
		return boolSeq(n.Primitive() != nil), nil
	}
	return boolSeq(true), nil
}

// fnNot negates a single boolean; empty stays empty.
func fnNot(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	b, known, err := toBoolean(c.focus, c.node, "not()")
	if err != nil || !known {
		return nil, err
	}
	return boolSeq(!b), nil
}
