package evaluator

import (
	"context"

	"github.com/sandrolain/gofhirpath/pkg/types"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// --- Existence Functions ---

func fnEmpty(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	return boolSeq(len(c.focus) == 0), nil
}

// fnExists implements exists([criteria]).
func fnExists(ctx context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	if !c.hasArg(0) {
		return boolSeq(len(c.focus) > 0), nil
	}
	for i, item := range c.focus {
		res, err := c.Eval(ctx, 0, item, i)
		if err != nil {
			return nil, err
		}
		b, known, err := toBoolean(res, c.node, "exists()")
		if err != nil {
			return nil, err
		}
		if known && b {
			return boolSeq(true), nil
		}
	}
	return boolSeq(false), nil
}

// fnAll implements all(criteria). It is true for an empty input.
func fnAll(ctx context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	for i, item := range c.focus {
		res, err := c.Eval(ctx, 0, item, i)
		if err != nil {
			return nil, err
		}
		b, known, err := toBoolean(res, c.node, "all()")
		if err != nil {
			return nil, err
		}
		if !known || !b {
			return boolSeq(false), nil
		}
	}
	return boolSeq(true), nil
}

// booleans reads the input as a collection of Booleans.
func (c *call) booleans() ([]bool, error) {
	out := make([]bool, len(c.focus))
	for i, item := range c.focus {
		b, ok := value.Unwrap(item).(value.Boolean)
		if !ok {
			return nil, c.errorf(types.ErrInvalidTypeOperation, "%s() expects Boolean items, got %s", c.node.StrValue, item.TypeName())
		}
		out[i] = bool(b)
	}
	return out, nil
}

func fnAllTrue(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	bs, err := c.booleans()
	if err != nil {
		return nil, err
	}
	for _, b := range bs {
		if !b {
			return boolSeq(false), nil
		}
	}
	return boolSeq(true), nil
}

func fnAnyTrue(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	bs, err := c.booleans()
	if err != nil {
		return nil, err
	}
	for _, b := range bs {
		if b {
			return boolSeq(true), nil
		}
	}
	return boolSeq(false), nil
}

func fnAllFalse(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	bs, err := c.booleans()
	if err != nil {
		return nil, err
	}
	for _, b := range bs {
		if b {
			return boolSeq(false), nil
		}
	}
	return boolSeq(true), nil
}

func fnAnyFalse(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	bs, err := c.booleans()
	if err != nil {
		return nil, err
	}
	for _, b := range bs {
		if !b {
			return boolSeq(true), nil
		}
	}
	return boolSeq(false), nil
}

func fnSubsetOf(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	other := c.arg(0)
	for _, v := range c.focus {
		if !other.Contains(v) {
			return boolSeq(false), nil
		}
	}
	return boolSeq(true), nil
}

func fnSupersetOf(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	for _, v := range c.arg(0) {
		if !c.focus.Contains(v) {
			return boolSeq(false), nil
		}
	}
	return boolSeq(true), nil
}

func fnCount(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	n, err := toInteger(len(c.focus))
	if err != nil {
		return nil, err
	}
	return value.Sequence{n}, nil
}

// fnDistinct removes later duplicates, keeping first-occurrence order.
func fnDistinct(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	return c.focus.Distinct(), nil
}

// fnIsDistinct compares items by value, never by identity.
func fnIsDistinct(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	return boolSeq(c.focus.IsDistinct()), nil
}
