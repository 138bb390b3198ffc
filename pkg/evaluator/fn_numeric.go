package evaluator

import (
	"context"

	"fortio.org/safecast"

	"github.com/sandrolain/gofhirpath/pkg/node"
	"github.com/sandrolain/gofhirpath/pkg/types"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// --- Math Functions ---

// focusNumber returns the single input item as an Integer, Decimal or
// Quantity. ok is false for an empty input.
func (c *call) focusNumber() (value.Value, bool, error) {
	v, ok, err := c.focusSingleton()
	if err != nil || !ok {
		return nil, false, err
	}
	switch x := node.Comparable(v).(type) {
	case value.Integer, value.Decimal, value.Quantity:
		return x, true, nil
	}
	return nil, false, c.errorf(types.ErrInvalidTypeOperation, "%s() expects a number, got %s", c.node.StrValue, v.TypeName())
}

// decimalToInteger converts an integral decimal to an Integer, failing when
// it does not fit in 32 bits.
func decimalToInteger(d value.Decimal) (value.Integer, error) {
	n, ok := d.Int64()
	if !ok {
		return 0, types.Errorf(types.ErrArithmetic, -1, "%s is not an integral value", d)
	}
	i, err := safecast.Conv[int32](n)
	if err != nil {
		return 0, types.Errorf(types.ErrArithmetic, -1, "%s does not fit in an Integer", d).WithCause(err)
	}
	return value.Integer(i), nil
}

func fnAbs(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	v, ok, err := c.focusNumber()
	if err != nil || !ok {
		return nil, err
	}
	switch x := v.(type) {
	case value.Integer:
		if x < 0 {
			n, err := value.Negate(x)
			if err != nil {
				return nil, err
			}
			return value.Sequence{n}, nil
		}
		return value.Sequence{x}, nil
	case value.Decimal:
		if x.Cmp(value.DecimalFromInt(0)) < 0 {
			return value.Sequence{x.Neg()}, nil
		}
		return value.Sequence{x}, nil
	case value.Quantity:
		if x.Amount.Cmp(value.DecimalFromInt(0)) < 0 {
			return value.Sequence{value.NewQuantity(x.Amount.Neg(), x.Unit)}, nil
		}
		return value.Sequence{x}, nil
	}
	return nil, nil
}

// roundToInteger applies an integral rounding to the input: Integers are
// returned unchanged, Decimals are adjusted by step when truncation moved
// them in the wrong direction.
func roundToInteger(c *call, wrongWay func(d, truncated value.Decimal) int) (value.Sequence, error) {
	v, ok, err := c.focusNumber()
	if err != nil || !ok {
		return nil, err
	}
	switch x := v.(type) {
	case value.Integer:
		return value.Sequence{x}, nil
	case value.Decimal:
		t := x.Truncate()
		if step := wrongWay(x, t); step != 0 {
			t, err = t.Add(value.DecimalFromInt(int64(step)))
			if err != nil {
				return nil, err
			}
		}
		i, err := decimalToInteger(t)
		if err != nil {
			return nil, err
		}
		return value.Sequence{i}, nil
	}
	return nil, c.errorf(types.ErrInvalidTypeOperation, "%s() is not defined for %s", c.node.StrValue, v.TypeName())
}

func fnCeiling(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	return roundToInteger(c, func(d, t value.Decimal) int {
		if d.Cmp(t) > 0 {
			return 1
		}
		return 0
	})
}

func fnFloor(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	return roundToInteger(c, func(d, t value.Decimal) int {
		if d.Cmp(t) < 0 {
			return -1
		}
		return 0
	})
}

func fnTruncate(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	return roundToInteger(c, func(value.Decimal, value.Decimal) int { return 0 })
}

// fnRound implements round([precision]), rounding half away from zero to
// precision decimal places.
func fnRound(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	v, ok, err := c.focusNumber()
	if err != nil || !ok {
		return nil, err
	}
	places := 0
	if c.hasArg(0) {
		p, ok, err := c.intArg(0)
		if err != nil || !ok {
			return nil, err
		}
		if p < 0 {
			return nil, c.errorf(types.ErrInvalidTypeOperation, "round() precision must not be negative, got %d", p)
		}
		places = p
	}
	var d value.Decimal
	switch x := v.(type) {
	case value.Integer:
		d = value.DecimalFromInt(int64(x))
	case value.Decimal:
		d = x
	default:
		return nil, c.errorf(types.ErrInvalidTypeOperation, "round() is not defined for %s", v.TypeName())
	}
	r, err := d.Round(places)
	if err != nil {
		return nil, err
	}
	return value.Sequence{r}, nil
}
