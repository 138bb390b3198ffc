package evaluator

import (
	"context"

	"github.com/sandrolain/gofhirpath/pkg/node"
	"github.com/sandrolain/gofhirpath/pkg/types"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// --- Aggregation Functions ---

// numbers returns the input items as comparable numbers.
func (c *call) numbers() ([]value.Value, error) {
	out := make([]value.Value, 0, len(c.focus))
	for _, item := range c.focus {
		v := node.Comparable(item)
		switch v.(type) {
		case value.Integer, value.Decimal, value.Quantity:
			out = append(out, v)
		default:
			return nil, c.errorf(types.ErrInvalidTypeOperation, "%s() expects numbers, got %s", c.node.StrValue, item.TypeName())
		}
	}
	return out, nil
}

// fnSum adds the input items. The sum of an empty collection is 0.
func fnSum(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	nums, err := c.numbers()
	if err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return value.Sequence{value.Integer(0)}, nil
	}
	total := nums[0]
	for _, n := range nums[1:] {
		total, err = value.Arithmetic("+", total, n)
		if err != nil {
			return nil, err
		}
	}
	return value.Sequence{total}, nil
}

// extreme returns the item that wins every comparison against the others
// according to keep. Items that cannot be ordered fail the call.
func extreme(c *call, keep func(cmp int) bool) (value.Sequence, error) {
	if len(c.focus) == 0 {
		return nil, nil
	}
	best := node.Comparable(c.focus[0])
	for _, item := range c.focus[1:] {
		v := node.Comparable(item)
		cmp, ok, err := value.Compare(v, best)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		if keep(cmp) {
			best = v
		}
	}
	return value.Sequence{best}, nil
}

func fnMin(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	return extreme(c, func(cmp int) bool { return cmp < 0 })
}

func fnMax(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	return extreme(c, func(cmp int) bool { return cmp > 0 })
}

// fnAvg returns the Decimal mean of the input items.
func fnAvg(ctx context.Context, e *Evaluator, c *call) (value.Sequence, error) {
	if len(c.focus) == 0 {
		return nil, nil
	}
	sum, err := fnSum(ctx, e, c)
	if err != nil {
		return nil, err
	}
	count, err := toInteger(len(c.focus))
	if err != nil {
		return nil, err
	}
	total := sum[0]
	if i, ok := total.(value.Integer); ok {
		total = value.DecimalFromInt(int64(i))
	}
	avg, err := value.Arithmetic("/", total, count)
	if err != nil || avg == nil {
		return nil, err
	}
	return value.Sequence{avg}, nil
}
