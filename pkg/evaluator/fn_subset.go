package evaluator

import (
	"context"

	"github.com/sandrolain/gofhirpath/pkg/value"
)

// --- Subsetting Functions ---

// fnSingle returns the only item, empty for an empty input, and fails for
// more than one item.
func fnSingle(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	v, ok, err := c.focusSingleton()
	if err != nil || !ok {
		return nil, err
	}
	return value.Sequence{v}, nil
}

func fnFirst(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	if len(c.focus) == 0 {
		return nil, nil
	}
	return c.focus[:1], nil
}

func fnLast(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	if len(c.focus) == 0 {
		return nil, nil
	}
	return c.focus[len(c.focus)-1:], nil
}

func fnTail(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	if len(c.focus) <= 1 {
		return nil, nil
	}
	return c.focus[1:], nil
}

func fnSkip(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	n, ok, err := c.intArg(0)
	if err != nil || !ok {
		return nil, err
	}
	switch {
	case n <= 0:
		return c.focus, nil
	case n >= len(c.focus):
		return nil, nil
	}
	return c.focus[n:], nil
}

func fnTake(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	n, ok, err := c.intArg(0)
	if err != nil || !ok || n <= 0 {
		return nil, err
	}
	if n >= len(c.focus) {
		return c.focus, nil
	}
	return c.focus[:n], nil
}

func fnIntersect(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	return c.focus.Intersect(c.arg(0)), nil
}

func fnExclude(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	return c.focus.Exclude(c.arg(0)), nil
}

// --- Combining Functions ---

// fnUnion merges both collections, removing duplicates.
func fnUnion(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	return c.focus.Union(c.arg(0)), nil
}

// fnCombine concatenates both collections, keeping order and duplicates.
func fnCombine(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	return c.focus.Combine(c.arg(0)), nil
}
