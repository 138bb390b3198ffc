// Package extcollection provides collection functions beyond the core
// library: reordering, chunking and criteria-based selection.
package extcollection

import (
	"context"
	"slices"

	"github.com/sandrolain/gofhirpath/pkg/ext/extutil"
	"github.com/sandrolain/gofhirpath/pkg/functions"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// All returns all simple collection function definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		Reverse(),
		Chunk(),
	}
}

// AllAdvanced returns the collection functions that evaluate a criteria
// argument once per item.
func AllAdvanced() []functions.AdvancedCustomFunctionDef {
	return []functions.AdvancedCustomFunctionDef{
		SortBy(),
		MinBy(),
		MaxBy(),
	}
}

// AllEntries returns all collection function definitions (simple + advanced)
// as [functions.FunctionEntry].
func AllEntries() []functions.FunctionEntry {
	return append(extutil.Entries(All()), extutil.Entries(AllAdvanced())...)
}

// Reverse returns the definition for reverse().
func Reverse() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name: "reverse",
		Fn: func(_ context.Context, focus value.Sequence, _ ...value.Sequence) (value.Sequence, error) {
			out := slices.Clone(focus)
			slices.Reverse(out)
			return out, nil
		},
	}
}

// Chunk returns the definition for chunk(size). Collections are flat, so
// each chunk is returned as the String rendering of its items, e.g.
// "[1, 2]".
func Chunk() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "chunk",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, focus value.Sequence, args ...value.Sequence) (value.Sequence, error) {
			v, ok, err := extutil.Single("chunk", args[0])
			if err != nil || !ok {
				return nil, err
			}
			size, isInt := v.(value.Integer)
			if !isInt || size < 1 {
				return nil, extutil.Errorf("chunk", "size must be a positive Integer")
			}
			var out value.Sequence
			for part := range slices.Chunk(focus, int(size)) {
				out = append(out, value.String(value.Sequence(part).String()))
			}
			return out, nil
		},
	}
}

// keyed pairs an input item with its evaluated criteria.
type keyed struct {
	item value.Value
	key  value.Value
}

// keys evaluates the criteria argument for every item. Items whose
// criteria is empty get a nil key.
func keys(ctx context.Context, name string, caller functions.Caller, focus value.Sequence) ([]keyed, error) {
	out := make([]keyed, len(focus))
	for i, item := range focus {
		res, err := caller.Eval(ctx, 0, item, i)
		if err != nil {
			return nil, err
		}
		k, _, err := extutil.Single(name, res)
		if err != nil {
			return nil, err
		}
		out[i] = keyed{item: item, key: k}
	}
	return out, nil
}

// compareKeys orders nil keys last. Keys that cannot be ordered are an error.
func compareKeys(name string, a, b value.Value) (int, error) {
	switch {
	case a == nil && b == nil:
		return 0, nil
	case a == nil:
		return 1, nil
	case b == nil:
		return -1, nil
	}
	c, ok, err := value.Compare(a, b)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, extutil.Errorf(name, "cannot order %s and %s", a, b)
	}
	return c, nil
}

// SortBy returns the definition for sortBy(criteria). The sort is stable
// and items with an empty criteria go last.
func SortBy() functions.AdvancedCustomFunctionDef {
	return functions.AdvancedCustomFunctionDef{
		Name:    "sortBy",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(ctx context.Context, caller functions.Caller, focus value.Sequence) (value.Sequence, error) {
			ks, err := keys(ctx, "sortBy", caller, focus)
			if err != nil {
				return nil, err
			}
			var sortErr error
			slices.SortStableFunc(ks, func(a, b keyed) int {
				c, err := compareKeys("sortBy", a.key, b.key)
				if err != nil && sortErr == nil {
					sortErr = err
				}
				return c
			})
			if sortErr != nil {
				return nil, sortErr
			}
			out := make(value.Sequence, len(ks))
			for i, k := range ks {
				out[i] = k.item
			}
			return out, nil
		},
	}
}

func extremeBy(name string, keep func(c int) bool) functions.AdvancedCustomFunctionDef {
	return functions.AdvancedCustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(ctx context.Context, caller functions.Caller, focus value.Sequence) (value.Sequence, error) {
			ks, err := keys(ctx, name, caller, focus)
			if err != nil {
				return nil, err
			}
			var best *keyed
			for i := range ks {
				if ks[i].key == nil {
					continue
				}
				if best == nil {
					best = &ks[i]
					continue
				}
				c, err := compareKeys(name, ks[i].key, best.key)
				if err != nil {
					return nil, err
				}
				if keep(c) {
					best = &ks[i]
				}
			}
			if best == nil {
				return nil, nil
			}
			return value.Sequence{best.item}, nil
		},
	}
}

// MinBy returns the definition for minBy(criteria): the first item with
// the smallest criteria.
func MinBy() functions.AdvancedCustomFunctionDef {
	return extremeBy("minBy", func(c int) bool { return c < 0 })
}

// MaxBy returns the definition for maxBy(criteria).
func MaxBy() functions.AdvancedCustomFunctionDef {
	return extremeBy("maxBy", func(c int) bool { return c > 0 })
}
