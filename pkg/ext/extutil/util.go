// Package extutil provides shared helpers for the ext sub-packages.
package extutil

import (
	"fmt"

	"github.com/sandrolain/gofhirpath/pkg/functions"
	"github.com/sandrolain/gofhirpath/pkg/node"
	"github.com/sandrolain/gofhirpath/pkg/types"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// Entries converts a slice of definitions into [functions.FunctionEntry]
// values for evaluator.WithFunctions.
func Entries[T functions.FunctionEntry](defs []T) []functions.FunctionEntry {
	out := make([]functions.FunctionEntry, len(defs))
	for i, d := range defs {
		out[i] = d
	}
	return out
}

// Errorf builds an invalid-operation error for function name. The evaluator
// fills in the call site position.
func Errorf(name, format string, args ...any) error {
	return types.Errorf(types.ErrInvalidTypeOperation, -1, "%s(): %s", name, fmt.Sprintf(format, args...)).WithToken(name)
}

// Single returns the only item of seq as a comparable value. ok is false
// for an empty seq; more than one item is an error.
func Single(name string, seq value.Sequence) (value.Value, bool, error) {
	switch len(seq) {
	case 0:
		return nil, false, nil
	case 1:
		return node.Comparable(seq[0]), true, nil
	}
	return nil, false, types.Errorf(types.ErrCardinality, -1,
		"%s() expects a single item, got %d", name, len(seq)).WithToken(name)
}

// String reads seq as a single String.
func String(name string, seq value.Sequence) (string, bool, error) {
	v, ok, err := Single(name, seq)
	if err != nil || !ok {
		return "", false, err
	}
	s, isStr := v.(value.String)
	if !isStr {
		return "", false, Errorf(name, "expected a String, got %s", v.TypeName())
	}
	return string(s), true, nil
}

// Decimal reads seq as a single Integer or Decimal, returned as Decimal.
func Decimal(name string, seq value.Sequence) (value.Decimal, bool, error) {
	v, ok, err := Single(name, seq)
	if err != nil || !ok {
		return value.Decimal{}, false, err
	}
	switch x := v.(type) {
	case value.Integer:
		return value.DecimalFromInt(int64(x)), true, nil
	case value.Decimal:
		return x, true, nil
	}
	return value.Decimal{}, false, Errorf(name, "expected a number, got %s", v.TypeName())
}

// Arg returns argument i, or nil when it was not supplied.
func Arg(args []value.Sequence, i int) value.Sequence {
	if i >= len(args) {
		return nil
	}
	return args[i]
}
