// Package extnumeric provides numeric functions that go beyond the core
// math functions. Results are computed with arbitrary-precision decimals.
package extnumeric

import (
	"context"
	"slices"

	"github.com/cockroachdb/apd/v3"
	"fortio.org/safecast"

	"github.com/sandrolain/gofhirpath/pkg/ext/extutil"
	"github.com/sandrolain/gofhirpath/pkg/functions"
	"github.com/sandrolain/gofhirpath/pkg/node"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

var decCtx = apd.BaseContext.WithPrecision(value.DecimalPrecision)

// All returns all extended numeric function definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		Sqrt(),
		Exp(),
		Ln(),
		Log(),
		Power(),
		Sign(),
		Median(),
	}
}

// AllEntries returns all numeric function definitions as [functions.FunctionEntry].
func AllEntries() []functions.FunctionEntry {
	return extutil.Entries(All())
}

// unary builds a single-input function over decimals. domain reports
// whether the input is acceptable; outside it the result is empty.
func unary(name string, domain func(*apd.Decimal) bool, op func(res, x *apd.Decimal) (apd.Condition, error)) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name: name,
		Fn: func(_ context.Context, focus value.Sequence, _ ...value.Sequence) (value.Sequence, error) {
			d, ok, err := extutil.Decimal(name, focus)
			if err != nil || !ok {
				return nil, err
			}
			if domain != nil && !domain(d.APD()) {
				return nil, nil
			}
			var res apd.Decimal
			if _, err := op(&res, d.APD()); err != nil {
				return nil, extutil.Errorf(name, "%v", err)
			}
			res.Reduce(&res)
			return value.Sequence{value.NewDecimal(&res)}, nil
		},
	}
}

func nonNegative(d *apd.Decimal) bool { return d.Sign() >= 0 }
func positive(d *apd.Decimal) bool    { return d.Sign() > 0 }

// Sqrt returns the definition for sqrt(). Negative input yields empty.
func Sqrt() functions.CustomFunctionDef {
	return unary("sqrt", nonNegative, decCtx.Sqrt)
}

// Exp returns the definition for exp(): e raised to the input.
func Exp() functions.CustomFunctionDef {
	return unary("exp", nil, decCtx.Exp)
}

// Ln returns the definition for ln(), the natural logarithm.
func Ln() functions.CustomFunctionDef {
	return unary("ln", positive, decCtx.Ln)
}

// Log returns the definition for log(base).
func Log() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "log",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, focus value.Sequence, args ...value.Sequence) (value.Sequence, error) {
			x, ok, err := extutil.Decimal("log", focus)
			if err != nil || !ok {
				return nil, err
			}
			base, ok, err := extutil.Decimal("log", args[0])
			if err != nil || !ok {
				return nil, err
			}
			if !positive(x.APD()) || !positive(base.APD()) || base.APD().Cmp(apd.New(1, 0)) == 0 {
				return nil, nil
			}
			var lnX, lnBase, res apd.Decimal
			if _, err := decCtx.Ln(&lnX, x.APD()); err != nil {
				return nil, extutil.Errorf("log", "%v", err)
			}
			if _, err := decCtx.Ln(&lnBase, base.APD()); err != nil {
				return nil, extutil.Errorf("log", "%v", err)
			}
			if _, err := decCtx.Quo(&res, &lnX, &lnBase); err != nil {
				return nil, extutil.Errorf("log", "%v", err)
			}
			res.Reduce(&res)
			return value.Sequence{value.NewDecimal(&res)}, nil
		},
	}
}

// Power returns the definition for power(exponent). An Integer raised to a
// non-negative Integer stays Integer; results that are not real numbers
// yield empty.
func Power() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "power",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, focus value.Sequence, args ...value.Sequence) (value.Sequence, error) {
			x, ok, err := extutil.Decimal("power", focus)
			if err != nil || !ok {
				return nil, err
			}
			y, ok, err := extutil.Decimal("power", args[0])
			if err != nil || !ok {
				return nil, err
			}
			var res apd.Decimal
			if _, err := decCtx.Pow(&res, x.APD(), y.APD()); err != nil || res.Form != apd.Finite {
				return nil, nil
			}
			res.Reduce(&res)
			if integral(focus) && integral(args[0]) && y.APD().Sign() >= 0 {
				i, err := res.Int64()
				if err != nil {
					return nil, extutil.Errorf("power", "Integer overflow")
				}
				n, err := safecast.Convert[int32](i)
				if err != nil {
					return nil, extutil.Errorf("power", "Integer overflow")
				}
				return value.Sequence{value.Integer(n)}, nil
			}
			return value.Sequence{value.NewDecimal(&res)}, nil
		},
	}
}

func integral(seq value.Sequence) bool {
	_, ok := node.Comparable(seq[0]).(value.Integer)
	return ok
}

// Sign returns the definition for sign(): -1, 0 or 1.
func Sign() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name: "sign",
		Fn: func(_ context.Context, focus value.Sequence, _ ...value.Sequence) (value.Sequence, error) {
			d, ok, err := extutil.Decimal("sign", focus)
			if err != nil || !ok {
				return nil, err
			}
			return value.Sequence{value.Integer(d.APD().Sign())}, nil
		},
	}
}

// Median returns the definition for median() over the input collection.
// Even-sized inputs average the two middle values.
func Median() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name: "median",
		Fn: func(_ context.Context, focus value.Sequence, _ ...value.Sequence) (value.Sequence, error) {
			if len(focus) == 0 {
				return nil, nil
			}
			nums := make([]value.Decimal, len(focus))
			for i, item := range focus {
				d, _, err := extutil.Decimal("median", value.Sequence{item})
				if err != nil {
					return nil, err
				}
				nums[i] = d
			}
			slices.SortFunc(nums, value.Decimal.Cmp)
			mid := len(nums) / 2
			if len(nums)%2 == 1 {
				return value.Sequence{nums[mid]}, nil
			}
			sum, err := nums[mid-1].Add(nums[mid])
			if err != nil {
				return nil, err
			}
			avg, err := sum.Quo(value.DecimalFromInt(2))
			if err != nil {
				return nil, err
			}
			return value.Sequence{avg}, nil
		},
	}
}
