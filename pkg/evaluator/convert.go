package evaluator

import (
	"strings"

	"fortio.org/safecast"

	"github.com/sandrolain/gofhirpath/pkg/types"
	"github.com/sandrolain/gofhirpath/pkg/ucum"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// Conversion table used by the to*() and convertsTo*() functions. Each
// converter returns ok false when the value has no representation in the
// target type; that is an empty result, not an error.

var (
	integerPattern  = mustCompileRegex(`^[+-]?[0-9]+$`)
	decimalPattern  = mustCompileRegex(`^[+-]?[0-9]+(\.[0-9]+)?$`)
	quantityPattern = mustCompileRegex(`^([+-]?[0-9]+(?:\.[0-9]+)?)\s*(?:'([^']*)'|([A-Za-z]+))?$`)
)

// toInteger narrows a Go int to a system Integer.
func toInteger(n int) (value.Integer, error) {
	i, err := safecast.Conv[int32](n)
	if err != nil {
		return 0, types.Errorf(types.ErrArithmetic, -1, "%d does not fit in an Integer", n).WithCause(err)
	}
	return value.Integer(i), nil
}

func convertToBoolean(v value.Value) (value.Value, bool) {
	switch x := v.(type) {
	case value.Boolean:
		return x, true
	case value.Integer:
		switch x {
		case 1:
			return value.Boolean(true), true
		case 0:
			return value.Boolean(false), true
		}
	case value.Decimal:
		switch {
		case x.Cmp(value.DecimalFromInt(1)) == 0:
			return value.Boolean(true), true
		case x.IsZero():
			return value.Boolean(false), true
		}
	case value.String:
		switch strings.ToLower(string(x)) {
		case "true", "t", "yes", "y", "1", "1.0":
			return value.Boolean(true), true
		case "false", "f", "no", "n", "0", "0.0":
			return value.Boolean(false), true
		}
	}
	return nil, false
}

func convertToInteger(v value.Value) (value.Value, bool) {
	switch x := v.(type) {
	case value.Integer:
		return x, true
	case value.Boolean:
		if x {
			return value.Integer(1), true
		}
		return value.Integer(0), true
	case value.String:
		if !integerPattern.MatchString(string(x)) {
			return nil, false
		}
		d, err := value.ParseDecimal(string(x))
		if err != nil {
			return nil, false
		}
		n, ok := d.Int64()
		if !ok {
			return nil, false
		}
		i, err := safecast.Conv[int32](n)
		if err != nil {
			return nil, false
		}
		return value.Integer(i), true
	}
	return nil, false
}

func convertToDecimal(v value.Value) (value.Value, bool) {
	switch x := v.(type) {
	case value.Decimal:
		return x, true
	case value.Integer:
		return value.DecimalFromInt(int64(x)), true
	case value.Boolean:
		if x {
			return value.MustDecimal("1.0"), true
		}
		return value.MustDecimal("0.0"), true
	case value.String:
		if !decimalPattern.MatchString(string(x)) {
			return nil, false
		}
		d, err := value.ParseDecimal(string(x))
		if err != nil {
			return nil, false
		}
		return d, true
	}
	return nil, false
}

func convertToString(v value.Value) (value.Value, bool) {
	switch x := v.(type) {
	case value.String:
		return x, true
	case value.Boolean, value.Integer, value.Decimal, value.Date, value.DateTime, value.Time, value.Quantity:
		return value.String(x.String()), true
	}
	return nil, false
}

// convertToQuantity converts numbers, booleans and strings such as
// "4 days" or "75 'kg'" to a Quantity.
func convertToQuantity(v value.Value) (value.Value, bool) {
	switch x := v.(type) {
	case value.Quantity:
		return x, true
	case value.Integer:
		return value.NewQuantity(value.DecimalFromInt(int64(x)), "1"), true
	case value.Decimal:
		return value.NewQuantity(x, "1"), true
	case value.Boolean:
		amount := value.MustDecimal("0.0")
		if x {
			amount = value.MustDecimal("1.0")
		}
		return value.NewQuantity(amount, "1"), true
	case value.String:
		m := quantityPattern.FindStringSubmatch(strings.TrimSpace(string(x)))
		if m == nil {
			return nil, false
		}
		amount, err := value.ParseDecimal(m[1])
		if err != nil {
			return nil, false
		}
		unit := "1"
		switch {
		case m[2] != "":
			unit = m[2]
		case m[3] != "":
			if !ucum.IsCalendarKeyword(m[3]) {
				return nil, false
			}
			unit = m[3]
		}
		return value.NewQuantity(amount, unit), true
	}
	return nil, false
}
