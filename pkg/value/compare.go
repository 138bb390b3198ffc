package value

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/sandrolain/gofhirpath/pkg/types"
)

// Promote applies the implicit conversion table to a pair of operands:
//
//	Integer  + Decimal  -> Decimal
//	Integer  + Quantity -> Quantity with unit '1'
//	Decimal  + Quantity -> Quantity with unit '1'
//	Date     + DateTime -> DateTime
//
// Tree nodes carrying a primitive are unwrapped first. Any other pair is
// returned unchanged.
func Promote(a, b Value) (Value, Value) {
	a, b = Unwrap(a), Unwrap(b)
	return promoteOne(a, b), promoteOne(b, a)
}

func promoteOne(v, other Value) Value {
	switch x := v.(type) {
	case Integer:
		switch other.(type) {
		case Decimal:
			return DecimalFromInt(int64(x))
		case Quantity:
			return Quantity{Amount: DecimalFromInt(int64(x)), Unit: "1"}
		}
	case Decimal:
		if _, ok := other.(Quantity); ok {
			return Quantity{Amount: x, Unit: "1"}
		}
	case Date:
		if _, ok := other.(DateTime); ok {
			return x.ToDateTime()
		}
	}
	return v
}

// Equal reports whether a and b are equal. ok is false when equality is
// undecidable, for instance between dates of different precision; callers
// treat that as an empty result. Values of unrelated types are not equal.
func Equal(a, b Value) (eq bool, ok bool) {
	if e, isEq := a.(Equaler); isEq {
		return e.EqualValue(b)
	}
	if e, isEq := b.(Equaler); isEq {
		return e.EqualValue(a)
	}
	if structural != nil {
		if eq, ok, handled := structural.Equal(a, b); handled {
			return eq, ok
		}
	}
	a, b = Promote(a, b)
	switch x := a.(type) {
	case String:
		y, same := b.(String)
		return same && x == y, true
	case Boolean:
		y, same := b.(Boolean)
		return same && x == y, true
	case Integer:
		y, same := b.(Integer)
		return same && x == y, true
	case Decimal:
		y, same := b.(Decimal)
		return same && x.Cmp(y) == 0, true
	case Quantity:
		y, same := b.(Quantity)
		return same && quantityEqual(x, y), true
	case Date:
		if y, same := b.(Date); same {
			c, ok := compareTemporal(x.t, x.prec, y.t, y.prec)
			return c == 0, ok
		}
	case DateTime:
		if y, same := b.(DateTime); same {
			c, ok := compareTemporal(x.t, x.prec, y.t, y.prec)
			return c == 0, ok
		}
	case Time:
		if y, same := b.(Time); same {
			c, ok := compareTemporal(x.t, x.prec, y.t, y.prec)
			return c == 0, ok
		}
	}
	return false, true
}

// normalizeString folds case, composes to NFC and collapses whitespace runs.
// A Caser keeps state, so each call builds its own.
func normalizeString(s string) string {
	s = norm.NFC.String(cases.Fold().String(s))
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// Equivalent reports whether a and b are equivalent: strings ignoring case
// and whitespace differences, decimals and quantities rounded to the
// coarser precision, dates of different precision never equivalent.
func Equivalent(a, b Value) bool {
	if e, isEq := a.(Equaler); isEq {
		return e.EquivalentValue(b)
	}
	if e, isEq := b.(Equaler); isEq {
		return e.EquivalentValue(a)
	}
	if structural != nil {
		if eq, handled := structural.Equivalent(a, b); handled {
			return eq
		}
	}
	a, b = Promote(a, b)
	switch x := a.(type) {
	case String:
		y, same := b.(String)
		return same && normalizeString(string(x)) == normalizeString(string(y))
	case Decimal:
		y, same := b.(Decimal)
		return same && decimalsEquivalent(x, y, min(x.Scale(), y.Scale()))
	case Quantity:
		y, same := b.(Quantity)
		return same && quantityEquivalent(x, y)
	}
	eq, ok := Equal(a, b)
	return ok && eq
}

// Compare orders a and b. ok is false when the order is undecidable, such as
// dates of different precision. Comparing values of unrelated types is an
// invalid operation; comparing quantities of different dimensions is an
// incompatible-units error.
func Compare(a, b Value) (c int, ok bool, err error) {
	a, b = Promote(a, b)
	switch x := a.(type) {
	case Integer:
		if y, same := b.(Integer); same {
			switch {
			case x < y:
				return -1, true, nil
			case x > y:
				return 1, true, nil
			}
			return 0, true, nil
		}
	case Decimal:
		if y, same := b.(Decimal); same {
			return x.Cmp(y), true, nil
		}
	case String:
		if y, same := b.(String); same {
			return strings.Compare(string(x), string(y)), true, nil
		}
	case Quantity:
		if y, same := b.(Quantity); same {
			c, err := quantityCompare(x, y)
			if err != nil {
				return 0, false, err
			}
			return c, true, nil
		}
	case Date:
		if y, same := b.(Date); same {
			c, ok := compareTemporal(x.t, x.prec, y.t, y.prec)
			return c, ok, nil
		}
	case DateTime:
		if y, same := b.(DateTime); same {
			c, ok := compareTemporal(x.t, x.prec, y.t, y.prec)
			return c, ok, nil
		}
	case Time:
		if y, same := b.(Time); same {
			c, ok := compareTemporal(x.t, x.prec, y.t, y.prec)
			return c, ok, nil
		}
	}
	return 0, false, types.Errorf(types.ErrInvalidTypeOperation, -1,
		"cannot compare %s and %s", a.TypeName(), b.TypeName())
}
