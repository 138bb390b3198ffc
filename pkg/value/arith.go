package value

import (
	"time"

	"fortio.org/safecast"

	"github.com/sandrolain/gofhirpath/pkg/types"
	"github.com/sandrolain/gofhirpath/pkg/ucum"
)

// Arithmetic applies a binary arithmetic operator (+ - * / div mod) to two
// promoted operands. A nil result with a nil error means the result is
// empty, as for division by zero.
func Arithmetic(op string, a, b Value) (Value, error) {
	a, b = Promote(a, b)
	switch x := a.(type) {
	case Integer:
		if y, ok := b.(Integer); ok {
			return integerArith(op, x, y)
		}
	case Decimal:
		if y, ok := b.(Decimal); ok {
			return decimalArith(op, x, y)
		}
	case String:
		if y, ok := b.(String); ok && op == "+" {
			return x + y, nil
		}
	case Quantity:
		return quantityArith(op, x, b)
	case Date:
		if y, ok := b.(Quantity); ok && (op == "+" || op == "-") {
			t, err := shift(x.t, op, y)
			if err != nil {
				return nil, err
			}
			return Date{t: t, prec: x.prec}, nil
		}
	case DateTime:
		if y, ok := b.(Quantity); ok && (op == "+" || op == "-") {
			t, err := shift(x.t, op, y)
			if err != nil {
				return nil, err
			}
			return DateTime{t: t, prec: x.prec, hasTZ: x.hasTZ}, nil
		}
	case Time:
		if y, ok := b.(Quantity); ok && (op == "+" || op == "-") {
			t, err := shift(x.t, op, y)
			if err != nil {
				return nil, err
			}
			return Time{t: t, prec: x.prec}, nil
		}
	}
	return nil, types.Errorf(types.ErrInvalidTypeOperation, -1,
		"operator %s is not defined for %s and %s", op, a.TypeName(), b.TypeName())
}

func shift(t time.Time, op string, q Quantity) (time.Time, error) {
	amount := q.Amount
	if op == "-" {
		amount = amount.Neg()
	}
	return addDuration(t, amount, ucum.Normalize(q.Unit))
}

func integerArith(op string, x, y Integer) (Value, error) {
	a, b := int64(x), int64(y)
	var r int64
	switch op {
	case "+":
		r = a + b
	case "-":
		r = a - b
	case "*":
		r = a * b
	case "/":
		if b == 0 {
			return nil, nil
		}
		return decimalArith(op, DecimalFromInt(a), DecimalFromInt(b))
	case "div":
		if b == 0 {
			return nil, nil
		}
		r = a / b
	case "mod":
		if b == 0 {
			return nil, nil
		}
		r = a % b
	default:
		return nil, types.Errorf(types.ErrUnknownOperator, -1, "unknown operator %s", op)
	}
	n, err := safecast.Conv[int32](r)
	if err != nil {
		return nil, types.Errorf(types.ErrArithmetic, -1, "integer overflow in %d %s %d", a, op, b).WithCause(err)
	}
	return Integer(n), nil
}

func decimalArith(op string, x, y Decimal) (Value, error) {
	switch op {
	case "+":
		return wrapDecimal(x.Add(y))
	case "-":
		return wrapDecimal(x.Sub(y))
	case "*":
		return wrapDecimal(x.Mul(y))
	case "/":
		if y.IsZero() {
			return nil, nil
		}
		return wrapDecimal(x.Quo(y))
	case "div":
		if y.IsZero() {
			return nil, nil
		}
		q, err := x.QuoInteger(y)
		if err != nil {
			return nil, err
		}
		i, ok := q.Int64()
		if !ok {
			return nil, types.Errorf(types.ErrArithmetic, -1, "%s div %s is out of range", x, y)
		}
		n, err := safecast.Conv[int32](i)
		if err != nil {
			return nil, types.Errorf(types.ErrArithmetic, -1, "%s div %s is out of range", x, y).WithCause(err)
		}
		return Integer(n), nil
	case "mod":
		if y.IsZero() {
			return nil, nil
		}
		return wrapDecimal(x.Rem(y))
	}
	return nil, types.Errorf(types.ErrUnknownOperator, -1, "unknown operator %s", op)
}

func wrapDecimal(d Decimal, err error) (Value, error) {
	if err != nil {
		return nil, err
	}
	return d, nil
}

func quantityArith(op string, x Quantity, b Value) (Value, error) {
	switch y := b.(type) {
	case Quantity:
		switch op {
		case "+", "-":
			ry, err := y.ConvertTo(x.Unit)
			if err != nil {
				return nil, err
			}
			amt, err := decimalArith(op, x.Amount, ry.Amount)
			if err != nil {
				return nil, err
			}
			return Quantity{Amount: amt.(Decimal), Unit: ucum.Normalize(x.Unit)}, nil
		case "*", "/":
			// Only dimensionless factors are supported for products of quantities.
			if ucum.Normalize(y.Unit) == "1" {
				return quantityArith(op, x, y.Amount)
			}
			if ucum.Normalize(x.Unit) == "1" && op == "*" {
				return quantityArith(op, y, x.Amount)
			}
		}
	case Decimal:
		if op == "*" || op == "/" {
			amt, err := decimalArith(op, x.Amount, y)
			if err != nil || amt == nil {
				return nil, err
			}
			return Quantity{Amount: amt.(Decimal), Unit: ucum.Normalize(x.Unit)}, nil
		}
	case Integer:
		return quantityArith(op, x, DecimalFromInt(int64(y)))
	}
	return nil, types.Errorf(types.ErrInvalidTypeOperation, -1,
		"operator %s is not defined for Quantity and %s", op, b.TypeName())
}

// Negate returns -v for numbers and quantities.
func Negate(v Value) (Value, error) {
	switch x := Unwrap(v).(type) {
	case Integer:
		n, err := safecast.Conv[int32](-int64(x))
		if err != nil {
			return nil, types.Errorf(types.ErrArithmetic, -1, "integer overflow negating %d", x).WithCause(err)
		}
		return Integer(n), nil
	case Decimal:
		return x.Neg(), nil
	case Quantity:
		return Quantity{Amount: x.Amount.Neg(), Unit: x.Unit}, nil
	}
	return nil, types.Errorf(types.ErrInvalidTypeOperation, -1, "cannot negate %s", v.TypeName())
}
