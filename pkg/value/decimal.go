package value

import (
	"github.com/cockroachdb/apd/v3"

	"github.com/sandrolain/gofhirpath/pkg/types"
)

// DecimalPrecision is the number of significant digits kept by decimal arithmetic.
const DecimalPrecision = 34

var decCtx = apd.BaseContext.WithPrecision(DecimalPrecision)

// Decimal is an arbitrary-precision system decimal. The zero Decimal is 0.
type Decimal struct {
	v *apd.Decimal
}

// NewDecimal wraps d. The caller must not modify d afterwards.
func NewDecimal(d *apd.Decimal) Decimal {
	return Decimal{v: d}
}

// DecimalFromInt returns the decimal value of i.
func DecimalFromInt(i int64) Decimal {
	return Decimal{v: apd.New(i, 0)}
}

// ParseDecimal parses a decimal literal such as "1.50".
func ParseDecimal(s string) (Decimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return Decimal{}, types.Errorf(types.ErrCannotConvert, -1, "invalid decimal %q", s).WithCause(err)
	}
	if d.Form != apd.Finite {
		return Decimal{}, types.Errorf(types.ErrCannotConvert, -1, "invalid decimal %q", s)
	}
	return Decimal{v: d}, nil
}

// MustDecimal is like ParseDecimal but panics on error.
func MustDecimal(s string) Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Decimal) dec() *apd.Decimal {
	if d.v == nil {
		return apd.New(0, 0)
	}
	return d.v
}

// APD returns a copy of the underlying decimal.
func (d Decimal) APD() *apd.Decimal {
	return new(apd.Decimal).Set(d.dec())
}

func (Decimal) TypeName() string { return TypeDecimal }

func (d Decimal) String() string {
	return d.dec().Text('f')
}

// Cmp compares d and o numerically.
func (d Decimal) Cmp(o Decimal) int {
	return d.dec().Cmp(o.dec())
}

// IsZero reports whether d is zero.
func (d Decimal) IsZero() bool {
	return d.dec().IsZero()
}

// Scale returns the number of digits after the decimal point.
func (d Decimal) Scale() int {
	if e := d.dec().Exponent; e < 0 {
		return int(-e)
	}
	return 0
}

// Round rounds d half-up to the given number of decimal places.
func (d Decimal) Round(places int) (Decimal, error) {
	var res apd.Decimal
	c := decCtx.WithPrecision(DecimalPrecision)
	c.Rounding = apd.RoundHalfUp
	if _, err := c.Quantize(&res, d.dec(), int32(-places)); err != nil {
		return Decimal{}, types.Errorf(types.ErrArithmetic, -1, "cannot round %s", d).WithCause(err)
	}
	return Decimal{v: &res}, nil
}

// Int64 returns d as an integer when it has no fractional part.
func (d Decimal) Int64() (int64, bool) {
	var integ, frac apd.Decimal
	d.dec().Modf(&integ, &frac)
	if !frac.IsZero() {
		return 0, false
	}
	i, err := integ.Int64()
	if err != nil {
		return 0, false
	}
	return i, true
}

// Truncate drops the fractional part of d.
func (d Decimal) Truncate() Decimal {
	var integ, frac apd.Decimal
	d.dec().Modf(&integ, &frac)
	return Decimal{v: &integ}
}

type decimalOp func(res, x, y *apd.Decimal) (apd.Condition, error)

func (d Decimal) apply(name string, o Decimal, op decimalOp) (Decimal, error) {
	var res apd.Decimal
	if _, err := op(&res, d.dec(), o.dec()); err != nil {
		return Decimal{}, types.Errorf(types.ErrArithmetic, -1, "%s %s %s", d, name, o).WithCause(err)
	}
	return Decimal{v: &res}, nil
}

// Add returns d + o.
func (d Decimal) Add(o Decimal) (Decimal, error) { return d.apply("+", o, decCtx.Add) }

// Sub returns d - o.
func (d Decimal) Sub(o Decimal) (Decimal, error) { return d.apply("-", o, decCtx.Sub) }

// Mul returns d * o.
func (d Decimal) Mul(o Decimal) (Decimal, error) { return d.apply("*", o, decCtx.Mul) }

// Quo returns d / o. The caller handles division by zero.
func (d Decimal) Quo(o Decimal) (Decimal, error) {
	q, err := d.apply("/", o, decCtx.Quo)
	if err != nil {
		return q, err
	}
	q.v.Reduce(q.v)
	return q, nil
}

// QuoInteger returns the integer part of d / o.
func (d Decimal) QuoInteger(o Decimal) (Decimal, error) {
	return d.apply("div", o, decCtx.QuoInteger)
}

// Rem returns the remainder of d / o.
func (d Decimal) Rem(o Decimal) (Decimal, error) { return d.apply("mod", o, decCtx.Rem) }

// Neg returns -d.
func (d Decimal) Neg() Decimal {
	var res apd.Decimal
	res.Neg(d.dec())
	return Decimal{v: &res}
}
