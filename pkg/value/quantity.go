package value

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/apd/v3"

	"github.com/sandrolain/gofhirpath/pkg/types"
	"github.com/sandrolain/gofhirpath/pkg/ucum"
)

// Quantity is a decimal amount with a UCUM unit. Calendar keywords such as
// "days" are normalized to their UCUM code on construction.
type Quantity struct {
	Amount Decimal
	Unit   string
}

// NewQuantity returns a quantity with a normalized unit.
func NewQuantity(amount Decimal, unit string) Quantity {
	return Quantity{Amount: amount, Unit: ucum.Normalize(unit)}
}

func (Quantity) TypeName() string { return TypeQuantity }

func (q Quantity) String() string {
	return fmt.Sprintf("%s '%s'", q.Amount, ucum.Normalize(q.Unit))
}

// Canonical converts q into the canonical unit of its dimension.
func (q Quantity) Canonical() (Quantity, error) {
	amt, unit, err := ucum.ToCanonical(q.Amount.dec(), q.Unit)
	if err != nil {
		return Quantity{}, unitError(err)
	}
	return Quantity{Amount: NewDecimal(amt), Unit: unit}, nil
}

// ConvertTo expresses q in unit.
func (q Quantity) ConvertTo(unit string) (Quantity, error) {
	amt, err := ucum.Convert(q.Amount.dec(), q.Unit, unit)
	if err != nil {
		return Quantity{}, unitError(err)
	}
	return Quantity{Amount: NewDecimal(amt), Unit: ucum.Normalize(unit)}, nil
}

// Compatible reports whether q and o share a dimension.
func (q Quantity) Compatible(o Quantity) bool {
	return ucum.Compatible(q.Unit, o.Unit)
}

func unitError(err error) error {
	if errors.Is(err, ucum.ErrIncompatible) {
		return types.NewError(types.ErrUnitsIncompatible, err.Error(), -1).WithCause(err)
	}
	return types.NewError(types.ErrArithmetic, err.Error(), -1).WithCause(err)
}

func quantityEqual(a, b Quantity) bool {
	if !a.Compatible(b) {
		return false
	}
	ca, err := a.Canonical()
	if err != nil {
		return false
	}
	cb, err := b.Canonical()
	if err != nil {
		return false
	}
	return ca.Amount.Cmp(cb.Amount) == 0
}

// quantityEquivalent compares a and b in their canonical unit after rounding
// both to the coarser of the two operands' precision in that unit.
func quantityEquivalent(a, b Quantity) bool {
	if !a.Compatible(b) {
		return false
	}
	ca, pa, err := a.canonicalPrecision()
	if err != nil {
		return false
	}
	cb, pb, err := b.canonicalPrecision()
	if err != nil {
		return false
	}
	return decimalsEquivalent(ca.Amount, cb.Amount, min(pa, pb))
}

// canonicalPrecision returns q in its canonical unit and the decimal places,
// possibly negative, that q's least significant digit spans in that unit.
// 1.1 'kg' is precise to 100 g, so its precision in grams is -2.
func (q Quantity) canonicalPrecision() (Quantity, int, error) {
	c, err := q.Canonical()
	if err != nil {
		return Quantity{}, 0, err
	}
	step, _, err := ucum.ToCanonical(apd.New(1, q.Amount.dec().Exponent), q.Unit)
	if err != nil {
		return Quantity{}, 0, unitError(err)
	}
	adjusted := int64(step.Exponent) + step.NumDigits() - 1
	return c, -int(adjusted), nil
}

func quantityCompare(a, b Quantity) (int, error) {
	if !a.Compatible(b) {
		return 0, types.Errorf(types.ErrUnitsIncompatible, -1,
			"cannot compare quantities in %q and %q", ucum.Normalize(a.Unit), ucum.Normalize(b.Unit))
	}
	ca, err := a.Canonical()
	if err != nil {
		return 0, err
	}
	cb, err := b.Canonical()
	if err != nil {
		return 0, err
	}
	return ca.Amount.Cmp(cb.Amount), nil
}

// decimalsEquivalent compares a and b after rounding both to places decimal places.
func decimalsEquivalent(a, b Decimal, places int) bool {
	ra, err := a.Round(places)
	if err != nil {
		return false
	}
	rb, err := b.Round(places)
	if err != nil {
		return false
	}
	return ra.Cmp(rb) == 0
}
