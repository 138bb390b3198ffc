// Package ucum provides the unit table used for quantity arithmetic and
// comparison.
//
// The table is a deliberately small, explicit subset of UCUM: every unit
// belongs to a dimension and carries a decimal factor relative to the
// canonical unit of that dimension. Units that are not in the table are
// still usable; each one forms a dimension of its own and is only
// compatible with itself.
//
// # Example
//
//	amount, _ := apd.NewFromString("75")
//	grams, err := ucum.Convert(amount, "kg", "g") // 75000
package ucum

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Dimension identifies a physical dimension such as mass or length.
type Dimension string

// Known dimensions.
const (
	Dimensionless Dimension = "dimensionless"
	Mass          Dimension = "mass"
	Length        Dimension = "length"
	Duration      Dimension = "time"
	Volume        Dimension = "volume"
	Pressure      Dimension = "pressure"
	Amount        Dimension = "amount"
)

// ErrIncompatible is returned when converting between units of different dimensions.
var ErrIncompatible = errors.New("ucum: incompatible units")

// Unit describes one entry of the unit table.
type Unit struct {
	Code      string
	Dimension Dimension
	// Factor converts an amount in this unit into the canonical unit of the dimension.
	Factor *apd.Decimal
}

// Known reports whether the unit came from the table.
func (u Unit) Known() bool {
	return !strings.HasPrefix(string(u.Dimension), "unit:")
}

// precision is wide enough to keep conversions between the table's factors exact.
var convCtx = apd.BaseContext.WithPrecision(34)

type entry struct {
	code   string
	dim    Dimension
	factor string
}

// The first unit listed for each dimension is its canonical unit.
var table = []entry{
	{"1", Dimensionless, "1"},
	{"%", Dimensionless, "0.01"},

	{"g", Mass, "1"},
	{"kg", Mass, "1000"},
	{"mg", Mass, "0.001"},
	{"ug", Mass, "0.000001"},
	{"ng", Mass, "0.000000001"},
	{"t", Mass, "1000000"},
	{"[lb_av]", Mass, "453.59237"},
	{"[oz_av]", Mass, "28.349523125"},

	{"m", Length, "1"},
	{"km", Length, "1000"},
	{"cm", Length, "0.01"},
	{"mm", Length, "0.001"},
	{"um", Length, "0.000001"},
	{"[in_i]", Length, "0.0254"},
	{"[ft_i]", Length, "0.3048"},
	{"[yd_i]", Length, "0.9144"},
	{"[mi_i]", Length, "1609.344"},

	{"s", Duration, "1"},
	{"ms", Duration, "0.001"},
	{"min", Duration, "60"},
	{"h", Duration, "3600"},
	{"d", Duration, "86400"},
	{"wk", Duration, "604800"},
	{"mo", Duration, "2629800"},
	{"a", Duration, "31557600"},

	{"L", Volume, "1"},
	{"l", Volume, "1"},
	{"dL", Volume, "0.1"},
	{"cL", Volume, "0.01"},
	{"mL", Volume, "0.001"},
	{"uL", Volume, "0.000001"},
	{"m3", Volume, "1000"},

	{"Pa", Pressure, "1"},
	{"kPa", Pressure, "1000"},
	{"bar", Pressure, "100000"},
	{"mm[Hg]", Pressure, "133.322387415"},

	{"mol", Amount, "1"},
	{"mmol", Amount, "0.001"},
	{"umol", Amount, "0.000001"},
}

var (
	units     map[string]Unit
	canonical map[Dimension]string
)

func init() {
	units = make(map[string]Unit, len(table))
	canonical = make(map[Dimension]string)
	for _, e := range table {
		f, _, err := apd.NewFromString(e.factor)
		if err != nil {
			panic(fmt.Sprintf("ucum: bad factor %q for %q: %v", e.factor, e.code, err))
		}
		units[e.code] = Unit{Code: e.code, Dimension: e.dim, Factor: f}
		if _, ok := canonical[e.dim]; !ok {
			canonical[e.dim] = e.code
		}
	}
}

// calendarUnits maps calendar duration keywords to UCUM codes.
var calendarUnits = map[string]string{
	"year": "a", "years": "a",
	"month": "mo", "months": "mo",
	"week": "wk", "weeks": "wk",
	"day": "d", "days": "d",
	"hour": "h", "hours": "h",
	"minute": "min", "minutes": "min",
	"second": "s", "seconds": "s",
	"millisecond": "ms", "milliseconds": "ms",
}

// CalendarUnit returns the UCUM code for a calendar duration keyword.
func CalendarUnit(keyword string) (string, bool) {
	code, ok := calendarUnits[keyword]
	return code, ok
}

// IsCalendarKeyword reports whether s is a calendar duration keyword.
func IsCalendarKeyword(s string) bool {
	_, ok := calendarUnits[s]
	return ok
}

// Normalize maps calendar keywords to UCUM codes and the empty unit to "1".
func Normalize(code string) string {
	if code == "" {
		return "1"
	}
	if c, ok := calendarUnits[code]; ok {
		return c
	}
	return code
}

// Lookup returns the table entry for code.
func Lookup(code string) (Unit, bool) {
	u, ok := units[Normalize(code)]
	return u, ok
}

// Resolve returns the table entry for code, or a unit forming its own
// dimension when code is not in the table.
func Resolve(code string) Unit {
	code = Normalize(code)
	if u, ok := units[code]; ok {
		return u
	}
	return Unit{Code: code, Dimension: Dimension("unit:" + code), Factor: apd.New(1, 0)}
}

// Compatible reports whether two units share a dimension.
func Compatible(a, b string) bool {
	return Resolve(a).Dimension == Resolve(b).Dimension
}

// CanonicalUnit returns the canonical unit code for the dimension of code.
func CanonicalUnit(code string) string {
	u := Resolve(code)
	if c, ok := canonical[u.Dimension]; ok {
		return c
	}
	return u.Code
}

// Convert converts amount from one unit into another. It returns
// ErrIncompatible when the units belong to different dimensions.
func Convert(amount *apd.Decimal, from, to string) (*apd.Decimal, error) {
	fu, tu := Resolve(from), Resolve(to)
	if fu.Dimension != tu.Dimension {
		return nil, fmt.Errorf("%w: %q and %q", ErrIncompatible, fu.Code, tu.Code)
	}
	if fu.Code == tu.Code {
		return new(apd.Decimal).Set(amount), nil
	}
	var scaled, res apd.Decimal
	if _, err := convCtx.Mul(&scaled, amount, fu.Factor); err != nil {
		return nil, fmt.Errorf("ucum: converting %s %q to %q: %w", amount, fu.Code, tu.Code, err)
	}
	if _, err := convCtx.Quo(&res, &scaled, tu.Factor); err != nil {
		return nil, fmt.Errorf("ucum: converting %s %q to %q: %w", amount, fu.Code, tu.Code, err)
	}
	res.Reduce(&res)
	return &res, nil
}

// ToCanonical converts amount into the canonical unit of its dimension.
func ToCanonical(amount *apd.Decimal, from string) (*apd.Decimal, string, error) {
	to := CanonicalUnit(from)
	res, err := Convert(amount, from, to)
	if err != nil {
		return nil, "", err
	}
	return res, to, nil
}
