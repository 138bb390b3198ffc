// Package value defines the values produced by path evaluation.
//
// Every evaluation result is a [Sequence]: an ordered, possibly empty list of
// values. Primitive values are the system types [String], [Boolean],
// [Integer], [Decimal], [Date], [Time], [DateTime] and [Quantity]; tree nodes
// from package node are values too.
//
// Values are immutable. Functions in this package never modify their
// arguments, so values may be shared freely between goroutines.
package value

import (
	"strconv"
	"strings"
)

// Value is a single element of a Sequence.
type Value interface {
	// TypeName returns the runtime type name, e.g. "Integer" or "Patient".
	TypeName() string
	String() string
}

// Primitiver is implemented by tree nodes that may carry a primitive value.
type Primitiver interface {
	Primitive() Value
}

// Equaler is implemented by values that define their own equality, such as
// structured tree nodes. ok is false when equality cannot be decided.
type Equaler interface {
	EqualValue(other Value) (eq bool, ok bool)
	EquivalentValue(other Value) bool
}

// Structural supplies equality for values this package cannot look into,
// such as tree nodes. handled is false when neither operand is such a value,
// in which case the built-in rules apply.
type Structural interface {
	Equal(a, b Value) (eq, ok, handled bool)
	Equivalent(a, b Value) (eq, handled bool)
}

var structural Structural

// RegisterStructural installs s for Equal, Equivalent and the set operations
// of Sequence. It must be called during package initialization.
func RegisterStructural(s Structural) {
	structural = s
}

// System type names.
const (
	TypeString   = "String"
	TypeBoolean  = "Boolean"
	TypeInteger  = "Integer"
	TypeDecimal  = "Decimal"
	TypeDate     = "Date"
	TypeDateTime = "DateTime"
	TypeTime     = "Time"
	TypeQuantity = "Quantity"
)

// String is a system string.
type String string

func (String) TypeName() string  { return TypeString }
func (s String) String() string { return string(s) }

// Boolean is a system boolean.
type Boolean bool

func (Boolean) TypeName() string { return TypeBoolean }
func (b Boolean) String() string {
	return strconv.FormatBool(bool(b))
}

// Integer is a 32-bit system integer.
type Integer int32

func (Integer) TypeName() string { return TypeInteger }
func (i Integer) String() string {
	return strconv.FormatInt(int64(i), 10)
}

// Unwrap returns the primitive value carried by a tree node, or v itself.
func Unwrap(v Value) Value {
	if p, ok := v.(Primitiver); ok {
		if prim := p.Primitive(); prim != nil {
			return prim
		}
	}
	return v
}

// Sequence is an ordered collection of values. The empty sequence is a
// valid result and is distinct from an error.
type Sequence []Value

// Of builds a Sequence from values.
func Of(vs ...Value) Sequence {
	return Sequence(vs)
}

// Empty reports whether the sequence has no elements.
func (s Sequence) Empty() bool {
	return len(s) == 0
}

// Single returns the only element of s.
func (s Sequence) Single() (Value, bool) {
	if len(s) != 1 {
		return nil, false
	}
	return s[0], true
}

// Combine returns the concatenation of s and other, keeping order and duplicates.
func (s Sequence) Combine(other Sequence) Sequence {
	out := make(Sequence, 0, len(s)+len(other))
	out = append(out, s...)
	return append(out, other...)
}

// Distinct returns s without duplicates, keeping the first occurrence of each value.
func (s Sequence) Distinct() Sequence {
	out := make(Sequence, 0, len(s))
	for _, v := range s {
		if !out.Contains(v) {
			out = append(out, v)
		}
	}
	return out
}

// IsDistinct reports whether no two elements of s are equal.
func (s Sequence) IsDistinct() bool {
	for i := 1; i < len(s); i++ {
		if s[:i].Contains(s[i]) {
			return false
		}
	}
	return true
}

// Contains reports whether some element of s equals v.
func (s Sequence) Contains(v Value) bool {
	for _, e := range s {
		if eq, ok := Equal(e, v); ok && eq {
			return true
		}
	}
	return false
}

// Union returns the distinct elements of s followed by those of other.
func (s Sequence) Union(other Sequence) Sequence {
	return s.Combine(other).Distinct()
}

// Intersect returns the distinct elements of s that also appear in other.
func (s Sequence) Intersect(other Sequence) Sequence {
	out := make(Sequence, 0, len(s))
	for _, v := range s {
		if other.Contains(v) && !out.Contains(v) {
			out = append(out, v)
		}
	}
	return out
}

// Exclude returns the elements of s that do not appear in other, keeping duplicates.
func (s Sequence) Exclude(other Sequence) Sequence {
	out := make(Sequence, 0, len(s))
	for _, v := range s {
		if !other.Contains(v) {
			out = append(out, v)
		}
	}
	return out
}

// String renders the sequence as a bracketed, comma-separated list.
func (s Sequence) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range s {
		if i > 0 {
			b.WriteString(", ")
		}
		if str, ok := v.(String); ok {
			b.WriteString(strconv.Quote(string(str)))
			continue
		}
		b.WriteString(v.String())
	}
	b.WriteByte(']')
	return b.String()
}
