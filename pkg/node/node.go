// Package node defines the typed tree that path expressions navigate.
//
// A tree is made of [TypedNode] values. Each node has a runtime type name, an
// optional primitive value and an ordered list of named children. Hosts can
// implement TypedNode over their own data; [Element] is a ready-made
// immutable implementation, and [Decode] builds Element trees from YAML or
// JSON documents.
//
// Nodes may carry annotations: opaque capability objects attached by the
// host (for example a pointer back to the domain object the node was built
// from). Annotations never influence evaluation; they are only surfaced to
// diagnostic hooks through [AnnotationOf].
package node

import (
	"strings"

	"github.com/sandrolain/gofhirpath/pkg/value"
)

func init() {
	value.RegisterStructural(structural{})
}

// structural routes value.Equal and value.Equivalent to the tree rules
// whenever a node is involved, so that distinct(), union() and the other set
// operations agree with = and ~ on host nodes.
type structural struct{}

func (structural) Equal(a, b value.Value) (eq, ok, handled bool) {
	if !isNode(a) && !isNode(b) {
		return false, false, false
	}
	eq, ok = Equal(a, b)
	return eq, ok, true
}

func (structural) Equivalent(a, b value.Value) (eq, handled bool) {
	if !isNode(a) && !isNode(b) {
		return false, false
	}
	return Equivalent(a, b), true
}

func isNode(v value.Value) bool {
	_, ok := v.(TypedNode)
	return ok
}

// TypedNode is a node of a typed tree. Implementations must be immutable
// and safe for concurrent reads.
type TypedNode interface {
	value.Value
	// Name is the field name under the parent, or "" for a root.
	Name() string
	// Primitive returns the system value of a primitive node, nil otherwise.
	Primitive() value.Value
	// Children returns the children with the given field name in document
	// order. An empty name returns every child.
	Children(name string) []TypedNode
	// Annotations returns the capability objects attached to the node.
	Annotations() []any
}

// TypeHierarchy is implemented by nodes whose type derives from other types.
type TypeHierarchy interface {
	BaseTypes() []string
}

// AnnotationOf returns the first annotation of n assignable to T.
func AnnotationOf[T any](n TypedNode) (T, bool) {
	for _, a := range n.Annotations() {
		if t, ok := a.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// Location is attached by Decode to every node it builds.
type Location struct {
	Path string
}

// IsA reports whether v has the named type. A "System." or "FHIR." prefix
// is ignored. Nodes match their runtime type and base types; a primitive
// node also matches the system type of its value.
func IsA(v value.Value, typeName string) bool {
	typeName = strings.TrimPrefix(strings.TrimPrefix(typeName, "System."), "FHIR.")
	if v.TypeName() == typeName {
		return true
	}
	if h, ok := v.(TypeHierarchy); ok {
		for _, b := range h.BaseTypes() {
			if b == typeName {
				return true
			}
		}
	}
	if n, ok := v.(TypedNode); ok {
		if p := n.Primitive(); p != nil {
			return p.TypeName() == typeName
		}
	}
	return false
}

// Descendants returns every node below n in pre-order, excluding n.
func Descendants(n TypedNode) []TypedNode {
	var out []TypedNode
	var walk func(TypedNode)
	walk = func(cur TypedNode) {
		for _, c := range cur.Children("") {
			out = append(out, c)
			walk(c)
		}
	}
	walk(n)
	return out
}

// ToQuantity converts a Quantity-typed complex node into a value.Quantity
// built from its value child and its code child, falling back to unit.
func ToQuantity(n TypedNode) (value.Quantity, bool) {
	if n.Primitive() != nil || !IsA(n, value.TypeQuantity) {
		return value.Quantity{}, false
	}
	var amount value.Decimal
	switch v := firstPrimitive(n, "value").(type) {
	case value.Decimal:
		amount = v
	case value.Integer:
		amount = value.DecimalFromInt(int64(v))
	default:
		return value.Quantity{}, false
	}
	unit := "1"
	for _, field := range []string{"code", "unit"} {
		if s, ok := firstPrimitive(n, field).(value.String); ok && s != "" {
			unit = string(s)
			break
		}
	}
	return value.NewQuantity(amount, unit), true
}

func firstPrimitive(n TypedNode, name string) value.Value {
	cs := n.Children(name)
	if len(cs) == 0 {
		return nil
	}
	return cs[0].Primitive()
}

// Comparable returns the value v is compared as: the primitive of a
// primitive node, the quantity of a Quantity-typed node, or v itself.
func Comparable(v value.Value) value.Value {
	n, ok := v.(TypedNode)
	if !ok {
		return v
	}
	if p := n.Primitive(); p != nil {
		return p
	}
	if q, ok := ToQuantity(n); ok {
		return q
	}
	return v
}

// Equal compares a and b. Primitive and Quantity nodes compare by value;
// other nodes compare structurally by type name and children, in order.
func Equal(a, b value.Value) (eq bool, ok bool) {
	a, b = Comparable(a), Comparable(b)
	na, aNode := a.(TypedNode)
	nb, bNode := b.(TypedNode)
	switch {
	case !aNode && !bNode:
		return value.Equal(a, b)
	case aNode != bNode:
		return false, true
	}
	if na.TypeName() != nb.TypeName() {
		return false, true
	}
	ca, cb := na.Children(""), nb.Children("")
	if len(ca) != len(cb) {
		return false, true
	}
	for i := range ca {
		if ca[i].Name() != cb[i].Name() {
			return false, true
		}
		eq, ok := Equal(ca[i], cb[i])
		if !ok || !eq {
			return false, ok
		}
	}
	return true, true
}

// Equivalent is the equivalence counterpart of Equal.
func Equivalent(a, b value.Value) bool {
	a, b = Comparable(a), Comparable(b)
	na, aNode := a.(TypedNode)
	nb, bNode := b.(TypedNode)
	switch {
	case !aNode && !bNode:
		return value.Equivalent(a, b)
	case aNode != bNode:
		return false
	}
	if na.TypeName() != nb.TypeName() {
		return false
	}
	ca, cb := na.Children(""), nb.Children("")
	if len(ca) != len(cb) {
		return false
	}
	for i := range ca {
		if ca[i].Name() != cb[i].Name() || !Equivalent(ca[i], cb[i]) {
			return false
		}
	}
	return true
}
