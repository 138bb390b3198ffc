package node_test

import (
	"testing"

	"github.com/sandrolain/gofhirpath/pkg/node"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

type source struct{ id string }

func identifier(system, val string) *node.Element {
	return node.NewComplex("identifier", "Identifier", []node.TypedNode{
		node.NewPrimitive("system", "uri", value.String(system)),
		node.NewPrimitive("value", "string", value.String(val)),
	})
}

func samplePatient() node.TypedNode {
	return node.NewComplex("", "Patient", []node.TypedNode{
		node.NewPrimitive("id", "id", value.String("p1")),
		identifier("urn:a", "1"),
		identifier("urn:a", "2"),
		nil,
	}, source{id: "p1"}).WithBases("DomainResource", "Resource")
}

func TestElementChildren(t *testing.T) {
	p := samplePatient()
	if got := len(p.Children("")); got != 3 {
		t.Fatalf("Children(\"\") = %d nodes, want 3", got)
	}
	ids := p.Children("identifier")
	if len(ids) != 2 {
		t.Fatalf("Children(identifier) = %d nodes, want 2", len(ids))
	}
	if v := ids[1].Children("value")[0].Primitive(); v != value.String("2") {
		t.Errorf("second identifier value = %v", v)
	}
	if len(p.Children("missing")) != 0 {
		t.Error("unknown child name returned nodes")
	}
	if p.Primitive() != nil {
		t.Error("complex node has a primitive")
	}
	if p.String() != "Patient" {
		t.Errorf("String() = %q", p.String())
	}
}

func TestIsA(t *testing.T) {
	p := samplePatient()
	for _, name := range []string{"Patient", "Resource", "FHIR.DomainResource"} {
		if !node.IsA(p, name) {
			t.Errorf("IsA(%q) = false", name)
		}
	}
	if node.IsA(p, "Observation") {
		t.Error("IsA(Observation) = true")
	}
	id := p.Children("id")[0]
	if !node.IsA(id, "id") || !node.IsA(id, "System.String") {
		t.Error("primitive node does not match its node and system types")
	}
	if !node.IsA(value.Integer(1), "Integer") {
		t.Error("Integer is not an Integer")
	}
}

func TestAnnotationOf(t *testing.T) {
	p := samplePatient()
	src, ok := node.AnnotationOf[source](p)
	if !ok || src.id != "p1" {
		t.Errorf("AnnotationOf = (%v, %v)", src, ok)
	}
	if _, ok := node.AnnotationOf[node.Location](p); ok {
		t.Error("found an annotation that was never attached")
	}
	extra := node.NewPrimitive("x", "string", value.String("x")).WithAnnotations(node.Location{Path: "X.x"})
	if loc, ok := node.AnnotationOf[node.Location](extra); !ok || loc.Path != "X.x" {
		t.Errorf("WithAnnotations lost the annotation: %v", loc)
	}
}

func TestDescendants(t *testing.T) {
	var names []string
	for _, d := range node.Descendants(samplePatient()) {
		names = append(names, d.Name())
	}
	want := []string{"id", "identifier", "system", "value", "identifier", "system", "value"}
	if len(names) != len(want) {
		t.Fatalf("Descendants = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Descendants = %v, want %v", names, want)
		}
	}
}

func TestStructuralEquality(t *testing.T) {
	a, b, c := identifier("urn:a", "1"), identifier("urn:a", "1"), identifier("urn:a", "2")
	if eq, ok := node.Equal(a, b); !eq || !ok {
		t.Error("identical identifiers are not equal")
	}
	if eq, _ := node.Equal(a, c); eq {
		t.Error("different identifiers are equal")
	}
	if eq, _ := value.Equal(a, b); !eq {
		t.Error("value.Equal does not delegate to the node")
	}
	if !value.Of(a, c).IsDistinct() || value.Of(a, b).IsDistinct() {
		t.Error("IsDistinct does not use structural equality")
	}
	upper := identifier("URN:A", "1")
	if !node.Equivalent(a, upper) {
		t.Error("identifiers differing in case are not equivalent")
	}
	prim := node.NewPrimitive("value", "string", value.String("1"))
	if eq, _ := value.Equal(prim, value.String("1")); !eq {
		t.Error("primitive node is not equal to its value")
	}
}

func TestToQuantity(t *testing.T) {
	q := node.NewComplex("value", "Quantity", []node.TypedNode{
		node.NewPrimitive("value", "decimal", value.MustDecimal("75")),
		node.NewPrimitive("unit", "string", value.String("kilogram")),
		node.NewPrimitive("code", "code", value.String("kg")),
	})
	got, ok := node.ToQuantity(q)
	if !ok {
		t.Fatal("ToQuantity failed")
	}
	if got.String() != "75 'kg'" {
		t.Errorf("ToQuantity = %s", got)
	}
	if eq, _ := value.Equal(q, value.NewQuantity(value.MustDecimal("75000"), "g")); !eq {
		t.Error("Quantity node is not equal to the converted quantity")
	}
	if _, ok := node.ToQuantity(identifier("a", "b")); ok {
		t.Error("ToQuantity accepted an Identifier")
	}
}

// hostNode is a TypedNode implemented outside this package, without
// value.Equaler.
type hostNode struct {
	name     string
	typeName string
	prim     value.Value
	children []node.TypedNode
}

func (h *hostNode) TypeName() string       { return h.typeName }
func (h *hostNode) String() string         { return h.typeName }
func (h *hostNode) Name() string           { return h.name }
func (h *hostNode) Primitive() value.Value { return h.prim }
func (h *hostNode) Annotations() []any     { return nil }

func (h *hostNode) Children(name string) []node.TypedNode {
	if name == "" {
		return h.children
	}
	var out []node.TypedNode
	for _, c := range h.children {
		if c.Name() == name {
			out = append(out, c)
		}
	}
	return out
}

func hostCoding(code string) *hostNode {
	return &hostNode{name: "coding", typeName: "Coding", children: []node.TypedNode{
		&hostNode{name: "code", typeName: "code", prim: value.String(code)},
	}}
}

func TestHostNodeSetOperations(t *testing.T) {
	a, b, c := hostCoding("x"), hostCoding("x"), hostCoding("y")

	if eq, ok := value.Equal(a, a); !eq || !ok {
		t.Error("host node is not equal to itself")
	}
	if eq, ok := value.Equal(a, b); !eq || !ok {
		t.Error("structurally identical host nodes are not equal")
	}
	if eq, _ := value.Equal(a, c); eq {
		t.Error("different host nodes are equal")
	}
	if !value.Equivalent(a, hostCoding("X")) {
		t.Error("host nodes differing in case are not equivalent")
	}

	seq := value.Of(a, b, a)
	if seq.IsDistinct() {
		t.Error("IsDistinct() = true for repeated host nodes")
	}
	if got := len(seq.Distinct()); got != 1 {
		t.Errorf("len(Distinct()) = %d, want 1", got)
	}
	if got := len(value.Of(a, c).Union(value.Of(b))); got != 2 {
		t.Errorf("len(Union()) = %d, want 2", got)
	}
	if got := len(value.Of(a, c).Intersect(value.Of(b))); got != 1 {
		t.Errorf("len(Intersect()) = %d, want 1", got)
	}
	if got := len(value.Of(a, c, b).Exclude(value.Of(b))); got != 1 {
		t.Errorf("len(Exclude()) = %d, want 1", got)
	}
}
