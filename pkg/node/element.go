package node

import "github.com/sandrolain/gofhirpath/pkg/value"

// Element is an immutable TypedNode. Elements are assembled bottom-up with
// NewPrimitive and NewComplex; the With* methods return modified copies.
type Element struct {
	name        string
	typeName    string
	bases       []string
	prim        value.Value
	children    []TypedNode
	byName      map[string][]TypedNode
	annotations []any
}

var (
	_ TypedNode     = (*Element)(nil)
	_ TypeHierarchy = (*Element)(nil)
	_ value.Equaler = (*Element)(nil)
)

// NewPrimitive returns a leaf node carrying v.
func NewPrimitive(name, typeName string, v value.Value, annotations ...any) *Element {
	return &Element{
		name:        name,
		typeName:    typeName,
		prim:        v,
		annotations: annotations,
	}
}

// NewComplex returns a node with the given children. Children keep their
// order; nil entries are skipped.
func NewComplex(name, typeName string, children []TypedNode, annotations ...any) *Element {
	e := &Element{
		name:        name,
		typeName:    typeName,
		annotations: annotations,
	}
	e.children = make([]TypedNode, 0, len(children))
	e.byName = make(map[string][]TypedNode)
	for _, c := range children {
		if c == nil {
			continue
		}
		e.children = append(e.children, c)
		e.byName[c.Name()] = append(e.byName[c.Name()], c)
	}
	return e
}

// WithBases returns a copy of e declaring the given base types.
func (e *Element) WithBases(bases ...string) *Element {
	cp := *e
	cp.bases = append([]string(nil), bases...)
	return &cp
}

// WithAnnotations returns a copy of e with extra annotations appended.
func (e *Element) WithAnnotations(annotations ...any) *Element {
	cp := *e
	cp.annotations = append(append([]any(nil), e.annotations...), annotations...)
	return &cp
}

// WithName returns a copy of e under another field name.
func (e *Element) WithName(name string) *Element {
	cp := *e
	cp.name = name
	return &cp
}

func (e *Element) TypeName() string { return e.typeName }

func (e *Element) String() string {
	if e.prim != nil {
		return e.prim.String()
	}
	return e.typeName
}

func (e *Element) Name() string { return e.name }

func (e *Element) Primitive() value.Value { return e.prim }

func (e *Element) Children(name string) []TypedNode {
	if name == "" {
		return e.children
	}
	return e.byName[name]
}

func (e *Element) Annotations() []any { return e.annotations }

func (e *Element) BaseTypes() []string { return e.bases }

func (e *Element) EqualValue(other value.Value) (bool, bool) { return Equal(e, other) }

func (e *Element) EquivalentValue(other value.Value) bool { return Equivalent(e, other) }
