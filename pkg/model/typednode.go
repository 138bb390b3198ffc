package model

import (
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/sandrolain/gofhirpath/pkg/node"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// FhirValueProvider exposes the model object a node was built from.
type FhirValueProvider interface {
	FhirValue() any
}

type provider struct{ v any }

func (p provider) FhirValue() any { return p.v }

var resourceBases = []string{"DomainResource", "Resource"}

func complexNode(name, typ string, src any, children ...node.TypedNode) *node.Element {
	return node.NewComplex(name, typ, children, provider{src})
}

func stringNode(name, typ, s string, src any) node.TypedNode {
	if s == "" {
		return nil
	}
	return node.NewPrimitive(name, typ, value.String(s), provider{src})
}

func boolNode(name string, b *bool) node.TypedNode {
	if b == nil {
		return nil
	}
	return node.NewPrimitive(name, "boolean", value.Boolean(*b), provider{b})
}

func instantNode(name string, t *time.Time) node.TypedNode {
	if t == nil {
		return nil
	}
	prec := value.PrecisionSecond
	if t.Nanosecond() != 0 {
		prec = value.PrecisionMillisecond
	}
	return node.NewPrimitive(name, "instant", value.NewDateTime(*t, prec), provider{t})
}

func decimalNode(name string, d *apd.Decimal) node.TypedNode {
	if d == nil {
		return nil
	}
	return node.NewPrimitive(name, "decimal", value.NewDecimal(new(apd.Decimal).Set(d)), provider{d})
}

func dateNode(name, s string, src any) node.TypedNode {
	if s == "" {
		return nil
	}
	d, err := value.ParseDate(s)
	if err != nil {
		return stringNode(name, "string", s, src)
	}
	return node.NewPrimitive(name, "date", d, provider{src})
}

func (m *Meta) toNode(name string) node.TypedNode {
	if m == nil {
		return nil
	}
	return complexNode(name, "Meta", m,
		stringNode("versionId", "id", m.VersionID, m),
		instantNode("lastUpdated", m.LastUpdated),
	)
}

func (id *Identifier) toNode(name string) node.TypedNode {
	return complexNode(name, "Identifier", id,
		stringNode("system", "uri", id.System, id),
		stringNode("value", "string", id.Value, id),
	)
}

func (hn *HumanName) toNode(name string) node.TypedNode {
	children := []node.TypedNode{stringNode("family", "string", hn.Family, hn)}
	for i := range hn.Given {
		children = append(children, stringNode("given", "string", hn.Given[i], &hn.Given[i]))
	}
	return complexNode(name, "HumanName", hn, children...)
}

func (c *Coding) toNode(name string) node.TypedNode {
	return complexNode(name, "Coding", c,
		stringNode("system", "uri", c.System, c),
		stringNode("code", "code", c.Code, c),
		stringNode("display", "string", c.Display, c),
	)
}

func (cc *CodeableConcept) toNode(name string) node.TypedNode {
	if cc == nil {
		return nil
	}
	var children []node.TypedNode
	for i := range cc.Coding {
		children = append(children, cc.Coding[i].toNode("coding"))
	}
	children = append(children, stringNode("text", "string", cc.Text, cc))
	return complexNode(name, "CodeableConcept", cc, children...)
}

func (q *Quantity) toNode(name string) node.TypedNode {
	if q == nil {
		return nil
	}
	return complexNode(name, "Quantity", q,
		decimalNode("value", q.Value),
		stringNode("unit", "string", q.Unit, q),
		stringNode("system", "uri", q.System, q),
		stringNode("code", "code", q.Code, q),
	)
}

func (cd *ConceptDefinition) toNode(name string) node.TypedNode {
	children := []node.TypedNode{
		stringNode("code", "code", cd.Code, cd),
		stringNode("display", "string", cd.Display, cd),
	}
	for i := range cd.Concept {
		children = append(children, cd.Concept[i].toNode("concept"))
	}
	return complexNode(name, "ConceptDefinition", cd, children...)
}

// ToTypedNode maps the patient to a tree rooted at a Patient node.
func (p *Patient) ToTypedNode() node.TypedNode {
	children := []node.TypedNode{
		stringNode("id", "id", p.ID, p),
		p.Meta.toNode("meta"),
		boolNode("active", p.Active),
	}
	for i := range p.Identifier {
		children = append(children, p.Identifier[i].toNode("identifier"))
	}
	for i := range p.Name {
		children = append(children, p.Name[i].toNode("name"))
	}
	children = append(children, dateNode("birthDate", p.BirthDate, p))
	return complexNode("", "Patient", p, children...).WithBases(resourceBases...)
}

// ToTypedNode maps the code system to a tree rooted at a CodeSystem node.
func (cs *CodeSystem) ToTypedNode() node.TypedNode {
	children := []node.TypedNode{
		stringNode("id", "id", cs.ID, cs),
		cs.Meta.toNode("meta"),
		stringNode("url", "uri", cs.URL, cs),
		stringNode("status", "code", cs.Status, cs),
	}
	for i := range cs.Concept {
		children = append(children, cs.Concept[i].toNode("concept"))
	}
	return complexNode("", "CodeSystem", cs, children...).WithBases(resourceBases...)
}

// ToTypedNode maps the observation to a tree rooted at an Observation node.
// Whichever value field is set becomes the child named "value".
func (o *Observation) ToTypedNode() node.TypedNode {
	children := []node.TypedNode{
		stringNode("id", "id", o.ID, o),
		o.Meta.toNode("meta"),
		stringNode("status", "code", o.Status, o),
		o.Code.toNode("code"),
	}
	switch {
	case o.ValueQuantity != nil:
		children = append(children, o.ValueQuantity.toNode("value"))
	case o.ValueCodeableConcept != nil:
		children = append(children, o.ValueCodeableConcept.toNode("value"))
	case o.ValueString != "":
		children = append(children, stringNode("value", "string", o.ValueString, o))
	}
	return complexNode("", "Observation", o, children...).WithBases(resourceBases...)
}
