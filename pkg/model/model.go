// Package model is a small clinical object model used to exercise the
// engine: a few resources and data types and their mapping to typed trees.
//
// Every node built from a model object carries a [FhirValueProvider]
// annotation pointing back at the object it came from, so diagnostic hooks
// such as tracers can recover the domain object behind a result.
package model

import (
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/sandrolain/gofhirpath/pkg/node"
)

// Resource is a top-level model object.
type Resource interface {
	ResourceType() string
	ToTypedNode() node.TypedNode
}

// Meta holds resource metadata.
type Meta struct {
	VersionID   string
	LastUpdated *time.Time
}

// Identifier is a business identifier.
type Identifier struct {
	System string
	Value  string
}

// HumanName is a person's name.
type HumanName struct {
	Family string
	Given  []string
}

// Patient is a person receiving care.
type Patient struct {
	ID         string
	Meta       *Meta
	Active     *bool
	Identifier []Identifier
	Name       []HumanName
	BirthDate  string
}

// ConceptDefinition is a code in a code system; concepts nest.
type ConceptDefinition struct {
	Code    string
	Display string
	Concept []ConceptDefinition
}

// CodeSystem declares a set of codes.
type CodeSystem struct {
	ID      string
	Meta    *Meta
	URL     string
	Status  string
	Concept []ConceptDefinition
}

// Coding is a code from a code system.
type Coding struct {
	System  string
	Code    string
	Display string
}

// CodeableConcept is a concept given by codings and text.
type CodeableConcept struct {
	Coding []Coding
	Text   string
}

// Quantity is a measured amount.
type Quantity struct {
	Value  *apd.Decimal
	Unit   string
	System string
	Code   string
}

// Observation is a measurement about a subject. At most one of the value
// fields is set.
type Observation struct {
	ID                   string
	Meta                 *Meta
	Status               string
	Code                 *CodeableConcept
	ValueQuantity        *Quantity
	ValueString          string
	ValueCodeableConcept *CodeableConcept
}

func (*Patient) ResourceType() string     { return "Patient" }
func (*CodeSystem) ResourceType() string  { return "CodeSystem" }
func (*Observation) ResourceType() string { return "Observation" }

// UCUMSystem is the system URI of UCUM units.
const UCUMSystem = "http://unitsofmeasure.org"

// NewQuantity returns a UCUM quantity with the same unit and code.
func NewQuantity(amount, unit string) (*Quantity, error) {
	d, _, err := apd.NewFromString(amount)
	if err != nil {
		return nil, err
	}
	return &Quantity{Value: d, Unit: unit, System: UCUMSystem, Code: unit}, nil
}
