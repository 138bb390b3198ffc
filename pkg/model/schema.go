package model

import "github.com/sandrolain/gofhirpath/pkg/node"

// Schema returns the field types of the model, for decoding documents of
// these resources with node.Decode. Each call returns a fresh copy.
func Schema() *node.Schema {
	return &node.Schema{
		Types: map[string]map[string]string{
			"Patient": {
				"id":         "id",
				"meta":       "Meta",
				"active":     "boolean",
				"identifier": "Identifier",
				"name":       "HumanName",
				"birthDate":  "date",
			},
			"CodeSystem": {
				"id":      "id",
				"meta":    "Meta",
				"url":     "uri",
				"status":  "code",
				"concept": "ConceptDefinition",
			},
			"Observation": {
				"id":       "id",
				"meta":     "Meta",
				"status":   "code",
				"code":     "CodeableConcept",
				"value[x]": "",
			},
			"Meta":              {"versionId": "id", "lastUpdated": "instant"},
			"Identifier":        {"system": "uri", "value": "string"},
			"HumanName":         {"family": "string", "given": "string"},
			"ConceptDefinition": {"code": "code", "display": "string", "concept": "ConceptDefinition"},
			"Coding":            {"system": "uri", "code": "code", "display": "string"},
			"CodeableConcept":   {"coding": "Coding", "text": "string"},
			"Quantity":          {"value": "decimal", "unit": "string", "system": "uri", "code": "code"},
		},
		Bases: map[string][]string{
			"Patient":     {"DomainResource", "Resource"},
			"CodeSystem":  {"DomainResource", "Resource"},
			"Observation": {"DomainResource", "Resource"},
		},
	}
}
