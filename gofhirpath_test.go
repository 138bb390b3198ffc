package gofhirpath_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sandrolain/gofhirpath"
	"github.com/sandrolain/gofhirpath/pkg/evaluator"
	"github.com/sandrolain/gofhirpath/pkg/ext"
	"github.com/sandrolain/gofhirpath/pkg/model"
	"github.com/sandrolain/gofhirpath/pkg/node"
	"github.com/sandrolain/gofhirpath/pkg/types"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

const patientJSON = `{
  "resourceType": "Patient",
  "id": "p1",
  "active": true,
  "identifier": [
    {"system": "urn:a", "value": "1"},
    {"system": "urn:b", "value": "2"}
  ],
  "name": [{"family": "Doe", "given": ["Jane", "J"]}],
  "birthDate": "1974-12-25"
}`

func testPatient() node.TypedNode {
	active := true
	p := &model.Patient{
		ID:     "p1",
		Active: &active,
		Identifier: []model.Identifier{
			{System: "urn:a", Value: "1"},
			{System: "urn:b", Value: "2"},
		},
		Name: []model.HumanName{{Family: "Doe", Given: []string{"Jane", "J"}}},
	}
	return p.ToTypedNode()
}

func values(seq value.Sequence) []string {
	items := gofhirpath.Items(seq)
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Value
	}
	return out
}

func TestSelectDocument(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"Patient.name.given", []string{"Jane", "J"}},
		{"identifier.where(system = 'urn:b').value", []string{"2"}},
		{"birthDate < @2000-01-01", []string{"true"}},
		{"active and name.exists()", []string{"true"}},
		{"Observation.id", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res, err := gofhirpath.SelectDocument([]byte(patientJSON), tt.query)
			if err != nil {
				t.Fatalf("SelectDocument: %v", err)
			}
			if diff := cmp.Diff(tt.want, values(res)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSelectDocumentDecimalScale(t *testing.T) {
	doc := []byte(`{"resourceType": "Observation", "status": "final", ` +
		`"valueQuantity": {"value": 1.10, "unit": "kg", "code": "kg"}}`)
	tests := []struct {
		query string
		want  []string
	}{
		{"value.value.toString()", []string{"1.10"}},
		{"value.value ~ 1.14", []string{"false"}},
		{"value.value ~ 1.104", []string{"true"}},
		{"value ~ 1104 'g'", []string{"true"}},
		{"value ~ 1150 'g'", []string{"false"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res, err := gofhirpath.SelectDocument(doc, tt.query)
			if err != nil {
				t.Fatalf("SelectDocument: %v", err)
			}
			if diff := cmp.Diff(tt.want, values(res)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSelectDocumentErrors(t *testing.T) {
	if _, err := gofhirpath.SelectDocument([]byte(`[1, 2]`), "id"); !errors.Is(err, node.ErrDecode) {
		t.Errorf("expected decode error, got %v", err)
	}
	if _, err := gofhirpath.SelectDocument([]byte(patientJSON), "id."); !errors.Is(err, types.ErrSyntax) {
		t.Errorf("expected syntax error, got %v", err)
	}
}

func TestSelectSystemValues(t *testing.T) {
	res, err := gofhirpath.Select(nil, "1 + 1")
	if err != nil {
		t.Fatal(err)
	}
	want := []gofhirpath.Item{{Type: "Integer", Value: "2"}}
	if diff := cmp.Diff(want, gofhirpath.Items(res)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestPredicate(t *testing.T) {
	patient := testPatient()
	tests := []struct {
		query string
		want  bool
	}{
		{"active", true},
		{"name.where(family = 'Smith')", false},
		{"identifier.exists(system = 'urn:b')", true},
		{"name.given", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := gofhirpath.Predicate(patient, tt.query)
			if tt.query == "name.given" {
				if !errors.Is(err, types.ErrInvalidOperation) {
					t.Fatalf("expected invalid operation for ambiguous truthiness, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Predicate: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScalar(t *testing.T) {
	patient := testPatient()

	v, ok, err := gofhirpath.Scalar(patient, "name.family")
	if err != nil || !ok || v.String() != "Doe" {
		t.Errorf("Scalar(name.family) = %v, %v, %v", v, ok, err)
	}
	if _, ok, err := gofhirpath.Scalar(patient, "name.suffix"); ok || err != nil {
		t.Errorf("expected empty result, got ok=%v err=%v", ok, err)
	}
	_, _, err = gofhirpath.Scalar(patient, "identifier.value")
	if fe, isFE := types.AsError(err); !isFE || fe.Code != types.ErrCardinality {
		t.Errorf("expected cardinality error, got %v", err)
	}
}

func TestSelectMany(t *testing.T) {
	queries := []string{"id", "name.given", "identifier.count()", "name.suffix"}
	want := [][]string{{"p1"}, {"Jane", "J"}, {"2"}, {}}

	for _, concurrent := range []bool{true, false} {
		res, err := gofhirpath.SelectMany(testPatient(), queries,
			gofhirpath.WithEvalOptions(evaluator.WithConcurrency(concurrent)))
		if err != nil {
			t.Fatalf("SelectMany(concurrent=%v): %v", concurrent, err)
		}
		got := make([][]string, len(res))
		for i, seq := range res {
			got[i] = values(seq)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("concurrent=%v mismatch (-want +got):\n%s", concurrent, diff)
		}
	}

	if _, err := gofhirpath.SelectMany(testPatient(), []string{"id", "name.("}); !errors.Is(err, types.ErrSyntax) {
		t.Errorf("expected syntax error, got %v", err)
	}
}

func TestSelectOptions(t *testing.T) {
	patient := testPatient()

	res, err := gofhirpath.Select(patient, "identifier.where(system = %sys).value",
		gofhirpath.WithVariable("sys", value.Of(value.String("urn:a"))),
		gofhirpath.WithCaching(true),
		gofhirpath.WithTimeout(5*time.Second),
	)
	if err != nil {
		t.Fatal(err)
	}
	if got := values(res); !cmp.Equal(got, []string{"1"}) {
		t.Errorf("got %v", got)
	}

	res, err = gofhirpath.Select(nil, "'  a  '.trim()", gofhirpath.WithEvalOptions(ext.WithString()))
	if err != nil {
		t.Fatal(err)
	}
	if got := values(res); !cmp.Equal(got, []string{"a"}) {
		t.Errorf("got %v", got)
	}

	var traced []string
	_, err = gofhirpath.Select(patient, "name.trace('n').given", gofhirpath.WithTracer(
		func(name string, _ value.Sequence) error {
			traced = append(traced, name)
			return nil
		}))
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(traced, []string{"n"}) {
		t.Errorf("traced = %v", traced)
	}
}

func TestSelectWithContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := gofhirpath.Select(testPatient(), "name.given", gofhirpath.WithContext(ctx))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMustCompilePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	gofhirpath.MustCompile("name.where(")
}

func TestVersion(t *testing.T) {
	if gofhirpath.Version() == "" {
		t.Error("empty version")
	}
}
