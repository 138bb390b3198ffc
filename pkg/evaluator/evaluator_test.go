package evaluator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sandrolain/gofhirpath/pkg/evaluator"
	"github.com/sandrolain/gofhirpath/pkg/model"
	"github.com/sandrolain/gofhirpath/pkg/node"
	"github.com/sandrolain/gofhirpath/pkg/parser"
	"github.com/sandrolain/gofhirpath/pkg/types"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

func testPatient() node.TypedNode {
	lu := time.Date(2018, 5, 24, 14, 48, 0, 0, time.UTC)
	active := true
	p := &model.Patient{
		ID:     "p1",
		Meta:   &model.Meta{LastUpdated: &lu},
		Active: &active,
		Identifier: []model.Identifier{
			{System: "urn:a", Value: "1"},
			{System: "urn:a", Value: "2"},
		},
		Name:      []model.HumanName{{Family: "Doe", Given: []string{"Jane", "J"}}},
		BirthDate: "1974-12-25",
	}
	return p.ToTypedNode()
}

// render returns the string form of every item, primitives by value.
func render(seq value.Sequence) []string {
	out := make([]string, len(seq))
	for i, v := range seq {
		out[i] = node.Comparable(v).String()
	}
	return out
}

func compile(t *testing.T, query string) *types.Expression {
	t.Helper()
	expr, err := parser.Compile(query)
	if err != nil {
		t.Fatalf("Compile(%q): %v", query, err)
	}
	return expr
}

func eval(t *testing.T, ev *evaluator.Evaluator, query string, input value.Value, ec *evaluator.EvaluationContext) value.Sequence {
	t.Helper()
	res, err := ev.Select(context.Background(), compile(t, query), input, ec)
	if err != nil {
		t.Fatalf("Select(%q): %v", query, err)
	}
	return res
}

func TestEvalPatient(t *testing.T) {
	ev := evaluator.New()
	patient := testPatient()

	tests := []struct {
		query string
		want  []string
	}{
		{"Patient.id", []string{"p1"}},
		{"id", []string{"p1"}},
		{"Resource.id", []string{"p1"}},
		{"DomainResource.id", []string{"p1"}},
		{"Observation.id", []string{}},
		{"name.given", []string{"Jane", "J"}},
		{"Patient.name.family", []string{"Doe"}},
		{"identifier.value", []string{"1", "2"}},
		{"identifier[1].value", []string{"2"}},
		{"identifier[5].value", []string{}},
		{"identifier[-1].value", []string{}},
		{"deceased.value", []string{}},
		{"identifier.where(value = '2').system", []string{"urn:a"}},
		{"identifier.select(value)", []string{"1", "2"}},
		{"name.given.select($index)", []string{"0", "1"}},
		{"name.given.where($this.startsWith('J')).count()", []string{"2"}},
		{"name.given | name.given", []string{"Jane", "J"}},
		{"name.given.combine(name.given).count()", []string{"4"}},
		{"$this.id", []string{"p1"}},
		{"%resource.id", []string{"p1"}},
		{"%context.identifier.count()", []string{"2"}},
		{"%ucum", []string{"http://unitsofmeasure.org"}},
		{"Resource.meta.lastUpdated = @2018-05-24T14:48:00Z", []string{"true"}},
		{"birthDate < @2000-01-01", []string{"true"}},
		{"active is Boolean", []string{"true"}},
		{"active.is(System.Boolean)", []string{"true"}},
		{"Patient is Resource", []string{"true"}},
		{"(Patient as Resource).id", []string{"p1"}},
		{"name.ofType(HumanName).count()", []string{"1"}},
		{"name.ofType(Identifier).count()", []string{"0"}},
		{"meta.children().count()", []string{"1"}},
		{"name.descendants().count()", []string{"3"}},
		{"identifier.value.hasValue()", []string{"false"}},
		{"id.hasValue()", []string{"true"}},
		{"identifier.all(system = 'urn:a')", []string{"true"}},
		{"identifier.exists(value = '3')", []string{"false"}},
		{"deceased.empty()", []string{"true"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := render(eval(t, ev, tt.query, patient, nil))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvalOperators(t *testing.T) {
	ev := evaluator.New()

	tests := []struct {
		query string
		want  []string
	}{
		{"1 + 2 * 3", []string{"7"}},
		{"(1 + 2) * 3", []string{"9"}},
		{"7 div 2", []string{"3"}},
		{"7 mod 2", []string{"1"}},
		{"7 / 2", []string{"3.5"}},
		{"1 / 0", []string{}},
		{"-(3)", []string{"-3"}},
		{"'a' + 'b'", []string{"ab"}},
		{"'a' & {} & 'b'", []string{"ab"}},
		{"1 = 1.0", []string{"true"}},
		{"1 != 2", []string{"true"}},
		{"{} = 1", []string{}},
		{"'a' ~ 'A'", []string{"true"}},
		{"{} ~ {}", []string{}},
		{"{} ~ 1", []string{}},
		{"{} !~ 1", []string{}},
		{"1 !~ {}", []string{}},
		{"{} != 1", []string{}},
		{"1.1 'kg' ~ 1000 'g'", []string{"false"}},
		{"1000 'g' ~ 1.1 'kg'", []string{"false"}},
		{"1001 'g' ~ 1 'kg'", []string{"true"}},
		{"2 > 1", []string{"true"}},
		{"'a' < 'b'", []string{"true"}},
		{"@2018-01-01 < @2018-02-01", []string{"true"}},
		{"@2018 = @2018-01", []string{}},
		{"1 in (1 | 2)", []string{"true"}},
		{"(1 | 2) contains 3", []string{"false"}},
		{"{} in (1 | 2)", []string{}},
		{"true and {}", []string{}},
		{"false and {}", []string{"false"}},
		{"true or {}", []string{"true"}},
		{"{} or false", []string{}},
		{"true xor false", []string{"true"}},
		{"{} implies true", []string{"true"}},
		{"false implies {}", []string{"true"}},
		{"true implies {}", []string{}},
		{"(1 'kg' + 500 'g') = 1.5 'kg'", []string{"true"}},
		{"1000 'g' = 1 'kg'", []string{"true"}},
		{"4 days = 4 'd'", []string{"true"}},
		{"@2018-01-30 + 2 days", []string{"2018-02-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := render(eval(t, ev, tt.query, nil, nil))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvalErrors(t *testing.T) {
	ev := evaluator.New()
	patient := testPatient()

	tests := []struct {
		query string
		code  types.ErrorCode
		kind  error
	}{
		{"foo()", types.ErrUndefinedFunction, types.ErrInvalidOperation},
		{"%nope", types.ErrUndefinedVariable, types.ErrInvalidOperation},
		{"first(1)", types.ErrArgumentCountMismatch, types.ErrInvalidOperation},
		{"name.given = 'Jane'", types.ErrCardinality, types.ErrInvalidOperation},
		{"identifier['a']", types.ErrInvalidIndex, types.ErrInvalidOperation},
		{"identifier[0 | 1]", types.ErrInvalidIndex, types.ErrInvalidOperation},
		{"1 + 'a'", types.ErrInvalidTypeOperation, types.ErrInvalidOperation},
		{"1 < 'a'", types.ErrInvalidTypeOperation, types.ErrInvalidOperation},
		{"1 'kg' < 1 's'", types.ErrUnitsIncompatible, types.ErrIncompatibleUnits},
		{"1 'kg' + 1 's'", types.ErrUnitsIncompatible, types.ErrIncompatibleUnits},
		{"2147483647 + 1", types.ErrArithmetic, types.ErrInvalidOperation},
		{"id.substring('a')", types.ErrInvalidTypeOperation, types.ErrInvalidOperation},
		{"(1 | 2).single()", types.ErrCardinality, types.ErrInvalidOperation},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			_, err := ev.Select(context.Background(), compile(t, tt.query), patient, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.kind) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.kind)
			}
			fe, ok := types.AsError(err)
			if !ok {
				t.Fatalf("expected *types.Error, got %T", err)
			}
			if fe.Code != tt.code {
				t.Errorf("code = %s, want %s", fe.Code, tt.code)
			}
			if fe.Position < 0 {
				t.Errorf("error has no position: %v", err)
			}
		})
	}
}

func TestPredicate(t *testing.T) {
	ev := evaluator.New()
	patient := testPatient()

	tests := []struct {
		query   string
		want    bool
		wantErr error
	}{
		{query: "id", want: true},
		{query: "deceased", want: false},
		{query: "active", want: true},
		{query: "true | false", want: false},
		{query: "identifier.exists()", want: true},
		{query: "name.given", wantErr: types.ErrInvalidOperation},
		{query: "name.given = 'Jane'", wantErr: types.ErrInvalidOperation},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := ev.Predicate(context.Background(), compile(t, tt.query), patient, nil)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Predicate(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestAmbiguousTruthinessCode(t *testing.T) {
	ev := evaluator.New()
	_, err := ev.Predicate(context.Background(), compile(t, "name.given"), testPatient(), nil)
	fe, ok := types.AsError(err)
	if !ok || fe.Code != types.ErrAmbiguousTruthiness {
		t.Fatalf("expected %s, got %v", types.ErrAmbiguousTruthiness, err)
	}
}

func TestScalar(t *testing.T) {
	ev := evaluator.New()
	patient := testPatient()

	v, ok, err := ev.Scalar(context.Background(), compile(t, "identifier[1].value"), patient, nil)
	if err != nil || !ok {
		t.Fatalf("Scalar: %v, %v", ok, err)
	}
	if v != value.String("2") {
		t.Errorf("Scalar = %v", v)
	}

	_, ok, err = ev.Scalar(context.Background(), compile(t, "deceased"), patient, nil)
	if err != nil || ok {
		t.Errorf("Scalar on empty = %v, %v", ok, err)
	}

	_, _, err = ev.Scalar(context.Background(), compile(t, "name.given"), patient, nil)
	if !errors.Is(err, types.ErrInvalidOperation) {
		t.Errorf("Scalar on two items: %v", err)
	}
}

func TestHostVariables(t *testing.T) {
	ev := evaluator.New()
	ec := evaluator.NewEvaluationContext(
		evaluator.WithVariable("limit", value.Of(value.Integer(1))),
		evaluator.WithVariable("ucum", value.Of(value.String("overridden"))),
	)
	patient := testPatient()

	if got := render(eval(t, ev, "identifier.count() > %limit", patient, ec)); !cmp.Equal(got, []string{"true"}) {
		t.Errorf("host variable: %v", got)
	}
	if got := render(eval(t, ev, "%ucum", patient, ec)); !cmp.Equal(got, []string{"overridden"}) {
		t.Errorf("host variable should take priority: %v", got)
	}
}

func TestIdempotentEvaluation(t *testing.T) {
	ev := evaluator.New()
	patient := testPatient()
	expr := compile(t, "name.given.where($this.length() > 1) | identifier.value")

	first, err := ev.Select(context.Background(), expr, patient, nil)
	if err != nil {
		t.Fatal(err)
	}
	for range 10 {
		again, err := ev.Select(context.Background(), expr, patient, nil)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(render(first), render(again)); diff != "" {
			t.Fatalf("results differ between runs:\n%s", diff)
		}
	}
}

func TestEvalCancelled(t *testing.T) {
	ev := evaluator.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ev.Select(ctx, compile(t, "name.given"), testPatient(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMaxDepth(t *testing.T) {
	ev := evaluator.New(evaluator.WithMaxDepth(1))
	_, err := ev.Select(context.Background(),
		compile(t, "name.where(given.where($this = 'J').exists())"), testPatient(), nil)
	fe, ok := types.AsError(err)
	if !ok || fe.Code != types.ErrRecursionDepth {
		t.Fatalf("expected %s, got %v", types.ErrRecursionDepth, err)
	}
}

func TestCompileWithCache(t *testing.T) {
	ev := evaluator.New(evaluator.WithCaching(true), evaluator.WithCacheSize(8))
	a, err := ev.Compile("name.given")
	if err != nil {
		t.Fatal(err)
	}
	b, err := ev.Compile("name.given")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("expected the cached expression")
	}
	if st := ev.Cache().Stats(); st.Hits != 1 || st.Misses != 1 {
		t.Errorf("stats = %+v", st)
	}
}
