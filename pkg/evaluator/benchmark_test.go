package evaluator_test

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/sandrolain/gofhirpath/pkg/evaluator"
	"github.com/sandrolain/gofhirpath/pkg/model"
	"github.com/sandrolain/gofhirpath/pkg/node"
	"github.com/sandrolain/gofhirpath/pkg/parser"
	"github.com/sandrolain/gofhirpath/pkg/types"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// ---------------------------------------------------------------------------
// Test data
// ---------------------------------------------------------------------------

// benchCodeSystem builds a code system with width top-level concepts, each
// carrying width nested children.
func benchCodeSystem(width int) node.TypedNode {
	concepts := make([]model.ConceptDefinition, width)
	for i := range concepts {
		children := make([]model.ConceptDefinition, width)
		for j := range children {
			children[j] = model.ConceptDefinition{Code: fmt.Sprintf("%d.%d", i, j), Display: "child " + strconv.Itoa(j)}
		}
		concepts[i] = model.ConceptDefinition{Code: strconv.Itoa(i), Display: "concept " + strconv.Itoa(i), Concept: children}
	}
	cs := &model.CodeSystem{ID: "bench", Status: "active", Concept: concepts}
	return cs.ToTypedNode()
}

func benchPatient(identifiers int) node.TypedNode {
	ids := make([]model.Identifier, identifiers)
	for i := range ids {
		ids[i] = model.Identifier{System: "urn:sys:" + strconv.Itoa(i%5), Value: strconv.Itoa(i)}
	}
	p := &model.Patient{ID: "bench", Identifier: ids, Name: []model.HumanName{{Family: "Doe", Given: []string{"Jane"}}}}
	return p.ToTypedNode()
}

var (
	smallCodeSystem = benchCodeSystem(5)
	largeCodeSystem = benchCodeSystem(40)
	largePatient    = benchPatient(500)
	sharedEval      = evaluator.New()
)

func runSelect(b *testing.B, expr *types.Expression, input value.Value) {
	b.Helper()
	ctx := context.Background()
	for i := 0; i < b.N; i++ {
		if _, err := sharedEval.Select(ctx, expr, input, nil); err != nil {
			b.Fatal(err)
		}
	}
}

func mustParse(query string) *types.Expression {
	e, err := parser.Compile(query)
	if err != nil {
		panic(fmt.Sprintf("mustParse(%q): %v", query, err))
	}
	return e
}

// ---------------------------------------------------------------------------
// Parser benchmarks
// ---------------------------------------------------------------------------

func BenchmarkParseSimplePath(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := parser.Compile("Patient.name.given"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParseComplex(b *testing.B) {
	query := "identifier.where(system = 'urn:a' and value.matches('^[0-9]+$')).select(value.toInteger() * 2).sum() > 10"
	for i := 0; i < b.N; i++ {
		if _, err := parser.Compile(query); err != nil {
			b.Fatal(err)
		}
	}
}

// ---------------------------------------------------------------------------
// Evaluation benchmarks
// ---------------------------------------------------------------------------

func BenchmarkEvalSimplePath(b *testing.B) {
	runSelect(b, mustParse("name.given"), largePatient)
}

func BenchmarkEvalFilter_Large(b *testing.B) {
	runSelect(b, mustParse("identifier.where(system = 'urn:sys:3').value"), largePatient)
}

func BenchmarkEvalAggregate_Large(b *testing.B) {
	runSelect(b, mustParse("identifier.value.select(toInteger()).sum()"), largePatient)
}

func BenchmarkEvalDescendants_Small(b *testing.B) {
	runSelect(b, mustParse("descendants().code.isDistinct()"), smallCodeSystem)
}

func BenchmarkEvalDescendants_Large(b *testing.B) {
	runSelect(b, mustParse("descendants().code.isDistinct()"), largeCodeSystem)
}

func BenchmarkEvalRepeat_Large(b *testing.B) {
	runSelect(b, mustParse("repeat(concept).count()"), largeCodeSystem)
}

func BenchmarkEvalQuantity(b *testing.B) {
	runSelect(b, mustParse("(1 'kg' + 500 'g') > 1400 'g'"), nil)
}

func BenchmarkCompileAndEvalCached(b *testing.B) {
	ev := evaluator.New(evaluator.WithCaching(true))
	ctx := context.Background()
	for i := 0; i < b.N; i++ {
		expr, err := ev.Compile("identifier.where(system = 'urn:sys:1').count()")
		if err != nil {
			b.Fatal(err)
		}
		if _, err := ev.Select(ctx, expr, largePatient, nil); err != nil {
			b.Fatal(err)
		}
	}
}

// ---------------------------------------------------------------------------
// Concurrent evaluation
// ---------------------------------------------------------------------------

func BenchmarkEvalConcurrent_Large(b *testing.B) {
	expr := mustParse("identifier.where(system = 'urn:sys:2').value")
	ctx := context.Background()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := sharedEval.Select(ctx, expr, largePatient, nil); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkEvalMany(b *testing.B) {
	exprs := make([]*types.Expression, 50)
	for i := range exprs {
		exprs[i] = mustParse(fmt.Sprintf("identifier.where(value = '%d').system", i))
	}
	ev := evaluator.New(evaluator.WithConcurrency(true))
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ev.EvalMany(ctx, exprs, value.Of(largePatient), nil); err != nil {
			b.Fatal(err)
		}
	}
}
