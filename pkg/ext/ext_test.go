package ext_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sandrolain/gofhirpath/pkg/evaluator"
	"github.com/sandrolain/gofhirpath/pkg/ext"
	"github.com/sandrolain/gofhirpath/pkg/ext/extstring"
	"github.com/sandrolain/gofhirpath/pkg/node"
	"github.com/sandrolain/gofhirpath/pkg/parser"
	"github.com/sandrolain/gofhirpath/pkg/types"
)

var fixedClock = func() time.Time {
	return time.Date(2024, 3, 15, 10, 30, 45, 123456789, time.UTC)
}

func eval(t *testing.T, ev *evaluator.Evaluator, query string) []string {
	t.Helper()
	expr, err := parser.Compile(query)
	if err != nil {
		t.Fatalf("Compile(%q) error: %v", query, err)
	}
	res, err := ev.Select(context.Background(), expr, nil, nil)
	if err != nil {
		t.Fatalf("Select(%q) error: %v", query, err)
	}
	out := make([]string, len(res))
	for i, v := range res {
		out[i] = node.Comparable(v).String()
	}
	return out
}

func runTable(t *testing.T, ev *evaluator.Evaluator, tests []struct {
	query string
	want  []string
}) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := eval(t, ev, tt.query)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// ── WithAll ────────────────────────────────────────────────────────────────

func TestWithAll_StringFunctions(t *testing.T) {
	ev := evaluator.New(ext.WithAll())

	runTable(t, ev, []struct {
		query string
		want  []string
	}{
		{"'  hi  '.trim()", []string{"hi"}},
		{"'a,b,c'.split(',')", []string{"a", "b", "c"}},
		{"('a' | 'b').join('-')", []string{"a-b"}},
		{"('a' | 'b').join()", []string{"ab"}},
		{"'abcabc'.lastIndexOf('bc')", []string{"4"}},
		{"'abc'.lastIndexOf('z')", []string{"-1"}},
		{"'hello world'.capitalize()", []string{"Hello world"}},
		{"'hello world'.titleCase()", []string{"Hello World"}},
		{"'ab'.repeatString(3)", []string{"ababab"}},
		{"'hello'.encode('base64')", []string{"aGVsbG8="}},
		{"'hello'.encode('hex')", []string{"68656c6c6f"}},
		{"'aGVsbG8='.decode('base64')", []string{"hello"}},
		{"{}.trim()", []string{}},
	})
}

func TestWithAll_NumericFunctions(t *testing.T) {
	ev := evaluator.New(ext.WithAll())

	runTable(t, ev, []struct {
		query string
		want  []string
	}{
		{"(81).sqrt() = 9", []string{"true"}},
		{"(-1).sqrt()", []string{}},
		{"(1).ln() = 0", []string{"true"}},
		{"(0).ln()", []string{}},
		{"(1).exp().round(4) = 2.7183", []string{"true"}},
		{"(100).log(10).round(6) = 2", []string{"true"}},
		{"(2).power(10)", []string{"1024"}},
		{"(2.5).power(2) = 6.25", []string{"true"}},
		{"(-8).power(0.5)", []string{}},
		{"(-3).sign()", []string{"-1"}},
		{"(0.0).sign()", []string{"0"}},
		{"(3 | 1 | 2).median()", []string{"2"}},
		{"(1 | 2 | 3 | 4).median()", []string{"2.5"}},
		{"{}.median()", []string{}},
	})
}

func TestWithAll_CollectionFunctions(t *testing.T) {
	ev := evaluator.New(ext.WithAll())

	runTable(t, ev, []struct {
		query string
		want  []string
	}{
		{"(1 | 2 | 3).reverse()", []string{"3", "2", "1"}},
		{"(1 | 2 | 3 | 4 | 5).chunk(2)", []string{"[1, 2]", "[3, 4]", "[5]"}},
		{"(3 | 1 | 2).sortBy($this)", []string{"1", "2", "3"}},
		{"('ccc' | 'a' | 'bb').sortBy(length())", []string{"a", "bb", "ccc"}},
		{"('ccc' | 'a' | 'bb').sortBy(0 - length())", []string{"ccc", "bb", "a"}},
		{"('ccc' | 'a' | 'bb').maxBy(length())", []string{"ccc"}},
		{"('ccc' | 'a' | 'bb').minBy(length())", []string{"a"}},
		{"{}.sortBy($this)", []string{}},
	})
}

func TestWithClock_DateTimeFunctions(t *testing.T) {
	ev := evaluator.New(ext.WithClock(fixedClock))

	runTable(t, ev, []struct {
		query string
		want  []string
	}{
		{"now()", []string{"2024-03-15T10:30:45.123Z"}},
		{"today()", []string{"2024-03-15"}},
		{"timeOfDay()", []string{"10:30:45.123"}},
		{"now().yearOf()", []string{"2024"}},
		{"timeOfDay().hourOf()", []string{"10"}},
		{"timeOfDay().millisecondOf()", []string{"123"}},
		{"timeOfDay().yearOf()", []string{}},
		{"(@2024-03-15).monthOf()", []string{"3"}},
		{"today().hourOf()", []string{}},
	})
}

func TestWithAll_CryptoFunctions(t *testing.T) {
	ev := evaluator.New(ext.WithAll())

	runTable(t, ev, []struct {
		query string
		want  []string
	}{
		{"'abc'.hash('sha256')", []string{"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"}},
		{"'The quick brown fox jumps over the lazy dog'.hmac('key', 'sha256')",
			[]string{"f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8"}},
		{"uuid().length()", []string{"36"}},
	})
}

// ── By category ────────────────────────────────────────────────────────────

func TestWithString_Only(t *testing.T) {
	ev := evaluator.New(ext.WithString())

	if got := eval(t, ev, "' x '.trim()"); !cmp.Equal(got, []string{"x"}) {
		t.Errorf("trim: got %v", got)
	}
	expr, err := parser.Compile("(4).sqrt()")
	if err != nil {
		t.Fatal(err)
	}
	_, err = ev.Select(context.Background(), expr, nil, nil)
	if fe, ok := types.AsError(err); !ok || fe.Code != types.ErrUndefinedFunction {
		t.Fatalf("expected sqrt() to be unknown without WithNumeric, got %v", err)
	}
}

func TestSingleFunction(t *testing.T) {
	ev := evaluator.New(evaluator.WithFunctions(extstring.Trim()))
	if got := eval(t, ev, "'  y'.trim()"); !cmp.Equal(got, []string{"y"}) {
		t.Errorf("trim: got %v", got)
	}
}

func TestBuiltinsAreNotShadowed(t *testing.T) {
	ev := evaluator.New(ext.WithAll())
	if got := eval(t, ev, "('a' | 'b').count()"); !cmp.Equal(got, []string{"2"}) {
		t.Errorf("count: got %v", got)
	}
}

// ── Errors ─────────────────────────────────────────────────────────────────

func TestExtensionErrors(t *testing.T) {
	ev := evaluator.New(ext.WithAll())

	tests := []struct {
		query string
		code  types.ErrorCode
	}{
		{"'abc'.hash('crc')", types.ErrInvalidTypeOperation},
		{"'abc'.encode('rot13')", types.ErrInvalidTypeOperation},
		{"'%%'.decode('base64')", types.ErrInvalidTypeOperation},
		{"(1).trim()", types.ErrInvalidTypeOperation},
		{"('a' | 'b').trim()", types.ErrCardinality},
		{"(1 | 'a').sortBy($this)", types.ErrInvalidTypeOperation},
		{"(1 | 2).chunk(0)", types.ErrInvalidTypeOperation},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			expr, err := parser.Compile(tt.query)
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			_, err = ev.Select(context.Background(), expr, nil, nil)
			fe, ok := types.AsError(err)
			if !ok {
				t.Fatalf("expected *types.Error, got %v", err)
			}
			if fe.Code != tt.code {
				t.Errorf("code = %s, want %s", fe.Code, tt.code)
			}
			if fe.Position < 0 {
				t.Errorf("position not set: %v", fe)
			}
		})
	}
}
