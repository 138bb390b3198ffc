package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sandrolain/gofhirpath/pkg/types"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// sexpr renders an AST as an s-expression so trees compare as text.
func sexpr(n *types.ASTNode) string {
	if n == nil {
		return "nil"
	}
	switch n.Type {
	case types.NodeName, types.NodeVariable, types.NodeExternal:
		return fmt.Sprintf("(%s %s)", n.Type, n.StrValue)
	case types.NodeEmpty:
		return "{}"
	case types.NodeFunction:
		parts := []string{"call", n.StrValue}
		for _, a := range n.Arguments {
			parts = append(parts, sexpr(a))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case types.NodeBinary, types.NodeTypeOp:
		return fmt.Sprintf("(%s %s %s)", n.StrValue, sexpr(n.LHS), sexpr(n.RHS))
	case types.NodeUnary:
		return fmt.Sprintf("(%s %s)", n.StrValue, sexpr(n.LHS))
	case types.NodePath:
		return fmt.Sprintf("(. %s %s)", sexpr(n.LHS), sexpr(n.RHS))
	case types.NodeIndex:
		return fmt.Sprintf("([] %s %s)", sexpr(n.LHS), sexpr(n.RHS))
	}
	if v, ok := n.Value.(value.Value); ok {
		return fmt.Sprintf("%s:%s", n.Type, v)
	}
	return string(n.Type)
}

func parseExpr(t *testing.T, input string) *types.ASTNode {
	t.Helper()
	expr, err := Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse %q: %v", input, err)
	}
	return expr.AST()
}

func TestParseLiterals(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`'hello'`, "string:hello"},
		{`'it\'s'`, "string:it's"},
		{`'è'`, "string:è"},
		{"42", "integer:42"},
		{"3.14", "decimal:3.14"},
		{"true", "boolean:true"},
		{"@2018-05-24", "date:2018-05-24"},
		{"@2018-05-24T14:48:00Z", "datetime:2018-05-24T14:48:00Z"},
		{"@T14:48", "time:14:48"},
		{"5 'mg'", "quantity:5 'mg'"},
		{"4 days", "quantity:4 'd'"},
		{"{}", "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := sexpr(parseExpr(t, tt.input)); got != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseStructure(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Patient.name.given", "(. (. (name Patient) (name name)) (name given))"},
		{"name[0]", "([] (name name) integer:0)"},
		{"a.where(b = 1).c", "(. (. (name a) (call where (= (name b) integer:1))) (name c))"},
		{"1 + 2 * 3", "(+ integer:1 (* integer:2 integer:3))"},
		{"1 - 2 - 3", "(- (- integer:1 integer:2) integer:3)"},
		{"a or b and c", "(or (name a) (and (name b) (name c)))"},
		{"a implies b or c", "(implies (name a) (or (name b) (name c)))"},
		{"a | b = c", "(= (| (name a) (name b)) (name c))"},
		{"-a.b", "(- (. (name a) (name b)))"},
		{"x is System.String", "(is (name x) (name System.String))"},
		{"x as Quantity", "(as (name x) (name Quantity))"},
		{"$this.value", "(. (variable this) (name value))"},
		{"%resource.id", "(. (external resource) (name id))"},
		{"%`us-zip`", "(external us-zip)"},
		{"`given name`", "(name given name)"},
		{"Patient.contains", "(. (name Patient) (name contains))"},
		{"a contains 'x'", "(contains (name a) string:x)"},
		{"x.is(Integer)", "(. (name x) (call is (name Integer)))"},
		{"1.toString()", "(. integer:1 (call toString))"},
		{"(a | b).count()", "(. (| (name a) (name b)) (call count))"},
		{"a // comment\n.b", "(. (name a) (name b))"},
		{"a /* x */ + b", "(+ (name a) (name b))"},
		{"a div 2 mod 3", "(mod (div (name a) integer:2) integer:3)"},
		{"a !~ b", "(!~ (name a) (name b))"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := sexpr(parseExpr(t, tt.input)); got != tt.want {
				t.Errorf("Parse(%q)\n got %s\nwant %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDeterministic(t *testing.T) {
	inputs := []string{
		"Patient.identifier.where(system = 'urn:a').value",
		"Observation.value.as(Quantity) > 5 'mg'",
		"(1 | 2 | 3).combine(2 | 3).isDistinct()",
	}
	for _, input := range inputs {
		first := sexpr(parseExpr(t, input))
		second := sexpr(parseExpr(t, input))
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("Parse(%q) not deterministic (-first +second):\n%s", input, diff)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		code  types.ErrorCode
		pos   int
	}{
		{"", types.ErrSyntaxError, 0},
		{"a +", types.ErrUnexpectedEnd, 3},
		{"'abc", types.ErrStringNotClosed, 1},
		{"`abc", types.ErrNameNotClosed, 1},
		{"a /* x", types.ErrCommentNotClosed, 2},
		{"a b", types.ErrSyntaxError, 2},
		{"where(a", types.ErrUnexpectedEnd, 7},
		{"@2018-13-01", types.ErrInvalidLiteral, 1},
		{"'\\q'", types.ErrUnsupportedEscape, 1},
		{"a ! b", types.ErrSyntaxError, 2},
		{"$foo", types.ErrSyntaxError, 1},
		{"a.(b)", types.ErrExpectedToken, 2},
		{"99999999999", types.ErrInvalidNumber, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatalf("expected an error parsing %q", tt.input)
			}
			if !errors.Is(err, types.ErrSyntax) {
				t.Errorf("error %v is not a syntax error", err)
			}
			var fe *types.Error
			if !errors.As(err, &fe) {
				t.Fatalf("error %T is not *types.Error", err)
			}
			if fe.Code != tt.code {
				t.Errorf("code = %s, want %s", fe.Code, tt.code)
			}
			if fe.Position != tt.pos {
				t.Errorf("position = %d, want %d", fe.Position, tt.pos)
			}
		})
	}
}

func TestParseMaxDepth(t *testing.T) {
	deep := strings.Repeat("(", 50) + "1" + strings.Repeat(")", 50)
	if _, err := Compile(deep); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	_, err := Compile(deep, WithMaxDepth(10))
	var fe *types.Error
	if !errors.As(err, &fe) || fe.Code != types.ErrMaxDepth {
		t.Errorf("err = %v, want %s", err, types.ErrMaxDepth)
	}
}

func TestLexerTokens(t *testing.T) {
	l := NewLexer("a.b[0] != 'x' and @2018 <= %c")
	want := []Token{
		{Type: TokenName, Value: "a", Position: 0},
		{Type: TokenDot, Value: ".", Position: 1},
		{Type: TokenName, Value: "b", Position: 2},
		{Type: TokenBracketOpen, Value: "[", Position: 3},
		{Type: TokenNumber, Value: "0", Position: 4},
		{Type: TokenBracketClose, Value: "]", Position: 5},
		{Type: TokenNotEqual, Value: "!=", Position: 7},
		{Type: TokenString, Value: "x", Position: 11},
		{Type: TokenAnd, Value: "and", Position: 14},
		{Type: TokenDateTime, Value: "2018", Position: 19},
		{Type: TokenLessEqual, Value: "<=", Position: 24},
		{Type: TokenExternal, Value: "c", Position: 28},
	}
	var got []Token
	for tok := l.Next(); tok.Type != TokenEOF; tok = l.Next() {
		if tok.Type == TokenError {
			t.Fatalf("lexer error: %v", l.Error())
		}
		got = append(got, tok)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func FuzzParser(f *testing.F) {
	seeds := []string{
		`Patient.name.given`,
		`name.where(use = 'official')[0]`,
		`(1 | 2).combine(3)`,
		`5 'mg' + 2 'g'`,
		`@2018-05-24T14:48:00Z`,
		`$this.value`,
		``,
		`(`,
		`a.where(`,
		`'\u12`,
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, input string) {
		_, _ = Compile(input)
	})
}
