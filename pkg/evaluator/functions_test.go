package evaluator_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sandrolain/gofhirpath/pkg/evaluator"
)

func TestBuiltinFunctions(t *testing.T) {
	ev := evaluator.New()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		// existence
		{"empty", "{}.empty()", []string{"true"}},
		{"exists", "(1 | 2).exists()", []string{"true"}},
		{"exists criteria", "(1 | 2).exists($this > 5)", []string{"false"}},
		{"all empty", "{}.all($this > 5)", []string{"true"}},
		{"allTrue", "(true | true).allTrue()", []string{"true"}},
		{"anyTrue", "(true | false).anyTrue()", []string{"true"}},
		{"allFalse", "(true | false).allFalse()", []string{"false"}},
		{"anyFalse", "(true | false).anyFalse()", []string{"true"}},
		{"subsetOf", "(1 | 2).subsetOf(1 | 2 | 3)", []string{"true"}},
		{"supersetOf", "(1 | 2).supersetOf(1 | 2 | 3)", []string{"false"}},
		{"count", "(1 | 2 | 3).count()", []string{"3"}},
		{"count empty", "{}.count()", []string{"0"}},
		{"distinct", "(1).combine(1).combine(2).distinct()", []string{"1", "2"}},
		{"isDistinct", "(1).combine(1).isDistinct()", []string{"false"}},

		// filtering and projection
		{"where", "(1 | 2 | 3).where($this > 1)", []string{"2", "3"}},
		{"where index", "(10 | 20 | 30).where($index = 1)", []string{"20"}},
		{"select", "(1 | 2).select($this * 10)", []string{"10", "20"}},
		{"repeat", "(1).repeat(iif($this < 4, $this + 1, {}))", []string{"2", "3", "4"}},
		{"ofType", "(1 | 'a' | 2.5).ofType(Integer)", []string{"1"}},
		{"aggregate", "(1 | 2 | 3).aggregate($this + $total, 0)", []string{"6"}},
		{"aggregate no init", "(1 | 2 | 3).aggregate(iif($total.empty(), $this, $total + $this))", []string{"6"}},
		{"aggregate index", "(5 | 6 | 7).aggregate($total + $index, 0)", []string{"3"}},

		// subsetting
		{"single", "(7).single()", []string{"7"}},
		{"first", "(1 | 2 | 3).first()", []string{"1"}},
		{"last", "(1 | 2 | 3).last()", []string{"3"}},
		{"tail", "(1 | 2 | 3).tail()", []string{"2", "3"}},
		{"skip", "(1 | 2 | 3).skip(2)", []string{"3"}},
		{"skip negative", "(1 | 2).skip(-1)", []string{"1", "2"}},
		{"take", "(1 | 2 | 3).take(2)", []string{"1", "2"}},
		{"take zero", "(1 | 2 | 3).take(0)", []string{}},
		{"intersect", "(1 | 2 | 3).intersect(2 | 3 | 4)", []string{"2", "3"}},
		{"exclude", "(1 | 2 | 3).exclude(2)", []string{"1", "3"}},

		// combining
		{"union", "(1 | 2).union(2 | 3)", []string{"1", "2", "3"}},
		{"combine", "(1 | 2).combine(2 | 3)", []string{"1", "2", "2", "3"}},

		// conversion
		{"iif true", "iif(true, 'a', 'b')", []string{"a"}},
		{"iif empty", "iif({}, 'a', 'b')", []string{"b"}},
		{"iif no else", "iif(false, 'a')", []string{}},
		{"toBoolean", "'yes'.toBoolean()", []string{"true"}},
		{"toBoolean fails", "'maybe'.toBoolean()", []string{}},
		{"toInteger", "'12'.toInteger() + 1", []string{"13"}},
		{"toInteger fails", "'abc'.toInteger()", []string{}},
		{"convertsToInteger", "'abc'.convertsToInteger()", []string{"false"}},
		{"toDecimal", "'1.5'.toDecimal()", []string{"1.5"}},
		{"convertsToDecimal", "'1.5'.convertsToDecimal()", []string{"true"}},
		{"toString", "(5).toString()", []string{"5"}},
		{"toQuantity", "'4 days'.toQuantity() = 4 days", []string{"true"}},
		{"toQuantity unit", "'75 \\'kg\\''.toQuantity('g') = 75000 'g'", []string{"true"}},
		{"toQuantity incompatible", "(75 'kg').toQuantity('s')", []string{}},
		{"convertsToQuantity", "'abc'.convertsToQuantity()", []string{"false"}},

		// strings
		{"length", "'abc'.length()", []string{"3"}},
		{"length runes", "'ñandú'.length()", []string{"5"}},
		{"upper", "'abc'.upper()", []string{"ABC"}},
		{"lower", "'ABC'.lower()", []string{"abc"}},
		{"startsWith", "'abcdef'.startsWith('abc')", []string{"true"}},
		{"endsWith", "'abcdef'.endsWith('abc')", []string{"false"}},
		{"contains", "'abcdef'.contains('cde')", []string{"true"}},
		{"indexOf", "'Hello'.indexOf('l')", []string{"2"}},
		{"indexOf missing", "'Hello'.indexOf('z')", []string{"-1"}},
		{"substring", "'Hello'.substring(1, 3)", []string{"ell"}},
		{"substring open", "'Hello'.substring(3)", []string{"lo"}},
		{"substring out of range", "'Hello'.substring(9)", []string{}},
		{"matches", "'abc123'.matches('[0-9]+')", []string{"true"}},
		{"matches anchored", "'abc'.matches('^[0-9]+$')", []string{"false"}},
		{"replace", "'a-b-c'.replace('-', '+')", []string{"a+b+c"}},
		{"replaceMatches", "'abc123'.replaceMatches('[0-9]', 'x')", []string{"abcxxx"}},
		{"toChars", "'abc'.toChars()", []string{"a", "b", "c"}},
		{"string of empty", "{}.upper()", []string{}},

		// math
		{"abs", "(-5).abs()", []string{"5"}},
		{"abs decimal", "(-1.5).abs()", []string{"1.5"}},
		{"ceiling", "(1.5).ceiling()", []string{"2"}},
		{"ceiling negative", "(-1.5).ceiling()", []string{"-1"}},
		{"floor", "(-1.5).floor()", []string{"-2"}},
		{"floor integer", "(4).floor()", []string{"4"}},
		{"truncate", "(1.9).truncate()", []string{"1"}},
		{"round", "(3.14159).round(2)", []string{"3.14"}},
		{"round half up", "(2.5).round()", []string{"3"}},

		// aggregates
		{"sum", "(1 | 2 | 3).sum()", []string{"6"}},
		{"sum empty", "{}.sum()", []string{"0"}},
		{"sum mixed", "(1 | 2.5).sum()", []string{"3.5"}},
		{"min", "(3 | 1 | 2).min()", []string{"1"}},
		{"max", "(3 | 1 | 2).max()", []string{"3"}},
		{"max strings", "('b' | 'c' | 'a').max()", []string{"c"}},
		{"min empty", "{}.min()", []string{}},
		{"avg", "(1 | 2 | 3 | 4).avg()", []string{"2.5"}},
		{"avg empty", "{}.avg()", []string{}},

		// utility
		{"not", "true.not()", []string{"false"}},
		{"not empty", "{}.not()", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := render(eval(t, ev, tt.query, nil, nil))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("%s: mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}
