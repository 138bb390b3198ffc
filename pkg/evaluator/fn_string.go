package evaluator

import (
	"context"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sandrolain/gofhirpath/pkg/node"
	"github.com/sandrolain/gofhirpath/pkg/types"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// --- String Functions ---

// focusString returns the single input item as a string. ok is false for
// an empty input.
func (c *call) focusString() (string, bool, error) {
	v, ok, err := c.focusSingleton()
	if err != nil || !ok {
		return "", false, err
	}
	s, isStr := node.Comparable(v).(value.String)
	if !isStr {
		return "", false, c.errorf(types.ErrInvalidTypeOperation, "%s() expects a String input, got %s", c.node.StrValue, v.TypeName())
	}
	return string(s), true, nil
}

// stringFn adapts a func(input) (Value, error) to a FunctionImpl that is
// empty for an empty input.
func stringFn(fn func(c *call, s string) (value.Value, error)) FunctionImpl {
	return func(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
		s, ok, err := c.focusString()
		if err != nil || !ok {
			return nil, err
		}
		v, err := fn(c, s)
		if err != nil || v == nil {
			return nil, err
		}
		return value.Sequence{v}, nil
	}
}

var (
	fnLength = stringFn(func(_ *call, s string) (value.Value, error) {
		return toInteger(utf8.RuneCountInString(s))
	})

	fnUpper = stringFn(func(_ *call, s string) (value.Value, error) {
		return value.String(cases.Upper(language.Und).String(s)), nil
	})

	fnLower = stringFn(func(_ *call, s string) (value.Value, error) {
		return value.String(cases.Lower(language.Und).String(s)), nil
	})

	fnStartsWith = stringFn(func(c *call, s string) (value.Value, error) {
		prefix, ok, err := c.stringArg(0)
		if err != nil || !ok {
			return nil, err
		}
		return value.Boolean(strings.HasPrefix(s, prefix)), nil
	})

	fnEndsWith = stringFn(func(c *call, s string) (value.Value, error) {
		suffix, ok, err := c.stringArg(0)
		if err != nil || !ok {
			return nil, err
		}
		return value.Boolean(strings.HasSuffix(s, suffix)), nil
	})

	fnContains = stringFn(func(c *call, s string) (value.Value, error) {
		sub, ok, err := c.stringArg(0)
		if err != nil || !ok {
			return nil, err
		}
		return value.Boolean(strings.Contains(s, sub)), nil
	})

	// fnIndexOf returns the character position of the substring, or -1.
	fnIndexOf = stringFn(func(c *call, s string) (value.Value, error) {
		sub, ok, err := c.stringArg(0)
		if err != nil || !ok {
			return nil, err
		}
		i := strings.Index(s, sub)
		if i < 0 {
			return value.Integer(-1), nil
		}
		return toInteger(utf8.RuneCountInString(s[:i]))
	})

	// fnSubstring implements substring(start[, length]) on characters.
	fnSubstring = stringFn(func(c *call, s string) (value.Value, error) {
		start, ok, err := c.intArg(0)
		if err != nil || !ok {
			return nil, err
		}
		runes := []rune(s)
		if start < 0 || start >= len(runes) {
			return nil, nil
		}
		end := len(runes)
		if c.hasArg(1) {
			length, ok, err := c.intArg(1)
			if err != nil {
				return nil, err
			}
			if ok {
				end = min(start+max(length, 0), len(runes))
			}
		}
		return value.String(runes[start:end]), nil
	})

	fnMatches = stringFn(func(c *call, s string) (value.Value, error) {
		pattern, ok, err := c.stringArg(0)
		if err != nil || !ok {
			return nil, err
		}
		re, err := getOrCompileRegex(pattern)
		if err != nil {
			return nil, c.errorf(types.ErrInvalidTypeOperation, "invalid regular expression %q: %v", pattern, err)
		}
		return value.Boolean(re.MatchString(s)), nil
	})

	fnReplace = stringFn(func(c *call, s string) (value.Value, error) {
		pattern, ok, err := c.stringArg(0)
		if err != nil || !ok {
			return nil, err
		}
		substitution, ok, err := c.stringArg(1)
		if err != nil || !ok {
			return nil, err
		}
		return value.String(strings.ReplaceAll(s, pattern, substitution)), nil
	})

	fnReplaceMatches = stringFn(func(c *call, s string) (value.Value, error) {
		pattern, ok, err := c.stringArg(0)
		if err != nil || !ok {
			return nil, err
		}
		substitution, ok, err := c.stringArg(1)
		if err != nil || !ok {
			return nil, err
		}
		re, err := getOrCompileRegex(pattern)
		if err != nil {
			return nil, c.errorf(types.ErrInvalidTypeOperation, "invalid regular expression %q: %v", pattern, err)
		}
		return value.String(re.ReplaceAllString(s, substitution)), nil
	})
)

// fnToChars splits the input string into single characters.
func fnToChars(_ context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
	s, ok, err := c.focusString()
	if err != nil || !ok {
		return nil, err
	}
	out := make(value.Sequence, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		out = append(out, value.String(string(r)))
	}
	return out, nil
}
