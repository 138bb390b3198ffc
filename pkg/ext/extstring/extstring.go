// Package extstring provides string functions that go beyond the core
// function library. Register them via evaluator.WithFunctions or via the
// top-level ext.WithString() helper.
package extstring

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sandrolain/gofhirpath/pkg/ext/extutil"
	"github.com/sandrolain/gofhirpath/pkg/functions"
	"github.com/sandrolain/gofhirpath/pkg/node"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// All returns all extended string function definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		Trim(),
		Split(),
		Join(),
		LastIndexOf(),
		Capitalize(),
		TitleCase(),
		Repeat(),
		Encode(),
		Decode(),
	}
}

// AllEntries returns all string function definitions as [functions.FunctionEntry],
// suitable for spreading into evaluator.WithFunctions:
//
//	evaluator.WithFunctions(extstring.AllEntries()...)
func AllEntries() []functions.FunctionEntry {
	return extutil.Entries(All())
}

// onString builds a definition whose input is a single String. An empty
// input yields an empty result.
func onString(name string, minArgs, maxArgs int, fn func(s string, args []value.Sequence) (value.Sequence, error)) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: minArgs,
		MaxArgs: maxArgs,
		Fn: func(_ context.Context, focus value.Sequence, args ...value.Sequence) (value.Sequence, error) {
			s, ok, err := extutil.String(name, focus)
			if err != nil || !ok {
				return nil, err
			}
			return fn(s, args)
		},
	}
}

// Trim returns the definition for trim(): the input without leading and
// trailing whitespace.
func Trim() functions.CustomFunctionDef {
	return onString("trim", 0, 0, func(s string, _ []value.Sequence) (value.Sequence, error) {
		return value.Sequence{value.String(strings.TrimSpace(s))}, nil
	})
}

// Split returns the definition for split(separator).
func Split() functions.CustomFunctionDef {
	return onString("split", 1, 1, func(s string, args []value.Sequence) (value.Sequence, error) {
		sep, ok, err := extutil.String("split", args[0])
		if err != nil || !ok {
			return nil, err
		}
		parts := strings.Split(s, sep)
		out := make(value.Sequence, len(parts))
		for i, p := range parts {
			out[i] = value.String(p)
		}
		return out, nil
	})
}

// Join returns the definition for join([separator]). Unlike the other
// functions in this package it consumes the whole input collection.
func Join() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "join",
		MinArgs: 0,
		MaxArgs: 1,
		Fn: func(_ context.Context, focus value.Sequence, args ...value.Sequence) (value.Sequence, error) {
			sep := ""
			if a := extutil.Arg(args, 0); a != nil {
				s, _, err := extutil.String("join", a)
				if err != nil {
					return nil, err
				}
				sep = s
			}
			parts := make([]string, 0, len(focus))
			for _, item := range focus {
				s, ok := node.Comparable(item).(value.String)
				if !ok {
					return nil, extutil.Errorf("join", "expected Strings, got %s", item.TypeName())
				}
				parts = append(parts, string(s))
			}
			return value.Sequence{value.String(strings.Join(parts, sep))}, nil
		},
	}
}

// LastIndexOf returns the definition for lastIndexOf(substring). The result
// counts characters, and is -1 when substring does not occur.
func LastIndexOf() functions.CustomFunctionDef {
	return onString("lastIndexOf", 1, 1, func(s string, args []value.Sequence) (value.Sequence, error) {
		sub, ok, err := extutil.String("lastIndexOf", args[0])
		if err != nil || !ok {
			return nil, err
		}
		idx := strings.LastIndex(s, sub)
		if idx >= 0 {
			idx = utf8.RuneCountInString(s[:idx])
		}
		return value.Sequence{value.Integer(idx)}, nil
	})
}

// Capitalize returns the definition for capitalize(): the first character
// in upper case, the rest unchanged.
func Capitalize() functions.CustomFunctionDef {
	return onString("capitalize", 0, 0, func(s string, _ []value.Sequence) (value.Sequence, error) {
		r, size := utf8.DecodeRuneInString(s)
		if size == 0 {
			return value.Sequence{value.String(s)}, nil
		}
		head := cases.Upper(language.Und).String(string(r))
		return value.Sequence{value.String(head + s[size:])}, nil
	})
}

// TitleCase returns the definition for titleCase().
func TitleCase() functions.CustomFunctionDef {
	return onString("titleCase", 0, 0, func(s string, _ []value.Sequence) (value.Sequence, error) {
		return value.Sequence{value.String(cases.Title(language.Und).String(s))}, nil
	})
}

// Repeat returns the definition for repeatString(count). The name avoids the
// built-in repeat().
func Repeat() functions.CustomFunctionDef {
	return onString("repeatString", 1, 1, func(s string, args []value.Sequence) (value.Sequence, error) {
		v, ok, err := extutil.Single("repeatString", args[0])
		if err != nil || !ok {
			return nil, err
		}
		n, isInt := v.(value.Integer)
		if !isInt || n < 0 {
			return nil, extutil.Errorf("repeatString", "count must be a non-negative Integer")
		}
		return value.Sequence{value.String(strings.Repeat(s, int(n)))}, nil
	})
}

var codecs = map[string]struct {
	encode func([]byte) string
	decode func(string) ([]byte, error)
}{
	"base64":    {base64.StdEncoding.EncodeToString, base64.StdEncoding.DecodeString},
	"urlbase64": {base64.URLEncoding.EncodeToString, base64.URLEncoding.DecodeString},
	"hex":       {hex.EncodeToString, hex.DecodeString},
}

func codecArg(name string, args []value.Sequence) (string, bool, error) {
	format, ok, err := extutil.String(name, args[0])
	if err != nil || !ok {
		return "", false, err
	}
	if _, known := codecs[format]; !known {
		return "", false, extutil.Errorf(name, "unknown format %q", format)
	}
	return format, true, nil
}

// Encode returns the definition for encode(format) where format is one of
// base64, urlbase64 or hex.
func Encode() functions.CustomFunctionDef {
	return onString("encode", 1, 1, func(s string, args []value.Sequence) (value.Sequence, error) {
		format, ok, err := codecArg("encode", args)
		if err != nil || !ok {
			return nil, err
		}
		return value.Sequence{value.String(codecs[format].encode([]byte(s)))}, nil
	})
}

// Decode returns the definition for decode(format), the inverse of encode.
func Decode() functions.CustomFunctionDef {
	return onString("decode", 1, 1, func(s string, args []value.Sequence) (value.Sequence, error) {
		format, ok, err := codecArg("decode", args)
		if err != nil || !ok {
			return nil, err
		}
		raw, err := codecs[format].decode(s)
		if err != nil {
			return nil, extutil.Errorf("decode", "invalid %s input: %v", format, err)
		}
		return value.Sequence{value.String(raw)}, nil
	})
}
