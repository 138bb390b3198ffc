// Package parser implements the path expression parser.
//
// The parser is a hand-written Pratt parser over a Rob Pike style lexer.
// It is pure and deterministic: the same text always produces an equal AST,
// and errors carry the source position of the offending token.
//
// # Architecture
//
// The parser consists of two main components:
//   - Lexer: Tokenizes the input expression into a stream of tokens
//   - Parser: Builds an Abstract Syntax Tree (AST) from tokens, allocating
//     nodes from an arena owned by the resulting Expression
//
// # Example
//
//	expr, err := parser.Parse("Patient.identifier.where(system = 'urn:a').value")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ast := expr.AST()
package parser

import (
	"github.com/sandrolain/gofhirpath/pkg/types"
)

// DefaultMaxDepth bounds expression nesting when no option overrides it.
const DefaultMaxDepth = 100

// Parse parses a path expression and returns the compiled Expression.
//
// If parsing fails, it returns a *types.Error of kind syntax with the
// position of the offending token.
//
// Example:
//
//	expr, err := parser.Parse("Resource.meta.lastUpdated")
//	if err != nil {
//	    fmt.Printf("Parse error: %v\n", err)
//	    return
//	}
func Parse(query string) (*types.Expression, error) {
	p := NewParser(query)
	return p.Parse()
}

// Compile parses query with the given options.
func Compile(query string, opts ...CompileOption) (*types.Expression, error) {
	p := NewParser(query, opts...)
	return p.Parse()
}

// CompileOption configures compilation behavior.
type CompileOption func(*CompileOptions)

// CompileOptions holds parser configuration.
type CompileOptions struct {
	// MaxDepth limits expression nesting to prevent stack overflow.
	MaxDepth int
}

// WithMaxDepth sets the maximum parsing depth.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}
