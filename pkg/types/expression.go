// Package types defines the core types shared by the gofhirpath parser and
// evaluator.
//
// This package contains type definitions for:
//   - Expression: compiled path expressions
//   - ASTNode: Abstract Syntax Tree nodes and their arena allocator
//   - Error: structured errors with codes and kinds
package types

// Expression represents a compiled path expression.
//
// An Expression can be evaluated multiple times against different trees
// by passing it to [evaluator.Evaluator.Eval]. It is safe for concurrent use
// by multiple goroutines.
type Expression struct {
	ast    *ASTNode
	source string
	arena  *NodeArena
}

// NewExpression creates a new Expression from an AST.
func NewExpression(ast *ASTNode, source string) *Expression {
	return &Expression{
		ast:    ast,
		source: source,
	}
}

// NewExpressionWithArena creates an Expression that keeps the arena holding
// its nodes alive.
func NewExpressionWithArena(ast *ASTNode, source string, arena *NodeArena) *Expression {
	return &Expression{
		ast:    ast,
		source: source,
		arena:  arena,
	}
}

// AST returns the Abstract Syntax Tree of the expression.
func (e *Expression) AST() *ASTNode {
	return e.ast
}

// Source returns the original source text of the expression.
func (e *Expression) Source() string {
	return e.source
}

// String returns a string representation of the expression.
func (e *Expression) String() string {
	return e.source
}
