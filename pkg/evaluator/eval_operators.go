package evaluator

import (
	"context"

	"github.com/sandrolain/gofhirpath/pkg/node"
	"github.com/sandrolain/gofhirpath/pkg/types"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// evalBinary evaluates a binary operator. Both operands are always
// evaluated, left first, against the same input.
func (e *Evaluator) evalBinary(ctx context.Context, n *types.ASTNode, input value.Sequence, scope *EvalContext) (value.Sequence, error) {
	left, err := e.evalNode(ctx, n.LHS, input, scope)
	if err != nil {
		return nil, err
	}
	right, err := e.evalNode(ctx, n.RHS, input, scope)
	if err != nil {
		return nil, err
	}

	var result value.Sequence
	switch n.StrValue {
	case "and", "or", "xor", "implies":
		result, err = evalLogical(n, left, right)
	case "=", "!=":
		result, err = evalEquality(n, left, right)
	case "~", "!~":
		result, err = evalEquivalence(n, left, right)
	case "<", "<=", ">", ">=":
		result, err = evalComparison(n, left, right)
	case "|":
		result = left.Union(right)
	case "in":
		result, err = evalMembership(n, left, right)
	case "contains":
		result, err = evalMembership(n, right, left)
	case "&":
		result, err = evalConcat(n, left, right)
	case "+", "-", "*", "/", "div", "mod":
		result, err = evalArithmetic(n, left, right)
	default:
		return nil, types.Errorf(types.ErrInvalidTypeOperation, n.Position, "unknown operator: %s", n.StrValue).WithToken(n.StrValue)
	}
	if err != nil {
		return nil, locate(err, n)
	}
	return result, nil
}

// evalLogical implements three-valued logic where empty is unknown.
func evalLogical(n *types.ASTNode, left, right value.Sequence) (value.Sequence, error) {
	l, lKnown, err := toBoolean(left, n, "operator "+n.StrValue)
	if err != nil {
		return nil, err
	}
	r, rKnown, err := toBoolean(right, n, "operator "+n.StrValue)
	if err != nil {
		return nil, err
	}

	switch n.StrValue {
	case "and":
		switch {
		case (lKnown && !l) || (rKnown && !r):
			return boolSeq(false), nil
		case lKnown && rKnown:
			return boolSeq(true), nil
		}
	case "or":
		switch {
		case (lKnown && l) || (rKnown && r):
			return boolSeq(true), nil
		case lKnown && rKnown:
			return boolSeq(false), nil
		}
	case "xor":
		if lKnown && rKnown {
			return boolSeq(l != r), nil
		}
	case "implies":
		switch {
		case lKnown && !l:
			return boolSeq(true), nil
		case rKnown && r:
			return boolSeq(true), nil
		case lKnown && rKnown:
			return boolSeq(false), nil
		}
	}
	return nil, nil
}

// evalEquality implements = and !=. Empty operands give empty; values of
// unrelated types are unequal; undecidable comparisons give empty.
func evalEquality(n *types.ASTNode, left, right value.Sequence) (value.Sequence, error) {
	a, okA, err := singleton(left, n, "operator "+n.StrValue)
	if err != nil {
		return nil, err
	}
	b, okB, err := singleton(right, n, "operator "+n.StrValue)
	if err != nil {
		return nil, err
	}
	if !okA || !okB {
		return nil, nil
	}
	eq, ok := node.Equal(a, b)
	if !ok {
		return nil, nil
	}
	if n.StrValue == "!=" {
		eq = !eq
	}
	return boolSeq(eq), nil
}

// evalEquivalence implements ~ and !~. An empty operand yields empty.
func evalEquivalence(n *types.ASTNode, left, right value.Sequence) (value.Sequence, error) {
	a, okA, err := singleton(left, n, "operator "+n.StrValue)
	if err != nil {
		return nil, err
	}
	b, okB, err := singleton(right, n, "operator "+n.StrValue)
	if err != nil {
		return nil, err
	}
	if !okA || !okB {
		return nil, nil
	}
	eq := node.Equivalent(a, b)
	if n.StrValue == "!~" {
		eq = !eq
	}
	return boolSeq(eq), nil
}

// evalComparison implements the ordering operators.
func evalComparison(n *types.ASTNode, left, right value.Sequence) (value.Sequence, error) {
	a, okA, err := singleton(left, n, "operator "+n.StrValue)
	if err != nil {
		return nil, err
	}
	b, okB, err := singleton(right, n, "operator "+n.StrValue)
	if err != nil {
		return nil, err
	}
	if !okA || !okB {
		return nil, nil
	}
	c, ok, err := value.Compare(node.Comparable(a), node.Comparable(b))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var result bool
	switch n.StrValue {
	case "<":
		result = c < 0
	case "<=":
		result = c <= 0
	case ">":
		result = c > 0
	case ">=":
		result = c >= 0
	}
	return boolSeq(result), nil
}

// evalMembership reports whether the single item of item occurs in coll.
func evalMembership(n *types.ASTNode, item, coll value.Sequence) (value.Sequence, error) {
	v, ok, err := singleton(item, n, "operator "+n.StrValue)
	if err != nil || !ok {
		return nil, err
	}
	for _, c := range coll {
		if eq, ok := node.Equal(c, v); ok && eq {
			return boolSeq(true), nil
		}
	}
	return boolSeq(false), nil
}

// evalConcat implements &, which treats empty operands as empty strings.
func evalConcat(n *types.ASTNode, left, right value.Sequence) (value.Sequence, error) {
	var parts [2]string
	for i, seq := range []value.Sequence{left, right} {
		v, ok, err := singleton(seq, n, "operator &")
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		s, isStr := node.Comparable(v).(value.String)
		if !isStr {
			return nil, types.Errorf(types.ErrInvalidTypeOperation, n.Position,
				"operator & expects String operands, got %s", v.TypeName())
		}
		parts[i] = string(s)
	}
	return value.Sequence{value.String(parts[0] + parts[1])}, nil
}

func evalArithmetic(n *types.ASTNode, left, right value.Sequence) (value.Sequence, error) {
	a, okA, err := singleton(left, n, "operator "+n.StrValue)
	if err != nil {
		return nil, err
	}
	b, okB, err := singleton(right, n, "operator "+n.StrValue)
	if err != nil {
		return nil, err
	}
	if !okA || !okB {
		return nil, nil
	}
	v, err := value.Arithmetic(n.StrValue, node.Comparable(a), node.Comparable(b))
	if err != nil || v == nil {
		return nil, err
	}
	return value.Sequence{v}, nil
}

// evalUnary evaluates unary + and -.
func (e *Evaluator) evalUnary(ctx context.Context, n *types.ASTNode, input value.Sequence, scope *EvalContext) (value.Sequence, error) {
	operand, err := e.evalNode(ctx, n.LHS, input, scope)
	if err != nil {
		return nil, err
	}
	v, ok, err := singleton(operand, n, "unary "+n.StrValue)
	if err != nil || !ok {
		return nil, err
	}
	v = node.Comparable(v)
	if n.StrValue == "+" {
		switch v.(type) {
		case value.Integer, value.Decimal, value.Quantity:
			return value.Sequence{v}, nil
		}
		return nil, types.Errorf(types.ErrInvalidTypeOperation, n.Position, "cannot apply unary + to %s", v.TypeName()).WithToken("+")
	}
	neg, err := value.Negate(v)
	if err != nil {
		return nil, locate(err, n)
	}
	return value.Sequence{neg}, nil
}

// evalTypeOp evaluates "x is T" and "x as T".
func (e *Evaluator) evalTypeOp(ctx context.Context, n *types.ASTNode, input value.Sequence, scope *EvalContext) (value.Sequence, error) {
	operand, err := e.evalNode(ctx, n.LHS, input, scope)
	if err != nil {
		return nil, err
	}
	v, ok, err := singleton(operand, n, "operator "+n.StrValue)
	if err != nil || !ok {
		return nil, err
	}
	typeName := n.RHS.StrValue
	if n.StrValue == "is" {
		return boolSeq(node.IsA(v, typeName)), nil
	}
	if node.IsA(v, typeName) {
		return value.Sequence{v}, nil
	}
	return nil, nil
}
