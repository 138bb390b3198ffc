package evaluator

import (
	"context"
	"unicode"
	"unicode/utf8"

	"github.com/sandrolain/gofhirpath/pkg/node"
	"github.com/sandrolain/gofhirpath/pkg/types"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// evalName resolves an identifier against every item of input. Items that
// have children of that name contribute them, in focus order then child
// order. An identifier that names the runtime type or a base type of an
// item selects the item itself, which is how Resource.meta resolves on a
// Patient.
func (e *Evaluator) evalName(n *types.ASTNode, input value.Sequence) value.Sequence {
	var out value.Sequence
	typeFilter := isTypeName(n.StrValue)
	for _, item := range input {
		tn, ok := item.(node.TypedNode)
		if ok {
			if children := tn.Children(n.StrValue); len(children) > 0 {
				for _, c := range children {
					out = append(out, c)
				}
				continue
			}
		}
		if typeFilter && node.IsA(item, n.StrValue) {
			out = append(out, item)
		}
	}
	return out
}

// isTypeName reports whether name can denote a type: type names start
// with an upper-case letter, field names do not.
func isTypeName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// evalPath evaluates a.b: b is evaluated with the result of a as input.
func (e *Evaluator) evalPath(ctx context.Context, n *types.ASTNode, input value.Sequence, scope *EvalContext) (value.Sequence, error) {
	left, err := e.evalNode(ctx, n.LHS, input, scope)
	if err != nil {
		return nil, err
	}
	if len(left) == 0 && n.RHS.Type == types.NodeName {
		return nil, nil
	}
	return e.evalNode(ctx, n.RHS, left, scope)
}

// evalIndex evaluates a[i]. The index is evaluated against the same input
// as a and must be a single Integer. Out of range positions yield empty.
func (e *Evaluator) evalIndex(ctx context.Context, n *types.ASTNode, input value.Sequence, scope *EvalContext) (value.Sequence, error) {
	coll, err := e.evalNode(ctx, n.LHS, input, scope)
	if err != nil {
		return nil, err
	}
	idxSeq, err := e.evalNode(ctx, n.RHS, input, scope)
	if err != nil {
		return nil, err
	}
	if len(idxSeq) == 0 {
		return nil, nil
	}
	if len(idxSeq) > 1 {
		return nil, types.Errorf(types.ErrInvalidIndex, n.Position,
			"index must be a single Integer, got %d items", len(idxSeq)).WithToken("[")
	}
	idx, ok := value.Unwrap(idxSeq[0]).(value.Integer)
	if !ok {
		return nil, types.Errorf(types.ErrInvalidIndex, n.Position,
			"index must be an Integer, got %s", idxSeq[0].TypeName()).WithToken("[")
	}
	if idx < 0 || int(idx) >= len(coll) {
		return nil, nil
	}
	return value.Sequence{coll[idx]}, nil
}
