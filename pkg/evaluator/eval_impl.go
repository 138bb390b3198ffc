package evaluator

import (
	"context"
	"errors"

	"github.com/sandrolain/gofhirpath/pkg/types"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// Well-known external constants.
const (
	ucumSystem  = "http://unitsofmeasure.org"
	sctSystem   = "http://snomed.info/sct"
	loincSystem = "http://loinc.org"
)

// evalNode evaluates node against the input collection within scope.
func (e *Evaluator) evalNode(ctx context.Context, node *types.ASTNode, input value.Sequence, scope *EvalContext) (value.Sequence, error) {
	// Check context cancellation
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if node == nil {
		return nil, nil
	}

	if scope.Depth() > e.opts.MaxDepth {
		return nil, types.Errorf(types.ErrRecursionDepth, node.Position, "maximum recursion depth %d exceeded", e.opts.MaxDepth)
	}

	// Debug logging
	if e.opts.Debug {
		e.logger.Debug("evaluating node",
			"type", node.Type,
			"value", node.StrValue,
			"position", node.Position,
			"depth", scope.Depth())
	}

	switch node.Type {
	case types.NodeString, types.NodeInteger, types.NodeDecimal, types.NodeBoolean,
		types.NodeDate, types.NodeDateTime, types.NodeTime, types.NodeQuantity:
		return e.evalLiteral(node)
	case types.NodeEmpty:
		return nil, nil
	case types.NodeName:
		return e.evalName(node, input), nil
	case types.NodePath:
		return e.evalPath(ctx, node, input, scope)
	case types.NodeIndex:
		return e.evalIndex(ctx, node, input, scope)
	case types.NodeFunction:
		return e.evalFunction(ctx, node, input, scope)
	case types.NodeBinary:
		return e.evalBinary(ctx, node, input, scope)
	case types.NodeUnary:
		return e.evalUnary(ctx, node, input, scope)
	case types.NodeTypeOp:
		return e.evalTypeOp(ctx, node, input, scope)
	case types.NodeVariable:
		return e.evalVariable(node, scope)
	case types.NodeExternal:
		return e.evalExternal(node, scope)
	default:
		return nil, types.Errorf(types.ErrInvalidTypeOperation, node.Position, "unknown node type: %s", node.Type)
	}
}

func (e *Evaluator) evalLiteral(node *types.ASTNode) (value.Sequence, error) {
	v, ok := node.Value.(value.Value)
	if !ok {
		return nil, types.Errorf(types.ErrInvalidTypeOperation, node.Position, "invalid %s literal", node.Type)
	}
	return value.Sequence{v}, nil
}

func (e *Evaluator) evalVariable(node *types.ASTNode, scope *EvalContext) (value.Sequence, error) {
	switch node.StrValue {
	case "this":
		return scope.Data(), nil
	case "index":
		if i, ok := scope.Index(); ok {
			return value.Sequence{value.Integer(i)}, nil
		}
		return nil, nil
	case "total":
		if total, ok := scope.Total(); ok {
			return total, nil
		}
		return nil, nil
	}
	return nil, types.Errorf(types.ErrUndefinedVariable, node.Position, "undefined variable $%s", node.StrValue)
}

// evalExternal resolves %name: host variables first, then the implicit
// environment.
func (e *Evaluator) evalExternal(node *types.ASTNode, scope *EvalContext) (value.Sequence, error) {
	if seq, ok := scope.Env().Variable(node.StrValue); ok {
		return seq, nil
	}
	switch node.StrValue {
	case "context", "resource", "rootResource":
		return scope.Root(), nil
	case "ucum":
		return value.Sequence{value.String(ucumSystem)}, nil
	case "sct":
		return value.Sequence{value.String(sctSystem)}, nil
	case "loinc":
		return value.Sequence{value.String(loincSystem)}, nil
	}
	return nil, types.Errorf(types.ErrUndefinedVariable, node.Position, "undefined variable %%%s", node.StrValue)
}

// locate attaches the position and operator of node to an evaluation
// error that does not carry one yet. Other errors pass through unchanged.
func locate(err error, node *types.ASTNode) error {
	var fe *types.Error
	if !errors.As(err, &fe) || fe.Position >= 0 {
		return err
	}
	fe.WithPosition(node.Position)
	if fe.Token == "" {
		fe.WithToken(node.StrValue)
	}
	return err
}

// singleton returns the only element of seq. An empty seq yields ok false;
// more than one element is a cardinality error.
func singleton(seq value.Sequence, node *types.ASTNode, what string) (value.Value, bool, error) {
	switch len(seq) {
	case 0:
		return nil, false, nil
	case 1:
		return seq[0], true, nil
	}
	return nil, false, types.Errorf(types.ErrCardinality, node.Position,
		"%s expects a single item, got %d", what, len(seq)).WithToken(node.StrValue)
}

// toBoolean converts a collection to a boolean under singleton evaluation:
// empty is unknown, a single Boolean is itself, any other single item is true.
func toBoolean(seq value.Sequence, node *types.ASTNode, what string) (b, known bool, err error) {
	v, ok, err := singleton(seq, node, what)
	if err != nil || !ok {
		return false, false, err
	}
	if bv, isBool := value.Unwrap(v).(value.Boolean); isBool {
		return bool(bv), true, nil
	}
	return true, true, nil
}

func boolSeq(b bool) value.Sequence {
	return value.Sequence{value.Boolean(b)}
}
