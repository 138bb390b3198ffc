package evaluator

import (
	"context"
	"fmt"
	"sync"

	"github.com/sandrolain/gofhirpath/pkg/functions"
	"github.com/sandrolain/gofhirpath/pkg/types"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// FunctionDef defines a built-in function.
type FunctionDef struct {
	Name    string
	MinArgs int
	MaxArgs int  // -1 for unlimited
	Lazy    bool // If true, arguments are left to the implementation to evaluate
	Impl    FunctionImpl
}

// FunctionImpl is the implementation of a function.
type FunctionImpl func(ctx context.Context, e *Evaluator, c *call) (value.Sequence, error)

// call is one invocation of a function: the input collection it is applied
// to, the enclosing scope and, for eager functions, the evaluated arguments.
type call struct {
	e     *Evaluator
	node  *types.ASTNode
	focus value.Sequence
	scope *EvalContext
	args  []value.Sequence
}

// NumArgs returns the number of arguments written at the call site.
func (c *call) NumArgs() int {
	return len(c.node.Arguments)
}

// Eval evaluates argument i with $this bound to item and $index to index.
func (c *call) Eval(ctx context.Context, i int, item value.Value, index int) (value.Sequence, error) {
	return c.e.evalNode(ctx, c.node.Arguments[i], value.Sequence{item}, c.scope.NewChildContext(item, index))
}

// evalArg evaluates argument i against the enclosing $this.
func (c *call) evalArg(ctx context.Context, i int) (value.Sequence, error) {
	return c.e.evalNode(ctx, c.node.Arguments[i], c.scope.Data(), c.scope)
}

// arg returns eagerly evaluated argument i, or nil when it was omitted.
func (c *call) arg(i int) value.Sequence {
	if i >= len(c.args) {
		return nil
	}
	return c.args[i]
}

// hasArg reports whether argument i was written.
func (c *call) hasArg(i int) bool {
	return i < len(c.node.Arguments)
}

// typeArg reads argument i as a type specifier: Name or Namespace.Name.
func (c *call) typeArg(i int) (string, error) {
	a := c.node.Arguments[i]
	switch {
	case a.Type == types.NodeName:
		return a.StrValue, nil
	case a.Type == types.NodePath && a.LHS.Type == types.NodeName && a.RHS.Type == types.NodeName:
		return a.LHS.StrValue + "." + a.RHS.StrValue, nil
	}
	return "", c.errorf(types.ErrInvalidTypeOperation, "%s() expects a type name", c.node.StrValue)
}

// errorf builds an error located at the call site.
func (c *call) errorf(code types.ErrorCode, format string, args ...any) error {
	return types.Errorf(code, c.node.Position, format, args...).WithToken(c.node.StrValue)
}

// singletonArg returns the single item of argument i.
func (c *call) singletonArg(i int) (value.Value, bool, error) {
	return singleton(c.arg(i), c.node, c.node.StrValue+"()")
}

// intArg reads argument i as a single Integer.
func (c *call) intArg(i int) (int, bool, error) {
	v, ok, err := c.singletonArg(i)
	if err != nil || !ok {
		return 0, false, err
	}
	n, isInt := value.Unwrap(v).(value.Integer)
	if !isInt {
		return 0, false, c.errorf(types.ErrInvalidTypeOperation, "%s() expects an Integer argument, got %s", c.node.StrValue, v.TypeName())
	}
	return int(n), true, nil
}

// stringArg reads argument i as a single String.
func (c *call) stringArg(i int) (string, bool, error) {
	v, ok, err := c.singletonArg(i)
	if err != nil || !ok {
		return "", false, err
	}
	s, isStr := value.Unwrap(v).(value.String)
	if !isStr {
		return "", false, c.errorf(types.ErrInvalidTypeOperation, "%s() expects a String argument, got %s", c.node.StrValue, v.TypeName())
	}
	return string(s), true, nil
}

// focusSingleton returns the single item of the input collection.
func (c *call) focusSingleton() (value.Value, bool, error) {
	return singleton(c.focus, c.node, c.node.StrValue+"()")
}

var (
	builtinFunctions     map[string]*FunctionDef
	builtinFunctionsOnce sync.Once
)

// initBuiltinFunctions initializes the built-in function registry.
func initBuiltinFunctions() {
	builtinFunctionsOnce.Do(func() {
		builtinFunctions = map[string]*FunctionDef{
			// Existence
			"empty":      {Name: "empty", MinArgs: 0, MaxArgs: 0, Impl: fnEmpty},
			"exists":     {Name: "exists", MinArgs: 0, MaxArgs: 1, Lazy: true, Impl: fnExists},
			"all":        {Name: "all", MinArgs: 1, MaxArgs: 1, Lazy: true, Impl: fnAll},
			"allTrue":    {Name: "allTrue", MinArgs: 0, MaxArgs: 0, Impl: fnAllTrue},
			"anyTrue":    {Name: "anyTrue", MinArgs: 0, MaxArgs: 0, Impl: fnAnyTrue},
			"allFalse":   {Name: "allFalse", MinArgs: 0, MaxArgs: 0, Impl: fnAllFalse},
			"anyFalse":   {Name: "anyFalse", MinArgs: 0, MaxArgs: 0, Impl: fnAnyFalse},
			"subsetOf":   {Name: "subsetOf", MinArgs: 1, MaxArgs: 1, Impl: fnSubsetOf},
			"supersetOf": {Name: "supersetOf", MinArgs: 1, MaxArgs: 1, Impl: fnSupersetOf},
			"count":      {Name: "count", MinArgs: 0, MaxArgs: 0, Impl: fnCount},
			"distinct":   {Name: "distinct", MinArgs: 0, MaxArgs: 0, Impl: fnDistinct},
			"isDistinct": {Name: "isDistinct", MinArgs: 0, MaxArgs: 0, Impl: fnIsDistinct},

			// Filtering and projection
			"where":     {Name: "where", MinArgs: 1, MaxArgs: 1, Lazy: true, Impl: fnWhere},
			"select":    {Name: "select", MinArgs: 1, MaxArgs: 1, Lazy: true, Impl: fnSelect},
			"repeat":    {Name: "repeat", MinArgs: 1, MaxArgs: 1, Lazy: true, Impl: fnRepeat},
			"ofType":    {Name: "ofType", MinArgs: 1, MaxArgs: 1, Lazy: true, Impl: fnOfType},
			"aggregate": {Name: "aggregate", MinArgs: 1, MaxArgs: 2, Lazy: true, Impl: fnAggregate},

			// Subsetting
			"single":    {Name: "single", MinArgs: 0, MaxArgs: 0, Impl: fnSingle},
			"first":     {Name: "first", MinArgs: 0, MaxArgs: 0, Impl: fnFirst},
			"last":      {Name: "last", MinArgs: 0, MaxArgs: 0, Impl: fnLast},
			"tail":      {Name: "tail", MinArgs: 0, MaxArgs: 0, Impl: fnTail},
			"skip":      {Name: "skip", MinArgs: 1, MaxArgs: 1, Impl: fnSkip},
			"take":      {Name: "take", MinArgs: 1, MaxArgs: 1, Impl: fnTake},
			"intersect": {Name: "intersect", MinArgs: 1, MaxArgs: 1, Impl: fnIntersect},
			"exclude":   {Name: "exclude", MinArgs: 1, MaxArgs: 1, Impl: fnExclude},

			// Combining
			"union":   {Name: "union", MinArgs: 1, MaxArgs: 1, Impl: fnUnion},
			"combine": {Name: "combine", MinArgs: 1, MaxArgs: 1, Impl: fnCombine},

			// Conversion
			"iif":                {Name: "iif", MinArgs: 2, MaxArgs: 3, Lazy: true, Impl: fnIif},
			"toBoolean":          {Name: "toBoolean", MinArgs: 0, MaxArgs: 0, Impl: fnToBoolean},
			"convertsToBoolean":  {Name: "convertsToBoolean", MinArgs: 0, MaxArgs: 0, Impl: fnConvertsTo(fnToBoolean)},
			"toInteger":          {Name: "toInteger", MinArgs: 0, MaxArgs: 0, Impl: fnToInteger},
			"convertsToInteger":  {Name: "convertsToInteger", MinArgs: 0, MaxArgs: 0, Impl: fnConvertsTo(fnToInteger)},
			"toDecimal":          {Name: "toDecimal", MinArgs: 0, MaxArgs: 0, Impl: fnToDecimal},
			"convertsToDecimal":  {Name: "convertsToDecimal", MinArgs: 0, MaxArgs: 0, Impl: fnConvertsTo(fnToDecimal)},
			"toString":           {Name: "toString", MinArgs: 0, MaxArgs: 0, Impl: fnToString},
			"convertsToString":   {Name: "convertsToString", MinArgs: 0, MaxArgs: 0, Impl: fnConvertsTo(fnToString)},
			"toQuantity":         {Name: "toQuantity", MinArgs: 0, MaxArgs: 1, Impl: fnToQuantity},
			"convertsToQuantity": {Name: "convertsToQuantity", MinArgs: 0, MaxArgs: 1, Impl: fnConvertsTo(fnToQuantity)},

			// String manipulation
			"length":         {Name: "length", MinArgs: 0, MaxArgs: 0, Impl: fnLength},
			"upper":          {Name: "upper", MinArgs: 0, MaxArgs: 0, Impl: fnUpper},
			"lower":          {Name: "lower", MinArgs: 0, MaxArgs: 0, Impl: fnLower},
			"startsWith":     {Name: "startsWith", MinArgs: 1, MaxArgs: 1, Impl: fnStartsWith},
			"endsWith":       {Name: "endsWith", MinArgs: 1, MaxArgs: 1, Impl: fnEndsWith},
			"contains":       {Name: "contains", MinArgs: 1, MaxArgs: 1, Impl: fnContains},
			"indexOf":        {Name: "indexOf", MinArgs: 1, MaxArgs: 1, Impl: fnIndexOf},
			"substring":      {Name: "substring", MinArgs: 1, MaxArgs: 2, Impl: fnSubstring},
			"matches":        {Name: "matches", MinArgs: 1, MaxArgs: 1, Impl: fnMatches},
			"replace":        {Name: "replace", MinArgs: 2, MaxArgs: 2, Impl: fnReplace},
			"replaceMatches": {Name: "replaceMatches", MinArgs: 2, MaxArgs: 2, Impl: fnReplaceMatches},
			"toChars":        {Name: "toChars", MinArgs: 0, MaxArgs: 0, Impl: fnToChars},

			// Math
			"abs":      {Name: "abs", MinArgs: 0, MaxArgs: 0, Impl: fnAbs},
			"ceiling":  {Name: "ceiling", MinArgs: 0, MaxArgs: 0, Impl: fnCeiling},
			"floor":    {Name: "floor", MinArgs: 0, MaxArgs: 0, Impl: fnFloor},
			"round":    {Name: "round", MinArgs: 0, MaxArgs: 1, Impl: fnRound},
			"truncate": {Name: "truncate", MinArgs: 0, MaxArgs: 0, Impl: fnTruncate},

			// Aggregates
			"sum": {Name: "sum", MinArgs: 0, MaxArgs: 0, Impl: fnSum},
			"min": {Name: "min", MinArgs: 0, MaxArgs: 0, Impl: fnMin},
			"max": {Name: "max", MinArgs: 0, MaxArgs: 0, Impl: fnMax},
			"avg": {Name: "avg", MinArgs: 0, MaxArgs: 0, Impl: fnAvg},

			// Tree navigation
			"children":    {Name: "children", MinArgs: 0, MaxArgs: 0, Impl: fnChildren},
			"descendants": {Name: "descendants", MinArgs: 0, MaxArgs: 0, Impl: fnDescendants},

			// Types
			"is":       {Name: "is", MinArgs: 1, MaxArgs: 1, Lazy: true, Impl: fnIs},
			"as":       {Name: "as", MinArgs: 1, MaxArgs: 1, Lazy: true, Impl: fnAs},
			"hasValue": {Name: "hasValue", MinArgs: 0, MaxArgs: 0, Impl: fnHasValue},

			// Utility
			"not":   {Name: "not", MinArgs: 0, MaxArgs: 0, Impl: fnNot},
			"trace": {Name: "trace", MinArgs: 1, MaxArgs: 2, Lazy: true, Impl: fnTrace},
		}
	})
}

// GetFunction retrieves a built-in function by name.
func GetFunction(name string) (*FunctionDef, bool) {
	initBuiltinFunctions()
	fn, ok := builtinFunctions[name]
	return fn, ok
}

// customFunctionDef adapts a registered custom function to a FunctionDef.
func customFunctionDef(entry functions.FunctionEntry) *FunctionDef {
	switch cfd := entry.(type) {
	case functions.CustomFunctionDef:
		return &FunctionDef{
			Name:    cfd.Name,
			MinArgs: cfd.MinArgs,
			MaxArgs: cfd.MaxArgs,
			Impl: func(ctx context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
				return cfd.Fn(ctx, c.focus, c.args...)
			},
		}
	case functions.AdvancedCustomFunctionDef:
		return &FunctionDef{
			Name:    cfd.Name,
			MinArgs: cfd.MinArgs,
			MaxArgs: cfd.MaxArgs,
			Lazy:    true,
			Impl: func(ctx context.Context, _ *Evaluator, c *call) (value.Sequence, error) {
				return cfd.Fn(ctx, c, c.focus)
			},
		}
	}
	return nil
}

// lookupFunction resolves name to a built-in, an evaluator-level custom
// function or a context-level custom function, in that order.
func (e *Evaluator) lookupFunction(name string, scope *EvalContext) (*FunctionDef, bool) {
	if fn, ok := GetFunction(name); ok {
		return fn, true
	}
	if fn, ok := e.getCustomFunction(name); ok {
		return fn, true
	}
	if def, ok := scope.Env().Function(name); ok {
		return customFunctionDef(def), true
	}
	return nil, false
}

// evalFunction dispatches a function call. input is the collection the
// function is applied to.
func (e *Evaluator) evalFunction(ctx context.Context, n *types.ASTNode, input value.Sequence, scope *EvalContext) (value.Sequence, error) {
	fnDef, ok := e.lookupFunction(n.StrValue, scope)
	if !ok {
		return nil, types.Errorf(types.ErrUndefinedFunction, n.Position, "unknown function: %s", n.StrValue).WithToken(n.StrValue)
	}

	argc := len(n.Arguments)
	if argc < fnDef.MinArgs {
		return nil, types.NewError(types.ErrArgumentCountMismatch,
			fmt.Sprintf("function %s requires at least %d arguments, got %d", n.StrValue, fnDef.MinArgs, argc), n.Position).WithToken(n.StrValue)
	}
	if fnDef.MaxArgs != -1 && argc > fnDef.MaxArgs {
		return nil, types.NewError(types.ErrArgumentCountMismatch,
			fmt.Sprintf("function %s accepts at most %d arguments, got %d", n.StrValue, fnDef.MaxArgs, argc), n.Position).WithToken(n.StrValue)
	}

	if e.opts.Debug {
		e.logger.Debug("calling function", "name", n.StrValue, "args", argc, "focus", len(input))
	}

	c := &call{e: e, node: n, focus: input, scope: scope}
	if !fnDef.Lazy {
		c.args = make([]value.Sequence, argc)
		for i := range n.Arguments {
			arg, err := c.evalArg(ctx, i)
			if err != nil {
				return nil, err
			}
			c.args[i] = arg
		}
	}

	result, err := fnDef.Impl(ctx, e, c)
	if err != nil {
		return nil, locate(err, n)
	}
	return result, nil
}
