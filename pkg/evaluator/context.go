package evaluator

import (
	"fmt"

	"github.com/sandrolain/gofhirpath/pkg/functions"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// EvaluationContext is the host-supplied environment of one evaluation:
// %variables, an optional tracer and custom functions. It is built once by
// NewEvaluationContext and never modified afterwards, so one context may be
// shared by concurrent evaluations.
type EvaluationContext struct {
	variables map[string]value.Sequence
	tracer    TraceFunc
	functions map[string]functions.CustomFunctionDef
}

// ContextOption configures an EvaluationContext.
type ContextOption func(*EvaluationContext)

// NewEvaluationContext builds an EvaluationContext from opts.
func NewEvaluationContext(opts ...ContextOption) *EvaluationContext {
	ec := &EvaluationContext{
		variables: make(map[string]value.Sequence),
		functions: make(map[string]functions.CustomFunctionDef),
	}
	for _, opt := range opts {
		opt(ec)
	}
	return ec
}

// WithVariable binds %name to seq.
func WithVariable(name string, seq value.Sequence) ContextOption {
	return func(ec *EvaluationContext) {
		ec.variables[name] = seq
	}
}

// WithTracer installs the callback invoked by trace().
func WithTracer(fn TraceFunc) ContextOption {
	return func(ec *EvaluationContext) {
		ec.tracer = fn
	}
}

// WithFunction registers a custom function for this context. Built-in
// functions of the same name take precedence.
func WithFunction(def functions.CustomFunctionDef) ContextOption {
	return func(ec *EvaluationContext) {
		ec.functions[def.Name] = def
	}
}

// Variable returns the value bound to %name.
func (ec *EvaluationContext) Variable(name string) (value.Sequence, bool) {
	if ec == nil {
		return nil, false
	}
	seq, ok := ec.variables[name]
	return seq, ok
}

// Tracer returns the configured tracer, or nil.
func (ec *EvaluationContext) Tracer() TraceFunc {
	if ec == nil {
		return nil
	}
	return ec.tracer
}

// Function returns the custom function registered under name.
func (ec *EvaluationContext) Function(name string) (functions.CustomFunctionDef, bool) {
	if ec == nil {
		return functions.CustomFunctionDef{}, false
	}
	def, ok := ec.functions[name]
	return def, ok
}

// EvalContext is one link of the scope chain built during evaluation. It
// binds $this, and inside iterating functions $index and $total. Child
// scopes are fresh values; a parent is never written through a child.
type EvalContext struct {
	// data is the current $this
	data value.Sequence

	// root is the focus the evaluation started from (%context, %resource)
	root value.Sequence

	// parent is the enclosing scope
	parent *EvalContext

	env *EvaluationContext

	index    int
	hasIndex bool
	total    value.Sequence
	hasTotal bool

	// depth tracks scope nesting to bound recursion
	depth int
}

// NewContext creates the root scope of an evaluation over focus.
func NewContext(focus value.Sequence, env *EvaluationContext) *EvalContext {
	return &EvalContext{
		data: focus,
		root: focus,
		env:  env,
	}
}

// NewChildContext creates a scope binding $this to item and $index to index.
func (c *EvalContext) NewChildContext(item value.Value, index int) *EvalContext {
	return &EvalContext{
		data:     value.Sequence{item},
		root:     c.root,
		parent:   c,
		env:      c.env,
		index:    index,
		hasIndex: true,
		total:    c.total,
		hasTotal: c.hasTotal,
		depth:    c.depth + 1,
	}
}

// WithTotal returns a copy of c binding $total to total.
func (c *EvalContext) WithTotal(total value.Sequence) *EvalContext {
	child := *c
	child.total = total
	child.hasTotal = true
	child.parent = c
	child.depth = c.depth + 1
	return &child
}

// Data returns $this.
func (c *EvalContext) Data() value.Sequence {
	return c.data
}

// Root returns the focus the evaluation started from.
func (c *EvalContext) Root() value.Sequence {
	return c.root
}

// Parent returns the enclosing scope.
func (c *EvalContext) Parent() *EvalContext {
	return c.parent
}

// Env returns the host environment.
func (c *EvalContext) Env() *EvaluationContext {
	return c.env
}

// Index returns $index when the scope iterates.
func (c *EvalContext) Index() (int, bool) {
	return c.index, c.hasIndex
}

// Total returns $total inside aggregate().
func (c *EvalContext) Total() (value.Sequence, bool) {
	return c.total, c.hasTotal
}

// Depth returns the current recursion depth.
func (c *EvalContext) Depth() int {
	return c.depth
}

// String returns a string representation of the context.
func (c *EvalContext) String() string {
	return fmt.Sprintf("Context{depth=%d, this=%d}", c.depth, len(c.data))
}
