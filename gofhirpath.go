// Package gofhirpath evaluates FHIRPath-style path expressions over typed,
// immutable trees such as healthcare resources.
//
// An expression navigates a tree by field name, filters and projects with
// functions like where() and select(), and computes with operators over
// numbers, strings, dates and unit-bearing quantities. Every expression
// yields an ordered collection; the empty collection stands in for "no
// value".
//
// # Quick Start
//
//	// Evaluate once against a typed tree
//	given, err := gofhirpath.Select(patient, "Patient.name.given")
//
//	// Boolean rules
//	ok, err := gofhirpath.Predicate(obs, "value > 74 'kg'")
//
//	// Decode a JSON or YAML resource first
//	res, err := gofhirpath.SelectDocument(doc, "identifier.value")
//
//	// With options
//	res, err := gofhirpath.Select(patient, "identifier.where(system = %sys).value",
//	    gofhirpath.WithVariable("sys", value.Of(value.String("urn:a"))),
//	    gofhirpath.WithCaching(true),
//	    gofhirpath.WithTimeout(5*time.Second),
//	)
//
// For repeated evaluations build an evaluator.Evaluator once and keep the
// compiled expressions.
//
// # More Information
//
// For detailed documentation, see:
//   - Parser: github.com/sandrolain/gofhirpath/pkg/parser
//   - Evaluator: github.com/sandrolain/gofhirpath/pkg/evaluator
//   - Typed trees: github.com/sandrolain/gofhirpath/pkg/node
//   - Values: github.com/sandrolain/gofhirpath/pkg/value
//   - Functions: github.com/sandrolain/gofhirpath/pkg/functions
//   - Types: github.com/sandrolain/gofhirpath/pkg/types
package gofhirpath

import (
	"context"
	"fmt"
	"time"

	"github.com/sandrolain/gofhirpath/pkg/cache"
	"github.com/sandrolain/gofhirpath/pkg/evaluator"
	"github.com/sandrolain/gofhirpath/pkg/model"
	"github.com/sandrolain/gofhirpath/pkg/node"
	"github.com/sandrolain/gofhirpath/pkg/parser"
	"github.com/sandrolain/gofhirpath/pkg/types"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// Version returns the current version of gofhirpath.
func Version() string {
	return "v0.1.0-dev"
}

// DefaultTimeout bounds a facade call when no context or timeout is given.
const DefaultTimeout = 30 * time.Second

// sharedCache holds expressions compiled by facade calls made WithCaching.
var sharedCache = cache.New(0)

// Option configures a single facade call.
type Option func(*settings)

type settings struct {
	ctx      context.Context
	timeout  time.Duration
	caching  bool
	evalOpts []evaluator.EvalOption
	ctxOpts  []evaluator.ContextOption
}

// WithContext runs the call under ctx instead of a DefaultTimeout context.
func WithContext(ctx context.Context) Option {
	return func(s *settings) { s.ctx = ctx }
}

// WithTimeout bounds the call.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.timeout = d }
}

// WithCaching compiles through a package-wide LRU cache, so that repeated
// calls with the same query skip parsing.
func WithCaching(enabled bool) Option {
	return func(s *settings) { s.caching = enabled }
}

// WithEvalOptions passes evaluator options such as evaluator.WithLogger or
// ext.WithAll through to the evaluator.
func WithEvalOptions(opts ...evaluator.EvalOption) Option {
	return func(s *settings) { s.evalOpts = append(s.evalOpts, opts...) }
}

// WithContextOptions passes evaluation-context options through.
func WithContextOptions(opts ...evaluator.ContextOption) Option {
	return func(s *settings) { s.ctxOpts = append(s.ctxOpts, opts...) }
}

// WithVariable binds %name to seq.
func WithVariable(name string, seq value.Sequence) Option {
	return WithContextOptions(evaluator.WithVariable(name, seq))
}

// WithTracer installs the callback invoked by trace().
func WithTracer(fn evaluator.TraceFunc) Option {
	return WithContextOptions(evaluator.WithTracer(fn))
}

// call is one prepared facade invocation.
type call struct {
	ctx    context.Context
	cancel context.CancelFunc
	ev     *evaluator.Evaluator
	ec     *evaluator.EvaluationContext
}

func prepare(opts []Option) *call {
	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}
	evalOpts := s.evalOpts
	if s.caching {
		evalOpts = append([]evaluator.EvalOption{evaluator.WithCache(sharedCache)}, evalOpts...)
	}
	c := &call{
		ev: evaluator.New(evalOpts...),
		ec: evaluator.NewEvaluationContext(s.ctxOpts...),
	}
	parent := s.ctx
	if parent == nil {
		parent = context.Background()
		if s.timeout == 0 {
			s.timeout = DefaultTimeout
		}
	}
	if s.timeout > 0 {
		c.ctx, c.cancel = context.WithTimeout(parent, s.timeout)
	} else {
		c.ctx, c.cancel = context.WithCancel(parent)
	}
	return c
}

// Compile compiles a path expression for repeated evaluation.
//
// The compiled expression can be evaluated multiple times against different
// inputs. It is safe for concurrent use.
func Compile(query string, opts ...parser.CompileOption) (*types.Expression, error) {
	return parser.Compile(query, opts...)
}

// MustCompile is like Compile but panics if the expression cannot be compiled.
// It simplifies safe initialization of global variables.
func MustCompile(query string) *types.Expression {
	expr, err := Compile(query)
	if err != nil {
		panic(fmt.Sprintf("gofhirpath: Compile(%q): %v", query, err))
	}
	return expr
}

// Select compiles query and evaluates it against root. A nil root is the
// empty collection.
func Select(root value.Value, query string, opts ...Option) (value.Sequence, error) {
	c := prepare(opts)
	defer c.cancel()
	expr, err := c.ev.Compile(query)
	if err != nil {
		return nil, err
	}
	return c.ev.Select(c.ctx, expr, root, c.ec)
}

// Predicate evaluates query against root as a rule. An empty result is
// false; see evaluator.Truthy for the full rule.
func Predicate(root value.Value, query string, opts ...Option) (bool, error) {
	c := prepare(opts)
	defer c.cancel()
	expr, err := c.ev.Compile(query)
	if err != nil {
		return false, err
	}
	return c.ev.Predicate(c.ctx, expr, root, c.ec)
}

// Scalar evaluates query against root and returns its single item. ok is
// false for an empty result; more than one item is an error.
func Scalar(root value.Value, query string, opts ...Option) (v value.Value, ok bool, err error) {
	c := prepare(opts)
	defer c.cancel()
	expr, err := c.ev.Compile(query)
	if err != nil {
		return nil, false, err
	}
	return c.ev.Scalar(c.ctx, expr, root, c.ec)
}

// SelectMany evaluates every query against root, concurrently unless
// disabled with evaluator.WithConcurrency(false). Results are in query
// order; the first error cancels the rest.
func SelectMany(root value.Value, queries []string, opts ...Option) ([]value.Sequence, error) {
	c := prepare(opts)
	defer c.cancel()
	exprs := make([]*types.Expression, len(queries))
	for i, q := range queries {
		expr, err := c.ev.Compile(q)
		if err != nil {
			return nil, err
		}
		exprs[i] = expr
	}
	var focus value.Sequence
	if root != nil {
		focus = value.Sequence{root}
	}
	return c.ev.EvalMany(c.ctx, exprs, focus, c.ec)
}

// SelectDocument decodes a JSON or YAML resource with the bundled model
// schema and evaluates query against it.
func SelectDocument(doc []byte, query string, opts ...Option) (value.Sequence, error) {
	root, err := node.Decode(doc, model.Schema())
	if err != nil {
		return nil, err
	}
	return Select(root, query, opts...)
}

// Item is the plain rendering of one result item.
type Item struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Items renders seq for display or serialization. Primitive and Quantity
// nodes render by value; other nodes render as their type name.
func Items(seq value.Sequence) []Item {
	out := make([]Item, len(seq))
	for i, v := range seq {
		out[i] = Item{Type: v.TypeName(), Value: node.Comparable(v).String()}
	}
	return out
}
