package evaluator

// Package evaluator implements the path expression interpreter.
//
// The evaluator receives a parsed Abstract Syntax Tree (AST) from the parser
// and evaluates it against a focus sequence of typed tree nodes. It supports:
//   - Polymorphic member access and type filters
//   - Operators with three-valued boolean logic and unit-aware quantities
//   - Built-in and custom functions
//   - A host tracer invoked by trace()
//   - Concurrent evaluation of independent expressions
//   - Cancellation via context.Context
//
// # Example
//
//	ev := evaluator.New()
//	result, err := ev.Eval(ctx, expr, value.Of(patient), nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Concurrency
//
// An Evaluator is read-only after New and may be shared. Expressions, trees
// and EvaluationContexts are immutable, so any number of goroutines may
// evaluate at once.
//
//	results, err := ev.EvalMany(ctx, exprs, focus, ec)

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/sandrolain/gofhirpath/pkg/cache"
	"github.com/sandrolain/gofhirpath/pkg/functions"
	"github.com/sandrolain/gofhirpath/pkg/parser"
	"github.com/sandrolain/gofhirpath/pkg/types"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// Evaluator evaluates path expressions against typed trees.
type Evaluator struct {
	opts      EvalOptions
	logger    *slog.Logger
	cache     *cache.Cache            // non-nil when Caching is enabled
	customFns map[string]*FunctionDef // user-registered custom functions
}

// EvalOptions configures evaluator behavior.
type EvalOptions struct {
	// Caching enables expression compilation caching in Compile.
	// The default cache holds up to 256 entries with LRU eviction.
	Caching bool
	// CacheSize sets the maximum number of cached expressions.
	// Only used when Caching is true and no explicit Cache is provided.
	// Defaults to 256.
	CacheSize int
	// Cache is a custom expression cache. If non-nil, Caching is implicitly enabled.
	Cache *cache.Cache
	// Concurrency lets EvalMany fan out across goroutines.
	Concurrency bool
	// Workers bounds the goroutines used by EvalMany. Defaults to GOMAXPROCS.
	Workers int
	// MaxDepth limits scope nesting.
	MaxDepth int
	// Timeout sets evaluation timeout. Zero means no timeout.
	Timeout time.Duration
	// Debug enables debug logging.
	Debug bool
	// Logger for structured logging.
	Logger *slog.Logger
	// CustomFunctions holds user-defined functions to register with the evaluator.
	CustomFunctions []functions.FunctionEntry
}

// defaultConcurrency controls the default value of EvalOptions.Concurrency for
// newly created Evaluators. It is set to false by init() in evaluator_wasm.go.
var defaultConcurrency = true

// New creates a new Evaluator with default options.
func New(opts ...EvalOption) *Evaluator {
	options := EvalOptions{
		Caching:     false,
		Concurrency: defaultConcurrency,
		MaxDepth:    1000,
	}

	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Workers <= 0 {
		options.Workers = runtime.GOMAXPROCS(0)
	}

	// Initialise expression cache when caching is enabled.
	var c *cache.Cache
	if options.Cache != nil {
		c = options.Cache
	} else if options.Caching {
		size := options.CacheSize
		if size <= 0 {
			size = 256
		}
		c = cache.New(size)
	}

	customFns := make(map[string]*FunctionDef, len(options.CustomFunctions))
	for _, entry := range options.CustomFunctions {
		if def := customFunctionDef(entry); def != nil {
			customFns[def.Name] = def
		}
	}

	return &Evaluator{
		opts:      options,
		logger:    options.Logger,
		cache:     c,
		customFns: customFns,
	}
}

// Cache returns the expression cache, or nil if caching is disabled.
func (e *Evaluator) Cache() *cache.Cache {
	return e.cache
}

// Compile parses query, going through the expression cache when enabled.
func (e *Evaluator) Compile(query string, opts ...parser.CompileOption) (*types.Expression, error) {
	if e.cache == nil {
		return parser.Compile(query, opts...)
	}
	return e.cache.GetOrCompile(query, func() (*types.Expression, error) {
		return parser.Compile(query, opts...)
	})
}

// getCustomFunction returns a user-defined custom function by name, or (nil, false).
func (e *Evaluator) getCustomFunction(name string) (*FunctionDef, bool) {
	if len(e.customFns) == 0 {
		return nil, false
	}
	fn, ok := e.customFns[name]
	return fn, ok
}

// Eval evaluates expr with focus as the input collection. ec may be nil.
// The result is always a sequence; an empty sequence is not an error.
func (e *Evaluator) Eval(ctx context.Context, expr *types.Expression, focus value.Sequence, ec *EvaluationContext) (value.Sequence, error) {
	if expr == nil || expr.AST() == nil {
		return nil, fmt.Errorf("invalid expression")
	}

	// Apply timeout if configured
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	if ec == nil {
		ec = NewEvaluationContext()
	}
	evalCtx := NewContext(focus, ec)

	if e.opts.Debug {
		e.logger.Debug("evaluating expression", "expr", expr.Source(), "focus", len(focus))
	}

	result, err := e.evalNode(ctx, expr.AST(), focus, evalCtx)
	if err != nil {
		var te tracerError
		if errors.As(err, &te) {
			return nil, te.err
		}
		return nil, err
	}
	return result, nil
}

// EvalOption configures evaluation behavior.
type EvalOption func(*EvalOptions)

// WithCaching enables or disables expression compilation caching.
// When enabled, a default LRU cache of 256 entries is created.
// To control the cache size use WithCacheSize; to supply your own cache use WithCache.
func WithCaching(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Caching = enabled
	}
}

// WithCacheSize sets the maximum number of cached expressions.
// Only effective when combined with WithCaching(true).
func WithCacheSize(size int) EvalOption {
	return func(opts *EvalOptions) {
		opts.CacheSize = size
	}
}

// WithCache attaches an external expression cache.
// The evaluator will use this cache regardless of the Caching flag.
func WithCache(c *cache.Cache) EvalOption {
	return func(opts *EvalOptions) {
		opts.Cache = c
	}
}

// WithConcurrency enables or disables concurrent evaluation in EvalMany.
func WithConcurrency(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Concurrency = enabled
	}
}

// WithWorkers sets the number of goroutines EvalMany may use.
func WithWorkers(n int) EvalOption {
	return func(opts *EvalOptions) {
		opts.Workers = n
	}
}

// WithTimeout sets the evaluation timeout.
func WithTimeout(timeout time.Duration) EvalOption {
	return func(opts *EvalOptions) {
		opts.Timeout = timeout
	}
}

// WithDebug enables or disables debug logging.
func WithDebug(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Debug = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EvalOption {
	return func(opts *EvalOptions) {
		opts.Logger = logger
	}
}

// WithMaxDepth sets the maximum scope nesting depth.
func WithMaxDepth(depth int) EvalOption {
	return func(opts *EvalOptions) {
		opts.MaxDepth = depth
	}
}

// WithCustomFunction registers a user-defined function with the evaluator.
// minArgs and maxArgs bound the argument count; maxArgs -1 means unlimited.
//
// Example:
//
//	ev := evaluator.New(evaluator.WithCustomFunction("double", 0, 0,
//	    func(ctx context.Context, focus value.Sequence, _ ...value.Sequence) (value.Sequence, error) {
//	        return focus.Combine(focus), nil
//	    }))
func WithCustomFunction(name string, minArgs, maxArgs int, fn functions.CustomFunc) EvalOption {
	return func(opts *EvalOptions) {
		opts.CustomFunctions = append(opts.CustomFunctions, functions.CustomFunctionDef{
			Name:    name,
			MinArgs: minArgs,
			MaxArgs: maxArgs,
			Fn:      fn,
		})
	}
}

// WithFunctions registers a batch of custom functions, simple or advanced.
// Extension packs expose their functions as []functions.FunctionEntry for
// use with this option.
func WithFunctions(entries ...functions.FunctionEntry) EvalOption {
	return func(opts *EvalOptions) {
		opts.CustomFunctions = append(opts.CustomFunctions, entries...)
	}
}
