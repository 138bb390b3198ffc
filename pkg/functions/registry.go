// Package functions provides types for registering custom path functions.
//
// Custom functions extend the built-in library. They are registered on an
// evaluator with evaluator.WithCustomFunction / evaluator.WithFunctions, or
// per evaluation with evaluator.WithFunction, and are called with method
// syntax: the input collection is the focus the call is applied to.
// A custom function never shadows a built-in of the same name.
//
// # Example
//
//	ev := evaluator.New(evaluator.WithCustomFunction("greet", 0, 0,
//	    func(ctx context.Context, focus value.Sequence, args ...value.Sequence) (value.Sequence, error) {
//	        var out value.Sequence
//	        for _, v := range focus {
//	            out = append(out, value.String("Hello, "+v.String()+"!"))
//	        }
//	        return out, nil
//	    }))
//	// Patient.name.given.greet()
package functions

import (
	"context"

	"github.com/sandrolain/gofhirpath/pkg/value"
)

// CustomFunc is the signature for user-defined custom functions.
// focus is the input collection; args holds each argument evaluated
// against the enclosing $this, in order.
type CustomFunc func(ctx context.Context, focus value.Sequence, args ...value.Sequence) (value.Sequence, error)

// CustomFunctionDef describes a user-defined function together with the
// number of arguments it accepts.
type CustomFunctionDef struct {
	// Name is the function name as it appears inside expressions.
	Name string
	// MinArgs and MaxArgs bound the argument count. MaxArgs -1 means unlimited.
	MinArgs int
	MaxArgs int
	// Fn is the implementation.
	Fn CustomFunc
}

// Caller evaluates the arguments of a call lazily. It is provided to
// AdvancedCustomFunc implementations so they can evaluate an argument once
// per input element, the way where() and select() do.
type Caller interface {
	// NumArgs returns the number of arguments written at the call site.
	NumArgs() int
	// Eval evaluates argument i with $this bound to item and $index to index.
	Eval(ctx context.Context, i int, item value.Value, index int) (value.Sequence, error)
}

// AdvancedCustomFunc is like CustomFunc but receives unevaluated arguments
// through a Caller.
type AdvancedCustomFunc func(ctx context.Context, caller Caller, focus value.Sequence) (value.Sequence, error)

// AdvancedCustomFunctionDef is the struct counterpart of AdvancedCustomFunc.
type AdvancedCustomFunctionDef struct {
	// Name is the function name.
	Name string
	// MinArgs and MaxArgs bound the argument count. MaxArgs -1 means unlimited.
	MinArgs int
	MaxArgs int
	// Fn is the implementation.
	Fn AdvancedCustomFunc
}

// FunctionEntry is a common marker interface implemented by both
// [CustomFunctionDef] and [AdvancedCustomFunctionDef].
// It allows mixing both kinds in a single variadic call to WithFunctions.
type FunctionEntry interface {
	isFunctionEntry()
}

func (c CustomFunctionDef) isFunctionEntry()         {}
func (a AdvancedCustomFunctionDef) isFunctionEntry() {}
