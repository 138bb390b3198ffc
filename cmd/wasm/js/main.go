//go:build js && wasm

// Command gofhirpath-wasm-js is the WebAssembly entrypoint for browser and Node.js.
//
// It exposes a global `gofhirpath` object with the following API:
//
//	gofhirpath.version()                   → string
//	gofhirpath.evaluate(query, resource)   → itemsJSON  (throws on error)
//	gofhirpath.compile(query)              → { evaluate(resource) → itemsJSON }  (throws on error)
//
// resource is a JSON (or YAML) document with a "resourceType" key. The
// result is a JSON array of {"type", "value"} objects.
//
// Build:
//
//	GOOS=js GOARCH=wasm go build -o gofhirpath.wasm ./cmd/wasm/js/
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/sandrolain/gofhirpath"
	"github.com/sandrolain/gofhirpath/pkg/evaluator"
	"github.com/sandrolain/gofhirpath/pkg/model"
	"github.com/sandrolain/gofhirpath/pkg/node"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// jsThrow panics with a JS Error so the caller receives a thrown exception.
func jsThrow(msg string) {
	js.Global().Get("Error").New(msg)
	panic(msg)
}

func marshalItems(fn string, seq value.Sequence) string {
	out, err := json.Marshal(gofhirpath.Items(seq))
	if err != nil {
		jsThrow(fmt.Sprintf("%s: marshal result: %v", fn, err))
	}
	return string(out)
}

// jsEvaluate implements gofhirpath.evaluate(query, resource) → itemsJSON.
func jsEvaluate(_ js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		jsThrow("gofhirpath.evaluate requires 2 arguments: query (string) and resource (JSON string)")
	}
	res, err := gofhirpath.SelectDocument([]byte(args[1].String()), args[0].String(),
		gofhirpath.WithEvalOptions(evaluator.WithConcurrency(false)),
	)
	if err != nil {
		jsThrow(fmt.Sprintf("gofhirpath.evaluate: %v", err))
	}
	return marshalItems("gofhirpath.evaluate", res)
}

// jsCompile implements gofhirpath.compile(query) → { evaluate(resource) → itemsJSON }.
func jsCompile(_ js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		jsThrow("gofhirpath.compile requires 1 argument: query (string)")
	}
	expr, err := gofhirpath.Compile(args[0].String())
	if err != nil {
		jsThrow(fmt.Sprintf("gofhirpath.compile: %v", err))
	}

	ev := evaluator.New(evaluator.WithConcurrency(false))

	evalFn := js.FuncOf(func(_ js.Value, innerArgs []js.Value) interface{} {
		if len(innerArgs) < 1 {
			jsThrow("compiled.evaluate requires 1 argument: resource (JSON string)")
		}
		root, e := node.Decode([]byte(innerArgs[0].String()), model.Schema())
		if e != nil {
			jsThrow(fmt.Sprintf("compiled.evaluate: %v", e))
		}
		r, e := ev.Select(context.Background(), expr, root, nil)
		if e != nil {
			jsThrow(fmt.Sprintf("compiled.evaluate: %v", e))
		}
		return marshalItems("compiled.evaluate", r)
	})

	return js.ValueOf(map[string]interface{}{"evaluate": evalFn})
}

func main() {
	api := map[string]interface{}{
		"evaluate": js.FuncOf(jsEvaluate),
		"compile":  js.FuncOf(jsCompile),
		"version": js.FuncOf(func(_ js.Value, _ []js.Value) interface{} {
			return gofhirpath.Version()
		}),
	}
	js.Global().Set("gofhirpath", js.ValueOf(api))

	// The JS event loop owns execution from here.
	select {}
}
