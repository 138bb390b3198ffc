//go:build wasip1

// Command gofhirpath-wasm-wasi is the WASI (wasip1) entrypoint for use from any
// language that supports the WebAssembly System Interface.
//
// Protocol: single JSON object on stdin → single JSON object on stdout.
//
//	stdin:  { "query": "<path expression>", "resource": { "resourceType": ..., ... } }
//	stdout: { "result": [ { "type": ..., "value": ... }, ... ] }   on success
//	        { "error":  "<message>" }                              on failure (exit code 1)
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -o gofhirpath.wasm ./cmd/wasm/wasi/
//
// Usage with wasmtime CLI:
//
//	echo '{"query":"name.given","resource":{"resourceType":"Patient","name":[{"given":["Jane"]}]}}' | wasmtime gofhirpath.wasm
package main

import (
	"encoding/json"
	"os"

	"github.com/sandrolain/gofhirpath"
	"github.com/sandrolain/gofhirpath/pkg/evaluator"
)

type request struct {
	Query    string          `json:"query"`
	Resource json.RawMessage `json:"resource"`
}

type response struct {
	Result []gofhirpath.Item `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

func writeResponse(r response, exitCode int) {
	_ = json.NewEncoder(os.Stdout).Encode(r)
	os.Exit(exitCode)
}

func main() {
	var req request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(response{Error: "invalid request JSON: " + err.Error()}, 1)
	}

	res, err := gofhirpath.SelectDocument(req.Resource, req.Query,
		gofhirpath.WithEvalOptions(evaluator.WithConcurrency(false)),
	)
	if err != nil {
		writeResponse(response{Error: err.Error()}, 1)
	}

	writeResponse(response{Result: gofhirpath.Items(res)}, 0)
}
