//go:build (js && wasm) || wasip1

package evaluator

// init disables parallel batch evaluation on WebAssembly targets, where the
// Go runtime has a single OS thread and the worker pool only adds overhead.
func init() {
	defaultConcurrency = false
}
