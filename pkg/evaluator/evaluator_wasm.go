//go:build (js && wasm) || wasip1

package evaluator

// init lowers the default call depth for WebAssembly builds, where each
// nested routine call runs on the single host thread's linear memory.
func init() {
	defaultMaxDepth = 250
}
