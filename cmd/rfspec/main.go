// Command rfspec is a thin CLI driver over internal/engine: it parses
// flags, wires a tracer, and calls the engine's fluent operations in the
// order a user asks for them. All the actual specialization/optimization/
// JIT work lives in internal/engine and the packages it composes.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
