package jitengine

import llvm "tinygo.org/x/go-llvm"

// optimizeModuleO3 runs a whole-module O3 pipeline over mod via the legacy
// PassManagerBuilder API, mirroring how a static compiler driver builds
// its final codegen pipeline. This is deliberately scoped to the isolated,
// throwaway clone Compile just reparsed — internal/optimize already ran
// the fixed per-function pipeline on the engine's own module, and
// re-running a second, module-wide O3 pass there would re-optimize
// earlier work in place; here it is safe because the clone is discarded
// once this compile's symbol is materialized.
func optimizeModuleO3(mod llvm.Module) {
	builder := llvm.NewPassManagerBuilder()
	defer builder.Dispose()
	builder.SetOptLevel(3)
	builder.SetSizeLevel(0)
	builder.UseInlinerWithThreshold(275)

	pm := llvm.NewPassManager()
	defer pm.Dispose()
	builder.Populate(pm)
	pm.Run(mod)
}
