package jitengine

import llvm "tinygo.org/x/go-llvm"

const attributeFunctionIndex = -1

// fastMathFlags are applied only to the isolated JIT clone, never to the
// engine's owned module, so PrintModuleIR and PrintDebugInfo always show
// the un-relaxed IR the caller asked to specialize; fast-math semantics
// are strictly a "how it runs", not a "what it says", distinction.
var fastMathFlags = []string{
	"no-infs-fp-math",
	"no-nans-fp-math",
	"no-signed-zeros-fp-math",
	"unsafe-fp-math",
}

// applyFastMathAttributes stamps the fast-math function attributes onto
// every defined function in mod. LLVM has no module-wide fast-math switch
// in its C attribute API; the equivalent effect is achieved by attaching
// the same attribute set to each function, which is what clang's -ffast-math
// itself lowers to.
func applyFastMathAttributes(ctx llvm.Context, mod llvm.Module) {
	for fn := mod.FirstFunction(); !fn.IsNil(); fn = llvm.NextFunction(fn) {
		if fn.IsDeclaration() {
			continue
		}
		for _, name := range fastMathFlags {
			fn.AddAttributeAtIndex(attributeFunctionIndex, ctx.CreateStringAttribute(name, "true"))
		}
	}
}
