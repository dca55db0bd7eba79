// Package inline implements the Inliner: before specialization bindings
// are applied, every call from the target function to another defined,
// non-intrinsic function in the same module is inlined, so that a binding
// on a parameter or local reaches through what used to be a call
// boundary.
package inline

import llvm "tinygo.org/x/go-llvm"

// maxIterations bounds the fixed-point loop; mutually recursive call
// chains would otherwise never converge to "zero inlinable calls left".
const maxIterations = 8

const attributeFunctionIndex = -1

// AllCalls repeatedly runs LLVM's function-inlining pass over the module
// until fn contains no more calls to a defined, non-intrinsic,
// non-declaration callee in the same module, or maxIterations is reached.
//
// LLVM's inliner is a call-graph (CGSCC) pass, so it necessarily operates
// module-wide rather than being scopeable to one function; iterating it
// against a per-function convergence check gets the same observable
// effect: unless maxIterations is reached first, fn itself has no
// remaining inlinable calls after AllCalls returns.
//
// fn arrives here still carrying the "optnone"/"noinline" pair
// irmodule.tagLoadedFunctions stamped on every defined function at load
// time. Per LLVM's documented semantics an optnone function can't have
// anything inlined into it, and a noinline function can't be inlined into
// anything regardless of the caller's attributes, so both sides of every
// call need the pair cleared before the inliner can do anything at all.
// fn keeps the clearing permanently (it is, per spec, the function
// selected as a specialization target); callees are cleared fresh on each
// iteration since inlining one call can surface new calls to check.
func AllCalls(mod llvm.Module, fn llvm.Value) {
	clearOptimizeBarriers(fn)
	for i := 0; i < maxIterations && hasInlinableCall(mod, fn); i++ {
		clearCalleeOptimizeBarriers(mod, fn)
		pm := llvm.NewPassManager()
		pm.AddFunctionInliningPass()
		pm.AddArgumentPromotionPass()
		pm.Run(mod)
		pm.Dispose()
	}
}

// clearOptimizeBarriers removes the "optnone"/"noinline" pair from fn, if
// present.
func clearOptimizeBarriers(fn llvm.Value) {
	fn.RemoveEnumAttributeAtIndex(attributeFunctionIndex, llvm.AttributeKindID("optnone"))
	fn.RemoveEnumAttributeAtIndex(attributeFunctionIndex, llvm.AttributeKindID("noinline"))
}

// clearCalleeOptimizeBarriers clears the optimize barriers off every
// defined, non-intrinsic callee fn calls within the same module, so the
// inliner can fire on them regardless of how irmodule tagged them at load.
func clearCalleeOptimizeBarriers(mod llvm.Module, fn llvm.Value) {
	for bb := fn.FirstBasicBlock(); !bb.IsNil(); bb = llvm.NextBasicBlock(bb) {
		for instr := bb.FirstInstruction(); !instr.IsNil(); instr = llvm.NextInstruction(instr) {
			if instr.IsACallInst().IsNil() {
				continue
			}
			callee := instr.CalledValue()
			if callee.IsNil() || callee.IsDeclaration() {
				continue
			}
			if callee.IntrinsicID() != 0 {
				continue
			}
			if callee.GlobalParent() == mod {
				clearOptimizeBarriers(callee)
			}
		}
	}
}

// hasInlinableCall reports whether fn contains a call to a function that is
// defined (has a body) and not an LLVM intrinsic.
func hasInlinableCall(mod llvm.Module, fn llvm.Value) bool {
	for bb := fn.FirstBasicBlock(); !bb.IsNil(); bb = llvm.NextBasicBlock(bb) {
		for instr := bb.FirstInstruction(); !instr.IsNil(); instr = llvm.NextInstruction(instr) {
			if instr.IsACallInst().IsNil() {
				continue
			}
			callee := instr.CalledValue()
			if callee.IsNil() || callee.IsDeclaration() {
				continue
			}
			if callee.IntrinsicID() != 0 {
				continue
			}
			if callee.GlobalParent() == mod {
				return true
			}
		}
	}
	return false
}
