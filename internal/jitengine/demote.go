package jitengine

import llvm "tinygo.org/x/go-llvm"

// demoteMaterialized walks every defined function in mod and, for any name
// already present in materialized other than keep (the function this
// Compile call is submitting), deletes its body and clears its comdat so
// it becomes a bare declaration. The dynamic-library search generator and
// the JIT's existing symbol table resolve the reference against the copy
// already resident from an earlier compile — this demotes any function
// already materialized in the JIT to a declaration so the new submission
// links against it instead of redefining it.
func demoteMaterialized(mod llvm.Module, materialized map[string]struct{}, keep string) {
	for fn := mod.FirstFunction(); !fn.IsNil(); fn = llvm.NextFunction(fn) {
		name := fn.Name()
		if name == keep || fn.IsDeclaration() {
			continue
		}
		if _, ok := materialized[name]; !ok {
			continue
		}
		fn.SetComdat(llvm.Comdat{})
		deleteBody(fn)
	}
}

// deleteBody removes every basic block from fn, turning a definition into
// a declaration while keeping its function type and linkage intact.
func deleteBody(fn llvm.Value) {
	for bb := fn.FirstBasicBlock(); !bb.IsNil(); {
		next := llvm.NextBasicBlock(bb)
		bb.EraseFromParent()
		bb = next
	}
}
