// Package normalize implements the Pre-Optimization Normalizer: preparing
// a freshly cloned, specialized function for aggressive vectorization by
// stripping the attributes and loop metadata an ahead-of-time,
// conservative build left behind.
//
// Grounded on original_source/src/rufus.cpp's specialize_function tail
// (removeFnAttr(OptimizeNone/NoInline), addFnAttr("target-cpu"/
// "target-features")); the loop-metadata stripping and minsize/optsize
// removal are additions the original does not implement.
package normalize

import (
	llvm "tinygo.org/x/go-llvm"

	"rfspec/internal/target"
)

const attributeFunctionIndex = -1

var strippedAttrs = []string{"optnone", "noinline", "minsize", "optsize"}

// disabledUnrollMetadata are the loop metadata node names an ahead-of-time
// build attaches to suppress unrolling; the vectorizer needs them gone but
// every other loop metadata operand (e.g. llvm.loop.vectorize.enable) is
// preserved untouched.
var disabledUnrollMetadata = map[string]struct{}{
	"llvm.loop.unroll.disable":         {},
	"llvm.loop.unroll.runtime.disable": {},
}

// Apply prepares fn for optimization: attribute cleanup, CPU/feature
// attributes from the probed target, and loop metadata stripping.
func Apply(fn llvm.Value, t target.Info) {
	ctx := fn.GlobalParent().Context()

	for _, name := range strippedAttrs {
		fn.RemoveEnumAttributeAtIndex(attributeFunctionIndex, llvm.AttributeKindID(name))
	}

	fn.AddAttributeAtIndex(attributeFunctionIndex, ctx.CreateStringAttribute("target-cpu", t.CPU))
	fn.AddAttributeAtIndex(attributeFunctionIndex, ctx.CreateStringAttribute("target-features", t.FeatureString))

	stripDisabledUnrollMetadata(fn)
}

// stripDisabledUnrollMetadata walks fn's terminator instructions looking
// for llvm.loop metadata attachments and rebuilds each one without the
// unroll-disable operands, preserving the loop-identity convention (the
// first operand of a loop metadata node self-references the node).
func stripDisabledUnrollMetadata(fn llvm.Value) {
	ctx := fn.GlobalParent().Context()
	loopMDKind := llvm.MDKindIDInContext(ctx, "llvm.loop")

	for bb := fn.FirstBasicBlock(); !bb.IsNil(); bb = llvm.NextBasicBlock(bb) {
		term := bb.LastInstruction()
		if term.IsNil() {
			continue
		}
		loopMD := term.GetMetadata(loopMDKind)
		if loopMD.IsNil() {
			continue
		}

		rebuilt := filterLoopMetadata(ctx, loopMD)
		term.SetMetadata(loopMDKind, rebuilt)
	}
}

// filterLoopMetadata returns a new loop metadata node containing node's
// operands minus any disabledUnrollMetadata entries. Operand 0 (the
// self-reference placeholder) is rebuilt last so it points at the new node,
// per LLVM's loop-metadata convention.
func filterLoopMetadata(ctx llvm.Context, node llvm.Metadata) llvm.Metadata {
	operands := node.MDNodeOperands()
	kept := make([]llvm.Metadata, 0, len(operands))
	kept = append(kept, llvm.Metadata{}) // placeholder for self-reference

	for i, op := range operands {
		if i == 0 {
			continue // original self-reference, rebuilt below
		}
		if name, ok := loopMetadataName(op); ok {
			if _, disabled := disabledUnrollMetadata[name]; disabled {
				continue
			}
		}
		kept = append(kept, op)
	}

	rebuilt := llvm.MDNodeInContext(ctx, kept)
	rebuilt.ReplaceOperandWith(0, rebuilt)
	return rebuilt
}

// loopMetadataName extracts the leading string of a loop metadata entry:
// "llvm.loop.unroll.disable" from !{!"llvm.loop.unroll.disable"}, and
// "llvm.loop.vectorize.width" from !{!"llvm.loop.vectorize.width", i32 4}.
// It returns ok=false when the entry has no operands or its first operand
// is not a string.
func loopMetadataName(op llvm.Metadata) (string, bool) {
	operands := op.MDNodeOperands()
	if len(operands) == 0 {
		return "", false
	}
	return operands[0].MDString(), operands[0].IsMDString()
}
