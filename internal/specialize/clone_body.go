package specialize

import llvm "tinygo.org/x/go-llvm"

// cloneFunctionBody clones fn's basic blocks and instructions into newFn
// under valueMap, which already maps every original parameter to either a
// new parameter or a constant. This stands in for LLVM's C++-only
// CloneFunctionInto (llvm/Transforms/Utils/Cloning.h), which the C API
// tinygo.org/x/go-llvm binds to does not expose: blocks and instructions
// are cloned with LLVMInstructionClone and re-wired by hand.
//
// This is local-scope cloning only: no referenced globals are cloned,
// only remapped through valueMap when applicable.
func cloneFunctionBody(newFn, fn llvm.Value, valueMap map[llvm.Value]llvm.Value) {
	blockMap := make(map[llvm.BasicBlock]llvm.BasicBlock)
	for bb := fn.FirstBasicBlock(); !bb.IsNil(); bb = llvm.NextBasicBlock(bb) {
		blockMap[bb] = llvm.AddBasicBlock(newFn, bb.AsValue().Name())
	}

	builder := newFn.GlobalParent().Context().NewBuilder()
	defer builder.Dispose()

	// First pass: clone every instruction verbatim and record old->new so
	// later instructions (and phi nodes referring to earlier ones anywhere
	// in the function, forward or back) can be remapped in a second pass.
	for bb := fn.FirstBasicBlock(); !bb.IsNil(); bb = llvm.NextBasicBlock(bb) {
		newBB := blockMap[bb]
		builder.SetInsertPointAtEnd(newBB)
		for instr := bb.FirstInstruction(); !instr.IsNil(); instr = llvm.NextInstruction(instr) {
			clone := instr.InstructionClone()
			builder.Insert(clone)
			valueMap[instr] = clone
		}
	}

	// Second pass: remap every operand (and phi incoming blocks) through
	// valueMap/blockMap now that all instructions have a clone.
	for bb := fn.FirstBasicBlock(); !bb.IsNil(); bb = llvm.NextBasicBlock(bb) {
		for instr := bb.FirstInstruction(); !instr.IsNil(); instr = llvm.NextInstruction(instr) {
			clone := valueMap[instr]
			remapOperands(clone, valueMap, blockMap)
			if !instr.IsAPHINode().IsNil() {
				remapIncomingBlocks(clone, instr, blockMap)
			}
		}
	}
}

// remapOperands rewrites every operand of clone that refers to something
// from the source function: an instruction/parameter (via valueMap) or a
// basic block (via blockMap). Block-typed operands show up on terminators
// (the successors of br/switch) since llvm::BasicBlock derives from Value;
// InstructionClone copies them verbatim, so left unmapped a cloned
// terminator would keep jumping into fn's own blocks instead of newFn's.
func remapOperands(clone llvm.Value, valueMap map[llvm.Value]llvm.Value, blockMap map[llvm.BasicBlock]llvm.BasicBlock) {
	for i := 0; i < clone.OperandsCount(); i++ {
		op := clone.Operand(i)
		if !op.IsABasicBlock().IsNil() {
			if newBlock, ok := blockMap[op.AsBasicBlock()]; ok {
				clone.SetOperand(i, newBlock.AsValue())
			}
			continue
		}
		if mapped, ok := valueMap[op]; ok {
			clone.SetOperand(i, mapped)
		}
	}
}

func remapIncomingBlocks(clone, original llvm.Value, blockMap map[llvm.BasicBlock]llvm.BasicBlock) {
	count := original.IncomingCount()
	for i := 0; i < count; i++ {
		oldBlock := original.IncomingBlock(i)
		if newBlock, ok := blockMap[oldBlock]; ok {
			clone.SetIncomingBlock(i, newBlock)
		}
	}
}
