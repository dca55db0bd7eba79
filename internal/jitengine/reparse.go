package jitengine

import (
	"fmt"

	llvm "tinygo.org/x/go-llvm"
)

// reparseModule serializes mod's textual IR and parses it back into a
// fresh module owned by newCtx. Round-tripping through text sidesteps
// LLVM-C's lack of a cross-context CloneModule binding: every type and
// constant that would otherwise need manual remapping across two
// llvm.Context values is instead rebuilt by the parser, which is
// context-local by construction.
func reparseModule(newCtx llvm.Context, mod llvm.Module) (llvm.Module, error) {
	ir := mod.String()

	buf := llvm.NewMemoryBufferFromString(ir, mod.Identifier())
	newMod, err := newCtx.ParseIR(buf)
	if err != nil {
		return llvm.Module{}, fmt.Errorf("parse reserialized IR: %w", err)
	}
	return newMod, nil
}
