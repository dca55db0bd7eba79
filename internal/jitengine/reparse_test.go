package jitengine

import (
	"testing"

	llvm "tinygo.org/x/go-llvm"
)

const sampleIR = `
define i32 @_Z8hot_loopii(i32 %x, i32 %n) {
entry:
  %sum = add i32 %x, %n
  ret i32 %sum
}
`

func TestReparseModule_ProducesEquivalentModuleInFreshContext(t *testing.T) {
	origCtx := llvm.NewContext()
	buf := llvm.NewMemoryBufferFromString(sampleIR, "sample")
	origMod, err := origCtx.ParseIR(buf)
	if err != nil {
		t.Fatalf("ParseIR: %v", err)
	}

	newCtx := llvm.NewContext()
	newMod, err := reparseModule(newCtx, origMod)
	if err != nil {
		t.Fatalf("reparseModule: %v", err)
	}

	fn := newMod.NamedFunction("_Z8hot_loopii")
	if fn.IsNil() {
		t.Fatal("reparsed module missing the original function")
	}
	if fn.GlobalParent().Context() != newCtx {
		t.Error("reparsed function should belong to the fresh context, not the original one")
	}
}
