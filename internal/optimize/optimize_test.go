package optimize

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

define i32 @_Z9no_touchii(i32 %x, i32 %n) #0 {
entry:
  %sum = add i32 %x, %n
  ret i32 %sum
}

attributes #0 = { optnone noinline }
`

func parseSample(t *testing.T) llvm.Module {
	t.Helper()
	ctx := llvm.NewContext()
	buf := llvm.NewMemoryBufferFromString(sampleIR, "sample")
	mod, err := ctx.ParseIR(buf)
	if err != nil {
		t.Fatalf("ParseIR: %v", err)
	}
	return mod
}

func TestRun_MarksFunctionOptimized(t *testing.T) {
	mod := parseSample(t)
	fn := mod.NamedFunction("_Z8hot_loopii")

	if isMarked(fn) {
		t.Fatal("freshly parsed function should not already be marked")
	}
	Run(fn)
	if !isMarked(fn) {
		t.Error("Run should mark the function optimized")
	}
}

func TestRun_SkipsOptnoneFunctions(t *testing.T) {
	mod := parseSample(t)
	fn := mod.NamedFunction("_Z9no_touchii")

	Run(fn)
	if isMarked(fn) {
		t.Error("Run should not touch a function still carrying optnone")
	}
}

func TestRun_Idempotent(t *testing.T) {
	mod := parseSample(t)
	fn := mod.NamedFunction("_Z8hot_loopii")

	Run(fn)
	Run(fn) // must be a cheap no-op, not a crash or a double marker
	if !isMarked(fn) {
		t.Error("function should remain marked after a second Run")
	}
}
