package inline

import (
	"testing"

	llvm "tinygo.org/x/go-llvm"
)

const sampleIR = `
declare i32 @llvm.abs.i32(i32, i1)
declare i32 @extern_only(i32)

define i32 @callee(i32 %x) {
entry:
  ret i32 %x
}

define i32 @caller_with_defined_callee(i32 %x) {
entry:
  %r = call i32 @callee(i32 %x)
  ret i32 %r
}

define i32 @caller_with_extern_only(i32 %x) {
entry:
  %r = call i32 @extern_only(i32 %x)
  ret i32 %r
}

define i32 @caller_with_no_calls(i32 %x) {
entry:
  ret i32 %x
}
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

func TestHasInlinableCall(t *testing.T) {
	mod := parseSample(t)

	tests := []struct {
		fn   string
		want bool
	}{
		{"caller_with_defined_callee", true},
		{"caller_with_extern_only", false},
		{"caller_with_no_calls", false},
	}
	for _, tt := range tests {
		fn := mod.NamedFunction(tt.fn)
		if fn.IsNil() {
			t.Fatalf("function %q not found", tt.fn)
		}
		if got := hasInlinableCall(mod, fn); got != tt.want {
			t.Errorf("hasInlinableCall(%s) = %v, want %v", tt.fn, got, tt.want)
		}
	}
}

// tagOptimizeNone stamps fn with the optnone/noinline pair the way
// irmodule.tagLoadedFunctions does on load, so tests here see what
// AllCalls actually receives from the engine rather than bare parsed IR.
func tagOptimizeNone(fn llvm.Value) {
	ctx := fn.GlobalParent().Context()
	fn.AddAttributeAtIndex(attributeFunctionIndex, ctx.CreateEnumAttribute(llvm.AttributeKindID("optnone"), 0))
	fn.AddAttributeAtIndex(attributeFunctionIndex, ctx.CreateEnumAttribute(llvm.AttributeKindID("noinline"), 0))
}

func hasOptimizeBarrier(fn llvm.Value, name string) bool {
	return !fn.GetEnumAttributeAtIndex(attributeFunctionIndex, llvm.AttributeKindID(name)).IsNil()
}

// TestAllCalls_InlinesThroughOptnoneBarriers exercises AllCalls the way the
// engine actually drives it: caller and callee both carry the optnone and
// noinline pair irmodule.tagLoadedFunctions stamps on every defined
// function at load time. Without clearing that pair off both sides first,
// LLVM's inliner is a guaranteed no-op regardless of how many times the
// pass runs.
func TestAllCalls_InlinesThroughOptnoneBarriers(t *testing.T) {
	mod := parseSample(t)
	caller := mod.NamedFunction("caller_with_defined_callee")
	callee := mod.NamedFunction("callee")
	if caller.IsNil() || callee.IsNil() {
		t.Fatal("fixture functions not found")
	}
	tagOptimizeNone(caller)
	tagOptimizeNone(callee)

	AllCalls(mod, caller)

	if hasInlinableCall(mod, caller) {
		t.Error("caller still has an inlinable call after AllCalls")
	}
	if hasOptimizeBarrier(caller, "optnone") {
		t.Error("caller should have optnone cleared by AllCalls, not merely during the pass")
	}
}
