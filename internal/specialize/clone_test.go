package specialize

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

func parseSampleFunc(t *testing.T) llvm.Value {
	t.Helper()
	ctx := llvm.NewContext()
	buf := llvm.NewMemoryBufferFromString(sampleIR, "sample")
	mod, err := ctx.ParseIR(buf)
	if err != nil {
		t.Fatalf("ParseIR: %v", err)
	}
	return mod.NamedFunction("_Z8hot_loopii")
}

func TestSplit_PartitionsParamsFromLocals(t *testing.T) {
	fn := parseSampleFunc(t)
	req := Request{Source: "hot_loop(int, int)", Bindings: map[string]int64{"n": 64, "unrelated_local": 1}}

	params, locals := Split(fn, req)

	if len(params) != 1 || params[0].Index != 1 || params[0].Value != 64 {
		t.Fatalf("Split params = %+v, want [{Index:1 Value:64}]", params)
	}
	if _, ok := locals["n"]; ok {
		t.Error("bound parameter key should be removed from the locals map")
	}
	if v, ok := locals["unrelated_local"]; !ok || v != 1 {
		t.Errorf("locals = %+v, want unrelated_local=1 preserved", locals)
	}
}

func TestCloneWithConstantArgs_ReducesParameterList(t *testing.T) {
	fn := parseSampleFunc(t)
	params := []ParamBinding{{Index: 1, Value: 64}}

	clone, err := CloneWithConstantArgs(fn, params, "hot_loop_n_64_abcd1234")
	if err != nil {
		t.Fatalf("CloneWithConstantArgs: %v", err)
	}

	if got := len(clone.Params()); got != 1 {
		t.Fatalf("clone has %d params, want 1 (residual signature)", got)
	}
	if clone.Params()[0].Name() != "x" {
		t.Errorf("residual parameter name = %q, want %q", clone.Params()[0].Name(), "x")
	}
	if clone.Name() != "hot_loop_n_64_abcd1234" {
		t.Errorf("clone name = %q, want the specialized name", clone.Name())
	}
}

const narrowSampleIR = `
define i32 @_Z9scale_i8ci(i8 %x, i32 %n) {
entry:
  %sum = add i32 %n, %n
  ret i32 %sum
}
`

func parseNarrowSampleFunc(t *testing.T) llvm.Value {
	t.Helper()
	ctx := llvm.NewContext()
	buf := llvm.NewMemoryBufferFromString(narrowSampleIR, "narrow-sample")
	mod, err := ctx.ParseIR(buf)
	if err != nil {
		t.Fatalf("ParseIR: %v", err)
	}
	return mod.NamedFunction("_Z9scale_i8ci")
}

func TestCloneWithConstantArgs_RejectsBindingOutOfRangeForNarrowType(t *testing.T) {
	fn := parseNarrowSampleFunc(t)
	params := []ParamBinding{{Index: 0, Value: 1000}} // does not fit an i8

	_, err := CloneWithConstantArgs(fn, params, "scale_i8_x_1000_deadbeef")
	if err == nil {
		t.Fatal("CloneWithConstantArgs should reject a binding that overflows the parameter's actual bit width")
	}
}

func TestCloneWithConstantArgs_AcceptsBindingInRangeForNarrowType(t *testing.T) {
	fn := parseNarrowSampleFunc(t)
	params := []ParamBinding{{Index: 0, Value: 127}} // fits an i8

	if _, err := CloneWithConstantArgs(fn, params, "scale_i8_x_127_deadbeef"); err != nil {
		t.Fatalf("CloneWithConstantArgs: %v", err)
	}
}

const boolSampleIR = `
define i1 @_Z4pickib(i32 %x, i1 %flag) {
entry:
  ret i1 %flag
}
`

func parseBoolSampleFunc(t *testing.T) llvm.Value {
	t.Helper()
	ctx := llvm.NewContext()
	buf := llvm.NewMemoryBufferFromString(boolSampleIR, "bool-sample")
	mod, err := ctx.ParseIR(buf)
	if err != nil {
		t.Fatalf("ParseIR: %v", err)
	}
	return mod.NamedFunction("_Z4pickib")
}

func TestCloneWithConstantArgs_AcceptsTrueBindingForBoolParameter(t *testing.T) {
	fn := parseBoolSampleFunc(t)
	params := []ParamBinding{{Index: 1, Value: 1}} // i1 true

	if _, err := CloneWithConstantArgs(fn, params, "pick_flag_1_deadbeef"); err != nil {
		t.Fatalf("CloneWithConstantArgs: %v", err)
	}
}

func TestCloneWithConstantArgs_RejectsOutOfRangeBoolBinding(t *testing.T) {
	fn := parseBoolSampleFunc(t)
	params := []ParamBinding{{Index: 1, Value: 2}} // not a valid i1 value

	if _, err := CloneWithConstantArgs(fn, params, "pick_flag_2_deadbeef"); err == nil {
		t.Fatal("CloneWithConstantArgs should reject a binding outside {0, 1} for an i1 parameter")
	}
}
