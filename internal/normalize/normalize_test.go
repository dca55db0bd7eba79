package normalize

import (
	"testing"

	llvm "tinygo.org/x/go-llvm"

	"rfspec/internal/target"
)

const sampleIR = `
define void @_Z4loopv() #0 {
entry:
  br label %body
body:
  br label %body, !llvm.loop !0
}

attributes #0 = { optnone noinline }

!0 = distinct !{!0, !1, !2}
!1 = !{!"llvm.loop.unroll.disable"}
!2 = !{!"llvm.loop.vectorize.enable", i1 true}
`

func parseSampleFunc(t *testing.T) llvm.Value {
	t.Helper()
	ctx := llvm.NewContext()
	buf := llvm.NewMemoryBufferFromString(sampleIR, "sample")
	mod, err := ctx.ParseIR(buf)
	if err != nil {
		t.Fatalf("ParseIR: %v", err)
	}
	return mod.NamedFunction("_Z4loopv")
}

func TestApply_RemovesOptnoneAndSetsTargetAttributes(t *testing.T) {
	fn := parseSampleFunc(t)
	Apply(fn, target.Info{CPU: "znver3", FeatureString: "+avx2"})

	optnone := llvm.AttributeKindID("optnone")
	if !fn.GetEnumAttributeAtIndex(attributeFunctionIndex, optnone).IsNil() {
		t.Error("optnone should be removed after Apply")
	}

	var sawCPU bool
	for _, a := range fn.GetAttributesAtIndex(attributeFunctionIndex) {
		if a.IsStringAttribute() && a.KindAsString() == "target-cpu" {
			sawCPU = true
			if a.ValueAsString() != "znver3" {
				t.Errorf("target-cpu = %q, want znver3", a.ValueAsString())
			}
		}
	}
	if !sawCPU {
		t.Error("expected target-cpu attribute after Apply")
	}
}

func TestApply_StripsOnlyUnrollDisableMetadata(t *testing.T) {
	fn := parseSampleFunc(t)
	Apply(fn, target.Info{})

	term := fn.LastBasicBlock().LastInstruction()
	loopMDKind := llvm.MDKindIDInContext(fn.GlobalParent().Context(), "llvm.loop")
	loopMD := term.GetMetadata(loopMDKind)
	if loopMD.IsNil() {
		t.Fatal("expected loop metadata to survive stripping")
	}

	var sawVectorize bool
	for _, op := range loopMD.MDNodeOperands()[1:] {
		if name, ok := loopMetadataName(op); ok && name == "llvm.loop.unroll.disable" {
			t.Error("llvm.loop.unroll.disable should have been stripped")
		}
		if name, ok := loopMetadataName(op); ok && name == "llvm.loop.vectorize.enable" {
			sawVectorize = true
		}
	}
	if !sawVectorize {
		t.Error("llvm.loop.vectorize.enable should have been preserved")
	}
}
