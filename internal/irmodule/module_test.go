package irmodule

import (
	"strings"
	"testing"

	llvm "tinygo.org/x/go-llvm"

	"rfspec/internal/target"
)

const sampleIR = `
define i32 @_Z8hot_loopii(i32 %x, i32 %n) {
entry:
  %sum = add i32 %x, %n
  ret i32 %sum
}
`

func TestLoadString_TagsDefinedFunctions(t *testing.T) {
	m := New(target.Info{MaxVectorWidth: 256})
	if err := m.LoadString("sample", sampleIR); err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	if !m.Loaded() {
		t.Fatal("Loaded() = false after a successful parse")
	}

	fn := m.LLVM().NamedFunction("_Z8hot_loopii")
	if fn.IsNil() {
		t.Fatal("function not found in parsed module")
	}

	optnone := llvm.AttributeKindID("optnone")
	if fn.GetEnumAttributeAtIndex(AttributeFunctionIndex, optnone).IsNil() {
		t.Error("newly loaded function should carry optnone")
	}

	widthAttrs := fn.GetAttributesAtIndex(AttributeFunctionIndex)
	var sawWidth bool
	for _, a := range widthAttrs {
		if a.IsStringAttribute() && a.KindAsString() == "prefer-vector-width" {
			sawWidth = true
			if a.ValueAsString() != "256" {
				t.Errorf("prefer-vector-width = %q, want 256", a.ValueAsString())
			}
		}
	}
	if !sawWidth {
		t.Error("expected prefer-vector-width attribute to be set on load")
	}
}

func TestLoadFile_GoldenFixture_TagsDefinedFunctions(t *testing.T) {
	for _, name := range []string{"hot_loop", "is_even_or_odd"} {
		t.Run(name, func(t *testing.T) {
			m := New(target.Info{MaxVectorWidth: 512})
			if err := m.LoadFile("testdata/" + name + ".ll"); err != nil {
				t.Fatalf("LoadFile: %v", err)
			}
			if !m.Loaded() {
				t.Fatal("Loaded() = false after a successful parse")
			}

			var sawDefined bool
			optnone := llvm.AttributeKindID("optnone")
			for fn := m.LLVM().FirstFunction(); !fn.IsNil(); fn = llvm.NextFunction(fn) {
				if fn.IsDeclaration() {
					continue
				}
				sawDefined = true
				if fn.GetEnumAttributeAtIndex(AttributeFunctionIndex, optnone).IsNil() {
					t.Errorf("%s: defined function should carry optnone after load", fn.Name())
				}
			}
			if !sawDefined {
				t.Fatalf("golden fixture %s.ll has no defined function to tag", name)
			}
		})
	}
}

func TestLoadFile_GoldenFixture_MalformedReportsParseError(t *testing.T) {
	m := New(target.Info{})
	err := m.LoadFile("testdata/malformed.ll")
	if err == nil {
		t.Fatal("expected a parse error for testdata/malformed.ll")
	}
	if m.Loaded() {
		t.Error("Loaded() should be false after a failed parse")
	}
}

func TestLoadString_ParseFailureLeavesModuleUnloaded(t *testing.T) {
	m := New(target.Info{})
	err := m.LoadString("bad", "this is not valid IR")
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if m.Loaded() {
		t.Error("Loaded() should be false after a failed parse")
	}
	if !strings.Contains(err.Error(), "load_ir_string") {
		t.Errorf("error %q should be prefixed by the operation name", err)
	}
}
