package resolve

import (
	"testing"

	llvm "tinygo.org/x/go-llvm"
)

// _Z8hot_loopPfi demangles to "hot_loop(float*, int)".
// _Z5scalei demangles to "scale(int)".
const sampleIR = `
declare void @_Z8hot_loopPfi(float*, i32)
define void @_Z5scalei(i32 %x) {
entry:
  ret void
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

func TestFind_ExactMatch(t *testing.T) {
	mod := parseSample(t)
	result, err := Find(mod, "scale(int)")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if result.Match == nil || result.Match.Mangled != "_Z5scalei" {
		t.Fatalf("Find matched %+v, want _Z5scalei", result.Match)
	}
	if !result.Match.Exact {
		t.Error("expected an exact match")
	}
}

func TestFind_DeclarationsAreNotCandidates(t *testing.T) {
	mod := parseSample(t)
	if _, err := Find(mod, "hot_loop(float*, int)"); err == nil {
		t.Error("declarations (no body) should not be resolvable specialization targets")
	}
}

func TestFind_NotFound(t *testing.T) {
	mod := parseSample(t)
	_, err := Find(mod, "does_not_exist()")
	if err == nil {
		t.Fatal("expected NotFoundError")
	}
	var nfe *NotFoundError
	if !isNotFound(err, &nfe) {
		t.Errorf("error %v is not a *NotFoundError", err)
	}
}

func isNotFound(err error, target **NotFoundError) bool {
	nfe, ok := err.(*NotFoundError)
	if ok {
		*target = nfe
	}
	return ok
}

func TestFind_PrefixMatch(t *testing.T) {
	mod := parseSample(t)
	result, err := Find(mod, "scale")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if result.Match == nil || result.Match.Exact {
		t.Fatalf("expected a non-exact prefix match, got %+v", result.Match)
	}
}
