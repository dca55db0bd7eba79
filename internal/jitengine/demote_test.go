package jitengine

import (
	"testing"

	llvm "tinygo.org/x/go-llvm"
)

const demoteSampleIR = `
define i32 @already_materialized(i32 %x) {
entry:
  ret i32 %x
}

define i32 @still_pending(i32 %x) {
entry:
  ret i32 %x
}
`

func parseDemoteSample(t *testing.T) llvm.Module {
	t.Helper()
	ctx := llvm.NewContext()
	buf := llvm.NewMemoryBufferFromString(demoteSampleIR, "sample")
	mod, err := ctx.ParseIR(buf)
	if err != nil {
		t.Fatalf("ParseIR: %v", err)
	}
	return mod
}

func TestDemoteMaterialized_DemotesOnlyKnownSymbols(t *testing.T) {
	mod := parseDemoteSample(t)
	materialized := map[string]struct{}{"already_materialized": {}}

	demoteMaterialized(mod, materialized, "still_pending")

	demoted := mod.NamedFunction("already_materialized")
	if !demoted.IsDeclaration() {
		t.Error("already-materialized function should be demoted to a declaration")
	}

	pending := mod.NamedFunction("still_pending")
	if pending.IsDeclaration() {
		t.Error("a function not yet materialized should keep its body")
	}
}

func TestDemoteMaterialized_KeepsTargetEvenIfMaterialized(t *testing.T) {
	mod := parseDemoteSample(t)
	materialized := map[string]struct{}{"already_materialized": {}, "still_pending": {}}

	demoteMaterialized(mod, materialized, "still_pending")

	if mod.NamedFunction("still_pending").IsDeclaration() {
		t.Error("the target of this compile (keep) must never be demoted")
	}
}
