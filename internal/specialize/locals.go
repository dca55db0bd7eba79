package specialize

import (
	"fmt"

	llvm "tinygo.org/x/go-llvm"
)

// EscapeError reports that a named stack slot could not be soundly folded
// to a constant because it has a use other than a direct load or store.
// The slot is left intact; the caller should surface this as a
// diagnostic but continue.
type EscapeError struct {
	SlotName string
}

func (e *EscapeError) Error() string {
	return fmt.Sprintf("local slot %q has a non-load/store use and was not folded", e.SlotName)
}

// SubstituteLocals finds every named alloca in fn whose name is a key of
// bindings and, when the slot is provably safe to fold (its only uses are
// direct loads and stores), replaces loads with the bound constant,
// erases the stores, and erases the slot itself.
//
// Grounded on rufus.cpp's specialize_internal_variables /
// replace_alloca_with_constant, with an escape check rufus.cpp does not
// implement (it folds unconditionally).
func SubstituteLocals(fn llvm.Value, bindings map[string]int64) []error {
	if len(bindings) == 0 {
		return nil
	}

	var allocas []llvm.Value
	for bb := fn.FirstBasicBlock(); !bb.IsNil(); bb = llvm.NextBasicBlock(bb) {
		for instr := bb.FirstInstruction(); !instr.IsNil(); instr = llvm.NextInstruction(instr) {
			if instr.IsAAllocaInst().IsNil() {
				continue
			}
			if _, ok := bindings[instr.Name()]; ok {
				allocas = append(allocas, instr)
			}
		}
	}

	var errs []error
	for _, alloca := range allocas {
		name := alloca.Name()
		value := bindings[name]

		if !soleUsesAreLoadStore(alloca) {
			errs = append(errs, &EscapeError{SlotName: name})
			continue
		}

		constVal, err := constantForType(alloca.AllocatedType(), value)
		if err != nil {
			errs = append(errs, fmt.Errorf("local %q: %w", name, err))
			continue
		}

		replaceAllocaWithConstant(alloca, constVal)
	}
	return errs
}

// soleUsesAreLoadStore reports whether every use of alloca is a plain load,
// or a store that writes *through* it rather than *of* it — the minimal
// correct soundness policy for folding a stack slot to a constant. A store
// instruction's operand 0 is the value being stored and operand 1 is the
// destination pointer, so "store %alloca, ptr %somewhere" (the alloca as
// operand 0) hands its address out just as surely as a GEP or a call taking
// the pointer would, and is rejected the same way.
func soleUsesAreLoadStore(alloca llvm.Value) bool {
	for use := alloca.FirstUse(); !use.IsNil(); use = use.NextUse() {
		user := use.User()
		switch {
		case !user.IsALoadInst().IsNil():
			continue
		case !user.IsAStoreInst().IsNil():
			if user.Operand(1) != alloca {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// replaceAllocaWithConstant replaces every load of alloca with constVal,
// deletes every store to it, then deletes the alloca itself.
func replaceAllocaWithConstant(alloca, constVal llvm.Value) {
	var toRemove []llvm.Value
	for use := alloca.FirstUse(); !use.IsNil(); use = use.NextUse() {
		user := use.User()
		if !user.IsALoadInst().IsNil() {
			user.ReplaceAllUsesWith(constVal)
		}
		toRemove = append(toRemove, user)
	}
	for _, instr := range toRemove {
		instr.EraseFromParentAsInstruction()
	}
	alloca.EraseFromParentAsInstruction()
}
