package specialize

import (
	"fmt"

	"fortio.org/safecast"
	llvm "tinygo.org/x/go-llvm"
)

// AttributeFunctionIndex mirrors irmodule.AttributeFunctionIndex; duplicated
// here (rather than imported) to avoid a specialize -> irmodule dependency
// cycle, since irmodule will eventually depend on the specialized function
// this package produces being visible for re-normalization.
const AttributeFunctionIndex = -1

// ParamBinding is one resolved parameter binding: the argument index it
// removes and the constant value substituted at its use sites.
type ParamBinding struct {
	Index int
	Value int64
}

// Split partitions req's bindings against fn's formal parameters. Bindings
// matching a parameter name become ParamBindings; the rest are returned
// unchanged so the caller can try them as local-variable bindings.
//
// Grounded on rufus.cpp's specialize_function, which does exactly this
// split into const_function_args / const_internal_vars before cloning.
func Split(fn llvm.Value, req Request) (params []ParamBinding, locals map[string]int64) {
	locals = make(map[string]int64, len(req.Bindings))
	for k, v := range req.Bindings {
		locals[k] = v
	}

	idx := 0
	for _, arg := range fn.Params() {
		name := arg.Name()
		if v, ok := req.Bindings[name]; ok {
			params = append(params, ParamBinding{Index: idx, Value: v})
			delete(locals, name)
		}
		idx++
	}
	return params, locals
}

// CloneWithConstantArgs builds a new function named specializedName in the
// same module as fn: fn's return type is kept, the parameters named in
// params are dropped, the rest keep their relative order and names, and
// the body is cloned with every removed parameter replaced by a typed
// integer constant at all of its use sites.
func CloneWithConstantArgs(fn llvm.Value, params []ParamBinding, specializedName string) (llvm.Value, error) {
	mod := fn.GlobalParent()
	ctx := mod.Context()

	removed := make(map[int]int64, len(params))
	for _, p := range params {
		removed[p.Index] = p.Value
	}

	oldParams := fn.Params()
	oldFnType := fn.GlobalValueType()

	newParamTypes := make([]llvm.Type, 0, len(oldParams)-len(removed))
	for i, p := range oldParams {
		if _, drop := removed[i]; drop {
			continue
		}
		newParamTypes = append(newParamTypes, p.Type())
	}

	newFnType := llvm.FunctionType(oldFnType.ReturnType(), newParamTypes, oldFnType.IsVariadic())
	newFn := llvm.AddFunction(mod, specializedName, newFnType)
	newFn.SetLinkage(fn.Linkage())
	copyFunctionAttributes(ctx, newFn, fn)

	valueMap := make(map[llvm.Value]llvm.Value, len(oldParams))
	newArgs := newFn.Params()
	newIdx := 0
	for i, old := range oldParams {
		if value, drop := removed[i]; drop {
			constVal, err := constantForType(old.Type(), value)
			if err != nil {
				return llvm.Value{}, fmt.Errorf("clone_and_specialize_arguments: parameter %d: %w", i, err)
			}
			valueMap[old] = constVal
			continue
		}
		newArgs[newIdx].SetName(old.Name())
		valueMap[old] = newArgs[newIdx]
		newIdx++
	}

	cloneFunctionBody(newFn, fn, valueMap)
	return newFn, nil
}

// constantForType builds a typed llvm.ConstInt for value, range-checked
// against ty's actual bit width so an out-of-range binding surfaces as an
// error instead of llvm.ConstInt silently truncating it.
func constantForType(ty llvm.Type, value int64) (llvm.Value, error) {
	width := ty.IntTypeWidth()
	if width <= 0 {
		return llvm.Value{}, fmt.Errorf("binding target is not an integer type: %s", ty.String())
	}
	if width > 64 {
		return llvm.Value{}, fmt.Errorf("binding target wider than 64 bits (%d) is unsupported", width)
	}

	if err := fitsWidth(value, width); err != nil {
		return llvm.Value{}, fmt.Errorf("value %d overflows %d-bit binding: %w", value, width, err)
	}

	return llvm.ConstInt(ty, uint64(value), true), nil
}

// fitsWidth range-checks value against the signed range of an integer type
// exactly width bits wide, via fortio.org/safecast for the widths that
// match a native Go integer size and by direct arithmetic for the
// arbitrary widths LLVM also allows (e.g. i7, i24). i1 is the exception:
// it is checked against {0, 1}.
func fitsWidth(value int64, width int) error {
	switch width {
	case 1:
		// i1 is LLVM's bool type; its domain is the unsigned {0, 1}, not
		// the signed two's-complement {-1, 0} the general formula below
		// would imply, so it needs its own case.
		if value != 0 && value != 1 {
			return fmt.Errorf("outside [0, 1]")
		}
		return nil
	case 8:
		_, err := safecast.Conv[int8](value)
		return err
	case 16:
		_, err := safecast.Conv[int16](value)
		return err
	case 32:
		_, err := safecast.Conv[int32](value)
		return err
	case 64:
		return nil
	default:
		max := int64(1)<<(width-1) - 1
		min := -max - 1
		if value < min || value > max {
			return fmt.Errorf("outside [%d, %d]", min, max)
		}
		return nil
	}
}

// copyFunctionAttributes copies fn's function-level attributes onto clone,
// standing in for llvm::Function::copyAttributesFrom (a C++-only API not
// exposed through LLVM-C, hence the manual walk here).
func copyFunctionAttributes(ctx llvm.Context, clone, fn llvm.Value) {
	count := fn.GetAttributeCountAtIndex(AttributeFunctionIndex)
	if count == 0 {
		return
	}
	for _, attr := range fn.GetAttributesAtIndex(AttributeFunctionIndex) {
		clone.AddAttributeAtIndex(AttributeFunctionIndex, attr)
	}
	_ = ctx
}
