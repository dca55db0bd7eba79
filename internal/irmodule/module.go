// Package irmodule owns the engine's mutable IR module: parsing it from a
// file or an in-memory string, and re-tagging every defined function the
// way an ahead-of-time build leaves it — conservative, "optimize-none" —
// plus vector-width hints set to the probed maximum.
//
// Grounded on original_source/src/rufus.cpp's load_ir_file / load_ir_string
// / disable_optimizations, generalized to also carry the vector-width hint
// from internal/target at load time (the original only disables
// optimizations; it never primes target-features on load, because it
// re-derives them at specialize time instead — this version keeps both:
// loading still tags optimize-none, and normalize.Apply is what stamps
// target-cpu and target-features onto a *clone*, matching the original's
// timing).
package irmodule

import (
	"fmt"

	llvm "tinygo.org/x/go-llvm"

	"rfspec/internal/target"
)

// AttributeFunctionIndex is the LLVM-C convention for "attach to the
// function itself" as opposed to a specific parameter or the return value.
const AttributeFunctionIndex = -1

// ParseError reports a malformed IR module on load. A failed load leaves
// the Module unloaded: Loaded reports false until a later load succeeds.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Module owns an LLVM context and the single module parsed into it.
// Exactly one Module is live in the engine at a time; loading a new one
// replaces the previous one. The previous context and module are not
// disposed: they stay allocated, and handles into them keep referring to
// the old module rather than the current one.
type Module struct {
	ctx    llvm.Context
	mod    llvm.Module
	valid  bool
	target target.Info
}

// New creates an empty, unloaded Module bound to the given probed target.
func New(t target.Info) *Module {
	return &Module{ctx: llvm.NewContext(), target: t}
}

// LLVM returns the underlying module. Its value is only meaningful while
// Loaded() reports true; callers in this engine always check Loaded() first.
func (m *Module) LLVM() llvm.Module { return m.mod }

// Context returns the owning LLVM context.
func (m *Module) Context() llvm.Context { return m.ctx }

// Loaded reports whether a module was successfully parsed and is current.
func (m *Module) Loaded() bool { return m.valid }

// LoadFile parses IR from a filesystem path, replacing any previously
// loaded module. Function handles into the old module no longer refer to
// the current one; symbols already materialized in the JIT session are not
// affected.
func (m *Module) LoadFile(path string) error {
	buf, err := llvm.NewMemoryBufferFromFile(path)
	if err != nil {
		m.valid = false
		return &ParseError{Source: path, Err: err}
	}
	return m.load(buf, path, "load_ir_file")
}

// LoadString parses IR from an in-memory buffer.
func (m *Module) LoadString(name, text string) error {
	buf := llvm.NewMemoryBufferFromString(text, name)
	return m.load(buf, name, "load_ir_string")
}

func (m *Module) load(buf llvm.MemoryBuffer, source, op string) error {
	// A fresh context per load keeps a failed parse from leaving stray
	// types/metadata behind in a context we'd otherwise keep reusing.
	ctx := llvm.NewContext()
	mod, err := ctx.ParseIR(buf)
	if err != nil {
		m.valid = false
		return &ParseError{Source: source, Err: fmt.Errorf("%s: %w", op, err)}
	}

	m.ctx = ctx
	m.mod = mod
	m.valid = true
	tagLoadedFunctions(mod, m.target)
	return nil
}

// tagLoadedFunctions marks every defined function optimize-none and installs
// the vector-width attributes.
func tagLoadedFunctions(mod llvm.Module, t target.Info) {
	for fn := mod.FirstFunction(); !fn.IsNil(); fn = llvm.NextFunction(fn) {
		if fn.IsDeclaration() {
			continue
		}
		MarkOptimizeNone(fn)
		SetVectorWidthHints(fn, t.MaxVectorWidth)
	}
}

// MarkOptimizeNone attaches LLVM's "optnone" (plus the "noinline" it
// requires) function attribute.
func MarkOptimizeNone(fn llvm.Value) {
	ctx := fn.GlobalParent().Context()
	fn.AddAttributeAtIndex(AttributeFunctionIndex, enumAttr(ctx, "optnone"))
	fn.AddAttributeAtIndex(AttributeFunctionIndex, enumAttr(ctx, "noinline"))
}

// SetVectorWidthHints stamps min-legal-vector-width and prefer-vector-width
// with the probed maximum vector width, in bits.
func SetVectorWidthHints(fn llvm.Value, widthBits int) {
	ctx := fn.GlobalParent().Context()
	widthStr := fmt.Sprintf("%d", widthBits)
	fn.AddAttributeAtIndex(AttributeFunctionIndex, ctx.CreateStringAttribute("min-legal-vector-width", widthStr))
	fn.AddAttributeAtIndex(AttributeFunctionIndex, ctx.CreateStringAttribute("prefer-vector-width", widthStr))
}

func enumAttr(ctx llvm.Context, name string) llvm.Attribute {
	kindID := llvm.AttributeKindID(name)
	return ctx.CreateEnumAttribute(kindID, 0)
}
