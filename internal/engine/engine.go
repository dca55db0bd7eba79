// Package engine implements the fluent Engine: the single object a caller
// drives through load → specialize → optimize → compile. It owns the IR
// module and the JIT session and wires together every other package in
// this module in data-flow order: IR Loader → (Symbol Resolver → Inliner
// → Cloner → Local-Variable Substituter → Normalizer)* → Function
// Optimizer → JIT Session Manager.
//
// Grounded on original_source/src/rufus.cpp's RuntimeSpecializer, whose
// constructor, load_ir_file/load_ir_string, specialize_function, optimize,
// and the two compile overloads this mirrors one-for-one. Every failure is
// written to the engine's plain-text diagnostic sink; no error value is
// returned to the caller: the builder methods return the engine unchanged
// and the compile methods return 0.
package engine

import (
	"fmt"
	"os"

	llvm "tinygo.org/x/go-llvm"

	"rfspec/internal/demangle"
	"rfspec/internal/inline"
	"rfspec/internal/irmodule"
	"rfspec/internal/jitengine"
	"rfspec/internal/normalize"
	"rfspec/internal/optimize"
	"rfspec/internal/resolve"
	"rfspec/internal/specialize"
	"rfspec/internal/target"
	"rfspec/internal/trace"
)

// Engine is a small state machine over (module, JIT). Every builder-style
// method returns the engine itself so calls chain, and every failure is
// recorded to the diagnostic sink rather than panicking.
type Engine struct {
	target target.Info
	module *irmodule.Module
	jit    *jitengine.Session
	diag   *diagnostics
	tracer trace.Tracer
	config Config
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithConfig overrides DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.config = cfg }
}

// WithDiagnosticsWriter redirects the plain-text error sink away from
// os.Stderr; primarily useful for tests.
func WithDiagnosticsWriter(w *os.File) Option {
	return func(e *Engine) { e.diag = newDiagnostics(w) }
}

// WithTracer attaches a structured trace.Tracer for internal spans; if
// omitted, trace.Nop is used.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// New probes the host target, initializes the JIT session lazily, and
// returns a ready Engine.
func New(opts ...Option) (*Engine, error) {
	t, err := target.Probe()
	if err != nil && !t.HasMachine() {
		// Non-fatal: MaxVectorWidth already degraded to 128 inside Probe.
		// Keep going with a diagnostic instead of failing construction
		// outright.
		newDiagnostics(os.Stderr).report("construct", err)
	}

	e := &Engine{
		target: t,
		module: irmodule.New(t),
		jit:    jitengine.New(),
		diag:   newDiagnostics(os.Stderr),
		tracer: trace.Nop,
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// LoadIRFile parses IR from path, replacing the current module.
func (e *Engine) LoadIRFile(path string) *Engine {
	sp := trace.Begin(e.tracer, trace.ScopeEngine, "load_ir_file", 0)
	defer func() { sp.End("") }()
	if err := e.module.LoadFile(path); err != nil {
		e.diag.report("load_ir_file", err)
	}
	return e
}

// LoadIRString parses IR from an in-memory buffer.
func (e *Engine) LoadIRString(name, text string) *Engine {
	sp := trace.Begin(e.tracer, trace.ScopeEngine, "load_ir_string", 0)
	defer func() { sp.End("") }()
	if err := e.module.LoadString(name, text); err != nil {
		e.diag.report("load_ir_string", err)
	}
	return e
}

// SpecializeFunction resolves source to a defined function, splits
// bindings into parameter and local-variable bindings, clones the
// function under those bindings, folds local slots, and normalizes the
// clone for optimization: Symbol Resolver → Inliner → Cloner →
// Local-Variable Substituter → Normalizer.
func (e *Engine) SpecializeFunction(source string, bindings map[string]int64) *Engine {
	const op = "specialize_function"
	sp := trace.Begin(e.tracer, trace.ScopeEngine, op, 0)
	defer func() { sp.End("") }()

	if !e.module.Loaded() {
		e.diag.report(op, fmt.Errorf("no module loaded"))
		return e
	}

	req := specialize.Request{Source: source, Bindings: bindings}
	specializedName := specialize.Name(source, bindings)

	if already, err := resolve.Find(e.module.LLVM(), specializedName); err == nil && already.Match != nil {
		// Idempotent: the named clone already exists, nothing further to do.
		_ = already
		return e
	}

	result, err := resolve.Find(e.module.LLVM(), source)
	if err != nil {
		e.diag.report(op, err)
		return e
	}
	if result.Ambiguous() {
		e.diag.warn(op, fmt.Sprintf("%d candidates matched %q; using %q", len(result.Candidates), source, result.Match.Demangled))
	}
	fn := result.Match.Func

	inline.AllCalls(e.module.LLVM(), fn)

	params, locals := specialize.Split(fn, req)

	clone, err := specialize.CloneWithConstantArgs(fn, params, specializedName)
	if err != nil {
		e.diag.report(op, err)
		return e
	}

	for _, foldErr := range specialize.SubstituteLocals(clone, locals) {
		// Reported, but specialization proceeds without the fold.
		e.diag.warn(op, foldErr.Error())
	}

	normalize.Apply(clone, e.target)
	if width, ok := e.config.vectorWidthOverride(); ok {
		irmodule.SetVectorWidthHints(clone, width)
	}
	return e
}

// Optimize runs the per-function pipeline on every eligible function in
// the module.
func (e *Engine) Optimize() *Engine {
	const op = "optimize"
	sp := trace.Begin(e.tracer, trace.ScopeEngine, op, 0)
	defer func() { sp.End("") }()

	if !e.module.Loaded() {
		e.diag.report(op, fmt.Errorf("no module loaded"))
		return e
	}

	mod := e.module.LLVM()
	for fn := mod.FirstFunction(); !fn.IsNil(); fn = llvm.NextFunction(fn) {
		if fn.IsDeclaration() {
			continue
		}
		optimize.Run(fn)
	}
	return e
}

// Compile JITs the named function and returns its resident address, or 0
// on failure.
func (e *Engine) Compile(name string) uintptr {
	const op = "compile"
	sp := trace.Begin(e.tracer, trace.ScopeEngine, op, 0)
	defer func() { sp.End("") }()

	if !e.module.Loaded() {
		e.diag.report(op, fmt.Errorf("no module loaded"))
		return 0
	}

	result, err := resolve.Find(e.module.LLVM(), name)
	if err != nil {
		e.diag.report(op, err)
		return 0
	}
	mangled := result.Match.Func.Name()

	addr, err := e.jit.Compile(e.module.LLVM(), mangled, e.config.FastMath)
	if err != nil {
		e.diag.report(op, err)
		return 0
	}
	return uintptr(addr)
}

// CompileWithBindings derives the specialized name, ensures the
// specialization and optimization have run, then compiles it.
func (e *Engine) CompileWithBindings(name string, bindings map[string]int64) uintptr {
	specializedName := specialize.Name(name, bindings)

	if result, err := resolve.Find(e.module.LLVM(), specializedName); err != nil || result.Match == nil {
		e.SpecializeFunction(name, bindings)
		e.Optimize()
	}
	return e.Compile(specializedName)
}

// PrintModuleIR writes the current module's textual IR to standard output.
func (e *Engine) PrintModuleIR() *Engine {
	if e.module.Loaded() {
		fmt.Println(e.module.LLVM().String())
	}
	return e
}

// PrintDebugInfo writes each defined function's demangled/mangled name and
// parameter names to standard output.
func (e *Engine) PrintDebugInfo() *Engine {
	if !e.module.Loaded() {
		return e
	}
	mod := e.module.LLVM()
	for fn := mod.FirstFunction(); !fn.IsNil(); fn = llvm.NextFunction(fn) {
		if fn.IsDeclaration() {
			continue
		}
		mangled := fn.Name()
		fmt.Printf("%s (%s): ", demangle.Name(mangled), mangled)
		params := fn.Params()
		for i, p := range params {
			if i > 0 {
				fmt.Print(", ")
			}
			fmt.Print(p.Name())
		}
		fmt.Println()
	}
	return e
}

// Close releases the JIT session. Every address returned by Compile
// becomes invalid once this returns.
func (e *Engine) Close() error {
	return e.jit.Close()
}
