// Package trace provides a tracing subsystem for the rfspec engine.
//
// The trace package tracks load/specialize/optimize/compile operations to
// help diagnose slow or hung JIT sessions.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	rfspec run --trace=- --trace-level=phase --ir module.ll
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - Nop: Zero-overhead no-op tracer when disabled
//   - StreamTracer: Immediate write to output (file/stderr)
//   - RingTracer: Circular buffer for crash dumps
//   - MultiTracer: Combines multiple tracers
//
// # Levels
//
// Tracing verbosity is controlled by levels:
//
//   - LevelOff: No tracing
//   - LevelError: Only crash dumps
//   - LevelPhase: Engine and operation boundaries
//   - LevelDetail: Per-function events
//   - LevelDebug: Everything including instruction-level events
//
// # Scopes
//
// Events are categorized by scope:
//
//   - ScopeEngine: top-level engine operations (load, specialize, optimize, compile)
//   - ScopeOperation: sub-steps of an operation (clone, substitute, verify, submit)
//   - ScopeFunction: per-function processing
//   - ScopeInstr: instruction level (future)
//
// # Context Propagation
//
// The engine receives its Tracer through engine.WithTracer; a Tracer can
// also be carried through a context.Context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeOperation, "specialize_function", parentID)
//	defer span.End("")
package trace
