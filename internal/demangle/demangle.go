// Package demangle turns a mangled Itanium C++ ABI symbol name into its
// human-readable rendering, the "demangled name" used everywhere else in
// the engine as the user-facing function identifier.
//
// original_source/src/rufus.cpp gets this for free from LLVM's own
// llvm::demangle helper. Nothing in this pack demangles C++ symbols, so
// this wraps the standard Go Itanium demangler instead of hand-rolling the
// grammar.
package demangle

import gd "github.com/ianlancetaylor/demangle"

// Name demangles a mangled symbol. If mangled is not a recognized Itanium
// (or Rust) mangling, it is returned unchanged — many IR functions have
// plain C linkage names that are already their own demangled form.
func Name(mangled string) string {
	if mangled == "" {
		return mangled
	}
	out, err := gd.ToString(mangled, gd.NoClones)
	if err != nil {
		return mangled
	}
	return out
}

// Normalize strips all ASCII whitespace from a demangled or query string so that
// two spellings that differ only in spacing (e.g. "int" vs " int") compare
// equal. Used by internal/resolve for both exact and prefix matching.
func Normalize(s string) string {
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r' || s[i] == '\v' || s[i] == '\f' {
			continue
		}
		buf = append(buf, s[i])
	}
	return string(buf)
}
