// Package resolve maps a user-supplied demangled signature to a defined
// function in the current IR module.
//
// Grounded on original_source/src/rufus.cpp's find_function_by_demangled_name:
// same whitespace-normalized exact/prefix match, same "first match in
// iteration order" tie-break as the fallback. This version additionally
// resolves ambiguity explicitly: when more than one function matches,
// every candidate is reported and the shortest demangled name wins,
// instead of silently returning the first hit.
package resolve

import (
	llvm "tinygo.org/x/go-llvm"

	"rfspec/internal/demangle"
)

// Candidate is one function whose demangled name matched a query.
type Candidate struct {
	Func      llvm.Value
	Demangled string
	Mangled   string
	Exact     bool
}

// Result is the outcome of a Find call.
type Result struct {
	Match      *Candidate
	Candidates []Candidate // all matches, including Match; len > 1 signals ambiguity
}

// NotFoundError reports that no defined function matched the query.
type NotFoundError struct{ Query string }

func (e *NotFoundError) Error() string {
	return "function not found: " + e.Query
}

// Find scans mod's defined functions for one whose demangled name equals
// (after whitespace normalization) or is prefixed by query. Ties are
// broken by taking the shortest demangled name among all matches, and the
// full candidate list is returned so the caller can log an ambiguity
// warning when there is more than one.
func Find(mod llvm.Module, query string) (Result, error) {
	normalizedQuery := demangle.Normalize(query)

	var candidates []Candidate
	for fn := mod.FirstFunction(); !fn.IsNil(); fn = llvm.NextFunction(fn) {
		if fn.IsDeclaration() {
			continue
		}
		mangled := fn.Name()
		demangled := demangle.Name(mangled)
		normalized := demangle.Normalize(demangled)

		exact := normalized == normalizedQuery
		prefix := !exact && len(normalized) >= len(normalizedQuery) && normalized[:len(normalizedQuery)] == normalizedQuery
		if !exact && !prefix {
			continue
		}
		candidates = append(candidates, Candidate{
			Func:      fn,
			Demangled: demangled,
			Mangled:   mangled,
			Exact:     exact,
		})
	}

	if len(candidates) == 0 {
		return Result{}, &NotFoundError{Query: query}
	}

	best := &candidates[0]
	for i := 1; i < len(candidates); i++ {
		c := &candidates[i]
		// Prefer an exact match outright; among equally-exact matches,
		// prefer the shortest demangled name as the disambiguation
		// heuristic.
		switch {
		case c.Exact && !best.Exact:
			best = c
		case c.Exact == best.Exact && len(c.Demangled) < len(best.Demangled):
			best = c
		}
	}

	return Result{Match: best, Candidates: candidates}, nil
}

// Ambiguous reports whether Find matched more than one candidate.
func (r Result) Ambiguous() bool { return len(r.Candidates) > 1 }
