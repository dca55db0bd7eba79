package specialize

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// Name computes the deterministic specialized identifier:
//
//	basename + ("_" + key + "_" + value)* + "_" + hash8
//
// basename is the prefix of the demangled source signature up to its first
// '(', bindings are appended in Request.SortedKeys order, and hash8 is the
// low eight hex digits of an FNV-1a hash of the full demangled signature —
// this is what disambiguates two overloads that share a basename and the
// same bindings. Naming is deterministic: the same source and bindings
// always produce the same identifier.
//
// original_source/src/rufus.cpp's create_specialized_name always suffixes
// "_RFS" before the bindings and never hashes the signature, so two
// overloaded sources specialized with identical bindings collide there.
// This version keeps the "_RFS"-free basename+bindings shape but adds the
// hash8 suffix to make the identifier collision-resistant across
// overloads.
func Name(demangledSource string, bindings map[string]int64) string {
	basename := demangledSource
	if i := strings.IndexByte(demangledSource, '('); i >= 0 {
		basename = demangledSource[:i]
	}

	var b strings.Builder
	b.WriteString(basename)

	req := Request{Source: demangledSource, Bindings: bindings}
	for _, k := range req.SortedKeys() {
		fmt.Fprintf(&b, "_%s_%d", k, bindings[k])
	}

	fmt.Fprintf(&b, "_%s", hash8(demangledSource))
	return b.String()
}

// hash8 returns the low eight hex digits of the FNV-1a hash of s.
func hash8(s string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32())
}
