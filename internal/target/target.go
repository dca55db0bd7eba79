// Package target implements the Target Probe: discovering the host
// architecture, CPU name, feature set, a target-machine handle, and the
// vector-register-width hint derived from feature flags.
//
// Grounded on original_source/src/rufus.cpp's initialize_target:
// llvm::InitializeNativeTarget{,AsmPrinter,AsmParser}(),
// llvm::sys::getDefaultTargetTriple(), llvm::sys::getHostCPUName(),
// llvm::sys::getHostCPUFeatures(), llvm::TargetRegistry::lookupTarget(),
// Target::createTargetMachine(). The MaxVectorWidth derivation
// (avx512/avx/sve/default) is spec.md §4.1's addition; the original never
// computes it, since it only ever sets target-cpu/target-features, not
// min-legal-vector-width/prefer-vector-width.
package target

import (
	"fmt"
	"strings"
	"sync"

	llvm "tinygo.org/x/go-llvm"
)

var initOnce sync.Once

// Info is the result of probing the host once. It is safe to share across
// engines; the process-wide native-target registration it depends on is
// idempotent (sync.Once-guarded) regardless of how many engines probe.
type Info struct {
	Triple         string
	CPU            string
	FeatureString  string
	Features       map[string]struct{}
	Machine        llvm.TargetMachine
	MaxVectorWidth int
	hasMachine     bool
}

// HasMachine reports whether a usable TargetMachine was created. When
// false, MaxVectorWidth has already been degraded to 128 and Machine must
// not be used.
func (i Info) HasMachine() bool { return i.hasMachine }

// HasFeature reports whether name (without a leading '+') was present in
// the host's feature set.
func (i Info) HasFeature(name string) bool {
	_, ok := i.Features[name]
	return ok
}

// Probe initializes the native LLVM backend (once per process, safe to
// call from multiple Engines) and derives Info for the current host.
// Failure to resolve a TargetMachine is reported as an error but is
// non-fatal: MaxVectorWidth is left at its default of 128 and HasMachine
// reports false.
func Probe() (Info, error) {
	var initErr error
	initOnce.Do(func() {
		if err := llvm.InitializeNativeTarget(); err != nil {
			initErr = fmt.Errorf("target: initialize native target: %w", err)
			return
		}
		if err := llvm.InitializeNativeAsmPrinter(); err != nil {
			initErr = fmt.Errorf("target: initialize native asm printer: %w", err)
			return
		}
		// The parser is only needed by tools that read assembly; a failure
		// here does not prevent codegen, so it is not fatal to Probe.
		_ = llvm.InitializeNativeAsmParser()
	})
	if initErr != nil {
		return Info{MaxVectorWidth: 128}, initErr
	}

	triple := llvm.DefaultTargetTriple()
	cpu := llvm.GetHostCPUName()
	featureString := llvm.GetHostCPUFeatures()
	features := parseFeatures(featureString)

	info := Info{
		Triple:         triple,
		CPU:            cpu,
		FeatureString:  featureString,
		Features:       features,
		MaxVectorWidth: maxVectorWidth(features),
	}

	t, err := llvm.GetTargetFromTriple(triple)
	if err != nil {
		info.MaxVectorWidth = 128
		return info, fmt.Errorf("target: lookup %q: %w", triple, err)
	}

	info.Machine = t.CreateTargetMachine(triple, cpu, featureString, llvm.CodeGenLevelDefault, llvm.RelocDefault, llvm.CodeModelJITDefault)
	info.hasMachine = true
	return info, nil
}

// parseFeatures turns the comma-separated "+avx,+avx2,-sse4a" form LLVM's
// getHostCPUFeatures returns into a set of enabled feature names, with the
// leading sign stripped and disabled ("-") features dropped.
func parseFeatures(featureString string) map[string]struct{} {
	features := make(map[string]struct{})
	for _, tok := range strings.Split(featureString, ",") {
		tok = strings.TrimSpace(tok)
		if len(tok) < 2 {
			continue
		}
		switch tok[0] {
		case '+':
			features[tok[1:]] = struct{}{}
		case '-':
			// disabled; not added
		default:
			features[tok] = struct{}{}
		}
	}
	return features
}

// maxVectorWidth implements spec.md §4.1: 512 if avx512 is present, else
// 256 if avx, else 2048 if sve, else 128.
func maxVectorWidth(features map[string]struct{}) int {
	for name := range features {
		if strings.HasPrefix(name, "avx512") {
			return 512
		}
	}
	if _, ok := features["avx"]; ok {
		return 256
	}
	if _, ok := features["sve"]; ok {
		return 2048
	}
	return 128
}
