package engine

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config holds the toggles an implementer may want exposed for the
// choices the core otherwise hard-codes: fast-math, FP contraction, and
// the vector-width hint used to prime a specialized function's
// attributes. FPContract is decoded and stored but nothing in the engine
// reads it: FP contraction always follows the target default.
type Config struct {
	FastMath    bool   `toml:"fast_math"`
	FPContract  string `toml:"fp_contract"`
	VectorWidth string `toml:"vector_width"`
}

// DefaultConfig matches the core's hard-coded behavior: fast-math applied
// unconditionally at JIT time, contraction left to the target default,
// and vector width taken from the Target Probe rather than overridden.
func DefaultConfig() Config {
	return Config{
		FastMath:    true,
		FPContract:  "on",
		VectorWidth: "auto",
	}
}

// LoadConfig parses a rfspec.toml-shaped engine configuration file. Fields
// absent from the file keep DefaultConfig's values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: decode config: %w", path, err)
	}
	if !meta.IsDefined("fast_math") {
		cfg.FastMath = DefaultConfig().FastMath
	}
	return cfg, nil
}

func (c Config) vectorWidthOverride() (int, bool) {
	switch c.VectorWidth {
	case "", "auto":
		return 0, false
	case "128":
		return 128, true
	case "256":
		return 256, true
	case "512":
		return 512, true
	case "2048":
		return 2048, true
	default:
		return 0, false
	}
}
