package engine

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/vmihailenco/msgpack/v5"

	"rfspec/internal/specialize"
)

// Preset is a named, reusable specialization request: source function plus
// bindings, the same shape SpecializeFunction takes directly, saved once
// and replayed across engine instances.
type Preset struct {
	Name     string           `toml:"name"`
	Source   string           `toml:"source"`
	Bindings map[string]int64 `toml:"bindings"`
}

func (p Preset) request() specialize.Request {
	return specialize.Request{Source: p.Source, Bindings: p.Bindings}
}

// profileFile is the on-disk shape of a specialization-profile file: a
// flat list of presets a caller wants available by name, grounded on
// internal/project's [modules]-style top-level table-of-entries layout.
type profileFile struct {
	Presets []Preset `toml:"preset"`
}

// LoadProfile parses a TOML specialization-profile file into a name-keyed
// preset bundle.
func LoadProfile(path string) (map[string]Preset, error) {
	var pf profileFile
	if _, err := toml.DecodeFile(path, &pf); err != nil {
		return nil, fmt.Errorf("%s: decode profile: %w", path, err)
	}
	out := make(map[string]Preset, len(pf.Presets))
	for _, p := range pf.Presets {
		out[p.Name] = p
	}
	return out, nil
}

// EncodePresets msgpack-serializes a preset bundle for handing to another
// process or another engine instance in the same run. This is a source-level
// cache of specialization requests, never of compiled code or JIT state —
// the core's "incremental re-linking of previously installed symbols" is an
// explicit non-goal, so nothing here shortcuts a compile.
func EncodePresets(presets map[string]Preset) ([]byte, error) {
	return msgpack.Marshal(presets)
}

// DecodePresets is EncodePresets' inverse.
func DecodePresets(data []byte) (map[string]Preset, error) {
	var presets map[string]Preset
	if err := msgpack.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("decode preset bundle: %w", err)
	}
	return presets, nil
}
