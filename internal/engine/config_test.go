package engine

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.FastMath {
		t.Error("DefaultConfig should enable fast-math, matching the core's unconditional JIT-time behavior")
	}
	if cfg.VectorWidth != "auto" {
		t.Errorf("VectorWidth = %q, want %q", cfg.VectorWidth, "auto")
	}
}

func TestVectorWidthOverride(t *testing.T) {
	tests := []struct {
		width  string
		want   int
		wantOK bool
	}{
		{"", 0, false},
		{"auto", 0, false},
		{"128", 128, true},
		{"256", 256, true},
		{"512", 512, true},
		{"2048", 2048, true},
		{"garbage", 0, false},
	}
	for _, tt := range tests {
		cfg := Config{VectorWidth: tt.width}
		got, ok := cfg.vectorWidthOverride()
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("vectorWidthOverride(%q) = (%d, %v), want (%d, %v)", tt.width, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/rfspec.toml"); err == nil {
		t.Error("LoadConfig should fail on a missing file")
	}
}
