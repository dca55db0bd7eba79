package engine

import (
	"reflect"
	"testing"
)

func TestEncodeDecodePresets_RoundTrip(t *testing.T) {
	in := map[string]Preset{
		"n64": {Name: "n64", Source: "hot_loop(float*, int)", Bindings: map[string]int64{"N": 64}},
		"n65": {Name: "n65", Source: "hot_loop(float*, int)", Bindings: map[string]int64{"N": 65}},
	}

	data, err := EncodePresets(in)
	if err != nil {
		t.Fatalf("EncodePresets: %v", err)
	}

	out, err := DecodePresets(data)
	if err != nil {
		t.Fatalf("DecodePresets: %v", err)
	}

	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\n got %#v\nwant %#v", out, in)
	}
}

func TestDecodePresets_Malformed(t *testing.T) {
	if _, err := DecodePresets([]byte{0xff, 0xff, 0xff}); err == nil {
		t.Error("DecodePresets should reject malformed msgpack data")
	}
}
