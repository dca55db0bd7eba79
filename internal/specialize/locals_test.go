package specialize

import "testing"

func TestEscapeError_Message(t *testing.T) {
	err := &EscapeError{SlotName: "N"}
	got := err.Error()
	want := `local slot "N" has a non-load/store use and was not folded`
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
