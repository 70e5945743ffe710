package integrity

import "testing"

func TestSHA256(t *testing.T) {
	got := SHA256([]byte("hello"))
	want := "sha256-LPJNul+wow4m6DsqxbninhsWHlwfp0JecwQzYpOLmCQ="
	if got != want {
		t.Errorf("SHA256(%q) = %q, want %q", "hello", got, want)
	}
}

func TestSHA256Deterministic(t *testing.T) {
	a := SHA256([]byte("same bytes"))
	b := SHA256([]byte("same bytes"))
	if a != b {
		t.Errorf("expected deterministic output, got %q and %q", a, b)
	}
}
