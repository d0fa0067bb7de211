package id

import "testing"

func TestNewHasPrefix(t *testing.T) {
	got := NewDocument()
	if !HasPrefix(got, DocumentPrefix) {
		t.Errorf("Expected doc_ prefix, got %q", got)
	}
	if HasPrefix(got, QuotePrefix) {
		t.Errorf("Document id %q matched quote prefix", got)
	}
}

func TestNewUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		v := NewSandbox()
		if seen[v] {
			t.Fatalf("Duplicate id generated: %s", v)
		}
		seen[v] = true
	}
}
