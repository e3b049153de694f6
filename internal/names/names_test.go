package names

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestFromUUIDIsDeterministic(t *testing.T) {
	id := uuid.MustParse("00000002-0000-0005-0000-000000000000")
	got := FromUUID(id)
	if want := "calm-fern-0000"; got != want {
		t.Fatalf("name mismatch: got=%q want=%q", got, want)
	}
	if FromUUID(id) != got {
		t.Fatalf("same id produced different names")
	}
}

func TestNewProducesValidNames(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		n := New()
		if !Valid(n) || strings.Count(n, "-") != 2 {
			t.Fatalf("unexpected name %q", n)
		}
		seen[n] = true
	}
	if len(seen) < 45 {
		t.Fatalf("expected mostly distinct names, got %d of 50", len(seen))
	}
}

func TestValid(t *testing.T) {
	for name, want := range map[string]bool{
		"quiet-harbor": true,
		"":             false,
		"..":           false,
		"a/b":          false,
		"x?":           false,
	} {
		if got := Valid(name); got != want {
			t.Fatalf("Valid(%q) = %v, want %v", name, got, want)
		}
	}
}
