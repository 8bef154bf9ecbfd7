package terminal

import (
	"strings"
	"testing"
)

func TestNewOpIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewOpID("move")
		if seen[id] {
			t.Fatalf("Duplicate op id generated: %s", id)
		}
		seen[id] = true
	}
}

func TestNewOpIDPrefix(t *testing.T) {
	id := NewOpID("count")
	if !strings.HasPrefix(id, "count-") {
		t.Errorf("Expected count- prefix, got %s", id)
	}
	if len(id) <= len("count-") {
		t.Error("Op id should carry a unique suffix")
	}
}
