package idgen

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestUUIDv7(t *testing.T) {
	id := New()
	u, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("parse %q: %v", id, err)
	}
	if u.Version() != 7 {
		t.Errorf("version: got %d, want 7", u.Version())
	}
}

func TestShortAndPrefixed(t *testing.T) {
	gen := Prefixed("pg_", Short(8))
	a, b := gen(), gen()
	if !strings.HasPrefix(a, "pg_") || len(a) != 11 {
		t.Errorf("id: got %q, want pg_ + 8 chars", a)
	}
	if a == b {
		t.Errorf("two ids collided: %q", a)
	}
}
