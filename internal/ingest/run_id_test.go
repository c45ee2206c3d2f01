package ingest

import (
	"strings"
	"testing"
)

func TestNewRunID(t *testing.T) {
	a, err := NewRunID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := NewRunID()

	if !strings.HasPrefix(a, "run_") || len(a) != 36 {
		t.Fatalf("unexpected run id format: %q", a)
	}
	if a == b {
		t.Fatalf("expected distinct run ids")
	}
}
