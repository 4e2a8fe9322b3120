package mesh_test

import (
	"errors"
	"testing"

	"github.com/farent12/colmap/internal/fault"
	"github.com/farent12/colmap/internal/mesh"
)

func TestResolveDelaunayInput(t *testing.T) {
	for token, want := range map[string]string{
		"sparse": mesh.DelaunayInputSparse,
		"Dense":  mesh.DelaunayInputDense,
		" DENSE ": mesh.DelaunayInputDense,
	} {
		got, err := mesh.ResolveDelaunayInput(token)
		if err != nil {
			t.Fatalf("ResolveDelaunayInput(%q) failed: %v", token, err)
		}
		if got != want {
			t.Fatalf("ResolveDelaunayInput(%q) = %q, want %q", token, got, want)
		}
	}

	if _, err := mesh.ResolveDelaunayInput("fused"); !errors.Is(err, fault.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format error, got %v", err)
	}

	tokens := mesh.DelaunayInputTokens()
	if len(tokens) != 2 || tokens[0] != "dense" || tokens[1] != "sparse" {
		t.Fatalf("unexpected tokens: %v", tokens)
	}
}
