package undistort_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/farent12/colmap/internal/fault"
	"github.com/farent12/colmap/internal/undistort"
)

func TestResolveLayout(t *testing.T) {
	for token, want := range map[string]string{
		"colmap":  undistort.LayoutCOLMAP,
		"PMVS":    undistort.LayoutPMVS,
		"Cmp-Mvs": undistort.LayoutCMPMVS,
	} {
		got, err := undistort.ResolveLayout(token)
		if err != nil {
			t.Fatalf("ResolveLayout(%q) failed: %v", token, err)
		}
		if got != want {
			t.Fatalf("ResolveLayout(%q) = %q, want %q", token, got, want)
		}
	}
}

func TestResolveLayoutRejectsUnknown(t *testing.T) {
	_, err := undistort.ResolveLayout("cmpmvs")
	if !errors.Is(err, fault.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
	if !strings.Contains(err.Error(), "cmp-mvs") {
		t.Fatalf("error should list the valid tokens, got %v", err)
	}
}
