package project_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/farent12/colmap/internal/project"
)

func writeProject(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write project document: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsAndOverrides(t *testing.T) {
	path := writeProject(t, `
database_path = "db/recon.db"
image_path = "images"

[extraction]
camera_model = "PINHOLE"
use_gpu = false
`)

	cfg, err := project.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if !filepath.IsAbs(cfg.DatabasePath) {
		t.Fatalf("expected database path to be absolutized, got %q", cfg.DatabasePath)
	}
	if cfg.Extraction.CameraModel != "PINHOLE" {
		t.Fatalf("expected camera model override, got %q", cfg.Extraction.CameraModel)
	}
	if cfg.Extraction.UseGPU {
		t.Fatal("expected use_gpu override to false")
	}
	if cfg.Extraction.MaxNumFeatures != project.Default().Extraction.MaxNumFeatures {
		t.Fatalf("expected default max_num_features, got %d", cfg.Extraction.MaxNumFeatures)
	}
	if cfg.Matching.MaxRatio != 0.8 {
		t.Fatalf("expected default matching.max_ratio, got %v", cfg.Matching.MaxRatio)
	}
	if cfg.UndistorterOutputType != "COLMAP" {
		t.Fatalf("expected undistorter type default, got %q", cfg.UndistorterOutputType)
	}
	if cfg.PMVSOptionName != "option-all" {
		t.Fatalf("expected pmvs option name default, got %q", cfg.PMVSOptionName)
	}
	if cfg.FusionInputType != "geometric" {
		t.Fatalf("expected fusion input type default, got %q", cfg.FusionInputType)
	}
	if cfg.DelaunayInputType != "dense" {
		t.Fatalf("expected delaunay input type default, got %q", cfg.DelaunayInputType)
	}
}

func TestLoadExpandsHome(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := writeProject(t, `
database_path = "~/proj/recon.db"
`)
	cfg, err := project.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := filepath.Join(tempHome, "proj", "recon.db")
	if cfg.DatabasePath != want {
		t.Fatalf("database path = %q, want %q", cfg.DatabasePath, want)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeProject(t, `
database_path = "db.db"
not_a_real_key = true
`)
	if _, err := project.Load(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}

	path = writeProject(t, `
[extraction]
first_octave = -1
`)
	if _, err := project.Load(path); err == nil {
		t.Fatal("expected unknown group key to be rejected")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := project.Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for missing document")
	}
}

func TestResolveNamesMissingRequiredKey(t *testing.T) {
	path := writeProject(t, `
image_path = "images"
`)
	_, err := project.Resolve(path, project.Requirements{
		Required: []string{project.KeyDatabasePath, project.KeyImagePath},
	})
	if err == nil {
		t.Fatal("expected missing database_path to fail resolution")
	}
	if !strings.Contains(err.Error(), "database_path") {
		t.Fatalf("expected offending key in error, got %v", err)
	}
}

func TestResolveValidatesGroups(t *testing.T) {
	path := writeProject(t, `
database_path = "db.db"

[matching]
max_ratio = 1.7
`)
	_, err := project.Resolve(path, project.Requirements{
		Required: []string{project.KeyDatabasePath},
		Groups:   []string{project.GroupMatching},
	})
	if err == nil {
		t.Fatal("expected out-of-range max_ratio to fail")
	}
	if !strings.Contains(err.Error(), "matching.max_ratio") {
		t.Fatalf("expected dotted key in error, got %v", err)
	}

	// The same document resolves fine for a stage that does not use the group.
	if _, err := project.Resolve(path, project.Requirements{
		Required: []string{project.KeyDatabasePath},
	}); err != nil {
		t.Fatalf("expected resolution without the group to pass, got %v", err)
	}
}

func TestResolveValidatesUndistortionROI(t *testing.T) {
	path := writeProject(t, `
image_path = "images"

[undistortion]
roi_min_x = 0.8
roi_max_x = 0.2
`)
	_, err := project.Resolve(path, project.Requirements{Groups: []string{project.GroupUndistortion}})
	if err == nil {
		t.Fatal("expected inverted roi to fail")
	}
	if !strings.Contains(err.Error(), "roi") {
		t.Fatalf("expected roi in error, got %v", err)
	}
}

func TestWriteSnapshotRoundTrips(t *testing.T) {
	path := writeProject(t, `
database_path = "db.db"
image_path = "images"

[mapper]
min_num_matches = 42
`)
	cfg, err := project.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	snapshotPath := filepath.Join(t.TempDir(), "0", "project.toml")
	if err := cfg.WriteSnapshot(snapshotPath); err != nil {
		t.Fatalf("WriteSnapshot returned error: %v", err)
	}

	reloaded, err := project.Load(snapshotPath)
	if err != nil {
		t.Fatalf("reload snapshot: %v", err)
	}
	if reloaded.Mapper.MinNumMatches != 42 {
		t.Fatalf("expected snapshot to preserve mapper options, got %d", reloaded.Mapper.MinNumMatches)
	}
	if reloaded.DatabasePath != cfg.DatabasePath {
		t.Fatalf("expected snapshot to preserve resolved paths: %q vs %q", reloaded.DatabasePath, cfg.DatabasePath)
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := project.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, err := project.Load(path)
	if err != nil {
		t.Fatalf("expected sample document to load, got %v", err)
	}
	if err := cfg.Require(project.Requirements{
		Required: []string{project.KeyDatabasePath, project.KeyImagePath, project.KeyMapperOutputPath},
		Groups: []string{
			project.GroupExtraction, project.GroupMatching, project.GroupMapper,
			project.GroupPatchMatch, project.GroupStereoFusion,
			project.GroupPoissonMeshing, project.GroupDelaunayMeshing,
			project.GroupUndistortion,
		},
	}); err != nil {
		t.Fatalf("expected sample to satisfy all stage requirements, got %v", err)
	}
}

func TestRequireUnknownGroup(t *testing.T) {
	cfg := project.Default()
	if err := cfg.Require(project.Requirements{Groups: []string{"nonsense"}}); err == nil {
		t.Fatal("expected unknown group to be rejected")
	}
}
