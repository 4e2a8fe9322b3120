package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"github.com/farent12/colmap/internal/fault"
	"github.com/farent12/colmap/internal/sfm"
	"github.com/farent12/colmap/pipeline"
)

// fakeMapper drives the persistence path without any real mapping.
type fakeMapper struct {
	spec     sfm.MapperSpec
	observer sfm.Observer
	run      func(ctx context.Context, m *fakeMapper) error
}

func (m *fakeMapper) SetObserver(obs sfm.Observer) { m.observer = obs }

func (m *fakeMapper) Run(ctx context.Context) error { return m.run(ctx, m) }

func (m *fakeMapper) emit(ctx context.Context, event sfm.Event) error {
	if m.observer == nil {
		return nil
	}
	return m.observer.HandleEvent(ctx, event)
}

// mapperProject lays out database, image dir, and output dir for a mapping
// run and returns the project document path plus the output dir.
func mapperProject(t *testing.T, extra string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "db.db")
	touch(t, dbPath)
	imageDir := mkdir(t, filepath.Join(dir, "images"))
	outDir := mkdir(t, filepath.Join(dir, "sparse"))
	doc := writeDoc(t, fmt.Sprintf(
		"database_path = %q\nimage_path = %q\nmapper_output_path = %q\n%s",
		dbPath, imageDir, outDir, extra))
	return doc, outDir
}

func TestReconstructSparsePersistsEveryModel(t *testing.T) {
	factory := func(spec sfm.MapperSpec) (sfm.Mapper, error) {
		m := &fakeMapper{spec: spec}
		m.run = func(ctx context.Context, m *fakeMapper) error {
			fillModel(spec.Manager.Add())
			if err := m.emit(ctx, sfm.EventInitialPairRegistered); err != nil {
				return err
			}
			if err := m.emit(ctx, sfm.EventImageRegistered); err != nil {
				return err
			}
			if err := m.emit(ctx, sfm.EventLastImageRegistered); err != nil {
				return err
			}
			// Appended after the final event; only the post-run flush can
			// persist it.
			fillModel(spec.Manager.Add())
			return nil
		}
		return m, nil
	}
	runner := pipeline.New(pipeline.WithEngines(pipeline.EngineSet{NewMapper: factory}))
	doc, outDir := mapperProject(t, "")

	if err := runner.ReconstructSparse(context.Background(), doc); err != nil {
		t.Fatalf("ReconstructSparse: %v", err)
	}
	for _, idx := range []string{"0", "1"} {
		modelDir := filepath.Join(outDir, idx)
		for _, name := range []string{"cameras.bin", "images.bin", "points3D.bin", "project.toml"} {
			if _, err := os.Stat(filepath.Join(modelDir, name)); err != nil {
				t.Errorf("model %s: missing %s: %v", idx, name, err)
			}
		}
	}
}

func TestReconstructSparseSeedModeWritesFlat(t *testing.T) {
	dir := t.TempDir()
	seedDir := filepath.Join(dir, "seed")
	seedModel(t, seedDir)

	factory := func(spec sfm.MapperSpec) (sfm.Mapper, error) {
		m := &fakeMapper{spec: spec}
		m.run = func(ctx context.Context, m *fakeMapper) error {
			if spec.Manager.Size() != 1 {
				t.Errorf("manager size at run = %d, want 1 (seed loaded)", spec.Manager.Size())
			}
			return nil
		}
		return m, nil
	}
	runner := pipeline.New(pipeline.WithEngines(pipeline.EngineSet{NewMapper: factory}))
	doc, outDir := mapperProject(t, fmt.Sprintf("mapper_input_path = %q\n", seedDir))

	if err := runner.ReconstructSparse(context.Background(), doc); err != nil {
		t.Fatalf("ReconstructSparse: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "cameras.bin")); err != nil {
		t.Fatalf("flat model missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "0")); !os.IsNotExist(err) {
		t.Error("indexed subdirectory created in seed mode")
	}
	if _, err := os.Stat(filepath.Join(outDir, "project.toml")); !os.IsNotExist(err) {
		t.Error("snapshot written in seed mode")
	}
}

func TestReconstructSparseRequiresOutputDir(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "db.db")
	touch(t, dbPath)
	doc := writeDoc(t, fmt.Sprintf(
		"database_path = %q\nimage_path = %q\nmapper_output_path = %q\n",
		dbPath, dir, filepath.Join(dir, "missing")))

	runner := pipeline.New()
	err := runner.ReconstructSparse(context.Background(), doc)
	if !errors.Is(err, fault.ErrPrecondition) {
		t.Fatalf("error = %v, want precondition error", err)
	}
}

func TestReconstructSparseRefusesLockedOutput(t *testing.T) {
	doc, outDir := mapperProject(t, "")
	lock := flock.New(filepath.Join(outDir, ".lock"))
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("pre-acquire lock: locked=%v err=%v", locked, err)
	}
	defer func() { _ = lock.Unlock() }()

	factory := func(spec sfm.MapperSpec) (sfm.Mapper, error) {
		t.Error("engine constructed although the output is locked")
		return nil, nil
	}
	runner := pipeline.New(pipeline.WithEngines(pipeline.EngineSet{NewMapper: factory}))

	runErr := runner.ReconstructSparse(context.Background(), doc)
	if !errors.Is(runErr, fault.ErrPrecondition) {
		t.Fatalf("error = %v, want precondition error", runErr)
	}
}

func TestReconstructSparseNoModelsIsEngineFailure(t *testing.T) {
	factory := func(spec sfm.MapperSpec) (sfm.Mapper, error) {
		m := &fakeMapper{spec: spec}
		m.run = func(context.Context, *fakeMapper) error { return nil }
		return m, nil
	}
	runner := pipeline.New(pipeline.WithEngines(pipeline.EngineSet{NewMapper: factory}))
	doc, _ := mapperProject(t, "")

	err := runner.ReconstructSparse(context.Background(), doc)
	if !errors.Is(err, fault.ErrEngine) {
		t.Fatalf("error = %v, want engine failure", err)
	}
}

func TestReconstructSparseWithoutEngine(t *testing.T) {
	doc, _ := mapperProject(t, "")
	runner := pipeline.New()

	err := runner.ReconstructSparse(context.Background(), doc)
	if !errors.Is(err, fault.ErrBackendUnavailable) {
		t.Fatalf("error = %v, want backend unavailable", err)
	}
}
