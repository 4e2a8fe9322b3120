package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/farent12/colmap/internal/fault"
	"github.com/farent12/colmap/internal/undistort"
	"github.com/farent12/colmap/pipeline"
)

func TestUndistortImagesLoadsModelAndCreatesOutput(t *testing.T) {
	dir := t.TempDir()
	modelDir := filepath.Join(dir, "sparse")
	seedModel(t, modelDir)
	imageDir := mkdir(t, filepath.Join(dir, "images"))
	outDir := filepath.Join(dir, "dense")

	var got undistort.Spec
	runner := pipeline.New(pipeline.WithEngines(pipeline.EngineSet{
		NewUndistorter: func(spec undistort.Spec) (undistort.Undistorter, error) {
			got = spec
			return noopWorker(), nil
		},
	}))
	doc := writeDoc(t, fmt.Sprintf(
		"image_path = %q\nmodel_input_path = %q\nundistorter_output_path = %q\nundistorter_output_type = \"colmap\"\n",
		imageDir, modelDir, outDir))

	if err := runner.UndistortImages(context.Background(), doc); err != nil {
		t.Fatalf("UndistortImages: %v", err)
	}
	if got.Layout != undistort.LayoutCOLMAP {
		t.Errorf("Layout = %q, want canonical %q", got.Layout, undistort.LayoutCOLMAP)
	}
	if got.Model == nil || got.Model.NumCameras() != 1 {
		t.Error("loaded model not handed to the engine")
	}
	if got.Options.MaxScale != 2 {
		t.Errorf("MaxScale = %g, want default 2", got.Options.MaxScale)
	}
	if _, err := os.Stat(outDir); err != nil {
		t.Errorf("output directory not created: %v", err)
	}
}

func TestUndistortImagesUnknownLayout(t *testing.T) {
	dir := t.TempDir()
	modelDir := filepath.Join(dir, "sparse")
	seedModel(t, modelDir)

	runner := pipeline.New()
	doc := writeDoc(t, fmt.Sprintf(
		"image_path = %q\nmodel_input_path = %q\nundistorter_output_path = %q\nundistorter_output_type = \"mve\"\n",
		dir, modelDir, filepath.Join(dir, "dense")))

	err := runner.UndistortImages(context.Background(), doc)
	if !errors.Is(err, fault.ErrUnsupportedFormat) {
		t.Fatalf("error = %v, want unsupported format", err)
	}
}

func TestUndistortImagesMissingModel(t *testing.T) {
	dir := t.TempDir()
	runner := pipeline.New(pipeline.WithEngines(pipeline.EngineSet{
		NewUndistorter: func(undistort.Spec) (undistort.Undistorter, error) {
			return noopWorker(), nil
		},
	}))
	doc := writeDoc(t, fmt.Sprintf(
		"image_path = %q\nmodel_input_path = %q\nundistorter_output_path = %q\n",
		dir, filepath.Join(dir, "nothing"), filepath.Join(dir, "dense")))

	err := runner.UndistortImages(context.Background(), doc)
	if !errors.Is(err, fault.ErrPrecondition) {
		t.Fatalf("error = %v, want precondition error", err)
	}
}
