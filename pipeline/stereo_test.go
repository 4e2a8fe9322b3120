package pipeline_test

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/farent12/colmap/internal/compute"
	"github.com/farent12/colmap/internal/fault"
	"github.com/farent12/colmap/internal/mesh"
	"github.com/farent12/colmap/internal/mvs"
	"github.com/farent12/colmap/internal/stageexec"
	"github.com/farent12/colmap/pipeline"
)

type fakeFuser struct {
	points []mvs.FusedPoint
	vis    [][]uint32
	err    error
}

func (f *fakeFuser) Run(context.Context) error { return f.err }

func (f *fakeFuser) Points() []mvs.FusedPoint { return f.points }

func (f *fakeFuser) Visibility() [][]uint32 { return f.vis }

func TestPatchMatchStereoRequiresCUDA(t *testing.T) {
	dir := t.TempDir()
	workspace := mkdir(t, filepath.Join(dir, "dense"))

	constructed := false
	runner := pipeline.New(
		pipeline.WithCapabilities(compute.Capabilities{OpenGL: true}),
		pipeline.WithEngines(pipeline.EngineSet{
			NewPatchMatcher: func(mvs.PatchMatchSpec) (mvs.PatchMatcher, error) {
				constructed = true
				return noopWorker(), nil
			},
		}))
	doc := writeDoc(t, fmt.Sprintf("dense_workspace_path = %q\n", workspace))

	err := runner.RunPatchMatchStereo(context.Background(), doc)
	if !errors.Is(err, fault.ErrBackendUnavailable) {
		t.Fatalf("error = %v, want backend unavailable", err)
	}
	if constructed {
		t.Fatal("engine constructed without a cuda device")
	}
}

func TestPatchMatchStereoCarriesWorkspace(t *testing.T) {
	dir := t.TempDir()
	workspace := mkdir(t, filepath.Join(dir, "dense"))

	var got mvs.PatchMatchSpec
	runner := pipeline.New(
		pipeline.WithCapabilities(compute.Capabilities{CUDA: true}),
		pipeline.WithEngines(pipeline.EngineSet{
			NewPatchMatcher: func(spec mvs.PatchMatchSpec) (mvs.PatchMatcher, error) {
				got = spec
				return noopWorker(), nil
			},
		}))
	doc := writeDoc(t, fmt.Sprintf(
		"dense_workspace_path = %q\ndense_workspace_format = \"colmap\"\n", workspace))

	if err := runner.RunPatchMatchStereo(context.Background(), doc); err != nil {
		t.Fatalf("RunPatchMatchStereo: %v", err)
	}
	if got.Workspace.Format != mvs.WorkspaceFormatCOLMAP {
		t.Errorf("Format = %q, want canonical %q", got.Workspace.Format, mvs.WorkspaceFormatCOLMAP)
	}
	if got.Workspace.PMVSOptionName != "option-all" {
		t.Errorf("PMVSOptionName = %q, want default option-all", got.Workspace.PMVSOptionName)
	}
	if got.Options.WindowRadius != 5 {
		t.Errorf("WindowRadius = %d, want default 5", got.Options.WindowRadius)
	}
}

func TestFuseStereoWritesCloudAndVisibility(t *testing.T) {
	dir := t.TempDir()
	workspace := mkdir(t, filepath.Join(dir, "dense"))
	output := filepath.Join(dir, "out", "fused.ply")

	fuser := &fakeFuser{
		points: []mvs.FusedPoint{
			{X: 1, Y: 2, Z: 3, NX: 0, NY: 0, NZ: 1, R: 10, G: 20, B: 30},
			{X: 4, Y: 5, Z: 6, NX: 1, NY: 0, NZ: 0, R: 40, G: 50, B: 60},
		},
		vis: [][]uint32{{0, 2}, {1}},
	}
	runner := pipeline.New(pipeline.WithEngines(pipeline.EngineSet{
		NewFuser: func(spec mvs.FusionSpec) (mvs.Fuser, error) {
			if spec.InputType != mvs.FusionInputGeometric {
				t.Errorf("InputType = %q, want default geometric", spec.InputType)
			}
			return fuser, nil
		},
	}))
	doc := writeDoc(t, fmt.Sprintf(
		"dense_workspace_path = %q\ndense_output_path = %q\n", workspace, output))

	if err := runner.FuseStereo(context.Background(), doc); err != nil {
		t.Fatalf("FuseStereo: %v", err)
	}

	if _, err := os.Stat(output); err != nil {
		t.Fatalf("fused cloud missing: %v", err)
	}
	visData, err := os.ReadFile(output + ".vis")
	if err != nil {
		t.Fatalf("visibility file missing: %v", err)
	}
	if count := binary.LittleEndian.Uint64(visData[:8]); count != 2 {
		t.Errorf("visibility point count = %d, want 2", count)
	}
}

func TestFuseStereoUnknownInputTypeFailsFirst(t *testing.T) {
	dir := t.TempDir()
	runner := pipeline.New(pipeline.WithEngines(pipeline.EngineSet{
		NewFuser: func(mvs.FusionSpec) (mvs.Fuser, error) { return &fakeFuser{}, nil },
	}))
	// The workspace does not exist: the format failure must win.
	doc := writeDoc(t, fmt.Sprintf(
		"dense_workspace_path = %q\ndense_output_path = %q\nfusion_input_type = \"fancy\"\n",
		filepath.Join(dir, "missing"), filepath.Join(dir, "fused.ply")))

	err := runner.FuseStereo(context.Background(), doc)
	if !errors.Is(err, fault.ErrUnsupportedFormat) {
		t.Fatalf("error = %v, want unsupported format", err)
	}
}

func TestFuseStereoEngineFailure(t *testing.T) {
	dir := t.TempDir()
	workspace := mkdir(t, filepath.Join(dir, "dense"))

	runner := pipeline.New(pipeline.WithEngines(pipeline.EngineSet{
		NewFuser: func(mvs.FusionSpec) (mvs.Fuser, error) {
			return &fakeFuser{err: errors.New("depth map corrupt")}, nil
		},
	}))
	output := filepath.Join(dir, "fused.ply")
	doc := writeDoc(t, fmt.Sprintf(
		"dense_workspace_path = %q\ndense_output_path = %q\n", workspace, output))

	err := runner.FuseStereo(context.Background(), doc)
	if !errors.Is(err, fault.ErrEngine) {
		t.Fatalf("error = %v, want engine failure", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Error("fused cloud written although the engine failed")
	}
}

func TestMeshPoissonRequiresInput(t *testing.T) {
	dir := t.TempDir()
	runner := pipeline.New()
	doc := writeDoc(t, fmt.Sprintf(
		"poisson_input_path = %q\npoisson_output_path = %q\n",
		filepath.Join(dir, "missing.ply"), filepath.Join(dir, "mesh.ply")))

	err := runner.MeshPoisson(context.Background(), doc)
	if !errors.Is(err, fault.ErrPrecondition) {
		t.Fatalf("error = %v, want precondition error", err)
	}
}

func TestMeshPoissonCarriesOptions(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "fused.ply")
	touch(t, input)

	var got mesh.PoissonSpec
	runner := pipeline.New(pipeline.WithEngines(pipeline.EngineSet{
		NewPoissonMesher: func(spec mesh.PoissonSpec) (stageexec.Worker, error) {
			got = spec
			return noopWorker(), nil
		},
	}))
	doc := writeDoc(t, fmt.Sprintf(
		"poisson_input_path = %q\npoisson_output_path = %q\n",
		input, filepath.Join(dir, "mesh.ply")))

	if err := runner.MeshPoisson(context.Background(), doc); err != nil {
		t.Fatalf("MeshPoisson: %v", err)
	}
	if got.InputPath != input {
		t.Errorf("InputPath = %q, want %q", got.InputPath, input)
	}
	if got.Options.Depth != 13 {
		t.Errorf("Depth = %d, want default 13", got.Options.Depth)
	}
}

func TestMeshDelaunayWithoutEngine(t *testing.T) {
	dir := t.TempDir()
	input := mkdir(t, filepath.Join(dir, "dense"))

	runner := pipeline.New()
	doc := writeDoc(t, fmt.Sprintf(
		"delaunay_input_path = %q\ndelaunay_output_path = %q\n",
		input, filepath.Join(dir, "mesh.ply")))

	err := runner.MeshDelaunay(context.Background(), doc)
	if !errors.Is(err, fault.ErrBackendUnavailable) {
		t.Fatalf("error = %v, want backend unavailable", err)
	}
	if kind := fault.Kind(err); kind != "backend_unavailable" {
		t.Errorf("Kind = %q, want backend_unavailable", kind)
	}
}

func TestMeshDelaunaySparseInputNeedsModel(t *testing.T) {
	dir := t.TempDir()
	input := mkdir(t, filepath.Join(dir, "sparse"))

	runner := pipeline.New(pipeline.WithEngines(pipeline.EngineSet{
		NewDelaunayMesher: func(mesh.DelaunaySpec) (stageexec.Worker, error) {
			return noopWorker(), nil
		},
	}))
	doc := writeDoc(t, fmt.Sprintf(
		"delaunay_input_path = %q\ndelaunay_output_path = %q\ndelaunay_input_type = \"sparse\"\n",
		input, filepath.Join(dir, "mesh.ply")))

	err := runner.MeshDelaunay(context.Background(), doc)
	if !errors.Is(err, fault.ErrPrecondition) {
		t.Fatalf("error = %v, want precondition error", err)
	}
}
