package pipeline

import (
	"github.com/farent12/colmap/internal/fault"
	"github.com/farent12/colmap/internal/mesh"
	"github.com/farent12/colmap/internal/mvs"
	"github.com/farent12/colmap/internal/sfm"
	"github.com/farent12/colmap/internal/stageexec"
	"github.com/farent12/colmap/internal/undistort"
)

// FeatureExtractorSpec carries everything the feature extraction engine needs
// for one run. ImageList, when non-empty, restricts extraction to the named
// images; CameraModel and CameraParams are pre-validated by the runner.
type FeatureExtractorSpec struct {
	DatabasePath   string
	ImagePath      string
	ImageList      []string
	CameraModel    string
	CameraParams   string
	SingleCamera   bool
	GPUIndex       string
	MaxImageSize   int
	MaxNumFeatures int
	NumThreads     int
}

// ExhaustiveMatcherSpec carries everything the exhaustive matcher needs for
// one run. ImageList, when non-empty, restricts matching to pairs drawn from
// the named images.
type ExhaustiveMatcherSpec struct {
	DatabasePath   string
	ImageList      []string
	GPUIndex       string
	MaxRatio       float64
	MaxDistance    float64
	CrossCheck     bool
	BlockSize      int
	GuidedMatching bool
	NumThreads     int
}

// EngineSet injects the stage engine factories into a Runner. A nil factory
// means the corresponding backend was not compiled into this build; the
// runner reports it as unavailable instead of running the stage.
//
// Factories validate their spec and return a ready worker; they must not
// start work. Errors from a factory are treated as configuration problems.
type EngineSet struct {
	NewFeatureExtractor  func(spec FeatureExtractorSpec) (stageexec.Worker, error)
	NewExhaustiveMatcher func(spec ExhaustiveMatcherSpec) (stageexec.Worker, error)
	NewMapper            func(spec sfm.MapperSpec) (sfm.Mapper, error)
	NewUndistorter       func(spec undistort.Spec) (undistort.Undistorter, error)
	NewPatchMatcher      func(spec mvs.PatchMatchSpec) (mvs.PatchMatcher, error)
	NewFuser             func(spec mvs.FusionSpec) (mvs.Fuser, error)
	NewPoissonMesher     func(spec mesh.PoissonSpec) (mesh.PoissonMesher, error)
	NewDelaunayMesher    func(spec mesh.DelaunaySpec) (mesh.DelaunayMesher, error)
}

// EngineStatus reports whether the engine for one stage is wired into the
// build.
type EngineStatus struct {
	Stage     string
	Available bool
}

// Status lists every stage engine in pipeline order with its availability.
func (s EngineSet) Status() []EngineStatus {
	return []EngineStatus{
		{StageFeatureExtraction, s.NewFeatureExtractor != nil},
		{StageExhaustiveMatching, s.NewExhaustiveMatcher != nil},
		{StageSparseMapping, s.NewMapper != nil},
		{StageModelConversion, true},
		{StageImageUndistortion, s.NewUndistorter != nil},
		{StageDatabaseCreation, true},
		{StagePatchMatchStereo, s.NewPatchMatcher != nil},
		{StageStereoFusion, s.NewFuser != nil},
		{StagePoissonMeshing, s.NewPoissonMesher != nil},
		{StageDelaunayMeshing, s.NewDelaunayMesher != nil},
	}
}

func missingEngine(stage, name string) error {
	return fault.Wrap(fault.ErrBackendUnavailable, stage, "",
		"no "+name+" engine in this build", nil)
}
