package project

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_project.toml
var sampleProject string

// Top-level scalar keys of the project document. Stage code references these
// when declaring Requirements so rejection messages always use the document's
// own spelling.
const (
	KeyDatabasePath          = "database_path"
	KeyImagePath             = "image_path"
	KeyFeaturesImageListPath = "features_image_list_path"
	KeyMatchesImageListPath  = "matches_image_list_path"
	KeyMapperInputPath       = "mapper_input_path"
	KeyMapperOutputPath      = "mapper_output_path"
	KeyMapperImageListPath   = "mapper_image_list_path"
	KeyConverterInputPath    = "converter_input_path"
	KeyConverterOutputPath   = "converter_output_path"
	KeyConverterOutputType   = "converter_output_type"
	KeyModelInputPath        = "model_input_path"
	KeyUndistorterOutputPath = "undistorter_output_path"
	KeyUndistorterOutputType = "undistorter_output_type"
	KeyDenseWorkspacePath    = "dense_workspace_path"
	KeyDenseWorkspaceFormat  = "dense_workspace_format"
	KeyPMVSOptionName        = "pmvs_option_name"
	KeyFusionInputType       = "fusion_input_type"
	KeyDenseOutputPath       = "dense_output_path"
	KeyPoissonInputPath      = "poisson_input_path"
	KeyPoissonOutputPath     = "poisson_output_path"
	KeyDelaunayInputPath     = "delaunay_input_path"
	KeyDelaunayOutputPath    = "delaunay_output_path"
	KeyDelaunayInputType     = "delaunay_input_type"
)

// Option group names accepted by Requirements.Groups.
const (
	GroupExtraction      = "extraction"
	GroupMatching        = "matching"
	GroupMapper          = "mapper"
	GroupPatchMatch      = "patch_match"
	GroupStereoFusion    = "stereo_fusion"
	GroupPoissonMeshing  = "poisson_meshing"
	GroupDelaunayMeshing = "delaunay_meshing"
	GroupUndistortion    = "undistortion"
)

// Extraction carries the feature extraction options.
type Extraction struct {
	CameraModel    string `toml:"camera_model"`
	CameraParams   string `toml:"camera_params"`
	SingleCamera   bool   `toml:"single_camera"`
	UseGPU         bool   `toml:"use_gpu"`
	GPUIndex       string `toml:"gpu_index"`
	MaxImageSize   int    `toml:"max_image_size"`
	MaxNumFeatures int    `toml:"max_num_features"`
	NumThreads     int    `toml:"num_threads"`
}

// Matching carries the exhaustive matching options.
type Matching struct {
	UseGPU         bool    `toml:"use_gpu"`
	GPUIndex       string  `toml:"gpu_index"`
	MaxRatio       float64 `toml:"max_ratio"`
	MaxDistance    float64 `toml:"max_distance"`
	CrossCheck     bool    `toml:"cross_check"`
	BlockSize      int     `toml:"block_size"`
	GuidedMatching bool    `toml:"guided_matching"`
	NumThreads     int     `toml:"num_threads"`
}

// Mapper carries the incremental reconstruction options.
type Mapper struct {
	MinNumMatches          int  `toml:"min_num_matches"`
	MultipleModels         bool `toml:"multiple_models"`
	MaxNumModels           int  `toml:"max_num_models"`
	MaxModelOverlap        int  `toml:"max_model_overlap"`
	MinModelSize           int  `toml:"min_model_size"`
	InitImageID1           int  `toml:"init_image_id1"`
	InitImageID2           int  `toml:"init_image_id2"`
	NumThreads             int  `toml:"num_threads"`
	BARefineFocalLength    bool `toml:"ba_refine_focal_length"`
	BARefinePrincipalPoint bool `toml:"ba_refine_principal_point"`
	BARefineExtraParams    bool `toml:"ba_refine_extra_params"`
}

// PatchMatch carries the patch-match stereo options.
type PatchMatch struct {
	MaxImageSize    int    `toml:"max_image_size"`
	GPUIndex        string `toml:"gpu_index"`
	WindowRadius    int    `toml:"window_radius"`
	WindowStep      int    `toml:"window_step"`
	NumSamples      int    `toml:"num_samples"`
	NumIterations   int    `toml:"num_iterations"`
	GeomConsistency bool   `toml:"geom_consistency"`
	Filter          bool   `toml:"filter"`
	CacheSize       int    `toml:"cache_size"`
}

// StereoFusion carries the depth-map fusion options.
type StereoFusion struct {
	MinNumPixels      int     `toml:"min_num_pixels"`
	MaxNumPixels      int     `toml:"max_num_pixels"`
	MaxTraversalDepth int     `toml:"max_traversal_depth"`
	MaxReprojError    float64 `toml:"max_reproj_error"`
	MaxDepthError     float64 `toml:"max_depth_error"`
	MaxNormalError    float64 `toml:"max_normal_error"`
	CheckNumImages    int     `toml:"check_num_images"`
	CacheSize         int     `toml:"cache_size"`
}

// PoissonMeshing carries the Poisson surface reconstruction options.
type PoissonMeshing struct {
	PointWeight float64 `toml:"point_weight"`
	Depth       int     `toml:"depth"`
	Color       float64 `toml:"color"`
	Trim        float64 `toml:"trim"`
	NumThreads  int     `toml:"num_threads"`
}

// DelaunayMeshing carries the Delaunay surface reconstruction options.
type DelaunayMeshing struct {
	MaxProjDist             float64 `toml:"max_proj_dist"`
	MaxDepthDist            float64 `toml:"max_depth_dist"`
	VisibilitySigma         float64 `toml:"visibility_sigma"`
	DistanceSigmaFactor     float64 `toml:"distance_sigma_factor"`
	QualityRegularization   float64 `toml:"quality_regularization"`
	MaxSideLengthFactor     float64 `toml:"max_side_length_factor"`
	MaxSideLengthPercentile float64 `toml:"max_side_length_percentile"`
	NumThreads              int     `toml:"num_threads"`
}

// Undistortion carries the image undistortion options, including the region
// of interest expressed as fractions of the image size.
type Undistortion struct {
	BlankPixels  float64 `toml:"blank_pixels"`
	MinScale     float64 `toml:"min_scale"`
	MaxScale     float64 `toml:"max_scale"`
	MaxImageSize int     `toml:"max_image_size"`
	ROIMinX      float64 `toml:"roi_min_x"`
	ROIMinY      float64 `toml:"roi_min_y"`
	ROIMaxX      float64 `toml:"roi_max_x"`
	ROIMaxY      float64 `toml:"roi_max_y"`
}

// Project is the full project document.
type Project struct {
	DatabasePath          string `toml:"database_path"`
	ImagePath             string `toml:"image_path"`
	FeaturesImageListPath string `toml:"features_image_list_path"`
	MatchesImageListPath  string `toml:"matches_image_list_path"`
	MapperInputPath       string `toml:"mapper_input_path"`
	MapperOutputPath      string `toml:"mapper_output_path"`
	MapperImageListPath   string `toml:"mapper_image_list_path"`
	ConverterInputPath    string `toml:"converter_input_path"`
	ConverterOutputPath   string `toml:"converter_output_path"`
	ConverterOutputType   string `toml:"converter_output_type"`
	ModelInputPath        string `toml:"model_input_path"`
	UndistorterOutputPath string `toml:"undistorter_output_path"`
	UndistorterOutputType string `toml:"undistorter_output_type"`
	DenseWorkspacePath    string `toml:"dense_workspace_path"`
	DenseWorkspaceFormat  string `toml:"dense_workspace_format"`
	PMVSOptionName        string `toml:"pmvs_option_name"`
	FusionInputType       string `toml:"fusion_input_type"`
	DenseOutputPath       string `toml:"dense_output_path"`
	PoissonInputPath      string `toml:"poisson_input_path"`
	PoissonOutputPath     string `toml:"poisson_output_path"`
	DelaunayInputPath     string `toml:"delaunay_input_path"`
	DelaunayOutputPath    string `toml:"delaunay_output_path"`
	DelaunayInputType     string `toml:"delaunay_input_type"`

	Extraction      Extraction      `toml:"extraction"`
	Matching        Matching        `toml:"matching"`
	Mapper          Mapper          `toml:"mapper"`
	PatchMatch      PatchMatch      `toml:"patch_match"`
	StereoFusion    StereoFusion    `toml:"stereo_fusion"`
	PoissonMeshing  PoissonMeshing  `toml:"poisson_meshing"`
	DelaunayMeshing DelaunayMeshing `toml:"delaunay_meshing"`
	Undistortion    Undistortion    `toml:"undistortion"`
}

// Requirements declares what a stage needs from the document: top-level
// scalar keys that must be set, and option groups whose values must be in
// range.
type Requirements struct {
	Required []string
	Groups   []string
}

// Load parses the project document at path, decoding over defaults and
// normalizing the result. Unknown keys are rejected.
func Load(path string) (*Project, error) {
	cfg := Default()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open project: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse project %s: %w", path, err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Resolve loads the document and checks it against a stage's requirements.
func Resolve(path string, req Requirements) (*Project, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Require(req); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Require checks the declared requirements against the document. Violations
// name the offending key.
func (p *Project) Require(req Requirements) error {
	for _, key := range req.Required {
		value, ok := p.scalar(key)
		if !ok {
			return fmt.Errorf("unknown required key %q", key)
		}
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s must be set", key)
		}
	}
	for _, group := range req.Groups {
		if err := p.validateGroup(group); err != nil {
			return err
		}
	}
	return nil
}

// WriteSnapshot marshals the fully-resolved document to path, creating parent
// directories as needed. Persisted models carry one of these for audit.
func (p *Project) WriteSnapshot(path string) error {
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal project snapshot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write project snapshot: %w", err)
	}
	return nil
}

// CreateSample writes the commented sample project document to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create project directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleProject), 0o644); err != nil {
		return fmt.Errorf("write sample project: %w", err)
	}
	return nil
}

func (p *Project) scalar(key string) (string, bool) {
	switch key {
	case KeyDatabasePath:
		return p.DatabasePath, true
	case KeyImagePath:
		return p.ImagePath, true
	case KeyFeaturesImageListPath:
		return p.FeaturesImageListPath, true
	case KeyMatchesImageListPath:
		return p.MatchesImageListPath, true
	case KeyMapperInputPath:
		return p.MapperInputPath, true
	case KeyMapperOutputPath:
		return p.MapperOutputPath, true
	case KeyMapperImageListPath:
		return p.MapperImageListPath, true
	case KeyConverterInputPath:
		return p.ConverterInputPath, true
	case KeyConverterOutputPath:
		return p.ConverterOutputPath, true
	case KeyConverterOutputType:
		return p.ConverterOutputType, true
	case KeyModelInputPath:
		return p.ModelInputPath, true
	case KeyUndistorterOutputPath:
		return p.UndistorterOutputPath, true
	case KeyUndistorterOutputType:
		return p.UndistorterOutputType, true
	case KeyDenseWorkspacePath:
		return p.DenseWorkspacePath, true
	case KeyDenseWorkspaceFormat:
		return p.DenseWorkspaceFormat, true
	case KeyPMVSOptionName:
		return p.PMVSOptionName, true
	case KeyFusionInputType:
		return p.FusionInputType, true
	case KeyDenseOutputPath:
		return p.DenseOutputPath, true
	case KeyPoissonInputPath:
		return p.PoissonInputPath, true
	case KeyPoissonOutputPath:
		return p.PoissonOutputPath, true
	case KeyDelaunayInputPath:
		return p.DelaunayInputPath, true
	case KeyDelaunayOutputPath:
		return p.DelaunayOutputPath, true
	case KeyDelaunayInputType:
		return p.DelaunayInputType, true
	default:
		return "", false
	}
}

// expandPath turns a document path value into an absolute path. A bare ~
// or a ~/ prefix (backslash tolerated) maps to the user home; anything
// else, ~user included, resolves against the working directory.
func expandPath(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	expanded := raw
	if expanded == "~" || strings.HasPrefix(expanded, "~/") || strings.HasPrefix(expanded, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		expanded = filepath.Join(home, strings.TrimLeft(expanded[1:], `/\`))
	}
	absolute, err := filepath.Abs(filepath.Clean(expanded))
	if err != nil {
		return "", fmt.Errorf("make %q absolute: %w", expanded, err)
	}
	return absolute, nil
}

// ExpandPath exposes the document path expansion rules for other packages.
func ExpandPath(raw string) (string, error) {
	return expandPath(raw)
}
