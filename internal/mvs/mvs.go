package mvs

import (
	"github.com/farent12/colmap/internal/format"
	"github.com/farent12/colmap/internal/stageexec"
)

// Workspace locates a dense workspace produced by the undistorter.
type Workspace struct {
	Path string
	// Format is the canonical layout name resolved through
	// ResolveWorkspaceFormat.
	Format string
	// PMVSOptionName selects the option file of a PMVS workspace.
	PMVSOptionName string
}

// PatchMatchOptions configures the patch-match stereo engine.
type PatchMatchOptions struct {
	MaxImageSize    int
	GPUIndex        string
	WindowRadius    int
	WindowStep      int
	NumSamples      int
	NumIterations   int
	GeomConsistency bool
	Filter          bool
	CacheSize       int
}

// PatchMatchSpec is handed to the injected patch-match engine factory.
type PatchMatchSpec struct {
	Workspace Workspace
	Options   PatchMatchOptions
}

// PatchMatcher computes depth and normal maps for a dense workspace.
type PatchMatcher = stageexec.Worker

// FusionOptions configures the stereo fusion engine.
type FusionOptions struct {
	MinNumPixels      int
	MaxNumPixels      int
	MaxTraversalDepth int
	MaxReprojError    float64
	MaxDepthError     float64
	MaxNormalError    float64
	CheckNumImages    int
	CacheSize         int
}

// FusionSpec is handed to the injected fusion engine factory. InputType is
// the canonical depth-map kind resolved through ResolveFusionInput.
type FusionSpec struct {
	Workspace Workspace
	InputType string
	Options   FusionOptions
}

// Fuser merges depth maps into a point cloud. Points and Visibility are
// valid after Run returns without error.
type Fuser interface {
	stageexec.Worker
	Points() []FusedPoint
	Visibility() [][]uint32
}

// FusedPoint is one fused cloud vertex: position, normal, and color.
type FusedPoint struct {
	X, Y, Z    float32
	NX, NY, NZ float32
	R, G, B    uint8
}

const (
	// WorkspaceFormatCOLMAP is the native dense workspace layout.
	WorkspaceFormatCOLMAP = "COLMAP"
	// WorkspaceFormatPMVS is the PMVS/CMVS workspace layout.
	WorkspaceFormatPMVS = "PMVS"

	// FusionInputPhotometric fuses photometric depth maps.
	FusionInputPhotometric = "photometric"
	// FusionInputGeometric fuses geometrically verified depth maps.
	FusionInputGeometric = "geometric"
)

var workspaceFormats = func() *format.Registry[string] {
	r := format.NewRegistry[string]("workspace format")
	r.Register("colmap", WorkspaceFormatCOLMAP)
	r.Register("pmvs", WorkspaceFormatPMVS)
	return r
}()

var fusionInputs = func() *format.Registry[string] {
	r := format.NewRegistry[string]("fusion input type")
	r.Register("photometric", FusionInputPhotometric)
	r.Register("geometric", FusionInputGeometric)
	return r
}()

// ResolveWorkspaceFormat maps a configuration token to its canonical
// workspace layout name.
func ResolveWorkspaceFormat(token string) (string, error) {
	return workspaceFormats.Resolve(token)
}

// WorkspaceFormatTokens lists the accepted workspace layout tokens.
func WorkspaceFormatTokens() []string {
	return workspaceFormats.Tokens()
}

// ResolveFusionInput maps a configuration token to its canonical fusion
// input kind.
func ResolveFusionInput(token string) (string, error) {
	return fusionInputs.Resolve(token)
}

// FusionInputTokens lists the accepted fusion input tokens.
func FusionInputTokens() []string {
	return fusionInputs.Tokens()
}
