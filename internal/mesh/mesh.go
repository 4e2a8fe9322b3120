// Package mesh defines the contracts of the Poisson and Delaunay meshing
// engines.
package mesh

import (
	"github.com/farent12/colmap/internal/format"
	"github.com/farent12/colmap/internal/stageexec"
)

// PoissonOptions configures the Poisson surface reconstruction engine.
type PoissonOptions struct {
	PointWeight float64
	Depth       int
	Color       float64
	Trim        float64
	NumThreads  int
}

// PoissonSpec is handed to the injected Poisson engine factory. InputPath is
// a fused point cloud with normals; OutputPath receives the mesh.
type PoissonSpec struct {
	InputPath  string
	OutputPath string
	Options    PoissonOptions
}

// PoissonMesher reconstructs a surface from a fused point cloud.
type PoissonMesher = stageexec.Worker

// DelaunayOptions configures the Delaunay meshing engine.
type DelaunayOptions struct {
	MaxProjDist             float64
	MaxDepthDist            float64
	VisibilitySigma         float64
	DistanceSigmaFactor     float64
	QualityRegularization   float64
	MaxSideLengthFactor     float64
	MaxSideLengthPercentile float64
	NumThreads              int
}

// DelaunaySpec is handed to the injected Delaunay engine factory. InputType
// is the canonical input kind resolved through ResolveDelaunayInput: sparse
// input is a model directory, dense input a dense workspace.
type DelaunaySpec struct {
	InputPath  string
	OutputPath string
	InputType  string
	Options    DelaunayOptions
}

// DelaunayMesher tetrahedralizes and extracts a surface. Builds without the
// engine's geometry backend inject no factory; callers report that as an
// unavailable backend.
type DelaunayMesher = stageexec.Worker

const (
	// DelaunayInputSparse meshes a sparse model directory.
	DelaunayInputSparse = "sparse"
	// DelaunayInputDense meshes a dense workspace.
	DelaunayInputDense = "dense"
)

var delaunayInputs = func() *format.Registry[string] {
	r := format.NewRegistry[string]("delaunay input type")
	r.Register("sparse", DelaunayInputSparse)
	r.Register("dense", DelaunayInputDense)
	return r
}()

// ResolveDelaunayInput maps a configuration token to its canonical input
// kind.
func ResolveDelaunayInput(token string) (string, error) {
	return delaunayInputs.Resolve(token)
}

// DelaunayInputTokens lists the accepted Delaunay input tokens.
func DelaunayInputTokens() []string {
	return delaunayInputs.Tokens()
}
