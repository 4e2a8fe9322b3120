package sfm

import "github.com/farent12/colmap/internal/sparse"

// MapperOptions configures incremental mapping.
type MapperOptions struct {
	MinNumMatches          int
	MultipleModels         bool
	MaxNumModels           int
	MaxModelOverlap        int
	MinModelSize           int
	InitImageID1           int
	InitImageID2           int
	NumThreads             int
	BARefineFocalLength    bool
	BARefinePrincipalPoint bool
	BARefineExtraParams    bool
}

// MapperSpec is handed to the injected mapping engine factory. The engine
// fills Manager with the models it reconstructs; a non-empty Manager seeds
// the run with an existing model to extend. ImageList, when non-empty,
// restricts registration to the named images.
type MapperSpec struct {
	DatabasePath string
	ImagePath    string
	ImageList    []string
	Manager      *sparse.Manager
	Options      MapperOptions
}
