// Package undistort defines the contract of the image undistortion engines
// and the closed set of output workspace layouts they produce.
package undistort

import (
	"github.com/farent12/colmap/internal/format"
	"github.com/farent12/colmap/internal/sparse"
	"github.com/farent12/colmap/internal/stageexec"
)

// Options configures undistortion scaling and the region of interest. The
// ROI quad is relative to the image: coordinates in [0, 1], minimum strictly
// below maximum on both axes.
type Options struct {
	BlankPixels  float64
	MinScale     float64
	MaxScale     float64
	MaxImageSize int
	ROIMinX      float64
	ROIMinY      float64
	ROIMaxX      float64
	ROIMaxY      float64
}

// Spec is handed to the injected undistorter factory. Layout is the
// canonical workspace layout resolved through ResolveLayout; Model is the
// sparse reconstruction whose cameras drive the undistortion maps.
type Spec struct {
	ImagePath  string
	OutputPath string
	Layout     string
	Model      *sparse.Reconstruction
	Options    Options
}

// Undistorter writes undistorted images and the matching workspace files.
type Undistorter = stageexec.Worker

const (
	// LayoutCOLMAP produces a dense workspace in the native layout.
	LayoutCOLMAP = "COLMAP"
	// LayoutPMVS produces a PMVS/CMVS workspace.
	LayoutPMVS = "PMVS"
	// LayoutCMPMVS produces a CMP-MVS workspace.
	LayoutCMPMVS = "CMP-MVS"
)

var layouts = func() *format.Registry[string] {
	r := format.NewRegistry[string]("undistorter output type")
	r.Register("colmap", LayoutCOLMAP)
	r.Register("pmvs", LayoutPMVS)
	r.Register("cmp-mvs", LayoutCMPMVS)
	return r
}()

// ResolveLayout maps a configuration token to its canonical layout name.
func ResolveLayout(token string) (string, error) {
	return layouts.Resolve(token)
}

// LayoutTokens lists the accepted output layout tokens.
func LayoutTokens() []string {
	return layouts.Tokens()
}
