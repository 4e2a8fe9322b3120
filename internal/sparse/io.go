package sparse

import (
	"fmt"
	"path/filepath"

	"github.com/farent12/colmap/internal/fsutil"
)

// Write stores the model in dir using the binary format, the default
// interchange format between stages.
func (r *Reconstruction) Write(dir string) error {
	return r.WriteBinary(dir)
}

// Read loads the model stored in dir, preferring the binary format when both
// encodings are present.
func Read(dir string) (*Reconstruction, error) {
	if hasBinaryModel(dir) {
		return ReadBinary(dir)
	}
	if hasTextModel(dir) {
		return ReadText(dir)
	}
	return nil, fmt.Errorf("no sparse model found in %s", dir)
}

// ModelPresent reports whether dir contains a sparse model in either
// encoding.
func ModelPresent(dir string) bool {
	return hasBinaryModel(dir) || hasTextModel(dir)
}

func hasBinaryModel(dir string) bool {
	return fsutil.ExistsFile(filepath.Join(dir, CamerasBinFile)) &&
		fsutil.ExistsFile(filepath.Join(dir, ImagesBinFile)) &&
		fsutil.ExistsFile(filepath.Join(dir, Points3DBinFile))
}

func hasTextModel(dir string) bool {
	return fsutil.ExistsFile(filepath.Join(dir, CamerasTextFile)) &&
		fsutil.ExistsFile(filepath.Join(dir, ImagesTextFile)) &&
		fsutil.ExistsFile(filepath.Join(dir, Points3DTextFile))
}
