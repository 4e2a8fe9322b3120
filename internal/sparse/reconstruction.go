package sparse

import (
	"fmt"
	"sort"

	"github.com/farent12/colmap/internal/camera"
)

// InvalidPoint3DID marks a 2D observation without a triangulated point.
const InvalidPoint3DID = ^uint64(0)

// Camera is an intrinsic calibration shared by one or more images. Params is
// laid out according to the model's catalog entry.
type Camera struct {
	ID      uint32
	ModelID int
	Width   uint64
	Height  uint64
	Params  []float64
}

// Model resolves the catalog entry for the camera's model identifier.
func (c Camera) Model() (camera.Model, error) {
	return camera.LookupModelID(c.ModelID)
}

// MeanFocalLength averages the focal length parameters of the camera.
func (c Camera) MeanFocalLength() float64 {
	model, err := c.Model()
	if err != nil || len(model.FocalIdxs) == 0 {
		return 0
	}
	var sum float64
	for _, idx := range model.FocalIdxs {
		sum += c.Params[idx]
	}
	return sum / float64(len(model.FocalIdxs))
}

// PrincipalPoint returns the principal point coordinates of the camera.
func (c Camera) PrincipalPoint() (x, y float64) {
	model, err := c.Model()
	if err != nil || len(model.PrincipalPointIdxs) != 2 {
		return 0, 0
	}
	return c.Params[model.PrincipalPointIdxs[0]], c.Params[model.PrincipalPointIdxs[1]]
}

// Point2D is a feature observation in an image. Point3DID is
// InvalidPoint3DID while the observation has no triangulated point.
type Point2D struct {
	X         float64
	Y         float64
	Point3DID uint64
}

// HasPoint3D reports whether the observation is part of a 3D point track.
func (p Point2D) HasPoint3D() bool {
	return p.Point3DID != InvalidPoint3DID
}

// Image is a registered image with its pose. Qvec is the rotation as a
// (w, x, y, z) quaternion and Tvec the translation of the world-to-camera
// transform.
type Image struct {
	ID       uint32
	Qvec     [4]float64
	Tvec     [3]float64
	CameraID uint32
	Name     string
	Points2D []Point2D
}

// ProjectionCenter returns the camera center in world coordinates.
func (im Image) ProjectionCenter() [3]float64 {
	return projectionCenter(im.Qvec, im.Tvec)
}

// TrackElement references one observation of a 3D point.
type TrackElement struct {
	ImageID    uint32
	Point2DIdx uint32
}

// Point3D is a triangulated scene point with its mean reprojection error and
// the track of observations it was triangulated from.
type Point3D struct {
	XYZ   [3]float64
	RGB   [3]uint8
	Error float64
	Track []TrackElement
}

// Reconstruction is a single sparse model. The maps are keyed by the
// identifiers used in the reconstruction database.
type Reconstruction struct {
	Cameras  map[uint32]Camera
	Images   map[uint32]Image
	Points3D map[uint64]Point3D
}

// NewReconstruction returns an empty model.
func NewReconstruction() *Reconstruction {
	return &Reconstruction{
		Cameras:  make(map[uint32]Camera),
		Images:   make(map[uint32]Image),
		Points3D: make(map[uint64]Point3D),
	}
}

// NumCameras returns the number of calibrations in the model.
func (r *Reconstruction) NumCameras() int { return len(r.Cameras) }

// NumImages returns the number of registered images in the model.
func (r *Reconstruction) NumImages() int { return len(r.Images) }

// NumPoints3D returns the number of triangulated points in the model.
func (r *Reconstruction) NumPoints3D() int { return len(r.Points3D) }

// MeanObservationsPerImage returns the average number of triangulated
// observations over all registered images.
func (r *Reconstruction) MeanObservationsPerImage() float64 {
	if len(r.Images) == 0 {
		return 0
	}
	var total int
	for _, im := range r.Images {
		for _, p := range im.Points2D {
			if p.HasPoint3D() {
				total++
			}
		}
	}
	return float64(total) / float64(len(r.Images))
}

// MeanTrackLength returns the average track length over all 3D points.
func (r *Reconstruction) MeanTrackLength() float64 {
	if len(r.Points3D) == 0 {
		return 0
	}
	var total int
	for _, p := range r.Points3D {
		total += len(p.Track)
	}
	return float64(total) / float64(len(r.Points3D))
}

// Summary renders the one-line shape of the model used in stage logs.
func (r *Reconstruction) Summary() string {
	return fmt.Sprintf("%d cameras, %d images, %d points", r.NumCameras(), r.NumImages(), r.NumPoints3D())
}

func (r *Reconstruction) sortedCameraIDs() []uint32 {
	ids := make([]uint32, 0, len(r.Cameras))
	for id := range r.Cameras {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *Reconstruction) sortedImageIDs() []uint32 {
	ids := make([]uint32, 0, len(r.Images))
	for id := range r.Images {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *Reconstruction) sortedPoint3DIDs() []uint64 {
	ids := make([]uint64, 0, len(r.Points3D))
	for id := range r.Points3D {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
