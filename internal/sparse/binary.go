package sparse

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/farent12/colmap/internal/camera"
)

// Binary model file names inside a model directory.
const (
	CamerasBinFile  = "cameras.bin"
	ImagesBinFile   = "images.bin"
	Points3DBinFile = "points3D.bin"
)

// Fixed-layout records of the little-endian binary model format. Camera
// parameters, image names, observation lists, and tracks follow their record
// as variable-length payloads.
type binCamera struct {
	ID      uint32
	ModelID int32
	Width   uint64
	Height  uint64
}

type binImagePose struct {
	ID       uint32
	Qvec     [4]float64
	Tvec     [3]float64
	CameraID uint32
}

type binPoint2D struct {
	X         float64
	Y         float64
	Point3DID uint64
}

type binPoint3D struct {
	ID    uint64
	XYZ   [3]float64
	RGB   [3]uint8
	Error float64
}

type binTrackElement struct {
	ImageID    uint32
	Point2DIdx uint32
}

func readLE(r io.Reader, data any) error {
	return binary.Read(r, binary.LittleEndian, data)
}

func writeLE(w io.Writer, data any) error {
	return binary.Write(w, binary.LittleEndian, data)
}

// WriteBinary stores the model as the three-file binary format in dir.
func (r *Reconstruction) WriteBinary(dir string) error {
	if err := r.writeCamerasBinary(filepath.Join(dir, CamerasBinFile)); err != nil {
		return err
	}
	if err := r.writeImagesBinary(filepath.Join(dir, ImagesBinFile)); err != nil {
		return err
	}
	return r.writePoints3DBinary(filepath.Join(dir, Points3DBinFile))
}

// ReadBinary loads a model stored as the three-file binary format from dir.
func ReadBinary(dir string) (*Reconstruction, error) {
	rec := NewReconstruction()
	if err := readCamerasBinary(rec, filepath.Join(dir, CamerasBinFile)); err != nil {
		return nil, err
	}
	if err := readImagesBinary(rec, filepath.Join(dir, ImagesBinFile)); err != nil {
		return nil, err
	}
	if err := readPoints3DBinary(rec, filepath.Join(dir, Points3DBinFile)); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *Reconstruction) writeCamerasBinary(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := writeLE(w, uint64(r.NumCameras())); err != nil {
		f.Close()
		return err
	}
	for _, id := range r.sortedCameraIDs() {
		cam := r.Cameras[id]
		rec := binCamera{ID: id, ModelID: int32(cam.ModelID), Width: cam.Width, Height: cam.Height}
		if err := writeLE(w, rec); err != nil {
			f.Close()
			return err
		}
		if err := writeLE(w, cam.Params); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readCamerasBinary(rec *Reconstruction, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var count uint64
	if err := readLE(br, &count); err != nil {
		return fmt.Errorf("%s: camera count: %w", path, err)
	}
	for i := uint64(0); i < count; i++ {
		var head binCamera
		if err := readLE(br, &head); err != nil {
			return fmt.Errorf("%s: camera record: %w", path, err)
		}
		model, err := camera.LookupModelID(int(head.ModelID))
		if err != nil {
			return fmt.Errorf("%s: camera %d: %w", path, head.ID, err)
		}
		params := make([]float64, model.NumParams)
		if err := readLE(br, params); err != nil {
			return fmt.Errorf("%s: camera %d params: %w", path, head.ID, err)
		}
		rec.Cameras[head.ID] = Camera{
			ID:      head.ID,
			ModelID: model.ID,
			Width:   head.Width,
			Height:  head.Height,
			Params:  params,
		}
	}
	return nil
}

func (r *Reconstruction) writeImagesBinary(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := writeLE(w, uint64(r.NumImages())); err != nil {
		f.Close()
		return err
	}
	for _, id := range r.sortedImageIDs() {
		im := r.Images[id]
		pose := binImagePose{ID: id, Qvec: im.Qvec, Tvec: im.Tvec, CameraID: im.CameraID}
		if err := writeLE(w, pose); err != nil {
			f.Close()
			return err
		}
		if _, err := w.WriteString(im.Name); err != nil {
			f.Close()
			return err
		}
		if err := w.WriteByte(0); err != nil {
			f.Close()
			return err
		}
		if err := writeLE(w, uint64(len(im.Points2D))); err != nil {
			f.Close()
			return err
		}
		for _, p := range im.Points2D {
			if err := writeLE(w, binPoint2D(p)); err != nil {
				f.Close()
				return err
			}
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readImagesBinary(rec *Reconstruction, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var count uint64
	if err := readLE(br, &count); err != nil {
		return fmt.Errorf("%s: image count: %w", path, err)
	}
	for i := uint64(0); i < count; i++ {
		var pose binImagePose
		if err := readLE(br, &pose); err != nil {
			return fmt.Errorf("%s: image record: %w", path, err)
		}
		name, err := br.ReadString(0)
		if err != nil {
			return fmt.Errorf("%s: image %d name: %w", path, pose.ID, err)
		}
		name = name[:len(name)-1]
		var numObs uint64
		if err := readLE(br, &numObs); err != nil {
			return fmt.Errorf("%s: image %d observation count: %w", path, pose.ID, err)
		}
		var points []Point2D
		if numObs > 0 {
			points = make([]Point2D, numObs)
			for j := range points {
				var p binPoint2D
				if err := readLE(br, &p); err != nil {
					return fmt.Errorf("%s: image %d observation: %w", path, pose.ID, err)
				}
				points[j] = Point2D(p)
			}
		}
		rec.Images[pose.ID] = Image{
			ID:       pose.ID,
			Qvec:     pose.Qvec,
			Tvec:     pose.Tvec,
			CameraID: pose.CameraID,
			Name:     name,
			Points2D: points,
		}
	}
	return nil
}

func (r *Reconstruction) writePoints3DBinary(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := writeLE(w, uint64(r.NumPoints3D())); err != nil {
		f.Close()
		return err
	}
	for _, id := range r.sortedPoint3DIDs() {
		pt := r.Points3D[id]
		head := binPoint3D{ID: id, XYZ: pt.XYZ, RGB: pt.RGB, Error: pt.Error}
		if err := writeLE(w, head); err != nil {
			f.Close()
			return err
		}
		if err := writeLE(w, uint64(len(pt.Track))); err != nil {
			f.Close()
			return err
		}
		for _, el := range pt.Track {
			if err := writeLE(w, binTrackElement(el)); err != nil {
				f.Close()
				return err
			}
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readPoints3DBinary(rec *Reconstruction, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var count uint64
	if err := readLE(br, &count); err != nil {
		return fmt.Errorf("%s: point count: %w", path, err)
	}
	for i := uint64(0); i < count; i++ {
		var head binPoint3D
		if err := readLE(br, &head); err != nil {
			return fmt.Errorf("%s: point record: %w", path, err)
		}
		var trackLen uint64
		if err := readLE(br, &trackLen); err != nil {
			return fmt.Errorf("%s: point %d track length: %w", path, head.ID, err)
		}
		var track []TrackElement
		if trackLen > 0 {
			track = make([]TrackElement, trackLen)
			for j := range track {
				var el binTrackElement
				if err := readLE(br, &el); err != nil {
					return fmt.Errorf("%s: point %d track: %w", path, head.ID, err)
				}
				track[j] = TrackElement(el)
			}
		}
		rec.Points3D[head.ID] = Point3D{XYZ: head.XYZ, RGB: head.RGB, Error: head.Error, Track: track}
	}
	return nil
}
