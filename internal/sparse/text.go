package sparse

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/farent12/colmap/internal/camera"
)

// Text model file names inside a model directory.
const (
	CamerasTextFile  = "cameras.txt"
	ImagesTextFile   = "images.txt"
	Points3DTextFile = "points3D.txt"
)

// scanner buffer cap; observation and track lines grow with model size.
const maxLineBytes = 32 << 20

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteText stores the model as the three-file text format in dir.
func (r *Reconstruction) WriteText(dir string) error {
	if err := r.writeCamerasText(filepath.Join(dir, CamerasTextFile)); err != nil {
		return err
	}
	if err := r.writeImagesText(filepath.Join(dir, ImagesTextFile)); err != nil {
		return err
	}
	return r.writePoints3DText(filepath.Join(dir, Points3DTextFile))
}

// ReadText loads a model stored as the three-file text format from dir.
func ReadText(dir string) (*Reconstruction, error) {
	rec := NewReconstruction()
	if err := readCamerasText(rec, filepath.Join(dir, CamerasTextFile)); err != nil {
		return nil, err
	}
	if err := readImagesText(rec, filepath.Join(dir, ImagesTextFile)); err != nil {
		return nil, err
	}
	if err := readPoints3DText(rec, filepath.Join(dir, Points3DTextFile)); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *Reconstruction) writeCamerasText(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "# Camera list with one line of data per camera:")
	fmt.Fprintln(w, "#   CAMERA_ID, MODEL, WIDTH, HEIGHT, PARAMS[]")
	fmt.Fprintf(w, "# Number of cameras: %d\n", r.NumCameras())
	for _, id := range r.sortedCameraIDs() {
		cam := r.Cameras[id]
		model, err := cam.Model()
		if err != nil {
			f.Close()
			return fmt.Errorf("camera %d: %w", id, err)
		}
		fields := make([]string, 0, 4+len(cam.Params))
		fields = append(fields,
			strconv.FormatUint(uint64(id), 10),
			model.Name,
			strconv.FormatUint(cam.Width, 10),
			strconv.FormatUint(cam.Height, 10),
		)
		for _, p := range cam.Params {
			fields = append(fields, formatFloat(p))
		}
		fmt.Fprintln(w, strings.Join(fields, " "))
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (r *Reconstruction) writeImagesText(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "# Image list with two lines of data per image:")
	fmt.Fprintln(w, "#   IMAGE_ID, QW, QX, QY, QZ, TX, TY, TZ, CAMERA_ID, NAME")
	fmt.Fprintln(w, "#   POINTS2D[] as (X, Y, POINT3D_ID)")
	fmt.Fprintf(w, "# Number of images: %d, mean observations per image: %s\n",
		r.NumImages(), formatFloat(r.MeanObservationsPerImage()))
	for _, id := range r.sortedImageIDs() {
		im := r.Images[id]
		fields := []string{
			strconv.FormatUint(uint64(id), 10),
			formatFloat(im.Qvec[0]), formatFloat(im.Qvec[1]),
			formatFloat(im.Qvec[2]), formatFloat(im.Qvec[3]),
			formatFloat(im.Tvec[0]), formatFloat(im.Tvec[1]), formatFloat(im.Tvec[2]),
			strconv.FormatUint(uint64(im.CameraID), 10),
			im.Name,
		}
		fmt.Fprintln(w, strings.Join(fields, " "))
		obs := make([]string, 0, 3*len(im.Points2D))
		for _, p := range im.Points2D {
			obs = append(obs, formatFloat(p.X), formatFloat(p.Y), formatPoint3DID(p.Point3DID))
		}
		fmt.Fprintln(w, strings.Join(obs, " "))
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (r *Reconstruction) writePoints3DText(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "# 3D point list with one line of data per point:")
	fmt.Fprintln(w, "#   POINT3D_ID, X, Y, Z, R, G, B, ERROR, TRACK[] as (IMAGE_ID, POINT2D_IDX)")
	fmt.Fprintf(w, "# Number of points: %d, mean track length: %s\n",
		r.NumPoints3D(), formatFloat(r.MeanTrackLength()))
	for _, id := range r.sortedPoint3DIDs() {
		pt := r.Points3D[id]
		fields := make([]string, 0, 8+2*len(pt.Track))
		fields = append(fields,
			strconv.FormatUint(id, 10),
			formatFloat(pt.XYZ[0]), formatFloat(pt.XYZ[1]), formatFloat(pt.XYZ[2]),
			strconv.FormatUint(uint64(pt.RGB[0]), 10),
			strconv.FormatUint(uint64(pt.RGB[1]), 10),
			strconv.FormatUint(uint64(pt.RGB[2]), 10),
			formatFloat(pt.Error),
		)
		for _, el := range pt.Track {
			fields = append(fields,
				strconv.FormatUint(uint64(el.ImageID), 10),
				strconv.FormatUint(uint64(el.Point2DIdx), 10),
			)
		}
		fmt.Fprintln(w, strings.Join(fields, " "))
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatPoint3DID(id uint64) string {
	if id == InvalidPoint3DID {
		return "-1"
	}
	return strconv.FormatUint(id, 10)
}

func parsePoint3DID(token string) (uint64, error) {
	if token == "-1" {
		return InvalidPoint3DID, nil
	}
	return strconv.ParseUint(token, 10, 64)
}

func readCamerasText(rec *Reconstruction, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return fmt.Errorf("%s: malformed camera line %q", path, line)
		}
		id, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return fmt.Errorf("%s: camera id: %w", path, err)
		}
		model, err := camera.LookupModel(fields[1])
		if err != nil {
			return fmt.Errorf("%s: camera %d: %w", path, id, err)
		}
		width, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return fmt.Errorf("%s: camera %d width: %w", path, id, err)
		}
		height, err := strconv.ParseUint(fields[3], 10, 64)
		if err != nil {
			return fmt.Errorf("%s: camera %d height: %w", path, id, err)
		}
		params := make([]float64, 0, len(fields)-4)
		for _, tok := range fields[4:] {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return fmt.Errorf("%s: camera %d params: %w", path, id, err)
			}
			params = append(params, v)
		}
		if len(params) != model.NumParams {
			return fmt.Errorf("%s: camera %d: model %s expects %d parameters, found %d",
				path, id, model.Name, model.NumParams, len(params))
		}
		rec.Cameras[uint32(id)] = Camera{
			ID:      uint32(id),
			ModelID: model.ID,
			Width:   width,
			Height:  height,
			Params:  params,
		}
	}
	return sc.Err()
}

func readImagesText(rec *Reconstruction, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	var pending *Image
	for sc.Scan() {
		raw := sc.Text()
		if pending == nil {
			line := strings.TrimSpace(raw)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) < 10 {
				return fmt.Errorf("%s: malformed image line %q", path, line)
			}
			id, err := strconv.ParseUint(fields[0], 10, 32)
			if err != nil {
				return fmt.Errorf("%s: image id: %w", path, err)
			}
			var pose [7]float64
			for i := 0; i < 7; i++ {
				pose[i], err = strconv.ParseFloat(fields[1+i], 64)
				if err != nil {
					return fmt.Errorf("%s: image %d pose: %w", path, id, err)
				}
			}
			cameraID, err := strconv.ParseUint(fields[8], 10, 32)
			if err != nil {
				return fmt.Errorf("%s: image %d camera id: %w", path, id, err)
			}
			pending = &Image{
				ID:       uint32(id),
				Qvec:     [4]float64{pose[0], pose[1], pose[2], pose[3]},
				Tvec:     [3]float64{pose[4], pose[5], pose[6]},
				CameraID: uint32(cameraID),
				Name:     strings.Join(fields[9:], " "),
			}
			continue
		}

		// Observation line. It is empty for images without features.
		fields := strings.Fields(raw)
		if len(fields)%3 != 0 {
			return fmt.Errorf("%s: image %d: observation count not a multiple of three", path, pending.ID)
		}
		if len(fields) > 0 {
			points := make([]Point2D, 0, len(fields)/3)
			for i := 0; i < len(fields); i += 3 {
				x, err := strconv.ParseFloat(fields[i], 64)
				if err != nil {
					return fmt.Errorf("%s: image %d observation: %w", path, pending.ID, err)
				}
				y, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return fmt.Errorf("%s: image %d observation: %w", path, pending.ID, err)
				}
				p3d, err := parsePoint3DID(fields[i+2])
				if err != nil {
					return fmt.Errorf("%s: image %d observation: %w", path, pending.ID, err)
				}
				points = append(points, Point2D{X: x, Y: y, Point3DID: p3d})
			}
			pending.Points2D = points
		}
		rec.Images[pending.ID] = *pending
		pending = nil
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if pending != nil {
		return fmt.Errorf("%s: image %d is missing its observation line", path, pending.ID)
	}
	return nil
}

func readPoints3DText(rec *Reconstruction, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 8 || (len(fields)-8)%2 != 0 {
			return fmt.Errorf("%s: malformed point line %q", path, line)
		}
		id, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return fmt.Errorf("%s: point id: %w", path, err)
		}
		var pt Point3D
		for i := 0; i < 3; i++ {
			pt.XYZ[i], err = strconv.ParseFloat(fields[1+i], 64)
			if err != nil {
				return fmt.Errorf("%s: point %d position: %w", path, id, err)
			}
		}
		for i := 0; i < 3; i++ {
			c, err := strconv.ParseUint(fields[4+i], 10, 8)
			if err != nil {
				return fmt.Errorf("%s: point %d color: %w", path, id, err)
			}
			pt.RGB[i] = uint8(c)
		}
		pt.Error, err = strconv.ParseFloat(fields[7], 64)
		if err != nil {
			return fmt.Errorf("%s: point %d error: %w", path, id, err)
		}
		if n := (len(fields) - 8) / 2; n > 0 {
			pt.Track = make([]TrackElement, 0, n)
		}
		for i := 8; i < len(fields); i += 2 {
			imageID, err := strconv.ParseUint(fields[i], 10, 32)
			if err != nil {
				return fmt.Errorf("%s: point %d track: %w", path, id, err)
			}
			pointIdx, err := strconv.ParseUint(fields[i+1], 10, 32)
			if err != nil {
				return fmt.Errorf("%s: point %d track: %w", path, id, err)
			}
			pt.Track = append(pt.Track, TrackElement{ImageID: uint32(imageID), Point2DIdx: uint32(pointIdx)})
		}
		rec.Points3D[id] = pt
	}
	return sc.Err()
}
