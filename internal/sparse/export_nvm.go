package sparse

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/farent12/colmap/internal/camera"
)

// ExportNVM writes the model in the VisualSFM NVM_V3 format. The format
// carries a single focal length and radial distortion per image, so every
// camera must use the SIMPLE_RADIAL model. Measurements are stored relative
// to the principal point.
func (r *Reconstruction) ExportNVM(path string) error {
	simpleRadial, err := camera.LookupModel("SIMPLE_RADIAL")
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)

	fmt.Fprintln(w, "NVM_V3")
	fmt.Fprintln(w)
	fmt.Fprintln(w, strconv.Itoa(r.NumImages()))

	imageIdx := make(map[uint32]int, r.NumImages())
	order := r.sortedImageIDs()
	for idx, id := range order {
		im := r.Images[id]
		cam, ok := r.Cameras[im.CameraID]
		if !ok {
			f.Close()
			return fmt.Errorf("image %s references unknown camera %d", im.Name, im.CameraID)
		}
		if cam.ModelID != simpleRadial.ID {
			model, merr := cam.Model()
			name := strconv.Itoa(cam.ModelID)
			if merr == nil {
				name = model.Name
			}
			f.Close()
			return fmt.Errorf("camera model %s is not supported by the nvm format, convert to SIMPLE_RADIAL first", name)
		}
		focal := cam.Params[0]
		distortion := -cam.Params[3]
		center := im.ProjectionCenter()
		fields := []string{
			im.Name,
			formatFloat(focal),
			formatFloat(im.Qvec[0]), formatFloat(im.Qvec[1]),
			formatFloat(im.Qvec[2]), formatFloat(im.Qvec[3]),
			formatFloat(center[0]), formatFloat(center[1]), formatFloat(center[2]),
			formatFloat(distortion),
			"0",
		}
		fmt.Fprintln(w, strings.Join(fields, " "))
		imageIdx[id] = idx
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, strconv.Itoa(r.NumPoints3D()))
	for _, id := range r.sortedPoint3DIDs() {
		pt := r.Points3D[id]
		fields := make([]string, 0, 7+4*len(pt.Track))
		fields = append(fields,
			formatFloat(pt.XYZ[0]), formatFloat(pt.XYZ[1]), formatFloat(pt.XYZ[2]),
			strconv.FormatUint(uint64(pt.RGB[0]), 10),
			strconv.FormatUint(uint64(pt.RGB[1]), 10),
			strconv.FormatUint(uint64(pt.RGB[2]), 10),
			strconv.Itoa(len(pt.Track)),
		)
		for _, el := range pt.Track {
			im := r.Images[el.ImageID]
			cam := r.Cameras[im.CameraID]
			ppx, ppy := cam.PrincipalPoint()
			obs := im.Points2D[el.Point2DIdx]
			fields = append(fields,
				strconv.Itoa(imageIdx[el.ImageID]),
				strconv.FormatUint(uint64(el.Point2DIdx), 10),
				formatFloat(obs.X-ppx),
				formatFloat(obs.Y-ppy),
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
