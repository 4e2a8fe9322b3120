package sparse

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Distortion coefficients of a camera as the two radial terms the Bundler
// format carries.
func bundlerDistortion(cam Camera) (k1, k2 float64, err error) {
	model, err := cam.Model()
	if err != nil {
		return 0, 0, err
	}
	switch model.Name {
	case "SIMPLE_PINHOLE", "PINHOLE":
		return 0, 0, nil
	case "SIMPLE_RADIAL", "SIMPLE_RADIAL_FISHEYE":
		return cam.Params[model.ExtraIdxs[0]], 0, nil
	case "RADIAL", "RADIAL_FISHEYE":
		return cam.Params[model.ExtraIdxs[0]], cam.Params[model.ExtraIdxs[1]], nil
	default:
		return 0, 0, fmt.Errorf("camera model %s is not supported by the bundler format", model.Name)
	}
}

// ExportBundler writes the model as a Bundler v0.3 bundle file plus the
// companion image list. Bundler cameras look down the negative z axis, so
// the second and third rows of the rotation and the matching translation
// components are negated.
func (r *Reconstruction) ExportBundler(bundlePath, listPath string) error {
	f, err := os.Create(bundlePath)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)

	fmt.Fprintln(w, "# Bundle file v0.3")
	fmt.Fprintf(w, "%d %d\n", r.NumImages(), r.NumPoints3D())

	imageIdx := make(map[uint32]int, r.NumImages())
	order := r.sortedImageIDs()
	names := make([]string, 0, len(order))
	for idx, id := range order {
		im := r.Images[id]
		cam, ok := r.Cameras[im.CameraID]
		if !ok {
			f.Close()
			return fmt.Errorf("image %s references unknown camera %d", im.Name, im.CameraID)
		}
		k1, k2, err := bundlerDistortion(cam)
		if err != nil {
			f.Close()
			return err
		}
		rot := quatToRotation(im.Qvec)
		fmt.Fprintf(w, "%s %s %s\n", formatFloat(cam.MeanFocalLength()), formatFloat(k1), formatFloat(k2))
		fmt.Fprintf(w, "%s %s %s\n", formatFloat(rot[0][0]), formatFloat(rot[0][1]), formatFloat(rot[0][2]))
		fmt.Fprintf(w, "%s %s %s\n", formatFloat(-rot[1][0]), formatFloat(-rot[1][1]), formatFloat(-rot[1][2]))
		fmt.Fprintf(w, "%s %s %s\n", formatFloat(-rot[2][0]), formatFloat(-rot[2][1]), formatFloat(-rot[2][2]))
		fmt.Fprintf(w, "%s %s %s\n", formatFloat(im.Tvec[0]), formatFloat(-im.Tvec[1]), formatFloat(-im.Tvec[2]))
		imageIdx[id] = idx
		names = append(names, im.Name)
	}

	for _, id := range r.sortedPoint3DIDs() {
		pt := r.Points3D[id]
		fmt.Fprintf(w, "%s %s %s\n", formatFloat(pt.XYZ[0]), formatFloat(pt.XYZ[1]), formatFloat(pt.XYZ[2]))
		fmt.Fprintf(w, "%d %d %d\n", pt.RGB[0], pt.RGB[1], pt.RGB[2])
		fields := make([]string, 0, 1+4*len(pt.Track))
		fields = append(fields, strconv.Itoa(len(pt.Track)))
		for _, el := range pt.Track {
			im := r.Images[el.ImageID]
			cam := r.Cameras[im.CameraID]
			ppx, ppy := cam.PrincipalPoint()
			obs := im.Points2D[el.Point2DIdx]
			fields = append(fields,
				strconv.Itoa(imageIdx[el.ImageID]),
				strconv.FormatUint(uint64(el.Point2DIdx), 10),
				formatFloat(obs.X-ppx),
				formatFloat(ppy-obs.Y),
			)
		}
		fmt.Fprintln(w, strings.Join(fields, " "))
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.WriteFile(listPath, []byte(strings.Join(names, "\n")+"\n"), 0o644)
}
