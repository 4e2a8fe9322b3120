package sparse

import (
	"bufio"
	"fmt"
	"os"
)

// Edge length of the camera frustum glyphs in the VRML scene, in world
// units.
const vrmlFrustumScale = 0.25

// ExportVRML writes two VRML 2.0 scenes: one with a frustum glyph per
// registered image and one with the colored point cloud.
func (r *Reconstruction) ExportVRML(imagesPath, pointsPath string) error {
	if err := r.writeVRMLImages(imagesPath); err != nil {
		return err
	}
	return r.writeVRMLPoints(pointsPath)
}

func (r *Reconstruction) writeVRMLImages(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)

	fmt.Fprintln(w, "#VRML V2.0 utf8")
	for _, id := range r.sortedImageIDs() {
		im := r.Images[id]
		cam, ok := r.Cameras[im.CameraID]
		if !ok {
			f.Close()
			return fmt.Errorf("image %s references unknown camera %d", im.Name, im.CameraID)
		}

		// Frustum corners in the camera frame, scaled so the image plane
		// sits one glyph unit in front of the center.
		focal := cam.MeanFocalLength()
		if focal == 0 {
			focal = 1
		}
		hw := float64(cam.Width) / (2 * focal) * vrmlFrustumScale
		hh := float64(cam.Height) / (2 * focal) * vrmlFrustumScale
		corners := [4][3]float64{
			{-hw, -hh, vrmlFrustumScale},
			{hw, -hh, vrmlFrustumScale},
			{hw, hh, vrmlFrustumScale},
			{-hw, hh, vrmlFrustumScale},
		}

		rot := quatToRotation(im.Qvec)
		center := im.ProjectionCenter()
		world := make([][3]float64, 0, 5)
		world = append(world, center)
		for _, c := range corners {
			var p [3]float64
			for i := 0; i < 3; i++ {
				// World point is R^T * c + center.
				p[i] = rot[0][i]*c[0] + rot[1][i]*c[1] + rot[2][i]*c[2] + center[i]
			}
			world = append(world, p)
		}

		fmt.Fprintln(w, "Shape{")
		fmt.Fprintln(w, " appearance Appearance {")
		fmt.Fprintln(w, "  material Material { diffuseColor 0.9 0.9 0.1 } }")
		fmt.Fprintln(w, " geometry IndexedFaceSet {")
		fmt.Fprintln(w, "  coord Coordinate {")
		fmt.Fprintln(w, "   point [")
		for _, p := range world {
			fmt.Fprintf(w, "    %s %s %s\n", formatFloat(p[0]), formatFloat(p[1]), formatFloat(p[2]))
		}
		fmt.Fprintln(w, "   ] }")
		fmt.Fprintln(w, "  coordIndex [")
		fmt.Fprintln(w, "   0, 1, 2, -1,")
		fmt.Fprintln(w, "   0, 2, 3, -1,")
		fmt.Fprintln(w, "   0, 3, 4, -1,")
		fmt.Fprintln(w, "   0, 4, 1, -1,")
		fmt.Fprintln(w, "   1, 2, 3, 4, -1")
		fmt.Fprintln(w, "  ] } }")
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (r *Reconstruction) writeVRMLPoints(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)

	fmt.Fprintln(w, "#VRML V2.0 utf8")
	fmt.Fprintln(w, "Background { skyColor [1.0 1.0 1.0] }")
	fmt.Fprintln(w, "Shape{ appearance Appearance {")
	fmt.Fprintln(w, " material Material { emissiveColor 1 1 1 } }")
	fmt.Fprintln(w, " geometry PointSet {")
	fmt.Fprintln(w, " coord Coordinate {")
	fmt.Fprintln(w, "  point [")
	ids := r.sortedPoint3DIDs()
	for _, id := range ids {
		pt := r.Points3D[id]
		fmt.Fprintf(w, "   %s %s %s\n", formatFloat(pt.XYZ[0]), formatFloat(pt.XYZ[1]), formatFloat(pt.XYZ[2]))
	}
	fmt.Fprintln(w, " ] }")
	fmt.Fprintln(w, " color Color { color [")
	for _, id := range ids {
		pt := r.Points3D[id]
		fmt.Fprintf(w, "   %s %s %s\n",
			formatFloat(float64(pt.RGB[0])/255),
			formatFloat(float64(pt.RGB[1])/255),
			formatFloat(float64(pt.RGB[2])/255))
	}
	fmt.Fprintln(w, " ] } } }")

	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
