package sparse

import (
	"bufio"
	"fmt"
	"os"
)

// ExportPLY writes the triangulated points as a binary little-endian PLY
// point cloud with per-vertex color.
func (r *Reconstruction) ExportPLY(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)

	fmt.Fprintln(w, "ply")
	fmt.Fprintln(w, "format binary_little_endian 1.0")
	fmt.Fprintf(w, "element vertex %d\n", r.NumPoints3D())
	fmt.Fprintln(w, "property float x")
	fmt.Fprintln(w, "property float y")
	fmt.Fprintln(w, "property float z")
	fmt.Fprintln(w, "property uchar red")
	fmt.Fprintln(w, "property uchar green")
	fmt.Fprintln(w, "property uchar blue")
	fmt.Fprintln(w, "end_header")

	for _, id := range r.sortedPoint3DIDs() {
		pt := r.Points3D[id]
		xyz := [3]float32{float32(pt.XYZ[0]), float32(pt.XYZ[1]), float32(pt.XYZ[2])}
		if err := writeLE(w, xyz); err != nil {
			f.Close()
			return err
		}
		if err := writeLE(w, pt.RGB); err != nil {
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
