package mvs

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
)

// WritePoints stores a fused cloud as a binary little-endian PLY with
// per-vertex normals and colors.
func WritePoints(path string, points []FusedPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)

	fmt.Fprintln(w, "ply")
	fmt.Fprintln(w, "format binary_little_endian 1.0")
	fmt.Fprintf(w, "element vertex %d\n", len(points))
	fmt.Fprintln(w, "property float x")
	fmt.Fprintln(w, "property float y")
	fmt.Fprintln(w, "property float z")
	fmt.Fprintln(w, "property float nx")
	fmt.Fprintln(w, "property float ny")
	fmt.Fprintln(w, "property float nz")
	fmt.Fprintln(w, "property uchar red")
	fmt.Fprintln(w, "property uchar green")
	fmt.Fprintln(w, "property uchar blue")
	fmt.Fprintln(w, "end_header")

	for _, p := range points {
		if err := binary.Write(w, binary.LittleEndian, p); err != nil {
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

// WriteVisibility stores the per-point visible-image index lists that
// accompany a fused cloud: the point count, then for each point the length
// of its list followed by the image indexes, all little-endian.
func WriteVisibility(path string, visibility [][]uint32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)

	if err := binary.Write(w, binary.LittleEndian, uint64(len(visibility))); err != nil {
		f.Close()
		return err
	}
	for _, indexes := range visibility {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(indexes))); err != nil {
			f.Close()
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, indexes); err != nil {
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
