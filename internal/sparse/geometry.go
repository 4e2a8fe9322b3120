package sparse

import "math"

// normalizeQuat scales the quaternion to unit norm. A zero quaternion maps to
// the identity rotation.
func normalizeQuat(q [4]float64) [4]float64 {
	norm := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if norm == 0 {
		return [4]float64{1, 0, 0, 0}
	}
	return [4]float64{q[0] / norm, q[1] / norm, q[2] / norm, q[3] / norm}
}

// quatToRotation converts a (w, x, y, z) quaternion to a row-major rotation
// matrix.
func quatToRotation(q [4]float64) [3][3]float64 {
	q = normalizeQuat(q)
	w, x, y, z := q[0], q[1], q[2], q[3]
	return [3][3]float64{
		{1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y)},
		{2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x)},
		{2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y)},
	}
}

// projectionCenter computes the camera center -R^T * t of a world-to-camera
// pose.
func projectionCenter(qvec [4]float64, tvec [3]float64) [3]float64 {
	r := quatToRotation(qvec)
	var c [3]float64
	for i := 0; i < 3; i++ {
		c[i] = -(r[0][i]*tvec[0] + r[1][i]*tvec[1] + r[2][i]*tvec[2])
	}
	return c
}
