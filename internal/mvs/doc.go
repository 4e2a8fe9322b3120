// Package mvs defines the dense-reconstruction engine contracts: the
// patch-match and fusion workers, the dense workspace description, and the
// writers for the fused point cloud and its visibility companion.
package mvs
