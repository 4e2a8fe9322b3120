// Package sparse holds the in-memory representation of a sparse
// reconstruction (cameras, posed images, triangulated points) together with
// the text and binary model codecs and the exporters to third-party formats.
package sparse
