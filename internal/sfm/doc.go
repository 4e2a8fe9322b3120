// Package sfm defines the contract between the incremental mapping engine
// and the pipeline: the registration events the engine emits, the observer
// that consumes them, and the persister that writes models to disk as they
// complete.
package sfm
