// Package pipeline is the orchestration surface of the reconstruction
// toolchain. A Runner exposes one method per stage, from feature extraction
// through matching, incremental mapping, model conversion, undistortion,
// and the dense stereo and meshing stages, each driven by a project
// document on disk.
//
// The heavyweight numeric engines are injected through an EngineSet; the
// runner owns everything around them: project resolution, precondition
// checks, execution policy, output persistence, locking, and structured
// logging with a per-invocation run id.
package pipeline
