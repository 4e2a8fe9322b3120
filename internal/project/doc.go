// Package project loads and validates the TOML project document that drives
// every pipeline stage.
//
// The document is a closed registry: top-level scalar keys name the input and
// output paths of each stage, and option tables ([extraction], [mapper], ...)
// carry per-stage engine options. Unknown keys are rejected at parse time.
// Stages declare what they need through Requirements, so a document only has
// to satisfy the keys and option ranges of the stage actually being run.
//
// Loading decodes over defaults, expands and absolutizes path values, and
// applies token defaults. The fully-resolved document can be re-marshaled
// with WriteSnapshot for the audit copy written beside persisted models.
package project
