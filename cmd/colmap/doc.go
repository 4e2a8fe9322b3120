// Package main hosts the colmap CLI entrypoint and command graph.
//
// The Cobra-based command tree maps each reconstruction stage to a
// subcommand driven by a project document, plus diagnostics for compute
// backends and the closed format sets, and scaffolding for new project
// documents. It centralizes logger construction and engine wiring so
// subcommands stay declarative; the orchestration itself lives in the
// pipeline package.
package main
