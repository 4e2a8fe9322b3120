// Package logging assembles the structured slog loggers used across the
// pipeline stages.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes attribute helpers plus canonical field names so every stage
// emits records with the same shape. The package also provides a no-op logger
// for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components
// keep the same output contract as the rest of the system.
package logging
