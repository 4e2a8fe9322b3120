// Package format implements the closed strategy registries stages use to
// dispatch on format and type tokens.
//
// Every stage that accepts a token (model output formats, dense workspace
// formats, fusion input types, meshing input types) resolves it through a
// Registry: matching is case-insensitive against an enumerated set, and
// anything outside the set is rejected with the valid tokens listed. There is
// no prefix matching and no fallback value.
package format

import (
	"fmt"
	"sort"
	"strings"

	"github.com/farent12/colmap/internal/fault"
)

// Registry maps canonical lowercase tokens to strategy values.
type Registry[T any] struct {
	kind   string
	values map[string]T
}

// NewRegistry creates an empty registry. The kind names the option the
// registry serves (for example "converter_output_type") and appears in
// rejection messages.
func NewRegistry[T any](kind string) *Registry[T] {
	return &Registry[T]{kind: kind, values: make(map[string]T)}
}

// Register adds a token and its value. Tokens are stored lowercase;
// registering the same token twice panics, since the sets are fixed at
// package init time.
func (r *Registry[T]) Register(token string, value T) {
	key := strings.ToLower(strings.TrimSpace(token))
	if key == "" {
		panic("format: empty token")
	}
	if _, exists := r.values[key]; exists {
		panic(fmt.Sprintf("format: duplicate token %q for %s", key, r.kind))
	}
	r.values[key] = value
}

// Resolve matches token case-insensitively against the registered set. An
// unknown token yields a fault.ErrUnsupportedFormat error naming the option
// and listing the valid tokens.
func (r *Registry[T]) Resolve(token string) (T, error) {
	key := strings.ToLower(strings.TrimSpace(token))
	if value, ok := r.values[key]; ok {
		return value, nil
	}
	var zero T
	return zero, fmt.Errorf("%w: %s: unknown value %q (valid: %s)",
		fault.ErrUnsupportedFormat, r.kind, token, strings.Join(r.Tokens(), ", "))
}

// Tokens returns the canonical tokens in sorted order.
func (r *Registry[T]) Tokens() []string {
	tokens := make([]string, 0, len(r.values))
	for token := range r.values {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

// Kind returns the option name the registry serves.
func (r *Registry[T]) Kind() string {
	return r.kind
}
