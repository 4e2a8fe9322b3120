// Package fault defines the failure taxonomy shared by every pipeline stage.
//
// Stage code tags errors with one of the exported sentinel markers via Wrap so
// callers can classify failures with errors.Is without parsing messages. The
// process-level contract is uniform: any non-nil error aborts the invocation
// and maps to a non-zero exit code; there are no retries.
package fault

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks missing or invalid option values, unknown camera
	// models, malformed parameter lists, and unreadable project documents.
	ErrConfiguration = errors.New("configuration error")
	// ErrUnsupportedFormat marks a format or strategy token outside a stage's
	// closed set.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrPrecondition marks filesystem preconditions that do not hold, such as
	// a required directory that does not exist.
	ErrPrecondition = errors.New("precondition failed")
	// ErrBackendUnavailable marks a required compute backend or stage engine
	// that is absent in this build or environment.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrEngine marks a stage engine that started and then failed.
	ErrEngine = errors.New("engine failure")
)

// Wrap tags err with a taxonomy marker and prefixes the stage, operation, and
// message context known at the call site. A nil marker defaults to ErrEngine,
// so unexpected failures still classify.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrEngine
	}
	detail := joinContext(stage, operation, message)
	if err == nil {
		return fmt.Errorf("%w: %s", marker, detail)
	}
	return fmt.Errorf("%w: %s: %w", marker, detail, err)
}

// Classified reports whether err already carries one of the taxonomy
// markers.
func Classified(err error) bool {
	for _, marker := range []error{
		ErrConfiguration, ErrUnsupportedFormat, ErrPrecondition, ErrBackendUnavailable, ErrEngine,
	} {
		if errors.Is(err, marker) {
			return true
		}
	}
	return false
}

// Kind names the taxonomy bucket an error belongs to, for log fields and
// diagnostics. Unclassified errors report as "engine".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrPrecondition):
		return "precondition"
	case errors.Is(err, ErrBackendUnavailable):
		return "backend_unavailable"
	default:
		return "engine"
	}
}

func joinContext(stage, operation, message string) string {
	detail := ""
	for _, part := range []string{stage, operation, message} {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if detail != "" {
			detail += ": "
		}
		detail += part
	}
	if detail == "" {
		return "stage failure"
	}
	return detail
}
