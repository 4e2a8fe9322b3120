package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler renders one record per line: timestamp, level, the stage as
// a subject prefix when present, the message, then key=value pairs.
type consoleHandler struct {
	out        io.Writer
	min        slog.Level
	withSource bool
	inherited  []slog.Attr
	groups     []string

	mu sync.Mutex
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.min
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	attrs := make([]slog.Attr, 0, len(h.inherited)+record.NumAttrs())
	attrs = append(attrs, h.inherited...)
	record.Attrs(func(attr slog.Attr) bool {
		attrs = append(attrs, qualify(h.groups, attr))
		return true
	})

	subject := ""
	rest := attrs[:0]
	for _, attr := range attrs {
		if attr.Key == FieldStage && subject == "" {
			subject = StageLabel(attr.Value.Resolve().String())
			continue
		}
		rest = append(rest, attr)
	}

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var line strings.Builder
	line.WriteString(ts.UTC().Format(time.RFC3339))
	line.WriteByte(' ')
	line.WriteString(levelTag(record.Level))
	line.WriteByte(' ')
	if subject != "" {
		line.WriteString(subject)
		line.WriteString(": ")
	}
	if msg := strings.TrimSpace(record.Message); msg != "" {
		line.WriteString(msg)
	} else {
		line.WriteString("(no message)")
	}
	if h.withSource {
		if src := recordSource(record); src != nil {
			fmt.Fprintf(&line, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	writeAttrs(&line, "", rest)
	line.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, line.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.fork()
	for _, attr := range attrs {
		next.inherited = append(next.inherited, qualify(h.groups, attr))
	}
	return next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	next := h.fork()
	if name != "" {
		next.groups = append(next.groups, name)
	}
	return next
}

func (h *consoleHandler) fork() *consoleHandler {
	return &consoleHandler{
		out:        h.out,
		min:        h.min,
		withSource: h.withSource,
		inherited:  append([]slog.Attr(nil), h.inherited...),
		groups:     append([]string(nil), h.groups...),
	}
}

// recordSource resolves the record's PC to a source location, or nil when
// the PC is unavailable. It matches slog.Record.Source, which needs a newer
// Go toolchain than this build targets.
func recordSource(record slog.Record) *slog.Source {
	frames := runtime.CallersFrames([]uintptr{record.PC})
	frame, _ := frames.Next()
	if frame.PC == 0 {
		return nil
	}
	return &slog.Source{
		Function: frame.Function,
		File:     frame.File,
		Line:     frame.Line,
	}
}

// qualify prefixes an attribute key with the open group path, so grouped
// attributes render as dotted keys.
func qualify(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) == 0 || attr.Key == "" {
		return attr
	}
	attr.Key = strings.Join(groups, ".") + "." + attr.Key
	return attr
}

func writeAttrs(line *strings.Builder, prefix string, attrs []slog.Attr) {
	for _, attr := range attrs {
		if attr.Equal(slog.Attr{}) {
			continue
		}
		key := attr.Key
		if prefix != "" && key != "" {
			key = prefix + "." + key
		} else if prefix != "" {
			key = prefix
		}
		value := attr.Value.Resolve()
		if value.Kind() == slog.KindGroup {
			writeAttrs(line, key, value.Group())
			continue
		}
		if key == "" {
			continue
		}
		line.WriteByte(' ')
		line.WriteString(key)
		line.WriteByte('=')
		line.WriteString(renderValue(value))
	}
}

func renderValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return quoteIfNeeded(err.Error())
		}
		return quoteIfNeeded(fmt.Sprint(v.Any()))
	default:
		return quoteIfNeeded(v.String())
	}
}

func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return strconv.Quote(s)
		}
	}
	return s
}

func levelTag(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
