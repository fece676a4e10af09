package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler writes one line per record:
//
//	2026-03-01T12:00:00Z WARN  scanner: file skipped [3f2a91c0 w2] reason=empty file=/docs/a.pdf
//
// The component becomes a prefix, the run id and worker a bracketed tag, and
// the file path is always the last field so long batches stay scannable.
type consoleHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     *slog.LevelVar
	addSource bool
	attrs     []slog.Attr
	groups    []string
}

func newConsoleHandler(w io.Writer, level *slog.LevelVar, addSource bool) *consoleHandler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: level, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), qualify(h.groups, attrs)...)
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	var component, runID, worker, file string
	fields := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())

	collect := func(a slog.Attr) {
		a.Value = a.Value.Resolve()
		switch a.Key {
		case FieldComponent:
			component = a.Value.String()
		case FieldRunID:
			runID = a.Value.String()
		case FieldWorker:
			worker = a.Value.String()
		case FieldFile:
			file = a.Value.String()
		default:
			flatten(&fields, "", a)
		}
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		for _, q := range qualify(h.groups, []slog.Attr{a}) {
			collect(q)
		}
		return true
	})

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var buf bytes.Buffer
	buf.WriteString(ts.UTC().Format(time.RFC3339))
	buf.WriteByte(' ')
	fmt.Fprintf(&buf, "%-5s ", levelLabel(r.Level))
	if component != "" {
		buf.WriteString(component)
		buf.WriteString(": ")
	}
	if msg := strings.TrimSpace(r.Message); msg != "" {
		buf.WriteString(msg)
	} else {
		buf.WriteString("(no message)")
	}
	if tag := runTag(runID, worker); tag != "" {
		buf.WriteString(" [")
		buf.WriteString(tag)
		buf.WriteByte(']')
	}
	if h.addSource && r.PC != 0 {
		if src := r.Source(); src != nil {
			fmt.Fprintf(&buf, " (%s:%d)", filepath.Base(src.File), src.Line)
		}
	}
	for _, f := range fields {
		buf.WriteByte(' ')
		buf.WriteString(f.Key)
		buf.WriteByte('=')
		buf.WriteString(formatValue(f.Value))
	}
	if file != "" {
		buf.WriteString(" file=")
		buf.WriteString(quoteIfNeeded(file))
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func runTag(runID, worker string) string {
	if len(runID) > 8 {
		runID = runID[:8]
	}
	switch {
	case runID != "" && worker != "":
		return runID + " w" + worker
	case worker != "":
		return "w" + worker
	default:
		return runID
	}
}

// qualify prefixes attribute keys with the open groups.
func qualify(groups []string, attrs []slog.Attr) []slog.Attr {
	if len(groups) == 0 {
		return attrs
	}
	prefix := strings.Join(groups, ".") + "."
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: prefix + a.Key, Value: a.Value}
	}
	return out
}

func flatten(dst *[]slog.Attr, prefix string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, child := range a.Value.Group() {
			child.Value = child.Value.Resolve()
			flatten(dst, key, child)
		}
		return
	}
	*dst = append(*dst, slog.Attr{Key: key, Value: a.Value})
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return quoteIfNeeded(v.String())
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return quoteIfNeeded(err.Error())
		}
		return quoteIfNeeded(fmt.Sprint(v.Any()))
	default:
		return v.String()
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

func levelLabel(level slog.Level) string {
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
