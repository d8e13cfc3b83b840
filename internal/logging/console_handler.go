package logging

import (
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

const consoleTimestampLayout = "2006-01-02 15:04:05"

// prettyHandler renders one human readable line per record:
//
//	2006-01-02 15:04:05 INFO  scheduler: armed period_seconds=900
//
// The component attribute becomes the line prefix and session_id is dropped.
type prettyHandler struct {
	mu        *sync.Mutex
	out       io.Writer
	level     slog.Leveler
	addSource bool
	prefix    string
	fields    []field
}

type field struct {
	key   string
	value slog.Value
}

func newPrettyHandler(w io.Writer, lvl slog.Leveler, addSource bool) slog.Handler {
	return &prettyHandler{mu: &sync.Mutex{}, out: w, level: lvl, addSource: addSource}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	fields := append([]field(nil), h.fields...)
	record.Attrs(func(attr slog.Attr) bool {
		fields = collect(fields, h.prefix, attr)
		return true
	})

	component := ""
	var rest strings.Builder
	for _, f := range fields {
		switch f.key {
		case FieldSessionID:
			continue
		case FieldComponent:
			if component == "" {
				component = plainString(f.value)
			}
			continue
		}
		rest.WriteByte(' ')
		rest.WriteString(f.key)
		rest.WriteByte('=')
		rest.WriteString(renderValue(f.value))
	}

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}

	var line strings.Builder
	fmt.Fprintf(&line, "%s %-5s ", ts.Local().Format(consoleTimestampLayout), levelLabel(record.Level))
	if component != "" {
		line.WriteString(component + ": ")
	}
	line.WriteString(msg)
	if h.addSource {
		if src := record.Source(); src != nil && src.File != "" {
			fmt.Fprintf(&line, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	line.WriteString(rest.String())
	line.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, line.String())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	next.fields = append([]field(nil), h.fields...)
	for _, attr := range attrs {
		next.fields = collect(next.fields, h.prefix, attr)
	}
	return &next
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

// collect appends attr to dst, flattening groups into dotted keys.
func collect(dst []field, prefix string, attr slog.Attr) []field {
	value := attr.Value.Resolve()
	if value.Kind() != slog.KindGroup {
		if attr.Key == "" {
			return dst
		}
		return append(dst, field{key: prefix + attr.Key, value: value})
	}
	inner := prefix
	if attr.Key != "" {
		inner = prefix + attr.Key + "."
	}
	for _, member := range value.Group() {
		dst = collect(dst, inner, member)
	}
	return dst
}

func plainString(v slog.Value) string {
	if v.Kind() == slog.KindAny {
		switch typed := v.Any().(type) {
		case error:
			return typed.Error()
		case fmt.Stringer:
			return typed.String()
		}
	}
	return v.String()
}

func renderValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindTime:
		return v.Time().Local().Format(consoleTimestampLayout)
	case slog.KindString, slog.KindAny:
		s := plainString(v)
		if s == "" || strings.ContainsAny(s, " \t\n\"=") {
			return strconv.Quote(s)
		}
		return s
	default:
		return v.String()
	}
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}
