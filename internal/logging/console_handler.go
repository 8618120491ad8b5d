package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// prettyHandler renders one line per record:
//
//	2026-01-02T03:04:05Z INFO  matcher: [alice] pair accepted key=value
//
// The component and creator attributes are lifted into the header. The run id
// is dropped because a CLI invocation only has one.
type prettyHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     *slog.LevelVar
	addSource bool
	prefix    []field // from WithAttrs, already qualified
	groups    []string
}

type field struct {
	key   string
	value slog.Value
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &prettyHandler{mu: new(sync.Mutex), w: w, level: lvl, addSource: addSource}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	if !h.Enabled(context.Background(), r.Level) {
		return nil
	}
	fields := append([]field(nil), h.prefix...)
	r.Attrs(func(a slog.Attr) bool {
		fields = appendQualified(fields, h.groups, a)
		return true
	})

	var component, creator string
	var rest []field
	for _, f := range lastPerKey(fields) {
		switch f.key {
		case FieldComponent:
			component = attrString(f.value)
		case FieldCreator:
			creator = attrString(f.value)
		case FieldRunID, "":
		default:
			rest = append(rest, f)
		}
	}

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var sb strings.Builder
	sb.WriteString(ts.UTC().Format(time.RFC3339))
	sb.WriteString(" " + levelLabel(r.Level) + " ")
	if component != "" {
		sb.WriteString(component + ": ")
	}
	if creator != "" {
		sb.WriteString("[" + creator + "] ")
	}
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		msg = "(no message)"
	}
	sb.WriteString(msg)
	if src := r.Source(); h.addSource && src != nil && src.File != "" {
		sb.WriteString(" [" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + "]")
	}
	for _, f := range rest {
		sb.WriteString(" " + f.key + "=" + formatValue(f.value))
	}
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, sb.String())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.prefix = append([]field(nil), h.prefix...)
	for _, a := range attrs {
		next.prefix = appendQualified(next.prefix, h.groups, a)
	}
	return &next
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

// lastPerKey keeps the final occurrence of each key, in first-seen order, so a
// child logger can override an attribute its parent carries.
func lastPerKey(fields []field) []field {
	index := make(map[string]int, len(fields))
	out := make([]field, 0, len(fields))
	for _, f := range fields {
		if i, seen := index[f.key]; seen {
			out[i] = f
			continue
		}
		index[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

// appendQualified flattens groups into dotted keys.
func appendQualified(dst []field, groups []string, a slog.Attr) []field {
	if a.Equal(slog.Attr{}) {
		return dst
	}
	v := a.Value.Resolve()
	if v.Kind() != slog.KindGroup {
		key := a.Key
		if len(groups) > 0 {
			key = strings.Join(groups, ".") + "." + key
		}
		return append(dst, field{key: key, value: v})
	}
	inner := groups
	if a.Key != "" {
		inner = append(append([]string(nil), groups...), a.Key)
	}
	for _, child := range v.Group() {
		dst = appendQualified(dst, inner, child)
	}
	return dst
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN "
	case level >= slog.LevelInfo:
		return "INFO "
	}
	return "DEBUG"
}
