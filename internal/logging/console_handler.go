package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

const logTimestampLayout = "2006-01-02 15:04:05"

// prettyHandler writes records for a terminal:
//
//	2026-01-02 15:04:05 INFO [workflow] Batch 1a2b3c4d · Chunk #7 - message
//	    key: value
type prettyHandler struct {
	mu         *sync.Mutex
	w          io.Writer
	level      slog.Leveler
	withSource bool
	prefix     string
	preset     []field
}

type field struct {
	key   string
	value slog.Value
}

func newPrettyHandler(w io.Writer, level slog.Leveler, withSource bool) slog.Handler {
	return &prettyHandler{mu: new(sync.Mutex), w: w, level: level, withSource: withSource}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.preset = slices.Clone(h.preset)
	for _, attr := range attrs {
		next.preset = appendField(next.preset, h.prefix, attr)
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

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	fields := slices.Clone(h.preset)
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendField(fields, h.prefix, attr)
		return true
	})
	fields = lastWins(fields)

	var component, batchID, chunkID string
	fields = slices.DeleteFunc(fields, func(f field) bool {
		switch f.key {
		case FieldComponent:
			component = plainString(f.value)
		case FieldBatchID:
			batchID = plainString(f.value)
		case FieldChunkID:
			chunkID = plainString(f.value)
		default:
			return false
		}
		return true
	})

	when := record.Time
	if when.IsZero() {
		when = time.Now()
	}
	var b strings.Builder
	b.WriteString(when.Local().Format(logTimestampLayout))
	b.WriteString(" " + levelLabel(record.Level))
	if component != "" {
		b.WriteString(" [" + component + "]")
	}
	if subject := composeSubject(batchID, chunkID); subject != "" {
		b.WriteString(" " + subject)
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(" - " + msg)
	if h.withSource {
		if src := record.Source(); src != nil && src.File != "" {
			fmt.Fprintf(&b, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	b.WriteByte('\n')
	for _, f := range fields {
		fmt.Fprintf(&b, "    %s: %s\n", f.key, renderValue(f.value))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

// composeSubject renders "Batch 1a2b3c4d · Chunk #7". Batch ids are uuids,
// so only the first segment is shown.
func composeSubject(batchID, chunkID string) string {
	var parts []string
	if batchID = strings.TrimSpace(batchID); batchID != "" {
		short, _, _ := strings.Cut(batchID, "-")
		parts = append(parts, "Batch "+short)
	}
	if chunkID = strings.TrimSpace(chunkID); chunkID != "" {
		parts = append(parts, "Chunk #"+chunkID)
	}
	return strings.Join(parts, " · ")
}

// appendField flattens groups into dotted keys.
func appendField(dst []field, prefix string, attr slog.Attr) []field {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	if attr.Value.Kind() == slog.KindGroup {
		inner := prefix
		if attr.Key != "" {
			inner += attr.Key + "."
		}
		for _, member := range attr.Value.Group() {
			dst = appendField(dst, inner, member)
		}
		return dst
	}
	if attr.Key == "" {
		return dst
	}
	return append(dst, field{key: prefix + attr.Key, value: attr.Value})
}

// lastWins drops repeated keys, keeping the first position and the last value.
func lastWins(fields []field) []field {
	index := make(map[string]int, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if i, seen := index[f.key]; seen {
			out[i].value = f.value
			continue
		}
		index[f.key] = len(out)
		out = append(out, f)
	}
	return out
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

func plainString(v slog.Value) string {
	if v.Kind() == slog.KindString {
		return v.String()
	}
	return renderValue(v)
}

func renderValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case slog.KindTime:
		return v.Time().Local().Format(logTimestampLayout)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindBool, slog.KindInt64, slog.KindUint64:
		return v.String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		s = v.String()
	}
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r < ' ' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
