package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tolk/internal/config"
)

// LogFileName is the file written under paths.log_dir when file logging is
// enabled.
const LogFileName = "tolk.log"

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Writer receives formatted records. Nil means stderr.
	Writer io.Writer
	// File, when set, receives a JSON copy of every record regardless of
	// Format.
	File io.Writer
}

// New builds a logger. Debug level turns on source locations.
func New(opts Options) (*slog.Logger, error) {
	level := new(slog.LevelVar)
	level.Set(parseLevel(opts.Level))
	withSource := level.Level() <= slog.LevelDebug

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	var handler slog.Handler
	switch format := strings.ToLower(strings.TrimSpace(opts.Format)); format {
	case "", "console":
		handler = newPrettyHandler(w, level, withSource)
	case "json":
		handler = newJSONHandler(w, level, withSource)
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	if opts.File != nil {
		handler = TeeHandler(handler, newJSONHandler(opts.File, level, withSource))
	}
	return slog.New(handler), nil
}

// NewFromConfig builds the application logger from the [logging] section,
// mirroring records into paths.log_dir when it is set. The returned func
// closes the log file and is safe to call when there is none.
func NewFromConfig(cfg *config.Config) (*slog.Logger, func() error, error) {
	noop := func() error { return nil }
	if cfg == nil {
		logger, err := New(Options{})
		return logger, noop, err
	}
	opts := Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format}
	dir := strings.TrimSpace(cfg.Paths.LogDir)
	if dir == "" {
		logger, err := New(opts)
		return logger, noop, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure log directory: %w", err)
	}
	path := filepath.Join(dir, LogFileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	opts.File = file
	logger, err := New(opts)
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}
	return logger, file.Close, nil
}

// parseLevel accepts slog level names in any case. Unknown names mean info.
func parseLevel(name string) slog.Level {
	name = strings.TrimSpace(name)
	if strings.EqualFold(name, "warning") {
		return slog.LevelWarn
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func newJSONHandler(w io.Writer, level slog.Leveler, withSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		AddSource:   withSource,
		ReplaceAttr: jsonAttr,
	})
}

// jsonAttr shortens the built-in keys: "ts" in RFC 3339 UTC, lowercase
// levels, and file:line sources.
func jsonAttr(_ []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		if attr.Value.Kind() == slog.KindTime {
			return slog.String("ts", attr.Value.Time().UTC().Format(time.RFC3339))
		}
		attr.Key = "ts"
	case slog.LevelKey:
		attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
	case slog.SourceKey:
		if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
			attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
		}
	}
	return attr
}
