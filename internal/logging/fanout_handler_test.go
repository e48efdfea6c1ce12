package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestTeeHandlerFiltersNil(t *testing.T) {
	if TeeHandler(nil, nil).Enabled(context.Background(), slog.LevelError) {
		t.Fatal("expected a discarding handler when all handlers are nil")
	}
	single := slog.NewTextHandler(&bytes.Buffer{}, nil)
	if got := TeeHandler(nil, single); got != single {
		t.Fatal("expected single handler to be returned as is")
	}
}

func TestTeeHandlerRespectsLevels(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	info := slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	debug := slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})

	logger := slog.New(TeeHandler(info, debug)).With("component", "test")
	logger.Debug("debug only")
	logger.Info("both")

	if strings.Contains(infoBuf.String(), "debug only") {
		t.Fatalf("info handler received debug record: %q", infoBuf.String())
	}
	if !strings.Contains(infoBuf.String(), "both") || !strings.Contains(debugBuf.String(), "both") {
		t.Fatal("expected both handlers to receive info record")
	}
	if !strings.Contains(debugBuf.String(), "debug only") || !strings.Contains(debugBuf.String(), "component=test") {
		t.Fatalf("debug handler missing record or attrs: %q", debugBuf.String())
	}
	if !slog.New(TeeHandler(info, debug)).Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("tee should be enabled when any handler is")
	}
}
