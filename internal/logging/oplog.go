package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// The operational logger carries diagnostics only, on stderr by default.
// Manifest lines and command output never go through it.
var (
	opLogger atomic.Pointer[slog.Logger]
	level    = new(slog.LevelVar)
)

func init() {
	opLogger.Store(slog.New(newHandler("text", os.Stderr)))
}

// Op returns the operational logger.
func Op() *slog.Logger {
	return opLogger.Load()
}

// WithRun returns the operational logger tagged with a run ID.
func WithRun(runID string) *slog.Logger {
	l := opLogger.Load()
	if runID == "" {
		return l
	}
	return l.With("run_id", runID)
}

// ParseLevel accepts debug, info, warn (or warning) and error in any case.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// SetLevel changes the operational log level.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// SetLevelFromString is SetLevel for a level name; unknown names are ignored.
func SetLevelFromString(s string) {
	if l, err := ParseLevel(s); err == nil {
		SetLevel(l)
	}
}

// Level returns the current operational log level.
func Level() slog.Level {
	return level.Level()
}

// InitStructuredTo reconfigures the operational logger to write to w.
// format: "text" (default) or "json"
func InitStructuredTo(w io.Writer, format, lvl string) {
	SetLevelFromString(lvl)
	opLogger.Store(slog.New(newHandler(format, w)))
}

func newHandler(format string, w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
