// Package logger builds the process slog.Logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Formats accepted by New.
const (
	FormatAuto = ""
	FormatText = "text"
	FormatJSON = "json"
	FormatTint = "tint"
)

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "err", "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", name)
}

// New returns a logger writing to stderr. An empty format picks tint when
// stderr is a terminal and text otherwise.
func New(level, format string) (*slog.Logger, error) {
	return newLogger(os.Stderr, level, format, isatty.IsTerminal(os.Stderr.Fd()))
}

func newLogger(w io.Writer, level, format string, terminal bool) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if format == FormatAuto {
		format = FormatText
		if terminal {
			format = FormatTint
		}
	}

	var h slog.Handler
	switch strings.ToLower(format) {
	case FormatText:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	case FormatJSON:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	case FormatTint:
		h = tint.NewHandler(w, &tint.Options{
			NoColor:    runtime.GOOS == "windows" || !terminal,
			AddSource:  lvl <= slog.LevelDebug,
			Level:      lvl,
			TimeFormat: "15:04:05.000",
		})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return slog.New(h).With("service", "geodash"), nil
}
