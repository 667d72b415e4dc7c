// Package logging builds the zerolog loggers injected into tally's
// components.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Output formats.
const (
	FormatAuto    = "auto"
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config holds logger configuration options.
type Config struct {
	// Level is the minimum level written (trace, debug, info, warn, error, off).
	Level string

	// Format is auto, console, or json. Auto picks console when the
	// writer is a terminal.
	Format string

	// NoColor disables color in console output.
	NoColor bool
}

// DefaultConfig returns info-level, auto-format logging.
func DefaultConfig() Config {
	return Config{
		Level:   "info",
		Format:  FormatAuto,
		NoColor: os.Getenv("NO_COLOR") != "",
	}
}

// New creates a logger writing to w. The process-wide zerolog level is
// left untouched.
func New(cfg Config, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := ParseLevel(cfg.Level)

	if resolveFormat(cfg.Format, w) == FormatConsole {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.Kitchen,
			NoColor:    cfg.NoColor,
		}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "warning":
		return zerolog.WarnLevel
	case "none", "off":
		return zerolog.Disabled
	case "":
		return zerolog.InfoLevel
	}
	if l, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil {
		return l
	}
	return zerolog.InfoLevel
}

func resolveFormat(format string, w io.Writer) string {
	switch strings.ToLower(format) {
	case FormatConsole, "pretty":
		return FormatConsole
	case FormatJSON:
		return FormatJSON
	}
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return FormatConsole
	}
	return FormatJSON
}
