// Package logging sets up structured logging for the compiler commands.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Setup returns a console logger writing to w at the named level. Unknown
// level names fall back to info.
func Setup(w io.Writer, level string) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// Default returns the standard compiler logger on stderr.
func Default(level string) zerolog.Logger {
	return Setup(os.Stderr, level)
}

// ParseLevel maps a level name to a zerolog level. Unknown names map
// to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
