package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// New creates a colored console logger for the given module.
// The result also satisfies whatsmeow's logger interface, so it can be handed
// straight to the client and the session store.
func New(module string, level string) waLog.Logger {
	return NewWithWriter(module, level, zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05.000",
	})
}

// NewWithWriter creates a logger that writes to w.
func NewWithWriter(module string, level string, w io.Writer) waLog.Logger {
	zl := zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()
	if module != "" {
		zl = zl.With().Str("module", module).Logger()
	}
	return waLog.Zerolog(zl)
}

// Nop returns a logger that discards everything.
func Nop() waLog.Logger {
	return waLog.Zerolog(zerolog.Nop())
}

// ParseLevel converts a level name to a zerolog level. Unknown names map to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO", "":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
