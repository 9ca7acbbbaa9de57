package logger

import (
	"cineflix/proj/internal/lib/logger/handlers/slogpretty"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// SetupLogger returns the process logger: coloured text in debug mode, JSON
// otherwise. Every record carries the service name.
func SetupLogger(debug bool) *slog.Logger {
	return slog.New(newHandler(os.Stdout, debug)).With("service", "cineflix")
}

func newHandler(w io.Writer, debug bool) slog.Handler {
	if debug {
		return slogpretty.NewPrettyHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
}

// Discard returns a logger that drops every record. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serverErrors forwards http.Server's internal log lines (TLS handshake
// failures, panics in handlers) as error records.
type serverErrors struct {
	log *slog.Logger
}

func (s serverErrors) Write(p []byte) (int, error) {
	s.log.Error(strings.TrimSpace(string(p)), "source", "http.Server")
	return len(p), nil
}

func LogAdapter(logger *slog.Logger) *log.Logger {
	return log.New(serverErrors{logger}, "", 0)
}
