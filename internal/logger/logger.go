package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup builds a JSON slog.Logger writing to w. Production logs at info,
// everything else at debug.
func Setup(w io.Writer, environment string) *slog.Logger {
	level := slog.LevelDebug
	if strings.EqualFold(strings.TrimSpace(environment), "production") {
		level = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler).With(slog.String("service", "livestock-api"))
}

// SetupDefault installs the JSON logger as the process-wide default. A nil
// writer means stdout.
func SetupDefault(w io.Writer, environment string) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	l := Setup(w, environment)
	slog.SetDefault(l)
	return l
}
