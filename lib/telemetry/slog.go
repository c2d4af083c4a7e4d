package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog replaces the default slog handler. Verbose mode enables
// debug-level output, which also turns on request dumping in the
// fetch client.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
