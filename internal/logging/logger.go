package logging

import (
	"log/slog"
	"os"
)

// Setup installs the process-wide JSON logger. Boot-time logs go
// straight to stdout; once the database is connected, main swaps in the
// fan-out handler so ERROR+ records also reach system_logs.
func Setup() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))
}
