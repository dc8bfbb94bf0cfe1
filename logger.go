package dogvision

import (
	"log/slog"

	"github.com/gogpu/dogvision/internal/logging"
)

// SetLogger configures the logger for dogvision and all its sub-packages.
// By default, dogvision produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by dogvision:
//   - [slog.LevelDebug]: internal diagnostics (pipeline state, buffer sizes)
//   - [slog.LevelInfo]: lifecycle events (adapter selected, generation
//     started or stopped, transitions)
//   - [slog.LevelWarn]: non-fatal issues (program fallback, dropped frames,
//     ignored settings)
//
// Example:
//
//	// Enable info-level logging to stderr:
//	dogvision.SetLogger(slog.Default())
//
//	// Enable debug-level logging for full diagnostics:
//	dogvision.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger used by dogvision.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logging.Logger()
}
