// Package log provides leveled structured logging based on [log/slog].
//
// # Basic Usage
//
//	logger := log.Make(os.Stderr)
//	logger.Warn("config not found", slog.String("path", path))
//
// A [Logger] is configured once, when it is made, using functional options:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatJSON),
//		log.WithTimeLayout("RFC3339Nano"),
//		log.WithCaller(true))
//
// [Logger.Wrap] derives a logger with some options changed, and
// [Logger.With] one that adds attributes to every record.
//
// The zero Logger discards all records. Libraries accept a Logger as an
// option and log nothing unless the caller supplies one.
//
// # Package-Level Logger
//
// The package-level functions ([Info], [ErrorContext], ...) log through a
// default logger writing to standard error. [Config] replaces it.
// Functions without a context argument use [DefaultContextProvider], which
// returns [context.TODO] by default.
//
// # Levels
//
// [LevelTrace] sits below [LevelDebug] and is used for per-stage detail
// that is too noisy for debugging sessions. Records below the configured
// level are discarded before any formatting happens.
//
// # Output Formats
//
// [FormatText] (default) writes key=value lines; with [WithPretty] they are
// styled with lipgloss when the output is a color terminal. [FormatJSON]
// writes one JSON object per line.
package log
