package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestMake_Defaults(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf)

	if logger.Level() != DefaultLevel {
		t.Errorf("Level() = %v, want %v", logger.Level(), DefaultLevel)
	}

	if logger.Format() != DefaultFormat {
		t.Errorf("Format() = %v, want %v", logger.Format(), DefaultFormat)
	}

	if logger.Writer() != &buf {
		t.Error("Writer() is not the output")
	}

	logger.Info("dropped")
	logger.Warn("kept")

	if out := buf.String(); strings.Contains(out, "dropped") || !strings.Contains(out, "kept") {
		t.Errorf("unexpected output at default level: %q", out)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name     string
		logFunc  func(Logger, string, ...slog.Attr)
		minLevel Level
		logged   bool
	}{
		{"trace at trace", Logger.Trace, LevelTrace, true},
		{"trace at debug", Logger.Trace, LevelDebug, false},
		{"debug at debug", Logger.Debug, LevelDebug, true},
		{"debug at info", Logger.Debug, LevelInfo, false},
		{"info at info", Logger.Info, LevelInfo, true},
		{"info at warn", Logger.Info, LevelWarn, false},
		{"warn at warn", Logger.Warn, LevelWarn, true},
		{"warn at error", Logger.Warn, LevelError, false},
		{"error at error", Logger.Error, LevelError, true},
		{"error at trace", Logger.Error, LevelTrace, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			tt.logFunc(Make(&buf, WithLevel(tt.minLevel)), "test message")

			if logged := buf.Len() > 0; logged != tt.logged {
				t.Errorf("logged = %t, want %t (%q)", logged, tt.logged, buf.String())
			}
		})
	}
}

func TestLogger_ContextMethods(t *testing.T) {
	tests := []struct {
		name  string
		fn    func(Logger, context.Context, string, ...slog.Attr)
		level string
	}{
		{"trace", Logger.TraceContext, "TRACE"},
		{"debug", Logger.DebugContext, "DEBUG"},
		{"info", Logger.InfoContext, "INFO"},
		{"warn", Logger.WarnContext, "WARN"},
		{"error", Logger.ErrorContext, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := Make(&buf, WithLevel(LevelTrace), WithFormat(FormatJSON))

			tt.fn(logger, t.Context(), "context message", slog.Int("n", 1))

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("invalid JSON %q: %v", buf.String(), err)
			}

			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}

			if entry["msg"] != "context message" || entry["n"] != float64(1) {
				t.Errorf("unexpected entry: %v", entry)
			}
		})
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithFormat(FormatJSON), WithLevel(LevelInfo), WithTimeLayout("none"))

	logger.Info("test message", slog.String("key", "value"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}

	if _, ok := entry["time"]; ok {
		t.Error("time present with layout none")
	}

	if entry["msg"] != "test message" || entry["key"] != "value" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf,
		WithFormat(FormatText),
		WithPretty(false),
		WithLevel(LevelTrace),
		WithTimeLayout(""))

	logger.Trace("test message", slog.String("key", "value"))

	if got, want := buf.String(), "level=TRACE msg=\"test message\" key=value\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestLogger_Caller(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatText} {
		t.Run(format.String(), func(t *testing.T) {
			var buf bytes.Buffer

			Make(&buf, WithFormat(format), WithCaller(true)).Warn("with caller")

			if !strings.Contains(buf.String(), "log_test.go") {
				t.Errorf("caller missing from %q", buf.String())
			}

			buf.Reset()

			Make(&buf, WithFormat(format), WithCaller(false)).Warn("without caller")

			if strings.Contains(buf.String(), "log_test.go") {
				t.Errorf("caller present in %q", buf.String())
			}
		})
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithFormat(FormatJSON)).With(slog.String("component", "lang"))

	logger.Warn("test message")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}

	if entry["component"] != "lang" {
		t.Errorf("component = %v, want lang", entry["component"])
	}
}

func TestLogger_Wrap(t *testing.T) {
	var first, second bytes.Buffer

	base := Make(&first, WithFormat(FormatJSON))
	wrapped := base.Wrap(WithOutput(&second), WithLevel(LevelDebug))

	if wrapped.Format() != FormatJSON {
		t.Errorf("Wrap lost format: %v", wrapped.Format())
	}

	wrapped.Debug("wrapped")
	base.Debug("base")

	if first.Len() != 0 {
		t.Errorf("base logged below its level: %q", first.String())
	}

	if !strings.Contains(second.String(), "wrapped") {
		t.Errorf("wrapped logger output = %q", second.String())
	}

	var zero Logger
	if zero.Wrap(WithOutput(&second)).Logger == nil {
		t.Error("Wrap of zero Logger is unusable")
	}
}

func TestLogger_ZeroValue(t *testing.T) {
	var l Logger

	l.Trace("test")
	l.Debug("test")
	l.Info("test")
	l.Warn("test")
	l.Error("test")
	l.InfoContext(t.Context(), "test")

	if l.With(slog.String("key", "value")).Logger != nil {
		t.Error("With on zero Logger produced a logger")
	}

	if l.Level() != DefaultLevel || l.Format() != DefaultFormat {
		t.Error("zero Logger does not report defaults")
	}
}

func TestLogger_Concurrent(t *testing.T) {
	for _, pretty := range []bool{false, true} {
		var buf bytes.Buffer
		logger := Make(&buf, WithPretty(pretty), WithLevel(LevelInfo))

		var wg sync.WaitGroup
		for i := range 100 {
			wg.Add(1)

			go func() {
				defer wg.Done()
				logger.Info("concurrent message", slog.Int("id", i))
			}()
		}

		wg.Wait()

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 100 {
			t.Errorf("pretty=%t: expected 100 lines, got %d", pretty, len(lines))
		}
	}
}

func BenchmarkLogger_Info(b *testing.B) {
	var buf bytes.Buffer
	logger := Make(&buf, WithLevel(LevelInfo))

	for b.Loop() {
		buf.Reset()
		logger.Info("benchmark message", slog.Int("iteration", 1))
	}
}

func BenchmarkLogger_Disabled(b *testing.B) {
	logger := Make(&bytes.Buffer{}, WithLevel(LevelError))

	for b.Loop() {
		logger.Trace("dropped", slog.Int("iteration", 1))
	}
}
