package log

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

// A bytes.Buffer is not a terminal, so the pretty handler writes no escape
// sequences and its output can be compared verbatim.
func makePretty(buf *bytes.Buffer, opts ...Option) Logger {
	return Make(buf, append([]Option{
		WithFormat(FormatText),
		WithPretty(true),
		WithTimeLayout("none"),
		WithLevel(LevelTrace),
	}, opts...)...)
}

func TestPrettyHandler_Line(t *testing.T) {
	var buf bytes.Buffer

	makePretty(&buf).Info("resolved",
		slog.Int("passes", 3),
		slog.String("name", "base"),
		slog.String("text", "two words"),
		slog.String("empty", ""),
		slog.Bool("strict", false))

	want := `INFO  resolved passes=3 name=base text="two words" empty="" strict=false` + "\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestPrettyHandler_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := makePretty(&buf)

	logger.Trace("t")
	logger.Error("e")

	if got, want := buf.String(), "TRACE t\nERROR e\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestPrettyHandler_Groups(t *testing.T) {
	var buf bytes.Buffer

	logger := makePretty(&buf).With(slog.String("cmd", "eval"))
	logger = Logger{Logger: logger.WithGroup("run"), config: logger.config}

	logger.Warn("failed",
		slog.Group("pos", slog.Int("line", 2), slog.Int("column", 5)))

	want := "WARN  failed cmd=eval run.pos.line=2 run.pos.column=5\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

type valuer struct{}

func (valuer) LogValue() slog.Value {
	return slog.GroupValue(slog.String("error", "boom"), slog.String("name", "x"))
}

func TestPrettyHandler_LogValuer(t *testing.T) {
	var buf bytes.Buffer

	makePretty(&buf).Error("run failed",
		slog.Any("error", valuer{}),
		slog.Any("plain", errors.New("bad thing")))

	want := `ERROR run failed error.error=boom error.name=x plain="bad thing"` + "\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestPrettyHandler_Caller(t *testing.T) {
	var buf bytes.Buffer

	makePretty(&buf, WithCaller(true)).Info("here")

	if out := buf.String(); !strings.Contains(out, " pretty_test.go:") {
		t.Errorf("caller missing from %q", out)
	}
}

func TestQuoteIfNeeded(t *testing.T) {
	tests := map[string]string{
		"plain":   "plain",
		"a b":     `"a b"`,
		"k=v":     `"k=v"`,
		`say "x"`: `"say \"x\""`,
		"tab\t":   `"tab\t"`,
		"":        `""`,
		"Я":       "Я",
	}

	for in, want := range tests {
		if got := quoteIfNeeded(in); got != want {
			t.Errorf("quoteIfNeeded(%q) = %q, want %q", in, got, want)
		}
	}
}
