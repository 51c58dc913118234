package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/charmbracelet/lipgloss"
)

// prettyStyles holds the styles of the pretty handler. The styles share one
// renderer bound to the handler's output, so colors are only emitted when
// that output supports them.
type prettyStyles struct {
	time, key, str, num, source lipgloss.Style
	level                       map[Level]lipgloss.Style
}

func makePrettyStyles(w io.Writer) prettyStyles {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}

	return prettyStyles{
		time:   fg("8"),
		key:    fg("8"),
		str:    fg("6"),
		num:    fg("3"),
		source: fg("8").Italic(true),
		level: map[Level]lipgloss.Style{
			LevelTrace: fg("5"),
			LevelDebug: fg("4"),
			LevelInfo:  fg("2"),
			LevelWarn:  fg("3").Bold(true),
			LevelError: fg("1").Bold(true),
		},
	}
}

// levelStyle returns the style of the nearest defined level at or below l.
func (s prettyStyles) levelStyle(l Level) lipgloss.Style {
	style := s.level[LevelTrace]

	for _, defined := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		if l >= defined {
			style = s.level[defined]
		}
	}

	return style
}

// prettyHandler writes one styled line per record:
//
//	TIME LEVEL message key=value ... source=file:line
type prettyHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	cfg    config
	styles prettyStyles
	prefix string // group prefix for attrs added later
	attrs  []byte // preformatted attrs from WithAttrs
}

func newPrettyHandler(w io.Writer, cfg config) *prettyHandler {
	return &prettyHandler{
		mu:     &sync.Mutex{},
		w:      w,
		cfg:    cfg,
		styles: makePrettyStyles(w),
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.Level(h.cfg.level)
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	if !r.Time.IsZero() {
		if ts := h.cfg.formatTime(r.Time); ts != "" {
			buf.WriteString(h.styles.time.Render(ts))
			buf.WriteByte(' ')
		}
	}

	level := Level(r.Level)
	buf.WriteString(h.styles.levelStyle(level).Render(
		fmt.Sprintf("%-5s", strings.ToUpper(level.String()))))

	buf.WriteByte(' ')
	buf.WriteString(r.Message)
	buf.Write(h.attrs)

	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&buf, h.prefix, a)

		return true
	})

	if h.cfg.caller && r.PC != 0 {
		if src := r.Source(); src != nil {
			loc := filepath.Base(src.File) + ":" + strconv.Itoa(src.Line)
			buf.WriteByte(' ')
			buf.WriteString(h.styles.source.Render(loc))
		}
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	c := *h

	buf := bytes.NewBuffer(bytes.Clone(h.attrs))
	for _, a := range attrs {
		h.appendAttr(buf, h.prefix, a)
	}

	c.attrs = buf.Bytes()

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

// appendAttr writes a as " key=value". Groups are flattened with dotted
// keys.
func (h *prettyHandler) appendAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}

		for _, ga := range a.Value.Group() {
			h.appendAttr(buf, prefix, ga)
		}

		return
	}

	buf.WriteByte(' ')
	buf.WriteString(h.styles.key.Render(prefix + a.Key + "="))

	switch a.Value.Kind() {
	case slog.KindInt64, slog.KindUint64, slog.KindFloat64, slog.KindDuration:
		buf.WriteString(h.styles.num.Render(a.Value.String()))

	default:
		buf.WriteString(h.styles.str.Render(quoteIfNeeded(a.Value.String())))
	}
}

// quoteIfNeeded quotes s when it would otherwise be ambiguous in a
// key=value list.
func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}

	for _, r := range s {
		if unicode.IsSpace(r) || r == '=' || r == '"' || !unicode.IsPrint(r) {
			return strconv.Quote(s)
		}
	}

	return s
}
