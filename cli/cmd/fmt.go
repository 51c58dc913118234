package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/deflang/lang"
)

// Output formats accepted by --output.
const (
	FormatYAML   = "yaml"
	FormatJSON   = "json"
	FormatNative = "native"
)

// writeMapping writes m to w in the named format.
func writeMapping(
	ctx context.Context,
	w io.Writer,
	m *lang.Mapping,
	format string,
	indent int,
) error {
	switch format {
	case FormatYAML:
		if err := m.FormatYAML(ctx, w, indent); err != nil {
			return ErrYAMLMarshal.Wrap(err)
		}

	case FormatJSON:
		if err := m.FormatJSON(ctx, w, indent); err != nil {
			return ErrJSONMarshal.Wrap(err)
		}

	case FormatNative:
		if err := m.Format(ctx, w); err != nil {
			return ErrWriteOutput.With(slog.String("format", format)).Wrap(err)
		}

	default:
		return ErrOutputFormat.With(slog.String("format", format))
	}

	return nil
}

// writeValue writes a single query result to w as a YAML document.
func writeValue(ctx context.Context, w io.Writer, value any) error {
	data, err := yaml.MarshalContext(ctx, lang.YAMLValue(value))
	if err != nil {
		return ErrYAMLMarshal.Wrap(err)
	}

	if _, err := w.Write(data); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

// Tokens prints the token stream of the input, one token per line.
type Tokens struct {
	Input `embed:""`
}

// Run executes the tokens command.
func (t *Tokens) Run(ctx context.Context, stdio IO, g *Globals) (err error) {
	_, cancel := context.WithCancelCause(ctx)

	defer func(err *error) {
		cancel(*err)
	}(&err)

	marker, err := g.CommentMarker()
	if err != nil {
		return err
	}

	src, err := t.read(stdio)
	if err != nil {
		return err
	}

	tokens, err := lang.Lex(lang.StripComments(src, marker))
	if err != nil {
		return lang.WrapError(err).With(slog.String("command", "tokens"))
	}

	for _, tok := range tokens {
		_, err := fmt.Fprintf(stdio.Out, "%s\t%s\t%s\n", tok.Kind, tok.Text, tok.Pos)
		if err != nil {
			return ErrWriteOutput.Wrap(err)
		}
	}

	return nil
}

// AST prints the statement tree of the input.
type AST struct {
	Input `embed:""`
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context, stdio IO, g *Globals) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) {
		cancel(*err)
	}(&err)

	opts, err := g.Options()
	if err != nil {
		return err
	}

	src, err := a.read(stdio)
	if err != nil {
		return err
	}

	ast, err := lang.ParseString(ctx, src, opts...)
	if err != nil {
		return lang.WrapError(err).With(slog.String("command", "ast"))
	}

	if err := ast.Print(stdio.Out); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}
