package lang

import (
	"context"
	"io"
	"log/slog"

	"github.com/klauspost/readahead"

	"github.com/ardnew/deflang/log"
)

// options configures parsing and resolution.
type options struct {
	logger log.Logger // zero value discards all records
	marker rune
	strict bool
}

// Option configures the behavior of [Evaluate] and [Resolve].
type Option func(*options)

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCommentMarker sets the character that starts a line comment.
// The default is [DefaultCommentMarker].
func WithCommentMarker(marker rune) Option {
	return func(o *options) {
		o.marker = marker
	}
}

// WithStrictDefinitions rejects a second definition of the same constant
// with [ErrDuplicateDefinition]. By default the later definition silently
// replaces the earlier one.
func WithStrictDefinitions(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

func makeOptions(opts ...Option) options {
	o := options{marker: DefaultCommentMarker}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// EvaluateReader reads all of r and evaluates it with [Evaluate].
func EvaluateReader(
	ctx context.Context,
	r io.Reader,
	opts ...Option,
) (*Mapping, error) {
	src, err := ReadSource(r)
	if err != nil {
		return nil, err
	}

	return Evaluate(ctx, src, opts...)
}

// ReadSource reads the entire input in one go.
func ReadSource(r io.Reader) (string, error) {
	// Wrap reader with async read-ahead so reads overlap with buffering.
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return "", ErrReadInput.Wrap(err)
	}

	return string(data), nil
}

// Evaluate strips comments from src, then tokenizes, parses, and resolves
// it into the output mapping.
func Evaluate(ctx context.Context, src string, opts ...Option) (*Mapping, error) {
	ast, err := ParseString(ctx, src, opts...)
	if err != nil {
		return nil, err
	}

	return Resolve(ctx, ast, opts...)
}

// ParseString strips comments from src, then tokenizes and parses it.
func ParseString(ctx context.Context, src string, opts ...Option) (*AST, error) {
	o := makeOptions(opts...)

	o.logger.TraceContext(ctx, "parse start",
		slog.Int("source_length", len(src)))

	tokens, err := Lex(StripComments(src, o.marker))
	if err != nil {
		return nil, err
	}

	o.logger.TraceContext(ctx, "lex complete",
		slog.Int("token_count", len(tokens)))

	ast, err := Parse(tokens)
	if err != nil {
		return nil, err
	}

	o.logger.TraceContext(ctx, "parse complete",
		slog.Int("statement_count", len(ast.Statements)))

	return ast, nil
}
