package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/deflang/lang"
	"github.com/ardnew/deflang/log"
)

// Eval evaluates the input program and prints the resulting mapping.
type Eval struct {
	Input `embed:""`

	Output string `help:"Output format (${enum})." default:"yaml" enum:"yaml,json,native" short:"o"`
	Indent int    `help:"Indent width (0 selects compact output)." default:"2"          short:"i"`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context, stdio IO, g *Globals) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) {
		cancel(*err)
	}(&err)

	m, err := evaluate(ctx, e.Input, stdio, g)
	if err != nil {
		return lang.WrapError(err).With(slog.String("command", "eval"))
	}

	log.DebugContext(ctx, "evaluated",
		slog.Int("keys", m.Len()),
		slog.String("output", e.Output),
	)

	return writeMapping(ctx, stdio.Out, m, e.Output, e.Indent)
}

// Query evaluates the input program and prints the value of an expression
// over its output keys.
type Query struct {
	Input `embed:""`

	Expression string `arg:"" help:"Expression over the output keys, e.g. 'port + 1'." name:"expr"`
}

// Run executes the query command.
func (q *Query) Run(ctx context.Context, stdio IO, g *Globals) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) {
		cancel(*err)
	}(&err)

	m, err := evaluate(ctx, q.Input, stdio, g)
	if err != nil {
		return lang.WrapError(err).With(slog.String("command", "query"))
	}

	result, err := lang.Query(ctx, m, q.Expression)
	if err != nil {
		return err
	}

	return writeValue(ctx, stdio.Out, result)
}

// evaluate reads and evaluates the program selected by in.
func evaluate(
	ctx context.Context,
	in Input,
	stdio IO,
	g *Globals,
) (*lang.Mapping, error) {
	opts, err := g.Options()
	if err != nil {
		return nil, err
	}

	src, err := in.read(stdio)
	if err != nil {
		return nil, err
	}

	return lang.Evaluate(ctx, src, opts...)
}
