package cmd

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/deflang/cli/cmd/repl"
	"github.com/ardnew/deflang/log"
)

// Repl starts an interactive session, optionally preloaded with a program.
type Repl struct {
	Source  []string `help:"Source file(s) to load into the session" short:"f"`
	History string   `help:"History file (empty disables history)" default:"${history}" type:"path"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context, stdio IO, g *Globals) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) {
		cancel(*err)
	}(&err)

	opts, err := g.Options()
	if err != nil {
		return err
	}

	var src string

	if len(r.Source) > 0 {
		src, err = Input{Source: r.Source}.read(stdio)
		if err != nil {
			return err
		}
	}

	session, err := repl.NewSession(ctx, src, opts...)
	if err != nil {
		return err
	}

	log.DebugContext(ctx, "repl session loaded",
		slog.Int("keys", session.Mapping().Len()),
		slog.String("history", r.History),
	)

	return repl.Run(ctx, session, r.History, log.Default(),
		tea.WithInput(stdio.In),
		tea.WithOutput(stdio.Out),
	)
}
