package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/deflang/cli/cmd"
	"github.com/ardnew/deflang/pkg"
)

// CLI is the top-level command-line interface for deflang.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Version kong.VersionFlag `help:"Print version and exit." short:"V"`

	cmd.Globals `embed:""`

	Eval   cmd.Eval   `cmd:"" default:"withargs" help:"Evaluate a program and print its output keys"`
	Query  cmd.Query  `cmd:""                    help:"Evaluate an expression over the output keys"`
	Tokens cmd.Tokens `cmd:""                    help:"Print the token stream"`
	AST    cmd.AST    `cmd:"" name:"ast"         help:"Print the statement tree"`
	Repl   cmd.Repl   `cmd:""                    help:"Start an interactive session"`
	Init   cmd.Init   `cmd:""                    help:"Write a configuration file with the current flag values"`
}

// Run executes the deflang CLI with the given context and arguments using
// the process's standard streams.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	return RunIO(ctx, cmd.StdIO(), exit, args...)
}

// RunIO is like [Run] but reads from and writes to the given streams.
func RunIO(
	ctx context.Context,
	stdio cmd.IO,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	dirs := userPaths()
	if err := dirs.mkdirAll(); err != nil {
		return err
	}

	configFile := dirs.configFile()

	vars := kong.Vars{
		cmd.ConfigIdentifier:  configFile,
		cmd.CacheIdentifier:   dirs.cache,
		cmd.HistoryIdentifier: dirs.historyFile(),
		"version":             pkg.Version,
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars(dirs))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags so that they apply while parsing, regardless
	// of their position on the command line.
	cli.Log.out = stdio.Err
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.Writers(stdio.Out, stdio.Err),
		kong.ExplicitGroups(append(cli.Log.groups(), cli.Pprof.groups()...)),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configFile+".json"),
		kong.Configuration(resolve(ctx), configFile),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Commands receive the context, their streams, and the shared options.
	ctx = cmd.WithContext(ctx, ktx)
	ktx.BindTo(ctx, (*context.Context)(nil))
	ktx.Bind(stdio)

	// Apply all parsed logger values, including those from the
	// configuration file.
	cli.Log.start(ctx)

	// No-op unless built with tag pprof and a mode is selected.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(&cli.Globals)
}
