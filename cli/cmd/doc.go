// Package cmd implements the deflang subcommands: eval, tokens, ast, query,
// repl, and init.
//
// Commands read their program from one or more source files ([Input]), apply
// the options shared by every command ([Globals]), and write to the streams
// bound in [IO] so they can be driven from tests.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the configuration file.
	ConfigIdentifier = "config"

	// HistoryIdentifier is the kong variable identifier containing the path to
	// the REPL history file.
	HistoryIdentifier = "history"
)
